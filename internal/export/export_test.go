package export

import (
	"bytes"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/iptvscan/iptvscan/internal/catalog"
)

func TestChannels(t *testing.T) {
	var buf bytes.Buffer
	err := Channels(&buf, []catalog.ChannelRecord{
		{ID: "bbc1", DisplayName: "BBC One", Group: "UK", Language: "Unknown", StreamURL: "http://x/1", SourceURL: "src", MatchedGuideID: "BBC One HD"},
		{DisplayName: "No ID", Language: "Unknown"},
	})
	require.NoError(t, err)

	lines := strings.Split(strings.TrimSpace(buf.String()), "\n")
	require.Len(t, lines, 3)
	assert.Equal(t, "id,display_name,logo_url,group,language,stream_url,source_url,matched_guide_id", lines[0])
	assert.Contains(t, lines[1], "bbc1,BBC One")
	assert.Contains(t, lines[2], "No ID")
}

func TestGuide_FlattensInGroupOrder(t *testing.T) {
	snap := catalog.NewGuideSnapshot()
	snap.AddGroup("g2", []catalog.GuideEntry{{ID: "b", DisplayName: "B", SourceGuideURL: "g2", Language: "unknown"}})
	snap.AddGroup("g1", []catalog.GuideEntry{{ID: "a", DisplayName: "A", SourceGuideURL: "g1", Language: "unknown"}})

	var buf bytes.Buffer
	require.NoError(t, Guide(&buf, snap))

	lines := strings.Split(strings.TrimSpace(buf.String()), "\n")
	require.Len(t, lines, 3)
	assert.Equal(t, "id,display_name,source_guide_url,language", lines[0])
	assert.True(t, strings.HasPrefix(lines[1], "b,"))
	assert.True(t, strings.HasPrefix(lines[2], "a,"))
}

func TestChannels_FieldsWithCommasAreQuoted(t *testing.T) {
	var buf bytes.Buffer
	err := Channels(&buf, []catalog.ChannelRecord{
		{ID: "x", DisplayName: "News, Sport and More"},
	})
	require.NoError(t, err)
	assert.Contains(t, buf.String(), `"News, Sport and More"`)
}
