package dedupe

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/iptvscan/iptvscan/internal/catalog"
)

func TestChannels_DuplicateIDsCollapse(t *testing.T) {
	in := []catalog.ChannelRecord{
		{ID: "bbc1", DisplayName: "BBC One", SourceURL: "a"},
		{ID: "bbc1", DisplayName: "BBC One Backup", SourceURL: "b"},
		{DisplayName: "No ID"},
	}

	out, count := Channels(in)
	assert.Equal(t, 2, count)
	require.Len(t, out, 2)
	// First occurrence kept, original order preserved.
	assert.Equal(t, "a", out[0].SourceURL)
	assert.Equal(t, "No ID", out[1].DisplayName)
}

func TestChannels_EmptyIDsAlwaysKept(t *testing.T) {
	in := []catalog.ChannelRecord{
		{DisplayName: "A"},
		{DisplayName: "B"},
		{DisplayName: "C"},
	}
	out, count := Channels(in)
	assert.Equal(t, 3, count)
	assert.Equal(t, in, out)
}

func TestChannels_Empty(t *testing.T) {
	out, count := Channels(nil)
	assert.Zero(t, count)
	assert.Empty(t, out)
}

func TestChannels_Stable(t *testing.T) {
	in := []catalog.ChannelRecord{
		{ID: "c"}, {ID: "a"}, {ID: "b"}, {ID: "a"}, {ID: "c"},
	}
	out, _ := Channels(in)
	ids := make([]string, 0, len(out))
	for _, ch := range out {
		ids = append(ids, ch.ID)
	}
	assert.Equal(t, []string{"c", "a", "b"}, ids)
}
