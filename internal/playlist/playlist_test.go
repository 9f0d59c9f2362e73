package playlist

import (
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/iptvscan/iptvscan/internal/catalog"
)

const samplePlaylist = `#EXTM3U
#EXTINF:-1 tvg-id="bbc1" tvg-name="BBC One" tvg-logo="x.png" group-title="UK",BBC One
http://x/bbc1.m3u8
#EXTINF:-1 tvg-id="itv1" tvg-name="ITV1" group-title="UK",ITV1
http://x/itv1.m3u8
`

func TestParse_FullHeader(t *testing.T) {
	channels, err := Parse(strings.NewReader(samplePlaylist), "http://src/list.m3u")
	require.NoError(t, err)
	require.Len(t, channels, 2)

	assert.Equal(t, catalog.ChannelRecord{
		ID:          "bbc1",
		DisplayName: "BBC One",
		LogoURL:     "x.png",
		Group:       "UK",
		Language:    "Unknown",
		StreamURL:   "http://x/bbc1.m3u8",
		SourceURL:   "http://src/list.m3u",
	}, channels[0])
}

func TestParse_AttributesAreIndependent(t *testing.T) {
	in := `#EXTINF:-1 tvg-id="bbc1" group-title="UK",no name or logo
http://x/bbc1.m3u8
`
	channels, err := Parse(strings.NewReader(in), "src")
	require.NoError(t, err)
	require.Len(t, channels, 1)
	assert.Equal(t, "bbc1", channels[0].ID)
	assert.Empty(t, channels[0].DisplayName)
	assert.Empty(t, channels[0].LogoURL)
	assert.Equal(t, "UK", channels[0].Group)
}

func TestParse_DropsFullyEmptyRecords(t *testing.T) {
	in := `#EXTINF:-1 tvg-logo="x.png" group-title="UK",nameless
http://x/stream.m3u8
`
	channels, err := Parse(strings.NewReader(in), "src")
	require.NoError(t, err)
	assert.Empty(t, channels)
}

func TestParse_MarkerFollowedByMarker(t *testing.T) {
	in := `#EXTINF:-1 tvg-id="a",A
#EXTINF:-1 tvg-id="b",B
http://x/b.m3u8
`
	channels, err := Parse(strings.NewReader(in), "src")
	require.NoError(t, err)
	require.Len(t, channels, 2)
	assert.Empty(t, channels[0].StreamURL)
	assert.Equal(t, "http://x/b.m3u8", channels[1].StreamURL)
}

func TestParse_MarkerAsLastLine(t *testing.T) {
	in := `#EXTINF:-1 tvg-id="a",A`
	channels, err := Parse(strings.NewReader(in), "src")
	require.NoError(t, err)
	require.Len(t, channels, 1)
	assert.Empty(t, channels[0].StreamURL)
}

func TestParse_Idempotent(t *testing.T) {
	first, err := Parse(strings.NewReader(samplePlaylist), "src")
	require.NoError(t, err)
	second, err := Parse(strings.NewReader(samplePlaylist), "src")
	require.NoError(t, err)
	assert.Equal(t, first, second)
}

func TestParse_OrderFollowsDocument(t *testing.T) {
	channels, err := Parse(strings.NewReader(samplePlaylist), "src")
	require.NoError(t, err)
	require.Len(t, channels, 2)
	assert.Equal(t, "bbc1", channels[0].ID)
	assert.Equal(t, "itv1", channels[1].ID)
}
