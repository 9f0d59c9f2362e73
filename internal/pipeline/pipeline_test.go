package pipeline

import (
	"context"
	"net/http"
	"net/http/httptest"
	"os"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/iptvscan/iptvscan/internal/catalog"
	"github.com/iptvscan/iptvscan/internal/config"
	"github.com/iptvscan/iptvscan/internal/endpoints"
	"github.com/iptvscan/iptvscan/internal/logging"
)

const testPlaylist = `#EXTM3U
#EXTINF:-1 tvg-id="bbc1" tvg-name="BBC One" group-title="UK",BBC One
http://x/bbc1.m3u8
#EXTINF:-1 tvg-id="bbc1" tvg-name="BBC One" group-title="UK",BBC One again
http://y/bbc1.m3u8
`

const testGuide = `<tv>
  <channel id="bbc1"><display-name>BBC One</display-name></channel>
</tv>`

func newTestPipeline(t *testing.T) (*Pipeline, *config.Config) {
	t.Helper()

	mux := http.NewServeMux()
	mux.HandleFunc("/list.m3u", func(w http.ResponseWriter, r *http.Request) {
		w.Write([]byte(testPlaylist))
	})
	mux.HandleFunc("/guide.xml", func(w http.ResponseWriter, r *http.Request) {
		w.Write([]byte(testGuide))
	})
	srv := httptest.NewServer(mux)
	t.Cleanup(srv.Close)

	cfg := &config.Config{DataDir: t.TempDir()}
	cfg.Fetch.Timeout = 5 * time.Second
	cfg.Validate.Attempts = 1
	cfg.Validate.Timeout = 5 * time.Second
	cfg.Validate.BackoffBase = time.Millisecond
	cfg.Validate.Concurrency = 2
	cfg.Match.Threshold = 0.85

	art := &endpoints.Artifact{Set: endpoints.Set{
		PlaylistURLs: []string{srv.URL + "/list.m3u"},
		EPGURLs:      []string{srv.URL + "/guide.xml"},
	}}
	require.NoError(t, cfg.EnsureDataDir())
	require.NoError(t, art.Save(cfg.EndpointsPath()))

	return New(cfg, logging.Nop(), nil), cfg
}

func TestRun_FullPass(t *testing.T) {
	p, cfg := newTestPipeline(t)
	require.NoError(t, p.Lock())
	defer p.Unlock()

	res, err := p.Run(context.Background())
	require.NoError(t, err)

	assert.Equal(t, 2, res.Validation.Total)
	assert.Equal(t, 2, res.Validation.Alive)
	assert.Equal(t, 2, res.Channels)
	assert.Equal(t, 1, res.Guide)
	assert.Equal(t, 2, res.Matched)

	// Stores exist on disk and the enriched endpoints artifact round-trips.
	art, err := endpoints.Load(cfg.EndpointsPath())
	require.NoError(t, err)
	assert.Len(t, art.LastStatus, 2)
	assert.Empty(t, art.DeadLinks())

	store := catalog.NewChannelStore()
	require.NoError(t, store.Load(cfg.ChannelsPath()))
	channels := store.Snapshot()
	require.Len(t, channels, 2)
	assert.Equal(t, "BBC One", channels[0].MatchedGuideID)

	_, err = os.Stat(cfg.DeadLinksPath())
	assert.NoError(t, err)
}

func TestDedupe_RewritesStore(t *testing.T) {
	p, cfg := newTestPipeline(t)

	ctx := context.Background()
	_, err := p.ExtractChannels(ctx)
	require.NoError(t, err)

	before, after, err := p.Dedupe(ctx)
	require.NoError(t, err)
	assert.Equal(t, 2, before)
	assert.Equal(t, 1, after)

	store := catalog.NewChannelStore()
	require.NoError(t, store.Load(cfg.ChannelsPath()))
	assert.Equal(t, 1, store.Len())
}

func TestValidate_MissingEndpointsAborts(t *testing.T) {
	cfg := &config.Config{DataDir: t.TempDir()}
	cfg.Validate.Attempts = 1
	cfg.Validate.Timeout = time.Second
	cfg.Validate.Concurrency = 1
	p := New(cfg, logging.Nop(), nil)

	_, err := p.Validate(context.Background())
	assert.Error(t, err)
}

func TestLock_Exclusive(t *testing.T) {
	p, cfg := newTestPipeline(t)
	require.NoError(t, p.Lock())
	defer p.Unlock()

	second := New(cfg, logging.Nop(), nil)
	assert.Error(t, second.Lock())
}

func TestAudit_CleanGuide(t *testing.T) {
	p, _ := newTestPipeline(t)

	ctx := context.Background()
	_, err := p.ExtractGuide(ctx)
	require.NoError(t, err)

	report, err := p.Audit(ctx)
	require.NoError(t, err)
	assert.Equal(t, 1, report.TotalSources)
	assert.True(t, report.Clean())
}
