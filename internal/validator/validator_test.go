package validator

import (
	"context"
	"net/http"
	"net/http/httptest"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/iptvscan/iptvscan/internal/endpoints"
	"github.com/iptvscan/iptvscan/internal/logging"
	"github.com/iptvscan/iptvscan/internal/mirror"
	"github.com/iptvscan/iptvscan/internal/netclass"
)

type fakeSleeper struct {
	mu     sync.Mutex
	delays []time.Duration
}

func (f *fakeSleeper) Sleep(ctx context.Context, d time.Duration) error {
	f.mu.Lock()
	f.delays = append(f.delays, d)
	f.mu.Unlock()
	return nil
}

// testServer fails the first failures requests per path with HTTP 500, then
// answers 200.
func testServer(t *testing.T, failures int) *httptest.Server {
	t.Helper()
	var mu sync.Mutex
	counts := make(map[string]int)
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		mu.Lock()
		counts[r.URL.Path]++
		n := counts[r.URL.Path]
		mu.Unlock()
		if n <= failures {
			w.WriteHeader(http.StatusInternalServerError)
			return
		}
		w.WriteHeader(http.StatusOK)
	}))
	t.Cleanup(srv.Close)
	return srv
}

func newTestChecker(srv *httptest.Server, sleeper Sleeper, rules []mirror.Rule) *Checker {
	return New(logging.Nop(), Options{
		Attempts:    3,
		Timeout:     5 * time.Second,
		BackoffBase: 10 * time.Millisecond,
		Concurrency: 1,
		Client:      srv.Client(),
		Sleeper:     sleeper,
		Mirror:      mirror.NewAdvisor(rules),
	})
}

func TestRun_SuccessFirstAttempt(t *testing.T) {
	srv := testServer(t, 0)
	checker := newTestChecker(srv, &fakeSleeper{}, nil)

	art := &endpoints.Artifact{Set: endpoints.Set{PlaylistURLs: []string{srv.URL + "/list"}}}
	summary, err := checker.Run(context.Background(), art)
	require.NoError(t, err)

	assert.Equal(t, 1, summary.Total)
	assert.Equal(t, 1, summary.Alive)
	assert.Zero(t, summary.Dead)

	url := srv.URL + "/list"
	require.Len(t, art.StatusHistory[url], 1)
	assert.True(t, art.StatusHistory[url][0].OK)
	assert.Equal(t, http.StatusOK, art.StatusHistory[url][0].StatusCode)
	assert.True(t, art.LastStatus[url].Alive)
}

func TestRun_SuccessAfterRetries(t *testing.T) {
	srv := testServer(t, 2)
	sleeper := &fakeSleeper{}
	checker := newTestChecker(srv, sleeper, nil)

	url := srv.URL + "/flaky"
	art := &endpoints.Artifact{Set: endpoints.Set{EPGURLs: []string{url}}}
	summary, err := checker.Run(context.Background(), art)
	require.NoError(t, err)

	assert.Equal(t, 1, summary.Alive)
	// Two failures plus the final success: three history entries, alive last
	// status.
	require.Len(t, art.StatusHistory[url], 3)
	assert.False(t, art.StatusHistory[url][0].OK)
	assert.False(t, art.StatusHistory[url][1].OK)
	assert.True(t, art.StatusHistory[url][2].OK)
	assert.True(t, art.LastStatus[url].Alive)

	// Backoff doubles: base before attempt 2, 2x base before attempt 3.
	assert.Equal(t, []time.Duration{10 * time.Millisecond, 20 * time.Millisecond}, sleeper.delays)

	// A URL that eventually succeeded contributes nothing to the error-kind
	// tally.
	assert.Empty(t, summary.ErrorKinds)
}

func TestRun_AllAttemptsFail(t *testing.T) {
	srv := testServer(t, 3)
	sleeper := &fakeSleeper{}
	checker := newTestChecker(srv, sleeper, []mirror.Rule{
		{Match: "127.0.0.1", Replace: "mirror.test"},
	})

	url := srv.URL + "/dead"
	art := &endpoints.Artifact{Set: endpoints.Set{PlaylistURLs: []string{url}}}
	summary, err := checker.Run(context.Background(), art)
	require.NoError(t, err)

	assert.Zero(t, summary.Alive)
	assert.Equal(t, 1, summary.Dead)
	assert.Equal(t, 1, summary.ErrorKinds[netclass.UnknownError])

	require.Len(t, art.StatusHistory[url], 3)
	for _, rec := range art.StatusHistory[url] {
		assert.False(t, rec.OK)
		assert.Equal(t, http.StatusInternalServerError, rec.StatusCode)
		assert.Equal(t, string(netclass.UnknownError), rec.ErrorKind)
	}
	assert.False(t, art.LastStatus[url].Alive)
	assert.Len(t, sleeper.delays, 2)

	// Dead URL on a configured domain gets exactly one mirror suggestion.
	require.Contains(t, art.MirrorSuggestions, url)
	assert.Contains(t, art.MirrorSuggestions[url], "mirror.test")
}

func TestRun_DeadLinksMatchLastStatus(t *testing.T) {
	srv := testServer(t, 3)
	checker := newTestChecker(srv, &fakeSleeper{}, nil)

	alive := srv.URL + "/a"
	art := &endpoints.Artifact{Set: endpoints.Set{
		PlaylistURLs: []string{srv.URL + "/dead"},
		EPGURLs:      []string{alive},
	}}
	// Prime /a past its failure budget so it answers 200 immediately.
	for i := 0; i < 3; i++ {
		resp, err := srv.Client().Head(alive)
		require.NoError(t, err)
		resp.Body.Close()
	}

	_, err := checker.Run(context.Background(), art)
	require.NoError(t, err)

	dead := art.DeadLinks()
	for url, st := range art.LastStatus {
		_, inDead := dead[url]
		assert.Equal(t, !st.Alive, inDead, url)
	}
	assert.Len(t, dead, 1)
}

func TestRun_AppendsToExistingHistory(t *testing.T) {
	srv := testServer(t, 0)
	checker := newTestChecker(srv, &fakeSleeper{}, nil)

	url := srv.URL + "/list"
	earlier := endpoints.StatusRecord{Timestamp: time.Now().Add(-time.Hour), OK: false}
	art := &endpoints.Artifact{
		Set:           endpoints.Set{PlaylistURLs: []string{url}},
		StatusHistory: map[string][]endpoints.StatusRecord{url: {earlier}},
	}

	_, err := checker.Run(context.Background(), art)
	require.NoError(t, err)

	require.Len(t, art.StatusHistory[url], 2)
	assert.Equal(t, earlier, art.StatusHistory[url][0])
	assert.True(t, art.StatusHistory[url][1].OK)
}

func TestRun_EmptySet(t *testing.T) {
	srv := testServer(t, 0)
	checker := newTestChecker(srv, &fakeSleeper{}, nil)

	art := &endpoints.Artifact{}
	summary, err := checker.Run(context.Background(), art)
	require.NoError(t, err)
	assert.Zero(t, summary.Total)
	assert.Zero(t, summary.Alive)
	assert.Zero(t, summary.Dead)
}

func TestRun_ConnectionErrorClassified(t *testing.T) {
	srv := testServer(t, 0)
	srv.Close()
	checker := New(logging.Nop(), Options{
		Attempts:    1,
		Timeout:     time.Second,
		Concurrency: 1,
		Sleeper:     &fakeSleeper{},
	})

	url := srv.URL + "/gone"
	art := &endpoints.Artifact{Set: endpoints.Set{PlaylistURLs: []string{url}}}
	summary, err := checker.Run(context.Background(), art)
	require.NoError(t, err)

	assert.Equal(t, 1, summary.Dead)
	assert.Equal(t, string(netclass.ConnectionError), art.LastStatus[url].ErrorKind)
}
