// Package dashboard serves a local read-only view over the pipeline's stored
// artifacts: an HTML summary plus the raw channel, guide and dead-link data.
package dashboard

import (
	"context"
	"errors"
	"net/http"
	"os"
	"sort"
	"time"

	json "github.com/goccy/go-json"
	"github.com/rs/zerolog"

	"github.com/iptvscan/iptvscan/internal/catalog"
	"github.com/iptvscan/iptvscan/internal/config"
	"github.com/iptvscan/iptvscan/internal/endpoints"
	"github.com/iptvscan/iptvscan/internal/metrics"
)

// Server is the ad-hoc local viewer. Artifacts are re-read from disk per
// request, so a pipeline run in another process shows up on refresh.
type Server struct {
	cfg     *config.Config
	log     zerolog.Logger
	metrics *metrics.Provider
}

func NewServer(cfg *config.Config, log zerolog.Logger, m *metrics.Provider) *Server {
	return &Server{cfg: cfg, log: log, metrics: m}
}

// Run serves until ctx is cancelled.
func (s *Server) Run(ctx context.Context) error {
	mux := http.NewServeMux()
	mux.HandleFunc("/", s.serveSummary)
	mux.HandleFunc("/channels.json", s.serveChannels)
	mux.HandleFunc("/guide.json", s.serveGuide)
	mux.HandleFunc("/dead_links.json", s.serveDeadLinks)
	if s.metrics != nil {
		mux.Handle("/metrics", s.metrics.Handler())
	}

	srv := &http.Server{Addr: s.cfg.Dashboard.Addr, Handler: s.logRequests(mux)}

	serverErr := make(chan error, 1)
	go func() {
		s.log.Info().Str("addr", s.cfg.Dashboard.Addr).Msg("dashboard listening")
		serverErr <- srv.ListenAndServe()
	}()

	select {
	case err := <-serverErr:
		if err != nil && !errors.Is(err, http.ErrServerClosed) {
			return err
		}
		return nil
	case <-ctx.Done():
		s.log.Info().Msg("shutting down dashboard")
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
		defer cancel()
		if err := srv.Shutdown(shutdownCtx); err != nil {
			s.log.Warn().Err(err).Msg("dashboard shutdown")
		}
		<-serverErr
		return nil
	}
}

func (s *Server) logRequests(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		start := time.Now()
		next.ServeHTTP(w, r)
		s.log.Debug().
			Str("method", r.Method).
			Str("path", r.URL.Path).
			Dur("elapsed", time.Since(start)).
			Msg("dashboard request")
	})
}

// serveChannels returns the channel store, optionally filtered by the group,
// language and q query parameters.
func (s *Server) serveChannels(w http.ResponseWriter, r *http.Request) {
	store := catalog.NewChannelStore()
	if err := store.Load(s.cfg.ChannelsPath()); err != nil {
		s.serveLoadError(w, err)
		return
	}
	channels := store.Snapshot()

	q := r.URL.Query()
	if group, language := q.Get("group"), q.Get("language"); group != "" || language != "" {
		channels = catalog.FilterChannels(channels, group, language)
	}
	if query := q.Get("q"); query != "" {
		channels = catalog.SearchChannels(channels, query)
	}
	writeJSON(w, channels)
}

func (s *Server) serveGuide(w http.ResponseWriter, r *http.Request) {
	snap := catalog.NewGuideSnapshot()
	if err := snap.Load(s.cfg.GuidePath()); err != nil {
		s.serveLoadError(w, err)
		return
	}
	w.Header().Set("Content-Type", "application/json")
	if err := snap.Encode(w); err != nil {
		s.log.Warn().Err(err).Msg("encode guide response")
	}
}

func (s *Server) serveDeadLinks(w http.ResponseWriter, r *http.Request) {
	art, err := endpoints.Load(s.cfg.EndpointsPath())
	if err != nil {
		s.serveLoadError(w, err)
		return
	}
	writeJSON(w, art.DeadLinks())
}

func (s *Server) serveLoadError(w http.ResponseWriter, err error) {
	if errors.Is(err, os.ErrNotExist) {
		http.Error(w, "artifact not generated yet", http.StatusNotFound)
		return
	}
	s.log.Error().Err(err).Msg("load artifact")
	http.Error(w, "failed to load artifact", http.StatusInternalServerError)
}

func writeJSON(w http.ResponseWriter, v any) {
	w.Header().Set("Content-Type", "application/json")
	enc := json.NewEncoder(w)
	enc.SetIndent("", "  ")
	_ = enc.Encode(v)
}

// countRow is one aggregate line in the summary table.
type countRow struct {
	Key   string
	Count int
}

func aggregate(channels []catalog.ChannelRecord, key func(catalog.ChannelRecord) string) []countRow {
	counts := make(map[string]int)
	for _, ch := range channels {
		k := key(ch)
		if k == "" {
			k = "(none)"
		}
		counts[k]++
	}
	rows := make([]countRow, 0, len(counts))
	for k, n := range counts {
		rows = append(rows, countRow{Key: k, Count: n})
	}
	sort.Slice(rows, func(i, j int) bool {
		if rows[i].Count != rows[j].Count {
			return rows[i].Count > rows[j].Count
		}
		return rows[i].Key < rows[j].Key
	})
	return rows
}

func (s *Server) serveSummary(w http.ResponseWriter, r *http.Request) {
	if r.URL.Path != "/" {
		http.NotFound(w, r)
		return
	}

	data := summaryData{GeneratedAt: time.Now().Format(time.RFC1123)}

	store := catalog.NewChannelStore()
	if err := store.Load(s.cfg.ChannelsPath()); err == nil {
		channels := store.Snapshot()
		data.ChannelCount = len(channels)
		for _, ch := range channels {
			if ch.MatchedGuideID != "" {
				data.MatchedCount++
			}
		}
		data.Groups = aggregate(channels, func(ch catalog.ChannelRecord) string { return ch.Group })
		data.Languages = aggregate(channels, func(ch catalog.ChannelRecord) string { return ch.Language })
	}

	snap := catalog.NewGuideSnapshot()
	if err := snap.Load(s.cfg.GuidePath()); err == nil {
		data.GuideSources = snap.SourceCount()
		data.GuideEntries = snap.EntryCount()
	}

	if art, err := endpoints.Load(s.cfg.EndpointsPath()); err == nil {
		for _, st := range art.LastStatus {
			if st.Alive {
				data.AliveURLs++
			} else {
				data.DeadURLs++
			}
		}
	}

	w.Header().Set("Content-Type", "text/html; charset=utf-8")
	if err := summaryTemplate.Execute(w, data); err != nil {
		s.log.Warn().Err(err).Msg("render summary")
	}
}

type summaryData struct {
	GeneratedAt  string
	ChannelCount int
	MatchedCount int
	GuideSources int
	GuideEntries int
	AliveURLs    int
	DeadURLs     int
	Groups       []countRow
	Languages    []countRow
}
