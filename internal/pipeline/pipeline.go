// Package pipeline wires the stages together: endpoint validation, playlist
// and guide extraction, reconciliation, auditing and deduplication, each
// loading and persisting the shared stores.
package pipeline

import (
	"context"
	"fmt"
	"sync"

	"github.com/gofrs/flock"
	"github.com/google/uuid"
	"github.com/rs/zerolog"

	"github.com/iptvscan/iptvscan/internal/auditor"
	"github.com/iptvscan/iptvscan/internal/catalog"
	"github.com/iptvscan/iptvscan/internal/config"
	"github.com/iptvscan/iptvscan/internal/dedupe"
	"github.com/iptvscan/iptvscan/internal/endpoints"
	"github.com/iptvscan/iptvscan/internal/guide"
	"github.com/iptvscan/iptvscan/internal/history"
	"github.com/iptvscan/iptvscan/internal/httpclient"
	"github.com/iptvscan/iptvscan/internal/metrics"
	"github.com/iptvscan/iptvscan/internal/mirror"
	"github.com/iptvscan/iptvscan/internal/playlist"
	"github.com/iptvscan/iptvscan/internal/reconcile"
	"github.com/iptvscan/iptvscan/internal/validator"
)

// Pipeline runs the stages against one data directory. Stores are
// single-writer per run: Lock guards against concurrent runs over the same
// directory.
type Pipeline struct {
	cfg     *config.Config
	log     zerolog.Logger
	metrics *metrics.Provider
	lock    *flock.Flock
}

func New(cfg *config.Config, log zerolog.Logger, m *metrics.Provider) *Pipeline {
	return &Pipeline{
		cfg:     cfg,
		log:     log,
		metrics: m,
		lock:    flock.New(cfg.LockPath()),
	}
}

// Lock acquires the data-directory lock, failing fast when another run holds
// it.
func (p *Pipeline) Lock() error {
	if err := p.cfg.EnsureDataDir(); err != nil {
		return err
	}
	ok, err := p.lock.TryLock()
	if err != nil {
		return fmt.Errorf("acquire lock %s: %w", p.cfg.LockPath(), err)
	}
	if !ok {
		return fmt.Errorf("another run holds %s", p.cfg.LockPath())
	}
	return nil
}

func (p *Pipeline) Unlock() {
	if err := p.lock.Unlock(); err != nil {
		p.log.Warn().Err(err).Msg("release lock")
	}
}

// Validate checks every configured endpoint and persists the enriched
// artifact, the dead-link snapshot and the run history. Persistence failures
// are logged; the in-memory summary is still returned.
func (p *Pipeline) Validate(ctx context.Context) (validator.Summary, error) {
	art, err := endpoints.Load(p.cfg.EndpointsPath())
	if err != nil {
		return validator.Summary{}, err
	}

	runID := uuid.NewString()
	var recorder validator.Recorder
	store, err := history.Open(p.cfg.HistoryDBPath())
	if err != nil {
		p.log.Warn().Err(err).Msg("history store unavailable, run will not be recorded")
	} else {
		defer store.Close()
		if err := store.BeginRun(ctx, runID, len(art.All())); err != nil {
			p.log.Warn().Err(err).Msg("begin history run")
		} else {
			recorder = store
		}
	}

	checker := validator.New(p.log, validator.Options{
		Attempts:    p.cfg.Validate.Attempts,
		Timeout:     p.cfg.Validate.Timeout,
		BackoffBase: p.cfg.Validate.BackoffBase,
		Concurrency: p.cfg.Validate.Concurrency,
		Mirror:      mirror.NewAdvisor(p.cfg.Mirror.Rules),
		Metrics:     p.metrics,
		Recorder:    recorder,
		RunID:       runID,
	})

	summary, err := checker.Run(ctx, art)
	if err != nil {
		return summary, err
	}

	if recorder != nil {
		if err := store.FinishRun(ctx, runID, summary.Alive, summary.Dead); err != nil {
			p.log.Warn().Err(err).Msg("finish history run")
		}
	}
	if err := art.Save(p.cfg.EndpointsPath()); err != nil {
		p.log.Error().Err(err).Msg("persist endpoints artifact")
	}
	if err := art.SaveDeadLinks(p.cfg.DeadLinksPath()); err != nil {
		p.log.Error().Err(err).Msg("persist dead links")
	}
	return summary, nil
}

// ExtractChannels fetches every playlist URL and rewrites the channel store.
func (p *Pipeline) ExtractChannels(ctx context.Context) (int, error) {
	art, err := endpoints.Load(p.cfg.EndpointsPath())
	if err != nil {
		return 0, err
	}

	ex := playlist.NewExtractor(p.log, httpclient.WithTimeout(p.cfg.Fetch.Timeout))
	channels := ex.FetchAll(ctx, art.PlaylistURLs)

	store := catalog.NewChannelStore()
	store.Replace(channels)
	if p.metrics != nil {
		p.metrics.SetChannelsTotal(len(channels))
	}
	if err := store.Save(p.cfg.ChannelsPath()); err != nil {
		p.log.Error().Err(err).Msg("persist channel store")
	}
	return len(channels), nil
}

// ExtractGuide fetches every guide URL and rewrites the guide store.
func (p *Pipeline) ExtractGuide(ctx context.Context) (*catalog.GuideSnapshot, error) {
	art, err := endpoints.Load(p.cfg.EndpointsPath())
	if err != nil {
		return nil, err
	}

	ex := guide.NewExtractor(p.log, httpclient.WithTimeout(p.cfg.Fetch.Timeout))
	snap := ex.FetchAll(ctx, art.EPGURLs)
	if p.metrics != nil {
		p.metrics.SetGuideEntries(snap.EntryCount())
	}
	if err := snap.Save(p.cfg.GuidePath()); err != nil {
		p.log.Error().Err(err).Msg("persist guide store")
	}
	return snap, nil
}

// Match annotates stored channels against the stored guide snapshot and
// rewrites the channel store. Returns the number of channels annotated.
func (p *Pipeline) Match(ctx context.Context) (int, error) {
	store := catalog.NewChannelStore()
	if err := store.Load(p.cfg.ChannelsPath()); err != nil {
		return 0, fmt.Errorf("load channel store: %w", err)
	}
	snap := catalog.NewGuideSnapshot()
	if err := snap.Load(p.cfg.GuidePath()); err != nil {
		return 0, fmt.Errorf("load guide store: %w", err)
	}

	channels := store.Snapshot()
	matched := reconcile.Annotate(p.log, channels, snap, p.cfg.Match.Threshold)
	store.Replace(channels)
	if p.metrics != nil {
		p.metrics.SetMatchedChannels(matched)
	}
	if err := store.Save(p.cfg.ChannelsPath()); err != nil {
		p.log.Error().Err(err).Msg("persist channel store")
	}
	return matched, nil
}

// Audit runs integrity diagnostics over the stored guide snapshot.
func (p *Pipeline) Audit(ctx context.Context) (auditor.Report, error) {
	snap := catalog.NewGuideSnapshot()
	if err := snap.Load(p.cfg.GuidePath()); err != nil {
		return auditor.Report{}, fmt.Errorf("load guide store: %w", err)
	}
	return auditor.Audit(snap), nil
}

// Dedupe collapses duplicate channel identifiers in the stored channel list
// and rewrites the store. Returns (before, after) counts.
func (p *Pipeline) Dedupe(ctx context.Context) (int, int, error) {
	store := catalog.NewChannelStore()
	if err := store.Load(p.cfg.ChannelsPath()); err != nil {
		return 0, 0, fmt.Errorf("load channel store: %w", err)
	}
	channels := store.Snapshot()
	before := len(channels)
	unique, after := dedupe.Channels(channels)
	store.Replace(unique)
	if err := store.Save(p.cfg.ChannelsPath()); err != nil {
		p.log.Error().Err(err).Msg("persist channel store")
	}
	p.log.Info().Int("before", before).Int("after", after).Msg("deduplication complete")
	return before, after, nil
}

// RunResult aggregates a full pipeline pass.
type RunResult struct {
	Validation validator.Summary
	Channels   int
	Guide      int
	Matched    int
}

// Run executes the full pass: validation, then playlist and guide extraction
// concurrently, then reconciliation once both extractors have finished.
func (p *Pipeline) Run(ctx context.Context) (RunResult, error) {
	var res RunResult

	summary, err := p.Validate(ctx)
	if err != nil {
		return res, err
	}
	res.Validation = summary

	var (
		wg       sync.WaitGroup
		chanErr  error
		guideErr error
		snap     *catalog.GuideSnapshot
	)
	wg.Add(2)
	go func() {
		defer wg.Done()
		res.Channels, chanErr = p.ExtractChannels(ctx)
	}()
	go func() {
		defer wg.Done()
		snap, guideErr = p.ExtractGuide(ctx)
	}()
	wg.Wait()
	if chanErr != nil {
		return res, chanErr
	}
	if guideErr != nil {
		return res, guideErr
	}
	res.Guide = snap.EntryCount()

	res.Matched, err = p.Match(ctx)
	if err != nil {
		return res, err
	}
	return res, nil
}
