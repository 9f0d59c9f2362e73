// Package validator checks every configured endpoint with HEAD probes,
// retrying with exponential backoff, and produces the enriched endpoints
// artifact plus a run summary.
package validator

import (
	"context"
	"fmt"
	"net/http"
	"sync"
	"time"

	"github.com/rs/zerolog"

	"github.com/iptvscan/iptvscan/internal/endpoints"
	"github.com/iptvscan/iptvscan/internal/httpclient"
	"github.com/iptvscan/iptvscan/internal/metrics"
	"github.com/iptvscan/iptvscan/internal/mirror"
	"github.com/iptvscan/iptvscan/internal/netclass"
)

// Sleeper abstracts backoff waits so tests can observe delays without real
// time passing.
type Sleeper interface {
	Sleep(ctx context.Context, d time.Duration) error
}

type realSleeper struct{}

func (realSleeper) Sleep(ctx context.Context, d time.Duration) error {
	t := time.NewTimer(d)
	defer t.Stop()
	select {
	case <-ctx.Done():
		return ctx.Err()
	case <-t.C:
		return nil
	}
}

// Recorder receives per-attempt records as they happen. *history.Store
// satisfies it.
type Recorder interface {
	AppendStatus(ctx context.Context, runID, url string, rec endpoints.StatusRecord) error
}

// Options tune a validation pass. Zero values fall back to the defaults
// below.
type Options struct {
	Attempts    int
	Timeout     time.Duration
	BackoffBase time.Duration
	Concurrency int

	Client  *http.Client
	Sleeper Sleeper
	Now     func() time.Time

	Mirror   *mirror.Advisor
	Metrics  *metrics.Provider
	Recorder Recorder
	RunID    string
}

const (
	defaultAttempts    = 3
	defaultTimeout     = 10 * time.Second
	defaultBackoffBase = time.Second
	defaultConcurrency = 8
)

// Checker runs validation passes.
type Checker struct {
	opts Options
	log  zerolog.Logger
}

func New(log zerolog.Logger, opts Options) *Checker {
	if opts.Attempts < 1 {
		opts.Attempts = defaultAttempts
	}
	if opts.Timeout <= 0 {
		opts.Timeout = defaultTimeout
	}
	if opts.BackoffBase <= 0 {
		opts.BackoffBase = defaultBackoffBase
	}
	if opts.Concurrency < 1 {
		opts.Concurrency = defaultConcurrency
	}
	if opts.Client == nil {
		opts.Client = httpclient.Default()
	}
	if opts.Sleeper == nil {
		opts.Sleeper = realSleeper{}
	}
	if opts.Now == nil {
		opts.Now = time.Now
	}
	if opts.Mirror == nil {
		opts.Mirror = mirror.NewAdvisor(mirror.DefaultRules)
	}
	return &Checker{opts: opts, log: log}
}

// Summary aggregates one pass. Dead counts URLs that never succeeded, and
// ErrorKinds tallies their final error kinds only.
type Summary struct {
	Total      int                   `json:"total"`
	Alive      int                   `json:"alive"`
	Dead       int                   `json:"dead"`
	ErrorKinds map[netclass.Kind]int `json:"error_kinds"`
}

type outcome struct {
	url     string
	history []endpoints.StatusRecord
	last    endpoints.LastStatus
}

// Run checks every URL in set and returns the enriched artifact and summary.
// Prior history in the artifact is preserved; new records are appended.
func (c *Checker) Run(ctx context.Context, art *endpoints.Artifact) (Summary, error) {
	urls := art.All()
	if art.StatusHistory == nil {
		art.StatusHistory = make(map[string][]endpoints.StatusRecord)
	}
	if art.LastStatus == nil {
		art.LastStatus = make(map[string]endpoints.LastStatus)
	}
	if art.MirrorSuggestions == nil {
		art.MirrorSuggestions = make(map[string]string)
	}

	jobs := make(chan string)
	results := make(chan outcome)

	var wg sync.WaitGroup
	workers := c.opts.Concurrency
	if workers > len(urls) && len(urls) > 0 {
		workers = len(urls)
	}
	for i := 0; i < workers; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			for url := range jobs {
				results <- c.checkURL(ctx, url)
			}
		}()
	}

	go func() {
		defer close(jobs)
		for _, url := range urls {
			select {
			case jobs <- url:
			case <-ctx.Done():
				return
			}
		}
	}()

	go func() {
		wg.Wait()
		close(results)
	}()

	summary := Summary{Total: len(urls), ErrorKinds: make(map[netclass.Kind]int)}
	for out := range results {
		art.StatusHistory[out.url] = append(art.StatusHistory[out.url], out.history...)
		art.LastStatus[out.url] = out.last
		if out.last.Alive {
			summary.Alive++
			continue
		}
		summary.Dead++
		summary.ErrorKinds[netclass.Kind(out.last.ErrorKind)]++
		if suggested, ok := c.opts.Mirror.Suggest(out.url); ok {
			art.MirrorSuggestions[out.url] = suggested
			c.log.Info().Str("url", out.url).Str("mirror", suggested).Msg("mirror suggested for dead url")
		}
	}

	if err := ctx.Err(); err != nil {
		return summary, fmt.Errorf("validate endpoints: %w", err)
	}
	if c.opts.Metrics != nil {
		c.opts.Metrics.SetAliveDead(summary.Alive, summary.Dead)
	}
	c.log.Info().
		Int("total", summary.Total).
		Int("alive", summary.Alive).
		Int("dead", summary.Dead).
		Msg("validation pass complete")
	return summary, nil
}

// checkURL runs up to Attempts HEAD probes against one URL. Backoff sleeps
// happen before the second and later attempts, doubling each time. A success
// ends the loop.
func (c *Checker) checkURL(ctx context.Context, url string) outcome {
	out := outcome{url: url}

	for attempt := 0; attempt < c.opts.Attempts; attempt++ {
		if attempt > 0 {
			delay := c.opts.BackoffBase << (attempt - 1)
			if err := c.opts.Sleeper.Sleep(ctx, delay); err != nil {
				break
			}
		}

		rec := c.probe(ctx, url)
		out.history = append(out.history, rec)
		out.last = endpoints.LastStatus{
			Alive:          rec.OK,
			LastChecked:    rec.Timestamp,
			ResponseTimeMs: rec.ResponseTimeMs,
			ErrorKind:      rec.ErrorKind,
			ErrorMessage:   rec.ErrorMessage,
		}

		if c.opts.Recorder != nil {
			if err := c.opts.Recorder.AppendStatus(ctx, c.opts.RunID, url, rec); err != nil {
				c.log.Warn().Err(err).Str("url", url).Msg("record status attempt")
			}
		}
		if c.opts.Metrics != nil {
			c.opts.Metrics.IncCheck()
			c.opts.Metrics.ObserveCheck(time.Duration(rec.ResponseTimeMs) * time.Millisecond)
			if !rec.OK {
				c.opts.Metrics.IncCheckError(rec.ErrorKind)
			}
		}

		if rec.OK {
			break
		}
		c.log.Debug().
			Str("url", url).
			Int("attempt", attempt+1).
			Str("kind", rec.ErrorKind).
			Msg("check attempt failed")
	}
	return out
}

// probe issues one HEAD request and classifies the result. Elapsed time is
// recorded for failures too.
func (c *Checker) probe(ctx context.Context, url string) endpoints.StatusRecord {
	rec := endpoints.StatusRecord{Timestamp: c.opts.Now()}

	reqCtx, cancel := context.WithTimeout(ctx, c.opts.Timeout)
	defer cancel()

	start := time.Now()
	req, err := http.NewRequestWithContext(reqCtx, http.MethodHead, url, nil)
	if err != nil {
		rec.ResponseTimeMs = time.Since(start).Milliseconds()
		rec.ErrorKind = string(netclass.Classify(err))
		rec.ErrorMessage = err.Error()
		return rec
	}
	req.Header.Set("User-Agent", httpclient.UserAgent)

	resp, err := c.opts.Client.Do(req)
	rec.ResponseTimeMs = time.Since(start).Milliseconds()
	if err != nil {
		rec.ErrorKind = string(netclass.Classify(err))
		rec.ErrorMessage = err.Error()
		return rec
	}
	defer resp.Body.Close()

	rec.StatusCode = resp.StatusCode
	if resp.StatusCode >= 200 && resp.StatusCode < 400 {
		rec.OK = true
		return rec
	}
	err = fmt.Errorf("unexpected status %d", resp.StatusCode)
	rec.ErrorKind = string(netclass.Classify(err))
	rec.ErrorMessage = err.Error()
	return rec
}
