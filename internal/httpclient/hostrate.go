package httpclient

import (
	"net/http"
	"sync"

	"golang.org/x/time/rate"
)

// Per-host request budget. Validation retries plus two extraction passes can
// hit the same provider several times back to back; the limiter spaces them
// out instead of hammering one upstream.
const (
	defaultHostRPS   = 4
	defaultHostBurst = 8
)

// hostLimiters hands out one rate.Limiter per scheme+host. All clients built
// by this package share the same set.
type hostLimiters struct {
	mu       sync.Mutex
	limiters map[string]*rate.Limiter
	rps      rate.Limit
	burst    int
}

func newHostLimiters(rps float64, burst int) *hostLimiters {
	return &hostLimiters{
		limiters: make(map[string]*rate.Limiter),
		rps:      rate.Limit(rps),
		burst:    burst,
	}
}

func (h *hostLimiters) limiterFor(scheme, host string) *rate.Limiter {
	key := scheme + "://" + host
	h.mu.Lock()
	defer h.mu.Unlock()
	l, ok := h.limiters[key]
	if !ok {
		l = rate.NewLimiter(h.rps, h.burst)
		h.limiters[key] = l
	}
	return l
}

// rateLimitedTransport waits for the target host's limiter before delegating.
// The wait respects the request context, so per-request timeouts still bound
// total wall-clock time.
type rateLimitedTransport struct {
	next  http.RoundTripper
	hosts *hostLimiters
}

func (t *rateLimitedTransport) RoundTrip(req *http.Request) (*http.Response, error) {
	l := t.hosts.limiterFor(req.URL.Scheme, req.URL.Host)
	if err := l.Wait(req.Context()); err != nil {
		return nil, err
	}
	return t.next.RoundTrip(req)
}
