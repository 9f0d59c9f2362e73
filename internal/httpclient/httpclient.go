// Package httpclient provides the shared tuned HTTP client used by the
// validator and both extractors, with per-host rate limiting and transparent
// response decompression.
package httpclient

import (
	"net/http"
	"time"
)

const (
	DefaultTimeout         = 30 * time.Second
	DefaultIdleConnTimeout = 90 * time.Second
	MaxIdleConnsPerHost    = 16

	// UserAgent is sent on every request; some playlist hosts reject the Go
	// default.
	UserAgent = "iptvscan/1.0"
)

var defaultClient *http.Client

func init() {
	defaultClient = &http.Client{
		Timeout: DefaultTimeout,
		Transport: &rateLimitedTransport{
			next: &http.Transport{
				MaxIdleConns:        100,
				MaxIdleConnsPerHost: MaxIdleConnsPerHost,
				IdleConnTimeout:     DefaultIdleConnTimeout,
			},
			hosts: newHostLimiters(defaultHostRPS, defaultHostBurst),
		},
	}
}

// Default returns the shared client for validator, playlist and guide fetches.
func Default() *http.Client {
	return defaultClient
}

// WithTimeout returns a client with the given timeout sharing the default
// transport, so the per-host limiters stay process-global.
func WithTimeout(timeout time.Duration) *http.Client {
	return &http.Client{
		Timeout:   timeout,
		Transport: defaultClient.Transport,
	}
}
