// Package metrics exposes pipeline counters via Prometheus. Each Provider
// owns its own registry so construction stays safe in tests and the dashboard
// can serve exactly the metrics it created.
package metrics

import (
	"net/http"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

type Provider struct {
	registry *prometheus.Registry

	checksTotal     prometheus.Counter
	urlsAlive       prometheus.Gauge
	urlsDead        prometheus.Gauge
	checkErrors     *prometheus.CounterVec
	responseTime    prometheus.Histogram
	channelsTotal   prometheus.Gauge
	guideEntries    prometheus.Gauge
	matchedChannels prometheus.Gauge
}

func NewProvider() *Provider {
	reg := prometheus.NewRegistry()
	factory := promauto.With(reg)

	return &Provider{
		registry: reg,

		checksTotal: factory.NewCounter(prometheus.CounterOpts{
			Name: "iptvscan_checks_total",
			Help: "Total number of endpoint check attempts",
		}),

		urlsAlive: factory.NewGauge(prometheus.GaugeOpts{
			Name: "iptvscan_urls_alive",
			Help: "URLs that responded successfully in the latest run",
		}),

		urlsDead: factory.NewGauge(prometheus.GaugeOpts{
			Name: "iptvscan_urls_dead",
			Help: "URLs that never responded successfully in the latest run",
		}),

		checkErrors: factory.NewCounterVec(prometheus.CounterOpts{
			Name: "iptvscan_check_errors_total",
			Help: "Failed check attempts by error kind",
		}, []string{"kind"}),

		responseTime: factory.NewHistogram(prometheus.HistogramOpts{
			Name:    "iptvscan_check_duration_seconds",
			Help:    "Endpoint check round-trip time in seconds",
			Buckets: prometheus.DefBuckets,
		}),

		channelsTotal: factory.NewGauge(prometheus.GaugeOpts{
			Name: "iptvscan_channels_total",
			Help: "Channels extracted from playlists",
		}),

		guideEntries: factory.NewGauge(prometheus.GaugeOpts{
			Name: "iptvscan_guide_entries_total",
			Help: "Guide entries extracted from EPG sources",
		}),

		matchedChannels: factory.NewGauge(prometheus.GaugeOpts{
			Name: "iptvscan_matched_channels",
			Help: "Channels reconciled with a guide entry",
		}),
	}
}

func (p *Provider) IncCheck()                    { p.checksTotal.Inc() }
func (p *Provider) IncCheckError(kind string)    { p.checkErrors.WithLabelValues(kind).Inc() }
func (p *Provider) ObserveCheck(d time.Duration) { p.responseTime.Observe(d.Seconds()) }
func (p *Provider) SetChannelsTotal(count int)   { p.channelsTotal.Set(float64(count)) }
func (p *Provider) SetGuideEntries(count int)    { p.guideEntries.Set(float64(count)) }
func (p *Provider) SetMatchedChannels(count int) { p.matchedChannels.Set(float64(count)) }

func (p *Provider) SetAliveDead(alive, dead int) {
	p.urlsAlive.Set(float64(alive))
	p.urlsDead.Set(float64(dead))
}

// Handler serves this provider's registry for the dashboard /metrics route.
func (p *Provider) Handler() http.Handler {
	return promhttp.HandlerFor(p.registry, promhttp.HandlerOpts{})
}
