// Package metrics exposes optional Prometheus instrumentation for the
// server. It has no effect on wire behavior; it exists purely so an
// operator can watch cache/queue health, which the original C server and
// spec.md have no facility for (see SPEC_FULL.md's Observability section).
package metrics

import (
	"net/http"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

// Result labels for the requests_total counter.
const (
	ResultHit            = "hit"
	ResultMiss           = "miss"
	ResultTimeout        = "timeout"
	ResultTooLong        = "too_long"
	ResultInvalid        = "invalid"
	ResultTransportError = "transport_error"
)

// Metrics is the set of counters/gauges the server updates.
type Metrics struct {
	Requests   *prometheus.CounterVec
	CacheSize  prometheus.Gauge
	QueueDepth prometheus.Gauge

	registry *prometheus.Registry
}

// New registers and returns a fresh set of metrics against its own
// registry, so multiple servers in the same process (e.g. in tests)
// don't collide on metric names.
func New() *Metrics {
	reg := prometheus.NewRegistry()
	m := &Metrics{
		Requests: promauto.With(reg).NewCounterVec(prometheus.CounterOpts{
			Name: "meteoserver_requests_total",
			Help: "Total requests handled, partitioned by result.",
		}, []string{"result"}),
		CacheSize: promauto.With(reg).NewGauge(prometheus.GaugeOpts{
			Name: "meteoserver_cache_size",
			Help: "Current number of live cache entries.",
		}),
		QueueDepth: promauto.With(reg).NewGauge(prometheus.GaugeOpts{
			Name: "meteoserver_queue_depth",
			Help: "Current number of connections waiting in the request queue.",
		}),
	}
	m.registry = reg
	return m
}

// Handler returns the HTTP handler serving this Metrics' registry in the
// Prometheus exposition format.
func (m *Metrics) Handler() http.Handler {
	return promhttp.HandlerFor(m.registry, promhttp.HandlerOpts{})
}
