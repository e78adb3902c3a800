// Package metrics exposes Prometheus instrumentation for parse traffic.
package metrics

import (
	"net/http"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"github.com/ppiankov/duckling/internal/entity"
)

const namespace = "duckling"

// Request outcomes
const (
	OutcomeOK          = "ok"
	OutcomeCached      = "cached"
	OutcomeFetchError  = "fetch_error"
	OutcomeDecodeError = "decode_error"
	OutcomeRateLimited = "rate_limited"
)

// Metrics holds every collector
type Metrics struct {
	Requests        *prometheus.CounterVec
	RequestDuration prometheus.Histogram
	DecodeFailures  *prometheus.CounterVec
	CacheHits       prometheus.Counter
	CacheMisses     prometheus.Counter
	Entities        *prometheus.CounterVec

	gatherer prometheus.Gatherer
}

// New registers the collectors with reg. Pass prometheus.NewRegistry() in
// tests so runs do not collide on the global registry.
func New(reg *prometheus.Registry) *Metrics {
	f := promauto.With(reg)

	return &Metrics{
		Requests: f.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "requests_total",
			Help:      "Parse requests by outcome",
		}, []string{"outcome"}),
		RequestDuration: f.NewHistogram(prometheus.HistogramOpts{
			Namespace: namespace,
			Name:      "request_duration_seconds",
			Help:      "Round trip to the Duckling service, cache hits excluded",
			Buckets:   []float64{0.005, 0.01, 0.025, 0.05, 0.1, 0.25, 0.5, 1, 2.5, 5, 10},
		}),
		DecodeFailures: f.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "decode_failures_total",
			Help:      "Responses that failed to decode, by failure kind",
		}, []string{"reason"}),
		CacheHits: f.NewCounter(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "cache_hits_total",
			Help:      "Responses served from cache",
		}),
		CacheMisses: f.NewCounter(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "cache_misses_total",
			Help:      "Cache lookups that went to the service",
		}),
		Entities: f.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "entities_total",
			Help:      "Decoded entities by dimension",
		}, []string{"dimension"}),
		gatherer: reg,
	}
}

// ObserveRequest records one finished parse
func (m *Metrics) ObserveRequest(outcome string, elapsed time.Duration) {
	m.Requests.WithLabelValues(outcome).Inc()
	if outcome != OutcomeCached {
		m.RequestDuration.Observe(elapsed.Seconds())
	}
}

// ObserveDecodeFailure counts a decode failure under its reason label
func (m *Metrics) ObserveDecodeFailure(err error) {
	reason := entity.Reason(err)
	if reason == "" {
		reason = "unknown"
	}
	m.DecodeFailures.WithLabelValues(reason).Inc()
}

// ObserveEntities counts decoded entities per dimension
func (m *Metrics) ObserveEntities(entities []entity.Entity) {
	for _, e := range entities {
		m.Entities.WithLabelValues(string(e.Dimension())).Inc()
	}
}

// ObserveCache records a cache lookup
func (m *Metrics) ObserveCache(hit bool) {
	if hit {
		m.CacheHits.Inc()
	} else {
		m.CacheMisses.Inc()
	}
}

// Handler serves the registry in the Prometheus text format
func (m *Metrics) Handler() http.Handler {
	return promhttp.HandlerFor(m.gatherer, promhttp.HandlerOpts{})
}
