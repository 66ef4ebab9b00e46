package metrics

import (
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

// Metrics covers the registry store and its duplicate-search cache.
// A nil *Metrics is valid and records nothing.
type Metrics struct {
	CacheHits   *prometheus.CounterVec
	CacheMisses *prometheus.CounterVec

	// Duplicate search duration by source (cache, store)
	SearchDuration *prometheus.HistogramVec

	// Registry HTTP calls by operation and outcome
	ClientRequests *prometheus.CounterVec
}

func New(reg prometheus.Registerer) *Metrics {
	if reg == nil {
		reg = prometheus.DefaultRegisterer
	}
	factory := promauto.With(reg)
	return &Metrics{
		CacheHits: factory.NewCounterVec(prometheus.CounterOpts{
			Name: "civreg_registry_cache_hits_total",
			Help: "Duplicate search cache hits",
		}, []string{"kind"}),
		CacheMisses: factory.NewCounterVec(prometheus.CounterOpts{
			Name: "civreg_registry_cache_misses_total",
			Help: "Duplicate search cache misses",
		}, []string{"kind"}),
		SearchDuration: factory.NewHistogramVec(prometheus.HistogramOpts{
			Name:    "civreg_registry_search_duration_seconds",
			Help:    "Duplicate search duration by source",
			Buckets: []float64{0.001, 0.005, 0.01, 0.025, 0.05, 0.1, 0.25, 0.5, 1},
		}, []string{"source"}),
		ClientRequests: factory.NewCounterVec(prometheus.CounterOpts{
			Name: "civreg_registry_client_requests_total",
			Help: "Registry HTTP calls by operation and outcome",
		}, []string{"operation", "outcome"}),
	}
}

func (m *Metrics) RecordCacheHit(kind string) {
	if m == nil {
		return
	}
	m.CacheHits.WithLabelValues(kind).Inc()
}

func (m *Metrics) RecordCacheMiss(kind string) {
	if m == nil {
		return
	}
	m.CacheMisses.WithLabelValues(kind).Inc()
}

func (m *Metrics) ObserveSearch(source string, d time.Duration) {
	if m == nil {
		return
	}
	m.SearchDuration.WithLabelValues(source).Observe(d.Seconds())
}

func (m *Metrics) IncClientRequest(operation, outcome string) {
	if m == nil {
		return
	}
	m.ClientRequests.WithLabelValues(operation, outcome).Inc()
}
