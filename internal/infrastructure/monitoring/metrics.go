// Package monitoring exposes Prometheus metrics for the service.
package monitoring

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

// Metrics bundles the service counters.
type Metrics struct {
	SearchRequests *prometheus.CounterVec
	CacheHits      *prometheus.CounterVec
	CacheMisses    *prometheus.CounterVec
	IndexOps       *prometheus.CounterVec
}

// NewMetrics registers the service counters on the default registry.
func NewMetrics() *Metrics {
	return &Metrics{
		SearchRequests: promauto.NewCounterVec(prometheus.CounterOpts{
			Name: "smartfridge_search_requests_total",
			Help: "Search requests by match type of the returned results",
		}, []string{"match_type"}),
		CacheHits: promauto.NewCounterVec(prometheus.CounterOpts{
			Name: "smartfridge_cache_hits_total",
			Help: "Cache hits by entry kind",
		}, []string{"kind"}),
		CacheMisses: promauto.NewCounterVec(prometheus.CounterOpts{
			Name: "smartfridge_cache_misses_total",
			Help: "Cache misses by entry kind",
		}, []string{"kind"}),
		IndexOps: promauto.NewCounterVec(prometheus.CounterOpts{
			Name: "smartfridge_index_operations_total",
			Help: "Vector index operations by type and outcome",
		}, []string{"operation", "status"}),
	}
}

// NopMetrics returns counters backed by a private registry, for tests.
func NopMetrics() *Metrics {
	reg := prometheus.NewRegistry()
	factory := promauto.With(reg)
	return &Metrics{
		SearchRequests: factory.NewCounterVec(prometheus.CounterOpts{Name: "smartfridge_search_requests_total"}, []string{"match_type"}),
		CacheHits:      factory.NewCounterVec(prometheus.CounterOpts{Name: "smartfridge_cache_hits_total"}, []string{"kind"}),
		CacheMisses:    factory.NewCounterVec(prometheus.CounterOpts{Name: "smartfridge_cache_misses_total"}, []string{"kind"}),
		IndexOps:       factory.NewCounterVec(prometheus.CounterOpts{Name: "smartfridge_index_operations_total"}, []string{"operation", "status"}),
	}
}
