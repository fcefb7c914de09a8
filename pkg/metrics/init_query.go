package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

func (r *Registry) initQueryMetrics() {
	r.QueriesTotal = promauto.With(r.registry).NewCounterVec(
		prometheus.CounterOpts{
			Name: "graphplan_queries_total",
			Help: "Total number of queries executed",
		},
		[]string{"query_type", "status"},
	)

	r.QueryDuration = promauto.With(r.registry).NewHistogramVec(
		prometheus.HistogramOpts{
			Name:    "graphplan_query_duration_seconds",
			Help:    "Query execution duration in seconds",
			Buckets: []float64{0.001, 0.01, 0.05, 0.1, 0.5, 1.0, 5.0, 10.0},
		},
		[]string{"query_type"},
	)

	r.QueryNodesScanned = promauto.With(r.registry).NewHistogramVec(
		prometheus.HistogramOpts{
			Name:    "graphplan_query_nodes_scanned",
			Help:    "Number of nodes produced by scan operators per query",
			Buckets: []float64{10, 100, 1000, 10000, 100000},
		},
		[]string{"query_type"},
	)

	r.QueryRowsReturned = promauto.With(r.registry).NewHistogram(
		prometheus.HistogramOpts{
			Name:    "graphplan_query_rows_returned",
			Help:    "Number of rows returned per query",
			Buckets: []float64{1, 10, 100, 1000, 10000, 100000},
		},
	)

	r.SlowQueries = promauto.With(r.registry).NewCounterVec(
		prometheus.CounterOpts{
			Name: "graphplan_slow_queries_total",
			Help: "Total number of queries slower than the configured threshold",
		},
		[]string{"query_type"},
	)

	r.ParseCacheHits = promauto.With(r.registry).NewCounter(
		prometheus.CounterOpts{
			Name: "graphplan_parse_cache_hits_total",
			Help: "Parsed query cache hits",
		},
	)

	r.ParseCacheMisses = promauto.With(r.registry).NewCounter(
		prometheus.CounterOpts{
			Name: "graphplan_parse_cache_misses_total",
			Help: "Parsed query cache misses",
		},
	)
}
