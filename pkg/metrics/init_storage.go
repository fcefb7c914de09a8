package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

func (r *Registry) initStorageMetrics() {
	r.StorageNodesTotal = promauto.With(r.registry).NewGauge(
		prometheus.GaugeOpts{
			Name: "graphplan_storage_nodes_total",
			Help: "Number of nodes in the latest committed graph version",
		},
	)

	r.StorageIndexesTotal = promauto.With(r.registry).NewGauge(
		prometheus.GaugeOpts{
			Name: "graphplan_storage_indexes_total",
			Help: "Number of indexes in the latest catalog",
		},
	)

	r.StorageGraphVersion = promauto.With(r.registry).NewGauge(
		prometheus.GaugeOpts{
			Name: "graphplan_storage_graph_version",
			Help: "Latest committed graph version",
		},
	)

	r.StorageActiveSnapshots = promauto.With(r.registry).NewGauge(
		prometheus.GaugeOpts{
			Name: "graphplan_storage_active_snapshots",
			Help: "Snapshots acquired and not yet released",
		},
	)

	r.StorageOperationsTotal = promauto.With(r.registry).NewCounterVec(
		prometheus.CounterOpts{
			Name: "graphplan_storage_operations_total",
			Help: "Total number of storage operations",
		},
		[]string{"operation", "status"},
	)

	r.StorageOperationDuration = promauto.With(r.registry).NewHistogramVec(
		prometheus.HistogramOpts{
			Name:    "graphplan_storage_operation_duration_seconds",
			Help:    "Storage operation duration in seconds",
			Buckets: []float64{0.0001, 0.001, 0.005, 0.01, 0.05, 0.1, 0.5, 1.0},
		},
		[]string{"operation"},
	)
}
