package metrics

import (
	"sync"

	"github.com/prometheus/client_golang/prometheus"
)

// Registry holds all metrics for the planner and its storage
type Registry struct {
	// Storage Metrics
	StorageNodesTotal        prometheus.Gauge
	StorageIndexesTotal      prometheus.Gauge
	StorageGraphVersion      prometheus.Gauge
	StorageActiveSnapshots   prometheus.Gauge
	StorageOperationsTotal   *prometheus.CounterVec
	StorageOperationDuration *prometheus.HistogramVec

	// Query Metrics
	QueriesTotal      *prometheus.CounterVec
	QueryDuration     *prometheus.HistogramVec
	QueryNodesScanned *prometheus.HistogramVec
	QueryRowsReturned prometheus.Histogram
	SlowQueries       *prometheus.CounterVec

	// Scan Metrics, labelled by access path
	ScansTotal        *prometheus.CounterVec
	NodesScannedTotal *prometheus.CounterVec

	// Parse cache
	ParseCacheHits   prometheus.Counter
	ParseCacheMisses prometheus.Counter

	registry *prometheus.Registry
	mu       sync.RWMutex
}

// NewRegistry creates a new metrics registry with all metrics initialized
func NewRegistry() *Registry {
	r := &Registry{
		registry: prometheus.NewRegistry(),
	}

	r.initStorageMetrics()
	r.initQueryMetrics()
	r.initScanMetrics()

	return r
}

// GetPrometheusRegistry returns the underlying Prometheus registry
func (r *Registry) GetPrometheusRegistry() *prometheus.Registry {
	return r.registry
}
