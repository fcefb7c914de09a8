package metrics

import (
	"time"
)

// SlowQueryThreshold is used by RecordQuery when no threshold is configured
const SlowQueryThreshold = time.Second

// RecordStorageOperation records a storage operation
func (r *Registry) RecordStorageOperation(operation, status string, duration time.Duration) {
	r.StorageOperationsTotal.WithLabelValues(operation, status).Inc()
	r.StorageOperationDuration.WithLabelValues(operation).Observe(duration.Seconds())
}

// RecordQuery records a query execution
func (r *Registry) RecordQuery(queryType, status string, duration time.Duration, nodesScanned, rows int) {
	r.RecordQueryWithThreshold(queryType, status, duration, nodesScanned, rows, SlowQueryThreshold)
}

// RecordQueryWithThreshold records a query, counting it as slow above threshold.
func (r *Registry) RecordQueryWithThreshold(queryType, status string, duration time.Duration, nodesScanned, rows int, threshold time.Duration) {
	r.QueriesTotal.WithLabelValues(queryType, status).Inc()
	r.QueryDuration.WithLabelValues(queryType).Observe(duration.Seconds())
	r.QueryNodesScanned.WithLabelValues(queryType).Observe(float64(nodesScanned))
	r.QueryRowsReturned.Observe(float64(rows))

	if threshold > 0 && duration > threshold {
		r.SlowQueries.WithLabelValues(queryType).Inc()
	}
}

// RecordScans records scan instantiations of one access path and the nodes
// they produced.
func (r *Registry) RecordScans(accessPath string, scans, nodes int) {
	if scans > 0 {
		r.ScansTotal.WithLabelValues(accessPath).Add(float64(scans))
	}
	if nodes > 0 {
		r.NodesScannedTotal.WithLabelValues(accessPath).Add(float64(nodes))
	}
}

// RecordParseCache records a parse cache lookup.
func (r *Registry) RecordParseCache(hit bool) {
	if hit {
		r.ParseCacheHits.Inc()
		return
	}
	r.ParseCacheMisses.Inc()
}

// UpdateGraphMetrics publishes the shape of the latest committed version.
func (r *Registry) UpdateGraphMetrics(version uint64, nodes, indexes int) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.StorageGraphVersion.Set(float64(version))
	r.StorageNodesTotal.Set(float64(nodes))
	r.StorageIndexesTotal.Set(float64(indexes))
}

// SnapshotAcquired and SnapshotReleased track live read snapshots.
func (r *Registry) SnapshotAcquired() { r.StorageActiveSnapshots.Inc() }

func (r *Registry) SnapshotReleased() { r.StorageActiveSnapshots.Dec() }
