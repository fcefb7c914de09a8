package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

func (r *Registry) initScanMetrics() {
	r.ScansTotal = promauto.With(r.registry).NewCounterVec(
		prometheus.CounterOpts{
			Name: "graphplan_scans_total",
			Help: "Scan operator instantiations by access path",
		},
		[]string{"access_path"},
	)

	r.NodesScannedTotal = promauto.With(r.registry).NewCounterVec(
		prometheus.CounterOpts{
			Name: "graphplan_nodes_scanned_total",
			Help: "Nodes produced by scan operators by access path",
		},
		[]string{"access_path"},
	)
}
