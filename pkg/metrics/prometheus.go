// Package metrics provides Prometheus instrumentation for the runtime.
package metrics

import (
	"net/http"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

var (
	// RowsProcessed counts total rows processed by each operator.
	RowsProcessed = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "hetu_rows_processed_total",
		Help: "Total number of rows processed by operator",
	}, []string{"operator_id", "operator_type"})

	// BatchesProcessed counts total batches processed by each operator.
	BatchesProcessed = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "hetu_batches_processed_total",
		Help: "Total number of batches processed by operator",
	}, []string{"operator_id", "operator_type"})

	// BatchLatency tracks per-batch processing latency.
	BatchLatency = promauto.NewHistogramVec(prometheus.HistogramOpts{
		Name:    "hetu_batch_latency_seconds",
		Help:    "Latency of batch processing in seconds",
		Buckets: []float64{0.0001, 0.0005, 0.001, 0.005, 0.01, 0.05, 0.1, 0.5, 1.0},
	}, []string{"operator_id", "operator_type"})

	// Errors counts errors by operator.
	Errors = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "hetu_errors_total",
		Help: "Total number of errors by operator",
	}, []string{"operator_id", "operator_type"})

	// MarkersForwarded counts snapshot markers forwarded by each operator.
	MarkersForwarded = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "hetu_snapshot_markers_forwarded_total",
		Help: "Total number of snapshot markers forwarded by operator",
	}, []string{"operator_id", "operator_type"})

	// SnapshotsCaptured counts operator state captures.
	SnapshotsCaptured = promauto.NewCounter(prometheus.CounterOpts{
		Name: "hetu_snapshots_captured_total",
		Help: "Total number of pipeline snapshots captured",
	})

	// SnapshotsRestored counts operator state restores.
	SnapshotsRestored = promauto.NewCounter(prometheus.CounterOpts{
		Name: "hetu_snapshots_restored_total",
		Help: "Total number of pipeline snapshots restored",
	})
)

// ServeMetrics starts an HTTP server on the given address to serve
// Prometheus metrics at /metrics.
func ServeMetrics(addr string) *http.Server {
	mux := http.NewServeMux()
	mux.Handle("/metrics", promhttp.Handler())
	server := &http.Server{
		Addr:    addr,
		Handler: mux,
	}
	go server.ListenAndServe()
	return server
}
