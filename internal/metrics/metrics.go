// Package metrics provides Prometheus instrumentation for the studio
// daemon.
package metrics

import (
	"net/http"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

var (
	mutationsTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "webstudio_mutations_total",
			Help: "Tree mutations applied, by operation and outcome",
		},
		[]string{"op", "outcome"},
	)

	mirrorFailuresTotal = promauto.NewCounter(
		prometheus.CounterOpts{
			Name: "webstudio_mirror_failures_total",
			Help: "Sandbox mirror calls that failed (non-fatal)",
		},
	)

	historyDepth = promauto.NewGauge(
		prometheus.GaugeOpts{
			Name: "webstudio_history_depth",
			Help: "Snapshots currently held in the undo log",
		},
	)

	treeNodes = promauto.NewGauge(
		prometheus.GaugeOpts{
			Name: "webstudio_tree_nodes",
			Help: "Nodes in the active project tree",
		},
	)

	searchDuration = promauto.NewHistogram(
		prometheus.HistogramOpts{
			Name:    "webstudio_search_duration_seconds",
			Help:    "Project-wide search latency",
			Buckets: prometheus.DefBuckets,
		},
	)

	aiBatchesTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "webstudio_ai_batches_total",
			Help: "AI batch edits processed, by outcome",
		},
		[]string{"outcome"},
	)

	aiBatchFiles = promauto.NewHistogram(
		prometheus.HistogramOpts{
			Name:    "webstudio_ai_batch_files",
			Help:    "Files touched per applied AI batch",
			Buckets: []float64{1, 2, 5, 10, 20, 50},
		},
	)
)

// RecordMutation counts one dispatcher operation.
func RecordMutation(op string, ok bool) {
	outcome := "ok"
	if !ok {
		outcome = "rejected"
	}
	mutationsTotal.WithLabelValues(op, outcome).Inc()
}

// RecordMirrorFailure counts a failed sandbox mirror call.
func RecordMirrorFailure() {
	mirrorFailuresTotal.Inc()
}

// SetHistoryDepth updates the undo-log gauge.
func SetHistoryDepth(n int) {
	historyDepth.Set(float64(n))
}

// SetTreeNodes updates the tree-size gauge.
func SetTreeNodes(n int) {
	treeNodes.Set(float64(n))
}

// ObserveSearch records one search invocation.
func ObserveSearch(d time.Duration) {
	searchDuration.Observe(d.Seconds())
}

// RecordAiBatch counts one AI batch by outcome ("applied", "empty",
// "failed").
func RecordAiBatch(outcome string, files int) {
	aiBatchesTotal.WithLabelValues(outcome).Inc()
	if outcome == "applied" {
		aiBatchFiles.Observe(float64(files))
	}
}

// Handler returns the Prometheus scrape handler.
func Handler() http.Handler {
	return promhttp.Handler()
}
