// Package metrics provides Prometheus metrics for the diff and history components.
package metrics

import "github.com/prometheus/client_golang/prometheus"

// Diff metrics
var (
	// diffComputationsTotal records the number of diffs computed.
	// Labels:
	//   - kind: Diff entry point ("markup", "text")
	diffComputationsTotal = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "diff_computations_total",
			Help: "Total number of diffs computed",
		},
		[]string{"kind"},
	)

	// diffDuration records how long a diff took.
	// Buckets: 0.1ms .. 1s, diffs of resume sections are expected to be sub-millisecond.
	diffDuration = prometheus.NewHistogramVec(
		prometheus.HistogramOpts{
			Name:    "diff_duration_seconds",
			Help:    "Duration of diff computations in seconds",
			Buckets: []float64{0.0001, 0.0005, 0.001, 0.005, 0.01, 0.05, 0.1, 1},
		},
		[]string{"kind"},
	)

	// diffTokensTotal records emitted diff tokens by status.
	// Labels:
	//   - status: "unchanged", "added", "removed"
	diffTokensTotal = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "diff_tokens_total",
			Help: "Total number of diff tokens emitted, by status",
		},
		[]string{"status"},
	)
)

// History metrics
var (
	// historyChangesTotal records change entries appended to section histories.
	// Labels:
	//   - action: "accept", "reject", "restore"
	historyChangesTotal = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "history_changes_total",
			Help: "Total number of change entries recorded",
		},
		[]string{"action"},
	)

	// persistenceFailuresTotal records storage errors absorbed by the history store.
	// Labels:
	//   - op: "load", "save"
	persistenceFailuresTotal = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "history_persistence_failures_total",
			Help: "Total number of history storage failures treated as empty history",
		},
		[]string{"op"},
	)
)

func init() {
	prometheus.MustRegister(diffComputationsTotal)
	prometheus.MustRegister(diffDuration)
	prometheus.MustRegister(diffTokensTotal)
	prometheus.MustRegister(historyChangesTotal)
	prometheus.MustRegister(persistenceFailuresTotal)
}

// RecordDiff records one diff computation.
// Parameters:
//   - kind: "markup" or "text"
//   - durationSeconds: time spent computing the diff
//   - added, removed, unchanged: token counts of the result
func RecordDiff(kind string, durationSeconds float64, added, removed, unchanged int) {
	diffComputationsTotal.WithLabelValues(kind).Inc()
	diffDuration.WithLabelValues(kind).Observe(durationSeconds)
	diffTokensTotal.WithLabelValues("added").Add(float64(added))
	diffTokensTotal.WithLabelValues("removed").Add(float64(removed))
	diffTokensTotal.WithLabelValues("unchanged").Add(float64(unchanged))
}

// RecordHistoryChange records a change entry appended for the given action.
func RecordHistoryChange(action string) {
	historyChangesTotal.WithLabelValues(action).Inc()
}

// RecordPersistenceFailure records a storage failure for op ("load" or "save").
func RecordPersistenceFailure(op string) {
	persistenceFailuresTotal.WithLabelValues(op).Inc()
}
