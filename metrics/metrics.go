// Package metrics provides Prometheus metrics for SLA evaluation and the board refresher.
package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
	"github.com/warp/sample-sla/sla"
)

// Registry is the custom prometheus registry for the service.
var Registry = prometheus.NewRegistry()

var factory = promauto.With(Registry)

// EvaluationsTotal counts evaluations served by the API, by resulting level.
var EvaluationsTotal = factory.NewCounterVec(prometheus.CounterOpts{
	Namespace: "sla",
	Name:      "evaluations_total",
	Help:      "SLA evaluations served, by resulting level",
}, []string{"level"})

// BatchSize observes the number of items per batch evaluation call.
var BatchSize = factory.NewHistogram(prometheus.HistogramOpts{
	Namespace: "sla",
	Name:      "batch_size",
	Help:      "Items per batch evaluation request",
	Buckets:   []float64{1, 5, 10, 25, 50, 100, 250, 500},
})

// BoardRequests is the number of mirrored requests per level after the last refresh.
var BoardRequests = factory.NewGaugeVec(prometheus.GaugeOpts{
	Namespace: "sla",
	Name:      "board_requests",
	Help:      "Mirrored requests per SLA level as of the last board refresh",
}, []string{"level"})

// RefreshDuration observes how long one board refresh pass takes.
var RefreshDuration = factory.NewHistogram(prometheus.HistogramOpts{
	Namespace: "sla",
	Name:      "refresh_duration_seconds",
	Help:      "Duration of one board refresh pass",
	Buckets:   prometheus.DefBuckets,
})

// RefreshErrors counts refresh passes that failed to load requests.
var RefreshErrors = factory.NewCounter(prometheus.CounterOpts{
	Namespace: "sla",
	Name:      "refresh_errors_total",
	Help:      "Board refresh passes that failed",
})

// LevelTransitions counts requests whose level changed between refreshes.
var LevelTransitions = factory.NewCounterVec(prometheus.CounterOpts{
	Namespace: "sla",
	Name:      "level_transitions_total",
	Help:      "Requests whose SLA level changed between board refreshes",
}, []string{"from", "to"})

// RecordEvaluation increments the evaluation counter for a result.
func RecordEvaluation(r sla.Result) {
	EvaluationsTotal.WithLabelValues(string(r.Level)).Inc()
}

// SetBoard replaces the per-level board gauges. Levels missing from counts are zeroed.
func SetBoard(counts map[sla.Level]int) {
	for _, lv := range sla.Levels {
		BoardRequests.WithLabelValues(string(lv)).Set(float64(counts[lv]))
	}
}
