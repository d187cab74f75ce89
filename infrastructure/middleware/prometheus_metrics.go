// Package middleware provides cross-cutting concerns for the scoring engine:
// Prometheus metrics and OpenTelemetry tracing.
package middleware

import (
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"

	"github.com/ahrav/go-joute/internal/ports"
)

// PrometheusMetrics implements the MetricsCollector interface using Prometheus.
// It tracks recomputation activity, dropped triggers, bonus grants and
// ranking outcomes per round.
type PrometheusMetrics struct {
	operationLatency *prometheus.HistogramVec
	recomputes       *prometheus.CounterVec
	droppedTriggers  *prometheus.CounterVec
	bonusGrants      *prometheus.CounterVec
	operationCounter *prometheus.CounterVec
	roundGauges      *prometheus.GaugeVec
	displayedScores  *prometheus.HistogramVec
}

// NewPrometheusMetrics creates the collectors and registers them with reg.
// Pass prometheus.DefaultRegisterer to expose them on the default handler.
func NewPrometheusMetrics(reg prometheus.Registerer) *PrometheusMetrics {
	factory := promauto.With(reg)

	return &PrometheusMetrics{
		operationLatency: factory.NewHistogramVec(
			prometheus.HistogramOpts{
				Name:    "joute_engine_operation_duration_seconds",
				Help:    "Execution time of engine operations.",
				Buckets: prometheus.DefBuckets,
			},
			[]string{"operation", "round"},
		),
		recomputes: factory.NewCounterVec(
			prometheus.CounterOpts{
				Name: "joute_recompute_total",
				Help: "Debounced recomputations run by the coordinator, by outcome.",
			},
			[]string{"round", "outcome"},
		),
		droppedTriggers: factory.NewCounterVec(
			prometheus.CounterOpts{
				Name: "joute_recompute_trigger_dropped_total",
				Help: "Triggers dropped because a recomputation was already in flight.",
			},
			[]string{"round"},
		),
		bonusGrants: factory.NewCounterVec(
			prometheus.CounterOpts{
				Name: "joute_bonus_granted_total",
				Help: "Winner bonus grants appended to the activation log.",
			},
			[]string{"round"},
		),
		operationCounter: factory.NewCounterVec(
			prometheus.CounterOpts{
				Name: "joute_operations_total",
				Help: "Total number of engine operations.",
			},
			[]string{"operation", "round"},
		),
		roundGauges: factory.NewGaugeVec(
			prometheus.GaugeOpts{
				Name: "joute_round_state",
				Help: "Current per-round values such as ranking size and qualified count.",
			},
			[]string{"metric", "round"},
		),
		displayedScores: factory.NewHistogramVec(
			prometheus.HistogramOpts{
				Name:    "joute_displayed_score",
				Help:    "Distribution of displayed scores in computed rankings.",
				Buckets: prometheus.LinearBuckets(0, 40, 10),
			},
			[]string{"round"},
		),
	}
}

// RecordLatency implements the MetricsCollector interface by recording
// execution latency in a Prometheus histogram.
func (pm *PrometheusMetrics) RecordLatency(
	operation string,
	duration time.Duration,
	labels map[string]string,
) {
	pm.operationLatency.WithLabelValues(operation, roundLabel(labels)).Observe(duration.Seconds())
}

// RecordCounter implements the MetricsCollector interface by incrementing
// Prometheus counters.
func (pm *PrometheusMetrics) RecordCounter(
	metric string, value float64, labels map[string]string,
) {
	round := roundLabel(labels)

	switch metric {
	case ports.MetricRecomputeTotal:
		outcome := labels["outcome"]
		if outcome == "" {
			outcome = "unknown"
		}
		pm.recomputes.WithLabelValues(round, outcome).Add(value)
	case ports.MetricTriggerDropped:
		pm.droppedTriggers.WithLabelValues(round).Add(value)
	case ports.MetricBonusGranted:
		pm.bonusGrants.WithLabelValues(round).Add(value)
	default:
		pm.operationCounter.WithLabelValues(metric, round).Add(value)
	}
}

// RecordGauge implements the MetricsCollector interface by setting
// Prometheus gauge values.
func (pm *PrometheusMetrics) RecordGauge(
	metric string, value float64, labels map[string]string,
) {
	pm.roundGauges.WithLabelValues(metric, roundLabel(labels)).Set(value)
}

// RecordHistogram implements the MetricsCollector interface by recording
// values in a Prometheus histogram. Metrics other than displayed scores
// are treated as durations in seconds.
func (pm *PrometheusMetrics) RecordHistogram(
	metric string, value float64, labels map[string]string,
) {
	if metric == ports.MetricDisplayedScore {
		pm.displayedScores.WithLabelValues(roundLabel(labels)).Observe(value)
		return
	}
	pm.operationLatency.WithLabelValues(metric, roundLabel(labels)).Observe(value)
}

func roundLabel(labels map[string]string) string {
	if r := labels["round"]; r != "" {
		return r
	}
	return "unknown"
}

// Compile-time verification that PrometheusMetrics implements MetricsCollector.
var _ ports.MetricsCollector = (*PrometheusMetrics)(nil)
