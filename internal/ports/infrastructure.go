package ports

import (
	"context"
	"time"
)

// MetricsCollector defines the interface for collecting operational metrics.
// Implementations should integrate with observability platforms like
// Prometheus or OpenTelemetry.
type MetricsCollector interface {
	// RecordLatency records the execution time of an operation.
	// The labels map provides additional context for the metric.
	RecordLatency(operation string, duration time.Duration, labels map[string]string)

	// RecordCounter increments a counter metric.
	// This is useful for tracking events like dropped triggers, bonus grants, errors.
	RecordCounter(metric string, value float64, labels map[string]string)

	// RecordGauge sets the current value of a gauge metric.
	// This is useful for tracking values like qualified candidate counts.
	RecordGauge(metric string, value float64, labels map[string]string)

	// RecordHistogram records a value in a histogram.
	// This is useful for tracking distributions like displayed scores.
	RecordHistogram(metric string, value float64, labels map[string]string)
}

// OperationObserver brackets engine operations for tracing. Start returns
// a context carrying the operation's span and a function the caller must
// invoke exactly once with the operation's outcome.
type OperationObserver interface {
	Start(ctx context.Context, operation string, attrs map[string]string) (context.Context, func(err error))
}

// NoopObserver discards every observation.
type NoopObserver struct{}

// Start implements OperationObserver.
func (NoopObserver) Start(ctx context.Context, _ string, _ map[string]string) (context.Context, func(error)) {
	return ctx, func(error) {}
}

// Metric names emitted by the engine and the recompute coordinator.
// Operation latency is recorded under the operation's own name.
const (
	MetricRecomputeTotal = "recompute_total"
	MetricTriggerDropped = "recompute_trigger_dropped_total"
	MetricBonusGranted   = "bonus_granted_total"
	MetricQualified      = "qualified_candidates"
	MetricRankingSize    = "ranking_size"
	MetricDisplayedScore = "displayed_score"
)
