package middleware

import (
	"context"
	"errors"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/trace"

	"github.com/ahrav/go-joute/internal/domain"
	"github.com/ahrav/go-joute/internal/ports"
)

var _ ports.OperationObserver = (*OTelObserver)(nil)

// TracerName is the instrumentation scope of engine spans.
const TracerName = "github.com/ahrav/go-joute/engine"

// OTelObserver implements ports.OperationObserver with OpenTelemetry spans.
// Latency is recorded by the engine, not here.
type OTelObserver struct {
	tracer trace.Tracer
}

// NewOTelObserver uses the globally registered tracer provider.
func NewOTelObserver() *OTelObserver {
	return NewOTelObserverWithTracer(otel.Tracer(TracerName))
}

// NewOTelObserverWithTracer uses tracer instead of the global provider.
func NewOTelObserverWithTracer(tracer trace.Tracer) *OTelObserver {
	return &OTelObserver{tracer: tracer}
}

// Start implements ports.OperationObserver. It opens a span named
// "Engine.<operation>" carrying attrs, and the returned function closes it
// with a status derived from err.
func (o *OTelObserver) Start(
	ctx context.Context,
	operation string,
	attrs map[string]string,
) (context.Context, func(err error)) {
	ctx, span := o.tracer.Start(ctx, "Engine."+operation)
	span.SetAttributes(spanAttributes(attrs)...)

	return ctx, func(err error) {
		defer span.End()

		if err != nil {
			span.RecordError(err)
			span.SetAttributes(attribute.String("error.class", errorClass(err)))
			span.SetStatus(codes.Error, err.Error())
			return
		}
		span.SetStatus(codes.Ok, "")
	}
}

func spanAttributes(attrs map[string]string) []attribute.KeyValue {
	kv := make([]attribute.KeyValue, 0, len(attrs))
	for k, v := range attrs {
		kv = append(kv, attribute.String("joute."+k, v))
	}
	return kv
}

// errorClass maps an error onto the taxonomy exposed to dashboards.
func errorClass(err error) string {
	switch {
	case errors.Is(err, domain.ErrInvalidScoreValue):
		return "invalid_score_value"
	case errors.Is(err, domain.ErrIncompleteRound):
		return "incomplete_round"
	case errors.Is(err, domain.ErrInvalidQuota):
		return "invalid_quota"
	case errors.Is(err, domain.ErrDuplicateScoreRecord):
		return "duplicate_score_record"
	case errors.Is(err, domain.ErrInvalidPartition):
		return "invalid_partition"
	case errors.Is(err, domain.ErrNotFound):
		return "not_found"
	case ports.IsRetryable(err):
		return "store_transient"
	default:
		return "internal"
	}
}
