package otel

import (
	"context"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/trace"
)

const tracerName = "llm-automation-agent"

// StartTaskSpan starts the span covering one task from extraction to result.
func StartTaskSpan(ctx context.Context, taskID string) (context.Context, trace.Span) {
	return otel.Tracer(tracerName).Start(ctx, "task",
		trace.WithAttributes(attribute.String("task.id", taskID)),
	)
}

// StartHandlerSpan starts a span for the handler a task was routed to.
func StartHandlerSpan(ctx context.Context, route string) (context.Context, trace.Span) {
	return otel.Tracer(tracerName).Start(ctx, "handler",
		trace.WithAttributes(attribute.String("task.route", route)),
	)
}

// EndWithStatus records the task status on span and ends it. Statuses other
// than succeeded mark the span as an error.
func EndWithStatus(span trace.Span, status, message string) {
	span.SetAttributes(attribute.String("task.status", status))
	if status != "succeeded" {
		span.SetStatus(codes.Error, message)
	}
	span.End()
}
