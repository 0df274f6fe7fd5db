package service

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"github.com/google/uuid"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/metric"

	cfotel "github.com/avishiprsd/llm-automation-agent/internal/adapter/otel"
	"github.com/avishiprsd/llm-automation-agent/internal/domain"
	"github.com/avishiprsd/llm-automation-agent/internal/domain/sandbox"
	"github.com/avishiprsd/llm-automation-agent/internal/domain/task"
	"github.com/avishiprsd/llm-automation-agent/internal/logger"
)

// Engine runs one task end to end: intent extraction, sandbox check,
// dispatch. It never panics; every outcome is a task.Result.
type Engine struct {
	extractor  *IntentExtractor
	dispatcher *Dispatcher
	policy     *sandbox.Policy
	metrics    *cfotel.Metrics
}

// NewEngine creates an Engine.
func NewEngine(extractor *IntentExtractor, dispatcher *Dispatcher, policy *sandbox.Policy) *Engine {
	return &Engine{extractor: extractor, dispatcher: dispatcher, policy: policy}
}

// SetMetrics enables metric recording.
func (e *Engine) SetMetrics(m *cfotel.Metrics) {
	e.metrics = m
}

// Dispatcher returns the engine's dispatcher.
func (e *Engine) Dispatcher() *Dispatcher {
	return e.dispatcher
}

// Policy returns the sandbox policy.
func (e *Engine) Policy() *sandbox.Policy {
	return e.policy
}

// Execute interprets text and runs the matching handler.
func (e *Engine) Execute(ctx context.Context, text string) (res task.Result) {
	taskID := uuid.NewString()
	ctx = logger.WithTaskID(ctx, taskID)
	ctx, span := cfotel.StartTaskSpan(ctx, taskID)
	start := time.Now()

	defer func() {
		if r := recover(); r != nil {
			slog.ErrorContext(ctx, "task panicked", "panic", r)
			res = task.Errored(fmt.Sprintf("panic: %v", r))
		}
		e.record(ctx, res, time.Since(start))
		cfotel.EndWithStatus(span, string(res.Status), res.Message)
	}()

	slog.InfoContext(ctx, "task_received", "length", len(text))

	intent, err := e.extractor.Extract(ctx, text)
	if err != nil {
		if errors.Is(err, domain.ErrIntentParse) {
			slog.WarnContext(ctx, "intent parse failed", "error", err)
			if e.metrics != nil {
				e.metrics.IntentParseFailures.Add(ctx, 1)
			}
			return task.Rejected(task.MessageParseFailure)
		}
		slog.ErrorContext(ctx, "intent extraction failed", "error", err)
		return task.Errored(err.Error())
	}
	slog.InfoContext(ctx, "intent_extracted",
		"action", intent.Action,
		"input_path", intent.InputPath,
		"output_path", intent.OutputPath,
	)

	if !e.policy.Contains(intent.InputPath) || !e.policy.Contains(intent.OutputPath) {
		slog.WarnContext(ctx, "sandbox violation",
			"input_path", intent.InputPath,
			"output_path", intent.OutputPath,
			"mode", e.policy.Mode,
		)
		return task.Rejected(sandboxMessage(e.policy.Root))
	}

	route, idx := e.dispatcher.Select(intent.Action)
	if idx < 0 {
		slog.InfoContext(ctx, "route_selected", "route", "", "action", intent.Action)
		return task.Unhandled()
	}
	slog.InfoContext(ctx, "route_selected", "route", route.Name, "index", idx)

	hctx, hspan := cfotel.StartHandlerSpan(ctx, route.Name)
	hstart := time.Now()
	res = e.runHandler(hctx, route, Request{Intent: intent, Text: text})
	if e.metrics != nil {
		e.metrics.HandlerDuration.Record(ctx, time.Since(hstart).Seconds(),
			metric.WithAttributes(attribute.String("route", route.Name)))
	}
	cfotel.EndWithStatus(hspan, string(res.Status), res.Message)
	return res
}

// runHandler calls the handler and converts a panic into an error result
// so the handler span still ends.
func (e *Engine) runHandler(ctx context.Context, route Route, req Request) (res task.Result) {
	defer func() {
		if r := recover(); r != nil {
			slog.ErrorContext(ctx, "handler panicked", "route", route.Name, "panic", r)
			res = task.Errored(fmt.Sprintf("handler %s panicked: %v", route.Name, r))
		}
		res.Route = route.Name
	}()
	return route.Handle(ctx, req)
}

func (e *Engine) record(ctx context.Context, res task.Result, elapsed time.Duration) {
	attrs := []any{
		"route", res.Route,
		"status", res.Status,
		"duration_ms", elapsed.Milliseconds(),
	}
	switch res.Status {
	case task.StatusError:
		slog.ErrorContext(ctx, "task_completed", append(attrs, "detail", res.Message)...)
	case task.StatusSucceeded, task.StatusUnhandled:
		slog.InfoContext(ctx, "task_completed", attrs...)
	default:
		slog.WarnContext(ctx, "task_completed", append(attrs, "message", res.Message)...)
	}

	if e.metrics == nil {
		return
	}
	set := metric.WithAttributes(
		attribute.String("route", res.Route),
		attribute.String("status", string(res.Status)),
	)
	e.metrics.TasksExecuted.Add(ctx, 1, set)
	if res.Status != task.StatusSucceeded {
		e.metrics.TasksFailed.Add(ctx, 1, set)
	}
}
