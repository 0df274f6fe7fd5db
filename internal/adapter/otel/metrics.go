package otel

import (
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/metric"
)

const meterName = "llm-automation-agent"

// Metrics holds the agent's metric instruments.
type Metrics struct {
	TasksExecuted       metric.Int64Counter
	TasksFailed         metric.Int64Counter
	IntentParseFailures metric.Int64Counter
	HandlerDuration     metric.Float64Histogram
}

// NewMetrics creates all metric instruments on the global meter provider.
func NewMetrics() (*Metrics, error) {
	meter := otel.Meter(meterName)
	m := &Metrics{}
	var err error

	m.TasksExecuted, err = meter.Int64Counter("agent.tasks.executed",
		metric.WithDescription("Number of tasks executed, by route and status"))
	if err != nil {
		return nil, err
	}

	m.TasksFailed, err = meter.Int64Counter("agent.tasks.failed",
		metric.WithDescription("Number of tasks that did not succeed"))
	if err != nil {
		return nil, err
	}

	m.IntentParseFailures, err = meter.Int64Counter("agent.intent.parse_failures",
		metric.WithDescription("Number of task descriptions the interpreter could not structure"))
	if err != nil {
		return nil, err
	}

	m.HandlerDuration, err = meter.Float64Histogram("agent.handler.duration_seconds",
		metric.WithDescription("Handler execution time in seconds"),
		metric.WithUnit("s"))
	if err != nil {
		return nil, err
	}

	return m, nil
}
