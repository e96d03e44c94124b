package metrics

import (
	"context"
	"time"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/metric"
)

var meter = otel.Meter("workflow-metrics")

// WorkflowMetrics provides metrics collection for workflow runs.
type WorkflowMetrics struct {
	runsStartedCounter    metric.Int64Counter
	runsCompletedCounter  metric.Int64Counter
	runsFailedCounter     metric.Int64Counter
	runDurationHistogram  metric.Float64Histogram
	runsActiveGauge       metric.Int64UpDownCounter
	toolInvocationCounter metric.Int64Counter
}

// NewWorkflowMetrics creates a new workflow metrics collector.
func NewWorkflowMetrics() (*WorkflowMetrics, error) {
	runsStartedCounter, err := meter.Int64Counter(
		"assistant.workflow.runs.started",
		metric.WithDescription("Total number of workflow runs started"),
		metric.WithUnit("{run}"),
	)
	if err != nil {
		return nil, err
	}

	runsCompletedCounter, err := meter.Int64Counter(
		"assistant.workflow.runs.completed",
		metric.WithDescription("Total number of workflow runs completed successfully"),
		metric.WithUnit("{run}"),
	)
	if err != nil {
		return nil, err
	}

	runsFailedCounter, err := meter.Int64Counter(
		"assistant.workflow.runs.failed",
		metric.WithDescription("Total number of workflow runs that failed"),
		metric.WithUnit("{run}"),
	)
	if err != nil {
		return nil, err
	}

	runDurationHistogram, err := meter.Float64Histogram(
		"assistant.workflow.run.duration",
		metric.WithDescription("Duration of workflow run in seconds"),
		metric.WithUnit("s"),
	)
	if err != nil {
		return nil, err
	}

	runsActiveGauge, err := meter.Int64UpDownCounter(
		"assistant.workflow.runs.active",
		metric.WithDescription("Number of currently active workflow runs"),
		metric.WithUnit("{run}"),
	)
	if err != nil {
		return nil, err
	}

	toolInvocationCounter, err := meter.Int64Counter(
		"assistant.workflow.tools.invoked",
		metric.WithDescription("Total number of tool invocations"),
		metric.WithUnit("{invocation}"),
	)
	if err != nil {
		return nil, err
	}

	return &WorkflowMetrics{
		runsStartedCounter:    runsStartedCounter,
		runsCompletedCounter:  runsCompletedCounter,
		runsFailedCounter:     runsFailedCounter,
		runDurationHistogram:  runDurationHistogram,
		runsActiveGauge:       runsActiveGauge,
		toolInvocationCounter: toolInvocationCounter,
	}, nil
}

// RecordRunStarted records a new workflow run.
func (wm *WorkflowMetrics) RecordRunStarted(ctx context.Context, route string) {
	wm.runsStartedCounter.Add(ctx, 1,
		metric.WithAttributes(attribute.String("workflow.route", route)),
	)
	wm.runsActiveGauge.Add(ctx, 1,
		metric.WithAttributes(attribute.String("workflow.route", route)),
	)
}

// RecordRunCompleted records a successful run.
func (wm *WorkflowMetrics) RecordRunCompleted(ctx context.Context, route string, duration time.Duration) {
	wm.runsCompletedCounter.Add(ctx, 1,
		metric.WithAttributes(
			attribute.String("workflow.route", route),
			attribute.String("status", "completed"),
		),
	)
	wm.runDurationHistogram.Record(ctx, duration.Seconds(),
		metric.WithAttributes(
			attribute.String("workflow.route", route),
			attribute.String("status", "completed"),
		),
	)
	wm.runsActiveGauge.Add(ctx, -1,
		metric.WithAttributes(attribute.String("workflow.route", route)),
	)
}

// RecordRunFailed records a failed run.
func (wm *WorkflowMetrics) RecordRunFailed(ctx context.Context, route, errorType string, duration time.Duration) {
	wm.runsFailedCounter.Add(ctx, 1,
		metric.WithAttributes(
			attribute.String("workflow.route", route),
			attribute.String("status", "failed"),
			attribute.String("error.type", errorType),
		),
	)
	wm.runDurationHistogram.Record(ctx, duration.Seconds(),
		metric.WithAttributes(
			attribute.String("workflow.route", route),
			attribute.String("status", "failed"),
		),
	)
	wm.runsActiveGauge.Add(ctx, -1,
		metric.WithAttributes(attribute.String("workflow.route", route)),
	)
}

// RecordToolInvocation records one tool execution.
func (wm *WorkflowMetrics) RecordToolInvocation(ctx context.Context, tool string, failed bool) {
	status := "ok"
	if failed {
		status = "error"
	}
	wm.toolInvocationCounter.Add(ctx, 1,
		metric.WithAttributes(
			attribute.String("tool.name", tool),
			attribute.String("status", status),
		),
	)
}
