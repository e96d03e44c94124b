package tools

import (
	"context"
	"fmt"
	"time"

	"github.com/rs/zerolog/log"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/trace"

	wftrace "github.com/monozukuri-ai/assistant-orchestrator/internal/trace"
)

// Result is the outcome of one tool execution. Exactly one of Output and
// Error is set. Input is truncated so it is always trace-safe.
type Result struct {
	ToolName string `json:"tool_name"`
	Input    string `json:"input"`
	Output   string `json:"output,omitempty"`
	Error    string `json:"error,omitempty"`
	TookMS   int64  `json:"took_ms"`
}

// Invoker executes detected tool requests with bounded latency.
type Invoker struct {
	runners map[string]Runner
	tracer  trace.Tracer
}

// NewInvoker creates an invoker with the built-in sql and web runners.
func NewInvoker() *Invoker {
	return &Invoker{
		runners: defaultRunners(),
		tracer:  otel.Tracer("tool-invoker"),
	}
}

// Register adds or replaces a runner. Used by tests to install slow or
// failing tools.
func (inv *Invoker) Register(name string, r Runner) {
	inv.runners[name] = r
}

// Execute runs the tool described by spec under the given timeout. A timeout
// or runner failure is reported inside the Result, never as a raised error,
// so the workflow can always finalize with a degraded response.
func (inv *Invoker) Execute(ctx context.Context, spec Spec, timeout time.Duration) Result {
	ctx, span := inv.tracer.Start(ctx, "tool.execute")
	defer span.End()

	span.SetAttributes(
		attribute.String("tool.name", spec.Name),
		attribute.Int64("tool.timeout_ms", timeout.Milliseconds()),
	)

	start := time.Now()
	res := Result{
		ToolName: spec.Name,
		Input:    wftrace.Truncate(spec.Input),
	}

	runner, ok := inv.runners[spec.Name]
	if !ok {
		res.Error = fmt.Sprintf("unknown tool: %s", spec.Name)
		res.TookMS = time.Since(start).Milliseconds()
		span.SetAttributes(attribute.String("tool.error", res.Error))
		return res
	}

	runCtx := ctx
	if timeout > 0 {
		var cancel context.CancelFunc
		runCtx, cancel = context.WithTimeout(ctx, timeout)
		defer cancel()
	}

	type outcome struct {
		output string
		err    error
	}
	done := make(chan outcome, 1)

	go func() {
		out, err := runner(runCtx, spec.Input)
		done <- outcome{output: out, err: err}
	}()

	select {
	case o := <-done:
		res.TookMS = time.Since(start).Milliseconds()
		if o.err != nil {
			res.Error = o.err.Error()
			span.RecordError(o.err)
		} else {
			res.Output = o.output
		}
	case <-runCtx.Done():
		res.TookMS = time.Since(start).Milliseconds()
		if runCtx.Err() == context.DeadlineExceeded {
			res.Error = "timeout"
		} else {
			res.Error = runCtx.Err().Error()
		}
		span.SetAttributes(attribute.String("tool.error", res.Error))
		log.Warn().Str("tool", spec.Name).Int64("took_ms", res.TookMS).Str("error", res.Error).Msg("tool execution aborted")
	}

	return res
}
