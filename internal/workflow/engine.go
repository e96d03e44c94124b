package workflow

import (
	"context"
	"errors"
	"fmt"
	"strconv"
	"strings"
	"sync"
	"time"

	"github.com/rs/zerolog/log"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	oteltrace "go.opentelemetry.io/otel/trace"

	"github.com/monozukuri-ai/assistant-orchestrator/internal/agents"
	"github.com/monozukuri-ai/assistant-orchestrator/internal/checkpoint"
	"github.com/monozukuri-ai/assistant-orchestrator/internal/metrics"
	"github.com/monozukuri-ai/assistant-orchestrator/internal/tools"
	"github.com/monozukuri-ai/assistant-orchestrator/internal/trace"
)

// debugMarker prefixes the header line prepended to debug-mode responses.
// Consumers strip "[DEBUG] <header>\n\n" to recover the original answer.
const debugMarker = "[DEBUG] "

// Engine drives one workflow run per request:
// classify, dispatch to a tool or agent, finalize.
type Engine struct {
	classifier *Classifier
	registry   *agents.Registry
	invoker    *tools.Invoker

	store   checkpoint.Store
	sink    *trace.Sink
	metrics *metrics.WorkflowMetrics

	toolTimeout  time.Duration
	agentTimeout time.Duration

	tracer oteltrace.Tracer

	// threadLocks serializes runs sharing a thread id so concurrent
	// requests cannot race on the continuation state. Entries are
	// refcounted and removed once the last run on a thread releases,
	// so the map only ever holds in-flight thread ids.
	lockMu      sync.Mutex
	threadLocks map[string]*threadLock
}

type threadLock struct {
	mu   sync.Mutex
	refs int
}

// Option configures an Engine at construction time.
type Option func(*Engine)

// WithCheckpointStore enables durable execution bound to the request's
// session id.
func WithCheckpointStore(store checkpoint.Store) Option {
	return func(e *Engine) { e.store = store }
}

// WithSink streams trace events of debug-mode runs to the transport layer.
func WithSink(sink *trace.Sink) Option {
	return func(e *Engine) { e.sink = sink }
}

// WithMetrics attaches a metrics collector.
func WithMetrics(m *metrics.WorkflowMetrics) Option {
	return func(e *Engine) { e.metrics = m }
}

// WithTimeouts overrides the tool and agent invocation timeouts.
func WithTimeouts(tool, agent time.Duration) Option {
	return func(e *Engine) {
		e.toolTimeout = tool
		e.agentTimeout = agent
	}
}

// NewEngine composes the workflow engine.
func NewEngine(classifier *Classifier, registry *agents.Registry, invoker *tools.Invoker, opts ...Option) *Engine {
	e := &Engine{
		classifier:   classifier,
		registry:     registry,
		invoker:      invoker,
		toolTimeout:  10 * time.Second,
		agentTimeout: 60 * time.Second,
		tracer:       otel.Tracer("workflow-engine"),
		threadLocks:  make(map[string]*threadLock),
	}
	for _, opt := range opts {
		opt(e)
	}
	return e
}

// Run executes the state machine for one request. Tool and agent failures
// are absorbed into a degraded but valid Result; only invalid input and
// checkpoint I/O failures are returned as errors.
func (e *Engine) Run(ctx context.Context, req Request) (*Result, error) {
	ctx, span := e.tracer.Start(ctx, "workflow.run")
	defer span.End()

	span.SetAttributes(
		attribute.String("session_id", req.SessionID),
		attribute.Bool("debug", req.Debug),
	)

	if strings.TrimSpace(req.UserQuery) == "" {
		return nil, fmt.Errorf("%w: empty user query", ErrInvalidRequest)
	}

	start := time.Now()

	// At most one in-flight run per thread when checkpointing is enabled.
	var cont *checkpoint.Continuation
	if e.store != nil {
		unlock := e.lockThread(req.SessionID)
		defer unlock()

		var err error
		cont, err = e.store.Load(ctx, req.SessionID)
		if err != nil {
			return nil, err
		}
	}

	var sink *trace.Sink
	if req.Debug {
		sink = e.sink
	}
	rec := trace.NewRecorder(sink)

	decision, resumed := e.classifyOrResume(req, cont, rec)
	span.SetAttributes(
		attribute.String("workflow.route", decision.Route),
		attribute.String("workflow.reason", decision.Reason),
	)

	if e.metrics != nil {
		e.metrics.RecordRunStarted(ctx, decision.Route)
	}

	turn := 0
	if cont != nil {
		turn = cont.Turn
	}

	if e.store != nil && !resumed {
		if err := e.saveCheckpoint(ctx, req, decision, checkpoint.StateClassified, turn); err != nil {
			if e.metrics != nil {
				e.metrics.RecordRunFailed(ctx, decision.Route, "persistence", time.Since(start))
			}
			return nil, err
		}
	}

	var content string
	if decision.Route == RouteTool {
		content = e.dispatchTool(ctx, req, decision, rec)
	} else {
		var err error
		content, err = e.dispatchAgent(ctx, req, decision, rec)
		if err != nil {
			if e.metrics != nil {
				e.metrics.RecordRunFailed(ctx, decision.Route, "classification", time.Since(start))
			}
			return nil, err
		}
	}

	// Never persist a half-completed run after cancellation.
	if e.store != nil && ctx.Err() == nil {
		if err := e.saveCheckpoint(ctx, req, decision, checkpoint.StateFinalized, turn+1); err != nil {
			if e.metrics != nil {
				e.metrics.RecordRunFailed(ctx, decision.Route, "persistence", time.Since(start))
			}
			return nil, err
		}
	}

	result := e.finalize(req, rec, content)

	if e.metrics != nil {
		e.metrics.RecordRunCompleted(ctx, decision.Route, time.Since(start))
	}

	log.Info().
		Str("session_id", req.SessionID).
		Str("route", decision.Route).
		Dur("took", time.Since(start)).
		Int("response_length", len(result.Content)).
		Msg("workflow run finalized")

	return result, nil
}

// classifyOrResume reuses a classified-but-unfinalized continuation for the
// same query instead of re-running analysis; otherwise it classifies fresh.
func (e *Engine) classifyOrResume(req Request, cont *checkpoint.Continuation, rec *trace.Recorder) (RouteDecision, bool) {
	if cont != nil && cont.State == checkpoint.StateClassified && cont.Query == req.UserQuery {
		rec.Record(trace.NewEvent(trace.EventCheckpointResume, cont.Route, "resume:classified", map[string]string{
			"turn": strconv.Itoa(cont.Turn),
		}))
		return RouteDecision{Route: cont.Route, Reason: cont.Reason}, true
	}
	return e.classifier.Classify(req), false
}

func (e *Engine) saveCheckpoint(ctx context.Context, req Request, decision RouteDecision, state string, turn int) error {
	return e.store.Save(ctx, req.SessionID, &checkpoint.Continuation{
		State:     state,
		Query:     req.UserQuery,
		Route:     decision.Route,
		Reason:    decision.Reason,
		Turn:      turn,
		UpdatedAt: time.Now().UTC(),
	})
}

// dispatchTool executes the detected tool and recovers failures into a
// degraded response. Records tool_invoked then tool_result.
func (e *Engine) dispatchTool(ctx context.Context, req Request, decision RouteDecision, rec *trace.Recorder) string {
	spec, ok := tools.Detect(req.UserQuery)
	if !ok {
		// Route said tool but no prefix parsed; degenerate input.
		rec.Record(trace.NewEvent(trace.EventError, "", "tool request not recognized", nil))
		return "ツール実行リクエストを認識できませんでした。"
	}

	rec.Record(trace.NewEvent(trace.EventToolInvoked, spec.Name, decision.Reason, map[string]string{
		"input": spec.Input,
	}))

	result := e.invoker.Execute(ctx, spec, e.toolTimeout)

	if e.metrics != nil {
		e.metrics.RecordToolInvocation(ctx, spec.Name, result.Error != "")
	}

	payload := map[string]string{
		"took_ms": strconv.FormatInt(result.TookMS, 10),
	}
	if result.Error != "" {
		payload["error"] = result.Error
	} else {
		payload["output"] = result.Output
	}
	rec.Record(trace.NewEvent(trace.EventToolResult, spec.Name, "", payload))

	if result.Error != "" {
		log.Warn().Str("tool", spec.Name).Str("error", result.Error).Msg("tool execution failed")
		return toolFailureMessage
	}

	return fmt.Sprintf("[tool:%s] 実行結果:\n%s", spec.Name, result.Output)
}

// dispatchAgent resolves and invokes the routed agent under the invocation
// timeout. Agent errors and timeouts become a degraded response; an
// unresolvable route is a fatal engine bug.
func (e *Engine) dispatchAgent(ctx context.Context, req Request, decision RouteDecision, rec *trace.Recorder) (string, error) {
	handler, ok := e.registry.Resolve(decision.Route)
	if !ok {
		return "", &ClassificationFault{Route: decision.Route}
	}

	rec.Record(trace.NewEvent(trace.EventAgentSelected, decision.Route, decision.Reason, nil))

	invokeCtx := ctx
	if e.agentTimeout > 0 {
		var cancel context.CancelFunc
		invokeCtx, cancel = context.WithTimeout(ctx, e.agentTimeout)
		defer cancel()
	}

	out, err := handler.Invoke(invokeCtx, agents.Input{
		UserQuery:           req.UserQuery,
		ConversationHistory: renderHistory(req.ConversationHistory),
		FileContext:         req.FileContext,
	})

	if err != nil {
		if errors.Is(err, context.DeadlineExceeded) || invokeCtx.Err() == context.DeadlineExceeded {
			rec.Record(trace.NewEvent(trace.EventTimeout, decision.Route, "agent invocation timed out", nil))
		} else {
			rec.Record(trace.NewEvent(trace.EventError, decision.Route, err.Error(), nil))
		}
		log.Error().Str("agent", decision.Route).Err(err).Msg("agent invocation failed")
		return agentFailureMessage, nil
	}

	for _, ev := range out.Trace {
		rec.Record(ev)
	}
	rec.Record(trace.NewEvent(trace.EventAgentCompleted, decision.Route, "", map[string]string{
		"response_length": strconv.Itoa(len(out.Content)),
	}))

	return out.Content, nil
}

// finalize composes the Result, prepending the debug marker line and
// attaching DebugInfo when the request asked for it.
func (e *Engine) finalize(req Request, rec *trace.Recorder, content string) *Result {
	if !req.Debug {
		return &Result{Content: content}
	}

	header := rec.Header()
	return &Result{
		Content: debugMarker + header + "\n\n" + content,
		Debug: &DebugInfo{
			DisplayHeader: header,
			SelectedAgent: rec.SelectedAgent(),
			SelectedTool:  rec.SelectedTool(),
			DecisionTrace: rec.Events(),
			ThreadID:      req.SessionID,
		},
	}
}

func (e *Engine) lockThread(threadID string) func() {
	e.lockMu.Lock()
	l, ok := e.threadLocks[threadID]
	if !ok {
		l = &threadLock{}
		e.threadLocks[threadID] = l
	}
	l.refs++
	e.lockMu.Unlock()

	l.mu.Lock()
	return func() {
		l.mu.Unlock()

		e.lockMu.Lock()
		l.refs--
		if l.refs == 0 {
			delete(e.threadLocks, threadID)
		}
		e.lockMu.Unlock()
	}
}

// renderHistory flattens the conversation snapshot into the prompt context
// format, most recent turns last.
func renderHistory(turns []Turn) string {
	if len(turns) == 0 {
		return ""
	}
	lines := make([]string, 0, len(turns))
	for _, t := range turns {
		prefix := "アシスタント"
		if t.Role == "user" {
			prefix = "ユーザー"
		}
		lines = append(lines, prefix+": "+t.Content)
	}
	return strings.Join(lines, "\n")
}
