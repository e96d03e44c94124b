package workflow

import (
	"time"

	"github.com/monozukuri-ai/assistant-orchestrator/internal/trace"
)

// Turn is one prior message in a conversation snapshot.
type Turn struct {
	Role      string    `json:"role"`
	Content   string    `json:"content"`
	Timestamp time.Time `json:"timestamp"`
}

// Request is the immutable input for one workflow run. SessionID doubles as
// the conversation thread id for checkpointing.
type Request struct {
	SessionID           string
	UserQuery           string
	ConversationHistory []Turn
	FileContext         string
	Debug               bool
}

// RouteDecision is the single route chosen for a request plus the deciding
// signal.
type RouteDecision struct {
	Route  string `json:"route"`
	Reason string `json:"reason"`
}

// Routes the classifier may produce. Every topical route must have a
// registered agent; RouteTool goes to the tool invoker instead.
const (
	RouteManufacturing = "manufacturing"
	RoutePython        = "python"
	RouteGeneral       = "general"
	RouteTool          = "tool"
)

// DebugInfo is attached to a Result if and only if the request asked for it.
type DebugInfo struct {
	DisplayHeader string        `json:"display_header"`
	SelectedAgent string        `json:"selected_agent,omitempty"`
	SelectedTool  string        `json:"selected_tool,omitempty"`
	DecisionTrace []trace.Event `json:"decision_trace"`
	ThreadID      string        `json:"thread_id,omitempty"`
}

// Result is the engine's output for one request.
type Result struct {
	Content string     `json:"content"`
	Debug   *DebugInfo `json:"debug,omitempty"`
}
