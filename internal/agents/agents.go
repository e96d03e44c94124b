package agents

import (
	"context"

	"github.com/monozukuri-ai/assistant-orchestrator/internal/trace"
)

// Input carries the fields a responder needs for one invocation.
type Input struct {
	UserQuery           string
	ConversationHistory string
	FileContext         string
}

// Output is a responder's result. Content is never empty on success.
type Output struct {
	Content string
	// Trace holds events the agent itself wants in the decision trace.
	Trace []trace.Event
}

// Handler is the capability every registered responder implements.
// Invoke may block on the underlying text-generation call; it honors ctx.
type Handler interface {
	Name() string
	Invoke(ctx context.Context, in Input) (Output, error)
}
