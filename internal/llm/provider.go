package llm

import (
	"context"
)

// Provider is the opaque text-generation capability the workflow depends on.
// Implementations are expected to be safe for concurrent use.
type Provider interface {
	// Generate produces text for the given prompt. Blocking; honors ctx
	// cancellation and deadline.
	Generate(ctx context.Context, prompt string) (string, error)
	// Configured reports whether the provider can actually reach its
	// backing service. Agents fall back to a canned message when false.
	Configured() bool
}
