package checkpoint

import (
	"context"
	"fmt"
	"time"
)

// Run states a continuation can be saved at.
const (
	StateClassified = "classified"
	StateFinalized  = "finalized"
)

// Continuation is the state needed to resume a previously checkpointed
// workflow run for one conversation thread.
type Continuation struct {
	State     string    `json:"state"`
	Query     string    `json:"query"`
	Route     string    `json:"route"`
	Reason    string    `json:"reason"`
	Turn      int       `json:"turn"`
	UpdatedAt time.Time `json:"updated_at"`
}

// Store persists continuations keyed by thread id. Implementations must
// make Save atomic: either the full continuation is stored or nothing is.
type Store interface {
	// Load returns the continuation for threadID, or nil when unseen.
	Load(ctx context.Context, threadID string) (*Continuation, error)
	// Save stores the continuation for threadID, replacing any prior one.
	Save(ctx context.Context, threadID string, c *Continuation) error
	// Clear removes the continuation for threadID. Clearing an unseen id
	// is not an error.
	Clear(ctx context.Context, threadID string) error
}

// PersistenceError wraps a store I/O failure. Retryable by the caller; the
// workflow never proceeds with stale or partial state.
type PersistenceError struct {
	Op  string
	Err error
}

func (e *PersistenceError) Error() string {
	return fmt.Sprintf("checkpoint %s failed: %v", e.Op, e.Err)
}

func (e *PersistenceError) Unwrap() error { return e.Err }
