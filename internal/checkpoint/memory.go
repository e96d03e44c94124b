package checkpoint

import (
	"context"
	"sync"
)

// MemoryStore keeps continuations in process memory. This is the default
// store; state lives until cleared or until the process exits.
type MemoryStore struct {
	mu    sync.RWMutex
	state map[string]Continuation
}

// NewMemoryStore creates an empty in-memory store.
func NewMemoryStore() *MemoryStore {
	return &MemoryStore{state: make(map[string]Continuation)}
}

func (s *MemoryStore) Load(_ context.Context, threadID string) (*Continuation, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	c, ok := s.state[threadID]
	if !ok {
		return nil, nil
	}
	out := c
	return &out, nil
}

func (s *MemoryStore) Save(_ context.Context, threadID string, c *Continuation) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.state[threadID] = *c
	return nil
}

func (s *MemoryStore) Clear(_ context.Context, threadID string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	delete(s.state, threadID)
	return nil
}
