package chat

import (
	"context"
	"sort"
	"sync"
	"time"

	"github.com/monozukuri-ai/assistant-orchestrator/internal/models"
)

// HistoryRepository stores per-session message logs.
type HistoryRepository interface {
	// Append adds a message to its session's history.
	Append(ctx context.Context, msg models.ChatMessage) error
	// History returns the session's full log, or nil when unseen.
	History(ctx context.Context, sessionID string) (*models.ChatHistory, error)
	// Recent returns up to n most recent messages, oldest first.
	Recent(ctx context.Context, sessionID string, n int) ([]models.ChatMessage, error)
	// CleanupBefore removes sessions idle since before cutoff and reports
	// how many were removed.
	CleanupBefore(ctx context.Context, cutoff time.Time) (int, error)
}

// MemoryHistory is the default, process-local history store.
type MemoryHistory struct {
	mu       sync.RWMutex
	sessions map[string]*models.ChatHistory
}

// NewMemoryHistory creates an empty in-memory history store.
func NewMemoryHistory() *MemoryHistory {
	return &MemoryHistory{sessions: make(map[string]*models.ChatHistory)}
}

func (h *MemoryHistory) Append(_ context.Context, msg models.ChatMessage) error {
	h.mu.Lock()
	defer h.mu.Unlock()

	session, ok := h.sessions[msg.SessionID]
	if !ok {
		session = &models.ChatHistory{
			SessionID: msg.SessionID,
			CreatedAt: time.Now(),
		}
		h.sessions[msg.SessionID] = session
	}
	session.Messages = append(session.Messages, msg)
	session.LastActive = msg.Timestamp
	return nil
}

func (h *MemoryHistory) History(_ context.Context, sessionID string) (*models.ChatHistory, error) {
	h.mu.RLock()
	defer h.mu.RUnlock()

	session, ok := h.sessions[sessionID]
	if !ok {
		return nil, nil
	}

	out := *session
	out.Messages = append([]models.ChatMessage(nil), session.Messages...)
	return &out, nil
}

func (h *MemoryHistory) Recent(_ context.Context, sessionID string, n int) ([]models.ChatMessage, error) {
	h.mu.RLock()
	defer h.mu.RUnlock()

	session, ok := h.sessions[sessionID]
	if !ok || len(session.Messages) == 0 {
		return nil, nil
	}

	msgs := session.Messages
	if n > 0 && len(msgs) > n {
		msgs = msgs[len(msgs)-n:]
	}
	out := append([]models.ChatMessage(nil), msgs...)
	sort.SliceStable(out, func(i, j int) bool { return out[i].Timestamp.Before(out[j].Timestamp) })
	return out, nil
}

func (h *MemoryHistory) CleanupBefore(_ context.Context, cutoff time.Time) (int, error) {
	h.mu.Lock()
	defer h.mu.Unlock()

	removed := 0
	for id, session := range h.sessions {
		if session.LastActive.Before(cutoff) {
			delete(h.sessions, id)
			removed++
		}
	}
	return removed, nil
}
