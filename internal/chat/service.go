package chat

import (
	"context"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/rs/zerolog/log"

	"github.com/monozukuri-ai/assistant-orchestrator/internal/models"
	"github.com/monozukuri-ai/assistant-orchestrator/internal/workflow"
)

// Service manages chat conversations: it assembles the workflow request
// from session state, runs the engine, and persists both turns.
type Service struct {
	engine          *workflow.Engine
	history         HistoryRepository
	maxHistoryTurns int
}

// NewService creates a chat service.
func NewService(engine *workflow.Engine, history HistoryRepository, maxHistoryTurns int) *Service {
	if maxHistoryTurns <= 0 {
		maxHistoryTurns = 10
	}
	return &Service{
		engine:          engine,
		history:         history,
		maxHistoryTurns: maxHistoryTurns,
	}
}

// ProcessMessage handles one user message and returns the assistant reply.
// Engine-internal failures surface here only as InvalidRequest or a
// retryable persistence error; everything else is already a valid response.
func (s *Service) ProcessMessage(ctx context.Context, req models.ChatRequest) (*models.ChatResponse, error) {
	start := time.Now()

	sessionID := req.SessionID
	if sessionID == "" {
		sessionID = uuid.New().String()
	}

	userMsg := models.ChatMessage{
		ID:        uuid.New().String(),
		SessionID: sessionID,
		Content:   req.Message,
		Role:      "user",
		Timestamp: time.Now(),
	}
	if err := s.history.Append(ctx, userMsg); err != nil {
		return nil, fmt.Errorf("failed to record user message: %w", err)
	}

	turns, err := s.recentTurns(ctx, sessionID, userMsg.ID)
	if err != nil {
		return nil, err
	}

	result, err := s.engine.Run(ctx, workflow.Request{
		SessionID:           sessionID,
		UserQuery:           req.Message,
		ConversationHistory: turns,
		FileContext:         req.FileContext,
		Debug:               req.Debug,
	})
	if err != nil {
		return nil, err
	}

	processing := time.Since(start).Seconds()
	assistantMsg := models.ChatMessage{
		ID:             uuid.New().String(),
		SessionID:      sessionID,
		Content:        result.Content,
		Role:           "assistant",
		Timestamp:      time.Now(),
		ProcessingTime: processing,
	}
	if err := s.history.Append(ctx, assistantMsg); err != nil {
		return nil, fmt.Errorf("failed to record assistant message: %w", err)
	}

	log.Info().
		Str("session_id", sessionID).
		Int("message_length", len(req.Message)).
		Int("response_length", len(result.Content)).
		Float64("processing_time", processing).
		Msg("message processed")

	return &models.ChatResponse{
		Message:        assistantMsg,
		SessionID:      sessionID,
		ProcessingTime: processing,
		Debug:          result.Debug,
	}, nil
}

// History returns the session's message log; an empty log for unseen ids.
func (s *Service) History(ctx context.Context, sessionID string) (*models.ChatHistory, error) {
	h, err := s.history.History(ctx, sessionID)
	if err != nil {
		return nil, err
	}
	if h == nil {
		return &models.ChatHistory{SessionID: sessionID, Messages: []models.ChatMessage{}}, nil
	}
	return h, nil
}

// CleanupOldSessions removes sessions idle longer than maxAge.
func (s *Service) CleanupOldSessions(ctx context.Context, maxAge time.Duration) (int, error) {
	removed, err := s.history.CleanupBefore(ctx, time.Now().Add(-maxAge))
	if err != nil {
		return 0, err
	}
	if removed > 0 {
		log.Info().Int("cleaned_count", removed).Msg("sessions cleaned up")
	}
	return removed, nil
}

// recentTurns builds the conversation snapshot for the engine, excluding
// the message that triggered this run.
func (s *Service) recentTurns(ctx context.Context, sessionID, excludeID string) ([]workflow.Turn, error) {
	msgs, err := s.history.Recent(ctx, sessionID, s.maxHistoryTurns+1)
	if err != nil {
		return nil, fmt.Errorf("failed to load conversation context: %w", err)
	}

	turns := make([]workflow.Turn, 0, len(msgs))
	for _, m := range msgs {
		if m.ID == excludeID {
			continue
		}
		turns = append(turns, workflow.Turn{
			Role:      m.Role,
			Content:   m.Content,
			Timestamp: m.Timestamp,
		})
	}
	if len(turns) > s.maxHistoryTurns {
		turns = turns[len(turns)-s.maxHistoryTurns:]
	}
	return turns, nil
}
