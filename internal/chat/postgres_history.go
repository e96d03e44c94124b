package chat

import (
	"context"
	"fmt"
	"time"

	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/monozukuri-ai/assistant-orchestrator/internal/models"
)

// PostgresHistory persists chat messages in a chat_messages table.
//
// Expected schema:
//
//	CREATE TABLE chat_messages (
//	    id              UUID PRIMARY KEY,
//	    session_id      TEXT NOT NULL,
//	    role            TEXT NOT NULL,
//	    content         TEXT NOT NULL,
//	    processing_time DOUBLE PRECISION,
//	    created_at      TIMESTAMPTZ NOT NULL
//	);
//	CREATE INDEX idx_chat_messages_session ON chat_messages (session_id, created_at);
type PostgresHistory struct {
	pool *pgxpool.Pool
}

// NewPostgresHistory creates a history repository backed by the given pool.
func NewPostgresHistory(pool *pgxpool.Pool) *PostgresHistory {
	return &PostgresHistory{pool: pool}
}

func (h *PostgresHistory) Append(ctx context.Context, msg models.ChatMessage) error {
	_, err := h.pool.Exec(ctx, `
		INSERT INTO chat_messages (id, session_id, role, content, processing_time, created_at)
		VALUES ($1, $2, $3, $4, $5, $6)
	`, msg.ID, msg.SessionID, msg.Role, msg.Content, msg.ProcessingTime, msg.Timestamp)

	if err != nil {
		return fmt.Errorf("failed to append chat message: %w", err)
	}
	return nil
}

func (h *PostgresHistory) History(ctx context.Context, sessionID string) (*models.ChatHistory, error) {
	rows, err := h.pool.Query(ctx, `
		SELECT id, session_id, role, content, COALESCE(processing_time, 0), created_at
		FROM chat_messages
		WHERE session_id = $1
		ORDER BY created_at ASC
	`, sessionID)
	if err != nil {
		return nil, fmt.Errorf("failed to query chat history: %w", err)
	}
	defer rows.Close()

	var messages []models.ChatMessage
	for rows.Next() {
		var msg models.ChatMessage
		if err := rows.Scan(&msg.ID, &msg.SessionID, &msg.Role, &msg.Content, &msg.ProcessingTime, &msg.Timestamp); err != nil {
			return nil, fmt.Errorf("failed to scan chat message: %w", err)
		}
		messages = append(messages, msg)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("error iterating chat messages: %w", err)
	}

	if len(messages) == 0 {
		return nil, nil
	}

	return &models.ChatHistory{
		SessionID:  sessionID,
		Messages:   messages,
		CreatedAt:  messages[0].Timestamp,
		LastActive: messages[len(messages)-1].Timestamp,
	}, nil
}

func (h *PostgresHistory) Recent(ctx context.Context, sessionID string, n int) ([]models.ChatMessage, error) {
	rows, err := h.pool.Query(ctx, `
		SELECT id, session_id, role, content, COALESCE(processing_time, 0), created_at
		FROM (
			SELECT * FROM chat_messages
			WHERE session_id = $1
			ORDER BY created_at DESC
			LIMIT $2
		) recent
		ORDER BY created_at ASC
	`, sessionID, n)
	if err != nil {
		return nil, fmt.Errorf("failed to query recent messages: %w", err)
	}
	defer rows.Close()

	var messages []models.ChatMessage
	for rows.Next() {
		var msg models.ChatMessage
		if err := rows.Scan(&msg.ID, &msg.SessionID, &msg.Role, &msg.Content, &msg.ProcessingTime, &msg.Timestamp); err != nil {
			return nil, fmt.Errorf("failed to scan chat message: %w", err)
		}
		messages = append(messages, msg)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("error iterating recent messages: %w", err)
	}

	return messages, nil
}

func (h *PostgresHistory) CleanupBefore(ctx context.Context, cutoff time.Time) (int, error) {
	tag, err := h.pool.Exec(ctx, `
		DELETE FROM chat_messages
		WHERE session_id IN (
			SELECT session_id FROM chat_messages
			GROUP BY session_id
			HAVING MAX(created_at) < $1
		)
	`, cutoff)
	if err != nil {
		return 0, fmt.Errorf("failed to clean up sessions: %w", err)
	}
	return int(tag.RowsAffected()), nil
}
