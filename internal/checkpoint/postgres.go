package checkpoint

import (
	"context"
	"encoding/json"
	"errors"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
)

// PostgresStore persists continuations in a workflow_checkpoints table.
// Save is a single upsert, so a row is either fully replaced or untouched.
//
// Expected schema:
//
//	CREATE TABLE workflow_checkpoints (
//	    thread_id  TEXT PRIMARY KEY,
//	    state      JSONB NOT NULL,
//	    updated_at TIMESTAMPTZ NOT NULL DEFAULT NOW()
//	);
type PostgresStore struct {
	pool *pgxpool.Pool
}

// NewPostgresStore creates a store backed by the given connection pool.
func NewPostgresStore(pool *pgxpool.Pool) *PostgresStore {
	return &PostgresStore{pool: pool}
}

func (s *PostgresStore) Load(ctx context.Context, threadID string) (*Continuation, error) {
	var raw []byte
	err := s.pool.QueryRow(ctx,
		`SELECT state FROM workflow_checkpoints WHERE thread_id = $1`,
		threadID,
	).Scan(&raw)

	if errors.Is(err, pgx.ErrNoRows) {
		return nil, nil
	}
	if err != nil {
		return nil, &PersistenceError{Op: "load", Err: err}
	}

	var c Continuation
	if err := json.Unmarshal(raw, &c); err != nil {
		return nil, &PersistenceError{Op: "load", Err: err}
	}

	return &c, nil
}

func (s *PostgresStore) Save(ctx context.Context, threadID string, c *Continuation) error {
	raw, err := json.Marshal(c)
	if err != nil {
		return &PersistenceError{Op: "save", Err: err}
	}

	_, err = s.pool.Exec(ctx, `
		INSERT INTO workflow_checkpoints (thread_id, state, updated_at)
		VALUES ($1, $2, NOW())
		ON CONFLICT (thread_id)
		DO UPDATE SET state = EXCLUDED.state, updated_at = NOW()
	`, threadID, raw)

	if err != nil {
		return &PersistenceError{Op: "save", Err: err}
	}

	return nil
}

func (s *PostgresStore) Clear(ctx context.Context, threadID string) error {
	_, err := s.pool.Exec(ctx,
		`DELETE FROM workflow_checkpoints WHERE thread_id = $1`,
		threadID,
	)
	if err != nil {
		return &PersistenceError{Op: "clear", Err: err}
	}
	return nil
}
