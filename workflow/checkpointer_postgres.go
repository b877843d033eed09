package workflow

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"

	_ "github.com/lib/pq"
)

const postgresCheckpointSchema = `
CREATE TABLE IF NOT EXISTS workflow_checkpoints (
	execution_id  TEXT        NOT NULL,
	checkpoint_id TEXT        NOT NULL,
	data          JSONB       NOT NULL,
	created_at    TIMESTAMPTZ NOT NULL DEFAULT now(),
	PRIMARY KEY (execution_id, checkpoint_id)
);
CREATE INDEX IF NOT EXISTS workflow_checkpoints_created_at_idx
	ON workflow_checkpoints (execution_id, created_at DESC);
`

// PostgresCheckpointer persists checkpoints in a Postgres table. Useful when
// executions must survive the host or be resumable from another machine.
type PostgresCheckpointer struct {
	db *sql.DB
}

// NewPostgresCheckpointer opens a connection with the given DSN and ensures
// the checkpoint table exists.
func NewPostgresCheckpointer(ctx context.Context, dsn string) (*PostgresCheckpointer, error) {
	if dsn == "" {
		return nil, fmt.Errorf("postgres dsn required")
	}
	db, err := sql.Open("postgres", dsn)
	if err != nil {
		return nil, fmt.Errorf("failed to open postgres connection: %w", err)
	}
	if err := db.PingContext(ctx); err != nil {
		db.Close()
		return nil, fmt.Errorf("failed to ping postgres: %w", err)
	}
	if _, err := db.ExecContext(ctx, postgresCheckpointSchema); err != nil {
		db.Close()
		return nil, fmt.Errorf("failed to create checkpoint table: %w", err)
	}
	return &PostgresCheckpointer{db: db}, nil
}

// Close releases the underlying database connection.
func (c *PostgresCheckpointer) Close() error {
	return c.db.Close()
}

func (c *PostgresCheckpointer) SaveCheckpoint(ctx context.Context, checkpoint *Checkpoint) error {
	data, err := json.Marshal(checkpoint)
	if err != nil {
		return fmt.Errorf("failed to marshal checkpoint: %w", err)
	}
	_, err = c.db.ExecContext(ctx,
		`INSERT INTO workflow_checkpoints (execution_id, checkpoint_id, data, created_at)
		 VALUES ($1, $2, $3, $4)
		 ON CONFLICT (execution_id, checkpoint_id) DO UPDATE SET data = EXCLUDED.data`,
		checkpoint.ExecutionID, checkpoint.ID, data, checkpoint.CheckpointAt)
	if err != nil {
		return fmt.Errorf("failed to insert checkpoint: %w", err)
	}
	return nil
}

func (c *PostgresCheckpointer) LoadCheckpoint(ctx context.Context, executionID string) (*Checkpoint, error) {
	var data []byte
	err := c.db.QueryRowContext(ctx,
		`SELECT data FROM workflow_checkpoints
		 WHERE execution_id = $1
		 ORDER BY created_at DESC, checkpoint_id DESC LIMIT 1`, executionID).Scan(&data)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("failed to load checkpoint: %w", err)
	}
	var checkpoint Checkpoint
	if err := json.Unmarshal(data, &checkpoint); err != nil {
		return nil, fmt.Errorf("failed to unmarshal checkpoint: %w", err)
	}
	return &checkpoint, nil
}

func (c *PostgresCheckpointer) DeleteCheckpoint(ctx context.Context, executionID string) error {
	if _, err := c.db.ExecContext(ctx,
		`DELETE FROM workflow_checkpoints WHERE execution_id = $1`, executionID); err != nil {
		return fmt.Errorf("failed to delete checkpoints: %w", err)
	}
	return nil
}
