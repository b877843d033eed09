package workflow

import (
	"context"
)

// Checkpointer persists execution snapshots. No automatic expiration is
// applied; callers decide when to delete checkpoint data.
type Checkpointer interface {
	// SaveCheckpoint saves the current execution state
	SaveCheckpoint(ctx context.Context, checkpoint *Checkpoint) error

	// LoadCheckpoint loads the latest checkpoint for an execution.
	// A nil checkpoint with a nil error means none exists.
	LoadCheckpoint(ctx context.Context, executionID string) (*Checkpoint, error)

	// DeleteCheckpoint removes checkpoint data for an execution
	DeleteCheckpoint(ctx context.Context, executionID string) error
}
