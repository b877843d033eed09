package workflow

import "context"

// NullCheckpointer discards every checkpoint. Suspended or failed runs
// backed by it cannot be resumed, so it suits tests and fire-and-forget
// executions only.
type NullCheckpointer struct{}

func NewNullCheckpointer() *NullCheckpointer {
	return &NullCheckpointer{}
}

func (c *NullCheckpointer) SaveCheckpoint(_ context.Context, _ *Checkpoint) error {
	return nil
}

// LoadCheckpoint always reports no checkpoint found.
func (c *NullCheckpointer) LoadCheckpoint(_ context.Context, _ string) (*Checkpoint, error) {
	return nil, nil
}

func (c *NullCheckpointer) DeleteCheckpoint(_ context.Context, _ string) error {
	return nil
}
