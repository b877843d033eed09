package llm

import (
	"context"
	"time"

	"github.com/leonzzz435/garmin-ai-coach/workflow/retry"
)

// RetryingProvider wraps a provider with exponential backoff retries for
// transient failures (rate limits, overload, server errors). Non-recoverable
// errors are returned immediately.
type RetryingProvider struct {
	provider   Provider
	maxRetries int
	baseWait   time.Duration
}

// NewRetryingProvider wraps provider with up to maxRetries retries.
func NewRetryingProvider(provider Provider, maxRetries int, baseWait time.Duration) *RetryingProvider {
	if baseWait <= 0 {
		baseWait = 500 * time.Millisecond
	}
	return &RetryingProvider{
		provider:   provider,
		maxRetries: maxRetries,
		baseWait:   baseWait,
	}
}

func (r *RetryingProvider) Name() string {
	return r.provider.Name()
}

func (r *RetryingProvider) Complete(ctx context.Context, req CompletionRequest) (*CompletionResponse, error) {
	var resp *CompletionResponse
	err := retry.Do(ctx, func() error {
		var completeErr error
		resp, completeErr = r.provider.Complete(ctx, req)
		return completeErr
	}, retry.WithMaxRetries(r.maxRetries), retry.WithBaseWait(r.baseWait))
	if err != nil {
		return nil, err
	}
	return resp, nil
}
