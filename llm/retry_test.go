package llm

import (
	"context"
	"net/http"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestRetryingProviderRetriesRateLimits(t *testing.T) {
	var calls int
	flaky := &stubProvider{
		name: "anthropic",
		complete: func(ctx context.Context, req CompletionRequest) (*CompletionResponse, error) {
			calls++
			if calls < 3 {
				return nil, &ProviderError{
					Provider:   "anthropic",
					StatusCode: http.StatusTooManyRequests,
					Message:    "rate limit exceeded",
				}
			}
			return &CompletionResponse{Content: "ok"}, nil
		},
	}

	wrapped := NewRetryingProvider(flaky, 3, time.Millisecond)
	resp, err := wrapped.Complete(context.Background(), CompletionRequest{
		Messages: []Message{{Role: RoleUser, Content: "hi"}},
	})
	require.NoError(t, err)
	assert.Equal(t, "ok", resp.Content)
	assert.Equal(t, 3, calls)
}

func TestRetryingProviderStopsOnAuthError(t *testing.T) {
	var calls int
	unauthorized := &stubProvider{
		name: "openai",
		complete: func(ctx context.Context, req CompletionRequest) (*CompletionResponse, error) {
			calls++
			return nil, &ProviderError{
				Provider:   "openai",
				StatusCode: http.StatusUnauthorized,
				Message:    "invalid api key",
			}
		},
	}

	wrapped := NewRetryingProvider(unauthorized, 3, time.Millisecond)
	_, err := wrapped.Complete(context.Background(), CompletionRequest{
		Messages: []Message{{Role: RoleUser, Content: "hi"}},
	})
	require.Error(t, err)
	assert.Equal(t, 1, calls)
}

func TestProviderErrorRecoverability(t *testing.T) {
	tests := []struct {
		name        string
		statusCode  int
		recoverable bool
	}{
		{"rate limited", http.StatusTooManyRequests, true},
		{"server error", http.StatusInternalServerError, true},
		{"overloaded", http.StatusServiceUnavailable, true},
		{"transport failure", 0, true},
		{"unauthorized", http.StatusUnauthorized, false},
		{"bad request", http.StatusBadRequest, false},
		{"not found", http.StatusNotFound, false},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := &ProviderError{Provider: "test", StatusCode: tt.statusCode, Message: "boom"}
			assert.Equal(t, tt.recoverable, err.IsRecoverable())
		})
	}
}
