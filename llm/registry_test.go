package llm

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type stubProvider struct {
	name     string
	complete func(ctx context.Context, req CompletionRequest) (*CompletionResponse, error)
}

func (s *stubProvider) Name() string { return s.name }

func (s *stubProvider) Complete(ctx context.Context, req CompletionRequest) (*CompletionResponse, error) {
	return s.complete(ctx, req)
}

func TestRegistry(t *testing.T) {
	registry := NewRegistry()
	registry.Register(&stubProvider{name: "anthropic"})
	registry.Register(&stubProvider{name: "openai"})

	provider, err := registry.Get("anthropic")
	require.NoError(t, err)
	assert.Equal(t, "anthropic", provider.Name())

	assert.Equal(t, []string{"anthropic", "openai"}, registry.Names())

	_, err = registry.Get("ollama")
	require.Error(t, err)
	assert.Contains(t, err.Error(), `unknown provider "ollama"`)
}
