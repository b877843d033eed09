package providers

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/leonzzz435/garmin-ai-coach/llm"
)

func TestRegisterFromEnv(t *testing.T) {
	t.Setenv(EnvAnthropicAPIKey, "key-a")
	t.Setenv(EnvOpenAIAPIKey, "")
	t.Setenv(EnvOpenRouterAPIKey, "")

	registry, err := RegisterFromEnv()
	require.NoError(t, err)
	assert.Equal(t, []string{"anthropic"}, registry.Names())

	provider, err := registry.Get("anthropic")
	require.NoError(t, err)
	assert.IsType(t, &llm.RetryingProvider{}, provider)
}

func TestRegisterFromEnvNoKeys(t *testing.T) {
	t.Setenv(EnvAnthropicAPIKey, "")
	t.Setenv(EnvOpenAIAPIKey, "")
	t.Setenv(EnvOpenRouterAPIKey, "")

	registry, err := RegisterFromEnv()
	require.NoError(t, err)
	assert.Empty(t, registry.Names())
}
