package providers

import (
	"fmt"
	"os"
	"time"

	"github.com/leonzzz435/garmin-ai-coach/llm"
)

// Environment variables holding provider API keys.
const (
	EnvAnthropicAPIKey  = "ANTHROPIC_API_KEY"
	EnvOpenAIAPIKey     = "OPENAI_API_KEY"
	EnvOpenRouterAPIKey = "OPENROUTER_API_KEY"
)

// Provider-level retries absorb rate limits and brief outages; node-level
// retry policies handle anything longer.
const (
	providerMaxRetries = 2
	providerBaseWait   = time.Second
)

// RegisterFromEnv builds a registry from whichever provider API keys are set
// in the environment. Each provider is wrapped with backoff retries for
// transient failures. Missing keys are skipped silently; model selection
// fails later with a clear error if a required provider is absent.
func RegisterFromEnv() (*llm.Registry, error) {
	registry := llm.NewRegistry()

	if key := os.Getenv(EnvAnthropicAPIKey); key != "" {
		provider, err := NewAnthropicProvider(key)
		if err != nil {
			return nil, fmt.Errorf("failed to configure anthropic provider: %w", err)
		}
		registry.Register(llm.NewRetryingProvider(provider, providerMaxRetries, providerBaseWait))
	}
	if key := os.Getenv(EnvOpenAIAPIKey); key != "" {
		provider, err := NewOpenAIProvider(key)
		if err != nil {
			return nil, fmt.Errorf("failed to configure openai provider: %w", err)
		}
		registry.Register(llm.NewRetryingProvider(provider, providerMaxRetries, providerBaseWait))
	}
	if key := os.Getenv(EnvOpenRouterAPIKey); key != "" {
		provider, err := NewOpenRouterProvider(key)
		if err != nil {
			return nil, fmt.Errorf("failed to configure openrouter provider: %w", err)
		}
		registry.Register(llm.NewRetryingProvider(provider, providerMaxRetries, providerBaseWait))
	}

	return registry, nil
}
