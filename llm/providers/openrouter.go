package providers

import (
	"fmt"
	"net/http"
)

const openrouterAPIBaseURL = "https://openrouter.ai/api/v1"

// NewOpenRouterProvider creates a provider that talks to OpenRouter's
// OpenAI-compatible API. Model IDs are provider-prefixed
// ("deepseek/deepseek-chat").
func NewOpenRouterProvider(apiKey string) (*OpenAIProvider, error) {
	if apiKey == "" {
		return nil, fmt.Errorf("openrouter: API key is required")
	}
	return &OpenAIProvider{
		name:       "openrouter",
		apiKey:     apiKey,
		baseURL:    openrouterAPIBaseURL,
		httpClient: &http.Client{Timeout: defaultHTTPTimeout},
	}, nil
}
