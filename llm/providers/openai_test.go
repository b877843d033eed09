package providers

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/leonzzz435/garmin-ai-coach/llm"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newTestOpenAIProvider(t *testing.T, handler http.HandlerFunc) *OpenAIProvider {
	t.Helper()
	server := httptest.NewServer(handler)
	t.Cleanup(server.Close)

	provider, err := NewOpenAIProvider("test-key")
	require.NoError(t, err)
	provider.baseURL = server.URL
	return provider
}

func TestOpenAIComplete(t *testing.T) {
	var gotReq openaiRequest
	provider := newTestOpenAIProvider(t, func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "/chat/completions", r.URL.Path)
		assert.Equal(t, "Bearer test-key", r.Header.Get("Authorization"))
		require.NoError(t, json.NewDecoder(r.Body).Decode(&gotReq))

		json.NewEncoder(w).Encode(map[string]any{
			"id":    "chatcmpl-01",
			"model": "gpt-4o",
			"choices": []map[string]any{{
				"index":         0,
				"message":       map[string]any{"role": "assistant", "content": "Recovery day recommended."},
				"finish_reason": "stop",
			}},
			"usage": map[string]int{"prompt_tokens": 80, "completion_tokens": 20, "total_tokens": 100},
		})
	})

	resp, err := provider.Complete(context.Background(), llm.CompletionRequest{
		System:   "You are a recovery specialist.",
		Model:    "gpt-4o",
		Messages: []llm.Message{{Role: llm.RoleUser, Content: "How is my HRV?"}},
	})
	require.NoError(t, err)

	assert.Equal(t, "Recovery day recommended.", resp.Content)
	assert.Equal(t, "stop", resp.StopReason)
	assert.Equal(t, 100, resp.Usage.TotalTokens)

	// System prompt becomes the first chat message.
	require.NotEmpty(t, gotReq.Messages)
	assert.Equal(t, "system", gotReq.Messages[0].Role)
	assert.Equal(t, "You are a recovery specialist.", gotReq.Messages[0].Content)
}

func TestOpenAICompleteToolCalls(t *testing.T) {
	provider := newTestOpenAIProvider(t, func(w http.ResponseWriter, r *http.Request) {
		json.NewEncoder(w).Encode(map[string]any{
			"id":    "chatcmpl-02",
			"model": "gpt-4o",
			"choices": []map[string]any{{
				"index": 0,
				"message": map[string]any{
					"role":    "assistant",
					"content": "",
					"tool_calls": []map[string]any{{
						"id":   "call_01",
						"type": "function",
						"function": map[string]any{
							"name":      "ask_user",
							"arguments": `{"question":"Any injuries this week?"}`,
						},
					}},
				},
				"finish_reason": "tool_calls",
			}},
			"usage": map[string]int{"prompt_tokens": 50, "completion_tokens": 15, "total_tokens": 65},
		})
	})

	resp, err := provider.Complete(context.Background(), llm.CompletionRequest{
		Model:    "gpt-4o",
		Messages: []llm.Message{{Role: llm.RoleUser, Content: "Plan my week."}},
	})
	require.NoError(t, err)

	require.Len(t, resp.ToolCalls, 1)
	assert.Equal(t, "call_01", resp.ToolCalls[0].ID)
	assert.Equal(t, "ask_user", resp.ToolCalls[0].Name)
	assert.Equal(t, "tool_calls", resp.StopReason)
}

func TestOpenAICompleteAPIError(t *testing.T) {
	provider := newTestOpenAIProvider(t, func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusUnauthorized)
		json.NewEncoder(w).Encode(map[string]any{
			"error": map[string]any{
				"message": "Incorrect API key provided",
				"type":    "invalid_request_error",
			},
		})
	})

	_, err := provider.Complete(context.Background(), llm.CompletionRequest{
		Model:    "gpt-4o",
		Messages: []llm.Message{{Role: llm.RoleUser, Content: "hi"}},
	})
	require.Error(t, err)

	var provErr *llm.ProviderError
	require.ErrorAs(t, err, &provErr)
	assert.Equal(t, http.StatusUnauthorized, provErr.StatusCode)
	assert.False(t, provErr.IsRecoverable())
}

func TestOpenAICompleteEmptyChoices(t *testing.T) {
	provider := newTestOpenAIProvider(t, func(w http.ResponseWriter, r *http.Request) {
		json.NewEncoder(w).Encode(map[string]any{"id": "chatcmpl-03", "model": "gpt-4o", "choices": []any{}})
	})

	_, err := provider.Complete(context.Background(), llm.CompletionRequest{
		Model:    "gpt-4o",
		Messages: []llm.Message{{Role: llm.RoleUser, Content: "hi"}},
	})
	require.Error(t, err)
	assert.Contains(t, err.Error(), "no choices")
}

func TestOpenRouterProviderName(t *testing.T) {
	provider, err := NewOpenRouterProvider("test-key")
	require.NoError(t, err)
	assert.Equal(t, "openrouter", provider.Name())
	assert.Equal(t, openrouterAPIBaseURL, provider.baseURL)
}
