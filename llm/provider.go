// Package llm provides a provider-agnostic interface for Large Language
// Model invocations with tool calling and token usage reporting.
package llm

import (
	"context"
)

// Provider defines the interface that all LLM providers must implement.
type Provider interface {
	// Name returns the unique identifier for this provider (e.g., "anthropic").
	Name() string

	// Complete sends a synchronous completion request and returns the full
	// response. This method blocks until the LLM response is complete.
	Complete(ctx context.Context, req CompletionRequest) (*CompletionResponse, error)
}

// CompletionRequest contains all parameters for an LLM completion request.
type CompletionRequest struct {
	// System is the system prompt, if any.
	System string

	// Messages is the conversation history including the current prompt.
	Messages []Message

	// Model specifies which model to use.
	Model string

	// Temperature controls randomness. Nil uses the provider default.
	Temperature *float64

	// MaxTokens limits the response length. Zero uses the provider default.
	MaxTokens int

	// Tools defines available functions the model can call.
	Tools []Tool

	// Metadata contains request tracking information (correlation IDs, etc).
	Metadata map[string]string
}

// CompletionResponse is the provider's full reply to a completion request.
type CompletionResponse struct {
	// Content is the assistant's text output. Empty when the turn consists
	// only of tool calls.
	Content string

	// ToolCalls contains the tool invocations requested by this turn.
	ToolCalls []ToolCall

	// StopReason indicates why generation ended (end_turn, tool_use, ...).
	StopReason string

	// Model is the model that produced the response.
	Model string

	// RequestID is the correlation ID assigned to the request.
	RequestID string

	// Usage contains token consumption information.
	Usage TokenUsage
}

// MessageRole identifies the sender of a message.
type MessageRole string

const (
	RoleUser      MessageRole = "user"
	RoleAssistant MessageRole = "assistant"
	RoleTool      MessageRole = "tool"
)

// Message represents a single message in a conversation.
type Message struct {
	// Role indicates who sent this message.
	Role MessageRole

	// Content is the text content of the message.
	Content string

	// ToolCalls contains tool invocations made by the assistant.
	// Only valid when Role is RoleAssistant.
	ToolCalls []ToolCall

	// ToolCallID links this message to a specific tool call.
	// Only valid when Role is RoleTool.
	ToolCallID string

	// IsError marks a tool result as an error the model should correct.
	IsError bool
}

// ToolCall represents a function invocation by the LLM.
type ToolCall struct {
	// ID uniquely identifies this tool call within a completion.
	ID string

	// Name is the function name to invoke.
	Name string

	// Arguments contains the JSON-encoded function parameters.
	Arguments string
}

// Tool defines a function the LLM can invoke.
type Tool struct {
	// Name is the function identifier.
	Name string

	// Description explains when the model should use the tool.
	Description string

	// InputSchema is a JSON Schema object describing the parameters.
	InputSchema map[string]any
}

// TokenUsage reports token consumption for one request.
type TokenUsage struct {
	PromptTokens     int `json:"prompt_tokens"`
	CompletionTokens int `json:"completion_tokens"`
	TotalTokens      int `json:"total_tokens"`
}

// HasToolCalls reports whether the response requests any tool invocations.
func (r *CompletionResponse) HasToolCalls() bool {
	return len(r.ToolCalls) > 0
}
