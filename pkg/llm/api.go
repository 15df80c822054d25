// Package llm provides interfaces and types for model provider implementations.
package llm

import (
	"context"

	"agentcore/pkg/tools"
)

// CompletionRole represents the role of a message in a conversation.
type CompletionRole string

const (
	// RoleSystem indicates a system message that provides instructions or context.
	RoleSystem CompletionRole = "system"
	// RoleUser indicates a message from the human user.
	RoleUser CompletionRole = "user"
	// RoleAssistant indicates a message from the AI assistant.
	RoleAssistant CompletionRole = "assistant"
)

const (
	// TemperatureDefault is the default temperature for planning, reviews, and
	// judgment tasks.
	TemperatureDefault = 0.3

	// MaxTokensDefault is the default completion budget per request.
	MaxTokensDefault = 4096
)

// ToolCall represents a tool call made by the model. Arguments is the raw
// JSON string exactly as the provider returned it; parsing is the caller's
// responsibility so malformed arguments can be recovered as failed results.
type ToolCall struct {
	ID        string `json:"id"`
	Name      string `json:"name"`
	Arguments string `json:"arguments"`
}

// ToolResultMessage pairs a tool execution outcome with its originating call.
type ToolResultMessage struct {
	ToolCallID string `json:"tool_call_id"`
	Content    string `json:"content"`
	IsError    bool   `json:"is_error"`
}

// CompletionMessage represents a message in a completion request. Assistant
// messages may carry tool calls; user messages may carry tool results. The
// call/result pairing must stay ordered for the underlying chat protocols.
type CompletionMessage struct {
	Content     string
	ToolCalls   []ToolCall
	ToolResults []ToolResultMessage
	Role        CompletionRole
}

// CompletionRequest represents a request to generate a completion. Model may
// override the client's bound default for routing purposes.
type CompletionRequest struct {
	Messages    []CompletionMessage
	Tools       []tools.ToolDefinition
	Model       string
	MaxTokens   int
	Temperature float32
}

// Usage carries the provider-reported token accounting for one completion.
type Usage struct {
	PromptTokens     int `json:"prompt_tokens"`
	CompletionTokens int `json:"completion_tokens"`
}

// Total returns the combined prompt and completion token count.
func (u Usage) Total() int {
	return u.PromptTokens + u.CompletionTokens
}

// CompletionResponse represents a response from a completion request.
type CompletionResponse struct {
	ToolCalls  []ToolCall
	Content    string
	StopReason string
	Model      string
	Usage      Usage
}

// HasToolCalls reports whether the model requested tool execution.
func (r *CompletionResponse) HasToolCalls() bool {
	return len(r.ToolCalls) > 0
}

// LLMClient defines the interface for model provider interactions.
type LLMClient interface {
	// Complete generates a completion synchronously.
	Complete(ctx context.Context, in CompletionRequest) (CompletionResponse, error)

	// GetModelName returns the default model name for this client.
	GetModelName() string
}

// NewSystemMessage creates a new system message.
func NewSystemMessage(content string) CompletionMessage {
	return CompletionMessage{Role: RoleSystem, Content: content}
}

// NewUserMessage creates a new user message.
func NewUserMessage(content string) CompletionMessage {
	return CompletionMessage{Role: RoleUser, Content: content}
}

// NewAssistantMessage creates a new assistant message.
func NewAssistantMessage(content string) CompletionMessage {
	return CompletionMessage{Role: RoleAssistant, Content: content}
}
