// Package anthropic provides the Anthropic Claude adapter for the LLMClient
// interface.
package anthropic

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"strings"

	"github.com/anthropics/anthropic-sdk-go"
	"github.com/anthropics/anthropic-sdk-go/option"

	"agentcore/pkg/llm"
	"agentcore/pkg/llm/llmerrors"
)

// Client wraps the Anthropic API client to implement llm.LLMClient.
type Client struct {
	client anthropic.Client
	model  anthropic.Model
}

// NewClient creates a Claude client bound to the given model.
func NewClient(apiKey, model string) *Client {
	return &Client{
		client: anthropic.NewClient(option.WithAPIKey(apiKey)),
		model:  anthropic.Model(model),
	}
}

// GetModelName returns the default model name for this client.
func (c *Client) GetModelName() string {
	return string(c.model)
}

// Complete implements the llm.LLMClient interface.
func (c *Client) Complete(ctx context.Context, in llm.CompletionRequest) (llm.CompletionResponse, error) {
	systemPrompt, messages, err := convertMessages(in.Messages)
	if err != nil {
		return llm.CompletionResponse{}, llmerrors.NewError(llmerrors.ErrorTypeBadPrompt, fmt.Sprintf("message conversion error: %v", err))
	}

	model := c.model
	if in.Model != "" {
		model = anthropic.Model(in.Model)
	}
	params := anthropic.MessageNewParams{
		Model:       model,
		Messages:    messages,
		MaxTokens:   int64(in.MaxTokens),
		Temperature: anthropic.Float(float64(in.Temperature)),
	}
	if systemPrompt != "" {
		params.System = []anthropic.TextBlockParam{{
			Text: systemPrompt,
			Type: "text",
		}}
	}
	if len(in.Tools) > 0 {
		toolParams := make([]anthropic.ToolUnionParam, 0, len(in.Tools))
		for i := range in.Tools {
			tool := &in.Tools[i]
			var properties any
			if len(tool.InputSchema.Properties) > 0 {
				props := make(map[string]any)
				for name := range tool.InputSchema.Properties {
					prop := tool.InputSchema.Properties[name]
					propMap := map[string]any{"type": prop.Type}
					if prop.Description != "" {
						propMap["description"] = prop.Description
					}
					if len(prop.Enum) > 0 {
						propMap["enum"] = prop.Enum
					}
					props[name] = propMap
				}
				properties = props
			}
			schema := anthropic.ToolInputSchemaParam{
				Type:       "object",
				Properties: properties,
				Required:   tool.InputSchema.Required,
			}
			toolParams = append(toolParams, anthropic.ToolUnionParamOfTool(schema, tool.Name))
		}
		params.Tools = toolParams
		params.ToolChoice = anthropic.ToolChoiceUnionParam{
			OfAuto: &anthropic.ToolChoiceAutoParam{},
		}
	}

	resp, err := c.client.Messages.New(ctx, params)
	if err != nil {
		return llm.CompletionResponse{}, classifyError(err)
	}
	if resp == nil || len(resp.Content) == 0 {
		return llm.CompletionResponse{}, llmerrors.NewError(llmerrors.ErrorTypeEmptyResponse, "received empty or nil response from Claude API")
	}

	var responseText string
	var toolCalls []llm.ToolCall
	for i := range resp.Content {
		block := &resp.Content[i]
		switch block.Type {
		case "text":
			responseText += block.AsText().Text
		case "tool_use":
			toolUse := block.AsToolUse()
			toolCalls = append(toolCalls, llm.ToolCall{
				ID:        toolUse.ID,
				Name:      toolUse.Name,
				Arguments: string(toolUse.Input),
			})
		}
	}

	return llm.CompletionResponse{
		Content:    responseText,
		ToolCalls:  toolCalls,
		StopReason: string(resp.StopReason),
		Model:      string(resp.Model),
		Usage: llm.Usage{
			PromptTokens:     int(resp.Usage.InputTokens),
			CompletionTokens: int(resp.Usage.OutputTokens),
		},
	}, nil
}

// convertMessages extracts the system prompt, converts tool calls and results
// to content blocks, and merges consecutive same-role messages so the strict
// user/assistant alternation the API requires always holds.
func convertMessages(messages []llm.CompletionMessage) (string, []anthropic.MessageParam, error) {
	if len(messages) == 0 {
		return "", nil, fmt.Errorf("message list cannot be empty")
	}

	var systemParts []string
	var converted []anthropic.MessageParam

	for i := range messages {
		msg := &messages[i]
		if msg.Role == llm.RoleSystem {
			systemParts = append(systemParts, msg.Content)
			continue
		}

		var blocks []anthropic.ContentBlockParamUnion
		if msg.Role == llm.RoleUser {
			for j := range msg.ToolResults {
				tr := &msg.ToolResults[j]
				blocks = append(blocks, anthropic.ContentBlockParamUnion{
					OfToolResult: &anthropic.ToolResultBlockParam{
						ToolUseID: tr.ToolCallID,
						IsError:   anthropic.Bool(tr.IsError),
						Content: []anthropic.ToolResultBlockParamContentUnion{
							{OfText: &anthropic.TextBlockParam{Text: tr.Content, Type: "text"}},
						},
					},
				})
			}
		}
		if msg.Content != "" {
			blocks = append(blocks, anthropic.NewTextBlock(msg.Content))
		}
		if msg.Role == llm.RoleAssistant {
			for j := range msg.ToolCalls {
				tc := &msg.ToolCalls[j]
				blocks = append(blocks, anthropic.ContentBlockParamUnion{
					OfToolUse: &anthropic.ToolUseBlockParam{
						ID:    tc.ID,
						Name:  tc.Name,
						Input: json.RawMessage(tc.Arguments),
					},
				})
			}
		}
		if len(blocks) == 0 {
			continue
		}

		role := anthropic.MessageParamRoleUser
		if msg.Role == llm.RoleAssistant {
			role = anthropic.MessageParamRoleAssistant
		}

		// Merge into the previous message when roles repeat.
		if n := len(converted); n > 0 && converted[n-1].Role == role {
			converted[n-1].Content = append(converted[n-1].Content, blocks...)
			continue
		}
		converted = append(converted, anthropic.MessageParam{Role: role, Content: blocks})
	}

	if len(converted) == 0 {
		return "", nil, fmt.Errorf("must have at least one non-system message")
	}
	if converted[0].Role != anthropic.MessageParamRoleUser {
		return "", nil, fmt.Errorf("first message must be user role")
	}
	if converted[len(converted)-1].Role != anthropic.MessageParamRoleUser {
		return "", nil, fmt.Errorf("last message must be user role")
	}

	return strings.Join(systemParts, "\n\n"), converted, nil
}

// classifyError maps Anthropic SDK errors to structured error types.
func classifyError(err error) *llmerrors.Error {
	if errors.Is(err, context.DeadlineExceeded) {
		return llmerrors.NewErrorWithCause(llmerrors.ErrorTypeTransient, err, "request timeout")
	}
	if errors.Is(err, context.Canceled) {
		return llmerrors.NewErrorWithCause(llmerrors.ErrorTypeTransient, err, "request canceled")
	}

	var apiErr *anthropic.Error
	if errors.As(err, &apiErr) {
		switch {
		case apiErr.StatusCode == 429:
			return llmerrors.NewErrorWithStatus(llmerrors.ErrorTypeRateLimit, apiErr.StatusCode, apiErr.Error())
		case apiErr.StatusCode == 401 || apiErr.StatusCode == 403:
			return llmerrors.NewErrorWithStatus(llmerrors.ErrorTypeAuth, apiErr.StatusCode, apiErr.Error())
		case apiErr.StatusCode == 400 || apiErr.StatusCode == 413 || apiErr.StatusCode == 422:
			return llmerrors.NewErrorWithStatus(llmerrors.ErrorTypeBadPrompt, apiErr.StatusCode, apiErr.Error())
		case apiErr.StatusCode >= 500:
			return llmerrors.NewErrorWithStatus(llmerrors.ErrorTypeTransient, apiErr.StatusCode, apiErr.Error())
		}
	}

	errStr := strings.ToLower(err.Error())
	switch {
	case strings.Contains(errStr, "rate limit") || strings.Contains(errStr, "overloaded"):
		return llmerrors.NewErrorWithCause(llmerrors.ErrorTypeRateLimit, err, "rate limited")
	case strings.Contains(errStr, "connection") || strings.Contains(errStr, "eof") || strings.Contains(errStr, "timeout"):
		return llmerrors.NewErrorWithCause(llmerrors.ErrorTypeTransient, err, "transient network failure")
	default:
		return llmerrors.NewErrorWithCause(llmerrors.ErrorTypeUnknown, err, "unclassified API error")
	}
}
