// Package openai provides the OpenAI adapter for the LLMClient interface,
// using the Responses API.
package openai

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/openai/openai-go"
	"github.com/openai/openai-go/option"
	"github.com/openai/openai-go/responses"

	"agentcore/pkg/llm"
	"agentcore/pkg/llm/llmerrors"
	"agentcore/pkg/tools"
)

// Client wraps the official OpenAI Go client to implement llm.LLMClient.
type Client struct {
	client openai.Client
	model  string
}

// NewClient creates an OpenAI client bound to the given model.
func NewClient(apiKey, model string) *Client {
	return &Client{
		client: openai.NewClient(option.WithAPIKey(apiKey)),
		model:  model,
	}
}

// GetModelName returns the default model name for this client.
func (c *Client) GetModelName() string {
	return c.model
}

// convertPropertyToSchema recursively converts a Property to OpenAI schema format.
func convertPropertyToSchema(prop *tools.Property) map[string]any {
	schema := map[string]any{
		"type":        prop.Type,
		"description": prop.Description,
	}
	if len(prop.Enum) > 0 {
		schema["enum"] = prop.Enum
	}
	if prop.Type == "array" && prop.Items != nil {
		schema["items"] = convertPropertyToSchema(prop.Items)
	}
	if prop.Type == "object" && prop.Properties != nil {
		properties := make(map[string]any)
		for name, child := range prop.Properties {
			if child != nil {
				properties[name] = convertPropertyToSchema(child)
			}
		}
		schema["properties"] = properties
	}
	return schema
}

// flattenMessages renders the conversation as a single input string for the
// Responses API, tool calls and results included.
func flattenMessages(messages []llm.CompletionMessage) string {
	var b strings.Builder
	for i := range messages {
		msg := &messages[i]
		switch msg.Role {
		case llm.RoleSystem:
			fmt.Fprintf(&b, "System: %s\n\n", msg.Content)
		case llm.RoleAssistant:
			if msg.Content != "" {
				fmt.Fprintf(&b, "Assistant: %s\n\n", msg.Content)
			}
			for j := range msg.ToolCalls {
				tc := &msg.ToolCalls[j]
				fmt.Fprintf(&b, "Assistant called tool %s (%s) with arguments: %s\n\n", tc.Name, tc.ID, tc.Arguments)
			}
		case llm.RoleUser:
			for j := range msg.ToolResults {
				tr := &msg.ToolResults[j]
				status := "succeeded"
				if tr.IsError {
					status = "failed"
				}
				fmt.Fprintf(&b, "Tool call %s %s with output: %s\n\n", tr.ToolCallID, status, tr.Content)
			}
			if msg.Content != "" {
				fmt.Fprintf(&b, "%s\n\n", msg.Content)
			}
		}
	}
	return strings.TrimSpace(b.String())
}

// Complete implements the llm.LLMClient interface.
func (c *Client) Complete(ctx context.Context, in llm.CompletionRequest) (llm.CompletionResponse, error) {
	model := c.model
	if in.Model != "" {
		model = in.Model
	}
	params := responses.ResponseNewParams{
		Model:           model,
		MaxOutputTokens: openai.Int(int64(in.MaxTokens)),
		Temperature:     openai.Float(float64(in.Temperature)),
		Input:           responses.ResponseNewParamsInputUnion{OfString: openai.String(flattenMessages(in.Messages))},
	}

	if len(in.Tools) > 0 {
		toolParams := make([]responses.ToolUnionParam, len(in.Tools))
		for i := range in.Tools {
			tool := &in.Tools[i]
			properties := make(map[string]any)
			for name := range tool.InputSchema.Properties {
				prop := tool.InputSchema.Properties[name]
				properties[name] = convertPropertyToSchema(&prop)
			}
			toolParams[i] = responses.ToolUnionParam{
				OfFunction: &responses.FunctionToolParam{
					Name:        tool.Name,
					Description: openai.String(tool.Description),
					Parameters: openai.FunctionParameters(map[string]any{
						"type":       "object",
						"properties": properties,
						"required":   tool.InputSchema.Required,
					}),
				},
			}
		}
		params.Tools = toolParams
	}

	resp, err := c.client.Responses.New(ctx, params)
	if err != nil {
		return llm.CompletionResponse{}, classifyError(err)
	}
	if resp == nil {
		return llm.CompletionResponse{}, llmerrors.NewError(llmerrors.ErrorTypeEmptyResponse, "empty response from OpenAI Responses API")
	}

	var toolCalls []llm.ToolCall
	for i := range resp.Output {
		item := &resp.Output[i]
		if item.Type != "function_call" {
			continue
		}
		fc := item.AsFunctionCall()
		id := fc.CallID
		if id == "" {
			id = fc.ID
		}
		toolCalls = append(toolCalls, llm.ToolCall{
			ID:        id,
			Name:      fc.Name,
			Arguments: fc.Arguments,
		})
	}

	return llm.CompletionResponse{
		Content:   resp.OutputText(),
		ToolCalls: toolCalls,
		Model:     resp.Model,
		Usage: llm.Usage{
			PromptTokens:     int(resp.Usage.InputTokens),
			CompletionTokens: int(resp.Usage.OutputTokens),
		},
	}, nil
}

// classifyError maps OpenAI SDK errors to structured error types.
func classifyError(err error) *llmerrors.Error {
	if errors.Is(err, context.DeadlineExceeded) {
		return llmerrors.NewErrorWithCause(llmerrors.ErrorTypeTransient, err, "request timeout")
	}
	if errors.Is(err, context.Canceled) {
		return llmerrors.NewErrorWithCause(llmerrors.ErrorTypeTransient, err, "request canceled")
	}

	var apiErr *openai.Error
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

	return llmerrors.NewErrorWithCause(llmerrors.ErrorTypeUnknown, err, "unclassified API error")
}
