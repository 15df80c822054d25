// Package google provides the Google Gemini adapter for the LLMClient
// interface.
package google

import (
	"context"
	"encoding/json"
	"fmt"

	"google.golang.org/genai"

	"agentcore/pkg/llm"
	"agentcore/pkg/llm/llmerrors"
	"agentcore/pkg/tools"
)

// Client wraps the Google GenAI client to implement llm.LLMClient.
type Client struct {
	client *genai.Client
	apiKey string
	model  string
}

// NewClient creates a Gemini client bound to the given model. The underlying
// SDK client needs a context, so it is created lazily on first use.
func NewClient(apiKey, model string) *Client {
	return &Client{
		apiKey: apiKey,
		model:  model,
	}
}

// GetModelName returns the default model name for this client.
func (g *Client) GetModelName() string {
	return g.model
}

// Complete implements the llm.LLMClient interface.
func (g *Client) Complete(ctx context.Context, in llm.CompletionRequest) (llm.CompletionResponse, error) {
	if g.client == nil {
		client, err := genai.NewClient(ctx, &genai.ClientConfig{
			APIKey:  g.apiKey,
			Backend: genai.BackendGeminiAPI,
		})
		if err != nil {
			return llm.CompletionResponse{}, llmerrors.NewErrorWithCause(llmerrors.ErrorTypeAuth, err, "failed to create Gemini client")
		}
		g.client = client
	}

	contents, systemInstruction, err := convertMessages(in.Messages)
	if err != nil {
		return llm.CompletionResponse{}, llmerrors.NewError(llmerrors.ErrorTypeBadPrompt, fmt.Sprintf("message conversion error: %v", err))
	}

	temperature := in.Temperature
	config := &genai.GenerateContentConfig{
		Temperature:     &temperature,
		MaxOutputTokens: int32(in.MaxTokens),
	}
	if systemInstruction != "" {
		config.SystemInstruction = &genai.Content{
			Parts: []*genai.Part{{Text: systemInstruction}},
		}
	}
	if len(in.Tools) > 0 {
		config.Tools = []*genai.Tool{
			{FunctionDeclarations: convertTools(in.Tools)},
		}
	}

	model := g.model
	if in.Model != "" {
		model = in.Model
	}
	result, err := g.client.Models.GenerateContent(ctx, model, contents, config)
	if err != nil {
		return llm.CompletionResponse{}, llmerrors.NewErrorWithCause(llmerrors.ErrorTypeUnknown, err, "Gemini API call failed")
	}
	if result == nil || len(result.Candidates) == 0 {
		return llm.CompletionResponse{}, llmerrors.NewError(llmerrors.ErrorTypeEmptyResponse, "empty response from Gemini API")
	}

	response := llm.CompletionResponse{
		Content:    result.Text(),
		StopReason: string(result.Candidates[0].FinishReason),
		Model:      model,
	}
	if result.UsageMetadata != nil {
		response.Usage = llm.Usage{
			PromptTokens:     int(result.UsageMetadata.PromptTokenCount),
			CompletionTokens: int(result.UsageMetadata.CandidatesTokenCount),
		}
	}
	if functionCalls := result.FunctionCalls(); len(functionCalls) > 0 {
		response.ToolCalls = convertFunctionCalls(functionCalls)
	}
	return response, nil
}

// convertMessages converts to Gemini Content format. System messages become
// the system instruction; the assistant role maps to "model".
func convertMessages(messages []llm.CompletionMessage) ([]*genai.Content, string, error) {
	if len(messages) == 0 {
		return nil, "", fmt.Errorf("message list cannot be empty")
	}

	var systemInstruction string
	var contents []*genai.Content

	for i := range messages {
		msg := &messages[i]

		if msg.Role == llm.RoleSystem {
			if systemInstruction != "" {
				systemInstruction += "\n\n" + msg.Content
			} else {
				systemInstruction = msg.Content
			}
			continue
		}

		var role string
		switch msg.Role {
		case llm.RoleUser:
			role = "user"
		case llm.RoleAssistant:
			role = "model"
		default:
			return nil, "", fmt.Errorf("unsupported message role: %s", msg.Role)
		}

		var parts []*genai.Part
		if msg.Content != "" {
			parts = append(parts, &genai.Part{Text: msg.Content})
		}
		for j := range msg.ToolCalls {
			tc := &msg.ToolCalls[j]
			var args map[string]any
			if err := json.Unmarshal([]byte(tc.Arguments), &args); err != nil {
				args = map[string]any{}
			}
			parts = append(parts, &genai.Part{
				FunctionCall: &genai.FunctionCall{
					ID:   tc.ID,
					Name: tc.Name,
					Args: args,
				},
			})
		}
		for j := range msg.ToolResults {
			tr := &msg.ToolResults[j]
			if tr.ToolCallID == "" {
				continue
			}
			// Gemini matches responses by function name, which the loop put
			// in ToolCallID when the call carried no ID.
			parts = append(parts, &genai.Part{
				FunctionResponse: &genai.FunctionResponse{
					Name: tr.ToolCallID,
					Response: map[string]any{
						"content":  tr.Content,
						"is_error": tr.IsError,
					},
				},
			})
		}

		if len(parts) > 0 {
			contents = append(contents, &genai.Content{Role: role, Parts: parts})
		}
	}

	return contents, systemInstruction, nil
}

// convertTools converts tool definitions to Gemini function declarations.
func convertTools(toolDefs []tools.ToolDefinition) []*genai.FunctionDeclaration {
	declarations := make([]*genai.FunctionDeclaration, len(toolDefs))
	for i := range toolDefs {
		tool := &toolDefs[i]
		properties := make(map[string]*genai.Schema)
		for propName := range tool.InputSchema.Properties {
			prop := tool.InputSchema.Properties[propName]
			properties[propName] = convertProperty(&prop)
		}
		declarations[i] = &genai.FunctionDeclaration{
			Name:        tool.Name,
			Description: tool.Description,
			Parameters: &genai.Schema{
				Type:       genai.TypeObject,
				Properties: properties,
				Required:   tool.InputSchema.Required,
			},
		}
	}
	return declarations
}

func convertProperty(prop *tools.Property) *genai.Schema {
	schema := &genai.Schema{Description: prop.Description}

	switch prop.Type {
	case "string":
		schema.Type = genai.TypeString
	case "number":
		schema.Type = genai.TypeNumber
	case "integer":
		schema.Type = genai.TypeInteger
	case "boolean":
		schema.Type = genai.TypeBoolean
	case "array":
		schema.Type = genai.TypeArray
		if prop.Items != nil {
			schema.Items = convertProperty(prop.Items)
		}
	case "object":
		schema.Type = genai.TypeObject
		if prop.Properties != nil {
			properties := make(map[string]*genai.Schema)
			for name, child := range prop.Properties {
				if child != nil {
					properties[name] = convertProperty(child)
				}
			}
			schema.Properties = properties
		}
	default:
		schema.Type = genai.TypeString
	}

	if len(prop.Enum) > 0 {
		schema.Enum = prop.Enum
	}
	return schema
}

// convertFunctionCalls converts Gemini function calls. Gemini usually omits
// call IDs, so the function name doubles as the ID for response pairing.
func convertFunctionCalls(calls []*genai.FunctionCall) []llm.ToolCall {
	toolCalls := make([]llm.ToolCall, len(calls))
	for i := range calls {
		call := calls[i]
		id := call.ID
		if id == "" {
			id = call.Name
		}
		args, err := json.Marshal(call.Args)
		if err != nil {
			args = []byte("{}")
		}
		toolCalls[i] = llm.ToolCall{
			ID:        id,
			Name:      call.Name,
			Arguments: string(args),
		}
	}
	return toolCalls
}
