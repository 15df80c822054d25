// Package tools provides the tool contract and the schema-validated registry
// used by the tool invocation loop.
package tools

import "context"

// Category classifies a tool for autonomy/budget enforcement. The runtime
// enforcer dispatches on this category when deciding whether a call fits
// the session budget.
type Category string

const (
	// CategoryCommand marks tools that execute commands.
	CategoryCommand Category = "command"
	// CategoryFileRead marks tools that read files.
	CategoryFileRead Category = "file_read"
	// CategoryFileWrite marks tools that create or modify files.
	CategoryFileWrite Category = "file_write"
	// CategoryNetwork marks tools that reach the network.
	CategoryNetwork Category = "network"
	// CategoryGeneral marks tools with no budget-relevant side effects.
	CategoryGeneral Category = "general"
)

// BudgetArg returns the argument name whose value is handed to the enforcer
// for this category. General tools have no budget argument.
func (c Category) BudgetArg() string {
	switch c {
	case CategoryCommand:
		return "command"
	case CategoryFileRead, CategoryFileWrite:
		return "path"
	case CategoryNetwork:
		return "url"
	default:
		return ""
	}
}

// Property describes a single field of a tool's input schema.
type Property struct {
	Properties map[string]*Property `json:"properties,omitempty"`
	Items      *Property            `json:"items,omitempty"`
	Type       string               `json:"type"`
	Description string              `json:"description,omitempty"`
	Enum       []string             `json:"enum,omitempty"`
}

// InputSchema is a JSON-schema-shaped description of a tool's arguments.
type InputSchema struct {
	Properties map[string]Property `json:"properties,omitempty"`
	Type       string              `json:"type"`
	Required   []string            `json:"required,omitempty"`
}

// ToolDefinition carries the metadata sent to the model provider and used
// for validation and budget dispatch.
type ToolDefinition struct {
	Name        string      `json:"name"`
	Description string      `json:"description"`
	Category    Category    `json:"category,omitempty"`
	InputSchema InputSchema `json:"input_schema"`
}

// Tool is the interface implemented by every executable tool.
type Tool interface {
	// Name returns the tool's identifier.
	Name() string

	// Definition returns the tool's schema and metadata.
	Definition() ToolDefinition

	// Exec executes the tool with already-parsed arguments.
	Exec(ctx context.Context, args map[string]any) (*ToolResult, error)
}
