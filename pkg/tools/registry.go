package tools

import (
	"context"
	"fmt"
	"sort"
	"sync"

	"agentcore/pkg/logx"
)

// Registry holds the tools available to one agent session. It is injected
// into the tool loop rather than kept as process-global state, so concurrent
// sessions can carry different tool sets.
type Registry struct {
	mu     sync.RWMutex
	tools  map[string]Tool
	logger *logx.Logger
}

// NewRegistry creates an empty tool registry.
func NewRegistry() *Registry {
	return &Registry{
		tools:  make(map[string]Tool),
		logger: logx.NewLogger("tools"),
	}
}

// Register adds a tool. Registering a duplicate or unnamed tool is an error.
func (r *Registry) Register(tool Tool) error {
	if tool == nil {
		return fmt.Errorf("tool cannot be nil")
	}
	name := tool.Name()
	if name == "" {
		return fmt.Errorf("tool name cannot be empty")
	}

	r.mu.Lock()
	defer r.mu.Unlock()

	if _, exists := r.tools[name]; exists {
		return fmt.Errorf("tool %s already registered", name)
	}
	r.tools[name] = tool
	return nil
}

// MustRegister is like Register but panics on error. Use during wiring where
// a duplicate registration is a programmer error.
func (r *Registry) MustRegister(tool Tool) {
	if err := r.Register(tool); err != nil {
		panic(err)
	}
}

// Get retrieves a tool by name.
func (r *Registry) Get(name string) (Tool, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	tool, exists := r.tools[name]
	if !exists {
		return nil, fmt.Errorf("tool %s not registered", name)
	}
	return tool, nil
}

// ListAll returns the definitions of all registered tools in name order.
func (r *Registry) ListAll() []ToolDefinition {
	r.mu.RLock()
	defer r.mu.RUnlock()

	defs := make([]ToolDefinition, 0, len(r.tools))
	for _, tool := range r.tools {
		defs = append(defs, tool.Definition())
	}
	sort.Slice(defs, func(i, j int) bool { return defs[i].Name < defs[j].Name })
	return defs
}

// Len returns the number of registered tools.
func (r *Registry) Len() int {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return len(r.tools)
}

// ValidatedExecute validates args against the tool's input schema and
// dispatches. It never returns an error: unknown tools, validation failures,
// tool errors, and panics all become failed ToolResults for the model to
// react to.
func (r *Registry) ValidatedExecute(ctx context.Context, name string, args map[string]any) (result *ToolResult) {
	tool, err := r.Get(name)
	if err != nil {
		return Fail(err.Error())
	}

	def := tool.Definition()
	if err := validateArgs(&def.InputSchema, args); err != nil {
		return Fail(fmt.Sprintf("invalid arguments for %s: %v", name, err))
	}

	defer func() {
		if rec := recover(); rec != nil {
			r.logger.Error("tool %s panicked: %v", name, rec)
			result = Fail(fmt.Sprintf("tool %s panicked: %v", name, rec))
		}
	}()

	result, err = tool.Exec(ctx, args)
	if err != nil {
		return Fail(err.Error())
	}
	if result == nil {
		return Fail(fmt.Sprintf("tool %s returned no result", name))
	}
	return result
}

// validateArgs checks required fields and primitive types against the schema.
// Unknown fields are tolerated; the model frequently adds extras.
func validateArgs(schema *InputSchema, args map[string]any) error {
	for _, required := range schema.Required {
		if _, ok := args[required]; !ok {
			return fmt.Errorf("missing required field %q", required)
		}
	}

	for name, value := range args {
		prop, ok := schema.Properties[name]
		if !ok {
			continue
		}
		if value == nil {
			continue
		}
		if err := checkType(&prop, value); err != nil {
			return fmt.Errorf("field %q: %w", name, err)
		}
	}
	return nil
}

func checkType(prop *Property, value any) error {
	switch prop.Type {
	case "string":
		if _, ok := value.(string); !ok {
			return fmt.Errorf("expected string, got %T", value)
		}
	case "number", "integer":
		switch value.(type) {
		case float64, float32, int, int64:
		default:
			return fmt.Errorf("expected %s, got %T", prop.Type, value)
		}
	case "boolean":
		if _, ok := value.(bool); !ok {
			return fmt.Errorf("expected boolean, got %T", value)
		}
	case "array":
		if _, ok := value.([]any); !ok {
			return fmt.Errorf("expected array, got %T", value)
		}
	case "object":
		if _, ok := value.(map[string]any); !ok {
			return fmt.Errorf("expected object, got %T", value)
		}
	}
	return nil
}
