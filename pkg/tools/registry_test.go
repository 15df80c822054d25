package tools

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type fakeTool struct {
	name   string
	execFn func(ctx context.Context, args map[string]any) (*ToolResult, error)
	schema InputSchema
}

func (t *fakeTool) Name() string { return t.name }

func (t *fakeTool) Definition() ToolDefinition {
	return ToolDefinition{Name: t.name, Category: CategoryGeneral, InputSchema: t.schema}
}

func (t *fakeTool) Exec(ctx context.Context, args map[string]any) (*ToolResult, error) {
	if t.execFn != nil {
		return t.execFn(ctx, args)
	}
	return OK("ok"), nil
}

func TestRegisterRejectsDuplicatesAndNil(t *testing.T) {
	registry := NewRegistry()
	require.NoError(t, registry.Register(&fakeTool{name: "a"}))

	assert.Error(t, registry.Register(&fakeTool{name: "a"}))
	assert.Error(t, registry.Register(nil))
	assert.Error(t, registry.Register(&fakeTool{name: ""}))
	assert.Equal(t, 1, registry.Len())
}

func TestListAllIsNameSorted(t *testing.T) {
	registry := NewRegistry()
	require.NoError(t, registry.Register(&fakeTool{name: "zeta"}))
	require.NoError(t, registry.Register(&fakeTool{name: "alpha"}))
	require.NoError(t, registry.Register(&fakeTool{name: "mid"}))

	defs := registry.ListAll()
	require.Len(t, defs, 3)
	assert.Equal(t, "alpha", defs[0].Name)
	assert.Equal(t, "mid", defs[1].Name)
	assert.Equal(t, "zeta", defs[2].Name)
}

func TestValidatedExecuteUnknownToolFails(t *testing.T) {
	registry := NewRegistry()
	result := registry.ValidatedExecute(context.Background(), "nope", nil)
	assert.False(t, result.Success)
	assert.Contains(t, result.Error, "not registered")
}

func TestValidatedExecuteMissingRequiredField(t *testing.T) {
	registry := NewRegistry()
	require.NoError(t, registry.Register(&fakeTool{
		name: "needy",
		schema: InputSchema{
			Type:       "object",
			Properties: map[string]Property{"path": {Type: "string"}},
			Required:   []string{"path"},
		},
	}))

	result := registry.ValidatedExecute(context.Background(), "needy", map[string]any{})
	assert.False(t, result.Success)
	assert.Contains(t, result.Error, "path")
}

func TestValidatedExecuteTypeMismatch(t *testing.T) {
	registry := NewRegistry()
	require.NoError(t, registry.Register(&fakeTool{
		name: "typed",
		schema: InputSchema{
			Type:       "object",
			Properties: map[string]Property{"count": {Type: "integer"}},
		},
	}))

	result := registry.ValidatedExecute(context.Background(), "typed", map[string]any{"count": "three"})
	assert.False(t, result.Success)

	// JSON numbers arrive as float64 and must pass integer checks.
	result = registry.ValidatedExecute(context.Background(), "typed", map[string]any{"count": float64(3)})
	assert.True(t, result.Success)
}

func TestValidatedExecuteToleratesUnknownFields(t *testing.T) {
	registry := NewRegistry()
	require.NoError(t, registry.Register(&fakeTool{
		name:   "lenient",
		schema: InputSchema{Type: "object", Properties: map[string]Property{"a": {Type: "string"}}},
	}))

	result := registry.ValidatedExecute(context.Background(), "lenient", map[string]any{
		"a": "fine", "extra": 123,
	})
	assert.True(t, result.Success)
}

func TestValidatedExecuteRecoversFromPanic(t *testing.T) {
	registry := NewRegistry()
	require.NoError(t, registry.Register(&fakeTool{
		name: "bomb",
		execFn: func(context.Context, map[string]any) (*ToolResult, error) {
			panic("kaboom")
		},
	}))

	result := registry.ValidatedExecute(context.Background(), "bomb", map[string]any{})
	require.NotNil(t, result)
	assert.False(t, result.Success)
	assert.Contains(t, result.Error, "kaboom")
}

func TestCategoryBudgetArgs(t *testing.T) {
	assert.Equal(t, "command", CategoryCommand.BudgetArg())
	assert.Equal(t, "path", CategoryFileRead.BudgetArg())
	assert.Equal(t, "path", CategoryFileWrite.BudgetArg())
	assert.Equal(t, "url", CategoryNetwork.BudgetArg())
	assert.Equal(t, "", CategoryGeneral.BudgetArg())
}
