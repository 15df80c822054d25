package toolloop

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestParseOutputDirectJSON(t *testing.T) {
	out := ParseOutput(`{"a": 1, "b": "two"}`)
	assert.Equal(t, float64(1), out["a"])
	assert.Equal(t, "two", out["b"])
}

func TestParseOutputFencedEqualsUnfenced(t *testing.T) {
	fenced := ParseOutput("```json\n{\"a\":1}\n```")
	plain := ParseOutput(`{"a":1}`)
	assert.Equal(t, plain, fenced)
}

func TestParseOutputFenceWithoutLanguageTag(t *testing.T) {
	out := ParseOutput("```\n{\"ok\": true}\n```")
	assert.Equal(t, true, out["ok"])
}

func TestParseOutputWrapsRawText(t *testing.T) {
	out := ParseOutput("just some prose")
	assert.Equal(t, map[string]any{"response": "just some prose"}, out)
}

func TestParseOutputWrapsInvalidJSON(t *testing.T) {
	out := ParseOutput(`{"broken":`)
	assert.Equal(t, map[string]any{"response": `{"broken":`}, out)
}

func TestParseOutputNonObjectJSONWraps(t *testing.T) {
	out := ParseOutput(`[1, 2, 3]`)
	assert.Equal(t, map[string]any{"response": "[1, 2, 3]"}, out)
}
