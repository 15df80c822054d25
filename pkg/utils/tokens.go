// Package utils provides tiktoken-based token counting utilities.
package utils

import (
	"fmt"

	"github.com/tiktoken-go/tokenizer"
)

// TokenCounter provides token counting for context budgeting. All supported
// models approximate well with the GPT-4 encoding.
type TokenCounter struct {
	codec tokenizer.Codec
}

// NewTokenCounter creates a token counter. The model argument is accepted for
// future per-model encodings; every current model maps to GPT-4 encoding.
func NewTokenCounter(model string) (*TokenCounter, error) {
	codec, err := tokenizer.ForModel(tokenizer.GPT4)
	if err != nil {
		return nil, fmt.Errorf("failed to create tokenizer codec for model %s: %w", model, err)
	}
	return &TokenCounter{codec: codec}, nil
}

// CountTokens returns the number of tokens in the given text.
func (tc *TokenCounter) CountTokens(text string) int {
	if tc == nil || tc.codec == nil {
		// Fallback estimation: 4 chars ≈ 1 token.
		return len(text) / 4
	}
	count, err := tc.codec.Count(text)
	if err != nil {
		return len(text) / 4
	}
	return count
}

// TruncateToTokenLimit truncates text to fit within the token limit. The cut
// is proportional by characters, not exact token boundaries, with a safety
// margin and a truncation marker.
func (tc *TokenCounter) TruncateToTokenLimit(text string, limit int) string {
	if limit <= 0 {
		return text
	}
	currentTokens := tc.CountTokens(text)
	if currentTokens <= limit {
		return text
	}

	ratio := float64(limit) / float64(currentTokens)
	charLimit := int(float64(len(text)) * ratio * 0.9)
	if charLimit >= len(text) {
		return text
	}
	if charLimit < 0 {
		charLimit = 0
	}
	return text[:charLimit] + "\n... [truncated]"
}
