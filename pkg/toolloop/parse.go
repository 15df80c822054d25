package toolloop

import (
	"encoding/json"
	"strings"
)

// ParseOutput extracts structured output from a final model response. It
// tries a direct JSON object parse, then strips a single markdown code fence
// and retries, and finally wraps the raw text as {"response": raw}.
func ParseOutput(raw string) map[string]any {
	trimmed := strings.TrimSpace(raw)

	if out := tryParseObject(trimmed); out != nil {
		return out
	}
	if unfenced, ok := stripCodeFence(trimmed); ok {
		if out := tryParseObject(unfenced); out != nil {
			return out
		}
	}
	return map[string]any{"response": raw}
}

func tryParseObject(s string) map[string]any {
	if !strings.HasPrefix(s, "{") {
		return nil
	}
	var out map[string]any
	if err := json.Unmarshal([]byte(s), &out); err != nil {
		return nil
	}
	return out
}

// stripCodeFence removes one surrounding markdown fence, with or without a
// language tag.
func stripCodeFence(s string) (string, bool) {
	if !strings.HasPrefix(s, "```") {
		return "", false
	}
	body := s[3:]
	// Drop the language tag on the opening fence line.
	if idx := strings.IndexByte(body, '\n'); idx >= 0 {
		body = body[idx+1:]
	} else {
		return "", false
	}
	end := strings.LastIndex(body, "```")
	if end < 0 {
		return "", false
	}
	return strings.TrimSpace(body[:end]), true
}
