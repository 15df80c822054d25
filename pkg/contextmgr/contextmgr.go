// Package contextmgr manages conversation context size for long agent runs.
// Compaction preserves every system message and the most recent turns, and
// replaces the dropped middle with a short elision note so the model knows
// content was removed.
package contextmgr

import (
	"fmt"
	"strings"

	"agentcore/pkg/llm"
	"agentcore/pkg/logx"
	"agentcore/pkg/utils"
)

const (
	// DefaultMaxContextTokens is the compaction threshold when none is configured.
	DefaultMaxContextTokens = 32000

	// DefaultToolOutputTokens caps a single tool output added to context.
	DefaultToolOutputTokens = 2000

	// minRecentKept is the minimum number of trailing non-system messages
	// preserved verbatim by compaction.
	minRecentKept = 6
)

// Manager implements the context management contract consumed by the tool
// loop: Manage fits a message list into the token budget, TruncateToolOutput
// bounds a single tool result.
type Manager struct {
	counter          *utils.TokenCounter
	logger           *logx.Logger
	maxContextTokens int
	toolOutputTokens int
}

// New creates a manager budgeted for the given model. A nil token counter
// (tokenizer init failure) degrades to character-based estimation.
func New(model string, maxContextTokens int) *Manager {
	if maxContextTokens <= 0 {
		maxContextTokens = DefaultMaxContextTokens
	}
	counter, err := utils.NewTokenCounter(model)
	if err != nil {
		logx.Warnf("tokenizer unavailable for %s, using estimation: %v", model, err)
		counter = nil
	}
	return &Manager{
		counter:          counter,
		logger:           logx.NewLogger("contextmgr"),
		maxContextTokens: maxContextTokens,
		toolOutputTokens: DefaultToolOutputTokens,
	}
}

// CountTokens estimates the token footprint of a message list.
func (m *Manager) CountTokens(messages []llm.CompletionMessage) int {
	total := 0
	for i := range messages {
		msg := &messages[i]
		total += m.counter.CountTokens(msg.Content)
		for j := range msg.ToolCalls {
			total += m.counter.CountTokens(msg.ToolCalls[j].Arguments)
		}
		for j := range msg.ToolResults {
			total += m.counter.CountTokens(msg.ToolResults[j].Content)
		}
	}
	return total
}

// TruncateToolOutput bounds a single tool output before it enters context.
func (m *Manager) TruncateToolOutput(output string) string {
	return m.counter.TruncateToTokenLimit(output, m.toolOutputTokens)
}

// Manage compacts the message list to fit the token budget. Every system
// message survives; the most recent turns survive verbatim; the dropped
// middle is summarized in a single elision note. Tool call/result pairs are
// never split across the compaction boundary.
func (m *Manager) Manage(messages []llm.CompletionMessage) ([]llm.CompletionMessage, error) {
	if m.CountTokens(messages) <= m.maxContextTokens {
		return messages, nil
	}

	var system []llm.CompletionMessage
	var rest []llm.CompletionMessage
	for i := range messages {
		if messages[i].Role == llm.RoleSystem {
			system = append(system, messages[i])
		} else {
			rest = append(rest, messages[i])
		}
	}

	if len(rest) <= minRecentKept {
		return messages, nil
	}

	start := len(rest) - minRecentKept
	// A tool-result message must stay adjacent to the assistant message that
	// issued the calls, or the provider rejects the sequence.
	for start > 0 && len(rest[start].ToolResults) > 0 {
		start--
	}
	if start == 0 {
		return messages, nil
	}

	dropped := rest[:start]
	kept := rest[start:]

	note := llm.NewUserMessage(summarizeDropped(dropped))
	result := make([]llm.CompletionMessage, 0, len(system)+1+len(kept))
	result = append(result, system...)
	result = append(result, note)
	result = append(result, kept...)

	m.logger.Info("compacted context: %d messages -> %d (%d dropped)",
		len(messages), len(result), len(dropped))
	return result, nil
}

// summarizeDropped preserves the intent of removed content: which tools ran
// and how much conversation was elided.
func summarizeDropped(dropped []llm.CompletionMessage) string {
	toolsSeen := make(map[string]bool)
	var toolOrder []string
	for i := range dropped {
		for j := range dropped[i].ToolCalls {
			name := dropped[i].ToolCalls[j].Name
			if !toolsSeen[name] {
				toolsSeen[name] = true
				toolOrder = append(toolOrder, name)
			}
		}
	}

	var b strings.Builder
	fmt.Fprintf(&b, "[Earlier conversation compacted: %d messages removed to fit the context window.", len(dropped))
	if len(toolOrder) > 0 {
		fmt.Fprintf(&b, " Tools used in the removed span: %s.", strings.Join(toolOrder, ", "))
	}
	b.WriteString(" Continue from the messages below.]")
	return b.String()
}
