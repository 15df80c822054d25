package contextmgr

import (
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"agentcore/pkg/llm"
)

func TestManageLeavesSmallConversationsAlone(t *testing.T) {
	m := New("mock-model", 0)
	messages := []llm.CompletionMessage{
		llm.NewSystemMessage("sys"),
		llm.NewUserMessage("hello"),
	}

	out, err := m.Manage(messages)
	require.NoError(t, err)
	assert.Equal(t, messages, out)
}

func TestManagePreservesSystemMessagesAndRecentTurns(t *testing.T) {
	m := New("mock-model", 50)

	big := strings.Repeat("some long filler text ", 50)
	messages := []llm.CompletionMessage{
		llm.NewSystemMessage("primary instructions"),
		llm.NewSystemMessage("secondary instructions"),
	}
	for i := 0; i < 20; i++ {
		messages = append(messages, llm.NewUserMessage(big))
		messages = append(messages, llm.NewAssistantMessage(big))
	}
	lastUser := llm.NewUserMessage("most recent question")
	messages = append(messages, lastUser)

	out, err := m.Manage(messages)
	require.NoError(t, err)
	require.Less(t, len(out), len(messages))

	// Both system messages survive, in order, at the front.
	assert.Equal(t, llm.RoleSystem, out[0].Role)
	assert.Equal(t, "primary instructions", out[0].Content)
	assert.Equal(t, "secondary instructions", out[1].Content)

	// The elision note names the removed span.
	assert.Contains(t, out[2].Content, "compacted")

	// The most recent turn survives verbatim.
	assert.Equal(t, lastUser, out[len(out)-1])
}

func TestManageKeepsToolResultAdjacentToItsCall(t *testing.T) {
	m := New("mock-model", 10)

	big := strings.Repeat("filler ", 100)
	var messages []llm.CompletionMessage
	messages = append(messages, llm.NewSystemMessage("sys"))
	for i := 0; i < 10; i++ {
		messages = append(messages, llm.NewUserMessage(big))
		messages = append(messages, llm.CompletionMessage{
			Role:      llm.RoleAssistant,
			ToolCalls: []llm.ToolCall{{ID: "c", Name: "shell", Arguments: "{}"}},
		})
		messages = append(messages, llm.CompletionMessage{
			Role:        llm.RoleUser,
			ToolResults: []llm.ToolResultMessage{{ToolCallID: "c", Content: big}},
		})
	}

	out, err := m.Manage(messages)
	require.NoError(t, err)

	for i := range out {
		if len(out[i].ToolResults) > 0 {
			require.Greater(t, i, 0)
			assert.NotEmpty(t, out[i-1].ToolCalls,
				"tool result at %d must follow the assistant message that issued the call", i)
		}
	}
}

func TestManageNotesToolsUsedInDroppedSpan(t *testing.T) {
	m := New("mock-model", 30)

	big := strings.Repeat("filler text ", 80)
	messages := []llm.CompletionMessage{llm.NewSystemMessage("sys")}
	messages = append(messages, llm.CompletionMessage{
		Role:      llm.RoleAssistant,
		Content:   big,
		ToolCalls: []llm.ToolCall{{ID: "1", Name: "read_file", Arguments: "{}"}},
	})
	messages = append(messages, llm.CompletionMessage{
		Role:        llm.RoleUser,
		ToolResults: []llm.ToolResultMessage{{ToolCallID: "1", Content: big}},
	})
	for i := 0; i < 10; i++ {
		messages = append(messages, llm.NewUserMessage(big), llm.NewAssistantMessage(big))
	}

	out, err := m.Manage(messages)
	require.NoError(t, err)
	require.Less(t, len(out), len(messages))
	assert.Contains(t, out[1].Content, "read_file")
}

func TestTruncateToolOutputBoundsLongOutput(t *testing.T) {
	m := New("mock-model", 0)
	long := strings.Repeat("0123456789 ", 5000)

	truncated := m.TruncateToolOutput(long)
	assert.Less(t, len(truncated), len(long))
	assert.Contains(t, truncated, "[truncated]")

	short := "brief output"
	assert.Equal(t, short, m.TruncateToolOutput(short))
}
