package toolloop

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestClassifyConfirmation(t *testing.T) {
	tests := []struct {
		name string
		text string
		want Confirmation
	}{
		{"completed with colon", "COMPLETED: the answer is 42", ConfirmationCompleted},
		{"completed with dash", "completed - all done", ConfirmationCompleted},
		{"completed with whitespace", "Completed everything works", ConfirmationCompleted},
		{"completed alone", "COMPLETED", ConfirmationCompleted},
		{"completed lowercase", "completed:", ConfirmationCompleted},
		{"leading whitespace", "  COMPLETED: done", ConfirmationCompleted},
		{"continue with colon", "CONTINUE: still checking the edge cases", ConfirmationContinue},
		{"continue alone", "continue", ConfirmationContinue},
		{"continue mixed case", "Continue - more work left", ConfirmationContinue},
		{"token not anchored", "The task is COMPLETED now", ConfirmationAmbiguous},
		{"token embedded in word", "COMPLETEDISH", ConfirmationAmbiguous},
		{"continuation embedded", "CONTINUED working on it", ConfirmationAmbiguous},
		{"plain prose", "I think everything looks fine", ConfirmationAmbiguous},
		{"empty", "", ConfirmationAmbiguous},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, classifyConfirmation(tt.text))
		})
	}
}

func TestStripCompletedPrefix(t *testing.T) {
	tests := []struct {
		name string
		text string
		want string
	}{
		{"colon separator", "COMPLETED: final answer", "final answer"},
		{"dash separator", "COMPLETED - final answer", "- final answer"},
		{"whitespace separator", "COMPLETED final answer", "final answer"},
		{"bare token", "COMPLETED", ""},
		{"no prefix", "final answer", "final answer"},
		{"preserves json payload", `COMPLETED: {"a":1}`, `{"a":1}`},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, stripCompletedPrefix(tt.text))
		})
	}
}
