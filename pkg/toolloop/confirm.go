package toolloop

import (
	"regexp"
	"strings"
)

// Confirmation is the classification of the model's reply to a completion
// confirmation request.
type Confirmation int

const (
	// ConfirmationAmbiguous means the reply matched neither token; the
	// confirmation request is re-issued.
	ConfirmationAmbiguous Confirmation = iota
	// ConfirmationCompleted means the reply confirmed the task is done.
	ConfirmationCompleted
	// ConfirmationContinue means the agent wants to keep working.
	ConfirmationContinue
)

// The token must be anchored at the start of the trimmed text and followed by
// a separator or end of string, so ordinary prose containing the words does
// not classify.
var (
	completedRe = regexp.MustCompile(`(?i)^completed([:\-\s]|$)`)
	continueRe  = regexp.MustCompile(`(?i)^continue([:\-\s]|$)`)
)

// classifyConfirmation classifies a confirmation reply.
func classifyConfirmation(text string) Confirmation {
	trimmed := strings.TrimSpace(text)
	switch {
	case completedRe.MatchString(trimmed):
		return ConfirmationCompleted
	case continueRe.MatchString(trimmed):
		return ConfirmationContinue
	default:
		return ConfirmationAmbiguous
	}
}

// stripCompletedPrefix removes a leading COMPLETED token and its separator
// from confirmed text, leaving the real answer.
func stripCompletedPrefix(text string) string {
	trimmed := strings.TrimSpace(text)
	loc := completedRe.FindStringIndex(trimmed)
	if loc == nil {
		return trimmed
	}
	rest := trimmed[loc[1]:]
	return strings.TrimSpace(rest)
}
