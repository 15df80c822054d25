package toolloop

import "errors"

// Programmer-error sentinels. Recoverable runtime conditions never surface as
// errors from Run; they become termination reasons on the Result.
var (
	// ErrNilClient is returned when the loop was constructed without a model client.
	ErrNilClient = errors.New("toolloop: model client is required")

	// ErrInvalidMessages is returned when the input conversation is missing a
	// system or a user message.
	ErrInvalidMessages = errors.New("toolloop: messages must include at least a system and a user message")
)
