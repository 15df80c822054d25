// Package llmerrors provides structured error classification for model
// provider interactions. The tool loop retries on its own bounded schedule;
// classification exists so logs and metrics can tell rate limits from auth
// failures from transient network faults.
package llmerrors

import (
	"errors"
	"fmt"
	"time"
)

// ErrorType represents different categories of provider errors.
type ErrorType int8

const (
	// ErrorTypeRateLimit represents rate limiting errors (429, quota exceeded).
	ErrorTypeRateLimit ErrorType = iota
	// ErrorTypeTransient represents transient errors (5xx, EOF, connection reset, timeout).
	ErrorTypeTransient
	// ErrorTypeEmptyResponse represents HTTP 200 but no content errors.
	ErrorTypeEmptyResponse
	// ErrorTypeAuth represents authentication errors (401/403, bad API key).
	ErrorTypeAuth
	// ErrorTypeBadPrompt represents malformed request errors (too long, violates policy).
	ErrorTypeBadPrompt
	// ErrorTypeUnknown represents default for unclassified errors.
	ErrorTypeUnknown
)

// String returns the string representation of the error type.
func (et ErrorType) String() string {
	switch et {
	case ErrorTypeRateLimit:
		return "rate_limit"
	case ErrorTypeTransient:
		return "transient"
	case ErrorTypeEmptyResponse:
		return "empty_response"
	case ErrorTypeAuth:
		return "auth"
	case ErrorTypeBadPrompt:
		return "bad_prompt"
	case ErrorTypeUnknown:
		return "unknown"
	default:
		return "invalid"
	}
}

// RetryConfig defines backoff configuration for an error type.
type RetryConfig struct {
	MaxRetries    int
	InitialDelay  time.Duration
	MaxDelay      time.Duration
	BackoffFactor float64
}

// DefaultRetryConfigs provides default retry configurations per error type.
//
//nolint:gochecknoglobals // package defaults
var DefaultRetryConfigs = map[ErrorType]RetryConfig{
	ErrorTypeRateLimit:     {MaxRetries: 6, InitialDelay: time.Second, MaxDelay: 60 * time.Second, BackoffFactor: 2.0},
	ErrorTypeTransient:     {MaxRetries: 4, InitialDelay: 500 * time.Millisecond, MaxDelay: 10 * time.Second, BackoffFactor: 2.0},
	ErrorTypeEmptyResponse: {MaxRetries: 5, InitialDelay: 2 * time.Second, MaxDelay: 30 * time.Second, BackoffFactor: 2.0},
	ErrorTypeAuth:          {MaxRetries: 0, BackoffFactor: 1.0},
	ErrorTypeBadPrompt:     {MaxRetries: 0, BackoffFactor: 1.0},
	ErrorTypeUnknown:       {MaxRetries: 1, InitialDelay: time.Second, MaxDelay: 5 * time.Second, BackoffFactor: 2.0},
}

// Error represents a classified provider error with retry metadata.
type Error struct {
	Err        error
	Message    string
	Type       ErrorType
	StatusCode int
}

// Error implements the error interface.
func (e *Error) Error() string {
	if e.Message != "" {
		return fmt.Sprintf("LLM error (%s): %s", e.Type.String(), e.Message)
	}
	if e.Err != nil {
		return fmt.Sprintf("LLM error (%s): %v", e.Type.String(), e.Err)
	}
	return fmt.Sprintf("LLM error (%s): status %d", e.Type.String(), e.StatusCode)
}

// Unwrap returns the underlying error for error unwrapping.
func (e *Error) Unwrap() error {
	return e.Err
}

// IsRetryable reports whether this error type should be retried.
// Blocklist approach: everything is retryable unless explicitly not.
func (e *Error) IsRetryable() bool {
	switch e.Type {
	case ErrorTypeAuth, ErrorTypeBadPrompt:
		return false
	default:
		return true
	}
}

// GetRetryConfig returns the retry configuration for this error type.
func (e *Error) GetRetryConfig() RetryConfig {
	if config, exists := DefaultRetryConfigs[e.Type]; exists {
		return config
	}
	return DefaultRetryConfigs[ErrorTypeUnknown]
}

// Is checks if an error is of a specific type.
func Is(err error, errorType ErrorType) bool {
	var llmErr *Error
	if errors.As(err, &llmErr) {
		return llmErr.Type == errorType
	}
	return false
}

// TypeOf returns the error type of an error, or ErrorTypeUnknown if not classified.
func TypeOf(err error) ErrorType {
	var llmErr *Error
	if errors.As(err, &llmErr) {
		return llmErr.Type
	}
	return ErrorTypeUnknown
}

// NewError creates a new classified provider error.
func NewError(errorType ErrorType, message string) *Error {
	return &Error{Type: errorType, Message: message}
}

// NewErrorWithStatus creates a new classified provider error with HTTP status.
func NewErrorWithStatus(errorType ErrorType, statusCode int, message string) *Error {
	return &Error{Type: errorType, StatusCode: statusCode, Message: message}
}

// NewErrorWithCause creates a new classified provider error wrapping another error.
func NewErrorWithCause(errorType ErrorType, cause error, message string) *Error {
	return &Error{Type: errorType, Err: cause, Message: message}
}
