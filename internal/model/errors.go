package model

import (
	"errors"
	"fmt"
)

var (
	// ErrNotFound indicates the ledger holds no events for the document id.
	ErrNotFound = errors.New("document not found")
	// ErrRateLimited indicates the client exceeded its admission window.
	ErrRateLimited = errors.New("rate limit exceeded")
	// ErrUnauthorized indicates API key verification failed.
	ErrUnauthorized = errors.New("invalid API key")
	// ErrInvalidState indicates the operation requires a different current state.
	ErrInvalidState = errors.New("document is not in a valid state for this operation")
	// ErrInvalidInput indicates a request missing required fields.
	ErrInvalidInput = errors.New("invalid input")
	// ErrInvalidTransition indicates an append that would violate the state machine.
	ErrInvalidTransition = errors.New("invalid state transition")
	// ErrTooLarge indicates the submitted content exceeds the configured maximum.
	ErrTooLarge = errors.New("content too large")
)

// ValidationError is a rejected submission. Note is the human-readable reason
// recorded on the terminal lifecycle event and returned to the client.
type ValidationError struct {
	Note string
}

func (e *ValidationError) Error() string { return e.Note }

// Validationf builds a ValidationError with a formatted note.
func Validationf(format string, args ...any) *ValidationError {
	return &ValidationError{Note: fmt.Sprintf(format, args...)}
}
