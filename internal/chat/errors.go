package chat

import "errors"

// Domain-specific errors for chat operations.
// Use errors.Is() to check for these errors in calling code.
var (
	// ErrUnknownAction is returned when the model emits an action the
	// dispatcher does not support.
	ErrUnknownAction = errors.New("chat: unknown action")

	// ErrMissingParam is returned when a required action parameter is absent.
	ErrMissingParam = errors.New("chat: missing action parameter")
)
