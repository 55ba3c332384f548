package actuation

import "errors"

// Domain-specific errors for actuation operations.
// Use errors.Is() to check for these errors in calling code.
var (
	// ErrDeviceNotFound is returned when the target device does not exist.
	ErrDeviceNotFound = errors.New("actuation: device not found")

	// ErrInvalidCommand is returned for commands outside {ON, OFF}.
	ErrInvalidCommand = errors.New("actuation: invalid command (must be ON or OFF)")
)
