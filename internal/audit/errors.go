package audit

import "errors"

// Domain-specific errors for audit operations.
// Use errors.Is() to check for these errors in calling code.
var (
	// ErrDecisionNotFound is returned when a decision lookup fails.
	ErrDecisionNotFound = errors.New("audit: decision not found")

	// ErrAlertNotFound is returned when an alert lookup fails.
	ErrAlertNotFound = errors.New("audit: alert not found")

	// ErrInvalidConfidence is returned when a decision's confidence is
	// outside [0, 1].
	ErrInvalidConfidence = errors.New("audit: confidence must be between 0 and 1")
)
