package agent

import "errors"

// Domain-specific errors for agent operations.
// Use errors.Is() to check for these errors in calling code.
var (
	// ErrAgentNotFound is returned when no agent matches a name or role.
	ErrAgentNotFound = errors.New("agent: agent not found")

	// ErrAlreadyRunning is returned when Start is called on a running scheduler.
	ErrAlreadyRunning = errors.New("agent: scheduler already running")
)
