package llm

import "errors"

// Domain-specific errors for LLM operations.
// Use errors.Is() to check for these errors in calling code.
var (
	// ErrNotConfigured is returned when no API key is available.
	ErrNotConfigured = errors.New("llm: no API key configured")

	// ErrQuotaExceeded is returned when the provider rejects a request for
	// rate or quota reasons. Callers fall back to canned answers.
	ErrQuotaExceeded = errors.New("llm: quota exceeded")

	// ErrEmptyResponse is returned when the model answers with no text.
	ErrEmptyResponse = errors.New("llm: empty response")
)
