// Package llm wraps the Google GenAI SDK behind the small Generator
// interface the command interpreter consumes. Quota rejections surface as
// ErrQuotaExceeded so callers can degrade to canned answers instead of
// failing the chat request.
package llm
