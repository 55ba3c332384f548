package llm

import (
	"context"
	"fmt"
	"strings"
	"time"

	"google.golang.org/genai"
)

// Generator produces a completion for a prompt. Satisfied by GeminiClient;
// mocked in chat tests.
type Generator interface {
	Generate(ctx context.Context, prompt string) (string, error)
}

// defaultModel is used when the config names none.
const defaultModel = "gemini-2.0-flash"

// GeminiClient wraps the Google GenAI SDK for single-turn text generation.
//
// The command interpreter assembles the full prompt (system role, building
// snapshot, transcript) itself, so this client is deliberately stateless:
// one prompt in, one completion out, a deadline on every call.
type GeminiClient struct {
	client  *genai.Client
	model   string
	timeout time.Duration
}

// NewGeminiClient creates a Gemini-backed generator.
//
// Parameters:
//   - ctx: Context for client initialisation
//   - apiKey: Gemini API key; empty returns ErrNotConfigured
//   - model: Generation model name; empty falls back to gemini-2.0-flash
//   - timeout: Per-request deadline
//
// Returns:
//   - *GeminiClient: Ready-to-use generator
//   - error: ErrNotConfigured or a wrapped SDK error
func NewGeminiClient(ctx context.Context, apiKey, model string, timeout time.Duration) (*GeminiClient, error) {
	if apiKey == "" {
		return nil, ErrNotConfigured
	}
	if model == "" {
		model = defaultModel
	}
	if timeout <= 0 {
		timeout = 30 * time.Second
	}

	client, err := genai.NewClient(ctx, &genai.ClientConfig{
		APIKey: apiKey,
	})
	if err != nil {
		return nil, fmt.Errorf("creating genai client: %w", err)
	}

	return &GeminiClient{
		client:  client,
		model:   model,
		timeout: timeout,
	}, nil
}

// Generate sends the prompt and returns the model's text completion.
func (c *GeminiClient) Generate(ctx context.Context, prompt string) (string, error) {
	ctx, cancel := context.WithTimeout(ctx, c.timeout)
	defer cancel()

	resp, err := c.client.Models.GenerateContent(ctx, c.model, genai.Text(prompt), nil)
	if err != nil {
		if isQuotaError(err) {
			return "", fmt.Errorf("%w: %v", ErrQuotaExceeded, err)
		}
		return "", fmt.Errorf("generating content: %w", err)
	}

	text := strings.TrimSpace(resp.Text())
	if text == "" {
		return "", ErrEmptyResponse
	}
	return text, nil
}

// Model returns the configured model name.
func (c *GeminiClient) Model() string {
	return c.model
}

// isQuotaError recognises rate-limit and quota rejections in the provider's
// error text.
func isQuotaError(err error) bool {
	msg := strings.ToLower(err.Error())
	return strings.Contains(msg, "429") ||
		strings.Contains(msg, "resource_exhausted") ||
		strings.Contains(msg, "quota")
}
