package driven

import "context"

// LLMService generates text from a prompt.
//
// Failures are reported as distinguishable domain conditions:
// domain.ErrLLMUnavailable, domain.ErrLLMTimeout and
// domain.ErrMalformedResponse, so the composer can decide between
// retrying with a shorter prompt and failing the request.
//
// Implementations may include:
//   - Ollama (local models)
//   - OpenAI (GPT family)
type LLMService interface {
	// Generate produces a text completion from a prompt.
	Generate(ctx context.Context, prompt string, opts GenerateOptions) (string, error)

	// ModelName returns the name of the model being used.
	ModelName() string

	// Close releases resources.
	Close() error
}

// GenerateOptions configures text generation behaviour.
type GenerateOptions struct {
	// MaxTokens is the maximum output length in tokens.
	MaxTokens int

	// Temperature controls randomness (0.0 = deterministic, 1.0 = creative).
	Temperature float64
}
