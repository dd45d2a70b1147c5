// Package retrying decorates an LLM service with the shared retry
// policy. Only availability failures are retried; timeouts and
// malformed responses are surfaced so the caller can shorten the
// prompt instead of repeating a doomed request.
package retrying

import (
	"context"
	"errors"

	"github.com/scribelabs/askdoc/internal/core/domain"
	"github.com/scribelabs/askdoc/internal/core/ports/driven"
	"github.com/scribelabs/askdoc/internal/retry"
)

// Ensure Service implements the interface.
var _ driven.LLMService = (*Service)(nil)

// Service wraps another LLM service with retry.
type Service struct {
	inner  driven.LLMService
	policy retry.Policy
}

// Wrap decorates an LLM service.
func Wrap(inner driven.LLMService, policy retry.Policy) *Service {
	return &Service{inner: inner, policy: policy}
}

func retryable(err error) bool {
	if errors.Is(err, context.Canceled) || errors.Is(err, context.DeadlineExceeded) {
		return false
	}
	return errors.Is(err, domain.ErrLLMUnavailable)
}

// Generate produces a text completion, retrying transient failures.
func (s *Service) Generate(ctx context.Context, prompt string, opts driven.GenerateOptions) (string, error) {
	var result string
	err := s.policy.Do(ctx, func(ctx context.Context) error {
		var innerErr error
		result, innerErr = s.inner.Generate(ctx, prompt, opts)
		return innerErr
	}, retryable)
	if err != nil {
		return "", err
	}
	return result, nil
}

// ModelName returns the inner service's model name.
func (s *Service) ModelName() string {
	return s.inner.ModelName()
}

// Close releases the inner service's resources.
func (s *Service) Close() error {
	return s.inner.Close()
}
