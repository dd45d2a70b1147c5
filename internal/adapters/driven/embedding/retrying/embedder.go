// Package retrying decorates an embedder with the shared retry policy
// and a token-bucket rate limit, so transient service failures are
// retried with backoff instead of surfacing immediately.
package retrying

import (
	"context"
	"errors"

	"golang.org/x/time/rate"

	"github.com/scribelabs/askdoc/internal/core/domain"
	"github.com/scribelabs/askdoc/internal/core/ports/driven"
	"github.com/scribelabs/askdoc/internal/retry"
)

// Ensure Embedder implements the interface.
var _ driven.Embedder = (*Embedder)(nil)

// Default rate limit: generous for local models, conservative for
// hosted APIs.
const (
	DefaultRequestsPerSecond = 10.0
	DefaultBurstSize         = 20
)

// Config holds configuration for the retrying embedder.
type Config struct {
	// Policy is the backoff policy (zero value: retry defaults).
	Policy retry.Policy

	// RequestsPerSecond is the sustained request rate limit.
	RequestsPerSecond float64

	// BurstSize is the maximum burst size.
	BurstSize int
}

// Embedder wraps another embedder with retry and rate limiting.
type Embedder struct {
	inner   driven.Embedder
	policy  retry.Policy
	limiter *rate.Limiter
}

// Wrap decorates an embedder.
func Wrap(inner driven.Embedder, cfg Config) *Embedder {
	if cfg.RequestsPerSecond <= 0 {
		cfg.RequestsPerSecond = DefaultRequestsPerSecond
	}
	if cfg.BurstSize <= 0 {
		cfg.BurstSize = DefaultBurstSize
	}

	return &Embedder{
		inner:   inner,
		policy:  cfg.Policy,
		limiter: rate.NewLimiter(rate.Limit(cfg.RequestsPerSecond), cfg.BurstSize),
	}
}

// retryable treats only embedding-unavailable conditions as transient.
// Invalid input and context cancellation are surfaced immediately.
func retryable(err error) bool {
	if errors.Is(err, context.Canceled) || errors.Is(err, context.DeadlineExceeded) {
		return false
	}
	return errors.Is(err, domain.ErrEmbeddingUnavailable)
}

// Open validates the inner embedder, retrying transient failures.
func (e *Embedder) Open(ctx context.Context) error {
	return e.policy.Do(ctx, func(ctx context.Context) error {
		return e.inner.Open(ctx)
	}, retryable)
}

// EmbedBatch embeds texts with rate limiting and retry.
func (e *Embedder) EmbedBatch(ctx context.Context, texts []string) ([][]float32, error) {
	var result [][]float32
	err := e.policy.Do(ctx, func(ctx context.Context) error {
		if err := e.limiter.Wait(ctx); err != nil {
			return err
		}
		var innerErr error
		result, innerErr = e.inner.EmbedBatch(ctx, texts)
		return innerErr
	}, retryable)
	if err != nil {
		return nil, err
	}
	return result, nil
}

// EmbedQuery embeds a query with rate limiting and retry.
func (e *Embedder) EmbedQuery(ctx context.Context, text string) ([]float32, error) {
	var result []float32
	err := e.policy.Do(ctx, func(ctx context.Context) error {
		if err := e.limiter.Wait(ctx); err != nil {
			return err
		}
		var innerErr error
		result, innerErr = e.inner.EmbedQuery(ctx, text)
		return innerErr
	}, retryable)
	if err != nil {
		return nil, err
	}
	return result, nil
}

// Dimensions returns the inner embedder's vector size.
func (e *Embedder) Dimensions() int {
	return e.inner.Dimensions()
}

// ModelVersion returns the inner embedder's model version.
func (e *Embedder) ModelVersion() string {
	return e.inner.ModelVersion()
}

// Close releases the inner embedder's resources.
func (e *Embedder) Close() error {
	return e.inner.Close()
}
