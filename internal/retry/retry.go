// Package retry provides the shared retry policy for transient
// external-dependency failures. The embedding and LLM adapters use the
// same policy object instead of duplicating inline backoff loops.
package retry

import (
	"context"
	"time"

	"github.com/scribelabs/askdoc/internal/logger"
)

// Default policy values.
const (
	DefaultMaxAttempts = 3
	DefaultBaseDelay   = 500 * time.Millisecond
	DefaultMultiplier  = 2.0
)

// Policy describes bounded exponential backoff.
type Policy struct {
	// MaxAttempts is the total number of attempts, including the first.
	MaxAttempts int

	// BaseDelay is the delay before the second attempt.
	BaseDelay time.Duration

	// Multiplier scales the delay after each failed attempt.
	Multiplier float64
}

// DefaultPolicy returns the standard policy for external services.
func DefaultPolicy() Policy {
	return Policy{
		MaxAttempts: DefaultMaxAttempts,
		BaseDelay:   DefaultBaseDelay,
		Multiplier:  DefaultMultiplier,
	}
}

// normalise fills in zero values so a partially configured policy
// still terminates.
func (p Policy) normalise() Policy {
	if p.MaxAttempts <= 0 {
		p.MaxAttempts = DefaultMaxAttempts
	}
	if p.BaseDelay <= 0 {
		p.BaseDelay = DefaultBaseDelay
	}
	if p.Multiplier < 1 {
		p.Multiplier = DefaultMultiplier
	}
	return p
}

// Do runs fn up to MaxAttempts times, sleeping with exponential backoff
// between attempts. retryable decides whether an error is transient;
// a nil retryable treats every error as transient. Context cancellation
// aborts the wait and returns the last error joined with ctx.Err().
func (p Policy) Do(ctx context.Context, fn func(ctx context.Context) error, retryable func(error) bool) error {
	p = p.normalise()

	var lastErr error
	delay := p.BaseDelay

	for attempt := 1; attempt <= p.MaxAttempts; attempt++ {
		lastErr = fn(ctx)
		if lastErr == nil {
			return nil
		}
		if retryable != nil && !retryable(lastErr) {
			return lastErr
		}
		if attempt == p.MaxAttempts {
			break
		}

		logger.Warn("attempt %d/%d failed: %v (retrying in %s)", attempt, p.MaxAttempts, lastErr, delay)

		timer := time.NewTimer(delay)
		select {
		case <-ctx.Done():
			timer.Stop()
			return ctx.Err()
		case <-timer.C:
		}

		delay = time.Duration(float64(delay) * p.Multiplier)
	}

	return lastErr
}
