package retrying

import (
	"context"
	"fmt"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/scribelabs/askdoc/internal/core/domain"
	"github.com/scribelabs/askdoc/internal/core/ports/driven"
	"github.com/scribelabs/askdoc/internal/retry"
)

type fakeLLM struct {
	failuresLeft int
	failWith     error
	calls        int
}

func (f *fakeLLM) Generate(ctx context.Context, prompt string, opts driven.GenerateOptions) (string, error) {
	f.calls++
	if f.failuresLeft > 0 {
		f.failuresLeft--
		return "", f.failWith
	}
	return "answer", nil
}

func (f *fakeLLM) ModelName() string { return "fake" }
func (f *fakeLLM) Close() error      { return nil }

func fastPolicy() retry.Policy {
	return retry.Policy{MaxAttempts: 3, BaseDelay: time.Millisecond, Multiplier: 1}
}

func TestGenerate_RetriesUnavailable(t *testing.T) {
	inner := &fakeLLM{
		failuresLeft: 2,
		failWith:     fmt.Errorf("%w: connection refused", domain.ErrLLMUnavailable),
	}
	s := Wrap(inner, fastPolicy())

	text, err := s.Generate(context.Background(), "prompt", driven.GenerateOptions{})
	require.NoError(t, err)
	assert.Equal(t, "answer", text)
	assert.Equal(t, 3, inner.calls)
}

func TestGenerate_TimeoutNotRetried(t *testing.T) {
	inner := &fakeLLM{
		failuresLeft: 10,
		failWith:     fmt.Errorf("%w: deadline exceeded", domain.ErrLLMTimeout),
	}
	s := Wrap(inner, fastPolicy())

	_, err := s.Generate(context.Background(), "prompt", driven.GenerateOptions{})
	require.ErrorIs(t, err, domain.ErrLLMTimeout)
	assert.Equal(t, 1, inner.calls)
}

func TestGenerate_MalformedNotRetried(t *testing.T) {
	inner := &fakeLLM{
		failuresLeft: 10,
		failWith:     fmt.Errorf("%w: empty completion", domain.ErrMalformedResponse),
	}
	s := Wrap(inner, fastPolicy())

	_, err := s.Generate(context.Background(), "prompt", driven.GenerateOptions{})
	require.ErrorIs(t, err, domain.ErrMalformedResponse)
	assert.Equal(t, 1, inner.calls)
}

func TestGenerate_ExhaustsAttempts(t *testing.T) {
	inner := &fakeLLM{
		failuresLeft: 10,
		failWith:     fmt.Errorf("%w: connection refused", domain.ErrLLMUnavailable),
	}
	s := Wrap(inner, fastPolicy())

	_, err := s.Generate(context.Background(), "prompt", driven.GenerateOptions{})
	require.ErrorIs(t, err, domain.ErrLLMUnavailable)
	assert.Equal(t, 3, inner.calls)
}
