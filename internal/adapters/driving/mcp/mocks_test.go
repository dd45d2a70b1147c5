package mcp

import (
	"context"

	"github.com/scribelabs/askdoc/internal/core/domain"
	"github.com/scribelabs/askdoc/internal/core/ports/driving"
)

// mockRetriever implements driving.RetrieverService.
type mockRetriever struct {
	ingestCount int
	ingestErr   error
	result      domain.RetrievalResult
	queryErr    error
	lastOpts    domain.QueryOptions
	stats       domain.IndexStats
}

func (m *mockRetriever) Ingest(_ context.Context, documentID string) (int, error) {
	if m.ingestErr != nil {
		return 0, m.ingestErr
	}
	return m.ingestCount, nil
}

func (m *mockRetriever) Query(_ context.Context, _ string, opts domain.QueryOptions) (domain.RetrievalResult, error) {
	m.lastOpts = opts
	if m.queryErr != nil {
		return domain.RetrievalResult{}, m.queryErr
	}
	return m.result, nil
}

func (m *mockRetriever) Remove(context.Context, string) error { return nil }

func (m *mockRetriever) Stats(context.Context) (domain.IndexStats, error) {
	return m.stats, nil
}

// mockAnswer implements driving.AnswerService.
type mockAnswer struct {
	answer   *domain.Answer
	err      error
	lastOpts driving.ComposeOptions
}

func (m *mockAnswer) Compose(
	_ context.Context, _ string, _ domain.RetrievalResult, opts driving.ComposeOptions,
) (*domain.Answer, error) {
	m.lastOpts = opts
	if m.err != nil {
		return nil, m.err
	}
	return m.answer, nil
}
