package cli

import (
	"context"

	"github.com/scribelabs/askdoc/internal/adapters/driven/storage/memory"
	"github.com/scribelabs/askdoc/internal/core/domain"
	"github.com/scribelabs/askdoc/internal/core/ports/driving"
)

// stubRetriever is a canned RetrieverService for command tests.
type stubRetriever struct {
	segments int
	result   domain.RetrievalResult
	stats    domain.IndexStats

	lastQueryOpts domain.QueryOptions
}

func (s *stubRetriever) Ingest(context.Context, string) (int, error) {
	return s.segments, nil
}

func (s *stubRetriever) Query(_ context.Context, _ string, opts domain.QueryOptions) (domain.RetrievalResult, error) {
	s.lastQueryOpts = opts
	return s.result, nil
}

func (s *stubRetriever) Remove(context.Context, string) error { return nil }

func (s *stubRetriever) Stats(context.Context) (domain.IndexStats, error) {
	return s.stats, nil
}

// stubAnswer is a canned AnswerService for command tests.
type stubAnswer struct {
	answer *domain.Answer
}

func (s *stubAnswer) Compose(
	context.Context, string, domain.RetrievalResult, driving.ComposeOptions,
) (*domain.Answer, error) {
	return s.answer, nil
}

// setupTestServices installs stub services and returns a cleanup func.
func setupTestServices() func() {
	oldRetriever := retrieverService
	oldAnswer := answerService
	oldStore := documentStore

	retrieverService = &stubRetriever{
		segments: 4,
		result: domain.RetrievalResult{Hits: []domain.RetrievalHit{
			{SegmentID: "seg-1", DocumentID: "doc-1", Score: 0.91},
		}},
		stats: domain.IndexStats{
			SegmentCount:  12,
			DocumentCount: 2,
			Backend:       "bruteforce",
			ModelVersion:  "mock/v1",
		},
	}
	answerService = &stubAnswer{
		answer: &domain.Answer{
			Text:  "A grounded answer.",
			Style: domain.StyleConcise,
			Citations: []domain.Citation{
				{SegmentID: "seg-1", DocumentID: "doc-1", Score: 0.91},
			},
		},
	}
	documentStore = memory.NewDocumentStore()

	return func() {
		retrieverService = oldRetriever
		answerService = oldAnswer
		documentStore = oldStore
	}
}
