package services

import (
	"context"
	"fmt"
	"strings"

	"github.com/scribelabs/askdoc/internal/chunker"
	"github.com/scribelabs/askdoc/internal/core/domain"
	"github.com/scribelabs/askdoc/internal/core/ports/driven"
	"github.com/scribelabs/askdoc/internal/core/ports/driving"
	"github.com/scribelabs/askdoc/internal/logger"
)

// Ensure RetrieverService implements the interface.
var _ driving.RetrieverService = (*RetrieverService)(nil)

// Default retrieval parameters.
const (
	// DefaultK is the number of candidates returned when the caller
	// does not specify one.
	DefaultK = 5

	// DefaultOverfetchRatio is how many times k the service requests
	// from the index before applying per-document caps.
	DefaultOverfetchRatio = 3
)

// RetrieverOptions tunes retrieval behaviour.
type RetrieverOptions struct {
	// OverfetchRatio multiplies k for the index request so per-document
	// caps still leave enough candidates. Zero means the default.
	OverfetchRatio int

	// MaxPerDocument caps how many hits a single document may
	// contribute. Zero means unlimited.
	MaxPerDocument int
}

// RetrieverService implements ingestion and similarity retrieval.
type RetrieverService struct {
	docStore    driven.DocumentStore
	embedder    driven.Embedder
	vectorIndex driven.VectorIndex
	chunker     *chunker.Chunker
	opts        RetrieverOptions
}

// NewRetrieverService creates a retriever service and subscribes it to
// document deletions so the index stays in step with the store.
func NewRetrieverService(
	docStore driven.DocumentStore,
	embedder driven.Embedder,
	vectorIndex driven.VectorIndex,
	chk *chunker.Chunker,
	opts RetrieverOptions,
) *RetrieverService {
	if opts.OverfetchRatio <= 0 {
		opts.OverfetchRatio = DefaultOverfetchRatio
	}

	s := &RetrieverService{
		docStore:    docStore,
		embedder:    embedder,
		vectorIndex: vectorIndex,
		chunker:     chk,
		opts:        opts,
	}

	docStore.SubscribeDeletions(func(documentID string) {
		removed, err := vectorIndex.RemoveByDocument(context.Background(), documentID)
		if err != nil {
			logger.Error("Failed to remove vectors for deleted document %s: %v", documentID, err)
			return
		}
		logger.Debug("Removed %d vectors for deleted document %s", removed, documentID)
	})

	return s
}

// Ingest chunks, embeds and indexes the stored document. All-or-nothing:
// a failure part way leaves no entries for the document in the index.
// Re-ingestion replaces the document's previous entries atomically.
func (s *RetrieverService) Ingest(ctx context.Context, documentID string) (int, error) {
	logger.Section("Ingest")
	logger.Debug("Document: %s", documentID)

	doc, err := s.docStore.GetDocument(ctx, documentID)
	if err != nil {
		return 0, fmt.Errorf("get document %s: %w", documentID, err)
	}

	segments, err := s.chunker.Chunk(doc)
	if err != nil {
		return 0, fmt.Errorf("chunk document %s: %w", documentID, err)
	}
	logger.Debug("Chunked into %d segments", len(segments))

	if err := s.docStore.SaveSegments(ctx, segments); err != nil {
		return 0, fmt.Errorf("save segments: %w", err)
	}

	texts := make([]string, len(segments))
	for i, seg := range segments {
		texts[i] = seg.Text
	}

	vectors, err := s.embedder.EmbedBatch(ctx, texts)
	if err != nil {
		// Roll back the stored segments so a later retry starts clean.
		if rbErr := s.docStore.DeleteSegments(ctx, documentID); rbErr != nil {
			logger.Error("Rollback of segments for %s failed: %v", documentID, rbErr)
		}
		return 0, fmt.Errorf("embed segments: %w", err)
	}
	if len(vectors) != len(segments) {
		if rbErr := s.docStore.DeleteSegments(ctx, documentID); rbErr != nil {
			logger.Error("Rollback of segments for %s failed: %v", documentID, rbErr)
		}
		return 0, fmt.Errorf("%w: got %d vectors for %d segments",
			domain.ErrEmbeddingUnavailable, len(vectors), len(segments))
	}

	entries := make([]driven.VectorEntry, len(segments))
	for i, seg := range segments {
		entries[i] = driven.VectorEntry{
			SegmentID:  seg.ID,
			DocumentID: documentID,
			Vector:     vectors[i],
		}
	}

	// Replace is atomic under the index's mutation lock: searches see
	// either the old segment set or the new one, never a mix.
	if err := s.vectorIndex.Replace(ctx, documentID, entries); err != nil {
		if rbErr := s.docStore.DeleteSegments(ctx, documentID); rbErr != nil {
			logger.Error("Rollback of segments for %s failed: %v", documentID, rbErr)
		}
		return 0, fmt.Errorf("index segments: %w", err)
	}

	logger.Info("Ingested document %s: %d segments", documentID, len(segments))
	return len(segments), nil
}

// Query embeds the query text and returns ranked candidates.
func (s *RetrieverService) Query(
	ctx context.Context, queryText string, opts domain.QueryOptions,
) (domain.RetrievalResult, error) {
	logger.Section("Query")
	logger.Debug("Query: %q", queryText)

	if strings.TrimSpace(queryText) == "" {
		return domain.RetrievalResult{}, fmt.Errorf("%w: empty query", domain.ErrInvalidInput)
	}

	k := opts.K
	if k <= 0 {
		k = DefaultK
	}

	queryVector, err := s.embedder.EmbedQuery(ctx, queryText)
	if err != nil {
		return domain.RetrievalResult{}, fmt.Errorf("embed query: %w", err)
	}

	// Over-fetch so per-document caps still leave k candidates.
	fetchK := k * s.opts.OverfetchRatio
	logger.Debug("k=%d, fetching %d candidates", k, fetchK)

	hits, err := s.vectorIndex.Search(ctx, queryVector, fetchK, opts.DocumentIDs)
	if err != nil {
		return domain.RetrievalResult{}, fmt.Errorf("vector search: %w", err)
	}
	logger.Debug("Index returned %d hits", len(hits))

	result := domain.RetrievalResult{}
	perDocument := make(map[string]int)
	for _, hit := range hits {
		if s.opts.MaxPerDocument > 0 && perDocument[hit.DocumentID] >= s.opts.MaxPerDocument {
			continue
		}
		perDocument[hit.DocumentID]++

		result.Hits = append(result.Hits, domain.RetrievalHit{
			SegmentID:  hit.SegmentID,
			DocumentID: hit.DocumentID,
			Score:      hit.Similarity,
		})
		if len(result.Hits) == k {
			break
		}
	}

	logger.Info("Query returned %d hits", len(result.Hits))
	return result, nil
}

// Remove deletes a document's entries from the vector index.
func (s *RetrieverService) Remove(ctx context.Context, documentID string) error {
	removed, err := s.vectorIndex.RemoveByDocument(ctx, documentID)
	if err != nil {
		return fmt.Errorf("remove document %s from index: %w", documentID, err)
	}
	logger.Debug("Removed %d index entries for document %s", removed, documentID)
	return nil
}

// Stats reports index state for observability.
func (s *RetrieverService) Stats(ctx context.Context) (domain.IndexStats, error) {
	return s.vectorIndex.Stats(), nil
}
