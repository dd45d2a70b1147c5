package driven

import (
	"context"

	"github.com/scribelabs/askdoc/internal/core/domain"
)

// VectorEntry associates a segment with its embedding vector.
// DocumentID is carried so the index can filter and remove by document
// without consulting the document store.
type VectorEntry struct {
	// SegmentID identifies the segment the vector was computed from.
	SegmentID string

	// DocumentID is the segment's owning document.
	DocumentID string

	// Vector is the unit-normalised embedding.
	Vector []float32
}

// VectorHit is a similarity search result.
type VectorHit struct {
	// SegmentID is the matched segment.
	SegmentID string

	// DocumentID is the segment's owning document.
	DocumentID string

	// Similarity is the inner product with the query vector.
	// Vectors are unit-normalised, so this equals cosine similarity.
	Similarity float64
}

// VectorIndex stores embeddings and answers k-nearest-neighbour queries.
//
// Two backends implement this interface: an exact brute-force scan and
// an approximate clustered (IVF) index. The choice is configuration;
// both order results by the same similarity metric.
//
// Concurrency: Search calls may run in parallel with each other.
// Mutations (Add, Replace, RemoveByDocument) are serialised and
// exclude searches only for the duration of the mutation, so a search
// never observes a half-applied write.
type VectorIndex interface {
	// Add inserts entries, replacing any entry with the same segment ID.
	// Idempotent per segment.
	Add(ctx context.Context, entries []VectorEntry) error

	// Replace atomically removes all entries for a document and inserts
	// the given ones under a single mutation lock. Used for
	// re-ingestion: a concurrent Search never sees the document
	// half-removed, half-added.
	Replace(ctx context.Context, documentID string, entries []VectorEntry) error

	// RemoveByDocument removes all entries owned by the document.
	// Returns the number of entries removed.
	RemoveByDocument(ctx context.Context, documentID string) (int, error)

	// Search returns up to k entries ordered by descending similarity,
	// ties broken by insertion order so results are deterministic.
	// When allowedDocumentIDs is non-empty the search is restricted to
	// those documents and exhausts the scoped subset before returning
	// fewer than k results.
	Search(ctx context.Context, query []float32, k int, allowedDocumentIDs []string) ([]VectorHit, error)

	// Stats reports index size and identity for observability.
	Stats() domain.IndexStats

	// Save serialises the full index state to durable storage.
	Save(ctx context.Context) error

	// Close persists outstanding state and releases resources.
	Close() error
}
