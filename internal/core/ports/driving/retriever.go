package driving

import (
	"context"

	"github.com/scribelabs/askdoc/internal/core/domain"
)

// RetrieverService turns documents into indexed entries and queries
// into ranked candidate segments.
type RetrieverService interface {
	// Ingest chunks, embeds and indexes the stored document.
	// All-or-nothing: a failure part way leaves no entries for the
	// document in the index. Returns the number of segments created.
	Ingest(ctx context.Context, documentID string) (int, error)

	// Query embeds the query text and returns ranked candidates,
	// optionally scoped to a document subset. A k larger than the
	// number of available segments returns everything available.
	Query(ctx context.Context, queryText string, opts domain.QueryOptions) (domain.RetrievalResult, error)

	// Remove deletes a document's entries from the vector index.
	Remove(ctx context.Context, documentID string) error

	// Stats reports index state for observability.
	Stats(ctx context.Context) (domain.IndexStats, error)
}
