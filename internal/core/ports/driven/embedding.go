package driven

import "context"

// Embedder generates vector embeddings from text.
//
// Embedders have an explicit two-phase lifecycle: construction is
// cheap and cannot fail on connectivity, Open validates the model or
// service is actually reachable, Close releases resources. This keeps
// failures at a predictable point instead of surfacing on first use.
//
// Implementations may include:
//   - Ollama (nomic-embed-text, all-minilm)
//   - OpenAI (text-embedding-3-small, text-embedding-3-large)
type Embedder interface {
	// Open validates the underlying model or service is reachable.
	// Returns domain.ErrEmbeddingUnavailable when it is not.
	Open(ctx context.Context) error

	// EmbedBatch generates unit-normalised embeddings for the given
	// texts. Output order always matches input order; any internal
	// batching is not observable. Returns one vector per input, each
	// of length Dimensions().
	EmbedBatch(ctx context.Context, texts []string) ([][]float32, error)

	// EmbedQuery generates a unit-normalised embedding for a query.
	// It may apply query-side preprocessing, but reports the same
	// model version and dimensionality as document embedding.
	EmbedQuery(ctx context.Context, text string) ([]float32, error)

	// Dimensions returns the embedding vector size (e.g. 384, 768, 1536).
	// This must match the VectorIndex configuration.
	Dimensions() int

	// ModelVersion returns a stable string distinguishing incompatible
	// embedding spaces. Persisted vectors carry it so the index can
	// detect staleness.
	ModelVersion() string

	// Close releases resources.
	Close() error
}
