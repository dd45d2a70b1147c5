package domain

import "errors"

// Domain errors represent business logic failures.
// These are distinct from infrastructure errors.
var (
	// ErrNotFound indicates a requested entity does not exist.
	// Queries scoped to unknown documents return empty results instead;
	// explicit ingestion of a missing document returns this error.
	ErrNotFound = errors.New("not found")

	// ErrAlreadyExists indicates an entity already exists.
	ErrAlreadyExists = errors.New("already exists")

	// ErrInvalidInput indicates malformed or invalid input.
	// This is the caller's fault and is never retried.
	ErrInvalidInput = errors.New("invalid input")

	// ErrEmbeddingUnavailable indicates the embedding model or service
	// cannot be reached. Transient: callers retry with backoff before
	// surfacing it.
	ErrEmbeddingUnavailable = errors.New("embedding service unavailable")

	// ErrAnswerGeneration indicates answer generation failed after the
	// retry budget was exhausted.
	ErrAnswerGeneration = errors.New("answer generation failed")

	// ErrIndexCorrupted indicates the persisted vector index could not
	// be read back (truncated or unreadable file). The caller should
	// rebuild the index from the document store rather than serve an
	// empty index.
	ErrIndexCorrupted = errors.New("vector index corrupted")

	// ErrIndexStale indicates the persisted vector index was produced
	// by a different embedding model or dimension than the active one.
	// Serving it would mix incompatible vector spaces; the caller must
	// rebuild.
	ErrIndexStale = errors.New("vector index stale")

	// LLM client conditions. The composer distinguishes these to decide
	// between retrying with a shorter prompt and failing outright.

	// ErrLLMUnavailable indicates the LLM service cannot be reached.
	ErrLLMUnavailable = errors.New("LLM service unavailable")

	// ErrLLMTimeout indicates the LLM call exceeded its deadline.
	ErrLLMTimeout = errors.New("LLM request timed out")

	// ErrMalformedResponse indicates the LLM returned an unusable
	// response (empty completion, unexpected payload).
	ErrMalformedResponse = errors.New("malformed LLM response")
)
