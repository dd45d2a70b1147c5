// Package bruteforce provides an exact vector index backend.
// Every search scans all candidate vectors, which is correct and fast
// enough for corpora below roughly 100K segments.
package bruteforce

import (
	"context"
	"errors"
	"fmt"
	"os"
	"sync"

	"github.com/scribelabs/askdoc/internal/core/domain"
	"github.com/scribelabs/askdoc/internal/core/ports/driven"
	"github.com/scribelabs/askdoc/internal/logger"
	"github.com/scribelabs/askdoc/internal/vectorindex"
)

// Ensure Index implements the interface.
var _ driven.VectorIndex = (*Index)(nil)

// Backend is the name this backend writes into persisted headers.
const Backend = "bruteforce"

// Config holds configuration for the brute-force index.
type Config struct {
	// Path is where the index is persisted. Empty disables persistence.
	Path string

	// Dimension is the expected vector length.
	Dimension int

	// ModelVersion identifies the embedding space the index holds.
	ModelVersion string
}

// Index is an exact in-memory vector index with file persistence.
//
// Searches take a read lock and may run fully in parallel; mutations
// take the write lock only for the duration of the mutation.
type Index struct {
	mu      sync.RWMutex
	entries *vectorindex.Entries

	path         string
	dimension    int
	modelVersion string
}

// New creates a brute-force index, loading persisted state from
// cfg.Path when it exists. Corrupt or stale files surface as
// domain.ErrIndexCorrupted / domain.ErrIndexStale so the caller can
// rebuild from the document store.
func New(cfg Config) (*Index, error) {
	if cfg.Dimension <= 0 {
		return nil, fmt.Errorf("%w: index dimension must be positive", domain.ErrInvalidInput)
	}

	idx := &Index{
		entries:      vectorindex.NewEntries(),
		path:         cfg.Path,
		dimension:    cfg.Dimension,
		modelVersion: cfg.ModelVersion,
	}

	if cfg.Path != "" {
		if err := idx.load(); err != nil && !errors.Is(err, os.ErrNotExist) {
			return nil, err
		}
	}

	return idx, nil
}

func (idx *Index) load() error {
	want := vectorindex.Header{
		Backend:      Backend,
		ModelVersion: idx.modelVersion,
		Dimension:    idx.dimension,
	}
	h, entries, err := vectorindex.ReadFile(idx.path, want)
	if err != nil {
		return err
	}
	idx.entries.Load(entries)
	logger.Debug("Loaded %d vectors from %s (%s)", h.EntryCount, idx.path, h.ModelVersion)
	return nil
}

// Add inserts entries, replacing any entry with the same segment ID.
func (idx *Index) Add(_ context.Context, entries []driven.VectorEntry) error {
	if err := idx.validate(entries); err != nil {
		return err
	}

	idx.mu.Lock()
	defer idx.mu.Unlock()
	for i := range entries {
		idx.entries.Upsert(entries[i])
	}
	return nil
}

// Replace removes the document's entries and inserts the given ones
// under one write lock, so a concurrent search never sees the document
// half-removed, half-added.
func (idx *Index) Replace(_ context.Context, documentID string, entries []driven.VectorEntry) error {
	if err := idx.validate(entries); err != nil {
		return err
	}

	idx.mu.Lock()
	defer idx.mu.Unlock()
	idx.entries.RemoveByDocument(documentID)
	for i := range entries {
		idx.entries.Upsert(entries[i])
	}
	return nil
}

// RemoveByDocument removes all entries owned by the document.
func (idx *Index) RemoveByDocument(_ context.Context, documentID string) (int, error) {
	idx.mu.Lock()
	defer idx.mu.Unlock()
	return idx.entries.RemoveByDocument(documentID), nil
}

// Search scans every candidate vector and returns the top k by
// descending similarity, ties broken by insertion order.
func (idx *Index) Search(_ context.Context, query []float32, k int, allowedDocumentIDs []string) ([]driven.VectorHit, error) {
	if len(query) != idx.dimension {
		return nil, fmt.Errorf("%w: query has %d dims, index has %d", domain.ErrInvalidInput, len(query), idx.dimension)
	}

	idx.mu.RLock()
	defer idx.mu.RUnlock()
	return vectorindex.RankAll(idx.entries.List(), query, k, vectorindex.AllowedSet(allowedDocumentIDs)), nil
}

// Stats reports index size and identity.
func (idx *Index) Stats() domain.IndexStats {
	idx.mu.RLock()
	defer idx.mu.RUnlock()
	return domain.IndexStats{
		SegmentCount:  idx.entries.Len(),
		DocumentCount: idx.entries.DocumentCount(),
		Backend:       Backend,
		ModelVersion:  idx.modelVersion,
	}
}

// Save serialises the full index state to the configured path.
func (idx *Index) Save(_ context.Context) error {
	if idx.path == "" {
		return nil
	}

	idx.mu.RLock()
	entries := make([]driven.VectorEntry, len(idx.entries.List()))
	copy(entries, idx.entries.List())
	idx.mu.RUnlock()

	h := vectorindex.Header{
		Backend:      Backend,
		ModelVersion: idx.modelVersion,
		Dimension:    idx.dimension,
	}
	return vectorindex.WriteFile(idx.path, h, entries)
}

// Close persists outstanding state.
func (idx *Index) Close() error {
	return idx.Save(context.Background())
}

func (idx *Index) validate(entries []driven.VectorEntry) error {
	for i := range entries {
		if len(entries[i].Vector) != idx.dimension {
			return fmt.Errorf("%w: entry %s has %d dims, index has %d",
				domain.ErrInvalidInput, entries[i].SegmentID, len(entries[i].Vector), idx.dimension)
		}
	}
	return nil
}
