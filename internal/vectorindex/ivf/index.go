// Package ivf provides an approximate vector index backend using an
// inverted-file layout: vectors are grouped by k-means coarse
// clustering, and a search only scans the most promising clusters.
package ivf

import (
	"context"
	"errors"
	"fmt"
	"math"
	"os"
	"sort"
	"sync"

	"github.com/scribelabs/askdoc/internal/core/domain"
	"github.com/scribelabs/askdoc/internal/core/ports/driven"
	"github.com/scribelabs/askdoc/internal/logger"
	"github.com/scribelabs/askdoc/internal/vectorindex"
)

// Ensure Index implements the interface.
var _ driven.VectorIndex = (*Index)(nil)

// Backend is the name this backend writes into persisted headers.
const Backend = "ivf"

// Default clustering parameters.
const (
	DefaultClusters = 16
	DefaultProbes   = 4

	// kmeansIterations bounds the clustering passes per rebuild.
	kmeansIterations = 10

	// flatThreshold is the entry count below which clustering buys
	// nothing; the index scans everything like brute force.
	flatThreshold = 2
)

// Config holds configuration for the IVF index.
type Config struct {
	// Path is where the index is persisted. Empty disables persistence.
	Path string

	// Dimension is the expected vector length.
	Dimension int

	// ModelVersion identifies the embedding space the index holds.
	ModelVersion string

	// Clusters is the number of k-means cells (default 16).
	Clusters int

	// Probes is how many nearest cells a search scans (default 4).
	Probes int
}

// Index is an approximate in-memory vector index with file persistence.
//
// Unscoped searches probe the nearest clusters only. Scoped searches
// (restricted to a document subset) fall back to an exact scan of the
// subset, so scoping never silently under-returns.
type Index struct {
	mu      sync.RWMutex
	entries *vectorindex.Entries

	path         string
	dimension    int
	modelVersion string
	clusters     int
	probes       int

	// Derived clustering state, rebuilt lazily after mutations.
	centroids   [][]float32
	assignments [][]int
	stale       bool
}

// New creates an IVF index, loading persisted state from cfg.Path when
// it exists. The cluster structure is derived data and is rebuilt on
// load rather than persisted.
func New(cfg Config) (*Index, error) {
	if cfg.Dimension <= 0 {
		return nil, fmt.Errorf("%w: index dimension must be positive", domain.ErrInvalidInput)
	}
	if cfg.Clusters <= 0 {
		cfg.Clusters = DefaultClusters
	}
	if cfg.Probes <= 0 {
		cfg.Probes = DefaultProbes
	}
	if cfg.Probes > cfg.Clusters {
		cfg.Probes = cfg.Clusters
	}

	idx := &Index{
		entries:      vectorindex.NewEntries(),
		path:         cfg.Path,
		dimension:    cfg.Dimension,
		modelVersion: cfg.ModelVersion,
		clusters:     cfg.Clusters,
		probes:       cfg.Probes,
		stale:        true,
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
	idx.stale = true
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
	idx.stale = true
	return nil
}

// Replace removes the document's entries and inserts the given ones
// under one write lock.
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
	idx.stale = true
	return nil
}

// RemoveByDocument removes all entries owned by the document.
func (idx *Index) RemoveByDocument(_ context.Context, documentID string) (int, error) {
	idx.mu.Lock()
	defer idx.mu.Unlock()
	removed := idx.entries.RemoveByDocument(documentID)
	if removed > 0 {
		idx.stale = true
	}
	return removed, nil
}

// Search returns the top k entries by descending similarity.
// Scoped searches scan the scoped subset exactly; unscoped searches
// probe the nearest clusters.
func (idx *Index) Search(_ context.Context, query []float32, k int, allowedDocumentIDs []string) ([]driven.VectorHit, error) {
	if len(query) != idx.dimension {
		return nil, fmt.Errorf("%w: query has %d dims, index has %d", domain.ErrInvalidInput, len(query), idx.dimension)
	}

	// Scoped searches pre-filter candidates and scan them all, so the
	// scoped subset is exhausted before returning fewer than k.
	if len(allowedDocumentIDs) > 0 {
		idx.mu.RLock()
		defer idx.mu.RUnlock()
		return vectorindex.RankAll(idx.entries.List(), query, k, vectorindex.AllowedSet(allowedDocumentIDs)), nil
	}

	idx.ensureClusters()

	idx.mu.RLock()
	defer idx.mu.RUnlock()

	list := idx.entries.List()
	if idx.stale || idx.centroids == nil {
		// A mutation landed between the rebuild and this read lock, so
		// the assignments no longer describe the entries list. Scan
		// exactly instead; the next search rebuilds. Also covers flat
		// mode, where too few entries exist to bother clustering.
		return vectorindex.RankAll(list, query, k, nil), nil
	}

	// Rank centroids and gather candidates from the nearest cells.
	type cell struct {
		index      int
		similarity float64
	}
	cells := make([]cell, len(idx.centroids))
	for i, c := range idx.centroids {
		cells[i] = cell{index: i, similarity: vectorindex.Dot(query, c)}
	}
	sort.SliceStable(cells, func(a, b int) bool {
		return cells[a].similarity > cells[b].similarity
	})

	probes := idx.probes
	if probes > len(cells) {
		probes = len(cells)
	}

	var candidateIdx []int
	for _, c := range cells[:probes] {
		candidateIdx = append(candidateIdx, idx.assignments[c.index]...)
	}
	// Keep global insertion order among candidates so tie-breaking
	// matches the exact backend.
	sort.Ints(candidateIdx)

	candidates := make([]driven.VectorEntry, len(candidateIdx))
	for i, e := range candidateIdx {
		candidates[i] = list[e]
	}
	return vectorindex.RankAll(candidates, query, k, nil), nil
}

// ensureClusters rebuilds the cluster structure if mutations have
// invalidated it. Takes the write lock only when a rebuild is needed.
func (idx *Index) ensureClusters() {
	idx.mu.RLock()
	stale := idx.stale
	idx.mu.RUnlock()
	if !stale {
		return
	}

	idx.mu.Lock()
	defer idx.mu.Unlock()
	if !idx.stale {
		return
	}
	idx.rebuildLocked()
	idx.stale = false
}

// rebuildLocked runs deterministic k-means over the current entries.
// Initial centroids are evenly spaced entries, so rebuilds are
// reproducible without any randomness.
func (idx *Index) rebuildLocked() {
	list := idx.entries.List()
	n := len(list)

	if n < idx.clusters*flatThreshold {
		idx.centroids = nil
		idx.assignments = nil
		return
	}

	k := idx.clusters
	centroids := make([][]float32, k)
	for i := 0; i < k; i++ {
		src := list[i*n/k].Vector
		c := make([]float32, idx.dimension)
		copy(c, src)
		centroids[i] = c
	}

	var assignments [][]int
	for iter := 0; iter < kmeansIterations; iter++ {
		assignments = make([][]int, k)
		for i := range list {
			best, bestSim := 0, vectorindex.Dot(list[i].Vector, centroids[0])
			for c := 1; c < k; c++ {
				if sim := vectorindex.Dot(list[i].Vector, centroids[c]); sim > bestSim {
					best, bestSim = c, sim
				}
			}
			assignments[best] = append(assignments[best], i)
		}

		for c := 0; c < k; c++ {
			if len(assignments[c]) == 0 {
				continue // keep previous centroid for empty cells
			}
			mean := make([]float32, idx.dimension)
			for _, e := range assignments[c] {
				for d, v := range list[e].Vector {
					mean[d] += v
				}
			}
			inv := 1.0 / float32(len(assignments[c]))
			for d := range mean {
				mean[d] *= inv
			}
			normalise(mean)
			centroids[c] = mean
		}
	}

	idx.centroids = centroids
	idx.assignments = assignments
	logger.Debug("Rebuilt IVF clusters: %d entries in %d cells", n, k)
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
// Cluster structure is derived and not persisted.
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

func normalise(v []float32) {
	var sum float32
	for _, x := range v {
		sum += x * x
	}
	if sum == 0 {
		return
	}
	inv := float32(1.0 / math.Sqrt(float64(sum)))
	for i := range v {
		v[i] *= inv
	}
}
