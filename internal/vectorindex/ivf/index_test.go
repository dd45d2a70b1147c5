package ivf

import (
	"context"
	"fmt"
	"math"
	"path/filepath"
	"sync"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/scribelabs/askdoc/internal/core/domain"
	"github.com/scribelabs/askdoc/internal/core/ports/driven"
)

const dim = 8

// axisVector is a unit vector near coordinate axis `axis`, perturbed
// deterministically by i so entries within a cluster are distinct.
func axisVector(axis, i int) []float32 {
	v := make([]float32, dim)
	v[axis] = 1
	v[(axis+1)%dim] = float32(i) * 0.01
	var sum float32
	for _, x := range v {
		sum += x * x
	}
	inv := float32(1.0 / math.Sqrt(float64(sum)))
	for d := range v {
		v[d] *= inv
	}
	return v
}

func newTestIndex(t *testing.T) *Index {
	t.Helper()
	idx, err := New(Config{Dimension: dim, ModelVersion: "test-model-v1", Clusters: 4, Probes: 2})
	require.NoError(t, err)
	return idx
}

// seedClusters adds 10 entries near each of the first 4 axes, one
// document per axis.
func seedClusters(t *testing.T, idx *Index) {
	t.Helper()
	var entries []driven.VectorEntry
	for axis := 0; axis < 4; axis++ {
		for i := 0; i < 10; i++ {
			entries = append(entries, driven.VectorEntry{
				SegmentID:  fmt.Sprintf("seg-%d-%d", axis, i),
				DocumentID: fmt.Sprintf("doc-%d", axis),
				Vector:     axisVector(axis, i),
			})
		}
	}
	require.NoError(t, idx.Add(context.Background(), entries))
}

func TestSearch_FindsNearestCluster(t *testing.T) {
	idx := newTestIndex(t)
	seedClusters(t, idx)

	hits, err := idx.Search(context.Background(), axisVector(2, 0), 5, nil)
	require.NoError(t, err)
	require.Len(t, hits, 5)

	// All results should come from the axis-2 cluster.
	for _, h := range hits {
		assert.Equal(t, "doc-2", h.DocumentID)
	}
	assert.Equal(t, "seg-2-0", hits[0].SegmentID)
	assert.InDelta(t, 1.0, hits[0].Similarity, 1e-5)
}

func TestSearch_FlatModeBelowThreshold(t *testing.T) {
	idx := newTestIndex(t)
	ctx := context.Background()

	// 3 entries with 4 clusters configured: too few to cluster, the
	// index must still answer exactly.
	require.NoError(t, idx.Add(ctx, []driven.VectorEntry{
		{SegmentID: "seg-1", DocumentID: "doc-a", Vector: axisVector(0, 0)},
		{SegmentID: "seg-2", DocumentID: "doc-a", Vector: axisVector(1, 0)},
		{SegmentID: "seg-3", DocumentID: "doc-b", Vector: axisVector(2, 0)},
	}))

	hits, err := idx.Search(ctx, axisVector(1, 0), 2, nil)
	require.NoError(t, err)
	require.Len(t, hits, 2)
	assert.Equal(t, "seg-2", hits[0].SegmentID)
}

func TestSearch_ScopedIsExact(t *testing.T) {
	idx := newTestIndex(t)
	seedClusters(t, idx)

	// Scope to doc-3 while querying near axis 0: the clustered path
	// would never probe the axis-3 cell, but scoped search must scan
	// the scoped subset exhaustively.
	hits, err := idx.Search(context.Background(), axisVector(0, 0), 10, []string{"doc-3"})
	require.NoError(t, err)
	require.Len(t, hits, 10)
	for _, h := range hits {
		assert.Equal(t, "doc-3", h.DocumentID)
	}
}

func TestSearch_AfterRemoveByDocument(t *testing.T) {
	idx := newTestIndex(t)
	seedClusters(t, idx)
	ctx := context.Background()

	removed, err := idx.RemoveByDocument(ctx, "doc-2")
	require.NoError(t, err)
	assert.Equal(t, 10, removed)

	hits, err := idx.Search(ctx, axisVector(2, 0), 100, []string{"doc-2"})
	require.NoError(t, err)
	assert.Empty(t, hits)

	// Unscoped search near axis 2 now returns other clusters' entries,
	// never the removed ones.
	hits, err = idx.Search(ctx, axisVector(2, 0), 5, nil)
	require.NoError(t, err)
	for _, h := range hits {
		assert.NotEqual(t, "doc-2", h.DocumentID)
	}
}

func TestReplace_RebuildsClusters(t *testing.T) {
	idx := newTestIndex(t)
	seedClusters(t, idx)
	ctx := context.Background()

	require.NoError(t, idx.Replace(ctx, "doc-1", []driven.VectorEntry{
		{SegmentID: "fresh", DocumentID: "doc-1", Vector: axisVector(5, 0)},
	}))

	hits, err := idx.Search(ctx, axisVector(5, 0), 1, nil)
	require.NoError(t, err)
	require.Len(t, hits, 1)
	assert.Equal(t, "fresh", hits[0].SegmentID)

	stats := idx.Stats()
	assert.Equal(t, 31, stats.SegmentCount)
	assert.Equal(t, "ivf", stats.Backend)
}

func TestSaveLoad_RoundTrip(t *testing.T) {
	path := filepath.Join(t.TempDir(), "index.advx")
	ctx := context.Background()

	idx, err := New(Config{Path: path, Dimension: dim, ModelVersion: "test-model-v1", Clusters: 4, Probes: 2})
	require.NoError(t, err)
	seedClusters(t, idx)
	require.NoError(t, idx.Close())

	reloaded, err := New(Config{Path: path, Dimension: dim, ModelVersion: "test-model-v1", Clusters: 4, Probes: 2})
	require.NoError(t, err)

	stats := reloaded.Stats()
	assert.Equal(t, 40, stats.SegmentCount)
	assert.Equal(t, 4, stats.DocumentCount)

	hits, err := reloaded.Search(ctx, axisVector(1, 3), 1, nil)
	require.NoError(t, err)
	require.Len(t, hits, 1)
	assert.Equal(t, "seg-1-3", hits[0].SegmentID)
}

func TestConcurrentSearchAndMutation(t *testing.T) {
	idx := newTestIndex(t)
	seedClusters(t, idx)
	ctx := context.Background()

	// Searchers race against mutations that shrink and regrow the
	// entries list, so cluster assignments built before a mutation are
	// repeatedly invalidated mid-search.
	var wg sync.WaitGroup
	for w := 0; w < 8; w++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			for i := 0; i < 50; i++ {
				hits, err := idx.Search(ctx, axisVector(i%4, 0), 5, nil)
				assert.NoError(t, err)
				assert.NotEmpty(t, hits)
			}
		}()
	}
	wg.Add(1)
	go func() {
		defer wg.Done()
		for i := 0; i < 50; i++ {
			_, err := idx.RemoveByDocument(ctx, "doc-3")
			assert.NoError(t, err)
			var entries []driven.VectorEntry
			for j := 0; j < 10; j++ {
				entries = append(entries, driven.VectorEntry{
					SegmentID:  fmt.Sprintf("seg-3-%d", j),
					DocumentID: "doc-3",
					Vector:     axisVector(3, j),
				})
			}
			assert.NoError(t, idx.Add(ctx, entries))
		}
	}()
	wg.Wait()

	stats := idx.Stats()
	assert.Equal(t, 40, stats.SegmentCount)
	assert.Equal(t, 4, stats.DocumentCount)
}

func TestNew_StaleAcrossBackends(t *testing.T) {
	// A file written by this backend is stale for a mismatched model.
	path := filepath.Join(t.TempDir(), "index.advx")

	idx, err := New(Config{Path: path, Dimension: dim, ModelVersion: "test-model-v1"})
	require.NoError(t, err)
	require.NoError(t, idx.Add(context.Background(), []driven.VectorEntry{
		{SegmentID: "seg-1", DocumentID: "doc-a", Vector: axisVector(0, 0)},
	}))
	require.NoError(t, idx.Close())

	_, err = New(Config{Path: path, Dimension: dim, ModelVersion: "other-model"})
	require.ErrorIs(t, err, domain.ErrIndexStale)
}
