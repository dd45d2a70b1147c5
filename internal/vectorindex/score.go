package vectorindex

import (
	"sort"

	"github.com/scribelabs/askdoc/internal/core/ports/driven"
)

// Dot returns the inner product of two vectors. On unit-normalised
// vectors this equals cosine similarity.
func Dot(a, b []float32) float64 {
	var sum float32
	for i := range a {
		sum += a[i] * b[i]
	}
	return float64(sum)
}

// scored pairs an entry with its similarity and original position so
// ties can be broken by insertion order.
type scored struct {
	index      int
	similarity float64
}

// RankAll scores every candidate entry against the query and returns
// the top k as hits ordered by descending similarity. Ties are broken
// by insertion order, keeping results deterministic. A nil allowed set
// means no scope filter; a non-nil set pre-filters candidates so a
// scoped search exhausts the scoped subset before returning fewer
// than k results.
func RankAll(entries []driven.VectorEntry, query []float32, k int, allowed map[string]bool) []driven.VectorHit {
	if k <= 0 {
		return nil
	}

	candidates := make([]scored, 0, len(entries))
	for i := range entries {
		if allowed != nil && !allowed[entries[i].DocumentID] {
			continue
		}
		candidates = append(candidates, scored{
			index:      i,
			similarity: Dot(query, entries[i].Vector),
		})
	}

	sort.SliceStable(candidates, func(a, b int) bool {
		return candidates[a].similarity > candidates[b].similarity
	})

	if k < len(candidates) {
		candidates = candidates[:k]
	}

	hits := make([]driven.VectorHit, len(candidates))
	for i, c := range candidates {
		hits[i] = driven.VectorHit{
			SegmentID:  entries[c.index].SegmentID,
			DocumentID: entries[c.index].DocumentID,
			Similarity: c.similarity,
		}
	}
	return hits
}

// AllowedSet converts a document ID list into a lookup set.
// Returns nil for an empty list, meaning no filter.
func AllowedSet(ids []string) map[string]bool {
	if len(ids) == 0 {
		return nil
	}
	set := make(map[string]bool, len(ids))
	for _, id := range ids {
		set[id] = true
	}
	return set
}
