package vectorindex

import "github.com/scribelabs/askdoc/internal/core/ports/driven"

// Entries is the insertion-ordered entry table shared by the backends.
// It is not safe for concurrent use; backends guard it with their own
// lock. Mutations that shrink the table build a fresh slice, so a
// slice handed out by List before the mutation stays intact.
type Entries struct {
	list      []driven.VectorEntry
	bySegment map[string]int
}

// NewEntries creates an empty entry table.
func NewEntries() *Entries {
	return &Entries{bySegment: make(map[string]int)}
}

// Load replaces the table contents with entries loaded from disk.
// Later duplicates of a segment ID win, matching Upsert semantics.
func (e *Entries) Load(list []driven.VectorEntry) {
	e.list = make([]driven.VectorEntry, 0, len(list))
	e.bySegment = make(map[string]int, len(list))
	for i := range list {
		e.Upsert(list[i])
	}
}

// Upsert inserts an entry, or replaces the vector in place when the
// segment is already present. Replacement keeps the original insertion
// position so tie-breaking stays stable across re-adds.
func (e *Entries) Upsert(entry driven.VectorEntry) {
	if i, ok := e.bySegment[entry.SegmentID]; ok {
		e.list[i] = entry
		return
	}
	e.bySegment[entry.SegmentID] = len(e.list)
	e.list = append(e.list, entry)
}

// RemoveByDocument removes all entries owned by the document and
// returns how many were removed.
func (e *Entries) RemoveByDocument(documentID string) int {
	removed := 0
	for i := range e.list {
		if e.list[i].DocumentID == documentID {
			removed++
		}
	}
	if removed == 0 {
		return 0
	}

	kept := make([]driven.VectorEntry, 0, len(e.list)-removed)
	bySegment := make(map[string]int, len(e.list)-removed)
	for i := range e.list {
		if e.list[i].DocumentID == documentID {
			continue
		}
		bySegment[e.list[i].SegmentID] = len(kept)
		kept = append(kept, e.list[i])
	}
	e.list = kept
	e.bySegment = bySegment
	return removed
}

// List returns the entries in insertion order. Callers must not mutate
// the returned slice.
func (e *Entries) List() []driven.VectorEntry {
	return e.list
}

// Len returns the number of entries.
func (e *Entries) Len() int {
	return len(e.list)
}

// DocumentCount returns the number of distinct documents present.
func (e *Entries) DocumentCount() int {
	docs := make(map[string]bool, len(e.list))
	for i := range e.list {
		docs[e.list[i].DocumentID] = true
	}
	return len(docs)
}
