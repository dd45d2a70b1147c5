package services

import (
	"context"
	"fmt"
	"sort"
	"strings"
	"sync"

	"github.com/scribelabs/askdoc/internal/core/domain"
	"github.com/scribelabs/askdoc/internal/core/ports/driven"
)

// mockDocStore is an in-memory DocumentStore for tests.
type mockDocStore struct {
	mu        sync.Mutex
	documents map[string]domain.Document
	segments  map[string][]domain.Segment
	listeners []driven.DeletionListener

	saveSegmentsErr error
	deleteSegCalls  int
}

func newMockDocStore() *mockDocStore {
	return &mockDocStore{
		documents: make(map[string]domain.Document),
		segments:  make(map[string][]domain.Segment),
	}
}

func (m *mockDocStore) SaveDocument(_ context.Context, doc *domain.Document) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.documents[doc.ID] = *doc
	return nil
}

func (m *mockDocStore) GetDocument(_ context.Context, id string) (*domain.Document, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	doc, ok := m.documents[id]
	if !ok {
		return nil, domain.ErrNotFound
	}
	return &doc, nil
}

func (m *mockDocStore) ListDocuments(_ context.Context, owner string) ([]domain.Document, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	var docs []domain.Document
	for _, doc := range m.documents {
		if owner == "" || doc.Owner == owner {
			docs = append(docs, doc)
		}
	}
	sort.Slice(docs, func(i, j int) bool { return docs[i].ID < docs[j].ID })
	return docs, nil
}

func (m *mockDocStore) SaveSegments(_ context.Context, segments []domain.Segment) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.saveSegmentsErr != nil {
		return m.saveSegmentsErr
	}
	if len(segments) > 0 {
		m.segments[segments[0].DocumentID] = segments
	}
	return nil
}

func (m *mockDocStore) GetSegments(_ context.Context, documentID string) ([]domain.Segment, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.segments[documentID], nil
}

func (m *mockDocStore) GetSegment(_ context.Context, id string) (*domain.Segment, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	for _, segs := range m.segments {
		for _, seg := range segs {
			if seg.ID == id {
				return &seg, nil
			}
		}
	}
	return nil, domain.ErrNotFound
}

func (m *mockDocStore) DeleteSegments(_ context.Context, documentID string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.deleteSegCalls++
	delete(m.segments, documentID)
	return nil
}

func (m *mockDocStore) DeleteDocument(_ context.Context, id string) error {
	m.mu.Lock()
	if _, ok := m.documents[id]; !ok {
		m.mu.Unlock()
		return domain.ErrNotFound
	}
	delete(m.documents, id)
	delete(m.segments, id)
	listeners := append([]driven.DeletionListener(nil), m.listeners...)
	m.mu.Unlock()

	for _, fn := range listeners {
		fn(id)
	}
	return nil
}

func (m *mockDocStore) SubscribeDeletions(fn driven.DeletionListener) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.listeners = append(m.listeners, fn)
}

// mockEmbedder returns deterministic unit vectors derived from text
// length so similarity rankings are predictable.
type mockEmbedder struct {
	dims       int
	batchErr   error
	queryErr   error
	batchCalls int
}

func newMockEmbedder() *mockEmbedder {
	return &mockEmbedder{dims: 4}
}

func (m *mockEmbedder) Open(context.Context) error { return nil }

func (m *mockEmbedder) vector(text string) []float32 {
	v := make([]float32, m.dims)
	// Bucket by text length; same bucket, same direction.
	v[len(text)%m.dims] = 1
	return v
}

func (m *mockEmbedder) EmbedBatch(_ context.Context, texts []string) ([][]float32, error) {
	m.batchCalls++
	if m.batchErr != nil {
		return nil, m.batchErr
	}
	out := make([][]float32, len(texts))
	for i, t := range texts {
		out[i] = m.vector(t)
	}
	return out, nil
}

func (m *mockEmbedder) EmbedQuery(_ context.Context, text string) ([]float32, error) {
	if m.queryErr != nil {
		return nil, m.queryErr
	}
	return m.vector(text), nil
}

func (m *mockEmbedder) Dimensions() int      { return m.dims }
func (m *mockEmbedder) ModelVersion() string { return "mock/v1" }
func (m *mockEmbedder) Close() error         { return nil }

// mockIndex is an in-memory VectorIndex for tests.
type mockIndex struct {
	mu         sync.Mutex
	entries    []driven.VectorEntry
	replaceErr error
	searchErr  error
}

func newMockIndex() *mockIndex {
	return &mockIndex{}
}

func (m *mockIndex) Add(_ context.Context, entries []driven.VectorEntry) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.entries = append(m.entries, entries...)
	return nil
}

func (m *mockIndex) Replace(_ context.Context, documentID string, entries []driven.VectorEntry) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.replaceErr != nil {
		return m.replaceErr
	}
	m.removeLocked(documentID)
	m.entries = append(m.entries, entries...)
	return nil
}

func (m *mockIndex) removeLocked(documentID string) int {
	kept := m.entries[:0]
	removed := 0
	for _, e := range m.entries {
		if e.DocumentID == documentID {
			removed++
			continue
		}
		kept = append(kept, e)
	}
	m.entries = kept
	return removed
}

func (m *mockIndex) RemoveByDocument(_ context.Context, documentID string) (int, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.removeLocked(documentID), nil
}

func (m *mockIndex) Search(_ context.Context, query []float32, k int, allowed []string) ([]driven.VectorHit, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.searchErr != nil {
		return nil, m.searchErr
	}

	allowedSet := make(map[string]bool, len(allowed))
	for _, id := range allowed {
		allowedSet[id] = true
	}

	var hits []driven.VectorHit
	for _, e := range m.entries {
		if len(allowedSet) > 0 && !allowedSet[e.DocumentID] {
			continue
		}
		var sim float64
		for i := range query {
			sim += float64(query[i]) * float64(e.Vector[i])
		}
		hits = append(hits, driven.VectorHit{
			SegmentID:  e.SegmentID,
			DocumentID: e.DocumentID,
			Similarity: sim,
		})
	}

	sort.SliceStable(hits, func(i, j int) bool { return hits[i].Similarity > hits[j].Similarity })
	if len(hits) > k {
		hits = hits[:k]
	}
	return hits, nil
}

func (m *mockIndex) Stats() domain.IndexStats {
	m.mu.Lock()
	defer m.mu.Unlock()
	docs := make(map[string]bool)
	for _, e := range m.entries {
		docs[e.DocumentID] = true
	}
	return domain.IndexStats{
		SegmentCount:  len(m.entries),
		DocumentCount: len(docs),
		Backend:       "mock",
		ModelVersion:  "mock/v1",
	}
}

func (m *mockIndex) Save(context.Context) error { return nil }
func (m *mockIndex) Close() error               { return nil }

// mockLLM records prompts and replays scripted responses.
type mockLLM struct {
	mu       sync.Mutex
	prompts  []string
	response string
	errs     []error // consumed one per call; nil entries mean success
}

func newMockLLM(response string) *mockLLM {
	return &mockLLM{response: response}
}

func (m *mockLLM) Generate(_ context.Context, prompt string, _ driven.GenerateOptions) (string, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.prompts = append(m.prompts, prompt)
	if len(m.errs) > 0 {
		err := m.errs[0]
		m.errs = m.errs[1:]
		if err != nil {
			return "", err
		}
	}
	return m.response, nil
}

func (m *mockLLM) lastPrompt() string {
	m.mu.Lock()
	defer m.mu.Unlock()
	if len(m.prompts) == 0 {
		return ""
	}
	return m.prompts[len(m.prompts)-1]
}

func (m *mockLLM) ModelName() string { return "mock" }
func (m *mockLLM) Close() error      { return nil }

// seedSegments stores n segments for a document directly in the mock
// store, bypassing chunking.
func seedSegments(store *mockDocStore, documentID string, n int) []domain.Segment {
	segs := make([]domain.Segment, n)
	for i := range segs {
		segs[i] = domain.Segment{
			ID:         fmt.Sprintf("%s-seg-%d", documentID, i),
			DocumentID: documentID,
			Sequence:   i,
			Text:       fmt.Sprintf("Sentence number %d. %s", i, strings.Repeat("More text. ", 3)),
		}
	}
	store.segments[documentID] = segs
	return segs
}
