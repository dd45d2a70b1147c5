// Package memory provides in-memory store implementations for tests
// and ephemeral sessions.
package memory

import (
	"context"
	"fmt"
	"sort"
	"sync"
	"time"

	"github.com/scribelabs/askdoc/internal/core/domain"
	"github.com/scribelabs/askdoc/internal/core/ports/driven"
)

var _ driven.DocumentStore = (*DocumentStore)(nil)

// DocumentStore is an in-memory implementation of driven.DocumentStore.
type DocumentStore struct {
	mu        sync.RWMutex
	documents map[string]domain.Document
	segments  map[string][]domain.Segment // keyed by document ID
	listeners []driven.DeletionListener
}

// NewDocumentStore creates an empty in-memory document store.
func NewDocumentStore() *DocumentStore {
	return &DocumentStore{
		documents: make(map[string]domain.Document),
		segments:  make(map[string][]domain.Segment),
	}
}

// SaveDocument stores or updates a document.
func (s *DocumentStore) SaveDocument(ctx context.Context, doc *domain.Document) error {
	if doc.ID == "" {
		return fmt.Errorf("%w: document ID is required", domain.ErrInvalidInput)
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	stored := *doc
	if stored.CreatedAt.IsZero() {
		stored.CreatedAt = time.Now().UTC()
	}
	s.documents[doc.ID] = stored
	return nil
}

// GetDocument retrieves a document by ID.
func (s *DocumentStore) GetDocument(ctx context.Context, id string) (*domain.Document, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	doc, ok := s.documents[id]
	if !ok {
		return nil, domain.ErrNotFound
	}
	return &doc, nil
}

// ListDocuments returns documents belonging to an owner. An empty owner
// lists every document.
func (s *DocumentStore) ListDocuments(ctx context.Context, owner string) ([]domain.Document, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	var docs []domain.Document
	for _, doc := range s.documents {
		if owner == "" || doc.Owner == owner {
			docs = append(docs, doc)
		}
	}

	sort.Slice(docs, func(i, j int) bool {
		if docs[i].CreatedAt.Equal(docs[j].CreatedAt) {
			return docs[i].ID < docs[j].ID
		}
		return docs[i].CreatedAt.Before(docs[j].CreatedAt)
	})

	return docs, nil
}

// SaveSegments replaces the stored segments for a document.
func (s *DocumentStore) SaveSegments(ctx context.Context, segments []domain.Segment) error {
	if len(segments) == 0 {
		return nil
	}

	documentID := segments[0].DocumentID
	for _, seg := range segments {
		if seg.DocumentID != documentID {
			return fmt.Errorf("%w: segments span multiple documents", domain.ErrInvalidInput)
		}
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	stored := make([]domain.Segment, len(segments))
	copy(stored, segments)
	s.segments[documentID] = stored
	return nil
}

// GetSegments retrieves all segments for a document in sequence order.
func (s *DocumentStore) GetSegments(ctx context.Context, documentID string) ([]domain.Segment, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	stored := s.segments[documentID]
	segments := make([]domain.Segment, len(stored))
	copy(segments, stored)
	return segments, nil
}

// GetSegment retrieves a specific segment by ID.
func (s *DocumentStore) GetSegment(ctx context.Context, id string) (*domain.Segment, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	for _, segs := range s.segments {
		for _, seg := range segs {
			if seg.ID == id {
				return &seg, nil
			}
		}
	}
	return nil, domain.ErrNotFound
}

// DeleteSegments removes all segments for a document.
func (s *DocumentStore) DeleteSegments(ctx context.Context, documentID string) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	delete(s.segments, documentID)
	return nil
}

// DeleteDocument removes a document and its segments, then notifies
// deletion listeners.
func (s *DocumentStore) DeleteDocument(ctx context.Context, id string) error {
	s.mu.Lock()
	if _, ok := s.documents[id]; !ok {
		s.mu.Unlock()
		return domain.ErrNotFound
	}
	delete(s.documents, id)
	delete(s.segments, id)

	listeners := make([]driven.DeletionListener, len(s.listeners))
	copy(listeners, s.listeners)
	s.mu.Unlock()

	for _, fn := range listeners {
		fn(id)
	}
	return nil
}

// SubscribeDeletions registers a listener for document deletions.
func (s *DocumentStore) SubscribeDeletions(fn driven.DeletionListener) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.listeners = append(s.listeners, fn)
}
