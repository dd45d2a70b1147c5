package driven

import (
	"context"

	"github.com/scribelabs/askdoc/internal/core/domain"
)

// DeletionListener is notified after a document and its segments have
// been removed from the store. The retriever subscribes to keep the
// vector index in step with document deletions.
type DeletionListener func(documentID string)

// DocumentStore persists documents and their segments.
// Backed by SQLite for durable storage, with an in-memory
// implementation for tests.
type DocumentStore interface {
	// SaveDocument stores or updates a document.
	SaveDocument(ctx context.Context, doc *domain.Document) error

	// GetDocument retrieves a document by ID.
	GetDocument(ctx context.Context, id string) (*domain.Document, error)

	// ListDocuments returns documents belonging to an owner.
	// An empty owner lists every document.
	ListDocuments(ctx context.Context, owner string) ([]domain.Document, error)

	// SaveSegments replaces the stored segments for a document.
	// Segments must belong to a single document and arrive in
	// sequence order.
	SaveSegments(ctx context.Context, segments []domain.Segment) error

	// GetSegments retrieves all segments for a document in sequence order.
	GetSegments(ctx context.Context, documentID string) ([]domain.Segment, error)

	// GetSegment retrieves a specific segment by ID.
	GetSegment(ctx context.Context, id string) (*domain.Segment, error)

	// DeleteSegments removes all segments for a document without
	// touching the document itself. Used to roll back a failed ingest.
	DeleteSegments(ctx context.Context, documentID string) error

	// DeleteDocument removes a document and cascades to its segments.
	// Deletion listeners fire after the removal is durable.
	DeleteDocument(ctx context.Context, id string) error

	// SubscribeDeletions registers a listener for document deletions.
	SubscribeDeletions(fn DeletionListener)
}
