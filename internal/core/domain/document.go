package domain

import "time"

// Document represents an ingested document.
// Text extraction (PDF, DOCX) happens upstream; Content is plain text.
// Documents are immutable after creation: re-ingestion replaces the
// derived segments and vectors, never the document identity.
type Document struct {
	// ID is the unique identifier for the document.
	ID string

	// Owner identifies who uploaded the document.
	// The core does not interpret this beyond scoping queries.
	Owner string

	// Title is the human-readable title.
	Title string

	// Content is the full plain-text content before segmentation.
	Content string

	// Metadata contains arbitrary key-value pairs.
	Metadata map[string]any

	// CreatedAt is when the document was ingested.
	CreatedAt time.Time
}

// Segment represents a retrievable unit within a document.
// Documents are split into overlapping segments; the segment is the
// atomic unit of retrieval and citation.
//
// Invariant: segments of the same document are ordered by Sequence,
// and their [StartOffset, EndOffset) windows increase monotonically
// while together covering the whole document text.
type Segment struct {
	// ID is the unique identifier for the segment.
	ID string

	// DocumentID links to the parent Document.
	DocumentID string

	// Sequence is the ordinal position within the document.
	Sequence int

	// Text is the segment's text content.
	Text string

	// StartOffset is the byte offset of Text within the parent content.
	StartOffset int

	// EndOffset is the byte offset one past the end of Text.
	EndOffset int
}
