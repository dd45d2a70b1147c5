// Package chunker splits document text into overlapping bounded-length
// segments, the atomic units of retrieval.
package chunker

import (
	"fmt"
	"strings"
	"unicode"
	"unicode/utf8"

	"github.com/google/uuid"

	"github.com/scribelabs/askdoc/internal/core/domain"
)

// DefaultChunkSize is the default number of characters per segment.
const DefaultChunkSize = 1000

// DefaultOverlap is the default number of overlapping characters.
const DefaultOverlap = 200

// DefaultMinChunkSize is the smallest trimmed segment worth embedding.
const DefaultMinChunkSize = 50

// lookbackDivisor bounds how far a window boundary may move back to
// find a whitespace break: chunkSize / lookbackDivisor.
const lookbackDivisor = 10

// Chunker splits document content into overlapping segments.
// Chunking is deterministic: the same content and configuration always
// produce the same segment boundaries.
type Chunker struct {
	chunkSize    int
	overlap      int
	minChunkSize int
}

// Option configures the chunker.
type Option func(*Chunker)

// WithChunkSize sets the segment size in characters.
func WithChunkSize(size int) Option {
	return func(c *Chunker) {
		if size > 0 {
			c.chunkSize = size
		}
	}
}

// WithOverlap sets the overlap between consecutive segments in characters.
func WithOverlap(overlap int) Option {
	return func(c *Chunker) {
		if overlap >= 0 {
			c.overlap = overlap
		}
	}
}

// WithMinChunkSize sets the minimum trimmed segment length.
// Fragments below this are discarded rather than embedded.
func WithMinChunkSize(size int) Option {
	return func(c *Chunker) {
		if size >= 0 {
			c.minChunkSize = size
		}
	}
}

// New creates a chunker with the given options.
func New(opts ...Option) *Chunker {
	c := &Chunker{
		chunkSize:    DefaultChunkSize,
		overlap:      DefaultOverlap,
		minChunkSize: DefaultMinChunkSize,
	}

	for _, opt := range opts {
		opt(c)
	}

	// Ensure overlap doesn't exceed chunk size
	if c.overlap >= c.chunkSize {
		c.overlap = c.chunkSize / 4
	}

	return c
}

// Chunk splits the document content into segments with offsets into the
// original text. Segment windows overlap by the configured amount and
// together cover the entire content.
//
// Returns domain.ErrInvalidInput when the content is empty or
// whitespace-only. A document shorter than the minimum chunk size
// becomes a single segment rather than being discarded.
func (c *Chunker) Chunk(doc *domain.Document) ([]domain.Segment, error) {
	content := doc.Content
	if strings.TrimSpace(content) == "" {
		return nil, fmt.Errorf("%w: document %s has no text content", domain.ErrInvalidInput, doc.ID)
	}

	contentLen := len(content)

	// A document shorter than one window is a single segment, even when
	// it is below the minimum chunk size.
	if contentLen <= c.chunkSize {
		return []domain.Segment{c.segment(doc.ID, 0, content, 0, contentLen)}, nil
	}

	estimated := (contentLen / (c.chunkSize - c.overlap)) + 1
	segments := make([]domain.Segment, 0, estimated)

	sequence := 0
	start := 0

	for start < contentLen {
		end := start + c.chunkSize
		if end >= contentLen {
			end = contentLen
		} else {
			// Absorb a tail too small to stand on its own.
			if contentLen-end < c.minChunkSize {
				end = contentLen
			} else {
				end = c.snapToBreak(content, start, end)
			}
		}

		text := content[start:end]
		if len(strings.TrimSpace(text)) >= c.minChunkSize {
			segments = append(segments, c.segment(doc.ID, sequence, text, start, end))
			sequence++
		}

		if end == contentLen {
			break
		}

		next := end - c.overlap
		if next <= start {
			// Overlap would stall the scan; step past the window instead.
			next = end
		}
		start = next
	}

	return segments, nil
}

// snapToBreak moves a window boundary back to the nearest whitespace
// within the lookback range so words are not split. Falls back to a
// hard cut on a rune boundary when no break exists.
func (c *Chunker) snapToBreak(content string, start, end int) int {
	lookback := c.chunkSize / lookbackDivisor
	limit := end - lookback
	if limit < start+1 {
		limit = start + 1
	}

	for i := end; i > limit; i-- {
		r, _ := utf8.DecodeRuneInString(content[i-1:])
		if unicode.IsSpace(r) {
			return i
		}
	}

	// Hard cut: never split a rune.
	for end > start+1 && !utf8.RuneStart(content[end]) {
		end--
	}
	return end
}

func (c *Chunker) segment(documentID string, sequence int, text string, start, end int) domain.Segment {
	return domain.Segment{
		ID:          uuid.New().String(),
		DocumentID:  documentID,
		Sequence:    sequence,
		Text:        text,
		StartOffset: start,
		EndOffset:   end,
	}
}
