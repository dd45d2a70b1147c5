package chunker

import (
	"errors"
	"strings"
	"testing"

	"github.com/scribelabs/askdoc/internal/core/domain"
)

func testDoc(content string) *domain.Document {
	return &domain.Document{ID: "test-doc", Content: content}
}

// loremText builds deterministic word-filled text of at least n bytes.
func loremText(n int) string {
	var b strings.Builder
	for b.Len() < n {
		b.WriteString("lorem ipsum dolor sit amet consectetur adipiscing elit ")
	}
	return b.String()[:n]
}

func TestNew(t *testing.T) {
	t.Run("default values", func(t *testing.T) {
		c := New()
		if c.chunkSize != DefaultChunkSize {
			t.Errorf("expected chunkSize %d, got %d", DefaultChunkSize, c.chunkSize)
		}
		if c.overlap != DefaultOverlap {
			t.Errorf("expected overlap %d, got %d", DefaultOverlap, c.overlap)
		}
		if c.minChunkSize != DefaultMinChunkSize {
			t.Errorf("expected minChunkSize %d, got %d", DefaultMinChunkSize, c.minChunkSize)
		}
	})

	t.Run("custom options", func(t *testing.T) {
		c := New(WithChunkSize(500), WithOverlap(100), WithMinChunkSize(20))
		if c.chunkSize != 500 || c.overlap != 100 || c.minChunkSize != 20 {
			t.Errorf("options not applied: %+v", c)
		}
	})

	t.Run("overlap exceeds chunk size", func(t *testing.T) {
		c := New(WithChunkSize(100), WithOverlap(150))
		if c.overlap >= c.chunkSize {
			t.Error("overlap should be reduced when it exceeds chunk size")
		}
	})

	t.Run("zero values ignored", func(t *testing.T) {
		c := New(WithChunkSize(0), WithOverlap(-1))
		if c.chunkSize != DefaultChunkSize {
			t.Errorf("expected default chunkSize, got %d", c.chunkSize)
		}
		if c.overlap != DefaultOverlap {
			t.Errorf("expected default overlap, got %d", c.overlap)
		}
	})
}

func TestChunk_EmptyContent(t *testing.T) {
	c := New()

	for _, content := range []string{"", "   \n\t  "} {
		_, err := c.Chunk(testDoc(content))
		if !errors.Is(err, domain.ErrInvalidInput) {
			t.Errorf("content %q: expected ErrInvalidInput, got %v", content, err)
		}
	}
}

func TestChunk_ShortDocumentSingleSegment(t *testing.T) {
	c := New(WithChunkSize(1000), WithMinChunkSize(50))

	// Shorter than minChunkSize: still one segment covering the whole text.
	doc := testDoc("tiny document")
	segments, err := c.Chunk(doc)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if len(segments) != 1 {
		t.Fatalf("expected 1 segment, got %d", len(segments))
	}
	seg := segments[0]
	if seg.Text != doc.Content {
		t.Errorf("segment text %q != document content", seg.Text)
	}
	if seg.StartOffset != 0 || seg.EndOffset != len(doc.Content) {
		t.Errorf("unexpected offsets [%d,%d)", seg.StartOffset, seg.EndOffset)
	}
	if seg.Sequence != 0 {
		t.Errorf("expected sequence 0, got %d", seg.Sequence)
	}
}

func TestChunk_OverlappingWindows(t *testing.T) {
	// 3000 characters with size 1000 / overlap 200 yields 4 segments
	// with overlapping boundaries.
	c := New(WithChunkSize(1000), WithOverlap(200), WithMinChunkSize(50))
	doc := testDoc(loremText(3000))

	segments, err := c.Chunk(doc)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if len(segments) != 4 {
		t.Fatalf("expected 4 segments, got %d", len(segments))
	}

	for i := 1; i < len(segments); i++ {
		prev, cur := segments[i-1], segments[i]
		if cur.Sequence != prev.Sequence+1 {
			t.Errorf("sequence not strictly increasing at %d", i)
		}
		if cur.StartOffset >= prev.EndOffset {
			t.Errorf("segments %d and %d do not overlap: prev end %d, cur start %d",
				i-1, i, prev.EndOffset, cur.StartOffset)
		}
		if cur.StartOffset <= prev.StartOffset {
			t.Errorf("offsets not monotonically increasing at %d", i)
		}
	}
}

func TestChunk_OffsetsMatchContent(t *testing.T) {
	c := New(WithChunkSize(400), WithOverlap(80), WithMinChunkSize(20))
	doc := testDoc(loremText(2500))

	segments, err := c.Chunk(doc)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	for _, seg := range segments {
		if doc.Content[seg.StartOffset:seg.EndOffset] != seg.Text {
			t.Errorf("segment %d text does not match its offset window", seg.Sequence)
		}
	}
}

func TestChunk_CoversEntireDocument(t *testing.T) {
	c := New(WithChunkSize(300), WithOverlap(60), WithMinChunkSize(10))
	doc := testDoc(loremText(2000))

	segments, err := c.Chunk(doc)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	// Windows are ordered; with overlap each window must start at or
	// before the previous end, and the last must reach the end.
	if segments[0].StartOffset != 0 {
		t.Errorf("first segment starts at %d, not 0", segments[0].StartOffset)
	}
	for i := 1; i < len(segments); i++ {
		if segments[i].StartOffset > segments[i-1].EndOffset {
			t.Errorf("coverage gap between segments %d and %d", i-1, i)
		}
	}
	if last := segments[len(segments)-1]; last.EndOffset != len(doc.Content) {
		t.Errorf("last segment ends at %d, document is %d long", last.EndOffset, len(doc.Content))
	}
}

func TestChunk_BoundariesAvoidSplittingWords(t *testing.T) {
	c := New(WithChunkSize(500), WithOverlap(100), WithMinChunkSize(20))
	doc := testDoc(loremText(3000))

	segments, err := c.Chunk(doc)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	// Every non-final boundary should land just after whitespace,
	// since the text has a break every few characters.
	for i := 0; i < len(segments)-1; i++ {
		end := segments[i].EndOffset
		if doc.Content[end-1] != ' ' {
			t.Errorf("segment %d ends mid-word at offset %d (%q)", i, end, doc.Content[end-5:end])
		}
	}
}

func TestChunk_HardCutWithoutBreaks(t *testing.T) {
	// No whitespace anywhere: the chunker must fall back to hard cuts
	// instead of scanning forever.
	c := New(WithChunkSize(100), WithOverlap(20), WithMinChunkSize(10))
	doc := testDoc(strings.Repeat("x", 450))

	segments, err := c.Chunk(doc)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if len(segments) < 4 {
		t.Fatalf("expected several segments, got %d", len(segments))
	}
	for _, seg := range segments {
		if len(seg.Text) > 100 {
			t.Errorf("segment %d longer than chunk size: %d", seg.Sequence, len(seg.Text))
		}
	}
}

func TestChunk_Deterministic(t *testing.T) {
	c := New(WithChunkSize(700), WithOverlap(150), WithMinChunkSize(30))
	doc := testDoc(loremText(5000))

	first, err := c.Chunk(doc)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	second, err := c.Chunk(doc)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	if len(first) != len(second) {
		t.Fatalf("segment counts differ: %d vs %d", len(first), len(second))
	}
	for i := range first {
		if first[i].StartOffset != second[i].StartOffset || first[i].EndOffset != second[i].EndOffset {
			t.Errorf("segment %d boundaries differ between runs", i)
		}
		if first[i].Text != second[i].Text {
			t.Errorf("segment %d text differs between runs", i)
		}
	}
}

func TestChunk_SmallTailAbsorbed(t *testing.T) {
	// 1020 chars with chunk size 1000: the 20-char tail is below the
	// minimum and gets absorbed into the final window instead of being
	// dropped or emitted as a fragment.
	c := New(WithChunkSize(1000), WithOverlap(200), WithMinChunkSize(50))
	doc := testDoc(loremText(1020))

	segments, err := c.Chunk(doc)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if last := segments[len(segments)-1]; last.EndOffset != 1020 {
		t.Errorf("tail not absorbed: last segment ends at %d", last.EndOffset)
	}
}
