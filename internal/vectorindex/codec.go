package vectorindex

import (
	"bufio"
	"encoding/binary"
	"errors"
	"fmt"
	"io"
	"math"
	"os"
	"path/filepath"

	"github.com/scribelabs/askdoc/internal/core/domain"
	"github.com/scribelabs/askdoc/internal/core/ports/driven"
)

// File format: a versioned header followed by fixed-layout entries.
// All integers little-endian; strings are uint16 length + bytes.
const (
	// magic identifies an askdoc vector index file.
	magic = "ADVX"

	// formatVersion is bumped on incompatible layout changes.
	formatVersion uint16 = 1

	// maxStringLen bounds decoded string lengths so a corrupt length
	// prefix cannot trigger a huge allocation.
	maxStringLen = 1 << 12
)

// Header identifies the vector space a persisted index belongs to.
// The loader validates it against the active embedder before trusting
// the body.
type Header struct {
	// Backend names the index implementation that wrote the file.
	Backend string

	// ModelVersion is the embedding model version.
	ModelVersion string

	// Dimension is the vector length of every entry.
	Dimension int

	// EntryCount is the number of entries in the body.
	EntryCount int
}

// WriteFile serialises the header and entries to path. The write goes
// through a temp file and rename so a crash never leaves a
// half-written index behind.
func WriteFile(path string, h Header, entries []driven.VectorEntry) error {
	if err := os.MkdirAll(filepath.Dir(path), 0700); err != nil {
		return fmt.Errorf("creating index directory: %w", err)
	}

	tmp, err := os.CreateTemp(filepath.Dir(path), ".index-*.tmp")
	if err != nil {
		return fmt.Errorf("creating temp index file: %w", err)
	}
	defer os.Remove(tmp.Name())

	w := bufio.NewWriter(tmp)
	h.EntryCount = len(entries)
	if err := writeHeader(w, h); err != nil {
		tmp.Close()
		return err
	}
	for i := range entries {
		if err := writeEntry(w, h.Dimension, entries[i]); err != nil {
			tmp.Close()
			return err
		}
	}
	if err := w.Flush(); err != nil {
		tmp.Close()
		return fmt.Errorf("flushing index file: %w", err)
	}
	if err := tmp.Close(); err != nil {
		return fmt.Errorf("closing index file: %w", err)
	}

	if err := os.Rename(tmp.Name(), path); err != nil {
		return fmt.Errorf("replacing index file: %w", err)
	}
	return nil
}

// ReadFile loads a persisted index and validates its header against
// the expected vector space. A missing file returns os.ErrNotExist.
// Unreadable or truncated data returns domain.ErrIndexCorrupted; a
// header from a different model, dimension or backend returns
// domain.ErrIndexStale so the caller can rebuild instead of serving
// wrong-space vectors.
func ReadFile(path string, want Header) (Header, []driven.VectorEntry, error) {
	f, err := os.Open(path)
	if err != nil {
		return Header{}, nil, err
	}
	defer f.Close()

	r := bufio.NewReader(f)

	h, err := readHeader(r)
	if err != nil {
		return Header{}, nil, err
	}

	if h.ModelVersion != want.ModelVersion || h.Dimension != want.Dimension {
		return Header{}, nil, fmt.Errorf(
			"%w: index built with %s/%d dims, embedder is %s/%d dims",
			domain.ErrIndexStale, h.ModelVersion, h.Dimension, want.ModelVersion, want.Dimension)
	}
	if want.Backend != "" && h.Backend != want.Backend {
		return Header{}, nil, fmt.Errorf(
			"%w: index written by %q backend, configured backend is %q",
			domain.ErrIndexStale, h.Backend, want.Backend)
	}

	entries := make([]driven.VectorEntry, 0, h.EntryCount)
	for i := 0; i < h.EntryCount; i++ {
		entry, err := readEntry(r, h.Dimension)
		if err != nil {
			return Header{}, nil, fmt.Errorf("%w: entry %d of %d: %v",
				domain.ErrIndexCorrupted, i, h.EntryCount, err)
		}
		entries = append(entries, entry)
	}

	return h, entries, nil
}

func writeHeader(w io.Writer, h Header) error {
	if _, err := w.Write([]byte(magic)); err != nil {
		return fmt.Errorf("writing magic: %w", err)
	}
	if err := binary.Write(w, binary.LittleEndian, formatVersion); err != nil {
		return fmt.Errorf("writing format version: %w", err)
	}
	if err := writeString(w, h.Backend); err != nil {
		return err
	}
	if err := writeString(w, h.ModelVersion); err != nil {
		return err
	}
	if err := binary.Write(w, binary.LittleEndian, uint32(h.Dimension)); err != nil {
		return fmt.Errorf("writing dimension: %w", err)
	}
	if err := binary.Write(w, binary.LittleEndian, uint32(h.EntryCount)); err != nil {
		return fmt.Errorf("writing entry count: %w", err)
	}
	return nil
}

func readHeader(r io.Reader) (Header, error) {
	buf := make([]byte, len(magic))
	if _, err := io.ReadFull(r, buf); err != nil {
		return Header{}, fmt.Errorf("%w: reading magic: %v", domain.ErrIndexCorrupted, err)
	}
	if string(buf) != magic {
		return Header{}, fmt.Errorf("%w: not an index file", domain.ErrIndexCorrupted)
	}

	var version uint16
	if err := binary.Read(r, binary.LittleEndian, &version); err != nil {
		return Header{}, fmt.Errorf("%w: reading format version: %v", domain.ErrIndexCorrupted, err)
	}
	if version != formatVersion {
		return Header{}, fmt.Errorf("%w: unsupported format version %d", domain.ErrIndexCorrupted, version)
	}

	var h Header
	var err error
	if h.Backend, err = readString(r); err != nil {
		return Header{}, fmt.Errorf("%w: reading backend: %v", domain.ErrIndexCorrupted, err)
	}
	if h.ModelVersion, err = readString(r); err != nil {
		return Header{}, fmt.Errorf("%w: reading model version: %v", domain.ErrIndexCorrupted, err)
	}

	var dim, count uint32
	if err := binary.Read(r, binary.LittleEndian, &dim); err != nil {
		return Header{}, fmt.Errorf("%w: reading dimension: %v", domain.ErrIndexCorrupted, err)
	}
	if err := binary.Read(r, binary.LittleEndian, &count); err != nil {
		return Header{}, fmt.Errorf("%w: reading entry count: %v", domain.ErrIndexCorrupted, err)
	}
	h.Dimension = int(dim)
	h.EntryCount = int(count)
	return h, nil
}

func writeEntry(w io.Writer, dimension int, e driven.VectorEntry) error {
	if len(e.Vector) != dimension {
		return fmt.Errorf("entry %s: vector has %d dims, index has %d", e.SegmentID, len(e.Vector), dimension)
	}
	if err := writeString(w, e.SegmentID); err != nil {
		return err
	}
	if err := writeString(w, e.DocumentID); err != nil {
		return err
	}
	for _, v := range e.Vector {
		if err := binary.Write(w, binary.LittleEndian, math.Float32bits(v)); err != nil {
			return fmt.Errorf("writing vector: %w", err)
		}
	}
	return nil
}

func readEntry(r io.Reader, dimension int) (driven.VectorEntry, error) {
	var e driven.VectorEntry
	var err error
	if e.SegmentID, err = readString(r); err != nil {
		return e, err
	}
	if e.DocumentID, err = readString(r); err != nil {
		return e, err
	}
	e.Vector = make([]float32, dimension)
	for i := range e.Vector {
		var bits uint32
		if err := binary.Read(r, binary.LittleEndian, &bits); err != nil {
			return e, err
		}
		e.Vector[i] = math.Float32frombits(bits)
	}
	return e, nil
}

func writeString(w io.Writer, s string) error {
	if len(s) > maxStringLen {
		return fmt.Errorf("string too long: %d bytes", len(s))
	}
	if err := binary.Write(w, binary.LittleEndian, uint16(len(s))); err != nil {
		return fmt.Errorf("writing string length: %w", err)
	}
	if _, err := w.Write([]byte(s)); err != nil {
		return fmt.Errorf("writing string: %w", err)
	}
	return nil
}

func readString(r io.Reader) (string, error) {
	var n uint16
	if err := binary.Read(r, binary.LittleEndian, &n); err != nil {
		return "", err
	}
	if int(n) > maxStringLen {
		return "", errors.New("string length out of range")
	}
	buf := make([]byte, n)
	if _, err := io.ReadFull(r, buf); err != nil {
		return "", err
	}
	return string(buf), nil
}
