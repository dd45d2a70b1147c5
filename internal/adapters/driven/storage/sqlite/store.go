package sqlite

import (
	"context"
	"database/sql"
	"embed"
	"encoding/json"
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"sort"
	"strings"
	"sync"
	"time"

	_ "modernc.org/sqlite" // SQLite driver

	"github.com/scribelabs/askdoc/internal/adapters/driven/storage/sqlite/migrations"
	"github.com/scribelabs/askdoc/internal/core/domain"
	"github.com/scribelabs/askdoc/internal/core/ports/driven"
)

var _ driven.DocumentStore = (*Store)(nil)

// Store is a SQLite-backed document store.
type Store struct {
	db   *sql.DB
	path string

	mu        sync.Mutex
	listeners []driven.DeletionListener
}

// NewStore creates a SQLite store in the given data directory.
// If dataDir is empty, defaults to ~/.askdoc/data.
func NewStore(dataDir string) (*Store, error) {
	if dataDir == "" {
		home, err := os.UserHomeDir()
		if err != nil {
			return nil, fmt.Errorf("getting home directory: %w", err)
		}
		dataDir = filepath.Join(home, ".askdoc", "data")
	}

	if err := os.MkdirAll(dataDir, 0700); err != nil {
		return nil, fmt.Errorf("creating data directory: %w", err)
	}

	dbPath := filepath.Join(dataDir, "askdoc.db")

	// WAL mode keeps reads concurrent with writes.
	db, err := sql.Open("sqlite", dbPath+"?_pragma=journal_mode(WAL)&_pragma=busy_timeout(5000)")
	if err != nil {
		return nil, fmt.Errorf("opening database: %w", err)
	}

	if _, err := db.Exec("PRAGMA foreign_keys = ON"); err != nil {
		db.Close()
		return nil, fmt.Errorf("enabling foreign keys: %w", err)
	}

	s := &Store{
		db:   db,
		path: dbPath,
	}

	if err := s.migrate(migrations.FS); err != nil {
		db.Close()
		return nil, fmt.Errorf("running migrations: %w", err)
	}

	return s, nil
}

// Close closes the database connection.
func (s *Store) Close() error {
	return s.db.Close()
}

// Path returns the database file path.
func (s *Store) Path() string {
	return s.path
}

// migrate runs all pending migrations.
func (s *Store) migrate(fsys embed.FS) error {
	_, err := s.db.Exec(`
		CREATE TABLE IF NOT EXISTS schema_migrations (
			version INTEGER PRIMARY KEY,
			applied_at DATETIME DEFAULT CURRENT_TIMESTAMP
		)
	`)
	if err != nil {
		return fmt.Errorf("creating schema_migrations table: %w", err)
	}

	var currentVersion int
	row := s.db.QueryRow("SELECT COALESCE(MAX(version), 0) FROM schema_migrations")
	if err := row.Scan(&currentVersion); err != nil {
		return fmt.Errorf("getting current version: %w", err)
	}

	entries, err := fs.ReadDir(fsys, ".")
	if err != nil {
		return fmt.Errorf("reading migrations directory: %w", err)
	}

	var upFiles []string
	for _, entry := range entries {
		name := entry.Name()
		if strings.HasSuffix(name, ".up.sql") {
			upFiles = append(upFiles, name)
		}
	}
	sort.Strings(upFiles)

	for _, name := range upFiles {
		// Extract version number (e.g., "001_initial.up.sql" -> 1)
		var version int
		if _, err := fmt.Sscanf(name, "%d_", &version); err != nil {
			continue // Skip files that don't match pattern
		}

		if version <= currentVersion {
			continue // Already applied
		}

		content, err := fs.ReadFile(fsys, name)
		if err != nil {
			return fmt.Errorf("reading migration %s: %w", name, err)
		}

		if _, err := s.db.Exec(string(content)); err != nil {
			return fmt.Errorf("executing migration %s: %w", name, err)
		}

		if _, err := s.db.Exec("INSERT INTO schema_migrations (version) VALUES (?)", version); err != nil {
			return fmt.Errorf("recording migration %s: %w", name, err)
		}
	}

	return nil
}

// SaveDocument stores or updates a document.
func (s *Store) SaveDocument(ctx context.Context, doc *domain.Document) error {
	if doc.ID == "" {
		return fmt.Errorf("%w: document ID is required", domain.ErrInvalidInput)
	}

	metadataJSON, err := json.Marshal(doc.Metadata)
	if err != nil {
		return fmt.Errorf("marshalling metadata: %w", err)
	}

	if doc.CreatedAt.IsZero() {
		doc.CreatedAt = time.Now().UTC()
	}

	_, err = s.db.ExecContext(ctx, `
		INSERT INTO documents (id, owner, title, content, metadata, created_at)
		VALUES (?, ?, ?, ?, ?, ?)
		ON CONFLICT(id) DO UPDATE SET
			owner = excluded.owner,
			title = excluded.title,
			content = excluded.content,
			metadata = excluded.metadata
	`, doc.ID, doc.Owner, doc.Title, doc.Content, string(metadataJSON), doc.CreatedAt)

	if err != nil {
		return fmt.Errorf("saving document: %w", err)
	}
	return nil
}

// GetDocument retrieves a document by ID.
func (s *Store) GetDocument(ctx context.Context, id string) (*domain.Document, error) {
	row := s.db.QueryRowContext(ctx, `
		SELECT id, owner, title, content, metadata, created_at
		FROM documents WHERE id = ?
	`, id)

	var doc domain.Document
	var metadataJSON string
	if err := row.Scan(&doc.ID, &doc.Owner, &doc.Title, &doc.Content, &metadataJSON, &doc.CreatedAt); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, domain.ErrNotFound
		}
		return nil, fmt.Errorf("scanning document: %w", err)
	}

	if metadataJSON != "" {
		if err := json.Unmarshal([]byte(metadataJSON), &doc.Metadata); err != nil {
			return nil, fmt.Errorf("unmarshaling metadata: %w", err)
		}
	}

	return &doc, nil
}

// ListDocuments returns documents belonging to an owner. An empty owner
// lists every document.
func (s *Store) ListDocuments(ctx context.Context, owner string) ([]domain.Document, error) {
	query := `
		SELECT id, owner, title, content, metadata, created_at
		FROM documents ORDER BY created_at, id
	`
	args := []any{}
	if owner != "" {
		query = `
			SELECT id, owner, title, content, metadata, created_at
			FROM documents WHERE owner = ? ORDER BY created_at, id
		`
		args = append(args, owner)
	}

	rows, err := s.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("querying documents: %w", err)
	}
	defer rows.Close()

	var docs []domain.Document //nolint:prealloc // size unknown from query
	for rows.Next() {
		var doc domain.Document
		var metadataJSON string
		if err := rows.Scan(&doc.ID, &doc.Owner, &doc.Title, &doc.Content, &metadataJSON, &doc.CreatedAt); err != nil {
			return nil, fmt.Errorf("scanning document: %w", err)
		}
		if metadataJSON != "" {
			if err := json.Unmarshal([]byte(metadataJSON), &doc.Metadata); err != nil {
				return nil, fmt.Errorf("unmarshaling metadata: %w", err)
			}
		}
		docs = append(docs, doc)
	}

	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterating documents: %w", err)
	}

	return docs, nil
}

// SaveSegments replaces the stored segments for a document.
func (s *Store) SaveSegments(ctx context.Context, segments []domain.Segment) error {
	if len(segments) == 0 {
		return nil
	}

	documentID := segments[0].DocumentID
	for _, seg := range segments {
		if seg.DocumentID != documentID {
			return fmt.Errorf("%w: segments span multiple documents", domain.ErrInvalidInput)
		}
	}

	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("beginning transaction: %w", err)
	}
	defer tx.Rollback() //nolint:errcheck

	if _, err := tx.ExecContext(ctx, "DELETE FROM segments WHERE document_id = ?", documentID); err != nil {
		return fmt.Errorf("clearing segments: %w", err)
	}

	stmt, err := tx.PrepareContext(ctx, `
		INSERT INTO segments (id, document_id, sequence, text, start_offset, end_offset)
		VALUES (?, ?, ?, ?, ?, ?)
	`)
	if err != nil {
		return fmt.Errorf("preparing statement: %w", err)
	}
	defer stmt.Close()

	for _, seg := range segments {
		if _, err := stmt.ExecContext(ctx, seg.ID, seg.DocumentID, seg.Sequence,
			seg.Text, seg.StartOffset, seg.EndOffset); err != nil {
			return fmt.Errorf("saving segment: %w", err)
		}
	}

	if err := tx.Commit(); err != nil {
		return fmt.Errorf("committing transaction: %w", err)
	}
	return nil
}

// GetSegments retrieves all segments for a document in sequence order.
func (s *Store) GetSegments(ctx context.Context, documentID string) ([]domain.Segment, error) {
	rows, err := s.db.QueryContext(ctx, `
		SELECT id, document_id, sequence, text, start_offset, end_offset
		FROM segments WHERE document_id = ?
		ORDER BY sequence
	`, documentID)
	if err != nil {
		return nil, fmt.Errorf("querying segments: %w", err)
	}
	defer rows.Close()

	var segments []domain.Segment //nolint:prealloc // size unknown from query
	for rows.Next() {
		var seg domain.Segment
		if err := rows.Scan(&seg.ID, &seg.DocumentID, &seg.Sequence,
			&seg.Text, &seg.StartOffset, &seg.EndOffset); err != nil {
			return nil, fmt.Errorf("scanning segment: %w", err)
		}
		segments = append(segments, seg)
	}

	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterating segments: %w", err)
	}

	return segments, nil
}

// GetSegment retrieves a specific segment by ID.
func (s *Store) GetSegment(ctx context.Context, id string) (*domain.Segment, error) {
	row := s.db.QueryRowContext(ctx, `
		SELECT id, document_id, sequence, text, start_offset, end_offset
		FROM segments WHERE id = ?
	`, id)

	var seg domain.Segment
	if err := row.Scan(&seg.ID, &seg.DocumentID, &seg.Sequence,
		&seg.Text, &seg.StartOffset, &seg.EndOffset); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, domain.ErrNotFound
		}
		return nil, fmt.Errorf("scanning segment: %w", err)
	}

	return &seg, nil
}

// DeleteSegments removes all segments for a document without touching
// the document itself.
func (s *Store) DeleteSegments(ctx context.Context, documentID string) error {
	_, err := s.db.ExecContext(ctx, "DELETE FROM segments WHERE document_id = ?", documentID)
	if err != nil {
		return fmt.Errorf("deleting segments: %w", err)
	}
	return nil
}

// DeleteDocument removes a document; segments cascade at the schema
// level. Listeners fire after the delete commits.
func (s *Store) DeleteDocument(ctx context.Context, id string) error {
	res, err := s.db.ExecContext(ctx, "DELETE FROM documents WHERE id = ?", id)
	if err != nil {
		return fmt.Errorf("deleting document: %w", err)
	}

	affected, err := res.RowsAffected()
	if err != nil {
		return fmt.Errorf("checking delete result: %w", err)
	}
	if affected == 0 {
		return domain.ErrNotFound
	}

	s.notifyDeletion(id)
	return nil
}

// SubscribeDeletions registers a listener for document deletions.
func (s *Store) SubscribeDeletions(fn driven.DeletionListener) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.listeners = append(s.listeners, fn)
}

func (s *Store) notifyDeletion(documentID string) {
	s.mu.Lock()
	listeners := make([]driven.DeletionListener, len(s.listeners))
	copy(listeners, s.listeners)
	s.mu.Unlock()

	for _, fn := range listeners {
		fn(documentID)
	}
}
