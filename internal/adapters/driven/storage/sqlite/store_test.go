package sqlite

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/scribelabs/askdoc/internal/core/domain"
)

func newTestStore(t *testing.T) *Store {
	t.Helper()
	store, err := NewStore(t.TempDir())
	require.NoError(t, err)
	t.Cleanup(func() { store.Close() })
	return store
}

func TestNewStore_Reopen(t *testing.T) {
	dir := t.TempDir()

	store, err := NewStore(dir)
	require.NoError(t, err)

	require.NoError(t, store.SaveDocument(context.Background(), &domain.Document{
		ID:    "doc-1",
		Title: "Persisted",
	}))
	require.NoError(t, store.Close())

	// Reopening must not re-run migrations destructively.
	reopened, err := NewStore(dir)
	require.NoError(t, err)
	defer reopened.Close()

	doc, err := reopened.GetDocument(context.Background(), "doc-1")
	require.NoError(t, err)
	assert.Equal(t, "Persisted", doc.Title)
}

func TestSaveDocument_UpsertKeepsCreatedAt(t *testing.T) {
	store := newTestStore(t)
	ctx := context.Background()

	created := time.Date(2026, 1, 15, 10, 0, 0, 0, time.UTC)
	doc := &domain.Document{
		ID:        "doc-1",
		Owner:     "alice",
		Title:     "Original",
		Content:   "text",
		Metadata:  map[string]any{"lang": "en"},
		CreatedAt: created,
	}
	require.NoError(t, store.SaveDocument(ctx, doc))

	doc.Title = "Updated"
	require.NoError(t, store.SaveDocument(ctx, doc))

	got, err := store.GetDocument(ctx, "doc-1")
	require.NoError(t, err)
	assert.Equal(t, "Updated", got.Title)
	assert.Equal(t, "en", got.Metadata["lang"])
}

func TestGetDocument_NotFound(t *testing.T) {
	store := newTestStore(t)
	_, err := store.GetDocument(context.Background(), "missing")
	require.ErrorIs(t, err, domain.ErrNotFound)
}

func TestListDocuments_ByOwner(t *testing.T) {
	store := newTestStore(t)
	ctx := context.Background()

	for _, d := range []struct{ id, owner string }{
		{"doc-1", "alice"}, {"doc-2", "bob"}, {"doc-3", "alice"},
	} {
		require.NoError(t, store.SaveDocument(ctx, &domain.Document{
			ID: d.id, Owner: d.owner, Title: d.id, Content: "text",
		}))
	}

	docs, err := store.ListDocuments(ctx, "alice")
	require.NoError(t, err)
	assert.Len(t, docs, 2)

	all, err := store.ListDocuments(ctx, "")
	require.NoError(t, err)
	assert.Len(t, all, 3)
}

func TestSegments_SaveGetOrdered(t *testing.T) {
	store := newTestStore(t)
	ctx := context.Background()

	require.NoError(t, store.SaveDocument(ctx, &domain.Document{
		ID: "doc-1", Title: "t", Content: "c",
	}))

	segs := []domain.Segment{
		{ID: "s-2", DocumentID: "doc-1", Sequence: 1, Text: "second", StartOffset: 80, EndOffset: 160},
		{ID: "s-1", DocumentID: "doc-1", Sequence: 0, Text: "first", StartOffset: 0, EndOffset: 100},
	}
	require.NoError(t, store.SaveSegments(ctx, segs))

	got, err := store.GetSegments(ctx, "doc-1")
	require.NoError(t, err)
	require.Len(t, got, 2)
	assert.Equal(t, "s-1", got[0].ID)
	assert.Equal(t, "s-2", got[1].ID)

	seg, err := store.GetSegment(ctx, "s-2")
	require.NoError(t, err)
	assert.Equal(t, "second", seg.Text)
}

func TestSaveSegments_ReplacesPrevious(t *testing.T) {
	store := newTestStore(t)
	ctx := context.Background()

	require.NoError(t, store.SaveDocument(ctx, &domain.Document{
		ID: "doc-1", Title: "t", Content: "c",
	}))

	first := []domain.Segment{
		{ID: "old-1", DocumentID: "doc-1", Sequence: 0, Text: "a"},
		{ID: "old-2", DocumentID: "doc-1", Sequence: 1, Text: "b"},
	}
	require.NoError(t, store.SaveSegments(ctx, first))

	second := []domain.Segment{
		{ID: "new-1", DocumentID: "doc-1", Sequence: 0, Text: "c"},
	}
	require.NoError(t, store.SaveSegments(ctx, second))

	got, err := store.GetSegments(ctx, "doc-1")
	require.NoError(t, err)
	require.Len(t, got, 1)
	assert.Equal(t, "new-1", got[0].ID)
}

func TestDeleteDocument_CascadesToSegments(t *testing.T) {
	store := newTestStore(t)
	ctx := context.Background()

	require.NoError(t, store.SaveDocument(ctx, &domain.Document{
		ID: "doc-1", Title: "t", Content: "c",
	}))
	require.NoError(t, store.SaveSegments(ctx, []domain.Segment{
		{ID: "s-1", DocumentID: "doc-1", Sequence: 0, Text: "a"},
	}))

	var notified []string
	store.SubscribeDeletions(func(documentID string) {
		notified = append(notified, documentID)
	})

	require.NoError(t, store.DeleteDocument(ctx, "doc-1"))

	segs, err := store.GetSegments(ctx, "doc-1")
	require.NoError(t, err)
	assert.Empty(t, segs)
	assert.Equal(t, []string{"doc-1"}, notified)
}

func TestDeleteDocument_NotFound(t *testing.T) {
	store := newTestStore(t)
	err := store.DeleteDocument(context.Background(), "missing")
	require.ErrorIs(t, err, domain.ErrNotFound)
}
