package store

import (
	"context"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/require"
)

func newTestIndex(t *testing.T) *Index {
	t.Helper()
	idx, err := Open(context.Background(), ":memory:")
	require.NoError(t, err)
	t.Cleanup(func() { _ = idx.Close() })
	return idx
}

func TestOpen_CreatesDirectoryAndSchema(t *testing.T) {
	path := filepath.Join(t.TempDir(), "nested", "sessions.db")

	idx, err := Open(context.Background(), path)
	require.NoError(t, err)
	defer func() { _ = idx.Close() }()

	// Schema is usable right away.
	require.NoError(t, idx.RecordBinding(context.Background(), "s-1", "ext-1", "default"))
}

func TestOpen_MigrationsAreIdempotent(t *testing.T) {
	path := filepath.Join(t.TempDir(), "sessions.db")
	ctx := context.Background()

	idx1, err := Open(ctx, path)
	require.NoError(t, err)
	require.NoError(t, idx1.RecordBinding(ctx, "s-1", "ext-1", ""))
	require.NoError(t, idx1.Close())

	// Reopening re-runs applyMigrations against the existing schema.
	idx2, err := Open(ctx, path)
	require.NoError(t, err)
	defer func() { _ = idx2.Close() }()

	rec, err := idx2.Get(ctx, "s-1")
	require.NoError(t, err)
	require.Equal(t, "ext-1", rec.ExternalID)
}

func TestIndex_RecordBinding_UpsertPreservesCreatedAt(t *testing.T) {
	idx := newTestIndex(t)
	ctx := context.Background()

	require.NoError(t, idx.RecordBinding(ctx, "s-1", "ext-1", "default"))
	first, err := idx.Get(ctx, "s-1")
	require.NoError(t, err)

	time.Sleep(20 * time.Millisecond)
	require.NoError(t, idx.RecordBinding(ctx, "s-1", "ext-2", "fast"))

	second, err := idx.Get(ctx, "s-1")
	require.NoError(t, err)
	require.Equal(t, "ext-2", second.ExternalID)
	require.Equal(t, "fast", second.Model)
	require.Equal(t, first.CreatedAt.UnixMilli(), second.CreatedAt.UnixMilli())
	require.True(t, second.LastUsedAt.After(first.LastUsedAt))
}

func TestIndex_Touch(t *testing.T) {
	idx := newTestIndex(t)
	ctx := context.Background()

	require.NoError(t, idx.RecordBinding(ctx, "s-1", "ext-1", ""))
	require.NoError(t, idx.Touch(ctx, "s-1"))

	err := idx.Touch(ctx, "missing")
	require.ErrorIs(t, err, ErrNotFound)
}

func TestIndex_Get_NotFound(t *testing.T) {
	idx := newTestIndex(t)

	_, err := idx.Get(context.Background(), "missing")
	require.ErrorIs(t, err, ErrNotFound)
}

func TestIndex_List_MostRecentFirst(t *testing.T) {
	idx := newTestIndex(t)
	ctx := context.Background()

	require.NoError(t, idx.RecordBinding(ctx, "old", "ext-old", ""))
	time.Sleep(20 * time.Millisecond)
	require.NoError(t, idx.RecordBinding(ctx, "new", "ext-new", ""))

	records, err := idx.List(ctx)
	require.NoError(t, err)
	require.Len(t, records, 2)
	require.Equal(t, "new", records[0].LogicalID)
	require.Equal(t, "old", records[1].LogicalID)
}

func TestIndex_Delete_MissingIsNoop(t *testing.T) {
	idx := newTestIndex(t)
	ctx := context.Background()

	require.NoError(t, idx.RecordBinding(ctx, "s-1", "ext-1", ""))
	require.NoError(t, idx.Delete(ctx, "s-1"))
	require.NoError(t, idx.Delete(ctx, "s-1"))

	_, err := idx.Get(ctx, "s-1")
	require.ErrorIs(t, err, ErrNotFound)
}
