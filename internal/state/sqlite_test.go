package state

import (
	"context"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/leapstack-labs/sqlgraph/internal/testutil"
	"github.com/leapstack-labs/sqlgraph/pkg/lineage"
)

func setupTestStore(t *testing.T) *SQLiteStore {
	t.Helper()
	store, err := Open(":memory:")
	require.NoError(t, err)
	t.Cleanup(func() { _ = store.Close() })
	return store
}

func testGraph(t *testing.T, sql string) *lineage.Graph {
	t.Helper()
	g, err := lineage.Build(testutil.MustParse(t, sql), lineage.Options{})
	require.NoError(t, err)
	return g
}

func TestSQLiteStore_Migrate(t *testing.T) {
	store := setupTestStore(t)

	version, err := store.MigrationVersion(context.Background())
	require.NoError(t, err)
	assert.Equal(t, int64(1), version)

	// migrating twice is a no-op
	require.NoError(t, store.Migrate(context.Background()))
}

func TestSQLiteStore_SaveAndGet(t *testing.T) {
	ctx := context.Background()
	store := setupTestStore(t)

	snap := &Snapshot{
		Name:    "orders.sql",
		SQLHash: "abc",
		SQL:     "SELECT a.x FROM t AS a",
		Graph:   testGraph(t, "SELECT a.x FROM t AS a"),
	}
	require.NoError(t, store.Save(ctx, snap))
	assert.NotEmpty(t, snap.ID)
	assert.False(t, snap.CreatedAt.IsZero())
	assert.Equal(t, 4, snap.Nodes)
	assert.Equal(t, 2, snap.Edges)

	got, err := store.Get(ctx, snap.ID)
	require.NoError(t, err)
	assert.Equal(t, snap.Name, got.Name)
	assert.Equal(t, snap.SQL, got.SQL)
	assert.Equal(t, snap.Nodes, got.Nodes)
	assert.True(t, snap.CreatedAt.Equal(got.CreatedAt))
	require.NotNil(t, got.Graph)
	assert.Contains(t, got.Graph.ColumnNodes, "Result_x")
	assert.Contains(t, got.Graph.TableNodes, "t")
}

func TestSQLiteStore_SaveWithoutGraph(t *testing.T) {
	store := setupTestStore(t)
	assert.Error(t, store.Save(context.Background(), &Snapshot{Name: "empty"}))
}

func TestSQLiteStore_NotFound(t *testing.T) {
	ctx := context.Background()
	store := setupTestStore(t)

	_, err := store.Get(ctx, "missing")
	assert.ErrorIs(t, err, ErrNotFound)

	_, err = store.FindByHash(ctx, "missing")
	assert.ErrorIs(t, err, ErrNotFound)

	assert.ErrorIs(t, store.Delete(ctx, "missing"), ErrNotFound)
}

func TestSQLiteStore_ListAndFindByHash(t *testing.T) {
	ctx := context.Background()
	store := setupTestStore(t)
	g := testGraph(t, "SELECT x FROM t")

	base := time.Date(2025, 1, 1, 12, 0, 0, 0, time.UTC)
	snaps := []*Snapshot{
		{Name: "first", SQLHash: "h1", Graph: g, CreatedAt: base},
		{Name: "second", SQLHash: "h2", Graph: g, CreatedAt: base.Add(time.Minute)},
		{Name: "third", SQLHash: "h1", Graph: g, CreatedAt: base.Add(2 * time.Minute)},
	}
	for _, s := range snaps {
		require.NoError(t, store.Save(ctx, s))
	}

	all, err := store.List(ctx, 0)
	require.NoError(t, err)
	require.Len(t, all, 3)
	assert.Equal(t, "third", all[0].Name)
	assert.Equal(t, "first", all[2].Name)
	assert.Nil(t, all[0].Graph, "list returns summaries")

	limited, err := store.List(ctx, 2)
	require.NoError(t, err)
	assert.Len(t, limited, 2)

	found, err := store.FindByHash(ctx, "h1")
	require.NoError(t, err)
	assert.Equal(t, "third", found.Name)
}

func TestSQLiteStore_Delete(t *testing.T) {
	ctx := context.Background()
	store := setupTestStore(t)

	snap := &Snapshot{Name: "gone", Graph: testGraph(t, "SELECT x FROM t")}
	require.NoError(t, store.Save(ctx, snap))
	require.NoError(t, store.Delete(ctx, snap.ID))

	_, err := store.Get(ctx, snap.ID)
	assert.ErrorIs(t, err, ErrNotFound)
}

func TestSQLiteStore_FileBacked(t *testing.T) {
	ctx := context.Background()
	path := filepath.Join(t.TempDir(), "nested", "state.db")

	store, err := Open(path)
	require.NoError(t, err)
	snap := &Snapshot{Name: "persisted", Graph: testGraph(t, "SELECT x FROM t")}
	require.NoError(t, store.Save(ctx, snap))
	require.NoError(t, store.Close())

	reopened, err := Open(path)
	require.NoError(t, err)
	defer func() { _ = reopened.Close() }()

	got, err := reopened.Get(ctx, snap.ID)
	require.NoError(t, err)
	assert.Equal(t, "persisted", got.Name)
	assert.Equal(t, path, reopened.Path())
}
