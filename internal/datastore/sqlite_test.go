package datastore

import (
	"context"
	"database/sql"
	"testing"

	"github.com/lepinkainen/catalogue/internal/testutil"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const testSchema = `CREATE TABLE IF NOT EXISTS items (
	id INTEGER PRIMARY KEY,
	name TEXT,
	value INTEGER
)`

func openLocal(t *testing.T, path string) *LocalStore {
	t.Helper()
	store := NewLocal(path)
	require.NoError(t, store.Connect(context.Background()))
	t.Cleanup(func() { _ = store.Close() })
	require.NoError(t, store.CreateTable(context.Background(), testSchema))
	return store
}

func TestLocalStore_CreatesDirectoryAndInserts(t *testing.T) {
	env := testutil.NewTestEnv(t)
	store := openLocal(t, env.Path("nested", "test.db"))

	rows := []Row{
		{"id": 1, "name": "foo", "value": 42},
		{"id": 2, "name": "bar", "value": 99},
	}
	require.NoError(t, store.Insert(context.Background(), "catalogue", "items", rows))

	assert.Equal(t, 2, countItems(t, store.db))
	env.RequireFileExists("nested/test.db")
}

func TestLocalStore_InsertKeepsExistingKeys(t *testing.T) {
	env := testutil.NewTestEnv(t)
	store := openLocal(t, env.Path("test.db"))
	ctx := context.Background()

	require.NoError(t, store.Insert(ctx, "", "items", []Row{{"id": 1, "name": "first"}}))
	require.NoError(t, store.Insert(ctx, "", "items", []Row{
		{"id": 1, "name": "second"},
		{"id": 2, "name": "other"},
	}))

	assert.Equal(t, 2, countItems(t, store.db))

	var name string
	require.NoError(t, store.db.QueryRow("SELECT name FROM items WHERE id = 1").Scan(&name))
	assert.Equal(t, "first", name)
}

func TestLocalStore_RowsWithDifferentColumns(t *testing.T) {
	store := openLocal(t, ":memory:")

	rows := []Row{{"id": 1, "name": "only name"}, {"id": 2, "value": 7}}
	require.NoError(t, store.Insert(context.Background(), "", "items", rows))

	var (
		name  sql.NullString
		value sql.NullInt64
	)
	require.NoError(t, store.db.QueryRow("SELECT name, value FROM items WHERE id = 2").Scan(&name, &value))
	assert.False(t, name.Valid)
	assert.Equal(t, int64(7), value.Int64)
}

func TestLocalStore_UnknownColumnRollsBack(t *testing.T) {
	store := openLocal(t, ":memory:")

	err := store.Insert(context.Background(), "", "items", []Row{{"id": 1}, {"id": 2, "bogus": true}})
	require.Error(t, err)
	assert.Zero(t, countItems(t, store.db))
}

func TestLocalStore_EmptyBatchAndClosed(t *testing.T) {
	ctx := context.Background()
	store := NewLocal(":memory:")
	assert.NoError(t, store.Insert(ctx, "", "missing", nil))
	assert.Error(t, store.Insert(ctx, "", "items", []Row{{"id": 1}}))
	assert.Error(t, store.CreateTable(ctx, testSchema))
	assert.NoError(t, store.Close())
}

func countItems(t *testing.T, db *sql.DB) int {
	t.Helper()
	var n int
	require.NoError(t, db.QueryRow("SELECT COUNT(*) FROM items").Scan(&n))
	return n
}
