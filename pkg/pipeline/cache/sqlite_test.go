package cache_test

import (
	"path/filepath"
	"testing"

	"github.com/randalmurphal/tutorgraph/pkg/pipeline/cache"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestSQLiteStore_Persistence(t *testing.T) {
	dbPath := filepath.Join(t.TempDir(), "cache.db")

	store1, err := cache.NewSQLiteStore(dbPath)
	require.NoError(t, err)
	require.NoError(t, store1.Put("k", []byte("persistent")))
	require.NoError(t, store1.Close())

	// Reopening the database keeps the entry
	store2, err := cache.NewSQLiteStore(dbPath)
	require.NoError(t, err)
	defer store2.Close()

	got, err := store2.Get("k")
	require.NoError(t, err)
	assert.Equal(t, []byte("persistent"), got)
}

func TestSQLiteStore_InvalidPath(t *testing.T) {
	_, err := cache.NewSQLiteStore("/nonexistent/path/db.sqlite")
	assert.Error(t, err)
}

func TestSQLiteStore_CloseIdempotent(t *testing.T) {
	store, err := cache.NewSQLiteStore(":memory:")
	require.NoError(t, err)

	assert.NoError(t, store.Close())
	assert.NoError(t, store.Close())
}
