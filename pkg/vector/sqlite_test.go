package vector

import (
	"context"
	"math"
	"os"
	"path/filepath"
	"testing"

	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newSQLiteStore(t *testing.T, path string, dims int) *Store {
	t.Helper()

	backend, err := NewSQLiteBackend(SQLiteBackendOptions{
		Path:       path,
		Dimensions: dims,
		Logger:     zerolog.New(os.Stdout).Level(zerolog.Disabled),
	})
	require.NoError(t, err)

	store, err := New(Config{
		Dimensions: dims,
		Backend:    backend,
		Logger:     zerolog.New(os.Stdout).Level(zerolog.Disabled),
	})
	require.NoError(t, err)

	t.Cleanup(func() {
		_ = store.Close()
	})
	return store
}

func createTestSQLiteStore(t *testing.T, dims int) (*Store, string) {
	t.Helper()
	path := filepath.Join(t.TempDir(), "vectors.db")
	return newSQLiteStore(t, path, dims), path
}

func TestNewSQLiteBackendValidation(t *testing.T) {
	_, err := NewSQLiteBackend(SQLiteBackendOptions{Dimensions: 3})
	assert.Error(t, err)

	_, err = NewSQLiteBackend(SQLiteBackendOptions{Path: "x.db"})
	assert.Error(t, err)
}

func TestSQLiteStoreAndSearch(t *testing.T) {
	store, _ := createTestSQLiteStore(t, 3)
	ctx := context.Background()

	id, err := store.InsertVector(ctx, "north", nil, []float32{1, 0, 0})
	require.NoError(t, err)

	_, err = store.InsertVector(ctx, "east", nil, []float32{0, 1, 0})
	require.NoError(t, err)

	_, err = store.InsertVector(ctx, "mostly north", nil, []float32{0.9, 0.1, 0})
	require.NoError(t, err)

	results, err := store.SearchVector(ctx, []float32{1, 0, 0}, nil)
	require.NoError(t, err)
	require.Len(t, results, 3)

	// The virtual table computes distances in float32, so allow slack.
	assert.Equal(t, id, results[0].Entry.ID)
	assert.InDelta(t, 1.0, results[0].Score, 1e-4)
	assert.Equal(t, "mostly north", results[1].Entry.Content)
	assert.Greater(t, results[0].Score, results[1].Score)
	assert.Greater(t, results[1].Score, results[2].Score)
}

func TestSQLiteEuclideanSearch(t *testing.T) {
	store, _ := createTestSQLiteStore(t, 2)
	ctx := context.Background()

	_, err := store.InsertVector(ctx, "origin", nil, []float32{0, 0})
	require.NoError(t, err)
	_, err = store.InsertVector(ctx, "far", nil, []float32{3, 4})
	require.NoError(t, err)

	results, err := store.SearchVector(ctx, []float32{0, 0}, &SearchOptions{Metric: MetricEuclidean})
	require.NoError(t, err)
	require.Len(t, results, 2)

	assert.Equal(t, "origin", results[0].Entry.Content)
	assert.InDelta(t, 1.0, results[0].Score, 1e-6)
	assert.InDelta(t, math.Exp(-5), results[1].Score, 1e-6)
}

func TestSQLiteMinScore(t *testing.T) {
	store, _ := createTestSQLiteStore(t, 2)
	ctx := context.Background()

	_, err := store.InsertVector(ctx, "close", nil, []float32{1, 0})
	require.NoError(t, err)
	_, err = store.InsertVector(ctx, "orthogonal", nil, []float32{0, 1})
	require.NoError(t, err)

	minScore := 0.9
	results, err := store.SearchVector(ctx, []float32{1, 0}, &SearchOptions{MinScore: &minScore})
	require.NoError(t, err)
	require.Len(t, results, 1)
	assert.Equal(t, "close", results[0].Entry.Content)
}

func TestSQLiteDeleteAndClear(t *testing.T) {
	store, _ := createTestSQLiteStore(t, 2)
	ctx := context.Background()

	id, err := store.InsertVector(ctx, "one", nil, []float32{1, 0})
	require.NoError(t, err)

	existed, err := store.Delete(ctx, id)
	require.NoError(t, err)
	assert.True(t, existed)

	existed, err = store.Delete(ctx, "missing")
	require.NoError(t, err)
	assert.False(t, existed)

	_, err = store.InsertVector(ctx, "two", nil, []float32{0, 1})
	require.NoError(t, err)
	require.NoError(t, store.Clear(ctx))

	count, err := store.Count(ctx)
	require.NoError(t, err)
	assert.Equal(t, 0, count)
}

func TestSQLitePersistsAcrossReopen(t *testing.T) {
	path := filepath.Join(t.TempDir(), "vectors.db")
	ctx := context.Background()

	store := newSQLiteStore(t, path, 2)
	_, err := store.InsertVector(ctx, "durable", map[string]interface{}{"source": "test"}, []float32{1, 0})
	require.NoError(t, err)
	require.NoError(t, store.Close())

	reopened := newSQLiteStore(t, path, 2)
	count, err := reopened.Count(ctx)
	require.NoError(t, err)
	require.Equal(t, 1, count)

	results, err := reopened.SearchVector(ctx, []float32{1, 0}, nil)
	require.NoError(t, err)
	require.Len(t, results, 1)
	assert.Equal(t, "durable", results[0].Entry.Content)
	assert.Equal(t, "test", results[0].Entry.Metadata["source"])
	assert.False(t, results[0].Entry.CreatedAt.IsZero())
}
