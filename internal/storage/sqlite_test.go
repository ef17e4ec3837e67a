package storage

import (
	"context"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestNewSQLiteStorage(t *testing.T) {
	store := setupTestDB(t)
	assert.NotNil(t, store)
	assert.NotNil(t, store.db)
}

func TestNewSQLiteStorage_OnDisk(t *testing.T) {
	dbPath := filepath.Join(t.TempDir(), "archive.db")
	store, err := NewSQLiteStorage(dbPath)
	require.NoError(t, err)
	require.NoError(t, store.Close())

	// Reopening must be a no-op migration-wise
	store, err = NewSQLiteStorage(dbPath)
	require.NoError(t, err)
	defer func() { _ = store.Close() }()

	var version string
	err = store.db.QueryRowContext(context.Background(),
		"SELECT version FROM schema_version ORDER BY applied_at DESC LIMIT 1").Scan(&version)
	require.NoError(t, err)
	assert.Equal(t, CurrentSchemaVersion, version)
}

func TestMigrations_CreateExpectedTables(t *testing.T) {
	store := setupTestDB(t)
	ctx := context.Background()

	for _, table := range []string{"artifacts", "tags", "artifact_tags", "safety_scores", "search_index"} {
		var name string
		err := store.db.QueryRowContext(ctx,
			"SELECT name FROM sqlite_master WHERE name = ?", table).Scan(&name)
		require.NoError(t, err, "table %s should exist", table)
	}
}

func TestGetArtifactByHash_NotFound(t *testing.T) {
	store := setupTestDB(t)

	_, err := store.GetArtifactByHash(context.Background(), "0000")
	assert.ErrorIs(t, err, ErrNotFound)
}

func TestGetSafetyScore_NotFound(t *testing.T) {
	store := setupTestDB(t)

	_, err := store.GetSafetyScore(context.Background(), 42)
	assert.ErrorIs(t, err, ErrNotFound)
}

func TestSearch_MatchesTagsAndPaths(t *testing.T) {
	store := setupTestDB(t)
	writer := NewBatchWriter(store, 10)
	ctx := context.Background()

	vacation := testRecord("1111", "/photos/vacation/beach.jpg")
	vacation.Tags = []string{"beach", "sunset"}
	work := testRecord("2222", "/documents/report.pdf")

	require.NoError(t, writer.Add(ctx, vacation))
	require.NoError(t, writer.Add(ctx, work))
	require.NoError(t, writer.Flush(ctx))

	results, err := store.Search(ctx, "sunset", 10)
	require.NoError(t, err)
	require.Len(t, results, 1)
	assert.Equal(t, "/photos/vacation/beach.jpg", results[0].OriginalPath)

	results, err = store.Search(ctx, "report", 10)
	require.NoError(t, err)
	require.Len(t, results, 1)
	assert.Equal(t, "/documents/report.pdf", results[0].OriginalPath)

	results, err = store.Search(ctx, "missing", 10)
	require.NoError(t, err)
	assert.Empty(t, results)
}
