package storage

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func setupTestDB(t *testing.T) *SQLiteStorage {
	// Use in-memory database for testing
	store, err := NewSQLiteStorage(":memory:")
	require.NoError(t, err)
	require.NotNil(t, store)
	t.Cleanup(func() { _ = store.Close() })
	return store
}

func intPtr(v int) *int           { return &v }
func floatPtr(v float64) *float64 { return &v }

func testRecord(hash, path string) ArtifactRecord {
	return ArtifactRecord{
		HashSHA256:   hash,
		OriginalPath: path,
		MediaType:    "application/octet-stream",
	}
}

func TestFlush_EmptyBufferIsNoop(t *testing.T) {
	store := setupTestDB(t)
	writer := NewBatchWriter(store, 10)

	err := writer.Flush(context.Background())
	require.NoError(t, err)

	count, err := store.CountArtifacts(context.Background())
	require.NoError(t, err)
	assert.Equal(t, 0, count)
}

func TestFlush_PersistsBufferedRecords(t *testing.T) {
	store := setupTestDB(t)
	writer := NewBatchWriter(store, 10)
	ctx := context.Background()

	rec := testRecord("aa11", "/data/one.bin")
	rec.MediaType = "image/jpeg"
	rec.Width = intPtr(224)
	rec.Height = intPtr(224)
	rec.Tags = []string{"landscape", "outdoors"}
	rec.NSFWScore = floatPtr(0.01)

	require.NoError(t, writer.Add(ctx, rec))
	assert.Equal(t, 1, writer.Buffered())
	require.NoError(t, writer.Flush(ctx))
	assert.Equal(t, 0, writer.Buffered())

	artifact, err := store.GetArtifactByHash(ctx, "aa11")
	require.NoError(t, err)
	assert.Equal(t, "/data/one.bin", artifact.OriginalPath)
	assert.Equal(t, "image/jpeg", artifact.MediaType)
	require.NotNil(t, artifact.Width)
	assert.Equal(t, 224, *artifact.Width)

	tags, err := store.ListTagsByArtifact(ctx, artifact.ID)
	require.NoError(t, err)
	assert.Equal(t, []string{"landscape", "outdoors"}, tags)

	score, err := store.GetSafetyScore(ctx, artifact.ID)
	require.NoError(t, err)
	assert.InDelta(t, 0.01, score, 1e-9)
}

func TestAdd_AutoFlushAtBatchSize(t *testing.T) {
	store := setupTestDB(t)
	writer := NewBatchWriter(store, 3)
	ctx := context.Background()

	require.NoError(t, writer.Add(ctx, testRecord("01", "/a")))
	require.NoError(t, writer.Add(ctx, testRecord("02", "/b")))
	assert.Equal(t, 2, writer.Buffered())

	// Third add reaches the batch size and flushes
	require.NoError(t, writer.Add(ctx, testRecord("03", "/c")))
	assert.Equal(t, 0, writer.Buffered())

	count, err := store.CountArtifacts(ctx)
	require.NoError(t, err)
	assert.Equal(t, 3, count)
}

func TestFlush_DeduplicatesByHash(t *testing.T) {
	store := setupTestDB(t)
	writer := NewBatchWriter(store, 10)
	ctx := context.Background()

	// Same content under two paths, across two flushes
	first := testRecord("deadbeef", "/data/copy-one.bin")
	second := testRecord("deadbeef", "/data/copy-two.bin")

	require.NoError(t, writer.Add(ctx, first))
	require.NoError(t, writer.Flush(ctx))
	require.NoError(t, writer.Add(ctx, second))
	require.NoError(t, writer.Flush(ctx))

	count, err := store.CountArtifacts(ctx)
	require.NoError(t, err)
	assert.Equal(t, 1, count)

	// Last write wins for the path
	artifact, err := store.GetArtifactByHash(ctx, "deadbeef")
	require.NoError(t, err)
	assert.Equal(t, "/data/copy-two.bin", artifact.OriginalPath)
}

func TestFlush_TagLinkIsIdempotent(t *testing.T) {
	store := setupTestDB(t)
	writer := NewBatchWriter(store, 10)
	ctx := context.Background()

	rec := testRecord("cafe", "/data/tagged.jpg")
	rec.Tags = []string{"sunset"}

	require.NoError(t, writer.Add(ctx, rec))
	require.NoError(t, writer.Flush(ctx))
	require.NoError(t, writer.Add(ctx, rec))
	require.NoError(t, writer.Flush(ctx))

	artifact, err := store.GetArtifactByHash(ctx, "cafe")
	require.NoError(t, err)

	var links int
	err = store.db.QueryRowContext(ctx,
		"SELECT COUNT(*) FROM artifact_tags WHERE artifact_id = ?", artifact.ID).Scan(&links)
	require.NoError(t, err)
	assert.Equal(t, 1, links)

	var tagRows int
	err = store.db.QueryRowContext(ctx,
		"SELECT COUNT(*) FROM tags WHERE name = 'sunset'").Scan(&tagRows)
	require.NoError(t, err)
	assert.Equal(t, 1, tagRows)
}

func TestFlush_SafetyScoreReplaceSemantics(t *testing.T) {
	store := setupTestDB(t)
	writer := NewBatchWriter(store, 10)
	ctx := context.Background()

	rec := testRecord("feed", "/data/scored.png")
	rec.NSFWScore = floatPtr(0.2)
	require.NoError(t, writer.Add(ctx, rec))
	require.NoError(t, writer.Flush(ctx))

	rec.NSFWScore = floatPtr(0.9)
	require.NoError(t, writer.Add(ctx, rec))
	require.NoError(t, writer.Flush(ctx))

	artifact, err := store.GetArtifactByHash(ctx, "feed")
	require.NoError(t, err)

	var scoreRows int
	err = store.db.QueryRowContext(ctx,
		"SELECT COUNT(*) FROM safety_scores WHERE artifact_id = ?", artifact.ID).Scan(&scoreRows)
	require.NoError(t, err)
	assert.Equal(t, 1, scoreRows)

	score, err := store.GetSafetyScore(ctx, artifact.ID)
	require.NoError(t, err)
	assert.InDelta(t, 0.9, score, 1e-9)
}

func TestFlush_RollsBackWholeBatchOnFailure(t *testing.T) {
	store := setupTestDB(t)
	writer := NewBatchWriter(store, 10)
	ctx := context.Background()

	// The batch fails because the tags table is gone; the first record
	// alone would have succeeded. Nothing from the batch may survive.
	require.NoError(t, writer.Add(ctx, testRecord("0001", "/data/first.bin")))
	tagged := testRecord("0002", "/data/second.bin")
	tagged.Tags = []string{"doomed"}
	writer.buffer = append(writer.buffer, tagged)

	_, err := store.db.ExecContext(ctx, "DROP TABLE tags")
	require.NoError(t, err)

	err = writer.Flush(ctx)
	require.Error(t, err)

	count, err := store.CountArtifacts(ctx)
	require.NoError(t, err)
	assert.Equal(t, 0, count, "failed batch must not persist any record")

	entries, err := store.CountSearchEntries(ctx)
	require.NoError(t, err)
	assert.Equal(t, 0, entries)

	// The failed batch is dropped, not retried
	assert.Equal(t, 0, writer.Buffered())
}

func TestFlush_SearchIndexAppendsEveryFlush(t *testing.T) {
	store := setupTestDB(t)
	writer := NewBatchWriter(store, 10)
	ctx := context.Background()

	rec := testRecord("abcd", "/media/clip.mp4")
	rec.Tags = []string{"beach", "waves"}

	// Same record flushed twice accumulates two index rows. Deliberate:
	// the index favors recall of every observed pairing.
	require.NoError(t, writer.Add(ctx, rec))
	require.NoError(t, writer.Flush(ctx))
	require.NoError(t, writer.Add(ctx, rec))
	require.NoError(t, writer.Flush(ctx))

	entries, err := store.CountSearchEntries(ctx)
	require.NoError(t, err)
	assert.Equal(t, 2, entries)

	results, err := store.Search(ctx, "waves", 10)
	require.NoError(t, err)
	require.Len(t, results, 2)
	assert.Equal(t, "/media/clip.mp4", results[0].OriginalPath)
	assert.Equal(t, "beach waves", results[0].Tags)
}
