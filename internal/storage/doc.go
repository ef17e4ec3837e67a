// Package storage provides SQLite-based persistence for ingested
// artifacts.
//
// The storage layer manages:
//   - Artifact rows, deduplicated by SHA-256 content hash
//   - The tag graph (tags, artifact_tags)
//   - Per-artifact safety scores
//   - An FTS5 full-text index over (path, tags)
//
// # Schema
//
// Tables:
//   - artifacts: id, hash_sha256 (unique), original_path, media_type, width, height
//   - tags: id, name (unique)
//   - artifact_tags: (artifact_id, tag_id) composite key
//   - safety_scores: artifact_id primary key, nsfw_score
//   - search_index: FTS5 virtual table (original_path, tags_concatenated)
//
// # Writing
//
// All writes go through BatchWriter, which buffers records and commits
// them in atomic transactions:
//
//	store, err := storage.NewSQLiteStorage("archive.db")
//	if err != nil {
//	    return err
//	}
//	defer store.Close()
//
//	writer := storage.NewBatchWriter(store, 1000)
//	for record := range records {
//	    if err := writer.Add(ctx, record); err != nil {
//	        slog.Error("batch flush failed", "error", err)
//	    }
//	}
//	if err := writer.Flush(ctx); err != nil {
//	    slog.Error("final flush failed", "error", err)
//	}
//
// A batch either commits in full or rolls back in full; a failed batch
// is dropped, not retried.
//
// # Build Tags
//
// Two driver configurations are supported:
//
//   - default / purego: modernc.org/sqlite, no C compiler required
//   - sqlite_cgo: github.com/mattn/go-sqlite3, faster for large runs
//     (build with -tags "sqlite_cgo,fts5")
package storage
