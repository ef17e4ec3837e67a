package storage

import (
	"context"
	"database/sql"
	"fmt"
	"strings"
)

// DefaultBatchSize is the buffer capacity that triggers an automatic flush.
const DefaultBatchSize = 1000

// BatchWriter buffers artifact records and commits them in atomic
// batches. It is the sole writer to the database: exactly one instance
// should exist per run, fed by a single goroutine draining the pipeline.
//
// A batch either commits in full or rolls back in full. Records from a
// failed batch are dropped, there is no retry path; callers log the
// error and move on.
type BatchWriter struct {
	store     *SQLiteStorage
	buffer    []ArtifactRecord
	batchSize int
}

// NewBatchWriter creates a writer on top of an open store. batchSize <= 0
// selects DefaultBatchSize.
func NewBatchWriter(store *SQLiteStorage, batchSize int) *BatchWriter {
	if batchSize <= 0 {
		batchSize = DefaultBatchSize
	}
	return &BatchWriter{
		store:     store,
		buffer:    make([]ArtifactRecord, 0, batchSize),
		batchSize: batchSize,
	}
}

// Add appends a record to the buffer, flushing when the buffer reaches
// the configured batch size.
func (w *BatchWriter) Add(ctx context.Context, record ArtifactRecord) error {
	w.buffer = append(w.buffer, record)
	if len(w.buffer) >= w.batchSize {
		return w.Flush(ctx)
	}
	return nil
}

// Buffered returns the number of records awaiting the next flush.
func (w *BatchWriter) Buffered() int {
	return len(w.buffer)
}

// Flush writes every buffered record inside one transaction, in arrival
// order. Call once more after the input stream ends to persist the tail
// below the auto-flush threshold.
func (w *BatchWriter) Flush(ctx context.Context) error {
	if len(w.buffer) == 0 {
		return nil
	}

	// Buffer is consumed either way; a failed batch is not retried.
	records := w.buffer
	w.buffer = w.buffer[:0]

	tx, err := w.store.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("failed to begin transaction: %w", err)
	}

	if err := w.writeBatch(ctx, tx, records); err != nil {
		_ = tx.Rollback()
		return err
	}

	if err := tx.Commit(); err != nil {
		return fmt.Errorf("failed to commit batch of %d records: %w", len(records), err)
	}
	return nil
}

func (w *BatchWriter) writeBatch(ctx context.Context, tx *sql.Tx, records []ArtifactRecord) error {
	stmtArtifact, err := tx.PrepareContext(ctx, `
		INSERT INTO artifacts (hash_sha256, original_path, media_type, width, height)
		VALUES (?, ?, ?, ?, ?)
		ON CONFLICT(hash_sha256) DO UPDATE SET original_path = excluded.original_path
		RETURNING id
	`)
	if err != nil {
		return fmt.Errorf("failed to prepare artifact upsert: %w", err)
	}
	defer func() { _ = stmtArtifact.Close() }()

	stmtTag, err := tx.PrepareContext(ctx, `INSERT OR IGNORE INTO tags (name) VALUES (?)`)
	if err != nil {
		return fmt.Errorf("failed to prepare tag insert: %w", err)
	}
	defer func() { _ = stmtTag.Close() }()

	stmtTagID, err := tx.PrepareContext(ctx, `SELECT id FROM tags WHERE name = ?`)
	if err != nil {
		return fmt.Errorf("failed to prepare tag lookup: %w", err)
	}
	defer func() { _ = stmtTagID.Close() }()

	stmtLink, err := tx.PrepareContext(ctx, `
		INSERT OR IGNORE INTO artifact_tags (artifact_id, tag_id) VALUES (?, ?)
	`)
	if err != nil {
		return fmt.Errorf("failed to prepare artifact_tags insert: %w", err)
	}
	defer func() { _ = stmtLink.Close() }()

	stmtScore, err := tx.PrepareContext(ctx, `
		INSERT OR REPLACE INTO safety_scores (artifact_id, nsfw_score) VALUES (?, ?)
	`)
	if err != nil {
		return fmt.Errorf("failed to prepare safety_scores upsert: %w", err)
	}
	defer func() { _ = stmtScore.Close() }()

	// The search index has no unique constraint: every flushed record
	// appends a row, even for a path already indexed. Kept for
	// compatibility with existing archives.
	stmtSearch, err := tx.PrepareContext(ctx, `
		INSERT INTO search_index (original_path, tags_concatenated) VALUES (?, ?)
	`)
	if err != nil {
		return fmt.Errorf("failed to prepare search_index insert: %w", err)
	}
	defer func() { _ = stmtSearch.Close() }()

	for i := range records {
		record := &records[i]

		var artifactID int64
		err := stmtArtifact.QueryRowContext(ctx,
			record.HashSHA256, record.OriginalPath, record.MediaType,
			nullableInt(record.Width), nullableInt(record.Height),
		).Scan(&artifactID)
		if err != nil {
			return fmt.Errorf("failed to upsert artifact %s: %w", record.HashSHA256, err)
		}

		for _, tag := range record.Tags {
			if _, err := stmtTag.ExecContext(ctx, tag); err != nil {
				return fmt.Errorf("failed to insert tag %q: %w", tag, err)
			}
			var tagID int64
			if err := stmtTagID.QueryRowContext(ctx, tag).Scan(&tagID); err != nil {
				return fmt.Errorf("failed to resolve tag %q: %w", tag, err)
			}
			if _, err := stmtLink.ExecContext(ctx, artifactID, tagID); err != nil {
				return fmt.Errorf("failed to link tag %q: %w", tag, err)
			}
		}

		if record.NSFWScore != nil {
			if _, err := stmtScore.ExecContext(ctx, artifactID, *record.NSFWScore); err != nil {
				return fmt.Errorf("failed to upsert safety score: %w", err)
			}
		}

		tagsConcat := strings.Join(record.Tags, " ")
		if _, err := stmtSearch.ExecContext(ctx, record.OriginalPath, tagsConcat); err != nil {
			return fmt.Errorf("failed to append search index entry: %w", err)
		}
	}

	return nil
}

func nullableInt(v *int) interface{} {
	if v == nil {
		return nil
	}
	return *v
}
