package storage

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
)

// ErrNotFound is returned when a requested entity doesn't exist
var ErrNotFound = errors.New("not found")

// Artifact is one deduplicated piece of content, keyed by its SHA-256 digest.
type Artifact struct {
	ID           int64
	HashSHA256   string
	OriginalPath string
	MediaType    string
	Width        *int
	Height       *int
}

// ArtifactRecord is the unit of work flowing out of the processing stage
// and into the batch writer. It carries everything one flush iteration
// needs to maintain the artifact, tag, score and search-index tables.
type ArtifactRecord struct {
	HashSHA256   string
	OriginalPath string
	MediaType    string
	Width        *int
	Height       *int
	Tags         []string
	NSFWScore    *float64
}

// SQLiteStorage owns the database connection. SQLite serializes writers,
// so the connection pool is pinned to a single connection and all writes
// funnel through the BatchWriter.
type SQLiteStorage struct {
	db *sql.DB
}

// openDatabase opens a SQLite database with appropriate settings
func openDatabase(dbPath string) (*sql.DB, error) {
	db, err := sql.Open(DriverName, dbPath)
	if err != nil {
		return nil, err
	}

	// Enable WAL mode for better concurrency
	if _, err := db.Exec("PRAGMA journal_mode=WAL"); err != nil {
		_ = db.Close()
		return nil, fmt.Errorf("failed to enable WAL mode: %w", err)
	}

	// Single writer; also keeps :memory: databases on one connection
	db.SetMaxOpenConns(1)
	db.SetMaxIdleConns(1)
	db.SetConnMaxLifetime(0)

	// Enable foreign keys
	if _, err := db.Exec("PRAGMA foreign_keys=ON"); err != nil {
		_ = db.Close()
		return nil, fmt.Errorf("failed to enable foreign keys: %w", err)
	}

	return db, nil
}

// NewSQLiteStorage opens (or creates) the archive database at dbPath and
// applies any pending schema migrations.
func NewSQLiteStorage(dbPath string) (*SQLiteStorage, error) {
	db, err := openDatabase(dbPath)
	if err != nil {
		return nil, fmt.Errorf("failed to open database: %w", err)
	}

	if err := ApplyMigrations(context.Background(), db); err != nil {
		_ = db.Close()
		return nil, fmt.Errorf("failed to apply migrations: %w", err)
	}

	return &SQLiteStorage{db: db}, nil
}

// Close closes the database connection
func (s *SQLiteStorage) Close() error {
	return s.db.Close()
}

// GetArtifactByHash returns the artifact row for a content digest.
func (s *SQLiteStorage) GetArtifactByHash(ctx context.Context, hash string) (*Artifact, error) {
	query := `
		SELECT id, hash_sha256, original_path, media_type, width, height
		FROM artifacts
		WHERE hash_sha256 = ?
	`
	var artifact Artifact
	var width, height sql.NullInt64
	err := s.db.QueryRowContext(ctx, query, hash).Scan(
		&artifact.ID, &artifact.HashSHA256, &artifact.OriginalPath,
		&artifact.MediaType, &width, &height,
	)
	if err == sql.ErrNoRows {
		return nil, ErrNotFound
	}
	if err != nil {
		return nil, err
	}
	if width.Valid {
		w := int(width.Int64)
		artifact.Width = &w
	}
	if height.Valid {
		h := int(height.Int64)
		artifact.Height = &h
	}
	return &artifact, nil
}

// ListTagsByArtifact returns the tag names linked to an artifact, sorted.
func (s *SQLiteStorage) ListTagsByArtifact(ctx context.Context, artifactID int64) ([]string, error) {
	query := `
		SELECT t.name
		FROM tags t
		JOIN artifact_tags at ON at.tag_id = t.id
		WHERE at.artifact_id = ?
		ORDER BY t.name
	`
	rows, err := s.db.QueryContext(ctx, query, artifactID)
	if err != nil {
		return nil, err
	}
	defer func() { _ = rows.Close() }()

	tags := make([]string, 0)
	for rows.Next() {
		var name string
		if err := rows.Scan(&name); err != nil {
			return nil, err
		}
		tags = append(tags, name)
	}
	return tags, rows.Err()
}

// GetSafetyScore returns the persisted score for an artifact.
func (s *SQLiteStorage) GetSafetyScore(ctx context.Context, artifactID int64) (float64, error) {
	var score float64
	err := s.db.QueryRowContext(ctx,
		"SELECT nsfw_score FROM safety_scores WHERE artifact_id = ?", artifactID).Scan(&score)
	if err == sql.ErrNoRows {
		return 0, ErrNotFound
	}
	if err != nil {
		return 0, err
	}
	return score, nil
}

// CountArtifacts returns the number of artifact rows.
func (s *SQLiteStorage) CountArtifacts(ctx context.Context) (int, error) {
	var n int
	err := s.db.QueryRowContext(ctx, "SELECT COUNT(*) FROM artifacts").Scan(&n)
	return n, err
}

// CountSearchEntries returns the number of rows in the full-text index.
func (s *SQLiteStorage) CountSearchEntries(ctx context.Context) (int, error) {
	var n int
	err := s.db.QueryRowContext(ctx, "SELECT COUNT(*) FROM search_index").Scan(&n)
	return n, err
}
