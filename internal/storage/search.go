package storage

import (
	"context"
)

// SearchResult is one full-text match from the search index.
type SearchResult struct {
	OriginalPath string
	Tags         string
}

// Search runs an FTS5 MATCH query against the search index.
//
// Note: in FTS5, 'rank' is a built-in virtual column representing BM25
// relevance. Lower values indicate better matches.
func (s *SQLiteStorage) Search(ctx context.Context, query string, limit int) ([]SearchResult, error) {
	sqlQuery := `
		SELECT original_path, tags_concatenated
		FROM search_index
		WHERE search_index MATCH ?
		ORDER BY rank
		LIMIT ?
	`
	rows, err := s.db.QueryContext(ctx, sqlQuery, query, limit)
	if err != nil {
		return nil, err
	}
	defer func() { _ = rows.Close() }()

	results := make([]SearchResult, 0)
	for rows.Next() {
		var r SearchResult
		if err := rows.Scan(&r.OriginalPath, &r.Tags); err != nil {
			return nil, err
		}
		results = append(results, r)
	}
	return results, rows.Err()
}
