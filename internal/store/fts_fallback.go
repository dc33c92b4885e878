//go:build !sqlite_fts5

package store

import (
	"context"
	"database/sql"
	"fmt"
)

func initFTS(_ *sql.DB) error {
	// Without FTS5 search scans notes.title/content with LIKE.
	return nil
}

func ftsUpsert(_ context.Context, _ *sql.Tx, _ int64, _, _, _ string) error { return nil }

func ftsDelete(_ context.Context, _ *sql.Tx, _ int64) {}

func ftsClear(_ context.Context, _ *sql.Tx) {}

// Search performs a case-insensitive substring search over title, category
// and content.
func (db *DB) Search(ctx context.Context, query string, limit int) ([]SearchResult, error) {
	if limit <= 0 {
		limit = defaultSearchLimit
	}
	like := "%" + query + "%"
	rows, err := db.conn.QueryContext(ctx, `
		SELECT id, title, substr(content, 1, 200)
		FROM notes
		WHERE title LIKE ? OR category LIKE ? OR content LIKE ?
		ORDER BY created_at DESC, id DESC
		LIMIT ?
	`, like, like, like, limit)
	if err != nil {
		return nil, fmt.Errorf("store: search: %w", err)
	}
	defer rows.Close()

	out := []SearchResult{}
	for rows.Next() {
		var r SearchResult
		if err := rows.Scan(&r.ID, &r.Title, &r.Snippet); err != nil {
			return nil, err
		}
		out = append(out, r)
	}
	return out, rows.Err()
}
