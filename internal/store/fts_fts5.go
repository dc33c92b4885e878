//go:build sqlite_fts5

package store

import (
	"context"
	"database/sql"
	"fmt"
)

func initFTS(conn *sql.DB) error {
	_, err := conn.Exec(`
		CREATE VIRTUAL TABLE IF NOT EXISTS notes_fts USING fts5(
			note_id UNINDEXED,
			title,
			category,
			content,
			tokenize = 'unicode61 remove_diacritics 2'
		);
	`)
	return err
}

func ftsUpsert(ctx context.Context, tx *sql.Tx, id int64, title, category, content string) error {
	_, _ = tx.ExecContext(ctx, `DELETE FROM notes_fts WHERE note_id = ?`, id)
	_, err := tx.ExecContext(ctx, `INSERT INTO notes_fts (note_id, title, category, content) VALUES (?, ?, ?, ?)`,
		id, title, category, content)
	if err != nil {
		return fmt.Errorf("store: upsert fts: %w", err)
	}
	return nil
}

func ftsDelete(ctx context.Context, tx *sql.Tx, id int64) {
	_, _ = tx.ExecContext(ctx, `DELETE FROM notes_fts WHERE note_id = ?`, id)
}

func ftsClear(ctx context.Context, tx *sql.Tx) {
	_, _ = tx.ExecContext(ctx, `DELETE FROM notes_fts`)
}

// Search performs an FTS5 full-text search ordered by rank.
func (db *DB) Search(ctx context.Context, query string, limit int) ([]SearchResult, error) {
	if limit <= 0 {
		limit = defaultSearchLimit
	}
	rows, err := db.conn.QueryContext(ctx, `
		SELECT note_id,
		       title,
		       snippet(notes_fts, 3, '<b>', '</b>', '...', 32)
		FROM notes_fts
		WHERE notes_fts MATCH ?
		ORDER BY rank
		LIMIT ?
	`, query, limit)
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
