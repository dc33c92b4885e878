package store

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	"github.com/starford/mindra/internal/models"
	"github.com/starford/mindra/internal/parser"
)

// SourceChecksums maps each imported file path to the checksum it was last
// imported with.
func (db *DB) SourceChecksums(ctx context.Context) (map[string]string, error) {
	rows, err := db.conn.QueryContext(ctx, `SELECT source_path, checksum FROM notes WHERE source_path IS NOT NULL`)
	if err != nil {
		return nil, fmt.Errorf("store: source checksums: %w", err)
	}
	defer rows.Close()

	out := make(map[string]string)
	for rows.Next() {
		var p, cs string
		if err := rows.Scan(&p, &cs); err != nil {
			return nil, err
		}
		out[p] = cs
	}
	return out, rows.Err()
}

// UpsertSource creates or refreshes the note imported from path. The bool
// result reports whether a new note was created.
func (db *DB) UpsertSource(ctx context.Context, path, sum string, doc parser.Document) (models.Note, bool, error) {
	tx, err := db.conn.BeginTx(ctx, nil)
	if err != nil {
		return models.Note{}, false, fmt.Errorf("store: begin tx: %w", err)
	}
	defer tx.Rollback() //nolint:errcheck

	var id int64
	err = tx.QueryRowContext(ctx, `SELECT id FROM notes WHERE source_path = ?`, path).Scan(&id)
	created := errors.Is(err, sql.ErrNoRows)
	switch {
	case created:
		id, err = insertSource(ctx, tx, path, sum, doc, db.timestamp())
	case err != nil:
		return models.Note{}, false, fmt.Errorf("store: lookup source: %w", err)
	case doc.CreatedAt.IsZero():
		_, err = tx.ExecContext(ctx,
			`UPDATE notes SET title = ?, category = ?, content = ?, checksum = ? WHERE id = ?`,
			doc.Title, doc.Category, doc.Content, sum, id)
	default:
		_, err = tx.ExecContext(ctx,
			`UPDATE notes SET title = ?, category = ?, content = ?, checksum = ?, created_at = ? WHERE id = ?`,
			doc.Title, doc.Category, doc.Content, sum, doc.CreatedAt.UTC(), id)
	}
	if err != nil {
		return models.Note{}, false, fmt.Errorf("store: upsert source: %w", err)
	}

	if err := ftsUpsert(ctx, tx, id, doc.Title, doc.Category, doc.Content); err != nil {
		return models.Note{}, false, err
	}
	if err := tx.Commit(); err != nil {
		return models.Note{}, false, fmt.Errorf("store: commit: %w", err)
	}
	n, err := db.Get(ctx, id)
	return n, created, err
}

func insertSource(ctx context.Context, tx *sql.Tx, path, sum string, doc parser.Document, now time.Time) (int64, error) {
	at := doc.CreatedAt
	if at.IsZero() {
		at = now
	}
	res, err := tx.ExecContext(ctx, `
		INSERT INTO notes (title, category, content, created_at, source_path, checksum)
		VALUES (?, ?, ?, ?, ?, ?)
	`, doc.Title, doc.Category, doc.Content, at.UTC(), path, sum)
	if err != nil {
		return 0, err
	}
	return res.LastInsertId()
}

// DeleteSource removes the note imported from path. It reports the removed
// id and whether such a note existed.
func (db *DB) DeleteSource(ctx context.Context, path string) (int64, bool, error) {
	tx, err := db.conn.BeginTx(ctx, nil)
	if err != nil {
		return 0, false, fmt.Errorf("store: begin tx: %w", err)
	}
	defer tx.Rollback() //nolint:errcheck

	var id int64
	err = tx.QueryRowContext(ctx, `SELECT id FROM notes WHERE source_path = ?`, path).Scan(&id)
	if errors.Is(err, sql.ErrNoRows) {
		return 0, false, nil
	}
	if err != nil {
		return 0, false, fmt.Errorf("store: lookup source: %w", err)
	}
	if _, err := tx.ExecContext(ctx, `DELETE FROM notes WHERE id = ?`, id); err != nil {
		return 0, false, fmt.Errorf("store: delete source: %w", err)
	}
	ftsDelete(ctx, tx, id)
	if err := tx.Commit(); err != nil {
		return 0, false, fmt.Errorf("store: commit: %w", err)
	}
	return id, true, nil
}
