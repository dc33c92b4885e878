package store

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	"github.com/starford/mindra/internal/apperr"
	"github.com/starford/mindra/internal/models"
	"github.com/starford/mindra/internal/parser"
)

const noteColumns = `id, title, category, content, created_at, COALESCE(source_path, '')`

type scanner interface {
	Scan(dest ...any) error
}

func scanNote(s scanner) (models.Note, error) {
	var n models.Note
	if err := s.Scan(&n.ID, &n.Title, &n.Category, &n.Content, &n.CreatedAt, &n.SourcePath); err != nil {
		return models.Note{}, err
	}
	n.CreatedAt = n.CreatedAt.UTC()
	n.Links = parser.Links(n.Content)
	return n, nil
}

func (db *DB) queryNotes(ctx context.Context, query string, args ...any) ([]models.Note, error) {
	rows, err := db.conn.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	out := []models.Note{}
	for rows.Next() {
		n, err := scanNote(rows)
		if err != nil {
			return nil, err
		}
		out = append(out, n)
	}
	return out, rows.Err()
}

// ListAll returns every note, newest first.
func (db *DB) ListAll(ctx context.Context) ([]models.Note, error) {
	notes, err := db.queryNotes(ctx, `SELECT `+noteColumns+` FROM notes ORDER BY created_at DESC, id DESC`)
	if err != nil {
		return nil, fmt.Errorf("store: list notes: %w", err)
	}
	return notes, nil
}

// ListByCategory returns the notes of one category, newest first.
func (db *DB) ListByCategory(ctx context.Context, category string) ([]models.Note, error) {
	notes, err := db.queryNotes(ctx,
		`SELECT `+noteColumns+` FROM notes WHERE category = ? ORDER BY created_at DESC, id DESC`, category)
	if err != nil {
		return nil, fmt.Errorf("store: list category: %w", err)
	}
	return notes, nil
}

// Get returns one note or apperr.ErrNotFound.
func (db *DB) Get(ctx context.Context, id int64) (models.Note, error) {
	n, err := scanNote(db.conn.QueryRowContext(ctx, `SELECT `+noteColumns+` FROM notes WHERE id = ?`, id))
	if errors.Is(err, sql.ErrNoRows) {
		return models.Note{}, fmt.Errorf("store: note %d: %w", id, apperr.ErrNotFound)
	}
	if err != nil {
		return models.Note{}, fmt.Errorf("store: get note: %w", err)
	}
	return n, nil
}

// Insert stores a new note and returns it with its id. A zero CreatedAt is
// set to the current time.
func (db *DB) Insert(ctx context.Context, n models.Note) (models.Note, error) {
	if n.CreatedAt.IsZero() {
		n.CreatedAt = db.timestamp()
	}
	n.CreatedAt = n.CreatedAt.UTC()

	tx, err := db.conn.BeginTx(ctx, nil)
	if err != nil {
		return models.Note{}, fmt.Errorf("store: begin tx: %w", err)
	}
	defer tx.Rollback() //nolint:errcheck

	res, err := tx.ExecContext(ctx,
		`INSERT INTO notes (title, category, content, created_at) VALUES (?, ?, ?, ?)`,
		n.Title, n.Category, n.Content, n.CreatedAt)
	if err != nil {
		return models.Note{}, fmt.Errorf("store: insert note: %w", err)
	}
	if n.ID, err = res.LastInsertId(); err != nil {
		return models.Note{}, fmt.Errorf("store: insert id: %w", err)
	}
	if err := ftsUpsert(ctx, tx, n.ID, n.Title, n.Category, n.Content); err != nil {
		return models.Note{}, err
	}
	if err := tx.Commit(); err != nil {
		return models.Note{}, fmt.Errorf("store: commit: %w", err)
	}
	n.SourcePath = ""
	n.Links = parser.Links(n.Content)
	return n, nil
}

// Update replaces title, category and content of an existing note. The
// creation time and source path are kept.
func (db *DB) Update(ctx context.Context, n models.Note) (models.Note, error) {
	tx, err := db.conn.BeginTx(ctx, nil)
	if err != nil {
		return models.Note{}, fmt.Errorf("store: begin tx: %w", err)
	}
	defer tx.Rollback() //nolint:errcheck

	res, err := tx.ExecContext(ctx,
		`UPDATE notes SET title = ?, category = ?, content = ? WHERE id = ?`,
		n.Title, n.Category, n.Content, n.ID)
	if err != nil {
		return models.Note{}, fmt.Errorf("store: update note: %w", err)
	}
	if affected, _ := res.RowsAffected(); affected == 0 {
		return models.Note{}, fmt.Errorf("store: note %d: %w", n.ID, apperr.ErrNotFound)
	}
	if err := ftsUpsert(ctx, tx, n.ID, n.Title, n.Category, n.Content); err != nil {
		return models.Note{}, err
	}
	if err := tx.Commit(); err != nil {
		return models.Note{}, fmt.Errorf("store: commit: %w", err)
	}
	return db.Get(ctx, n.ID)
}

// Delete removes one note.
func (db *DB) Delete(ctx context.Context, id int64) error {
	tx, err := db.conn.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("store: begin tx: %w", err)
	}
	defer tx.Rollback() //nolint:errcheck

	res, err := tx.ExecContext(ctx, `DELETE FROM notes WHERE id = ?`, id)
	if err != nil {
		return fmt.Errorf("store: delete note: %w", err)
	}
	if affected, _ := res.RowsAffected(); affected == 0 {
		return fmt.Errorf("store: note %d: %w", id, apperr.ErrNotFound)
	}
	ftsDelete(ctx, tx, id)
	return tx.Commit()
}

// DeleteAll removes every note and returns how many were removed.
func (db *DB) DeleteAll(ctx context.Context) (int64, error) {
	tx, err := db.conn.BeginTx(ctx, nil)
	if err != nil {
		return 0, fmt.Errorf("store: begin tx: %w", err)
	}
	defer tx.Rollback() //nolint:errcheck

	res, err := tx.ExecContext(ctx, `DELETE FROM notes`)
	if err != nil {
		return 0, fmt.Errorf("store: delete all: %w", err)
	}
	ftsClear(ctx, tx)
	if err := tx.Commit(); err != nil {
		return 0, fmt.Errorf("store: commit: %w", err)
	}
	n, _ := res.RowsAffected()
	return n, nil
}
