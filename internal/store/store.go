// Package store persists notes in SQLite.
package store

import (
	"context"
	"database/sql"
	"fmt"
	"time"

	_ "github.com/mattn/go-sqlite3"

	"github.com/starford/mindra/internal/models"
	"github.com/starford/mindra/internal/parser"
)

const schemaSQL = `
CREATE TABLE IF NOT EXISTS notes (
	id          INTEGER PRIMARY KEY AUTOINCREMENT,
	title       TEXT NOT NULL,
	category    TEXT NOT NULL DEFAULT '',
	content     TEXT NOT NULL DEFAULT '',
	created_at  DATETIME NOT NULL,
	source_path TEXT UNIQUE,
	checksum    TEXT NOT NULL DEFAULT ''
);

CREATE INDEX IF NOT EXISTS idx_notes_category ON notes(category);
CREATE INDEX IF NOT EXISTS idx_notes_created ON notes(created_at);
`

// NoteStore is the persistence surface the service layer depends on.
type NoteStore interface {
	ListAll(ctx context.Context) ([]models.Note, error)
	ListByCategory(ctx context.Context, category string) ([]models.Note, error)
	Get(ctx context.Context, id int64) (models.Note, error)
	Insert(ctx context.Context, n models.Note) (models.Note, error)
	Update(ctx context.Context, n models.Note) (models.Note, error)
	Delete(ctx context.Context, id int64) error
	DeleteAll(ctx context.Context) (int64, error)
	Search(ctx context.Context, query string, limit int) ([]SearchResult, error)

	SourceChecksums(ctx context.Context) (map[string]string, error)
	UpsertSource(ctx context.Context, path, sum string, doc parser.Document) (models.Note, bool, error)
	DeleteSource(ctx context.Context, path string) (int64, bool, error)

	Ping(ctx context.Context) error
	Close() error
}

var _ NoteStore = (*DB)(nil)

// DB wraps a sql.DB with note operations.
type DB struct {
	conn *sql.DB
	now  func() time.Time
}

// Open opens (or creates) the SQLite database and applies the schema.
func Open(dsn string) (*DB, error) {
	conn, err := sql.Open("sqlite3", dsn+"?_journal_mode=WAL&_busy_timeout=5000&_foreign_keys=on")
	if err != nil {
		return nil, fmt.Errorf("store: open db: %w", err)
	}
	if err := conn.Ping(); err != nil {
		conn.Close()
		return nil, fmt.Errorf("store: ping: %w", err)
	}
	if _, err := conn.Exec(schemaSQL); err != nil {
		conn.Close()
		return nil, fmt.Errorf("store: apply schema: %w", err)
	}
	if err := initFTS(conn); err != nil {
		conn.Close()
		return nil, fmt.Errorf("store: apply fts schema: %w", err)
	}
	return &DB{conn: conn, now: time.Now}, nil
}

// Ping checks the connection.
func (db *DB) Ping(ctx context.Context) error {
	return db.conn.PingContext(ctx)
}

// Close closes the underlying database connection.
func (db *DB) Close() error {
	return db.conn.Close()
}

func (db *DB) timestamp() time.Time {
	return db.now().UTC()
}
