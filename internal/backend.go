package internal

import (
	"fmt"
	"log/slog"
	"os"

	"github.com/starford/mindra/internal/noteservice"
	"github.com/starford/mindra/internal/store"
	"github.com/starford/mindra/internal/vault"
)

// Backend is the storage side shared by the server and the CLI commands.
type Backend struct {
	DB       *store.DB
	Notes    *noteservice.Service
	Importer *vault.Importer // nil when no vault is configured
}

// OpenBackend opens the database and, when a vault is configured, prepares
// its importer. Importer changes are reported through the note service
// listeners.
func OpenBackend(cfg *Config, logger *slog.Logger) (*Backend, error) {
	db, err := store.Open(cfg.SQLite.Path)
	if err != nil {
		return nil, fmt.Errorf("init store: %w", err)
	}
	b := &Backend{DB: db, Notes: noteservice.New(db)}

	if cfg.Vault.Enabled() {
		if err := os.MkdirAll(cfg.Vault.Path, 0o755); err != nil {
			db.Close()
			return nil, fmt.Errorf("create vault dir: %w", err)
		}
		fsys, err := vault.NewFS(cfg.Vault.Path)
		if err != nil {
			db.Close()
			return nil, fmt.Errorf("init vault: %w", err)
		}
		b.Importer = vault.NewImporter(fsys, db, logger, b.Notes.Notify)
	}
	return b, nil
}

// Close releases the database.
func (b *Backend) Close() error {
	return b.DB.Close()
}
