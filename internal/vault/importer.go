package vault

import (
	"context"
	"fmt"
	"log/slog"
	"sync"

	"github.com/starford/mindra/internal/checksum"
	"github.com/starford/mindra/internal/noteservice"
	"github.com/starford/mindra/internal/parser"
	"github.com/starford/mindra/internal/store"
)

// Callback receives every note the importer creates, updates or deletes.
type Callback func(kind noteservice.ChangeKind, id int64)

// Result counts what one Sync pass did.
type Result struct {
	Created   int `json:"created"`
	Updated   int `json:"updated"`
	Deleted   int `json:"deleted"`
	Unchanged int `json:"unchanged"`
	Failed    int `json:"failed"`
}

// Importer mirrors vault files into the store. Each file maps to one note
// keyed by its vault path.
type Importer struct {
	fs     *FS
	store  store.NoteStore
	logger *slog.Logger
	cb     Callback

	mu   sync.Mutex
	sums map[string]string // vault path -> imported checksum
}

// NewImporter returns an importer. cb may be nil.
func NewImporter(fsys *FS, st store.NoteStore, logger *slog.Logger, cb Callback) *Importer {
	if logger == nil {
		logger = slog.Default()
	}
	return &Importer{fs: fsys, store: st, logger: logger, cb: cb}
}

func (im *Importer) emit(kind noteservice.ChangeKind, id int64) {
	if im.cb != nil {
		im.cb(kind, id)
	}
}

// Sync brings the store up to date with the vault: new or changed files are
// parsed and upserted, notes whose file is gone are deleted.
func (im *Importer) Sync(ctx context.Context) (Result, error) {
	var res Result
	files, err := im.fs.List("")
	if err != nil {
		return res, err
	}
	sums, err := im.store.SourceChecksums(ctx)
	if err != nil {
		return res, err
	}

	disk := make(map[string]struct{}, len(files))
	for _, f := range files {
		disk[f.Path] = struct{}{}
		if sums[f.Path] == f.Checksum {
			res.Unchanged++
			continue
		}
		data, err := im.fs.Read(f.Path)
		if err != nil {
			im.logger.Warn("sync: read failed", slog.String("path", f.Path), slog.String("error", err.Error()))
			res.Failed++
			continue
		}
		created, err := im.importData(ctx, f.Path, data)
		if err != nil {
			im.logger.Warn("sync: import failed", slog.String("path", f.Path), slog.String("error", err.Error()))
			res.Failed++
			continue
		}
		if created {
			res.Created++
		} else {
			res.Updated++
		}
		im.logger.Debug("sync: imported", slog.String("path", f.Path))
	}

	for p := range sums {
		if _, ok := disk[p]; ok {
			continue
		}
		removed, err := im.remove(ctx, p)
		if err != nil {
			im.logger.Warn("sync: delete failed", slog.String("path", p), slog.String("error", err.Error()))
			res.Failed++
			continue
		}
		if removed {
			res.Deleted++
			im.logger.Debug("sync: removed stale", slog.String("path", p))
		}
	}

	im.mu.Lock()
	im.sums = nil
	im.mu.Unlock()
	return res, nil
}

// importFile reads path and imports it unless its checksum is unchanged.
// It reports whether the store was modified.
func (im *Importer) importFile(ctx context.Context, path string) (bool, error) {
	data, err := im.fs.Read(path)
	if err != nil {
		return false, err
	}
	known, err := im.knownSums(ctx)
	if err != nil {
		return false, err
	}
	im.mu.Lock()
	same := known[path] == checksum.Sum(data)
	im.mu.Unlock()
	if same {
		return false, nil
	}
	_, err = im.importData(ctx, path, data)
	return err == nil, err
}

func (im *Importer) importData(ctx context.Context, path string, data []byte) (bool, error) {
	sum := checksum.Sum(data)
	doc := parser.ParseDocument(path, data)
	if doc.Category == "" {
		doc.Category = categoryOf(path)
	}
	n, created, err := im.store.UpsertSource(ctx, path, sum, doc)
	if err != nil {
		return false, fmt.Errorf("vault: import %s: %w", path, err)
	}
	im.mu.Lock()
	if im.sums != nil {
		im.sums[path] = sum
	}
	im.mu.Unlock()

	kind := noteservice.Updated
	if created {
		kind = noteservice.Created
	}
	im.emit(kind, n.ID)
	return created, nil
}

func (im *Importer) remove(ctx context.Context, path string) (bool, error) {
	id, ok, err := im.store.DeleteSource(ctx, path)
	if err != nil {
		return false, fmt.Errorf("vault: remove %s: %w", path, err)
	}
	im.mu.Lock()
	if im.sums != nil {
		delete(im.sums, path)
	}
	im.mu.Unlock()
	if ok {
		im.emit(noteservice.Deleted, id)
	}
	return ok, nil
}

// knownSums lazily loads the imported checksums for watcher-driven imports.
func (im *Importer) knownSums(ctx context.Context) (map[string]string, error) {
	im.mu.Lock()
	defer im.mu.Unlock()
	if im.sums != nil {
		return im.sums, nil
	}
	sums, err := im.store.SourceChecksums(ctx)
	if err != nil {
		return nil, err
	}
	im.sums = sums
	return sums, nil
}

// DefaultCategory is used for files at the vault root without a category in
// their frontmatter.
const DefaultCategory = "vault"

// categoryOf uses the top-level directory of path as the category.
func categoryOf(path string) string {
	for i := 0; i < len(path); i++ {
		if path[i] == '/' {
			return path[:i]
		}
	}
	return DefaultCategory
}
