package vault

import (
	"context"
	"io/fs"
	"log/slog"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/fsnotify/fsnotify"
)

// ReconcileDelay debounces the full rescan that follows renames.
const ReconcileDelay = 200 * time.Millisecond

// Watch processes file system events under the vault root until ctx is
// cancelled. Directories created at runtime are added to the watch list.
// Renames delete the old note right away and schedule a debounced Sync to
// pick up the new path.
func (im *Importer) Watch(ctx context.Context) error {
	w, err := fsnotify.NewWatcher()
	if err != nil {
		return err
	}
	defer w.Close()

	root := im.fs.Root()
	if err := addDirsRecursive(w, root); err != nil {
		return err
	}
	im.logger.Info("watcher: started", slog.String("root", root))

	var reconcileTimer *time.Timer
	var reconcileCh <-chan time.Time
	scheduleReconcile := func() {
		if reconcileTimer == nil {
			reconcileTimer = time.NewTimer(ReconcileDelay)
			reconcileCh = reconcileTimer.C
		} else {
			reconcileTimer.Reset(ReconcileDelay)
		}
	}

	for {
		select {
		case <-ctx.Done():
			if reconcileTimer != nil {
				reconcileTimer.Stop()
			}
			im.logger.Info("watcher: stopped")
			return nil

		case <-reconcileCh:
			if _, err := im.Sync(ctx); err != nil {
				im.logger.Warn("watcher: reconcile failed", slog.String("error", err.Error()))
			}

		case ev, ok := <-w.Events:
			if !ok {
				return nil
			}
			im.handle(ctx, w, ev, scheduleReconcile)

		case watchErr, ok := <-w.Errors:
			if !ok {
				return nil
			}
			im.logger.Error("watcher: error", slog.String("error", watchErr.Error()))
		}
	}
}

func (im *Importer) handle(ctx context.Context, w *fsnotify.Watcher, ev fsnotify.Event, scheduleReconcile func()) {
	if ev.Op&fsnotify.Create != 0 {
		if info, err := os.Stat(ev.Name); err == nil && info.IsDir() {
			if strings.HasPrefix(info.Name(), ".") {
				return
			}
			if err := addDirsRecursive(w, ev.Name); err != nil {
				im.logger.Warn("watcher: add new dir failed", slog.String("path", ev.Name), slog.String("error", err.Error()))
			}
			// Files may already exist in a directory moved into the vault.
			scheduleReconcile()
			return
		}
	}
	if !isNote(ev.Name) {
		return
	}
	rel, err := im.fs.Rel(ev.Name)
	if err != nil {
		return
	}

	switch {
	case ev.Op&(fsnotify.Create|fsnotify.Write) != 0:
		changed, err := im.importFile(ctx, rel)
		if err != nil {
			im.logger.Warn("watcher: import failed", slog.String("path", rel), slog.String("error", err.Error()))
			return
		}
		if changed {
			im.logger.Debug("watcher: imported", slog.String("path", rel))
		}

	case ev.Op&fsnotify.Remove != 0:
		if _, err := im.remove(ctx, rel); err != nil {
			im.logger.Warn("watcher: delete failed", slog.String("path", rel), slog.String("error", err.Error()))
		}

	case ev.Op&fsnotify.Rename != 0:
		// fsnotify reports the old name only; the new one arrives as a
		// Create if it stays inside a watched directory.
		if _, err := im.remove(ctx, rel); err != nil {
			im.logger.Warn("watcher: rename delete failed", slog.String("path", rel), slog.String("error", err.Error()))
		}
		scheduleReconcile()
	}
}

// addDirsRecursive adds root and all its non-hidden subdirectories.
func addDirsRecursive(w *fsnotify.Watcher, root string) error {
	return filepath.WalkDir(root, func(path string, d fs.DirEntry, err error) error {
		if err != nil {
			return err
		}
		if !d.IsDir() {
			return nil
		}
		if path != root && strings.HasPrefix(d.Name(), ".") {
			return filepath.SkipDir
		}
		return w.Add(path)
	})
}
