package index

import (
	"context"
	"io/fs"
	"log/slog"
	"os"
	"path/filepath"
	"time"

	"github.com/fsnotify/fsnotify"
	"github.com/starford/inkwell/internal/storage"
)

// Event kinds reported to an EventCallback.
const (
	EventCreated = "created"
	EventUpdated = "updated"
	EventDeleted = "deleted"
)

// EventCallback is called after a watcher-driven index change.
type EventCallback func(kind string, path string)

const reconcileDelay = 200 * time.Millisecond

type pageWatcher struct {
	db     *DB
	store  storage.Provider
	root   string
	logger *slog.Logger
	cb     EventCallback
}

func (pw *pageWatcher) notify(kind, path string) {
	if pw.cb != nil {
		pw.cb(kind, path)
	}
}

// Watch keeps the index in sync with the site directory until ctx is
// cancelled. Directories created at runtime are watched too. Renames
// schedule a reconciliation pass since fsnotify only reports the old name.
func Watch(ctx context.Context, db *DB, store storage.Provider, root string, logger *slog.Logger, cb EventCallback) error {
	w, err := fsnotify.NewWatcher()
	if err != nil {
		return err
	}
	defer w.Close()

	if err := addDirsRecursive(w, root); err != nil {
		return err
	}

	pw := &pageWatcher{db: db, store: store, root: root, logger: logger, cb: cb}
	logger.Info("watcher: started", slog.String("root", root))

	reconcile := time.NewTimer(reconcileDelay)
	reconcile.Stop()
	defer reconcile.Stop()

	for {
		select {
		case <-ctx.Done():
			logger.Info("watcher: stopped")
			return nil

		case <-reconcile.C:
			pw.reconcile()

		case ev, ok := <-w.Events:
			if !ok {
				return nil
			}
			if ev.Op&fsnotify.Create != 0 {
				if info, statErr := os.Stat(ev.Name); statErr == nil && info.IsDir() {
					if addErr := addDirsRecursive(w, ev.Name); addErr != nil {
						logger.Warn("watcher: add dir failed",
							slog.String("path", ev.Name),
							slog.String("error", addErr.Error()))
					}
					pw.indexDir(ev.Name)
					continue
				}
			}
			if pw.handle(ev) {
				reconcile.Reset(reconcileDelay)
			}

		case watchErr, ok := <-w.Errors:
			if !ok {
				return nil
			}
			logger.Error("watcher: error", slog.String("error", watchErr.Error()))
		}
	}
}

// handle applies one file event and reports whether a reconciliation pass
// is needed.
func (pw *pageWatcher) handle(ev fsnotify.Event) bool {
	if !isPage(ev.Name) {
		return false
	}
	rel, err := filepath.Rel(pw.root, ev.Name)
	if err != nil {
		return false
	}
	rel = filepath.ToSlash(rel)

	switch {
	case ev.Op&(fsnotify.Create|fsnotify.Write) != 0:
		if err := indexPath(pw.db, pw.store, rel); err != nil {
			pw.logger.Warn("watcher: index failed", slog.String("path", rel), slog.String("error", err.Error()))
			return false
		}
		kind := EventUpdated
		if ev.Op&fsnotify.Create != 0 {
			kind = EventCreated
		}
		pw.logger.Debug("watcher: indexed", slog.String("path", rel), slog.String("op", kind))
		pw.notify(kind, rel)

	case ev.Op&(fsnotify.Remove|fsnotify.Rename) != 0:
		if err := pw.db.DeletePage(rel); err != nil {
			pw.logger.Warn("watcher: delete failed", slog.String("path", rel), slog.String("error", err.Error()))
		} else {
			pw.notify(EventDeleted, rel)
		}
		// Atomic writes land as a rename onto the page name.
		return ev.Op&fsnotify.Rename != 0
	}
	return false
}

// reconcile drops index entries without a file and indexes files whose
// checksum differs from the stored one.
func (pw *pageWatcher) reconcile() {
	known, err := pw.db.AllChecksums()
	if err != nil {
		pw.logger.Warn("reconcile: checksums failed", slog.String("error", err.Error()))
		return
	}
	metas, err := pw.store.List("", PageExt)
	if err != nil {
		pw.logger.Warn("reconcile: list failed", slog.String("error", err.Error()))
		return
	}

	onDisk := make(map[string]string, len(metas))
	for _, m := range metas {
		onDisk[m.Path] = m.Checksum
	}

	for p := range known {
		if _, ok := onDisk[p]; ok {
			continue
		}
		if err := pw.db.DeletePage(p); err == nil {
			pw.notify(EventDeleted, p)
		}
	}
	for p, cs := range onDisk {
		prev, seen := known[p]
		if prev == cs {
			continue
		}
		if err := indexPath(pw.db, pw.store, p); err != nil {
			continue
		}
		if seen {
			pw.notify(EventUpdated, p)
		} else {
			pw.notify(EventCreated, p)
		}
	}
}

func (pw *pageWatcher) indexDir(dir string) {
	_ = filepath.WalkDir(dir, func(path string, d fs.DirEntry, err error) error {
		if err != nil || d.IsDir() || !isPage(path) {
			return nil
		}
		rel, relErr := filepath.Rel(pw.root, path)
		if relErr != nil {
			return nil
		}
		rel = filepath.ToSlash(rel)
		if indexPath(pw.db, pw.store, rel) == nil {
			pw.notify(EventCreated, rel)
		}
		return nil
	})
}

// addDirsRecursive adds root and all its subdirectories to the watcher.
func addDirsRecursive(w *fsnotify.Watcher, root string) error {
	return filepath.WalkDir(root, func(path string, d fs.DirEntry, err error) error {
		if err != nil {
			return err
		}
		if d.IsDir() {
			return w.Add(path)
		}
		return nil
	})
}
