package index

import (
	"log/slog"
	"strings"

	"github.com/starford/inkwell/internal/checksum"
	"github.com/starford/inkwell/internal/parser"
	"github.com/starford/inkwell/internal/storage"
)

// PageExt is the extension of rendered pages tracked by the index.
const PageExt = ".html"

// Sync walks the site directory and brings the index up to date.
// Changed pages are re-parsed; pages gone from disk are dropped.
func Sync(db *DB, store storage.Provider, logger *slog.Logger) error {
	metas, err := store.List("", PageExt)
	if err != nil {
		return err
	}

	known, err := db.AllChecksums()
	if err != nil {
		return err
	}

	onDisk := make(map[string]struct{}, len(metas))
	var indexed, removed int
	for _, m := range metas {
		onDisk[m.Path] = struct{}{}
		if known[m.Path] == m.Checksum {
			continue
		}
		if err := indexPath(db, store, m.Path); err != nil {
			logger.Warn("sync: index failed", slog.String("path", m.Path), slog.String("error", err.Error()))
			continue
		}
		indexed++
	}

	for p := range known {
		if _, ok := onDisk[p]; ok {
			continue
		}
		if err := db.DeletePage(p); err != nil {
			logger.Warn("sync: delete failed", slog.String("path", p), slog.String("error", err.Error()))
			continue
		}
		removed++
	}

	logger.Info("sync: done",
		slog.Int("pages", len(metas)),
		slog.Int("indexed", indexed),
		slog.Int("removed", removed))
	return nil
}

func isPage(name string) bool {
	return strings.EqualFold(pathExt(name), PageExt)
}

func pathExt(name string) string {
	if i := strings.LastIndexByte(name, '.'); i >= 0 {
		return name[i:]
	}
	return ""
}

// indexPath reads a page from the store and upserts it.
func indexPath(db *DB, store storage.Provider, path string) error {
	data, err := store.Read(path)
	if err != nil {
		return err
	}
	return IndexPage(db, path, data)
}

// IndexPage parses rendered HTML and upserts it under path.
func IndexPage(db *DB, path string, data []byte) error {
	res, err := parser.Parse(data)
	if err != nil {
		return err
	}
	return db.UpsertPage(PageRow{
		Path:        path,
		Title:       res.Title,
		Date:        res.Date,
		Description: res.Description,
		Keywords:    res.Keywords,
		Checksum:    checksum.Sum(data),
	}, res.Body)
}
