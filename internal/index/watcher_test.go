package index

import (
	"context"
	"io"
	"log/slog"
	"os"
	"path/filepath"
	"sync"
	"testing"
	"time"

	"github.com/starford/inkwell/internal/storage"
)

// watcherTestEnv sets up a site dir, storage, and DB for watcher tests.
func watcherTestEnv(t *testing.T) (string, storage.Provider, *DB) {
	t.Helper()
	siteDir := t.TempDir()
	store, err := storage.NewFS(siteDir)
	if err != nil {
		t.Fatal(err)
	}
	return siteDir, store, testDB(t)
}

func quietLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(io.Discard, nil))
}

// eventually polls fn every tick until it returns true or timeout elapses.
func eventually(t *testing.T, timeout, tick time.Duration, fn func() bool, msg string) {
	t.Helper()
	deadline := time.Now().Add(timeout)
	for time.Now().Before(deadline) {
		if fn() {
			return
		}
		time.Sleep(tick)
	}
	t.Error(msg)
}

func TestWatcher_NewFileIndexed(t *testing.T) {
	siteDir, store, db := watcherTestEnv(t)

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	var mu sync.Mutex
	var events []string

	go Watch(ctx, db, store, siteDir, quietLogger(), func(kind, path string) {
		mu.Lock()
		events = append(events, kind+":"+path)
		mu.Unlock()
	})

	time.Sleep(100 * time.Millisecond)

	_ = os.WriteFile(filepath.Join(siteDir, "new.html"), []byte(samplePage), 0o644)

	eventually(t, 5*time.Second, 50*time.Millisecond, func() bool {
		cs, _ := db.GetChecksum("new.html")
		return cs != ""
	}, "new page not indexed by watcher")

	eventually(t, 2*time.Second, 50*time.Millisecond, func() bool {
		mu.Lock()
		defer mu.Unlock()
		for _, e := range events {
			if e == "created:new.html" {
				return true
			}
		}
		return false
	}, "expected created:new.html callback")
}

func TestWatcher_IgnoresOtherFiles(t *testing.T) {
	siteDir, store, db := watcherTestEnv(t)

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	var mu sync.Mutex
	var events int
	go Watch(ctx, db, store, siteDir, quietLogger(), func(string, string) {
		mu.Lock()
		events++
		mu.Unlock()
	})
	time.Sleep(100 * time.Millisecond)

	_ = os.WriteFile(filepath.Join(siteDir, "content.json"), []byte("[]"), 0o644)
	time.Sleep(300 * time.Millisecond)

	mu.Lock()
	defer mu.Unlock()
	if events != 0 {
		t.Errorf("events = %d, want 0 for non-html file", events)
	}
}

func TestWatcher_NewDirWatched(t *testing.T) {
	siteDir, store, db := watcherTestEnv(t)

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	go Watch(ctx, db, store, siteDir, quietLogger(), nil)
	time.Sleep(100 * time.Millisecond)

	subDir := filepath.Join(siteDir, "archive")
	_ = os.MkdirAll(subDir, 0o755)
	time.Sleep(200 * time.Millisecond)

	_ = os.WriteFile(filepath.Join(subDir, "deep.html"), []byte(samplePage), 0o644)

	eventually(t, 5*time.Second, 50*time.Millisecond, func() bool {
		cs, _ := db.GetChecksum("archive/deep.html")
		return cs != ""
	}, "page in new subdir not indexed by watcher")
}

func TestWatcher_DeleteRemovesFromIndex(t *testing.T) {
	siteDir, store, db := watcherTestEnv(t)

	_ = os.WriteFile(filepath.Join(siteDir, "del.html"), []byte(samplePage), 0o644)
	_ = Sync(db, store, quietLogger())

	if cs, _ := db.GetChecksum("del.html"); cs == "" {
		t.Fatal("precondition: page should be indexed")
	}

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	go Watch(ctx, db, store, siteDir, quietLogger(), nil)
	time.Sleep(100 * time.Millisecond)

	_ = os.Remove(filepath.Join(siteDir, "del.html"))

	eventually(t, 5*time.Second, 50*time.Millisecond, func() bool {
		cs, _ := db.GetChecksum("del.html")
		return cs == ""
	}, "deleted page still in index")
}

func TestWatcher_RenameReconciles(t *testing.T) {
	siteDir, store, db := watcherTestEnv(t)

	_ = os.WriteFile(filepath.Join(siteDir, "old.html"), []byte(samplePage), 0o644)
	_ = Sync(db, store, quietLogger())

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	go Watch(ctx, db, store, siteDir, quietLogger(), nil)
	time.Sleep(100 * time.Millisecond)

	_ = os.Rename(filepath.Join(siteDir, "old.html"), filepath.Join(siteDir, "renamed.html"))

	eventually(t, 5*time.Second, 50*time.Millisecond, func() bool {
		oldCS, _ := db.GetChecksum("old.html")
		newCS, _ := db.GetChecksum("renamed.html")
		return oldCS == "" && newCS != ""
	}, "rename reconciliation failed: old path should be removed and new path indexed")
}

func TestWatcher_AtomicStoreWrite(t *testing.T) {
	siteDir, store, db := watcherTestEnv(t)

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	go Watch(ctx, db, store, siteDir, quietLogger(), nil)
	time.Sleep(100 * time.Millisecond)

	if err := store.Write("Atomic.html", []byte(samplePage)); err != nil {
		t.Fatalf("Write: %v", err)
	}

	eventually(t, 5*time.Second, 50*time.Millisecond, func() bool {
		p, err := db.GetPage("Atomic.html")
		return err == nil && p.Title == "Sample Page"
	}, "atomic store write not indexed")
}
