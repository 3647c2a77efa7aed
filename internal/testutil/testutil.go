// Package testutil provides shared test helpers: a scripted Notion source,
// temporary sites, and temporary index databases.
package testutil

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"log/slog"
	"os"
	"sync"
	"testing"

	"github.com/starford/inkwell/internal/apperr"
	"github.com/starford/inkwell/internal/index"
	"github.com/starford/inkwell/internal/notion"
	"github.com/starford/inkwell/internal/storage"
)

// FakeNotion serves canned list responses keyed by block or database id.
// Ids listed in Fail return an upstream error. Every call is recorded.
type FakeNotion struct {
	Children  map[string][]json.RawMessage
	Databases map[string][]json.RawMessage
	Fail      map[string]bool

	mu    sync.Mutex
	calls []string
}

// NewFakeNotion returns an empty FakeNotion.
func NewFakeNotion() *FakeNotion {
	return &FakeNotion{
		Children:  map[string][]json.RawMessage{},
		Databases: map[string][]json.RawMessage{},
		Fail:      map[string]bool{},
	}
}

// AddChildren registers raw block JSON objects as the children of id.
func (f *FakeNotion) AddChildren(id string, blocks ...string) {
	for _, b := range blocks {
		f.Children[id] = append(f.Children[id], json.RawMessage(b))
	}
}

// AddRecords registers raw row JSON objects for a database id.
func (f *FakeNotion) AddRecords(id string, rows ...string) {
	for _, r := range rows {
		f.Databases[id] = append(f.Databases[id], json.RawMessage(r))
	}
}

// Calls returns the ids requested so far, in order.
func (f *FakeNotion) Calls() []string {
	f.mu.Lock()
	defer f.mu.Unlock()
	return append([]string(nil), f.calls...)
}

func (f *FakeNotion) record(id string) error {
	f.mu.Lock()
	f.calls = append(f.calls, id)
	f.mu.Unlock()
	if f.Fail[id] {
		return fmt.Errorf("fake: %s: %w", id, apperr.ErrUpstream)
	}
	return nil
}

// ListChildren implements notion.ChildrenFetcher.
func (f *FakeNotion) ListChildren(_ context.Context, blockID string) (*notion.ListResponse, error) {
	if err := f.record(blockID); err != nil {
		return nil, err
	}
	return &notion.ListResponse{Object: "list", Results: f.Children[blockID]}, nil
}

// QueryDatabase implements notion.RecordSource.
func (f *FakeNotion) QueryDatabase(_ context.Context, databaseID string) (*notion.ListResponse, error) {
	if err := f.record(databaseID); err != nil {
		return nil, err
	}
	return &notion.ListResponse{Object: "list", Results: f.Databases[databaseID]}, nil
}

// Block builds a raw block object with a single text run.
func Block(id, typ, text string, hasChildren bool) string {
	return fmt.Sprintf(`{"object":"block","id":%q,"type":%q,"has_children":%t,%q:{"rich_text":[{"type":"text","text":{"content":%q},"plain_text":%q}]}}`,
		id, typ, hasChildren, typ, text, text)
}

// CodeBlock builds a raw code block.
func CodeBlock(id, language, text string) string {
	return fmt.Sprintf(`{"object":"block","id":%q,"type":"code","has_children":false,"code":{"language":%q,"rich_text":[{"type":"text","text":{"content":%q},"plain_text":%q}]}}`,
		id, language, text, text)
}

// ImageBlock builds a raw hosted image block.
func ImageBlock(id, url string) string {
	return fmt.Sprintf(`{"object":"block","id":%q,"type":"image","has_children":false,"image":{"type":"file","file":{"url":%q}}}`, id, url)
}

// Record builds a raw database row in the default blog layout.
func Record(title, date, description, pageURL string, keywords ...string) string {
	tags := make([]map[string]string, len(keywords))
	for i, k := range keywords {
		tags[i] = map[string]string{"name": k}
	}
	row := map[string]any{
		"object": "page",
		"properties": map[string]any{
			"Nom":         map[string]any{"type": "title", "title": []any{map[string]any{"text": map[string]string{"content": title}}}},
			"Date":        map[string]any{"type": "date", "date": map[string]string{"start": date}},
			"Description": map[string]any{"type": "rich_text", "rich_text": []any{map[string]any{"text": map[string]string{"content": description}}}},
			"Étiquettes":  map[string]any{"type": "multi_select", "multi_select": tags},
			"URL":         map[string]any{"type": "url", "url": pageURL},
		},
	}
	data, _ := json.Marshal(row)
	return string(data)
}

// Logger returns a logger that discards output.
func Logger() *slog.Logger {
	return slog.New(slog.NewTextHandler(io.Discard, nil))
}

// TestDB creates a temporary SQLite index that is automatically cleaned up.
func TestDB(t *testing.T) *index.DB {
	t.Helper()
	dbFile, err := os.CreateTemp("", "inkwell-test-*.db")
	if err != nil {
		t.Fatal(err)
	}
	dbFile.Close()
	t.Cleanup(func() { os.Remove(dbFile.Name()) })

	db, err := index.Open(dbFile.Name())
	if err != nil {
		t.Fatal(err)
	}
	t.Cleanup(func() { db.Close() })
	return db
}

// TestSite creates a temporary output directory with a storage.Provider.
func TestSite(t *testing.T) (string, storage.Provider) {
	t.Helper()
	dir := t.TempDir()
	store, err := storage.NewFS(dir)
	if err != nil {
		t.Fatal(err)
	}
	return dir, store
}
