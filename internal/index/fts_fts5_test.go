//go:build sqlite_fts5

package index

import (
	"strings"
	"testing"
)

func TestFTS5_TableExists(t *testing.T) {
	db := testDB(t)
	var count int
	if err := db.conn.QueryRow(`SELECT count(*) FROM pages_fts`).Scan(&count); err != nil {
		t.Fatalf("pages_fts table missing: %v", err)
	}
}

func TestFTS5_SearchWithSnippet(t *testing.T) {
	db := testDB(t)
	row := PageRow{Path: "fts.html", Title: "FTS Page", Checksum: "f1", Keywords: []string{"search"}}
	if err := db.UpsertPage(row, "Inkwell renders pages with powerful full-text search."); err != nil {
		t.Fatalf("UpsertPage: %v", err)
	}

	results, err := db.Search("powerful", 10)
	if err != nil {
		t.Fatalf("Search: %v", err)
	}
	if len(results) != 1 {
		t.Fatalf("expected 1 result, got %d", len(results))
	}
	if !strings.Contains(results[0].Snippet, "<b>powerful</b>") {
		t.Errorf("snippet = %q, want highlighted match", results[0].Snippet)
	}
}

func TestFTS5_DiacriticsFolded(t *testing.T) {
	db := testDB(t)
	_ = db.UpsertPage(PageRow{Path: "fr.html", Title: "Étiquettes", Checksum: "1"}, "une entrée numérique")

	results, err := db.Search("numerique", 10)
	if err != nil {
		t.Fatalf("Search: %v", err)
	}
	if len(results) != 1 {
		t.Errorf("expected diacritic-insensitive match, got %d", len(results))
	}
}

func TestFTS5_DeleteRemovesEntry(t *testing.T) {
	db := testDB(t)
	_ = db.UpsertPage(PageRow{Path: "gone.html", Checksum: "1"}, "vanishing content")
	_ = db.DeletePage("gone.html")

	results, err := db.Search("vanishing", 10)
	if err != nil {
		t.Fatalf("Search: %v", err)
	}
	if len(results) != 0 {
		t.Errorf("expected 0 results after delete, got %d", len(results))
	}
}
