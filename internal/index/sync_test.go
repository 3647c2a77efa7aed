package index

import (
	"os"
	"path/filepath"
	"reflect"
	"testing"
)

const samplePage = `<!DOCTYPE html><html><head>
<title>Sample Page</title>
<meta name="description" content="A sample">
<meta name="keywords" content="go html">
</head><body><h1>Sample Page</h1><p>searchable prose</p></body></html>`

func TestSync_IndexesAndPrunes(t *testing.T) {
	dir, store, db := watcherTestEnv(t)
	_ = os.WriteFile(filepath.Join(dir, "Sample_Page.html"), []byte(samplePage), 0o644)
	_ = os.WriteFile(filepath.Join(dir, "notes.txt"), []byte("ignored"), 0o644)

	if err := Sync(db, store, quietLogger()); err != nil {
		t.Fatalf("Sync: %v", err)
	}

	p, err := db.GetPage("Sample_Page.html")
	if err != nil {
		t.Fatalf("GetPage: %v", err)
	}
	if p.Title != "Sample Page" || p.Description != "A sample" {
		t.Errorf("page = %+v", p)
	}
	if len(p.Keywords) != 2 {
		t.Errorf("keywords = %v, want 2", p.Keywords)
	}
	if cs, _ := db.GetChecksum("notes.txt"); cs != "" {
		t.Error("non-html file should not be indexed")
	}

	_ = os.Remove(filepath.Join(dir, "Sample_Page.html"))
	if err := Sync(db, store, quietLogger()); err != nil {
		t.Fatalf("Sync: %v", err)
	}
	if cs, _ := db.GetChecksum("Sample_Page.html"); cs != "" {
		t.Error("stale page should be pruned")
	}
}

func TestSync_SkipsUnchanged(t *testing.T) {
	dir, store, db := watcherTestEnv(t)
	_ = os.WriteFile(filepath.Join(dir, "p.html"), []byte(samplePage), 0o644)
	_ = Sync(db, store, quietLogger())

	// Tamper with the row; an unchanged checksum means Sync leaves it alone.
	cs, _ := db.GetChecksum("p.html")
	_ = db.UpsertPage(PageRow{Path: "p.html", Title: "Tampered", Checksum: cs}, "")
	_ = Sync(db, store, quietLogger())

	p, _ := db.GetPage("p.html")
	if p.Title != "Tampered" {
		t.Errorf("title = %q, unchanged file should not be re-parsed", p.Title)
	}
}

func TestIsPage(t *testing.T) {
	cases := map[string]bool{
		"a.html":           true,
		"dir/B.HTML":       true,
		"a.htm":            false,
		".inkwell-tmp-123": false,
		"index.html.bak":   false,
	}
	for name, want := range cases {
		if got := isPage(name); got != want {
			t.Errorf("isPage(%q) = %v, want %v", name, got, want)
		}
	}
}

func TestIndexPage_MultiWordKeywordFilter(t *testing.T) {
	db := testDB(t)
	page := `<!DOCTYPE html><html><head>
<title>Tagged</title>
<meta name="keywords" content="machine learning go notion">
<meta name="article:tag" content="machine learning">
<meta name="article:tag" content="go">
<meta name="article:tag" content="notion">
</head><body><p>body</p></body></html>`
	if err := IndexPage(db, "Tagged.html", []byte(page)); err != nil {
		t.Fatalf("IndexPage: %v", err)
	}

	pages, total, err := db.ListPages(10, 0, "machine learning", "")
	if err != nil {
		t.Fatalf("ListPages: %v", err)
	}
	if total != 1 || len(pages) != 1 || pages[0].Path != "Tagged.html" {
		t.Fatalf("filter total = %d, pages = %+v", total, pages)
	}
	if want := []string{"machine learning", "go", "notion"}; !reflect.DeepEqual(pages[0].Keywords, want) {
		t.Errorf("keywords = %q, want %q", pages[0].Keywords, want)
	}
	if _, total, _ := db.ListPages(10, 0, "machine", ""); total != 0 {
		t.Errorf("partial tag matched %d pages", total)
	}
}
