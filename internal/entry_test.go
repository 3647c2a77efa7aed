package internal

import (
	"context"
	"encoding/json"
	"errors"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/starford/inkwell/internal/apperr"
	"github.com/starford/inkwell/internal/models"
	"github.com/starford/inkwell/internal/testutil"
)

const (
	testDatabase = "db-1"
	testPage     = "0f1e2d3c4b5a69788796a5b4c3d2e1f0"
)

func testConfig(t *testing.T) *Config {
	t.Helper()
	root := t.TempDir()
	cfg := validConfig()
	cfg.Notion.DatabaseID = testDatabase
	cfg.Notion.PageID = testPage
	cfg.Render.SiteDir = filepath.Join(root, "site")
	cfg.Simplify.DataDir = filepath.Join(root, "data")
	cfg.SQLite.Path = filepath.Join(root, "inkwell.db")
	return cfg
}

func fakeSource() *testutil.FakeNotion {
	fake := testutil.NewFakeNotion()
	fake.AddRecords(testDatabase, testutil.Record("Hello World", "2024-03-01", "A first post",
		"https://www.notion.so/Hello-World-"+testPage, "go", "notion", "html"))
	fake.AddChildren(testPage,
		testutil.Block("b1", "paragraph", "Subtitle", false),
		testutil.Block("b2", "heading_1", "Body", true),
	)
	fake.AddChildren("b2", testutil.Block("b3", "paragraph", "Nested", false))
	return fake
}

func testOptions(cfg *Config, fake *testutil.FakeNotion) []Option {
	return []Option{
		WithConfig(cfg),
		WithLogger(testutil.Logger()),
		WithRecordSource(fake),
		WithChildrenFetcher(fake),
	}
}

func TestRunRender(t *testing.T) {
	cfg := testConfig(t)
	if err := RunRender(context.Background(), 0, testOptions(cfg, fakeSource())...); err != nil {
		t.Fatalf("RunRender: %v", err)
	}
	page, err := os.ReadFile(filepath.Join(cfg.Render.SiteDir, "Hello_World.html"))
	if err != nil {
		t.Fatalf("page not written: %v", err)
	}
	if !strings.Contains(string(page), "<h4>Body</h4>") {
		t.Errorf("page missing body heading")
	}
}

func TestRunRender_IndexOutOfRange(t *testing.T) {
	cfg := testConfig(t)
	err := RunRender(context.Background(), 3, testOptions(cfg, fakeSource())...)
	if !errors.Is(err, apperr.ErrIndexOutOfRange) {
		t.Fatalf("err = %v, want ErrIndexOutOfRange", err)
	}
}

func TestRunRender_RequiresDatabase(t *testing.T) {
	cfg := testConfig(t)
	cfg.Notion.DatabaseID = ""
	if err := RunRender(context.Background(), 0, testOptions(cfg, fakeSource())...); err == nil {
		t.Fatal("expected error without database id")
	}
}

func TestRunRender_RequiresConfig(t *testing.T) {
	if err := RunRender(context.Background(), 0); err == nil {
		t.Fatal("expected error without config")
	}
}

func TestRunSimplify_DefaultPage(t *testing.T) {
	cfg := testConfig(t)
	if err := RunSimplify(context.Background(), "", testOptions(cfg, fakeSource())...); err != nil {
		t.Fatalf("RunSimplify: %v", err)
	}

	data, err := os.ReadFile(filepath.Join(cfg.Simplify.DataDir, cfg.Simplify.SimpleFile))
	if err != nil {
		t.Fatalf("simple file not written: %v", err)
	}
	var tree []models.SimplifiedBlock
	if err := json.Unmarshal(data, &tree); err != nil {
		t.Fatalf("decode: %v", err)
	}
	if len(tree) != 2 || len(tree[1].Children) != 1 {
		t.Errorf("tree = %+v", tree)
	}
	if _, err := os.Stat(filepath.Join(cfg.Simplify.DataDir, cfg.Simplify.RawFile)); err != nil {
		t.Errorf("raw file not written: %v", err)
	}
}

func TestRunSimplify_RequiresPage(t *testing.T) {
	cfg := testConfig(t)
	cfg.Notion.PageID = ""
	if err := RunSimplify(context.Background(), "", testOptions(cfg, fakeSource())...); err == nil {
		t.Fatal("expected error without page id")
	}
}
