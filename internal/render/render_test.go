package render

import (
	"bytes"
	"errors"
	"html/template"
	"log/slog"
	"os"
	"path/filepath"
	"reflect"
	"strings"
	"testing"

	"github.com/starford/inkwell/internal/apperr"
	"github.com/starford/inkwell/internal/models"
)

func bufLogger() (*slog.Logger, *bytes.Buffer) {
	var buf bytes.Buffer
	return slog.New(slog.NewTextHandler(&buf, nil)), &buf
}

func TestMapBlock_Table(t *testing.T) {
	tests := []struct {
		name  string
		block models.Block
		want  string
	}{
		{"heading 1", models.Block{Kind: models.KindHeading1, Text: "Intro"}, "<h4>Intro</h4>"},
		{"heading 2", models.Block{Kind: models.KindHeading2, Text: "Part"}, "<h5>Part</h5>"},
		{"paragraph", models.Block{Kind: models.KindParagraph, Text: "Body"}, "<p class='mt-3 text-muted'>Body</p>"},
		{"code", models.Block{Kind: models.KindCode, Text: "x=1", Language: "python"}, "<pre><code class='python'>x=1</code></pre>"},
		{"image", models.Block{Kind: models.KindImage, URL: "https://s3/a.png"}, "<img src='https://s3/a.png' alt='image'/>"},
		{"empty text", models.Block{Kind: models.KindParagraph}, "<p class='mt-3 text-muted'></p>"},
		{"escaped text", models.Block{Kind: models.KindHeading1, Text: "a < b"}, "<h4>a &lt; b</h4>"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, ok := MapBlock(tt.block)
			if !ok {
				t.Fatal("expected a fragment")
			}
			if got != tt.want {
				t.Errorf("got %q, want %q", got, tt.want)
			}
		})
	}
}

func TestMapBlocks_OtherYieldsWarningOnly(t *testing.T) {
	logger, buf := bufLogger()
	out := MapBlocks([]models.Block{{ID: "x", Kind: models.KindOther, Tag: "divider"}}, logger)
	if len(out) != 0 {
		t.Errorf("fragments = %v, want none", out)
	}
	if n := strings.Count(buf.String(), "unsupported block type"); n != 1 {
		t.Errorf("warnings = %d, want 1; log = %s", n, buf.String())
	}
	if !strings.Contains(buf.String(), "type=divider") {
		t.Errorf("warning should name the tag: %s", buf.String())
	}
}

func TestMapBlocks_PreservesOrder(t *testing.T) {
	logger, _ := bufLogger()
	blocks := []models.Block{
		{Kind: models.KindHeading1, Text: "A"},
		{Kind: models.KindOther, Tag: "toggle"},
		{Kind: models.KindParagraph, Text: "B"},
		{Kind: models.KindCode, Text: "C", Language: "go"},
	}
	got := MapBlocks(blocks, logger)
	want := []string{"<h4>A</h4>", "<p class='mt-3 text-muted'>B</p>", "<pre><code class='go'>C</code></pre>"}
	if !reflect.DeepEqual(got, want) {
		t.Errorf("got %v, want %v", got, want)
	}
}

func testArticle() models.Article {
	return models.Article{
		Title:           "Hello World",
		Date:            "2023-04-01",
		Description:     "desc",
		Keywords:        []string{"go", "notion", "html", "extra"},
		ContentID:       "abc",
		IllustrationURL: "https://cdn/cover.png",
	}
}

func TestBuildContext_Partitions(t *testing.T) {
	ctx, err := BuildContext(testArticle(), []string{"<h4>Sub</h4>", "<p>1</p>", "<p>2</p>"})
	if err != nil {
		t.Fatalf("BuildContext: %v", err)
	}
	if ctx["sous_titre_article"] != template.HTML("<h4>Sub</h4>") {
		t.Errorf("subtitle = %v", ctx["sous_titre_article"])
	}
	content := ctx["content"].([]template.HTML)
	if len(content) != 2 || content[0] != "<p>1</p>" {
		t.Errorf("content = %v", content)
	}
	if ctx["keywords"] != "go notion html extra" {
		t.Errorf("keywords = %v", ctx["keywords"])
	}
	if ctx["tag_1"] != "go" || ctx["tag_2"] != "notion" || ctx["tag_3"] != "html" {
		t.Errorf("tags = %v %v %v", ctx["tag_1"], ctx["tag_2"], ctx["tag_3"])
	}
	if ctx["url"] != "https://cdn/cover.png" {
		t.Errorf("url = %v", ctx["url"])
	}
}

func TestBuildContext_Failures(t *testing.T) {
	if _, err := BuildContext(testArticle(), nil); !errors.Is(err, apperr.ErrMissingSubtitle) {
		t.Errorf("empty fragments: err = %v", err)
	}
	art := testArticle()
	art.Keywords = []string{"go", "notion"}
	if _, err := BuildContext(art, []string{"<h4>x</h4>"}); !errors.Is(err, apperr.ErrTooFewKeywords) {
		t.Errorf("two keywords: err = %v", err)
	}
}

func TestFileName(t *testing.T) {
	if got := FileName("Mon premier article"); got != "Mon_premier_article.html" {
		t.Errorf("FileName = %q", got)
	}
}

func TestExecute_DefaultTemplateDeterministic(t *testing.T) {
	tmpl, err := LoadTemplate("")
	if err != nil {
		t.Fatalf("LoadTemplate: %v", err)
	}
	ctx, err := BuildContext(testArticle(), []string{"<h4>Sub</h4>", "<pre><code class='python'>x=1</code></pre>"})
	if err != nil {
		t.Fatal(err)
	}
	a, err := Execute(tmpl, ctx)
	if err != nil {
		t.Fatalf("Execute: %v", err)
	}
	b, err := Execute(tmpl, ctx)
	if err != nil {
		t.Fatalf("Execute: %v", err)
	}
	if !bytes.Equal(a, b) {
		t.Error("rendering twice produced different output")
	}
	page := string(a)
	for _, want := range []string{
		"<title>Hello World</title>",
		"<h4>Sub</h4>",
		"<pre><code class='python'>x=1</code></pre>",
		`content="go notion html extra"`,
	} {
		if !strings.Contains(page, want) {
			t.Errorf("page missing %q", want)
		}
	}
}

func TestLoadTemplate_FromFile(t *testing.T) {
	path := filepath.Join(t.TempDir(), "blog_template.html")
	body := `<h1>{{.titre_article}}</h1>{{.sous_titre_article}}{{range .content}}{{.}}{{end}}|{{.tag_3}}`
	if err := os.WriteFile(path, []byte(body), 0o644); err != nil {
		t.Fatal(err)
	}
	tmpl, err := LoadTemplate(path)
	if err != nil {
		t.Fatalf("LoadTemplate: %v", err)
	}
	ctx, _ := BuildContext(testArticle(), []string{"<h4>S</h4>", "<h5>T</h5>"})
	out, err := Execute(tmpl, ctx)
	if err != nil {
		t.Fatalf("Execute: %v", err)
	}
	if got := string(out); got != "<h1>Hello World</h1><h4>S</h4><h5>T</h5>|html" {
		t.Errorf("out = %q", got)
	}
}

func TestLoadTemplate_Missing(t *testing.T) {
	if _, err := LoadTemplate(filepath.Join(t.TempDir(), "nope.html")); err == nil {
		t.Error("expected error for missing template")
	}
}
