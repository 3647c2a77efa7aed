package parser

import (
	"reflect"
	"testing"

	"github.com/starford/inkwell/internal/models"
	"github.com/starford/inkwell/internal/render"
)

const page = `<!DOCTYPE html>
<html><head>
<meta name="description" content=" A short intro ">
<meta name="keywords" content="go notion html go">
<title>Hello World</title>
</head><body>
<h1>Heading that is not the title</h1>
<time datetime="2023-04-01">1 avril</time>
<h4>Sub</h4>
<p class='mt-3 text-muted'>Some   body
text.</p>
<script>var hidden = 1;</script>
<img src='https://s3/a.png' alt='image'/>
</body></html>`

func TestParse_RenderedPage(t *testing.T) {
	r, err := Parse([]byte(page))
	if err != nil {
		t.Fatalf("Parse: %v", err)
	}
	if r.Title != "Hello World" {
		t.Errorf("title = %q", r.Title)
	}
	if r.Description != "A short intro" {
		t.Errorf("description = %q", r.Description)
	}
	if want := []string{"go", "notion", "html"}; !reflect.DeepEqual(r.Keywords, want) {
		t.Errorf("keywords = %v, want %v", r.Keywords, want)
	}
	if r.Date != "2023-04-01" {
		t.Errorf("date = %q", r.Date)
	}
	if want := "Heading that is not the title 1 avril Sub Some body text."; r.Body != want {
		t.Errorf("body = %q, want %q", r.Body, want)
	}
	if len(r.Images) != 1 || r.Images[0] != "https://s3/a.png" {
		t.Errorf("images = %v", r.Images)
	}
}

func TestParse_TitleFallsBackToH1(t *testing.T) {
	r, err := Parse([]byte(`<html><body><h1> Only H1 </h1><p>x</p></body></html>`))
	if err != nil {
		t.Fatalf("Parse: %v", err)
	}
	if r.Title != "Only H1" {
		t.Errorf("title = %q", r.Title)
	}
	if r.Keywords != nil {
		t.Errorf("keywords = %v, want nil", r.Keywords)
	}
}

func TestParse_DateFromMeta(t *testing.T) {
	r, err := Parse([]byte(`<html><head><meta name="date" content="2024-01-02"></head><body></body></html>`))
	if err != nil {
		t.Fatalf("Parse: %v", err)
	}
	if r.Date != "2024-01-02" {
		t.Errorf("date = %q", r.Date)
	}
}

func TestParse_TagMetaKeepsMultiWordTags(t *testing.T) {
	doc := `<html><head>
<meta name="keywords" content="machine learning go notion">
<meta name="article:tag" content="machine learning">
<meta name="article:tag" content="go">
<meta name="article:tag" content="notion">
<meta name="article:tag" content="go">
</head><body></body></html>`
	r, err := Parse([]byte(doc))
	if err != nil {
		t.Fatalf("Parse: %v", err)
	}
	if want := []string{"machine learning", "go", "notion"}; !reflect.DeepEqual(r.Keywords, want) {
		t.Errorf("keywords = %v, want %v", r.Keywords, want)
	}
}

func TestParse_BuiltInTemplateRoundTripsTags(t *testing.T) {
	tmpl, err := render.LoadTemplate("")
	if err != nil {
		t.Fatal(err)
	}
	art := models.Article{
		Title:    "Tags",
		Date:     "2024-05-01",
		Keywords: []string{"machine learning", "go", "notion"},
	}
	ctx, err := render.BuildContext(art, []string{"<h4>Sub</h4>"})
	if err != nil {
		t.Fatal(err)
	}
	out, err := render.Execute(tmpl, ctx)
	if err != nil {
		t.Fatal(err)
	}
	r, err := Parse(out)
	if err != nil {
		t.Fatalf("Parse: %v", err)
	}
	if !reflect.DeepEqual(r.Keywords, art.Keywords) {
		t.Errorf("keywords = %q, want %q", r.Keywords, art.Keywords)
	}
}
