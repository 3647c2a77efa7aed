// Package parser reads rendered article pages back into searchable metadata.
package parser

import (
	"bytes"
	"fmt"
	"strings"

	"github.com/PuerkitoBio/goquery"
)

// Result holds the metadata extracted from a rendered page.
type Result struct {
	Title       string
	Date        string
	Description string
	Keywords    []string
	Body        string
	Images      []string
}

// Parse extracts title, date, description, keywords, visible text and image
// sources from an HTML page.
func Parse(data []byte) (*Result, error) {
	doc, err := goquery.NewDocumentFromReader(bytes.NewReader(data))
	if err != nil {
		return nil, fmt.Errorf("parser: parse html: %w", err)
	}

	res := &Result{
		Title:       deriveTitle(doc),
		Date:        deriveDate(doc),
		Description: metaContent(doc, "description"),
		Keywords:    keywords(doc),
		Body:        bodyText(doc),
	}

	doc.Find("body img[src]").Each(func(_ int, s *goquery.Selection) {
		if src, ok := s.Attr("src"); ok && src != "" {
			res.Images = append(res.Images, src)
		}
	})
	return res, nil
}

func metaContent(doc *goquery.Document, name string) string {
	v, _ := doc.Find(fmt.Sprintf("meta[name=%q]", name)).First().Attr("content")
	return strings.TrimSpace(v)
}

// deriveTitle prefers <title>, then the first h1.
func deriveTitle(doc *goquery.Document) string {
	if t := strings.TrimSpace(doc.Find("head title").First().Text()); t != "" {
		return t
	}
	return strings.TrimSpace(doc.Find("h1").First().Text())
}

func deriveDate(doc *goquery.Document) string {
	if v, ok := doc.Find("time[datetime]").First().Attr("datetime"); ok && strings.TrimSpace(v) != "" {
		return strings.TrimSpace(v)
	}
	return metaContent(doc, "date")
}

// keywords reads one tag per article:tag meta element, so multi-word tags
// stay whole. Pages without them fall back to the space-joined keywords meta.
func keywords(doc *goquery.Document) []string {
	var tags []string
	doc.Find(`meta[name="article:tag"]`).Each(func(_ int, s *goquery.Selection) {
		if v, ok := s.Attr("content"); ok {
			tags = append(tags, strings.TrimSpace(v))
		}
	})
	if len(tags) == 0 {
		tags = strings.Fields(metaContent(doc, "keywords"))
	}
	return unique(tags)
}

// unique drops empty and repeated entries, keeping first-seen order.
func unique(in []string) []string {
	seen := make(map[string]struct{})
	var out []string
	for _, k := range in {
		if k == "" {
			continue
		}
		if _, dup := seen[k]; dup {
			continue
		}
		seen[k] = struct{}{}
		out = append(out, k)
	}
	return out
}

func bodyText(doc *goquery.Document) string {
	body := doc.Find("body").Clone()
	body.Find("script, style").Remove()
	return strings.Join(strings.Fields(body.Text()), " ")
}
