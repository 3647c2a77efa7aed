package render

import (
	"fmt"
	"html/template"
	"strings"

	"github.com/starford/inkwell/internal/apperr"
	"github.com/starford/inkwell/internal/models"
)

// tagSlots is the number of keyword slots the page template exposes.
const tagSlots = 3

// PageContext holds the values bound to the page template placeholders.
// Besides the fixed placeholders it carries "tags", the full keyword list,
// which the built-in template emits one per article:tag meta element.
type PageContext map[string]any

// BuildContext splits fragments into subtitle and body and merges them with
// the article metadata.
func BuildContext(art models.Article, fragments []string) (PageContext, error) {
	if len(fragments) == 0 {
		return nil, apperr.ErrMissingSubtitle
	}
	if len(art.Keywords) < tagSlots {
		return nil, fmt.Errorf("%w: got %d", apperr.ErrTooFewKeywords, len(art.Keywords))
	}

	content := make([]template.HTML, 0, len(fragments)-1)
	for _, f := range fragments[1:] {
		content = append(content, template.HTML(f)) //nolint:gosec // fragments are escaped by MapBlock
	}

	return PageContext{
		"description":        art.Description,
		"keywords":           strings.Join(art.Keywords, " "),
		"tags":               art.Keywords,
		"url":                art.IllustrationURL,
		"titre_article":      art.Title,
		"sous_titre_article": template.HTML(fragments[0]), //nolint:gosec // escaped by MapBlock
		"content":            content,
		"date":               art.Date,
		"tag_1":              art.Keywords[0],
		"tag_2":              art.Keywords[1],
		"tag_3":              art.Keywords[2],
	}, nil
}

// FileName derives the output file name from an article title.
func FileName(title string) string {
	return strings.ReplaceAll(title, " ", "_") + ".html"
}
