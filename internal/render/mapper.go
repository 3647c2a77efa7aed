// Package render maps content blocks to HTML fragments and renders them into
// an article page template.
package render

import (
	"fmt"
	"html"
	"log/slog"

	"github.com/starford/inkwell/internal/models"
)

// MapBlock returns the HTML fragment for a single block. ok is false for
// kinds that produce no output.
func MapBlock(b models.Block) (fragment string, ok bool) {
	text := html.EscapeString(b.Text)
	switch b.Kind {
	case models.KindHeading1:
		return "<h4>" + text + "</h4>", true
	case models.KindHeading2:
		return "<h5>" + text + "</h5>", true
	case models.KindParagraph:
		return "<p class='mt-3 text-muted'>" + text + "</p>", true
	case models.KindCode:
		return fmt.Sprintf("<pre><code class='%s'>%s</code></pre>", html.EscapeString(b.Language), text), true
	case models.KindImage:
		return fmt.Sprintf("<img src='%s' alt='image'/>", html.EscapeString(b.URL)), true
	default:
		return "", false
	}
}

// MapBlocks maps blocks to HTML fragments in input order. Unsupported blocks
// are skipped with a warning.
func MapBlocks(blocks []models.Block, logger *slog.Logger) []string {
	out := make([]string, 0, len(blocks))
	for _, b := range blocks {
		frag, ok := MapBlock(b)
		if !ok {
			if logger != nil {
				logger.Warn("unsupported block type",
					slog.String("type", b.Tag),
					slog.String("block_id", b.ID))
			}
			continue
		}
		out = append(out, frag)
	}
	return out
}
