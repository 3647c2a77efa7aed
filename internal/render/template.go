package render

import (
	"bytes"
	"embed"
	"fmt"
	"html/template"
	"os"
	"path/filepath"
)

//go:embed templates/article.html.tmpl
var defaultTemplateFS embed.FS

const defaultTemplateName = "templates/article.html.tmpl"

// LoadTemplate parses the page template at path. An empty path selects the
// built-in article template.
func LoadTemplate(path string) (*template.Template, error) {
	if path == "" {
		tmpl, err := template.ParseFS(defaultTemplateFS, defaultTemplateName)
		if err != nil {
			return nil, fmt.Errorf("render: parse default template: %w", err)
		}
		return tmpl, nil
	}
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("render: read template %s: %w", path, err)
	}
	tmpl, err := template.New(filepath.Base(path)).Parse(string(data))
	if err != nil {
		return nil, fmt.Errorf("render: parse template %s: %w", path, err)
	}
	return tmpl, nil
}

// Execute renders ctx into tmpl. Output is deterministic for identical inputs.
func Execute(tmpl *template.Template, ctx PageContext) ([]byte, error) {
	var buf bytes.Buffer
	if err := tmpl.Execute(&buf, ctx); err != nil {
		return nil, fmt.Errorf("render: execute template: %w", err)
	}
	return buf.Bytes(), nil
}
