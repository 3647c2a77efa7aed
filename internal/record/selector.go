// Package record selects one row of a queried database and extracts the
// article metadata the HTML renderer needs from its typed properties.
package record

import (
	"encoding/json"
	"fmt"
	"strings"

	"github.com/google/uuid"
	"github.com/tidwall/gjson"

	"github.com/starford/inkwell/internal/apperr"
	"github.com/starford/inkwell/internal/models"
)

// Property types as reported by the API.
const (
	TypeTitle       = "title"
	TypeDate        = "date"
	TypeRichText    = "rich_text"
	TypeMultiSelect = "multi_select"
	TypeURL         = "url"
)

// PropertyNames maps each article field to the database column it is read from.
// An empty name selects the first property of the expected type.
type PropertyNames struct {
	Title        string `yaml:"title"`
	Date         string `yaml:"date"`
	Description  string `yaml:"description"`
	Keywords     string `yaml:"keywords"`
	ContentURL   string `yaml:"content_url"`
	Illustration string `yaml:"illustration"`
}

// DefaultPropertyNames returns the column names of the blog database layout.
func DefaultPropertyNames() PropertyNames {
	return PropertyNames{
		Title:        "Nom",
		Date:         "Date",
		Description:  "Description",
		Keywords:     "Étiquettes",
		ContentURL:   "URL",
		Illustration: "Illustration",
	}
}

// Select picks records[index] and extracts its article metadata.
// An index outside the collection is an error; there is no fallback record.
func Select(records []json.RawMessage, index int, props PropertyNames) (*models.Article, error) {
	if index < 0 || index >= len(records) {
		return nil, fmt.Errorf("%w: index %d, %d records", apperr.ErrIndexOutOfRange, index, len(records))
	}
	return Extract(records[index], props)
}

// Extract reads article metadata from one raw database row.
func Extract(raw json.RawMessage, props PropertyNames) (*models.Article, error) {
	properties := gjson.GetBytes(raw, "properties")
	if !properties.IsObject() {
		return nil, fmt.Errorf("%w: properties", apperr.ErrMissingProperty)
	}

	title := lookup(properties, props.Title, TypeTitle).Get("title.0.text.content").String()
	if title == "" {
		return nil, fmt.Errorf("%w: title", apperr.ErrMissingProperty)
	}

	contentURL := lookup(properties, props.ContentURL, TypeURL).Get("url").String()
	if contentURL == "" {
		return nil, fmt.Errorf("%w: content url", apperr.ErrMissingProperty)
	}

	art := &models.Article{
		Title:       title,
		Date:        lookup(properties, props.Date, TypeDate).Get("date.start").String(),
		Description: lookup(properties, props.Description, TypeRichText).Get("rich_text.0.text.content").String(),
		Keywords:    keywords(lookup(properties, props.Keywords, TypeMultiSelect)),
		ContentID:   ContentID(contentURL),
	}

	// The illustration column is a second url-typed property, so it is only read by name.
	if props.Illustration != "" && props.Illustration != props.ContentURL {
		if p := named(properties, props.Illustration, TypeURL); p.Exists() {
			art.IllustrationURL = p.Get("url").String()
		}
	}
	return art, nil
}

// ContentID returns the trailing segment of a page URL after its last hyphen,
// without any query string.
func ContentID(pageURL string) string {
	id := pageURL
	if i := strings.LastIndex(id, "-"); i >= 0 {
		id = id[i+1:]
	}
	if i := strings.Index(id, "?"); i >= 0 {
		id = id[:i]
	}
	return id
}

// ValidContentID reports whether id looks like a block id (a UUID, dashed or not).
func ValidContentID(id string) bool {
	_, err := uuid.Parse(id)
	return err == nil
}

func lookup(properties gjson.Result, name, typ string) gjson.Result {
	if name != "" {
		return named(properties, name, typ)
	}
	var found gjson.Result
	properties.ForEach(func(_, value gjson.Result) bool {
		if value.Get("type").String() == typ {
			found = value
			return false
		}
		return true
	})
	return found
}

func named(properties gjson.Result, name, typ string) gjson.Result {
	p := properties.Get(gjson.Escape(name))
	if !p.Exists() || p.Get("type").String() != typ {
		return gjson.Result{}
	}
	return p
}

func keywords(prop gjson.Result) []string {
	seen := make(map[string]struct{})
	out := []string{}
	for _, opt := range prop.Get("multi_select").Array() {
		name := opt.Get("name").String()
		if name == "" {
			continue
		}
		if _, dup := seen[name]; dup {
			continue
		}
		seen[name] = struct{}{}
		out = append(out, name)
	}
	return out
}
