package notion

import (
	"encoding/json"
	"errors"
	"fmt"

	"github.com/tidwall/gjson"

	"github.com/starford/inkwell/internal/models"
)

var errInvalidBlock = errors.New("invalid block json")

// DecodeBlock converts one raw block object into a models.Block. Only the
// first rich-text run is read; the rest are ignored.
func DecodeBlock(raw json.RawMessage) (models.Block, error) {
	if !gjson.ValidBytes(raw) {
		return models.Block{}, errInvalidBlock
	}
	r := gjson.ParseBytes(raw)

	id := r.Get("id").String()
	if id == "" {
		return models.Block{}, fmt.Errorf("%w: missing id", errInvalidBlock)
	}
	tag := r.Get("type").String()
	payload := r.Get(gjson.Escape(tag))

	b := models.Block{
		ID:          id,
		Kind:        models.ParseKind(tag),
		Tag:         tag,
		HasChildren: r.Get("has_children").Bool(),
	}

	first := payload.Get("rich_text.0")
	b.PlainText = first.Get("plain_text").String()
	if content := first.Get("text.content"); content.Exists() {
		b.Text = content.String()
	} else {
		b.Text = b.PlainText
	}

	switch b.Kind {
	case models.KindCode:
		b.Language = payload.Get("language").String()
	case models.KindImage:
		// Hosted files and external links carry the URL under different keys.
		src := payload.Get("type").String()
		if src == "" {
			src = "file"
		}
		b.URL = payload.Get(src + ".url").String()
		if b.URL == "" {
			b.URL = payload.Get("external.url").String()
		}
	}
	return b, nil
}

// DecodeBlocks decodes a list of raw blocks, preserving order.
func DecodeBlocks(raw []json.RawMessage) ([]models.Block, error) {
	out := make([]models.Block, 0, len(raw))
	for i, r := range raw {
		b, err := DecodeBlock(r)
		if err != nil {
			return nil, fmt.Errorf("notion: block %d: %w", i, err)
		}
		out = append(out, b)
	}
	return out, nil
}
