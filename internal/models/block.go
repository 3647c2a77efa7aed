// Package models defines the domain types for inkwell.
package models

// Kind is the closed set of block variants inkwell knows how to handle.
type Kind int

const (
	KindOther Kind = iota
	KindHeading1
	KindHeading2
	KindParagraph
	KindCode
	KindImage
)

var kindTags = map[string]Kind{
	"heading_1": KindHeading1,
	"heading_2": KindHeading2,
	"paragraph": KindParagraph,
	"code":      KindCode,
	"image":     KindImage,
}

// ParseKind maps an upstream type tag to a Kind. Unknown tags map to KindOther.
func ParseKind(tag string) Kind {
	if k, ok := kindTags[tag]; ok {
		return k
	}
	return KindOther
}

// String returns the upstream tag for known kinds and "other" otherwise.
func (k Kind) String() string {
	switch k {
	case KindHeading1:
		return "heading_1"
	case KindHeading2:
		return "heading_2"
	case KindParagraph:
		return "paragraph"
	case KindCode:
		return "code"
	case KindImage:
		return "image"
	default:
		return "other"
	}
}

// Block is one node of the upstream content tree.
type Block struct {
	ID          string
	Kind        Kind
	Tag         string // raw upstream type tag, kept for diagnostics on KindOther
	HasChildren bool
	Text        string // first rich-text run, text.content
	PlainText   string // first rich-text run, plain_text
	Language    string // code blocks only
	URL         string // image blocks only
}

// SimplifiedBlock is the renderer-agnostic reduction of a Block and its retained descendants.
type SimplifiedBlock struct {
	ID       string            `json:"id"`
	Type     string            `json:"type"`
	Text     string            `json:"text"`
	Children []SimplifiedBlock `json:"children,omitempty"`
}
