package models

import "time"

// Article is the metadata of one database record.
type Article struct {
	Title           string   `json:"title"`
	Date            string   `json:"date"`
	Description     string   `json:"description"`
	Keywords        []string `json:"keywords"`
	ContentID       string   `json:"content_id"`
	IllustrationURL string   `json:"illustration_url,omitempty"`
}

// PageMetadata is a lightweight descriptor of a file in the output site.
type PageMetadata struct {
	Path      string    `json:"path"`
	Checksum  string    `json:"checksum"`
	UpdatedAt time.Time `json:"updated_at"`
}
