// Package pageservice serves rendered pages and their index metadata to the
// preview API and the MCP server.
package pageservice

import (
	"context"
	"errors"
	"os"
	"time"

	"github.com/starford/inkwell/internal/apperr"
	"github.com/starford/inkwell/internal/checksum"
	"github.com/starford/inkwell/internal/index"
	"github.com/starford/inkwell/internal/parser"
	"github.com/starford/inkwell/internal/storage"
)

// PageDetail is the full representation of a rendered page.
type PageDetail struct {
	Path        string    `json:"path"`
	Title       string    `json:"title"`
	Date        string    `json:"date"`
	Description string    `json:"description"`
	Keywords    []string  `json:"keywords"`
	Images      []string  `json:"images"`
	Text        string    `json:"text"`
	HTML        string    `json:"-"`
	Checksum    string    `json:"checksum"`
	UpdatedAt   time.Time `json:"updated_at"`
}

// PageListItem is a lightweight item in a list response.
type PageListItem struct {
	Path        string    `json:"path"`
	Title       string    `json:"title"`
	Date        string    `json:"date"`
	Description string    `json:"description"`
	Keywords    []string  `json:"keywords"`
	Checksum    string    `json:"checksum"`
	UpdatedAt   time.Time `json:"updated_at"`
}

// Service coordinates the site store and the page index.
type Service struct {
	store storage.Provider
	db    *index.DB
}

// NewService creates a new page service.
func NewService(store storage.Provider, db *index.DB) *Service {
	return &Service{store: store, db: db}
}

// GetPage reads a rendered page and parses its metadata.
func (s *Service) GetPage(_ context.Context, path string) (*PageDetail, error) {
	data, err := s.read(path)
	if err != nil {
		return nil, err
	}
	res, err := parser.Parse(data)
	if err != nil {
		return nil, err
	}
	detail := &PageDetail{
		Path:        path,
		Title:       res.Title,
		Date:        res.Date,
		Description: res.Description,
		Keywords:    nonNilSlice(res.Keywords),
		Images:      nonNilSlice(res.Images),
		Text:        res.Body,
		HTML:        string(data),
		Checksum:    checksum.Sum(data),
	}
	if row, err := s.db.GetPage(path); err == nil {
		detail.UpdatedAt = row.UpdatedAt
	}
	return detail, nil
}

// RawPage returns the rendered HTML bytes of a page.
func (s *Service) RawPage(_ context.Context, path string) ([]byte, error) {
	return s.read(path)
}

// DeletePage removes a rendered page from the site and the index.
func (s *Service) DeletePage(_ context.Context, path string) error {
	if err := s.store.Delete(path); err != nil {
		if errors.Is(err, os.ErrNotExist) {
			return apperr.ErrNotFound
		}
		return err
	}
	return s.db.DeletePage(path)
}

// ListPages returns paginated pages with optional keyword filter.
func (s *Service) ListPages(_ context.Context, limit, offset int, keyword, sort string) ([]PageListItem, int, error) {
	rows, total, err := s.db.ListPages(limit, offset, keyword, sort)
	if err != nil {
		return nil, 0, err
	}
	items := make([]PageListItem, len(rows))
	for i, r := range rows {
		items[i] = PageListItem{
			Path:        r.Path,
			Title:       r.Title,
			Date:        r.Date,
			Description: r.Description,
			Keywords:    nonNilSlice(r.Keywords),
			Checksum:    r.Checksum,
			UpdatedAt:   r.UpdatedAt,
		}
	}
	return items, total, nil
}

// Search delegates full-text search to the index.
func (s *Service) Search(_ context.Context, query string, limit int) ([]index.SearchResult, error) {
	res, err := s.db.Search(query, limit)
	if err != nil {
		return nil, err
	}
	return nonNilSlice(res), nil
}

// Reindex refreshes the index entry for a page that was just written, so
// callers need not wait for the watcher.
func (s *Service) Reindex(_ context.Context, path string) error {
	data, err := s.read(path)
	if err != nil {
		return err
	}
	return index.IndexPage(s.db, path, data)
}

func (s *Service) read(path string) ([]byte, error) {
	data, err := s.store.Read(path)
	if err != nil {
		if errors.Is(err, os.ErrNotExist) {
			return nil, apperr.ErrNotFound
		}
		return nil, err
	}
	return data, nil
}

func nonNilSlice[T any](s []T) []T {
	if s == nil {
		return []T{}
	}
	return s
}
