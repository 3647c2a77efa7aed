package index

import (
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/starford/inkwell/internal/apperr"
)

// PageRow represents a row in the pages table.
type PageRow struct {
	Path        string    `json:"path"`
	Title       string    `json:"title"`
	Date        string    `json:"date"`
	Description string    `json:"description"`
	Keywords    []string  `json:"keywords"`
	Checksum    string    `json:"checksum"`
	UpdatedAt   time.Time `json:"updated_at"`
}

// SearchResult represents one search hit.
type SearchResult struct {
	Path    string `json:"path"`
	Title   string `json:"title"`
	Snippet string `json:"snippet"`
}

// UpsertPage inserts or replaces a page and its FTS entry within a transaction.
func (db *DB) UpsertPage(p PageRow, body string) error {
	tx, err := db.conn.Begin()
	if err != nil {
		return fmt.Errorf("index: begin tx: %w", err)
	}
	defer tx.Rollback() //nolint:errcheck // best-effort on failure path

	if p.Keywords == nil {
		p.Keywords = []string{}
	}
	kwJSON, _ := json.Marshal(p.Keywords)
	if p.UpdatedAt.IsZero() {
		p.UpdatedAt = time.Now()
	}

	_, err = tx.Exec(`
		INSERT INTO pages (path, title, date, description, keywords, checksum, body, updated_at)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?)
		ON CONFLICT(path) DO UPDATE SET
			title       = excluded.title,
			date        = excluded.date,
			description = excluded.description,
			keywords    = excluded.keywords,
			checksum    = excluded.checksum,
			body        = excluded.body,
			updated_at  = excluded.updated_at
	`, p.Path, p.Title, p.Date, p.Description, string(kwJSON), p.Checksum, body, p.UpdatedAt)
	if err != nil {
		return fmt.Errorf("index: upsert page: %w", err)
	}

	if err := ftsUpsert(tx, p.Path, p.Title, body, p.Keywords); err != nil {
		return err
	}
	return tx.Commit()
}

// DeletePage removes a page and its FTS entry.
func (db *DB) DeletePage(path string) error {
	tx, err := db.conn.Begin()
	if err != nil {
		return fmt.Errorf("index: begin tx: %w", err)
	}
	defer tx.Rollback() //nolint:errcheck

	if err := ftsDelete(tx, path); err != nil {
		return err
	}
	if _, err := tx.Exec(`DELETE FROM pages WHERE path = ?`, path); err != nil {
		return fmt.Errorf("index: delete page: %w", err)
	}
	return tx.Commit()
}

// GetChecksum returns the stored checksum for a page, or empty string if not found.
func (db *DB) GetChecksum(path string) (string, error) {
	var cs string
	err := db.conn.QueryRow(`SELECT checksum FROM pages WHERE path = ?`, path).Scan(&cs)
	if errors.Is(err, sql.ErrNoRows) {
		return "", nil
	}
	if err != nil {
		return "", fmt.Errorf("index: get checksum: %w", err)
	}
	return cs, nil
}

// GetPage returns one indexed page.
func (db *DB) GetPage(path string) (*PageRow, error) {
	row := db.conn.QueryRow(`
		SELECT path, title, date, description, keywords, checksum, updated_at
		FROM pages WHERE path = ?`, path)
	p, err := scanPage(row)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, apperr.ErrNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("index: get page: %w", err)
	}
	return p, nil
}

var sortColumns = map[string]string{
	"":           "date DESC, path",
	"date":       "date DESC, path",
	"title":      "title, path",
	"path":       "path",
	"updated_at": "updated_at DESC, path",
}

// ListPages returns a page of indexed pages, optionally filtered by keyword,
// and the total number of matches.
func (db *DB) ListPages(limit, offset int, keyword, sort string) ([]PageRow, int, error) {
	if limit <= 0 {
		limit = 50
	}
	if offset < 0 {
		offset = 0
	}
	order, ok := sortColumns[sort]
	if !ok {
		order = sortColumns[""]
	}

	where := ""
	args := []any{}
	if keyword != "" {
		where = `WHERE EXISTS (SELECT 1 FROM json_each(pages.keywords) WHERE json_each.value = ?)`
		args = append(args, keyword)
	}

	var total int
	if err := db.conn.QueryRow(`SELECT count(*) FROM pages `+where, args...).Scan(&total); err != nil {
		return nil, 0, fmt.Errorf("index: count pages: %w", err)
	}

	rows, err := db.conn.Query(`
		SELECT path, title, date, description, keywords, checksum, updated_at
		FROM pages `+where+` ORDER BY `+order+` LIMIT ? OFFSET ?`,
		append(args, limit, offset)...)
	if err != nil {
		return nil, 0, fmt.Errorf("index: list pages: %w", err)
	}
	defer rows.Close()

	var out []PageRow
	for rows.Next() {
		p, err := scanPage(rows)
		if err != nil {
			return nil, 0, err
		}
		out = append(out, *p)
	}
	return out, total, rows.Err()
}

// AllChecksums returns path -> checksum for every indexed page.
func (db *DB) AllChecksums() (map[string]string, error) {
	rows, err := db.conn.Query(`SELECT path, checksum FROM pages`)
	if err != nil {
		return nil, fmt.Errorf("index: all checksums: %w", err)
	}
	defer rows.Close()
	out := make(map[string]string)
	for rows.Next() {
		var p, cs string
		if err := rows.Scan(&p, &cs); err != nil {
			return nil, err
		}
		out[p] = cs
	}
	return out, rows.Err()
}

type scanner interface {
	Scan(dest ...any) error
}

func scanPage(s scanner) (*PageRow, error) {
	var p PageRow
	var kw string
	if err := s.Scan(&p.Path, &p.Title, &p.Date, &p.Description, &kw, &p.Checksum, &p.UpdatedAt); err != nil {
		return nil, err
	}
	if err := json.Unmarshal([]byte(kw), &p.Keywords); err != nil || p.Keywords == nil {
		p.Keywords = []string{}
	}
	return &p, nil
}
