// Package pipeline runs the two inkwell pipelines: rendering a database
// record to an HTML page, and simplifying a page's block tree to JSON.
package pipeline

import (
	"context"
	"encoding/json"
	"fmt"
	"html/template"
	"log/slog"

	"github.com/starford/inkwell/internal/checksum"
	"github.com/starford/inkwell/internal/models"
	"github.com/starford/inkwell/internal/notion"
	"github.com/starford/inkwell/internal/record"
	"github.com/starford/inkwell/internal/render"
	"github.com/starford/inkwell/internal/simplify"
	"github.com/starford/inkwell/internal/storage"
)

// Default output file names in the data directory.
const (
	DefaultRawFile    = "content.json"
	DefaultSimpleFile = "simple_blocks.json"
)

// Settings carries the per-run inputs both pipelines read.
type Settings struct {
	DatabaseID string
	Properties record.PropertyNames
	Template   *template.Template
	RawFile    string
	SimpleFile string
}

// RenderResult describes one rendered article page.
type RenderResult struct {
	Path      string `json:"path"`
	Checksum  string `json:"checksum"`
	Title     string `json:"title"`
	Fragments int    `json:"fragments"`
	Unchanged bool   `json:"unchanged"`
}

// SimplifyResult describes one simplifier run.
type SimplifyResult struct {
	PageID     string                   `json:"page_id"`
	RawPath    string                   `json:"raw_path"`
	SimplePath string                   `json:"simple_path"`
	Blocks     []models.SimplifiedBlock `json:"blocks"`
}

// Service wires the API client, renderer and simplifier to the output stores.
type Service struct {
	records  notion.RecordSource
	children notion.ChildrenFetcher
	site     storage.Provider
	data     storage.Provider
	settings Settings
	logger   *slog.Logger
}

// NewService creates a pipeline service. site receives rendered pages and
// data receives the simplifier's JSON files.
func NewService(records notion.RecordSource, children notion.ChildrenFetcher, site, data storage.Provider, settings Settings, logger *slog.Logger) *Service {
	if settings.RawFile == "" {
		settings.RawFile = DefaultRawFile
	}
	if settings.SimpleFile == "" {
		settings.SimpleFile = DefaultSimpleFile
	}
	return &Service{
		records:  records,
		children: children,
		site:     site,
		data:     data,
		settings: settings,
		logger:   logger,
	}
}

// RenderArticle renders the record at index into the site directory.
// The page is not rewritten when its content is unchanged.
func (s *Service) RenderArticle(ctx context.Context, index int) (*RenderResult, error) {
	if s.settings.Template == nil {
		return nil, fmt.Errorf("pipeline: no page template configured")
	}

	records, err := s.queryRecords(ctx)
	if err != nil {
		return nil, err
	}

	art, err := record.Select(records, index, s.settings.Properties)
	if err != nil {
		return nil, fmt.Errorf("pipeline: select record %d: %w", index, err)
	}
	if !record.ValidContentID(art.ContentID) {
		s.logger.Warn("pipeline: content id is not a uuid", slog.String("content_id", art.ContentID))
	}

	raw, err := s.topLevel(ctx, art.ContentID)
	if err != nil {
		return nil, err
	}
	blocks, err := notion.DecodeBlocks(raw)
	if err != nil {
		return nil, fmt.Errorf("pipeline: decode blocks: %w", err)
	}

	fragments := render.MapBlocks(blocks, s.logger)
	pageCtx, err := render.BuildContext(*art, fragments)
	if err != nil {
		return nil, fmt.Errorf("pipeline: build context for %q: %w", art.Title, err)
	}
	page, err := render.Execute(s.settings.Template, pageCtx)
	if err != nil {
		return nil, err
	}

	res := &RenderResult{
		Path:      render.FileName(art.Title),
		Checksum:  checksum.Sum(page),
		Title:     art.Title,
		Fragments: len(fragments),
	}
	if existing, readErr := s.site.Read(res.Path); readErr == nil && checksum.Sum(existing) == res.Checksum {
		res.Unchanged = true
		s.logger.Info("pipeline: page unchanged", slog.String("path", res.Path))
		return res, nil
	}
	if err := s.site.Write(res.Path, page); err != nil {
		return nil, fmt.Errorf("pipeline: write page: %w", err)
	}

	s.logger.Info("pipeline: page rendered",
		slog.String("path", res.Path),
		slog.String("checksum", checksum.Short(res.Checksum)),
		slog.Int("fragments", res.Fragments))
	return res, nil
}

// SimplifyPage writes the page's raw top-level blocks and its simplified
// tree to the data directory.
func (s *Service) SimplifyPage(ctx context.Context, pageID string) (*SimplifyResult, error) {
	raw, err := s.topLevel(ctx, pageID)
	if err != nil {
		return nil, err
	}
	if err := s.writeJSON(s.settings.RawFile, raw); err != nil {
		return nil, err
	}

	tree, err := s.simplify(ctx, raw)
	if err != nil {
		return nil, err
	}
	if err := s.writeJSON(s.settings.SimpleFile, tree); err != nil {
		return nil, err
	}

	s.logger.Info("pipeline: page simplified",
		slog.String("page_id", pageID),
		slog.Int("blocks", len(tree)))
	return &SimplifyResult{
		PageID:     pageID,
		RawPath:    s.settings.RawFile,
		SimplePath: s.settings.SimpleFile,
		Blocks:     tree,
	}, nil
}

// SimplifyTree returns the simplified tree of a page without writing it.
func (s *Service) SimplifyTree(ctx context.Context, pageID string) ([]models.SimplifiedBlock, error) {
	raw, err := s.topLevel(ctx, pageID)
	if err != nil {
		return nil, err
	}
	return s.simplify(ctx, raw)
}

func (s *Service) simplify(ctx context.Context, raw []json.RawMessage) ([]models.SimplifiedBlock, error) {
	blocks, err := notion.DecodeBlocks(raw)
	if err != nil {
		return nil, fmt.Errorf("pipeline: decode blocks: %w", err)
	}
	return simplify.New(s.children, s.logger).Simplify(ctx, blocks), nil
}

// queryRecords returns the database rows. An upstream failure yields no
// rows; a cancelled context is returned as an error.
func (s *Service) queryRecords(ctx context.Context) ([]json.RawMessage, error) {
	resp, err := s.records.QueryDatabase(ctx, s.settings.DatabaseID)
	if err != nil {
		if ctxErr := ctx.Err(); ctxErr != nil {
			return nil, ctxErr
		}
		s.logger.Error("pipeline: query database failed",
			slog.String("database_id", s.settings.DatabaseID),
			slog.String("error", err.Error()))
		return []json.RawMessage{}, nil
	}
	return nonNil(resp.Results), nil
}

// topLevel lists the direct children of id with the same failure policy as
// queryRecords.
func (s *Service) topLevel(ctx context.Context, id string) ([]json.RawMessage, error) {
	resp, err := s.children.ListChildren(ctx, id)
	if err != nil {
		if ctxErr := ctx.Err(); ctxErr != nil {
			return nil, ctxErr
		}
		s.logger.Error("pipeline: list children failed",
			slog.String("block_id", id),
			slog.String("error", err.Error()))
		return []json.RawMessage{}, nil
	}
	return nonNil(resp.Results), nil
}

func (s *Service) writeJSON(name string, v any) error {
	data, err := json.MarshalIndent(v, "", "  ")
	if err != nil {
		return fmt.Errorf("pipeline: encode %s: %w", name, err)
	}
	if err := s.data.Write(name, append(data, '\n')); err != nil {
		return fmt.Errorf("pipeline: write %s: %w", name, err)
	}
	return nil
}

func nonNil(raw []json.RawMessage) []json.RawMessage {
	if raw == nil {
		return []json.RawMessage{}
	}
	return raw
}
