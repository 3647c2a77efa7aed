// Package simplify reduces a block tree to a renderer-agnostic JSON tree,
// fetching nested children depth-first.
package simplify

import (
	"context"
	"log/slog"

	"github.com/starford/inkwell/internal/models"
	"github.com/starford/inkwell/internal/notion"
)

// Simplifier walks a block list and its descendants.
type Simplifier struct {
	fetcher notion.ChildrenFetcher
	logger  *slog.Logger
}

// New creates a Simplifier that fetches nested children through fetcher.
func New(fetcher notion.ChildrenFetcher, logger *slog.Logger) *Simplifier {
	if logger == nil {
		logger = slog.Default()
	}
	return &Simplifier{fetcher: fetcher, logger: logger}
}

// Simplify returns the simplified form of blocks in input order. Code and
// image blocks are skipped, as are kinds inkwell does not recognize.
// A failed child fetch leaves that block without children and does not stop
// the traversal. An undecodable child is skipped on its own.
func (s *Simplifier) Simplify(ctx context.Context, blocks []models.Block) []models.SimplifiedBlock {
	out := make([]models.SimplifiedBlock, 0, len(blocks))
	for _, b := range blocks {
		switch b.Kind {
		case models.KindCode, models.KindImage:
			continue
		case models.KindOther:
			s.logger.Debug("simplify: dropping block", slog.String("type", b.Tag), slog.String("block_id", b.ID))
			continue
		}

		sb := models.SimplifiedBlock{
			ID:   b.ID,
			Type: b.Tag,
			Text: b.PlainText,
		}
		if b.HasChildren {
			if children := s.Simplify(ctx, s.children(ctx, b.ID)); len(children) > 0 {
				sb.Children = children
			}
		}
		out = append(out, sb)
	}
	return out
}

func (s *Simplifier) children(ctx context.Context, id string) []models.Block {
	resp, err := s.fetcher.ListChildren(ctx, id)
	if err != nil {
		s.logger.Warn("simplify: fetch children failed",
			slog.String("block_id", id),
			slog.String("error", err.Error()))
		return nil
	}
	blocks := make([]models.Block, 0, len(resp.Results))
	for i, raw := range resp.Results {
		b, err := notion.DecodeBlock(raw)
		if err != nil {
			s.logger.Warn("simplify: skipping undecodable child",
				slog.String("block_id", id),
				slog.Int("position", i),
				slog.String("error", err.Error()))
			continue
		}
		blocks = append(blocks, b)
	}
	return blocks
}
