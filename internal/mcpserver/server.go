// Package mcpserver provides an MCP (Model Context Protocol) server that
// exposes inkwell pipelines and rendered pages over stdio.
package mcpserver

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"strconv"
	"strings"

	"github.com/mark3labs/mcp-go/mcp"
	"github.com/mark3labs/mcp-go/server"

	"github.com/starford/inkwell/internal/apperr"
	"github.com/starford/inkwell/internal/models"
	"github.com/starford/inkwell/internal/pageservice"
	"github.com/starford/inkwell/internal/pipeline"
)

// Pipeline is the subset of pipeline.Service the tools call.
type Pipeline interface {
	RenderArticle(ctx context.Context, index int) (*pipeline.RenderResult, error)
	SimplifyPage(ctx context.Context, pageID string) (*pipeline.SimplifyResult, error)
}

// Server wraps the MCP server with inkwell tools.
type Server struct {
	mcp           *server.MCPServer
	pipeline      Pipeline
	pages         *pageservice.Service
	defaultPageID string
}

// New creates a new MCP server with all tools registered. defaultPageID is
// used by simplify_page when no page id is given.
func New(p Pipeline, pages *pageservice.Service, defaultPageID, version string) *Server {
	s := &Server{pipeline: p, pages: pages, defaultPageID: defaultPageID}

	s.mcp = server.NewMCPServer(
		"Inkwell",
		version,
		server.WithToolCapabilities(false),
		server.WithResourceCapabilities(false, false),
	)

	s.mcp.AddTool(mcp.NewTool("render_article",
		mcp.WithDescription("Render one database record to an HTML page in the site directory. "+
			"Returns the written path and checksum."),
		mcp.WithString("index", mcp.Required(), mcp.Description("Zero-based record index, e.g. \"0\"")),
	), s.renderArticle)

	s.mcp.AddTool(mcp.NewTool("simplify_page",
		mcp.WithDescription("Fetch a page's block tree, write the raw and simplified JSON files, "+
			"and return the simplified tree."),
		mcp.WithString("page_id", mcp.Description("Page id (defaults to the configured page)")),
	), s.simplifyPage)

	s.mcp.AddTool(mcp.NewTool("list_pages",
		mcp.WithDescription("List rendered pages, newest first."),
		mcp.WithString("keyword", mcp.Description("Only pages tagged with this keyword")),
	), s.listPages)

	s.mcp.AddTool(mcp.NewTool("search_pages",
		mcp.WithDescription("Full-text search through rendered pages."),
		mcp.WithString("query", mcp.Required(), mcp.Description("Search query string")),
	), s.searchPages)

	s.mcp.AddTool(mcp.NewTool("read_page",
		mcp.WithDescription("Read a rendered page: metadata plus visible text."),
		mcp.WithString("path", mcp.Required(), mcp.Description("Page path, e.g. Hello_World.html")),
	), s.readPage)

	s.mcp.AddTool(mcp.NewTool("get_block_mapping",
		mcp.WithDescription("Returns the block-to-HTML mapping and simplifier rules."),
	), s.getBlockMapping)

	s.mcp.AddResource(
		mcp.NewResource(BlockMappingURI, "Block Mapping",
			mcp.WithResourceDescription("How page blocks map to HTML fragments and simplified JSON."),
			mcp.WithMIMEType("text/markdown"),
		),
		s.readBlockMappingResource,
	)

	return s
}

// ServeStdio starts the MCP server on stdin/stdout.
func (s *Server) ServeStdio() error {
	return server.ServeStdio(s.mcp)
}

// MCPServer returns the underlying server for testing.
func (s *Server) MCPServer() *server.MCPServer {
	return s.mcp
}

func jsonResult(v any) *mcp.CallToolResult {
	out, err := json.MarshalIndent(v, "", "  ")
	if err != nil {
		return mcp.NewToolResultError(err.Error())
	}
	return mcp.NewToolResultText(string(out))
}

func (s *Server) renderArticle(ctx context.Context, req mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	raw, err := req.RequireString("index")
	if err != nil {
		return mcp.NewToolResultError(err.Error()), nil
	}
	idx, err := strconv.Atoi(strings.TrimSpace(raw))
	if err != nil {
		return mcp.NewToolResultError(fmt.Sprintf("index must be an integer: %q", raw)), nil
	}

	res, err := s.pipeline.RenderArticle(ctx, idx)
	if err != nil {
		return mcp.NewToolResultError(err.Error()), nil
	}
	if !res.Unchanged && s.pages != nil {
		_ = s.pages.Reindex(ctx, res.Path)
	}
	return jsonResult(res), nil
}

func (s *Server) simplifyPage(ctx context.Context, req mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	pageID := req.GetString("page_id", s.defaultPageID)
	if pageID == "" {
		return mcp.NewToolResultError("page_id is required"), nil
	}
	res, err := s.pipeline.SimplifyPage(ctx, pageID)
	if err != nil {
		return mcp.NewToolResultError(err.Error()), nil
	}
	blocks := res.Blocks
	if blocks == nil {
		blocks = []models.SimplifiedBlock{}
	}
	return jsonResult(blocks), nil
}

func (s *Server) listPages(ctx context.Context, req mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	keyword := req.GetString("keyword", "")
	items, _, err := s.pages.ListPages(ctx, 500, 0, keyword, "")
	if err != nil {
		return mcp.NewToolResultError(err.Error()), nil
	}
	if len(items) == 0 {
		return mcp.NewToolResultText("no pages found"), nil
	}
	lines := make([]string, len(items))
	for i, it := range items {
		lines[i] = fmt.Sprintf("%s\t%s\t%s", it.Path, it.Date, it.Title)
	}
	return mcp.NewToolResultText(strings.Join(lines, "\n")), nil
}

func (s *Server) searchPages(ctx context.Context, req mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	query, err := req.RequireString("query")
	if err != nil {
		return mcp.NewToolResultError(err.Error()), nil
	}
	results, err := s.pages.Search(ctx, query, 20)
	if err != nil {
		return mcp.NewToolResultError(err.Error()), nil
	}
	return jsonResult(results), nil
}

func (s *Server) readPage(ctx context.Context, req mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	path, err := req.RequireString("path")
	if err != nil {
		return mcp.NewToolResultError(err.Error()), nil
	}
	page, err := s.pages.GetPage(ctx, path)
	if err != nil {
		if errors.Is(err, apperr.ErrNotFound) {
			return mcp.NewToolResultError(fmt.Sprintf("not found: %s", path)), nil
		}
		return mcp.NewToolResultError(err.Error()), nil
	}
	return jsonResult(page), nil
}

func (s *Server) getBlockMapping(_ context.Context, _ mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	return mcp.NewToolResultText(BlockMappingContract), nil
}

func (s *Server) readBlockMappingResource(_ context.Context, _ mcp.ReadResourceRequest) ([]mcp.ResourceContents, error) {
	return []mcp.ResourceContents{
		mcp.TextResourceContents{
			URI:      BlockMappingURI,
			MIMEType: "text/markdown",
			Text:     BlockMappingContract,
		},
	}, nil
}
