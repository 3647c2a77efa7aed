package api

import (
	"github.com/starford/inkwell/internal/models"
	"github.com/starford/inkwell/internal/pageservice"
	"github.com/starford/inkwell/internal/pipeline"
)

// PageDetail is the full page response type (aliased from the domain layer).
type PageDetail = pageservice.PageDetail

// PageListItem is a lightweight item in a list response (aliased from the domain layer).
type PageListItem = pageservice.PageListItem

// PageListResponse wraps paginated page listings.
type PageListResponse struct {
	Pages []PageListItem `json:"pages" validate:"required"`
	Total int            `json:"total" example:"42" validate:"required"`
}

// SearchResult is a single search hit in the API response.
type SearchResult struct {
	Path    string `json:"path" example:"Hello_World.html" validate:"required"`
	Title   string `json:"title" example:"Hello World" validate:"required"`
	Snippet string `json:"snippet" example:"...matched text..." validate:"required"`
}

// SearchResponse wraps search results.
type SearchResponse struct {
	Results []SearchResult `json:"results" validate:"required"`
}

// RenderResponse is returned after rendering an article.
type RenderResponse = pipeline.RenderResult

// SimplifiedResponse wraps a simplified block tree.
type SimplifiedResponse struct {
	PageID string                   `json:"page_id" example:"0f1e2d3c4b5a69788796a5b4c3d2e1f0" validate:"required"`
	Blocks []models.SimplifiedBlock `json:"blocks" validate:"required"`
}
