package api

import (
	"context"
	"errors"
	"log/slog"
	"net/http"
	"net/url"
	"strconv"
	"strings"
	"time"

	"github.com/go-chi/chi/v5"
	"golang.org/x/sync/singleflight"

	"github.com/starford/inkwell/internal/apperr"
	"github.com/starford/inkwell/internal/models"
	"github.com/starford/inkwell/internal/pageservice"
	"github.com/starford/inkwell/internal/pipeline"
)

// renderTimeout bounds one shared render.
const renderTimeout = 2 * time.Minute

// Pipeline is the subset of pipeline.Service the handlers call.
type Pipeline interface {
	RenderArticle(ctx context.Context, index int) (*pipeline.RenderResult, error)
	SimplifyTree(ctx context.Context, pageID string) ([]models.SimplifiedBlock, error)
}

// Handler holds API route handlers.
type Handler struct {
	pages    *pageservice.Service
	pipeline Pipeline
	logger   *slog.Logger
	renders  singleflight.Group
}

// NewHandler creates a new Handler.
func NewHandler(pages *pageservice.Service, p Pipeline, logger *slog.Logger) *Handler {
	return &Handler{pages: pages, pipeline: p, logger: logger}
}

// pagePath extracts the page path from the URL (everything after /pages/).
// Supports encoded slashes.
func pagePath(r *http.Request) string {
	raw := strings.TrimPrefix(chi.URLParam(r, "*"), "/")
	if raw == "" {
		return ""
	}
	decoded, err := url.PathUnescape(raw)
	if err != nil {
		return raw
	}
	return decoded
}

// ListPages handles GET /pages.
//
//	@Summary		List rendered pages with optional pagination and filtering
//	@Tags			pages
//	@Produce		json
//	@Param			limit	query		int		false	"Page size"
//	@Param			offset	query		int		false	"Page offset"
//	@Param			keyword	query		string	false	"Filter by keyword"
//	@Param			sort	query		string	false	"Sort field"	Enums(date, title, path, updated_at)
//	@Success		200		{object}	PageListResponse
//	@Security		BearerAuth
//	@Router			/pages [get]
func (h *Handler) ListPages(w http.ResponseWriter, r *http.Request) {
	q := r.URL.Query()
	limit, _ := strconv.Atoi(q.Get("limit"))
	offset, _ := strconv.Atoi(q.Get("offset"))

	items, total, err := h.pages.ListPages(r.Context(), limit, offset, q.Get("keyword"), q.Get("sort"))
	if err != nil {
		h.logger.Error("list pages failed", slog.String("error", err.Error()))
		writeError(w, http.StatusInternalServerError, "internal error")
		return
	}
	writeJSON(w, http.StatusOK, PageListResponse{Pages: items, Total: total})
}

// GetPage handles GET /pages/*. The rendered HTML is returned as is unless
// format=json asks for the parsed metadata.
//
//	@Summary		Get a rendered page by path
//	@Tags			pages
//	@Produce		html,json
//	@Param			path	path		string	true	"Page path"
//	@Param			format	query		string	false	"Response format"	Enums(html, json)
//	@Success		200		{object}	PageDetail
//	@Failure		404		{object}	errResponse
//	@Security		BearerAuth
//	@Router			/pages/{path} [get]
func (h *Handler) GetPage(w http.ResponseWriter, r *http.Request) {
	path := pagePath(r)
	if path == "" {
		writeError(w, http.StatusBadRequest, "path is required")
		return
	}

	if r.URL.Query().Get("format") == "json" {
		page, err := h.pages.GetPage(r.Context(), path)
		if err != nil {
			h.pageError(w, "get page failed", path, err)
			return
		}
		writeJSON(w, http.StatusOK, page)
		return
	}

	data, err := h.pages.RawPage(r.Context(), path)
	if err != nil {
		h.pageError(w, "read page failed", path, err)
		return
	}
	w.Header().Set("Content-Type", "text/html; charset=utf-8")
	w.WriteHeader(http.StatusOK)
	_, _ = w.Write(data)
}

// DeletePage handles DELETE /pages/*.
//
//	@Summary		Delete a rendered page
//	@Tags			pages
//	@Param			path	path	string	true	"Page path"
//	@Success		204		"Page deleted"
//	@Failure		404		{object}	errResponse
//	@Security		BearerAuth
//	@Router			/pages/{path} [delete]
func (h *Handler) DeletePage(w http.ResponseWriter, r *http.Request) {
	path := pagePath(r)
	if path == "" {
		writeError(w, http.StatusBadRequest, "path is required")
		return
	}
	if err := h.pages.DeletePage(r.Context(), path); err != nil {
		h.pageError(w, "delete page failed", path, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

func (h *Handler) pageError(w http.ResponseWriter, msg, path string, err error) {
	if errors.Is(err, apperr.ErrNotFound) {
		writeError(w, http.StatusNotFound, "not found")
		return
	}
	h.logger.Error(msg, slog.String("path", path), slog.String("error", err.Error()))
	writeError(w, http.StatusInternalServerError, "internal error")
}

// Search handles GET /search.
//
//	@Summary		Full-text search across rendered pages
//	@Tags			search
//	@Produce		json
//	@Param			q		query		string	true	"Search query"
//	@Param			limit	query		int		false	"Max results"
//	@Success		200		{object}	SearchResponse
//	@Failure		400		{object}	errResponse
//	@Security		BearerAuth
//	@Router			/search [get]
func (h *Handler) Search(w http.ResponseWriter, r *http.Request) {
	q := r.URL.Query().Get("q")
	if q == "" {
		writeError(w, http.StatusBadRequest, "query parameter 'q' is required")
		return
	}
	limit, _ := strconv.Atoi(r.URL.Query().Get("limit"))
	results, err := h.pages.Search(r.Context(), q, limit)
	if err != nil {
		h.logger.Error("search failed", slog.String("query", q), slog.String("error", err.Error()))
		writeError(w, http.StatusInternalServerError, "internal error")
		return
	}
	out := make([]SearchResult, len(results))
	for i, res := range results {
		out[i] = SearchResult(res)
	}
	writeJSON(w, http.StatusOK, SearchResponse{Results: out})
}

// RenderArticle handles POST /articles/{index}/render. Concurrent requests
// for the same index share one render.
//
//	@Summary		Render a database record to an HTML page
//	@Tags			articles
//	@Produce		json
//	@Param			index	path		int	true	"Record index"
//	@Success		200		{object}	RenderResponse
//	@Failure		400		{object}	errResponse
//	@Failure		404		{object}	errResponse
//	@Failure		422		{object}	errResponse
//	@Failure		502		{object}	errResponse
//	@Security		BearerAuth
//	@Router			/articles/{index}/render [post]
func (h *Handler) RenderArticle(w http.ResponseWriter, r *http.Request) {
	idx, err := strconv.Atoi(chi.URLParam(r, "index"))
	if err != nil {
		writeError(w, http.StatusBadRequest, "index must be an integer")
		return
	}

	// The shared render outlives any single caller; each caller stops
	// waiting when its own request ends.
	ch := h.renders.DoChan(strconv.Itoa(idx), func() (any, error) {
		ctx, cancel := context.WithTimeout(context.WithoutCancel(r.Context()), renderTimeout)
		defer cancel()

		res, err := h.pipeline.RenderArticle(ctx, idx)
		if err != nil {
			return nil, err
		}
		if !res.Unchanged {
			if err := h.pages.Reindex(ctx, res.Path); err != nil {
				h.logger.Warn("reindex after render failed",
					slog.String("path", res.Path),
					slog.String("error", err.Error()))
			}
		}
		return res, nil
	})

	var v any
	select {
	case <-r.Context().Done():
		err = r.Context().Err()
	case out := <-ch:
		v, err = out.Val, out.Err
	}
	if err != nil {
		status, msg := renderStatus(err)
		if status == http.StatusInternalServerError {
			h.logger.Error("render article failed", slog.Int("index", idx), slog.String("error", err.Error()))
		}
		writeError(w, status, msg)
		return
	}
	writeJSON(w, http.StatusOK, v)
}

func renderStatus(err error) (int, string) {
	switch {
	case errors.Is(err, apperr.ErrIndexOutOfRange):
		return http.StatusNotFound, "record index out of range"
	case errors.Is(err, context.Canceled), errors.Is(err, context.DeadlineExceeded):
		return http.StatusUnprocessableEntity, "request cancelled"
	case errors.Is(err, apperr.ErrMissingProperty),
		errors.Is(err, apperr.ErrMissingSubtitle),
		errors.Is(err, apperr.ErrTooFewKeywords):
		return http.StatusUnprocessableEntity, err.Error()
	case errors.Is(err, apperr.ErrUpstream):
		return http.StatusBadGateway, "upstream request failed"
	}
	return http.StatusInternalServerError, "internal error"
}

// SimplifiedBlocks handles GET /blocks/{id}/simplified.
//
//	@Summary		Simplified block tree of a page
//	@Tags			blocks
//	@Produce		json
//	@Param			id	path		string	true	"Page or block id"
//	@Success		200	{object}	SimplifiedResponse
//	@Security		BearerAuth
//	@Router			/blocks/{id}/simplified [get]
func (h *Handler) SimplifiedBlocks(w http.ResponseWriter, r *http.Request) {
	id := chi.URLParam(r, "id")
	tree, err := h.pipeline.SimplifyTree(r.Context(), id)
	if err != nil {
		status, msg := renderStatus(err)
		if status == http.StatusInternalServerError {
			h.logger.Error("simplify failed", slog.String("block_id", id), slog.String("error", err.Error()))
		}
		writeError(w, status, msg)
		return
	}
	writeJSON(w, http.StatusOK, SimplifiedResponse{PageID: id, Blocks: tree})
}
