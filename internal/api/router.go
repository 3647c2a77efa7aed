package api

import (
	"log/slog"
	"net/http"

	"github.com/go-chi/chi/v5"

	"github.com/starford/inkwell/internal/pageservice"
)

// RouterConfig carries the dependencies of the API router.
type RouterConfig struct {
	Pages       *pageservice.Service
	Pipeline    Pipeline
	AuthEnabled bool
	Token       string
	// Events, if non-nil, is mounted at GET /events inside the auth group.
	Events  http.Handler
	DataDir string
	Logger  *slog.Logger
}

// NewRouter creates a chi router with all API routes mounted.
func NewRouter(cfg RouterConfig) chi.Router {
	logger := cfg.Logger
	if logger == nil {
		logger = slog.Default()
	}
	h := NewHandler(cfg.Pages, cfg.Pipeline, logger)

	r := chi.NewRouter()
	r.Use(AuthMiddleware(cfg.AuthEnabled, cfg.Token))

	// Rendered pages.
	r.Get("/pages", h.ListPages)
	r.Get("/pages/*", h.GetPage)
	r.Delete("/pages/*", h.DeletePage)

	r.Get("/search", h.Search)

	// Pipelines.
	r.Post("/articles/{index}/render", h.RenderArticle)
	r.Get("/blocks/{id}/simplified", h.SimplifiedBlocks)

	if cfg.DataDir != "" {
		r.Get("/data/{filename}", NewDataHandler(cfg.DataDir).ServeFile)
	}

	if cfg.Events != nil {
		r.Get("/events", cfg.Events.ServeHTTP)
	}

	return r
}
