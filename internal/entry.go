// Package internal provides the main application initialization and runtime logic.
package internal

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"golang.org/x/sync/errgroup"

	"github.com/starford/inkwell/internal/api"
	"github.com/starford/inkwell/internal/index"
	"github.com/starford/inkwell/internal/mcpserver"
	"github.com/starford/inkwell/internal/notion"
	"github.com/starford/inkwell/internal/pageservice"
	"github.com/starford/inkwell/internal/pipeline"
	"github.com/starford/inkwell/internal/render"
	"github.com/starford/inkwell/internal/sse"
	"github.com/starford/inkwell/internal/storage"
)

func newApplication(opts []Option) (*application, error) {
	app := &application{version: "dev"}
	for _, opt := range opts {
		opt(app)
	}
	if app.config == nil {
		return nil, fmt.Errorf("config is required")
	}
	return app, nil
}

// log returns the configured logger, or one writing handler-formatted
// records to w at the configured level.
func (a *application) log(w io.Writer, asJSON bool) *slog.Logger {
	if a.logger != nil {
		return a.logger
	}
	hopts := &slog.HandlerOptions{Level: a.config.App.LogLevel}
	if asJSON {
		return slog.New(slog.NewJSONHandler(w, hopts))
	}
	return slog.New(slog.NewTextHandler(w, hopts))
}

// pipeline builds the pipeline service and its site store.
func (a *application) pipeline(logger *slog.Logger) (*pipeline.Service, *storage.FS, error) {
	cfg := a.config

	if a.records == nil || a.children == nil {
		client := notion.NewClient(cfg.Notion.ClientOptions(), logger)
		if a.records == nil {
			a.records = client
		}
		if a.children == nil {
			a.children = client
		}
	}

	tmpl, err := render.LoadTemplate(cfg.Render.TemplatePath)
	if err != nil {
		return nil, nil, err
	}
	site, err := storage.NewFS(cfg.Render.SiteDir)
	if err != nil {
		return nil, nil, fmt.Errorf("init site storage: %w", err)
	}
	data, err := storage.NewFS(cfg.Simplify.DataDir)
	if err != nil {
		return nil, nil, fmt.Errorf("init data storage: %w", err)
	}

	svc := pipeline.NewService(a.records, a.children, site, data, pipeline.Settings{
		DatabaseID: cfg.Notion.DatabaseID,
		Properties: cfg.Notion.Properties,
		Template:   tmpl,
		RawFile:    cfg.Simplify.RawFile,
		SimpleFile: cfg.Simplify.SimpleFile,
	}, logger)
	return svc, site, nil
}

// RunRender renders the database record at index into the site directory.
func RunRender(ctx context.Context, idx int, opts ...Option) error {
	app, err := newApplication(opts)
	if err != nil {
		return err
	}
	if app.config.Notion.DatabaseID == "" {
		return fmt.Errorf("notion.database_id is required (or set %s)", EnvNotionDatabaseID)
	}
	logger := app.log(os.Stderr, false)

	svc, _, err := app.pipeline(logger)
	if err != nil {
		return err
	}
	res, err := svc.RenderArticle(ctx, idx)
	if err != nil {
		return err
	}
	logger.Info("render finished",
		slog.String("path", res.Path),
		slog.Bool("unchanged", res.Unchanged))
	return nil
}

// RunSimplify writes the raw and simplified block trees of pageID, or of the
// configured page when pageID is empty.
func RunSimplify(ctx context.Context, pageID string, opts ...Option) error {
	app, err := newApplication(opts)
	if err != nil {
		return err
	}
	if pageID == "" {
		pageID = app.config.Notion.PageID
	}
	if pageID == "" {
		return fmt.Errorf("page id is required: pass it as an argument, set notion.page_id or %s", EnvNotionPageID)
	}
	logger := app.log(os.Stderr, false)

	svc, _, err := app.pipeline(logger)
	if err != nil {
		return err
	}
	res, err := svc.SimplifyPage(ctx, pageID)
	if err != nil {
		return err
	}
	logger.Info("simplify finished",
		slog.String("raw", res.RawPath),
		slog.String("simple", res.SimplePath),
		slog.Int("blocks", len(res.Blocks)))
	return nil
}

// ServeMCP runs the MCP server on stdio until the client disconnects.
func ServeMCP(ctx context.Context, opts ...Option) error {
	app, err := newApplication(opts)
	if err != nil {
		return err
	}
	// stdout carries the protocol.
	logger := app.log(os.Stderr, false)

	svc, site, err := app.pipeline(logger)
	if err != nil {
		return err
	}
	db, err := index.Open(app.config.SQLite.Path)
	if err != nil {
		return fmt.Errorf("init index: %w", err)
	}
	defer db.Close()
	if err := index.Sync(db, site, logger); err != nil {
		logger.Warn("initial sync failed", slog.String("error", err.Error()))
	}

	srv := mcpserver.New(svc, pageservice.NewService(site, db), app.config.Notion.PageID, app.version)
	logger.Info("MCP server starting on stdio")

	errCh := make(chan error, 1)
	go func() { errCh <- srv.ServeStdio() }()
	select {
	case err := <-errCh:
		return err
	case <-ctx.Done():
		return nil
	}
}

// Serve starts the preview server: HTTP API, site watcher and SSE events.
func Serve(ctx context.Context, opts ...Option) error {
	app, err := newApplication(opts)
	if err != nil {
		return err
	}
	cfg := app.config

	logger := app.log(os.Stdout, true)
	slog.SetDefault(logger)

	logger.Info("Configuration loaded",
		slog.String("http_address", cfg.App.HTTP.Address()),
		slog.String("site_dir", cfg.Render.SiteDir),
		slog.String("data_dir", cfg.Simplify.DataDir),
		slog.String("sqlite_path", cfg.SQLite.Path),
		slog.String("log_level", cfg.App.LogLevel.String()))

	svc, site, err := app.pipeline(logger)
	if err != nil {
		return err
	}

	db, err := index.Open(cfg.SQLite.Path)
	if err != nil {
		return fmt.Errorf("init index: %w", err)
	}
	defer db.Close()

	if err := index.Sync(db, site, logger); err != nil {
		logger.Warn("initial sync failed", slog.String("error", err.Error()))
	}

	broker := sse.NewBroker(2 * time.Second)
	defer broker.Close()

	apiRouter := api.NewRouter(api.RouterConfig{
		Pages:       pageservice.NewService(site, db),
		Pipeline:    svc,
		AuthEnabled: cfg.Auth.AuthEnabled(),
		Token:       cfg.Auth.Token,
		Events:      broker,
		DataDir:     cfg.Simplify.DataDir,
		Logger:      logger,
	})

	r := chi.NewRouter()
	r.Use(middleware.RequestID)
	r.Use(middleware.RealIP)
	r.Use(middleware.Logger)
	r.Use(middleware.Recoverer)

	mountHealth(r, db.Ping)

	r.Mount("/", apiRouter)

	httpServer := &http.Server{
		Addr:              cfg.App.HTTP.Address(),
		Handler:           r,
		ReadHeaderTimeout: 10 * time.Second,
	}

	g, gCtx := errgroup.WithContext(ctx)

	// Watch the site directory and push page changes to SSE clients.
	g.Go(func() error {
		return index.Watch(gCtx, db, site, site.Root(), logger, broker.PublishPageEvent)
	})

	g.Go(func() error {
		logger.Info("Starting HTTP server", slog.String("address", cfg.App.HTTP.Address()))
		if err := httpServer.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			return fmt.Errorf("HTTP server error: %w", err)
		}
		return nil
	})

	g.Go(func() error {
		quit := make(chan os.Signal, 1)
		signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
		defer signal.Stop(quit)

		select {
		case sig := <-quit:
			logger.Info("Received shutdown signal", slog.String("signal", sig.String()))
		case <-gCtx.Done():
			logger.Info("Context cancelled, initiating shutdown")
		}

		shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
		defer cancel()
		if err := httpServer.Shutdown(shutdownCtx); err != nil {
			logger.Error("HTTP server shutdown error", slog.String("error", err.Error()))
		}
		return errShutdown
	})

	if err := g.Wait(); err != nil && !errors.Is(err, errShutdown) {
		logger.Error("Application error", slog.String("error", err.Error()))
		return err
	}

	logger.Info("Server stopped successfully")
	return nil
}

// mountHealth adds the unauthenticated liveness and readiness probes.
// ready reports whether the page index can serve requests.
func mountHealth(r chi.Router, ready func() error) {
	r.Get("/health/live", func(w http.ResponseWriter, _ *http.Request) {
		writeStatus(w, http.StatusOK, "ok")
	})
	r.Get("/health/ready", func(w http.ResponseWriter, _ *http.Request) {
		if err := ready(); err != nil {
			writeStatus(w, http.StatusServiceUnavailable, "index unavailable")
			return
		}
		writeStatus(w, http.StatusOK, "ok")
	})
}

func writeStatus(w http.ResponseWriter, code int, status string) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(code)
	_, _ = fmt.Fprintf(w, `{"status":%q}`, status)
}

// errShutdown cancels the group once the server has been asked to stop, so
// the watcher exits too.
var errShutdown = errors.New("shutdown")
