package internal

import (
	"log/slog"

	"github.com/starford/inkwell/internal/notion"
)

// Option is a functional option for configuring the application.
type Option func(*application)

type application struct {
	config   *Config
	logger   *slog.Logger
	records  notion.RecordSource
	children notion.ChildrenFetcher
	version  string
}

// WithConfig sets the application configuration.
func WithConfig(cfg *Config) Option {
	return func(a *application) {
		a.config = cfg
	}
}

// WithLogger replaces the logger built from the configuration.
func WithLogger(logger *slog.Logger) Option {
	return func(a *application) {
		a.logger = logger
	}
}

// WithRecordSource replaces the API client used for database queries.
func WithRecordSource(src notion.RecordSource) Option {
	return func(a *application) {
		a.records = src
	}
}

// WithChildrenFetcher replaces the API client used for block listings.
func WithChildrenFetcher(f notion.ChildrenFetcher) Option {
	return func(a *application) {
		a.children = f
	}
}

// WithVersion sets the version reported by the MCP server.
func WithVersion(v string) Option {
	return func(a *application) {
		a.version = v
	}
}
