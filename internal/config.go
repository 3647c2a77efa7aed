package internal

import (
	"fmt"
	"log/slog"
	"os"
	"time"

	validation "github.com/go-ozzo/ozzo-validation/v4"
	"github.com/go-ozzo/ozzo-validation/v4/is"

	"github.com/starford/inkwell/internal/notion"
	"github.com/starford/inkwell/internal/pipeline"
	"github.com/starford/inkwell/internal/record"
)

// Auth modes.
const (
	AuthModeDisabled = "disabled"
	AuthModeToken    = "token"
)

// Environment variables consulted when the matching config value is empty.
const (
	EnvNotionToken      = "NOTION_TOKEN"
	EnvNotionDatabaseID = "NOTION_DATABASE_ID"
	EnvNotionPageID     = "NOTION_PAGE_ID"
)

// Config represents the application configuration.
type Config struct {
	App      ApplicationConfig `yaml:"app"`
	Notion   NotionConfig      `yaml:"notion"`
	Render   RenderConfig      `yaml:"render"`
	Simplify SimplifyConfig    `yaml:"simplify"`
	SQLite   SQLiteConfig      `yaml:"sqlite"`
	Auth     AuthConfig        `yaml:"auth"`
}

// ApplyEnv fills empty Notion settings from the environment.
func (c *Config) ApplyEnv() {
	envDefault(&c.Notion.Token, EnvNotionToken)
	envDefault(&c.Notion.DatabaseID, EnvNotionDatabaseID)
	envDefault(&c.Notion.PageID, EnvNotionPageID)
}

func envDefault(dst *string, key string) {
	if *dst == "" {
		*dst = os.Getenv(key)
	}
}

// Validate validates the configuration.
func (c *Config) Validate() error {
	if err := c.App.Validate(); err != nil {
		return err
	}
	if err := c.Notion.Validate(); err != nil {
		return fmt.Errorf("notion: %w", err)
	}
	if err := c.Render.Validate(); err != nil {
		return fmt.Errorf("render: %w", err)
	}
	if err := c.Simplify.Validate(); err != nil {
		return fmt.Errorf("simplify: %w", err)
	}
	if err := c.SQLite.Validate(); err != nil {
		return fmt.Errorf("sqlite: %w", err)
	}
	return c.Auth.Validate()
}

// ApplicationConfig holds application-level configuration.
type ApplicationConfig struct {
	LogLevel slog.Level `yaml:"log_level"`
	HTTP     HTTPConfig `yaml:"http"`
}

// Validate validates the application configuration.
func (c *ApplicationConfig) Validate() error {
	return c.HTTP.Validate()
}

// HTTPConfig holds HTTP server configuration.
type HTTPConfig struct {
	Port int `yaml:"port"`
}

// Address returns HTTP server address.
func (c *HTTPConfig) Address() string {
	return fmt.Sprintf(":%d", c.Port)
}

// Validate validates the HTTP configuration.
func (c *HTTPConfig) Validate() error {
	return validation.ValidateStruct(c,
		validation.Field(&c.Port, validation.Required, validation.Min(1), validation.Max(65535)),
	)
}

// NotionConfig holds the API credentials and the database layout.
// DatabaseID and PageID are checked by the commands that need them.
type NotionConfig struct {
	Token      string               `yaml:"token"`
	DatabaseID string               `yaml:"database_id"`
	PageID     string               `yaml:"page_id"`
	BaseURL    string               `yaml:"base_url"`
	Version    string               `yaml:"version"`
	TimeoutSec int                  `yaml:"timeout_sec"`
	Properties record.PropertyNames `yaml:"properties"`
}

// Validate validates the Notion configuration.
func (c *NotionConfig) Validate() error {
	return validation.ValidateStruct(c,
		validation.Field(&c.Token, validation.Required),
		validation.Field(&c.BaseURL, validation.Required, is.URL),
		validation.Field(&c.Version, validation.Required),
		validation.Field(&c.TimeoutSec, validation.Required, validation.Min(1), validation.Max(300)),
	)
}

// ClientOptions converts the config into notion client options.
func (c *NotionConfig) ClientOptions() notion.Options {
	return notion.Options{
		Token:   c.Token,
		BaseURL: c.BaseURL,
		Version: c.Version,
		Timeout: time.Duration(c.TimeoutSec) * time.Second,
	}
}

// RenderConfig holds the HTML renderer settings. An empty TemplatePath
// selects the built-in template.
type RenderConfig struct {
	TemplatePath string `yaml:"template_path"`
	SiteDir      string `yaml:"site_dir"`
}

// Validate validates the render configuration.
func (c *RenderConfig) Validate() error {
	return validation.ValidateStruct(c,
		validation.Field(&c.SiteDir, validation.Required),
	)
}

// SimplifyConfig holds where the simplifier writes its JSON files.
type SimplifyConfig struct {
	DataDir    string `yaml:"data_dir"`
	RawFile    string `yaml:"raw_file"`
	SimpleFile string `yaml:"simple_file"`
}

// Validate validates the simplify configuration.
func (c *SimplifyConfig) Validate() error {
	return validation.ValidateStruct(c,
		validation.Field(&c.DataDir, validation.Required),
		validation.Field(&c.RawFile, validation.Required),
		validation.Field(&c.SimpleFile, validation.Required),
	)
}

// SQLiteConfig holds SQLite database configuration.
type SQLiteConfig struct {
	Path string `yaml:"path"`
}

// Validate validates the SQLite configuration.
func (c *SQLiteConfig) Validate() error {
	return validation.ValidateStruct(c,
		validation.Field(&c.Path, validation.Required),
	)
}

// AuthConfig holds authentication configuration for the preview API.
//
// Mode controls how authentication is enforced:
//   - "disabled" (default): no authentication required.
//   - "token": Bearer token authentication; Token must be non-empty.
type AuthConfig struct {
	Mode  string `yaml:"mode"`
	Token string `yaml:"token"`
}

// Validate validates the auth configuration.
func (c *AuthConfig) Validate() error {
	if c.Mode == "" {
		c.Mode = AuthModeDisabled
	}
	if err := validation.ValidateStruct(c,
		validation.Field(&c.Mode, validation.Required, validation.In(AuthModeDisabled, AuthModeToken)),
	); err != nil {
		return err
	}
	if c.Mode == AuthModeToken && c.Token == "" {
		return fmt.Errorf("auth: mode is %q but token is empty", AuthModeToken)
	}
	return nil
}

// AuthEnabled returns true when authentication is active.
func (c *AuthConfig) AuthEnabled() bool {
	return c.Mode == AuthModeToken
}

// NewDefaultConfig returns a new Config with sensible default values.
func NewDefaultConfig() *Config {
	return &Config{
		App: ApplicationConfig{
			LogLevel: slog.LevelInfo,
			HTTP: HTTPConfig{
				Port: 8080,
			},
		},
		Notion: NotionConfig{
			BaseURL:    notion.DefaultBaseURL,
			Version:    notion.DefaultVersion,
			TimeoutSec: 30,
			Properties: record.DefaultPropertyNames(),
		},
		Render: RenderConfig{
			SiteDir: "./site",
		},
		Simplify: SimplifyConfig{
			DataDir:    "./data",
			RawFile:    pipeline.DefaultRawFile,
			SimpleFile: pipeline.DefaultSimpleFile,
		},
		SQLite: SQLiteConfig{
			Path: "./inkwell.db",
		},
		Auth: AuthConfig{
			Mode: AuthModeDisabled,
		},
	}
}
