// Package notion is a minimal client for the Notion REST API covering the two
// read operations inkwell needs: querying a database and listing block children.
package notion

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"net/url"
	"strings"
	"time"

	"github.com/starford/inkwell/internal/apperr"
)

const (
	DefaultBaseURL = "https://api.notion.com/v1"
	DefaultVersion = "2022-06-28"

	maxResponseSize = 16 << 20
	childPageSize   = 100
)

// ChildrenFetcher lists the direct children of a block or page.
type ChildrenFetcher interface {
	ListChildren(ctx context.Context, blockID string) (*ListResponse, error)
}

// RecordSource queries the rows of a database.
type RecordSource interface {
	QueryDatabase(ctx context.Context, databaseID string) (*ListResponse, error)
}

// ListResponse is the first page of a paginated list endpoint. Results are
// kept as raw JSON so callers can persist them verbatim.
type ListResponse struct {
	Object     string            `json:"object"`
	Results    []json.RawMessage `json:"results"`
	HasMore    bool              `json:"has_more"`
	NextCursor string            `json:"next_cursor"`
}

// APIError is a non-2xx response from the API.
type APIError struct {
	Status  int    `json:"status"`
	Code    string `json:"code"`
	Message string `json:"message"`
}

func (e *APIError) Error() string {
	return fmt.Sprintf("notion: %d %s: %s", e.Status, e.Code, e.Message)
}

// Is lets errors.Is match APIError against the shared sentinels.
func (e *APIError) Is(target error) bool {
	switch target {
	case apperr.ErrUpstream:
		return true
	case apperr.ErrNotFound:
		return e.Status == http.StatusNotFound
	}
	return false
}

// Options configures a Client.
type Options struct {
	Token   string
	BaseURL string
	Version string
	Timeout time.Duration
}

// Client talks to the Notion API with a static bearer token.
type Client struct {
	http    *http.Client
	baseURL string
	token   string
	version string
	logger  *slog.Logger
}

// NewClient creates a client. Empty BaseURL and Version fall back to the defaults.
func NewClient(opts Options, logger *slog.Logger) *Client {
	if opts.BaseURL == "" {
		opts.BaseURL = DefaultBaseURL
	}
	if opts.Version == "" {
		opts.Version = DefaultVersion
	}
	if opts.Timeout <= 0 {
		opts.Timeout = 30 * time.Second
	}
	if logger == nil {
		logger = slog.Default()
	}
	return &Client{
		http:    &http.Client{Timeout: opts.Timeout},
		baseURL: strings.TrimRight(opts.BaseURL, "/"),
		token:   opts.Token,
		version: opts.Version,
		logger:  logger,
	}
}

// QueryDatabase returns the first page of rows of a database.
func (c *Client) QueryDatabase(ctx context.Context, databaseID string) (*ListResponse, error) {
	path := "/databases/" + url.PathEscape(databaseID) + "/query"
	return c.list(ctx, http.MethodPost, path, []byte("{}"))
}

// ListChildren returns the first page of children of a block.
func (c *Client) ListChildren(ctx context.Context, blockID string) (*ListResponse, error) {
	path := fmt.Sprintf("/blocks/%s/children?page_size=%d", url.PathEscape(blockID), childPageSize)
	return c.list(ctx, http.MethodGet, path, nil)
}

func (c *Client) list(ctx context.Context, method, path string, body []byte) (*ListResponse, error) {
	var reader io.Reader = http.NoBody
	if body != nil {
		reader = bytes.NewReader(body)
	}
	req, err := http.NewRequestWithContext(ctx, method, c.baseURL+path, reader)
	if err != nil {
		return nil, fmt.Errorf("notion: create request: %w", err)
	}
	req.Header.Set("Authorization", "Bearer "+c.token)
	req.Header.Set("Notion-Version", c.version)
	req.Header.Set("Accept", "application/json")
	if body != nil {
		req.Header.Set("Content-Type", "application/json")
	}

	start := time.Now()
	resp, err := c.http.Do(req)
	if err != nil {
		return nil, fmt.Errorf("notion: %s %s: %w", method, path, err)
	}
	defer resp.Body.Close()

	data, err := io.ReadAll(io.LimitReader(resp.Body, maxResponseSize))
	if err != nil {
		return nil, fmt.Errorf("notion: read response: %w", err)
	}

	c.logger.Debug("notion: request",
		slog.String("method", method),
		slog.String("path", path),
		slog.Int("status", resp.StatusCode),
		slog.Duration("duration", time.Since(start)))

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		apiErr := &APIError{Status: resp.StatusCode}
		if jsonErr := json.Unmarshal(data, apiErr); jsonErr != nil || apiErr.Message == "" {
			apiErr.Message = http.StatusText(resp.StatusCode)
		}
		apiErr.Status = resp.StatusCode
		return nil, apiErr
	}

	var out ListResponse
	if err := json.Unmarshal(data, &out); err != nil {
		return nil, fmt.Errorf("notion: decode list: %w", err)
	}
	if out.HasMore {
		c.logger.Debug("notion: more results available, only the first page is used",
			slog.String("path", path),
			slog.Int("results", len(out.Results)))
	}
	return &out, nil
}
