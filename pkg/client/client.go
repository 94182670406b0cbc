package client

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strings"
	"time"

	"github.com/terra-clan/problem-browser/internal/models"
)

// Client is a Go SDK for the problem-browser API
type Client struct {
	baseURL    string
	httpClient *http.Client
}

// Option configures the client
type Option func(*Client)

// WithHTTPClient sets a custom HTTP client
func WithHTTPClient(client *http.Client) Option {
	return func(c *Client) {
		c.httpClient = client
	}
}

// WithTimeout sets the client timeout
func WithTimeout(timeout time.Duration) Option {
	return func(c *Client) {
		c.httpClient.Timeout = timeout
	}
}

// NewClient creates a new problem-browser client
func NewClient(baseURL string, opts ...Option) *Client {
	c := &Client{
		baseURL: strings.TrimRight(baseURL, "/"),
		httpClient: &http.Client{
			Timeout: 30 * time.Second,
		},
	}

	for _, opt := range opts {
		opt(c)
	}

	return c
}

// APIError is an error reported in the response envelope
type APIError struct {
	Status  int    `json:"-"`
	Code    string `json:"code"`
	Message string `json:"message"`
}

func (e *APIError) Error() string {
	return fmt.Sprintf("API error: %s - %s", e.Code, e.Message)
}

// IsNotFound reports whether err is an API not_found error
func IsNotFound(err error) bool {
	var apiErr *APIError
	return errors.As(err, &apiErr) && apiErr.Code == "not_found"
}

type envelope struct {
	Success bool            `json:"success"`
	Data    json.RawMessage `json:"data"`
	Error   *APIError       `json:"error"`
}

// Meta returns the filter choices and defaults
func (c *Client) Meta(ctx context.Context) (*models.Meta, error) {
	var meta models.Meta
	if err := c.call(ctx, http.MethodGet, "/api/v1/meta", nil, &meta); err != nil {
		return nil, err
	}
	return &meta, nil
}

// Catalog returns the catalog status
func (c *Client) Catalog(ctx context.Context) (*models.CatalogSnapshot, error) {
	var snap models.CatalogSnapshot
	if err := c.call(ctx, http.MethodGet, "/api/v1/catalog", nil, &snap); err != nil {
		return nil, err
	}
	return &snap, nil
}

// RefreshCatalog re-runs the fetch cycle on the server
func (c *Client) RefreshCatalog(ctx context.Context) (*models.CatalogSnapshot, error) {
	var snap models.CatalogSnapshot
	if err := c.call(ctx, http.MethodPost, "/api/v1/catalog/refresh", nil, &snap); err != nil {
		return nil, err
	}
	return &snap, nil
}

// CreateSession starts a browsing session with default filters
func (c *Client) CreateSession(ctx context.Context) (*models.View, error) {
	return c.view(ctx, http.MethodPost, "/api/v1/sessions", nil)
}

// GetView returns the current display list of a session
func (c *Client) GetView(ctx context.Context, sessionID string) (*models.View, error) {
	return c.view(ctx, http.MethodGet, sessionPath(sessionID, ""), nil)
}

// DeleteSession removes a session
func (c *Client) DeleteSession(ctx context.Context, sessionID string) error {
	return c.call(ctx, http.MethodDelete, sessionPath(sessionID, ""), nil, nil)
}

// ToggleDivision flips a division in the session's filter
func (c *Client) ToggleDivision(ctx context.Context, sessionID string, d models.Division) (*models.View, error) {
	return c.view(ctx, http.MethodPost, sessionPath(sessionID, "/divisions/"+url.PathEscape(string(d))+"/toggle"), nil)
}

// ToggleIndex flips a problem index in the session's filter
func (c *Client) ToggleIndex(ctx context.Context, sessionID, index string) (*models.View, error) {
	return c.view(ctx, http.MethodPost, sessionPath(sessionID, "/indices/"+url.PathEscape(index)+"/toggle"), nil)
}

// SetSortOrder changes the session's sort order
func (c *Client) SetSortOrder(ctx context.Context, sessionID string, order models.SortOrder) (*models.View, error) {
	return c.view(ctx, http.MethodPut, sessionPath(sessionID, "/sort"), models.SortRequest{Order: order})
}

// SetViewMode changes the session's layout
func (c *Client) SetViewMode(ctx context.Context, sessionID string, mode models.ViewMode) (*models.View, error) {
	return c.view(ctx, http.MethodPut, sessionPath(sessionID, "/view-mode"), models.ViewModeRequest{Mode: mode})
}

// GetProgress returns the progress of one problem
func (c *Client) GetProgress(ctx context.Context, contestID int, index string) (*models.ProgressResponse, error) {
	var pr models.ProgressResponse
	if err := c.call(ctx, http.MethodGet, progressPath(contestID, index), nil, &pr); err != nil {
		return nil, err
	}
	return &pr, nil
}

// UpdateProgress merges upd into the progress of one problem
func (c *Client) UpdateProgress(ctx context.Context, contestID int, index string, upd models.ProgressUpdate) (*models.ProgressResponse, error) {
	var pr models.ProgressResponse
	if err := c.call(ctx, http.MethodPatch, progressPath(contestID, index), upd, &pr); err != nil {
		return nil, err
	}
	return &pr, nil
}

// Health checks if the service is healthy
func (c *Client) Health(ctx context.Context) error {
	_, err := c.doRequest(ctx, http.MethodGet, "/health", nil)
	return err
}

func sessionPath(id, suffix string) string {
	return "/api/v1/sessions/" + url.PathEscape(id) + suffix
}

func progressPath(contestID int, index string) string {
	return fmt.Sprintf("/api/v1/progress/%d/%s", contestID, url.PathEscape(index))
}

func (c *Client) view(ctx context.Context, method, path string, req interface{}) (*models.View, error) {
	var v models.View
	if err := c.call(ctx, method, path, req, &v); err != nil {
		return nil, err
	}
	return &v, nil
}

// call sends req as JSON and decodes the envelope's data into out
func (c *Client) call(ctx context.Context, method, path string, req, out interface{}) error {
	var body io.Reader
	if req != nil {
		data, err := json.Marshal(req)
		if err != nil {
			return fmt.Errorf("failed to marshal request: %w", err)
		}
		body = bytes.NewReader(data)
	}

	resp, err := c.doRequest(ctx, method, path, body)
	if err != nil {
		return err
	}

	var result envelope
	if err := json.Unmarshal(resp, &result); err != nil {
		return fmt.Errorf("failed to unmarshal response: %w", err)
	}

	if !result.Success {
		if result.Error == nil {
			return &APIError{Code: "unknown", Message: "request failed"}
		}
		return result.Error
	}

	if out == nil || len(result.Data) == 0 {
		return nil
	}
	if err := json.Unmarshal(result.Data, out); err != nil {
		return fmt.Errorf("failed to unmarshal response data: %w", err)
	}
	return nil
}

// doRequest performs an HTTP request. Error statuses carrying an API
// envelope are returned as *APIError.
func (c *Client) doRequest(ctx context.Context, method, path string, body io.Reader) ([]byte, error) {
	req, err := http.NewRequestWithContext(ctx, method, c.baseURL+path, body)
	if err != nil {
		return nil, fmt.Errorf("failed to create request: %w", err)
	}

	req.Header.Set("Content-Type", "application/json")

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return nil, fmt.Errorf("request failed: %w", err)
	}
	defer resp.Body.Close()

	respBody, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, fmt.Errorf("failed to read response: %w", err)
	}

	if resp.StatusCode >= 400 {
		var result envelope
		if json.Unmarshal(respBody, &result) == nil && result.Error != nil {
			result.Error.Status = resp.StatusCode
			return nil, result.Error
		}
		return nil, fmt.Errorf("HTTP %d: %s", resp.StatusCode, string(respBody))
	}

	return respBody, nil
}
