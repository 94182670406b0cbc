// Package codeforces retrieves contests and problems from the Codeforces API
// and joins them into the browsable problem list.
package codeforces

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"strings"
	"time"

	"golang.org/x/sync/errgroup"

	"github.com/terra-clan/problem-browser/internal/models"
)

const (
	DefaultBaseURL = "https://codeforces.com/api"
	DefaultSiteURL = "https://codeforces.com"

	statusOK = "OK"
)

// ErrFetchFailed is returned when either collection could not be retrieved
var ErrFetchFailed = errors.New("fetch failed")

// Client is a Codeforces API client
type Client struct {
	baseURL    string
	siteURL    string
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
		if timeout > 0 {
			c.httpClient.Timeout = timeout
		}
	}
}

// WithSiteURL sets the base used to build problem links
func WithSiteURL(siteURL string) Option {
	return func(c *Client) {
		if siteURL != "" {
			c.siteURL = strings.TrimRight(siteURL, "/")
		}
	}
}

// NewClient creates a new Codeforces client. An empty baseURL selects the
// public API.
func NewClient(baseURL string, opts ...Option) *Client {
	if baseURL == "" {
		baseURL = DefaultBaseURL
	}

	c := &Client{
		baseURL: strings.TrimRight(baseURL, "/"),
		siteURL: DefaultSiteURL,
		httpClient: &http.Client{
			Timeout: 30 * time.Second,
		},
	}

	for _, opt := range opts {
		opt(c)
	}

	return c
}

type envelope[T any] struct {
	Status  string `json:"status"`
	Comment string `json:"comment,omitempty"`
	Result  T      `json:"result"`
}

type problemSet struct {
	Problems []models.RawProblem `json:"problems"`
}

// FetchContests retrieves the full contest list
func (c *Client) FetchContests(ctx context.Context) ([]models.Contest, error) {
	var env envelope[[]models.Contest]
	if err := c.get(ctx, "/contest.list", &env); err != nil {
		return nil, fmt.Errorf("%w: contests: %v", ErrFetchFailed, err)
	}
	if env.Status != statusOK {
		return nil, fmt.Errorf("%w: contests: api status %q %s", ErrFetchFailed, env.Status, env.Comment)
	}
	return env.Result, nil
}

// FetchProblems retrieves the full problem set
func (c *Client) FetchProblems(ctx context.Context) ([]models.RawProblem, error) {
	var env envelope[problemSet]
	if err := c.get(ctx, "/problemset.problems", &env); err != nil {
		return nil, fmt.Errorf("%w: problems: %v", ErrFetchFailed, err)
	}
	if env.Status != statusOK {
		return nil, fmt.Errorf("%w: problems: api status %q %s", ErrFetchFailed, env.Status, env.Comment)
	}
	return env.Result.Problems, nil
}

// LoadProblems fetches both collections concurrently and joins them. Either
// retrieval failing fails the whole load.
func (c *Client) LoadProblems(ctx context.Context) ([]models.Problem, error) {
	var (
		contests []models.Contest
		raw      []models.RawProblem
	)

	start := time.Now()
	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		var err error
		contests, err = c.FetchContests(gctx)
		return err
	})
	g.Go(func() error {
		var err error
		raw, err = c.FetchProblems(gctx)
		return err
	})
	if err := g.Wait(); err != nil {
		return nil, err
	}

	problems := Join(contests, raw, c.siteURL)

	slog.Info("problems loaded",
		"contests", len(contests),
		"raw_problems", len(raw),
		"problems", len(problems),
		"duration_ms", time.Since(start).Milliseconds(),
	)

	return problems, nil
}

// get performs a GET and decodes the JSON body into out
func (c *Client) get(ctx context.Context, path string, out any) error {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, c.baseURL+path, nil)
	if err != nil {
		return fmt.Errorf("failed to create request: %w", err)
	}
	req.Header.Set("Accept", "application/json")

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return fmt.Errorf("request failed: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		body, _ := io.ReadAll(io.LimitReader(resp.Body, 512))
		return fmt.Errorf("HTTP %d: %s", resp.StatusCode, strings.TrimSpace(string(body)))
	}

	if err := json.NewDecoder(resp.Body).Decode(out); err != nil {
		return fmt.Errorf("failed to decode response: %w", err)
	}
	return nil
}
