// Package modrinth provides a typed client for the Modrinth v2 API.
//
// The client covers the three endpoints the resolver needs (project lookup,
// filtered version list, version detail) plus streaming file downloads. All
// outbound requests pass through a shared [httputil.Limiter] so the whole
// process respects the registry's rate ceiling. Transient failures (network
// errors, 5xx) are retried with exponential backoff; 404 is surfaced as
// [ErrNotFound] for the caller to translate into its domain error.
package modrinth

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"time"

	"github.com/peter2500zz/mod-auto-download/pkg/httputil"
)

const (
	// DefaultBaseURL is the production Modrinth API root.
	DefaultBaseURL = "https://api.modrinth.com/v2"

	httpTimeout = 30 * time.Second
)

var (
	// ErrNotFound is returned when a project, version or file doesn't exist.
	ErrNotFound = errors.New("resource not found")

	// ErrNetwork is returned for HTTP failures (timeouts, connection errors,
	// non-404 error statuses).
	ErrNetwork = errors.New("network error")
)

// Client talks to the Modrinth API. All methods are safe for concurrent use.
type Client struct {
	http    *http.Client
	limiter *httputil.Limiter
	baseURL string
	agent   string
}

// Option customizes a Client.
type Option func(*Client)

// WithBaseURL points the client at a different API root (used by tests).
func WithBaseURL(u string) Option {
	return func(c *Client) { c.baseURL = u }
}

// WithHTTPClient replaces the underlying HTTP client.
func WithHTTPClient(h *http.Client) Option {
	return func(c *Client) { c.http = h }
}

// NewClient creates a Client gated by the given limiter.
// A nil limiter disables rate limiting.
func NewClient(limiter *httputil.Limiter, opts ...Option) *Client {
	if limiter == nil {
		limiter = httputil.NewLimiter(0)
	}
	c := &Client{
		http:    &http.Client{Timeout: httpTimeout},
		limiter: limiter,
		baseURL: DefaultBaseURL,
		agent:   "mod-auto-download (github.com/peter2500zz/mod-auto-download)",
	}
	for _, opt := range opts {
		opt(c)
	}
	return c
}

// Project fetches project metadata by slug or project id.
func (c *Client) Project(ctx context.Context, idOrSlug string) (*Project, error) {
	var p Project
	err := c.get(ctx, fmt.Sprintf("%s/project/%s", c.baseURL, url.PathEscape(idOrSlug)), &p)
	if err != nil {
		return nil, err
	}
	return &p, nil
}

// ProjectVersions fetches the project's version list filtered by loader,
// game version and the featured flag. The registry returns versions
// newest-first; callers rely on that ordering to pick the most recent match.
func (c *Client) ProjectVersions(ctx context.Context, id, gameVersion, loader string) ([]Version, error) {
	q := url.Values{}
	q.Set("loaders", jsonList(loader))
	q.Set("game_versions", jsonList(gameVersion))
	// Some mods only ever publish development releases, so featured stays on.
	q.Set("featured", "true")

	var versions []Version
	u := fmt.Sprintf("%s/project/%s/version?%s", c.baseURL, url.PathEscape(id), q.Encode())
	if err := c.get(ctx, u, &versions); err != nil {
		return nil, err
	}
	return versions, nil
}

// Version fetches the full detail of a single version by id.
func (c *Client) Version(ctx context.Context, id string) (*Version, error) {
	var v Version
	err := c.get(ctx, fmt.Sprintf("%s/version/%s", c.baseURL, url.PathEscape(id)), &v)
	if err != nil {
		return nil, err
	}
	return &v, nil
}

// OpenFile starts a streaming download of fileURL. The request passes
// through the rate limiter like every other call; the caller owns the
// returned body and must close it.
func (c *Client) OpenFile(ctx context.Context, fileURL string) (io.ReadCloser, error) {
	return c.doRequest(ctx, fileURL)
}

func (c *Client) get(ctx context.Context, url string, v any) error {
	return httputil.RetryWithBackoff(ctx, func() error {
		body, err := c.doRequest(ctx, url)
		if err != nil {
			return err
		}
		defer body.Close()
		if err := json.NewDecoder(body).Decode(v); err != nil {
			return fmt.Errorf("decode %s: %w", url, err)
		}
		return nil
	})
}

func (c *Client) doRequest(ctx context.Context, url string) (io.ReadCloser, error) {
	if err := c.limiter.Wait(ctx); err != nil {
		return nil, err
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, url, nil)
	if err != nil {
		return nil, err
	}
	req.Header.Set("User-Agent", c.agent)

	resp, err := c.http.Do(req)
	if err != nil {
		return nil, &httputil.RetryableError{Err: fmt.Errorf("%w: %v", ErrNetwork, err)}
	}

	if err := checkStatus(resp.StatusCode); err != nil {
		resp.Body.Close()
		return nil, err
	}
	return resp.Body, nil
}

func checkStatus(code int) error {
	switch {
	case code >= 200 && code < 300:
		return nil
	case code == http.StatusNotFound:
		return ErrNotFound
	case code >= 500:
		return &httputil.RetryableError{Err: fmt.Errorf("%w: status %d", ErrNetwork, code)}
	default:
		return fmt.Errorf("%w: status %d", ErrNetwork, code)
	}
}

// jsonList renders a single value as the JSON array the API expects for
// its list-valued query parameters.
func jsonList(v string) string {
	b, _ := json.Marshal([]string{v})
	return string(b)
}
