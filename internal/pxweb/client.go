package pxweb

import (
	"context"
	"fmt"
	"net/http"
	"net/url"
	"strings"
	"time"

	json "github.com/goccy/go-json"

	"github.com/five82/pxbrowse/internal/dataset"
)

// Fetcher retrieves the datasets served at a source URL.
// It is implemented by *Client and can be replaced in tests.
type Fetcher interface {
	FetchDocuments(ctx context.Context, sourceURL string) ([]dataset.Dataset, error)
}

// Ensure Client implements Fetcher at compile time.
var _ Fetcher = (*Client)(nil)

// Response is the body served by a data source.
type Response struct {
	PxDocs []dataset.Dataset `json:"pxdocs"`
}

// Client fetches px documents over HTTP.
type Client struct {
	http      *http.Client
	userAgent string
}

const (
	defaultUserAgent      = "pxbrowse/0.1"
	defaultRequestTimeout = 10 * time.Second
)

// NewClient builds a Client. A non-positive timeout uses the default.
func NewClient(timeout time.Duration) *Client {
	if timeout <= 0 {
		timeout = defaultRequestTimeout
	}
	return &Client{
		http:      &http.Client{Timeout: timeout},
		userAgent: defaultUserAgent,
	}
}

// FetchDocuments issues a GET to sourceURL and decodes its pxdocs list.
func (c *Client) FetchDocuments(ctx context.Context, sourceURL string) ([]dataset.Dataset, error) {
	if c == nil {
		return nil, fmt.Errorf("client is nil")
	}
	u, err := parseSourceURL(sourceURL)
	if err != nil {
		return nil, err
	}
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, u.String(), nil)
	if err != nil {
		return nil, fmt.Errorf("create request: %w", err)
	}
	req.Header.Set("Accept", "application/json")
	req.Header.Set("User-Agent", c.userAgent)

	resp, err := c.http.Do(req)
	if err != nil {
		return nil, fmt.Errorf("execute request: %w", err)
	}
	defer func() { _ = resp.Body.Close() }()

	if resp.StatusCode >= 400 {
		return nil, fmt.Errorf("source %s returned status %d", u.Redacted(), resp.StatusCode)
	}

	var payload struct {
		PxDocs *[]dataset.Dataset `json:"pxdocs"`
	}
	if err := json.NewDecoder(resp.Body).Decode(&payload); err != nil {
		return nil, fmt.Errorf("decode response: %w", err)
	}
	if payload.PxDocs == nil {
		return nil, fmt.Errorf("decode response: missing pxdocs")
	}
	docs := *payload.PxDocs
	for i, doc := range docs {
		if err := doc.Validate(); err != nil {
			return nil, fmt.Errorf("decode response: pxdocs[%d]: %w", i, err)
		}
	}
	return docs, nil
}

func parseSourceURL(raw string) (*url.URL, error) {
	trimmed := strings.TrimSpace(raw)
	if trimmed == "" {
		return nil, fmt.Errorf("source url is empty")
	}
	if !strings.Contains(trimmed, "://") {
		trimmed = "http://" + trimmed
	}
	u, err := url.Parse(trimmed)
	if err != nil {
		return nil, fmt.Errorf("parse source url %q: %w", raw, err)
	}
	if u.Scheme != "http" && u.Scheme != "https" {
		return nil, fmt.Errorf("source url %q: unsupported scheme %q", raw, u.Scheme)
	}
	u.Fragment = ""
	return u, nil
}
