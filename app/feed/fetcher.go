package feed

import (
	"context"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"net/url"
	"strings"
	"time"
)

const defaultTimeout = 30 * time.Second

// Fetcher retrieves and parses feeds over HTTP. It does not retry; retries
// are the scheduler's business.
type Fetcher struct {
	httpClient *http.Client
	parser     *Parser
	userAgent  string
	timeout    time.Duration
}

func NewFetcher(httpClient *http.Client, parser *Parser, userAgent string, timeout time.Duration) *Fetcher {
	if httpClient == nil {
		httpClient = http.DefaultClient
	}
	if parser == nil {
		parser = NewParser()
	}
	if timeout <= 0 {
		timeout = defaultTimeout
	}
	return &Fetcher{
		httpClient: httpClient,
		parser:     parser,
		userAgent:  userAgent,
		timeout:    timeout,
	}
}

// ValidateURL accepts absolute http and https URLs only.
func ValidateURL(rawURL string) (*url.URL, error) {
	trimmed := strings.TrimSpace(rawURL)
	if trimmed == "" {
		return nil, fmt.Errorf("%w: URL is empty", ErrInvalidURL)
	}

	u, err := url.Parse(trimmed)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrInvalidURL, err)
	}
	if u.Scheme != "http" && u.Scheme != "https" {
		return nil, fmt.Errorf("%w: unsupported scheme %q", ErrInvalidURL, u.Scheme)
	}
	if u.Host == "" {
		return nil, fmt.Errorf("%w: missing host", ErrInvalidURL)
	}

	return u, nil
}

// Fetch downloads and parses the feed at rawURL. A malformed URL fails with
// ErrInvalidURL before any request is made; an empty body, an unparseable
// document or a feed with neither title nor items fails with ErrEmptyFeed.
func (f *Fetcher) Fetch(ctx context.Context, rawURL string) (*Document, error) {
	u, err := ValidateURL(rawURL)
	if err != nil {
		return nil, err
	}

	data, err := f.get(ctx, u.String(), "application/rss+xml, application/atom+xml, application/xml, text/xml")
	if err != nil {
		return nil, fmt.Errorf("failed to fetch feed: %w", err)
	}

	if len(strings.TrimSpace(string(data))) == 0 {
		return nil, fmt.Errorf("%w: response body is empty", ErrEmptyFeed)
	}

	doc, err := f.parser.Run(data)
	if err != nil {
		return nil, fmt.Errorf("%w: %w", ErrEmptyFeed, err)
	}

	if doc.Title == "" && len(doc.Items) == 0 {
		return nil, fmt.Errorf("%w: feed has no title and no items", ErrEmptyFeed)
	}

	slog.Debug("Feed fetched", "url", u.String(), "items", len(doc.Items))

	return doc, nil
}

// FetchPage downloads an HTML page, for content extraction.
func (f *Fetcher) FetchPage(ctx context.Context, rawURL string) ([]byte, error) {
	u, err := ValidateURL(rawURL)
	if err != nil {
		return nil, err
	}

	data, err := f.get(ctx, u.String(), "text/html")
	if err != nil {
		return nil, err
	}

	return data, nil
}

func (f *Fetcher) get(ctx context.Context, rawURL, accept string) ([]byte, error) {
	timeoutCtx, cancel := context.WithTimeout(ctx, f.timeout)
	defer cancel()

	req, err := http.NewRequestWithContext(timeoutCtx, http.MethodGet, rawURL, nil)
	if err != nil {
		return nil, fmt.Errorf("failed to create request: %w", err)
	}

	if f.userAgent != "" {
		req.Header.Set("User-Agent", f.userAgent)
	}
	req.Header.Set("Accept", accept)

	resp, err := f.httpClient.Do(req)
	if err != nil {
		return nil, fmt.Errorf("failed to fetch URL: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return nil, fmt.Errorf("HTTP error: %d %s", resp.StatusCode, resp.Status)
	}

	if accept == "text/html" {
		contentType := resp.Header.Get("Content-Type")
		if !strings.Contains(strings.ToLower(contentType), "text/html") {
			return nil, fmt.Errorf("content type is not HTML: %s", contentType)
		}
	}

	data, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, fmt.Errorf("failed to read response body: %w", err)
	}

	return data, nil
}
