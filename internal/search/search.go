// Package search queries a web search service and formats results for
// inclusion in a completion prompt.
package search

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strings"
	"time"

	readability "github.com/go-shiori/go-readability"

	"jarvis/internal/logging"
)

// Result is one search hit
type Result struct {
	Title       string
	Description string
	URL         string
}

// Searcher runs a web search
type Searcher interface {
	Search(ctx context.Context, query string) ([]Result, error)
}

// Config configures a Client
type Config struct {
	Endpoint   string // SearXNG-compatible search URL, e.g. http://localhost:8888/search
	MaxResults int
	FetchPages bool // fill empty descriptions from the page itself
	Timeout    time.Duration
}

const excerptLength = 300

// Client queries a SearXNG-compatible JSON API
type Client struct {
	cfg    Config
	http   *http.Client
	logger *logging.Logger
}

// NewClient creates a search client
func NewClient(cfg Config, logger *logging.Logger) *Client {
	if cfg.MaxResults <= 0 {
		cfg.MaxResults = 5
	}
	if cfg.Timeout <= 0 {
		cfg.Timeout = 10 * time.Second
	}
	return &Client{
		cfg:    cfg,
		http:   &http.Client{Timeout: cfg.Timeout},
		logger: logger,
	}
}

// Search returns at most MaxResults hits for query
func (c *Client) Search(ctx context.Context, query string) ([]Result, error) {
	logger := c.logger.WithContext("operation", "search")
	start := time.Now()

	u, err := url.Parse(c.cfg.Endpoint)
	if err != nil {
		return nil, fmt.Errorf("search: invalid endpoint: %w", err)
	}
	q := u.Query()
	q.Set("q", query)
	q.Set("format", "json")
	u.RawQuery = q.Encode()

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, u.String(), nil)
	if err != nil {
		return nil, fmt.Errorf("search: failed to create request: %w", err)
	}
	req.Header.Set("Accept", "application/json")

	resp, err := c.http.Do(req)
	if err != nil {
		logger.WithContext("latency_ms", time.Since(start).Milliseconds()).Error("search request failed: %v", err)
		return nil, fmt.Errorf("search: request failed: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		body, _ := io.ReadAll(io.LimitReader(resp.Body, 1024))
		logger.WithContext("status", resp.StatusCode).Error("search returned non-OK status")
		return nil, fmt.Errorf("search: returned status %d: %s", resp.StatusCode, strings.TrimSpace(string(body)))
	}

	var payload struct {
		Results []struct {
			Title   string `json:"title"`
			Content string `json:"content"`
			URL     string `json:"url"`
		} `json:"results"`
	}
	if err := json.NewDecoder(resp.Body).Decode(&payload); err != nil {
		return nil, fmt.Errorf("search: failed to decode response: %w", err)
	}

	results := make([]Result, 0, c.cfg.MaxResults)
	for _, r := range payload.Results {
		if len(results) == c.cfg.MaxResults {
			break
		}
		res := Result{Title: strings.TrimSpace(r.Title), Description: strings.TrimSpace(r.Content), URL: r.URL}
		if res.Description == "" && c.cfg.FetchPages && res.URL != "" {
			res.Description = c.excerpt(ctx, res.URL)
		}
		results = append(results, res)
	}

	logger.WithFields(map[string]interface{}{
		"results":    len(results),
		"latency_ms": time.Since(start).Milliseconds(),
	}).Debug("search completed")
	return results, nil
}

// excerpt fetches a page and returns the start of its readable text, or ""
func (c *Client) excerpt(ctx context.Context, pageURL string) string {
	parsed, err := url.Parse(pageURL)
	if err != nil {
		return ""
	}
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, pageURL, nil)
	if err != nil {
		return ""
	}
	resp, err := c.http.Do(req)
	if err != nil {
		c.logger.WithContext("url", pageURL).Debug("page fetch failed: %v", err)
		return ""
	}
	defer resp.Body.Close()
	if resp.StatusCode != http.StatusOK {
		return ""
	}

	article, err := readability.FromReader(io.LimitReader(resp.Body, 2<<20), parsed)
	if err != nil {
		c.logger.WithContext("url", pageURL).Debug("page parse failed: %v", err)
		return ""
	}
	return truncate(strings.Join(strings.Fields(article.TextContent), " "), excerptLength)
}

func truncate(s string, n int) string {
	r := []rune(s)
	if len(r) <= n {
		return s
	}
	return string(r[:n]) + "..."
}

// FormatResults renders hits as the bracketed block the answering prompt expects
func FormatResults(query string, results []Result) string {
	var sb strings.Builder
	fmt.Fprintf(&sb, "The search results for '%s' are:\n[start]\n", query)
	for _, r := range results {
		fmt.Fprintf(&sb, "Title: %s\nDescription: %s\n\n", r.Title, r.Description)
	}
	sb.WriteString("[end]")
	return sb.String()
}

// FormatFailure renders a failed search in the same bracketed form
func FormatFailure(err error) string {
	return fmt.Sprintf("[start]\n⚠️ Failed to perform web search: %v\n[end]", err)
}
