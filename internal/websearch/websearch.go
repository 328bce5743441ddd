// Package websearch answers a query with a short digest of live web
// results. It scrapes the DuckDuckGo HTML endpoint for result links,
// fetches each page, and extracts readable text, falling back to the
// search snippet when a page cannot be fetched or parsed.
package websearch

import (
	"context"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strings"
	"time"

	"github.com/PuerkitoBio/goquery"
	readability "github.com/go-shiori/go-readability"

	"saturday/internal/log"
	"saturday/internal/security"
)

const (
	defaultSearchURL = "https://html.duckduckgo.com/html/"
	userAgent        = "Mozilla/5.0 (Windows NT 10.0; Win64; x64) AppleWebKit/537.36"

	// maxBodyBytes caps how much of a result page is read before
	// extraction. Pages are truncated to a short digest anyway.
	maxBodyBytes = 2 << 20
)

// Config tunes result count, per-page digest length, and timeouts.
// Zero values fall back to the documented defaults.
type Config struct {
	MaxResults   int           // result pages per search (default 3)
	PageMaxChars int           // characters kept per page (default 1500)
	FetchTimeout time.Duration // per-request timeout (default 5s)
	SearchURL    string        // search endpoint override, used in tests

	// Guard vets every fetched URL. Defaults to the standard SSRF
	// block list; tests inject a loopback-permitting guard.
	Guard *security.URLGuard
}

// Client performs web searches over the DuckDuckGo HTML endpoint.
type Client struct {
	cfg    Config
	guard  *security.URLGuard
	client *http.Client
	logger log.Logger
}

// result is a single parsed search hit.
type result struct {
	Title   string
	URL     string
	Snippet string
}

// New creates a search client.
func New(cfg Config, logger log.Logger) *Client {
	if cfg.MaxResults <= 0 {
		cfg.MaxResults = 3
	}
	if cfg.PageMaxChars <= 0 {
		cfg.PageMaxChars = 1500
	}
	if cfg.FetchTimeout <= 0 {
		cfg.FetchTimeout = 5 * time.Second
	}
	if cfg.SearchURL == "" {
		cfg.SearchURL = defaultSearchURL
	}
	if cfg.Guard == nil {
		cfg.Guard = security.NewURLGuard()
	}
	if logger == nil {
		logger = log.NewNop()
	}

	return &Client{
		cfg:   cfg,
		guard: cfg.Guard,
		client: &http.Client{
			Timeout:       cfg.FetchTimeout,
			Transport:     cfg.Guard.Transport(),
			CheckRedirect: cfg.Guard.CheckRedirect,
		},
		logger: logger,
	}
}

// Search runs query against the search endpoint, fetches the top result
// pages, and returns one formatted block per result. Per-page fetch
// failures degrade to the search snippet; only a failure of the search
// itself is an error.
func (c *Client) Search(ctx context.Context, query string) (string, error) {
	results, err := c.search(ctx, query)
	if err != nil {
		return "", err
	}

	blocks := make([]string, 0, len(results))
	for _, r := range results {
		content, err := c.fetchPage(ctx, r.URL)
		if err != nil {
			c.logger.Debug("page fetch failed, using snippet", "url", r.URL, "error", err)
			blocks = append(blocks, fmt.Sprintf("📄 %s\n🔗 %s\n📝 Snippet: %s\n", r.Title, r.URL, r.Snippet))
			continue
		}
		blocks = append(blocks, fmt.Sprintf("📄 %s\n🔗 %s\n📝 Content:\n%s...\n", r.Title, r.URL, truncate(content, c.cfg.PageMaxChars)))
	}

	return strings.Join(blocks, "\n\n"), nil
}

// search fetches and parses the search result list.
func (c *Client) search(ctx context.Context, query string) ([]result, error) {
	endpoint := c.cfg.SearchURL + "?q=" + url.QueryEscape(query)
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, endpoint, nil)
	if err != nil {
		return nil, fmt.Errorf("building search request: %w", err)
	}
	req.Header.Set("User-Agent", userAgent)

	resp, err := c.client.Do(req)
	if err != nil {
		return nil, fmt.Errorf("search request: %w", err)
	}
	defer func() { _ = resp.Body.Close() }()

	if resp.StatusCode != http.StatusOK {
		return nil, fmt.Errorf("search returned status %d", resp.StatusCode)
	}

	doc, err := goquery.NewDocumentFromReader(io.LimitReader(resp.Body, maxBodyBytes))
	if err != nil {
		return nil, fmt.Errorf("parsing search results: %w", err)
	}

	var results []result
	doc.Find("div.result").EachWithBreak(func(_ int, sel *goquery.Selection) bool {
		link := sel.Find("a.result__a").First()
		href, ok := link.Attr("href")
		if !ok {
			return true
		}

		results = append(results, result{
			Title:   strings.TrimSpace(link.Text()),
			URL:     resolveRedirect(href),
			Snippet: strings.TrimSpace(sel.Find(".result__snippet").Text()),
		})
		return len(results) < c.cfg.MaxResults
	})

	c.logger.Debug("search complete", "query", query, "results", len(results))
	return results, nil
}

// resolveRedirect unwraps DuckDuckGo's /l/?uddg= redirect links to the
// target URL. Anything else passes through unchanged.
func resolveRedirect(href string) string {
	u, err := url.Parse(href)
	if err != nil {
		return href
	}
	if target := u.Query().Get("uddg"); target != "" {
		return target
	}
	if u.Scheme == "" {
		return "https:" + href
	}
	return href
}

// fetchPage downloads a result page and extracts its readable text.
func (c *Client) fetchPage(ctx context.Context, pageURL string) (string, error) {
	if err := c.guard.Validate(pageURL); err != nil {
		return "", fmt.Errorf("unsafe result URL: %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, pageURL, nil)
	if err != nil {
		return "", fmt.Errorf("building page request: %w", err)
	}
	req.Header.Set("User-Agent", userAgent)

	resp, err := c.client.Do(req)
	if err != nil {
		return "", fmt.Errorf("fetching page: %w", err)
	}
	defer func() { _ = resp.Body.Close() }()

	if resp.StatusCode != http.StatusOK {
		return "", fmt.Errorf("page returned status %d", resp.StatusCode)
	}

	body, err := io.ReadAll(io.LimitReader(resp.Body, maxBodyBytes))
	if err != nil {
		return "", fmt.Errorf("reading page: %w", err)
	}

	if parsed, err := url.Parse(pageURL); err == nil {
		if article, err := readability.FromReader(strings.NewReader(string(body)), parsed); err == nil {
			if text := cleanText(article.TextContent); text != "" {
				return text, nil
			}
		}
	}

	// Readability found no article body; strip chrome and take the raw text.
	text, err := plainText(strings.NewReader(string(body)))
	if err != nil {
		return "", err
	}
	if text == "" {
		return "", fmt.Errorf("no text content in page")
	}
	return text, nil
}

// plainText extracts visible text from an HTML document, dropping
// script, style, and navigation chrome.
func plainText(r io.Reader) (string, error) {
	doc, err := goquery.NewDocumentFromReader(r)
	if err != nil {
		return "", fmt.Errorf("parsing page: %w", err)
	}
	doc.Find("script, style, nav, footer, header").Remove()
	return cleanText(doc.Find("body").Text()), nil
}

// cleanText collapses blank lines and trims each remaining line.
func cleanText(s string) string {
	var lines []string
	for _, line := range strings.Split(s, "\n") {
		if line = strings.TrimSpace(line); line != "" {
			lines = append(lines, line)
		}
	}
	return strings.Join(lines, "\n")
}

// truncate limits s to max runes.
func truncate(s string, max int) string {
	runes := []rune(s)
	if len(runes) <= max {
		return s
	}
	return string(runes[:max])
}
