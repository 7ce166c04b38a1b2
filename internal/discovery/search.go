// Package discovery finds candidate companies through web search.
//
// A Provider executes one query against a search engine; the Searcher fans
// out over the fixed query list, tolerates rate limiting with bounded
// retries, and deduplicates results by URL.
package discovery

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net/url"
	"strings"
	"time"

	"github.com/BTreeMap/LeadPipe/internal/fetch"
	"github.com/BTreeMap/LeadPipe/internal/models"
	"golang.org/x/net/html"
)

// DefaultQueries is the fixed fan-out for the MICE US direct segment.
var DefaultQueries = []string{
	`site:.com "event agency" "United States"`,
	`site:.com "event planning" "corporate events"`,
	`site:.com "destination management company" "USA"`,
	`site:.com "incentive travel" "agency"`,
	`site:.com "conference organizer" "United States"`,
	`site:.com "exhibition organizer" "United States"`,
}

// ErrRateLimited indicates the search engine is throttling us; the caller
// backs off and retries.
var ErrRateLimited = errors.New("search provider rate limited")

// Provider executes a single search query. Ordinary "no more results" is an
// empty slice, never an error.
type Provider interface {
	Search(ctx context.Context, query string, max int) ([]models.SearchResult, error)
}

// Searcher fans a query list out over a provider with retry and dedup.
type Searcher struct {
	provider Provider
	queries  []string

	// MaxAttempts bounds retries per query on rate limiting.
	MaxAttempts int
	// Backoff is the base delay between retries; attempt n waits n*Backoff.
	Backoff time.Duration
}

// NewSearcher creates a searcher over the given provider and query list.
func NewSearcher(p Provider, queries []string) *Searcher {
	if len(queries) == 0 {
		queries = DefaultQueries
	}
	return &Searcher{
		provider:    p,
		queries:     queries,
		MaxAttempts: 3,
		Backoff:     8 * time.Second,
	}
}

// Search runs every query, retrying rate-limited ones with increasing
// delay, and returns up to limit results deduplicated by URL in discovery
// order. Per-query failures other than rate limiting drop that query's
// contribution; the remaining queries still run.
func (s *Searcher) Search(ctx context.Context, limit int) ([]models.SearchResult, error) {
	perQuery := limit / len(s.queries)
	if perQuery < 2 {
		perQuery = 2
	}

	var all []models.SearchResult
	for _, q := range s.queries {
		results, err := s.searchWithRetry(ctx, q, perQuery)
		if err != nil {
			if ctx.Err() != nil {
				return nil, ctx.Err()
			}
			slog.Warn("Searcher.Search: query abandoned", "query", q, "error", err)
			continue
		}
		for i := range results {
			results[i].SourceQuery = q
		}
		all = append(all, results...)
	}

	seen := make(map[string]bool, len(all))
	deduped := make([]models.SearchResult, 0, len(all))
	for _, r := range all {
		if r.URL == "" || seen[r.URL] {
			continue
		}
		seen[r.URL] = true
		deduped = append(deduped, r)
		if len(deduped) == limit {
			break
		}
	}
	slog.Info("Searcher.Search: done", "raw", len(all), "deduped", len(deduped))
	return deduped, nil
}

func (s *Searcher) searchWithRetry(ctx context.Context, query string, max int) ([]models.SearchResult, error) {
	var lastErr error
	for attempt := 1; attempt <= s.MaxAttempts; attempt++ {
		results, err := s.provider.Search(ctx, query, max)
		if err == nil {
			return results, nil
		}
		lastErr = err
		if !errors.Is(err, ErrRateLimited) {
			return nil, err
		}
		delay := time.Duration(attempt) * s.Backoff
		slog.Warn("Searcher.searchWithRetry: rate limited, backing off", "query", query, "attempt", attempt, "delay", delay)
		select {
		case <-ctx.Done():
			return nil, ctx.Err()
		case <-time.After(delay):
		}
	}
	return nil, fmt.Errorf("query %q rate limited after %d attempts: %w", query, s.MaxAttempts, lastErr)
}

// DuckDuckGoBaseURL is the HTML (non-JS) search endpoint.
const DuckDuckGoBaseURL = "https://html.duckduckgo.com/html/"

// DuckDuckGoProvider scrapes the DuckDuckGo HTML results page.
type DuckDuckGoProvider struct {
	client  *fetch.Client
	baseURL string
}

// Compile-time check that DuckDuckGoProvider implements Provider.
var _ Provider = (*DuckDuckGoProvider)(nil)

// NewDuckDuckGoProvider creates a provider using the given polite client.
func NewDuckDuckGoProvider(client *fetch.Client) *DuckDuckGoProvider {
	return &DuckDuckGoProvider{client: client, baseURL: DuckDuckGoBaseURL}
}

// NewDuckDuckGoProviderWithBaseURL is like NewDuckDuckGoProvider with a
// custom endpoint, used by tests.
func NewDuckDuckGoProviderWithBaseURL(client *fetch.Client, baseURL string) *DuckDuckGoProvider {
	return &DuckDuckGoProvider{client: client, baseURL: baseURL}
}

// Search fetches one results page and extracts up to max results.
func (p *DuckDuckGoProvider) Search(ctx context.Context, query string, max int) ([]models.SearchResult, error) {
	u := fmt.Sprintf("%s?q=%s&kl=wt-wt", p.baseURL, url.QueryEscape(query))
	body, err := p.client.Get(ctx, u)
	if err != nil {
		// DuckDuckGo answers throttled clients with 202/403/429 pages;
		// fetch surfaces those as status errors.
		if isRateLimitStatus(err) {
			return nil, ErrRateLimited
		}
		return nil, err
	}

	results, err := parseResults(body)
	if err != nil {
		return nil, fmt.Errorf("parse results for %q failed: %w", query, err)
	}
	if len(results) > max {
		results = results[:max]
	}
	return results, nil
}

func isRateLimitStatus(err error) bool {
	msg := err.Error()
	for _, code := range []string{"status 202", "status 403", "status 429"} {
		if strings.Contains(msg, code) {
			return true
		}
	}
	return false
}

// parseResults extracts result anchors from a DuckDuckGo HTML page:
// titles/links from a.result__a, snippets from .result__snippet.
func parseResults(body []byte) ([]models.SearchResult, error) {
	doc, err := html.Parse(strings.NewReader(string(body)))
	if err != nil {
		return nil, err
	}

	var results []models.SearchResult
	var walk func(*html.Node)
	walk = func(n *html.Node) {
		if n.Type == html.ElementNode {
			switch {
			case n.Data == "a" && hasClass(n, "result__a"):
				if href := attr(n, "href"); href != "" {
					results = append(results, models.SearchResult{
						Title: strings.TrimSpace(nodeText(n)),
						URL:   resolveRedirect(href),
					})
				}
			case hasClass(n, "result__snippet"):
				if len(results) > 0 && results[len(results)-1].Snippet == "" {
					results[len(results)-1].Snippet = strings.TrimSpace(nodeText(n))
				}
			}
		}
		for c := n.FirstChild; c != nil; c = c.NextSibling {
			walk(c)
		}
	}
	walk(doc)
	return results, nil
}

// resolveRedirect unwraps DuckDuckGo's /l/?uddg=<target> redirect links.
func resolveRedirect(href string) string {
	u, err := url.Parse(href)
	if err != nil {
		return href
	}
	if target := u.Query().Get("uddg"); target != "" {
		return target
	}
	if u.Scheme == "" && strings.HasPrefix(href, "//") {
		return "https:" + href
	}
	return href
}

func hasClass(n *html.Node, class string) bool {
	for _, f := range strings.Fields(attr(n, "class")) {
		if f == class {
			return true
		}
	}
	return false
}

func attr(n *html.Node, key string) string {
	for _, a := range n.Attr {
		if a.Key == key {
			return a.Val
		}
	}
	return ""
}

func nodeText(n *html.Node) string {
	var sb strings.Builder
	var walk func(*html.Node)
	walk = func(n *html.Node) {
		if n.Type == html.TextNode {
			sb.WriteString(n.Data)
		}
		for c := n.FirstChild; c != nil; c = c.NextSibling {
			walk(c)
		}
	}
	walk(n)
	return sb.String()
}
