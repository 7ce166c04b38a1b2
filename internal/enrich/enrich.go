// Package enrich derives contact emails and phone numbers for a company
// from its website content.
//
// The enricher fetches a small fixed set of candidate pages, extracts
// emails and phones from their visible text, and falls back to a
// synthesized info@<domain> address when nothing is found. Malformed or
// unreachable pages contribute nothing; the other pages still count.
package enrich

import (
	"context"
	"fmt"
	"log/slog"
	"net/url"
	"strings"

	"github.com/BTreeMap/LeadPipe/internal/fetch"
	"github.com/BTreeMap/LeadPipe/internal/models"
	"golang.org/x/net/html"
)

// CandidatePaths are probed in order after the site root.
var CandidatePaths = []string{"/contact", "/contact-us", "/about", "/team"}

// WebsiteEnricher aggregates contact data across a company's pages.
type WebsiteEnricher struct {
	client *fetch.Client
}

// NewWebsiteEnricher creates an enricher using the given polite client.
func NewWebsiteEnricher(client *fetch.Client) *WebsiteEnricher {
	return &WebsiteEnricher{client: client}
}

// NormalizeWebsite lowercases a website URL, prefixes https:// if no scheme
// is present, and strips trailing slashes. Returns "" for empty input.
func NormalizeWebsite(website string) string {
	website = strings.TrimSpace(website)
	if website == "" {
		return ""
	}
	if !strings.HasPrefix(website, "http") {
		website = "https://" + website
	}
	return strings.ToLower(strings.TrimRight(website, "/"))
}

// CandidatePages returns the base URL followed by the candidate paths
// joined onto it.
func CandidatePages(baseURL string) []string {
	pages := []string{baseURL}
	for _, p := range CandidatePaths {
		pages = append(pages, baseURL+p)
	}
	return pages
}

// Enrich fetches the candidate pages of website and aggregates the unique
// emails, phones and first page title found. If no email is found and a
// synthesized info@<domain> address is syntactically valid, that address
// is used as a fallback.
func (e *WebsiteEnricher) Enrich(ctx context.Context, website string) (models.EnrichmentInfo, error) {
	base := NormalizeWebsite(website)
	if base == "" {
		return models.EnrichmentInfo{}, fmt.Errorf("empty website")
	}

	emails := make(map[string]bool)
	phones := make(map[string]bool)
	var title string

	for _, page := range CandidatePages(base) {
		body, err := e.client.Get(ctx, page)
		if err != nil {
			if ctx.Err() != nil {
				return models.EnrichmentInfo{}, ctx.Err()
			}
			slog.Debug("WebsiteEnricher.Enrich: page skipped", "page", page, "error", err)
			continue
		}
		doc, err := html.Parse(strings.NewReader(string(body)))
		if err != nil {
			slog.Debug("WebsiteEnricher.Enrich: unparseable page skipped", "page", page, "error", err)
			continue
		}
		text := VisibleText(doc)
		for _, em := range ExtractEmails(text) {
			emails[em] = true
		}
		for _, ph := range ExtractPhones(text) {
			phones[ph] = true
		}
		if title == "" {
			title = Title(doc)
		}
	}

	if len(emails) == 0 {
		if domain := hostOf(base); domain != "" {
			generic := "info@" + domain
			if IsEmailValid(generic) {
				slog.Debug("WebsiteEnricher.Enrich: falling back to generic address", "email", generic)
				emails[generic] = true
			}
		}
	}

	info := models.EnrichmentInfo{
		Emails: sortedKeys(emails),
		Phones: sortedKeys(phones),
		Title:  title,
	}
	slog.Info("WebsiteEnricher.Enrich: done", "website", base, "emails", len(info.Emails), "phones", len(info.Phones))
	return info, nil
}

func hostOf(rawURL string) string {
	u, err := url.Parse(rawURL)
	if err != nil {
		return ""
	}
	return strings.TrimPrefix(u.Host, "www.")
}
