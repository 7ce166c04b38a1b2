package enrich

import (
	"net/mail"
	"regexp"
	"sort"
	"strings"

	"golang.org/x/net/html"
)

var (
	emailPattern = regexp.MustCompile(`[A-Za-z0-9._%+-]+@[A-Za-z0-9.-]+\.[A-Za-z]{2,}`)
	phonePattern = regexp.MustCompile(`\+?\d[\d\s().-]{7,}\d`)
)

// freeMailDomains is the stoplist of consumer email providers; addresses on
// these domains never identify a company contact.
var freeMailDomains = map[string]bool{
	"gmail.com":   true,
	"yahoo.com":   true,
	"outlook.com": true,
	"hotmail.com": true,
}

// ExtractEmails returns the unique email addresses found in text, excluding
// free consumer domains, sorted for determinism.
func ExtractEmails(text string) []string {
	seen := make(map[string]bool)
	for _, e := range emailPattern.FindAllString(text, -1) {
		lower := strings.ToLower(e)
		at := strings.LastIndex(lower, "@")
		if at < 0 || freeMailDomains[lower[at+1:]] {
			continue
		}
		seen[e] = true
	}
	return sortedKeys(seen)
}

// ExtractPhones returns the unique phone numbers found in text, sorted for
// determinism.
func ExtractPhones(text string) []string {
	seen := make(map[string]bool)
	for _, p := range phonePattern.FindAllString(text, -1) {
		seen[p] = true
	}
	return sortedKeys(seen)
}

// IsEmailValid reports whether the address is syntactically valid. No
// deliverability check is performed.
func IsEmailValid(email string) bool {
	if !emailPattern.MatchString(email) {
		return false
	}
	addr, err := mail.ParseAddress(email)
	return err == nil && addr.Address == email
}

// VisibleText extracts the visible text of an HTML document, space-joined,
// skipping script and style content.
func VisibleText(doc *html.Node) string {
	var parts []string
	var walk func(*html.Node)
	walk = func(n *html.Node) {
		if n.Type == html.ElementNode && (n.Data == "script" || n.Data == "style") {
			return
		}
		if n.Type == html.TextNode {
			if t := strings.TrimSpace(n.Data); t != "" {
				parts = append(parts, t)
			}
		}
		for c := n.FirstChild; c != nil; c = c.NextSibling {
			walk(c)
		}
	}
	walk(doc)
	return strings.Join(parts, " ")
}

// Title returns the document's <title> text, trimmed, or "".
func Title(doc *html.Node) string {
	var title string
	var walk func(*html.Node)
	walk = func(n *html.Node) {
		if title != "" {
			return
		}
		if n.Type == html.ElementNode && n.Data == "title" {
			if n.FirstChild != nil && n.FirstChild.Type == html.TextNode {
				title = strings.TrimSpace(n.FirstChild.Data)
			}
			return
		}
		for c := n.FirstChild; c != nil; c = c.NextSibling {
			walk(c)
		}
	}
	walk(doc)
	return title
}

func sortedKeys(m map[string]bool) []string {
	keys := make([]string, 0, len(m))
	for k := range m {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	return keys
}
