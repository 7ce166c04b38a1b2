package enrich

import (
	"context"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"golang.org/x/net/html"

	"github.com/BTreeMap/LeadPipe/internal/fetch"
)

func TestExtractEmails(t *testing.T) {
	text := "Escríbenos a ventas@acme.test o a Info@Acme.test. Personal: bob@gmail.com, ana@hotmail.com."

	emails := ExtractEmails(text)

	// Free consumer domains are dropped; the rest come back sorted.
	assert.Equal(t, []string{"Info@Acme.test", "ventas@acme.test"}, emails)
}

func TestExtractEmailsDedup(t *testing.T) {
	text := "sales@acme.test sales@acme.test sales@acme.test"
	assert.Equal(t, []string{"sales@acme.test"}, ExtractEmails(text))
}

func TestExtractPhones(t *testing.T) {
	text := "Llámanos al +34 912 345 678 o al (91) 234-5678."
	phones := ExtractPhones(text)
	require.NotEmpty(t, phones)
	assert.Contains(t, phones[0], "+34")
}

func TestIsEmailValid(t *testing.T) {
	assert.True(t, IsEmailValid("info@acme.test"))
	assert.True(t, IsEmailValid("first.last+tag@sub.acme.test"))
	assert.False(t, IsEmailValid("not-an-email"))
	assert.False(t, IsEmailValid("missing@tld"))
	assert.False(t, IsEmailValid("Jane <jane@acme.test>"))
}

func TestNormalizeWebsite(t *testing.T) {
	assert.Equal(t, "https://acme.test", NormalizeWebsite("acme.test"))
	assert.Equal(t, "https://acme.test", NormalizeWebsite("  HTTPS://Acme.Test/  "))
	assert.Equal(t, "http://acme.test", NormalizeWebsite("http://acme.test/"))
	assert.Equal(t, "", NormalizeWebsite("   "))
}

func TestCandidatePages(t *testing.T) {
	pages := CandidatePages("https://acme.test")
	require.Len(t, pages, 1+len(CandidatePaths))
	assert.Equal(t, "https://acme.test", pages[0])
	assert.Equal(t, "https://acme.test/contact", pages[1])
}

func TestVisibleTextSkipsScripts(t *testing.T) {
	doc, err := html.Parse(strings.NewReader(
		`<html><head><title>Acme</title><script>var x = "hidden@acme.test";</script></head>` +
			`<body><p>contacto: sales@acme.test</p><style>.a{}</style></body></html>`))
	require.NoError(t, err)

	text := VisibleText(doc)
	assert.Contains(t, text, "sales@acme.test")
	assert.NotContains(t, text, "hidden@acme.test")
	assert.Equal(t, "Acme", Title(doc))
}

func TestEnrichAggregatesPages(t *testing.T) {
	mux := http.NewServeMux()
	mux.HandleFunc("/", func(w http.ResponseWriter, r *http.Request) {
		w.Write([]byte(`<html><head><title>Acme Events</title></head><body>Bienvenidos</body></html>`))
	})
	mux.HandleFunc("/contact", func(w http.ResponseWriter, r *http.Request) {
		w.Write([]byte(`<html><body>Escríbenos: sales@acme.test Tel: +34 912 345 678</body></html>`))
	})
	mux.HandleFunc("/about", func(w http.ResponseWriter, r *http.Request) {
		w.Write([]byte(`<html><body>hr@acme.test</body></html>`))
	})
	srv := httptest.NewServer(mux)
	defer srv.Close()

	enricher := NewWebsiteEnricher(fetch.NewClient("test-agent", 0))
	info, err := enricher.Enrich(context.Background(), srv.URL)
	require.NoError(t, err)

	assert.Equal(t, []string{"hr@acme.test", "sales@acme.test"}, info.Emails)
	require.NotEmpty(t, info.Phones)
	assert.Equal(t, "Acme Events", info.Title)
}

func TestEnrichGenericFallback(t *testing.T) {
	// .invalid never resolves, so every page fetch fails and no address is
	// found. The enricher then synthesizes info@<host>.
	enricher := NewWebsiteEnricher(fetch.NewClient("test-agent", 0))
	info, err := enricher.Enrich(context.Background(), "https://acme.invalid")
	require.NoError(t, err)
	assert.Equal(t, []string{"info@acme.invalid"}, info.Emails)
}

func TestEnrichToleratesBrokenPages(t *testing.T) {
	mux := http.NewServeMux()
	mux.HandleFunc("/", func(w http.ResponseWriter, r *http.Request) {
		http.Error(w, "boom", http.StatusInternalServerError)
	})
	mux.HandleFunc("/contact", func(w http.ResponseWriter, r *http.Request) {
		w.Write([]byte(`<html><body>sales@acme.test</body></html>`))
	})
	srv := httptest.NewServer(mux)
	defer srv.Close()

	enricher := NewWebsiteEnricher(fetch.NewClient("test-agent", 0))
	info, err := enricher.Enrich(context.Background(), srv.URL)
	require.NoError(t, err)
	assert.Equal(t, []string{"sales@acme.test"}, info.Emails)
}

func TestEnrichEmptyWebsite(t *testing.T) {
	enricher := NewWebsiteEnricher(fetch.NewClient("test-agent", 0))
	_, err := enricher.Enrich(context.Background(), "")
	assert.Error(t, err)
}
