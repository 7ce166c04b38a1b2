package api

import (
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"path/filepath"
	"testing"
	"time"

	"github.com/BTreeMap/LeadPipe/internal/models"
	"github.com/BTreeMap/LeadPipe/internal/store"
)

func newTestServer(t *testing.T) (*Server, *store.SQLiteStore) {
	t.Helper()
	s, err := store.NewSQLiteStore(store.WithDSN(filepath.Join(t.TempDir(), "api_test.db")))
	if err != nil {
		t.Fatalf("failed to create store: %v", err)
	}
	t.Cleanup(func() { s.Close() })
	return NewServer("127.0.0.1:0", s), s
}

func decodeResponse(t *testing.T, rec *httptest.ResponseRecorder) models.APIResponse {
	t.Helper()
	if ct := rec.Header().Get("Content-Type"); ct != "application/json" {
		t.Errorf("unexpected content type %q", ct)
	}
	var resp models.APIResponse
	if err := json.Unmarshal(rec.Body.Bytes(), &resp); err != nil {
		t.Fatalf("failed to decode response: %v", err)
	}
	return resp
}

func TestHealthEndpoint(t *testing.T) {
	srv, _ := newTestServer(t)

	rec := httptest.NewRecorder()
	srv.healthHandler(rec, httptest.NewRequest(http.MethodGet, "/health", nil))

	if rec.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d", rec.Code)
	}
	resp := decodeResponse(t, rec)
	if resp.Status != "ok" {
		t.Errorf("expected ok status, got %q", resp.Status)
	}
}

func TestLeadsEndpoint(t *testing.T) {
	srv, s := newTestServer(t)
	companyID, _ := s.UpsertCompany(models.Company{Name: "Acme", Website: "https://acme.test"})
	contactID, _ := s.AddContact(models.Contact{CompanyID: companyID, FullName: "Jane Doe", Email: "jane@acme.test"})
	if _, err := s.AddLead(models.Lead{CompanyID: companyID, ContactID: &contactID, Status: models.LeadStatusEnriched}); err != nil {
		t.Fatalf("seed lead failed: %v", err)
	}

	rec := httptest.NewRecorder()
	srv.leadsHandler(rec, httptest.NewRequest(http.MethodGet, "/leads", nil))

	if rec.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d", rec.Code)
	}
	resp := decodeResponse(t, rec)
	leads, ok := resp.Result.([]interface{})
	if !ok || len(leads) != 1 {
		t.Fatalf("expected 1 lead in result, got %#v", resp.Result)
	}
	lead, _ := leads[0].(map[string]interface{})
	if lead["company"] != "Acme" || lead["contact"] != "Jane Doe" {
		t.Errorf("unexpected lead projection: %#v", lead)
	}
}

func TestQueueEndpoint(t *testing.T) {
	srv, s := newTestServer(t)
	companyID, _ := s.UpsertCompany(models.Company{Name: "Acme", Website: "https://acme.test"})
	leadID, _ := s.AddLead(models.Lead{CompanyID: companyID, Status: models.LeadStatusEnriched})
	_, err := s.ScheduleEmail(models.QueuedEmail{LeadID: leadID, Step: 1, Subject: "s", Body: "b", ScheduledAt: time.Now()})
	if err != nil {
		t.Fatalf("seed queue failed: %v", err)
	}

	rec := httptest.NewRecorder()
	srv.queueHandler(rec, httptest.NewRequest(http.MethodGet, "/queue", nil))

	if rec.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d", rec.Code)
	}
	resp := decodeResponse(t, rec)
	rows, ok := resp.Result.([]interface{})
	if !ok || len(rows) != 1 {
		t.Fatalf("expected 1 queue row, got %#v", resp.Result)
	}
}

func TestCompaniesEndpointLimit(t *testing.T) {
	srv, s := newTestServer(t)
	if _, err := s.UpsertCompany(models.Company{Name: "Acme", Website: "https://acme.test"}); err != nil {
		t.Fatalf("seed failed: %v", err)
	}
	if _, err := s.UpsertCompany(models.Company{Name: "Globex", Website: "https://globex.test"}); err != nil {
		t.Fatalf("seed failed: %v", err)
	}

	rec := httptest.NewRecorder()
	srv.companiesHandler(rec, httptest.NewRequest(http.MethodGet, "/companies?limit=1", nil))

	resp := decodeResponse(t, rec)
	rows, ok := resp.Result.([]interface{})
	if !ok || len(rows) != 1 {
		t.Fatalf("expected limit to cap result at 1, got %#v", resp.Result)
	}
}

func TestMethodNotAllowed(t *testing.T) {
	srv, _ := newTestServer(t)

	rec := httptest.NewRecorder()
	srv.leadsHandler(rec, httptest.NewRequest(http.MethodPost, "/leads", nil))

	if rec.Code != http.StatusMethodNotAllowed {
		t.Fatalf("expected 405, got %d", rec.Code)
	}
	if allow := rec.Header().Get("Allow"); allow != http.MethodGet {
		t.Errorf("expected Allow: GET header, got %q", allow)
	}
}

func TestLimitParam(t *testing.T) {
	cases := []struct {
		query string
		want  int
	}{
		{"", 100},
		{"limit=50", 50},
		{"limit=0", 100},
		{"limit=-3", 100},
		{"limit=abc", 100},
		{"limit=999999", MaxLimit},
	}
	for _, tc := range cases {
		r := httptest.NewRequest(http.MethodGet, "/leads?"+tc.query, nil)
		if got := limitParam(r, 100); got != tc.want {
			t.Errorf("limitParam(%q) = %d, want %d", tc.query, got, tc.want)
		}
	}
}
