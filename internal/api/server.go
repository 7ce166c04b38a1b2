// Package api provides the read-only dashboard API for LeadPipe.
//
// It exposes the leads overview, the email queue, and the companies and
// contacts tables as JSON, plus Prometheus metrics and a health endpoint.
// All endpoints are read-only; writes happen only through the CLI commands.
package api

import (
	"context"
	"log/slog"
	"net/http"
	"strconv"
	"time"

	"github.com/BTreeMap/LeadPipe/internal/models"
	"github.com/BTreeMap/LeadPipe/internal/store"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

// Default limits for the dashboard queries.
const (
	DefaultLeadsLimit     = 1000
	DefaultQueueLimit     = 100
	DefaultCompaniesLimit = 200
	DefaultContactsLimit  = 200
	// MaxLimit caps caller-supplied limits.
	MaxLimit = 5000
)

// Server serves the dashboard API over a store.
type Server struct {
	store store.Store
	http  *http.Server
}

// NewServer creates a dashboard server listening on addr.
func NewServer(addr string, s store.Store) *Server {
	srv := &Server{store: s}

	mux := http.NewServeMux()
	mux.HandleFunc("/leads", srv.leadsHandler)
	mux.HandleFunc("/queue", srv.queueHandler)
	mux.HandleFunc("/companies", srv.companiesHandler)
	mux.HandleFunc("/contacts", srv.contactsHandler)
	mux.HandleFunc("/health", srv.healthHandler)
	mux.Handle("/metrics", promhttp.Handler())

	srv.http = &http.Server{
		Addr:              addr,
		Handler:           mux,
		ReadHeaderTimeout: 10 * time.Second,
	}
	return srv
}

// Start begins serving. It blocks until the listener fails or Shutdown is
// called.
func (s *Server) Start() error {
	slog.Info("Server.Start: dashboard API listening", "addr", s.http.Addr)
	err := s.http.ListenAndServe()
	if err == http.ErrServerClosed {
		return nil
	}
	return err
}

// Shutdown gracefully stops the server.
func (s *Server) Shutdown(ctx context.Context) error {
	return s.http.Shutdown(ctx)
}

func (s *Server) leadsHandler(w http.ResponseWriter, r *http.Request) {
	if !requireGet(w, r) {
		return
	}
	leads, err := s.store.ListLeadOverviews(limitParam(r, DefaultLeadsLimit))
	if err != nil {
		slog.Error("Server.leadsHandler: query failed", "error", err)
		writeJSONResponse(w, http.StatusInternalServerError, models.Error("failed to list leads"))
		return
	}
	writeJSONResponse(w, http.StatusOK, models.Success(leads))
}

func (s *Server) queueHandler(w http.ResponseWriter, r *http.Request) {
	if !requireGet(w, r) {
		return
	}
	queue, err := s.store.ListQueue(limitParam(r, DefaultQueueLimit))
	if err != nil {
		slog.Error("Server.queueHandler: query failed", "error", err)
		writeJSONResponse(w, http.StatusInternalServerError, models.Error("failed to list email queue"))
		return
	}
	writeJSONResponse(w, http.StatusOK, models.Success(queue))
}

func (s *Server) companiesHandler(w http.ResponseWriter, r *http.Request) {
	if !requireGet(w, r) {
		return
	}
	companies, err := s.store.ListCompanies(limitParam(r, DefaultCompaniesLimit))
	if err != nil {
		slog.Error("Server.companiesHandler: query failed", "error", err)
		writeJSONResponse(w, http.StatusInternalServerError, models.Error("failed to list companies"))
		return
	}
	writeJSONResponse(w, http.StatusOK, models.Success(companies))
}

func (s *Server) contactsHandler(w http.ResponseWriter, r *http.Request) {
	if !requireGet(w, r) {
		return
	}
	contacts, err := s.store.ListContacts(limitParam(r, DefaultContactsLimit))
	if err != nil {
		slog.Error("Server.contactsHandler: query failed", "error", err)
		writeJSONResponse(w, http.StatusInternalServerError, models.Error("failed to list contacts"))
		return
	}
	writeJSONResponse(w, http.StatusOK, models.Success(contacts))
}

func (s *Server) healthHandler(w http.ResponseWriter, r *http.Request) {
	if !requireGet(w, r) {
		return
	}
	writeJSONResponse(w, http.StatusOK, models.Success(map[string]string{"status": "healthy"}))
}

// requireGet enforces the read-only contract of every endpoint.
func requireGet(w http.ResponseWriter, r *http.Request) bool {
	if r.Method != http.MethodGet {
		w.Header().Set("Allow", http.MethodGet)
		slog.Warn("Server: method not allowed", "method", r.Method, "path", r.URL.Path)
		w.WriteHeader(http.StatusMethodNotAllowed)
		return false
	}
	return true
}

// limitParam reads the optional "limit" query parameter, clamped to MaxLimit.
func limitParam(r *http.Request, fallback int) int {
	v := r.URL.Query().Get("limit")
	if v == "" {
		return fallback
	}
	n, err := strconv.Atoi(v)
	if err != nil || n <= 0 {
		return fallback
	}
	if n > MaxLimit {
		return MaxLimit
	}
	return n
}
