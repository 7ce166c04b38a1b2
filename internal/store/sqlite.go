// Package store provides storage backends for LeadPipe.
//
// This file implements the SQLite-backed store.
package store

import (
	"database/sql"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"strings"
	"time"

	_ "embed"

	"github.com/BTreeMap/LeadPipe/internal/models"
	_ "github.com/mattn/go-sqlite3"
)

// Constants for SQLite store configuration
const (
	// DefaultDirPermissions defines the default permissions for database directories
	DefaultDirPermissions = 0755
)

//go:embed migrations_sqlite.sql
var sqliteMigrations string

type SQLiteStore struct {
	db *sql.DB
}

// Compile-time check that SQLiteStore implements Store.
var _ Store = (*SQLiteStore)(nil)

// NewSQLiteStore creates a new SQLite store with the given DSN.
// The DSN should be a file path to the SQLite database file.
// If the directory doesn't exist, it will be created.
func NewSQLiteStore(opts ...Option) (*SQLiteStore, error) {
	// Apply options
	var cfg Opts
	for _, opt := range opts {
		opt(&cfg)
	}
	slog.Debug("NewSQLiteStore invoked", "DSN_set", cfg.DSN != "")

	// Determine DSN (required)
	dsn := cfg.DSN
	if dsn == "" {
		slog.Error("SQLiteStore DSN not set")
		return nil, fmt.Errorf("database DSN not set")
	}

	// Ensure the directory exists
	dir := filepath.Dir(dsn)
	if err := os.MkdirAll(dir, DefaultDirPermissions); err != nil {
		slog.Error("Failed to create database directory", "error", err, "dir", dir)
		return nil, fmt.Errorf("failed to create database directory: %w", err)
	}

	// Cascade and set-null rules on contacts/leads/email_queue depend on
	// foreign key enforcement, which SQLite leaves off by default.
	if !strings.Contains(dsn, "?") {
		dsn += "?_foreign_keys=on"
	}

	slog.Debug("Opening SQLite database connection")
	db, err := sql.Open("sqlite3", dsn)
	if err != nil {
		slog.Error("Failed to open SQLite connection", "error", err)
		return nil, err
	}

	if err := db.Ping(); err != nil {
		slog.Error("SQLite ping failed", "error", err)
		return nil, err
	}

	// Run migrations to ensure tables exist
	if _, err := db.Exec(sqliteMigrations); err != nil {
		slog.Error("Failed to run migrations", "error", err)
		return nil, fmt.Errorf("failed to run migrations: %w", err)
	}
	slog.Debug("SQLite migrations applied successfully")

	return &SQLiteStore{db: db}, nil
}

// Close closes the SQLite database connection.
func (s *SQLiteStore) Close() error {
	slog.Debug("Closing SQLite database connection")
	return s.db.Close()
}

func (s *SQLiteStore) UpsertCompany(c models.Company) (int64, error) {
	if err := c.Validate(); err != nil {
		return 0, err
	}
	website := NormalizeWebsite(c.Website)

	var existingID int64
	err := s.db.QueryRow(`SELECT id FROM companies WHERE website = ?`, website).Scan(&existingID)
	if err == nil {
		slog.Debug("SQLiteStore.UpsertCompany: duplicate website, returning existing", "website", website, "id", existingID)
		return existingID, nil
	}
	if err != sql.ErrNoRows {
		return 0, fmt.Errorf("company lookup failed: %w", err)
	}

	res, err := s.db.Exec(
		`INSERT INTO companies (name, website, city, state, country, source, created_at) VALUES (?, ?, ?, ?, ?, ?, ?)`,
		c.Name, website, nilIfEmpty(c.City), nilIfEmpty(c.State), nilIfEmpty(c.Country), nilIfEmpty(c.Source), time.Now(),
	)
	if err != nil {
		// Two writers can race past the lookup; the unique index on website
		// is the real safety net. Re-check before surfacing the error.
		var raceID int64
		if lookupErr := s.db.QueryRow(`SELECT id FROM companies WHERE website = ?`, website).Scan(&raceID); lookupErr == nil {
			slog.Debug("SQLiteStore.UpsertCompany: lost insert race, returning existing", "website", website, "id", raceID)
			return raceID, nil
		}
		return 0, fmt.Errorf("insert company failed: %w", err)
	}
	id, err := res.LastInsertId()
	if err != nil {
		return 0, fmt.Errorf("company insert id unavailable: %w", err)
	}
	slog.Debug("SQLiteStore.UpsertCompany: inserted", "website", website, "id", id)
	return id, nil
}

func (s *SQLiteStore) AddContact(c models.Contact) (int64, error) {
	if err := c.Validate(); err != nil {
		return 0, err
	}
	if c.Email != "" {
		var existingID int64
		err := s.db.QueryRow(
			`SELECT id FROM contacts WHERE company_id = ? AND email = ?`, c.CompanyID, c.Email,
		).Scan(&existingID)
		if err == nil {
			slog.Debug("SQLiteStore.AddContact: duplicate email for company, returning existing", "companyID", c.CompanyID, "email", c.Email, "id", existingID)
			return existingID, nil
		}
		if err != sql.ErrNoRows {
			return 0, fmt.Errorf("contact lookup failed: %w", err)
		}
	}

	res, err := s.db.Exec(
		`INSERT INTO contacts (company_id, full_name, role, email, phone) VALUES (?, ?, ?, ?, ?)`,
		c.CompanyID, c.FullName, nilIfEmpty(c.Role), nilIfEmpty(c.Email), nilIfEmpty(c.Phone),
	)
	if err != nil {
		return 0, fmt.Errorf("insert contact failed: %w", err)
	}
	id, err := res.LastInsertId()
	if err != nil {
		return 0, fmt.Errorf("contact insert id unavailable: %w", err)
	}
	slog.Debug("SQLiteStore.AddContact: inserted", "companyID", c.CompanyID, "id", id)
	return id, nil
}

func (s *SQLiteStore) AddLead(l models.Lead) (int64, error) {
	if l.Status == "" {
		l.Status = models.LeadStatusNew
	}
	if err := l.Validate(); err != nil {
		return 0, err
	}
	res, err := s.db.Exec(
		`INSERT INTO leads (company_id, contact_id, status, created_at) VALUES (?, ?, ?, ?)`,
		l.CompanyID, l.ContactID, string(l.Status), time.Now(),
	)
	if err != nil {
		return 0, fmt.Errorf("insert lead failed: %w", err)
	}
	id, err := res.LastInsertId()
	if err != nil {
		return 0, fmt.Errorf("lead insert id unavailable: %w", err)
	}
	slog.Debug("SQLiteStore.AddLead: inserted", "companyID", l.CompanyID, "id", id, "status", l.Status)
	return id, nil
}

func (s *SQLiteStore) ScheduleEmail(q models.QueuedEmail) (int64, error) {
	if q.Status == "" {
		q.Status = models.EmailStatusScheduled
	}
	if err := q.Validate(); err != nil {
		return 0, err
	}
	res, err := s.db.Exec(
		`INSERT INTO email_queue (lead_id, step, subject, body, status, scheduled_at) VALUES (?, ?, ?, ?, ?, ?)`,
		q.LeadID, q.Step, q.Subject, q.Body, string(q.Status), q.ScheduledAt,
	)
	if err != nil {
		return 0, fmt.Errorf("insert queued email failed: %w", err)
	}
	id, err := res.LastInsertId()
	if err != nil {
		return 0, fmt.Errorf("queued email insert id unavailable: %w", err)
	}
	slog.Debug("SQLiteStore.ScheduleEmail: inserted", "leadID", q.LeadID, "step", q.Step, "scheduledAt", q.ScheduledAt)
	return id, nil
}

func (s *SQLiteStore) GetCompany(id int64) (*models.Company, error) {
	row := s.db.QueryRow(
		`SELECT id, name, website, city, state, country, source, created_at FROM companies WHERE id = ?`, id,
	)
	c, err := scanCompanyRow(row)
	if err == sql.ErrNoRows {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("get company failed: %w", err)
	}
	return c, nil
}

func (s *SQLiteStore) ListCompanies(limit int) ([]models.Company, error) {
	rows, err := s.db.Query(
		`SELECT id, name, website, city, state, country, source, created_at FROM companies ORDER BY id DESC LIMIT ?`, limit,
	)
	if err != nil {
		return nil, fmt.Errorf("list companies failed: %w", err)
	}
	defer rows.Close()
	return collectCompanies(rows)
}

func (s *SQLiteStore) GetContact(id int64) (*models.Contact, error) {
	row := s.db.QueryRow(
		`SELECT id, company_id, full_name, role, email, phone FROM contacts WHERE id = ?`, id,
	)
	c, err := scanContactRow(row)
	if err == sql.ErrNoRows {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("get contact failed: %w", err)
	}
	return c, nil
}

func (s *SQLiteStore) ListContacts(limit int) ([]models.Contact, error) {
	rows, err := s.db.Query(
		`SELECT id, company_id, full_name, role, email, phone FROM contacts ORDER BY id DESC LIMIT ?`, limit,
	)
	if err != nil {
		return nil, fmt.Errorf("list contacts failed: %w", err)
	}
	defer rows.Close()
	return collectContacts(rows)
}

func (s *SQLiteStore) GetLead(id int64) (*models.Lead, error) {
	row := s.db.QueryRow(
		`SELECT id, company_id, contact_id, status, created_at FROM leads WHERE id = ?`, id,
	)
	l, err := scanLeadRow(row)
	if err == sql.ErrNoRows {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("get lead failed: %w", err)
	}
	return l, nil
}

func (s *SQLiteStore) ListLeadOverviews(limit int) ([]models.LeadOverview, error) {
	rows, err := s.db.Query(`
		SELECT leads.id, companies.name, contacts.full_name, contacts.email, leads.status, leads.created_at
		FROM leads
		LEFT JOIN companies ON leads.company_id = companies.id
		LEFT JOIN contacts ON leads.contact_id = contacts.id
		ORDER BY leads.id DESC LIMIT ?`, limit,
	)
	if err != nil {
		return nil, fmt.Errorf("list lead overviews failed: %w", err)
	}
	defer rows.Close()
	return collectLeadOverviews(rows)
}

func (s *SQLiteStore) LeadsWithoutSequence(limit int) ([]models.LeadOverview, error) {
	rows, err := s.db.Query(`
		SELECT leads.id, companies.name, contacts.full_name, contacts.email, leads.status, leads.created_at
		FROM leads
		LEFT JOIN companies ON leads.company_id = companies.id
		LEFT JOIN contacts ON leads.contact_id = contacts.id
		WHERE leads.id NOT IN (SELECT DISTINCT lead_id FROM email_queue)
		ORDER BY leads.id DESC LIMIT ?`, limit,
	)
	if err != nil {
		return nil, fmt.Errorf("leads without sequence query failed: %w", err)
	}
	defer rows.Close()
	return collectLeadOverviews(rows)
}

func (s *SQLiteStore) LeadHasSequence(leadID int64) (bool, error) {
	var n int
	err := s.db.QueryRow(`SELECT COUNT(1) FROM email_queue WHERE lead_id = ?`, leadID).Scan(&n)
	if err != nil {
		return false, fmt.Errorf("lead sequence check failed: %w", err)
	}
	return n > 0, nil
}

func (s *SQLiteStore) DueEmails(now time.Time, limit int) ([]models.QueuedEmail, error) {
	rows, err := s.db.Query(
		`SELECT id, lead_id, step, subject, body, status, scheduled_at, last_attempt_at
		 FROM email_queue WHERE status = 'scheduled' AND scheduled_at <= ?
		 ORDER BY scheduled_at ASC LIMIT ?`,
		now, limit,
	)
	if err != nil {
		return nil, fmt.Errorf("due emails query failed: %w", err)
	}
	defer rows.Close()
	return collectQueuedEmails(rows)
}

func (s *SQLiteStore) MarkEmailResult(id int64, status models.EmailStatus, attemptAt time.Time) error {
	if !models.IsValidEmailStatus(status) {
		return models.ErrInvalidEmailStatus
	}
	_, err := s.db.Exec(
		`UPDATE email_queue SET status = ?, last_attempt_at = ? WHERE id = ?`,
		string(status), attemptAt, id,
	)
	if err != nil {
		return fmt.Errorf("mark email result failed: %w", err)
	}
	slog.Debug("SQLiteStore.MarkEmailResult", "id", id, "status", status)
	return nil
}

func (s *SQLiteStore) ListQueue(limit int) ([]models.QueuedEmail, error) {
	rows, err := s.db.Query(
		`SELECT id, lead_id, step, subject, body, status, scheduled_at, last_attempt_at
		 FROM email_queue ORDER BY scheduled_at ASC LIMIT ?`, limit,
	)
	if err != nil {
		return nil, fmt.Errorf("list queue failed: %w", err)
	}
	defer rows.Close()
	return collectQueuedEmails(rows)
}
