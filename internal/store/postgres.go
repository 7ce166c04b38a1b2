// Package store provides storage backends for LeadPipe.
//
// This file implements the PostgreSQL-backed store.
package store

import (
	"database/sql"
	"fmt"
	"log/slog"
	"time"

	_ "embed"

	"github.com/BTreeMap/LeadPipe/internal/models"
	_ "github.com/lib/pq"
)

// Database connection pool configuration constants
const (
	// DefaultMaxOpenConns is the default maximum number of open connections to the database
	DefaultMaxOpenConns = 25
	// DefaultMaxIdleConns is the default maximum number of idle connections in the pool
	DefaultMaxIdleConns = 25
	// DefaultConnMaxLifetime is the default maximum amount of time a connection may be reused
	DefaultConnMaxLifetime = 5 * time.Minute
)

//go:embed migrations_postgres.sql
var postgresMigrations string

type PostgresStore struct {
	db *sql.DB
}

// Compile-time check that PostgresStore implements Store.
var _ Store = (*PostgresStore)(nil)

// NewPostgresStore creates a new Postgres store based on provided options.
func NewPostgresStore(opts ...Option) (*PostgresStore, error) {
	// Apply options
	var cfg Opts
	for _, opt := range opts {
		opt(&cfg)
	}
	slog.Debug("PostgresStore.NewPostgresStore: creating Postgres store", "DSN_set", cfg.DSN != "")

	// Determine DSN (required)
	dsn := cfg.DSN
	if dsn == "" {
		slog.Error("PostgresStore DSN not set")
		return nil, fmt.Errorf("database DSN not set")
	}

	db, err := sql.Open("postgres", dsn)
	if err != nil {
		slog.Error("Failed to open Postgres connection", "error", err)
		return nil, err
	}

	// Configure connection pool for better performance
	db.SetMaxOpenConns(DefaultMaxOpenConns)
	db.SetMaxIdleConns(DefaultMaxIdleConns)
	db.SetConnMaxLifetime(DefaultConnMaxLifetime)

	if err := db.Ping(); err != nil {
		slog.Error("Postgres ping failed", "error", err)
		return nil, err
	}

	// Run migrations to ensure tables exist
	if _, err := db.Exec(postgresMigrations); err != nil {
		slog.Error("Failed to run Postgres migrations", "error", err)
		return nil, fmt.Errorf("failed to run migrations: %w", err)
	}
	slog.Debug("Postgres migrations applied successfully")

	return &PostgresStore{db: db}, nil
}

// Close closes the Postgres database connection.
func (s *PostgresStore) Close() error {
	slog.Debug("Closing Postgres database connection")
	return s.db.Close()
}

func (s *PostgresStore) UpsertCompany(c models.Company) (int64, error) {
	if err := c.Validate(); err != nil {
		return 0, err
	}
	website := NormalizeWebsite(c.Website)

	var existingID int64
	err := s.db.QueryRow(`SELECT id FROM companies WHERE website = $1`, website).Scan(&existingID)
	if err == nil {
		slog.Debug("PostgresStore.UpsertCompany: duplicate website, returning existing", "website", website, "id", existingID)
		return existingID, nil
	}
	if err != sql.ErrNoRows {
		return 0, fmt.Errorf("company lookup failed: %w", err)
	}

	var id int64
	err = s.db.QueryRow(
		`INSERT INTO companies (name, website, city, state, country, source, created_at)
		 VALUES ($1, $2, $3, $4, $5, $6, NOW()) RETURNING id`,
		c.Name, website, nilIfEmpty(c.City), nilIfEmpty(c.State), nilIfEmpty(c.Country), nilIfEmpty(c.Source),
	).Scan(&id)
	if err != nil {
		// The unique index on website is the safety net against concurrent
		// upserts of the same company.
		var raceID int64
		if lookupErr := s.db.QueryRow(`SELECT id FROM companies WHERE website = $1`, website).Scan(&raceID); lookupErr == nil {
			slog.Debug("PostgresStore.UpsertCompany: lost insert race, returning existing", "website", website, "id", raceID)
			return raceID, nil
		}
		return 0, fmt.Errorf("insert company failed: %w", err)
	}
	slog.Debug("PostgresStore.UpsertCompany: inserted", "website", website, "id", id)
	return id, nil
}

func (s *PostgresStore) AddContact(c models.Contact) (int64, error) {
	if err := c.Validate(); err != nil {
		return 0, err
	}
	if c.Email != "" {
		var existingID int64
		err := s.db.QueryRow(
			`SELECT id FROM contacts WHERE company_id = $1 AND email = $2`, c.CompanyID, c.Email,
		).Scan(&existingID)
		if err == nil {
			slog.Debug("PostgresStore.AddContact: duplicate email for company, returning existing", "companyID", c.CompanyID, "email", c.Email, "id", existingID)
			return existingID, nil
		}
		if err != sql.ErrNoRows {
			return 0, fmt.Errorf("contact lookup failed: %w", err)
		}
	}

	var id int64
	err := s.db.QueryRow(
		`INSERT INTO contacts (company_id, full_name, role, email, phone)
		 VALUES ($1, $2, $3, $4, $5) RETURNING id`,
		c.CompanyID, c.FullName, nilIfEmpty(c.Role), nilIfEmpty(c.Email), nilIfEmpty(c.Phone),
	).Scan(&id)
	if err != nil {
		return 0, fmt.Errorf("insert contact failed: %w", err)
	}
	slog.Debug("PostgresStore.AddContact: inserted", "companyID", c.CompanyID, "id", id)
	return id, nil
}

func (s *PostgresStore) AddLead(l models.Lead) (int64, error) {
	if l.Status == "" {
		l.Status = models.LeadStatusNew
	}
	if err := l.Validate(); err != nil {
		return 0, err
	}
	var id int64
	err := s.db.QueryRow(
		`INSERT INTO leads (company_id, contact_id, status, created_at)
		 VALUES ($1, $2, $3, NOW()) RETURNING id`,
		l.CompanyID, l.ContactID, string(l.Status),
	).Scan(&id)
	if err != nil {
		return 0, fmt.Errorf("insert lead failed: %w", err)
	}
	slog.Debug("PostgresStore.AddLead: inserted", "companyID", l.CompanyID, "id", id, "status", l.Status)
	return id, nil
}

func (s *PostgresStore) ScheduleEmail(q models.QueuedEmail) (int64, error) {
	if q.Status == "" {
		q.Status = models.EmailStatusScheduled
	}
	if err := q.Validate(); err != nil {
		return 0, err
	}
	var id int64
	err := s.db.QueryRow(
		`INSERT INTO email_queue (lead_id, step, subject, body, status, scheduled_at)
		 VALUES ($1, $2, $3, $4, $5, $6) RETURNING id`,
		q.LeadID, q.Step, q.Subject, q.Body, string(q.Status), q.ScheduledAt,
	).Scan(&id)
	if err != nil {
		return 0, fmt.Errorf("insert queued email failed: %w", err)
	}
	slog.Debug("PostgresStore.ScheduleEmail: inserted", "leadID", q.LeadID, "step", q.Step, "scheduledAt", q.ScheduledAt)
	return id, nil
}

func (s *PostgresStore) GetCompany(id int64) (*models.Company, error) {
	row := s.db.QueryRow(
		`SELECT id, name, website, city, state, country, source, created_at FROM companies WHERE id = $1`, id,
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

func (s *PostgresStore) ListCompanies(limit int) ([]models.Company, error) {
	rows, err := s.db.Query(
		`SELECT id, name, website, city, state, country, source, created_at FROM companies ORDER BY id DESC LIMIT $1`, limit,
	)
	if err != nil {
		return nil, fmt.Errorf("list companies failed: %w", err)
	}
	defer rows.Close()
	return collectCompanies(rows)
}

func (s *PostgresStore) GetContact(id int64) (*models.Contact, error) {
	row := s.db.QueryRow(
		`SELECT id, company_id, full_name, role, email, phone FROM contacts WHERE id = $1`, id,
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

func (s *PostgresStore) ListContacts(limit int) ([]models.Contact, error) {
	rows, err := s.db.Query(
		`SELECT id, company_id, full_name, role, email, phone FROM contacts ORDER BY id DESC LIMIT $1`, limit,
	)
	if err != nil {
		return nil, fmt.Errorf("list contacts failed: %w", err)
	}
	defer rows.Close()
	return collectContacts(rows)
}

func (s *PostgresStore) GetLead(id int64) (*models.Lead, error) {
	row := s.db.QueryRow(
		`SELECT id, company_id, contact_id, status, created_at FROM leads WHERE id = $1`, id,
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

func (s *PostgresStore) ListLeadOverviews(limit int) ([]models.LeadOverview, error) {
	rows, err := s.db.Query(`
		SELECT leads.id, companies.name, contacts.full_name, contacts.email, leads.status, leads.created_at
		FROM leads
		LEFT JOIN companies ON leads.company_id = companies.id
		LEFT JOIN contacts ON leads.contact_id = contacts.id
		ORDER BY leads.id DESC LIMIT $1`, limit,
	)
	if err != nil {
		return nil, fmt.Errorf("list lead overviews failed: %w", err)
	}
	defer rows.Close()
	return collectLeadOverviews(rows)
}

func (s *PostgresStore) LeadsWithoutSequence(limit int) ([]models.LeadOverview, error) {
	rows, err := s.db.Query(`
		SELECT leads.id, companies.name, contacts.full_name, contacts.email, leads.status, leads.created_at
		FROM leads
		LEFT JOIN companies ON leads.company_id = companies.id
		LEFT JOIN contacts ON leads.contact_id = contacts.id
		WHERE leads.id NOT IN (SELECT DISTINCT lead_id FROM email_queue)
		ORDER BY leads.id DESC LIMIT $1`, limit,
	)
	if err != nil {
		return nil, fmt.Errorf("leads without sequence query failed: %w", err)
	}
	defer rows.Close()
	return collectLeadOverviews(rows)
}

func (s *PostgresStore) LeadHasSequence(leadID int64) (bool, error) {
	var n int
	err := s.db.QueryRow(`SELECT COUNT(1) FROM email_queue WHERE lead_id = $1`, leadID).Scan(&n)
	if err != nil {
		return false, fmt.Errorf("lead sequence check failed: %w", err)
	}
	return n > 0, nil
}

func (s *PostgresStore) DueEmails(now time.Time, limit int) ([]models.QueuedEmail, error) {
	rows, err := s.db.Query(
		`SELECT id, lead_id, step, subject, body, status, scheduled_at, last_attempt_at
		 FROM email_queue WHERE status = 'scheduled' AND scheduled_at <= $1
		 ORDER BY scheduled_at ASC LIMIT $2`,
		now, limit,
	)
	if err != nil {
		return nil, fmt.Errorf("due emails query failed: %w", err)
	}
	defer rows.Close()
	return collectQueuedEmails(rows)
}

func (s *PostgresStore) MarkEmailResult(id int64, status models.EmailStatus, attemptAt time.Time) error {
	if !models.IsValidEmailStatus(status) {
		return models.ErrInvalidEmailStatus
	}
	_, err := s.db.Exec(
		`UPDATE email_queue SET status = $1, last_attempt_at = $2 WHERE id = $3`,
		string(status), attemptAt, id,
	)
	if err != nil {
		return fmt.Errorf("mark email result failed: %w", err)
	}
	slog.Debug("PostgresStore.MarkEmailResult", "id", id, "status", status)
	return nil
}

func (s *PostgresStore) ListQueue(limit int) ([]models.QueuedEmail, error) {
	rows, err := s.db.Query(
		`SELECT id, lead_id, step, subject, body, status, scheduled_at, last_attempt_at
		 FROM email_queue ORDER BY scheduled_at ASC LIMIT $1`, limit,
	)
	if err != nil {
		return nil, fmt.Errorf("list queue failed: %w", err)
	}
	defer rows.Close()
	return collectQueuedEmails(rows)
}
