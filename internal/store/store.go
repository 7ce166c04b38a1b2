// Package store provides storage backends for LeadPipe.
//
// It owns the four entity tables (companies, contacts, leads, email_queue)
// and all uniqueness and cascade rules. SQLite and PostgreSQL backends are
// provided; both implement the Store interface.
package store

import (
	"strings"
	"time"

	"github.com/BTreeMap/LeadPipe/internal/models"
)

// Store defines the persistence contract shared by the SQLite and Postgres
// backends. Scheduler and delivery engine are stateless actors that read and
// write through this interface only.
type Store interface {
	// UpsertCompany normalizes the company website (trimmed, trailing slash
	// stripped) and inserts the company if no row with that website exists.
	// If one does, the existing id is returned unchanged; duplicates are
	// first-class, never an error.
	UpsertCompany(c models.Company) (int64, error)

	// AddContact inserts a contact. If the contact has a non-empty email and
	// a contact with the same (company, email) pair exists, the existing id
	// is returned instead.
	AddContact(c models.Contact) (int64, error)

	// AddLead inserts a lead unconditionally. Callers that want a single
	// lead per company must check beforehand; the sequence layer dedups
	// downstream via LeadHasSequence.
	AddLead(l models.Lead) (int64, error)

	// ScheduleEmail inserts one queued email row in status "scheduled".
	ScheduleEmail(q models.QueuedEmail) (int64, error)

	// GetCompany returns the company with the given id, or nil if absent.
	GetCompany(id int64) (*models.Company, error)

	// ListCompanies returns up to limit companies, newest first.
	ListCompanies(limit int) ([]models.Company, error)

	// GetContact returns the contact with the given id, or nil if absent.
	GetContact(id int64) (*models.Contact, error)

	// ListContacts returns up to limit contacts, newest first.
	ListContacts(limit int) ([]models.Contact, error)

	// GetLead returns the lead with the given id, or nil if absent.
	GetLead(id int64) (*models.Lead, error)

	// ListLeadOverviews returns up to limit leads joined with their company
	// and contact projections, newest first.
	ListLeadOverviews(limit int) ([]models.LeadOverview, error)

	// LeadsWithoutSequence returns up to limit leads that have no rows in
	// the email queue, newest first. Used to pre-filter bulk scheduling.
	LeadsWithoutSequence(limit int) ([]models.LeadOverview, error)

	// LeadHasSequence reports whether any email queue rows exist for the lead.
	LeadHasSequence(leadID int64) (bool, error)

	// DueEmails returns up to limit queued emails whose status is
	// "scheduled" and whose scheduled instant is at or before now, ordered
	// by scheduled instant ascending.
	DueEmails(now time.Time, limit int) ([]models.QueuedEmail, error)

	// MarkEmailResult sets the terminal status of a queued email and records
	// the attempt instant.
	MarkEmailResult(id int64, status models.EmailStatus, attemptAt time.Time) error

	// ListQueue returns up to limit queued emails ordered by scheduled
	// instant ascending.
	ListQueue(limit int) ([]models.QueuedEmail, error)

	// Close closes the underlying database connection.
	Close() error
}

// Opts holds configuration for store construction.
type Opts struct {
	// DSN is the database connection string: a file path for SQLite, a
	// connection URL for Postgres.
	DSN string
}

// Option configures store options.
type Option func(*Opts)

// WithDSN sets the database connection string.
func WithDSN(dsn string) Option {
	return func(o *Opts) {
		o.DSN = dsn
	}
}

// NormalizeWebsite trims whitespace and strips any trailing slashes from a
// website URL. Normalized websites are the companies table's unique key.
func NormalizeWebsite(website string) string {
	return strings.TrimRight(strings.TrimSpace(website), "/")
}
