package store

import (
	"database/sql"
	"fmt"

	"github.com/BTreeMap/LeadPipe/internal/models"
)

// nilIfEmpty returns nil if s is empty, otherwise returns s.
// Used for nullable database columns.
func nilIfEmpty(s string) interface{} {
	if s == "" {
		return nil
	}
	return s
}

// rowScanner abstracts sql.Row and sql.Rows for the scan helpers.
type rowScanner interface {
	Scan(dest ...interface{}) error
}

func scanCompanyRow(r rowScanner) (*models.Company, error) {
	var c models.Company
	var name, city, state, country, source sql.NullString
	err := r.Scan(&c.ID, &name, &c.Website, &city, &state, &country, &source, &c.CreatedAt)
	if err != nil {
		return nil, err
	}
	c.Name = name.String
	c.City = city.String
	c.State = state.String
	c.Country = country.String
	c.Source = source.String
	return &c, nil
}

func collectCompanies(rows *sql.Rows) ([]models.Company, error) {
	var companies []models.Company
	for rows.Next() {
		c, err := scanCompanyRow(rows)
		if err != nil {
			return nil, fmt.Errorf("scan company failed: %w", err)
		}
		companies = append(companies, *c)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("company iteration failed: %w", err)
	}
	return companies, nil
}

func scanContactRow(r rowScanner) (*models.Contact, error) {
	var c models.Contact
	var role, email, phone sql.NullString
	err := r.Scan(&c.ID, &c.CompanyID, &c.FullName, &role, &email, &phone)
	if err != nil {
		return nil, err
	}
	c.Role = role.String
	c.Email = email.String
	c.Phone = phone.String
	return &c, nil
}

func collectContacts(rows *sql.Rows) ([]models.Contact, error) {
	var contacts []models.Contact
	for rows.Next() {
		c, err := scanContactRow(rows)
		if err != nil {
			return nil, fmt.Errorf("scan contact failed: %w", err)
		}
		contacts = append(contacts, *c)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("contact iteration failed: %w", err)
	}
	return contacts, nil
}

func scanLeadRow(r rowScanner) (*models.Lead, error) {
	var l models.Lead
	var contactID sql.NullInt64
	var status string
	err := r.Scan(&l.ID, &l.CompanyID, &contactID, &status, &l.CreatedAt)
	if err != nil {
		return nil, err
	}
	if contactID.Valid {
		l.ContactID = &contactID.Int64
	}
	l.Status = models.LeadStatus(status)
	return &l, nil
}

func collectLeadOverviews(rows *sql.Rows) ([]models.LeadOverview, error) {
	var overviews []models.LeadOverview
	for rows.Next() {
		var o models.LeadOverview
		var company, contact, email sql.NullString
		var status string
		if err := rows.Scan(&o.LeadID, &company, &contact, &email, &status, &o.CreatedAt); err != nil {
			return nil, fmt.Errorf("scan lead overview failed: %w", err)
		}
		o.CompanyName = company.String
		o.ContactName = contact.String
		o.Email = email.String
		o.Status = models.LeadStatus(status)
		overviews = append(overviews, o)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("lead overview iteration failed: %w", err)
	}
	return overviews, nil
}

func collectQueuedEmails(rows *sql.Rows) ([]models.QueuedEmail, error) {
	var emails []models.QueuedEmail
	for rows.Next() {
		var q models.QueuedEmail
		var status string
		var lastAttempt sql.NullTime
		if err := rows.Scan(&q.ID, &q.LeadID, &q.Step, &q.Subject, &q.Body, &status, &q.ScheduledAt, &lastAttempt); err != nil {
			return nil, fmt.Errorf("scan queued email failed: %w", err)
		}
		q.Status = models.EmailStatus(status)
		if lastAttempt.Valid {
			q.LastAttemptAt = &lastAttempt.Time
		}
		emails = append(emails, q)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("queued email iteration failed: %w", err)
	}
	return emails, nil
}
