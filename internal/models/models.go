// Package models defines the core data structures for LeadPipe.
//
// It includes the lead-lifecycle entities (companies, contacts, leads, queued
// emails) and their status enums, which are shared across modules.
package models

import (
	"errors"
	"time"
)

// LeadStatus represents the pipeline position of a lead.
type LeadStatus string

const (
	// LeadStatusNew indicates a lead that has been created but not enriched.
	LeadStatusNew LeadStatus = "new"
	// LeadStatusEnriched indicates a lead whose company has contact data attached.
	LeadStatusEnriched LeadStatus = "enriched"
	// LeadStatusActive indicates a lead currently being worked.
	LeadStatusActive LeadStatus = "active"
	// LeadStatusWon indicates a converted lead.
	LeadStatusWon LeadStatus = "won"
	// LeadStatusLost indicates a closed-lost lead.
	LeadStatusLost LeadStatus = "lost"
)

// IsValidLeadStatus checks if the given lead status is supported.
func IsValidLeadStatus(s LeadStatus) bool {
	switch s {
	case LeadStatusNew, LeadStatusEnriched, LeadStatusActive, LeadStatusWon, LeadStatusLost:
		return true
	default:
		return false
	}
}

// EmailStatus represents the delivery state of a queued email.
type EmailStatus string

const (
	// EmailStatusScheduled indicates the email is waiting for its send instant.
	EmailStatusScheduled EmailStatus = "scheduled"
	// EmailStatusSent indicates the transport accepted the email.
	EmailStatusSent EmailStatus = "sent"
	// EmailStatusFailed indicates the transport rejected the email.
	EmailStatusFailed EmailStatus = "failed"
	// EmailStatusSkipped is reserved for manual operator overrides. The
	// delivery engine never assigns it.
	EmailStatusSkipped EmailStatus = "skipped"
)

// IsValidEmailStatus checks if the given email status is supported.
func IsValidEmailStatus(s EmailStatus) bool {
	switch s {
	case EmailStatusScheduled, EmailStatusSent, EmailStatusFailed, EmailStatusSkipped:
		return true
	default:
		return false
	}
}

// Error variables for better error handling and testability
var (
	ErrEmptyWebsite       = errors.New("company website cannot be empty")
	ErrEmptyContactName   = errors.New("contact full name cannot be empty")
	ErrInvalidLeadStatus  = errors.New("invalid lead status")
	ErrInvalidEmailStatus = errors.New("invalid email status")
	ErrInvalidStep        = errors.New("sequence step must be between 1 and 3")
)

// Company is a discovered business, identified by its normalized website.
type Company struct {
	ID        int64     `json:"id"`
	Name      string    `json:"name"`
	Website   string    `json:"website"`
	City      string    `json:"city,omitempty"`
	State     string    `json:"state,omitempty"`
	Country   string    `json:"country,omitempty"`
	Source    string    `json:"source,omitempty"` // discovery source tag, e.g. "duckduckgo" or "seeds"
	CreatedAt time.Time `json:"created_at"`
}

// Validate performs basic validation on a Company before insertion.
func (c *Company) Validate() error {
	if c.Website == "" {
		return ErrEmptyWebsite
	}
	return nil
}

// Contact belongs to exactly one company. Email and phone are nullable.
type Contact struct {
	ID        int64  `json:"id"`
	CompanyID int64  `json:"company_id"`
	FullName  string `json:"full_name"`
	Role      string `json:"role,omitempty"`
	Email     string `json:"email,omitempty"`
	Phone     string `json:"phone,omitempty"`
}

// Validate performs basic validation on a Contact before insertion.
func (c *Contact) Validate() error {
	if c.FullName == "" {
		return ErrEmptyContactName
	}
	return nil
}

// Lead references one company and optionally one contact. It is the unit
// the outreach sequence is scheduled against.
type Lead struct {
	ID        int64      `json:"id"`
	CompanyID int64      `json:"company_id"`
	ContactID *int64     `json:"contact_id,omitempty"`
	Status    LeadStatus `json:"status"`
	CreatedAt time.Time  `json:"created_at"`
}

// Validate performs basic validation on a Lead before insertion.
func (l *Lead) Validate() error {
	if !IsValidLeadStatus(l.Status) {
		return ErrInvalidLeadStatus
	}
	return nil
}

// QueuedEmail is one step of a lead's outreach sequence.
//
// Lifecycle: created in status "scheduled"; transitioned to "sent" or
// "failed" exactly once by the delivery engine when its scheduled instant
// has passed. Failed rows are never re-queued automatically.
type QueuedEmail struct {
	ID            int64       `json:"id"`
	LeadID        int64       `json:"lead_id"`
	Step          int         `json:"step"` // 1..3
	Subject       string      `json:"subject"`
	Body          string      `json:"body"`
	Status        EmailStatus `json:"status"`
	ScheduledAt   time.Time   `json:"scheduled_at"`
	LastAttemptAt *time.Time  `json:"last_attempt_at,omitempty"` // nil until first attempt
}

// Validate performs basic validation on a QueuedEmail before insertion.
func (q *QueuedEmail) Validate() error {
	if q.Step < 1 || q.Step > 3 {
		return ErrInvalidStep
	}
	if !IsValidEmailStatus(q.Status) {
		return ErrInvalidEmailStatus
	}
	return nil
}

// LeadOverview is the joined read model used by the sequence command and
// the dashboard: a lead together with its company and contact projection.
type LeadOverview struct {
	LeadID      int64      `json:"lead_id"`
	CompanyName string     `json:"company,omitempty"`
	ContactName string     `json:"contact,omitempty"`
	Email       string     `json:"email,omitempty"`
	Status      LeadStatus `json:"status"`
	CreatedAt   time.Time  `json:"created_at"`
}

// SearchResult is one deduplicated web search hit from the discovery layer.
type SearchResult struct {
	Title       string `json:"title"`
	URL         string `json:"url"`
	Snippet     string `json:"snippet,omitempty"`
	SourceQuery string `json:"source_query,omitempty"`
}

// EnrichmentInfo aggregates contact data extracted from a company website.
type EnrichmentInfo struct {
	Emails []string `json:"emails"`
	Phones []string `json:"phones"`
	Title  string   `json:"title,omitempty"`
}

// APIStatus represents the status of an API response.
type APIStatus string

const (
	// APIStatusOK indicates an API request completed successfully.
	APIStatusOK APIStatus = "ok"
	// APIStatusError indicates an API request failed with an error.
	APIStatusError APIStatus = "error"
)

// APIResponse represents a standard API response with a status and optional data.
type APIResponse struct {
	Status  string      `json:"status"`
	Message string      `json:"message,omitempty"`
	Result  interface{} `json:"result,omitempty"`
}

// Success creates a successful API response with optional result data.
func Success(result interface{}) APIResponse {
	return APIResponse{Status: string(APIStatusOK), Result: result}
}

// Error creates an error API response with a message.
func Error(message string) APIResponse {
	return APIResponse{Status: string(APIStatusError), Message: message}
}
