// Package outreach implements the outreach scheduling and delivery engine
// for LeadPipe.
//
// The Scheduler turns a lead into three queued email rows; the Engine
// flushes due rows through a mail transport. Both are stateless actors
// over the store: they hold no entity state across calls.
package outreach

import (
	"errors"
	"fmt"
	"log/slog"
	"time"

	"github.com/BTreeMap/LeadPipe/internal/models"
	"github.com/BTreeMap/LeadPipe/internal/sequence"
	"github.com/BTreeMap/LeadPipe/internal/store"
)

// ErrSequenceExists is returned when a sequence is requested for a lead
// that already has email queue rows. A lead has at most one sequence.
var ErrSequenceExists = errors.New("lead already has an outreach sequence")

// Scheduler writes outreach sequences into the store.
type Scheduler struct {
	store store.Store
}

// NewScheduler creates a scheduler over the given store.
func NewScheduler(s store.Store) *Scheduler {
	return &Scheduler{store: s}
}

// CreateSequence plans the three-step sequence starting at start, renders
// subject and body for each step, and writes one queued email row per step.
// It refuses with ErrSequenceExists if the lead already has queue rows.
func (sch *Scheduler) CreateSequence(leadID int64, contactName, companyName string, start time.Time) error {
	exists, err := sch.store.LeadHasSequence(leadID)
	if err != nil {
		return fmt.Errorf("sequence existence check failed: %w", err)
	}
	if exists {
		return ErrSequenceExists
	}

	dates := sequence.ScheduleDates(start)
	for step := 1; step <= sequence.Steps; step++ {
		q := models.QueuedEmail{
			LeadID:      leadID,
			Step:        step,
			Subject:     sequence.RenderSubject(step, companyName),
			Body:        sequence.RenderBody(step, contactName, companyName, start),
			Status:      models.EmailStatusScheduled,
			ScheduledAt: dates[step],
		}
		if _, err := sch.store.ScheduleEmail(q); err != nil {
			return fmt.Errorf("schedule step %d for lead %d failed: %w", step, leadID, err)
		}
	}
	sequencesCreated.Inc()
	slog.Info("Scheduler.CreateSequence: sequence scheduled", "leadID", leadID, "company", companyName, "start", start)
	return nil
}

// ScheduleBacklog creates sequences for up to limit leads that have no
// queue rows yet, starting each at start. It continues past per-lead
// failures and returns the number of sequences created.
func (sch *Scheduler) ScheduleBacklog(limit int, start time.Time) (int, error) {
	leads, err := sch.store.LeadsWithoutSequence(limit)
	if err != nil {
		return 0, fmt.Errorf("backlog query failed: %w", err)
	}

	created := 0
	for _, lead := range leads {
		err := sch.CreateSequence(lead.LeadID, lead.ContactName, lead.CompanyName, start)
		if err != nil {
			// ErrSequenceExists can only mean another writer scheduled the
			// lead between the backlog query and now; both cases are
			// per-lead, not fatal to the batch.
			slog.Warn("Scheduler.ScheduleBacklog: lead skipped", "leadID", lead.LeadID, "error", err)
			continue
		}
		created++
	}
	slog.Info("Scheduler.ScheduleBacklog: done", "created", created, "candidates", len(leads))
	return created, nil
}
