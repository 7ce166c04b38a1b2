package outreach

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"github.com/BTreeMap/LeadPipe/internal/email"
	"github.com/BTreeMap/LeadPipe/internal/models"
	"github.com/BTreeMap/LeadPipe/internal/store"
)

// DefaultBatchSize caps the number of due emails processed per SendDue
// invocation. It is the only throttle on the delivery path.
const DefaultBatchSize = 100

// Engine selects due queued emails, resolves each to a destination address
// through the lead→contact relation, and attempts delivery.
type Engine struct {
	store     store.Store
	transport email.Transport
	batchSize int

	// Now returns the current instant. Overridable for tests that simulate
	// a clock; defaults to time.Now.
	Now func() time.Time
}

// NewEngine creates a delivery engine over the given store and transport.
func NewEngine(s store.Store, t email.Transport) *Engine {
	return &Engine{
		store:     s,
		transport: t,
		batchSize: DefaultBatchSize,
		Now:       time.Now,
	}
}

// SendDue processes queued emails whose scheduled instant has passed.
//
// Each due row is resolved lead→contact→email; unresolvable rows are
// skipped without a status transition and stay scheduled (a metric and a
// warning are emitted so stuck rows are visible). Resolvable rows get
// exactly one transport attempt: success moves the row to "sent", any
// transport failure moves it to "failed", and the attempt instant is
// recorded either way. Under dryRun the transport is never contacted and
// every attempt counts as successful.
//
// Returns the number of rows whose attempt succeeded, not the number
// processed. Re-running with no new due rows sends nothing twice: the
// status gate excludes already-transitioned rows.
func (e *Engine) SendDue(ctx context.Context, dryRun bool) (int, error) {
	now := e.Now()
	due, err := e.store.DueEmails(now, e.batchSize)
	if err != nil {
		return 0, fmt.Errorf("due email selection failed: %w", err)
	}
	slog.Debug("Engine.SendDue: batch selected", "due", len(due), "dryRun", dryRun)

	sent := 0
	for _, q := range due {
		to, ok := e.resolveRecipient(q)
		if !ok {
			continue
		}

		var sendErr error
		if !dryRun {
			sendErr = e.transport.Send(ctx, to, q.Subject, q.Body)
		}

		status := models.EmailStatusSent
		if sendErr != nil {
			status = models.EmailStatusFailed
			emailsFailed.Inc()
			slog.Error("Engine.SendDue: delivery failed", "id", q.ID, "leadID", q.LeadID, "step", q.Step, "error", sendErr)
		} else {
			sent++
			emailsSent.Inc()
			slog.Info("Engine.SendDue: delivered", "id", q.ID, "leadID", q.LeadID, "step", q.Step, "dryRun", dryRun)
		}

		if err := e.store.MarkEmailResult(q.ID, status, e.Now()); err != nil {
			// The attempt already happened; surfacing the store error would
			// not undo it. Log and move on to the rest of the batch.
			slog.Error("Engine.SendDue: status update failed", "id", q.ID, "status", status, "error", err)
		}
	}
	return sent, nil
}

// resolveRecipient walks the lead→contact relation for a queued email and
// returns the destination address. Missing links are skipped silently with
// respect to the row's status: it stays "scheduled".
func (e *Engine) resolveRecipient(q models.QueuedEmail) (string, bool) {
	lead, err := e.store.GetLead(q.LeadID)
	if err != nil {
		slog.Error("Engine.resolveRecipient: lead lookup failed", "id", q.ID, "leadID", q.LeadID, "error", err)
		return "", false
	}
	if lead == nil {
		e.skip(q, "missing_lead")
		return "", false
	}
	if lead.ContactID == nil {
		e.skip(q, "no_contact")
		return "", false
	}
	contact, err := e.store.GetContact(*lead.ContactID)
	if err != nil {
		slog.Error("Engine.resolveRecipient: contact lookup failed", "id", q.ID, "contactID", *lead.ContactID, "error", err)
		return "", false
	}
	if contact == nil {
		e.skip(q, "missing_contact")
		return "", false
	}
	if contact.Email == "" {
		e.skip(q, "no_email")
		return "", false
	}
	return contact.Email, true
}

func (e *Engine) skip(q models.QueuedEmail, reason string) {
	emailsSkipped.WithLabelValues(reason).Inc()
	slog.Warn("Engine.SendDue: unresolvable delivery target, row stays scheduled",
		"id", q.ID, "leadID", q.LeadID, "step", q.Step, "reason", reason)
}
