package outreach

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

var (
	sequencesCreated = promauto.NewCounter(prometheus.CounterOpts{
		Name: "leadpipe_sequences_created_total",
		Help: "Total number of outreach sequences scheduled.",
	})

	emailsSent = promauto.NewCounter(prometheus.CounterOpts{
		Name: "leadpipe_emails_sent_total",
		Help: "Total number of queued emails delivered successfully.",
	})

	emailsFailed = promauto.NewCounter(prometheus.CounterOpts{
		Name: "leadpipe_emails_failed_total",
		Help: "Total number of queued emails that failed delivery.",
	})

	// Skipped rows stay scheduled forever unless their lead/contact link is
	// fixed; this counter is the operator's visibility into stuck rows.
	emailsSkipped = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "leadpipe_emails_skipped_total",
		Help: "Total number of due emails skipped because the delivery target could not be resolved.",
	}, []string{"reason"})
)
