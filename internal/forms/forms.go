// Package forms holds what the three lead forms share: the collaborators
// they are built from and the per-submission bookkeeping.
package forms

import (
	"context"
	"strings"
	"time"

	"lead-intake/internal/common/errors"
	"lead-intake/internal/common/metrics"
	"lead-intake/internal/models"
	"lead-intake/internal/notify"

	"github.com/google/uuid"
)

// ContactUpserter creates or updates a CRM contact keyed by email.
// Configured reports whether the API credential is present.
type ContactUpserter interface {
	UpsertContact(ctx context.Context, record *models.ContactRecord) (string, error)
	Configured() bool
}

// Notifier sends best-effort notifications. Implementations never return
// an error; the Outcome is for logging and tests.
type Notifier interface {
	Email(ctx context.Context, req notify.Request) notify.Outcome
	SMS(ctx context.Context, submissionID string, form models.FormType, message string) notify.Outcome
}

// Outcome labels for lead_form_submissions_total.
const (
	OutcomeSuccess           = "success"
	OutcomeAlreadySubscribed = "already_subscribed"
)

// NewSubmissionID returns the id that ties together the logs, metrics and
// failure records of one submission.
func NewSubmissionID() string {
	return uuid.NewString()
}

// OutcomeLabel turns a handler error into a metrics label.
func OutcomeLabel(err error) string {
	if err == nil {
		return OutcomeSuccess
	}
	return strings.ToLower(string(errors.Normalize(err).Code))
}

// Observe records one finished submission.
func Observe(form models.FormType, outcome string, start time.Time) {
	metrics.FormSubmissions.WithLabelValues(string(form), outcome).Inc()
	metrics.FormSubmissionDuration.WithLabelValues(string(form)).Observe(time.Since(start).Seconds())
}

// SubmittedAt formats t the way the CRM's date attributes expect it:
// UTC, millisecond precision.
func SubmittedAt(t time.Time) string {
	return t.UTC().Format("2006-01-02T15:04:05.000Z07:00")
}

// FullName joins first and last name for an address display name.
func FullName(first, last string) string {
	return strings.TrimSpace(first + " " + last)
}
