package notify

import (
	"context"
	"fmt"
	"strings"
	"time"

	"lead-intake/internal/common/errors"
	"lead-intake/internal/common/logger"
	"lead-intake/internal/common/metrics"
	"lead-intake/internal/models"
)

// FailureRecorder keeps undeliverable notifications for follow-up.
type FailureRecorder interface {
	Record(ctx context.Context, failure models.DeliveryFailure) error
	Backend() string
}

// Outcome is the result of one best-effort dispatch. Callers may inspect
// and log it; it never carries an error out of the request.
type Outcome struct {
	Channel   string
	Template  string
	Recipient string
	MessageID string
	Skipped   bool
	Err       error
}

// Delivered reports whether the transport accepted the message.
func (o Outcome) Delivered() bool {
	return !o.Skipped && o.Err == nil
}

func (o Outcome) result() string {
	switch {
	case o.Skipped:
		return "skipped"
	case o.Err != nil:
		return "failed"
	default:
		return "sent"
	}
}

// FireAndForget wraps a Dispatcher so that every send is isolated: a
// failure (or panic) in one dispatch is converted into an Outcome and
// cannot affect the next dispatch or the response.
type FireAndForget struct {
	dispatcher *Dispatcher
	sms        SMSSender
	failures   FailureRecorder
	logger     logger.Logger
	now        func() time.Time
}

// NewFireAndForget builds the wrapper. sms and failures may be nil.
func NewFireAndForget(d *Dispatcher, sms SMSSender, failures FailureRecorder, log logger.Logger) *FireAndForget {
	return &FireAndForget{
		dispatcher: d,
		sms:        sms,
		failures:   failures,
		logger:     log,
		now:        time.Now,
	}
}

// From returns the dispatcher's sender identity.
func (f *FireAndForget) From() models.Address {
	return f.dispatcher.From()
}

// Email sends one templated email.
func (f *FireAndForget) Email(ctx context.Context, req Request) (out Outcome) {
	out = Outcome{
		Channel:   ChannelEmail,
		Template:  req.Template,
		Recipient: joinRecipients(req.To),
	}
	defer func() {
		if r := recover(); r != nil {
			out.Err = fmt.Errorf("panic sending %s: %v", req.Template, r)
		}
		f.finish(ctx, req.SubmissionID, req.Form, out)
	}()

	if len(req.To) == 0 || req.To[0].Email == "" {
		out.Skipped = true
		return out
	}

	out.MessageID, out.Err = f.dispatcher.Send(ctx, req)
	return out
}

// SMS texts the operator when an SMS sender is configured.
func (f *FireAndForget) SMS(ctx context.Context, submissionID string, form models.FormType, message string) (out Outcome) {
	out = Outcome{Channel: ChannelSMS, Template: string(form) + "_alert"}
	if f.sms == nil {
		out.Skipped = true
		return out
	}
	out.Recipient = f.sms.Recipient()

	defer func() {
		if r := recover(); r != nil {
			out.Err = fmt.Errorf("panic sending sms: %v", r)
		}
		f.finish(ctx, submissionID, form, out)
	}()

	out.MessageID, out.Err = f.sms.Alert(ctx, message)
	return out
}

// SMSEnabled reports whether operator SMS alerts are configured.
func (f *FireAndForget) SMSEnabled() bool {
	return f.sms != nil
}

func (f *FireAndForget) finish(ctx context.Context, submissionID string, form models.FormType, out Outcome) {
	metrics.Notifications.WithLabelValues(out.Channel, out.Template, out.result()).Inc()

	fields := map[string]interface{}{
		"submissionId": submissionID,
		"form":         string(form),
		"channel":      out.Channel,
		"template":     out.Template,
	}

	switch {
	case out.Skipped:
		f.logger.Warn("notification skipped: no recipient", fields)
		return
	case out.Err == nil:
		fields["messageId"] = out.MessageID
		f.logger.Info("notification sent", fields)
		return
	}

	stdErr := errors.NewNotificationSendFailedError(out.Template, out.Err)
	fields["error"] = stdErr.Details
	f.logger.Error("notification failed", fields)

	f.recordFailure(ctx, models.DeliveryFailure{
		SubmissionID: submissionID,
		Form:         form,
		Channel:      out.Channel,
		Template:     out.Template,
		Recipient:    out.Recipient,
		Error:        out.Err.Error(),
		FailedAt:     f.now().UTC(),
	})
}

func (f *FireAndForget) recordFailure(ctx context.Context, failure models.DeliveryFailure) {
	if f.failures == nil {
		return
	}

	ctx, cancel := context.WithTimeout(context.WithoutCancel(ctx), 3*time.Second)
	defer cancel()

	backend := f.failures.Backend()
	if err := f.failures.Record(ctx, failure); err != nil {
		metrics.FailureLogWrites.WithLabelValues(backend, "error").Inc()
		f.logger.Error("failed to record delivery failure", map[string]interface{}{
			"submissionId": failure.SubmissionID,
			"error":        errors.NewFailureLogWriteError(backend, err).Details,
		})
		return
	}
	metrics.FailureLogWrites.WithLabelValues(backend, "ok").Inc()
}

func joinRecipients(to []models.Address) string {
	parts := make([]string, 0, len(to))
	for _, a := range to {
		parts = append(parts, a.Email)
	}
	return strings.Join(parts, ",")
}
