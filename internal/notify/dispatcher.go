// Package notify sends transactional emails and operator alerts.
package notify

import (
	"context"
	"fmt"

	"lead-intake/internal/common/templates"
	"lead-intake/internal/models"
)

const (
	ChannelEmail = "email"
	ChannelSMS   = "sms"
)

// EmailSender is an email transport (Brevo transactional API or SES).
type EmailSender interface {
	SendEmail(ctx context.Context, email *models.NotificationEmail) (string, error)
}

// SMSSender texts the operator.
type SMSSender interface {
	Alert(ctx context.Context, message string) (string, error)
	Recipient() string
}

// Request describes one templated email.
type Request struct {
	SubmissionID string
	Form         models.FormType
	Template     string
	Subject      string
	To           []models.Address
	Data         interface{}
}

// Dispatcher renders templates and hands the result to the transport.
// Errors are returned to the caller; wrap it in FireAndForget for
// best-effort sends.
type Dispatcher struct {
	sender   EmailSender
	renderer *templates.Renderer
	from     models.Address
}

func NewDispatcher(sender EmailSender, renderer *templates.Renderer, from models.Address) *Dispatcher {
	return &Dispatcher{sender: sender, renderer: renderer, from: from}
}

// From returns the fixed sender identity.
func (d *Dispatcher) From() models.Address {
	return d.from
}

// Send renders req and submits it, returning the transport's message id.
// The send-time timestamp is taken here, not when the request was built.
func (d *Dispatcher) Send(ctx context.Context, req Request) (string, error) {
	if len(req.To) == 0 {
		return "", fmt.Errorf("no recipients for %s", req.Template)
	}

	body, err := d.renderer.Render(req.Template, req.Data)
	if err != nil {
		return "", err
	}

	return d.sender.SendEmail(ctx, &models.NotificationEmail{
		Sender:   d.from,
		To:       req.To,
		Subject:  req.Subject,
		HTMLBody: body,
	})
}
