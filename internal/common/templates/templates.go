// Package templates renders the transactional email bodies.
package templates

import (
	"bytes"
	"embed"
	"fmt"
	"html/template"
	"time"
)

//go:embed html/*.html
var files embed.FS

// Template names.
const (
	NewsletterWelcome       = "newsletter_welcome.html"
	NewsletterNotification  = "newsletter_notification.html"
	PartnershipNotification = "partnership_notification.html"
	PartnershipConfirmation = "partnership_confirmation.html"
	FundingNotification     = "funding_notification.html"
	FundingConfirmation     = "funding_confirmation.html"
	TestEmail               = "test_email.html"
)

const (
	dateTimeLayout = "1/2/2006, 3:04:05 PM"
	dateLayout     = "1/2/2006"
)

// View is what every template executes against. SentAt and SentDate are
// filled at render time, immediately before the email is handed off.
type View struct {
	SentAt   string
	SentDate string
	Data     interface{}
}

type Renderer struct {
	tmpl *template.Template
	loc  *time.Location
	now  func() time.Time
}

// New parses the embedded templates. Timestamps are shown in loc.
func New(loc *time.Location) (*Renderer, error) {
	tmpl, err := template.ParseFS(files, "html/*.html")
	if err != nil {
		return nil, fmt.Errorf("parse email templates: %w", err)
	}
	if loc == nil {
		loc = time.UTC
	}
	return &Renderer{tmpl: tmpl, loc: loc, now: time.Now}, nil
}

// WithClock replaces the time source, for tests.
func (r *Renderer) WithClock(now func() time.Time) *Renderer {
	r.now = now
	return r
}

// Now returns the current time in the renderer's zone.
func (r *Renderer) Now() time.Time {
	return r.now().In(r.loc)
}

// Render executes the named template with data.
func (r *Renderer) Render(name string, data interface{}) (string, error) {
	now := r.Now()
	view := View{
		SentAt:   FormatDateTime(now),
		SentDate: FormatDate(now),
		Data:     data,
	}

	var buf bytes.Buffer
	if err := r.tmpl.ExecuteTemplate(&buf, name, view); err != nil {
		return "", fmt.Errorf("render %s: %w", name, err)
	}
	return buf.String(), nil
}

// FormatDateTime renders t the way US browsers print toLocaleString.
func FormatDateTime(t time.Time) string {
	return t.Format(dateTimeLayout)
}

func FormatDate(t time.Time) string {
	return t.Format(dateLayout)
}
