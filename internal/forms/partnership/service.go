package partnership

import (
	"context"
	"fmt"
	"strings"
	"time"

	"lead-intake/internal/common/brevo"
	"lead-intake/internal/common/errors"
	"lead-intake/internal/common/logger"
	"lead-intake/internal/common/templates"
	"lead-intake/internal/forms"
	"lead-intake/internal/models"
	"lead-intake/internal/notify"
)

const (
	source      = "Website Contact Form"
	inquiryType = "Partnership Inquiry"

	confirmationSubject = "Thank you for your partnership inquiry"
)

type Service struct {
	config   *Config
	logger   logger.Logger
	crm      forms.ContactUpserter
	notifier forms.Notifier
	now      func() time.Time
}

func NewService(deps ServiceDependencies, config *Config) *Service {
	return &Service{
		config:   config,
		logger:   deps.Logger,
		crm:      deps.CRM,
		notifier: deps.Notifier,
		now:      time.Now,
	}
}

// Execute upserts the inquirer and sends the operator notification and
// the confirmation, in that order. Any upsert error is fatal, including a
// duplicate-contact 400.
func (s *Service) Execute(ctx context.Context, submissionID string, payload models.SubmissionPayload) (*Output, error) {
	input, err := ParseInput(payload)
	if err != nil {
		return nil, err
	}

	log := s.logger.WithFields(map[string]interface{}{
		"submissionId": submissionID,
		"form":         string(models.FormPartnership),
		"email":        logger.MaskEmail(input.Email),
	})

	if !s.crm.Configured() {
		log.Error("Brevo API key not configured", nil)
		return nil, errors.NewConfigurationError("brevo.api_key")
	}

	listID, route := SelectList(input.PartnershipType, s.config)
	log.Info("Selected partnership list", map[string]interface{}{
		"listId": listID,
		"route":  route,
	})

	record := BuildContact(input, listID, s.now())
	contactID, err := s.crm.UpsertContact(ctx, record)
	if err != nil {
		var stdErr *errors.StandardError
		if brevo.IsConflict(err) {
			stdErr = errors.NewContactConflictError(input.Email, err)
		} else {
			stdErr = errors.NewUpstreamError("create_contact", err)
		}
		log.Error("Failed to create partnership contact", map[string]interface{}{
			"errorCode": stdErr.Code,
			"error":     stdErr.Details,
			"status":    brevo.StatusCode(err),
		})
		return nil, stdErr
	}
	log.Info("Partnership contact created", map[string]interface{}{
		"contactId": contactID,
	})

	data := emailData{Input: *input, ContactID: contactID}

	s.notifier.Email(ctx, notify.Request{
		SubmissionID: submissionID,
		Form:         models.FormPartnership,
		Template:     templates.PartnershipNotification,
		Subject:      NotificationSubject(input.PartnershipType),
		To:           []models.Address{{Email: s.config.Recipient}},
		Data:         data,
	})

	s.notifier.Email(ctx, notify.Request{
		SubmissionID: submissionID,
		Form:         models.FormPartnership,
		Template:     templates.PartnershipConfirmation,
		Subject:      confirmationSubject,
		To:           []models.Address{{Email: input.Email, Name: forms.FullName(input.FirstName, input.LastName)}},
		Data:         data,
	})

	s.notifier.SMS(ctx, submissionID, models.FormPartnership, smsMessage(input))

	return &Output{ContactID: contactID, ListID: listID, Route: route}, nil
}

// BuildContact flattens the inquiry into CRM attributes. Absent optional
// fields are sent as empty strings so stale values are cleared.
func BuildContact(input *Input, listID int64, now time.Time) *models.ContactRecord {
	record := &models.ContactRecord{
		Email: input.Email,
		Attributes: map[string]string{
			"FIRSTNAME":             input.FirstName,
			"LASTNAME":              input.LastName,
			"PHONE":                 input.Phone,
			"COMPANY":               input.Company,
			"PARTNERSHIP_TYPE":      input.PartnershipType,
			"INVESTMENT_EXPERIENCE": input.InvestmentExperience,
			"INVESTMENT_AMOUNT":     input.InvestmentAmount,
			"TIMEFRAME":             input.Timeframe,
			"MESSAGE":               input.Message,
			"FORM_SUBMITTED_DATE":   forms.SubmittedAt(now),
			"SOURCE":                source,
			"INQUIRY_TYPE":          inquiryType,
			"FOLDER":                inquiryType,
		},
	}
	if listID > 0 {
		record.ListIDs = []int64{listID}
	}
	return record
}

// NotificationSubject names the partnership type, or "General" when unset.
func NotificationSubject(partnershipType string) string {
	label := strings.ToUpper(partnershipType)
	if label == "" {
		label = "General"
	}
	return "New Partnership Inquiry - " + label
}

func smsMessage(input *Input) string {
	kind := strings.ToUpper(strings.TrimSpace(input.PartnershipType))
	if kind == "" {
		kind = "GENERAL"
	}
	return fmt.Sprintf("New %s partnership inquiry from %s (%s)",
		kind, forms.FullName(input.FirstName, input.LastName), input.Email)
}
