package newsletter

import (
	"context"

	"lead-intake/internal/common/brevo"
	"lead-intake/internal/common/errors"
	"lead-intake/internal/common/logger"
	"lead-intake/internal/common/templates"
	"lead-intake/internal/forms"
	"lead-intake/internal/models"
	"lead-intake/internal/notify"
)

const (
	msgSubscribed        = "Successfully subscribed to newsletter"
	msgAlreadySubscribed = "You are already subscribed to our newsletter!"

	welcomeSubject      = "🎯 Welcome to Jason Reeder's Investor Community!"
	notificationSubject = "New Newsletter Subscription"
)

type Service struct {
	config   *Config
	logger   logger.Logger
	crm      forms.ContactUpserter
	notifier forms.Notifier
}

func NewService(deps ServiceDependencies, config *Config) *Service {
	return &Service{
		config:   config,
		logger:   deps.Logger,
		crm:      deps.CRM,
		notifier: deps.Notifier,
	}
}

// Execute subscribes the address in payload. A CRM 400 means the address
// is already known and is reported as success.
func (s *Service) Execute(ctx context.Context, submissionID string, payload models.SubmissionPayload) (*Output, error) {
	input, err := ParseInput(payload)
	if err != nil {
		return nil, err
	}

	log := s.logger.WithFields(map[string]interface{}{
		"submissionId": submissionID,
		"form":         string(models.FormNewsletter),
		"email":        logger.MaskEmail(input.Email),
	})

	if !s.crm.Configured() {
		log.Error("Brevo API key not configured", nil)
		return nil, errors.NewConfigurationError("brevo.api_key")
	}

	record := BuildContact(input, s.config)
	log.Info("Creating newsletter contact", map[string]interface{}{
		"listIds": record.ListIDs,
	})

	output := &Output{Message: msgSubscribed}
	contactID, err := s.crm.UpsertContact(ctx, record)
	switch {
	case err == nil:
		output.ContactID = contactID
	case brevo.IsConflict(err):
		log.Info("Contact already exists, continuing", map[string]interface{}{
			"error": err.Error(),
		})
		output.AlreadySubscribed = true
		output.Message = msgAlreadySubscribed
	default:
		upstreamErr := errors.NewUpstreamError("create_contact", err)
		log.Error("Failed to create newsletter contact", map[string]interface{}{
			"error":  upstreamErr.Details,
			"status": brevo.StatusCode(err),
		})
		return nil, upstreamErr
	}

	s.notifier.Email(ctx, notify.Request{
		SubmissionID: submissionID,
		Form:         models.FormNewsletter,
		Template:     templates.NewsletterWelcome,
		Subject:      welcomeSubject,
		To:           []models.Address{{Email: input.Email}},
	})

	if s.config.NotifyOperator {
		s.notifier.Email(ctx, notify.Request{
			SubmissionID: submissionID,
			Form:         models.FormNewsletter,
			Template:     templates.NewsletterNotification,
			Subject:      notificationSubject,
			To:           []models.Address{{Email: s.config.Recipient}},
			Data: notificationData{
				Email:             input.Email,
				AlreadySubscribed: output.AlreadySubscribed,
			},
		})
	}

	log.Info("Newsletter signup completed", map[string]interface{}{
		"contactId":         output.ContactID,
		"alreadySubscribed": output.AlreadySubscribed,
	})
	return output, nil
}

// BuildContact maps the input onto a CRM contact. A zero list id leaves
// list membership unchanged.
func BuildContact(input *Input, cfg *Config) *models.ContactRecord {
	record := &models.ContactRecord{Email: input.Email}
	if cfg.ListID > 0 {
		record.ListIDs = []int64{cfg.ListID}
	}
	return record
}
