package funding

import (
	"context"
	"fmt"
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
	formType = "Funding Application"
	source   = "Website Funding Form"

	confirmationSubject = "Your Funding Application Has Been Received"
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

// Execute upserts the applicant and sends the operator notification and
// the confirmation. Any upsert error, a duplicate included, is fatal.
func (s *Service) Execute(ctx context.Context, submissionID string, payload models.SubmissionPayload) (*Output, error) {
	input, err := ParseInput(payload)
	if err != nil {
		return nil, err
	}

	log := s.logger.WithFields(map[string]interface{}{
		"submissionId": submissionID,
		"form":         string(models.FormFunding),
		"email":        logger.MaskEmail(input.Email),
	})

	if !s.crm.Configured() {
		log.Error("Brevo API key not configured", nil)
		return nil, errors.NewConfigurationError("brevo.api_key")
	}

	if input.BusinessOwner == "own" && input.BusinessRevenue == "" {
		// Accepted as submitted; the step validator is the only place
		// this rule is enforced.
		log.Warn("Business owner submitted without business revenue", nil)
	}

	record := BuildContact(input, s.config.ListID, s.now())
	if s.config.ListID == 0 {
		log.Info("No funding list configured, skipping list assignment", nil)
	}

	contactID, err := s.crm.UpsertContact(ctx, record)
	if err != nil {
		var stdErr *errors.StandardError
		if brevo.IsConflict(err) {
			stdErr = errors.NewContactConflictError(input.Email, err)
		} else {
			stdErr = errors.NewUpstreamError("create_contact", err)
		}
		log.Error("Failed to create funding contact", map[string]interface{}{
			"errorCode": stdErr.Code,
			"error":     stdErr.Details,
			"status":    brevo.StatusCode(err),
		})
		return nil, stdErr
	}
	log.Info("Funding contact created", map[string]interface{}{
		"contactId": contactID,
		"listId":    s.config.ListID,
	})

	data := emailData{Input: *input, ContactID: contactID}

	s.notifier.Email(ctx, notify.Request{
		SubmissionID: submissionID,
		Form:         models.FormFunding,
		Template:     templates.FundingNotification,
		Subject:      "New Funding Application - " + input.FundingGoal,
		To:           []models.Address{{Email: s.config.Recipient}},
		Data:         data,
	})

	s.notifier.Email(ctx, notify.Request{
		SubmissionID: submissionID,
		Form:         models.FormFunding,
		Template:     templates.FundingConfirmation,
		Subject:      confirmationSubject,
		To:           []models.Address{{Email: input.Email, Name: forms.FullName(input.FirstName, input.LastName)}},
		Data:         data,
	})

	s.notifier.SMS(ctx, submissionID, models.FormFunding,
		fmt.Sprintf("New funding application from %s (%s): %s",
			forms.FullName(input.FirstName, input.LastName), input.Phone, input.FundingGoal))

	return &Output{ContactID: contactID, ListID: s.config.ListID}, nil
}

// BuildContact flattens the application into CRM attributes. Absent
// optional fields are sent as empty strings.
func BuildContact(input *Input, listID int64, now time.Time) *models.ContactRecord {
	record := &models.ContactRecord{
		Email: input.Email,
		Attributes: map[string]string{
			"FIRSTNAME":           input.FirstName,
			"LASTNAME":            input.LastName,
			"PHONE":               input.Phone,
			"FUNDING_GOAL":        input.FundingGoal,
			"PERSONAL_INCOME":     input.PersonalIncome,
			"BUSINESS_OWNER":      input.BusinessOwner,
			"BUSINESS_REVENUE":    input.BusinessRevenue,
			"CREDIT_SCORE":        input.CreditScore,
			"CREDIT_LIMITS":       input.CreditLimits,
			"CREDIT_PROFILE":      input.CreditProfileText(),
			"FORM_TYPE":           formType,
			"FORM_SUBMITTED_DATE": forms.SubmittedAt(now),
			"SOURCE":              source,
		},
	}
	if listID > 0 {
		record.ListIDs = []int64{listID}
	}
	return record
}
