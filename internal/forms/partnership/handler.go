package partnership

import (
	"context"
	"fmt"
	"net/http"
	"time"

	"lead-intake/internal/common/config"
	"lead-intake/internal/common/errors"
	"lead-intake/internal/common/httpapi"
	"lead-intake/internal/common/logger"
	"lead-intake/internal/forms"
	"lead-intake/internal/models"
)

const (
	Route = "/api/submit-form"

	msgSubmitted = "Form submitted successfully"
	msgFailed    = "Failed to submit form. Please try again."
)

type Handler struct {
	config  *Config
	logger  logger.Logger
	service *Service
}

type HandlerOptions struct {
	AppConfig    *config.Config
	CRM          forms.ContactUpserter
	Notifier     forms.Notifier
	CustomConfig *Config
	Logger       logger.Logger
}

func NewHandler(opts HandlerOptions) (*Handler, error) {
	if opts.CRM == nil || opts.Notifier == nil {
		return nil, fmt.Errorf("partnership handler requires a CRM client and a notifier")
	}

	handlerConfig := createConfigFromAppConfig(opts.AppConfig, opts.CustomConfig)
	if err := handlerConfig.Validate(); err != nil {
		return nil, fmt.Errorf("invalid configuration for partnership: %w", err)
	}

	var loggerInstance logger.Logger
	if opts.Logger != nil {
		loggerInstance = opts.Logger
	} else {
		loggerInstance = logger.NewStructured("info", "json")
	}

	h := &Handler{
		config: handlerConfig,
		logger: loggerInstance,
	}
	h.service = NewService(ServiceDependencies{
		Logger:   loggerInstance,
		CRM:      opts.CRM,
		Notifier: opts.Notifier,
	}, handlerConfig)

	return h, nil
}

func (h *Handler) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	start := time.Now()
	submissionID := forms.NewSubmissionID()
	ctx := context.WithoutCancel(r.Context())

	payload, err := httpapi.DecodePayload(w, r, h.config.MaxBodyBytes)
	if err != nil {
		h.fail(w, submissionID, err, start)
		return
	}

	output, err := h.service.Execute(ctx, submissionID, payload)
	if err != nil {
		h.fail(w, submissionID, err, start)
		return
	}

	forms.Observe(models.FormPartnership, forms.OutcomeSuccess, start)
	httpapi.WriteJSON(w, http.StatusOK, Response{
		Success:   true,
		Message:   msgSubmitted,
		ContactID: output.ContactID,
	})
}

func (h *Handler) fail(w http.ResponseWriter, submissionID string, err error, start time.Time) {
	stdErr := errors.Normalize(err)
	forms.Observe(models.FormPartnership, forms.OutcomeLabel(stdErr), start)

	status := errors.HTTPStatus(stdErr)
	message := stdErr.Message
	switch stdErr.Code {
	case errors.ErrCodeUpstreamError, errors.ErrCodeContactConflict, errors.ErrCodeInternal:
		message = msgFailed
	}

	fields := map[string]interface{}{
		"submissionId": submissionID,
		"errorCode":    stdErr.Code,
	}
	if status >= http.StatusInternalServerError {
		fields["details"] = stdErr.Details
		h.logger.Error("Partnership submission failed", fields)
	} else {
		fields["fields"] = stdErr.Metadata["fields"]
		h.logger.Info("Partnership submission rejected", fields)
	}

	httpapi.WriteError(w, status, message)
}

func (h *Handler) GetConfig() *Config {
	return h.config
}

func createConfigFromAppConfig(appConfig *config.Config, customConfig *Config) *Config {
	if customConfig != nil {
		return customConfig
	}

	cfg := DefaultConfig()
	if appConfig == nil {
		return cfg
	}

	cfg.GPListID = appConfig.Brevo.Lists.PartnershipGP
	cfg.LPListID = appConfig.Brevo.Lists.PartnershipLP
	cfg.Recipient = appConfig.Notifications.Recipient
	if appConfig.Server.MaxBodyBytes > 0 {
		cfg.MaxBodyBytes = appConfig.Server.MaxBodyBytes
	}
	return cfg
}
