package newsletter

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
	Route = "/api/newsletter-signup"

	msgFailed = "Failed to subscribe to newsletter. Please try again."
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
		return nil, fmt.Errorf("newsletter handler requires a CRM client and a notifier")
	}

	handlerConfig := createConfigFromAppConfig(opts.AppConfig, opts.CustomConfig)
	if err := handlerConfig.Validate(); err != nil {
		return nil, fmt.Errorf("invalid configuration for newsletter: %w", err)
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
	// Client disconnects must not cut the upsert or the emails short.
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

	outcome := forms.OutcomeSuccess
	if output.AlreadySubscribed {
		outcome = forms.OutcomeAlreadySubscribed
	}
	forms.Observe(models.FormNewsletter, outcome, start)
	httpapi.WriteJSON(w, http.StatusOK, Response{Message: output.Message})
}

func (h *Handler) fail(w http.ResponseWriter, submissionID string, err error, start time.Time) {
	stdErr := errors.Normalize(err)
	forms.Observe(models.FormNewsletter, forms.OutcomeLabel(stdErr), start)

	status := errors.HTTPStatus(stdErr)
	message := stdErr.Message
	if stdErr.Code == errors.ErrCodeUpstreamError || stdErr.Code == errors.ErrCodeInternal {
		message = msgFailed
	}

	if status >= http.StatusInternalServerError {
		h.logger.Error("Newsletter signup failed", map[string]interface{}{
			"submissionId": submissionID,
			"errorCode":    stdErr.Code,
			"details":      stdErr.Details,
		})
	} else {
		h.logger.Info("Newsletter signup rejected", map[string]interface{}{
			"submissionId": submissionID,
			"errorCode":    stdErr.Code,
			"message":      stdErr.Message,
		})
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

	cfg.ListID = appConfig.Brevo.Lists.Newsletter
	cfg.NotifyOperator = appConfig.Forms.Newsletter.NotifyOperator
	cfg.Recipient = appConfig.Notifications.Recipient
	if appConfig.Server.MaxBodyBytes > 0 {
		cfg.MaxBodyBytes = appConfig.Server.MaxBodyBytes
	}
	return cfg
}
