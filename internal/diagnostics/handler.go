// Package diagnostics serves the operator endpoints used to check the
// Brevo integration: list discovery, a test email and recent delivery
// failures.
package diagnostics

import (
	"context"
	"net/http"
	"strconv"

	"lead-intake/internal/common/brevo"
	"lead-intake/internal/common/errors"
	"lead-intake/internal/common/httpapi"
	"lead-intake/internal/common/logger"
	"lead-intake/internal/common/templates"
	"lead-intake/internal/models"
	"lead-intake/internal/notify"

	"github.com/go-chi/chi/v5"
)

const (
	ListsRoute     = "/api/brevo-lists"
	TestEmailRoute = "/api/test-email"
	FailuresRoute  = "/api/notifications/failures"

	testEmailSubject = "Test Email from Jason Reeder Website"
	defaultFailures  = 50
	maxFailures      = 500
)

// ListFetcher reads CRM contact lists.
type ListFetcher interface {
	GetLists(ctx context.Context, limit, offset int) (*brevo.ListsResponse, error)
	Configured() bool
}

// Mailer sends one templated email and reports the transport's error.
type Mailer interface {
	Send(ctx context.Context, req notify.Request) (string, error)
}

// FailureReader lists recorded delivery failures, newest first.
type FailureReader interface {
	Recent(ctx context.Context, n int64) ([]models.DeliveryFailure, error)
}

type Handler struct {
	lists    ListFetcher
	mailer   Mailer
	failures FailureReader
	logger   logger.Logger
	maxBody  int64
}

type HandlerOptions struct {
	Lists        ListFetcher
	Mailer       Mailer
	Failures     FailureReader // optional
	Logger       logger.Logger
	MaxBodyBytes int64
}

func NewHandler(opts HandlerOptions) *Handler {
	log := opts.Logger
	if log == nil {
		log = logger.NewStructured("info", "json")
	}
	return &Handler{
		lists:    opts.Lists,
		mailer:   opts.Mailer,
		failures: opts.Failures,
		logger:   log,
		maxBody:  opts.MaxBodyBytes,
	}
}

// Register mounts the diagnostics routes on r.
func (h *Handler) Register(r chi.Router) {
	r.Get(ListsRoute, h.GetLists)
	r.Post(TestEmailRoute, h.SendTestEmail)
	if h.failures != nil {
		r.Get(FailuresRoute, h.RecentFailures)
	}
}

type listsResponse struct {
	Success bool         `json:"success"`
	Lists   []brevo.List `json:"lists"`
	Count   int64        `json:"count"`
	Message string       `json:"message"`
}

func (h *Handler) GetLists(w http.ResponseWriter, r *http.Request) {
	if !h.lists.Configured() {
		httpapi.WriteStandardError(w, errors.NewConfigurationError("brevo.api_key"))
		return
	}

	limit := queryInt(r, "limit", 50)
	offset := queryInt(r, "offset", 0)

	resp, err := h.lists.GetLists(r.Context(), limit, offset)
	if err != nil {
		h.logger.Error("Error fetching Brevo lists", map[string]interface{}{
			"error":  err,
			"status": brevo.StatusCode(err),
		})
		httpapi.WriteError(w, http.StatusInternalServerError, "Failed to fetch lists")
		return
	}

	for _, l := range resp.Lists {
		h.logger.Debug("Brevo list", map[string]interface{}{
			"id":       l.ID,
			"name":     l.Name,
			"folderId": l.FolderID,
		})
	}

	httpapi.WriteJSON(w, http.StatusOK, listsResponse{
		Success: true,
		Lists:   resp.Lists,
		Count:   resp.Count,
		Message: "Use the list ids and folder ids above to configure brevo.lists",
	})
}

type testEmailRequest struct {
	Email string `json:"email"`
}

type testEmailResponse struct {
	Success   bool   `json:"success"`
	MessageID string `json:"messageId"`
	Message   string `json:"message"`
}

func (h *Handler) SendTestEmail(w http.ResponseWriter, r *http.Request) {
	var in testEmailRequest
	if err := httpapi.DecodeJSON(w, r, h.maxBody, &in); err != nil {
		httpapi.WriteStandardError(w, err)
		return
	}
	if in.Email == "" {
		httpapi.WriteError(w, http.StatusBadRequest, "Email required")
		return
	}

	messageID, err := h.mailer.Send(context.WithoutCancel(r.Context()), notify.Request{
		SubmissionID: "test-email",
		Template:     templates.TestEmail,
		Subject:      testEmailSubject,
		To:           []models.Address{{Email: in.Email}},
	})
	if err != nil {
		h.logger.Error("Test email error", map[string]interface{}{
			"email": logger.MaskEmail(in.Email),
			"error": err,
		})
		httpapi.WriteError(w, http.StatusInternalServerError, "Failed to send test email")
		return
	}

	h.logger.Info("Test email sent successfully", map[string]interface{}{
		"email":     logger.MaskEmail(in.Email),
		"messageId": messageID,
	})
	httpapi.WriteJSON(w, http.StatusOK, testEmailResponse{
		Success:   true,
		MessageID: messageID,
		Message:   "Test email sent successfully!",
	})
}

type failuresResponse struct {
	Failures []models.DeliveryFailure `json:"failures"`
	Count    int                      `json:"count"`
}

func (h *Handler) RecentFailures(w http.ResponseWriter, r *http.Request) {
	n := queryInt(r, "limit", defaultFailures)
	switch {
	case n <= 0:
		n = defaultFailures
	case n > maxFailures:
		n = maxFailures
	}

	failures, err := h.failures.Recent(r.Context(), int64(n))
	if err != nil {
		h.logger.Error("Failed to read delivery failures", map[string]interface{}{
			"error": err,
		})
		httpapi.WriteError(w, http.StatusInternalServerError, "Failed to read delivery failures")
		return
	}
	if failures == nil {
		failures = []models.DeliveryFailure{}
	}
	httpapi.WriteJSON(w, http.StatusOK, failuresResponse{Failures: failures, Count: len(failures)})
}

func queryInt(r *http.Request, key string, def int) int {
	raw := r.URL.Query().Get(key)
	if raw == "" {
		return def
	}
	v, err := strconv.Atoi(raw)
	if err != nil || v < 0 {
		return def
	}
	return v
}
