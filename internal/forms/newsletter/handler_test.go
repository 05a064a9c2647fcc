package newsletter

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"lead-intake/internal/common/brevo"
	"lead-intake/internal/common/config"
	"lead-intake/internal/common/logger"
	"lead-intake/internal/common/templates"
	"lead-intake/internal/models"
	"lead-intake/internal/notify"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"
)

// ==========================
// Mocks
// ==========================

type MockCRM struct {
	mock.Mock
	configured bool
}

func (m *MockCRM) UpsertContact(ctx context.Context, record *models.ContactRecord) (string, error) {
	args := m.Called(ctx, record)
	return args.String(0), args.Error(1)
}

func (m *MockCRM) Configured() bool { return m.configured }

type recordingNotifier struct {
	emails []notify.Request
	sms    []string
	fail   bool
}

func (n *recordingNotifier) Email(ctx context.Context, req notify.Request) notify.Outcome {
	n.emails = append(n.emails, req)
	out := notify.Outcome{Channel: notify.ChannelEmail, Template: req.Template}
	if n.fail {
		out.Err = errors.New("smtp relay down")
	}
	return out
}

func (n *recordingNotifier) SMS(ctx context.Context, submissionID string, form models.FormType, message string) notify.Outcome {
	n.sms = append(n.sms, message)
	return notify.Outcome{Channel: notify.ChannelSMS}
}

// ==========================
// Test Helpers
// ==========================

func createValidConfig() *Config {
	return &Config{
		ListID:       7,
		Recipient:    "ops@example.com",
		MaxBodyBytes: 1 << 20,
	}
}

func newTestHandler(t *testing.T, cfg *Config, crm *MockCRM, n *recordingNotifier) *Handler {
	t.Helper()
	h, err := NewHandler(HandlerOptions{
		CRM:          crm,
		Notifier:     n,
		CustomConfig: cfg,
		Logger:       logger.NewTestLogger(t),
	})
	require.NoError(t, err)
	return h
}

func post(h http.Handler, body string) *httptest.ResponseRecorder {
	req := httptest.NewRequest(http.MethodPost, Route, strings.NewReader(body))
	req.Header.Set("Content-Type", "application/json")
	rec := httptest.NewRecorder()
	h.ServeHTTP(rec, req)
	return rec
}

func decodeBody(t *testing.T, rec *httptest.ResponseRecorder) map[string]interface{} {
	t.Helper()
	var body map[string]interface{}
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &body))
	return body
}

// ==========================
// Handler Creation Tests
// ==========================

func TestHandler_NewHandler(t *testing.T) {
	tests := []struct {
		name    string
		opts    HandlerOptions
		wantErr bool
	}{
		{
			name: "valid configuration",
			opts: HandlerOptions{CRM: &MockCRM{}, Notifier: &recordingNotifier{}, CustomConfig: createValidConfig()},
		},
		{
			name: "from app config",
			opts: HandlerOptions{CRM: &MockCRM{}, Notifier: &recordingNotifier{}, AppConfig: &config.Config{}},
		},
		{
			name:    "missing crm",
			opts:    HandlerOptions{Notifier: &recordingNotifier{}},
			wantErr: true,
		},
		{
			name: "operator notification without recipient",
			opts: HandlerOptions{CRM: &MockCRM{}, Notifier: &recordingNotifier{}, CustomConfig: &Config{
				NotifyOperator: true,
				MaxBodyBytes:   1024,
			}},
			wantErr: true,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			tt.opts.Logger = logger.NewNoOpLogger()
			h, err := NewHandler(tt.opts)
			if tt.wantErr {
				assert.Error(t, err)
				assert.Nil(t, h)
				return
			}
			require.NoError(t, err)
			assert.NotNil(t, h.GetConfig())
		})
	}
}

func TestCreateConfigFromAppConfig(t *testing.T) {
	app := &config.Config{}
	app.Brevo.Lists.Newsletter = 12
	app.Forms.Newsletter.NotifyOperator = true
	app.Notifications.Recipient = "ops@example.com"
	app.Server.MaxBodyBytes = 4096

	cfg := createConfigFromAppConfig(app, nil)
	assert.Equal(t, int64(12), cfg.ListID)
	assert.True(t, cfg.NotifyOperator)
	assert.Equal(t, "ops@example.com", cfg.Recipient)
	assert.Equal(t, int64(4096), cfg.MaxBodyBytes)
}

// ==========================
// Request Tests
// ==========================

func TestHandler_ClientErrorsMakeNoCalls(t *testing.T) {
	tests := []struct {
		name    string
		body    string
		wantMsg string
	}{
		{"missing email", `{}`, "Email is required"},
		{"empty email", `{"email":""}`, "Email is required"},
		{"null email", `{"email":null}`, "Email is required"},
		{"no domain dot", `{"email":"jane@example"}`, "Invalid email format"},
		{"whitespace", `{"email":"jane doe@example.com"}`, "Invalid email format"},
		{"two ats", `{"email":"a@b@c.com"}`, "Invalid email format"},
		{"not a string", `{"email":42}`, "Invalid email format"},
		{"malformed json", `{"email":`, "Invalid request body"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			crm := &MockCRM{configured: true}
			n := &recordingNotifier{}
			rec := post(newTestHandler(t, createValidConfig(), crm, n), tt.body)

			assert.Equal(t, http.StatusBadRequest, rec.Code)
			assert.Equal(t, tt.wantMsg, decodeBody(t, rec)["error"])
			crm.AssertNotCalled(t, "UpsertContact", mock.Anything, mock.Anything)
			assert.Empty(t, n.emails)
		})
	}
}

func TestHandler_MissingCredential(t *testing.T) {
	crm := &MockCRM{configured: false}
	n := &recordingNotifier{}
	rec := post(newTestHandler(t, createValidConfig(), crm, n), `{"email":"a@b.com"}`)

	assert.Equal(t, http.StatusInternalServerError, rec.Code)
	assert.Equal(t, "Server configuration error", decodeBody(t, rec)["error"])
	crm.AssertNotCalled(t, "UpsertContact", mock.Anything, mock.Anything)
	assert.Empty(t, n.emails)
}

func TestHandler_Success(t *testing.T) {
	crm := &MockCRM{configured: true}
	crm.On("UpsertContact", mock.Anything, &models.ContactRecord{
		Email:   "a@b.com",
		ListIDs: []int64{7},
	}).Return("101", nil).Once()
	n := &recordingNotifier{}

	rec := post(newTestHandler(t, createValidConfig(), crm, n), `{"email":"a@b.com"}`)

	require.Equal(t, http.StatusOK, rec.Code)
	body := decodeBody(t, rec)
	assert.Equal(t, "Successfully subscribed to newsletter", body["message"])
	assert.Contains(t, body["message"], "subscribed")

	// One upsert, one dispatch: the welcome email only.
	crm.AssertNumberOfCalls(t, "UpsertContact", 1)
	require.Len(t, n.emails, 1)
	assert.Equal(t, templates.NewsletterWelcome, n.emails[0].Template)
	assert.Equal(t, []models.Address{{Email: "a@b.com"}}, n.emails[0].To)
	assert.NotEmpty(t, n.emails[0].SubmissionID)
	assert.Empty(t, n.sms)
}

func TestHandler_ConflictIsAlreadySubscribed(t *testing.T) {
	crm := &MockCRM{configured: true}
	crm.On("UpsertContact", mock.Anything, mock.Anything).
		Return("", &brevo.APIError{Operation: "create_contact", StatusCode: http.StatusBadRequest, Code: "duplicate_parameter"}).Once()
	n := &recordingNotifier{}

	rec := post(newTestHandler(t, createValidConfig(), crm, n), `{"email":"a@b.com"}`)

	require.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, "You are already subscribed to our newsletter!", decodeBody(t, rec)["message"])
	require.Len(t, n.emails, 1)
	assert.Equal(t, templates.NewsletterWelcome, n.emails[0].Template)
}

func TestHandler_UpstreamFailure(t *testing.T) {
	crm := &MockCRM{configured: true}
	crm.On("UpsertContact", mock.Anything, mock.Anything).
		Return("", &brevo.APIError{Operation: "create_contact", StatusCode: http.StatusUnauthorized, Body: `{"code":"unauthorized","message":"Key not found"}`}).Once()
	n := &recordingNotifier{}

	rec := post(newTestHandler(t, createValidConfig(), crm, n), `{"email":"a@b.com"}`)

	assert.Equal(t, http.StatusInternalServerError, rec.Code)
	assert.Equal(t, "Failed to subscribe to newsletter. Please try again.", decodeBody(t, rec)["error"])
	assert.NotContains(t, rec.Body.String(), "Key not found")
	assert.Empty(t, n.emails)
}

func TestHandler_TransportFailure(t *testing.T) {
	crm := &MockCRM{configured: true}
	crm.On("UpsertContact", mock.Anything, mock.Anything).Return("", errors.New("dial tcp: i/o timeout")).Once()

	rec := post(newTestHandler(t, createValidConfig(), crm, &recordingNotifier{}), `{"email":"a@b.com"}`)

	assert.Equal(t, http.StatusInternalServerError, rec.Code)
	assert.NotContains(t, rec.Body.String(), "i/o timeout")
}

func TestHandler_ResubmissionSucceeds(t *testing.T) {
	crm := &MockCRM{configured: true}
	crm.On("UpsertContact", mock.Anything, mock.Anything).Return("101", nil).Once()
	crm.On("UpsertContact", mock.Anything, mock.Anything).Return("", nil).Once()
	h := newTestHandler(t, createValidConfig(), crm, &recordingNotifier{})

	for i := 0; i < 2; i++ {
		rec := post(h, `{"email":"a@b.com"}`)
		assert.Equal(t, http.StatusOK, rec.Code)
		assert.NotContains(t, rec.Body.String(), "error")
	}
	crm.AssertExpectations(t)
}

func TestHandler_NotificationFailureDoesNotChangeResponse(t *testing.T) {
	crm := &MockCRM{configured: true}
	crm.On("UpsertContact", mock.Anything, mock.Anything).Return("101", nil).Once()
	n := &recordingNotifier{fail: true}

	rec := post(newTestHandler(t, createValidConfig(), crm, n), `{"email":"a@b.com"}`)

	assert.Equal(t, http.StatusOK, rec.Code)
	assert.Len(t, n.emails, 1)
}

func TestHandler_OperatorNotificationOptIn(t *testing.T) {
	cfg := createValidConfig()
	cfg.NotifyOperator = true

	crm := &MockCRM{configured: true}
	crm.On("UpsertContact", mock.Anything, mock.Anything).Return("101", nil).Once()
	n := &recordingNotifier{}

	rec := post(newTestHandler(t, cfg, crm, n), `{"email":"a@b.com"}`)

	require.Equal(t, http.StatusOK, rec.Code)
	require.Len(t, n.emails, 2)
	assert.Equal(t, templates.NewsletterWelcome, n.emails[0].Template)
	assert.Equal(t, templates.NewsletterNotification, n.emails[1].Template)
	assert.Equal(t, "ops@example.com", n.emails[1].To[0].Email)
	assert.Equal(t, n.emails[0].SubmissionID, n.emails[1].SubmissionID)
	assert.Equal(t, notificationData{Email: "a@b.com"}, n.emails[1].Data)
}

// ==========================
// Mapping Tests
// ==========================

func TestBuildContact(t *testing.T) {
	t.Run("with list", func(t *testing.T) {
		record := BuildContact(&Input{Email: "a@b.com"}, &Config{ListID: 3})
		assert.Equal(t, []int64{3}, record.ListIDs)
		assert.Nil(t, record.Attributes)
	})

	t.Run("without list", func(t *testing.T) {
		record := BuildContact(&Input{Email: "a@b.com"}, &Config{})
		assert.Empty(t, record.ListIDs)
	})
}
