package funding

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

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
}

func (n *recordingNotifier) Email(ctx context.Context, req notify.Request) notify.Outcome {
	n.emails = append(n.emails, req)
	return notify.Outcome{Channel: notify.ChannelEmail, Template: req.Template, MessageID: "m"}
}

func (n *recordingNotifier) SMS(ctx context.Context, submissionID string, form models.FormType, message string) notify.Outcome {
	n.sms = append(n.sms, message)
	return notify.Outcome{Channel: notify.ChannelSMS, Skipped: true}
}

// ==========================
// Test Helpers
// ==========================

func createValidConfig() *Config {
	return &Config{
		ListID:       31,
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

func validPayload() map[string]interface{} {
	return map[string]interface{}{
		"firstName":      "Sam",
		"lastName":       "Lee",
		"email":          "sam@example.com",
		"phone":          "385-555-0100",
		"fundingGoal":    "$50,000",
		"personalIncome": "100k-150k",
		"businessOwner":  "no",
		"creditScore":    "720-759",
		"creditLimits":   "$20,000",
		"creditProfile":  []string{"No late payments", "Low utilization"},
		"termsAccepted":  true,
	}
}

func encode(t *testing.T, payload map[string]interface{}) string {
	t.Helper()
	b, err := json.Marshal(payload)
	require.NoError(t, err)
	return string(b)
}

// ==========================
// Handler Tests
// ==========================

func TestHandler_NewHandler(t *testing.T) {
	_, err := NewHandler(HandlerOptions{CRM: &MockCRM{}})
	assert.Error(t, err)

	app := &config.Config{}
	app.Brevo.Lists.Funding = 44
	app.Notifications.Recipient = "ops@example.com"
	h, err := NewHandler(HandlerOptions{CRM: &MockCRM{}, Notifier: &recordingNotifier{}, AppConfig: app, Logger: logger.NewNoOpLogger()})
	require.NoError(t, err)
	assert.Equal(t, int64(44), h.GetConfig().ListID)
	assert.Equal(t, int64(1<<20), h.GetConfig().MaxBodyBytes)
}

func TestHandler_MissingFieldsMakeNoCalls(t *testing.T) {
	for _, field := range []string{"firstName", "lastName", "email", "phone", "fundingGoal"} {
		t.Run(field, func(t *testing.T) {
			payload := validPayload()
			delete(payload, field)

			crm := &MockCRM{configured: true}
			n := &recordingNotifier{}
			rec := post(newTestHandler(t, createValidConfig(), crm, n), encode(t, payload))

			assert.Equal(t, http.StatusBadRequest, rec.Code)
			assert.Equal(t, "Missing required fields", decodeBody(t, rec)["error"])
			crm.AssertNotCalled(t, "UpsertContact", mock.Anything, mock.Anything)
			assert.Empty(t, n.emails)
		})
	}
}

func TestHandler_NonStringValuesCountAsPresent(t *testing.T) {
	var captured *models.ContactRecord
	crm := &MockCRM{configured: true}
	crm.On("UpsertContact", mock.Anything, mock.Anything).
		Run(func(args mock.Arguments) { captured = args.Get(1).(*models.ContactRecord) }).
		Return("78", nil).Once()

	payload := validPayload()
	payload["phone"] = 5551234567
	rec := post(newTestHandler(t, createValidConfig(), crm, &recordingNotifier{}), encode(t, payload))

	require.Equal(t, http.StatusOK, rec.Code)
	require.NotNil(t, captured)
	assert.Equal(t, "5551234567", captured.Attributes["PHONE"])
}

func TestHandler_BlankValuesAreMissing(t *testing.T) {
	for name, value := range map[string]interface{}{"false": false, "zero": 0, "null": nil} {
		t.Run(name, func(t *testing.T) {
			payload := validPayload()
			payload["firstName"] = value

			crm := &MockCRM{configured: true}
			rec := post(newTestHandler(t, createValidConfig(), crm, &recordingNotifier{}), encode(t, payload))

			assert.Equal(t, http.StatusBadRequest, rec.Code)
			assert.Equal(t, "Missing required fields", decodeBody(t, rec)["error"])
			crm.AssertNotCalled(t, "UpsertContact", mock.Anything, mock.Anything)
		})
	}
}

func TestHandler_BusinessOwnerWithoutRevenueIsAccepted(t *testing.T) {
	payload := validPayload()
	payload["businessOwner"] = "own"
	delete(payload, "businessRevenue")

	crm := &MockCRM{configured: true}
	crm.On("UpsertContact", mock.Anything, mock.Anything).Return("77", nil).Once()

	rec := post(newTestHandler(t, createValidConfig(), crm, &recordingNotifier{}), encode(t, payload))

	assert.Equal(t, http.StatusOK, rec.Code)
	crm.AssertExpectations(t)
}

func TestHandler_MissingCredential(t *testing.T) {
	crm := &MockCRM{configured: false}
	rec := post(newTestHandler(t, createValidConfig(), crm, &recordingNotifier{}), encode(t, validPayload()))

	assert.Equal(t, http.StatusInternalServerError, rec.Code)
	assert.Equal(t, "Server configuration error", decodeBody(t, rec)["error"])
	crm.AssertNotCalled(t, "UpsertContact", mock.Anything, mock.Anything)
}

func TestHandler_Success(t *testing.T) {
	var captured *models.ContactRecord
	crm := &MockCRM{configured: true}
	crm.On("UpsertContact", mock.Anything, mock.Anything).
		Run(func(args mock.Arguments) { captured = args.Get(1).(*models.ContactRecord) }).
		Return("77", nil).Once()
	n := &recordingNotifier{}

	rec := post(newTestHandler(t, createValidConfig(), crm, n), encode(t, validPayload()))

	require.Equal(t, http.StatusOK, rec.Code)
	body := decodeBody(t, rec)
	assert.Equal(t, true, body["success"])
	assert.Equal(t, "Funding application submitted successfully", body["message"])
	assert.Equal(t, "77", body["contactId"])

	require.NotNil(t, captured)
	assert.Equal(t, []int64{31}, captured.ListIDs)
	assert.Equal(t, "No late payments, Low utilization", captured.Attributes["CREDIT_PROFILE"])
	assert.Equal(t, "", captured.Attributes["BUSINESS_REVENUE"])

	require.Len(t, n.emails, 2)
	assert.Equal(t, templates.FundingNotification, n.emails[0].Template)
	assert.Equal(t, "New Funding Application - $50,000", n.emails[0].Subject)
	assert.Equal(t, "ops@example.com", n.emails[0].To[0].Email)
	assert.Equal(t, templates.FundingConfirmation, n.emails[1].Template)
	assert.Equal(t, "Your Funding Application Has Been Received", n.emails[1].Subject)
	assert.Equal(t, models.Address{Email: "sam@example.com", Name: "Sam Lee"}, n.emails[1].To[0])
	require.Len(t, n.sms, 1)
	assert.Contains(t, n.sms[0], "Sam Lee")
}

func TestHandler_UpsertErrorsAreFatal(t *testing.T) {
	for name, upsertErr := range map[string]error{
		"duplicate": &brevo.APIError{Operation: "create_contact", StatusCode: http.StatusBadRequest},
		"server":    &brevo.APIError{Operation: "create_contact", StatusCode: http.StatusInternalServerError, Body: "stack trace"},
		"transport": errors.New("EOF"),
	} {
		t.Run(name, func(t *testing.T) {
			crm := &MockCRM{configured: true}
			crm.On("UpsertContact", mock.Anything, mock.Anything).Return("", upsertErr).Once()
			n := &recordingNotifier{}

			rec := post(newTestHandler(t, createValidConfig(), crm, n), encode(t, validPayload()))

			assert.Equal(t, http.StatusInternalServerError, rec.Code)
			assert.Equal(t, "Failed to submit funding application. Please try again.", decodeBody(t, rec)["error"])
			assert.NotContains(t, rec.Body.String(), "stack trace")
			assert.Empty(t, n.emails)
		})
	}
}

// ==========================
// Mapping Tests
// ==========================

func TestBuildContact(t *testing.T) {
	now := time.Date(2026, 7, 4, 12, 0, 0, 0, time.UTC)
	record := BuildContact(&Input{
		FirstName:   "Sam",
		LastName:    "Lee",
		Email:       "sam@example.com",
		Phone:       "1",
		FundingGoal: "$10k",
	}, 0, now)

	assert.Nil(t, record.ListIDs)
	assert.Equal(t, map[string]string{
		"FIRSTNAME":           "Sam",
		"LASTNAME":            "Lee",
		"PHONE":               "1",
		"FUNDING_GOAL":        "$10k",
		"PERSONAL_INCOME":     "",
		"BUSINESS_OWNER":      "",
		"BUSINESS_REVENUE":    "",
		"CREDIT_SCORE":        "",
		"CREDIT_LIMITS":       "",
		"CREDIT_PROFILE":      "",
		"FORM_TYPE":           "Funding Application",
		"FORM_SUBMITTED_DATE": "2026-07-04T12:00:00.000Z",
		"SOURCE":              "Website Funding Form",
	}, record.Attributes)
}

func TestParseInput_CreditProfileMustBeArray(t *testing.T) {
	payload := models.SubmissionPayload{
		"firstName":     "Sam",
		"lastName":      "Lee",
		"email":         "sam@example.com",
		"phone":         "1",
		"fundingGoal":   "x",
		"creditProfile": "Excellent",
	}
	input, err := ParseInput(payload)
	require.NoError(t, err)
	assert.Empty(t, input.CreditProfile)
	assert.Equal(t, "", input.CreditProfileText())
}
