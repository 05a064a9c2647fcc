// Package brevo is a small REST client for the Brevo contacts and
// transactional email APIs.
package brevo

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"

	"lead-intake/internal/common/metrics"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/trace"
)

const (
	DefaultBaseURL = "https://api.brevo.com/v3"

	OpCreateContact = "create_contact"
	OpSendEmail     = "send_transactional_email"
	OpGetLists      = "get_lists"
)

// ErrMissingAPIKey is returned by every call when the client was built
// without a credential.
var ErrMissingAPIKey = errors.New("brevo api key is not configured")

// APIError is a non-2xx answer from Brevo. Body holds the raw response and
// must only be logged.
type APIError struct {
	Operation  string `json:"-"`
	StatusCode int    `json:"-"`
	Code       string `json:"code"`
	Message    string `json:"message"`
	Body       string `json:"-"`
}

func (e *APIError) Error() string {
	if e.Code != "" || e.Message != "" {
		return fmt.Sprintf("brevo %s failed (status %d): %s: %s", e.Operation, e.StatusCode, e.Code, e.Message)
	}
	return fmt.Sprintf("brevo %s failed (status %d)", e.Operation, e.StatusCode)
}

// IsConflict reports whether err is a Brevo 400, which the contacts API
// returns for duplicate contacts.
func IsConflict(err error) bool {
	return StatusCode(err) == http.StatusBadRequest
}

// StatusCode extracts the HTTP status from an APIError, or 0.
func StatusCode(err error) int {
	var apiErr *APIError
	if errors.As(err, &apiErr) {
		return apiErr.StatusCode
	}
	return 0
}

type Options struct {
	APIKey     string
	BaseURL    string
	Timeout    time.Duration
	HTTPClient *http.Client
}

// Client is safe for concurrent use. Build one per process.
type Client struct {
	apiKey     string
	baseURL    string
	httpClient *http.Client
	tracer     trace.Tracer
}

func NewClient(opts Options) *Client {
	baseURL := strings.TrimRight(opts.BaseURL, "/")
	if baseURL == "" {
		baseURL = DefaultBaseURL
	}

	httpClient := opts.HTTPClient
	if httpClient == nil {
		timeout := opts.Timeout
		if timeout <= 0 {
			timeout = 30 * time.Second
		}
		httpClient = &http.Client{Timeout: timeout}
	}

	return &Client{
		apiKey:     opts.APIKey,
		baseURL:    baseURL,
		httpClient: httpClient,
		tracer:     otel.Tracer("lead-intake/brevo"),
	}
}

// Configured reports whether an API key is present.
func (c *Client) Configured() bool {
	return c.apiKey != ""
}

// do sends one request. in is JSON encoded when non-nil; out is decoded
// from non-empty 2xx bodies when non-nil.
func (c *Client) do(ctx context.Context, operation, method, path string, in, out interface{}) (int, error) {
	if !c.Configured() {
		return 0, ErrMissingAPIKey
	}

	ctx, span := c.tracer.Start(ctx, "brevo."+operation, trace.WithSpanKind(trace.SpanKindClient))
	defer span.End()

	start := time.Now()
	status, err := c.roundTrip(ctx, operation, method, path, in, out)

	metrics.UpstreamRequestDuration.WithLabelValues(operation).Observe(time.Since(start).Seconds())
	metrics.UpstreamRequests.WithLabelValues(operation, metrics.StatusClass(status)).Inc()

	span.SetAttributes(
		attribute.String("http.method", method),
		attribute.Int("http.status_code", status),
	)
	if err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, operation+" failed")
	}

	return status, err
}

func (c *Client) roundTrip(ctx context.Context, operation, method, path string, in, out interface{}) (int, error) {
	var reqBody io.Reader
	if in != nil {
		jsonData, err := json.Marshal(in)
		if err != nil {
			return 0, fmt.Errorf("failed to marshal %s request: %w", operation, err)
		}
		reqBody = bytes.NewReader(jsonData)
	}

	req, err := http.NewRequestWithContext(ctx, method, c.baseURL+path, reqBody)
	if err != nil {
		return 0, fmt.Errorf("failed to create request: %w", err)
	}

	req.Header.Set("Accept", "application/json")
	req.Header.Set("api-key", c.apiKey)
	if in != nil {
		req.Header.Set("Content-Type", "application/json")
	}

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return 0, fmt.Errorf("failed to execute %s request: %w", operation, err)
	}
	defer resp.Body.Close()

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return resp.StatusCode, fmt.Errorf("failed to read response body: %w", err)
	}

	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		apiErr := &APIError{Operation: operation, StatusCode: resp.StatusCode, Body: string(body)}
		_ = json.Unmarshal(body, apiErr)
		return resp.StatusCode, apiErr
	}

	if out != nil && len(bytes.TrimSpace(body)) > 0 {
		if err := json.Unmarshal(body, out); err != nil {
			return resp.StatusCode, fmt.Errorf("failed to unmarshal %s response: %w", operation, err)
		}
	}

	return resp.StatusCode, nil
}
