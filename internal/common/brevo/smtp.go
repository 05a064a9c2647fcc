package brevo

import (
	"context"
	"fmt"
	"net/http"

	"lead-intake/internal/models"
)

type sendEmailResponse struct {
	MessageID string `json:"messageId"`
}

// SendEmail submits one transactional email and returns Brevo's message id.
func (c *Client) SendEmail(ctx context.Context, email *models.NotificationEmail) (string, error) {
	if email == nil || len(email.To) == 0 {
		return "", fmt.Errorf("email has no recipients")
	}

	var resp sendEmailResponse
	if _, err := c.do(ctx, OpSendEmail, http.MethodPost, "/smtp/email", email, &resp); err != nil {
		return "", err
	}
	return resp.MessageID, nil
}
