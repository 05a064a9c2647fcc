// internal/common/aws/ses.go
package aws

import (
	"context"
	"fmt"
	"net/mail"

	"lead-intake/internal/models"

	"github.com/aws/aws-sdk-go-v2/aws"
	"github.com/aws/aws-sdk-go-v2/config"
	"github.com/aws/aws-sdk-go-v2/service/ses"
	"github.com/aws/aws-sdk-go-v2/service/ses/types"
)

// LoadConfig resolves credentials from the default chain for region.
func LoadConfig(ctx context.Context, region string) (aws.Config, error) {
	cfg, err := config.LoadDefaultConfig(ctx, config.WithRegion(region))
	if err != nil {
		return aws.Config{}, fmt.Errorf("load AWS config: %w", err)
	}
	return cfg, nil
}

// SESService is the subset of the SES client used here.
type SESService interface {
	SendEmail(ctx context.Context, params *ses.SendEmailInput, optFns ...func(*ses.Options)) (*ses.SendEmailOutput, error)
}

// SESSender delivers transactional emails through Amazon SES.
type SESSender struct {
	client SESService
}

func NewSESSender(cfg aws.Config) *SESSender {
	return &SESSender{client: ses.NewFromConfig(cfg)}
}

func NewSESSenderWithClient(client SESService) *SESSender {
	return &SESSender{client: client}
}

// SendEmail sends email and returns the SES message id.
func (s *SESSender) SendEmail(ctx context.Context, email *models.NotificationEmail) (string, error) {
	if email == nil || len(email.To) == 0 {
		return "", fmt.Errorf("email has no recipients")
	}

	to := make([]string, 0, len(email.To))
	for _, a := range email.To {
		to = append(to, formatAddress(a))
	}

	out, err := s.client.SendEmail(ctx, &ses.SendEmailInput{
		Destination: &types.Destination{
			ToAddresses: to,
		},
		Message: &types.Message{
			Subject: &types.Content{Data: aws.String(email.Subject), Charset: aws.String("UTF-8")},
			Body: &types.Body{
				Html: &types.Content{Data: aws.String(email.HTMLBody), Charset: aws.String("UTF-8")},
			},
		},
		Source: aws.String(formatAddress(email.Sender)),
	})
	if err != nil {
		return "", fmt.Errorf("ses send failed: %w", err)
	}
	return aws.ToString(out.MessageId), nil
}

func formatAddress(a models.Address) string {
	return (&mail.Address{Name: a.Name, Address: a.Email}).String()
}
