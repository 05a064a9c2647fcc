// internal/common/aws/sns.go
package aws

import (
	"context"
	"fmt"

	"github.com/aws/aws-sdk-go-v2/aws"
	"github.com/aws/aws-sdk-go-v2/service/sns"
	"github.com/aws/aws-sdk-go-v2/service/sns/types"
)

type SNSService interface {
	Publish(ctx context.Context, params *sns.PublishInput, optFns ...func(*sns.Options)) (*sns.PublishOutput, error)
}

// SMSAlerter texts a fixed operator phone number through SNS.
type SMSAlerter struct {
	client SNSService
	phone  string
}

func NewSMSAlerter(cfg aws.Config, phone string) *SMSAlerter {
	return &SMSAlerter{client: sns.NewFromConfig(cfg), phone: phone}
}

func NewSMSAlerterWithClient(client SNSService, phone string) *SMSAlerter {
	return &SMSAlerter{client: client, phone: phone}
}

// Recipient returns the operator phone number.
func (a *SMSAlerter) Recipient() string {
	return a.phone
}

// Alert publishes message as a transactional SMS and returns the SNS id.
func (a *SMSAlerter) Alert(ctx context.Context, message string) (string, error) {
	out, err := a.client.Publish(ctx, &sns.PublishInput{
		PhoneNumber: aws.String(a.phone),
		Message:     aws.String(message),
		MessageAttributes: map[string]types.MessageAttributeValue{
			"AWS.SNS.SMS.SMSType": {
				DataType:    aws.String("String"),
				StringValue: aws.String("Transactional"),
			},
		},
	})
	if err != nil {
		return "", fmt.Errorf("sns publish failed: %w", err)
	}
	return aws.ToString(out.MessageId), nil
}
