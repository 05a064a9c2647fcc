// internal/models/delivery.go
package models

import "time"

// DeliveryFailure describes a transactional email or SMS alert that could not
// be handed to its transport. Failures are kept for operator follow-up.
type DeliveryFailure struct {
	SubmissionID string    `json:"submissionId"`
	Form         FormType  `json:"form"`
	Channel      string    `json:"channel"` // "email" or "sms"
	Template     string    `json:"template"`
	Recipient    string    `json:"recipient"`
	Error        string    `json:"error"`
	FailedAt     time.Time `json:"failedAt"`
}
