package partnership

import (
	"lead-intake/internal/common/logger"
	"lead-intake/internal/forms"
)

type Input struct {
	FirstName            string `json:"firstName"`
	LastName             string `json:"lastName"`
	Email                string `json:"email"`
	Phone                string `json:"phone,omitempty"`
	Company              string `json:"company,omitempty"`
	PartnershipType      string `json:"partnershipType,omitempty"`
	InvestmentExperience string `json:"investmentExperience,omitempty"`
	InvestmentAmount     string `json:"investmentAmount,omitempty"`
	Timeframe            string `json:"timeframe,omitempty"`
	Message              string `json:"message,omitempty"`
}

// Output is what Execute hands back to the handler. It is not serialized;
// Response is the wire form.
type Output struct {
	ContactID string
	ListID    int64
	Route     string
}

// Response is the body of a 200 reply.
type Response struct {
	Success   bool   `json:"success"`
	Message   string `json:"message"`
	ContactID string `json:"contactId,omitempty"`
}

// emailData feeds both partnership templates.
type emailData struct {
	Input
	ContactID string
}

type ServiceDependencies struct {
	Logger   logger.Logger
	CRM      forms.ContactUpserter
	Notifier forms.Notifier
}
