package funding

import (
	"strings"

	"lead-intake/internal/common/logger"
	"lead-intake/internal/forms"
)

type Input struct {
	FirstName       string   `json:"firstName"`
	LastName        string   `json:"lastName"`
	Email           string   `json:"email"`
	Phone           string   `json:"phone"`
	FundingGoal     string   `json:"fundingGoal"`
	PersonalIncome  string   `json:"personalIncome,omitempty"`
	BusinessOwner   string   `json:"businessOwner,omitempty"`
	BusinessRevenue string   `json:"businessRevenue,omitempty"`
	CreditScore     string   `json:"creditScore,omitempty"`
	CreditLimits    string   `json:"creditLimits,omitempty"`
	CreditProfile   []string `json:"creditProfile,omitempty"`
}

// CreditProfileText is the credit profile as one comma-separated value.
func (i Input) CreditProfileText() string {
	return strings.Join(i.CreditProfile, ", ")
}

// Output is what Execute hands back to the handler. It is not serialized;
// Response is the wire form.
type Output struct {
	ContactID string
	ListID    int64
}

// Response is the body of a 200 reply.
type Response struct {
	Success   bool   `json:"success"`
	Message   string `json:"message"`
	ContactID string `json:"contactId,omitempty"`
}

// StepResponse is the body returned by the step validator.
type StepResponse struct {
	Step   int      `json:"step"`
	Valid  bool     `json:"valid"`
	Fields []string `json:"fields"`
}

// emailData feeds both funding templates.
type emailData struct {
	Input
	ContactID string
}

type ServiceDependencies struct {
	Logger   logger.Logger
	CRM      forms.ContactUpserter
	Notifier forms.Notifier
}
