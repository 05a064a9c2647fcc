package newsletter

import (
	"lead-intake/internal/common/logger"
	"lead-intake/internal/forms"
)

type Input struct {
	Email string `json:"email"`
}

// Output is what Execute hands back to the handler. Response is the
// wire form.
type Output struct {
	ContactID         string
	AlreadySubscribed bool
	Message           string
}

// Response is the body of a 200 reply.
type Response struct {
	Message string `json:"message"`
}

// notificationData feeds the operator notification template.
type notificationData struct {
	Email             string
	AlreadySubscribed bool
}

type ServiceDependencies struct {
	Logger   logger.Logger
	CRM      forms.ContactUpserter
	Notifier forms.Notifier
}
