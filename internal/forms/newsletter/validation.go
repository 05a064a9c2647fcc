package newsletter

import (
	"lead-intake/internal/common/errors"
	"lead-intake/internal/common/validation"
	"lead-intake/internal/models"
)

const (
	msgEmailRequired = "Email is required"
	msgInvalidEmail  = "Invalid email format"
)

var inputValidator = validation.MustCompile(GetInputSchema())

func GetInputSchema() validation.JSONSchema {
	return validation.JSONSchema{
		Type:     "object",
		Required: []string{"email"},
		Properties: map[string]validation.Property{
			"email": validation.EmailString(),
		},
	}
}

// ParseInput validates payload and extracts the subscriber address.
func ParseInput(payload models.SubmissionPayload) (*Input, error) {
	result := inputValidator.Validate(payload)
	if result.Valid {
		return &Input{Email: payload.String("email")}, nil
	}
	if result.HasCode("email", validation.CodeRequiredFieldMissing) {
		return nil, errors.NewValidationError(msgEmailRequired, []string{"email"})
	}
	return nil, errors.NewValidationError(msgInvalidEmail, []string{"email"})
}
