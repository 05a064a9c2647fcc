package partnership

import (
	"lead-intake/internal/common/errors"
	"lead-intake/internal/common/validation"
	"lead-intake/internal/models"
)

const msgMissingFields = "Missing required fields"

var inputValidator = validation.MustCompile(GetInputSchema())

func GetInputSchema() validation.JSONSchema {
	return validation.JSONSchema{
		Type:     "object",
		Required: []string{"firstName", "lastName", "email"},
		Properties: map[string]validation.Property{
			"firstName": validation.Present(),
			"lastName":  validation.Present(),
			"email":     validation.Present(),
		},
	}
}

// ParseInput checks the required fields and reads the optional ones.
// Optional fields of any JSON type are accepted and stringified.
func ParseInput(payload models.SubmissionPayload) (*Input, error) {
	result := inputValidator.Validate(payload)
	if !result.Valid {
		return nil, errors.NewValidationError(msgMissingFields, result.Fields())
	}

	return &Input{
		FirstName:            payload.String("firstName"),
		LastName:             payload.String("lastName"),
		Email:                payload.String("email"),
		Phone:                payload.String("phone"),
		Company:              payload.String("company"),
		PartnershipType:      payload.String("partnershipType"),
		InvestmentExperience: payload.String("investmentExperience"),
		InvestmentAmount:     payload.String("investmentAmount"),
		Timeframe:            payload.String("timeframe"),
		Message:              payload.String("message"),
	}, nil
}
