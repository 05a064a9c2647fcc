package funding

import (
	"fmt"

	"lead-intake/internal/common/errors"
	"lead-intake/internal/common/validation"
	"lead-intake/internal/models"
)

const msgMissingFields = "Missing required fields"

var inputValidator = validation.MustCompile(GetInputSchema())

// GetInputSchema is the route's check. It deliberately leaves out the
// businessRevenue rule that step 1 enforces.
func GetInputSchema() validation.JSONSchema {
	return validation.JSONSchema{
		Type:     "object",
		Required: []string{"firstName", "lastName", "email", "phone", "fundingGoal"},
		Properties: map[string]validation.Property{
			"firstName":   validation.Present(),
			"lastName":    validation.Present(),
			"email":       validation.Present(),
			"phone":       validation.Present(),
			"fundingGoal": validation.Present(),
		},
	}
}

// ParseInput checks the required fields and reads the optional ones.
func ParseInput(payload models.SubmissionPayload) (*Input, error) {
	result := inputValidator.Validate(payload)
	if !result.Valid {
		return nil, errors.NewValidationError(msgMissingFields, result.Fields())
	}

	input := &Input{
		FirstName:       payload.String("firstName"),
		LastName:        payload.String("lastName"),
		Email:           payload.String("email"),
		Phone:           payload.String("phone"),
		FundingGoal:     payload.String("fundingGoal"),
		PersonalIncome:  payload.String("personalIncome"),
		BusinessOwner:   payload.String("businessOwner"),
		BusinessRevenue: payload.String("businessRevenue"),
		CreditScore:     payload.String("creditScore"),
		CreditLimits:    payload.String("creditLimits"),
	}
	// Only a JSON array counts as a credit profile.
	if _, ok := payload["creditProfile"].([]interface{}); ok {
		input.CreditProfile = payload.Strings("creditProfile")
	}
	return input, nil
}

// Steps of the multi-step application form.
const (
	StepFunding = 1
	StepCredit  = 2
	StepContact = 3
)

var stepValidators = map[int]*validation.Validator{
	StepFunding: validation.MustCompile(stepFundingSchema()),
	StepCredit:  validation.MustCompile(stepCreditSchema()),
	StepContact: validation.MustCompile(stepContactSchema()),
}

func stepFundingSchema() validation.JSONSchema {
	return validation.JSONSchema{
		Type:     "object",
		Required: []string{"fundingGoal", "personalIncome", "businessOwner"},
		Properties: map[string]validation.Property{
			"fundingGoal":    validation.Present(),
			"personalIncome": validation.Present(),
			"businessOwner":  validation.Present(),
		},
		If: &validation.JSONSchema{
			Required:   []string{"businessOwner"},
			Properties: map[string]validation.Property{"businessOwner": {Const: "own"}},
		},
		Then: &validation.JSONSchema{
			Required:   []string{"businessRevenue"},
			Properties: map[string]validation.Property{"businessRevenue": validation.Present()},
		},
	}
}

func stepCreditSchema() validation.JSONSchema {
	return validation.JSONSchema{
		Type:     "object",
		Required: []string{"creditScore", "creditLimits", "creditProfile"},
		Properties: map[string]validation.Property{
			"creditScore":   validation.Present(),
			"creditLimits":  validation.Present(),
			"creditProfile": validation.NonEmptyStringArray(),
		},
	}
}

func stepContactSchema() validation.JSONSchema {
	return validation.JSONSchema{
		Type:     "object",
		Required: []string{"firstName", "lastName", "email", "phone", "termsAccepted"},
		Properties: map[string]validation.Property{
			"firstName":     validation.Present(),
			"lastName":      validation.Present(),
			"email":         validation.Present(),
			"phone":         validation.Present(),
			"termsAccepted": {Const: true},
		},
	}
}

// ValidateStep runs the check for one step of the application form.
func ValidateStep(step int, payload models.SubmissionPayload) (*validation.ValidationResult, error) {
	v, ok := stepValidators[step]
	if !ok {
		return nil, errors.NewValidationError(fmt.Sprintf("Invalid step: %d", step), []string{"step"})
	}
	return v.Validate(payload), nil
}
