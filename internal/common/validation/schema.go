package validation

import (
	"encoding/json"
	"fmt"
	"regexp"
	"sort"
	"strings"

	"github.com/xeipuuv/gojsonschema"
)

// EmailPattern accepts local@domain.tld shapes: non-space, non-@ runs
// around a single @ and a dot in the domain part.
const EmailPattern = `^[^\s@]+@[^\s@]+\.[^\s@]+$`

var emailRegex = regexp.MustCompile(EmailPattern)

const (
	CodeRequiredFieldMissing = "REQUIRED_FIELD_MISSING"
	CodeInvalidType          = "INVALID_TYPE"
	CodePatternMismatch      = "PATTERN_MISMATCH"
	CodeInvalidValue         = "INVALID_VALUE"
)

// JSONSchema is the subset of JSON Schema draft-07 used by form validators.
type JSONSchema struct {
	Type       string              `json:"type,omitempty"`
	Properties map[string]Property `json:"properties,omitempty"`
	Required   []string            `json:"required,omitempty"`
	If         *JSONSchema         `json:"if,omitempty"`
	Then       *JSONSchema         `json:"then,omitempty"`
}

type Property struct {
	Type      string        `json:"type,omitempty"`
	Const     interface{}   `json:"const,omitempty"`
	Enum      []interface{} `json:"enum,omitempty"`
	Not       *Property     `json:"not,omitempty"`
	Pattern   string        `json:"pattern,omitempty"`
	MinLength *int          `json:"minLength,omitempty"`
	MinItems  *int          `json:"minItems,omitempty"`
	Items     *Property     `json:"items,omitempty"`
}

type ValidationResult struct {
	Valid  bool              `json:"valid"`
	Errors []ValidationError `json:"errors,omitempty"`
}

type ValidationError struct {
	Field   string `json:"field"`
	Message string `json:"message"`
	Code    string `json:"code,omitempty"`
}

// Validator validates submission payloads against a compiled schema.
type Validator struct {
	schema *gojsonschema.Schema
}

// Compile builds a Validator from schema.
func Compile(schema JSONSchema) (*Validator, error) {
	if schema.Type == "" {
		schema.Type = "object"
	}
	compiled, err := gojsonschema.NewSchema(gojsonschema.NewGoLoader(schema))
	if err != nil {
		return nil, fmt.Errorf("compile schema: %w", err)
	}
	return &Validator{schema: compiled}, nil
}

// MustCompile is like Compile but panics on an invalid schema. Use it for
// schemas declared at package level.
func MustCompile(schema JSONSchema) *Validator {
	v, err := Compile(schema)
	if err != nil {
		panic(err)
	}
	return v
}

// Validate checks input and reports one error per offending field.
func (v *Validator) Validate(input map[string]interface{}) *ValidationResult {
	if input == nil {
		input = map[string]interface{}{}
	}

	result, err := v.schema.Validate(gojsonschema.NewGoLoader(input))
	if err != nil {
		return &ValidationResult{
			Valid: false,
			Errors: []ValidationError{{
				Field:   "(root)",
				Message: err.Error(),
				Code:    CodeInvalidType,
			}},
		}
	}
	if result.Valid() {
		return &ValidationResult{Valid: true}
	}

	seen := make(map[string]bool)
	errors := []ValidationError{}
	for _, re := range result.Errors() {
		field, code, ok := classify(re, input)
		if !ok || seen[field] {
			continue
		}
		seen[field] = true
		errors = append(errors, ValidationError{
			Field:   field,
			Message: re.Description(),
			Code:    code,
		})
	}

	return &ValidationResult{Valid: len(errors) == 0, Errors: errors}
}

// classify maps a gojsonschema error to the offending field and an error
// code. Errors that only describe schema combinators are dropped.
func classify(re gojsonschema.ResultError, input map[string]interface{}) (string, string, bool) {
	switch re.Type() {
	case "required":
		prop, _ := re.Details()["property"].(string)
		if prop == "" {
			return "", "", false
		}
		return prop, CodeRequiredFieldMissing, true
	case "string_gte", "array_min_items", "number_not":
		return re.Field(), CodeRequiredFieldMissing, true
	case "invalid_type":
		field := re.Field()
		if input[field] == nil {
			return field, CodeRequiredFieldMissing, true
		}
		return field, CodeInvalidType, true
	case "pattern":
		return re.Field(), CodePatternMismatch, true
	case "const", "enum":
		return re.Field(), CodeInvalidValue, true
	default:
		if re.Field() == "(root)" {
			return "", "", false
		}
		return re.Field(), CodeInvalidValue, true
	}
}

// Fields returns the offending field names in sorted order.
func (r *ValidationResult) Fields() []string {
	out := make([]string, 0, len(r.Errors))
	for _, e := range r.Errors {
		out = append(out, e.Field)
	}
	sort.Strings(out)
	return out
}

// HasCode reports whether any error on field carries code.
func (r *ValidationResult) HasCode(field, code string) bool {
	for _, e := range r.Errors {
		if e.Field == field && e.Code == code {
			return true
		}
	}
	return false
}

// GetErrorMessages returns a flattened list of error messages.
func (r *ValidationResult) GetErrorMessages() []string {
	messages := make([]string, len(r.Errors))
	for i, err := range r.Errors {
		messages[i] = fmt.Sprintf("%s: %s", err.Field, err.Message)
	}
	return messages
}

// ValidateEmail checks the local@domain.tld shape. No MX lookup is made.
func ValidateEmail(email string) bool {
	return emailRegex.MatchString(email)
}

// blankValues are the JSON values a browser form treats as not filled in.
var blankValues = []interface{}{nil, "", false, 0}

// Present accepts any value other than null, "", false and 0, whatever
// its JSON type. Numbers and booleans are stringified later.
func Present() Property {
	return Property{Not: &Property{Enum: blankValues}}
}

// EmailString is a non-empty string property matching EmailPattern.
func EmailString() Property {
	return Property{Type: "string", MinLength: intPtr(1), Pattern: EmailPattern}
}

// NonEmptyStringArray is an array with at least one string item.
func NonEmptyStringArray() Property {
	return Property{Type: "array", MinItems: intPtr(1), Items: &Property{Type: "string"}}
}

// String renders the schema as JSON, mainly for debugging.
func (s JSONSchema) String() string {
	b, err := json.Marshal(s)
	if err != nil {
		return ""
	}
	return strings.TrimSpace(string(b))
}

func intPtr(i int) *int { return &i }
