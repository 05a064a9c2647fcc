package forms

import (
	"fmt"
	"testing"
	"time"
	_ "time/tzdata"

	"lead-intake/internal/common/errors"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestNewSubmissionID(t *testing.T) {
	id := NewSubmissionID()
	_, err := uuid.Parse(id)
	require.NoError(t, err)
	assert.NotEqual(t, id, NewSubmissionID())
}

func TestOutcomeLabel(t *testing.T) {
	assert.Equal(t, "success", OutcomeLabel(nil))
	assert.Equal(t, "validation_failed", OutcomeLabel(errors.NewValidationError("Email is required", []string{"email"})))
	assert.Equal(t, "configuration_missing", OutcomeLabel(errors.NewConfigurationError("brevo.api_key")))
	assert.Equal(t, "internal_error", OutcomeLabel(fmt.Errorf("boom")))
}

func TestSubmittedAt(t *testing.T) {
	denver, err := time.LoadLocation("America/Denver")
	require.NoError(t, err)

	ts := time.Date(2026, 3, 5, 14, 4, 5, 123000000, denver)
	assert.Equal(t, "2026-03-05T21:04:05.123Z", SubmittedAt(ts))
}

func TestFullName(t *testing.T) {
	assert.Equal(t, "Jane Doe", FullName("Jane", "Doe"))
	assert.Equal(t, "Jane", FullName("Jane", ""))
}
