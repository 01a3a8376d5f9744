package apperr

import (
	"errors"
	"fmt"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestIsFatal_WrappedConfigurationError(t *testing.T) {
	err := fmt.Errorf("failed to create envelope: %w", &ConfigurationError{Message: "template not found"})

	assert.True(t, IsFatal(err))
	assert.False(t, IsFatal(errors.New("boom")))
}

func TestIsNotFound(t *testing.T) {
	err := &NotFoundError{Kind: "applicant", Key: "a@example.com"}

	assert.True(t, IsNotFound(fmt.Errorf("lookup: %w", err)))
	assert.Equal(t, "applicant not found: a@example.com", err.Error())
}

func TestIsTransient_Unwrap(t *testing.T) {
	cause := errors.New("connection reset")
	err := &TransientIOError{Op: "get envelope", Cause: cause}

	assert.True(t, IsTransient(err))
	assert.ErrorIs(t, err, cause)
	assert.Contains(t, err.Error(), "get envelope")
}

func TestDataIntegrityError_Message(t *testing.T) {
	err := &DataIntegrityError{Field: "Start Date", Value: "13/45/2020"}
	assert.Equal(t, `invalid Start Date "13/45/2020"`, err.Error())
}
