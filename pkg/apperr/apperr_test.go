package apperr

import (
	"errors"
	"fmt"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestErrorMatchesKindAndCause(t *testing.T) {
	cause := errors.New("disk full")
	err := fmt.Errorf("store: %w", Storage("Upload failed", cause))

	assert.ErrorIs(t, err, ErrStorage)
	assert.ErrorIs(t, err, cause)
	assert.NotErrorIs(t, err, ErrValidation)
	assert.Equal(t, "Upload failed", Reason(err))
	assert.False(t, IsClientError(err))
}

func TestClientErrors(t *testing.T) {
	cases := []error{
		Validation("No file uploaded"),
		DuplicateContent("File already exists"),
		NotFound("Media not found"),
		Auth("Unauthorized"),
	}
	for _, err := range cases {
		assert.True(t, IsClientError(err), err.Error())
	}
	assert.Equal(t, "", Reason(errors.New("plain")))
}
