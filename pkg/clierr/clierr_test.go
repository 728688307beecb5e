package clierr_test

import (
	"errors"
	"testing"

	"github.com/austin-smith/fusion-bridge/pkg/clierr"
	"github.com/stretchr/testify/assert"
)

func TestErrorMessageAndUnwrap(t *testing.T) {
	underlying := errors.New("boom")
	err := clierr.New(clierr.Connection, "connection test failed", underlying)

	assert.Equal(t, "connection test failed", err.Error())
	assert.Equal(t, clierr.Connection, err.Type)
	assert.ErrorIs(t, err, underlying)
}

func TestErrorWithoutCause(t *testing.T) {
	err := clierr.New(clierr.Validation, "name cannot be empty", nil)
	assert.Equal(t, "name cannot be empty", err.Error())
	assert.Nil(t, errors.Unwrap(err))
}
