package server

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type checkInPayload struct {
	QRCode string `validate:"required,min=8"`
}

func TestValidateStruct_ReportsMissingFields(t *testing.T) {
	errs := ValidateStruct(checkInPayload{})

	require.Len(t, errs, 1)
	assert.Equal(t, "QRCode", errs[0].Field)
	assert.Equal(t, "required", errs[0].Tag)
	assert.Equal(t, "QRCode is required", errs[0].Message)
}

func TestValidateStruct_ReportsMinLength(t *testing.T) {
	errs := ValidateStruct(checkInPayload{QRCode: "short"})

	require.Len(t, errs, 1)
	assert.Equal(t, "min", errs[0].Tag)
	assert.Equal(t, "QRCode must be at least 8 characters", errs[0].Message)
}

func TestValidateStruct_Valid(t *testing.T) {
	errs := ValidateStruct(checkInPayload{QRCode: "ABCDEFGH12345678"})
	assert.Empty(t, errs)
}
