package common

import (
	"errors"
	"fmt"
	"testing"

	"github.com/stretchr/testify/assert"
	"google.golang.org/grpc/codes"
	"google.golang.org/grpc/status"
)

func TestErrorCodeThroughWrapping(t *testing.T) {
	base := NewAppError(CodeVehicleNotInCatalog, "vehicle Fiat Ducato not found", ErrNotFound)
	wrapped := fmt.Errorf("crossref: %w", base)

	assert.Equal(t, CodeVehicleNotInCatalog, ErrorCode(wrapped))
	assert.True(t, HasCode(wrapped, CodeVehicleNotInCatalog))
	assert.True(t, errors.Is(wrapped, ErrNotFound))
	assert.Equal(t, "", ErrorCode(errors.New("plain")))
}

func TestToGRPCStatus(t *testing.T) {
	cases := []struct {
		err  error
		want codes.Code
	}{
		{NewAppError(CodeEmptyInput, "empty", ErrInvalidInput), codes.InvalidArgument},
		{NewAppError(CodeVehicleNotInCatalog, "missing", ErrNotFound), codes.NotFound},
		{NewAppError(CodeInvalidJSON, "bad json", nil), codes.FailedPrecondition},
		{NewAppError(CodeCompletion, "timeout", ErrUpstream), codes.Unavailable},
		{NewAppError(CodeDocumentWrite, "disk full", nil), codes.Internal},
		{fmt.Errorf("lookup: %w", ErrNotFound), codes.NotFound},
		{errors.New("boom"), codes.Internal},
	}
	for _, tc := range cases {
		st, ok := status.FromError(ToGRPCStatus(tc.err))
		assert.True(t, ok)
		assert.Equal(t, tc.want, st.Code(), tc.err.Error())
	}

	already := status.Error(codes.PermissionDenied, "no")
	assert.Equal(t, already, ToGRPCStatus(already))
	assert.Nil(t, ToGRPCStatus(nil))
}

func TestValidatorCollectsMissingFields(t *testing.T) {
	v := NewValidator().
		Field("client.name", "  ", Required).
		Field("vehicle.cargo_volume", 0.0, Required, NonZero).
		Field("unit.model", nil, Required).
		Field("vehicle.brand", "Fiat", Required)

	assert.True(t, v.HasErrors())
	var fields []string
	for _, e := range v.Errors() {
		fields = append(fields, e.Field)
	}
	assert.Equal(t, []string{"client.name", "vehicle.cargo_volume", "unit.model"}, fields)
	assert.Error(t, v.Error())
}

func TestConfigValidate(t *testing.T) {
	t.Setenv("OPENAI_API_KEY", "sk-test")
	cfg := LoadConfig()
	assert.NoError(t, cfg.Validate())

	cfg.Pricing.RequiredFieldsPolicy = "ignore"
	assert.True(t, HasCode(cfg.Validate(), CodeConfig))

	cfg = LoadConfig()
	cfg.Pricing.Currency = "zl"
	assert.True(t, HasCode(cfg.Validate(), CodeConfig))
}

func TestListEnv(t *testing.T) {
	t.Setenv("OFFER_PHOTOS", " a.jpg, ,b.png ")
	assert.Equal(t, []string{"a.jpg", "b.png"}, LoadConfig().Document.PhotoPaths)
	t.Setenv("OFFER_PHOTOS", "-")
	assert.Empty(t, LoadConfig().Document.PhotoPaths)
}
