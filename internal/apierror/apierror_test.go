package apierror_test

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/ecocollect/ecocollect/internal/apierror"
)

func TestFromResponse_StatusMapping(t *testing.T) {
	tests := []struct {
		name    string
		status  int
		body    string
		kind    apierror.Kind
		message string
	}{
		{"bad request", 400, `{"error":{"message":"weight is required"}}`, apierror.KindValidation, "Bad Request: weight is required"},
		{"bad request already tagged", 400, `{"message":"400: malformed"}`, apierror.KindValidation, "400: malformed"},
		{"unauthorized", 401, `{"error":{"message":"token expired"}}`, apierror.KindUnauthorized, apierror.MsgUnauthorized},
		{"unauthorized empty body", 401, ``, apierror.KindUnauthorized, apierror.MsgUnauthorized},
		{"forbidden", 403, `{}`, apierror.KindForbidden, apierror.MsgForbidden},
		{"not found", 404, `{"detail":"no pickup"}`, apierror.KindNotFound, apierror.MsgNotFound},
		{"unprocessable", 422, `{"detail":"address too short"}`, apierror.KindValidation, "Validation Error: address too short"},
		{"server", 500, `{"error":{"message":"db down"}}`, apierror.KindServer, apierror.MsgServer},
		{"bad gateway", 502, ``, apierror.KindServer, apierror.MsgUnavailable},
		{"unavailable", 503, ``, apierror.KindServer, apierror.MsgUnavailable},
		{"gateway timeout", 504, ``, apierror.KindServer, apierror.MsgUnavailable},
		{"conflict", 409, `{"error":{"message":"already cancelled","code":"CONFLICT"}}`, apierror.KindClient, "already cancelled"},
		{"no message", 418, `not json`, apierror.KindClient, apierror.DefaultMessage},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := apierror.FromResponse("GET /x/", tt.status, []byte(tt.body))
			assert.Equal(t, tt.kind, err.Kind)
			assert.Equal(t, tt.message, err.Error())
			assert.Equal(t, tt.status, err.Status)
		})
	}
}

func TestParseBody_LookupOrder(t *testing.T) {
	msg, code := apierror.ParseBody([]byte(`{"message":"top","error":{"message":"nested","code":"E1"},"detail":"d"}`))
	assert.Equal(t, "top", msg)
	assert.Equal(t, "E1", code)

	msg, code = apierror.ParseBody([]byte(`{"error":{"message":"nested","code":"E2"}}`))
	assert.Equal(t, "nested", msg)
	assert.Equal(t, "E2", code)

	msg, _ = apierror.ParseBody([]byte(`{"error":"flat"}`))
	assert.Equal(t, "flat", msg)

	msg, _ = apierror.ParseBody([]byte(`{"detail":"only detail"}`))
	assert.Equal(t, "only detail", msg)
}

func TestError_IsMatchesKind(t *testing.T) {
	err := fmt.Errorf("loading profile: %w", apierror.FromResponse("GET /auth/profile/", http.StatusUnauthorized, nil))

	assert.ErrorIs(t, err, apierror.ErrUnauthorized)
	assert.NotErrorIs(t, err, apierror.ErrNotFound)
	assert.Equal(t, apierror.KindUnauthorized, apierror.KindOf(err))
	assert.Equal(t, apierror.KindUnknown, apierror.KindOf(errors.New("plain")))
}

func TestNetwork_Unwraps(t *testing.T) {
	err := apierror.Network("GET /pickups/my/", context.DeadlineExceeded)
	assert.ErrorIs(t, err, context.DeadlineExceeded)
	assert.ErrorIs(t, err, apierror.ErrNetwork)
	assert.Equal(t, "network", err.Kind.String())
}

func TestNormalize(t *testing.T) {
	apiErr := apierror.FromResponse("POST /pickups/request/", 422, []byte(`{"error":{"message":"bad date","code":"INVALID"}}`))
	got := apierror.Normalize(apiErr, "Failed to request pickup")
	assert.Equal(t, "Validation Error: bad date", got.Message)
	assert.Equal(t, "INVALID", got.Code)
	assert.Equal(t, 422, got.Status)

	got = apierror.Normalize(nil, "Login failed")
	assert.Equal(t, "Login failed", got.Message)

	got = apierror.Normalize(errors.New(""), "Login failed")
	assert.Equal(t, "Login failed", got.Message)

	got = apierror.Normalize(context.Canceled, "")
	assert.Equal(t, apierror.KindNetwork, got.Kind)

	wrapped := fmt.Errorf("ctx: %w", apierror.ServiceError{Message: "kept", Code: "K"})
	got = apierror.Normalize(wrapped, "x")
	require.Equal(t, "K", got.Code)
	assert.Equal(t, "kept", apierror.Message(wrapped, "x"))
}
