package errors

import (
	"errors"
	"fmt"
	"net/http"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestAppError_ErrorString(t *testing.T) {
	withCause := &AppError{Code: "INTERNAL_ERROR", Message: "something broke", Err: fmt.Errorf("db connection lost")}
	assert.Equal(t, "INTERNAL_ERROR: something broke: db connection lost", withCause.Error())

	bare := &AppError{Code: "NOT_FOUND", Message: "challenge not found"}
	assert.Equal(t, "NOT_FOUND: challenge not found", bare.Error())
}

func TestNotFound(t *testing.T) {
	err := NotFound("challenge", "abc-123")
	require.NotNil(t, err)
	assert.Equal(t, "NOT_FOUND", err.Code)
	assert.Equal(t, "challenge with id abc-123 not found", err.Message)
	assert.Equal(t, http.StatusNotFound, err.Status)
	assert.True(t, errors.Is(err, ErrNotFound))
}

func TestConflict_KeepsCallerCode(t *testing.T) {
	err := Conflict("ALREADY_COMPLETED", "challenge already completed")
	assert.Equal(t, "ALREADY_COMPLETED", err.Code)
	assert.Equal(t, http.StatusConflict, err.Status)
	assert.True(t, errors.Is(err, ErrConflict))
}

func TestTooManyRequests(t *testing.T) {
	err := TooManyRequests("COOLDOWN_ACTIVE", "wait")
	assert.Equal(t, http.StatusTooManyRequests, err.Status)
	assert.True(t, errors.Is(err, ErrRateLimited))
}

func TestWithDetail_DoesNotMutateOriginal(t *testing.T) {
	base := Forbidden("cap reached")
	withUsed := base.WithDetail("used", 3)
	withBoth := withUsed.WithDetail("max", 3)

	assert.Nil(t, base.Details)
	assert.Equal(t, map[string]any{"used": 3}, withUsed.Details)
	assert.Equal(t, map[string]any{"used": 3, "max": 3}, withBoth.Details)
	assert.True(t, errors.Is(withBoth, ErrForbidden))
}

func TestInternal_HidesCause(t *testing.T) {
	cause := errors.New("pq: relation does not exist")
	err := Internal(cause)
	assert.Equal(t, "an internal error occurred", err.Message)
	assert.ErrorIs(t, err, cause)
}

func TestHTTPStatus(t *testing.T) {
	tests := []struct {
		name string
		err  error
		want int
	}{
		{"app error", InvalidInput("bad"), http.StatusBadRequest},
		{"wrapped app error", fmt.Errorf("issue: %w", Forbidden("no")), http.StatusForbidden},
		{"not found sentinel", fmt.Errorf("get: %w", ErrNotFound), http.StatusNotFound},
		{"conflict sentinel", ErrConflict, http.StatusConflict},
		{"already exists sentinel", ErrAlreadyExists, http.StatusConflict},
		{"rate limited sentinel", ErrRateLimited, http.StatusTooManyRequests},
		{"unknown", errors.New("boom"), http.StatusInternalServerError},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, HTTPStatus(tt.err))
		})
	}
}

func TestCode(t *testing.T) {
	assert.Equal(t, "COOLDOWN_ACTIVE", Code(fmt.Errorf("wrap: %w", TooManyRequests("COOLDOWN_ACTIVE", "wait"))))
	assert.Equal(t, "", Code(ErrNotFound))
}
