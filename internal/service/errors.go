package service

import (
	"net/http"

	apperrors "github.com/utafrali/FocusGate/pkg/errors"
)

// Rejection codes returned to clients.
const (
	CodeNoActiveSession     = "NO_ACTIVE_SESSION"
	CodeChallengesDisabled  = "CHALLENGES_DISABLED"
	CodeTypeNotAllowed      = "TYPE_NOT_ALLOWED"
	CodeCooldownActive      = "COOLDOWN_ACTIVE"
	CodeUnlockCapReached    = "UNLOCK_CAP_REACHED"
	CodeAlreadyCompleted    = "ALREADY_COMPLETED"
	CodeSessionAlreadyOpen  = "SESSION_ALREADY_OPEN"
	CodeSessionAlreadyEnded = "SESSION_ALREADY_ENDED"
)

func errNoActiveSession() *apperrors.AppError {
	return apperrors.New(CodeNoActiveSession, http.StatusBadRequest, apperrors.ErrInvalidInput,
		"no active focus session")
}

func errChallengesDisabled() *apperrors.AppError {
	return apperrors.New(CodeChallengesDisabled, http.StatusForbidden, apperrors.ErrForbidden,
		"challenges are disabled for this user")
}

func errTypeNotAllowed(message string) *apperrors.AppError {
	return apperrors.New(CodeTypeNotAllowed, http.StatusBadRequest, apperrors.ErrInvalidInput, message)
}

func errCooldownActive(remainingSeconds int) *apperrors.AppError {
	return apperrors.TooManyRequests(CodeCooldownActive, "challenge cooldown is active").
		WithDetail("remainingSeconds", remainingSeconds)
}

func errUnlockCapReached(used, limit int) *apperrors.AppError {
	return apperrors.New(CodeUnlockCapReached, http.StatusForbidden, apperrors.ErrForbidden,
		"unlock limit for this session reached").
		WithDetail("used", used).
		WithDetail("max", limit)
}

func errAlreadyCompleted() *apperrors.AppError {
	return apperrors.Conflict(CodeAlreadyCompleted, "challenge already completed")
}

func errSessionAlreadyOpen() *apperrors.AppError {
	return apperrors.Conflict(CodeSessionAlreadyOpen, "a focus session is already open")
}

func errSessionAlreadyEnded() *apperrors.AppError {
	return apperrors.Conflict(CodeSessionAlreadyEnded, "focus session already ended")
}
