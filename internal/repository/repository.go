package repository

import (
	"context"
	"time"

	"github.com/utafrali/FocusGate/internal/domain"
)

// SessionRepository persists focus sessions.
type SessionRepository interface {
	// Create inserts a new open session. A second open session for the same
	// user fails with apperrors.ErrAlreadyExists.
	Create(ctx context.Context, s *domain.FocusSession) error

	// GetByID retrieves a session by its identifier.
	GetByID(ctx context.Context, id string) (*domain.FocusSession, error)

	// GetOpenByUser returns the user's open session or apperrors.ErrNotFound.
	GetOpenByUser(ctx context.Context, userID string) (*domain.FocusSession, error)

	// Close sets the end timestamp and duration of an open session. It fails
	// with apperrors.ErrConflict when the session is already closed.
	Close(ctx context.Context, id string, endedAt time.Time, durationMinutes int) (*domain.FocusSession, error)

	// IncrementDistractions bumps the distraction count of an open session.
	IncrementDistractions(ctx context.Context, id string) (*domain.FocusSession, error)
}

// ChallengeRepository persists issued challenges.
type ChallengeRepository interface {
	// Create inserts a newly issued challenge.
	Create(ctx context.Context, c *domain.Challenge) error

	// GetByID retrieves a challenge by its identifier.
	GetByID(ctx context.Context, id string) (*domain.Challenge, error)

	// GetLatestByUser returns the user's most recently created challenge.
	GetLatestByUser(ctx context.Context, userID string) (*domain.Challenge, error)

	// Complete records the verification outcome. Only the first call for a
	// challenge succeeds; later ones fail with apperrors.ErrConflict.
	Complete(ctx context.Context, id string, outcome domain.ChallengeOutcome) error
}

// UnlockRepository persists temporary unlocks. Every transition is a
// conditional update so concurrent callers never double-apply one.
type UnlockRepository interface {
	// Create inserts a granted unlock.
	Create(ctx context.Context, u *domain.TemporaryUnlock) error

	// GetByID retrieves an unlock by its identifier.
	GetByID(ctx context.Context, id string) (*domain.TemporaryUnlock, error)

	// FindActive returns the latest-expiring unlock of userID for domain that
	// is valid at now and records the access on it. apperrors.ErrNotFound
	// when there is none.
	FindActive(ctx context.Context, userID, domain string, now time.Time) (*domain.TemporaryUnlock, error)

	// ListActive returns the unlocks of userID valid at now, soonest expiry first.
	ListActive(ctx context.Context, userID string, now time.Time) ([]domain.TemporaryUnlock, error)

	// CountBySession counts every unlock ever granted in a session,
	// whatever its current state.
	CountBySession(ctx context.Context, sessionID string) (int, error)

	// Revoke deactivates one unlock. It reports false when the unlock was
	// already inactive.
	Revoke(ctx context.Context, id string, reason domain.RevokeReason, now time.Time) (bool, error)

	// RevokeBySession deactivates every active unlock of a session.
	RevokeBySession(ctx context.Context, sessionID string, reason domain.RevokeReason, now time.Time) ([]domain.TemporaryUnlock, error)

	// SweepExpired deactivates every active unlock whose expiry is before
	// now and returns how many changed.
	SweepExpired(ctx context.Context, now time.Time) (int64, error)
}

// ProgressRepository persists user progression.
type ProgressRepository interface {
	// Get returns the user's progression or apperrors.ErrNotFound.
	Get(ctx context.Context, userID string) (*domain.Progress, error)

	// Update loads the user's progression (a fresh record when none exists),
	// applies fn and stores the result. Concurrent updates of the same user
	// are serialized so no increment is lost.
	Update(ctx context.Context, userID string, fn func(p *domain.Progress) error) (*domain.Progress, error)
}

// SettingsRepository persists gating settings.
type SettingsRepository interface {
	// Get returns the user's stored settings or apperrors.ErrNotFound.
	Get(ctx context.Context, userID string) (*domain.Settings, error)

	// Upsert creates or replaces the user's settings.
	Upsert(ctx context.Context, s *domain.Settings) error
}

// Store groups the repositories of one backend.
type Store interface {
	Sessions() SessionRepository
	Challenges() ChallengeRepository
	Unlocks() UnlockRepository
	Progress() ProgressRepository
	Settings() SettingsRepository

	// WithinTx runs fn against a Store whose writes commit together when fn
	// returns nil and are discarded otherwise.
	WithinTx(ctx context.Context, fn func(tx Store) error) error
}
