package service

import (
	"context"
	"errors"
	"fmt"
	"slices"

	"github.com/utafrali/FocusGate/internal/domain"
	apperrors "github.com/utafrali/FocusGate/pkg/errors"
)

// SettingsUpdate carries the fields of a settings change. Nil fields keep
// their current value.
type SettingsUpdate struct {
	ChallengesEnabled     *bool
	AllowedTypes          []domain.ChallengeType
	Difficulty            *int
	CooldownMinutes       *int
	MaxUnlocksPerSession  *int
	UnlockDurationMinutes *int
}

// MaxUnlockDurationMinutes bounds a single unlock.
const MaxUnlockDurationMinutes = 240

func (e *Engine) settingsFor(ctx context.Context, userID string) (*domain.Settings, error) {
	s, err := e.store.Settings().Get(ctx, userID)
	if err != nil {
		if errors.Is(err, apperrors.ErrNotFound) {
			return domain.DefaultSettings(userID), nil
		}
		return nil, fmt.Errorf("get settings: %w", err)
	}
	return s, nil
}

// Settings returns the user's gating settings, or the defaults when the
// user never saved any.
func (e *Engine) Settings(ctx context.Context, userID string) (*domain.Settings, error) {
	return e.settingsFor(ctx, userID)
}

// UpdateSettings applies u to the user's settings and stores the result.
func (e *Engine) UpdateSettings(ctx context.Context, userID string, u SettingsUpdate) (*domain.Settings, error) {
	var updated *domain.Settings
	err := e.withUserLock(ctx, userID, func() error {
		s, err := e.settingsFor(ctx, userID)
		if err != nil {
			return err
		}

		if u.ChallengesEnabled != nil {
			s.ChallengesEnabled = *u.ChallengesEnabled
		}
		if u.AllowedTypes != nil {
			s.AllowedTypes = slices.Compact(slices.Sorted(slices.Values(u.AllowedTypes)))
		}
		if u.Difficulty != nil {
			s.Difficulty = *u.Difficulty
		}
		if u.CooldownMinutes != nil {
			s.CooldownMinutes = *u.CooldownMinutes
		}
		if u.MaxUnlocksPerSession != nil {
			s.MaxUnlocksPerSession = *u.MaxUnlocksPerSession
		}
		if u.UnlockDurationMinutes != nil {
			s.UnlockDurationMinutes = *u.UnlockDurationMinutes
		}
		if err := validateSettings(s); err != nil {
			return err
		}

		s.UpdatedAt = e.now()
		if err := e.store.Settings().Upsert(ctx, s); err != nil {
			return fmt.Errorf("save settings: %w", err)
		}
		updated = s
		return nil
	})
	if err != nil {
		return nil, err
	}
	return updated, nil
}

func validateSettings(s *domain.Settings) error {
	if len(s.AllowedTypes) == 0 {
		return apperrors.InvalidInput("at least one challenge type must be allowed")
	}
	for _, t := range s.AllowedTypes {
		if !domain.IsValidChallengeType(t) {
			return apperrors.InvalidInput(fmt.Sprintf("unknown challenge type %q", t))
		}
	}
	switch {
	case s.Difficulty < domain.MinDifficulty || s.Difficulty > domain.MaxDifficulty:
		return apperrors.InvalidInput(fmt.Sprintf("difficulty must be between %d and %d", domain.MinDifficulty, domain.MaxDifficulty))
	case s.CooldownMinutes < 0:
		return apperrors.InvalidInput("cooldownMinutes must not be negative")
	case s.MaxUnlocksPerSession < 0:
		return apperrors.InvalidInput("maxUnlocksPerSession must not be negative")
	case s.UnlockDurationMinutes < 1 || s.UnlockDurationMinutes > MaxUnlockDurationMinutes:
		return apperrors.InvalidInput(fmt.Sprintf("unlockDurationMinutes must be between 1 and %d", MaxUnlockDurationMinutes))
	}
	return nil
}

// Progress returns the user's progression, starting at level 1 for users
// with no history.
func (e *Engine) Progress(ctx context.Context, userID string) (*domain.Progress, error) {
	p, err := e.store.Progress().Get(ctx, userID)
	if err != nil {
		if errors.Is(err, apperrors.ErrNotFound) {
			return domain.NewProgress(userID), nil
		}
		return nil, fmt.Errorf("get progress: %w", err)
	}
	return p, nil
}
