package postgres

import (
	"context"
	"errors"
	"fmt"

	"github.com/jackc/pgx/v5"

	"github.com/utafrali/FocusGate/internal/domain"
	"github.com/utafrali/FocusGate/pkg/database"
	apperrors "github.com/utafrali/FocusGate/pkg/errors"
)

const settingsColumns = `user_id, challenges_enabled, allowed_types, difficulty, cooldown_minutes,
		max_unlocks_per_session, unlock_duration_minutes, updated_at`

// SettingsRepository implements repository.SettingsRepository.
type SettingsRepository struct {
	db database.DBTX
}

// NewSettingsRepository creates a new PostgreSQL-backed settings repository.
func NewSettingsRepository(db database.DBTX) *SettingsRepository {
	return &SettingsRepository{db: db}
}

// Get returns the saved settings of a user.
func (r *SettingsRepository) Get(ctx context.Context, userID string) (*domain.Settings, error) {
	query := `SELECT ` + settingsColumns + ` FROM gating_settings WHERE user_id = $1`

	var (
		s       domain.Settings
		allowed []string
	)
	err := r.db.QueryRow(ctx, query, userID).Scan(
		&s.UserID,
		&s.ChallengesEnabled,
		&allowed,
		&s.Difficulty,
		&s.CooldownMinutes,
		&s.MaxUnlocksPerSession,
		&s.UnlockDurationMinutes,
		&s.UpdatedAt,
	)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, apperrors.ErrNotFound
		}
		return nil, fmt.Errorf("get settings: %w", err)
	}

	s.AllowedTypes = make([]domain.ChallengeType, 0, len(allowed))
	for _, t := range allowed {
		s.AllowedTypes = append(s.AllowedTypes, domain.ChallengeType(t))
	}
	return &s, nil
}

// Upsert saves the full settings record.
func (r *SettingsRepository) Upsert(ctx context.Context, s *domain.Settings) error {
	allowed := make([]string, 0, len(s.AllowedTypes))
	for _, t := range s.AllowedTypes {
		allowed = append(allowed, string(t))
	}

	query := `
		INSERT INTO gating_settings (user_id, challenges_enabled, allowed_types, difficulty,
			cooldown_minutes, max_unlocks_per_session, unlock_duration_minutes, updated_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8)
		ON CONFLICT (user_id) DO UPDATE SET
			challenges_enabled = EXCLUDED.challenges_enabled,
			allowed_types = EXCLUDED.allowed_types,
			difficulty = EXCLUDED.difficulty,
			cooldown_minutes = EXCLUDED.cooldown_minutes,
			max_unlocks_per_session = EXCLUDED.max_unlocks_per_session,
			unlock_duration_minutes = EXCLUDED.unlock_duration_minutes,
			updated_at = EXCLUDED.updated_at`

	_, err := r.db.Exec(ctx, query,
		s.UserID,
		s.ChallengesEnabled,
		allowed,
		s.Difficulty,
		s.CooldownMinutes,
		s.MaxUnlocksPerSession,
		s.UnlockDurationMinutes,
		s.UpdatedAt,
	)
	if err != nil {
		return fmt.Errorf("upsert settings: %w", err)
	}
	return nil
}
