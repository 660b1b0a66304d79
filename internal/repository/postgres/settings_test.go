package postgres

import (
	"context"
	"testing"

	"github.com/jackc/pgx/v5"
	pgxmock "github.com/pashagolub/pgxmock/v4"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/utafrali/FocusGate/internal/domain"
	apperrors "github.com/utafrali/FocusGate/pkg/errors"
)

var settingsCols = []string{
	"user_id", "challenges_enabled", "allowed_types", "difficulty", "cooldown_minutes",
	"max_unlocks_per_session", "unlock_duration_minutes", "updated_at",
}

func TestSettingsRepository_Get(t *testing.T) {
	mock := setupMock(t)
	repo := NewSettingsRepository(mock)

	mock.ExpectQuery("SELECT .+ FROM gating_settings").
		WithArgs("u-1").
		WillReturnRows(pgxmock.NewRows(settingsCols).
			AddRow("u-1", true, []string{"arithmetic", "typing"}, 3, 0, 5, 15, testNow))

	s, err := repo.Get(context.Background(), "u-1")
	require.NoError(t, err)
	assert.Equal(t, []domain.ChallengeType{domain.ChallengeArithmetic, domain.ChallengeTyping}, s.AllowedTypes)
	assert.Equal(t, 0, s.CooldownMinutes)
	assert.True(t, s.Allows(domain.ChallengeTyping))
	assert.False(t, s.Allows(domain.ChallengeMemory))
}

func TestSettingsRepository_Get_NotFound(t *testing.T) {
	mock := setupMock(t)
	repo := NewSettingsRepository(mock)

	mock.ExpectQuery("SELECT .+ FROM gating_settings").
		WithArgs("u-1").
		WillReturnError(pgx.ErrNoRows)

	_, err := repo.Get(context.Background(), "u-1")
	assert.ErrorIs(t, err, apperrors.ErrNotFound)
}

func TestSettingsRepository_Upsert(t *testing.T) {
	mock := setupMock(t)
	repo := NewSettingsRepository(mock)

	s := domain.DefaultSettings("u-1")
	s.AllowedTypes = []domain.ChallengeType{domain.ChallengePuzzle}
	s.UpdatedAt = testNow

	mock.ExpectExec("INSERT INTO gating_settings .+ ON CONFLICT").
		WithArgs("u-1", true, []string{"puzzle"}, 2, 5, 3, 10, testNow).
		WillReturnResult(pgxmock.NewResult("INSERT", 1))

	require.NoError(t, repo.Upsert(context.Background(), s))
	assert.NoError(t, mock.ExpectationsWereMet())
}
