package postgres

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
	pgxmock "github.com/pashagolub/pgxmock/v4"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/utafrali/FocusGate/internal/domain"
	apperrors "github.com/utafrali/FocusGate/pkg/errors"
)

var sessionCols = []string{"id", "user_id", "started_at", "ended_at", "duration_minutes", "distraction_count"}

func TestSessionRepository_Create(t *testing.T) {
	mock := setupMock(t)
	repo := NewSessionRepository(mock)

	mock.ExpectExec("INSERT INTO focus_sessions").
		WithArgs("s-1", "u-1", testNow, 0).
		WillReturnResult(pgxmock.NewResult("INSERT", 1))

	err := repo.Create(context.Background(), &domain.FocusSession{ID: "s-1", UserID: "u-1", StartedAt: testNow})
	require.NoError(t, err)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestSessionRepository_Create_SecondOpenSession(t *testing.T) {
	mock := setupMock(t)
	repo := NewSessionRepository(mock)

	mock.ExpectExec("INSERT INTO focus_sessions").
		WithArgs("s-2", "u-1", testNow, 0).
		WillReturnError(&pgconn.PgError{Code: "23505", ConstraintName: openSessionIndex})

	err := repo.Create(context.Background(), &domain.FocusSession{ID: "s-2", UserID: "u-1", StartedAt: testNow})
	assert.ErrorIs(t, err, apperrors.ErrAlreadyExists)
}

func TestSessionRepository_GetOpenByUser(t *testing.T) {
	mock := setupMock(t)
	repo := NewSessionRepository(mock)

	mock.ExpectQuery("SELECT .+ FROM focus_sessions WHERE user_id").
		WithArgs("u-1").
		WillReturnRows(pgxmock.NewRows(sessionCols).
			AddRow("s-1", "u-1", testNow, (*time.Time)(nil), (*int)(nil), 2))

	s, err := repo.GetOpenByUser(context.Background(), "u-1")
	require.NoError(t, err)
	assert.True(t, s.IsOpen())
	assert.Equal(t, 2, s.DistractionCount)
}

func TestSessionRepository_GetOpenByUser_None(t *testing.T) {
	mock := setupMock(t)
	repo := NewSessionRepository(mock)

	mock.ExpectQuery("SELECT .+ FROM focus_sessions WHERE user_id").
		WithArgs("u-1").
		WillReturnError(pgx.ErrNoRows)

	_, err := repo.GetOpenByUser(context.Background(), "u-1")
	assert.ErrorIs(t, err, apperrors.ErrNotFound)
}

func TestSessionRepository_Close(t *testing.T) {
	mock := setupMock(t)
	repo := NewSessionRepository(mock)

	ended := testNow.Add(42 * time.Minute)
	minutes := 42
	mock.ExpectQuery("UPDATE focus_sessions").
		WithArgs("s-1", ended, 42).
		WillReturnRows(pgxmock.NewRows(sessionCols).
			AddRow("s-1", "u-1", testNow, &ended, &minutes, 0))

	s, err := repo.Close(context.Background(), "s-1", ended, 42)
	require.NoError(t, err)
	assert.False(t, s.IsOpen())
	require.NotNil(t, s.DurationMinutes)
	assert.Equal(t, 42, *s.DurationMinutes)
}

func TestSessionRepository_Close_AlreadyClosed(t *testing.T) {
	mock := setupMock(t)
	repo := NewSessionRepository(mock)

	ended := testNow.Add(time.Minute)
	minutes := 1
	mock.ExpectQuery("UPDATE focus_sessions").
		WithArgs("s-1", testNow.Add(time.Hour), 60).
		WillReturnError(pgx.ErrNoRows)
	mock.ExpectQuery("SELECT .+ FROM focus_sessions WHERE id").
		WithArgs("s-1").
		WillReturnRows(pgxmock.NewRows(sessionCols).
			AddRow("s-1", "u-1", testNow, &ended, &minutes, 0))

	_, err := repo.Close(context.Background(), "s-1", testNow.Add(time.Hour), 60)
	assert.ErrorIs(t, err, apperrors.ErrConflict)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestSessionRepository_Close_Missing(t *testing.T) {
	mock := setupMock(t)
	repo := NewSessionRepository(mock)

	mock.ExpectQuery("UPDATE focus_sessions").
		WithArgs("nope", testNow, 0).
		WillReturnError(pgx.ErrNoRows)
	mock.ExpectQuery("SELECT .+ FROM focus_sessions WHERE id").
		WithArgs("nope").
		WillReturnError(pgx.ErrNoRows)

	_, err := repo.Close(context.Background(), "nope", testNow, 0)
	assert.ErrorIs(t, err, apperrors.ErrNotFound)
}

func TestSessionRepository_IncrementDistractions(t *testing.T) {
	mock := setupMock(t)
	repo := NewSessionRepository(mock)

	mock.ExpectQuery("UPDATE focus_sessions").
		WithArgs("s-1").
		WillReturnRows(pgxmock.NewRows(sessionCols).
			AddRow("s-1", "u-1", testNow, (*time.Time)(nil), (*int)(nil), 3))

	s, err := repo.IncrementDistractions(context.Background(), "s-1")
	require.NoError(t, err)
	assert.Equal(t, 3, s.DistractionCount)
}

func TestSessionRepository_QueryError(t *testing.T) {
	mock := setupMock(t)
	repo := NewSessionRepository(mock)

	mock.ExpectQuery("SELECT .+ FROM focus_sessions WHERE id").
		WithArgs("s-1").
		WillReturnError(errors.New("connection reset"))

	_, err := repo.GetByID(context.Background(), "s-1")
	require.Error(t, err)
	assert.Contains(t, err.Error(), "get focus session")
	assert.NotErrorIs(t, err, apperrors.ErrNotFound)
}
