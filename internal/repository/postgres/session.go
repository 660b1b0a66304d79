package postgres

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/jackc/pgx/v5"

	"github.com/utafrali/FocusGate/internal/domain"
	"github.com/utafrali/FocusGate/pkg/database"
	apperrors "github.com/utafrali/FocusGate/pkg/errors"
)

const (
	sessionColumns = `id, user_id, started_at, ended_at, duration_minutes, distraction_count`

	openSessionIndex = "focus_sessions_one_open_per_user"
)

// SessionRepository implements repository.SessionRepository.
type SessionRepository struct {
	db database.DBTX
}

// NewSessionRepository creates a new PostgreSQL-backed session repository.
func NewSessionRepository(db database.DBTX) *SessionRepository {
	return &SessionRepository{db: db}
}

func scanSession(row pgx.Row) (*domain.FocusSession, error) {
	var s domain.FocusSession
	err := row.Scan(
		&s.ID,
		&s.UserID,
		&s.StartedAt,
		&s.EndedAt,
		&s.DurationMinutes,
		&s.DistractionCount,
	)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, apperrors.ErrNotFound
		}
		return nil, err
	}
	return &s, nil
}

// Create inserts a new open session.
func (r *SessionRepository) Create(ctx context.Context, s *domain.FocusSession) error {
	query := `
		INSERT INTO focus_sessions (id, user_id, started_at, distraction_count)
		VALUES ($1, $2, $3, $4)`

	_, err := r.db.Exec(ctx, query, s.ID, s.UserID, s.StartedAt, s.DistractionCount)
	if err != nil {
		if database.IsUniqueViolation(err, openSessionIndex) {
			return apperrors.ErrAlreadyExists
		}
		return fmt.Errorf("create focus session: %w", err)
	}
	return nil
}

// GetByID retrieves a session by its identifier.
func (r *SessionRepository) GetByID(ctx context.Context, id string) (*domain.FocusSession, error) {
	query := `SELECT ` + sessionColumns + ` FROM focus_sessions WHERE id = $1`

	s, err := scanSession(r.db.QueryRow(ctx, query, id))
	if err != nil && !errors.Is(err, apperrors.ErrNotFound) {
		return nil, fmt.Errorf("get focus session: %w", err)
	}
	return s, err
}

// GetOpenByUser returns the user's open session.
func (r *SessionRepository) GetOpenByUser(ctx context.Context, userID string) (*domain.FocusSession, error) {
	query := `
		SELECT ` + sessionColumns + `
		FROM focus_sessions
		WHERE user_id = $1 AND ended_at IS NULL
		ORDER BY started_at DESC
		LIMIT 1`

	s, err := scanSession(r.db.QueryRow(ctx, query, userID))
	if err != nil && !errors.Is(err, apperrors.ErrNotFound) {
		return nil, fmt.Errorf("get open focus session: %w", err)
	}
	return s, err
}

// Close ends an open session. The ended_at IS NULL guard makes a second
// close a no-op at the row level, reported as a conflict.
func (r *SessionRepository) Close(ctx context.Context, id string, endedAt time.Time, durationMinutes int) (s *domain.FocusSession, err error) {
	query := `
		UPDATE focus_sessions
		SET ended_at = $2, duration_minutes = $3
		WHERE id = $1 AND ended_at IS NULL
		RETURNING ` + sessionColumns

	ctx, end := database.TraceQuery(ctx, "CloseFocusSession", query)
	defer func() { end(err) }()

	s, err = scanSession(r.db.QueryRow(ctx, query, id, endedAt, durationMinutes))
	if err == nil {
		return s, nil
	}
	if !errors.Is(err, apperrors.ErrNotFound) {
		return nil, fmt.Errorf("close focus session: %w", err)
	}
	if _, getErr := r.GetByID(ctx, id); getErr != nil {
		return nil, getErr
	}
	return nil, apperrors.ErrConflict
}

// IncrementDistractions bumps the distraction count of an open session.
func (r *SessionRepository) IncrementDistractions(ctx context.Context, id string) (*domain.FocusSession, error) {
	query := `
		UPDATE focus_sessions
		SET distraction_count = distraction_count + 1
		WHERE id = $1 AND ended_at IS NULL
		RETURNING ` + sessionColumns

	s, err := scanSession(r.db.QueryRow(ctx, query, id))
	if err == nil {
		return s, nil
	}
	if !errors.Is(err, apperrors.ErrNotFound) {
		return nil, fmt.Errorf("increment distractions: %w", err)
	}
	if _, getErr := r.GetByID(ctx, id); getErr != nil {
		return nil, getErr
	}
	return nil, apperrors.ErrConflict
}
