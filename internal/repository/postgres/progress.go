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

const progressColumns = `user_id, xp, level, streak, longest_streak, last_focus_date, updated_at`

// ProgressRepository implements repository.ProgressRepository.
type ProgressRepository struct {
	db database.DBTX
}

// NewProgressRepository creates a new PostgreSQL-backed progress repository.
func NewProgressRepository(db database.DBTX) *ProgressRepository {
	return &ProgressRepository{db: db}
}

func scanProgress(row pgx.Row) (*domain.Progress, error) {
	var p domain.Progress
	err := row.Scan(
		&p.UserID,
		&p.XP,
		&p.Level,
		&p.Streak,
		&p.LongestStreak,
		&p.LastFocusDate,
		&p.UpdatedAt,
	)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, apperrors.ErrNotFound
		}
		return nil, err
	}
	return &p, nil
}

// Get returns the stored progress of a user.
func (r *ProgressRepository) Get(ctx context.Context, userID string) (*domain.Progress, error) {
	query := `SELECT ` + progressColumns + ` FROM user_progress WHERE user_id = $1`

	p, err := scanProgress(r.db.QueryRow(ctx, query, userID))
	if err != nil && !errors.Is(err, apperrors.ErrNotFound) {
		return nil, fmt.Errorf("get progress: %w", err)
	}
	return p, err
}

// Update applies fn to the user's progress under a row lock, creating the
// starting record first when the user has none.
func (r *ProgressRepository) Update(ctx context.Context, userID string, fn func(*domain.Progress) error) (*domain.Progress, error) {
	var out *domain.Progress

	err := database.WithTx(ctx, r.db, func(tx pgx.Tx) error {
		_, err := tx.Exec(ctx,
			`INSERT INTO user_progress (user_id) VALUES ($1) ON CONFLICT (user_id) DO NOTHING`,
			userID)
		if err != nil {
			return fmt.Errorf("ensure progress row: %w", err)
		}

		query := `SELECT ` + progressColumns + ` FROM user_progress WHERE user_id = $1 FOR UPDATE`
		p, err := scanProgress(tx.QueryRow(ctx, query, userID))
		if err != nil {
			return fmt.Errorf("lock progress row: %w", err)
		}

		if err := fn(p); err != nil {
			return err
		}

		update := `
			UPDATE user_progress
			SET xp = $2, level = $3, streak = $4, longest_streak = $5, last_focus_date = $6, updated_at = $7
			WHERE user_id = $1`
		_, err = tx.Exec(ctx, update,
			userID,
			p.XP,
			p.Level,
			p.Streak,
			p.LongestStreak,
			p.LastFocusDate,
			p.UpdatedAt,
		)
		if err != nil {
			return fmt.Errorf("update progress: %w", err)
		}

		out = p
		return nil
	})
	if err != nil {
		return nil, err
	}
	return out, nil
}
