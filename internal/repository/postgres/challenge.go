package postgres

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"

	"github.com/jackc/pgx/v5"

	"github.com/utafrali/FocusGate/internal/domain"
	"github.com/utafrali/FocusGate/pkg/database"
	apperrors "github.com/utafrali/FocusGate/pkg/errors"
)

const challengeColumns = `id, user_id, session_id, type, difficulty, content, unlock_domain,
		unlock_duration_minutes, created_at, completed_at, success, time_taken_seconds, xp_awarded`

// ChallengeRepository implements repository.ChallengeRepository.
type ChallengeRepository struct {
	db database.DBTX
}

// NewChallengeRepository creates a new PostgreSQL-backed challenge repository.
func NewChallengeRepository(db database.DBTX) *ChallengeRepository {
	return &ChallengeRepository{db: db}
}

func scanChallenge(row pgx.Row) (*domain.Challenge, error) {
	var (
		c       domain.Challenge
		kind    string
		content []byte
	)
	err := row.Scan(
		&c.ID,
		&c.UserID,
		&c.SessionID,
		&kind,
		&c.Difficulty,
		&content,
		&c.UnlockDomain,
		&c.UnlockDurationMinutes,
		&c.CreatedAt,
		&c.CompletedAt,
		&c.Success,
		&c.TimeTakenSeconds,
		&c.XPAwarded,
	)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, apperrors.ErrNotFound
		}
		return nil, err
	}

	c.Type = domain.ChallengeType(kind)
	if c.Content, err = domain.DecodeContent(c.Type, content); err != nil {
		return nil, err
	}
	return &c, nil
}

// Create inserts a newly issued challenge with its full content, answer
// key included.
func (r *ChallengeRepository) Create(ctx context.Context, c *domain.Challenge) error {
	content, err := json.Marshal(c.Content)
	if err != nil {
		return fmt.Errorf("marshal challenge content: %w", err)
	}

	query := `
		INSERT INTO challenges (id, user_id, session_id, type, difficulty, content, unlock_domain,
			unlock_duration_minutes, created_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9)`

	_, err = r.db.Exec(ctx, query,
		c.ID,
		c.UserID,
		c.SessionID,
		string(c.Type),
		c.Difficulty,
		content,
		c.UnlockDomain,
		c.UnlockDurationMinutes,
		c.CreatedAt,
	)
	if err != nil {
		return fmt.Errorf("create challenge: %w", err)
	}
	return nil
}

// GetByID retrieves a challenge by its identifier.
func (r *ChallengeRepository) GetByID(ctx context.Context, id string) (*domain.Challenge, error) {
	query := `SELECT ` + challengeColumns + ` FROM challenges WHERE id = $1`

	c, err := scanChallenge(r.db.QueryRow(ctx, query, id))
	if err != nil && !errors.Is(err, apperrors.ErrNotFound) {
		return nil, fmt.Errorf("get challenge: %w", err)
	}
	return c, err
}

// GetLatestByUser returns the user's most recently created challenge.
func (r *ChallengeRepository) GetLatestByUser(ctx context.Context, userID string) (*domain.Challenge, error) {
	query := `
		SELECT ` + challengeColumns + `
		FROM challenges
		WHERE user_id = $1
		ORDER BY created_at DESC
		LIMIT 1`

	c, err := scanChallenge(r.db.QueryRow(ctx, query, userID))
	if err != nil && !errors.Is(err, apperrors.ErrNotFound) {
		return nil, fmt.Errorf("get latest challenge: %w", err)
	}
	return c, err
}

// Complete records the single verification of a challenge.
func (r *ChallengeRepository) Complete(ctx context.Context, id string, o domain.ChallengeOutcome) (err error) {
	query := `
		UPDATE challenges
		SET completed_at = $2, success = $3, time_taken_seconds = $4, xp_awarded = $5
		WHERE id = $1 AND completed_at IS NULL`

	ctx, end := database.TraceQuery(ctx, "CompleteChallenge", query)
	defer func() { end(err) }()

	tag, err := r.db.Exec(ctx, query, id, o.CompletedAt, o.Success, o.TimeTakenSeconds, o.XPAwarded)
	if err != nil {
		return fmt.Errorf("complete challenge: %w", err)
	}
	if tag.RowsAffected() == 0 {
		if _, getErr := r.GetByID(ctx, id); getErr != nil {
			return getErr
		}
		return apperrors.ErrConflict
	}
	return nil
}
