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

const unlockColumns = `id, user_id, domain, session_id, challenge_id, granted_at, expires_at,
		duration_minutes, is_active, was_used, first_accessed_at, last_accessed_at, revoked_at, revoked_by`

// UnlockRepository implements repository.UnlockRepository.
type UnlockRepository struct {
	db database.DBTX
}

// NewUnlockRepository creates a new PostgreSQL-backed unlock repository.
func NewUnlockRepository(db database.DBTX) *UnlockRepository {
	return &UnlockRepository{db: db}
}

func scanUnlock(row pgx.Row) (*domain.TemporaryUnlock, error) {
	var (
		u         domain.TemporaryUnlock
		revokedBy *string
	)
	err := row.Scan(
		&u.ID,
		&u.UserID,
		&u.Domain,
		&u.SessionID,
		&u.ChallengeID,
		&u.GrantedAt,
		&u.ExpiresAt,
		&u.DurationMinutes,
		&u.IsActive,
		&u.WasUsed,
		&u.FirstAccessedAt,
		&u.LastAccessedAt,
		&u.RevokedAt,
		&revokedBy,
	)
	if err != nil {
		return nil, err
	}
	if revokedBy != nil {
		reason := domain.RevokeReason(*revokedBy)
		u.RevokedBy = &reason
	}
	return &u, nil
}

func collectUnlocks(rows pgx.Rows) ([]domain.TemporaryUnlock, error) {
	defer rows.Close()

	var out []domain.TemporaryUnlock
	for rows.Next() {
		u, err := scanUnlock(rows)
		if err != nil {
			return nil, err
		}
		out = append(out, *u)
	}
	return out, rows.Err()
}

// Create inserts a granted unlock.
func (r *UnlockRepository) Create(ctx context.Context, u *domain.TemporaryUnlock) error {
	query := `
		INSERT INTO temporary_unlocks (id, user_id, domain, session_id, challenge_id, granted_at,
			expires_at, duration_minutes, is_active, was_used)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10)`

	_, err := r.db.Exec(ctx, query,
		u.ID,
		u.UserID,
		u.Domain,
		u.SessionID,
		u.ChallengeID,
		u.GrantedAt,
		u.ExpiresAt,
		u.DurationMinutes,
		u.IsActive,
		u.WasUsed,
	)
	if err != nil {
		if database.IsUniqueViolation(err, "") {
			return apperrors.ErrAlreadyExists
		}
		return fmt.Errorf("create temporary unlock: %w", err)
	}
	return nil
}

// GetByID retrieves an unlock by its identifier.
func (r *UnlockRepository) GetByID(ctx context.Context, id string) (*domain.TemporaryUnlock, error) {
	query := `SELECT ` + unlockColumns + ` FROM temporary_unlocks WHERE id = $1`

	u, err := scanUnlock(r.db.QueryRow(ctx, query, id))
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, apperrors.ErrNotFound
		}
		return nil, fmt.Errorf("get temporary unlock: %w", err)
	}
	return u, nil
}

// FindActive records an access on the valid unlock for the domain and
// returns it. Selecting and touching the row happen in one statement.
func (r *UnlockRepository) FindActive(ctx context.Context, userID, domainName string, now time.Time) (u *domain.TemporaryUnlock, err error) {
	query := `
		UPDATE temporary_unlocks
		SET was_used = TRUE,
			first_accessed_at = COALESCE(first_accessed_at, $3),
			last_accessed_at = $3
		WHERE id = (
			SELECT id FROM temporary_unlocks
			WHERE user_id = $1 AND domain = $2 AND is_active AND expires_at > $3
			ORDER BY expires_at DESC
			LIMIT 1
		)
		AND is_active AND expires_at > $3
		RETURNING ` + unlockColumns

	ctx, end := database.TraceQuery(ctx, "FindActiveUnlock", query)
	defer func() { end(err) }()

	u, err = scanUnlock(r.db.QueryRow(ctx, query, userID, domainName, now))
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, apperrors.ErrNotFound
		}
		return nil, fmt.Errorf("find active unlock: %w", err)
	}
	return u, nil
}

// ListActive returns the user's unlocks valid at now.
func (r *UnlockRepository) ListActive(ctx context.Context, userID string, now time.Time) ([]domain.TemporaryUnlock, error) {
	query := `
		SELECT ` + unlockColumns + `
		FROM temporary_unlocks
		WHERE user_id = $1 AND is_active AND expires_at > $2
		ORDER BY expires_at ASC`

	rows, err := r.db.Query(ctx, query, userID, now)
	if err != nil {
		return nil, fmt.Errorf("list active unlocks: %w", err)
	}
	unlocks, err := collectUnlocks(rows)
	if err != nil {
		return nil, fmt.Errorf("scan active unlocks: %w", err)
	}
	return unlocks, nil
}

// CountBySession counts every unlock granted in a session.
func (r *UnlockRepository) CountBySession(ctx context.Context, sessionID string) (int, error) {
	var n int
	err := r.db.QueryRow(ctx, `SELECT COUNT(*) FROM temporary_unlocks WHERE session_id = $1`, sessionID).Scan(&n)
	if err != nil {
		return 0, fmt.Errorf("count session unlocks: %w", err)
	}
	return n, nil
}

// Revoke deactivates one unlock if it is still active.
func (r *UnlockRepository) Revoke(ctx context.Context, id string, reason domain.RevokeReason, now time.Time) (revoked bool, err error) {
	query := `
		UPDATE temporary_unlocks
		SET is_active = FALSE, revoked_at = $2, revoked_by = $3
		WHERE id = $1 AND is_active`

	ctx, end := database.TraceQuery(ctx, "RevokeUnlock", query)
	defer func() { end(err) }()

	tag, err := r.db.Exec(ctx, query, id, now, string(reason))
	if err != nil {
		return false, fmt.Errorf("revoke unlock: %w", err)
	}
	return tag.RowsAffected() == 1, nil
}

// RevokeBySession deactivates every active unlock of a session and returns
// the rows it changed.
func (r *UnlockRepository) RevokeBySession(ctx context.Context, sessionID string, reason domain.RevokeReason, now time.Time) ([]domain.TemporaryUnlock, error) {
	query := `
		UPDATE temporary_unlocks
		SET is_active = FALSE, revoked_at = $2, revoked_by = $3
		WHERE session_id = $1 AND is_active
		RETURNING ` + unlockColumns

	rows, err := r.db.Query(ctx, query, sessionID, now, string(reason))
	if err != nil {
		return nil, fmt.Errorf("revoke session unlocks: %w", err)
	}
	unlocks, err := collectUnlocks(rows)
	if err != nil {
		return nil, fmt.Errorf("scan revoked unlocks: %w", err)
	}
	return unlocks, nil
}

// SweepExpired deactivates every active unlock past its expiry. Rows that
// a concurrent sweep already flipped no longer match is_active, so nothing
// is counted twice.
func (r *UnlockRepository) SweepExpired(ctx context.Context, now time.Time) (n int64, err error) {
	query := `
		UPDATE temporary_unlocks
		SET is_active = FALSE, revoked_at = expires_at, revoked_by = 'expired'
		WHERE is_active AND expires_at <= $1`

	ctx, end := database.TraceQuery(ctx, "SweepExpiredUnlocks", query)
	defer func() { end(err) }()

	tag, err := r.db.Exec(ctx, query, now)
	if err != nil {
		return 0, fmt.Errorf("sweep expired unlocks: %w", err)
	}
	return tag.RowsAffected(), nil
}
