package service

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"math"
	"time"

	"github.com/google/uuid"

	"github.com/utafrali/FocusGate/internal/domain"
	"github.com/utafrali/FocusGate/internal/repository"
	apperrors "github.com/utafrali/FocusGate/pkg/errors"
)

// EventPublisher emits gating domain events. Publishing is best effort:
// failures are logged and never fail the operation that caused them.
type EventPublisher interface {
	PublishChallengeCompleted(ctx context.Context, c *domain.Challenge) error
	PublishUnlockGranted(ctx context.Context, u *domain.TemporaryUnlock) error
	PublishUnlockRevoked(ctx context.Context, u *domain.TemporaryUnlock, reason domain.RevokeReason) error
	PublishSessionEnded(ctx context.Context, s *domain.FocusSession, xpEarned int, p *domain.Progress) error
}

// Access is the answer to "may this user open this domain right now".
type Access struct {
	IsUnlocked       bool
	Unlock           *domain.TemporaryUnlock
	RemainingSeconds int
	RemainingMinutes int
}

// Ledger manages the lifecycle of temporary unlocks.
type Ledger struct {
	store  repository.Store
	events EventPublisher
	logger *slog.Logger
	now    func() time.Time
}

// NewLedger creates a new unlock ledger.
func NewLedger(store repository.Store, events EventPublisher, logger *slog.Logger) *Ledger {
	return &Ledger{
		store:  store,
		events: events,
		logger: logger,
		now:    time.Now,
	}
}

func newUnlock(userID, target, sessionID, challengeID string, durationMinutes int, now time.Time) *domain.TemporaryUnlock {
	return &domain.TemporaryUnlock{
		ID:              uuid.New().String(),
		UserID:          userID,
		Domain:          domain.NormalizeDomain(target),
		SessionID:       sessionID,
		ChallengeID:     challengeID,
		GrantedAt:       now,
		ExpiresAt:       now.Add(time.Duration(durationMinutes) * time.Minute),
		DurationMinutes: durationMinutes,
		IsActive:        true,
	}
}

// Grant creates an active unlock of target for durationMinutes.
func (l *Ledger) Grant(ctx context.Context, userID, target, sessionID, challengeID string, durationMinutes int) (*domain.TemporaryUnlock, error) {
	if durationMinutes <= 0 {
		return nil, apperrors.InvalidInput("unlock duration must be positive")
	}

	if domain.NormalizeDomain(target) == "" {
		return nil, apperrors.InvalidInput("domain is required")
	}

	u, err := grant(ctx, l.store.Unlocks(), userID, target, sessionID, challengeID, durationMinutes, l.now())
	if err != nil {
		return nil, err
	}
	l.granted(ctx, u)
	return u, nil
}

// grant stores a new unlock through repo, which may be bound to a
// transaction. The caller reports it with granted once committed.
func grant(ctx context.Context, repo repository.UnlockRepository, userID, target, sessionID, challengeID string, durationMinutes int, now time.Time) (*domain.TemporaryUnlock, error) {
	u := newUnlock(userID, target, sessionID, challengeID, durationMinutes, now)
	if err := repo.Create(ctx, u); err != nil {
		return nil, fmt.Errorf("grant unlock: %w", err)
	}
	return u, nil
}

// granted records a committed grant.
func (l *Ledger) granted(ctx context.Context, u *domain.TemporaryUnlock) {
	unlocksGranted.Inc()
	if err := l.events.PublishUnlockGranted(ctx, u); err != nil {
		l.logger.ErrorContext(ctx, "failed to publish unlock.granted event",
			slog.String("unlock_id", u.ID),
			slog.String("error", err.Error()),
		)
	}
	l.logger.InfoContext(ctx, "unlock granted",
		slog.String("unlock_id", u.ID),
		slog.String("domain", u.Domain),
		slog.Time("expires_at", u.ExpiresAt),
	)
}

// FindActive returns the valid unlock of target, recording the access, or
// apperrors.ErrNotFound. Expired unlocks are swept first.
func (l *Ledger) FindActive(ctx context.Context, userID, target string) (*domain.TemporaryUnlock, error) {
	if _, err := l.SweepExpired(ctx); err != nil {
		return nil, err
	}

	u, err := l.store.Unlocks().FindActive(ctx, userID, domain.NormalizeDomain(target), l.now())
	if err != nil {
		if errors.Is(err, apperrors.ErrNotFound) {
			return nil, err
		}
		return nil, fmt.Errorf("find active unlock: %w", err)
	}
	return u, nil
}

// CheckAccess reports whether target is currently unlocked for the user.
func (l *Ledger) CheckAccess(ctx context.Context, userID, target string) (*Access, error) {
	if domain.NormalizeDomain(target) == "" {
		return nil, apperrors.InvalidInput("domain is required")
	}

	u, err := l.FindActive(ctx, userID, target)
	if errors.Is(err, apperrors.ErrNotFound) {
		return &Access{}, nil
	}
	if err != nil {
		return nil, err
	}

	remaining := u.Remaining(l.now())
	return &Access{
		IsUnlocked:       true,
		Unlock:           u,
		RemainingSeconds: int(remaining / time.Second),
		RemainingMinutes: int(math.Ceil(remaining.Minutes())),
	}, nil
}

// ListActive returns the user's currently valid unlocks.
func (l *Ledger) ListActive(ctx context.Context, userID string) ([]domain.TemporaryUnlock, error) {
	if _, err := l.SweepExpired(ctx); err != nil {
		return nil, err
	}
	unlocks, err := l.store.Unlocks().ListActive(ctx, userID, l.now())
	if err != nil {
		return nil, fmt.Errorf("list active unlocks: %w", err)
	}
	return unlocks, nil
}

// Revoke deactivates one of the user's unlocks. Revoking an unlock that is
// already inactive succeeds without changing it.
func (l *Ledger) Revoke(ctx context.Context, userID, unlockID string, reason domain.RevokeReason) (*domain.TemporaryUnlock, error) {
	if !domain.IsValidRevokeReason(reason) {
		return nil, apperrors.InvalidInput(fmt.Sprintf("invalid revoke reason %q", reason))
	}

	u, err := l.store.Unlocks().GetByID(ctx, unlockID)
	if err != nil {
		if errors.Is(err, apperrors.ErrNotFound) {
			return nil, apperrors.NotFound("unlock", unlockID)
		}
		return nil, fmt.Errorf("get unlock: %w", err)
	}
	if u.UserID != userID {
		return nil, apperrors.NotFound("unlock", unlockID)
	}

	now := l.now()
	revoked, err := l.store.Unlocks().Revoke(ctx, unlockID, reason, now)
	if err != nil {
		return nil, fmt.Errorf("revoke unlock: %w", err)
	}
	if !revoked {
		return u, nil
	}

	u.IsActive = false
	u.RevokedAt = &now
	u.RevokedBy = &reason
	l.revoked(ctx, reason, *u)
	return u, nil
}

// revoked records committed revocations.
func (l *Ledger) revoked(ctx context.Context, reason domain.RevokeReason, unlocks ...domain.TemporaryUnlock) {
	for i := range unlocks {
		u := &unlocks[i]
		unlocksRevoked.WithLabelValues(string(reason)).Inc()
		if err := l.events.PublishUnlockRevoked(ctx, u, reason); err != nil {
			l.logger.ErrorContext(ctx, "failed to publish unlock.revoked event",
				slog.String("unlock_id", u.ID),
				slog.String("error", err.Error()),
			)
		}
	}
	if len(unlocks) > 0 {
		l.logger.InfoContext(ctx, "unlocks revoked",
			slog.String("reason", string(reason)),
			slog.Int("count", len(unlocks)),
		)
	}
}

// RevokeSession deactivates every active unlock granted in a session.
func (l *Ledger) RevokeSession(ctx context.Context, sessionID string) ([]domain.TemporaryUnlock, error) {
	unlocks, err := revokeSession(ctx, l.store.Unlocks(), sessionID, l.now())
	if err != nil {
		return nil, err
	}
	l.revoked(ctx, domain.RevokedBySessionEnd, unlocks...)
	return unlocks, nil
}

func revokeSession(ctx context.Context, repo repository.UnlockRepository, sessionID string, now time.Time) ([]domain.TemporaryUnlock, error) {
	unlocks, err := repo.RevokeBySession(ctx, sessionID, domain.RevokedBySessionEnd, now)
	if err != nil {
		return nil, fmt.Errorf("revoke session unlocks: %w", err)
	}
	return unlocks, nil
}

// SweepExpired deactivates every unlock past its expiry and returns how
// many changed. Safe to run concurrently and repeatedly.
func (l *Ledger) SweepExpired(ctx context.Context) (int64, error) {
	n, err := l.store.Unlocks().SweepExpired(ctx, l.now())
	if err != nil {
		return 0, fmt.Errorf("sweep expired unlocks: %w", err)
	}
	if n > 0 {
		unlocksRevoked.WithLabelValues(string(domain.RevokedByExpiry)).Add(float64(n))
		l.logger.DebugContext(ctx, "expired unlocks swept", slog.Int64("count", n))
	}
	return n, nil
}

// RunSweeper sweeps on every tick until ctx is canceled.
func (l *Ledger) RunSweeper(ctx context.Context, interval time.Duration) {
	ticker := time.NewTicker(interval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			if _, err := l.SweepExpired(ctx); err != nil && ctx.Err() == nil {
				l.logger.ErrorContext(ctx, "unlock sweep failed", slog.String("error", err.Error()))
			}
		}
	}
}
