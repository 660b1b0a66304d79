package service

import (
	"context"
	"errors"
	"fmt"
	"log/slog"

	"github.com/google/uuid"

	"github.com/utafrali/FocusGate/internal/domain"
	"github.com/utafrali/FocusGate/internal/progression"
	"github.com/utafrali/FocusGate/internal/repository"
	apperrors "github.com/utafrali/FocusGate/pkg/errors"
)

// SessionSummary is the result of closing a focus session.
type SessionSummary struct {
	Session        *domain.FocusSession
	XPEarned       int
	StreakBonus    int
	Streak         progression.StreakDecision
	Progress       *domain.Progress
	RevokedUnlocks []domain.TemporaryUnlock
}

// StartSession opens a focus session. A user has at most one open session.
func (e *Engine) StartSession(ctx context.Context, userID string) (*domain.FocusSession, error) {
	var session *domain.FocusSession
	err := e.withUserLock(ctx, userID, func() error {
		_, err := e.store.Sessions().GetOpenByUser(ctx, userID)
		switch {
		case err == nil:
			return errSessionAlreadyOpen()
		case !errors.Is(err, apperrors.ErrNotFound):
			return fmt.Errorf("get open session: %w", err)
		}

		session = &domain.FocusSession{
			ID:        uuid.New().String(),
			UserID:    userID,
			StartedAt: e.now(),
		}
		if err := e.store.Sessions().Create(ctx, session); err != nil {
			if errors.Is(err, apperrors.ErrAlreadyExists) {
				return errSessionAlreadyOpen()
			}
			return fmt.Errorf("create session: %w", err)
		}
		return nil
	})
	if err != nil {
		return nil, err
	}

	e.logger.InfoContext(ctx, "focus session started", slog.String("session_id", session.ID))
	return session, nil
}

// ActiveSession returns the user's open session.
func (e *Engine) ActiveSession(ctx context.Context, userID string) (*domain.FocusSession, error) {
	session, err := e.store.Sessions().GetOpenByUser(ctx, userID)
	if err != nil {
		if errors.Is(err, apperrors.ErrNotFound) {
			return nil, errNoActiveSession()
		}
		return nil, fmt.Errorf("get open session: %w", err)
	}
	return session, nil
}

func (e *Engine) ownedSession(ctx context.Context, userID, sessionID string) (*domain.FocusSession, error) {
	session, err := e.store.Sessions().GetByID(ctx, sessionID)
	if err != nil {
		if errors.Is(err, apperrors.ErrNotFound) {
			return nil, apperrors.NotFound("focus session", sessionID)
		}
		return nil, fmt.Errorf("get session: %w", err)
	}
	if session.UserID != userID {
		return nil, apperrors.NotFound("focus session", sessionID)
	}
	return session, nil
}

// RecordDistraction counts a blocked navigation against the open session.
func (e *Engine) RecordDistraction(ctx context.Context, userID, sessionID string) (*domain.FocusSession, error) {
	if _, err := e.ownedSession(ctx, userID, sessionID); err != nil {
		return nil, err
	}

	session, err := e.store.Sessions().IncrementDistractions(ctx, sessionID)
	if err != nil {
		if errors.Is(err, apperrors.ErrConflict) {
			return nil, errSessionAlreadyEnded()
		}
		return nil, fmt.Errorf("record distraction: %w", err)
	}
	return session, nil
}

// EndSession closes a session. Closing is the only operation that moves the
// streak: the session's XP, the streak decision and its bonus are applied in
// the same transaction as the close, which also revokes the session's
// remaining unlocks.
func (e *Engine) EndSession(ctx context.Context, userID, sessionID string) (*SessionSummary, error) {
	var summary *SessionSummary
	err := e.withUserLock(ctx, userID, func() error {
		var err error
		summary, err = e.endSessionLocked(ctx, userID, sessionID)
		return err
	})
	if err != nil {
		return nil, err
	}

	e.ledger.revoked(ctx, domain.RevokedBySessionEnd, summary.RevokedUnlocks...)
	if err := e.events.PublishSessionEnded(ctx, summary.Session, summary.XPEarned+summary.StreakBonus, summary.Progress); err != nil {
		e.logger.ErrorContext(ctx, "failed to publish session.ended event",
			slog.String("session_id", sessionID),
			slog.String("error", err.Error()),
		)
	}

	e.logger.InfoContext(ctx, "focus session ended",
		slog.String("session_id", sessionID),
		slog.Int("duration_minutes", *summary.Session.DurationMinutes),
		slog.Int("xp_earned", summary.XPEarned),
		slog.String("streak", summary.Streak.String()),
		slog.Int("streak_length", summary.Progress.Streak),
	)
	return summary, nil
}

func (e *Engine) endSessionLocked(ctx context.Context, userID, sessionID string) (*SessionSummary, error) {
	session, err := e.ownedSession(ctx, userID, sessionID)
	if err != nil {
		return nil, err
	}
	if !session.IsOpen() {
		return nil, errSessionAlreadyEnded()
	}

	now := e.now()
	minutes := domain.SessionDuration(session.StartedAt, now)
	summary := &SessionSummary{}

	err = e.store.WithinTx(ctx, func(tx repository.Store) error {
		closed, err := tx.Sessions().Close(ctx, sessionID, now, minutes)
		if err != nil {
			if errors.Is(err, apperrors.ErrConflict) {
				return errSessionAlreadyEnded()
			}
			return fmt.Errorf("close session: %w", err)
		}
		summary.Session = closed

		summary.Progress, err = tx.Progress().Update(ctx, userID, func(p *domain.Progress) error {
			// A session shorter than a minute earns nothing and leaves the
			// streak and the first-session-of-the-day bonus untouched.
			if minutes <= 0 {
				summary.Streak = progression.StreakUnchanged
				return nil
			}

			first := progression.IsFirstSessionToday(p.LastFocusDate, now, e.loc)
			summary.XPEarned = progression.XPForSession(minutes, first)

			current := p.Streak
			if p.LastFocusDate == nil {
				current = 0
			}
			summary.Streak = progression.DecideStreak(p.LastFocusDate, now, e.loc)
			streak := progression.ApplyStreak(current, p.LongestStreak, summary.Streak)
			summary.StreakBonus = streak.BonusXP

			p.XP += summary.XPEarned + streak.BonusXP
			p.Level = progression.LevelFromXP(p.XP)
			p.Streak = streak.Streak
			p.LongestStreak = streak.Longest
			p.LastFocusDate = &now
			p.UpdatedAt = now
			return nil
		})
		if err != nil {
			return fmt.Errorf("update session progress: %w", err)
		}

		summary.RevokedUnlocks, err = revokeSession(ctx, tx.Unlocks(), sessionID, now)
		return err
	})
	if err != nil {
		return nil, err
	}
	return summary, nil
}
