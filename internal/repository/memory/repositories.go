package memory

import (
	"context"
	"sort"
	"time"

	"github.com/utafrali/FocusGate/internal/domain"
	apperrors "github.com/utafrali/FocusGate/pkg/errors"
)

// SessionRepository implements repository.SessionRepository.
type SessionRepository struct{ s *Store }

func (r *SessionRepository) Create(_ context.Context, sess *domain.FocusSession) (err error) {
	r.s.locked(func(st *state) {
		for _, existing := range st.sessions {
			if existing.UserID == sess.UserID && existing.IsOpen() {
				err = apperrors.ErrAlreadyExists
				return
			}
		}
		put(r.s, st.sessions, sess.ID, *sess)
	})
	return err
}

func (r *SessionRepository) GetByID(_ context.Context, id string) (out *domain.FocusSession, err error) {
	r.s.locked(func(st *state) {
		sess, ok := st.sessions[id]
		if !ok {
			err = apperrors.ErrNotFound
			return
		}
		out = &sess
	})
	return out, err
}

func (r *SessionRepository) GetOpenByUser(_ context.Context, userID string) (out *domain.FocusSession, err error) {
	r.s.locked(func(st *state) {
		for _, sess := range st.sessions {
			if sess.UserID == userID && sess.IsOpen() {
				out = &sess
				return
			}
		}
		err = apperrors.ErrNotFound
	})
	return out, err
}

func (r *SessionRepository) Close(_ context.Context, id string, endedAt time.Time, durationMinutes int) (out *domain.FocusSession, err error) {
	r.s.locked(func(st *state) {
		sess, ok := st.sessions[id]
		switch {
		case !ok:
			err = apperrors.ErrNotFound
		case !sess.IsOpen():
			err = apperrors.ErrConflict
		default:
			sess.EndedAt = &endedAt
			sess.DurationMinutes = &durationMinutes
			put(r.s, st.sessions, id, sess)
			out = &sess
		}
	})
	return out, err
}

func (r *SessionRepository) IncrementDistractions(_ context.Context, id string) (out *domain.FocusSession, err error) {
	r.s.locked(func(st *state) {
		sess, ok := st.sessions[id]
		switch {
		case !ok:
			err = apperrors.ErrNotFound
		case !sess.IsOpen():
			err = apperrors.ErrConflict
		default:
			sess.DistractionCount++
			put(r.s, st.sessions, id, sess)
			out = &sess
		}
	})
	return out, err
}

// ChallengeRepository implements repository.ChallengeRepository.
type ChallengeRepository struct{ s *Store }

func (r *ChallengeRepository) Create(_ context.Context, c *domain.Challenge) (err error) {
	r.s.locked(func(st *state) {
		if _, ok := st.challenges[c.ID]; ok {
			err = apperrors.ErrAlreadyExists
			return
		}
		put(r.s, st.challenges, c.ID, *c)
	})
	return err
}

func (r *ChallengeRepository) GetByID(_ context.Context, id string) (out *domain.Challenge, err error) {
	r.s.locked(func(st *state) {
		c, ok := st.challenges[id]
		if !ok {
			err = apperrors.ErrNotFound
			return
		}
		out = &c
	})
	return out, err
}

func (r *ChallengeRepository) GetLatestByUser(_ context.Context, userID string) (out *domain.Challenge, err error) {
	r.s.locked(func(st *state) {
		for _, c := range st.challenges {
			if c.UserID != userID {
				continue
			}
			if out == nil || c.CreatedAt.After(out.CreatedAt) {
				latest := c
				out = &latest
			}
		}
		if out == nil {
			err = apperrors.ErrNotFound
		}
	})
	return out, err
}

func (r *ChallengeRepository) Complete(_ context.Context, id string, o domain.ChallengeOutcome) (err error) {
	r.s.locked(func(st *state) {
		c, ok := st.challenges[id]
		switch {
		case !ok:
			err = apperrors.ErrNotFound
		case c.IsCompleted():
			err = apperrors.ErrConflict
		default:
			c.CompletedAt = &o.CompletedAt
			c.Success = &o.Success
			c.TimeTakenSeconds = &o.TimeTakenSeconds
			c.XPAwarded = &o.XPAwarded
			put(r.s, st.challenges, id, c)
		}
	})
	return err
}

// UnlockRepository implements repository.UnlockRepository.
type UnlockRepository struct{ s *Store }

func (r *UnlockRepository) Create(_ context.Context, u *domain.TemporaryUnlock) (err error) {
	r.s.locked(func(st *state) {
		for _, existing := range st.unlocks {
			if existing.ID == u.ID || existing.ChallengeID == u.ChallengeID {
				err = apperrors.ErrAlreadyExists
				return
			}
		}
		put(r.s, st.unlocks, u.ID, *u)
	})
	return err
}

func (r *UnlockRepository) GetByID(_ context.Context, id string) (out *domain.TemporaryUnlock, err error) {
	r.s.locked(func(st *state) {
		u, ok := st.unlocks[id]
		if !ok {
			err = apperrors.ErrNotFound
			return
		}
		out = &u
	})
	return out, err
}

func (r *UnlockRepository) FindActive(_ context.Context, userID, domainName string, now time.Time) (out *domain.TemporaryUnlock, err error) {
	r.s.locked(func(st *state) {
		var best *domain.TemporaryUnlock
		for _, u := range st.unlocks {
			if u.UserID != userID || u.Domain != domainName || !u.IsValidAt(now) {
				continue
			}
			if best == nil || u.ExpiresAt.After(best.ExpiresAt) {
				candidate := u
				best = &candidate
			}
		}
		if best == nil {
			err = apperrors.ErrNotFound
			return
		}

		best.WasUsed = true
		if best.FirstAccessedAt == nil {
			best.FirstAccessedAt = &now
		}
		best.LastAccessedAt = &now
		put(r.s, st.unlocks, best.ID, *best)
		out = best
	})
	return out, err
}

func (r *UnlockRepository) ListActive(_ context.Context, userID string, now time.Time) (out []domain.TemporaryUnlock, err error) {
	r.s.locked(func(st *state) {
		for _, u := range st.unlocks {
			if u.UserID == userID && u.IsValidAt(now) {
				out = append(out, u)
			}
		}
	})
	sort.Slice(out, func(i, j int) bool { return out[i].ExpiresAt.Before(out[j].ExpiresAt) })
	return out, nil
}

func (r *UnlockRepository) CountBySession(_ context.Context, sessionID string) (n int, err error) {
	r.s.locked(func(st *state) {
		for _, u := range st.unlocks {
			if u.SessionID == sessionID {
				n++
			}
		}
	})
	return n, nil
}

func revoke(u *domain.TemporaryUnlock, reason domain.RevokeReason, at time.Time) {
	u.IsActive = false
	u.RevokedAt = &at
	u.RevokedBy = &reason
}

func (r *UnlockRepository) Revoke(_ context.Context, id string, reason domain.RevokeReason, now time.Time) (revoked bool, err error) {
	r.s.locked(func(st *state) {
		u, ok := st.unlocks[id]
		if !ok || !u.IsActive {
			return
		}
		revoke(&u, reason, now)
		put(r.s, st.unlocks, id, u)
		revoked = true
	})
	return revoked, nil
}

func (r *UnlockRepository) RevokeBySession(_ context.Context, sessionID string, reason domain.RevokeReason, now time.Time) (out []domain.TemporaryUnlock, err error) {
	r.s.locked(func(st *state) {
		for id, u := range st.unlocks {
			if u.SessionID != sessionID || !u.IsActive {
				continue
			}
			revoke(&u, reason, now)
			put(r.s, st.unlocks, id, u)
			out = append(out, u)
		}
	})
	return out, nil
}

func (r *UnlockRepository) SweepExpired(_ context.Context, now time.Time) (n int64, err error) {
	r.s.locked(func(st *state) {
		for id, u := range st.unlocks {
			if !u.IsActive || u.ExpiresAt.After(now) {
				continue
			}
			revoke(&u, domain.RevokedByExpiry, u.ExpiresAt)
			put(r.s, st.unlocks, id, u)
			n++
		}
	})
	return n, nil
}

// ProgressRepository implements repository.ProgressRepository.
type ProgressRepository struct{ s *Store }

func (r *ProgressRepository) Get(_ context.Context, userID string) (out *domain.Progress, err error) {
	r.s.locked(func(st *state) {
		p, ok := st.progress[userID]
		if !ok {
			err = apperrors.ErrNotFound
			return
		}
		out = &p
	})
	return out, err
}

// Update holds the state lock while fn runs, so fn must not call back
// into the store.
func (r *ProgressRepository) Update(_ context.Context, userID string, fn func(*domain.Progress) error) (out *domain.Progress, err error) {
	r.s.locked(func(st *state) {
		p, ok := st.progress[userID]
		if !ok {
			p = *domain.NewProgress(userID)
		}
		if err = fn(&p); err != nil {
			return
		}
		put(r.s, st.progress, userID, p)
		out = &p
	})
	return out, err
}

// SettingsRepository implements repository.SettingsRepository.
type SettingsRepository struct{ s *Store }

func (r *SettingsRepository) Get(_ context.Context, userID string) (out *domain.Settings, err error) {
	r.s.locked(func(st *state) {
		s, ok := st.settings[userID]
		if !ok {
			err = apperrors.ErrNotFound
			return
		}
		s.AllowedTypes = append([]domain.ChallengeType(nil), s.AllowedTypes...)
		out = &s
	})
	return out, err
}

func (r *SettingsRepository) Upsert(_ context.Context, s *domain.Settings) error {
	stored := *s
	stored.AllowedTypes = append([]domain.ChallengeType(nil), s.AllowedTypes...)
	r.s.locked(func(st *state) {
		put(r.s, st.settings, s.UserID, stored)
	})
	return nil
}
