package service

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"math"
	"time"

	"github.com/google/uuid"

	"github.com/utafrali/FocusGate/internal/catalog"
	"github.com/utafrali/FocusGate/internal/domain"
	"github.com/utafrali/FocusGate/internal/lock"
	"github.com/utafrali/FocusGate/internal/progression"
	"github.com/utafrali/FocusGate/internal/repository"
	apperrors "github.com/utafrali/FocusGate/pkg/errors"
)

// Engine implements the distraction gating state machine: focus sessions,
// challenge issue and verification, and the progression updates they drive.
// Every state-changing operation of a user runs under that user's lock.
type Engine struct {
	store   repository.Store
	catalog *catalog.Catalog
	locker  lock.Locker
	ledger  *Ledger
	events  EventPublisher
	logger  *slog.Logger
	loc     *time.Location
	now     func() time.Time
}

// NewEngine creates a new gating engine. loc is the location calendar days
// are evaluated in for streaks; nil means UTC.
func NewEngine(
	store repository.Store,
	cat *catalog.Catalog,
	locker lock.Locker,
	ledger *Ledger,
	events EventPublisher,
	logger *slog.Logger,
	loc *time.Location,
) *Engine {
	if loc == nil {
		loc = time.UTC
	}
	return &Engine{
		store:   store,
		catalog: cat,
		locker:  locker,
		ledger:  ledger,
		events:  events,
		logger:  logger,
		loc:     loc,
		now:     time.Now,
	}
}

// IssuedChallenge is a challenge as handed to the client.
type IssuedChallenge struct {
	Challenge        *domain.Challenge
	XPReward         int
	RemainingUnlocks int
}

// VerifyResult is the outcome of a verification.
type VerifyResult struct {
	Success   bool
	XPAwarded int
	Unlock    *domain.TemporaryUnlock
	Progress  *domain.Progress
}

func (e *Engine) withUserLock(ctx context.Context, userID string, fn func() error) error {
	release, err := e.locker.Acquire(ctx, lock.UserKey(userID))
	if err != nil {
		return fmt.Errorf("acquire user lock: %w", err)
	}
	defer release()
	return fn()
}

func reject(err *apperrors.AppError) error {
	gatingRejections.WithLabelValues(err.Code).Inc()
	return err
}

// Issue creates a challenge that unlocks target once solved. An empty
// challengeType picks one of the user's allowed types at random.
func (e *Engine) Issue(ctx context.Context, userID string, challengeType domain.ChallengeType, target string) (*IssuedChallenge, error) {
	target = domain.NormalizeDomain(target)
	if target == "" {
		return nil, apperrors.InvalidInput("domain is required")
	}
	if challengeType != "" && !domain.IsValidChallengeType(challengeType) {
		return nil, reject(errTypeNotAllowed(fmt.Sprintf("unknown challenge type %q", challengeType)))
	}

	var issued *IssuedChallenge
	err := e.withUserLock(ctx, userID, func() error {
		var err error
		issued, err = e.issueLocked(ctx, userID, challengeType, target)
		return err
	})
	if err != nil {
		return nil, err
	}

	challengesIssued.Inc()
	e.logger.InfoContext(ctx, "challenge issued",
		slog.String("challenge_id", issued.Challenge.ID),
		slog.String("type", string(issued.Challenge.Type)),
		slog.String("domain", target),
	)
	return issued, nil
}

func (e *Engine) issueLocked(ctx context.Context, userID string, challengeType domain.ChallengeType, target string) (*IssuedChallenge, error) {
	settings, err := e.settingsFor(ctx, userID)
	if err != nil {
		return nil, err
	}

	session, err := e.store.Sessions().GetOpenByUser(ctx, userID)
	if err != nil {
		if errors.Is(err, apperrors.ErrNotFound) {
			return nil, reject(errNoActiveSession())
		}
		return nil, fmt.Errorf("get open session: %w", err)
	}

	if !settings.ChallengesEnabled {
		return nil, reject(errChallengesDisabled())
	}

	if challengeType == "" {
		challengeType = e.catalog.RandomType(settings.AllowedTypes)
	} else if !settings.Allows(challengeType) {
		return nil, reject(errTypeNotAllowed(fmt.Sprintf("challenge type %q is not allowed", challengeType)))
	}

	now := e.now()

	latest, err := e.store.Challenges().GetLatestByUser(ctx, userID)
	switch {
	case err == nil:
		if !latest.Succeeded() {
			until := latest.CreatedAt.Add(time.Duration(settings.CooldownMinutes) * time.Minute)
			if now.Before(until) {
				return nil, reject(errCooldownActive(int(math.Ceil(until.Sub(now).Seconds()))))
			}
		}
	case !errors.Is(err, apperrors.ErrNotFound):
		return nil, fmt.Errorf("get latest challenge: %w", err)
	}

	used, err := e.store.Unlocks().CountBySession(ctx, session.ID)
	if err != nil {
		return nil, fmt.Errorf("count session unlocks: %w", err)
	}
	if used >= settings.MaxUnlocksPerSession {
		return nil, reject(errUnlockCapReached(used, settings.MaxUnlocksPerSession))
	}

	difficulty := domain.ClampDifficulty(settings.Difficulty)
	content, err := e.catalog.Generate(challengeType, difficulty)
	if err != nil {
		return nil, fmt.Errorf("generate challenge: %w", err)
	}

	challenge := &domain.Challenge{
		ID:                    uuid.New().String(),
		UserID:                userID,
		SessionID:             session.ID,
		Type:                  challengeType,
		Difficulty:            difficulty,
		Content:               content,
		UnlockDomain:          target,
		UnlockDurationMinutes: settings.UnlockDurationMinutes,
		CreatedAt:             now,
	}
	if err := e.store.Challenges().Create(ctx, challenge); err != nil {
		return nil, fmt.Errorf("create challenge: %w", err)
	}

	return &IssuedChallenge{
		Challenge:        challenge,
		XPReward:         e.catalog.Reward(challengeType, difficulty),
		RemainingUnlocks: settings.MaxUnlocksPerSession - used,
	}, nil
}

// Verify checks an answer against a challenge. A challenge is verified at
// most once; a correct answer awards XP and grants the unlock atomically.
func (e *Engine) Verify(ctx context.Context, userID, challengeID, answer string, timeTakenSeconds int) (*VerifyResult, error) {
	if timeTakenSeconds < 0 {
		return nil, apperrors.InvalidInput("timeTaken must not be negative")
	}

	var (
		result    *VerifyResult
		challenge *domain.Challenge
	)
	err := e.withUserLock(ctx, userID, func() error {
		var err error
		challenge, result, err = e.verifyLocked(ctx, userID, challengeID, answer, timeTakenSeconds)
		return err
	})
	if err != nil {
		return nil, err
	}

	label := "failure"
	if result.Success {
		label = "success"
	}
	challengesVerified.WithLabelValues(string(challenge.Type), label).Inc()

	if err := e.events.PublishChallengeCompleted(ctx, challenge); err != nil {
		e.logger.ErrorContext(ctx, "failed to publish challenge.completed event",
			slog.String("challenge_id", challenge.ID),
			slog.String("error", err.Error()),
		)
	}
	if result.Unlock != nil {
		e.ledger.granted(ctx, result.Unlock)
	}

	e.logger.InfoContext(ctx, "challenge verified",
		slog.String("challenge_id", challenge.ID),
		slog.Bool("success", result.Success),
		slog.Int("xp_awarded", result.XPAwarded),
	)
	return result, nil
}

func (e *Engine) verifyLocked(ctx context.Context, userID, challengeID, answer string, timeTaken int) (*domain.Challenge, *VerifyResult, error) {
	challenge, err := e.store.Challenges().GetByID(ctx, challengeID)
	if err != nil {
		if errors.Is(err, apperrors.ErrNotFound) {
			return nil, nil, apperrors.NotFound("challenge", challengeID)
		}
		return nil, nil, fmt.Errorf("get challenge: %w", err)
	}
	if challenge.UserID != userID {
		return nil, nil, apperrors.NotFound("challenge", challengeID)
	}
	if challenge.IsCompleted() {
		return nil, nil, reject(errAlreadyCompleted())
	}

	now := e.now()
	outcome := domain.ChallengeOutcome{CompletedAt: now, TimeTakenSeconds: timeTaken}

	if !e.catalog.Verify(challenge.Content, answer, timeTaken) {
		if err := e.complete(ctx, e.store, challengeID, outcome); err != nil {
			return nil, nil, err
		}
		applyOutcome(challenge, outcome)
		return challenge, &VerifyResult{Success: false}, nil
	}

	session, err := e.store.Sessions().GetByID(ctx, challenge.SessionID)
	if err != nil {
		return nil, nil, fmt.Errorf("get challenge session: %w", err)
	}
	if !session.IsOpen() {
		return nil, nil, reject(errNoActiveSession())
	}

	settings, err := e.settingsFor(ctx, userID)
	if err != nil {
		return nil, nil, err
	}
	used, err := e.store.Unlocks().CountBySession(ctx, challenge.SessionID)
	if err != nil {
		return nil, nil, fmt.Errorf("count session unlocks: %w", err)
	}
	if used >= settings.MaxUnlocksPerSession {
		return nil, nil, reject(errUnlockCapReached(used, settings.MaxUnlocksPerSession))
	}

	outcome.Success = true
	outcome.XPAwarded = e.catalog.Reward(challenge.Type, challenge.Difficulty)

	result := &VerifyResult{Success: true, XPAwarded: outcome.XPAwarded}
	err = e.store.WithinTx(ctx, func(tx repository.Store) error {
		if err := e.complete(ctx, tx, challengeID, outcome); err != nil {
			return err
		}

		var err error
		result.Progress, err = tx.Progress().Update(ctx, userID, func(p *domain.Progress) error {
			p.XP += outcome.XPAwarded
			p.Level = progression.LevelFromXP(p.XP)
			p.UpdatedAt = now
			return nil
		})
		if err != nil {
			return fmt.Errorf("award challenge xp: %w", err)
		}

		result.Unlock, err = grant(ctx, tx.Unlocks(), userID, challenge.UnlockDomain,
			challenge.SessionID, challenge.ID, challenge.UnlockDurationMinutes, now)
		return err
	})
	if err != nil {
		return nil, nil, err
	}

	applyOutcome(challenge, outcome)
	return challenge, result, nil
}

func (e *Engine) complete(ctx context.Context, store repository.Store, challengeID string, outcome domain.ChallengeOutcome) error {
	if err := store.Challenges().Complete(ctx, challengeID, outcome); err != nil {
		if errors.Is(err, apperrors.ErrConflict) {
			return reject(errAlreadyCompleted())
		}
		return fmt.Errorf("complete challenge: %w", err)
	}
	return nil
}

func applyOutcome(c *domain.Challenge, o domain.ChallengeOutcome) {
	c.CompletedAt = &o.CompletedAt
	c.Success = &o.Success
	c.TimeTakenSeconds = &o.TimeTakenSeconds
	c.XPAwarded = &o.XPAwarded
}
