package event

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"github.com/utafrali/FocusGate/internal/domain"
	pkgkafka "github.com/utafrali/FocusGate/pkg/kafka"
	"github.com/utafrali/FocusGate/pkg/logger"
)

// Topics of the gating domain events.
var (
	TopicChallengeCompleted = pkgkafka.Topic("challenge", "completed")
	TopicUnlockGranted      = pkgkafka.Topic("unlock", "granted")
	TopicUnlockRevoked      = pkgkafka.Topic("unlock", "revoked")
	TopicSessionEnded       = pkgkafka.Topic("session", "ended")
)

// Aggregate types.
const (
	AggregateChallenge = "challenge"
	AggregateUnlock    = "temporary_unlock"
	AggregateSession   = "focus_session"
)

// Source identifies events emitted by this service.
const Source = "focusgate"

// ChallengeCompletedData is the payload of challenge.completed.
type ChallengeCompletedData struct {
	ChallengeID      string `json:"challenge_id"`
	SessionID        string `json:"session_id"`
	Type             string `json:"type"`
	Difficulty       int    `json:"difficulty"`
	Success          bool   `json:"success"`
	TimeTakenSeconds int    `json:"time_taken_seconds"`
	XPAwarded        int    `json:"xp_awarded"`
}

// UnlockGrantedData is the payload of unlock.granted.
type UnlockGrantedData struct {
	UnlockID        string    `json:"unlock_id"`
	Domain          string    `json:"domain"`
	SessionID       string    `json:"session_id"`
	ChallengeID     string    `json:"challenge_id"`
	DurationMinutes int       `json:"duration_minutes"`
	ExpiresAt       time.Time `json:"expires_at"`
}

// UnlockRevokedData is the payload of unlock.revoked.
type UnlockRevokedData struct {
	UnlockID string `json:"unlock_id"`
	Domain   string `json:"domain"`
	Reason   string `json:"reason"`
}

// SessionEndedData is the payload of session.ended.
type SessionEndedData struct {
	SessionID        string    `json:"session_id"`
	StartedAt        time.Time `json:"started_at"`
	EndedAt          time.Time `json:"ended_at"`
	DurationMinutes  int       `json:"duration_minutes"`
	DistractionCount int       `json:"distraction_count"`
	XPEarned         int       `json:"xp_earned"`
	Streak           int       `json:"streak"`
	Level            int       `json:"level"`
}

// Publisher sends an event to a topic. *pkgkafka.Producer satisfies it.
type Publisher interface {
	Publish(ctx context.Context, topic string, event *pkgkafka.Event) error
}

// Discard is a Publisher that drops every event. It is used when Kafka is
// disabled.
type Discard struct{}

func (Discard) Publish(context.Context, string, *pkgkafka.Event) error { return nil }

// Producer publishes gating domain events.
type Producer struct {
	publisher Publisher
	logger    *slog.Logger
}

// NewProducer creates a new event producer.
func NewProducer(publisher Publisher, logger *slog.Logger) *Producer {
	if publisher == nil {
		publisher = Discard{}
	}
	return &Producer{publisher: publisher, logger: logger}
}

func (p *Producer) publish(ctx context.Context, topic, eventType, aggregateID, aggregateType, userID string, data any) error {
	evt, err := pkgkafka.NewEvent(eventType, aggregateID, aggregateType, Source, data)
	if err != nil {
		return fmt.Errorf("build %s event: %w", eventType, err)
	}
	evt.WithUserID(userID)
	if id := logger.CorrelationIDFromContext(ctx); id != "" {
		evt.WithCorrelationID(id)
	}

	if err := p.publisher.Publish(ctx, topic, evt); err != nil {
		return fmt.Errorf("publish %s event: %w", eventType, err)
	}

	p.logger.DebugContext(ctx, "event published",
		slog.String("event_type", eventType),
		slog.String("aggregate_id", aggregateID),
	)
	return nil
}

// PublishChallengeCompleted publishes a challenge.completed event.
func (p *Producer) PublishChallengeCompleted(ctx context.Context, c *domain.Challenge) error {
	data := ChallengeCompletedData{
		ChallengeID: c.ID,
		SessionID:   c.SessionID,
		Type:        string(c.Type),
		Difficulty:  c.Difficulty,
		Success:     c.Succeeded(),
	}
	if c.TimeTakenSeconds != nil {
		data.TimeTakenSeconds = *c.TimeTakenSeconds
	}
	if c.XPAwarded != nil {
		data.XPAwarded = *c.XPAwarded
	}
	return p.publish(ctx, TopicChallengeCompleted, "challenge.completed", c.ID, AggregateChallenge, c.UserID, data)
}

// PublishUnlockGranted publishes an unlock.granted event.
func (p *Producer) PublishUnlockGranted(ctx context.Context, u *domain.TemporaryUnlock) error {
	return p.publish(ctx, TopicUnlockGranted, "unlock.granted", u.ID, AggregateUnlock, u.UserID, UnlockGrantedData{
		UnlockID:        u.ID,
		Domain:          u.Domain,
		SessionID:       u.SessionID,
		ChallengeID:     u.ChallengeID,
		DurationMinutes: u.DurationMinutes,
		ExpiresAt:       u.ExpiresAt,
	})
}

// PublishUnlockRevoked publishes an unlock.revoked event.
func (p *Producer) PublishUnlockRevoked(ctx context.Context, u *domain.TemporaryUnlock, reason domain.RevokeReason) error {
	return p.publish(ctx, TopicUnlockRevoked, "unlock.revoked", u.ID, AggregateUnlock, u.UserID, UnlockRevokedData{
		UnlockID: u.ID,
		Domain:   u.Domain,
		Reason:   string(reason),
	})
}

// PublishSessionEnded publishes a session.ended event.
func (p *Producer) PublishSessionEnded(ctx context.Context, s *domain.FocusSession, xpEarned int, progress *domain.Progress) error {
	data := SessionEndedData{
		SessionID:        s.ID,
		StartedAt:        s.StartedAt,
		DistractionCount: s.DistractionCount,
		XPEarned:         xpEarned,
		Streak:           progress.Streak,
		Level:            progress.Level,
	}
	if s.EndedAt != nil {
		data.EndedAt = *s.EndedAt
	}
	if s.DurationMinutes != nil {
		data.DurationMinutes = *s.DurationMinutes
	}
	return p.publish(ctx, TopicSessionEnded, "session.ended", s.ID, AggregateSession, s.UserID, data)
}
