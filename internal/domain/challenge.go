package domain

import "time"

// ChallengeType enumerates the kinds of challenge the catalog can generate.
type ChallengeType string

// Challenge types.
const (
	ChallengeArithmetic ChallengeType = "arithmetic"
	ChallengeMemory     ChallengeType = "memory"
	ChallengeTyping     ChallengeType = "typing"
	ChallengeExercise   ChallengeType = "exercise"
	ChallengeBreathing  ChallengeType = "breathing"
	ChallengePuzzle     ChallengeType = "puzzle"
	ChallengeReaction   ChallengeType = "reaction"
)

// Difficulty bounds.
const (
	MinDifficulty = 1
	MaxDifficulty = 5
)

// ChallengeTypes returns every challenge type in a stable order.
func ChallengeTypes() []ChallengeType {
	return []ChallengeType{
		ChallengeArithmetic,
		ChallengeMemory,
		ChallengeTyping,
		ChallengeExercise,
		ChallengeBreathing,
		ChallengePuzzle,
		ChallengeReaction,
	}
}

// IsValidChallengeType checks whether t is a known challenge type.
func IsValidChallengeType(t ChallengeType) bool {
	for _, v := range ChallengeTypes() {
		if v == t {
			return true
		}
	}
	return false
}

// ClampDifficulty forces d into [MinDifficulty, MaxDifficulty].
func ClampDifficulty(d int) int {
	if d < MinDifficulty {
		return MinDifficulty
	}
	if d > MaxDifficulty {
		return MaxDifficulty
	}
	return d
}

// Challenge is a task whose successful completion grants a temporary unlock
// of UnlockDomain. The outcome fields stay nil until the single verification.
type Challenge struct {
	ID                    string        `json:"id"`
	UserID                string        `json:"userId"`
	SessionID             string        `json:"sessionId"`
	Type                  ChallengeType `json:"type"`
	Difficulty            int           `json:"difficulty"`
	Content               Content       `json:"-"`
	UnlockDomain          string        `json:"unlockDomain"`
	UnlockDurationMinutes int           `json:"unlockDuration"`
	CreatedAt             time.Time     `json:"createdAt"`
	CompletedAt           *time.Time    `json:"completedAt,omitempty"`
	Success               *bool         `json:"success,omitempty"`
	TimeTakenSeconds      *int          `json:"timeTaken,omitempty"`
	XPAwarded             *int          `json:"xpAwarded,omitempty"`
}

// IsCompleted reports whether the challenge has already been verified.
func (c *Challenge) IsCompleted() bool {
	return c.CompletedAt != nil
}

// Succeeded reports whether the challenge was verified successfully.
func (c *Challenge) Succeeded() bool {
	return c.Success != nil && *c.Success
}

// ChallengeOutcome is the result recorded by the single verification.
type ChallengeOutcome struct {
	CompletedAt      time.Time
	Success          bool
	TimeTakenSeconds int
	XPAwarded        int
}
