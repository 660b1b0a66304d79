package domain

import "time"

// Settings is a user's gating configuration.
type Settings struct {
	UserID                string          `json:"userId"`
	ChallengesEnabled     bool            `json:"challengesEnabled"`
	AllowedTypes          []ChallengeType `json:"allowedTypes"`
	Difficulty            int             `json:"difficulty"`
	CooldownMinutes       int             `json:"cooldownMinutes"`
	MaxUnlocksPerSession  int             `json:"maxUnlocksPerSession"`
	UnlockDurationMinutes int             `json:"unlockDurationMinutes"`
	UpdatedAt             time.Time       `json:"updatedAt"`
}

// Default gating settings.
const (
	DefaultDifficulty            = 2
	DefaultCooldownMinutes       = 5
	DefaultMaxUnlocksPerSession  = 3
	DefaultUnlockDurationMinutes = 10
)

// DefaultSettings is used for users that never saved settings.
func DefaultSettings(userID string) *Settings {
	return &Settings{
		UserID:                userID,
		ChallengesEnabled:     true,
		AllowedTypes:          ChallengeTypes(),
		Difficulty:            DefaultDifficulty,
		CooldownMinutes:       DefaultCooldownMinutes,
		MaxUnlocksPerSession:  DefaultMaxUnlocksPerSession,
		UnlockDurationMinutes: DefaultUnlockDurationMinutes,
	}
}

// Allows reports whether t is in the allowed set.
func (s *Settings) Allows(t ChallengeType) bool {
	for _, a := range s.AllowedTypes {
		if a == t {
			return true
		}
	}
	return false
}
