package domain

import (
	"strings"
	"time"
)

// RevokeReason records why an unlock stopped being active.
type RevokeReason string

// Revoke reasons.
const (
	RevokedByUser       RevokeReason = "user"
	RevokedByExpiry     RevokeReason = "expired"
	RevokedBySessionEnd RevokeReason = "session_end"
)

// IsValidRevokeReason checks whether r is a known revoke reason.
func IsValidRevokeReason(r RevokeReason) bool {
	switch r {
	case RevokedByUser, RevokedByExpiry, RevokedBySessionEnd:
		return true
	}
	return false
}

// TemporaryUnlock is a time-bounded grant of access to one domain. IsActive
// only ever moves from true to false.
type TemporaryUnlock struct {
	ID              string        `json:"id"`
	UserID          string        `json:"userId"`
	Domain          string        `json:"domain"`
	SessionID       string        `json:"sessionId"`
	ChallengeID     string        `json:"challengeId"`
	GrantedAt       time.Time     `json:"grantedAt"`
	ExpiresAt       time.Time     `json:"expiresAt"`
	DurationMinutes int           `json:"duration"`
	IsActive        bool          `json:"isActive"`
	WasUsed         bool          `json:"wasUsed"`
	FirstAccessedAt *time.Time    `json:"firstAccessedAt,omitempty"`
	LastAccessedAt  *time.Time    `json:"lastAccessedAt,omitempty"`
	RevokedAt       *time.Time    `json:"revokedAt,omitempty"`
	RevokedBy       *RevokeReason `json:"revokedBy,omitempty"`
}

// IsValidAt reports whether the unlock grants access at now.
func (u *TemporaryUnlock) IsValidAt(now time.Time) bool {
	return u.IsActive && now.Before(u.ExpiresAt)
}

// Remaining returns the time left before expiry, never negative.
func (u *TemporaryUnlock) Remaining(now time.Time) time.Duration {
	if d := u.ExpiresAt.Sub(now); d > 0 {
		return d
	}
	return 0
}

// NormalizeDomain lower-cases a host and strips a leading "www.".
func NormalizeDomain(domain string) string {
	d := strings.ToLower(strings.TrimSpace(domain))
	return strings.TrimPrefix(d, "www.")
}
