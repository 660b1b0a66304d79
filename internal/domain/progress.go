package domain

import "time"

// Progress is a user's progression record. Level is always derived from XP.
type Progress struct {
	UserID        string     `json:"userId"`
	XP            int        `json:"xp"`
	Level         int        `json:"level"`
	Streak        int        `json:"streak"`
	LongestStreak int        `json:"longestStreak"`
	LastFocusDate *time.Time `json:"lastFocusDate,omitempty"`
	UpdatedAt     time.Time  `json:"updatedAt"`
}

// NewProgress returns the starting record for a user with no history.
func NewProgress(userID string) *Progress {
	return &Progress{UserID: userID, Level: 1}
}
