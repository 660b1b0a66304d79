package domain

import "time"

// FocusSession is a timed interval during which distraction gating is active.
// A session is open while EndedAt is nil.
type FocusSession struct {
	ID               string     `json:"id"`
	UserID           string     `json:"userId"`
	StartedAt        time.Time  `json:"startedAt"`
	EndedAt          *time.Time `json:"endedAt,omitempty"`
	DurationMinutes  *int       `json:"durationMinutes,omitempty"`
	DistractionCount int        `json:"distractionCount"`
}

// IsOpen reports whether the session has not been closed yet.
func (s *FocusSession) IsOpen() bool {
	return s.EndedAt == nil
}

// SessionDuration returns the whole minutes between start and end, floored.
// Clock skew that puts end before start yields 0.
func SessionDuration(start, end time.Time) int {
	d := end.Sub(start)
	if d <= 0 {
		return 0
	}
	return int(d / time.Minute)
}
