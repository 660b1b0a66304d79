// Package progression holds the pure calculators for experience points,
// levels and daily streaks. Nothing here touches a store or the clock.
package progression

import (
	"math"
	"time"
)

const (
	xpPerMinute        = 10
	firstOfDayBonus    = 25
	streakBonusPerStep = 5
)

// XPForSession returns the XP earned by a focus session of durationMinutes.
// The first session of a calendar day earns a flat bonus on top. Non-positive
// durations earn nothing, bonus included.
func XPForSession(durationMinutes int, firstSessionToday bool) int {
	if durationMinutes <= 0 {
		return 0
	}
	xp := durationMinutes * xpPerMinute
	if firstSessionToday {
		xp += firstOfDayBonus
	}
	return xp
}

// levelCost is floor(100 * i^1.5), computed as the integer square root of
// 10000*i^3 so perfect squares do not lose a point to float rounding.
func levelCost(i int) int {
	n := int64(10000) * int64(i) * int64(i) * int64(i)
	r := int64(math.Sqrt(float64(n)))
	for r*r > n {
		r--
	}
	for (r+1)*(r+1) <= n {
		r++
	}
	return int(r)
}

// XPThreshold returns the cumulative XP needed to complete level, that is
// the sum of levelCost(i) for i in 1..level. XPThreshold(0) is 0.
func XPThreshold(level int) int {
	total := 0
	for i := 1; i <= level; i++ {
		total += levelCost(i)
	}
	return total
}

// LevelFromXP returns the largest level L >= 1 with XPThreshold(L-1) <= xp.
// The curve has no closed-form inverse once floored, so it walks up.
func LevelFromXP(xp int) int {
	level := 1
	next := levelCost(1)
	for next <= xp {
		level++
		next += levelCost(level)
	}
	return level
}

// StreakDecision is the effect a session close has on the daily streak.
type StreakDecision int

const (
	StreakUnchanged StreakDecision = iota
	StreakIncrement
	StreakReset
)

func (d StreakDecision) String() string {
	switch d {
	case StreakIncrement:
		return "increment"
	case StreakReset:
		return "reset"
	default:
		return "unchanged"
	}
}

// dayNumber maps t to a day count in loc so calendar days can be subtracted.
func dayNumber(t time.Time, loc *time.Location) int {
	y, m, d := t.In(loc).Date()
	return int(time.Date(y, m, d, 0, 0, 0, 0, time.UTC).Unix() / 86400)
}

// DecideStreak compares the last focus date with now, by calendar day in loc.
// A missing last date starts a streak. A last date later than today is
// treated as today.
func DecideStreak(lastFocusDate *time.Time, now time.Time, loc *time.Location) StreakDecision {
	if loc == nil {
		loc = time.UTC
	}
	if lastFocusDate == nil {
		return StreakIncrement
	}
	switch gap := dayNumber(now, loc) - dayNumber(*lastFocusDate, loc); {
	case gap <= 0:
		return StreakUnchanged
	case gap == 1:
		return StreakIncrement
	default:
		return StreakReset
	}
}

// IsFirstSessionToday reports whether no session closed earlier on now's
// calendar day.
func IsFirstSessionToday(lastFocusDate *time.Time, now time.Time, loc *time.Location) bool {
	if loc == nil {
		loc = time.UTC
	}
	return lastFocusDate == nil || dayNumber(*lastFocusDate, loc) != dayNumber(now, loc)
}

// StreakResult is the streak state after applying a decision.
type StreakResult struct {
	Streak  int
	Longest int
	BonusXP int
}

// ApplyStreak applies d to the current streak. Only an increment earns a
// bonus, of streakBonusPerStep XP per day gained.
func ApplyStreak(current, longest int, d StreakDecision) StreakResult {
	next := current
	bonus := 0
	switch d {
	case StreakIncrement:
		next = current + 1
		bonus = streakBonusPerStep * (next - current)
	case StreakReset:
		next = 1
	}
	return StreakResult{
		Streak:  next,
		Longest: max(longest, next),
		BonusXP: bonus,
	}
}
