package catalog

import (
	"strings"

	"github.com/utafrali/FocusGate/internal/domain"
)

var (
	typingMinWPM      = [domain.MaxDifficulty]int{20, 30, 40, 50, 60}
	typingMinAccuracy = [domain.MaxDifficulty]int{85, 88, 91, 94, 97}
)

// passages is tiered by difficulty: longer text and richer punctuation as
// the tier rises.
var passages = [domain.MaxDifficulty][]string{
	{
		"Focus on one thing at a time.",
		"Small steps lead to big results.",
		"Take a breath and keep going.",
	},
	{
		"Deep work happens when the noise fades and attention settles on a single task.",
		"Every tab you close is a decision to protect the time you planned for today.",
		"The urge to check a feed passes faster than you think if you wait it out.",
	},
	{
		"Attention is a budget, not a reservoir. Each switch between tasks spends a little of it, and the balance rarely recovers before the afternoon.",
		"Habits form in the gaps between intentions. A short pause before opening a distracting site is often enough to break the loop.",
		"Progress on hard problems is rarely visible minute to minute, which is exactly why the quick reward of a refresh feels so tempting.",
	},
	{
		"Most distractions are not emergencies; they are invitations. Declining them politely, again and again, is what separates a productive morning from a scattered one.",
		"When you notice the pull toward a feed, name it: boredom, anxiety, fatigue. Naming the feeling weakens it, and the work in front of you becomes easier to return to.",
		"A focus session is a promise to your future self. Keeping it, even for twenty-five minutes, builds the trust you need to attempt longer, harder stretches.",
	},
	{
		"Concentration is less about willpower than about environment: remove the cues, shorten the path to the work, and lengthen the path to everything else. Friction, applied deliberately, is a design tool.",
		"The cost of an interruption isn't the thirty seconds it takes; it's the twenty minutes needed to rebuild the mental model you abandoned. Guard that model as if it were the work itself, because it is.",
		"Streaks matter because they turn an abstract goal into a concrete daily question (did I show up today?) whose answer is always within reach, regardless of how the previous day went.",
	},
}

func (c *Catalog) typing(d int) *domain.TypingContent {
	pool := passages[d-1]
	passage := pool[c.intN(len(pool))]
	words := len(strings.Fields(passage))
	minWPM := typingMinWPM[d-1]

	return &domain.TypingContent{
		Passage:     passage,
		WordCount:   words,
		MinWPM:      minWPM,
		MinAccuracy: typingMinAccuracy[d-1],
		// Exactly the time that typing the passage at MinWPM takes, rounded up.
		TimeLimit: (words*60 + minWPM - 1) / minWPM,
	}
}

// verifyTyping requires the passage word count over timeTaken to reach
// MinWPM and the submitted text to match the passage with at least
// MinAccuracy percent character accuracy.
func verifyTyping(ct *domain.TypingContent, userAnswer string, timeTakenSeconds int) bool {
	if timeTakenSeconds <= 0 {
		return false
	}
	if ct.WordCount*60 < ct.MinWPM*timeTakenSeconds {
		return false
	}
	return Accuracy(ct.Passage, userAnswer) >= float64(ct.MinAccuracy)
}

// Accuracy scores typed against want as a percentage: 100 minus the edit
// distance relative to the length of want. Runs of whitespace are collapsed
// first. The result can be negative for wildly wrong input.
func Accuracy(want, typed string) float64 {
	w := []rune(strings.Join(strings.Fields(want), " "))
	t := []rune(strings.Join(strings.Fields(typed), " "))
	dist := levenshtein(w, t)
	return 100 * (1 - float64(dist)/float64(max(len(w), 1)))
}

// levenshtein is the classic two-row edit distance.
func levenshtein(a, b []rune) int {
	prev := make([]int, len(b)+1)
	cur := make([]int, len(b)+1)
	for j := range prev {
		prev[j] = j
	}
	for i := 1; i <= len(a); i++ {
		cur[0] = i
		for j := 1; j <= len(b); j++ {
			cost := 1
			if a[i-1] == b[j-1] {
				cost = 0
			}
			cur[j] = min(prev[j]+1, cur[j-1]+1, prev[j-1]+cost)
		}
		prev, cur = cur, prev
	}
	return prev[len(b)]
}
