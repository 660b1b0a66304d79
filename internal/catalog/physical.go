package catalog

import "github.com/utafrali/FocusGate/internal/domain"

var (
	exercises     = []string{"jumping jacks", "squats", "push-ups", "lunges", "high knees"}
	exerciseReps  = [domain.MaxDifficulty]int{10, 15, 20, 30, 40}
	reactionRound = [domain.MaxDifficulty]int{3, 4, 5, 6, 8}
	reactionMs    = [domain.MaxDifficulty]int{500, 450, 400, 350, 300}
)

// breathingPatterns holds inhale, hold, exhale, hold-after and cycle count.
var breathingPatterns = [domain.MaxDifficulty][5]int{
	{4, 0, 4, 0, 3},
	{4, 2, 4, 0, 4},
	{4, 4, 4, 0, 5},
	{4, 4, 4, 4, 6},
	{4, 7, 8, 0, 6},
}

func (c *Catalog) exercise(d int) *domain.ExerciseContent {
	reps := exerciseReps[d-1]
	return &domain.ExerciseContent{
		Exercise:  exercises[c.intN(len(exercises))],
		Reps:      reps,
		TimeLimit: 30 + reps*3,
	}
}

func breathing(d int) *domain.BreathingContent {
	p := breathingPatterns[d-1]
	bc := &domain.BreathingContent{
		Inhale:    p[0],
		Hold:      p[1],
		Exhale:    p[2],
		HoldAfter: p[3],
		Cycles:    p[4],
	}
	bc.TimeLimit = bc.Cycles*bc.CycleSeconds() + 30
	return bc
}

func reaction(d int) *domain.ReactionContent {
	rounds := reactionRound[d-1]
	return &domain.ReactionContent{
		Rounds:      rounds,
		ThresholdMs: reactionMs[d-1],
		TimeLimit:   30 + rounds*5,
	}
}
