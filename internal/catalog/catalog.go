// Package catalog generates challenge content per type and difficulty and
// verifies submitted answers. A Catalog is built once at startup and is
// safe for concurrent use.
package catalog

import (
	"fmt"
	"math/rand/v2"
	"sync"

	"github.com/utafrali/FocusGate/internal/domain"
)

// rewards holds the XP reward per type, indexed by difficulty-1.
var rewards = map[domain.ChallengeType][domain.MaxDifficulty]int{
	domain.ChallengeArithmetic: {10, 20, 35, 50, 75},
	domain.ChallengeMemory:     {15, 25, 40, 60, 85},
	domain.ChallengeTyping:     {12, 24, 38, 55, 80},
	domain.ChallengeExercise:   {10, 18, 30, 45, 65},
	domain.ChallengeBreathing:  {8, 15, 25, 38, 55},
	domain.ChallengePuzzle:     {20, 30, 45, 65, 90},
	domain.ChallengeReaction:   {10, 20, 30, 45, 60},
}

// Catalog is the challenge generator and verifier.
type Catalog struct {
	mu  sync.Mutex
	rng *rand.Rand
}

// New returns a Catalog drawing from rng. A nil rng gets a randomly seeded
// PCG source.
func New(rng *rand.Rand) *Catalog {
	if rng == nil {
		rng = rand.New(rand.NewPCG(rand.Uint64(), rand.Uint64()))
	}
	return &Catalog{rng: rng}
}

// intN returns a value in [0, n).
func (c *Catalog) intN(n int) int {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.rng.IntN(n)
}

// between returns a value in [lo, hi].
func (c *Catalog) between(lo, hi int) int {
	return lo + c.intN(hi-lo+1)
}

func (c *Catalog) shuffle(n int, swap func(i, j int)) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.rng.Shuffle(n, swap)
}

// Reward returns the XP awarded for a successful challenge of type t.
func (c *Catalog) Reward(t domain.ChallengeType, difficulty int) int {
	table, ok := rewards[t]
	if !ok {
		return 0
	}
	return table[domain.ClampDifficulty(difficulty)-1]
}

// RandomType picks uniformly from allowed, or from every type when allowed
// is empty.
func (c *Catalog) RandomType(allowed []domain.ChallengeType) domain.ChallengeType {
	if len(allowed) == 0 {
		allowed = domain.ChallengeTypes()
	}
	return allowed[c.intN(len(allowed))]
}

// Generate builds the content for a challenge of type t. Difficulty is
// clamped to the supported range first.
func (c *Catalog) Generate(t domain.ChallengeType, difficulty int) (domain.Content, error) {
	d := domain.ClampDifficulty(difficulty)
	switch t {
	case domain.ChallengeArithmetic:
		return c.arithmetic(d), nil
	case domain.ChallengeMemory:
		return c.memory(d), nil
	case domain.ChallengeTyping:
		return c.typing(d), nil
	case domain.ChallengeExercise:
		return c.exercise(d), nil
	case domain.ChallengeBreathing:
		return breathing(d), nil
	case domain.ChallengePuzzle:
		return c.puzzle(d), nil
	case domain.ChallengeReaction:
		return reaction(d), nil
	default:
		return nil, fmt.Errorf("unsupported challenge type %q", t)
	}
}

// Verify checks a submitted answer against content. Arithmetic compares the
// trimmed answer, typing checks speed and accuracy, and every other type is
// attested client-side so only the elapsed time is checked.
func (c *Catalog) Verify(content domain.Content, userAnswer string, timeTakenSeconds int) bool {
	switch ct := content.(type) {
	case *domain.ArithmeticContent:
		return verifyArithmetic(ct, userAnswer)
	case *domain.TypingContent:
		return verifyTyping(ct, userAnswer, timeTakenSeconds)
	case *domain.MemoryContent, *domain.ExerciseContent, *domain.BreathingContent,
		*domain.PuzzleContent, *domain.ReactionContent:
		return withinTimeLimit(content, timeTakenSeconds)
	default:
		return false
	}
}

func withinTimeLimit(content domain.Content, timeTakenSeconds int) bool {
	return timeTakenSeconds >= 0 && timeTakenSeconds < content.TimeLimitSeconds()
}
