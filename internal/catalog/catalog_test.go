package catalog

import (
	"math/rand/v2"
	"regexp"
	"strconv"
	"strings"
	"sync"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/utafrali/FocusGate/internal/domain"
)

func newTestCatalog() *Catalog {
	return New(rand.New(rand.NewPCG(42, 1024)))
}

// evalQuestion evaluates a rendered question strictly left to right,
// honouring parentheses only. It fails the test on a negative or
// fractional intermediate.
func evalQuestion(t *testing.T, q string) int {
	t.Helper()
	tokens := strings.Fields(strings.NewReplacer("(", " ( ", ")", " ) ").Replace(q))
	pos := 0

	var expression func() int
	operand := func() int {
		tok := tokens[pos]
		pos++
		if tok == "(" {
			v := expression()
			require.Equal(t, ")", tokens[pos], q)
			pos++
			return v
		}
		n, err := strconv.Atoi(tok)
		require.NoError(t, err, q)
		return n
	}
	expression = func() int {
		v := operand()
		for pos < len(tokens) && tokens[pos] != ")" {
			op := tokens[pos]
			pos++
			r := operand()
			switch op {
			case "+":
				v += r
			case "-":
				v -= r
			case "×":
				v *= r
			case "÷":
				require.NotZero(t, r, q)
				require.Zero(t, v%r, "inexact division in %q", q)
				v /= r
			default:
				t.Fatalf("unknown operator %q in %q", op, q)
			}
			require.GreaterOrEqual(t, v, 0, "negative intermediate in %q", q)
		}
		return v
	}

	v := expression()
	require.Equal(t, len(tokens), pos, q)
	return v
}

func countOps(q string) int {
	return len(regexp.MustCompile(` [-+×÷] `).FindAllString(q, -1))
}

// ============================================================================
// Arithmetic
// ============================================================================

func TestSimpleArithmetic(t *testing.T) {
	c := newTestCatalog()

	content := SimpleArithmetic(7, 3, "-")
	assert.Equal(t, "7 - 3", content.Question)
	assert.Equal(t, "4", content.Answer)

	assert.True(t, c.Verify(content, "4", 999))
	assert.True(t, c.Verify(content, " 4 ", 0))
	assert.False(t, c.Verify(content, "5", 1))
	assert.False(t, c.Verify(content, "", 1))

	swapped := SimpleArithmetic(3, 7, "-")
	assert.Equal(t, "7 - 3", swapped.Question)
	assert.Equal(t, "10", SimpleArithmetic(6, 4, "+").Answer)
}

func TestArithmetic_AnswersMatchQuestions(t *testing.T) {
	c := newTestCatalog()
	d1 := regexp.MustCompile(`^[1-9] [-+] [1-9]$`)
	d5 := regexp.MustCompile(`^\(.+\) [-+×÷] \(.+\)$`)

	for d := domain.MinDifficulty; d <= domain.MaxDifficulty; d++ {
		for range 200 {
			content, err := c.Generate(domain.ChallengeArithmetic, d)
			require.NoError(t, err)
			ac := content.(*domain.ArithmeticContent)

			assert.Equal(t, ac.Answer, strconv.Itoa(evalQuestion(t, ac.Question)), ac.Question)

			switch d {
			case 1:
				assert.Regexp(t, d1, ac.Question)
			case 2:
				assert.Equal(t, 1, countOps(ac.Question), ac.Question)
				assert.Regexp(t, `^\d{2,3} [×÷] \d{2}$`, ac.Question)
			case 3:
				assert.Equal(t, 2, countOps(ac.Question), ac.Question)
			case 4:
				assert.Equal(t, 3, countOps(ac.Question), ac.Question)
				assert.True(t, strings.HasPrefix(ac.Question, "(("), ac.Question)
			case 5:
				assert.Equal(t, 3, countOps(ac.Question), ac.Question)
				assert.Regexp(t, d5, ac.Question)
			}
		}
	}
}

// ============================================================================
// Memory
// ============================================================================

func TestMemory_GridsArePaired(t *testing.T) {
	c := newTestCatalog()
	grids := [][2]int{{2, 3}, {3, 4}, {4, 4}, {4, 5}, {5, 6}}

	for d := 1; d <= 5; d++ {
		content, err := c.Generate(domain.ChallengeMemory, d)
		require.NoError(t, err)
		mc := content.(*domain.MemoryContent)

		assert.Equal(t, grids[d-1][0], mc.Rows)
		assert.Equal(t, grids[d-1][1], mc.Cols)
		assert.Len(t, mc.Cards, mc.Rows*mc.Cols)
		assert.Equal(t, 60+30*d, mc.TimeLimit)

		counts := map[string]int{}
		for _, card := range mc.Cards {
			counts[card]++
		}
		for symbol, n := range counts {
			assert.Equal(t, 2, n, "symbol %s", symbol)
		}
	}
}

// ============================================================================
// Typing
// ============================================================================

func TestTyping_ThresholdsIncrease(t *testing.T) {
	c := newTestCatalog()
	prevWPM, prevAcc := 0, 0
	for d := 1; d <= 5; d++ {
		content, err := c.Generate(domain.ChallengeTyping, d)
		require.NoError(t, err)
		tc := content.(*domain.TypingContent)

		assert.Greater(t, tc.MinWPM, prevWPM)
		assert.Greater(t, tc.MinAccuracy, prevAcc)
		assert.Equal(t, len(strings.Fields(tc.Passage)), tc.WordCount)
		prevWPM, prevAcc = tc.MinWPM, tc.MinAccuracy
	}
}

func TestTyping_Verify(t *testing.T) {
	c := newTestCatalog()
	tc := &domain.TypingContent{
		Passage:     "Take a breath and keep going.",
		WordCount:   6,
		MinWPM:      20,
		MinAccuracy: 85,
		TimeLimit:   18,
	}

	assert.True(t, c.Verify(tc, "Take a breath and keep going.", 18), "exactly MinWPM")
	assert.True(t, c.Verify(tc, "  take a breath and  keep going. ", 10), "case slip within accuracy")
	assert.False(t, c.Verify(tc, "Take a breath and keep going.", 19), "too slow")
	assert.False(t, c.Verify(tc, "Take a breath and keep going.", 0), "no elapsed time")
	assert.False(t, c.Verify(tc, "Take a nap.", 5), "inaccurate")
}

func TestAccuracy(t *testing.T) {
	assert.Equal(t, 100.0, Accuracy("focus now", "focus now"))
	assert.Equal(t, 100.0, Accuracy("focus  now", " focus now "))
	assert.InDelta(t, 100*(1-1.0/9), Accuracy("focus now", "focus nov"), 1e-9)
	assert.Equal(t, 0.0, Accuracy("abc", ""))
	assert.Equal(t, 100.0, Accuracy("", ""))
}

func TestLevenshtein(t *testing.T) {
	assert.Equal(t, 3, levenshtein([]rune("kitten"), []rune("sitting")))
	assert.Equal(t, 0, levenshtein([]rune("ümlaut"), []rune("ümlaut")))
	assert.Equal(t, 4, levenshtein(nil, []rune("four")))
}

// ============================================================================
// Timed types
// ============================================================================

func TestTimedTypes_VerifyOnTimeOnly(t *testing.T) {
	c := newTestCatalog()
	for _, ct := range []domain.ChallengeType{
		domain.ChallengeMemory,
		domain.ChallengeExercise,
		domain.ChallengeBreathing,
		domain.ChallengePuzzle,
		domain.ChallengeReaction,
	} {
		for d := 1; d <= 5; d++ {
			content, err := c.Generate(ct, d)
			require.NoError(t, err)
			limit := content.TimeLimitSeconds()
			require.Positive(t, limit)

			assert.True(t, c.Verify(content, "", 0), "%s d%d", ct, d)
			assert.True(t, c.Verify(content, "anything", limit-1), "%s d%d", ct, d)
			assert.False(t, c.Verify(content, "", limit), "%s d%d", ct, d)
			assert.False(t, c.Verify(content, "", -1), "%s d%d", ct, d)
		}
	}
}

func TestParametricTypes_ScaleWithDifficulty(t *testing.T) {
	c := newTestCatalog()
	var prevReps, prevRounds, prevBreath int
	prevThreshold := 1 << 30

	for d := 1; d <= 5; d++ {
		ex, _ := c.Generate(domain.ChallengeExercise, d)
		reps := ex.(*domain.ExerciseContent).Reps
		assert.Greater(t, reps, prevReps)
		assert.Equal(t, 30+reps*3, ex.TimeLimitSeconds())
		prevReps = reps

		br, _ := c.Generate(domain.ChallengeBreathing, d)
		bc := br.(*domain.BreathingContent)
		total := bc.Cycles * bc.CycleSeconds()
		assert.Greater(t, total, prevBreath)
		assert.Equal(t, total+30, bc.TimeLimit)
		prevBreath = total

		re, _ := c.Generate(domain.ChallengeReaction, d)
		rc := re.(*domain.ReactionContent)
		assert.Greater(t, rc.Rounds, prevRounds)
		assert.Less(t, rc.ThresholdMs, prevThreshold)
		prevRounds, prevThreshold = rc.Rounds, rc.ThresholdMs
	}
}

// ============================================================================
// Puzzle
// ============================================================================

func solvable(tiles []int, size int) bool {
	inversions, blankRow := 0, 0
	for i, a := range tiles {
		if a == 0 {
			blankRow = i / size
			continue
		}
		for _, b := range tiles[i+1:] {
			if b != 0 && b < a {
				inversions++
			}
		}
	}
	if size%2 == 1 {
		return inversions%2 == 0
	}
	return (inversions+(size-blankRow))%2 == 1
}

func TestPuzzle_ScrambledAndSolvable(t *testing.T) {
	c := newTestCatalog()
	for d := 1; d <= 5; d++ {
		for range 50 {
			content, err := c.Generate(domain.ChallengePuzzle, d)
			require.NoError(t, err)
			pc := content.(*domain.PuzzleContent)

			assert.Equal(t, puzzleSize(d), pc.Size)
			assert.ElementsMatch(t, solvedBoard(pc.Size), pc.Tiles)
			assert.False(t, isSolved(pc.Tiles))
			assert.True(t, solvable(pc.Tiles, pc.Size), "%v", pc.Tiles)
		}
	}
}

// ============================================================================
// Catalog
// ============================================================================

func TestReward(t *testing.T) {
	c := newTestCatalog()
	assert.Equal(t, []int{10, 20, 35, 50, 75}, rewardsOf(c, domain.ChallengeArithmetic))
	assert.Equal(t, []int{15, 25, 40, 60, 85}, rewardsOf(c, domain.ChallengeMemory))

	for _, ct := range domain.ChallengeTypes() {
		r := rewardsOf(c, ct)
		for i := 1; i < len(r); i++ {
			assert.Greater(t, r[i], r[i-1], "%s", ct)
		}
	}
	assert.Equal(t, 75, c.Reward(domain.ChallengeArithmetic, 42), "clamped")
	assert.Zero(t, c.Reward("sudoku", 1))
}

func rewardsOf(c *Catalog, ct domain.ChallengeType) []int {
	out := make([]int, 0, domain.MaxDifficulty)
	for d := 1; d <= domain.MaxDifficulty; d++ {
		out = append(out, c.Reward(ct, d))
	}
	return out
}

func TestGenerate_ClampsAndRejectsUnknown(t *testing.T) {
	c := newTestCatalog()

	content, err := c.Generate(domain.ChallengeMemory, 0)
	require.NoError(t, err)
	assert.Equal(t, 2, content.(*domain.MemoryContent).Rows)

	content, err = c.Generate(domain.ChallengeMemory, 99)
	require.NoError(t, err)
	assert.Equal(t, 5, content.(*domain.MemoryContent).Rows)

	_, err = c.Generate("sudoku", 1)
	assert.ErrorContains(t, err, "unsupported challenge type")
}

func TestRandomType(t *testing.T) {
	c := newTestCatalog()
	allowed := []domain.ChallengeType{domain.ChallengeBreathing, domain.ChallengeTyping}
	for range 50 {
		assert.Contains(t, allowed, c.RandomType(allowed))
	}
	assert.True(t, domain.IsValidChallengeType(c.RandomType(nil)))
}

func TestVerify_UnknownContent(t *testing.T) {
	assert.False(t, newTestCatalog().Verify(nil, "4", 1))
}

func TestCatalog_ConcurrentGenerate(t *testing.T) {
	c := New(nil)
	var wg sync.WaitGroup
	for range 8 {
		wg.Add(1)
		go func() {
			defer wg.Done()
			for _, ct := range domain.ChallengeTypes() {
				_, err := c.Generate(ct, 3)
				assert.NoError(t, err)
			}
		}()
	}
	wg.Wait()
}
