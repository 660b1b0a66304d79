package domain

import (
	"encoding/json"
	"fmt"
)

// Content is the type-specific payload of a challenge. Each challenge type
// has exactly one implementation, so a switch over the concrete types is
// exhaustive.
type Content interface {
	Kind() ChallengeType
	// TimeLimitSeconds is the bound a timed verification checks against.
	TimeLimitSeconds() int
	// Public returns the payload sent to the client, without any answer key.
	Public() any
}

// ArithmeticContent is a chained arithmetic question.
type ArithmeticContent struct {
	Question  string `json:"question"`
	Answer    string `json:"answer"`
	TimeLimit int    `json:"timeLimit"`
}

func (c *ArithmeticContent) Kind() ChallengeType   { return ChallengeArithmetic }
func (c *ArithmeticContent) TimeLimitSeconds() int { return c.TimeLimit }

// Public withholds the answer.
func (c *ArithmeticContent) Public() any {
	return struct {
		Question  string `json:"question"`
		TimeLimit int    `json:"timeLimit"`
	}{c.Question, c.TimeLimit}
}

// MemoryContent is a grid of paired symbols. Cards is in row-major order.
type MemoryContent struct {
	Rows      int      `json:"rows"`
	Cols      int      `json:"cols"`
	Cards     []string `json:"cards"`
	TimeLimit int      `json:"timeLimit"`
}

func (c *MemoryContent) Kind() ChallengeType   { return ChallengeMemory }
func (c *MemoryContent) TimeLimitSeconds() int { return c.TimeLimit }
func (c *MemoryContent) Public() any           { return c }

// TypingContent asks the user to retype a passage.
type TypingContent struct {
	Passage     string `json:"passage"`
	WordCount   int    `json:"wordCount"`
	MinWPM      int    `json:"minWpm"`
	MinAccuracy int    `json:"minAccuracy"`
	TimeLimit   int    `json:"timeLimit"`
}

func (c *TypingContent) Kind() ChallengeType   { return ChallengeTyping }
func (c *TypingContent) TimeLimitSeconds() int { return c.TimeLimit }
func (c *TypingContent) Public() any           { return c }

// ExerciseContent is a physical exercise attested by the client.
type ExerciseContent struct {
	Exercise  string `json:"exercise"`
	Reps      int    `json:"reps"`
	TimeLimit int    `json:"timeLimit"`
}

func (c *ExerciseContent) Kind() ChallengeType   { return ChallengeExercise }
func (c *ExerciseContent) TimeLimitSeconds() int { return c.TimeLimit }
func (c *ExerciseContent) Public() any           { return c }

// BreathingContent is a paced breathing pattern. Phase lengths are seconds.
type BreathingContent struct {
	Inhale    int `json:"inhale"`
	Hold      int `json:"hold"`
	Exhale    int `json:"exhale"`
	HoldAfter int `json:"holdAfter"`
	Cycles    int `json:"cycles"`
	TimeLimit int `json:"timeLimit"`
}

func (c *BreathingContent) Kind() ChallengeType   { return ChallengeBreathing }
func (c *BreathingContent) TimeLimitSeconds() int { return c.TimeLimit }
func (c *BreathingContent) Public() any           { return c }

// CycleSeconds is the length of one full breathing cycle.
func (c *BreathingContent) CycleSeconds() int {
	return c.Inhale + c.Hold + c.Exhale + c.HoldAfter
}

// PuzzleContent is a sliding-tile board. Tiles is row-major; 0 is the blank.
type PuzzleContent struct {
	Size      int   `json:"size"`
	Tiles     []int `json:"tiles"`
	TimeLimit int   `json:"timeLimit"`
}

func (c *PuzzleContent) Kind() ChallengeType   { return ChallengePuzzle }
func (c *PuzzleContent) TimeLimitSeconds() int { return c.TimeLimit }
func (c *PuzzleContent) Public() any           { return c }

// ReactionContent is a series of reaction-time rounds.
type ReactionContent struct {
	Rounds      int `json:"rounds"`
	ThresholdMs int `json:"thresholdMs"`
	TimeLimit   int `json:"timeLimit"`
}

func (c *ReactionContent) Kind() ChallengeType   { return ChallengeReaction }
func (c *ReactionContent) TimeLimitSeconds() int { return c.TimeLimit }
func (c *ReactionContent) Public() any           { return c }

// DecodeContent rebuilds the concrete Content for t from its stored JSON.
func DecodeContent(t ChallengeType, raw []byte) (Content, error) {
	var c Content
	switch t {
	case ChallengeArithmetic:
		c = &ArithmeticContent{}
	case ChallengeMemory:
		c = &MemoryContent{}
	case ChallengeTyping:
		c = &TypingContent{}
	case ChallengeExercise:
		c = &ExerciseContent{}
	case ChallengeBreathing:
		c = &BreathingContent{}
	case ChallengePuzzle:
		c = &PuzzleContent{}
	case ChallengeReaction:
		c = &ReactionContent{}
	default:
		return nil, fmt.Errorf("unknown challenge type %q", t)
	}
	if err := json.Unmarshal(raw, c); err != nil {
		return nil, fmt.Errorf("decode %s content: %w", t, err)
	}
	return c, nil
}
