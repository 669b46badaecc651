package skill

import (
	"context"
	"fmt"
	"math"
	"sort"

	"github.com/skillswap/skillswap-hub/internal/domain/shared"
)

// ══════════════════════════════════════════════════════════════════════════════
// ASSESSMENT TYPES
// ══════════════════════════════════════════════════════════════════════════════

// LevelMatch - соответствие результата проверки заявленному уровню.
type LevelMatch string

const (
	// LevelMatchExceeds - результат выше заявленного уровня.
	LevelMatchExceeds LevelMatch = "exceeds"

	// LevelMatchMatches - результат в пределах заявленного уровня.
	LevelMatchMatches LevelMatch = "matches"

	// LevelMatchMayNotMatch - результат ниже заявленного уровня.
	LevelMatchMayNotMatch LevelMatch = "may-not-match"
)

// Answer - ответ на вопрос самооценки.
type Answer struct {
	Question string `json:"question"`
	Text     string `json:"answer"`
}

// Assessment - результат проверки заявленного уровня.
type Assessment struct {
	IsValid      bool       `json:"is_valid"`
	Score        float64    `json:"score"`
	ClaimedLevel Level      `json:"claimed_level"`
	LevelMatch   LevelMatch `json:"level_match"`
	Feedback     []string   `json:"feedback"`
	Strengths    []string   `json:"strengths"`
	Concerns     []string   `json:"concerns"`
}

// Clone создаёт копию результата.
func (a Assessment) Clone() Assessment {
	c := a
	c.Feedback = append([]string(nil), a.Feedback...)
	c.Strengths = append([]string(nil), a.Strengths...)
	c.Concerns = append([]string(nil), a.Concerns...)
	return c
}

// ══════════════════════════════════════════════════════════════════════════════
// LEVEL BANDS
// ══════════════════════════════════════════════════════════════════════════════

// Нижние границы уровней по среднему баллу.
const (
	IntermediateThreshold = 40.0
	AdvancedThreshold     = 65.0
	ExpertThreshold       = 85.0
)

// LevelForScore возвращает уровень, в диапазон которого попадает балл.
// Beginner [0,40), Intermediate [40,65), Advanced [65,85), Expert [85,100].
func LevelForScore(score float64) Level {
	switch {
	case score >= ExpertThreshold:
		return LevelExpert
	case score >= AdvancedThreshold:
		return LevelAdvanced
	case score >= IntermediateThreshold:
		return LevelIntermediate
	default:
		return LevelBeginner
	}
}

// CompareLevels сравнивает достигнутый уровень с заявленным.
func CompareLevels(claimed, achieved Level) LevelMatch {
	switch {
	case achieved.Rank() > claimed.Rank():
		return LevelMatchExceeds
	case achieved.Rank() == claimed.Rank():
		return LevelMatchMatches
	default:
		return LevelMatchMayNotMatch
	}
}

// ══════════════════════════════════════════════════════════════════════════════
// COLLABORATORS
// ══════════════════════════════════════════════════════════════════════════════

// AnswerScorer оценивает глубину и конкретность ответа (0..100).
type AnswerScorer interface {
	ScoreAnswer(ctx context.Context, claimed Level, answer Answer) (float64, error)
}

// FeedbackInput - данные для генерации текстовой обратной связи.
type FeedbackInput struct {
	ClaimedLevel  Level
	AchievedLevel Level
	LevelMatch    LevelMatch
	Score         float64
	AnswerScores  []float64
}

// Feedback - сгенерированные тексты для пользователя.
type Feedback struct {
	Feedback  []string
	Strengths []string
	Concerns  []string
}

// FeedbackGenerator формирует тексты по пересечённым порогам.
type FeedbackGenerator interface {
	Generate(in FeedbackInput) Feedback
}

// ══════════════════════════════════════════════════════════════════════════════
// VALIDATOR
// ══════════════════════════════════════════════════════════════════════════════

// Validator проверяет заявленный уровень по ответам самооценки.
// Сам валидатор владеет только классификацией и числовым контрактом.
type Validator struct {
	scorer   AnswerScorer
	feedback FeedbackGenerator
}

// NewValidator создаёт валидатор. nil feedback заменяется пороговым генератором.
func NewValidator(scorer AnswerScorer, feedback FeedbackGenerator) *Validator {
	if feedback == nil {
		feedback = ThresholdFeedback{}
	}
	return &Validator{scorer: scorer, feedback: feedback}
}

// Validate оценивает ответы и классифицирует уровень.
func (v *Validator) Validate(ctx context.Context, claimed Level, answers []Answer) (Assessment, error) {
	if !claimed.IsValid() {
		return Assessment{}, shared.ErrInvalidSkillLevel
	}
	if len(answers) == 0 {
		return Assessment{}, shared.ErrNoAnswers
	}

	scores := make([]float64, 0, len(answers))
	var total float64
	for i, a := range answers {
		s, err := v.scorer.ScoreAnswer(ctx, claimed, a)
		if err != nil {
			return Assessment{}, fmt.Errorf("score answer %d: %w", i, err)
		}
		if math.IsNaN(s) || s < 0 || s > 100 {
			return Assessment{}, shared.ErrAnswerScoreRange
		}
		scores = append(scores, s)
		total += s
	}

	mean := round2(total / float64(len(scores)))
	achieved := LevelForScore(mean)
	match := CompareLevels(claimed, achieved)

	fb := v.feedback.Generate(FeedbackInput{
		ClaimedLevel:  claimed,
		AchievedLevel: achieved,
		LevelMatch:    match,
		Score:         mean,
		AnswerScores:  scores,
	})

	return Assessment{
		IsValid:      match == LevelMatchMatches || match == LevelMatchExceeds,
		Score:        mean,
		ClaimedLevel: claimed,
		LevelMatch:   match,
		Feedback:     fb.Feedback,
		Strengths:    dedupe(fb.Strengths),
		Concerns:     dedupe(fb.Concerns),
	}, nil
}

// ══════════════════════════════════════════════════════════════════════════════
// DEFAULT FEEDBACK
// ══════════════════════════════════════════════════════════════════════════════

// ThresholdFeedback - генератор текста по пересечённым порогам уровней.
type ThresholdFeedback struct{}

// Generate реализует FeedbackGenerator.
func (ThresholdFeedback) Generate(in FeedbackInput) Feedback {
	var fb Feedback

	switch in.LevelMatch {
	case LevelMatchExceeds:
		fb.Feedback = append(fb.Feedback,
			fmt.Sprintf("Your answers suggest %s proficiency, above the claimed %s level.", in.AchievedLevel, in.ClaimedLevel),
			fmt.Sprintf("Consider listing this skill as %s.", in.AchievedLevel))
	case LevelMatchMatches:
		fb.Feedback = append(fb.Feedback,
			fmt.Sprintf("Your answers are consistent with the claimed %s level.", in.ClaimedLevel))
	default:
		fb.Feedback = append(fb.Feedback,
			fmt.Sprintf("Your answers suggest %s proficiency, below the claimed %s level.", in.AchievedLevel, in.ClaimedLevel),
			"Add concrete examples of projects or techniques to strengthen the assessment.")
	}

	if in.Score >= AdvancedThreshold {
		fb.Strengths = append(fb.Strengths, "Detailed, specific answers")
	}
	if in.Score >= ExpertThreshold {
		fb.Strengths = append(fb.Strengths, "Demonstrates deep practical experience")
	}
	if in.Score >= IntermediateThreshold && in.Score < AdvancedThreshold {
		fb.Strengths = append(fb.Strengths, "Solid working knowledge")
	}

	weak := 0
	for _, s := range in.AnswerScores {
		if s < IntermediateThreshold {
			weak++
		}
	}
	if weak > 0 {
		fb.Concerns = append(fb.Concerns, fmt.Sprintf("%d of %d answers lack depth", weak, len(in.AnswerScores)))
	}
	if in.LevelMatch == LevelMatchMayNotMatch {
		fb.Concerns = append(fb.Concerns, fmt.Sprintf("Claimed level %s may be overstated", in.ClaimedLevel))
	}

	return fb
}

func round2(v float64) float64 {
	return math.Round(v*100) / 100
}

// dedupe убирает повторы, сохраняя детерминированный порядок.
func dedupe(items []string) []string {
	if len(items) == 0 {
		return []string{}
	}
	seen := make(map[string]struct{}, len(items))
	out := make([]string, 0, len(items))
	for _, s := range items {
		if _, ok := seen[s]; ok {
			continue
		}
		seen[s] = struct{}{}
		out = append(out, s)
	}
	sort.Strings(out)
	return out
}
