package service

import (
	"context"
	"math"
	"strings"
	"unicode"

	"github.com/skillswap/skillswap-hub/internal/domain/skill"
)

// Weights of the three heuristic components. They sum to 100.
const (
	lengthWeight      = 40.0
	specificityWeight = 30.0
	exampleWeight     = 30.0
)

// expectedWords is the answer length that earns the full length component.
var expectedWords = map[skill.Level]int{
	skill.LevelBeginner:     20,
	skill.LevelIntermediate: 40,
	skill.LevelAdvanced:     70,
	skill.LevelExpert:       100,
}

// exampleMarkers signal that the answer describes concrete experience.
var exampleMarkers = []string{
	"for example",
	"for instance",
	"e.g.",
	"such as",
	"i built",
	"i implemented",
	"i used",
	"in my project",
	"in production",
	"at work",
	"```",
}

// HeuristicScorer scores self-assessment answers without a model call.
// An answer earns points for length relative to the claimed level, for
// specific vocabulary (numbers, long or technical tokens) and for
// example markers. Deterministic and safe for concurrent use.
type HeuristicScorer struct{}

// NewHeuristicScorer creates the scorer.
func NewHeuristicScorer() *HeuristicScorer {
	return &HeuristicScorer{}
}

// ScoreAnswer implements skill.AnswerScorer.
func (HeuristicScorer) ScoreAnswer(ctx context.Context, claimed skill.Level, answer skill.Answer) (float64, error) {
	if err := ctx.Err(); err != nil {
		return 0, err
	}

	text := strings.TrimSpace(answer.Text)
	if text == "" {
		return 0, nil
	}
	words := strings.Fields(text)

	target, ok := expectedWords[claimed]
	if !ok {
		target = expectedWords[skill.LevelIntermediate]
	}
	length := math.Min(float64(len(words))/float64(target), 1) * lengthWeight

	specific := 0
	for _, w := range words {
		if isSpecificToken(w) {
			specific++
		}
	}
	// A quarter of specific tokens is already a dense answer.
	specificity := math.Min(float64(specific)/float64(len(words))/0.25, 1) * specificityWeight

	lower := strings.ToLower(text)
	markers := 0
	for _, m := range exampleMarkers {
		if strings.Contains(lower, m) {
			markers++
		}
	}
	examples := math.Min(float64(markers)/2, 1) * exampleWeight

	score := math.Round((length+specificity+examples)*100) / 100
	return math.Min(score, 100), nil
}

func isSpecificToken(w string) bool {
	w = strings.TrimFunc(w, unicode.IsPunct)
	if w == "" {
		return false
	}
	if len([]rune(w)) >= 9 {
		return true
	}
	for _, r := range w {
		if unicode.IsDigit(r) || r == '_' || r == '.' || r == '(' || r == '/' {
			return true
		}
	}
	// CamelCase identifiers and acronyms.
	upper := 0
	for _, r := range w {
		if unicode.IsUpper(r) {
			upper++
		}
	}
	return upper >= 2
}
