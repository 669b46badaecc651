// Package matching содержит модель справедливого обмена навыками:
// оценку справедливости пары (FairnessScorer) и ранжирование кандидатов (Ranker).
//
// Справедливость складывается из совместимости навыков и штрафов
// за неравенство времени и рыночного спроса.
package matching

import (
	"fmt"
	"math"
	"strings"

	"github.com/skillswap/skillswap-hub/internal/domain/shared"
	"github.com/skillswap/skillswap-hub/internal/domain/skill"
)

// ══════════════════════════════════════════════════════════════════════════════
// MARKET DEMAND
// ══════════════════════════════════════════════════════════════════════════════

// MarketDemand - рыночный спрос на навык.
type MarketDemand string

const (
	DemandLow        MarketDemand = "Low"
	DemandMedium     MarketDemand = "Medium"
	DemandMediumHigh MarketDemand = "Medium-High"
	DemandHigh       MarketDemand = "High"
)

// Rank возвращает порядковый номер спроса (0..3) или -1 для неизвестного.
func (d MarketDemand) Rank() int {
	switch d {
	case DemandLow:
		return 0
	case DemandMedium:
		return 1
	case DemandMediumHigh:
		return 2
	case DemandHigh:
		return 3
	default:
		return -1
	}
}

// IsValid проверяет корректность значения спроса.
func (d MarketDemand) IsValid() bool {
	return d.Rank() >= 0
}

// ParseMarketDemand разбирает спрос без учёта регистра.
func ParseMarketDemand(s string) (MarketDemand, error) {
	for _, d := range []MarketDemand{DemandLow, DemandMedium, DemandMediumHigh, DemandHigh} {
		if strings.EqualFold(string(d), strings.TrimSpace(s)) {
			return d, nil
		}
	}
	return "", shared.ErrInvalidDemand
}

// ══════════════════════════════════════════════════════════════════════════════
// LABELS
// ══════════════════════════════════════════════════════════════════════════════

// MatchLabel - качественная оценка справедливости.
type MatchLabel string

const (
	LabelPerfect   MatchLabel = "Perfect Match"
	LabelExcellent MatchLabel = "Excellent Match"
	LabelGreat     MatchLabel = "Great Match"
	LabelGood      MatchLabel = "Good Match"
	LabelFair      MatchLabel = "Fair Match"
)

// FairMatchThreshold - минимальная оценка справедливой пары.
const FairMatchThreshold = 80.0

// LabelFor возвращает метку для оценки справедливости (пороги сверху вниз).
func LabelFor(fairness float64) MatchLabel {
	switch {
	case fairness >= 95:
		return LabelPerfect
	case fairness >= 90:
		return LabelExcellent
	case fairness >= 85:
		return LabelGreat
	case fairness >= FairMatchThreshold:
		return LabelGood
	default:
		return LabelFair
	}
}

// ══════════════════════════════════════════════════════════════════════════════
// WEIGHTS
// ══════════════════════════════════════════════════════════════════════════════

// FairnessWeights - коэффициенты штрафов.
type FairnessWeights struct {
	// TimePenaltyMax - штраф при максимальном расхождении времени.
	TimePenaltyMax float64

	// DemandStepPenalty - штраф за одну ступень разницы спроса.
	DemandStepPenalty float64

	// DemandPenaltyCap - потолок штрафа за спрос.
	DemandPenaltyCap float64
}

// DefaultFairnessWeights возвращает коэффициенты по умолчанию (30 / 7 / 25).
func DefaultFairnessWeights() FairnessWeights {
	return FairnessWeights{
		TimePenaltyMax:    30,
		DemandStepPenalty: 7,
		DemandPenaltyCap:  25,
	}
}

// Validate проверяет коэффициенты.
func (w FairnessWeights) Validate() error {
	if w.TimePenaltyMax < 0 || w.DemandStepPenalty < 0 || w.DemandPenaltyCap < 0 {
		return shared.NewDomainError("matching", "Configure", shared.ErrInvalidInput, "fairness weights cannot be negative")
	}
	return nil
}

// ══════════════════════════════════════════════════════════════════════════════
// FAIRNESS SCORER
// ══════════════════════════════════════════════════════════════════════════════

// Side - одна сторона обмена: навык, время в неделю и спрос.
type Side struct {
	Skill  *skill.Listing
	Hours  float64
	Demand MarketDemand
}

// Evaluation - результат оценки пары.
type Evaluation struct {
	MatchScore    float64
	FairnessScore float64
	IsFairMatch   bool
	MatchLogic    string
	Label         MatchLabel
	TimePenalty   float64
	DemandPenalty float64
}

// FairnessScorer оценивает справедливость обмена.
// Не хранит изменяемого состояния, безопасен для конкурентного вызова.
type FairnessScorer struct {
	compat  *skill.Compatibility
	weights FairnessWeights
}

// NewFairnessScorer создаёт оценщик.
func NewFairnessScorer(compat *skill.Compatibility, weights FairnessWeights) *FairnessScorer {
	if compat == nil {
		compat = skill.NewCompatibility(nil)
	}
	return &FairnessScorer{compat: compat, weights: weights}
}

// Evaluate оценивает пару. mine.Skill - мой желаемый навык,
// theirs.Skill - предлагаемый ими навык.
func (s *FairnessScorer) Evaluate(mine, theirs Side) (Evaluation, error) {
	if mine.Hours < 0 || theirs.Hours < 0 || math.IsNaN(mine.Hours) || math.IsNaN(theirs.Hours) {
		return Evaluation{}, shared.ErrNegativeHours
	}
	if !mine.Demand.IsValid() || !theirs.Demand.IsValid() {
		return Evaluation{}, shared.ErrInvalidDemand
	}

	compat, err := s.compat.Score(theirs.Skill, mine.Skill)
	if err != nil {
		return Evaluation{}, err
	}

	timePenalty := s.TimePenalty(mine.Hours, theirs.Hours)
	demandPenalty := s.DemandPenalty(mine.Demand, theirs.Demand)
	fairness := round2(clamp(compat.BaseScore-timePenalty-demandPenalty, 0, 100))

	return Evaluation{
		MatchScore:    round2(compat.BaseScore),
		FairnessScore: fairness,
		IsFairMatch:   fairness >= FairMatchThreshold,
		MatchLogic:    explain(compat.BaseScore, mine, theirs, timePenalty, demandPenalty),
		Label:         LabelFor(fairness),
		TimePenalty:   round2(timePenalty),
		DemandPenalty: round2(demandPenalty),
	}, nil
}

// TimePenalty = min(1, |a-b| / max(a,b)) * TimePenaltyMax.
func (s *FairnessScorer) TimePenalty(myHours, theirHours float64) float64 {
	hi := math.Max(myHours, theirHours)
	if hi == 0 {
		return 0
	}
	ratio := math.Min(1, math.Abs(myHours-theirHours)/hi)
	return ratio * s.weights.TimePenaltyMax
}

// DemandPenalty = min(cap, |rank(a) - rank(b)| * step).
func (s *FairnessScorer) DemandPenalty(mine, theirs MarketDemand) float64 {
	steps := math.Abs(float64(mine.Rank() - theirs.Rank()))
	return math.Min(s.weights.DemandPenaltyCap, steps*s.weights.DemandStepPenalty)
}

// explain строит детерминированное пояснение по доминирующему штрафу.
func explain(base float64, mine, theirs Side, timePenalty, demandPenalty float64) string {
	var b strings.Builder

	switch {
	case base >= skill.ExactMatchScore:
		fmt.Fprintf(&b, "Their %q is exactly the skill you want", theirs.Skill.Title)
	case base >= skill.SameCategoryMinScore:
		fmt.Fprintf(&b, "Their %q is in the same category as %q", theirs.Skill.Title, mine.Skill.Title)
	default:
		fmt.Fprintf(&b, "Their %q is related to %q", theirs.Skill.Title, mine.Skill.Title)
	}
	fmt.Fprintf(&b, " (compatibility %s). ", formatScore(base))

	timeNote := fmt.Sprintf("time commitment differs (%sh vs %sh per week, -%s)",
		formatScore(mine.Hours), formatScore(theirs.Hours), formatScore(timePenalty))
	demandNote := fmt.Sprintf("market demand differs (%s vs %s, -%s)",
		mine.Demand, theirs.Demand, formatScore(demandPenalty))

	switch {
	case timePenalty == 0 && demandPenalty == 0:
		b.WriteString("Balanced exchange: equal time commitment and market demand.")
	case timePenalty > demandPenalty:
		b.WriteString("Main imbalance: " + timeNote + ".")
		if demandPenalty > 0 {
			b.WriteString(" Also " + demandNote + ".")
		}
	case demandPenalty > timePenalty:
		b.WriteString("Main imbalance: " + demandNote + ".")
		if timePenalty > 0 {
			b.WriteString(" Also " + timeNote + ".")
		}
	default:
		b.WriteString("Equal imbalance: " + timeNote + " and " + demandNote + ".")
	}

	return b.String()
}

func formatScore(v float64) string {
	v = round2(v)
	if v == math.Trunc(v) {
		return fmt.Sprintf("%.0f", v)
	}
	return fmt.Sprintf("%.2f", v)
}

func clamp(v, lo, hi float64) float64 {
	return math.Max(lo, math.Min(hi, v))
}

func round2(v float64) float64 {
	return math.Round(v*100) / 100
}
