package matching

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/skillswap/skillswap-hub/internal/domain/shared"
	"github.com/skillswap/skillswap-hub/internal/domain/skill"
)

func newSkill(id, title string, category skill.Category, dir skill.Direction) *skill.Listing {
	return &skill.Listing{
		ID:        id,
		OwnerID:   "owner-" + shared.UserID(id),
		Title:     title,
		Category:  category,
		Level:     skill.LevelAdvanced,
		Direction: dir,
	}
}

func defaultScorer() *FairnessScorer {
	return NewFairnessScorer(skill.NewCompatibility(nil), DefaultFairnessWeights())
}

func TestEvaluate_PerfectMatch(t *testing.T) {
	wantPython := newSkill("w1", "Python Programming", "Programming", skill.DirectionWanted)
	offerPython := newSkill("o1", "Python Programming", "Programming", skill.DirectionOffered)

	ev, err := defaultScorer().Evaluate(
		Side{Skill: wantPython, Hours: 10, Demand: DemandHigh},
		Side{Skill: offerPython, Hours: 10, Demand: DemandHigh},
	)
	require.NoError(t, err)

	assert.Equal(t, 100.0, ev.MatchScore)
	assert.Equal(t, 100.0, ev.FairnessScore)
	assert.True(t, ev.IsFairMatch)
	assert.Equal(t, LabelPerfect, ev.Label)
	assert.Contains(t, ev.MatchLogic, "Balanced exchange")
}

func TestEvaluate_TimeImbalance(t *testing.T) {
	wantPython := newSkill("w1", "Python Programming", "Programming", skill.DirectionWanted)
	offerPython := newSkill("o1", "Python Programming", "Programming", skill.DirectionOffered)

	ev, err := defaultScorer().Evaluate(
		Side{Skill: wantPython, Hours: 10, Demand: DemandHigh},
		Side{Skill: offerPython, Hours: 15, Demand: DemandHigh},
	)
	require.NoError(t, err)

	assert.Equal(t, 100.0, ev.MatchScore)
	assert.Equal(t, 10.0, ev.TimePenalty)
	assert.Equal(t, 90.0, ev.FairnessScore)
	assert.Equal(t, LabelExcellent, ev.Label)
	assert.True(t, ev.IsFairMatch)
	assert.Contains(t, ev.MatchLogic, "time commitment differs")
}

func TestEvaluate_DemandPenaltyCapped(t *testing.T) {
	s := defaultScorer()

	assert.Equal(t, 0.0, s.DemandPenalty(DemandHigh, DemandHigh))
	assert.Equal(t, 7.0, s.DemandPenalty(DemandMedium, DemandMediumHigh))
	assert.Equal(t, 14.0, s.DemandPenalty(DemandLow, DemandMediumHigh))
	// Three steps would be 21, still under the cap.
	assert.Equal(t, 21.0, s.DemandPenalty(DemandLow, DemandHigh))

	capped := NewFairnessScorer(nil, FairnessWeights{TimePenaltyMax: 30, DemandStepPenalty: 10, DemandPenaltyCap: 25})
	assert.Equal(t, 25.0, capped.DemandPenalty(DemandLow, DemandHigh))
}

func TestEvaluate_TimePenaltyBounds(t *testing.T) {
	s := defaultScorer()

	assert.Equal(t, 0.0, s.TimePenalty(0, 0))
	assert.Equal(t, 0.0, s.TimePenalty(8, 8))
	assert.Equal(t, 30.0, s.TimePenalty(0, 5))
	assert.InDelta(t, 15.0, s.TimePenalty(4, 8), 1e-9)
}

func TestEvaluate_PenaltySymmetry(t *testing.T) {
	s := defaultScorer()
	a := newSkill("a", "Go", "Programming", skill.DirectionWanted)
	b := newSkill("b", "Go", "Programming", skill.DirectionOffered)

	ev1, err := s.Evaluate(Side{Skill: a, Hours: 6, Demand: DemandLow}, Side{Skill: b, Hours: 12, Demand: DemandHigh})
	require.NoError(t, err)
	ev2, err := s.Evaluate(Side{Skill: a, Hours: 12, Demand: DemandHigh}, Side{Skill: b, Hours: 6, Demand: DemandLow})
	require.NoError(t, err)

	assert.Equal(t, ev1.FairnessScore, ev2.FairnessScore)
	assert.Equal(t, ev1.TimePenalty, ev2.TimePenalty)
	assert.Equal(t, ev1.DemandPenalty, ev2.DemandPenalty)
}

func TestEvaluate_MatchScoreDependsOnDirection(t *testing.T) {
	table := skill.NewAffinityTable()
	require.NoError(t, table.SetSameCategory("Programming", 1))
	s := NewFairnessScorer(skill.NewCompatibility(table), DefaultFairnessWeights())

	wantGo := newSkill("w", "Go", "Programming", skill.DirectionWanted)
	offerRust := newSkill("o", "Rust", "Programming", skill.DirectionOffered)
	wantSQL := newSkill("w2", "SQL", "Data", skill.DirectionWanted)

	ev1, err := s.Evaluate(Side{Skill: wantGo, Hours: 5, Demand: DemandMedium}, Side{Skill: offerRust, Hours: 5, Demand: DemandMedium})
	require.NoError(t, err)
	assert.Equal(t, 90.0, ev1.MatchScore)

	ev2, err := s.Evaluate(Side{Skill: wantSQL, Hours: 5, Demand: DemandMedium}, Side{Skill: offerRust, Hours: 5, Demand: DemandMedium})
	require.NoError(t, err)
	assert.Equal(t, 0.0, ev2.MatchScore)
	assert.Equal(t, 0.0, ev2.FairnessScore)
	assert.Equal(t, LabelFair, ev2.Label)
}

func TestEvaluate_IsFairMatchFollowsThreshold(t *testing.T) {
	s := defaultScorer()
	want := newSkill("w", "Go", "Programming", skill.DirectionWanted)
	offer := newSkill("o", "Go", "Programming", skill.DirectionOffered)

	for _, hours := range []float64{10, 11, 12, 13, 15, 20, 40} {
		for _, d := range []MarketDemand{DemandLow, DemandMedium, DemandMediumHigh, DemandHigh} {
			ev, err := s.Evaluate(Side{Skill: want, Hours: 10, Demand: DemandHigh}, Side{Skill: offer, Hours: hours, Demand: d})
			require.NoError(t, err)
			assert.Equal(t, ev.FairnessScore >= 80, ev.IsFairMatch)
			assert.GreaterOrEqual(t, ev.FairnessScore, 0.0)
			assert.LessOrEqual(t, ev.FairnessScore, 100.0)
		}
	}
}

func TestEvaluate_InvalidInput(t *testing.T) {
	s := defaultScorer()
	want := newSkill("w", "Go", "Programming", skill.DirectionWanted)
	offer := newSkill("o", "Go", "Programming", skill.DirectionOffered)
	noCategory := newSkill("x", "Go", "", skill.DirectionOffered)

	_, err := s.Evaluate(Side{Skill: want, Hours: -1, Demand: DemandHigh}, Side{Skill: offer, Hours: 1, Demand: DemandHigh})
	assert.ErrorIs(t, err, shared.ErrInvalidInput)

	_, err = s.Evaluate(Side{Skill: want, Hours: 1, Demand: "Extreme"}, Side{Skill: offer, Hours: 1, Demand: DemandHigh})
	assert.ErrorIs(t, err, shared.ErrInvalidInput)

	_, err = s.Evaluate(Side{Skill: want, Hours: 1, Demand: DemandHigh}, Side{Skill: noCategory, Hours: 1, Demand: DemandHigh})
	assert.ErrorIs(t, err, shared.ErrInvalidInput)
}

func TestLabelFor_Boundaries(t *testing.T) {
	assert.Equal(t, LabelPerfect, LabelFor(100))
	assert.Equal(t, LabelPerfect, LabelFor(95))
	assert.Equal(t, LabelExcellent, LabelFor(94.99))
	assert.Equal(t, LabelExcellent, LabelFor(90))
	assert.Equal(t, LabelGreat, LabelFor(85))
	assert.Equal(t, LabelGood, LabelFor(80))
	assert.Equal(t, LabelFair, LabelFor(79))
	assert.Equal(t, LabelFair, LabelFor(0))
}

func TestEvaluate_MatchLogicDeterministic(t *testing.T) {
	s := defaultScorer()
	want := newSkill("w", "Go", "Programming", skill.DirectionWanted)
	offer := newSkill("o", "Rust", "Programming", skill.DirectionOffered)

	mine := Side{Skill: want, Hours: 4, Demand: DemandLow}
	theirs := Side{Skill: offer, Hours: 5, Demand: DemandHigh}

	ev1, err := s.Evaluate(mine, theirs)
	require.NoError(t, err)
	ev2, err := s.Evaluate(mine, theirs)
	require.NoError(t, err)

	assert.Equal(t, ev1.MatchLogic, ev2.MatchLogic)
	assert.Contains(t, ev1.MatchLogic, "Main imbalance: market demand differs")
}
