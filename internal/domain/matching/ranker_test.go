package matching

import (
	"fmt"
	"sort"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/skillswap/skillswap-hub/internal/domain/shared"
	"github.com/skillswap/skillswap-hub/internal/domain/skill"
)

func pythonRequester() Profile {
	return Profile{
		UserID:       "requester",
		HoursPerWeek: 10,
		Demand:       DemandHigh,
		Offered:      []*skill.Listing{newSkill("req-uiux", "UI/UX Design", "Design", skill.DirectionOffered)},
		Wanted:       []*skill.Listing{newSkill("req-python", "Python Programming", "Programming", skill.DirectionWanted)},
	}
}

func pythonCandidate(id shared.UserID, hours float64, demand MarketDemand) Profile {
	return Profile{
		UserID:       id,
		HoursPerWeek: hours,
		Demand:       demand,
		Offered:      []*skill.Listing{newSkill(string(id)+"-python", "Python Programming", "Programming", skill.DirectionOffered)},
		Wanted:       []*skill.Listing{newSkill(string(id)+"-uiux", "UI/UX Design", "Design", skill.DirectionWanted)},
	}
}

func TestRank_EndToEndPerfectMatch(t *testing.T) {
	r := NewRanker(nil, nil)

	out, err := r.Rank(pythonRequester(), []Profile{pythonCandidate("alice", 10, DemandHigh)}, 0)
	require.NoError(t, err)
	require.Len(t, out, 1)

	c := out[0]
	assert.Equal(t, shared.UserID("alice"), c.CandidateUserID)
	assert.Equal(t, 100.0, c.MatchScore)
	assert.Equal(t, 100.0, c.FairnessScore)
	assert.True(t, c.IsFairMatch)
	assert.Equal(t, LabelPerfect, c.Label)
	assert.Equal(t, "req-uiux", c.ReciprocalSkill.ID)
	assert.Equal(t, 10.0, c.TimeCommitmentHours)
	assert.Equal(t, DemandHigh, c.MarketDemand)
}

func TestRank_EndToEndTimeImbalance(t *testing.T) {
	r := NewRanker(nil, nil)

	out, err := r.Rank(pythonRequester(), []Profile{pythonCandidate("bob", 15, DemandHigh)}, 0)
	require.NoError(t, err)
	require.Len(t, out, 1)

	assert.Equal(t, 100.0, out[0].MatchScore)
	assert.Equal(t, 90.0, out[0].FairnessScore)
	assert.Equal(t, LabelExcellent, out[0].Label)
}

func TestRank_OrderingAndTieBreak(t *testing.T) {
	r := NewRanker(nil, nil)
	pool := []Profile{
		pythonCandidate("zed", 10, DemandHigh),
		pythonCandidate("carol", 15, DemandHigh),
		pythonCandidate("amy", 10, DemandHigh),
		pythonCandidate("dan", 10, DemandLow),
	}

	out, err := r.Rank(pythonRequester(), pool, 0)
	require.NoError(t, err)
	require.Len(t, out, 4)

	ids := make([]shared.UserID, len(out))
	for i, c := range out {
		ids[i] = c.CandidateUserID
	}
	assert.Equal(t, []shared.UserID{"amy", "zed", "carol", "dan"}, ids)
	assert.True(t, sort.IsSorted(out))
}

func TestRank_SkipsNonReciprocalAndIncompatible(t *testing.T) {
	r := NewRanker(nil, nil)

	noReciprocal := pythonCandidate("erin", 10, DemandHigh)
	noReciprocal.Wanted = []*skill.Listing{newSkill("erin-piano", "Piano", "Music", skill.DirectionWanted)}

	incompatible := pythonCandidate("fay", 10, DemandHigh)
	incompatible.Offered = []*skill.Listing{newSkill("fay-piano", "Piano", "Music", skill.DirectionOffered)}

	out, err := r.Rank(pythonRequester(), []Profile{noReciprocal, incompatible}, 0)
	require.NoError(t, err)
	assert.NotNil(t, out)
	assert.Empty(t, out)
}

func TestRank_ExcludesRequester(t *testing.T) {
	r := NewRanker(nil, nil)
	self := pythonCandidate("requester", 10, DemandHigh)

	out, err := r.Rank(pythonRequester(), []Profile{self}, 0)
	require.NoError(t, err)
	assert.Empty(t, out)
}

func TestRank_Limit(t *testing.T) {
	r := NewRanker(nil, nil)
	pool := make([]Profile, 0, 10)
	for i := 0; i < 10; i++ {
		pool = append(pool, pythonCandidate(shared.UserID(fmt.Sprintf("user-%02d", i)), float64(5+i), DemandHigh))
	}

	out, err := r.Rank(pythonRequester(), pool, 3)
	require.NoError(t, err)
	require.Len(t, out, 3)
	assert.Equal(t, shared.UserID("user-05"), out[0].CandidateUserID)

	all, err := r.Rank(pythonRequester(), pool, 0)
	require.NoError(t, err)
	assert.Len(t, all, 10)
	for i := 1; i < len(all); i++ {
		assert.GreaterOrEqual(t, all[i-1].FairnessScore, all[i].FairnessScore)
		if all[i-1].FairnessScore == all[i].FairnessScore {
			assert.GreaterOrEqual(t, all[i-1].MatchScore, all[i].MatchScore)
		}
	}
}

func TestRank_SameCategoryCandidate(t *testing.T) {
	r := NewRanker(nil, nil)
	cand := pythonCandidate("gus", 10, DemandHigh)
	cand.Offered = []*skill.Listing{newSkill("gus-go", "Go", "Programming", skill.DirectionOffered)}

	out, err := r.Rank(pythonRequester(), []Profile{cand}, 0)
	require.NoError(t, err)
	require.Len(t, out, 1)
	assert.Equal(t, 80.0, out[0].MatchScore)
	assert.Equal(t, LabelGood, out[0].Label)
}

func TestRank_PropagatesInvalidInput(t *testing.T) {
	r := NewRanker(nil, nil)
	cand := pythonCandidate("hal", 10, DemandHigh)
	cand.Offered = []*skill.Listing{newSkill("hal-x", "Mystery", "", skill.DirectionOffered)}

	_, err := r.Rank(pythonRequester(), []Profile{cand}, 0)
	assert.ErrorIs(t, err, shared.ErrInvalidInput)
}

func TestRanker_CandidateFilter(t *testing.T) {
	r := NewRanker(nil, nil)

	filter, ok := r.CandidateFilter(pythonRequester())
	require.True(t, ok)
	assert.Equal(t, shared.UserID("requester"), filter.ExcludeUserID)
	assert.Equal(t, []skill.Category{"data science", "programming"}, filter.Offers.Categories)
	assert.Equal(t, []string{"python programming"}, filter.Offers.Titles)
	assert.Equal(t, []skill.Category{"design"}, filter.Wants.Categories)

	// Every candidate Rank accepts passes the filter.
	cand := pythonCandidate("alice", 10, DemandHigh)
	assert.True(t, filter.Offers.Covers(cand.Offered[0]))
	assert.True(t, filter.Wants.Covers(cand.Wanted[0]))

	noWants := pythonRequester()
	noWants.Wanted = nil
	_, ok = r.CandidateFilter(noWants)
	assert.False(t, ok)
}
