package query

import (
	"context"
	"fmt"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/skillswap/skillswap-hub/internal/domain/matching"
	"github.com/skillswap/skillswap-hub/internal/domain/shared"
	"github.com/skillswap/skillswap-hub/internal/domain/skill"
	"github.com/skillswap/skillswap-hub/internal/infrastructure/persistence/memory"
)

type rankFixture struct {
	skills   *memory.SkillRepository
	profiles *memory.ProfileRepository
}

func newRankFixture() *rankFixture {
	skills := memory.NewSkillRepository()
	return &rankFixture{skills: skills, profiles: memory.NewProfileRepository(skills)}
}

func (f *rankFixture) add(t *testing.T, owner shared.UserID, title, category string, dir skill.Direction) {
	t.Helper()
	l, err := skill.NewListing(skill.NewListingParams{
		ID:        fmt.Sprintf("%s-%s-%s", owner, dir, title),
		OwnerID:   owner,
		Title:     title,
		Category:  skill.Category(category),
		Level:     skill.LevelIntermediate,
		Direction: dir,
	})
	require.NoError(t, err)
	require.NoError(t, f.skills.Save(context.Background(), l))
}

func (f *rankFixture) available(t *testing.T, user shared.UserID, hours float64, demand matching.MarketDemand) {
	t.Helper()
	require.NoError(t, f.profiles.SaveAvailability(context.Background(), matching.Availability{
		UserID: user, HoursPerWeek: hours, Demand: demand,
	}))
}

func TestRankMatches_PoolLimitAppliesAfterCompatibility(t *testing.T) {
	f := newRankFixture()

	f.add(t, "requester", "UI/UX Design", "Design", skill.DirectionOffered)
	f.add(t, "requester", "Python Programming", "Programming", skill.DirectionWanted)
	f.available(t, "requester", 10, matching.DemandHigh)

	// Unrelated users whose ids sort before the real partner.
	for i := 0; i < 3; i++ {
		id := shared.UserID(fmt.Sprintf("aaa%d", i))
		f.add(t, id, "Baking", "Cooking", skill.DirectionOffered)
		f.add(t, id, "Pastry", "Cooking", skill.DirectionWanted)
	}

	f.add(t, "zzz", "Python Programming", "Programming", skill.DirectionOffered)
	f.add(t, "zzz", "UI/UX Design", "Design", skill.DirectionWanted)
	f.available(t, "zzz", 10, matching.DemandHigh)

	h := NewRankMatchesHandler(f.profiles, matching.NewRanker(nil, nil), 3)
	res, err := h.Handle(context.Background(), RankMatchesQuery{UserID: "requester"})
	require.NoError(t, err)

	assert.Equal(t, 1, res.PoolSize)
	require.Len(t, res.Candidates, 1)
	assert.Equal(t, "zzz", res.Candidates[0].CandidateUserID)
	assert.Equal(t, 100.0, res.Candidates[0].MatchScore)
}

func TestRankMatches_PoolNeedsReciprocalInterest(t *testing.T) {
	f := newRankFixture()

	f.add(t, "requester", "Go", "Programming", skill.DirectionOffered)
	f.add(t, "requester", "Spanish", "Languages", skill.DirectionWanted)

	// Offers what the requester wants but wants nothing the requester offers.
	f.add(t, "bob", "Spanish", "Languages", skill.DirectionOffered)
	f.add(t, "bob", "Pottery", "Crafts", skill.DirectionWanted)

	f.add(t, "carol", "French", "Languages", skill.DirectionOffered)
	f.add(t, "carol", "Rust", "Programming", skill.DirectionWanted)

	h := NewRankMatchesHandler(f.profiles, matching.NewRanker(nil, nil), 0)
	res, err := h.Handle(context.Background(), RankMatchesQuery{UserID: "requester"})
	require.NoError(t, err)

	assert.Equal(t, 1, res.PoolSize)
	require.Len(t, res.Candidates, 1)
	assert.Equal(t, "carol", res.Candidates[0].CandidateUserID)
}

func TestRankMatches_NothingWantedMeansEmptyPool(t *testing.T) {
	f := newRankFixture()
	f.add(t, "requester", "Go", "Programming", skill.DirectionOffered)
	f.add(t, "bob", "Go", "Programming", skill.DirectionWanted)
	f.add(t, "bob", "Rust", "Programming", skill.DirectionOffered)

	h := NewRankMatchesHandler(f.profiles, matching.NewRanker(nil, nil), 0)
	res, err := h.Handle(context.Background(), RankMatchesQuery{UserID: "requester"})
	require.NoError(t, err)

	assert.Zero(t, res.PoolSize)
	assert.NotNil(t, res.Candidates)
	assert.Empty(t, res.Candidates)
}

func TestRankMatches_ZeroLimitIsUnbounded(t *testing.T) {
	f := newRankFixture()
	f.add(t, "requester", "Go", "Programming", skill.DirectionOffered)
	f.add(t, "requester", "Spanish", "Languages", skill.DirectionWanted)

	const n = DefaultMatchLimit + 5
	for i := 0; i < n; i++ {
		id := shared.UserID(fmt.Sprintf("user%02d", i))
		f.add(t, id, "Spanish", "Languages", skill.DirectionOffered)
		f.add(t, id, "Go", "Programming", skill.DirectionWanted)
	}

	h := NewRankMatchesHandler(f.profiles, matching.NewRanker(nil, nil), 0)

	res, err := h.Handle(context.Background(), RankMatchesQuery{UserID: "requester"})
	require.NoError(t, err)
	assert.Len(t, res.Candidates, n)

	res, err = h.Handle(context.Background(), RankMatchesQuery{UserID: "requester", Limit: 3})
	require.NoError(t, err)
	assert.Len(t, res.Candidates, 3)
}

func TestRankMatches_RequiresUser(t *testing.T) {
	h := NewRankMatchesHandler(newRankFixture().profiles, matching.NewRanker(nil, nil), 0)
	_, err := h.Handle(context.Background(), RankMatchesQuery{})
	assert.ErrorIs(t, err, shared.ErrInvalidID)
}
