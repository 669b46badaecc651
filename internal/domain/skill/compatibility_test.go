package skill

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/skillswap/skillswap-hub/internal/domain/shared"
)

func listing(title string, category Category, dir Direction) *Listing {
	return &Listing{
		ID:        title,
		OwnerID:   "owner",
		Title:     title,
		Category:  category,
		Level:     LevelIntermediate,
		Direction: dir,
	}
}

func TestCompatibility_ExactTitleScoresHundred(t *testing.T) {
	c := NewCompatibility(nil)

	pairs := [][2]*Listing{
		{listing("Python Programming", "Programming", DirectionOffered), listing("Python Programming", "Programming", DirectionWanted)},
		{listing("python programming ", "Programming", DirectionOffered), listing("Python Programming", "Programming", DirectionWanted)},
		// Title match wins even if categories were filed differently.
		{listing("Figma", "Design", DirectionOffered), listing("Figma", "Tools", DirectionWanted)},
	}

	for _, p := range pairs {
		res, err := c.Score(p[0], p[1])
		require.NoError(t, err)
		assert.Equal(t, 100.0, res.BaseScore)
		assert.True(t, res.Compatible)
	}
}

func TestCompatibility_SameCategoryRange(t *testing.T) {
	table := NewAffinityTable()
	require.NoError(t, table.SetSameCategory("Programming", 1))
	require.NoError(t, table.SetSameCategory("Music", 0))
	c := NewCompatibility(table)

	res, err := c.Score(listing("Go", "Programming", DirectionOffered), listing("Rust", "programming", DirectionWanted))
	require.NoError(t, err)
	assert.Equal(t, 90.0, res.BaseScore)

	res, err = c.Score(listing("Piano", "Music", DirectionOffered), listing("Guitar", "Music", DirectionWanted))
	require.NoError(t, err)
	assert.Equal(t, 70.0, res.BaseScore)

	// Unconfigured category falls back to the default affinity.
	res, err = c.Score(listing("Spanish", "Languages", DirectionOffered), listing("French", "Languages", DirectionWanted))
	require.NoError(t, err)
	assert.Equal(t, 80.0, res.BaseScore)
	assert.True(t, res.Compatible)
}

func TestCompatibility_CrossCategory(t *testing.T) {
	table := NewAffinityTable()
	require.NoError(t, table.SetCrossCategory("Programming", "Data Science", 0.9))
	require.NoError(t, table.SetCrossCategory("Design", "Marketing", 0.6))
	c := NewCompatibility(table)

	res, err := c.Score(listing("Go", "Programming", DirectionOffered), listing("Pandas", "Data Science", DirectionWanted))
	require.NoError(t, err)
	assert.Equal(t, 45.0, res.BaseScore)
	assert.True(t, res.Compatible)

	// Symmetric lookup.
	res, err = c.Score(listing("Pandas", "Data Science", DirectionOffered), listing("Go", "Programming", DirectionWanted))
	require.NoError(t, err)
	assert.Equal(t, 45.0, res.BaseScore)

	res, err = c.Score(listing("Figma", "Design", DirectionOffered), listing("SEO", "Marketing", DirectionWanted))
	require.NoError(t, err)
	assert.Equal(t, 30.0, res.BaseScore)
	assert.False(t, res.Compatible)

	res, err = c.Score(listing("Piano", "Music", DirectionOffered), listing("Go", "Programming", DirectionWanted))
	require.NoError(t, err)
	assert.Equal(t, 0.0, res.BaseScore)
	assert.False(t, res.Compatible)
}

func TestCompatibility_MissingCategory(t *testing.T) {
	c := NewCompatibility(nil)

	_, err := c.Score(listing("Go", "", DirectionOffered), listing("Go", "Programming", DirectionWanted))
	assert.ErrorIs(t, err, shared.ErrInvalidInput)

	_, err = c.Score(listing("Go", "Programming", DirectionOffered), listing("Go", "  ", DirectionWanted))
	assert.ErrorIs(t, err, shared.ErrInvalidInput)
}

func TestAffinityTable_RejectsOutOfRange(t *testing.T) {
	table := NewAffinityTable()
	assert.ErrorIs(t, table.SetSameCategory("Programming", 1.5), shared.ErrInvalidInput)
	assert.ErrorIs(t, table.SetCrossCategory("a", "b", -0.1), shared.ErrInvalidInput)
}

func TestCompatibility_Reach(t *testing.T) {
	c := NewCompatibility(nil)

	reach := c.Reach([]*Listing{
		listing("Python", "Programming", DirectionWanted),
		listing(" UI/UX ", "Design", DirectionWanted),
	})

	// Programming|Data Science is 0.9 (45 points); Programming|Design 0.3 and
	// Design|Marketing 0.6 stay below the threshold.
	assert.Equal(t, []Category{"data science", "design", "programming"}, reach.Categories)
	assert.Equal(t, []string{"python", "ui/ux"}, reach.Titles)

	assert.True(t, reach.Covers(listing("Pandas", "Data Science", DirectionOffered)))
	assert.True(t, reach.Covers(listing("python", "Snakes", DirectionOffered)), "exact title crosses categories")
	assert.False(t, reach.Covers(listing("Baking", "Cooking", DirectionOffered)))
	assert.False(t, reach.Covers(listing("SEO", "Marketing", DirectionOffered)))

	assert.True(t, c.Reach(nil).IsEmpty())
}

func TestCompatibility_ReachAgreesWithScore(t *testing.T) {
	c := NewCompatibility(nil)
	categories := []Category{"Programming", "Design", "Data Science", "Business", "Marketing", "Music", "Cooking"}

	for _, want := range categories {
		reach := c.Reach([]*Listing{listing("wanted-"+string(want), want, DirectionWanted)})
		for _, offer := range categories {
			offered := listing("offered-"+string(offer), offer, DirectionOffered)
			res, err := c.Score(offered, listing("wanted-"+string(want), want, DirectionWanted))
			require.NoError(t, err)
			assert.Equal(t, res.Compatible, reach.Covers(offered), "%s -> %s", offer, want)
		}
	}
}
