package cli

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/skillswap/skillswap-hub/internal/bootstrap"
	"github.com/skillswap/skillswap-hub/internal/domain/matching"
	"github.com/skillswap/skillswap-hub/internal/domain/shared"
	"github.com/skillswap/skillswap-hub/internal/domain/skill"
)

// scoreFlags describes both sides of a hypothetical swap.
type scoreFlags struct {
	wantTitle, wantCategory, wantLevel    string
	offerTitle, offerCategory, offerLevel string

	myHours, theirHours   float64
	myDemand, theirDemand string
}

var scoreOpts scoreFlags

var scoreCmd = &cobra.Command{
	Use:   "score",
	Short: "Score a hypothetical swap with the configured weights",
	Long: `Score a hypothetical swap with the configured weights.

Compares the skill you want with the skill they offer, then applies
the time and demand penalties. Useful for tuning SCORING_* settings
and affinity files without touching stored data.

Examples:
  swapctl score --want-title Go --want-category Programming \
    --offer-title Rust --offer-category Programming --offer-level Expert \
    --my-hours 5 --their-hours 3 --my-demand High --their-demand Medium`,
	Args: cobra.NoArgs,
	RunE: runScore,
}

func init() {
	f := scoreCmd.Flags()
	f.StringVar(&scoreOpts.wantTitle, "want-title", "", "Title of the skill you want")
	f.StringVar(&scoreOpts.wantCategory, "want-category", "", "Category of the skill you want")
	f.StringVar(&scoreOpts.wantLevel, "want-level", string(skill.LevelBeginner), "Level of the skill you want")
	f.StringVar(&scoreOpts.offerTitle, "offer-title", "", "Title of the skill they offer")
	f.StringVar(&scoreOpts.offerCategory, "offer-category", "", "Category of the skill they offer")
	f.StringVar(&scoreOpts.offerLevel, "offer-level", string(skill.LevelIntermediate), "Level of the skill they offer")
	f.Float64Var(&scoreOpts.myHours, "my-hours", 0, "Your hours per week")
	f.Float64Var(&scoreOpts.theirHours, "their-hours", 0, "Their hours per week")
	f.StringVar(&scoreOpts.myDemand, "my-demand", string(matching.DemandMedium), "Market demand of your offer")
	f.StringVar(&scoreOpts.theirDemand, "their-demand", string(matching.DemandMedium), "Market demand of their offer")

	_ = scoreCmd.MarkFlagRequired("want-category")
	_ = scoreCmd.MarkFlagRequired("offer-category")
}

func runScore(cmd *cobra.Command, args []string) error {
	_, scorer, err := bootstrap.NewFairnessScorer(cfg.Scoring)
	if err != nil {
		return err
	}

	mine, theirs, err := scoreOpts.sides()
	if err != nil {
		return err
	}

	eval, err := scorer.Evaluate(mine, theirs)
	if err != nil {
		return fmt.Errorf("score: %w", err)
	}

	return printJSON(cmd.OutOrStdout(), map[string]any{
		"match_score":    eval.MatchScore,
		"fairness_score": eval.FairnessScore,
		"is_fair_match":  eval.IsFairMatch,
		"label":          eval.Label,
		"time_penalty":   eval.TimePenalty,
		"demand_penalty": eval.DemandPenalty,
		"match_logic":    eval.MatchLogic,
	})
}

// sides builds the two scoring sides from flags.
func (f scoreFlags) sides() (matching.Side, matching.Side, error) {
	wanted, err := flagListing("want", "me", f.wantTitle, f.wantCategory, f.wantLevel, skill.DirectionWanted)
	if err != nil {
		return matching.Side{}, matching.Side{}, err
	}
	offered, err := flagListing("offer", "them", f.offerTitle, f.offerCategory, f.offerLevel, skill.DirectionOffered)
	if err != nil {
		return matching.Side{}, matching.Side{}, err
	}

	myDemand, err := matching.ParseMarketDemand(f.myDemand)
	if err != nil {
		return matching.Side{}, matching.Side{}, fmt.Errorf("--my-demand: %w", err)
	}
	theirDemand, err := matching.ParseMarketDemand(f.theirDemand)
	if err != nil {
		return matching.Side{}, matching.Side{}, fmt.Errorf("--their-demand: %w", err)
	}

	return matching.Side{Skill: wanted, Hours: f.myHours, Demand: myDemand},
		matching.Side{Skill: offered, Hours: f.theirHours, Demand: theirDemand},
		nil
}

// flagListing builds a throwaway listing. A missing title gets a
// per-side placeholder so only category affinity is scored.
func flagListing(prefix, owner, title, category, level string, dir skill.Direction) (*skill.Listing, error) {
	lvl, err := skill.ParseLevel(level)
	if err != nil {
		return nil, fmt.Errorf("--%s-level: %w", prefix, err)
	}
	if title == "" {
		title = category + " (" + prefix + ")"
	}

	l, err := skill.NewListing(skill.NewListingParams{
		ID:        prefix,
		OwnerID:   shared.UserID(owner),
		Title:     title,
		Category:  skill.Category(category),
		Level:     lvl,
		Direction: dir,
	})
	if err != nil {
		return nil, fmt.Errorf("--%s-*: %w", prefix, err)
	}
	return l, nil
}
