package cli

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"os"

	"github.com/spf13/cobra"

	"github.com/skillswap/skillswap-hub/internal/application/query"
	"github.com/skillswap/skillswap-hub/internal/bootstrap"
	"github.com/skillswap/skillswap-hub/internal/domain/matching"
	"github.com/skillswap/skillswap-hub/internal/domain/shared"
	"github.com/skillswap/skillswap-hub/internal/domain/skill"
	"github.com/skillswap/skillswap-hub/internal/infrastructure/persistence/memory"
)

var (
	rankUser          string
	rankFixture       string
	rankLimit         int
	rankFairOnly      bool
	rankOnlyValidated bool
)

var rankCmd = &cobra.Command{
	Use:   "rank",
	Short: "Rank swap partners for a user",
	Long: `Rank swap partners for a user.

Reads profiles from the configured stores, or from a JSON fixture
when --fixture is given:

  {"profiles": [{"user_id": "alice", "hours_per_week": 5,
    "market_demand": "High",
    "skills": [{"id": "s1", "title": "Go", "category": "Programming",
                "level": "Advanced", "direction": "offered"}]}]}

Examples:
  swapctl rank --user alice
  swapctl rank --user alice --fixture profiles.json --fair-only`,
	Args: cobra.NoArgs,
	RunE: runRank,
}

func init() {
	rankCmd.Flags().StringVarP(&rankUser, "user", "u", "", "Requesting user ID")
	rankCmd.Flags().StringVarP(&rankFixture, "fixture", "f", "", "JSON fixture with profiles")
	rankCmd.Flags().IntVarP(&rankLimit, "limit", "n", query.DefaultMatchLimit, "Maximum candidates (0 = all)")
	rankCmd.Flags().BoolVar(&rankFairOnly, "fair-only", false, "Only fair matches")
	rankCmd.Flags().BoolVar(&rankOnlyValidated, "only-validated", false, "Only candidates' validated skills")
	_ = rankCmd.MarkFlagRequired("user")
}

func runRank(cmd *cobra.Command, args []string) error {
	ctx := cmd.Context()

	ranker, err := bootstrap.NewRanker(cfg.Scoring)
	if err != nil {
		return err
	}

	var profiles matching.ProfileRepository
	if rankFixture != "" {
		f, err := os.Open(rankFixture)
		if err != nil {
			return fmt.Errorf("open fixture: %w", err)
		}
		defer f.Close()

		profiles, err = loadFixture(ctx, f)
		if err != nil {
			return fmt.Errorf("%s: %w", rankFixture, err)
		}
	} else {
		stores, err := bootstrap.OpenStores(ctx, cfg, log.Slog())
		if err != nil {
			return fmt.Errorf("open stores: %w", err)
		}
		defer stores.Close()
		profiles = stores.Profiles
	}

	h := query.NewRankMatchesHandler(profiles, ranker, cfg.Scoring.CandidatePoolLimit)
	result, err := h.Handle(ctx, query.RankMatchesQuery{
		UserID:        rankUser,
		Limit:         rankLimit,
		FairOnly:      rankFairOnly,
		OnlyValidated: rankOnlyValidated,
	})
	if err != nil {
		return err
	}
	return printJSON(cmd.OutOrStdout(), result)
}

// ══════════════════════════════════════════════════════════════════════════════
// FIXTURES
// ══════════════════════════════════════════════════════════════════════════════

type fixtureFile struct {
	Profiles []fixtureProfile `json:"profiles"`
}

type fixtureProfile struct {
	UserID       string         `json:"user_id"`
	HoursPerWeek float64        `json:"hours_per_week"`
	MarketDemand string         `json:"market_demand"`
	Skills       []fixtureSkill `json:"skills"`
}

type fixtureSkill struct {
	ID          string `json:"id"`
	Title       string `json:"title"`
	Category    string `json:"category"`
	Level       string `json:"level"`
	Direction   string `json:"direction"`
	Description string `json:"description"`
}

// loadFixture decodes profiles into in-memory repositories.
func loadFixture(ctx context.Context, r io.Reader) (matching.ProfileRepository, error) {
	dec := json.NewDecoder(r)
	dec.DisallowUnknownFields()

	var file fixtureFile
	if err := dec.Decode(&file); err != nil {
		return nil, fmt.Errorf("decode fixture: %w", err)
	}

	skills := memory.NewSkillRepository()
	profiles := memory.NewProfileRepository(skills)

	for i, p := range file.Profiles {
		userID := shared.UserID(p.UserID)

		demand := matching.DemandMedium
		if p.MarketDemand != "" {
			d, err := matching.ParseMarketDemand(p.MarketDemand)
			if err != nil {
				return nil, fmt.Errorf("profiles[%d]: %w", i, err)
			}
			demand = d
		}

		avail := matching.Availability{UserID: userID, HoursPerWeek: p.HoursPerWeek, Demand: demand}
		if err := avail.Validate(); err != nil {
			return nil, fmt.Errorf("profiles[%d]: %w", i, err)
		}
		if err := profiles.SaveAvailability(ctx, avail); err != nil {
			return nil, err
		}

		for j, s := range p.Skills {
			l, err := fixtureListing(userID, s)
			if err != nil {
				return nil, fmt.Errorf("profiles[%d].skills[%d]: %w", i, j, err)
			}
			if err := skills.Save(ctx, l); err != nil {
				return nil, err
			}
		}
	}
	return profiles, nil
}

func fixtureListing(owner shared.UserID, s fixtureSkill) (*skill.Listing, error) {
	level, err := skill.ParseLevel(s.Level)
	if err != nil {
		return nil, err
	}
	dir, err := skill.ParseDirection(s.Direction)
	if err != nil {
		return nil, err
	}
	return skill.NewListing(skill.NewListingParams{
		ID:          s.ID,
		OwnerID:     owner,
		Title:       s.Title,
		Category:    skill.Category(s.Category),
		Level:       level,
		Description: s.Description,
		Direction:   dir,
	})
}
