package postgres

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/skillswap/skillswap-hub/internal/domain/matching"
	"github.com/skillswap/skillswap-hub/internal/domain/shared"
	"github.com/skillswap/skillswap-hub/internal/domain/skill"
)

// ══════════════════════════════════════════════════════════════════════════════
// PROFILE REPOSITORY
// ══════════════════════════════════════════════════════════════════════════════

// ProfileRepository implements matching.ProfileRepository for PostgreSQL.
// Profiles are assembled from skill_listings and user_profiles.
type ProfileRepository struct {
	conn   *Connection
	skills *SkillRepository
}

// NewProfileRepository creates a new ProfileRepository.
func NewProfileRepository(conn *Connection) *ProfileRepository {
	return &ProfileRepository{conn: conn, skills: NewSkillRepository(conn)}
}

// SaveAvailability upserts the user's hours and market demand.
func (r *ProfileRepository) SaveAvailability(ctx context.Context, a matching.Availability) error {
	query := `
		INSERT INTO user_profiles (user_id, hours_per_week, market_demand, updated_at)
		VALUES ($1, $2, $3, $4)
		ON CONFLICT (user_id) DO UPDATE SET
			hours_per_week = EXCLUDED.hours_per_week,
			market_demand = EXCLUDED.market_demand,
			updated_at = EXCLUDED.updated_at
	`

	_, err := r.conn.Exec(ctx, query, string(a.UserID), a.HoursPerWeek, string(a.Demand), time.Now().UTC())
	if err != nil {
		return fmt.Errorf("failed to save availability: %w", err)
	}
	return nil
}

// GetProfile returns the user's listings and availability.
// A user without stored availability gets 0 hours and Medium demand.
func (r *ProfileRepository) GetProfile(ctx context.Context, userID shared.UserID) (*matching.Profile, error) {
	listings, err := r.skills.ListByOwner(ctx, userID)
	if err != nil {
		return nil, err
	}

	avail, err := r.loadAvailability(ctx, []string{string(userID)})
	if err != nil {
		return nil, err
	}

	p := newProfile(userID, avail)
	for _, l := range listings {
		addListing(p, l)
	}
	return p, nil
}

// ListCandidatePool returns candidate profiles, ordered by user id.
func (r *ProfileRepository) ListCandidatePool(ctx context.Context, filter matching.CandidateFilter) ([]matching.Profile, error) {
	query, args := buildCandidateOwnersQuery(filter)

	rows, err := r.conn.Query(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("failed to list candidate owners: %w", err)
	}

	owners := make([]string, 0)
	for rows.Next() {
		var owner string
		if err := rows.Scan(&owner); err != nil {
			rows.Close()
			return nil, fmt.Errorf("failed to scan candidate owner: %w", err)
		}
		owners = append(owners, owner)
	}
	rows.Close()
	if err := rows.Err(); err != nil {
		return nil, err
	}
	if len(owners) == 0 {
		return []matching.Profile{}, nil
	}

	avail, err := r.loadAvailability(ctx, owners)
	if err != nil {
		return nil, err
	}

	listingRows, err := r.conn.Query(ctx, `SELECT `+skillColumns+` FROM skill_listings
		WHERE owner_id = ANY($1)
		ORDER BY owner_id, created_at, id`, owners)
	if err != nil {
		return nil, fmt.Errorf("failed to load candidate listings: %w", err)
	}
	listings, err := collectListings(listingRows)
	if err != nil {
		return nil, err
	}

	byOwner := make(map[shared.UserID]*matching.Profile, len(owners))
	for _, owner := range owners {
		byOwner[shared.UserID(owner)] = newProfile(shared.UserID(owner), avail)
	}
	for _, l := range listings {
		if filter.OnlyValidated && l.IsOffered() && !l.IsValidated() {
			continue
		}
		if p, ok := byOwner[l.OwnerID]; ok {
			addListing(p, l)
		}
	}

	out := make([]matching.Profile, 0, len(owners))
	for _, owner := range owners {
		out = append(out, *byOwner[shared.UserID(owner)])
	}
	return out, nil
}

func (r *ProfileRepository) loadAvailability(ctx context.Context, userIDs []string) (map[shared.UserID]matching.Availability, error) {
	rows, err := r.conn.Query(ctx, `
		SELECT user_id, hours_per_week, market_demand
		FROM user_profiles
		WHERE user_id = ANY($1)
	`, userIDs)
	if err != nil {
		return nil, fmt.Errorf("failed to load availability: %w", err)
	}
	defer rows.Close()

	out := make(map[shared.UserID]matching.Availability, len(userIDs))
	for rows.Next() {
		var userID, demand string
		var hours float64
		if err := rows.Scan(&userID, &hours, &demand); err != nil {
			return nil, fmt.Errorf("failed to scan availability: %w", err)
		}
		out[shared.UserID(userID)] = matching.Availability{
			UserID:       shared.UserID(userID),
			HoursPerWeek: hours,
			Demand:       matching.MarketDemand(demand),
		}
	}
	return out, rows.Err()
}

// buildCandidateOwnersQuery selects distinct owners with at least one
// Offered listing in filter.Offers and, when set, one Wanted listing in
// filter.Wants. The limit applies after both filters.
func buildCandidateOwnersQuery(filter matching.CandidateFilter) (string, []interface{}) {
	var (
		conds = []string{"o.direction = 'Offered'"}
		args  []interface{}
	)

	if filter.ExcludeUserID != "" {
		args = append(args, string(filter.ExcludeUserID))
		conds = append(conds, fmt.Sprintf("o.owner_id <> $%d", len(args)))
	}
	if filter.OnlyValidated {
		conds = append(conds, "(o.assessment->>'is_valid')::boolean IS TRUE")
	}
	if !filter.Offers.IsEmpty() {
		var cond string
		cond, args = reachCondition("o", filter.Offers, args)
		conds = append(conds, cond)
	}
	if !filter.Wants.IsEmpty() {
		var cond string
		cond, args = reachCondition("w", filter.Wants, args)
		conds = append(conds, "EXISTS (SELECT 1 FROM skill_listings w"+
			" WHERE w.owner_id = o.owner_id AND w.direction = 'Wanted' AND "+cond+")")
	}

	query := "SELECT DISTINCT o.owner_id FROM skill_listings o WHERE " +
		strings.Join(conds, " AND ") +
		" ORDER BY o.owner_id"

	if filter.Limit > 0 {
		args = append(args, filter.Limit)
		query += fmt.Sprintf(" LIMIT $%d", len(args))
	}
	return query, args
}

// reachCondition matches a listing alias against reach by category or by
// exact title.
func reachCondition(alias string, reach skill.Reach, args []interface{}) (string, []interface{}) {
	cats := make([]string, 0, len(reach.Categories))
	for _, c := range reach.Categories {
		cats = append(cats, string(c.Normalize()))
	}
	titles := append([]string{}, reach.Titles...)
	args = append(args, cats, titles)
	cond := fmt.Sprintf("(lower(trim(%[1]s.category)) = ANY($%[2]d) OR lower(trim(%[1]s.title)) = ANY($%[3]d))",
		alias, len(args)-1, len(args))
	return cond, args
}

func newProfile(userID shared.UserID, avail map[shared.UserID]matching.Availability) *matching.Profile {
	p := &matching.Profile{UserID: userID, Demand: matching.DemandMedium}
	if a, ok := avail[userID]; ok {
		p.HoursPerWeek = a.HoursPerWeek
		p.Demand = a.Demand
	}
	return p
}

func addListing(p *matching.Profile, l *skill.Listing) {
	if l.IsOffered() {
		p.Offered = append(p.Offered, l)
	} else {
		p.Wanted = append(p.Wanted, l)
	}
}
