package memory

import (
	"context"
	"sync"

	"github.com/skillswap/skillswap-hub/internal/domain/matching"
	"github.com/skillswap/skillswap-hub/internal/domain/shared"
	"github.com/skillswap/skillswap-hub/internal/domain/skill"
)

// ProfileRepository implements matching.ProfileRepository on top of a
// SkillRepository.
type ProfileRepository struct {
	skills *SkillRepository

	mu           sync.RWMutex
	availability map[shared.UserID]matching.Availability
}

// NewProfileRepository creates a repository reading listings from skills.
func NewProfileRepository(skills *SkillRepository) *ProfileRepository {
	return &ProfileRepository{
		skills:       skills,
		availability: make(map[shared.UserID]matching.Availability),
	}
}

// SaveAvailability implements matching.ProfileRepository.
func (r *ProfileRepository) SaveAvailability(_ context.Context, a matching.Availability) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.availability[a.UserID] = a
	return nil
}

// GetProfile implements matching.ProfileRepository.
func (r *ProfileRepository) GetProfile(ctx context.Context, userID shared.UserID) (*matching.Profile, error) {
	listings, err := r.skills.ListByOwner(ctx, userID)
	if err != nil {
		return nil, err
	}

	r.mu.RLock()
	a, ok := r.availability[userID]
	r.mu.RUnlock()

	p := &matching.Profile{
		UserID: userID,
		Demand: matching.DemandMedium,
	}
	if ok {
		p.HoursPerWeek = a.HoursPerWeek
		p.Demand = a.Demand
	}
	for _, l := range listings {
		if l.IsOffered() {
			p.Offered = append(p.Offered, l)
		} else {
			p.Wanted = append(p.Wanted, l)
		}
	}
	return p, nil
}

// ListCandidatePool implements matching.ProfileRepository.
func (r *ProfileRepository) ListCandidatePool(ctx context.Context, filter matching.CandidateFilter) ([]matching.Profile, error) {
	out := make([]matching.Profile, 0)

	for _, owner := range r.skills.owners() {
		if owner == filter.ExcludeUserID {
			continue
		}
		p, err := r.GetProfile(ctx, owner)
		if err != nil {
			return nil, err
		}

		if filter.OnlyValidated {
			p.Offered = validatedOnly(p.Offered)
		}
		if len(p.Offered) == 0 || !coversAny(filter.Offers, p.Offered) || !coversAny(filter.Wants, p.Wanted) {
			continue
		}

		out = append(out, *p)
		if filter.Limit > 0 && len(out) >= filter.Limit {
			break
		}
	}
	return out, nil
}

func validatedOnly(ls []*skill.Listing) []*skill.Listing {
	out := make([]*skill.Listing, 0, len(ls))
	for _, l := range ls {
		if l.IsValidated() {
			out = append(out, l)
		}
	}
	return out
}

// coversAny reports whether any listing falls into reach. An empty reach
// matches everything.
func coversAny(reach skill.Reach, ls []*skill.Listing) bool {
	if reach.IsEmpty() {
		return true
	}
	for _, l := range ls {
		if reach.Covers(l) {
			return true
		}
	}
	return false
}
