// Package memory provides in-memory implementations of the domain
// repositories. They back tests, the CLI dry mode and single-process runs
// without a database. All repositories are safe for concurrent use and
// hand out copies, never the stored value.
package memory

import (
	"context"
	"sort"
	"sync"

	"github.com/skillswap/skillswap-hub/internal/domain/shared"
	"github.com/skillswap/skillswap-hub/internal/domain/skill"
)

// SkillRepository implements skill.Repository.
type SkillRepository struct {
	mu       sync.RWMutex
	listings map[string]*skill.Listing
}

// NewSkillRepository creates an empty repository.
func NewSkillRepository() *SkillRepository {
	return &SkillRepository{listings: make(map[string]*skill.Listing)}
}

// Save implements skill.Repository.
func (r *SkillRepository) Save(_ context.Context, l *skill.Listing) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.listings[l.ID] = l.Clone()
	return nil
}

// GetByID implements skill.Repository.
func (r *SkillRepository) GetByID(_ context.Context, id string) (*skill.Listing, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	l, ok := r.listings[id]
	if !ok {
		return nil, shared.ErrSkillNotFound
	}
	return l.Clone(), nil
}

// Delete implements skill.Repository.
func (r *SkillRepository) Delete(_ context.Context, id string) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	if _, ok := r.listings[id]; !ok {
		return shared.ErrSkillNotFound
	}
	delete(r.listings, id)
	return nil
}

// ListByOwner implements skill.Repository.
func (r *SkillRepository) ListByOwner(_ context.Context, ownerID shared.UserID) ([]*skill.Listing, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	out := make([]*skill.Listing, 0)
	for _, l := range r.listings {
		if l.OwnerID == ownerID {
			out = append(out, l.Clone())
		}
	}
	sortListings(out)
	return out, nil
}

// owners returns every user with at least one listing.
func (r *SkillRepository) owners() []shared.UserID {
	r.mu.RLock()
	defer r.mu.RUnlock()

	seen := make(map[shared.UserID]struct{})
	for _, l := range r.listings {
		seen[l.OwnerID] = struct{}{}
	}
	out := make([]shared.UserID, 0, len(seen))
	for id := range seen {
		out = append(out, id)
	}
	sort.Slice(out, func(i, j int) bool { return out[i] < out[j] })
	return out
}

func sortListings(ls []*skill.Listing) {
	sort.Slice(ls, func(i, j int) bool {
		if !ls[i].CreatedAt.Equal(ls[j].CreatedAt) {
			return ls[i].CreatedAt.Before(ls[j].CreatedAt)
		}
		return ls[i].ID < ls[j].ID
	})
}
