package memory

import (
	"context"
	"sort"
	"sync"
	"time"

	"github.com/skillswap/skillswap-hub/internal/domain/shared"
	"github.com/skillswap/skillswap-hub/internal/domain/swap"
)

// SwapRequestRepository implements swap.RequestRepository.
// Update compares versions under the write lock, which gives the same
// single-winner guarantee as the conditional UPDATE in PostgreSQL.
type SwapRequestRepository struct {
	mu       sync.RWMutex
	requests map[string]*swap.Request
}

// NewSwapRequestRepository creates an empty repository.
func NewSwapRequestRepository() *SwapRequestRepository {
	return &SwapRequestRepository{requests: make(map[string]*swap.Request)}
}

// Create implements swap.RequestRepository.
func (r *SwapRequestRepository) Create(_ context.Context, req *swap.Request) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	if _, ok := r.requests[req.ID]; ok {
		return shared.NewDomainError("swap", "Create", shared.ErrAlreadyExists, "request id already used")
	}
	for _, existing := range r.requests {
		if existing.Status.IsPending() &&
			existing.FromUserID == req.FromUserID &&
			existing.ToUserID == req.ToUserID &&
			existing.OfferedSkillID == req.OfferedSkillID &&
			existing.RequestedSkillID == req.RequestedSkillID {
			return shared.ErrSwapRequestExists
		}
	}

	r.requests[req.ID] = req.Clone()
	return nil
}

// GetByID implements swap.RequestRepository.
func (r *SwapRequestRepository) GetByID(_ context.Context, id string) (*swap.Request, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	req, ok := r.requests[id]
	if !ok {
		return nil, shared.ErrSwapRequestNotFound
	}
	return req.Clone(), nil
}

// Update implements swap.RequestRepository.
func (r *SwapRequestRepository) Update(_ context.Context, req *swap.Request, expectedVersion int) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	stored, ok := r.requests[req.ID]
	if !ok {
		return shared.ErrSwapRequestNotFound
	}
	if stored.Version != expectedVersion {
		return shared.ErrConcurrentModification
	}

	req.Version = expectedVersion + 1
	r.requests[req.ID] = req.Clone()
	return nil
}

// List implements swap.RequestRepository.
func (r *SwapRequestRepository) List(_ context.Context, opts swap.ListOptions) ([]*swap.Request, error) {
	r.mu.RLock()
	matched := make([]*swap.Request, 0)
	for _, req := range r.requests {
		if !inBox(req, opts.UserID, opts.Box) {
			continue
		}
		if opts.Status != "" && req.Status != opts.Status {
			continue
		}
		matched = append(matched, req.Clone())
	}
	r.mu.RUnlock()

	sort.Slice(matched, func(i, j int) bool {
		if !matched[i].CreatedAt.Equal(matched[j].CreatedAt) {
			return matched[i].CreatedAt.After(matched[j].CreatedAt)
		}
		return matched[i].ID < matched[j].ID
	})

	return paginate(matched, opts.Pagination), nil
}

// ListOverdue implements swap.RequestRepository.
func (r *SwapRequestRepository) ListOverdue(_ context.Context, cutoff time.Time, limit int) ([]*swap.Request, error) {
	r.mu.RLock()
	out := make([]*swap.Request, 0)
	for _, req := range r.requests {
		if req.Status.IsPending() && req.CreatedAt.Before(cutoff) {
			out = append(out, req.Clone())
		}
	}
	r.mu.RUnlock()

	sort.Slice(out, func(i, j int) bool {
		if !out[i].CreatedAt.Equal(out[j].CreatedAt) {
			return out[i].CreatedAt.Before(out[j].CreatedAt)
		}
		return out[i].ID < out[j].ID
	})
	if limit > 0 && len(out) > limit {
		out = out[:limit]
	}
	return out, nil
}

// CountPendingIncoming implements swap.RequestRepository.
func (r *SwapRequestRepository) CountPendingIncoming(_ context.Context, userID shared.UserID) (int, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	n := 0
	for _, req := range r.requests {
		if req.Status.IsPending() && req.ToUserID == userID {
			n++
		}
	}
	return n, nil
}

func inBox(req *swap.Request, userID shared.UserID, box swap.Box) bool {
	switch box {
	case swap.BoxIncoming:
		return req.ToUserID == userID
	case swap.BoxOutgoing:
		return req.FromUserID == userID
	default:
		return req.IsParticipant(userID)
	}
}

func paginate[T any](items []T, p shared.Pagination) []T {
	offset := p.Offset()
	if offset >= len(items) {
		return items[:0]
	}
	end := offset + p.Limit()
	if end > len(items) {
		end = len(items)
	}
	return items[offset:end]
}
