package memory

import (
	"context"
	"sort"
	"sync"

	"github.com/skillswap/skillswap-hub/internal/domain/shared"
	"github.com/skillswap/skillswap-hub/internal/domain/swap"
)

// ConversationRepository implements swap.ConversationRepository.
type ConversationRepository struct {
	mu     sync.Mutex
	byPair map[string]*swap.Conversation
}

// NewConversationRepository creates an empty repository.
func NewConversationRepository() *ConversationRepository {
	return &ConversationRepository{byPair: make(map[string]*swap.Conversation)}
}

// GetOrCreate implements swap.ConversationRepository.
func (r *ConversationRepository) GetOrCreate(_ context.Context, c *swap.Conversation) (*swap.Conversation, bool, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	key := c.Pair.Key()
	if existing, ok := r.byPair[key]; ok {
		cp := *existing
		return &cp, false, nil
	}

	stored := *c
	r.byPair[key] = &stored
	cp := stored
	return &cp, true, nil
}

// GetByPair implements swap.ConversationRepository.
func (r *ConversationRepository) GetByPair(_ context.Context, pair shared.UserPair) (*swap.Conversation, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	c, ok := r.byPair[pair.Key()]
	if !ok {
		return nil, shared.ErrConversationNotFound
	}
	cp := *c
	return &cp, nil
}

// ListByUser implements swap.ConversationRepository.
func (r *ConversationRepository) ListByUser(_ context.Context, userID shared.UserID) ([]*swap.Conversation, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	out := make([]*swap.Conversation, 0)
	for _, c := range r.byPair {
		if c.Pair.Contains(userID) {
			cp := *c
			out = append(out, &cp)
		}
	}
	sort.Slice(out, func(i, j int) bool { return out[i].CreatedAt.After(out[j].CreatedAt) })
	return out, nil
}
