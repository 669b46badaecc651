package query

import (
	"context"
	"fmt"

	"github.com/skillswap/skillswap-hub/internal/domain/shared"
	"github.com/skillswap/skillswap-hub/internal/domain/skill"
)

// SkillQueries - чтение навыков. Навыки публичны: их видит любой
// аутентифицированный пользователь.
type SkillQueries struct {
	skillRepo skill.Repository
}

// NewSkillQueries создаёт обработчик.
func NewSkillQueries(repo skill.Repository) *SkillQueries {
	return &SkillQueries{skillRepo: repo}
}

// Get возвращает навык по ID.
func (h *SkillQueries) Get(ctx context.Context, id string) (*SkillDTO, error) {
	l, err := h.skillRepo.GetByID(ctx, id)
	if err != nil {
		return nil, fmt.Errorf("get_skill: %w", err)
	}
	return NewSkillDTO(l), nil
}

// ListByOwner возвращает навыки пользователя.
func (h *SkillQueries) ListByOwner(ctx context.Context, ownerID string) ([]*SkillDTO, error) {
	owner := shared.UserID(ownerID)
	if !owner.IsValid() {
		return nil, shared.NewDomainError("skill", "List", shared.ErrInvalidID, "owner_id is required")
	}

	items, err := h.skillRepo.ListByOwner(ctx, owner)
	if err != nil {
		return nil, fmt.Errorf("list_skills: %w", err)
	}

	out := make([]*SkillDTO, 0, len(items))
	for _, l := range items {
		out = append(out, NewSkillDTO(l))
	}
	return out, nil
}
