package query

import (
	"context"
	"fmt"

	"github.com/skillswap/skillswap-hub/internal/domain/matching"
	"github.com/skillswap/skillswap-hub/internal/domain/shared"
)

// ══════════════════════════════════════════════════════════════════════════════
// RANK MATCHES QUERY
// Подбирает партнёров для обмена: кандидат предлагает то, что нужно
// пользователю, и нуждается в том, что пользователь предлагает.
// Результат пересчитывается при каждом запросе и нигде не хранится.
// ══════════════════════════════════════════════════════════════════════════════

// DefaultMatchLimit - размер выдачи, который подставляют HTTP API и CLI,
// когда клиент не указал limit.
const DefaultMatchLimit = 20

// RankMatchesQuery содержит параметры подбора.
type RankMatchesQuery struct {
	// UserID - запрашивающий пользователь.
	UserID string

	// Limit - размер выдачи (0 или отрицательный - без ограничения).
	Limit int

	// FairOnly - только справедливые пары (FairnessScore ≥ 80).
	FairOnly bool

	// OnlyValidated - учитывать только навыки кандидатов с подтверждённым уровнем.
	OnlyValidated bool
}

// Validate проверяет корректность параметров запроса.
func (q RankMatchesQuery) Validate() error {
	if q.UserID == "" {
		return shared.NewDomainError("matching", "Rank", shared.ErrInvalidID, "user_id is required")
	}
	return nil
}

// RankMatchesResult - результат подбора.
type RankMatchesResult struct {
	Candidates []MatchCandidateDTO `json:"candidates"`

	// PoolSize - сколько профилей было рассмотрено.
	PoolSize int `json:"pool_size"`
}

// RankMatchesHandler обрабатывает запрос подбора.
type RankMatchesHandler struct {
	profileRepo matching.ProfileRepository
	ranker      *matching.Ranker
	poolLimit   int
}

// NewRankMatchesHandler создаёт обработчик подбора.
func NewRankMatchesHandler(profileRepo matching.ProfileRepository, ranker *matching.Ranker, poolLimit int) *RankMatchesHandler {
	return &RankMatchesHandler{
		profileRepo: profileRepo,
		ranker:      ranker,
		poolLimit:   poolLimit,
	}
}

// Handle выполняет подбор.
func (h *RankMatchesHandler) Handle(ctx context.Context, q RankMatchesQuery) (*RankMatchesResult, error) {
	if err := q.Validate(); err != nil {
		return nil, err
	}

	userID := shared.UserID(q.UserID)
	requester, err := h.profileRepo.GetProfile(ctx, userID)
	if err != nil {
		return nil, fmt.Errorf("rank_matches: load profile: %w", err)
	}

	// Лимит пула применяется после фильтра совместимости.
	filter, ok := h.ranker.CandidateFilter(*requester)
	if !ok {
		return &RankMatchesResult{Candidates: []MatchCandidateDTO{}}, nil
	}
	filter.OnlyValidated = q.OnlyValidated
	if h.poolLimit > 0 {
		filter.Limit = h.poolLimit
	}

	pool, err := h.profileRepo.ListCandidatePool(ctx, filter)
	if err != nil {
		return nil, fmt.Errorf("rank_matches: load candidate pool: %w", err)
	}

	limit := q.Limit
	if q.FairOnly {
		// Ограничение применяется после фильтра.
		limit = 0
	}

	ranked, err := h.ranker.Rank(*requester, pool, limit)
	if err != nil {
		return nil, fmt.Errorf("rank_matches: %w", err)
	}
	if q.FairOnly {
		ranked = ranked.FairOnly().TopN(q.Limit)
	}

	result := &RankMatchesResult{
		Candidates: make([]MatchCandidateDTO, 0, len(ranked)),
		PoolSize:   len(pool),
	}
	for _, c := range ranked {
		result.Candidates = append(result.Candidates, NewMatchCandidateDTO(c))
	}
	return result, nil
}
