package query

import (
	"context"
	"fmt"
	"time"

	"github.com/skillswap/skillswap-hub/internal/domain/shared"
	"github.com/skillswap/skillswap-hub/internal/domain/swap"
)

// ══════════════════════════════════════════════════════════════════════════════
// SWAP REQUEST QUERIES
// Чтение запросов на обмен. Запрос видят только его участники.
// ══════════════════════════════════════════════════════════════════════════════

// GetSwapRequestQuery - получение одного запроса.
type GetSwapRequestQuery struct {
	RequestID string
	ViewerID  string
}

// ListSwapRequestsQuery - входящие или исходящие запросы пользователя.
type ListSwapRequestsQuery struct {
	UserID string

	// Box - "incoming", "outgoing" или "all" (по умолчанию).
	Box string

	// Status - фильтр по статусу (пусто = любой).
	Status string

	Page     int
	PageSize int
}

// options проверяет параметры и разбирает фильтры.
func (q ListSwapRequestsQuery) options() (swap.ListOptions, error) {
	userID := shared.UserID(q.UserID)
	if !userID.IsValid() {
		return swap.ListOptions{}, shared.NewDomainError("swap", "List", shared.ErrInvalidID, "user_id is required")
	}

	opts := swap.DefaultListOptions(userID)
	switch swap.Box(q.Box) {
	case "", swap.BoxAll:
	case swap.BoxIncoming, swap.BoxOutgoing:
		opts.Box = swap.Box(q.Box)
	default:
		return swap.ListOptions{}, shared.NewDomainError("swap", "List", shared.ErrInvalidInput,
			fmt.Sprintf("unknown box %q", q.Box))
	}

	if q.Status != "" {
		st, err := swap.ParseStatus(q.Status)
		if err != nil {
			return swap.ListOptions{}, err
		}
		opts.Status = st
	}

	opts.Pagination = shared.NewPagination(q.Page, q.PageSize)
	return opts, nil
}

// SwapRequestListDTO - страница запросов.
type SwapRequestListDTO struct {
	Requests []SwapRequestDTO `json:"requests"`
	Page     int              `json:"page"`
	PageSize int              `json:"page_size"`
}

// SwapRequestQueries обрабатывает запросы чтения.
type SwapRequestQueries struct {
	requestRepo swap.RequestRepository
	ttl         time.Duration
}

// NewSwapRequestQueries создаёт обработчик.
func NewSwapRequestQueries(requestRepo swap.RequestRepository, ttl time.Duration) *SwapRequestQueries {
	if ttl <= 0 {
		ttl = swap.DefaultRequestTTL
	}
	return &SwapRequestQueries{requestRepo: requestRepo, ttl: ttl}
}

// Get возвращает запрос, если зритель - его участник.
func (h *SwapRequestQueries) Get(ctx context.Context, q GetSwapRequestQuery) (*SwapRequestDTO, error) {
	req, err := h.requestRepo.GetByID(ctx, q.RequestID)
	if err != nil {
		return nil, fmt.Errorf("get_swap_request: %w", err)
	}
	if err := req.CanRead(shared.UserID(q.ViewerID)); err != nil {
		return nil, fmt.Errorf("get_swap_request: %w", err)
	}

	dto := NewSwapRequestDTO(req, h.ttl)
	return &dto, nil
}

// List возвращает страницу запросов пользователя.
func (h *SwapRequestQueries) List(ctx context.Context, q ListSwapRequestsQuery) (*SwapRequestListDTO, error) {
	opts, err := q.options()
	if err != nil {
		return nil, fmt.Errorf("list_swap_requests: %w", err)
	}

	reqs, err := h.requestRepo.List(ctx, opts)
	if err != nil {
		return nil, fmt.Errorf("list_swap_requests: %w", err)
	}

	out := &SwapRequestListDTO{
		Requests: make([]SwapRequestDTO, 0, len(reqs)),
		Page:     opts.Pagination.Page,
		PageSize: opts.Pagination.Limit(),
	}
	for _, r := range reqs {
		out.Requests = append(out.Requests, NewSwapRequestDTO(r, h.ttl))
	}
	return out, nil
}
