package query

import (
	"context"
	"fmt"

	"github.com/skillswap/skillswap-hub/internal/domain/notification"
	"github.com/skillswap/skillswap-hub/internal/domain/shared"
	"github.com/skillswap/skillswap-hub/internal/domain/swap"
)

// ══════════════════════════════════════════════════════════════════════════════
// BADGE COUNTS QUERY
// Счётчики для значков интерфейса. Не хранятся: считаются при каждом чтении,
// поэтому не могут разойтись с данными.
// ══════════════════════════════════════════════════════════════════════════════

// BadgeCountsQuery содержит параметры запроса.
type BadgeCountsQuery struct {
	UserID string
}

// BadgeCountsDTO - значения счётчиков.
type BadgeCountsDTO struct {
	// PendingRequests - ожидающие запросы, где пользователь получатель.
	PendingRequests int `json:"pending_requests"`

	// UnreadNotifications - уведомления без отметки о прочтении.
	UnreadNotifications int `json:"unread_notifications"`
}

// BadgeCountsHandler обрабатывает запрос счётчиков.
type BadgeCountsHandler struct {
	requestRepo      swap.RequestRepository
	notificationRepo notification.Repository
}

// NewBadgeCountsHandler создаёт обработчик.
func NewBadgeCountsHandler(requestRepo swap.RequestRepository, notificationRepo notification.Repository) *BadgeCountsHandler {
	return &BadgeCountsHandler{
		requestRepo:      requestRepo,
		notificationRepo: notificationRepo,
	}
}

// Handle считает оба счётчика.
func (h *BadgeCountsHandler) Handle(ctx context.Context, q BadgeCountsQuery) (*BadgeCountsDTO, error) {
	userID := shared.UserID(q.UserID)
	if !userID.IsValid() {
		return nil, shared.NewDomainError("badges", "Count", shared.ErrInvalidID, "user_id is required")
	}

	pending, err := h.requestRepo.CountPendingIncoming(ctx, userID)
	if err != nil {
		return nil, fmt.Errorf("badge_counts: pending requests: %w", err)
	}

	unread, err := h.notificationRepo.CountUnread(ctx, userID)
	if err != nil {
		return nil, fmt.Errorf("badge_counts: unread notifications: %w", err)
	}

	return &BadgeCountsDTO{
		PendingRequests:     pending,
		UnreadNotifications: unread,
	}, nil
}
