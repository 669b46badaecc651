package query

import (
	"context"
	"fmt"

	"github.com/skillswap/skillswap-hub/internal/domain/notification"
	"github.com/skillswap/skillswap-hub/internal/domain/shared"
)

// ListNotificationsQuery - уведомления пользователя, новые первыми.
type ListNotificationsQuery struct {
	UserID     string
	UnreadOnly bool
	Page       int
	PageSize   int
}

// NotificationListDTO - страница уведомлений и текущий счётчик непрочитанных.
type NotificationListDTO struct {
	Notifications []NotificationDTO `json:"notifications"`
	Unread        int               `json:"unread"`
}

// ListNotificationsHandler обрабатывает запрос.
type ListNotificationsHandler struct {
	notificationRepo notification.Repository
}

// NewListNotificationsHandler создаёт обработчик.
func NewListNotificationsHandler(repo notification.Repository) *ListNotificationsHandler {
	return &ListNotificationsHandler{notificationRepo: repo}
}

// Handle выполняет запрос.
func (h *ListNotificationsHandler) Handle(ctx context.Context, q ListNotificationsQuery) (*NotificationListDTO, error) {
	userID := shared.UserID(q.UserID)
	if !userID.IsValid() {
		return nil, shared.NewDomainError("notification", "List", shared.ErrInvalidID, "user_id is required")
	}

	items, err := h.notificationRepo.ListByUser(ctx, userID, notification.ListOptions{
		UnreadOnly: q.UnreadOnly,
		Pagination: shared.NewPagination(q.Page, q.PageSize),
	})
	if err != nil {
		return nil, fmt.Errorf("list_notifications: %w", err)
	}

	unread, err := h.notificationRepo.CountUnread(ctx, userID)
	if err != nil {
		return nil, fmt.Errorf("list_notifications: count unread: %w", err)
	}

	out := &NotificationListDTO{
		Notifications: make([]NotificationDTO, 0, len(items)),
		Unread:        unread,
	}
	for _, n := range items {
		out.Notifications = append(out.Notifications, NewNotificationDTO(n))
	}
	return out, nil
}
