package notification

import (
	"context"
	"time"

	"github.com/skillswap/skillswap-hub/internal/domain/shared"
)

// ListOptions - параметры выборки уведомлений.
type ListOptions struct {
	UnreadOnly bool
	Pagination shared.Pagination
}

// Repository определяет интерфейс для хранения уведомлений.
type Repository interface {
	// Save сохраняет уведомление.
	Save(ctx context.Context, n *Notification) error

	// GetByID возвращает уведомление по ID.
	// Возвращает shared.ErrNotificationNotFound, если уведомление не найдено.
	GetByID(ctx context.Context, id string) (*Notification, error)

	// ListByUser возвращает уведомления пользователя, новые первыми.
	ListByUser(ctx context.Context, userID shared.UserID, opts ListOptions) ([]*Notification, error)

	// CountUnread возвращает количество непрочитанных уведомлений.
	CountUnread(ctx context.Context, userID shared.UserID) (int, error)

	// MarkRead отмечает уведомления пользователя прочитанными.
	// Пустой ids - все уведомления пользователя. Чужие ID игнорируются.
	// Возвращает количество изменённых уведомлений.
	MarkRead(ctx context.Context, userID shared.UserID, ids []string, at time.Time) (int, error)

	// PurgeRead удаляет прочитанные уведомления, созданные раньше before.
	PurgeRead(ctx context.Context, before time.Time) (int64, error)
}
