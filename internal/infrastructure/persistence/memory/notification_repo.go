package memory

import (
	"context"
	"sort"
	"sync"
	"time"

	"github.com/skillswap/skillswap-hub/internal/domain/notification"
	"github.com/skillswap/skillswap-hub/internal/domain/shared"
)

// NotificationRepository implements notification.Repository.
type NotificationRepository struct {
	mu    sync.RWMutex
	items map[string]*notification.Notification
}

// NewNotificationRepository creates an empty repository.
func NewNotificationRepository() *NotificationRepository {
	return &NotificationRepository{items: make(map[string]*notification.Notification)}
}

// Save implements notification.Repository.
func (r *NotificationRepository) Save(_ context.Context, n *notification.Notification) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.items[n.ID] = n.Clone()
	return nil
}

// GetByID implements notification.Repository.
func (r *NotificationRepository) GetByID(_ context.Context, id string) (*notification.Notification, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	n, ok := r.items[id]
	if !ok {
		return nil, shared.ErrNotificationNotFound
	}
	return n.Clone(), nil
}

// ListByUser implements notification.Repository.
func (r *NotificationRepository) ListByUser(_ context.Context, userID shared.UserID, opts notification.ListOptions) ([]*notification.Notification, error) {
	r.mu.RLock()
	out := make([]*notification.Notification, 0)
	for _, n := range r.items {
		if n.UserID != userID || (opts.UnreadOnly && n.IsRead()) {
			continue
		}
		out = append(out, n.Clone())
	}
	r.mu.RUnlock()

	sort.Slice(out, func(i, j int) bool {
		if !out[i].CreatedAt.Equal(out[j].CreatedAt) {
			return out[i].CreatedAt.After(out[j].CreatedAt)
		}
		return out[i].ID < out[j].ID
	})
	return paginate(out, opts.Pagination), nil
}

// CountUnread implements notification.Repository.
func (r *NotificationRepository) CountUnread(_ context.Context, userID shared.UserID) (int, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	n := 0
	for _, item := range r.items {
		if item.UserID == userID && !item.IsRead() {
			n++
		}
	}
	return n, nil
}

// MarkRead implements notification.Repository.
func (r *NotificationRepository) MarkRead(_ context.Context, userID shared.UserID, ids []string, at time.Time) (int, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	updated := 0
	if len(ids) == 0 {
		for _, n := range r.items {
			if n.UserID == userID && n.MarkRead(at) {
				updated++
			}
		}
		return updated, nil
	}

	for _, id := range ids {
		n, ok := r.items[id]
		if !ok || n.UserID != userID {
			continue
		}
		if n.MarkRead(at) {
			updated++
		}
	}
	return updated, nil
}

// PurgeRead implements notification.Repository.
func (r *NotificationRepository) PurgeRead(_ context.Context, before time.Time) (int64, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	var removed int64
	for id, n := range r.items {
		if n.IsRead() && n.CreatedAt.Before(before) {
			delete(r.items, id)
			removed++
		}
	}
	return removed, nil
}
