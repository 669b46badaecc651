package notification

import (
	"time"

	"github.com/skillswap/skillswap-hub/internal/domain/shared"
)

// CreatedEvent - уведомление сохранено и готово к доставке клиенту.
// Несёт всё содержимое уведомления: подписчик в другом процессе
// не обращается к хранилищу.
type CreatedEvent struct {
	shared.BaseEvent
	NotificationID string            `json:"notification_id"`
	UserID         string            `json:"user_id"`
	Type           Type              `json:"type"`
	SwapRequestID  string            `json:"swap_request_id"`
	Title          string            `json:"title"`
	Body           string            `json:"body"`
	Data           map[string]string `json:"data"`
	CreatedAt      time.Time         `json:"created_at"`
}

// Payload реализует shared.Event.
func (e CreatedEvent) Payload() map[string]interface{} {
	data := make(map[string]interface{}, len(e.Data))
	for k, v := range e.Data {
		data[k] = v
	}
	return map[string]interface{}{
		"notification_id": e.NotificationID,
		"user_id":         e.UserID,
		"type":            string(e.Type),
		"swap_request_id": e.SwapRequestID,
		"title":           e.Title,
		"body":            e.Body,
		"data":            data,
		"created_at":      e.CreatedAt.UTC().Format(time.RFC3339Nano),
	}
}

// NewCreatedEvent создаёт событие для сохранённого уведомления.
func NewCreatedEvent(n *Notification) CreatedEvent {
	base := shared.NewBaseEvent(shared.EventNotificationCreated, n.ID)
	base.Timestamp = n.CreatedAt
	return CreatedEvent{
		BaseEvent:      base,
		NotificationID: n.ID,
		UserID:         n.UserID.String(),
		Type:           n.Type,
		SwapRequestID:  n.SwapRequestID,
		Title:          n.Title,
		Body:           n.Body,
		Data:           n.Data,
		CreatedAt:      n.CreatedAt,
	}
}
