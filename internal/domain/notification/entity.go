// Package notification содержит доменную модель уведомлений SkillSwap Hub.
// Уведомление сообщает участнику обмена о переходе его запроса.
// Счётчик непрочитанных не хранится: он вычисляется при чтении.
package notification

import (
	"fmt"
	"strings"
	"time"

	"github.com/skillswap/skillswap-hub/internal/domain/shared"
)

// ══════════════════════════════════════════════════════════════════════════════
// NOTIFICATION TYPE
// ══════════════════════════════════════════════════════════════════════════════

// Type определяет тип уведомления.
type Type string

const (
	// TypeSwapRequestReceived - получен новый запрос на обмен.
	TypeSwapRequestReceived Type = "swap_request_received"

	// TypeSwapRequestAccepted - запрос принят получателем.
	TypeSwapRequestAccepted Type = "swap_request_accepted"

	// TypeSwapRequestDeclined - запрос отклонён получателем.
	TypeSwapRequestDeclined Type = "swap_request_declined"

	// TypeSwapRequestCancelled - запрос отменён отправителем.
	TypeSwapRequestCancelled Type = "swap_request_cancelled"

	// TypeSwapRequestExpired - запрос истёк без ответа.
	TypeSwapRequestExpired Type = "swap_request_expired"
)

// IsValid проверяет, что тип уведомления корректен.
func (t Type) IsValid() bool {
	switch t {
	case TypeSwapRequestReceived,
		TypeSwapRequestAccepted,
		TypeSwapRequestDeclined,
		TypeSwapRequestCancelled,
		TypeSwapRequestExpired:
		return true
	default:
		return false
	}
}

// String возвращает строковое представление типа.
func (t Type) String() string {
	return string(t)
}

// TypeForEvent возвращает тип уведомления для события жизненного цикла запроса.
func TypeForEvent(eventType shared.EventType) (Type, bool) {
	switch eventType {
	case shared.EventSwapRequestCreated:
		return TypeSwapRequestReceived, true
	case shared.EventSwapRequestAccepted:
		return TypeSwapRequestAccepted, true
	case shared.EventSwapRequestDeclined:
		return TypeSwapRequestDeclined, true
	case shared.EventSwapRequestCancelled:
		return TypeSwapRequestCancelled, true
	case shared.EventSwapRequestExpired:
		return TypeSwapRequestExpired, true
	default:
		return "", false
	}
}

// ══════════════════════════════════════════════════════════════════════════════
// NOTIFICATION ENTITY
// ══════════════════════════════════════════════════════════════════════════════

// Notification - уведомление пользователя.
type Notification struct {
	// ID - уникальный идентификатор уведомления.
	ID string

	// UserID - получатель.
	UserID shared.UserID

	// Type - тип уведомления.
	Type Type

	// SwapRequestID - запрос, к которому относится уведомление.
	SwapRequestID string

	// Title - короткий заголовок.
	Title string

	// Body - текст уведомления.
	Body string

	// Data - данные события для клиента (ID участников, навыков).
	Data map[string]string

	// ReadAt - время прочтения (nil = не прочитано).
	ReadAt *time.Time

	CreatedAt time.Time
}

// NewNotificationParams содержит параметры для создания уведомления.
type NewNotificationParams struct {
	ID            string
	UserID        shared.UserID
	Type          Type
	SwapRequestID string
	Title         string
	Body          string
	Data          map[string]string
	Now           time.Time
}

// NewNotification создаёт новое уведомление с валидацией.
func NewNotification(params NewNotificationParams) (*Notification, error) {
	if params.ID == "" {
		return nil, shared.NewDomainError("notification", "Create", shared.ErrInvalidID, "notification id is required")
	}
	if !params.UserID.IsValid() {
		return nil, shared.NewDomainError("notification", "Create", shared.ErrInvalidID, "recipient is required")
	}
	if !params.Type.IsValid() {
		return nil, shared.WrapError("notification", "Create", shared.ErrInvalidInput,
			fmt.Sprintf("unknown type %q", params.Type), shared.ErrInvalidNotification)
	}
	if strings.TrimSpace(params.Title) == "" {
		return nil, shared.WrapError("notification", "Create", shared.ErrInvalidInput,
			"title is required", shared.ErrInvalidNotification)
	}

	now := params.Now
	if now.IsZero() {
		now = time.Now()
	}

	data := make(map[string]string, len(params.Data))
	for k, v := range params.Data {
		data[k] = v
	}

	return &Notification{
		ID:            params.ID,
		UserID:        params.UserID,
		Type:          params.Type,
		SwapRequestID: params.SwapRequestID,
		Title:         params.Title,
		Body:          params.Body,
		Data:          data,
		CreatedAt:     now.UTC(),
	}, nil
}

// ══════════════════════════════════════════════════════════════════════════════
// DOMAIN METHODS
// ══════════════════════════════════════════════════════════════════════════════

// IsRead возвращает true, если уведомление прочитано.
func (n *Notification) IsRead() bool {
	return n.ReadAt != nil
}

// MarkRead отмечает уведомление прочитанным. Повторный вызов ничего не меняет.
func (n *Notification) MarkRead(now time.Time) bool {
	if n.IsRead() {
		return false
	}
	t := now.UTC()
	n.ReadAt = &t
	return true
}

// Clone создаёт глубокую копию уведомления.
func (n *Notification) Clone() *Notification {
	if n == nil {
		return nil
	}

	clone := *n
	if n.ReadAt != nil {
		t := *n.ReadAt
		clone.ReadAt = &t
	}
	if n.Data != nil {
		clone.Data = make(map[string]string, len(n.Data))
		for k, v := range n.Data {
			clone.Data[k] = v
		}
	}
	return &clone
}

// String возвращает строковое представление для логирования.
func (n *Notification) String() string {
	return fmt.Sprintf("Notification{ID: %s, Type: %s, User: %s, Request: %s, Read: %t}",
		n.ID, n.Type, n.UserID, n.SwapRequestID, n.IsRead())
}
