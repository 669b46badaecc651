package swap

import (
	"time"

	"github.com/skillswap/skillswap-hub/internal/domain/shared"
)

// RequestEvent - событие перехода запроса. Один тип на все переходы:
// обработчикам нужны одни и те же поля.
type RequestEvent struct {
	shared.BaseEvent
	RequestID        string `json:"request_id"`
	FromUserID       string `json:"from_user_id"`
	ToUserID         string `json:"to_user_id"`
	OfferedSkillID   string `json:"offered_skill_id"`
	RequestedSkillID string `json:"requested_skill_id"`
	Status           Status `json:"status"`
	// ActorID - кто выполнил переход (пусто для истечения).
	ActorID string `json:"actor_id,omitempty"`
}

// Payload реализует shared.Event.
func (e RequestEvent) Payload() map[string]interface{} {
	return map[string]interface{}{
		"request_id":         e.RequestID,
		"from_user_id":       e.FromUserID,
		"to_user_id":         e.ToUserID,
		"offered_skill_id":   e.OfferedSkillID,
		"requested_skill_id": e.RequestedSkillID,
		"status":             string(e.Status),
		"actor_id":           e.ActorID,
	}
}

// NewRequestEvent создаёт событие для текущего состояния запроса.
func NewRequestEvent(eventType shared.EventType, r *Request, actor shared.UserID) RequestEvent {
	base := shared.NewBaseEvent(eventType, r.ID)
	base.Version = r.Version
	if r.RespondedAt != nil {
		base.Timestamp = *r.RespondedAt
	} else if eventType == shared.EventSwapRequestCreated {
		base.Timestamp = r.CreatedAt
	}

	return RequestEvent{
		BaseEvent:        base,
		RequestID:        r.ID,
		FromUserID:       r.FromUserID.String(),
		ToUserID:         r.ToUserID.String(),
		OfferedSkillID:   r.OfferedSkillID,
		RequestedSkillID: r.RequestedSkillID,
		Status:           r.Status,
		ActorID:          actor.String(),
	}
}

// EventTypeForStatus возвращает тип события, соответствующий статусу.
func EventTypeForStatus(s Status) shared.EventType {
	switch s {
	case StatusAccepted:
		return shared.EventSwapRequestAccepted
	case StatusDeclined:
		return shared.EventSwapRequestDeclined
	case StatusCancelled:
		return shared.EventSwapRequestCancelled
	case StatusExpired:
		return shared.EventSwapRequestExpired
	default:
		return shared.EventSwapRequestCreated
	}
}

// ExpirySweepCompletedEvent - итог прохода по просроченным запросам.
type ExpirySweepCompletedEvent struct {
	shared.BaseEvent
	Scanned int `json:"scanned"`
	Expired int `json:"expired"`
	Skipped int `json:"skipped"`
}

// Payload реализует shared.Event.
func (e ExpirySweepCompletedEvent) Payload() map[string]interface{} {
	return map[string]interface{}{
		"scanned": e.Scanned,
		"expired": e.Expired,
		"skipped": e.Skipped,
	}
}

// NewExpirySweepCompletedEvent создаёт событие завершения прохода.
func NewExpirySweepCompletedEvent(scanned, expired, skipped int) ExpirySweepCompletedEvent {
	return ExpirySweepCompletedEvent{
		BaseEvent: shared.NewBaseEvent(shared.EventExpirySweepCompleted, "expiry_sweep"),
		Scanned:   scanned,
		Expired:   expired,
		Skipped:   skipped,
	}
}

// ConversationOpenedEvent - диалог открыт после принятия запроса.
type ConversationOpenedEvent struct {
	shared.BaseEvent
	ConversationID string `json:"conversation_id"`
	RequestID      string `json:"request_id"`
	UserA          string `json:"user_a"`
	UserB          string `json:"user_b"`
}

// Payload реализует shared.Event.
func (e ConversationOpenedEvent) Payload() map[string]interface{} {
	return map[string]interface{}{
		"conversation_id": e.ConversationID,
		"request_id":      e.RequestID,
		"user_a":          e.UserA,
		"user_b":          e.UserB,
	}
}

// NewConversationOpenedEvent создаёт событие открытия диалога.
func NewConversationOpenedEvent(conversationID, requestID string, pair shared.UserPair, at time.Time) ConversationOpenedEvent {
	base := shared.NewBaseEvent(shared.EventConversationOpened, conversationID)
	if !at.IsZero() {
		base.Timestamp = at
	}
	return ConversationOpenedEvent{
		BaseEvent:      base,
		ConversationID: conversationID,
		RequestID:      requestID,
		UserA:          pair.Low.String(),
		UserB:          pair.High.String(),
	}
}
