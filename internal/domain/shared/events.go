// Package shared contains common domain types, errors and events
// that are used across all domain packages.
package shared

import (
	"fmt"
	"time"
)

// EventType represents the type of domain event.
type EventType string

// Domain event types - these drive the event-driven architecture.
// Each event represents something significant that happened in the domain.
const (
	// Swap request lifecycle events
	EventSwapRequestCreated   EventType = "swap.request_created"
	EventSwapRequestAccepted  EventType = "swap.request_accepted"
	EventSwapRequestDeclined  EventType = "swap.request_declined"
	EventSwapRequestCancelled EventType = "swap.request_cancelled"
	EventSwapRequestExpired   EventType = "swap.request_expired"
	EventConversationOpened   EventType = "swap.conversation_opened"

	// Skill listing events
	EventSkillListed   EventType = "skill.listed"
	EventSkillUpdated  EventType = "skill.updated"
	EventSkillRemoved  EventType = "skill.removed"
	EventSkillAssessed EventType = "skill.assessed"

	// Notification events
	EventNotificationCreated EventType = "notification.created"

	// System events
	EventExpirySweepCompleted EventType = "system.expiry_sweep_completed"
)

// SwapLifecycleEvents lists every event emitted by a swap request transition.
var SwapLifecycleEvents = []EventType{
	EventSwapRequestCreated,
	EventSwapRequestAccepted,
	EventSwapRequestDeclined,
	EventSwapRequestCancelled,
	EventSwapRequestExpired,
}

// Event is the base interface for all domain events.
type Event interface {
	// EventType returns the type of the event.
	EventType() EventType

	// OccurredAt returns when the event occurred.
	OccurredAt() time.Time

	// AggregateID returns the ID of the aggregate that produced this event.
	AggregateID() string

	// Payload returns the event data as a map for serialization.
	Payload() map[string]interface{}
}

// BaseEvent provides common event functionality.
type BaseEvent struct {
	Type          EventType `json:"type"`
	Timestamp     time.Time `json:"timestamp"`
	AggregateId   string    `json:"aggregate_id"`
	Version       int       `json:"version"`
	CorrelationID string    `json:"correlation_id,omitempty"`
}

// EventType implements Event interface.
func (e BaseEvent) EventType() EventType {
	return e.Type
}

// OccurredAt implements Event interface.
func (e BaseEvent) OccurredAt() time.Time {
	return e.Timestamp
}

// AggregateID implements Event interface.
func (e BaseEvent) AggregateID() string {
	return e.AggregateId
}

// NewBaseEvent creates a new base event.
func NewBaseEvent(eventType EventType, aggregateID string) BaseEvent {
	return BaseEvent{
		Type:        eventType,
		Timestamp:   time.Now().UTC(),
		AggregateId: aggregateID,
		Version:     1,
	}
}

// WithCorrelationID sets the correlation ID for tracing.
func (e BaseEvent) WithCorrelationID(id string) BaseEvent {
	e.CorrelationID = id
	return e
}

// PayloadString reads a string field from an event payload.
// Events that crossed a process boundary only carry their payload map,
// so handlers read fields through it instead of type-asserting the event.
func PayloadString(e Event, key string) string {
	v, ok := e.Payload()[key]
	if !ok || v == nil {
		return ""
	}
	if s, ok := v.(string); ok {
		return s
	}
	return fmt.Sprint(v)
}

// EventHandler is a function that handles an event.
type EventHandler func(event Event) error

// EventPublisher defines the interface for publishing events.
type EventPublisher interface {
	// Publish sends an event to subscribers.
	Publish(event Event) error
}

// EventSubscriber defines the interface for subscribing to events.
type EventSubscriber interface {
	// Subscribe registers a handler for an event type.
	Subscribe(eventType EventType, handler EventHandler) error

	// SubscribeAll registers a handler for all events.
	SubscribeAll(handler EventHandler) error
}

// EventBus combines publishing and subscribing.
type EventBus interface {
	EventPublisher
	EventSubscriber
}
