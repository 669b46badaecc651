// Package ws pushes notifications to connected clients over WebSocket.
// A user may hold several connections; each receives every notification
// addressed to that user.
package ws

import (
	"sync"
	"time"

	"github.com/skillswap/skillswap-hub/internal/domain/shared"
	"github.com/skillswap/skillswap-hub/pkg/logger"
)

// Message is the frame written to clients.
type Message struct {
	Type string                 `json:"type"`
	Data map[string]interface{} `json:"data"`
	At   time.Time              `json:"at"`
}

// MessageTypeNotification marks a notification frame.
const MessageTypeNotification = "notification"

// Hub tracks open connections per user.
type Hub struct {
	mu      sync.RWMutex
	clients map[string]map[*Client]struct{}
	log     *logger.Logger
}

// NewHub creates an empty hub.
func NewHub(log *logger.Logger) *Hub {
	if log == nil {
		log = logger.Default()
	}
	return &Hub{
		clients: make(map[string]map[*Client]struct{}),
		log:     log.With(logger.Component("ws_hub")),
	}
}

// Subscribe registers the hub for notification.created events.
func (h *Hub) Subscribe(bus shared.EventSubscriber) error {
	return bus.Subscribe(shared.EventNotificationCreated, h.HandleEvent)
}

// HandleEvent pushes a notification.created event to its user.
// Events for users without connections are dropped.
func (h *Hub) HandleEvent(event shared.Event) error {
	if event.EventType() != shared.EventNotificationCreated {
		return nil
	}
	userID := shared.PayloadString(event, "user_id")
	if userID == "" {
		h.log.Warn("notification event without user", logger.String("aggregate_id", event.AggregateID()))
		return nil
	}

	h.Push(userID, Message{
		Type: MessageTypeNotification,
		Data: event.Payload(),
		At:   event.OccurredAt(),
	})
	return nil
}

// Push queues msg on every connection of userID and returns how many
// connections accepted it. A client whose buffer is full is disconnected.
func (h *Hub) Push(userID string, msg Message) int {
	h.mu.RLock()
	targets := make([]*Client, 0, len(h.clients[userID]))
	for c := range h.clients[userID] {
		targets = append(targets, c)
	}
	h.mu.RUnlock()

	delivered := 0
	for _, c := range targets {
		if c.enqueue(msg) {
			delivered++
			continue
		}
		h.log.Warn("slow client dropped", logger.UserID(userID))
		h.unregister(c)
	}
	return delivered
}

// Connections returns the number of open connections for userID.
func (h *Hub) Connections(userID string) int {
	h.mu.RLock()
	defer h.mu.RUnlock()
	return len(h.clients[userID])
}

// Close disconnects every client.
func (h *Hub) Close() {
	h.mu.Lock()
	all := h.clients
	h.clients = make(map[string]map[*Client]struct{})
	h.mu.Unlock()

	for _, set := range all {
		for c := range set {
			c.close()
		}
	}
}

func (h *Hub) register(c *Client) {
	h.mu.Lock()
	set, ok := h.clients[c.userID]
	if !ok {
		set = make(map[*Client]struct{})
		h.clients[c.userID] = set
	}
	set[c] = struct{}{}
	total := len(set)
	h.mu.Unlock()

	h.log.Debug("ws connected", logger.UserID(c.userID), logger.Int("connections", total))
}

func (h *Hub) unregister(c *Client) {
	h.mu.Lock()
	if set, ok := h.clients[c.userID]; ok {
		if _, ok := set[c]; ok {
			delete(set, c)
			if len(set) == 0 {
				delete(h.clients, c.userID)
			}
		}
	}
	h.mu.Unlock()

	c.close()
	h.log.Debug("ws disconnected", logger.UserID(c.userID))
}
