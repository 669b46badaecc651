package skill

import (
	"github.com/skillswap/skillswap-hub/internal/domain/shared"
)

// ListingEvent - событие изменения навыка (добавлен, изменён, удалён, проверен).
type ListingEvent struct {
	shared.BaseEvent
	ListingID string    `json:"listing_id"`
	OwnerID   string    `json:"owner_id"`
	Title     string    `json:"title"`
	Category  string    `json:"category"`
	Level     Level     `json:"level"`
	Direction Direction `json:"direction"`

	// Score и IsValid заполняются только для skill.assessed.
	Score   float64 `json:"score,omitempty"`
	IsValid bool    `json:"is_valid,omitempty"`
}

// Payload реализует shared.Event.
func (e ListingEvent) Payload() map[string]interface{} {
	p := map[string]interface{}{
		"listing_id": e.ListingID,
		"owner_id":   e.OwnerID,
		"title":      e.Title,
		"category":   e.Category,
		"level":      string(e.Level),
		"direction":  string(e.Direction),
	}
	if e.Type == shared.EventSkillAssessed {
		p["score"] = e.Score
		p["is_valid"] = e.IsValid
	}
	return p
}

// NewListingEvent создаёт событие для текущего состояния навыка.
func NewListingEvent(eventType shared.EventType, l *Listing) ListingEvent {
	e := ListingEvent{
		BaseEvent: shared.NewBaseEvent(eventType, l.ID),
		ListingID: l.ID,
		OwnerID:   l.OwnerID.String(),
		Title:     l.Title,
		Category:  string(l.Category),
		Level:     l.Level,
		Direction: l.Direction,
	}
	if l.Assessment != nil {
		e.Score = l.Assessment.Score
		e.IsValid = l.Assessment.IsValid
	}
	return e
}
