package notification

import (
	"fmt"
	"time"

	"github.com/skillswap/skillswap-hub/internal/domain/shared"
)

// ══════════════════════════════════════════════════════════════════════════════
// MESSAGE COMPOSITION
// ══════════════════════════════════════════════════════════════════════════════

// payloadKeys - поля события, которые попадают в Data уведомления.
var payloadKeys = []string{
	"request_id",
	"from_user_id",
	"to_user_id",
	"offered_skill_id",
	"requested_skill_id",
	"status",
}

// ComposeFromEvent строит уведомление получателю userID о событии запроса.
// Читает только Payload, поэтому работает и с событиями, пришедшими из
// другого процесса.
func ComposeFromEvent(id string, userID shared.UserID, event shared.Event, now time.Time) (*Notification, error) {
	typ, ok := TypeForEvent(event.EventType())
	if !ok {
		return nil, shared.WrapError("notification", "Compose", shared.ErrInvalidInput,
			fmt.Sprintf("event %s has no notification", event.EventType()), shared.ErrInvalidNotification)
	}

	data := make(map[string]string, len(payloadKeys))
	for _, key := range payloadKeys {
		if v := shared.PayloadString(event, key); v != "" {
			data[key] = v
		}
	}

	title, body := render(typ, userID, data)

	return NewNotification(NewNotificationParams{
		ID:            id,
		UserID:        userID,
		Type:          typ,
		SwapRequestID: data["request_id"],
		Title:         title,
		Body:          body,
		Data:          data,
		Now:           now,
	})
}

func render(typ Type, userID shared.UserID, data map[string]string) (title, body string) {
	from := data["from_user_id"]
	to := data["to_user_id"]

	switch typ {
	case TypeSwapRequestReceived:
		return "New swap request",
			fmt.Sprintf("%s wants to swap skills with you.", from)
	case TypeSwapRequestAccepted:
		return "Swap request accepted",
			fmt.Sprintf("%s accepted your swap request. A conversation is open.", to)
	case TypeSwapRequestDeclined:
		return "Swap request declined",
			fmt.Sprintf("%s declined your swap request.", to)
	case TypeSwapRequestCancelled:
		return "Swap request cancelled",
			fmt.Sprintf("%s cancelled their swap request.", from)
	case TypeSwapRequestExpired:
		other := to
		if userID.String() == to {
			other = from
		}
		return "Swap request expired",
			fmt.Sprintf("Your swap request with %s expired without a response.", other)
	default:
		return string(typ), ""
	}
}
