package notification

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/skillswap/skillswap-hub/internal/domain/shared"
)

type stubEvent struct {
	shared.BaseEvent
	payload map[string]interface{}
}

func (e stubEvent) Payload() map[string]interface{} { return e.payload }

func swapEvent(t shared.EventType) stubEvent {
	return stubEvent{
		BaseEvent: shared.NewBaseEvent(t, "req-1"),
		payload: map[string]interface{}{
			"request_id":         "req-1",
			"from_user_id":       "alice",
			"to_user_id":         "bob",
			"offered_skill_id":   "s1",
			"requested_skill_id": "s2",
			"status":             "pending",
		},
	}
}

func TestComposeFromEvent(t *testing.T) {
	now := time.Date(2026, 5, 1, 9, 0, 0, 0, time.UTC)

	n, err := ComposeFromEvent("n1", "bob", swapEvent(shared.EventSwapRequestCreated), now)
	require.NoError(t, err)

	assert.Equal(t, TypeSwapRequestReceived, n.Type)
	assert.Equal(t, shared.UserID("bob"), n.UserID)
	assert.Equal(t, "req-1", n.SwapRequestID)
	assert.Equal(t, "New swap request", n.Title)
	assert.Contains(t, n.Body, "alice")
	assert.Equal(t, "s1", n.Data["offered_skill_id"])
	assert.False(t, n.IsRead())
	assert.Equal(t, now, n.CreatedAt)
}

func TestComposeFromEvent_ExpiredNamesOtherParty(t *testing.T) {
	ev := swapEvent(shared.EventSwapRequestExpired)

	forAlice, err := ComposeFromEvent("n1", "alice", ev, time.Now())
	require.NoError(t, err)
	assert.Contains(t, forAlice.Body, "bob")

	forBob, err := ComposeFromEvent("n2", "bob", ev, time.Now())
	require.NoError(t, err)
	assert.Contains(t, forBob.Body, "alice")
}

func TestComposeFromEvent_UnknownEvent(t *testing.T) {
	_, err := ComposeFromEvent("n1", "bob", swapEvent(shared.EventSkillListed), time.Now())
	assert.ErrorIs(t, err, shared.ErrInvalidInput)
}

func TestNewNotification_Validation(t *testing.T) {
	_, err := NewNotification(NewNotificationParams{UserID: "bob", Type: TypeSwapRequestAccepted, Title: "x"})
	assert.ErrorIs(t, err, shared.ErrInvalidID)

	_, err = NewNotification(NewNotificationParams{ID: "n", UserID: "bob", Type: "weird", Title: "x"})
	assert.ErrorIs(t, err, shared.ErrInvalidInput)

	_, err = NewNotification(NewNotificationParams{ID: "n", UserID: "bob", Type: TypeSwapRequestAccepted})
	assert.ErrorIs(t, err, shared.ErrInvalidInput)
}

func TestMarkRead_Idempotent(t *testing.T) {
	n, err := NewNotification(NewNotificationParams{ID: "n", UserID: "bob", Type: TypeSwapRequestAccepted, Title: "x"})
	require.NoError(t, err)

	first := time.Date(2026, 5, 1, 9, 0, 0, 0, time.UTC)
	assert.True(t, n.MarkRead(first))
	assert.False(t, n.MarkRead(first.Add(time.Hour)))
	assert.Equal(t, first, *n.ReadAt)

	c := n.Clone()
	c.Data["k"] = "v"
	assert.NotContains(t, n.Data, "k")
}
