package ws

import (
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/gorilla/websocket"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/skillswap/skillswap-hub/internal/domain/notification"
	"github.com/skillswap/skillswap-hub/internal/domain/shared"
	"github.com/skillswap/skillswap-hub/internal/interface/http/handlers"
	"github.com/skillswap/skillswap-hub/pkg/logger"
)

type otherEvent struct {
	shared.BaseEvent
}

func (otherEvent) Payload() map[string]interface{} {
	return map[string]interface{}{"user_id": "bob"}
}

func newTestServer(t *testing.T, hub *Hub) *httptest.Server {
	t.Helper()

	ws := NewHandler(hub, nil)
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		user := r.URL.Query().Get("user")
		if user != "" {
			r = r.WithContext(handlers.WithUserID(r.Context(), user))
		}
		ws.ServeHTTP(w, r)
	}))
	t.Cleanup(srv.Close)
	return srv
}

func dial(t *testing.T, srv *httptest.Server, user string) *websocket.Conn {
	t.Helper()

	url := "ws" + strings.TrimPrefix(srv.URL, "http") + "/?user=" + user
	conn, resp, err := websocket.DefaultDialer.Dial(url, nil)
	require.NoError(t, err)
	_ = resp.Body.Close()
	t.Cleanup(func() { _ = conn.Close() })
	return conn
}

func createdEvent(t *testing.T, userID string) shared.Event {
	t.Helper()

	n, err := notification.NewNotification(notification.NewNotificationParams{
		ID:            "n-1",
		UserID:        shared.UserID(userID),
		Type:          notification.TypeSwapRequestReceived,
		SwapRequestID: "req-1",
		Title:         "New swap request",
		Body:          "alice wants to swap Go for SQL",
		Now:           time.Date(2026, 3, 1, 12, 0, 0, 0, time.UTC),
	})
	require.NoError(t, err)
	return notification.NewCreatedEvent(n)
}

func TestHub_PushesNotificationToUser(t *testing.T) {
	hub := NewHub(logger.Nop())
	defer hub.Close()
	srv := newTestServer(t, hub)

	bob := dial(t, srv, "bob")
	require.Eventually(t, func() bool { return hub.Connections("bob") == 1 }, time.Second, 10*time.Millisecond)

	require.NoError(t, hub.HandleEvent(createdEvent(t, "bob")))

	_ = bob.SetReadDeadline(time.Now().Add(2 * time.Second))
	var msg Message
	require.NoError(t, bob.ReadJSON(&msg))

	assert.Equal(t, MessageTypeNotification, msg.Type)
	assert.Equal(t, "n-1", msg.Data["notification_id"])
	assert.Equal(t, "req-1", msg.Data["swap_request_id"])
}

func TestHub_OnlyAddresseeReceives(t *testing.T) {
	hub := NewHub(logger.Nop())
	defer hub.Close()
	srv := newTestServer(t, hub)

	dial(t, srv, "alice")
	require.Eventually(t, func() bool { return hub.Connections("alice") == 1 }, time.Second, 10*time.Millisecond)

	delivered := hub.Push("bob", Message{Type: MessageTypeNotification})
	assert.Equal(t, 0, delivered)

	delivered = hub.Push("alice", Message{Type: MessageTypeNotification})
	assert.Equal(t, 1, delivered)
}

func TestHub_IgnoresOtherEvents(t *testing.T) {
	hub := NewHub(logger.Nop())
	event := otherEvent{BaseEvent: shared.NewBaseEvent(shared.EventSwapRequestCreated, "req-1")}

	assert.NoError(t, hub.HandleEvent(event))
}

func TestHub_UnregistersOnDisconnect(t *testing.T) {
	hub := NewHub(logger.Nop())
	defer hub.Close()
	srv := newTestServer(t, hub)

	conn := dial(t, srv, "carol")
	require.Eventually(t, func() bool { return hub.Connections("carol") == 1 }, time.Second, 10*time.Millisecond)

	require.NoError(t, conn.Close())
	assert.Eventually(t, func() bool { return hub.Connections("carol") == 0 }, 2*time.Second, 10*time.Millisecond)
}

func TestHandler_RejectsAnonymous(t *testing.T) {
	hub := NewHub(logger.Nop())
	srv := newTestServer(t, hub)

	url := "ws" + strings.TrimPrefix(srv.URL, "http") + "/"
	_, resp, err := websocket.DefaultDialer.Dial(url, nil)
	require.Error(t, err)
	require.NotNil(t, resp)
	defer resp.Body.Close()
	assert.Equal(t, http.StatusUnauthorized, resp.StatusCode)
}
