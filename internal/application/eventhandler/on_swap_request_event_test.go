package eventhandler

import (
	"context"
	"errors"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/skillswap/skillswap-hub/internal/domain/shared"
	"github.com/skillswap/skillswap-hub/internal/domain/swap"
)

type notified struct {
	user  shared.UserID
	event shared.EventType
}

type fakeSink struct {
	mu    sync.Mutex
	calls []notified
	fail  bool
}

func (s *fakeSink) Notify(_ context.Context, userID shared.UserID, event shared.Event) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.fail {
		return errors.New("sink down")
	}
	s.calls = append(s.calls, notified{userID, event.EventType()})
	return nil
}

type fakeConversations struct {
	opened []string
}

func (c *fakeConversations) OpenConversation(_ context.Context, a, b shared.UserID, requestID string) (string, error) {
	c.opened = append(c.opened, shared.NewUserPair(a, b).Key()+"@"+requestID)
	return "conv-1", nil
}

func requestIn(t *testing.T, status swap.Status) *swap.Request {
	t.Helper()
	now := time.Date(2026, 4, 1, 0, 0, 0, 0, time.UTC)
	r, err := swap.NewRequest(swap.NewRequestParams{
		ID: "req-1", FromUserID: "alice", ToUserID: "bob",
		OfferedSkillID: "s1", RequestedSkillID: "s2", Now: now,
	})
	require.NoError(t, err)

	switch status {
	case swap.StatusAccepted:
		require.NoError(t, r.Accept("bob", now))
	case swap.StatusDeclined:
		require.NoError(t, r.Decline("bob", now))
	case swap.StatusCancelled:
		require.NoError(t, r.Cancel("alice", now))
	case swap.StatusExpired:
		require.True(t, r.Expire(now.Add(swap.DefaultRequestTTL+time.Second), swap.DefaultRequestTTL))
	}
	return r
}

func TestOnSwapRequestEvent_Recipients(t *testing.T) {
	tests := []struct {
		status swap.Status
		want   []shared.UserID
	}{
		{swap.StatusPending, []shared.UserID{"bob"}},
		{swap.StatusAccepted, []shared.UserID{"alice"}},
		{swap.StatusDeclined, []shared.UserID{"alice"}},
		{swap.StatusCancelled, []shared.UserID{"bob"}},
		{swap.StatusExpired, []shared.UserID{"alice", "bob"}},
	}

	for _, tt := range tests {
		t.Run(string(tt.status), func(t *testing.T) {
			sink := &fakeSink{}
			convs := &fakeConversations{}
			h := NewOnSwapRequestEventHandler(sink, convs, nil)

			r := requestIn(t, tt.status)
			ev := swap.NewRequestEvent(swap.EventTypeForStatus(r.Status), r, "")
			require.NoError(t, h.Handle(ev))

			got := make([]shared.UserID, 0, len(sink.calls))
			for _, c := range sink.calls {
				got = append(got, c.user)
				assert.Equal(t, ev.EventType(), c.event)
			}
			assert.Equal(t, tt.want, got)

			if tt.status == swap.StatusAccepted {
				assert.Equal(t, []string{"alice:bob@req-1"}, convs.opened)
			} else {
				assert.Empty(t, convs.opened)
			}
		})
	}
}

func TestOnSwapRequestEvent_SinkErrorReported(t *testing.T) {
	h := NewOnSwapRequestEventHandler(&fakeSink{fail: true}, nil, nil)

	r := requestIn(t, swap.StatusExpired)
	err := h.Handle(swap.NewRequestEvent(shared.EventSwapRequestExpired, r, ""))
	assert.Error(t, err)
}

type subscribeRecorder struct {
	types []shared.EventType
}

func (s *subscribeRecorder) Subscribe(t shared.EventType, _ shared.EventHandler) error {
	s.types = append(s.types, t)
	return nil
}

func (s *subscribeRecorder) SubscribeAll(shared.EventHandler) error { return nil }

func TestOnSwapRequestEvent_SubscribesToLifecycle(t *testing.T) {
	rec := &subscribeRecorder{}
	h := NewOnSwapRequestEventHandler(&fakeSink{}, nil, nil)
	require.NoError(t, h.Subscribe(rec))
	assert.Equal(t, shared.SwapLifecycleEvents, rec.types)
}
