package swap

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/skillswap/skillswap-hub/internal/domain/shared"
)

var t0 = time.Date(2026, 3, 1, 12, 0, 0, 0, time.UTC)

func newPending(t *testing.T) *Request {
	t.Helper()
	r, err := NewRequest(NewRequestParams{
		ID:               "req-1",
		FromUserID:       "alice",
		ToUserID:         "bob",
		OfferedSkillID:   "skill-a",
		RequestedSkillID: "skill-b",
		Message:          "Let's swap!",
		Now:              t0,
	})
	require.NoError(t, err)
	return r
}

func TestNewRequest_Validation(t *testing.T) {
	_, err := NewRequest(NewRequestParams{ID: "r", FromUserID: "alice", ToUserID: "alice", OfferedSkillID: "a", RequestedSkillID: "b"})
	assert.ErrorIs(t, err, shared.ErrInvalidInput)
	assert.ErrorIs(t, err, shared.ErrSelfSwap)

	_, err = NewRequest(NewRequestParams{ID: "r", FromUserID: "alice", ToUserID: "bob", OfferedSkillID: "a"})
	assert.ErrorIs(t, err, shared.ErrInvalidInput)

	_, err = NewRequest(NewRequestParams{FromUserID: "alice", ToUserID: "bob", OfferedSkillID: "a", RequestedSkillID: "b"})
	assert.ErrorIs(t, err, shared.ErrInvalidID)

	r := newPending(t)
	assert.Equal(t, StatusPending, r.Status)
	assert.Nil(t, r.RespondedAt)
	assert.Equal(t, 1, r.Version)
	assert.Equal(t, t0, r.CreatedAt)
}

func TestTransitions_FromPending(t *testing.T) {
	now := t0.Add(time.Hour)

	tests := []struct {
		name   string
		apply  func(r *Request) error
		status Status
	}{
		{"accept by recipient", func(r *Request) error { return r.Accept("bob", now) }, StatusAccepted},
		{"decline by recipient", func(r *Request) error { return r.Decline("bob", now) }, StatusDeclined},
		{"cancel by sender", func(r *Request) error { return r.Cancel("alice", now) }, StatusCancelled},
		{"expire by clock", func(r *Request) error {
			if !r.Expire(t0.Add(DefaultRequestTTL+time.Second), DefaultRequestTTL) {
				return assert.AnError
			}
			return nil
		}, StatusExpired},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			r := newPending(t)
			require.NoError(t, tt.apply(r))
			assert.Equal(t, tt.status, r.Status)
			assert.True(t, r.Status.IsTerminal())
			require.NotNil(t, r.RespondedAt)
		})
	}
}

func TestTransitions_WrongActor(t *testing.T) {
	now := t0.Add(time.Hour)
	r := newPending(t)

	assert.ErrorIs(t, r.Accept("alice", now), shared.ErrUnauthorized)
	assert.ErrorIs(t, r.Decline("mallory", now), shared.ErrUnauthorized)
	assert.ErrorIs(t, r.Cancel("bob", now), shared.ErrUnauthorized)
	assert.Equal(t, StatusPending, r.Status)
}

func TestTransitions_FromTerminalAlwaysInvalid(t *testing.T) {
	now := t0.Add(time.Hour)
	terminal := map[Status]func(r *Request){
		StatusAccepted:  func(r *Request) { require.NoError(t, r.Accept("bob", now)) },
		StatusDeclined:  func(r *Request) { require.NoError(t, r.Decline("bob", now)) },
		StatusCancelled: func(r *Request) { require.NoError(t, r.Cancel("alice", now)) },
		StatusExpired:   func(r *Request) { require.True(t, r.Expire(t0.Add(DefaultRequestTTL+time.Second), DefaultRequestTTL)) },
	}

	for status, reach := range terminal {
		t.Run(string(status), func(t *testing.T) {
			r := newPending(t)
			reach(r)
			snapshot := r.Clone()

			later := now.Add(time.Minute)
			assert.ErrorIs(t, r.Accept("bob", later), shared.ErrInvalidTransition)
			assert.ErrorIs(t, r.Decline("bob", later), shared.ErrInvalidTransition)
			assert.ErrorIs(t, r.Cancel("alice", later), shared.ErrInvalidTransition)
			assert.False(t, r.Expire(later.Add(DefaultRequestTTL*2), DefaultRequestTTL))

			assert.Equal(t, snapshot, r)
		})
	}
}

func TestExpire_NotYetDueIsNoop(t *testing.T) {
	r := newPending(t)

	assert.False(t, r.Expire(t0.Add(DefaultRequestTTL-time.Second), DefaultRequestTTL))
	assert.Equal(t, StatusPending, r.Status)

	// Exactly at CreatedAt+TTL the request is still live.
	assert.False(t, r.IsOverdue(t0.Add(DefaultRequestTTL), DefaultRequestTTL))
	assert.False(t, r.Expire(t0.Add(DefaultRequestTTL), DefaultRequestTTL))
	assert.Equal(t, StatusPending, r.Status)

	assert.True(t, r.Expire(t0.Add(DefaultRequestTTL+time.Second), DefaultRequestTTL))
	assert.False(t, r.Expire(t0.Add(DefaultRequestTTL+time.Hour), DefaultRequestTTL))
	assert.Equal(t, StatusExpired, r.Status)
}

func TestRequest_ReadAccess(t *testing.T) {
	r := newPending(t)

	assert.NoError(t, r.CanRead("alice"))
	assert.NoError(t, r.CanRead("bob"))
	assert.ErrorIs(t, r.CanRead("eve"), shared.ErrUnauthorized)
	assert.Equal(t, shared.UserPair{Low: "alice", High: "bob"}, r.Pair())
}

func TestRequestEvent_Payload(t *testing.T) {
	r := newPending(t)
	require.NoError(t, r.Accept("bob", t0.Add(time.Hour)))

	ev := NewRequestEvent(EventTypeForStatus(r.Status), r, "bob")
	assert.Equal(t, shared.EventSwapRequestAccepted, ev.EventType())
	assert.Equal(t, "req-1", ev.AggregateID())
	assert.Equal(t, t0.Add(time.Hour), ev.OccurredAt())
	assert.Equal(t, "alice", shared.PayloadString(ev, "from_user_id"))
	assert.Equal(t, "accepted", shared.PayloadString(ev, "status"))
}

func TestConversation_NormalizesPair(t *testing.T) {
	c, err := NewConversation("c1", "zoe", "adam", "req-1")
	require.NoError(t, err)
	assert.Equal(t, shared.UserID("adam"), c.Pair.Low)
	assert.Equal(t, shared.UserID("zoe"), c.Pair.High)

	_, err = NewConversation("c2", "adam", "adam", "req-1")
	assert.ErrorIs(t, err, shared.ErrInvalidInput)
}
