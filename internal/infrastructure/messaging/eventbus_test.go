package messaging

import (
	"context"
	"encoding/json"
	"errors"
	"io"
	"log/slog"
	"sync"
	"sync/atomic"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/skillswap/skillswap-hub/internal/domain/shared"
)

type testEvent struct {
	shared.BaseEvent
	data map[string]interface{}
}

func (e testEvent) Payload() map[string]interface{} { return e.data }

func newTestEvent(t shared.EventType, id string) testEvent {
	return testEvent{
		BaseEvent: shared.NewBaseEvent(t, id),
		data:      map[string]interface{}{"request_id": id},
	}
}

func quietLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(io.Discard, nil))
}

func syncBus(mw ...Middleware) *InMemoryEventBus {
	return NewInMemoryEventBus(InMemoryEventBusConfig{
		Logger:        quietLogger(),
		Middlewares:   mw,
		EnableMetrics: true,
	})
}

func TestInMemoryEventBus_DispatchesByType(t *testing.T) {
	bus := syncBus()

	var created, all int
	require.NoError(t, bus.Subscribe(shared.EventSwapRequestCreated, func(shared.Event) error {
		created++
		return nil
	}))
	require.NoError(t, bus.SubscribeAll(func(shared.Event) error {
		all++
		return nil
	}))

	require.NoError(t, bus.Publish(newTestEvent(shared.EventSwapRequestCreated, "req-1")))
	require.NoError(t, bus.Publish(newTestEvent(shared.EventSwapRequestDeclined, "req-1")))

	assert.Equal(t, 1, created)
	assert.Equal(t, 2, all)
	assert.Equal(t, int64(1), bus.Metrics().Published(shared.EventSwapRequestCreated))
}

func TestInMemoryEventBus_HandlerErrorDoesNotFailPublish(t *testing.T) {
	bus := syncBus()
	require.NoError(t, bus.Subscribe(shared.EventSwapRequestCreated, func(shared.Event) error {
		return errors.New("sink down")
	}))

	assert.NoError(t, bus.Publish(newTestEvent(shared.EventSwapRequestCreated, "req-1")))
	assert.Equal(t, int64(1), bus.Metrics().Snapshot().HandlerFailures)
}

func TestInMemoryEventBus_RecoveryMiddleware(t *testing.T) {
	bus := syncBus(RecoveryMiddleware(quietLogger()))

	var after bool
	require.NoError(t, bus.Subscribe(shared.EventSwapRequestCreated, func(shared.Event) error {
		panic("boom")
	}))
	require.NoError(t, bus.Subscribe(shared.EventSwapRequestCreated, func(shared.Event) error {
		after = true
		return nil
	}))

	require.NotPanics(t, func() {
		_ = bus.Publish(newTestEvent(shared.EventSwapRequestCreated, "req-1"))
	})
	assert.True(t, after)
}

func TestInMemoryEventBus_AsyncWait(t *testing.T) {
	bus := NewInMemoryEventBus(InMemoryEventBusConfig{
		AsyncMode:      true,
		WorkerPoolSize: 4,
		Logger:         quietLogger(),
	})

	var n atomic.Int32
	require.NoError(t, bus.Subscribe(shared.EventSwapRequestExpired, func(shared.Event) error {
		n.Add(1)
		return nil
	}))

	for i := 0; i < 25; i++ {
		require.NoError(t, bus.Publish(newTestEvent(shared.EventSwapRequestExpired, "req")))
	}
	bus.Wait()

	assert.Equal(t, int32(25), n.Load())
}

func TestInMemoryEventBus_Closed(t *testing.T) {
	bus := syncBus()
	require.NoError(t, bus.Close())
	require.NoError(t, bus.Close())

	assert.ErrorIs(t, bus.Publish(newTestEvent(shared.EventSwapRequestCreated, "x")), ErrEventBusClosed)
	assert.ErrorIs(t, bus.Subscribe(shared.EventSwapRequestCreated, func(shared.Event) error { return nil }), ErrEventBusClosed)
}

func TestChain_Order(t *testing.T) {
	var trace []string
	mark := func(name string) Middleware {
		return func(next shared.EventHandler) shared.EventHandler {
			return func(e shared.Event) error {
				trace = append(trace, name)
				return next(e)
			}
		}
	}

	h := Chain(func(shared.Event) error {
		trace = append(trace, "handler")
		return nil
	}, mark("outer"), mark("inner"))

	require.NoError(t, h(newTestEvent(shared.EventSkillListed, "l-1")))
	assert.Equal(t, []string{"outer", "inner", "handler"}, trace)
}

// ══════════════════════════════════════════════════════════════════════════════
// REDIS BUS
// ══════════════════════════════════════════════════════════════════════════════

type fakeRedis struct {
	mu        sync.Mutex
	published []string
	incoming  chan RedisMessage
}

func newFakeRedis() *fakeRedis {
	return &fakeRedis{incoming: make(chan RedisMessage, 8)}
}

func (f *fakeRedis) Publish(_ context.Context, _ string, message interface{}) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.published = append(f.published, message.(string))
	return nil
}

func (f *fakeRedis) Subscribe(context.Context, ...string) (<-chan RedisMessage, error) {
	return f.incoming, nil
}

func (f *fakeRedis) Close() error { return nil }

func (f *fakeRedis) sent() []string {
	f.mu.Lock()
	defer f.mu.Unlock()
	return append([]string(nil), f.published...)
}

func newRedisBus(t *testing.T, client RedisClient) *RedisEventBus {
	t.Helper()
	bus, err := NewRedisEventBus(RedisEventBusConfig{
		Client:         client,
		InstanceID:     "instance-a",
		LocalBusConfig: InMemoryEventBusConfig{Logger: quietLogger()},
		Logger:         quietLogger(),
	})
	require.NoError(t, err)
	t.Cleanup(func() { _ = bus.Close() })
	return bus
}

func TestRedisEventBus_RelaysOnlyConfiguredTypes(t *testing.T) {
	client := newFakeRedis()
	bus := newRedisBus(t, client)

	var local int
	require.NoError(t, bus.SubscribeAll(func(shared.Event) error {
		local++
		return nil
	}))

	require.NoError(t, bus.Publish(newTestEvent(shared.EventSwapRequestAccepted, "req-1")))
	require.NoError(t, bus.Publish(newTestEvent(shared.EventNotificationCreated, "n-1")))

	assert.Equal(t, 2, local)

	sent := client.sent()
	require.Len(t, sent, 1)

	var env eventEnvelope
	require.NoError(t, json.Unmarshal([]byte(sent[0]), &env))
	assert.Equal(t, shared.EventNotificationCreated, env.EventType)
	assert.Equal(t, "instance-a", env.InstanceID)
	assert.Equal(t, "n-1", env.AggregateID)
}

func TestRedisEventBus_DeliversRemoteEvents(t *testing.T) {
	client := newFakeRedis()
	bus := newRedisBus(t, client)

	var mu sync.Mutex
	var got []string
	require.NoError(t, bus.Subscribe(shared.EventNotificationCreated, func(e shared.Event) error {
		mu.Lock()
		defer mu.Unlock()
		got = append(got, shared.PayloadString(e, "request_id"))
		return nil
	}))

	push := func(instance string, eventType shared.EventType, id string) {
		data, err := json.Marshal(eventEnvelope{
			InstanceID:  instance,
			EventType:   eventType,
			AggregateID: id,
			OccurredAt:  time.Now(),
			Payload:     map[string]interface{}{"request_id": id},
		})
		require.NoError(t, err)
		client.incoming <- RedisMessage{Channel: DefaultChannelName, Payload: string(data)}
	}

	push("instance-a", shared.EventNotificationCreated, "own")
	push("instance-b", shared.EventSwapRequestAccepted, "not-relayed")
	push("instance-b", shared.EventNotificationCreated, "remote")

	require.Eventually(t, func() bool {
		mu.Lock()
		defer mu.Unlock()
		return len(got) == 1
	}, time.Second, 10*time.Millisecond)

	mu.Lock()
	assert.Equal(t, []string{"remote"}, got)
	mu.Unlock()
}
