package circuitbreaker

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

var errDown = errors.New("down")

type fakeClock struct{ t time.Time }

func (c *fakeClock) now() time.Time { return c.t }

func fail(context.Context) error { return errDown }
func ok(context.Context) error   { return nil }

func TestBreaker_OpensAfterThreshold(t *testing.T) {
	clock := &fakeClock{t: time.Unix(0, 0)}
	cb := New("store", WithFailureThreshold(2), WithTimeout(time.Second), WithClock(clock.now))
	ctx := context.Background()

	assert.ErrorIs(t, cb.Execute(ctx, fail), errDown)
	assert.Equal(t, StateClosed, cb.State())
	assert.ErrorIs(t, cb.Execute(ctx, fail), errDown)
	assert.Equal(t, StateOpen, cb.State())

	called := false
	err := cb.Execute(ctx, func(context.Context) error { called = true; return nil })
	assert.ErrorIs(t, err, ErrCircuitOpen)
	assert.False(t, called)
	assert.Equal(t, 1, cb.Counts().Rejected)
}

func TestBreaker_HalfOpenRecovery(t *testing.T) {
	clock := &fakeClock{t: time.Unix(0, 0)}
	cb := New("store",
		WithFailureThreshold(1),
		WithSuccessThreshold(1),
		WithTimeout(time.Second),
		WithClock(clock.now),
	)
	ctx := context.Background()

	require.ErrorIs(t, cb.Execute(ctx, fail), errDown)
	require.True(t, cb.IsOpen())

	clock.t = clock.t.Add(2 * time.Second)
	require.NoError(t, cb.Execute(ctx, ok))
	assert.Equal(t, StateClosed, cb.State())
}

func TestBreaker_HalfOpenFailureReopens(t *testing.T) {
	clock := &fakeClock{t: time.Unix(0, 0)}
	cb := New("store", WithFailureThreshold(1), WithTimeout(time.Second), WithClock(clock.now))
	ctx := context.Background()

	_ = cb.Execute(ctx, fail)
	clock.t = clock.t.Add(2 * time.Second)
	_ = cb.Execute(ctx, fail)

	assert.Equal(t, StateOpen, cb.State())
	assert.ErrorIs(t, cb.Execute(ctx, ok), ErrCircuitOpen)
}

func TestBreaker_IsFailureClassifier(t *testing.T) {
	notCounted := errors.New("not found")
	cb := New("store", WithFailureThreshold(1), WithIsFailure(func(err error) bool {
		return !errors.Is(err, notCounted)
	}))

	_ = cb.Execute(context.Background(), func(context.Context) error { return notCounted })
	assert.Equal(t, StateClosed, cb.State())
}

func TestBreaker_Fallback(t *testing.T) {
	cb := New("relay", WithFailureThreshold(1))
	ctx := context.Background()
	_ = cb.Execute(ctx, fail)

	err := cb.ExecuteWithFallback(ctx, ok, func(err error) error {
		assert.ErrorIs(t, err, ErrCircuitOpen)
		return nil
	})
	assert.NoError(t, err)

	cb.Reset()
	assert.Equal(t, StateClosed, cb.State())
	assert.Zero(t, cb.Counts().Requests)
}
