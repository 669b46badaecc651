// Package command contains write operations (CQRS - Commands).
package command

import (
	"context"
	"time"

	"github.com/google/uuid"
)

// ══════════════════════════════════════════════════════════════════════════════
// PORTS
// Collaborators that commands need but that live in infrastructure.
// ══════════════════════════════════════════════════════════════════════════════

// Locker provides a single-writer lock keyed by resource.
// The Redis implementation lives in persistence/redis.
type Locker interface {
	// Acquire takes the lock or returns shared.ErrLockNotAcquired.
	// The returned release func is safe to call once.
	Acquire(ctx context.Context, key string, ttl time.Duration) (release func(), err error)
}

// NoopLocker never blocks. The optimistic version check in the repository
// is then the only guard.
type NoopLocker struct{}

// Acquire implements Locker.
func (NoopLocker) Acquire(context.Context, string, time.Duration) (func(), error) {
	return func() {}, nil
}

// IDGenerator produces identifiers for new aggregates.
type IDGenerator func() string

// NewUUID is the default IDGenerator.
func NewUUID() string {
	return uuid.NewString()
}

// swapLockKey is the lock key of one swap request.
func swapLockKey(requestID string) string {
	return "swap_request:" + requestID
}
