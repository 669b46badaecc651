package redis

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"github.com/google/uuid"
	"github.com/redis/go-redis/v9"

	"github.com/skillswap/skillswap-hub/internal/domain/shared"
)

// releaseScript deletes the key only while it still holds our token, so an
// expired lock taken over by another writer is never released by us.
var releaseScript = redis.NewScript(`
if redis.call("GET", KEYS[1]) == ARGV[1] then
	return redis.call("DEL", KEYS[1])
end
return 0
`)

// Locker is a single-writer lock built on SET NX PX.
// It implements command.Locker.
type Locker struct {
	client redis.UniversalClient
	logger *slog.Logger
}

// NewLocker creates a Locker.
func NewLocker(client redis.UniversalClient, logger *slog.Logger) *Locker {
	if logger == nil {
		logger = slog.Default()
	}
	return &Locker{
		client: client,
		logger: logger.With("component", "redis_locker"),
	}
}

// Acquire takes the lock for key or returns shared.ErrLockNotAcquired when
// another writer holds it.
func (l *Locker) Acquire(ctx context.Context, key string, ttl time.Duration) (func(), error) {
	if key == "" {
		return nil, ErrCacheKeyEmpty
	}
	if ttl <= 0 {
		ttl = TTLDistributedLock
	}

	token := uuid.NewString()
	lockKey := LockKey(key)

	ok, err := l.client.SetNX(ctx, lockKey, token, ttl).Result()
	if err != nil {
		return nil, fmt.Errorf("acquire lock %s: %w", key, err)
	}
	if !ok {
		return nil, shared.NewDomainError("lock", "Acquire", shared.ErrLockNotAcquired, "lock held: "+key)
	}

	released := false
	return func() {
		if released {
			return
		}
		released = true

		// The caller's context may already be cancelled.
		rctx, cancel := context.WithTimeout(context.Background(), 2*time.Second)
		defer cancel()

		if err := releaseScript.Run(rctx, l.client, []string{lockKey}, token).Err(); err != nil {
			l.logger.Warn("failed to release lock", "key", lockKey, "error", err)
		}
	}, nil
}
