package command

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/skillswap/skillswap-hub/internal/domain/shared"
	"github.com/skillswap/skillswap-hub/internal/domain/swap"
)

// ══════════════════════════════════════════════════════════════════════════════
// EXPIRE SWAP REQUESTS COMMAND
// System-clock driver of the pending -> expired transition. Re-running it is
// harmless: terminal and not-yet-due requests are left untouched.
// ══════════════════════════════════════════════════════════════════════════════

// ExpireSwapRequestsCommand contains sweep parameters.
type ExpireSwapRequestsCommand struct {
	// TTL is how long a request may stay pending. Zero means swap.DefaultRequestTTL.
	TTL time.Duration

	// BatchSize is how many overdue requests are loaded per round.
	BatchSize int

	// MaxRounds bounds the sweep so one run cannot spin forever.
	MaxRounds int
}

// ExpireSwapRequestsResult summarizes a sweep.
type ExpireSwapRequestsResult struct {
	Scanned  int
	Expired  int
	Skipped  int
	Failed   int
	Duration time.Duration

	// ExpiredIDs lists the requests moved to expired.
	ExpiredIDs []string
}

// ExpireSwapRequestsHandler handles the ExpireSwapRequestsCommand.
type ExpireSwapRequestsHandler struct {
	requestRepo    swap.RequestRepository
	eventPublisher shared.EventPublisher
	locker         Locker
	clock          shared.Clock
	lockTTL        time.Duration
}

// NewExpireSwapRequestsHandler creates a new ExpireSwapRequestsHandler.
func NewExpireSwapRequestsHandler(
	requestRepo swap.RequestRepository,
	eventPublisher shared.EventPublisher,
	locker Locker,
	clock shared.Clock,
) *ExpireSwapRequestsHandler {
	if locker == nil {
		locker = NoopLocker{}
	}
	if clock == nil {
		clock = shared.SystemClock{}
	}
	return &ExpireSwapRequestsHandler{
		requestRepo:    requestRepo,
		eventPublisher: eventPublisher,
		locker:         locker,
		clock:          clock,
		lockTTL:        DefaultRespondConfig().LockTTL,
	}
}

// Handle executes the sweep.
func (h *ExpireSwapRequestsHandler) Handle(ctx context.Context, cmd ExpireSwapRequestsCommand) (*ExpireSwapRequestsResult, error) {
	ttl := cmd.TTL
	if ttl <= 0 {
		ttl = swap.DefaultRequestTTL
	}
	batch := cmd.BatchSize
	if batch <= 0 {
		batch = 100
	}
	rounds := cmd.MaxRounds
	if rounds <= 0 {
		rounds = 50
	}

	start := time.Now()
	now := h.clock.Now()
	cutoff := now.Add(-ttl)
	result := &ExpireSwapRequestsResult{ExpiredIDs: make([]string, 0)}

	for round := 0; round < rounds; round++ {
		if err := ctx.Err(); err != nil {
			return result, fmt.Errorf("expire_swap_requests: %w", err)
		}

		overdue, err := h.requestRepo.ListOverdue(ctx, cutoff, batch)
		if err != nil {
			return result, fmt.Errorf("expire_swap_requests: list overdue: %w", err)
		}
		result.Scanned += len(overdue)

		progressed := 0
		for _, req := range overdue {
			switch err := h.expireOne(ctx, req, now, ttl); {
			case err == nil:
				result.Expired++
				result.ExpiredIDs = append(result.ExpiredIDs, req.ID)
				progressed++
			case errors.Is(err, errNothingToExpire),
				errors.Is(err, shared.ErrConcurrentModification),
				errors.Is(err, shared.ErrLockNotAcquired):
				result.Skipped++
			default:
				result.Failed++
			}
		}

		// A short page or a round without progress means the backlog is drained
		// or only blocked requests remain.
		if len(overdue) < batch || progressed == 0 {
			break
		}
	}

	result.Duration = time.Since(start)
	_ = h.eventPublisher.Publish(swap.NewExpirySweepCompletedEvent(result.Scanned, result.Expired, result.Skipped))

	return result, nil
}

var errNothingToExpire = errors.New("request is not due")

func (h *ExpireSwapRequestsHandler) expireOne(ctx context.Context, req *swap.Request, now time.Time, ttl time.Duration) error {
	release, err := h.locker.Acquire(ctx, swapLockKey(req.ID), h.lockTTL)
	if err != nil {
		return err
	}
	defer release()

	expected := req.Version
	if !req.Expire(now, ttl) {
		return errNothingToExpire
	}
	if err := h.requestRepo.Update(ctx, req, expected); err != nil {
		return err
	}

	_ = h.eventPublisher.Publish(swap.NewRequestEvent(shared.EventSwapRequestExpired, req, ""))
	return nil
}
