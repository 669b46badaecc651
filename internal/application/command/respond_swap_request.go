package command

import (
	"context"
	"errors"
	"fmt"
	"math"
	"time"

	"github.com/skillswap/skillswap-hub/internal/domain/shared"
	"github.com/skillswap/skillswap-hub/internal/domain/swap"
	"github.com/skillswap/skillswap-hub/pkg/retry"
)

// ══════════════════════════════════════════════════════════════════════════════
// RESPOND SWAP REQUEST COMMAND
// Accept and decline by the recipient, cancel by the sender.
// Exactly one concurrent transition of a request commits. A contender waits
// for the per-request lock, then reloads and sees a terminal request; the
// version check covers writers that bypass the lock.
// ══════════════════════════════════════════════════════════════════════════════

// Action is a participant-driven transition.
type Action string

const (
	ActionAccept  Action = "accept"
	ActionDecline Action = "decline"
	ActionCancel  Action = "cancel"
)

// IsValid checks the action.
func (a Action) IsValid() bool {
	return a == ActionAccept || a == ActionDecline || a == ActionCancel
}

// RespondSwapRequestCommand contains the data to transition a request.
type RespondSwapRequestCommand struct {
	RequestID string

	// ActorID is the authenticated user performing the action.
	ActorID string

	Action Action

	// CorrelationID for tracing.
	CorrelationID string
}

// Validate validates the command.
func (c RespondSwapRequestCommand) Validate() error {
	if c.RequestID == "" {
		return shared.NewDomainError("swap", "Respond", shared.ErrInvalidID, "request_id is required")
	}
	if c.ActorID == "" {
		return shared.NewDomainError("swap", "Respond", shared.ErrInvalidID, "actor_id is required")
	}
	if !c.Action.IsValid() {
		return shared.NewDomainError("swap", "Respond", shared.ErrInvalidInput, fmt.Sprintf("unknown action %q", c.Action))
	}
	return nil
}

// RespondSwapRequestResult contains the transitioned request.
type RespondSwapRequestResult struct {
	Request *swap.Request

	// Attempts is how many load-apply-save rounds were needed.
	Attempts int

	Events []shared.Event
}

// RespondConfig contains handler settings.
type RespondConfig struct {
	// LockTTL bounds how long the per-request lock is held.
	LockTTL time.Duration

	// LockWait bounds how long a contender waits for a held lock.
	// Zero means LockTTL.
	LockWait time.Duration

	// MaxAttempts bounds reloads after a version conflict.
	MaxAttempts int
}

// DefaultRespondConfig returns the default settings.
func DefaultRespondConfig() RespondConfig {
	return RespondConfig{
		LockTTL:     5 * time.Second,
		MaxAttempts: 3,
	}
}

// ══════════════════════════════════════════════════════════════════════════════
// HANDLER
// ══════════════════════════════════════════════════════════════════════════════

// RespondSwapRequestHandler handles the RespondSwapRequestCommand.
type RespondSwapRequestHandler struct {
	requestRepo    swap.RequestRepository
	eventPublisher shared.EventPublisher
	locker         Locker
	lockRetrier    *retry.Retrier
	clock          shared.Clock
	config         RespondConfig
}

// NewRespondSwapRequestHandler creates a new RespondSwapRequestHandler.
// A nil locker falls back to NoopLocker.
func NewRespondSwapRequestHandler(
	requestRepo swap.RequestRepository,
	eventPublisher shared.EventPublisher,
	locker Locker,
	clock shared.Clock,
	config RespondConfig,
) *RespondSwapRequestHandler {
	if locker == nil {
		locker = NoopLocker{}
	}
	if clock == nil {
		clock = shared.SystemClock{}
	}
	if config.MaxAttempts <= 0 {
		config.MaxAttempts = DefaultRespondConfig().MaxAttempts
	}
	if config.LockTTL <= 0 {
		config.LockTTL = DefaultRespondConfig().LockTTL
	}
	if config.LockWait <= 0 {
		config.LockWait = config.LockTTL
	}
	return &RespondSwapRequestHandler{
		requestRepo:    requestRepo,
		eventPublisher: eventPublisher,
		locker:         locker,
		lockRetrier:    lockRetrier(),
		clock:          clock,
		config:         config,
	}
}

// Handle executes the respond command.
func (h *RespondSwapRequestHandler) Handle(ctx context.Context, cmd RespondSwapRequestCommand) (*RespondSwapRequestResult, error) {
	if err := cmd.Validate(); err != nil {
		return nil, fmt.Errorf("respond_swap_request: validation failed: %w", err)
	}

	actor := shared.UserID(cmd.ActorID)

	release, err := h.acquire(ctx, cmd.RequestID)
	if err != nil {
		if errors.Is(err, shared.ErrLockNotAcquired) {
			if stateErr := h.checkSettled(ctx, cmd, actor); stateErr != nil {
				return nil, fmt.Errorf("respond_swap_request: %s: %w", cmd.Action, stateErr)
			}
		}
		return nil, fmt.Errorf("respond_swap_request: %w", err)
	}
	defer release()

	for attempt := 1; attempt <= h.config.MaxAttempts; attempt++ {
		req, err := h.requestRepo.GetByID(ctx, cmd.RequestID)
		if err != nil {
			return nil, fmt.Errorf("respond_swap_request: load request: %w", err)
		}

		expected := req.Version
		if err := apply(req, cmd.Action, actor, h.clock.Now()); err != nil {
			return nil, fmt.Errorf("respond_swap_request: %s: %w", cmd.Action, err)
		}

		err = h.requestRepo.Update(ctx, req, expected)
		if errors.Is(err, shared.ErrConcurrentModification) {
			// Another writer committed first. Reload and re-check the state.
			continue
		}
		if err != nil {
			return nil, fmt.Errorf("respond_swap_request: failed to save request: %w", err)
		}

		event := swap.NewRequestEvent(swap.EventTypeForStatus(req.Status), req, actor)
		if cmd.CorrelationID != "" {
			event.BaseEvent = event.BaseEvent.WithCorrelationID(cmd.CorrelationID)
		}
		_ = h.eventPublisher.Publish(event)

		return &RespondSwapRequestResult{
			Request:  req,
			Attempts: attempt,
			Events:   []shared.Event{event},
		}, nil
	}

	return nil, fmt.Errorf("respond_swap_request: %w", shared.ErrConcurrentModification)
}

// acquire waits up to LockWait for the per-request lock.
func (h *RespondSwapRequestHandler) acquire(ctx context.Context, requestID string) (func(), error) {
	waitCtx, cancel := context.WithTimeout(ctx, h.config.LockWait)
	defer cancel()

	var release func()
	err := h.lockRetrier.Do(waitCtx, func(ctx context.Context) error {
		r, err := h.locker.Acquire(ctx, swapLockKey(requestID), h.config.LockTTL)
		if err != nil {
			return err
		}
		release = r
		return nil
	})
	if err != nil {
		return nil, err
	}
	return release, nil
}

// checkSettled reports the transition error a stuck lock holder left behind.
// It returns nil while the request is still pending.
func (h *RespondSwapRequestHandler) checkSettled(ctx context.Context, cmd RespondSwapRequestCommand, actor shared.UserID) error {
	req, err := h.requestRepo.GetByID(ctx, cmd.RequestID)
	if err != nil || req.Status.IsPending() {
		return nil
	}
	return apply(req, cmd.Action, actor, h.clock.Now())
}

// lockRetrier polls a held lock until the caller's wait deadline.
func lockRetrier() *retry.Retrier {
	return retry.New(
		retry.WithMaxAttempts(math.MaxInt32),
		retry.WithInitialDelay(5*time.Millisecond),
		retry.WithMaxDelay(100*time.Millisecond),
		retry.WithMultiplier(1.5),
		retry.WithJitter(0.2),
		retry.WithRetryIf(func(err error) bool { return errors.Is(err, shared.ErrLockNotAcquired) }),
	)
}

func apply(req *swap.Request, action Action, actor shared.UserID, now time.Time) error {
	switch action {
	case ActionAccept:
		return req.Accept(actor, now)
	case ActionDecline:
		return req.Decline(actor, now)
	case ActionCancel:
		return req.Cancel(actor, now)
	default:
		return shared.NewDomainError("swap", "Respond", shared.ErrInvalidInput, "unknown action")
	}
}
