// Package service holds infrastructure implementations of application ports.
package service

import (
	"context"
	"errors"
	"fmt"

	"github.com/skillswap/skillswap-hub/internal/domain/notification"
	"github.com/skillswap/skillswap-hub/internal/domain/shared"
	"github.com/skillswap/skillswap-hub/pkg/circuitbreaker"
	"github.com/skillswap/skillswap-hub/pkg/logger"
	"github.com/skillswap/skillswap-hub/pkg/retry"

	"github.com/google/uuid"
)

// NotificationServiceOptions configures NotificationService.
// Zero values fall back to production defaults.
type NotificationServiceOptions struct {
	Clock       shared.Clock
	IDGenerator func() string
	Retrier     *retry.Retrier
	Breaker     *circuitbreaker.CircuitBreaker
	Logger      *logger.Logger
}

// NotificationService persists notifications for swap lifecycle events and
// announces each stored one as notification.created for push delivery.
// It implements eventhandler.NotificationSink.
type NotificationService struct {
	repo      notification.Repository
	publisher shared.EventPublisher

	clock   shared.Clock
	newID   func() string
	retrier *retry.Retrier
	breaker *circuitbreaker.CircuitBreaker
	log     *logger.Logger
}

// NewNotificationService creates the service. publisher may be nil, in
// which case notifications are stored but not pushed.
func NewNotificationService(repo notification.Repository, publisher shared.EventPublisher, opts NotificationServiceOptions) *NotificationService {
	if opts.Clock == nil {
		opts.Clock = shared.SystemClock{}
	}
	if opts.IDGenerator == nil {
		opts.IDGenerator = uuid.NewString
	}
	if opts.Logger == nil {
		opts.Logger = logger.Default()
	}
	if opts.Retrier == nil {
		opts.Retrier = retry.StoreRetrier(isTransientStoreError)
	}
	if opts.Breaker == nil {
		log := opts.Logger
		opts.Breaker = circuitbreaker.NotificationStoreBreaker(func(name string, from, to circuitbreaker.State) {
			log.Warn("circuit breaker state changed",
				logger.String("breaker", name),
				logger.String("from", from.String()),
				logger.String("to", to.String()),
			)
		})
	}

	return &NotificationService{
		repo:      repo,
		publisher: publisher,
		clock:     opts.Clock,
		newID:     opts.IDGenerator,
		retrier:   opts.Retrier,
		breaker:   opts.Breaker,
		log:       opts.Logger.With(logger.Component("notification_service")),
	}
}

// Notify implements eventhandler.NotificationSink.
func (s *NotificationService) Notify(ctx context.Context, userID shared.UserID, event shared.Event) error {
	n, err := notification.ComposeFromEvent(s.newID(), userID, event, s.clock.Now())
	if err != nil {
		return fmt.Errorf("compose notification: %w", err)
	}

	err = s.breaker.Execute(ctx, func(ctx context.Context) error {
		return s.retrier.Do(ctx, func(ctx context.Context) error {
			return s.repo.Save(ctx, n)
		})
	})
	if err != nil {
		s.log.Error("failed to store notification",
			logger.UserID(userID.String()),
			logger.SwapRequestID(n.SwapRequestID),
			logger.String("breaker_state", s.breaker.State().String()),
			logger.Err(err),
		)
		return fmt.Errorf("store notification: %w", err)
	}

	s.log.Debug("notification stored",
		logger.NotificationID(n.ID),
		logger.UserID(userID.String()),
		logger.String("type", n.Type.String()),
	)

	if s.publisher == nil {
		return nil
	}
	if err := s.publisher.Publish(notification.NewCreatedEvent(n)); err != nil {
		// The notification is stored; the client sees it on the next poll.
		s.log.Warn("failed to publish notification.created",
			logger.NotificationID(n.ID),
			logger.Err(err),
		)
	}
	return nil
}

// isTransientStoreError retries raw driver errors and retryable domain
// errors. Other domain errors are deterministic.
func isTransientStoreError(err error) bool {
	if shared.IsRetryable(err) {
		return true
	}
	var de *shared.DomainError
	return !errors.As(err, &de)
}
