package service

import (
	"context"
	"fmt"

	"github.com/skillswap/skillswap-hub/internal/domain/shared"
	"github.com/skillswap/skillswap-hub/internal/domain/swap"
	"github.com/skillswap/skillswap-hub/pkg/logger"

	"github.com/google/uuid"
)

// ConversationService opens one conversation per unordered user pair.
// It implements eventhandler.ConversationService.
type ConversationService struct {
	repo      swap.ConversationRepository
	publisher shared.EventPublisher
	newID     func() string
	log       *logger.Logger
}

// NewConversationService creates the service. publisher may be nil.
func NewConversationService(repo swap.ConversationRepository, publisher shared.EventPublisher, log *logger.Logger) *ConversationService {
	if log == nil {
		log = logger.Default()
	}
	return &ConversationService{
		repo:      repo,
		publisher: publisher,
		newID:     uuid.NewString,
		log:       log.With(logger.Component("conversation_service")),
	}
}

// OpenConversation returns the pair's conversation, creating it on first
// call. Repeated calls, in either user order, return the same ID.
func (s *ConversationService) OpenConversation(ctx context.Context, userA, userB shared.UserID, requestID string) (string, error) {
	conv, err := swap.NewConversation(s.newID(), userA, userB, requestID)
	if err != nil {
		return "", err
	}

	stored, created, err := s.repo.GetOrCreate(ctx, conv)
	if err != nil {
		return "", fmt.Errorf("open conversation: %w", err)
	}
	if !created {
		return stored.ID, nil
	}

	s.log.Info("conversation opened",
		logger.String("conversation_id", stored.ID),
		logger.SwapRequestID(requestID),
	)

	if s.publisher != nil {
		event := swap.NewConversationOpenedEvent(stored.ID, stored.SwapRequestID, stored.Pair, stored.CreatedAt)
		if err := s.publisher.Publish(event); err != nil {
			s.log.Warn("failed to publish conversation_opened", logger.Err(err))
		}
	}
	return stored.ID, nil
}
