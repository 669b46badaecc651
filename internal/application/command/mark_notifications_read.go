package command

import (
	"context"
	"fmt"

	"github.com/skillswap/skillswap-hub/internal/domain/notification"
	"github.com/skillswap/skillswap-hub/internal/domain/shared"
)

// MarkNotificationsReadCommand marks the user's notifications read.
// Empty IDs marks all of them.
type MarkNotificationsReadCommand struct {
	UserID string
	IDs    []string
}

// MarkNotificationsReadResult reports the change and the new badge value.
type MarkNotificationsReadResult struct {
	Updated int
	Unread  int
}

// MarkNotificationsReadHandler handles the MarkNotificationsReadCommand.
type MarkNotificationsReadHandler struct {
	notificationRepo notification.Repository
	clock            shared.Clock
}

// NewMarkNotificationsReadHandler creates a new handler.
func NewMarkNotificationsReadHandler(repo notification.Repository, clock shared.Clock) *MarkNotificationsReadHandler {
	if clock == nil {
		clock = shared.SystemClock{}
	}
	return &MarkNotificationsReadHandler{notificationRepo: repo, clock: clock}
}

// Handle executes the command.
func (h *MarkNotificationsReadHandler) Handle(ctx context.Context, cmd MarkNotificationsReadCommand) (*MarkNotificationsReadResult, error) {
	userID := shared.UserID(cmd.UserID)
	if !userID.IsValid() {
		return nil, shared.NewDomainError("notification", "MarkRead", shared.ErrInvalidID, "user_id is required")
	}

	updated, err := h.notificationRepo.MarkRead(ctx, userID, cmd.IDs, h.clock.Now())
	if err != nil {
		return nil, fmt.Errorf("mark_notifications_read: %w", err)
	}

	unread, err := h.notificationRepo.CountUnread(ctx, userID)
	if err != nil {
		return nil, fmt.Errorf("mark_notifications_read: count unread: %w", err)
	}

	return &MarkNotificationsReadResult{Updated: updated, Unread: unread}, nil
}
