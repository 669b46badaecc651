// Package eventhandler содержит обработчики доменных событий.
// Обработчики реагируют на переходы запросов на обмен и запускают
// побочные эффекты: уведомления участникам и открытие диалога.
// Переход к этому моменту уже сохранён, поэтому ошибка побочного
// эффекта не откатывает его.
package eventhandler

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"github.com/skillswap/skillswap-hub/internal/domain/shared"
)

// ═══════════════════════════════════════════════════════════════════════════
// PORTS
// ═══════════════════════════════════════════════════════════════════════════

// NotificationSink доставляет уведомление пользователю о событии запроса.
type NotificationSink interface {
	Notify(ctx context.Context, userID shared.UserID, event shared.Event) error
}

// ConversationService открывает диалог пары пользователей.
// Идемпотентен по неупорядоченной паре: повторный вызов возвращает тот же ID.
type ConversationService interface {
	OpenConversation(ctx context.Context, userA, userB shared.UserID, requestID string) (string, error)
}

// ═══════════════════════════════════════════════════════════════════════════
// ON SWAP REQUEST EVENT HANDLER
// Кого уведомлять о переходе:
//   created   -> получателя
//   accepted  -> открыть диалог, затем отправителя
//   declined  -> отправителя
//   cancelled -> получателя
//   expired   -> обоих
// ═══════════════════════════════════════════════════════════════════════════

// OnSwapRequestEventHandler обрабатывает события жизненного цикла запроса.
type OnSwapRequestEventHandler struct {
	sink          NotificationSink
	conversations ConversationService

	logger *slog.Logger

	// timeout ограничивает обработку одного события.
	timeout time.Duration
}

// NewOnSwapRequestEventHandler создаёт обработчик.
func NewOnSwapRequestEventHandler(
	sink NotificationSink,
	conversations ConversationService,
	logger *slog.Logger,
) *OnSwapRequestEventHandler {
	if logger == nil {
		logger = slog.Default()
	}
	return &OnSwapRequestEventHandler{
		sink:          sink,
		conversations: conversations,
		logger:        logger.With("handler", "on_swap_request_event"),
		timeout:       10 * time.Second,
	}
}

// Subscribe регистрирует обработчик на все события жизненного цикла.
func (h *OnSwapRequestEventHandler) Subscribe(bus shared.EventSubscriber) error {
	for _, t := range shared.SwapLifecycleEvents {
		if err := bus.Subscribe(t, h.Handle); err != nil {
			return fmt.Errorf("subscribe %s: %w", t, err)
		}
	}
	return nil
}

// Handle обрабатывает событие.
// Реализует сигнатуру shared.EventHandler.
func (h *OnSwapRequestEventHandler) Handle(event shared.Event) error {
	ctx, cancel := context.WithTimeout(context.Background(), h.timeout)
	defer cancel()
	return h.HandleContext(ctx, event)
}

// HandleContext обрабатывает событие в переданном контексте.
// Поля читаются из Payload: событие могло прийти из другого процесса.
func (h *OnSwapRequestEventHandler) HandleContext(ctx context.Context, event shared.Event) error {
	requestID := shared.PayloadString(event, "request_id")
	from := shared.UserID(shared.PayloadString(event, "from_user_id"))
	to := shared.UserID(shared.PayloadString(event, "to_user_id"))

	if requestID == "" || !from.IsValid() || !to.IsValid() {
		h.logger.Warn("swap event without participants",
			"event_type", event.EventType(),
			"aggregate_id", event.AggregateID(),
		)
		return nil
	}

	h.logger.Debug("processing swap event",
		"event_type", event.EventType(),
		"request_id", requestID,
	)

	var recipients []shared.UserID

	switch event.EventType() {
	case shared.EventSwapRequestCreated:
		recipients = []shared.UserID{to}

	case shared.EventSwapRequestAccepted:
		// Диалог открывается до уведомления: уведомление ссылается на него.
		if h.conversations != nil {
			convID, err := h.conversations.OpenConversation(ctx, from, to, requestID)
			if err != nil {
				h.logger.Error("failed to open conversation",
					"request_id", requestID,
					"error", err,
				)
			} else {
				h.logger.Info("conversation ready",
					"request_id", requestID,
					"conversation_id", convID,
				)
			}
		}
		recipients = []shared.UserID{from}

	case shared.EventSwapRequestDeclined:
		recipients = []shared.UserID{from}

	case shared.EventSwapRequestCancelled:
		recipients = []shared.UserID{to}

	case shared.EventSwapRequestExpired:
		recipients = []shared.UserID{from, to}

	default:
		return nil
	}

	var errs []error
	for _, userID := range recipients {
		if err := h.sink.Notify(ctx, userID, event); err != nil {
			h.logger.Error("failed to notify",
				"request_id", requestID,
				"user_id", userID,
				"error", err,
			)
			errs = append(errs, fmt.Errorf("notify %s: %w", userID, err))
		}
	}

	return errors.Join(errs...)
}
