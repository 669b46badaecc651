package swap

import (
	"context"
	"time"

	"github.com/skillswap/skillswap-hub/internal/domain/shared"
)

// ══════════════════════════════════════════════════════════════════════════════
// LIST OPTIONS
// ══════════════════════════════════════════════════════════════════════════════

// Box - сторона запроса относительно пользователя.
type Box string

const (
	// BoxIncoming - запросы, где пользователь получатель.
	BoxIncoming Box = "incoming"

	// BoxOutgoing - запросы, где пользователь отправитель.
	BoxOutgoing Box = "outgoing"

	// BoxAll - обе стороны.
	BoxAll Box = "all"
)

// ListOptions - параметры выборки запросов пользователя.
type ListOptions struct {
	UserID     shared.UserID
	Box        Box
	Status     Status // пусто - любой статус
	Pagination shared.Pagination
}

// DefaultListOptions возвращает параметры по умолчанию.
func DefaultListOptions(userID shared.UserID) ListOptions {
	return ListOptions{
		UserID:     userID,
		Box:        BoxAll,
		Pagination: shared.DefaultPagination(),
	}
}

// ══════════════════════════════════════════════════════════════════════════════
// REPOSITORIES
// ══════════════════════════════════════════════════════════════════════════════

// RequestRepository - хранилище запросов на обмен.
type RequestRepository interface {
	// ─────────────────────────────────────────────────────────────────────────
	// CRUD Operations
	// ─────────────────────────────────────────────────────────────────────────

	// Create сохраняет новый запрос.
	// Возвращает shared.ErrSwapRequestExists, если между теми же пользователями
	// уже есть ожидающий запрос на те же навыки.
	Create(ctx context.Context, r *Request) error

	// GetByID возвращает запрос по ID.
	// Возвращает shared.ErrSwapRequestNotFound, если запрос не найден.
	GetByID(ctx context.Context, id string) (*Request, error)

	// Update сохраняет переход, если версия в хранилище равна expectedVersion.
	// При успехе r.Version увеличивается. При конфликте версий возвращает
	// shared.ErrConcurrentModification и ничего не меняет.
	Update(ctx context.Context, r *Request, expectedVersion int) error

	// ─────────────────────────────────────────────────────────────────────────
	// Query Operations
	// ─────────────────────────────────────────────────────────────────────────

	// List возвращает запросы пользователя, новые первыми.
	List(ctx context.Context, opts ListOptions) ([]*Request, error)

	// ListOverdue возвращает ожидающие запросы, созданные раньше cutoff.
	ListOverdue(ctx context.Context, cutoff time.Time, limit int) ([]*Request, error)

	// ─────────────────────────────────────────────────────────────────────────
	// Aggregations
	// ─────────────────────────────────────────────────────────────────────────

	// CountPendingIncoming - число ожидающих запросов, где пользователь получатель.
	CountPendingIncoming(ctx context.Context, userID shared.UserID) (int, error)
}

// ConversationRepository - хранилище диалогов.
type ConversationRepository interface {
	// GetOrCreate возвращает существующий диалог пары или сохраняет новый.
	// created = true, если диалог был создан этим вызовом.
	GetOrCreate(ctx context.Context, c *Conversation) (result *Conversation, created bool, err error)

	// GetByPair возвращает диалог пары.
	// Возвращает shared.ErrConversationNotFound, если диалога нет.
	GetByPair(ctx context.Context, pair shared.UserPair) (*Conversation, error)

	// ListByUser возвращает диалоги пользователя.
	ListByUser(ctx context.Context, userID shared.UserID) ([]*Conversation, error)
}
