package skill

import (
	"context"

	"github.com/skillswap/skillswap-hub/internal/domain/shared"
)

// Repository - хранилище навыков пользователей.
type Repository interface {
	// ─────────────────────────────────────────────────────────────────────────
	// CRUD Operations
	// ─────────────────────────────────────────────────────────────────────────

	// Save сохраняет навык (создаёт или обновляет целиком, включая проверку).
	Save(ctx context.Context, listing *Listing) error

	// GetByID возвращает навык по ID.
	// Возвращает shared.ErrSkillNotFound, если навык не найден.
	GetByID(ctx context.Context, id string) (*Listing, error)

	// Delete удаляет навык.
	Delete(ctx context.Context, id string) error

	// ─────────────────────────────────────────────────────────────────────────
	// Query Operations
	// ─────────────────────────────────────────────────────────────────────────

	// ListByOwner возвращает навыки пользователя, упорядоченные по дате создания.
	ListByOwner(ctx context.Context, ownerID shared.UserID) ([]*Listing, error)
}
