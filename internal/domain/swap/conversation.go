package swap

import (
	"time"

	"github.com/skillswap/skillswap-hub/internal/domain/shared"
)

// Conversation - диалог двух пользователей, открываемый при первом
// принятом запросе. Один диалог на неупорядоченную пару.
type Conversation struct {
	ID   string
	Pair shared.UserPair

	// SwapRequestID - запрос, принятие которого открыло диалог.
	SwapRequestID string

	CreatedAt time.Time
}

// NewConversation создаёт диалог для пары пользователей.
func NewConversation(id string, a, b shared.UserID, swapRequestID string) (*Conversation, error) {
	if id == "" {
		return nil, shared.NewDomainError("swap", "OpenConversation", shared.ErrInvalidID, "conversation id is required")
	}
	if !a.IsValid() || !b.IsValid() || a == b {
		return nil, shared.NewDomainError("swap", "OpenConversation", shared.ErrInvalidInput, "conversation needs two distinct users")
	}
	return &Conversation{
		ID:            id,
		Pair:          shared.NewUserPair(a, b),
		SwapRequestID: swapRequestID,
		CreatedAt:     time.Now().UTC(),
	}, nil
}
