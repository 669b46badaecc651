package postgres

import (
	"context"
	"fmt"

	"github.com/skillswap/skillswap-hub/internal/domain/shared"
	"github.com/skillswap/skillswap-hub/internal/domain/swap"
)

// ══════════════════════════════════════════════════════════════════════════════
// CONVERSATION REPOSITORY
// ══════════════════════════════════════════════════════════════════════════════

// ConversationRepository implements swap.ConversationRepository for PostgreSQL.
type ConversationRepository struct {
	conn *Connection
}

// NewConversationRepository creates a new ConversationRepository.
func NewConversationRepository(conn *Connection) *ConversationRepository {
	return &ConversationRepository{conn: conn}
}

const conversationColumns = `id, user_low, user_high, swap_request_id, created_at`

// GetOrCreate inserts the conversation unless the pair already has one.
// The unique constraint on (user_low, user_high) settles concurrent calls.
func (r *ConversationRepository) GetOrCreate(ctx context.Context, c *swap.Conversation) (*swap.Conversation, bool, error) {
	insert := `INSERT INTO conversations (` + conversationColumns + `)
		VALUES ($1, $2, $3, $4, $5)
		ON CONFLICT (user_low, user_high) DO NOTHING
		RETURNING ` + conversationColumns

	created, err := scanConversation(r.conn.QueryRow(ctx, insert,
		c.ID,
		string(c.Pair.Low),
		string(c.Pair.High),
		c.SwapRequestID,
		c.CreatedAt,
	))
	if err == nil {
		return created, true, nil
	}
	if !IsNoRows(err) {
		return nil, false, fmt.Errorf("failed to create conversation: %w", err)
	}

	existing, err := r.GetByPair(ctx, c.Pair)
	if err != nil {
		return nil, false, err
	}
	return existing, false, nil
}

// GetByPair returns the pair's conversation or shared.ErrConversationNotFound.
func (r *ConversationRepository) GetByPair(ctx context.Context, pair shared.UserPair) (*swap.Conversation, error) {
	query := `SELECT ` + conversationColumns + ` FROM conversations
		WHERE user_low = $1 AND user_high = $2`

	c, err := scanConversation(r.conn.QueryRow(ctx, query, string(pair.Low), string(pair.High)))
	if err != nil {
		if IsNoRows(err) {
			return nil, shared.ErrConversationNotFound
		}
		return nil, fmt.Errorf("failed to get conversation: %w", err)
	}
	return c, nil
}

// ListByUser returns the user's conversations, newest first.
func (r *ConversationRepository) ListByUser(ctx context.Context, userID shared.UserID) ([]*swap.Conversation, error) {
	query := `SELECT ` + conversationColumns + ` FROM conversations
		WHERE user_low = $1 OR user_high = $1
		ORDER BY created_at DESC, id`

	rows, err := r.conn.Query(ctx, query, string(userID))
	if err != nil {
		return nil, fmt.Errorf("failed to list conversations: %w", err)
	}
	defer rows.Close()

	out := make([]*swap.Conversation, 0)
	for rows.Next() {
		c, err := scanConversation(rows)
		if err != nil {
			return nil, fmt.Errorf("failed to scan conversation: %w", err)
		}
		out = append(out, c)
	}
	return out, rows.Err()
}

func scanConversation(row rowScanner) (*swap.Conversation, error) {
	var (
		c         swap.Conversation
		low, high string
	)
	if err := row.Scan(&c.ID, &low, &high, &c.SwapRequestID, &c.CreatedAt); err != nil {
		return nil, err
	}
	c.Pair = shared.UserPair{Low: shared.UserID(low), High: shared.UserID(high)}
	return &c, nil
}
