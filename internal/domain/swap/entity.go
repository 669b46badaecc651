// Package swap содержит жизненный цикл запроса на обмен навыками.
// Запрос создаётся отправителем, принимается или отклоняется получателем,
// отменяется отправителем или истекает по часам системы.
// Любое конечное состояние неизменно: новый обмен - новый запрос.
package swap

import (
	"fmt"
	"time"

	"github.com/skillswap/skillswap-hub/internal/domain/shared"
)

// ══════════════════════════════════════════════════════════════════════════════
// CONSTANTS
// ══════════════════════════════════════════════════════════════════════════════

const (
	// DefaultRequestTTL - время жизни запроса в статусе pending.
	DefaultRequestTTL = 14 * 24 * time.Hour

	// MaxMessageLength - максимальная длина сопроводительного сообщения.
	MaxMessageLength = 1000
)

// ══════════════════════════════════════════════════════════════════════════════
// STATUS
// ══════════════════════════════════════════════════════════════════════════════

// Status - статус запроса на обмен.
type Status string

const (
	// StatusPending - ожидает ответа получателя.
	StatusPending Status = "pending"

	// StatusAccepted - принят получателем.
	StatusAccepted Status = "accepted"

	// StatusDeclined - отклонён получателем.
	StatusDeclined Status = "declined"

	// StatusCancelled - отменён отправителем.
	StatusCancelled Status = "cancelled"

	// StatusExpired - истёк по времени.
	StatusExpired Status = "expired"
)

// IsValid проверяет корректность статуса.
func (s Status) IsValid() bool {
	switch s {
	case StatusPending, StatusAccepted, StatusDeclined, StatusCancelled, StatusExpired:
		return true
	default:
		return false
	}
}

// IsPending возвращает true для запроса, ожидающего ответа.
func (s Status) IsPending() bool {
	return s == StatusPending
}

// IsTerminal возвращает true для конечных статусов.
func (s Status) IsTerminal() bool {
	return s.IsValid() && s != StatusPending
}

// ParseStatus разбирает статус.
func ParseStatus(s string) (Status, error) {
	st := Status(s)
	if !st.IsValid() {
		return "", shared.NewDomainError("swap", "ParseStatus", shared.ErrInvalidInput, fmt.Sprintf("unknown status %q", s))
	}
	return st, nil
}

// ══════════════════════════════════════════════════════════════════════════════
// SWAP REQUEST
// ══════════════════════════════════════════════════════════════════════════════

// Request - запрос на обмен навыками между двумя пользователями.
type Request struct {
	ID         string
	FromUserID shared.UserID
	ToUserID   shared.UserID

	// OfferedSkillID - навык отправителя, которому он готов научить.
	OfferedSkillID string

	// RequestedSkillID - навык получателя, которому отправитель хочет научиться.
	RequestedSkillID string

	Status  Status
	Message string

	CreatedAt   time.Time
	RespondedAt *time.Time
	UpdatedAt   time.Time

	// Version - номер версии для оптимистичной блокировки.
	Version int
}

// NewRequestParams параметры для создания запроса.
type NewRequestParams struct {
	ID               string
	FromUserID       shared.UserID
	ToUserID         shared.UserID
	OfferedSkillID   string
	RequestedSkillID string
	Message          string
	Now              time.Time
}

// NewRequest создаёт запрос в статусе pending.
func NewRequest(params NewRequestParams) (*Request, error) {
	if params.ID == "" {
		return nil, shared.NewDomainError("swap", "Create", shared.ErrInvalidID, "request id is required")
	}
	if !params.FromUserID.IsValid() || !params.ToUserID.IsValid() {
		return nil, shared.NewDomainError("swap", "Create", shared.ErrInvalidID, "sender and recipient are required")
	}
	if params.FromUserID == params.ToUserID {
		return nil, shared.ErrSelfSwap
	}
	if params.OfferedSkillID == "" || params.RequestedSkillID == "" {
		return nil, shared.NewDomainError("swap", "Create", shared.ErrInvalidInput, "offered and requested skills are required")
	}
	if len([]rune(params.Message)) > MaxMessageLength {
		return nil, shared.NewDomainError("swap", "Create", shared.ErrInvalidInput, "message is too long")
	}

	now := params.Now
	if now.IsZero() {
		now = time.Now()
	}
	now = now.UTC()

	return &Request{
		ID:               params.ID,
		FromUserID:       params.FromUserID,
		ToUserID:         params.ToUserID,
		OfferedSkillID:   params.OfferedSkillID,
		RequestedSkillID: params.RequestedSkillID,
		Status:           StatusPending,
		Message:          params.Message,
		CreatedAt:        now,
		UpdatedAt:        now,
		Version:          1,
	}, nil
}

// ══════════════════════════════════════════════════════════════════════════════
// TRANSITIONS
// ══════════════════════════════════════════════════════════════════════════════

// Accept переводит запрос в accepted. Только получатель.
func (r *Request) Accept(actor shared.UserID, now time.Time) error {
	if actor != r.ToUserID {
		return shared.ErrNotSwapRecipient
	}
	return r.transition(StatusAccepted, now)
}

// Decline переводит запрос в declined. Только получатель.
func (r *Request) Decline(actor shared.UserID, now time.Time) error {
	if actor != r.ToUserID {
		return shared.ErrNotSwapRecipient
	}
	return r.transition(StatusDeclined, now)
}

// Cancel переводит запрос в cancelled. Только отправитель.
func (r *Request) Cancel(actor shared.UserID, now time.Time) error {
	if actor != r.FromUserID {
		return shared.ErrNotSwapSender
	}
	return r.transition(StatusCancelled, now)
}

// Expire переводит просроченный запрос в expired.
// Идемпотентен: для конечного или ещё не просроченного запроса ничего не делает
// и возвращает false.
func (r *Request) Expire(now time.Time, ttl time.Duration) bool {
	if !r.Status.IsPending() || !r.IsOverdue(now, ttl) {
		return false
	}
	_ = r.transition(StatusExpired, now)
	return true
}

// IsOverdue возвращает true, если запрос ожидает строго дольше ttl.
// Ровно в момент CreatedAt+ttl запрос ещё действителен.
func (r *Request) IsOverdue(now time.Time, ttl time.Duration) bool {
	if ttl <= 0 {
		ttl = DefaultRequestTTL
	}
	return now.After(r.CreatedAt.Add(ttl))
}

// ExpiresAt возвращает момент истечения запроса.
func (r *Request) ExpiresAt(ttl time.Duration) time.Time {
	if ttl <= 0 {
		ttl = DefaultRequestTTL
	}
	return r.CreatedAt.Add(ttl)
}

func (r *Request) transition(to Status, now time.Time) error {
	if !r.Status.IsPending() {
		return shared.WrapError("swap", "Transition", shared.ErrInvalidTransition,
			fmt.Sprintf("cannot move from %s to %s", r.Status, to), shared.ErrSwapNotPending)
	}

	if now.IsZero() {
		now = time.Now()
	}
	now = now.UTC()

	r.Status = to
	r.RespondedAt = &now
	r.UpdatedAt = now
	return nil
}

// ══════════════════════════════════════════════════════════════════════════════
// QUERIES
// ══════════════════════════════════════════════════════════════════════════════

// IsParticipant возвращает true для отправителя и получателя.
func (r *Request) IsParticipant(id shared.UserID) bool {
	return id == r.FromUserID || id == r.ToUserID
}

// CanRead проверяет право чтения запроса.
func (r *Request) CanRead(id shared.UserID) error {
	if !r.IsParticipant(id) {
		return shared.ErrNotSwapParticipant
	}
	return nil
}

// Pair возвращает неупорядоченную пару участников.
func (r *Request) Pair() shared.UserPair {
	return shared.NewUserPair(r.FromUserID, r.ToUserID)
}

// Clone создаёт копию запроса.
func (r *Request) Clone() *Request {
	c := *r
	if r.RespondedAt != nil {
		t := *r.RespondedAt
		c.RespondedAt = &t
	}
	return &c
}

// String возвращает краткое описание для логов.
func (r *Request) String() string {
	return fmt.Sprintf("SwapRequest{id=%s, from=%s, to=%s, status=%s, v=%d}",
		r.ID, r.FromUserID, r.ToUserID, r.Status, r.Version)
}
