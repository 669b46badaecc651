// Package query contains read operations (CQRS - Queries).
package query

import (
	"time"

	"github.com/skillswap/skillswap-hub/internal/domain/matching"
	"github.com/skillswap/skillswap-hub/internal/domain/notification"
	"github.com/skillswap/skillswap-hub/internal/domain/skill"
	"github.com/skillswap/skillswap-hub/internal/domain/swap"
)

// ══════════════════════════════════════════════════════════════════════════════
// DTO
// Плоские структуры ответа. Доменные сущности наружу не отдаются.
// ══════════════════════════════════════════════════════════════════════════════

// SkillDTO - навык в ответе API.
type SkillDTO struct {
	ID          string            `json:"id"`
	OwnerID     string            `json:"owner_id"`
	Title       string            `json:"title"`
	Category    string            `json:"category"`
	Level       string            `json:"level"`
	Description string            `json:"description,omitempty"`
	Direction   string            `json:"direction"`
	Assessment  *skill.Assessment `json:"assessment,omitempty"`
}

// NewSkillDTO строит DTO навыка.
func NewSkillDTO(l *skill.Listing) *SkillDTO {
	if l == nil {
		return nil
	}
	dto := &SkillDTO{
		ID:          l.ID,
		OwnerID:     l.OwnerID.String(),
		Title:       l.Title,
		Category:    string(l.Category),
		Level:       string(l.Level),
		Description: l.Description,
		Direction:   string(l.Direction),
	}
	if l.Assessment != nil {
		a := l.Assessment.Clone()
		dto.Assessment = &a
	}
	return dto
}

// MatchCandidateDTO - кандидат ранжирования.
type MatchCandidateDTO struct {
	CandidateUserID        string    `json:"candidate_user_id"`
	OfferedSkill           *SkillDTO `json:"offered_skill"`
	WantedSkillOfRequester *SkillDTO `json:"wanted_skill_of_requester"`
	ReciprocalSkill        *SkillDTO `json:"reciprocal_skill,omitempty"`
	MatchScore             float64   `json:"match_score"`
	FairnessScore          float64   `json:"fairness_score"`
	IsFairMatch            bool      `json:"is_fair_match"`
	MatchLogic             string    `json:"match_logic"`
	Label                  string    `json:"label"`
	TimeCommitmentHours    float64   `json:"time_commitment_hours"`
	MarketDemand           string    `json:"market_demand"`
}

// NewMatchCandidateDTO строит DTO кандидата.
func NewMatchCandidateDTO(c matching.Candidate) MatchCandidateDTO {
	return MatchCandidateDTO{
		CandidateUserID:        c.CandidateUserID.String(),
		OfferedSkill:           NewSkillDTO(c.OfferedSkill),
		WantedSkillOfRequester: NewSkillDTO(c.WantedSkillOfRequester),
		ReciprocalSkill:        NewSkillDTO(c.ReciprocalSkill),
		MatchScore:             c.MatchScore,
		FairnessScore:          c.FairnessScore,
		IsFairMatch:            c.IsFairMatch,
		MatchLogic:             c.MatchLogic,
		Label:                  string(c.Label),
		TimeCommitmentHours:    c.TimeCommitmentHours,
		MarketDemand:           string(c.MarketDemand),
	}
}

// SwapRequestDTO - запрос на обмен в ответе API.
type SwapRequestDTO struct {
	ID               string     `json:"id"`
	FromUserID       string     `json:"from_user_id"`
	ToUserID         string     `json:"to_user_id"`
	OfferedSkillID   string     `json:"offered_skill_id"`
	RequestedSkillID string     `json:"requested_skill_id"`
	Status           string     `json:"status"`
	Message          string     `json:"message,omitempty"`
	CreatedAt        time.Time  `json:"created_at"`
	RespondedAt      *time.Time `json:"responded_at,omitempty"`
	ExpiresAt        *time.Time `json:"expires_at,omitempty"`
}

// NewSwapRequestDTO строит DTO запроса. ttl используется для срока
// истечения ожидающего запроса.
func NewSwapRequestDTO(r *swap.Request, ttl time.Duration) SwapRequestDTO {
	dto := SwapRequestDTO{
		ID:               r.ID,
		FromUserID:       r.FromUserID.String(),
		ToUserID:         r.ToUserID.String(),
		OfferedSkillID:   r.OfferedSkillID,
		RequestedSkillID: r.RequestedSkillID,
		Status:           string(r.Status),
		Message:          r.Message,
		CreatedAt:        r.CreatedAt,
		RespondedAt:      r.RespondedAt,
	}
	if r.Status.IsPending() {
		exp := r.ExpiresAt(ttl)
		dto.ExpiresAt = &exp
	}
	return dto
}

// NotificationDTO - уведомление в ответе API.
type NotificationDTO struct {
	ID            string            `json:"id"`
	Type          string            `json:"type"`
	SwapRequestID string            `json:"swap_request_id,omitempty"`
	Title         string            `json:"title"`
	Body          string            `json:"body"`
	Data          map[string]string `json:"data,omitempty"`
	Read          bool              `json:"read"`
	ReadAt        *time.Time        `json:"read_at,omitempty"`
	CreatedAt     time.Time         `json:"created_at"`
}

// NewNotificationDTO строит DTO уведомления.
func NewNotificationDTO(n *notification.Notification) NotificationDTO {
	return NotificationDTO{
		ID:            n.ID,
		Type:          n.Type.String(),
		SwapRequestID: n.SwapRequestID,
		Title:         n.Title,
		Body:          n.Body,
		Data:          n.Data,
		Read:          n.IsRead(),
		ReadAt:        n.ReadAt,
		CreatedAt:     n.CreatedAt,
	}
}
