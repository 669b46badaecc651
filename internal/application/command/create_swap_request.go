package command

import (
	"context"
	"errors"
	"fmt"

	"github.com/skillswap/skillswap-hub/internal/domain/shared"
	"github.com/skillswap/skillswap-hub/internal/domain/skill"
	"github.com/skillswap/skillswap-hub/internal/domain/swap"
)

// ══════════════════════════════════════════════════════════════════════════════
// CREATE SWAP REQUEST COMMAND
// Sends a proposal to teach one of the sender's skills in exchange for one
// of the recipient's skills. The request starts pending.
// ══════════════════════════════════════════════════════════════════════════════

// CreateSwapRequestCommand contains the data to create a swap request.
type CreateSwapRequestCommand struct {
	// FromUserID is the authenticated sender.
	FromUserID string

	// ToUserID is the recipient. When empty it is taken from the owner of
	// the requested skill.
	ToUserID string

	// OfferedSkillID is the sender's Offered listing.
	OfferedSkillID string

	// RequestedSkillID is the recipient's Offered listing.
	RequestedSkillID string

	// Message is an optional note to the recipient.
	Message string

	// CorrelationID for tracing.
	CorrelationID string
}

// Validate validates the command.
func (c CreateSwapRequestCommand) Validate() error {
	if c.FromUserID == "" {
		return shared.NewDomainError("swap", "Create", shared.ErrInvalidID, "from_user_id is required")
	}
	if c.OfferedSkillID == "" {
		return shared.NewDomainError("swap", "Create", shared.ErrInvalidInput, "offered_skill_id is required")
	}
	if c.RequestedSkillID == "" {
		return shared.NewDomainError("swap", "Create", shared.ErrInvalidInput, "requested_skill_id is required")
	}
	if c.ToUserID != "" && c.FromUserID == c.ToUserID {
		return shared.ErrSelfSwap
	}
	return nil
}

// CreateSwapRequestResult contains the created request.
type CreateSwapRequestResult struct {
	Request *swap.Request

	// Events contains domain events generated.
	Events []shared.Event
}

// ══════════════════════════════════════════════════════════════════════════════
// HANDLER
// ══════════════════════════════════════════════════════════════════════════════

// CreateSwapRequestHandler handles the CreateSwapRequestCommand.
type CreateSwapRequestHandler struct {
	skillRepo      skill.Repository
	requestRepo    swap.RequestRepository
	eventPublisher shared.EventPublisher
	clock          shared.Clock
	newID          IDGenerator
}

// NewCreateSwapRequestHandler creates a new CreateSwapRequestHandler.
func NewCreateSwapRequestHandler(
	skillRepo skill.Repository,
	requestRepo swap.RequestRepository,
	eventPublisher shared.EventPublisher,
	clock shared.Clock,
) *CreateSwapRequestHandler {
	if clock == nil {
		clock = shared.SystemClock{}
	}
	return &CreateSwapRequestHandler{
		skillRepo:      skillRepo,
		requestRepo:    requestRepo,
		eventPublisher: eventPublisher,
		clock:          clock,
		newID:          NewUUID,
	}
}

// WithIDGenerator overrides the identifier source.
func (h *CreateSwapRequestHandler) WithIDGenerator(gen IDGenerator) *CreateSwapRequestHandler {
	if gen != nil {
		h.newID = gen
	}
	return h
}

// Handle executes the create swap request command.
func (h *CreateSwapRequestHandler) Handle(ctx context.Context, cmd CreateSwapRequestCommand) (*CreateSwapRequestResult, error) {
	if err := cmd.Validate(); err != nil {
		return nil, fmt.Errorf("create_swap_request: validation failed: %w", err)
	}

	from := shared.UserID(cmd.FromUserID)

	// Offered skill must be an Offered listing of the sender
	offered, err := h.skillRepo.GetByID(ctx, cmd.OfferedSkillID)
	if err != nil {
		if errors.Is(err, shared.ErrNotFound) {
			return nil, fmt.Errorf("create_swap_request: offered skill: %w", shared.ErrOfferedSkillMismatch)
		}
		return nil, fmt.Errorf("create_swap_request: load offered skill: %w", err)
	}
	if offered.OwnerID != from || !offered.IsOffered() {
		return nil, fmt.Errorf("create_swap_request: %w", shared.ErrOfferedSkillMismatch)
	}

	// Requested skill must be an Offered listing of the recipient
	requested, err := h.skillRepo.GetByID(ctx, cmd.RequestedSkillID)
	if err != nil {
		if errors.Is(err, shared.ErrNotFound) {
			return nil, fmt.Errorf("create_swap_request: requested skill: %w", shared.ErrRequestedSkillOwner)
		}
		return nil, fmt.Errorf("create_swap_request: load requested skill: %w", err)
	}
	to := shared.UserID(cmd.ToUserID)
	if to.IsEmpty() {
		to = requested.OwnerID
	}
	if requested.OwnerID != to || !requested.IsOffered() {
		return nil, fmt.Errorf("create_swap_request: %w", shared.ErrRequestedSkillOwner)
	}

	req, err := swap.NewRequest(swap.NewRequestParams{
		ID:               h.newID(),
		FromUserID:       from,
		ToUserID:         to,
		OfferedSkillID:   offered.ID,
		RequestedSkillID: requested.ID,
		Message:          cmd.Message,
		Now:              h.clock.Now(),
	})
	if err != nil {
		return nil, fmt.Errorf("create_swap_request: %w", err)
	}

	if err := h.requestRepo.Create(ctx, req); err != nil {
		return nil, fmt.Errorf("create_swap_request: failed to save request: %w", err)
	}

	event := swap.NewRequestEvent(shared.EventSwapRequestCreated, req, from)
	if cmd.CorrelationID != "" {
		event.BaseEvent = event.BaseEvent.WithCorrelationID(cmd.CorrelationID)
	}
	_ = h.eventPublisher.Publish(event)

	return &CreateSwapRequestResult{
		Request: req,
		Events:  []shared.Event{event},
	}, nil
}
