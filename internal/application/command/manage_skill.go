package command

import (
	"context"
	"fmt"

	"github.com/skillswap/skillswap-hub/internal/domain/shared"
	"github.com/skillswap/skillswap-hub/internal/domain/skill"
)

// ══════════════════════════════════════════════════════════════════════════════
// SKILL LISTING COMMANDS
// Create, edit and delete a user's skill listings. When answers come along
// with a create or an edit, the level claim is assessed and the result
// replaces any previous assessment.
// ══════════════════════════════════════════════════════════════════════════════

// CreateSkillListingCommand contains the data to add a listing.
type CreateSkillListingCommand struct {
	OwnerID     string
	Title       string
	Category    string
	Level       string
	Description string
	Direction   string

	// Answers are optional self-assessment answers for the claimed level.
	Answers []skill.Answer
}

// UpdateSkillListingCommand contains the data to edit a listing.
// Nil fields stay unchanged.
type UpdateSkillListingCommand struct {
	ListingID   string
	ActorID     string
	Title       *string
	Category    *string
	Level       *string
	Description *string
	Answers     []skill.Answer
}

// DeleteSkillListingCommand removes a listing.
type DeleteSkillListingCommand struct {
	ListingID string
	ActorID   string
}

// SkillListingResult contains the stored listing.
type SkillListingResult struct {
	Listing *skill.Listing

	// Assessed is true when answers were scored in this call.
	Assessed bool

	Events []shared.Event
}

// ══════════════════════════════════════════════════════════════════════════════
// HANDLER
// ══════════════════════════════════════════════════════════════════════════════

// SkillListingHandler handles the skill listing commands.
type SkillListingHandler struct {
	skillRepo      skill.Repository
	validator      *skill.Validator
	eventPublisher shared.EventPublisher
	newID          IDGenerator
}

// NewSkillListingHandler creates a new SkillListingHandler.
func NewSkillListingHandler(
	skillRepo skill.Repository,
	validator *skill.Validator,
	eventPublisher shared.EventPublisher,
) *SkillListingHandler {
	return &SkillListingHandler{
		skillRepo:      skillRepo,
		validator:      validator,
		eventPublisher: eventPublisher,
		newID:          NewUUID,
	}
}

// WithIDGenerator overrides the identifier source.
func (h *SkillListingHandler) WithIDGenerator(gen IDGenerator) *SkillListingHandler {
	if gen != nil {
		h.newID = gen
	}
	return h
}

// Create adds a new listing.
func (h *SkillListingHandler) Create(ctx context.Context, cmd CreateSkillListingCommand) (*SkillListingResult, error) {
	level, err := skill.ParseLevel(cmd.Level)
	if err != nil {
		return nil, fmt.Errorf("create_skill: %w", err)
	}
	direction, err := skill.ParseDirection(cmd.Direction)
	if err != nil {
		return nil, fmt.Errorf("create_skill: %w", err)
	}

	listing, err := skill.NewListing(skill.NewListingParams{
		ID:          h.newID(),
		OwnerID:     shared.UserID(cmd.OwnerID),
		Title:       cmd.Title,
		Category:    skill.Category(cmd.Category),
		Level:       level,
		Description: cmd.Description,
		Direction:   direction,
	})
	if err != nil {
		return nil, fmt.Errorf("create_skill: %w", err)
	}

	result := &SkillListingResult{Listing: listing, Events: make([]shared.Event, 0, 2)}

	if len(cmd.Answers) > 0 {
		if err := h.assess(ctx, listing, cmd.Answers); err != nil {
			return nil, fmt.Errorf("create_skill: %w", err)
		}
		result.Assessed = true
	}

	if err := h.skillRepo.Save(ctx, listing); err != nil {
		return nil, fmt.Errorf("create_skill: failed to save listing: %w", err)
	}

	result.Events = append(result.Events, skill.NewListingEvent(shared.EventSkillListed, listing))
	if result.Assessed {
		result.Events = append(result.Events, skill.NewListingEvent(shared.EventSkillAssessed, listing))
	}
	h.publish(result.Events)

	return result, nil
}

// Update edits an existing listing. Only the owner may edit.
func (h *SkillListingHandler) Update(ctx context.Context, cmd UpdateSkillListingCommand) (*SkillListingResult, error) {
	listing, err := h.skillRepo.GetByID(ctx, cmd.ListingID)
	if err != nil {
		return nil, fmt.Errorf("update_skill: load listing: %w", err)
	}

	params := skill.UpdateParams{
		Title:       cmd.Title,
		Description: cmd.Description,
	}
	if cmd.Category != nil {
		c := skill.Category(*cmd.Category)
		params.Category = &c
	}
	if cmd.Level != nil {
		lvl, err := skill.ParseLevel(*cmd.Level)
		if err != nil {
			return nil, fmt.Errorf("update_skill: %w", err)
		}
		params.Level = &lvl
	}

	if err := listing.Update(shared.UserID(cmd.ActorID), params); err != nil {
		return nil, fmt.Errorf("update_skill: %w", err)
	}

	result := &SkillListingResult{Listing: listing, Events: make([]shared.Event, 0, 2)}

	if len(cmd.Answers) > 0 {
		if err := h.assess(ctx, listing, cmd.Answers); err != nil {
			return nil, fmt.Errorf("update_skill: %w", err)
		}
		result.Assessed = true
	}

	if err := h.skillRepo.Save(ctx, listing); err != nil {
		return nil, fmt.Errorf("update_skill: failed to save listing: %w", err)
	}

	result.Events = append(result.Events, skill.NewListingEvent(shared.EventSkillUpdated, listing))
	if result.Assessed {
		result.Events = append(result.Events, skill.NewListingEvent(shared.EventSkillAssessed, listing))
	}
	h.publish(result.Events)

	return result, nil
}

// Delete removes a listing. Only the owner may delete.
func (h *SkillListingHandler) Delete(ctx context.Context, cmd DeleteSkillListingCommand) error {
	listing, err := h.skillRepo.GetByID(ctx, cmd.ListingID)
	if err != nil {
		return fmt.Errorf("delete_skill: load listing: %w", err)
	}
	if listing.OwnerID != shared.UserID(cmd.ActorID) {
		return fmt.Errorf("delete_skill: %w", shared.ErrNotSkillOwner)
	}

	if err := h.skillRepo.Delete(ctx, listing.ID); err != nil {
		return fmt.Errorf("delete_skill: failed to delete listing: %w", err)
	}

	h.publish([]shared.Event{skill.NewListingEvent(shared.EventSkillRemoved, listing)})
	return nil
}

func (h *SkillListingHandler) assess(ctx context.Context, listing *skill.Listing, answers []skill.Answer) error {
	if h.validator == nil {
		return errAssessmentDisabled
	}
	assessment, err := h.validator.Validate(ctx, listing.Level, answers)
	if err != nil {
		return err
	}
	listing.AttachAssessment(assessment)
	return nil
}

func (h *SkillListingHandler) publish(events []shared.Event) {
	for _, e := range events {
		_ = h.eventPublisher.Publish(e)
	}
}
