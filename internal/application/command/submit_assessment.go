package command

import (
	"context"
	"fmt"

	"github.com/skillswap/skillswap-hub/internal/domain/shared"
	"github.com/skillswap/skillswap-hub/internal/domain/skill"
)

// ══════════════════════════════════════════════════════════════════════════════
// SUBMIT ASSESSMENT COMMAND
// Scores self-assessment answers against the listing's claimed level.
// A re-submission replaces the previous assessment.
// ══════════════════════════════════════════════════════════════════════════════

// SubmitAssessmentCommand contains the answers for one listing.
type SubmitAssessmentCommand struct {
	ListingID string
	ActorID   string
	Answers   []skill.Answer
}

// SubmitAssessmentResult contains the stored assessment.
type SubmitAssessmentResult struct {
	Listing    *skill.Listing
	Assessment skill.Assessment
}

// errAssessmentDisabled is returned when no validator is configured.
var errAssessmentDisabled = shared.NewDomainError("skill", "Assess", shared.ErrServiceUnavailable, "self-assessment is disabled")

// SubmitAssessmentHandler handles the SubmitAssessmentCommand.
type SubmitAssessmentHandler struct {
	skillRepo      skill.Repository
	validator      *skill.Validator
	eventPublisher shared.EventPublisher
}

// NewSubmitAssessmentHandler creates a new SubmitAssessmentHandler.
func NewSubmitAssessmentHandler(
	skillRepo skill.Repository,
	validator *skill.Validator,
	eventPublisher shared.EventPublisher,
) *SubmitAssessmentHandler {
	return &SubmitAssessmentHandler{
		skillRepo:      skillRepo,
		validator:      validator,
		eventPublisher: eventPublisher,
	}
}

// Handle executes the submit assessment command.
func (h *SubmitAssessmentHandler) Handle(ctx context.Context, cmd SubmitAssessmentCommand) (*SubmitAssessmentResult, error) {
	if h.validator == nil {
		return nil, fmt.Errorf("submit_assessment: %w", errAssessmentDisabled)
	}
	listing, err := h.skillRepo.GetByID(ctx, cmd.ListingID)
	if err != nil {
		return nil, fmt.Errorf("submit_assessment: load listing: %w", err)
	}
	if listing.OwnerID != shared.UserID(cmd.ActorID) {
		return nil, fmt.Errorf("submit_assessment: %w", shared.ErrNotSkillOwner)
	}

	assessment, err := h.validator.Validate(ctx, listing.Level, cmd.Answers)
	if err != nil {
		return nil, fmt.Errorf("submit_assessment: %w", err)
	}
	listing.AttachAssessment(assessment)

	if err := h.skillRepo.Save(ctx, listing); err != nil {
		return nil, fmt.Errorf("submit_assessment: failed to save listing: %w", err)
	}

	_ = h.eventPublisher.Publish(skill.NewListingEvent(shared.EventSkillAssessed, listing))

	return &SubmitAssessmentResult{
		Listing:    listing,
		Assessment: assessment,
	}, nil
}
