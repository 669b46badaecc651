package command

import (
	"context"
	"fmt"

	"github.com/skillswap/skillswap-hub/internal/domain/matching"
	"github.com/skillswap/skillswap-hub/internal/domain/shared"
)

// SetAvailabilityCommand stores the user's weekly time commitment and the
// market demand of what they offer. Both feed the fairness score.
type SetAvailabilityCommand struct {
	UserID       string
	HoursPerWeek float64
	MarketDemand string
}

// SetAvailabilityHandler handles the SetAvailabilityCommand.
type SetAvailabilityHandler struct {
	profileRepo matching.ProfileRepository
}

// NewSetAvailabilityHandler creates a new SetAvailabilityHandler.
func NewSetAvailabilityHandler(profileRepo matching.ProfileRepository) *SetAvailabilityHandler {
	return &SetAvailabilityHandler{profileRepo: profileRepo}
}

// Handle executes the command.
func (h *SetAvailabilityHandler) Handle(ctx context.Context, cmd SetAvailabilityCommand) (*matching.Availability, error) {
	demand, err := matching.ParseMarketDemand(cmd.MarketDemand)
	if err != nil {
		return nil, fmt.Errorf("set_availability: %w", err)
	}

	a := matching.Availability{
		UserID:       shared.UserID(cmd.UserID),
		HoursPerWeek: cmd.HoursPerWeek,
		Demand:       demand,
	}
	if err := a.Validate(); err != nil {
		return nil, fmt.Errorf("set_availability: %w", err)
	}

	if err := h.profileRepo.SaveAvailability(ctx, a); err != nil {
		return nil, fmt.Errorf("set_availability: failed to save: %w", err)
	}
	return &a, nil
}
