package matching

import (
	"context"

	"github.com/skillswap/skillswap-hub/internal/domain/shared"
	"github.com/skillswap/skillswap-hub/internal/domain/skill"
)

// Availability - условия обмена пользователя.
type Availability struct {
	UserID       shared.UserID
	HoursPerWeek float64
	Demand       MarketDemand
}

// Validate проверяет условия обмена.
func (a Availability) Validate() error {
	if !a.UserID.IsValid() {
		return shared.NewDomainError("matching", "Validate", shared.ErrInvalidID, "user id is required")
	}
	if a.HoursPerWeek < 0 || a.HoursPerWeek > 168 {
		return shared.ErrNegativeHours
	}
	if !a.Demand.IsValid() {
		return shared.ErrInvalidDemand
	}
	return nil
}

// CandidateFilter - параметры выборки пула кандидатов.
type CandidateFilter struct {
	// ExcludeUserID - обычно сам запрашивающий.
	ExcludeUserID shared.UserID

	// Offers - кандидат должен предлагать хотя бы один навык из Offers.
	// Пустой Reach - без ограничения.
	Offers skill.Reach

	// Wants - кандидат должен желать хотя бы один навык из Wants.
	// Пустой Reach - без ограничения.
	Wants skill.Reach

	// OnlyValidated - учитывать только предложенные навыки с подтверждённым уровнем.
	OnlyValidated bool

	// Limit - максимальное число кандидатов после фильтров Offers и Wants
	// (0 - без ограничения).
	Limit int
}

// DefaultCandidateFilter возвращает фильтр по умолчанию.
func DefaultCandidateFilter(requester shared.UserID) CandidateFilter {
	return CandidateFilter{
		ExcludeUserID: requester,
		Limit:         500,
	}
}

// ProfileRepository - хранилище профилей для подбора.
type ProfileRepository interface {
	// GetProfile возвращает профиль пользователя со всеми навыками.
	// Пользователь без сохранённых условий получает нулевые часы и спрос Medium.
	GetProfile(ctx context.Context, userID shared.UserID) (*Profile, error)

	// SaveAvailability создаёт или обновляет условия обмена.
	SaveAvailability(ctx context.Context, a Availability) error

	// ListCandidatePool возвращает профили кандидатов по фильтру.
	ListCandidatePool(ctx context.Context, filter CandidateFilter) ([]Profile, error)
}
