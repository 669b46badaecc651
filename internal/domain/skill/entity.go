// Package skill содержит доменную модель навыков, которые пользователи
// предлагают (Offered) или хотят изучить (Wanted), а также правила
// совместимости навыков и проверки заявленного уровня.
package skill

import (
	"strings"
	"time"

	"github.com/skillswap/skillswap-hub/internal/domain/shared"
)

// ══════════════════════════════════════════════════════════════════════════════
// ENUMS
// ══════════════════════════════════════════════════════════════════════════════

// Level - заявленный уровень владения навыком.
type Level string

const (
	// LevelBeginner - начальный уровень.
	LevelBeginner Level = "Beginner"

	// LevelIntermediate - средний уровень.
	LevelIntermediate Level = "Intermediate"

	// LevelAdvanced - продвинутый уровень.
	LevelAdvanced Level = "Advanced"

	// LevelExpert - экспертный уровень.
	LevelExpert Level = "Expert"
)

// AllLevels возвращает уровни по возрастанию.
func AllLevels() []Level {
	return []Level{LevelBeginner, LevelIntermediate, LevelAdvanced, LevelExpert}
}

// IsValid проверяет корректность уровня.
func (l Level) IsValid() bool {
	return l.Rank() >= 0
}

// Rank возвращает порядковый номер уровня (0..3) или -1 для неизвестного.
func (l Level) Rank() int {
	switch l {
	case LevelBeginner:
		return 0
	case LevelIntermediate:
		return 1
	case LevelAdvanced:
		return 2
	case LevelExpert:
		return 3
	default:
		return -1
	}
}

// ParseLevel разбирает уровень без учёта регистра.
func ParseLevel(s string) (Level, error) {
	for _, l := range AllLevels() {
		if strings.EqualFold(string(l), strings.TrimSpace(s)) {
			return l, nil
		}
	}
	return "", shared.ErrInvalidSkillLevel
}

// Direction - направление навыка: предлагаю научить или хочу изучить.
type Direction string

const (
	// DirectionOffered - пользователь готов учить.
	DirectionOffered Direction = "Offered"

	// DirectionWanted - пользователь хочет научиться.
	DirectionWanted Direction = "Wanted"
)

// IsValid проверяет корректность направления.
func (d Direction) IsValid() bool {
	return d == DirectionOffered || d == DirectionWanted
}

// ParseDirection разбирает направление без учёта регистра.
func ParseDirection(s string) (Direction, error) {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "offered":
		return DirectionOffered, nil
	case "wanted":
		return DirectionWanted, nil
	default:
		return "", shared.ErrInvalidDirection
	}
}

// Category - категория навыка ("Programming", "Design", ...).
type Category string

// Normalize приводит категорию к каноническому виду для сравнения.
func (c Category) Normalize() Category {
	return Category(strings.ToLower(strings.TrimSpace(string(c))))
}

// IsEmpty возвращает true, если категория не задана.
func (c Category) IsEmpty() bool {
	return c.Normalize() == ""
}

// Equal сравнивает категории без учёта регистра и пробелов.
func (c Category) Equal(other Category) bool {
	return c.Normalize() == other.Normalize()
}

// ══════════════════════════════════════════════════════════════════════════════
// SKILL LISTING
// ══════════════════════════════════════════════════════════════════════════════

// Listing - навык в профиле пользователя.
// Идентификатор неизменен на протяжении жизни записи.
type Listing struct {
	ID          string
	OwnerID     shared.UserID
	Title       string
	Category    Category
	Level       Level
	Description string
	Direction   Direction

	// Assessment - результат последней проверки уровня (может отсутствовать).
	Assessment *Assessment

	CreatedAt time.Time
	UpdatedAt time.Time
}

// NewListingParams параметры для создания навыка.
type NewListingParams struct {
	ID          string
	OwnerID     shared.UserID
	Title       string
	Category    Category
	Level       Level
	Description string
	Direction   Direction
}

// NewListing создаёт новый навык с валидацией.
func NewListing(params NewListingParams) (*Listing, error) {
	if params.ID == "" {
		return nil, shared.NewDomainError("skill", "Create", shared.ErrInvalidID, "listing id is required")
	}
	if !params.OwnerID.IsValid() {
		return nil, shared.NewDomainError("skill", "Create", shared.ErrInvalidID, "owner id is required")
	}

	now := time.Now().UTC()
	l := &Listing{
		ID:          params.ID,
		OwnerID:     params.OwnerID,
		Title:       strings.TrimSpace(params.Title),
		Category:    Category(strings.TrimSpace(string(params.Category))),
		Level:       params.Level,
		Description: strings.TrimSpace(params.Description),
		Direction:   params.Direction,
		CreatedAt:   now,
		UpdatedAt:   now,
	}

	if err := l.Validate(); err != nil {
		return nil, err
	}
	return l, nil
}

// Validate проверяет обязательные поля.
func (l *Listing) Validate() error {
	if l.Title == "" {
		return shared.ErrSkillMissingTitle
	}
	if l.Category.IsEmpty() {
		return shared.ErrSkillMissingCategory
	}
	if !l.Level.IsValid() {
		return shared.ErrInvalidSkillLevel
	}
	if !l.Direction.IsValid() {
		return shared.ErrInvalidDirection
	}
	return nil
}

// UpdateParams параметры редактирования. Пустые поля не меняются.
type UpdateParams struct {
	Title       *string
	Category    *Category
	Level       *Level
	Description *string
}

// Update применяет изменения от имени владельца.
// Смена уровня сбрасывает прежнюю проверку: она относилась к другому заявлению.
func (l *Listing) Update(actor shared.UserID, params UpdateParams) error {
	if actor != l.OwnerID {
		return shared.ErrNotSkillOwner
	}

	next := l.Clone()
	if params.Title != nil {
		next.Title = strings.TrimSpace(*params.Title)
	}
	if params.Category != nil {
		next.Category = Category(strings.TrimSpace(string(*params.Category)))
	}
	if params.Description != nil {
		next.Description = strings.TrimSpace(*params.Description)
	}
	if params.Level != nil && *params.Level != next.Level {
		next.Level = *params.Level
		next.Assessment = nil
	}
	if err := next.Validate(); err != nil {
		return err
	}

	next.UpdatedAt = time.Now().UTC()
	*l = *next
	return nil
}

// AttachAssessment заменяет результат проверки (без слияния с прежним).
func (l *Listing) AttachAssessment(a Assessment) {
	l.Assessment = &a
	l.UpdatedAt = time.Now().UTC()
}

// IsValidated возвращает true, если последняя проверка подтвердила уровень.
func (l *Listing) IsValidated() bool {
	return l.Assessment != nil && l.Assessment.IsValid
}

// IsOffered возвращает true для навыков, которым пользователь готов учить.
func (l *Listing) IsOffered() bool {
	return l.Direction == DirectionOffered
}

// IsWanted возвращает true для навыков, которые пользователь хочет изучить.
func (l *Listing) IsWanted() bool {
	return l.Direction == DirectionWanted
}

// Clone создаёт глубокую копию навыка.
func (l *Listing) Clone() *Listing {
	c := *l
	if l.Assessment != nil {
		a := l.Assessment.Clone()
		c.Assessment = &a
	}
	return &c
}
