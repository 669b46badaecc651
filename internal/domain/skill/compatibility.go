package skill

import (
	"sort"
	"strings"

	"github.com/skillswap/skillswap-hub/internal/domain/shared"
)

// ══════════════════════════════════════════════════════════════════════════════
// CONSTANTS
// ══════════════════════════════════════════════════════════════════════════════

const (
	// ExactMatchScore - оценка при совпадении названий навыков.
	ExactMatchScore = 100.0

	// SameCategoryMinScore и SameCategoryMaxScore - диапазон для одной категории.
	SameCategoryMinScore = 70.0
	SameCategoryMaxScore = 90.0

	// CrossCategoryMaxScore - потолок для разных категорий.
	CrossCategoryMaxScore = 50.0

	// CompatibilityThreshold - минимальная оценка совместимых навыков.
	CompatibilityThreshold = 40.0

	// DefaultSameCategoryAffinity - близость внутри категории, если не задана (даёт 80).
	DefaultSameCategoryAffinity = 0.5
)

// ══════════════════════════════════════════════════════════════════════════════
// AFFINITY TABLE
// ══════════════════════════════════════════════════════════════════════════════

// AffinityTable хранит коэффициенты близости категорий в диапазоне [0, 1].
// Межкатегорийная таблица симметрична: (a, b) и (b, a) - одна запись.
// Незаданные пары разных категорий имеют близость 0.
type AffinityTable struct {
	sameCategory  map[Category]float64
	crossCategory map[string]float64
}

// NewAffinityTable создаёт пустую таблицу.
func NewAffinityTable() *AffinityTable {
	return &AffinityTable{
		sameCategory:  make(map[Category]float64),
		crossCategory: make(map[string]float64),
	}
}

// DefaultAffinityTable возвращает таблицу со стандартными связями категорий.
func DefaultAffinityTable() *AffinityTable {
	t := NewAffinityTable()
	_ = t.SetSameCategory("Programming", 0.5)
	_ = t.SetSameCategory("Design", 0.5)
	_ = t.SetSameCategory("Languages", 0.25)
	_ = t.SetSameCategory("Music", 0.25)
	_ = t.SetSameCategory("Data Science", 0.75)

	_ = t.SetCrossCategory("Programming", "Data Science", 0.9)
	_ = t.SetCrossCategory("Programming", "Design", 0.3)
	_ = t.SetCrossCategory("Design", "Marketing", 0.6)
	_ = t.SetCrossCategory("Business", "Marketing", 0.8)
	_ = t.SetCrossCategory("Data Science", "Business", 0.5)
	return t
}

// SetSameCategory задаёт близость навыков внутри одной категории.
func (t *AffinityTable) SetSameCategory(c Category, affinity float64) error {
	if affinity < 0 || affinity > 1 {
		return shared.ErrInvalidAffinity
	}
	t.sameCategory[c.Normalize()] = affinity
	return nil
}

// SetCrossCategory задаёт симметричную близость двух разных категорий.
func (t *AffinityTable) SetCrossCategory(a, b Category, affinity float64) error {
	if affinity < 0 || affinity > 1 {
		return shared.ErrInvalidAffinity
	}
	t.crossCategory[pairKey(a, b)] = affinity
	return nil
}

// SameCategory возвращает близость внутри категории.
func (t *AffinityTable) SameCategory(c Category) float64 {
	if t == nil {
		return DefaultSameCategoryAffinity
	}
	if v, ok := t.sameCategory[c.Normalize()]; ok {
		return v
	}
	return DefaultSameCategoryAffinity
}

// CrossCategory возвращает близость двух категорий (0 для несвязанных).
func (t *AffinityTable) CrossCategory(a, b Category) float64 {
	if t == nil {
		return 0
	}
	return t.crossCategory[pairKey(a, b)]
}

func pairKey(a, b Category) string {
	x, y := string(a.Normalize()), string(b.Normalize())
	if x > y {
		x, y = y, x
	}
	return x + "|" + y
}

// ══════════════════════════════════════════════════════════════════════════════
// COMPATIBILITY
// ══════════════════════════════════════════════════════════════════════════════

// CompatibilityResult - результат сравнения двух навыков.
type CompatibilityResult struct {
	Compatible bool
	BaseScore  float64
}

// Compatibility вычисляет базовую совместимость навыков.
// Чистая функция без побочных эффектов, безопасна для конкурентного вызова.
type Compatibility struct {
	affinity *AffinityTable
}

// NewCompatibility создаёт калькулятор с таблицей близости.
// nil означает таблицу по умолчанию.
func NewCompatibility(affinity *AffinityTable) *Compatibility {
	if affinity == nil {
		affinity = DefaultAffinityTable()
	}
	return &Compatibility{affinity: affinity}
}

// Score сравнивает предлагаемый навык с желаемым.
func (c *Compatibility) Score(offered, wanted *Listing) (CompatibilityResult, error) {
	if offered == nil || wanted == nil || offered.Category.IsEmpty() || wanted.Category.IsEmpty() {
		return CompatibilityResult{}, shared.ErrSkillMissingCategory
	}

	var score float64
	switch {
	case sameTitle(offered.Title, wanted.Title):
		score = ExactMatchScore
	case offered.Category.Equal(wanted.Category):
		span := SameCategoryMaxScore - SameCategoryMinScore
		score = SameCategoryMinScore + span*c.affinity.SameCategory(offered.Category)
	default:
		score = CrossCategoryMaxScore * c.affinity.CrossCategory(offered.Category, wanted.Category)
	}

	return CompatibilityResult{
		Compatible: score >= CompatibilityThreshold,
		BaseScore:  score,
	}, nil
}

func sameTitle(a, b string) bool {
	a, b = strings.TrimSpace(a), strings.TrimSpace(b)
	return a != "" && strings.EqualFold(a, b)
}

// ══════════════════════════════════════════════════════════════════════════════
// REACH
// ══════════════════════════════════════════════════════════════════════════════

// Reach - категории и названия навыков, которые могут оказаться совместимыми
// хотя бы с одним из заданных навыков. Используется для сужения пула
// кандидатов до ранжирования: навык вне Reach никогда не наберёт порог.
type Reach struct {
	// Categories - нормализованные категории.
	Categories []Category

	// Titles - названия в нижнем регистре (точное совпадение даёт 100
	// независимо от категории).
	Titles []string
}

// IsEmpty возвращает true, если совместимых навыков быть не может.
func (r Reach) IsEmpty() bool {
	return len(r.Categories) == 0 && len(r.Titles) == 0
}

// Covers проверяет, попадает ли навык в Reach.
func (r Reach) Covers(l *Listing) bool {
	if l == nil {
		return false
	}
	for _, c := range r.Categories {
		if l.Category.Equal(c) {
			return true
		}
	}
	title := normalizeTitle(l.Title)
	if title == "" {
		return false
	}
	for _, t := range r.Titles {
		if t == title {
			return true
		}
	}
	return false
}

// Reach собирает категории и названия, совместимые с навыками targets.
// Своя категория достижима всегда (минимум SameCategoryMinScore),
// чужая - если CrossCategoryMaxScore * близость не ниже порога.
func (c *Compatibility) Reach(targets []*Listing) Reach {
	var r Reach
	seenCat := make(map[Category]bool)
	seenTitle := make(map[string]bool)

	addCat := func(cat Category) {
		cat = cat.Normalize()
		if cat == "" || seenCat[cat] {
			return
		}
		seenCat[cat] = true
		r.Categories = append(r.Categories, cat)
	}

	for _, l := range targets {
		if l == nil {
			continue
		}
		if title := normalizeTitle(l.Title); title != "" && !seenTitle[title] {
			seenTitle[title] = true
			r.Titles = append(r.Titles, title)
		}
		addCat(l.Category)
		for _, other := range c.affinity.crossPartners(l.Category) {
			addCat(other)
		}
	}

	sort.Slice(r.Categories, func(i, j int) bool { return r.Categories[i] < r.Categories[j] })
	sort.Strings(r.Titles)
	return r
}

// crossPartners возвращает категории, чья близость к c достигает порога.
func (t *AffinityTable) crossPartners(c Category) []Category {
	if t == nil {
		return nil
	}
	self := string(c.Normalize())
	out := make([]Category, 0)
	for key, affinity := range t.crossCategory {
		if CrossCategoryMaxScore*affinity < CompatibilityThreshold {
			continue
		}
		a, b, _ := strings.Cut(key, "|")
		switch self {
		case a:
			out = append(out, Category(b))
		case b:
			out = append(out, Category(a))
		}
	}
	return out
}

func normalizeTitle(s string) string {
	return strings.ToLower(strings.TrimSpace(s))
}
