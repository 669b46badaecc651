package matching

import (
	"sort"

	"github.com/skillswap/skillswap-hub/internal/domain/shared"
	"github.com/skillswap/skillswap-hub/internal/domain/skill"
)

// ══════════════════════════════════════════════════════════════════════════════
// PROFILES
// ══════════════════════════════════════════════════════════════════════════════

// Profile - навыки пользователя и условия обмена.
// Используется и для запрашивающего, и для кандидатов из пула.
type Profile struct {
	UserID shared.UserID

	// HoursPerWeek - сколько часов в неделю пользователь готов уделять обмену.
	HoursPerWeek float64

	// Demand - рыночный спрос на навыки, которые предлагает пользователь.
	Demand MarketDemand

	Offered []*skill.Listing
	Wanted  []*skill.Listing
}

// ══════════════════════════════════════════════════════════════════════════════
// MATCH CANDIDATE
// ══════════════════════════════════════════════════════════════════════════════

// Candidate - производная запись ранжирования. Никогда не сохраняется.
type Candidate struct {
	CandidateUserID        shared.UserID
	OfferedSkill           *skill.Listing
	WantedSkillOfRequester *skill.Listing

	// ReciprocalSkill - навык запрашивающего, закрывающий потребность кандидата.
	ReciprocalSkill *skill.Listing

	MatchScore          float64
	FairnessScore       float64
	IsFairMatch         bool
	MatchLogic          string
	Label               MatchLabel
	TimeCommitmentHours float64
	MarketDemand        MarketDemand
}

// CandidateList реализует sort.Interface для ранжирования.
type CandidateList []Candidate

func (l CandidateList) Len() int      { return len(l) }
func (l CandidateList) Swap(i, j int) { l[i], l[j] = l[j], l[i] }

// Less: справедливость по убыванию, затем совместимость по убыванию,
// затем ID кандидата по возрастанию. Последние ключи дают полный порядок.
func (l CandidateList) Less(i, j int) bool {
	a, b := l[i], l[j]
	if a.FairnessScore != b.FairnessScore {
		return a.FairnessScore > b.FairnessScore
	}
	if a.MatchScore != b.MatchScore {
		return a.MatchScore > b.MatchScore
	}
	if a.CandidateUserID != b.CandidateUserID {
		return a.CandidateUserID < b.CandidateUserID
	}
	if a.OfferedSkill.ID != b.OfferedSkill.ID {
		return a.OfferedSkill.ID < b.OfferedSkill.ID
	}
	return a.WantedSkillOfRequester.ID < b.WantedSkillOfRequester.ID
}

// TopN возвращает первые n элементов (n <= 0 - все).
func (l CandidateList) TopN(n int) CandidateList {
	if n <= 0 || n >= len(l) {
		return l
	}
	return l[:n]
}

// FairOnly оставляет только справедливые пары.
func (l CandidateList) FairOnly() CandidateList {
	out := make(CandidateList, 0, len(l))
	for _, c := range l {
		if c.IsFairMatch {
			out = append(out, c)
		}
	}
	return out
}

// ══════════════════════════════════════════════════════════════════════════════
// RANKER
// ══════════════════════════════════════════════════════════════════════════════

// Ranker строит упорядоченный список кандидатов.
// Без состояния, безопасен для конкурентного вызова.
type Ranker struct {
	compat *skill.Compatibility
	scorer *FairnessScorer
}

// NewRanker создаёт ранжировщик.
func NewRanker(compat *skill.Compatibility, scorer *FairnessScorer) *Ranker {
	if compat == nil {
		compat = skill.NewCompatibility(nil)
	}
	if scorer == nil {
		scorer = NewFairnessScorer(compat, DefaultFairnessWeights())
	}
	return &Ranker{compat: compat, scorer: scorer}
}

// Rank оценивает каждую согласованную пару (их навык -> мой желаемый) при условии
// встречной пары (мой навык -> их желаемый), отбрасывает несовместимые
// и сортирует результат. Пустой результат - не ошибка.
func (r *Ranker) Rank(requester Profile, pool []Profile, limit int) (CandidateList, error) {
	out := make(CandidateList, 0)

	for _, cand := range pool {
		if cand.UserID == requester.UserID {
			continue
		}

		reciprocal, err := r.reciprocalSkill(requester, cand)
		if err != nil {
			return nil, err
		}
		if reciprocal == nil {
			continue
		}

		for _, offered := range cand.Offered {
			for _, wanted := range requester.Wanted {
				aligned, err := r.compat.Score(offered, wanted)
				if err != nil {
					return nil, err
				}
				if !aligned.Compatible {
					continue
				}

				ev, err := r.scorer.Evaluate(
					Side{Skill: wanted, Hours: requester.HoursPerWeek, Demand: requester.Demand},
					Side{Skill: offered, Hours: cand.HoursPerWeek, Demand: cand.Demand},
				)
				if err != nil {
					return nil, err
				}
				if ev.MatchScore < skill.CompatibilityThreshold {
					continue
				}

				out = append(out, Candidate{
					CandidateUserID:        cand.UserID,
					OfferedSkill:           offered,
					WantedSkillOfRequester: wanted,
					ReciprocalSkill:        reciprocal,
					MatchScore:             ev.MatchScore,
					FairnessScore:          ev.FairnessScore,
					IsFairMatch:            ev.IsFairMatch,
					MatchLogic:             ev.MatchLogic,
					Label:                  ev.Label,
					TimeCommitmentHours:    cand.HoursPerWeek,
					MarketDemand:           cand.Demand,
				})
			}
		}
	}

	sort.Sort(out)
	return out.TopN(limit), nil
}

// CandidateFilter строит фильтр пула для requester: кандидат должен
// предлагать навык, совместимый с желаемыми requester, и желать навык,
// совместимый с предлагаемыми. Остальные профили Rank всё равно отбросит.
// ok == false означает, что ни один кандидат не пройдёт.
func (r *Ranker) CandidateFilter(requester Profile) (filter CandidateFilter, ok bool) {
	filter = DefaultCandidateFilter(requester.UserID)
	filter.Offers = r.compat.Reach(requester.Wanted)
	filter.Wants = r.compat.Reach(requester.Offered)
	return filter, !filter.Offers.IsEmpty() && !filter.Wants.IsEmpty()
}

// reciprocalSkill ищет лучший навык запрашивающего для потребностей кандидата.
// nil означает, что встречной пары нет.
func (r *Ranker) reciprocalSkill(requester, cand Profile) (*skill.Listing, error) {
	var best *skill.Listing
	var bestScore float64

	for _, mine := range requester.Offered {
		for _, theirWant := range cand.Wanted {
			res, err := r.compat.Score(mine, theirWant)
			if err != nil {
				return nil, err
			}
			if !res.Compatible {
				continue
			}
			if best == nil || res.BaseScore > bestScore || (res.BaseScore == bestScore && mine.ID < best.ID) {
				best, bestScore = mine, res.BaseScore
			}
		}
	}
	return best, nil
}
