package services

import (
	"sort"

	"github.com/zatekoja/helpdesk-search/internal/domain/entities"
)

// ScoredHit is an engine hit after the query's score modifiers were applied.
type ScoredHit struct {
	Hit            entities.EngineHit
	Score          float64
	ScoreBreakdown map[string]float64
}

// SearchRankingService applies function score modifiers on top of engine relevance.
type SearchRankingService struct{}

func NewSearchRankingService() *SearchRankingService {
	return &SearchRankingService{}
}

// Rank multiplies each hit's relevance by the query's score modifiers and
// orders the hits by the final score. Ties keep engine order. No hit is dropped.
func (s *SearchRankingService) Rank(eq *entities.EngineQuery, hits []entities.EngineHit) []ScoredHit {
	if len(hits) == 0 {
		return nil
	}

	scored := make([]ScoredHit, len(hits))
	for i, h := range hits {
		breakdown := map[string]float64{"relevance": h.Score}
		score := h.Score
		for _, mod := range eq.ScoreModifiers {
			m := mod.Multiplier(h.Source)
			breakdown[mod.Field] = m
			score *= m
		}
		scored[i] = ScoredHit{Hit: h, Score: score, ScoreBreakdown: breakdown}
	}

	sort.SliceStable(scored, func(i, j int) bool {
		return scored[i].Score > scored[j].Score
	})
	return scored
}
