package services

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/zatekoja/helpdesk-search/internal/domain/entities"
)

func TestSearchRankingService_AppliesModifiers(t *testing.T) {
	cfg := entities.DefaultBoostConfig()
	eq := NewQueryBuilder(cfg).Build(&entities.SearchQuery{Normalized: "vpn", Intent: entities.IntentGeneral}, 10, 0)
	svc := NewSearchRankingService()

	ranked := svc.Rank(eq, []entities.EngineHit{
		hit("hard-and-unreliable", 1.2, map[string]interface{}{"success_rate": 0.2, "difficulty_level": "hard"}),
		hit("easy-and-reliable", 1.0, map[string]interface{}{"success_rate": 1.0, "difficulty_level": "easy"}),
	})

	require.Len(t, ranked, 2)
	assert.Equal(t, "easy-and-reliable", ranked[0].Hit.ID)
	assert.InDelta(t, 1.0*1.5*1.1, ranked[0].Score, 1e-9)
	assert.InDelta(t, 1.2*0.7*0.9, ranked[1].Score, 1e-9)
	assert.Equal(t, 1.0, ranked[0].ScoreBreakdown["relevance"])
	assert.Equal(t, 1.0, ranked[0].ScoreBreakdown["view_count"])
}

func TestSearchRankingService_KeepsEveryHit(t *testing.T) {
	eq := &entities.EngineQuery{}
	hits := []entities.EngineHit{hit("a", 1, nil), hit("b", 1, nil), hit("c", 2, nil)}

	ranked := NewSearchRankingService().Rank(eq, hits)
	require.Len(t, ranked, 3)
	assert.Equal(t, "c", ranked[0].Hit.ID)
	assert.Equal(t, "a", ranked[1].Hit.ID, "ties keep engine order")
	assert.Equal(t, "b", ranked[2].Hit.ID)
}

func TestSearchRankingService_Empty(t *testing.T) {
	assert.Nil(t, NewSearchRankingService().Rank(&entities.EngineQuery{}, nil))
}
