package catalog

import (
	"context"
	"path/filepath"
	"runtime"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/zatekoja/helpdesk-search/internal/domain/entities"
	"github.com/zatekoja/helpdesk-search/internal/domain/repositories"
	apperrors "github.com/zatekoja/helpdesk-search/pkg/errors"
)

func sampleArticlesPath() string {
	_, file, _, _ := runtime.Caller(0)
	return filepath.Join(filepath.Dir(file), "..", "..", "..", "config", "articles.sample.json")
}

func TestFileArticleRepository_LoadSample(t *testing.T) {
	repo, err := NewFileArticleRepository(sampleArticlesPath())
	require.NoError(t, err)
	ctx := context.Background()

	all, err := repo.List(ctx, repositories.ArticleFilter{})
	require.NoError(t, err)
	assert.Len(t, all, 16)
	assert.Equal(t, "kb-001", all[0].ID)

	active, err := repo.List(ctx, repositories.ArticleFilter{ActiveOnly: true})
	require.NoError(t, err)
	assert.Len(t, active, 15)

	network, err := repo.List(ctx, repositories.ArticleFilter{Category: "Network", Limit: 2, Offset: 1})
	require.NoError(t, err)
	require.Len(t, network, 2)
	assert.Equal(t, "kb-008", network[0].ID)
	assert.Equal(t, "kb-014", network[1].ID)

	a, err := repo.GetByID(ctx, "kb-003")
	require.NoError(t, err)
	assert.Equal(t, entities.DifficultyEasy, a.Difficulty)
	require.NotNil(t, a.SuccessRate)
	assert.InDelta(t, 0.97, *a.SuccessRate, 1e-9)
}

func TestFileArticleRepository_GetByIDNotFound(t *testing.T) {
	repo, err := NewArticleRepositoryFromList(nil)
	require.NoError(t, err)

	_, err = repo.GetByID(context.Background(), "missing")
	assert.Equal(t, apperrors.ErrorTypeNotFound, apperrors.TypeOf(err))
}

func TestNewArticleRepositoryFromList_Invalid(t *testing.T) {
	tooLong := 600
	badRate := 1.5

	tests := []struct {
		name     string
		articles []*entities.Article
	}{
		{name: "missing id", articles: []*entities.Article{{Title: "x"}}},
		{name: "duplicate id", articles: []*entities.Article{{ID: "a"}, {ID: "a"}}},
		{name: "time out of range", articles: []*entities.Article{{ID: "a", EstimatedTimeMinutes: &tooLong}}},
		{name: "rate out of range", articles: []*entities.Article{{ID: "a", SuccessRate: &badRate}}},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := NewArticleRepositoryFromList(tt.articles)
			assert.Error(t, err)
		})
	}
}
