package catalog

import (
	"context"
	"encoding/json"
	"fmt"
	"os"
	"sort"
	"strings"

	"github.com/zatekoja/helpdesk-search/internal/domain/entities"
	"github.com/zatekoja/helpdesk-search/internal/domain/repositories"
	apperrors "github.com/zatekoja/helpdesk-search/pkg/errors"
)

// FileArticleRepository serves articles loaded from a JSON file.
type FileArticleRepository struct {
	articles []*entities.Article
	byID     map[string]*entities.Article
}

var _ repositories.ArticleRepository = (*FileArticleRepository)(nil)

// NewFileArticleRepository loads a JSON array of articles.
func NewFileArticleRepository(path string) (*FileArticleRepository, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to read articles file: %w", err)
	}
	var articles []*entities.Article
	if err := json.Unmarshal(data, &articles); err != nil {
		return nil, fmt.Errorf("failed to parse articles file: %w", err)
	}
	return NewArticleRepositoryFromList(articles)
}

// NewArticleRepositoryFromList validates and indexes the given articles.
func NewArticleRepositoryFromList(articles []*entities.Article) (*FileArticleRepository, error) {
	r := &FileArticleRepository{byID: make(map[string]*entities.Article, len(articles))}
	for i, a := range articles {
		if a == nil || strings.TrimSpace(a.ID) == "" {
			return nil, fmt.Errorf("article %d has no id", i)
		}
		if _, ok := r.byID[a.ID]; ok {
			return nil, fmt.Errorf("duplicate article id %q", a.ID)
		}
		if a.EstimatedTimeMinutes != nil {
			m := *a.EstimatedTimeMinutes
			if m < entities.MinEstimatedTimeMinutes || m > entities.MaxEstimatedTimeMinutes {
				return nil, fmt.Errorf("article %s: estimated_time_minutes %d out of range", a.ID, m)
			}
		}
		if a.SuccessRate != nil && (*a.SuccessRate < 0 || *a.SuccessRate > 1) {
			return nil, fmt.Errorf("article %s: success_rate %v out of range", a.ID, *a.SuccessRate)
		}
		r.byID[a.ID] = a
		r.articles = append(r.articles, a)
	}
	sort.SliceStable(r.articles, func(i, j int) bool { return r.articles[i].ID < r.articles[j].ID })
	return r, nil
}

// GetByID returns one article.
func (r *FileArticleRepository) GetByID(ctx context.Context, id string) (*entities.Article, error) {
	a, ok := r.byID[id]
	if !ok {
		return nil, apperrors.NewNotFoundError(fmt.Sprintf("article %s not found", id))
	}
	c := *a
	return &c, nil
}

// List returns articles ordered by id.
func (r *FileArticleRepository) List(ctx context.Context, filter repositories.ArticleFilter) ([]*entities.Article, error) {
	out := make([]*entities.Article, 0, len(r.articles))
	skipped := 0
	for _, a := range r.articles {
		if filter.ActiveOnly && !a.IsActive {
			continue
		}
		if filter.Category != "" && a.Category != filter.Category {
			continue
		}
		if skipped < filter.Offset {
			skipped++
			continue
		}
		c := *a
		out = append(out, &c)
		if filter.Limit > 0 && len(out) == filter.Limit {
			break
		}
	}
	return out, nil
}
