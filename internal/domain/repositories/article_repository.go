package repositories

import (
	"context"

	"github.com/zatekoja/helpdesk-search/internal/domain/entities"
)

// ArticleFilter narrows article listings.
type ArticleFilter struct {
	ActiveOnly bool
	Category   string
	Limit      int
	Offset     int
}

// ArticleRepository reads knowledge base articles from storage.
type ArticleRepository interface {
	GetByID(ctx context.Context, id string) (*entities.Article, error)
	List(ctx context.Context, filter ArticleFilter) ([]*entities.Article, error)
}
