package providers

import (
	"context"

	"github.com/zatekoja/helpdesk-search/internal/domain/entities"
)

// SearchEngine executes structured queries against an article index.
type SearchEngine interface {
	// Search runs the query and returns raw hits and aggregation buckets.
	Search(ctx context.Context, query *entities.EngineQuery) (*entities.EngineResponse, error)
}

// SimilarityLookup finds articles related to a given one.
type SimilarityLookup interface {
	// FindSimilar returns candidate article ids ordered by similarity.
	FindSimilar(ctx context.Context, req entities.SimilarityRequest) ([]string, error)
}

// SuggestionProvider completes partial queries from article titles.
type SuggestionProvider interface {
	// SuggestTitles returns titles starting with prefix, best first.
	SuggestTitles(ctx context.Context, prefix string, limit int) ([]string, error)
}

// ArticleIndexer writes articles into a search index.
type ArticleIndexer interface {
	// IndexArticles upserts the given articles.
	IndexArticles(ctx context.Context, articles []*entities.Article) error
}
