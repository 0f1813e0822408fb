// Package wire assembles the query pipeline from configuration.
package wire

import (
	"context"
	"fmt"
	"time"

	"github.com/rs/zerolog/log"

	"github.com/zatekoja/helpdesk-search/internal/adapters/catalog"
	"github.com/zatekoja/helpdesk-search/internal/adapters/database"
	"github.com/zatekoja/helpdesk-search/internal/adapters/search"
	"github.com/zatekoja/helpdesk-search/internal/application/services"
	"github.com/zatekoja/helpdesk-search/internal/domain/providers"
	"github.com/zatekoja/helpdesk-search/internal/domain/repositories"
	"github.com/zatekoja/helpdesk-search/internal/infrastructure/clients/postgres"
	"github.com/zatekoja/helpdesk-search/internal/infrastructure/clients/typesense"
	"github.com/zatekoja/helpdesk-search/internal/infrastructure/observability"
	"github.com/zatekoja/helpdesk-search/pkg/config"
)

// Engine bundles the engine side collaborators of the pipeline.
type Engine struct {
	Search     providers.SearchEngine
	Similarity providers.SimilarityLookup
	Suggester  providers.SuggestionProvider
	// Close releases the engine. It is never nil.
	Close func() error
}

// PipelineDeps are the optional infrastructure pieces of a pipeline.
type PipelineDeps struct {
	Sink     repositories.SearchAnalyticsRepository
	EventBus providers.EventBus
	Cache    providers.CacheProvider
	Metrics  *observability.SearchMetrics
}

// Pipeline is a ready to use search service with its ledger.
type Pipeline struct {
	Service  *services.SearchService
	Ledger   *services.AnalyticsLedger
	Expander *services.TermExpansionService
}

// ProvideExpander loads the synonym table.
func ProvideExpander(cfg *config.SearchConfig) (*services.TermExpansionService, error) {
	expander, err := services.NewTermExpansionService(cfg.SynonymsPath)
	if err != nil {
		return nil, fmt.Errorf("failed to load synonyms: %w", err)
	}
	return expander, nil
}

// ProvideArticleRepository reads articles from Postgres when a client is
// given and from the JSON articles file otherwise.
func ProvideArticleRepository(cfg *config.SearchConfig, pg *postgres.Client) (repositories.ArticleRepository, error) {
	if pg != nil {
		return database.NewArticleAdapter(pg), nil
	}
	repo, err := catalog.NewFileArticleRepository(cfg.ArticlesPath)
	if err != nil {
		return nil, fmt.Errorf("failed to load articles: %w", err)
	}
	return repo, nil
}

// ProvideMemoryEngine indexes every article of repo into a fresh in-memory index.
func ProvideMemoryEngine(ctx context.Context, repo repositories.ArticleRepository) (*Engine, error) {
	articles, err := repo.List(ctx, repositories.ArticleFilter{})
	if err != nil {
		return nil, fmt.Errorf("failed to list articles: %w", err)
	}
	adapter, err := search.NewBleveAdapter()
	if err != nil {
		return nil, err
	}
	if err := adapter.IndexArticles(ctx, articles); err != nil {
		_ = adapter.Close()
		return nil, err
	}
	log.Info().Int("articles", len(articles)).Msg("In-memory search index ready")
	return &Engine{Search: adapter, Similarity: adapter, Suggester: adapter, Close: adapter.Close}, nil
}

// ProvideTypesenseEngine connects to Typesense and pushes the synonym groups
// so that the collection expands the same terms as the query pipeline.
func ProvideTypesenseEngine(ctx context.Context, cfg *config.TypesenseConfig, expander *services.TermExpansionService) (*Engine, error) {
	client, err := typesense.NewClient(cfg)
	if err != nil {
		return nil, err
	}
	if err := client.InitSchema(ctx); err != nil {
		return nil, fmt.Errorf("failed to init Typesense schema: %w", err)
	}
	if expander != nil {
		if err := client.UpsertSynonyms(ctx, expander.Groups()); err != nil {
			log.Warn().Err(err).Msg("Failed to sync synonyms to Typesense")
		}
	}
	adapter := search.NewTypesenseAdapter(client)
	return &Engine{Search: adapter, Similarity: adapter, Suggester: adapter, Close: func() error { return nil }}, nil
}

// ProvideEngine picks the engine named by cfg.Search.Engine.
func ProvideEngine(ctx context.Context, cfg *config.Config, expander *services.TermExpansionService, pg *postgres.Client) (*Engine, error) {
	if cfg.Search.Engine == "typesense" {
		return ProvideTypesenseEngine(ctx, &cfg.Typesense, expander)
	}
	repo, err := ProvideArticleRepository(&cfg.Search, pg)
	if err != nil {
		return nil, err
	}
	return ProvideMemoryEngine(ctx, repo)
}

// ProvidePipeline wires the query pipeline around engine.
func ProvidePipeline(cfg *config.SearchConfig, expander *services.TermExpansionService, engine *Engine, deps PipelineDeps) (*Pipeline, error) {
	boosts, err := services.LoadBoostConfig(cfg.TuningPath)
	if err != nil {
		return nil, err
	}

	opts := []services.LedgerOption{
		services.WithClickLookback(time.Duration(cfg.ClickLookbackMinutes) * time.Minute),
	}
	if deps.Sink != nil {
		opts = append(opts, services.WithSink(deps.Sink))
	}
	if deps.EventBus != nil {
		opts = append(opts, services.WithEventBus(deps.EventBus))
	}
	ledger := services.NewAnalyticsLedger(opts...)

	preprocessor := services.NewDefaultQueryPreprocessor(expander)
	if deps.Cache != nil {
		preprocessor.SetCache(deps.Cache)
	}

	processorCfg := services.DefaultResultProcessorConfig()
	if cfg.RelatedLimit > 0 {
		processorCfg.RelatedPerHit = cfg.RelatedLimit
	}
	processorCfg.SnippetLength = boosts.SnippetLength
	processorCfg.MaxSnippets = boosts.MaxSnippets
	processorCfg.HighlightFields = boosts.HighlightFields

	svc := services.NewSearchService(services.SearchServiceDeps{
		Preprocessor: preprocessor,
		Builder:      services.NewQueryBuilder(boosts),
		Engine:       engine.Search,
		Processor:    services.NewResultProcessor(engine.Similarity, processorCfg),
		Ledger:       ledger,
		Spelling:     services.NewSpellingService(expander, services.DefaultDomainTerms),
		Suggester:    engine.Suggester,
		Sink:         deps.Sink,
		Cache:        deps.Cache,
		Metrics:      deps.Metrics,
	}, services.SearchServiceConfig{
		DefaultPageSize:        cfg.DefaultPageSize,
		MaxPageSize:            cfg.MaxPageSize,
		SuggestionLimit:        cfg.SuggestionLimit,
		SuggestionCacheSeconds: cfg.SuggestionCacheTTLSeconds,
		RescoreWindow:          cfg.RescoreWindow,
	})
	return &Pipeline{Service: svc, Ledger: ledger, Expander: expander}, nil
}
