package main

import (
	"context"
	"flag"
	"os"
	"os/signal"
	"strings"
	"syscall"
	"time"

	"github.com/rs/zerolog/log"

	"github.com/zatekoja/helpdesk-search/internal/adapters/search"
	"github.com/zatekoja/helpdesk-search/internal/domain/repositories"
	"github.com/zatekoja/helpdesk-search/internal/infrastructure/clients/postgres"
	"github.com/zatekoja/helpdesk-search/internal/infrastructure/clients/typesense"
	"github.com/zatekoja/helpdesk-search/internal/infrastructure/observability"
	"github.com/zatekoja/helpdesk-search/internal/wire"
	"github.com/zatekoja/helpdesk-search/pkg/config"
)

const pageSize = 500

func main() {
	var reset bool
	var intervalFlag string
	flag.BoolVar(&reset, "reset", false, "delete the existing Typesense collection before reindexing")
	flag.StringVar(&intervalFlag, "interval", "", "repeat interval for reindexing (e.g. 6h, 30m)")
	flag.Parse()

	cfg, err := config.Load()
	if err != nil {
		log.Fatal().Err(err).Msg("Failed to load configuration")
	}
	observability.InitLogger("helpdesk-indexer", cfg.Env)

	intervalValue := strings.TrimSpace(intervalFlag)
	if intervalValue == "" {
		intervalValue = strings.TrimSpace(os.Getenv("REINDEX_INTERVAL"))
	}

	var interval time.Duration
	if intervalValue != "" {
		interval, err = time.ParseDuration(intervalValue)
		if err != nil {
			log.Fatal().Err(err).Str("interval", intervalValue).Msg("Invalid interval")
		}
		if interval <= 0 {
			log.Fatal().Msg("Interval must be greater than zero")
		}
	}

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	for {
		if err := indexOnce(ctx, cfg, reset); err != nil {
			log.Error().Err(err).Msg("Reindex failed")
		}

		if interval <= 0 {
			break
		}

		reset = false
		log.Info().Dur("next_run_in", interval).Msg("Reindex complete")

		select {
		case <-ctx.Done():
			log.Info().Msg("Reindexer shutting down")
			return
		case <-time.After(interval):
		}
	}
}

func indexOnce(ctx context.Context, cfg *config.Config, reset bool) error {
	var pgClient *postgres.Client
	if cfg.Database.Enabled {
		var err error
		pgClient, err = postgres.NewClient(&cfg.Database)
		if err != nil {
			return err
		}
		defer pgClient.Close()
	}

	repo, err := wire.ProvideArticleRepository(&cfg.Search, pgClient)
	if err != nil {
		return err
	}
	expander, err := wire.ProvideExpander(&cfg.Search)
	if err != nil {
		return err
	}

	tsClient, err := typesense.NewClient(&cfg.Typesense)
	if err != nil {
		return err
	}

	if reset || os.Getenv("RESET_TYPESENSE") == "true" {
		log.Info().Str("collection", tsClient.Collection()).Msg("Deleting Typesense collection")
		if _, err := tsClient.Client().Collection(tsClient.Collection()).Delete(ctx); err != nil {
			log.Warn().Err(err).Msg("Failed to delete collection")
		}
	}

	if err := tsClient.InitSchema(ctx); err != nil {
		return err
	}
	if err := tsClient.UpsertSynonyms(ctx, expander.Groups()); err != nil {
		return err
	}

	indexer := search.NewTypesenseAdapter(tsClient)
	total := 0
	for offset := 0; ; offset += pageSize {
		articles, err := repo.List(ctx, repositories.ArticleFilter{Limit: pageSize, Offset: offset})
		if err != nil {
			return err
		}
		if len(articles) == 0 {
			break
		}
		if err := indexer.IndexArticles(ctx, articles); err != nil {
			return err
		}
		total += len(articles)
		if len(articles) < pageSize {
			break
		}
	}

	log.Info().Int("articles", total).Str("collection", tsClient.Collection()).Msg("Indexed articles")
	return nil
}
