package main

import (
	"context"
	"encoding/json"
	"flag"
	"fmt"
	"os"

	"github.com/rs/zerolog/log"

	"github.com/zatekoja/helpdesk-search/internal/evaluation"
	"github.com/zatekoja/helpdesk-search/internal/infrastructure/observability"
	"github.com/zatekoja/helpdesk-search/internal/wire"
	"github.com/zatekoja/helpdesk-search/pkg/config"
)

func main() {
	goldenPath := flag.String("golden", "config/golden_queries.json", "golden query file")
	minRecall := flag.Float64("min-recall", 0, "fail when average recall@10 is below this value")
	minMRR := flag.Float64("min-mrr", 0, "fail when average MRR@10 is below this value")
	minIntent := flag.Float64("min-intent-accuracy", 0, "fail when intent accuracy is below this value")
	flag.Parse()

	cfg, err := config.Load()
	if err != nil {
		log.Fatal().Err(err).Msg("Failed to load config")
	}
	observability.InitLogger("helpdesk-evaluate", cfg.Env)

	// Golden queries are labeled against the sample articles, so always use the in-memory engine
	cfg.Search.Engine = "memory"

	ctx := context.Background()
	expander, err := wire.ProvideExpander(&cfg.Search)
	if err != nil {
		log.Fatal().Err(err).Msg("Failed to load synonyms")
	}
	engine, err := wire.ProvideEngine(ctx, cfg, expander, nil)
	if err != nil {
		log.Fatal().Err(err).Msg("Failed to build search index")
	}
	defer engine.Close()

	pipeline, err := wire.ProvidePipeline(&cfg.Search, expander, engine, wire.PipelineDeps{})
	if err != nil {
		log.Fatal().Err(err).Msg("Failed to build query pipeline")
	}

	queries, err := evaluation.LoadGoldenQueries(*goldenPath)
	if err != nil {
		log.Fatal().Err(err).Msg("Failed to load golden queries")
	}
	if err := evaluation.ValidateGoldenQueries(queries); err != nil {
		log.Fatal().Err(err).Msg("Invalid golden queries")
	}

	summary, err := evaluation.NewRunner(pipeline.Service).Run(ctx, queries)
	if err != nil {
		log.Fatal().Err(err).Msg("Evaluation failed")
	}

	// Output results as JSON
	out, _ := json.MarshalIndent(summary, "", "  ")
	fmt.Println(string(out))

	violations := evaluation.NewGuardrails(evaluation.GuardrailConfig{
		MinRecallAtK:      *minRecall,
		MinMRRAtK:         *minMRR,
		MinIntentAccuracy: *minIntent,
	}).Check(summary)
	for _, v := range violations {
		log.Error().Str("guardrail", v).Msg("Evaluation below threshold")
	}
	if len(violations) > 0 {
		os.Exit(1)
	}
}
