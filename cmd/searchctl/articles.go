package main

import (
	"fmt"

	"github.com/rs/zerolog/log"
	"github.com/spf13/cobra"

	"github.com/zatekoja/helpdesk-search/internal/adapters/catalog"
	"github.com/zatekoja/helpdesk-search/internal/adapters/database"
	"github.com/zatekoja/helpdesk-search/internal/domain/repositories"
	"github.com/zatekoja/helpdesk-search/internal/infrastructure/clients/postgres"
)

func articlesCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "articles",
		Short: "Manage the articles table",
	}
	cmd.AddCommand(articlesImportCmd())
	return cmd
}

func articlesImportCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "import <file>",
		Short: "Upsert articles from a JSON file into PostgreSQL",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := loadConfig()
			if err != nil {
				return err
			}
			source, err := catalog.NewFileArticleRepository(args[0])
			if err != nil {
				return err
			}
			articles, err := source.List(cmd.Context(), repositories.ArticleFilter{})
			if err != nil {
				return err
			}

			pgClient, err := postgres.NewClient(&cfg.Database)
			if err != nil {
				return err
			}
			defer pgClient.Close()

			target := database.NewArticleAdapter(pgClient)
			for _, a := range articles {
				if err := target.Upsert(cmd.Context(), a); err != nil {
					return fmt.Errorf("article %s: %w", a.ID, err)
				}
			}
			log.Info().Int("articles", len(articles)).Str("file", args[0]).Msg("Imported articles")
			fmt.Fprintf(cmd.OutOrStdout(), "imported %d articles\n", len(articles))
			return nil
		},
	}
}
