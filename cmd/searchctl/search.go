package main

import (
	"context"
	"fmt"
	"strings"

	"github.com/spf13/cobra"

	"github.com/zatekoja/helpdesk-search/internal/application/services"
	"github.com/zatekoja/helpdesk-search/internal/wire"
	"github.com/zatekoja/helpdesk-search/pkg/config"
)

// buildPipeline indexes the configured articles into an in-memory engine.
func buildPipeline(ctx context.Context, cfg *config.Config) (*wire.Pipeline, func() error, error) {
	cfg.Search.Engine = "memory"
	expander, err := wire.ProvideExpander(&cfg.Search)
	if err != nil {
		return nil, nil, err
	}
	engine, err := wire.ProvideEngine(ctx, cfg, expander, nil)
	if err != nil {
		return nil, nil, err
	}
	p, err := wire.ProvidePipeline(&cfg.Search, expander, engine, wire.PipelineDeps{})
	if err != nil {
		_ = engine.Close()
		return nil, nil, err
	}
	return p, engine.Close, nil
}

func searchCmd() *cobra.Command {
	var filters map[string]string
	var size, page int

	cmd := &cobra.Command{
		Use:   "search <query>",
		Short: "Run a search and print the ranked results",
		Args:  cobra.MinimumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := loadConfig()
			if err != nil {
				return err
			}
			p, closeEngine, err := buildPipeline(cmd.Context(), cfg)
			if err != nil {
				return err
			}
			defer closeEngine()

			resp, err := p.Service.Search(cmd.Context(), services.SearchRequest{
				Text:     strings.Join(args, " "),
				Filters:  toFilters(filters),
				PageSize: size,
				Page:     page,
			})
			if err != nil {
				return err
			}
			if jsonOutput(cmd) {
				return printJSON(cmd.OutOrStdout(), resp)
			}

			out := cmd.OutOrStdout()
			fmt.Fprintf(out, "%d results for %q (intent %s, %dms)\n", resp.Total, resp.Query.Normalized, resp.Query.Intent, resp.TookMs)
			for i, r := range resp.Results {
				fmt.Fprintf(out, "%2d. [%s] %s  score=%.3f\n", i+1, r.ArticleID, r.Title, r.Score)
				if len(r.Snippets) > 0 {
					fmt.Fprintf(out, "    %s\n", r.Snippets[0].Text)
				}
				if len(r.RelatedArticleIDs) > 0 {
					fmt.Fprintf(out, "    related: %s\n", strings.Join(r.RelatedArticleIDs, ", "))
				}
			}
			for _, g := range resp.Facets.Groups {
				values := make([]string, len(g.Values))
				for i, v := range g.Values {
					values[i] = fmt.Sprintf("%s (%d)", v.Value, v.Count)
				}
				fmt.Fprintf(out, "facet %s: %s\n", g.Name, strings.Join(values, ", "))
			}
			for _, w := range resp.Query.Warnings {
				fmt.Fprintf(out, "warning: %s\n", w.Error())
			}
			if len(resp.Results) == 0 {
				if corrected, ok := p.Service.GetDidYouMean(cmd.Context(), strings.Join(args, " ")); ok {
					fmt.Fprintf(out, "did you mean: %s\n", corrected)
				}
			}
			return nil
		},
	}
	cmd.Flags().StringToStringVar(&filters, "filter", nil, "filters as key=value pairs")
	cmd.Flags().IntVarP(&size, "size", "n", 10, "results per page")
	cmd.Flags().IntVar(&page, "page", 1, "page number")
	return cmd
}

func suggestCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "suggest <prefix>",
		Short: "Complete a partial query from article titles",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := loadConfig()
			if err != nil {
				return err
			}
			p, closeEngine, err := buildPipeline(cmd.Context(), cfg)
			if err != nil {
				return err
			}
			defer closeEngine()

			suggestions, err := p.Service.GetSearchSuggestions(cmd.Context(), args[0])
			if err != nil {
				return err
			}
			if jsonOutput(cmd) {
				return printJSON(cmd.OutOrStdout(), suggestions)
			}
			for _, s := range suggestions {
				fmt.Fprintln(cmd.OutOrStdout(), s)
			}
			return nil
		},
	}
}
