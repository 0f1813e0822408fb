package main

import (
	"fmt"
	"strings"

	"github.com/spf13/cobra"

	"github.com/zatekoja/helpdesk-search/internal/application/services"
	"github.com/zatekoja/helpdesk-search/internal/wire"
)

func analyzeCmd() *cobra.Command {
	var filters map[string]string

	cmd := &cobra.Command{
		Use:   "analyze <query>",
		Short: "Show how a query is understood",
		Args:  cobra.MinimumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := loadConfig()
			if err != nil {
				return err
			}
			expander, err := wire.ProvideExpander(&cfg.Search)
			if err != nil {
				return err
			}

			q, err := services.NewDefaultQueryPreprocessor(expander).
				Preprocess(cmd.Context(), strings.Join(args, " "), toFilters(filters))
			if err != nil {
				return err
			}
			if jsonOutput(cmd) {
				return printJSON(cmd.OutOrStdout(), q)
			}

			out := cmd.OutOrStdout()
			fmt.Fprintf(out, "normalized: %s\n", q.Normalized)
			fmt.Fprintf(out, "intent:     %s (%.2f)\n", q.Intent, q.Confidence)
			for _, e := range q.Entities {
				fmt.Fprintf(out, "entity:     %s %q\n", e.Type, e.Text)
			}
			if len(q.ExpandedTerms) > 0 {
				fmt.Fprintf(out, "expanded:   %s\n", strings.Join(q.ExpandedTerms, ", "))
			}
			for _, w := range q.Warnings {
				fmt.Fprintf(out, "warning:    %s: %s\n", w.Key, w.Reason)
			}
			return nil
		},
	}
	cmd.Flags().StringToStringVar(&filters, "filter", nil, "filters as key=value pairs")
	return cmd
}

// toFilters converts command line filters into request filters.
func toFilters(raw map[string]string) map[string]interface{} {
	if len(raw) == 0 {
		return nil
	}
	out := make(map[string]interface{}, len(raw))
	for k, v := range raw {
		out[k] = v
	}
	return out
}
