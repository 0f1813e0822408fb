package main

import (
	"encoding/json"
	"fmt"
	"io"
	"os"

	"github.com/spf13/cobra"

	"github.com/zatekoja/helpdesk-search/internal/infrastructure/observability"
	"github.com/zatekoja/helpdesk-search/pkg/config"
)

func main() {
	rootCmd := &cobra.Command{
		Use:   "searchctl",
		Short: "Inspect and exercise the helpdesk query pipeline",
		Long: `searchctl runs the query pipeline in process against the articles file
or the articles table, without starting the HTTP server.`,
		SilenceUsage: true,
	}
	rootCmd.PersistentFlags().String("format", "text", "output format (text, json)")

	rootCmd.AddCommand(
		analyzeCmd(),
		searchCmd(),
		suggestCmd(),
		articlesCmd(),
	)

	if err := rootCmd.Execute(); err != nil {
		os.Exit(1)
	}
}

// loadConfig loads the environment configuration and quiets the logger.
func loadConfig() (*config.Config, error) {
	cfg, err := config.Load()
	if err != nil {
		return nil, err
	}
	observability.InitLogger("searchctl", cfg.Env)
	return cfg, nil
}

func jsonOutput(cmd *cobra.Command) bool {
	format, _ := cmd.Flags().GetString("format")
	return format == "json"
}

func printJSON(w io.Writer, v interface{}) error {
	enc := json.NewEncoder(w)
	enc.SetIndent("", "  ")
	if err := enc.Encode(v); err != nil {
		return fmt.Errorf("failed to encode output: %w", err)
	}
	return nil
}
