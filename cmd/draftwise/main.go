package main

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"github.com/draftwise/draftwise/internal/cli"
	"github.com/draftwise/draftwise/internal/cli/client"
)

var version = "dev"

func main() {
	rootCmd := &cobra.Command{
		Use:   "draftwise",
		Short: "Draftwise CLI - document ingestion and template suggestions",
		Long: `Draftwise CLI provides commands to ingest documents, search their
content and get template suggestions.

Environment variables:
  DRAFTWISE_OWNER_ID   Owner scope for all requests (required)
  DRAFTWISE_API_URL    API base URL (default: http://localhost:8080)`,
		Version: version,
	}

	rootCmd.PersistentFlags().Bool("output", false, "Output as JSON")
	rootCmd.PersistentFlags().String("owner", "", "Owner scope (overrides env)")
	rootCmd.PersistentFlags().String("api-url", "", "API base URL (overrides env)")
	cli.AddHelpJSONFlag(rootCmd)

	rootCmd.AddCommand(client.IngestCmd())
	rootCmd.AddCommand(client.ListCmd())
	rootCmd.AddCommand(client.GetCmd())
	rootCmd.AddCommand(client.DeleteCmd())
	rootCmd.AddCommand(client.SearchCmd())
	rootCmd.AddCommand(client.SuggestCmd())
	rootCmd.AddCommand(client.TemplatesCmd())

	cli.CheckHelpJSON(rootCmd)
	if err := rootCmd.Execute(); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}
