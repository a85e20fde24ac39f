package main

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"github.com/draftwise/draftwise/internal/cli"
	"github.com/draftwise/draftwise/internal/cli/admin"
)

func main() {
	rootCmd := &cobra.Command{
		Use:   "draftwised",
		Short: "Draftwise daemon",
		Long:  "Draftwise daemon for running the document ingestion and template suggestion API server",
	}

	cli.AddHelpJSONFlag(rootCmd)
	rootCmd.AddCommand(admin.ServeCmd())

	if len(os.Args) == 1 {
		os.Args = append(os.Args, "serve")
	}

	cli.CheckHelpJSON(rootCmd)
	if err := rootCmd.Execute(); err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(1)
	}
}
