package client

import (
	"encoding/json"
	"fmt"
	"net/url"
	"strconv"

	"github.com/spf13/cobra"
)

// SuggestionResult represents one ranked template suggestion.
type SuggestionResult struct {
	TemplateID string  `json:"template_id"`
	Score      float32 `json:"score"`
	Rank       int     `json:"rank"`
}

// SuggestCmd creates the suggest command.
func SuggestCmd() *cobra.Command {
	var topK int

	cmd := &cobra.Command{
		Use:   "suggest <document-id>",
		Short: "Rank templates against a document's content",
		Long:  "Ranks catalog templates by similarity to the document's stored chunks. The document must have completed ingestion.",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			outputJSON, _ := cmd.Flags().GetBool("output")
			return runSuggest(cmd, args[0], topK, outputJSON)
		},
	}

	cmd.Flags().IntVarP(&topK, "top-k", "k", 0, "Number of suggestions to return (default: server setting)")

	return cmd
}

func runSuggest(cmd *cobra.Command, documentID string, topK int, outputJSON bool) error {
	api, err := NewAPIClient(cmd)
	if err != nil {
		return err
	}

	path := "/documents/" + url.PathEscape(documentID) + "/suggestions"
	if topK > 0 {
		path += "?top_k=" + strconv.Itoa(topK)
	}

	resp, err := api.Get(path)
	if err != nil {
		return fmt.Errorf("suggest failed: %w", err)
	}

	var results []SuggestionResult
	if err := json.Unmarshal(resp.Data, &results); err != nil {
		return fmt.Errorf("failed to parse response: %w", err)
	}

	if outputJSON {
		output, _ := json.MarshalIndent(results, "", "  ")
		fmt.Println(string(output))
		return nil
	}

	if len(results) == 0 {
		fmt.Println("No suggestions (the template catalog may be empty).")
		return nil
	}

	for _, result := range results {
		fmt.Printf("%d. %s (%.3f)\n", result.Rank, result.TemplateID, result.Score)
	}

	return nil
}
