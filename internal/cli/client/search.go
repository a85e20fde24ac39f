package client

import (
	"encoding/json"
	"fmt"
	"strings"

	"github.com/spf13/cobra"
)

// SearchRequest represents the search API request.
type SearchRequest struct {
	Query      string   `json:"query"`
	TopK       int      `json:"top_k,omitempty"`
	Threshold  *float32 `json:"threshold,omitempty"`
	DocumentID string   `json:"document_id,omitempty"`
}

// ChunkMatch represents one search result.
type ChunkMatch struct {
	ChunkID    string  `json:"chunk_id"`
	DocumentID string  `json:"document_id"`
	ChunkIndex int     `json:"chunk_index"`
	Content    string  `json:"content"`
	Score      float32 `json:"score"`
}

// SearchCmd creates the search command.
func SearchCmd() *cobra.Command {
	var (
		topK       int
		threshold  float32
		documentID string
	)

	cmd := &cobra.Command{
		Use:   "search <query>",
		Short: "Search stored chunks by semantic similarity",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			outputJSON, _ := cmd.Flags().GetBool("output")
			var thresholdPtr *float32
			if cmd.Flags().Changed("threshold") {
				thresholdPtr = &threshold
			}
			return runSearch(cmd, args[0], topK, thresholdPtr, documentID, outputJSON)
		},
	}

	cmd.Flags().IntVarP(&topK, "limit", "n", 0, "Maximum number of results (default: server setting)")
	cmd.Flags().Float32Var(&threshold, "threshold", 0, "Minimum similarity score in [0, 1] (default: server setting)")
	cmd.Flags().StringVarP(&documentID, "document", "d", "", "Restrict the search to one document")

	return cmd
}

func runSearch(cmd *cobra.Command, query string, topK int, threshold *float32, documentID string, outputJSON bool) error {
	api, err := NewAPIClient(cmd)
	if err != nil {
		return err
	}

	req := SearchRequest{
		Query:      query,
		TopK:       topK,
		Threshold:  threshold,
		DocumentID: documentID,
	}

	resp, err := api.Post("/search", req)
	if err != nil {
		return fmt.Errorf("search failed: %w", err)
	}

	var matches []ChunkMatch
	if err := json.Unmarshal(resp.Data, &matches); err != nil {
		return fmt.Errorf("failed to parse response: %w", err)
	}

	if outputJSON {
		output, _ := json.MarshalIndent(matches, "", "  ")
		fmt.Println(string(output))
		return nil
	}

	if len(matches) == 0 {
		fmt.Println("No results found.")
		return nil
	}

	fmt.Printf("Found %d results:\n\n", len(matches))
	for i, match := range matches {
		content := match.Content
		if len(content) > 120 {
			content = content[:117] + "..."
		}
		fmt.Printf("%d. [%.3f] %s#%d\n", i+1, match.Score, match.DocumentID, match.ChunkIndex)
		fmt.Printf("   %s\n", content)
		if i < len(matches)-1 {
			fmt.Println(strings.Repeat("-", 40))
		}
	}

	return nil
}
