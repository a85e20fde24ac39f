package client

import (
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/spf13/cobra"
)

// DocumentResponse mirrors the API's document payload.
type DocumentResponse struct {
	ID        string            `json:"id"`
	Filename  string            `json:"filename"`
	FileType  string            `json:"file_type"`
	Status    string            `json:"status"`
	Error     string            `json:"error,omitempty"`
	Metadata  map[string]string `json:"metadata,omitempty"`
	CreatedAt string            `json:"created_at"`
	UpdatedAt string            `json:"updated_at"`
}

// IngestCmd creates the ingest command.
func IngestCmd() *cobra.Command {
	var contentType string

	cmd := &cobra.Command{
		Use:   "ingest <file>",
		Short: "Upload a document for ingestion",
		Long:  "Uploads a file and starts the chunk-and-embed pipeline. The document is returned in the pending state; poll 'get' for the outcome.",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			outputJSON, _ := cmd.Flags().GetBool("output")
			return runIngest(cmd, args[0], contentType, outputJSON)
		},
	}

	cmd.Flags().StringVarP(&contentType, "type", "t", "", "Declared content type (default: derived from the file extension)")

	return cmd
}

func runIngest(cmd *cobra.Command, path, contentType string, outputJSON bool) error {
	data, err := os.ReadFile(path)
	if err != nil {
		return fmt.Errorf("failed to read file: %w", err)
	}

	if contentType == "" {
		contentType = contentTypeForExtension(path)
		if contentType == "" {
			return fmt.Errorf("cannot derive content type for %q, use --type", filepath.Base(path))
		}
	}

	api, err := NewAPIClient(cmd)
	if err != nil {
		return err
	}

	resp, err := api.PostFile("/documents", filepath.Base(path), contentType, data)
	if err != nil {
		return fmt.Errorf("ingest failed: %w", err)
	}

	var doc DocumentResponse
	if err := json.Unmarshal(resp.Data, &doc); err != nil {
		return fmt.Errorf("failed to parse response: %w", err)
	}

	if outputJSON {
		output, _ := json.MarshalIndent(doc, "", "  ")
		fmt.Println(string(output))
	} else {
		fmt.Printf("Accepted %s (%s)\n", doc.Filename, doc.FileType)
		fmt.Printf("  ID:     %s\n", doc.ID)
		fmt.Printf("  Status: %s\n", doc.Status)
		fmt.Printf("\nPoll with: draftwise get %s\n", doc.ID)
	}

	return nil
}

func contentTypeForExtension(path string) string {
	switch strings.ToLower(filepath.Ext(path)) {
	case ".txt":
		return "text/plain"
	case ".md", ".markdown":
		return "text/markdown"
	case ".pdf":
		return "application/pdf"
	default:
		return ""
	}
}
