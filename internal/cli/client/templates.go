package client

import (
	"encoding/json"
	"fmt"
	"net/url"
	"strings"

	"github.com/spf13/cobra"
)

// TemplateResponse mirrors the API's template payload.
type TemplateResponse struct {
	ID          string            `json:"id"`
	Name        string            `json:"name"`
	Description string            `json:"description"`
	FileType    string            `json:"file_type"`
	Variables   []string          `json:"variables,omitempty"`
	Metadata    map[string]string `json:"metadata,omitempty"`
}

// TemplatesCmd creates the templates command group.
func TemplatesCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "templates",
		Short: "Inspect and refresh the template catalog",
	}

	cmd.AddCommand(templatesListCmd())
	cmd.AddCommand(templatesGetCmd())
	cmd.AddCommand(templatesRefreshCmd())

	return cmd
}

func templatesListCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "list",
		Short: "List catalog templates",
		RunE: func(cmd *cobra.Command, args []string) error {
			outputJSON, _ := cmd.Flags().GetBool("output")
			return runTemplatesList(cmd, outputJSON)
		},
	}
}

func runTemplatesList(cmd *cobra.Command, outputJSON bool) error {
	api, err := NewAPIClient(cmd)
	if err != nil {
		return err
	}

	resp, err := api.Get("/templates")
	if err != nil {
		return fmt.Errorf("templates list failed: %w", err)
	}

	var templates []TemplateResponse
	if err := json.Unmarshal(resp.Data, &templates); err != nil {
		return fmt.Errorf("failed to parse response: %w", err)
	}

	if outputJSON {
		output, _ := json.MarshalIndent(templates, "", "  ")
		fmt.Println(string(output))
		return nil
	}

	if len(templates) == 0 {
		fmt.Println("Catalog is empty.")
		return nil
	}

	for _, tmpl := range templates {
		fmt.Printf("%-20s  %s\n", tmpl.ID, tmpl.Name)
	}

	return nil
}

func templatesGetCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "get <template-id>",
		Short: "Show one catalog template",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			outputJSON, _ := cmd.Flags().GetBool("output")
			return runTemplatesGet(cmd, args[0], outputJSON)
		},
	}
}

func runTemplatesGet(cmd *cobra.Command, id string, outputJSON bool) error {
	api, err := NewAPIClient(cmd)
	if err != nil {
		return err
	}

	resp, err := api.Get("/templates/" + url.PathEscape(id))
	if err != nil {
		return fmt.Errorf("templates get failed: %w", err)
	}

	var tmpl TemplateResponse
	if err := json.Unmarshal(resp.Data, &tmpl); err != nil {
		return fmt.Errorf("failed to parse response: %w", err)
	}

	if outputJSON {
		output, _ := json.MarshalIndent(tmpl, "", "  ")
		fmt.Println(string(output))
		return nil
	}

	fmt.Printf("ID:          %s\n", tmpl.ID)
	fmt.Printf("Name:        %s\n", tmpl.Name)
	if tmpl.Description != "" {
		fmt.Printf("Description: %s\n", tmpl.Description)
	}
	fmt.Printf("Type:        %s\n", tmpl.FileType)
	if len(tmpl.Variables) > 0 {
		fmt.Printf("Variables:   %s\n", strings.Join(tmpl.Variables, ", "))
	}

	return nil
}

func templatesRefreshCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "refresh",
		Short: "Reload the catalog from the templates directory",
		RunE: func(cmd *cobra.Command, args []string) error {
			return runTemplatesRefresh(cmd)
		},
	}
}

func runTemplatesRefresh(cmd *cobra.Command) error {
	api, err := NewAPIClient(cmd)
	if err != nil {
		return err
	}

	resp, err := api.Post("/templates/refresh", nil)
	if err != nil {
		return fmt.Errorf("templates refresh failed: %w", err)
	}

	var result struct {
		Templates int `json:"templates"`
	}
	if err := json.Unmarshal(resp.Data, &result); err != nil {
		return fmt.Errorf("failed to parse response: %w", err)
	}

	fmt.Printf("Catalog refreshed: %d templates\n", result.Templates)
	return nil
}
