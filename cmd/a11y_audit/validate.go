package main

import (
	"bytes"
	"encoding/json"
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"github.com/jonathan/a11y-audit/internal/schemas"
)

var validateJSONPath string

var validateCmd = &cobra.Command{
	Use:   "validate",
	Short: "Validate a saved JSON report against the report schema",
	Long:  `Validate a report written by "audit --format json". The file may hold one report or an array of reports.`,
	RunE:  runValidate,
}

func init() {
	validateCmd.Flags().StringVar(&validateJSONPath, "json", "", "Path to the JSON report")
	_ = validateCmd.MarkFlagRequired("json")
	rootCmd.AddCommand(validateCmd)
}

func runValidate(cmd *cobra.Command, _ []string) error {
	data, err := os.ReadFile(validateJSONPath)
	if err != nil {
		return fmt.Errorf("failed to read report: %w", err)
	}

	documents := []json.RawMessage{data}
	if trimmed := bytes.TrimSpace(data); len(trimmed) > 0 && trimmed[0] == '[' {
		if err := json.Unmarshal(trimmed, &documents); err != nil {
			return fmt.Errorf("failed to parse report array: %w", err)
		}
	}

	for i, doc := range documents {
		if err := schemas.ValidateReportJSON(doc); err != nil {
			if len(documents) > 1 {
				return fmt.Errorf("validation failed for report %d: %w", i+1, err)
			}
			return fmt.Errorf("validation failed: %w", err)
		}
	}

	_, _ = fmt.Fprintf(cmd.OutOrStdout(), "Validation passed (%d report(s))\n", len(documents))
	return nil
}
