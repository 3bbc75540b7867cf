// Package main provides the entry point for the a11y_audit CLI and HTTP server.
package main

import (
	"fmt"
	"os"

	"github.com/joho/godotenv"
	"github.com/spf13/cobra"
)

var rootCmd = &cobra.Command{
	Use:   "a11y_audit",
	Short: "Live-page accessibility audits",
	Long: `a11y_audit loads a page in headless Chrome, instruments it before any page script runs,
and reports nine accessibility checks against the rendered document.

Settings are read from A11Y_* environment variables (a .env file is loaded if present),
an optional --config file, and finally command-line flags.`,
	SilenceUsage: true,
}

func main() {
	// Load .env file if it exists
	_ = godotenv.Load()

	if err := rootCmd.Execute(); err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(1)
	}
}
