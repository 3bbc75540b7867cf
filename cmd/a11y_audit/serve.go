package main

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/jonathan/a11y-audit/internal/server"
)

var servePort int

var serveCmd = &cobra.Command{
	Use:   "serve",
	Short: "Start the HTTP audit server",
	Long: `Start an HTTP server exposing GET /audit?url=, GET /audit/stream?url= (server-sent events)
and GET /health.`,
	RunE: runServe,
}

func init() {
	serveCmd.Flags().IntVar(&servePort, "port", 0, "Port to listen on (env A11Y_PORT, default 8080)")
	rootCmd.AddCommand(serveCmd)
}

func runServe(cmd *cobra.Command, _ []string) error {
	cfg, err := loadConfig(cmd)
	if err != nil {
		return err
	}
	if cmd.Flags().Changed("port") {
		cfg.Port = servePort
		if err := cfg.Validate(); err != nil {
			return err
		}
	}

	logger, err := newLogger(cfg)
	if err != nil {
		return err
	}
	defer func() { _ = logger.Sync() }()

	srv := server.New(server.Config{
		Port:   cfg.Port,
		Runner: newAuditor(cfg, logger),
		Logger: logger,
	})
	if err := srv.Start(); err != nil {
		return fmt.Errorf("server stopped: %w", err)
	}
	return nil
}
