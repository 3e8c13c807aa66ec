package main

import (
	"context"
	"fmt"

	"github.com/spf13/cobra"

	"github.com/jonathan/knapsack-search/internal/observability"
	"github.com/jonathan/knapsack-search/internal/server"
)

var (
	servePort     int
	serveStrategy string
)

var serveCmd = &cobra.Command{
	Use:   "serve",
	Short: "Start the REST API server",
	Long:  `Start an HTTP server that exposes the solvers, dataset evaluation, run history and prometheus metrics.`,
	RunE:  runServe,
}

func init() {
	serveCmd.Flags().IntVar(&servePort, "port", 0, "Port to listen on (default from config, 8080)")
	serveCmd.Flags().StringVar(&serveStrategy, "strategy", "", "Default strategy for /solve (default local-search)")
	rootCmd.AddCommand(serveCmd)
}

func runServe(_ *cobra.Command, _ []string) error {
	ctx := context.Background()

	registry, err := newRegistry()
	if err != nil {
		return err
	}

	port := appConfig.Port
	if servePort > 0 {
		port = servePort
	}

	cfg := server.Config{
		Port:            port,
		Registry:        registry,
		DefaultStrategy: serveStrategy,
		Evaluation:      appConfig.EvaluationOptions(),
		Metrics:         observability.NewMetrics(),
		Logger:          logger,
	}

	// Run history is optional
	if database := connectDatabase(ctx); database != nil {
		defer database.Close() //nolint:errcheck
		cfg.Runs = database
	}

	srv, err := server.New(cfg)
	if err != nil {
		return fmt.Errorf("failed to create server: %w", err)
	}

	return srv.Start(ctx)
}
