// Package main provides the knapsack CLI: solving, dataset generation,
// evaluation, tournaments and the HTTP API server.
package main

import (
	"fmt"
	"io"
	"log/slog"
	"os"

	"github.com/joho/godotenv"
	"github.com/spf13/cobra"

	"github.com/jonathan/knapsack-search/internal/config"
	"github.com/jonathan/knapsack-search/internal/observability"
)

var (
	configPath  string
	logLevel    string
	logFile     string
	verbose     bool
	databaseURL string
)

// Set by the root pre-run for every subcommand
var (
	appConfig *config.Config
	logger    = slog.Default()
	logCloser io.Closer
)

var rootCmd = &cobra.Command{
	Use:   "knapsack",
	Short: "0/1 knapsack local search and evaluation harness",
	Long: "knapsack solves 0/1 knapsack instances with a density greedy plus neighborhood local search, " +
		"generates synthetic datasets, scores strategies against them and serves the solvers over HTTP.",
	SilenceUsage:       true,
	PersistentPreRunE:  setup,
	PersistentPostRunE: teardown,
}

func init() {
	rootCmd.PersistentFlags().StringVar(&configPath, "config", "", "Path to JSON config file")
	rootCmd.PersistentFlags().StringVar(&logLevel, "log-level", "", "Log level: debug, info, warn, error")
	rootCmd.PersistentFlags().StringVar(&logFile, "log-file", "", "Rotating log file (default stderr)")
	rootCmd.PersistentFlags().BoolVarP(&verbose, "verbose", "v", false, "Print detailed output")
	rootCmd.PersistentFlags().StringVar(&databaseURL, "database-url", "", "PostgreSQL URL for run history (default $DATABASE_URL)")
}

// setup loads configuration, applies flag overrides and installs the logger
func setup(cmd *cobra.Command, _ []string) error {
	cfg, err := config.Load(configPath)
	if err != nil {
		return err
	}

	flags := cmd.Flags()
	if flags.Changed("log-level") {
		cfg.Log.Level = logLevel
	}
	if flags.Changed("log-file") {
		cfg.Log.File = logFile
	}
	if flags.Changed("verbose") {
		cfg.Verbose = verbose
	}
	if flags.Changed("database-url") {
		cfg.DatabaseURL = databaseURL
	}
	if err := cfg.Validate(); err != nil {
		return err
	}

	appConfig = cfg
	logger, logCloser = observability.NewLogger(cfg.Log)
	slog.SetDefault(logger)
	return nil
}

func teardown(_ *cobra.Command, _ []string) error {
	if logCloser != nil {
		return logCloser.Close()
	}
	return nil
}

func main() {
	// Load .env file if it exists
	_ = godotenv.Load()

	if err := rootCmd.Execute(); err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(1)
	}
}
