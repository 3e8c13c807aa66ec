package main

import (
	"context"
	"fmt"
	"time"

	"github.com/spf13/cobra"

	"github.com/jonathan/knapsack-search/internal/observability"
	"github.com/jonathan/knapsack-search/internal/pipeline"
	"github.com/jonathan/knapsack-search/internal/results"
)

var tournamentCmd = &cobra.Command{
	Use:   "tournament",
	Short: "Evaluate several strategies over one dataset and rank them",
	RunE:  runTournament,
}

var (
	tourDataset    string
	tourStrategies string
	tourOutDir     string
	tourTimeout    time.Duration
	tourBaseline   bool
	tourSummary    string
	tourScoreFails bool
)

func init() {
	tournamentCmd.Flags().StringVarP(&tourDataset, "dataset", "d", "", "Path to dataset JSON (required)")
	tournamentCmd.Flags().StringVar(&tourStrategies, "strategies", "", "Comma-separated strategy names (default all)")
	tournamentCmd.Flags().StringVar(&tourOutDir, "out-dir", "", "Results directory (default from config)")
	tournamentCmd.Flags().DurationVar(&tourTimeout, "timeout", 0, "Per-strategy deadline (default from config, 120s)")
	tournamentCmd.Flags().BoolVar(&tourBaseline, "baseline", false, "Compare against the exact solver where feasible")
	tournamentCmd.Flags().StringVar(&tourSummary, "summary", "", "Also write the summary JSON here")
	tournamentCmd.Flags().BoolVar(&tourScoreFails, "score-failures", false, "Score failed instances as empty selections instead of failing the report")

	if err := tournamentCmd.MarkFlagRequired("dataset"); err != nil {
		panic(fmt.Sprintf("failed to mark dataset flag as required: %v", err))
	}

	rootCmd.AddCommand(tournamentCmd)
}

func runTournament(cmd *cobra.Command, _ []string) error {
	ctx := context.Background()

	registry, err := newRegistry()
	if err != nil {
		return err
	}

	// CSV rows go through the store; the database tracks each run as it happens
	outDir := tourOutDir
	if outDir == "" {
		outDir = appConfig.OutputDir
	}
	csvStore, err := results.Open(outDir)
	if err != nil {
		return err
	}
	defer csvStore.Close() //nolint:errcheck

	evalOpts := appConfig.EvaluationOptions()
	if tourTimeout > 0 {
		evalOpts.Timeout = tourTimeout
	}
	if tourBaseline {
		evalOpts.Baseline = true
	}
	if tourScoreFails {
		evalOpts.ScoreFailures = true
	}

	out := cmd.OutOrStdout()
	runOpts := pipeline.RunOptions{
		DatasetPath: tourDataset,
		Registry:    registry,
		Strategies:  splitList(tourStrategies),
		Evaluation:  evalOpts,
		Stores:      []results.Store{csvStore},
		Logger:      logger,
		OnProgress: func(event pipeline.ProgressEvent) {
			if appConfig.Verbose {
				fmt.Fprintf(cmd.ErrOrStderr(), "[%s] %s\n", event.Step, event.Message)
			}
		},
	}
	if database := connectDatabase(ctx); database != nil {
		defer database.Close() //nolint:errcheck
		runOpts.Tracker = database
	}

	summary, err := pipeline.Run(ctx, runOpts)
	if err != nil {
		return err
	}

	printer := observability.NewPrinter(out)
	printer.PrintStandings(summary.Reports)
	if summary.BestStrategy != "" {
		fmt.Fprintf(out, "Best: %s (%.4f), success rate %.0f%%\n",
			summary.BestStrategy, summary.BestScore, summary.SuccessRate*100)
	} else {
		fmt.Fprintln(out, "No strategy completed successfully")
	}

	if tourSummary != "" {
		return writeJSON(tourSummary, summary)
	}
	return nil
}
