package main

import (
	"context"
	"fmt"
	"time"

	"github.com/spf13/cobra"

	"github.com/jonathan/knapsack-search/internal/evaluation"
	"github.com/jonathan/knapsack-search/internal/generator"
	"github.com/jonathan/knapsack-search/internal/observability"
	"github.com/jonathan/knapsack-search/internal/strategy"
)

var evaluateCmd = &cobra.Command{
	Use:   "evaluate",
	Short: "Score one strategy over a dataset",
	Long:  "Runs a strategy over every sample of a dataset, scores it and appends the report to the results directory (and database, if configured).",
	RunE:  runEvaluate,
}

var (
	evalDataset     string
	evalStrategy    string
	evalTimeout     time.Duration
	evalOutDir      string
	evalBaseline    bool
	evalConcurrency int
	evalReport      string
	evalScoreFails  bool
)

func init() {
	evaluateCmd.Flags().StringVarP(&evalDataset, "dataset", "d", "", "Path to dataset JSON (required)")
	evaluateCmd.Flags().StringVarP(&evalStrategy, "strategy", "s", strategy.NameLocalSearch, "Strategy name")
	evaluateCmd.Flags().DurationVar(&evalTimeout, "timeout", 0, "Whole-dataset deadline (default from config, 120s)")
	evaluateCmd.Flags().StringVar(&evalOutDir, "out-dir", "", "Results directory (default from config)")
	evaluateCmd.Flags().BoolVar(&evalBaseline, "baseline", false, "Compare against the exact solver where feasible")
	evaluateCmd.Flags().IntVar(&evalConcurrency, "concurrency", 0, "Parallel solves (default GOMAXPROCS)")
	evaluateCmd.Flags().StringVar(&evalReport, "report", "", "Also write the full report JSON here")
	evaluateCmd.Flags().BoolVar(&evalScoreFails, "score-failures", false, "Score failed instances as empty selections instead of failing the report")

	if err := evaluateCmd.MarkFlagRequired("dataset"); err != nil {
		panic(fmt.Sprintf("failed to mark dataset flag as required: %v", err))
	}

	rootCmd.AddCommand(evaluateCmd)
}

func runEvaluate(cmd *cobra.Command, _ []string) error {
	ctx := context.Background()

	// 1. Load dataset and strategy
	ds, err := generator.LoadDataset(evalDataset)
	if err != nil {
		return err
	}
	registry, err := newRegistry()
	if err != nil {
		return err
	}
	strat, err := registry.Get(evalStrategy)
	if err != nil {
		return err
	}

	// 2. Evaluate
	opts := appConfig.EvaluationOptions()
	opts.Dataset = ds.Name
	opts.Logger = logger
	if evalTimeout > 0 {
		opts.Timeout = evalTimeout
	}
	if evalBaseline {
		opts.Baseline = true
	}
	if evalConcurrency > 0 {
		opts.Concurrency = evalConcurrency
	}
	if evalScoreFails {
		opts.ScoreFailures = true
	}

	report, err := evaluation.Evaluate(ctx, strat, ds.Samples, opts)
	if err != nil {
		return err
	}

	// 3. Persist
	stores, err := openStores(ctx, evalOutDir)
	if err != nil {
		return err
	}
	defer stores.Close() //nolint:errcheck
	if err := stores.Append(ctx, report); err != nil {
		logger.Warn("failed to persist report", "error", err)
	}
	if evalReport != "" {
		if err := writeJSON(evalReport, report); err != nil {
			return err
		}
	}

	observability.NewPrinter(cmd.OutOrStdout()).PrintReport(report)

	if report.Status != evaluation.StatusOK {
		return fmt.Errorf("evaluation finished with status %s: %s", report.Status, report.Error)
	}
	return nil
}
