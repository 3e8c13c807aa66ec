package main

import (
	"encoding/json"
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"github.com/jonathan/knapsack-search/internal/observability"
	"github.com/jonathan/knapsack-search/internal/schemas"
	"github.com/jonathan/knapsack-search/internal/selection"
	"github.com/jonathan/knapsack-search/internal/strategy"
	"github.com/jonathan/knapsack-search/internal/types"
)

var solveCmd = &cobra.Command{
	Use:   "solve",
	Short: "Solve a single knapsack instance",
	Long:  "Reads an instance JSON file ({weights, values, capacity}), solves it with the chosen strategy and writes the result JSON.",
	RunE:  runSolve,
}

var (
	solveInput    string
	solveStrategy string
	solveOutput   string
)

func init() {
	solveCmd.Flags().StringVarP(&solveInput, "input", "i", "", "Path to instance JSON file (required)")
	solveCmd.Flags().StringVarP(&solveStrategy, "strategy", "s", strategy.NameLocalSearch, "Strategy name")
	solveCmd.Flags().StringVarP(&solveOutput, "out", "o", "", "Path to output result JSON (default stdout)")

	if err := solveCmd.MarkFlagRequired("input"); err != nil {
		panic(fmt.Sprintf("failed to mark input flag as required: %v", err))
	}

	rootCmd.AddCommand(solveCmd)
}

func runSolve(cmd *cobra.Command, _ []string) error {
	// 1. Read and validate input
	data, err := os.ReadFile(solveInput)
	if err != nil {
		return fmt.Errorf("failed to read input file: %w", err)
	}
	if err := schemas.ValidateDocument(schemas.InstanceSchema, data); err != nil {
		return fmt.Errorf("invalid instance: %w", err)
	}
	var in types.InstanceInput
	if err := json.Unmarshal(data, &in); err != nil {
		return fmt.Errorf("failed to parse instance: %w", err)
	}

	// 2. Resolve strategy
	registry, err := newRegistry()
	if err != nil {
		return err
	}
	strat, err := registry.Get(solveStrategy)
	if err != nil {
		return err
	}

	// 3. Solve
	var (
		res   types.Result
		stats *selection.Stats
	)
	if runner, ok := strat.(strategy.StatsRunner); ok {
		r, st := runner.Run(in)
		res, stats = r, &st
	} else {
		res = strat.Solve(in)
	}

	// 4. Check and write output
	out, err := json.MarshalIndent(res, "", "  ")
	if err != nil {
		return fmt.Errorf("failed to marshal result: %w", err)
	}
	if err := schemas.ValidateDocument(schemas.ResultSchema, out); err != nil {
		return fmt.Errorf("solver produced an invalid result: %w", err)
	}

	printer := observability.NewPrinter(cmd.ErrOrStderr())
	if solveOutput != "" {
		if err := writeOutput(solveOutput, out); err != nil {
			return err
		}
		printer = observability.NewPrinter(cmd.OutOrStdout())
	} else if _, err := fmt.Fprintln(cmd.OutOrStdout(), string(out)); err != nil {
		return fmt.Errorf("failed to write result: %w", err)
	}
	if solveOutput != "" || appConfig.Verbose {
		printer.PrintResult(strat.Name(), in, res, stats)
	}

	if res.Failed() {
		return fmt.Errorf("solve failed: %s", res.Error)
	}
	return nil
}
