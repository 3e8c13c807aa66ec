package main

import (
	"github.com/spf13/cobra"

	"github.com/jonathan/knapsack-search/internal/observability"
)

var strategiesCmd = &cobra.Command{
	Use:   "strategies",
	Short: "List the registered strategies",
	RunE:  runStrategies,
}

func init() {
	rootCmd.AddCommand(strategiesCmd)
}

func runStrategies(cmd *cobra.Command, _ []string) error {
	registry, err := newRegistry()
	if err != nil {
		return err
	}
	observability.NewPrinter(cmd.OutOrStdout()).PrintStrategies(registry.Definitions())
	return nil
}
