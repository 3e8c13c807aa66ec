package main

import (
	"context"
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/jonathan/knapsack-search/internal/db"
	"github.com/jonathan/knapsack-search/internal/results"
	"github.com/jonathan/knapsack-search/internal/strategy"
)

// newRegistry builds the default strategies from the engine config
func newRegistry() (*strategy.Registry, error) {
	opts, err := appConfig.EngineOptions()
	if err != nil {
		return nil, err
	}
	opts.Logger = logger
	return strategy.Default(opts), nil
}

// connectDatabase opens the run store when a database URL is configured.
// A failed connection is logged and the command continues without it.
func connectDatabase(ctx context.Context) *db.DB {
	if appConfig.DatabaseURL == "" {
		return nil
	}
	database, err := db.Connect(ctx, appConfig.DatabaseURL)
	if err != nil {
		logger.Warn("continuing without database persistence", "error", err)
		return nil
	}
	if err := database.EnsureSchema(ctx); err != nil {
		logger.Warn("continuing without database persistence", "error", err)
		_ = database.Close()
		return nil
	}
	logger.Debug("connected to database")
	return database
}

// openStores opens the CSV store in outDir and, if configured, the database.
// Close the returned store when done.
func openStores(ctx context.Context, outDir string) (results.Multi, error) {
	if outDir == "" {
		outDir = appConfig.OutputDir
	}
	csvStore, err := results.Open(outDir)
	if err != nil {
		return nil, err
	}
	stores := results.Multi{csvStore}
	if database := connectDatabase(ctx); database != nil {
		stores = append(stores, database)
	}
	return stores, nil
}

// splitList parses a comma-separated flag value
func splitList(value string) []string {
	var out []string
	for _, part := range strings.Split(value, ",") {
		if part = strings.TrimSpace(part); part != "" {
			out = append(out, part)
		}
	}
	return out
}

// writeJSON writes v as indented JSON to path
func writeJSON(path string, v any) error {
	data, err := json.MarshalIndent(v, "", "  ")
	if err != nil {
		return fmt.Errorf("failed to marshal JSON: %w", err)
	}
	return writeOutput(path, data)
}

// writeOutput writes data to path, creating parent directories
func writeOutput(path string, data []byte) error {
	if dir := filepath.Dir(path); dir != "." {
		if err := os.MkdirAll(dir, 0755); err != nil {
			return fmt.Errorf("failed to create output directory: %w", err)
		}
	}
	if err := os.WriteFile(path, data, 0644); err != nil {
		return fmt.Errorf("failed to write output file: %w", err)
	}
	return nil
}
