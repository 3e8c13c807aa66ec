// Package config provides configuration loading and validation for the CLI and server.
package config

import (
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/go-playground/validator/v10"

	"github.com/jonathan/knapsack-search/internal/evaluation"
	"github.com/jonathan/knapsack-search/internal/generator"
	"github.com/jonathan/knapsack-search/internal/selection"
)

// Environment variables that override file values
const (
	EnvDatabaseURL = "DATABASE_URL"
	EnvLogLevel    = "KNAPSACK_LOG_LEVEL"
	EnvLogFile     = "KNAPSACK_LOG_FILE"
)

// DefaultPort is the HTTP port when none is configured
const DefaultPort = 8080

// Config represents the configuration that can be loaded from a JSON file.
// All fields are optional; missing values use defaults or CLI flags.
type Config struct {
	Engine      EngineConfig      `json:"engine"`
	Evaluation  EvaluationConfig  `json:"evaluation"`
	Generator   *generator.Config `json:"generator,omitempty" validate:"omitempty"`
	Log         LogConfig         `json:"log"`
	DatabaseURL string            `json:"database_url,omitempty"` // PostgreSQL connection URL
	OutputDir   string            `json:"output_dir,omitempty"`   // Directory for CSV results
	Port        int               `json:"port,omitempty" validate:"gte=0,lte=65535"`
	Verbose     bool              `json:"verbose,omitempty"`
}

// EngineConfig tunes the local search. The size cutoffs are pointers so an
// explicit 0 (no cutoff) survives the merge with defaults.
type EngineConfig struct {
	Operators         []string `json:"operators,omitempty"` // case-insensitive, checked by Validate
	MaxPasses         int      `json:"max_passes,omitempty" validate:"gte=0"`
	OneForKMaxItems   *int     `json:"one_for_k_max_items,omitempty" validate:"omitempty,gte=0"`
	TwoForOneMaxItems *int     `json:"two_for_one_max_items,omitempty" validate:"omitempty,gte=0"`
	TimeBudgetMS      int      `json:"time_budget_ms,omitempty" validate:"gte=0"`
}

// EvaluationConfig controls dataset evaluation
type EvaluationConfig struct {
	TimeoutSeconds   float64 `json:"timeout_seconds,omitempty" validate:"gte=0"`
	Concurrency      int     `json:"concurrency,omitempty" validate:"gte=0"`
	Baseline         bool    `json:"baseline,omitempty"`
	BaselineMaxCells int64   `json:"baseline_max_cells,omitempty" validate:"gte=0"`
	ScoreFailures    bool    `json:"score_failures,omitempty"` // score failed instances as empty selections
}

// LogConfig controls structured logging and log file rotation
type LogConfig struct {
	Level      string `json:"level,omitempty" validate:"omitempty,oneof=debug info warn error"`
	File       string `json:"file,omitempty"`
	MaxSizeMB  int    `json:"max_size_mb,omitempty" validate:"gte=0"`
	MaxBackups int    `json:"max_backups,omitempty" validate:"gte=0"`
	MaxAgeDays int    `json:"max_age_days,omitempty" validate:"gte=0"`
	Compress   bool   `json:"compress,omitempty"`
	JSON       bool   `json:"json,omitempty"`
}

// Default returns the built-in configuration
func Default() Config {
	return Config{
		Engine: EngineConfig{
			OneForKMaxItems:   intPtr(selection.DefaultOneForKMaxItems),
			TwoForOneMaxItems: intPtr(selection.DefaultTwoForOneMaxItems),
		},
		Evaluation: EvaluationConfig{
			TimeoutSeconds: evaluation.DefaultTimeout.Seconds(),
		},
		Log: LogConfig{
			Level:      "info",
			MaxSizeMB:  100,
			MaxBackups: 3,
			MaxAgeDays: 28,
		},
		OutputDir: "results",
		Port:      DefaultPort,
	}
}

// LoadConfig loads configuration from a JSON file.
// Returns an error if the file cannot be read or parsed.
func LoadConfig(path string) (*Config, error) {
	if path == "" {
		return nil, fmt.Errorf("config path is empty")
	}

	if !filepath.IsAbs(path) {
		cwd, err := os.Getwd()
		if err != nil {
			return nil, fmt.Errorf("failed to get current directory: %w", err)
		}
		path = filepath.Join(cwd, path)
	}

	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to read config file %s: %w", path, err)
	}

	var cfg Config
	if err := json.Unmarshal(data, &cfg); err != nil {
		return nil, fmt.Errorf("failed to parse config JSON: %w", err)
	}

	return &cfg, nil
}

// Load reads the optional config file, fills defaults, applies
// environment overrides and validates the result.
func Load(path string) (*Config, error) {
	cfg := &Config{}
	if path != "" {
		loaded, err := LoadConfig(path)
		if err != nil {
			return nil, err
		}
		cfg = loaded
	}

	merged := cfg.MergeWithDefaults(Default())
	merged.ApplyEnv()
	if err := merged.Validate(); err != nil {
		return nil, err
	}
	return &merged, nil
}

// Validate checks that the configuration has valid values
func (c *Config) Validate() error {
	if err := validator.New().Struct(c); err != nil {
		var verrs validator.ValidationErrors
		if errors.As(err, &verrs) && len(verrs) > 0 {
			fe := verrs[0]
			return fmt.Errorf("config error: '%s' failed '%s' check", fe.Namespace(), fe.Tag())
		}
		return fmt.Errorf("config error: %w", err)
	}
	if _, err := c.Engine.operatorKinds(); err != nil {
		return err
	}
	if c.Generator != nil {
		if err := c.Generator.Validate(); err != nil {
			return fmt.Errorf("config error: generator: %w", err)
		}
	}
	return nil
}

// MergeWithDefaults returns a new Config with zero fields filled from defaults
func (c *Config) MergeWithDefaults(defaults Config) Config {
	result := *c

	if len(result.Engine.Operators) == 0 {
		result.Engine.Operators = defaults.Engine.Operators
	}
	if result.Engine.MaxPasses == 0 {
		result.Engine.MaxPasses = defaults.Engine.MaxPasses
	}
	if result.Engine.OneForKMaxItems == nil {
		result.Engine.OneForKMaxItems = defaults.Engine.OneForKMaxItems
	}
	if result.Engine.TwoForOneMaxItems == nil {
		result.Engine.TwoForOneMaxItems = defaults.Engine.TwoForOneMaxItems
	}
	if result.Engine.TimeBudgetMS == 0 {
		result.Engine.TimeBudgetMS = defaults.Engine.TimeBudgetMS
	}

	if result.Evaluation.TimeoutSeconds == 0 {
		result.Evaluation.TimeoutSeconds = defaults.Evaluation.TimeoutSeconds
	}
	if result.Evaluation.Concurrency == 0 {
		result.Evaluation.Concurrency = defaults.Evaluation.Concurrency
	}
	if result.Evaluation.BaselineMaxCells == 0 {
		result.Evaluation.BaselineMaxCells = defaults.Evaluation.BaselineMaxCells
	}

	if result.Generator == nil {
		result.Generator = defaults.Generator
	}

	if result.Log.Level == "" {
		result.Log.Level = defaults.Log.Level
	}
	if result.Log.File == "" {
		result.Log.File = defaults.Log.File
	}
	if result.Log.MaxSizeMB == 0 {
		result.Log.MaxSizeMB = defaults.Log.MaxSizeMB
	}
	if result.Log.MaxBackups == 0 {
		result.Log.MaxBackups = defaults.Log.MaxBackups
	}
	if result.Log.MaxAgeDays == 0 {
		result.Log.MaxAgeDays = defaults.Log.MaxAgeDays
	}

	if result.DatabaseURL == "" {
		result.DatabaseURL = defaults.DatabaseURL
	}
	if result.OutputDir == "" {
		result.OutputDir = defaults.OutputDir
	}
	if result.Port == 0 {
		result.Port = defaults.Port
	}

	// Bool fields: cannot distinguish unset from false, so we don't merge
	// (CLI flags should always win for bools)

	return result
}

// ApplyEnv overrides fields from the environment when the variables are set
func (c *Config) ApplyEnv() {
	c.DatabaseURL = getEnv(EnvDatabaseURL, c.DatabaseURL)
	c.Log.Level = strings.ToLower(getEnv(EnvLogLevel, c.Log.Level))
	c.Log.File = getEnv(EnvLogFile, c.Log.File)
}

func intPtr(v int) *int { return &v }

func getEnv(key, fallback string) string {
	if v, ok := os.LookupEnv(key); ok && v != "" {
		return v
	}
	return fallback
}

// EngineOptions converts the engine section into search options.
// An empty operator list means the full default list.
func (c *Config) EngineOptions() (selection.Options, error) {
	opts := selection.DefaultOptions()
	ops, err := c.Engine.operatorKinds()
	if err != nil {
		return selection.Options{}, err
	}
	if len(ops) > 0 {
		opts.Operators = ops
	}
	opts.MaxPasses = c.Engine.MaxPasses
	if c.Engine.OneForKMaxItems != nil {
		opts.OneForKMaxItems = *c.Engine.OneForKMaxItems
	}
	if c.Engine.TwoForOneMaxItems != nil {
		opts.TwoForOneMaxItems = *c.Engine.TwoForOneMaxItems
	}
	opts.TimeBudget = time.Duration(c.Engine.TimeBudgetMS) * time.Millisecond
	return opts, nil
}

// operatorKinds parses the configured operator names
func (e *EngineConfig) operatorKinds() ([]selection.OperatorKind, error) {
	ops := make([]selection.OperatorKind, 0, len(e.Operators))
	for i, name := range e.Operators {
		op, err := selection.ParseOperatorKind(name)
		if err != nil {
			return nil, fmt.Errorf("config error: engine.operators[%d]: %w", i, err)
		}
		ops = append(ops, op)
	}
	return ops, nil
}

// EvaluationOptions converts the evaluation section into harness options
func (c *Config) EvaluationOptions() evaluation.Options {
	return evaluation.Options{
		Timeout:          time.Duration(c.Evaluation.TimeoutSeconds * float64(time.Second)),
		Concurrency:      c.Evaluation.Concurrency,
		Baseline:         c.Evaluation.Baseline,
		BaselineMaxCells: c.Evaluation.BaselineMaxCells,
		ScoreFailures:    c.Evaluation.ScoreFailures,
	}
}

// GeneratorConfig returns the configured distribution, or the batch or
// series default when the file has none.
func (c *Config) GeneratorConfig(series bool) generator.Config {
	if c.Generator != nil {
		return *c.Generator
	}
	if series {
		return generator.DefaultSeriesConfig()
	}
	return generator.DefaultBatchConfig()
}
