// Package pipeline runs strategy tournaments over a dataset.
package pipeline

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"github.com/google/uuid"

	"github.com/jonathan/knapsack-search/internal/evaluation"
	"github.com/jonathan/knapsack-search/internal/generator"
	"github.com/jonathan/knapsack-search/internal/results"
	"github.com/jonathan/knapsack-search/internal/strategy"
	"github.com/jonathan/knapsack-search/internal/types"
)

// Tournament stages reported through ProgressEvent.Step
const (
	StepLoadDataset = "load_dataset"
	StepEvaluate    = "evaluate"
	StepPersist     = "persist"
	StepSummarize   = "summarize"
)

// ProgressEvent represents a progress update during a tournament
type ProgressEvent struct {
	Step     string `json:"step"`
	Strategy string `json:"strategy,omitempty"`
	Message  string `json:"message"`
	RunID    string `json:"run_id,omitempty"`
	Content  any    `json:"content,omitempty"`
}

// ProgressCallback is called when tournament progress occurs
type ProgressCallback func(event ProgressEvent)

// ReportObserver receives every finished report, e.g. to update metrics
type ReportObserver interface {
	ObserveReport(report *evaluation.Report)
}

// RunTracker records each run as it happens: created before evaluation,
// completed with its scores afterwards. *db.DB implements it.
type RunTracker interface {
	CreateRun(ctx context.Context, runID uuid.UUID, strategy, dataset string) error
	SaveInstanceScores(ctx context.Context, runID uuid.UUID, scores []evaluation.InstanceScore) error
	CompleteRun(ctx context.Context, runID uuid.UUID, status string, score float64, instances, failed int, errMsg string) error
}

// RunOptions holds configuration for a tournament
type RunOptions struct {
	DatasetPath string
	Dataset     *types.Dataset // Takes precedence over DatasetPath
	Registry    *strategy.Registry
	Strategies  []string // Empty means every registered strategy
	Evaluation  evaluation.Options
	Stores      []results.Store // Not closed by Run
	Tracker     RunTracker      // Optional
	Reports     ReportObserver
	Logger      *slog.Logger
	OnProgress  ProgressCallback
}

// StrategyScore is one line of the tournament summary
type StrategyScore struct {
	Strategy string            `json:"strategy"`
	RunID    string            `json:"run_id"`
	Status   evaluation.Status `json:"status"`
	Score    float64           `json:"score"`
	MeanGap  *float64          `json:"mean_gap,omitempty"`
}

// Summary is the outcome of a tournament
type Summary struct {
	Dataset      string               `json:"dataset"`
	Scores       []StrategyScore      `json:"scores"`
	Reports      []*evaluation.Report `json:"-"`
	BestStrategy string               `json:"best_strategy,omitempty"`
	BestScore    float64              `json:"best_score"`
	SuccessRate  float64              `json:"success_rate"`
	StoreErrors  int                  `json:"store_errors"`
	Duration     float64              `json:"duration"` // seconds
}

// emitProgress calls the progress callback if configured
func emitProgress(opts *RunOptions, step, name, message string, content any) {
	if opts.OnProgress != nil {
		opts.OnProgress(ProgressEvent{
			Step:     step,
			Strategy: name,
			Message:  message,
			Content:  content,
		})
	}
}

// Run evaluates each selected strategy over the dataset in turn and
// appends every report to the configured stores. With a tracker, each run
// is registered before its evaluation starts and completed afterwards.
// Store and tracker failures are logged and counted; only dataset,
// strategy lookup and cancellation errors abort the tournament.
func Run(ctx context.Context, opts RunOptions) (*Summary, error) {
	start := time.Now()
	logger := opts.Logger
	if logger == nil {
		logger = slog.Default()
	}
	if opts.Registry == nil {
		return nil, fmt.Errorf("strategy registry is required")
	}

	// 1. Load dataset
	ds := opts.Dataset
	if ds == nil {
		if opts.DatasetPath == "" {
			return nil, fmt.Errorf("dataset path is required")
		}
		var err error
		ds, err = generator.LoadDataset(opts.DatasetPath)
		if err != nil {
			return nil, fmt.Errorf("failed to load dataset: %w", err)
		}
	}
	emitProgress(&opts, StepLoadDataset, "", fmt.Sprintf("Loaded %d samples", len(ds.Samples)), ds.Name)

	// 2. Resolve strategies before running anything
	names := opts.Strategies
	if len(names) == 0 {
		names = opts.Registry.Names()
	}
	selected := make([]strategy.Strategy, 0, len(names))
	for _, name := range names {
		s, err := opts.Registry.Get(name)
		if err != nil {
			return nil, err
		}
		selected = append(selected, s)
	}

	evalOpts := opts.Evaluation
	if evalOpts.Dataset == "" {
		evalOpts.Dataset = ds.Name
	}
	if evalOpts.Logger == nil {
		evalOpts.Logger = logger
	}

	summary := &Summary{Dataset: ds.Name}

	// 3. Evaluate and persist each strategy
	for i, s := range selected {
		emitProgress(&opts, StepEvaluate, s.Name(),
			fmt.Sprintf("Evaluating %s (%d/%d)", s.Name(), i+1, len(selected)), nil)

		runOpts := evalOpts
		runOpts.RunID = uuid.New()
		tracked := opts.Tracker != nil
		if tracked {
			if err := opts.Tracker.CreateRun(ctx, runOpts.RunID, s.Name(), runOpts.Dataset); err != nil {
				tracked = false
				summary.StoreErrors++
				logger.Warn("failed to register run", "strategy", s.Name(), "run_id", runOpts.RunID, "error", err)
			}
		}

		report, err := evaluation.Evaluate(ctx, s, ds.Samples, runOpts)
		if err != nil {
			if tracked {
				// ctx may already be cancelled; the run row still needs closing
				if cerr := opts.Tracker.CompleteRun(context.WithoutCancel(ctx), runOpts.RunID,
					string(evaluation.StatusError), 0, 0, 0, err.Error()); cerr != nil {
					logger.Warn("failed to complete run", "run_id", runOpts.RunID, "error", cerr)
				}
			}
			return nil, fmt.Errorf("evaluation of %s failed: %w", s.Name(), err)
		}

		logger.Info("strategy evaluated",
			"strategy", s.Name(), "status", report.Status, "score", report.Score, "run_id", report.RunID)
		if opts.Reports != nil {
			opts.Reports.ObserveReport(report)
		}

		if tracked {
			if err := completeRun(ctx, opts.Tracker, report); err != nil {
				summary.StoreErrors++
				logger.Warn("failed to complete run", "strategy", s.Name(), "run_id", report.RunID, "error", err)
			}
		}
		for _, store := range opts.Stores {
			if err := store.Append(ctx, report); err != nil {
				summary.StoreErrors++
				logger.Warn("failed to persist report", "strategy", s.Name(), "error", err)
			}
		}
		emitProgress(&opts, StepPersist, s.Name(), fmt.Sprintf("%s: %s %.4f", s.Name(), report.Status, report.Score), report)

		summary.Reports = append(summary.Reports, report)
		line := StrategyScore{
			Strategy: s.Name(),
			RunID:    report.RunID.String(),
			Status:   report.Status,
			Score:    report.Score,
		}
		if gap, ok := report.MeanGap(); ok {
			line.MeanGap = &gap
		}
		summary.Scores = append(summary.Scores, line)
	}

	// 4. Summarize
	summarize(summary)
	summary.Duration = time.Since(start).Seconds()
	emitProgress(&opts, StepSummarize, summary.BestStrategy, "Tournament complete", summary)

	return summary, nil
}

// completeRun stores the instance scores of a registered run and closes it
func completeRun(ctx context.Context, tracker RunTracker, report *evaluation.Report) error {
	if err := tracker.SaveInstanceScores(ctx, report.RunID, report.Instances); err != nil {
		return err
	}
	return tracker.CompleteRun(ctx, report.RunID, string(report.Status), report.Score,
		len(report.Instances), report.Failed, report.Error)
}

// summarize picks the best successful strategy; ties keep the earlier one
func summarize(summary *Summary) {
	ok := 0
	for _, line := range summary.Scores {
		if line.Status != evaluation.StatusOK {
			continue
		}
		if ok == 0 || line.Score > summary.BestScore {
			summary.BestStrategy = line.Strategy
			summary.BestScore = line.Score
		}
		ok++
	}
	if len(summary.Scores) > 0 {
		summary.SuccessRate = float64(ok) / float64(len(summary.Scores))
	}
}
