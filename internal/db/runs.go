package db

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"

	"github.com/jonathan/knapsack-search/internal/evaluation"
)

// ErrRunNotFound is returned when a run to change does not exist
var ErrRunNotFound = errors.New("run not found")

// defaultListLimit caps list queries without an explicit limit
const defaultListLimit = 50

const runColumns = `id, strategy, dataset, status, score, instances, failed, error_message, created_at, completed_at`

// CreateRun inserts a run in the running state
func (db *DB) CreateRun(ctx context.Context, runID uuid.UUID, strategy, dataset string) error {
	_, err := db.pool.Exec(ctx,
		`INSERT INTO evaluation_runs (id, strategy, dataset, status)
		 VALUES ($1, $2, $3, $4)`,
		runID, strategy, dataset, RunStatusRunning,
	)
	if err != nil {
		return fmt.Errorf("failed to create run: %w", err)
	}
	return nil
}

// CompleteRun records the final status and score of a run
func (db *DB) CompleteRun(ctx context.Context, runID uuid.UUID, status string, score float64, instances, failed int, errMsg string) error {
	_, err := db.pool.Exec(ctx,
		`UPDATE evaluation_runs
		 SET status = $1, score = $2, instances = $3, failed = $4, error_message = $5, completed_at = NOW()
		 WHERE id = $6`,
		status, score, instances, failed, nullableString(errMsg), runID,
	)
	if err != nil {
		return fmt.Errorf("failed to complete run: %w", err)
	}
	return nil
}

// SaveInstanceScores stores the per-instance scores of a run in one batch
func (db *DB) SaveInstanceScores(ctx context.Context, runID uuid.UUID, scores []evaluation.InstanceScore) error {
	if len(scores) == 0 {
		return nil
	}
	batch := instanceScoreBatch(runID, scores)
	if err := db.pool.SendBatch(ctx, batch).Close(); err != nil {
		return fmt.Errorf("failed to save instance scores: %w", err)
	}
	return nil
}

// Append stores a whole report: run row, instance rows and final status, in one transaction
func (db *DB) Append(ctx context.Context, report *evaluation.Report) error {
	tx, err := db.pool.Begin(ctx)
	if err != nil {
		return fmt.Errorf("failed to begin transaction: %w", err)
	}
	defer func() { _ = tx.Rollback(ctx) }()

	_, err = tx.Exec(ctx,
		`INSERT INTO evaluation_runs (id, strategy, dataset, status, score, instances, failed, error_message, created_at, completed_at)
		 VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10)`,
		report.RunID, report.Strategy, report.Dataset, string(report.Status), report.Score,
		len(report.Instances), report.Failed, nullableString(report.Error), report.StartedAt, report.CompletedAt,
	)
	if err != nil {
		return fmt.Errorf("failed to insert run: %w", err)
	}

	if len(report.Instances) > 0 {
		if err := tx.SendBatch(ctx, instanceScoreBatch(report.RunID, report.Instances)).Close(); err != nil {
			return fmt.Errorf("failed to save instance scores: %w", err)
		}
	}

	if err := tx.Commit(ctx); err != nil {
		return fmt.Errorf("failed to commit run: %w", err)
	}
	return nil
}

// instanceScoreBatch queues one insert per instance score
func instanceScoreBatch(runID uuid.UUID, scores []evaluation.InstanceScore) *pgx.Batch {
	batch := &pgx.Batch{}
	for _, s := range scores {
		batch.Queue(
			`INSERT INTO instance_scores
			 (run_id, sample_id, num_items, capacity, total_value, total_weight, unused_ratio, solve_time, score, optimal_value, error_message)
			 VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11)
			 ON CONFLICT (run_id, sample_id) DO UPDATE SET
			   total_value = EXCLUDED.total_value, total_weight = EXCLUDED.total_weight,
			   unused_ratio = EXCLUDED.unused_ratio, solve_time = EXCLUDED.solve_time,
			   score = EXCLUDED.score, optimal_value = EXCLUDED.optimal_value,
			   error_message = EXCLUDED.error_message`,
			runID, s.SampleID, s.NumItems, s.Capacity, s.TotalValue, s.TotalWeight,
			s.UnusedRatio, s.SolveTime, s.Score, s.OptimalValue, nullableString(s.Error),
		)
	}
	return batch
}

// GetRun retrieves a run by ID, nil when it does not exist
func (db *DB) GetRun(ctx context.Context, runID uuid.UUID) (*Run, error) {
	row := db.pool.QueryRow(ctx,
		`SELECT `+runColumns+` FROM evaluation_runs WHERE id = $1`,
		runID,
	)
	run, err := scanRun(row)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, nil
		}
		return nil, fmt.Errorf("failed to get run: %w", err)
	}
	return run, nil
}

// ListRunsFiltered retrieves recent runs matching the filters
func (db *DB) ListRunsFiltered(ctx context.Context, filters RunFilters) ([]Run, error) {
	query, args := buildRunsQuery(filters)
	rows, err := db.pool.Query(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("failed to list runs: %w", err)
	}
	defer rows.Close()

	runs := []Run{}
	for rows.Next() {
		run, err := scanRun(rows)
		if err != nil {
			return nil, fmt.Errorf("failed to scan run: %w", err)
		}
		runs = append(runs, *run)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("failed to list runs: %w", err)
	}
	return runs, nil
}

// buildRunsQuery assembles the filtered list query with positional arguments
func buildRunsQuery(filters RunFilters) (string, []any) {
	var where []string
	var args []any
	if filters.Strategy != "" {
		args = append(args, filters.Strategy)
		where = append(where, fmt.Sprintf("strategy = $%d", len(args)))
	}
	if filters.Status != "" {
		args = append(args, filters.Status)
		where = append(where, fmt.Sprintf("status = $%d", len(args)))
	}

	limit := filters.Limit
	if limit <= 0 {
		limit = defaultListLimit
	}
	args = append(args, limit)

	var sb strings.Builder
	sb.WriteString(`SELECT ` + runColumns + ` FROM evaluation_runs`)
	if len(where) > 0 {
		sb.WriteString(" WHERE ")
		sb.WriteString(strings.Join(where, " AND "))
	}
	sb.WriteString(fmt.Sprintf(" ORDER BY created_at DESC LIMIT $%d", len(args)))
	return sb.String(), args
}

// GetInstanceScores retrieves the scored instances of a run ordered by sample
func (db *DB) GetInstanceScores(ctx context.Context, runID uuid.UUID) ([]InstanceScore, error) {
	rows, err := db.pool.Query(ctx,
		`SELECT run_id, sample_id, num_items, capacity, total_value, total_weight,
		        unused_ratio, solve_time, score, optimal_value, error_message
		 FROM instance_scores WHERE run_id = $1 ORDER BY sample_id`,
		runID,
	)
	if err != nil {
		return nil, fmt.Errorf("failed to get instance scores: %w", err)
	}
	defer rows.Close()

	scores := []InstanceScore{}
	for rows.Next() {
		var s InstanceScore
		if err := rows.Scan(&s.RunID, &s.SampleID, &s.NumItems, &s.Capacity, &s.TotalValue, &s.TotalWeight,
			&s.UnusedRatio, &s.SolveTime, &s.Score, &s.OptimalValue, &s.ErrorMessage); err != nil {
			return nil, fmt.Errorf("failed to scan instance score: %w", err)
		}
		scores = append(scores, s)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("failed to get instance scores: %w", err)
	}
	return scores, nil
}

// DeleteRun removes a run and, through the cascade, its instance scores
func (db *DB) DeleteRun(ctx context.Context, runID uuid.UUID) error {
	tag, err := db.pool.Exec(ctx, `DELETE FROM evaluation_runs WHERE id = $1`, runID)
	if err != nil {
		return fmt.Errorf("failed to delete run: %w", err)
	}
	if tag.RowsAffected() == 0 {
		return fmt.Errorf("%w: %s", ErrRunNotFound, runID)
	}
	return nil
}

func scanRun(row pgx.Row) (*Run, error) {
	var run Run
	if err := row.Scan(&run.ID, &run.Strategy, &run.Dataset, &run.Status, &run.Score,
		&run.Instances, &run.Failed, &run.ErrorMessage, &run.CreatedAt, &run.CompletedAt); err != nil {
		return nil, err
	}
	return &run, nil
}

func nullableString(s string) *string {
	if s == "" {
		return nil
	}
	return &s
}
