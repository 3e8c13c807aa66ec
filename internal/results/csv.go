package results

import (
	"context"
	"encoding/csv"
	"errors"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strconv"
	"sync"
	"time"

	"github.com/jonathan/knapsack-search/internal/evaluation"
)

// SummaryFile is the name of the appended per-run summary
const SummaryFile = "summary.csv"

var (
	runHeader     = []string{"sample_id", "num_items", "efficiency", "time", "total_value", "score", "optimal_value", "gap", "error"}
	summaryHeader = []string{"iteration", "run_id", "strategy", "dataset", "score", "status", "failed", "timestamp"}
)

// CSVStore writes one run_<id>.csv per report and appends a row to summary.csv
type CSVStore struct {
	mu        sync.Mutex
	dir       string
	summary   *os.File
	writer    *csv.Writer
	iteration int
}

// Open opens (or creates) a CSV store in dir. Iteration numbering
// continues from an existing summary file.
func Open(dir string) (*CSVStore, error) {
	if err := os.MkdirAll(dir, 0755); err != nil {
		return nil, fmt.Errorf("failed to create results directory: %w", err)
	}

	path := filepath.Join(dir, SummaryFile)
	rows, err := countRows(path)
	if err != nil {
		return nil, err
	}

	f, err := os.OpenFile(path, os.O_CREATE|os.O_APPEND|os.O_WRONLY, 0644)
	if err != nil {
		return nil, fmt.Errorf("failed to open summary: %w", err)
	}

	s := &CSVStore{dir: dir, summary: f, writer: csv.NewWriter(f)}
	if rows == 0 {
		if err := s.writer.Write(summaryHeader); err != nil {
			_ = f.Close()
			return nil, fmt.Errorf("failed to write summary header: %w", err)
		}
		s.writer.Flush()
	} else {
		s.iteration = rows - 1
	}
	return s, nil
}

// countRows returns the number of CSV records in path, 0 when it does not exist
func countRows(path string) (int, error) {
	f, err := os.Open(path)
	if errors.Is(err, os.ErrNotExist) {
		return 0, nil
	}
	if err != nil {
		return 0, fmt.Errorf("failed to open summary: %w", err)
	}
	defer f.Close()

	r := csv.NewReader(f)
	r.FieldsPerRecord = -1
	n := 0
	for {
		_, err := r.Read()
		if err == io.EOF {
			return n, nil
		}
		if err != nil {
			return 0, fmt.Errorf("failed to read summary: %w", err)
		}
		n++
	}
}

// Dir returns the directory the store writes to
func (s *CSVStore) Dir() string { return s.dir }

// RunPath returns the per-run CSV path for a report
func (s *CSVStore) RunPath(report *evaluation.Report) string {
	return filepath.Join(s.dir, fmt.Sprintf("run_%s.csv", report.RunID))
}

// Append writes the per-run file and the summary row
func (s *CSVStore) Append(_ context.Context, report *evaluation.Report) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if err := s.writeRun(report); err != nil {
		return err
	}

	s.iteration++
	row := []string{
		strconv.Itoa(s.iteration),
		report.RunID.String(),
		report.Strategy,
		report.Dataset,
		formatFloat(report.Score),
		string(report.Status),
		strconv.Itoa(report.Failed),
		report.CompletedAt.UTC().Format(time.RFC3339),
	}
	if err := s.writer.Write(row); err != nil {
		return fmt.Errorf("failed to write summary row: %w", err)
	}
	s.writer.Flush()
	if err := s.writer.Error(); err != nil {
		return fmt.Errorf("failed to flush summary: %w", err)
	}
	return nil
}

func (s *CSVStore) writeRun(report *evaluation.Report) error {
	f, err := os.Create(s.RunPath(report))
	if err != nil {
		return fmt.Errorf("failed to create run file: %w", err)
	}
	defer f.Close()

	w := csv.NewWriter(f)
	if err := w.Write(runHeader); err != nil {
		return fmt.Errorf("failed to write run header: %w", err)
	}
	for _, inst := range report.Instances {
		optimal, gap := "", ""
		if inst.OptimalValue != nil {
			optimal = formatFloat(*inst.OptimalValue)
		}
		if inst.Gap != nil {
			gap = formatFloat(*inst.Gap)
		}
		row := []string{
			strconv.Itoa(inst.SampleID),
			strconv.Itoa(inst.NumItems),
			formatFloat(inst.Efficiency),
			formatFloat(inst.SolveTime),
			formatFloat(inst.TotalValue),
			formatFloat(inst.Score),
			optimal,
			gap,
			inst.Error,
		}
		if err := w.Write(row); err != nil {
			return fmt.Errorf("failed to write run row: %w", err)
		}
	}
	w.Flush()
	if err := w.Error(); err != nil {
		return fmt.Errorf("failed to flush run file: %w", err)
	}
	return nil
}

// Close flushes and closes the summary file
func (s *CSVStore) Close() error {
	s.mu.Lock()
	defer s.mu.Unlock()

	s.writer.Flush()
	if err := s.summary.Close(); err != nil {
		return fmt.Errorf("failed to close summary: %w", err)
	}
	return nil
}

func formatFloat(x float64) string {
	return strconv.FormatFloat(x, 'g', -1, 64)
}
