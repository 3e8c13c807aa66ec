// Package results persists evaluation reports.
package results

import (
	"context"
	"errors"

	"github.com/jonathan/knapsack-search/internal/evaluation"
)

// Store receives finished evaluation reports
type Store interface {
	Append(ctx context.Context, report *evaluation.Report) error
	Close() error
}

// Multi fans a report out to several stores
type Multi []Store

// Append writes to every store and joins their errors
func (m Multi) Append(ctx context.Context, report *evaluation.Report) error {
	var errs []error
	for _, s := range m {
		if err := s.Append(ctx, report); err != nil {
			errs = append(errs, err)
		}
	}
	return errors.Join(errs...)
}

// Close closes every store and joins their errors
func (m Multi) Close() error {
	var errs []error
	for _, s := range m {
		if err := s.Close(); err != nil {
			errs = append(errs, err)
		}
	}
	return errors.Join(errs...)
}
