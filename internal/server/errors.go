package server

import (
	"errors"
	"fmt"
	"net/http"

	"github.com/jonathan/knapsack-search/internal/schemas"
	"github.com/jonathan/knapsack-search/internal/selection"
	"github.com/jonathan/knapsack-search/internal/strategy"
)

// ErrNotFound indicates a missing resource
type ErrNotFound struct {
	Resource string
	ID       string
}

func (e *ErrNotFound) Error() string {
	return fmt.Sprintf("%s not found: %s", e.Resource, e.ID)
}

// ErrUnavailable indicates a feature that needs unconfigured infrastructure
type ErrUnavailable struct {
	Feature string
}

func (e *ErrUnavailable) Error() string {
	return fmt.Sprintf("%s unavailable: no database configured", e.Feature)
}

// ErrValidation indicates request validation failure
type ErrValidation struct {
	Field   string
	Message string
}

func (e *ErrValidation) Error() string {
	return fmt.Sprintf("validation error: %s - %s", e.Field, e.Message)
}

// HTTPStatus returns the appropriate HTTP status code for an error
func HTTPStatus(err error) int {
	var (
		notFound    *ErrNotFound
		unavailable *ErrUnavailable
		validation  *ErrValidation
		schemaErr   *schemas.ValidationError
		unknown     *strategy.UnknownStrategyError
	)
	switch {
	case errors.As(err, &notFound), errors.As(err, &unknown):
		return http.StatusNotFound
	case errors.As(err, &unavailable):
		return http.StatusServiceUnavailable
	case errors.As(err, &validation), errors.As(err, &schemaErr),
		selection.IsKind(err, selection.MalformedInput):
		return http.StatusBadRequest
	default:
		return http.StatusInternalServerError
	}
}
