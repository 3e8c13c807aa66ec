package server

import (
	"errors"
	"fmt"
	"net/http"
	"testing"

	"github.com/stretchr/testify/assert"

	"github.com/jonathan/knapsack-search/internal/schemas"
	"github.com/jonathan/knapsack-search/internal/selection"
	"github.com/jonathan/knapsack-search/internal/strategy"
)

func TestErrNotFound(t *testing.T) {
	err := &ErrNotFound{Resource: "run", ID: "abc"}
	assert.Equal(t, "run not found: abc", err.Error())
	assert.Equal(t, http.StatusNotFound, HTTPStatus(err))
}

func TestErrUnavailable(t *testing.T) {
	err := &ErrUnavailable{Feature: "run history"}
	assert.Equal(t, "run history unavailable: no database configured", err.Error())
	assert.Equal(t, http.StatusServiceUnavailable, HTTPStatus(err))
}

func TestErrValidation(t *testing.T) {
	err := &ErrValidation{Field: "strategy", Message: "is required"}
	assert.Equal(t, "validation error: strategy - is required", err.Error())
	assert.Equal(t, http.StatusBadRequest, HTTPStatus(err))
}

func TestHTTPStatus_DomainErrors(t *testing.T) {
	tests := []struct {
		name string
		err  error
		want int
	}{
		{name: "unknown strategy", err: &strategy.UnknownStrategyError{Name: "x"}, want: http.StatusNotFound},
		{name: "schema", err: &schemas.ValidationError{}, want: http.StatusBadRequest},
		{name: "malformed input", err: &selection.Error{Kind: selection.MalformedInput, Message: "bad"}, want: http.StatusBadRequest},
		{name: "wrapped", err: fmt.Errorf("decode: %w", &ErrValidation{Field: "f"}), want: http.StatusBadRequest},
		{name: "internal failure", err: &selection.Error{Kind: selection.InternalFailure, Message: "bug"}, want: http.StatusInternalServerError},
		{name: "plain", err: errors.New("boom"), want: http.StatusInternalServerError},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, HTTPStatus(tt.err))
		})
	}
}
