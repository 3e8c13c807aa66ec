package server

import (
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"strconv"
	"time"

	"github.com/go-playground/validator/v10"
	"github.com/google/uuid"

	"github.com/jonathan/knapsack-search/internal/db"
	"github.com/jonathan/knapsack-search/internal/evaluation"
	"github.com/jonathan/knapsack-search/internal/pipeline"
	"github.com/jonathan/knapsack-search/internal/schemas"
	"github.com/jonathan/knapsack-search/internal/selection"
	"github.com/jonathan/knapsack-search/internal/strategy"
	"github.com/jonathan/knapsack-search/internal/types"
)

// maxBodyBytes bounds request bodies
const maxBodyBytes = 64 << 20

// SolveResponse represents the response for /solve
type SolveResponse struct {
	Strategy string `json:"strategy"`
	types.Result
	Stats *selection.Stats `json:"stats,omitempty"`
}

// EvaluateRequest represents the request body for /evaluate
type EvaluateRequest struct {
	Strategy       string         `json:"strategy" validate:"required"`
	Dataset        string         `json:"dataset,omitempty"`
	TimeoutSeconds float64        `json:"timeout_seconds,omitempty" validate:"gte=0,lte=3600"`
	Concurrency    int            `json:"concurrency,omitempty" validate:"gte=0"`
	Baseline       bool           `json:"baseline,omitempty"`
	ScoreFailures  bool           `json:"score_failures,omitempty"`
	Samples        []types.Sample `json:"samples" validate:"required,min=1"`
}

// TournamentRequest represents the request body for /tournament/stream
type TournamentRequest struct {
	Strategies     []string       `json:"strategies,omitempty"`
	Dataset        string         `json:"dataset,omitempty"`
	TimeoutSeconds float64        `json:"timeout_seconds,omitempty" validate:"gte=0,lte=3600"`
	Baseline       bool           `json:"baseline,omitempty"`
	ScoreFailures  bool           `json:"score_failures,omitempty"`
	Samples        []types.Sample `json:"samples" validate:"required,min=1"`
}

var validate = validator.New()

// validationError converts the first validator failure into an ErrValidation
func validationError(err error) error {
	var verrs validator.ValidationErrors
	if errors.As(err, &verrs) && len(verrs) > 0 {
		return &ErrValidation{Field: verrs[0].Field(), Message: fmt.Sprintf("failed '%s' check", verrs[0].Tag())}
	}
	return &ErrValidation{Field: "body", Message: err.Error()}
}

// decodeRequest decodes and validates a JSON body
func decodeRequest(body io.Reader, dst any) error {
	if err := json.NewDecoder(body).Decode(dst); err != nil {
		return &ErrValidation{Field: "body", Message: "invalid JSON: " + err.Error()}
	}
	if err := validate.Struct(dst); err != nil {
		return validationError(err)
	}
	return nil
}

// checkSamples rejects samples whose weights and values differ in length
func checkSamples(samples []types.Sample) error {
	for i := range samples {
		if len(samples[i].Weights) != len(samples[i].Values) {
			return &ErrValidation{
				Field:   fmt.Sprintf("samples[%d]", i),
				Message: "weights and values differ in length",
			}
		}
	}
	return nil
}

// handleSolve solves a single schema-validated instance
func (s *Server) handleSolve(w http.ResponseWriter, r *http.Request) {
	// 1. Resolve strategy
	name := r.URL.Query().Get("strategy")
	if name == "" {
		name = s.defaultStrategy
	}
	strat, err := s.registry.Get(name)
	if err != nil {
		s.errorFromErr(w, err)
		return
	}

	// 2. Read and validate the body
	body, err := io.ReadAll(http.MaxBytesReader(w, r.Body, maxBodyBytes))
	if err != nil {
		s.errorResponse(w, http.StatusRequestEntityTooLarge, "Failed to read request body: "+err.Error())
		return
	}
	if err := schemas.ValidateDocument(schemas.InstanceSchema, body); err != nil {
		var loadErr *schemas.SchemaLoadError
		if errors.As(err, &loadErr) {
			s.errorResponse(w, http.StatusInternalServerError, err.Error())
			return
		}
		s.errorResponse(w, http.StatusBadRequest, err.Error())
		return
	}
	var in types.InstanceInput
	if err := json.Unmarshal(body, &in); err != nil {
		s.errorResponse(w, http.StatusBadRequest, "Invalid request body: "+err.Error())
		return
	}

	// 3. Solve
	resp := SolveResponse{Strategy: strat.Name()}
	if runner, ok := strat.(strategy.StatsRunner); ok {
		res, stats := runner.Run(in)
		resp.Result = res
		resp.Stats = &stats
	} else {
		resp.Result = strat.Solve(in)
	}
	s.metrics.ObserveSolve(strat.Name(), resp.Result, resp.Stats)

	status := http.StatusOK
	if resp.Failed() {
		status = http.StatusUnprocessableEntity
	}
	s.jsonResponse(w, status, resp)
}

// handleEvaluate scores a strategy over the posted samples
func (s *Server) handleEvaluate(w http.ResponseWriter, r *http.Request) {
	var req EvaluateRequest
	if err := decodeRequest(http.MaxBytesReader(w, r.Body, maxBodyBytes), &req); err != nil {
		s.errorFromErr(w, err)
		return
	}
	if err := checkSamples(req.Samples); err != nil {
		s.errorFromErr(w, err)
		return
	}

	strat, err := s.registry.Get(req.Strategy)
	if err != nil {
		s.errorFromErr(w, err)
		return
	}

	opts := s.evalOptions(req.Dataset, req.TimeoutSeconds, req.Baseline, req.ScoreFailures)
	if req.Concurrency > 0 {
		opts.Concurrency = req.Concurrency
	}

	report, err := evaluation.Evaluate(r.Context(), strat, req.Samples, opts)
	if err != nil {
		s.errorResponse(w, http.StatusInternalServerError, "Evaluation failed: "+err.Error())
		return
	}
	s.metrics.ObserveReport(report)

	if s.runs != nil {
		if err := s.runs.Append(r.Context(), report); err != nil {
			s.logger.Warn("failed to persist report", "run_id", report.RunID, "error", err)
		}
	}

	s.jsonResponse(w, http.StatusOK, report)
}

// handleTournamentStream runs a tournament and streams progress as server-sent events
func (s *Server) handleTournamentStream(w http.ResponseWriter, r *http.Request) {
	var req TournamentRequest
	if err := decodeRequest(http.MaxBytesReader(w, r.Body, maxBodyBytes), &req); err != nil {
		s.errorFromErr(w, err)
		return
	}
	if err := checkSamples(req.Samples); err != nil {
		s.errorFromErr(w, err)
		return
	}
	for _, name := range req.Strategies {
		if _, err := s.registry.Get(name); err != nil {
			s.errorFromErr(w, err)
			return
		}
	}

	stream, err := newEventStream(w)
	if err != nil {
		s.errorResponse(w, http.StatusInternalServerError, err.Error())
		return
	}

	opts := pipeline.RunOptions{
		Dataset:    &types.Dataset{Name: req.Dataset, Samples: req.Samples},
		Registry:   s.registry,
		Strategies: req.Strategies,
		Evaluation: s.evalOptions(req.Dataset, req.TimeoutSeconds, req.Baseline, req.ScoreFailures),
		Reports:    s.metrics,
		Logger:     s.logger,
		OnProgress: func(event pipeline.ProgressEvent) {
			if err := stream.progress(event); err != nil {
				s.logger.Debug("failed to stream progress", "error", err)
			}
		},
	}
	if s.runs != nil {
		opts.Tracker = s.runs
	}

	summary, err := pipeline.Run(r.Context(), opts)
	if err != nil {
		err = stream.fail(err)
	} else {
		err = stream.complete(summary)
	}
	if err != nil {
		s.logger.Debug("failed to finish tournament stream", "error", err)
	}
}

// evalOptions applies request overrides to the server's evaluation defaults
func (s *Server) evalOptions(dataset string, timeoutSeconds float64, baseline, scoreFailures bool) evaluation.Options {
	opts := s.evaluation
	opts.Dataset = dataset
	opts.Observer = s.metrics
	opts.Logger = s.logger
	if timeoutSeconds > 0 {
		opts.Timeout = time.Duration(timeoutSeconds * float64(time.Second))
	}
	if baseline {
		opts.Baseline = true
	}
	if scoreFailures {
		opts.ScoreFailures = true
	}
	return opts
}

// handleStrategies lists the registered strategies
func (s *Server) handleStrategies(w http.ResponseWriter, _ *http.Request) {
	defs := s.registry.Definitions()
	s.jsonResponse(w, http.StatusOK, map[string]any{
		"strategies": defs,
		"default":    s.defaultStrategy,
		"count":      len(defs),
	})
}

// handleListRuns lists stored evaluation runs
func (s *Server) handleListRuns(w http.ResponseWriter, r *http.Request) {
	if s.runs == nil {
		s.errorFromErr(w, &ErrUnavailable{Feature: "run history"})
		return
	}

	filters := db.RunFilters{
		Strategy: r.URL.Query().Get("strategy"),
		Status:   r.URL.Query().Get("status"),
	}
	if limitStr := r.URL.Query().Get("limit"); limitStr != "" {
		if limit, err := strconv.Atoi(limitStr); err == nil {
			filters.Limit = limit
		}
	}

	runs, err := s.runs.ListRunsFiltered(r.Context(), filters)
	if err != nil {
		s.errorResponse(w, http.StatusInternalServerError, "Database error: "+err.Error())
		return
	}
	if runs == nil {
		runs = []db.Run{}
	}

	s.jsonResponse(w, http.StatusOK, map[string]any{
		"runs":  runs,
		"count": len(runs),
	})
}

// handleGetRun returns one run with its instance scores
func (s *Server) handleGetRun(w http.ResponseWriter, r *http.Request) {
	if s.runs == nil {
		s.errorFromErr(w, &ErrUnavailable{Feature: "run history"})
		return
	}

	idStr := r.PathValue("id")
	runID, err := uuid.Parse(idStr)
	if err != nil {
		s.errorFromErr(w, &ErrValidation{Field: "id", Message: "invalid run ID"})
		return
	}

	run, err := s.runs.GetRun(r.Context(), runID)
	if err != nil {
		s.errorResponse(w, http.StatusInternalServerError, "Database error: "+err.Error())
		return
	}
	if run == nil {
		s.errorFromErr(w, &ErrNotFound{Resource: "run", ID: idStr})
		return
	}

	scores, err := s.runs.GetInstanceScores(r.Context(), runID)
	if err != nil {
		s.errorResponse(w, http.StatusInternalServerError, "Database error: "+err.Error())
		return
	}
	if scores == nil {
		scores = []db.InstanceScore{}
	}

	s.jsonResponse(w, http.StatusOK, map[string]any{
		"run":       run,
		"instances": scores,
	})
}

// handleDeleteRun removes a run and its instance scores
func (s *Server) handleDeleteRun(w http.ResponseWriter, r *http.Request) {
	if s.runs == nil {
		s.errorFromErr(w, &ErrUnavailable{Feature: "run history"})
		return
	}

	idStr := r.PathValue("id")
	runID, err := uuid.Parse(idStr)
	if err != nil {
		s.errorFromErr(w, &ErrValidation{Field: "id", Message: "invalid run ID"})
		return
	}

	if err := s.runs.DeleteRun(r.Context(), runID); err != nil {
		if errors.Is(err, db.ErrRunNotFound) {
			s.errorFromErr(w, &ErrNotFound{Resource: "run", ID: idStr})
			return
		}
		s.errorResponse(w, http.StatusInternalServerError, "Database error: "+err.Error())
		return
	}
	w.WriteHeader(http.StatusNoContent)
}
