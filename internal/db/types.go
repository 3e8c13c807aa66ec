package db

import (
	"time"

	"github.com/google/uuid"
)

// Run status values
const (
	RunStatusRunning = "running"
)

// Run represents an evaluation run record
type Run struct {
	ID           uuid.UUID  `json:"id"`
	Strategy     string     `json:"strategy"`
	Dataset      string     `json:"dataset"`
	Status       string     `json:"status"`
	Score        float64    `json:"score"`
	Instances    int        `json:"instances"`
	Failed       int        `json:"failed"`
	ErrorMessage *string    `json:"error_message,omitempty"`
	CreatedAt    time.Time  `json:"created_at"`
	CompletedAt  *time.Time `json:"completed_at,omitempty"`
}

// InstanceScore represents one scored instance of a run
type InstanceScore struct {
	RunID        uuid.UUID `json:"run_id"`
	SampleID     int       `json:"sample_id"`
	NumItems     int       `json:"num_items"`
	Capacity     float64   `json:"capacity"`
	TotalValue   float64   `json:"total_value"`
	TotalWeight  float64   `json:"total_weight"`
	UnusedRatio  float64   `json:"unused_ratio"`
	SolveTime    float64   `json:"solve_time"`
	Score        float64   `json:"score"`
	OptimalValue *float64  `json:"optimal_value,omitempty"`
	ErrorMessage *string   `json:"error_message,omitempty"`
}

// RunFilters narrows ListRunsFiltered
type RunFilters struct {
	Strategy string
	Status   string
	Limit    int
}
