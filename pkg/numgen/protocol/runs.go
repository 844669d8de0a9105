package protocol

import (
	"time"

	"pkg.jsn.cam/numgen/pkg/numgen"
)

// RunStatus represents the current state of a generation run
type RunStatus string

const (
	RunStatusRunning   RunStatus = "running"
	RunStatusCompleted RunStatus = "completed"
	RunStatusFailed    RunStatus = "failed"
)

// Run records one generation run. Payloads are never part of it.
type Run struct {
	ID      string                   `json:"id"`
	Status  RunStatus                `json:"status"`
	Request numgen.GenerationRequest `json:"request"`

	// Plan
	ChunkCount   int   `json:"chunk_count"`
	ChunkSize    int64 `json:"chunk_size"`
	TotalNumbers int64 `json:"total_numbers"`
	Workers      int   `json:"workers"`

	// Progress
	ChunksDone int   `json:"chunks_done"`
	BytesDone  int64 `json:"bytes_done"`

	// Metadata
	StartedAt   time.Time `json:"started_at"`
	CompletedAt time.Time `json:"completed_at,omitempty"`
	Error       string    `json:"error,omitempty"`

	Duration float64 `json:"duration,omitempty"` // seconds
}

// ComputeDuration populates Duration from the run timestamps.
func (r *Run) ComputeDuration() {
	if r.StartedAt.IsZero() {
		return
	}

	if !r.CompletedAt.IsZero() {
		r.Duration = r.CompletedAt.Sub(r.StartedAt).Seconds()
	} else if r.Status == RunStatusRunning {
		r.Duration = time.Since(r.StartedAt).Seconds()
	}
}
