// Package runs records pipeline execution state and the append-only stage
// result trail that backs the reporting surface.
package runs

import (
	"time"

	"github.com/google/uuid"
)

// State is the pipeline state machine position for one email's run.
type State string

const (
	StateReceived   State = "Received"
	StateParsed     State = "Parsed"
	StateClassified State = "Classified"
	StateExtracted  State = "Extracted"
	StateMapped     State = "Mapped"
	StateReplied    State = "Replied"
	StateCompleted  State = "Completed"
	StateFailed     State = "Failed"
)

// Terminal reports whether the state ends a run.
func (s State) Terminal() bool {
	return s == StateCompleted || s == StateFailed
}

// StageStatus is the outcome of a single pipeline stage.
type StageStatus string

const (
	StatusSuccess        StageStatus = "Success"
	StatusPartialFailure StageStatus = "PartialFailure"
	StatusFailure        StageStatus = "Failure"
	StatusSkipped        StageStatus = "Skipped"
)

// StageResult is one entry in a run's append-only stage trail.
type StageResult struct {
	Stage       string        `json:"stage"`
	Status      StageStatus   `json:"status"`
	Attempts    int           `json:"attempts"`
	Output      string        `json:"output,omitempty"`
	ErrorDetail string        `json:"error_detail,omitempty"`
	Duration    time.Duration `json:"duration"`
	RecordedAt  time.Time     `json:"recorded_at"`
}

// Run tracks one email's pipeline execution.
type Run struct {
	ID          uuid.UUID     `json:"id"`
	EmailID     string        `json:"email_id"`
	State       State         `json:"state"`
	Reason      string        `json:"reason,omitempty"`
	StartedAt   time.Time     `json:"started_at"`
	CompletedAt *time.Time    `json:"completed_at"`
	Stages      []StageResult `json:"stages,omitempty"`
}

// Outcome buckets a run for reporting. Degraded runs completed but carry at
// least one non-success stage; they are never collapsed into failures.
type Outcome string

const (
	OutcomeCompleted Outcome = "completed"
	OutcomeDegraded  Outcome = "degraded"
	OutcomeFailed    Outcome = "failed"
	OutcomeRunning   Outcome = "running"
)

// Outcome derives the reporting bucket from the run's state and stage trail.
func (r *Run) Outcome() Outcome {
	switch r.State {
	case StateFailed:
		return OutcomeFailed
	case StateCompleted:
		for _, s := range r.Stages {
			if s.Status != StatusSuccess {
				return OutcomeDegraded
			}
		}
		return OutcomeCompleted
	default:
		return OutcomeRunning
	}
}

// Summary aggregates run outcomes for the reporting surface.
type Summary struct {
	Completed int `json:"completed"`
	Degraded  int `json:"degraded"`
	Failed    int `json:"failed"`
	Running   int `json:"running"`
}
