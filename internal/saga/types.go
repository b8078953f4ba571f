package saga

import (
	"context"
	"time"
)

// StepState represents the state of an individual step.
type StepState string

const (
	StepStatePending   StepState = "pending"
	StepStateRunning   StepState = "running"
	StepStateCompleted StepState = "completed"
	StepStateFailed    StepState = "failed"
	StepStateSkipped   StepState = "skipped"
)

// StepID uniquely identifies a step within a workflow.
type StepID string

// Data holds the shared data for a workflow execution. Steps read the output
// of earlier steps from it and store their own.
type Data map[string]interface{}

// Result represents the outcome of a step execution.
type Result struct {
	Success bool
	Data    interface{}
	Err     error
}

// Step represents a single step in a workflow.
type Step interface {
	ID() StepID
	Execute(ctx context.Context, data Data) Result
}

// Definition defines the ordered steps of a workflow.
type Definition interface {
	ID() string
	Steps() []Step
}

// StepExecution records the execution state of a step.
type StepExecution struct {
	ID          StepID     `json:"id"`
	State       StepState  `json:"state"`
	StartedAt   *time.Time `json:"started_at,omitempty"`
	CompletedAt *time.Time `json:"completed_at,omitempty"`
	Error       string     `json:"error,omitempty"`
}

// Execution records a finished run of a workflow definition. When a step
// fails, execution stops there: earlier steps keep their completed state so a
// caller can see exactly how far the workflow got and decide how to recover.
type Execution struct {
	Definition  string          `json:"definition"`
	Steps       []StepExecution `json:"steps"`
	Data        Data            `json:"-"`
	StartedAt   time.Time       `json:"started_at"`
	CompletedAt time.Time       `json:"completed_at"`
	FailedStep  StepID          `json:"failed_step,omitempty"`
	Err         error           `json:"-"`
}

// Failed reports whether the execution stopped at a failing step.
func (e *Execution) Failed() bool {
	return e.Err != nil
}

// Completed reports whether the named step ran to completion.
func (e *Execution) Completed(id StepID) bool {
	for _, s := range e.Steps {
		if s.ID == id {
			return s.State == StepStateCompleted
		}
	}
	return false
}
