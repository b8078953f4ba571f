package saga

import (
	"context"
	"fmt"
	"time"

	"go.uber.org/zap"
)

// Runner executes workflow definitions step by step. Steps run sequentially
// on the caller's goroutine; the first failure stops the run. The runner
// never compensates or retries — recovery from a partial run belongs to the
// caller, because it knows which steps are safe to repeat.
type Runner struct {
	logger *zap.Logger
}

// NewRunner creates a new workflow runner.
func NewRunner(logger *zap.Logger) *Runner {
	return &Runner{logger: logger}
}

// Run executes the definition's steps in order against data and returns the
// recorded execution.
func (r *Runner) Run(ctx context.Context, def Definition, data Data) *Execution {
	steps := def.Steps()
	exec := &Execution{
		Definition: def.ID(),
		Steps:      make([]StepExecution, len(steps)),
		Data:       data,
		StartedAt:  time.Now(),
	}
	for i, step := range steps {
		exec.Steps[i] = StepExecution{ID: step.ID(), State: StepStatePending}
	}

	for i, step := range steps {
		now := time.Now()
		exec.Steps[i].State = StepStateRunning
		exec.Steps[i].StartedAt = &now

		result := step.Execute(ctx, data)

		done := time.Now()
		exec.Steps[i].CompletedAt = &done

		if !result.Success {
			err := result.Err
			if err == nil {
				// A failure must carry an error so Failed() never lies to
				// the caller about a stopped run.
				err = fmt.Errorf("step %s reported failure without an error", step.ID())
			}
			exec.Steps[i].State = StepStateFailed
			exec.Steps[i].Error = err.Error()
			exec.FailedStep = step.ID()
			exec.Err = err

			for j := i + 1; j < len(steps); j++ {
				exec.Steps[j].State = StepStateSkipped
			}

			r.logger.Warn("Workflow step failed",
				zap.String("workflow", def.ID()),
				zap.String("step", string(step.ID())),
				zap.Error(err))
			break
		}

		exec.Steps[i].State = StepStateCompleted
		r.logger.Debug("Workflow step completed",
			zap.String("workflow", def.ID()),
			zap.String("step", string(step.ID())))
	}

	exec.CompletedAt = time.Now()
	return exec
}
