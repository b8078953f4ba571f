package saga

import (
	"context"
	"errors"
	"testing"

	"go.uber.org/zap"
)

type fakeStep struct {
	id     StepID
	err    error
	calls  *[]StepID
}

func (s *fakeStep) ID() StepID {
	return s.id
}

func (s *fakeStep) Execute(ctx context.Context, data Data) Result {
	*s.calls = append(*s.calls, s.id)
	if s.err != nil {
		return Result{Err: s.err}
	}
	return Result{Success: true}
}

type fakeDefinition struct {
	steps []Step
}

func (d *fakeDefinition) ID() string    { return "fake" }
func (d *fakeDefinition) Steps() []Step { return d.steps }

func TestRunnerExecutesStepsInOrder(t *testing.T) {
	calls := []StepID{}
	def := &fakeDefinition{steps: []Step{
		&fakeStep{id: "first", calls: &calls},
		&fakeStep{id: "second", calls: &calls},
		&fakeStep{id: "third", calls: &calls},
	}}

	exec := NewRunner(zap.NewNop()).Run(context.Background(), def, Data{})

	if exec.Failed() {
		t.Fatalf("Expected success, got %v", exec.Err)
	}
	if len(calls) != 3 || calls[0] != "first" || calls[1] != "second" || calls[2] != "third" {
		t.Errorf("Expected steps in order, got %v", calls)
	}
	for _, step := range exec.Steps {
		if step.State != StepStateCompleted {
			t.Errorf("Expected step %s completed, got %s", step.ID, step.State)
		}
		if step.StartedAt == nil || step.CompletedAt == nil {
			t.Errorf("Expected timestamps recorded for step %s", step.ID)
		}
	}
}

func TestRunnerStopsAtFirstFailure(t *testing.T) {
	calls := []StepID{}
	stepErr := errors.New("boom")
	def := &fakeDefinition{steps: []Step{
		&fakeStep{id: "first", calls: &calls},
		&fakeStep{id: "second", err: stepErr, calls: &calls},
		&fakeStep{id: "third", calls: &calls},
	}}

	exec := NewRunner(zap.NewNop()).Run(context.Background(), def, Data{})

	if !exec.Failed() {
		t.Fatal("Expected execution to fail")
	}
	if !errors.Is(exec.Err, stepErr) {
		t.Errorf("Expected step error, got %v", exec.Err)
	}
	if exec.FailedStep != "second" {
		t.Errorf("Expected failed step second, got %s", exec.FailedStep)
	}
	if len(calls) != 2 {
		t.Errorf("Expected third step not to run, got calls %v", calls)
	}

	if !exec.Completed("first") {
		t.Error("Expected first step to be completed")
	}
	if exec.Steps[1].State != StepStateFailed {
		t.Errorf("Expected second step failed, got %s", exec.Steps[1].State)
	}
	if exec.Steps[2].State != StepStateSkipped {
		t.Errorf("Expected third step skipped, got %s", exec.Steps[2].State)
	}
}

func TestRunnerFailureWithoutError(t *testing.T) {
	def := &fakeDefinition{steps: []Step{
		stepFunc(func(ctx context.Context, data Data) Result {
			return Result{}
		}),
	}}

	exec := NewRunner(zap.NewNop()).Run(context.Background(), def, Data{})

	if !exec.Failed() {
		t.Fatal("Expected an unsuccessful step to fail the execution")
	}
	if exec.Err == nil {
		t.Fatal("Expected a synthesized error for an errorless failure")
	}
	if exec.FailedStep != "func" {
		t.Errorf("Expected failed step recorded, got %s", exec.FailedStep)
	}
	if exec.Steps[0].Error == "" {
		t.Error("Expected step error text recorded")
	}
}

func TestRunnerSharesDataBetweenSteps(t *testing.T) {
	def := &fakeDefinition{steps: []Step{
		stepFunc(func(ctx context.Context, data Data) Result {
			data["value"] = 42
			return Result{Success: true}
		}),
		stepFunc(func(ctx context.Context, data Data) Result {
			if data["value"] != 42 {
				return Result{Err: errors.New("value not shared")}
			}
			return Result{Success: true}
		}),
	}}

	exec := NewRunner(zap.NewNop()).Run(context.Background(), def, Data{})
	if exec.Failed() {
		t.Fatalf("Expected success, got %v", exec.Err)
	}
	if exec.Data["value"] != 42 {
		t.Error("Expected data to be carried on the execution")
	}
}

type stepFunc func(ctx context.Context, data Data) Result

func (f stepFunc) ID() StepID                                { return "func" }
func (f stepFunc) Execute(ctx context.Context, d Data) Result { return f(ctx, d) }
