package stepsm

import (
	"context"
	"testing"

	"github.com/google/uuid"

	"github.com/rlemke/agentflow-sub002/internal/depgraph"
	"github.com/rlemke/agentflow-sub002/internal/domain/afl"
	"github.com/rlemke/agentflow-sub002/internal/program"
)

// fakeStore is an in-memory stand-in for the durable store, just enough
// of it to drive Tick through a complete run: no CAS, no persistence,
// every write visible to every read that follows it.
type fakeStore struct {
	steps map[uuid.UUID]*afl.Step
	ctx   *Context
}

func newFakeStore() *fakeStore {
	return &fakeStore{steps: map[uuid.UUID]*afl.Step{}}
}

func (f *fakeStore) getStep(id uuid.UUID) (*afl.Step, error) {
	return f.steps[id], nil
}

func (f *fakeStore) stepsByBlock(blockID uuid.UUID) ([]*afl.Step, error) {
	var out []*afl.Step
	for _, s := range f.steps {
		if s.BlockID != nil && *s.BlockID == blockID {
			out = append(out, s)
		}
	}
	return out, nil
}

func (f *fakeStore) stepsByContainer(containerID uuid.UUID) ([]*afl.Step, error) {
	var out []*afl.Step
	for _, s := range f.steps {
		if s.BlockID == nil && s.ContainerID != nil && *s.ContainerID == containerID {
			out = append(out, s)
		}
	}
	return out, nil
}

func (f *fakeStore) blockStepExists(blockID uuid.UUID, statementID string) (bool, error) {
	children, err := f.stepsByBlock(blockID)
	if err != nil {
		return false, err
	}
	for _, s := range children {
		if s.StatementID == statementID {
			return true, nil
		}
	}
	return false, nil
}

func (f *fakeStore) containerStepExists(containerID uuid.UUID, statementID string) (bool, error) {
	children, err := f.stepsByContainer(containerID)
	if err != nil {
		return false, err
	}
	for _, s := range children {
		if s.StatementID == statementID {
			return true, nil
		}
	}
	return false, nil
}

func (f *fakeStore) getCompletedStepByName(name string, blockID *uuid.UUID) (*afl.Step, bool) {
	for _, s := range f.steps {
		if s.StatementName != name || !s.IsComplete() {
			continue
		}
		if blockID == nil && s.BlockID != nil {
			continue
		}
		if blockID != nil && (s.BlockID == nil || *s.BlockID != *blockID) {
			continue
		}
		return s, true
	}
	return nil, false
}

func (f *fakeStore) createChildStep(step *afl.Step) error {
	f.steps[step.ID] = step
	return nil
}

// statementOf delegates to the package's own StatementOf, exercising the
// real andThenBlockOf/bodyOf resolution rather than a hand-rolled
// shortcut.
func (f *fakeStore) statementOf(step *afl.Step) (*depgraph.StatementDefinition, bool) {
	return StatementOf(f.ctx, step)
}

func addOneProgram() *program.Program {
	addOne := program.Facet{
		Name:    "AddOne",
		Params:  []program.Param{{Name: "input"}},
		Returns: []program.Param{{Name: "output"}},
		Body: program.Body{
			Script: &program.ScriptBlock{Language: "python", Code: "output = input + 1"},
		},
	}

	main := program.Workflow{
		Name:   "Main",
		Params: []program.Param{{Name: "x"}},
		Body: program.Body{
			Blocks: []program.AndThenBlock{
				{
					Steps: []program.StepStmt{
						{
							ID:   "s1",
							Name: "s1",
							Call: program.CallExpr{
								Target: "AddOne",
								Args: []program.Arg{
									{Name: "input", Value: program.Expr{Kind: program.ExprInputRef, Path: []string{"x"}}},
								},
							},
						},
					},
					Yield: &program.YieldStmt{
						ID: "yield",
						Call: program.CallExpr{
							Target: "Main",
							Args: []program.Arg{
								{Name: "out", Value: program.Expr{Kind: program.ExprStepRef, Path: []string{"s1", "output"}}},
							},
						},
					},
				},
			},
		},
	}

	return &program.Program{Facets: []program.Facet{addOne}, Workflows: []program.Workflow{main}}
}

func runToCompletion(t *testing.T, ctx *Context, fs *fakeStore, rootID uuid.UUID) {
	t.Helper()
	for iter := 0; iter < 200; iter++ {
		progressed := false
		ids := make([]uuid.UUID, 0, len(fs.steps))
		for id := range fs.steps {
			ids = append(ids, id)
		}
		for _, id := range ids {
			step := fs.steps[id]
			if step.IsComplete() || step.IsFailed() {
				continue
			}
			before := step.State
			res, err := Tick(ctx, step)
			if err != nil {
				t.Fatalf("tick step %s (%s): %v", step.StatementID, step.ObjectType, err)
			}
			fs.steps[id] = res.Step
			if res.Step.State != before || res.Done {
				progressed = true
			}
		}
		if root := fs.steps[rootID]; root.IsComplete() {
			return
		}
		if !progressed {
			t.Fatalf("no progress made after %d iterations; root stuck at %s", iter, fs.steps[rootID].State)
		}
	}
	t.Fatalf("did not reach completion within iteration bound")
}

func TestAddOneWorkflowRunsToCompletion(t *testing.T) {
	prog := addOneProgram()
	workflow, _ := prog.Workflow("Main")

	runnerID, workflowID, flowID := uuid.New(), uuid.New(), uuid.New()
	root := &afl.Step{
		ID:            uuid.New(),
		RunnerID:      runnerID,
		WorkflowID:    workflowID,
		FlowID:        flowID,
		ObjectType:    afl.ObjectVariableAssignment,
		StatementID:   "root",
		StatementName: "root",
		State:         afl.StateCreated,
		Params:        afl.Attributes{"x": {Value: 5.0}},
		Returns:       afl.Attributes{},
	}

	fs := newFakeStore()
	fs.steps[root.ID] = root

	ctx := &Context{
		Ctx:                    context.Background(),
		Program:                prog,
		GetStep:                fs.getStep,
		StepsByBlock:           fs.stepsByBlock,
		StepsByContainer:       fs.stepsByContainer,
		BlockStepExists:        fs.blockStepExists,
		ContainerStepExists:    fs.containerStepExists,
		GetCompletedStepByName: fs.getCompletedStepByName,
		WorkflowBody:           func() (program.Body, bool) { return workflow.Body, true },
		FacetBody: func(name string) (program.Body, bool) {
			facet, ok := prog.Facet(name)
			if !ok {
				return program.Body{}, false
			}
			return facet.Body, true
		},
		Sandbox: func(language, code string, params map[string]any) (map[string]any, error) {
			input, _ := params["input"].(float64)
			return map[string]any{"output": input + 1}, nil
		},
		EmitTask: func(step *afl.Step, facetName string, data map[string]any) (uuid.UUID, error) {
			return uuid.New(), nil
		},
		TaskResult: func(step *afl.Step) (map[string]any, bool, error) {
			return nil, false, nil
		},
		CreateChildStep: fs.createChildStep,
		Pending:         &PendingChanges{},
	}
	fs.ctx = ctx
	ctx.StatementOf = fs.statementOf

	runToCompletion(t, ctx, fs, root.ID)

	got := fs.steps[root.ID]
	if got.State != afl.StateStatementComplete {
		t.Fatalf("expected root to complete, got state %s (error %q)", got.State, got.Error)
	}
	out, ok := got.Returns["out"]
	if !ok {
		t.Fatalf("expected root returns to carry \"out\", got %#v", got.Returns)
	}
	if out.Value != float64(6) {
		t.Fatalf("expected out=6, got %v", out.Value)
	}
}
