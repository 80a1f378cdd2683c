package submit

import (
	"context"
	"testing"

	"github.com/rlemke/agentflow-sub002/internal/domain/afl"
	"github.com/rlemke/agentflow-sub002/internal/engine"
	"github.com/rlemke/agentflow-sub002/internal/program"
	"github.com/rlemke/agentflow-sub002/internal/sandbox"
	"github.com/rlemke/agentflow-sub002/internal/store"
	"github.com/rlemke/agentflow-sub002/internal/store/storetest"
)

// addOneProgram is the same single script-bodied facet fixture
// internal/engine and internal/stepsm use for their own AddOne scenario.
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

func TestSubmitCreatesADrainableRunner(t *testing.T) {
	db := storetest.DB(t)
	tx := storetest.Tx(t, db)
	st := store.New(tx, storetest.Logger(t))

	res, err := Submit(context.Background(), st, "workflow Main ...", addOneProgram(), "Main", map[string]any{"x": 5.0})
	if err != nil {
		t.Fatalf("submit: %v", err)
	}
	if res.RunnerID == res.RootStepID {
		t.Fatalf("expected distinct runner and root step ids")
	}

	runner, err := st.GetRunner(context.Background(), res.RunnerID)
	if err != nil {
		t.Fatalf("get runner: %v", err)
	}
	if runner.State != afl.RunnerCreated {
		t.Fatalf("expected newly submitted runner to be Created, got %s", runner.State)
	}
	if runner.RootStepID == nil || *runner.RootStepID != res.RootStepID {
		t.Fatalf("expected runner.RootStepID to match the submitted root step")
	}

	root, err := st.GetStep(context.Background(), res.RootStepID)
	if err != nil {
		t.Fatalf("get root step: %v", err)
	}
	if v, ok := root.Params["x"]; !ok || v.Value != 5.0 {
		t.Fatalf("expected root step params to carry x=5, got %#v", root.Params)
	}

	sb := sandbox.Func(func(language, code string, params map[string]any) (map[string]any, error) {
		input, _ := params["input"].(float64)
		return map[string]any{"output": input + 1}, nil
	})
	e := engine.New(st, sb, storetest.Logger(t))

	claimed := 0
	for i := 0; i < 200; i++ {
		did, err := e.ExecuteStep(context.Background(), "test-claimer")
		if err != nil {
			t.Fatalf("execute step: %v", err)
		}
		if !did {
			break
		}
		claimed++
	}
	if claimed == 0 {
		t.Fatalf("expected the submitted root task to be claimable")
	}

	runner, err = st.GetRunner(context.Background(), res.RunnerID)
	if err != nil {
		t.Fatalf("get runner after drain: %v", err)
	}
	if runner.State != afl.RunnerSucceeded {
		t.Fatalf("expected runner to succeed, got state %s (error %q)", runner.State, runner.Error)
	}
}

func TestSubmitUnknownWorkflowIsRejected(t *testing.T) {
	db := storetest.DB(t)
	tx := storetest.Tx(t, db)
	st := store.New(tx, storetest.Logger(t))

	_, err := Submit(context.Background(), st, "workflow Main ...", addOneProgram(), "DoesNotExist", nil)
	if err == nil {
		t.Fatalf("expected an error for an unknown workflow name")
	}
}
