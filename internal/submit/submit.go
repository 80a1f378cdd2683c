// Package submit is the boundary command that starts an execution
// (§6.2): it turns a compiled program plus a chosen workflow and its
// inputs into the five durable records the execution loop needs — Flow,
// Workflow, Runner, the root Step, and that step's own afl:execute Task — written
// in one transaction so the poller never sees a half-submitted runner.
package submit

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"github.com/google/uuid"

	"github.com/rlemke/agentflow-sub002/internal/domain/afl"
	"github.com/rlemke/agentflow-sub002/internal/engine"
	"github.com/rlemke/agentflow-sub002/internal/engineerr"
	"github.com/rlemke/agentflow-sub002/internal/program"
	"github.com/rlemke/agentflow-sub002/internal/store"
)

// Result is what Submit hands back to a caller: the identifiers needed to
// look up progress. internal/engine's poller does the rest; no further
// submitter action is required.
type Result struct {
	FlowID     uuid.UUID
	WorkflowID uuid.UUID
	RunnerID   uuid.UUID
	RootStepID uuid.UUID
}

// Submit starts one execution of workflowName within prog. source is the
// combined program text the Flow row records alongside its parsed form,
// kept for audit/replay even though the engine only ever reads the
// parsed Program column back. inputs are matched against the workflow's
// declared params by name; an input with no matching param, or a param
// with neither an input nor a default, is left for stepsm's own
// evaluator to report as a reference error against the step that needs
// it, rather than rejected here — submission does not type-check
// against the workflow's declared params.
func Submit(ctx context.Context, st *store.Store, source string, prog *program.Program, workflowName string, inputs map[string]any) (Result, error) {
	wf, ok := prog.Workflow(workflowName)
	if !ok {
		return Result{}, engineerr.New(engineerr.KindReference, "submit.Submit",
			fmt.Sprintf("workflow %q not found in program", workflowName), nil)
	}

	progValue, err := encodeProgram(prog)
	if err != nil {
		return Result{}, engineerr.Wrap(engineerr.KindInternal, "submit.Submit", err)
	}

	now := afl.NowMillis(time.Now())

	flow := &afl.Flow{
		ID:        uuid.New(),
		Source:    source,
		Program:   progValue,
		CreatedAt: now,
	}
	workflow := &afl.Workflow{
		ID:        uuid.New(),
		FlowID:    flow.ID,
		Name:      wf.Name,
		CreatedAt: now,
	}
	runner := &afl.Runner{
		ID:         uuid.New(),
		WorkflowID: workflow.ID,
		FlowID:     flow.ID,
		State:      afl.RunnerCreated,
		Inputs:     afl.JSONMap(inputs),
		CreatedAt:  now,
		UpdatedAt:  now,
	}
	root := &afl.Step{
		ID:            uuid.New(),
		RunnerID:      runner.ID,
		WorkflowID:    workflow.ID,
		FlowID:        flow.ID,
		ObjectType:    afl.ObjectVariableAssignment,
		StatementID:   "root",
		StatementName: "root",
		State:         afl.StateCreated,
		Params:        rootParams(wf, inputs),
		Returns:       afl.Attributes{},
		CreatedAt:     now,
		UpdatedAt:     now,
	}
	runner.RootStepID = &root.ID

	task := &afl.Task{
		ID:           uuid.New(),
		Name:         engine.ExecuteTaskName,
		RunnerID:     runner.ID,
		WorkflowID:   workflow.ID,
		FlowID:       flow.ID,
		StepID:       &root.ID,
		State:        afl.TaskPending,
		TaskListName: engine.ExecuteTaskList,
		Data:         afl.JSONMap{},
		CreatedAt:    now,
		UpdatedAt:    now,
	}

	if err := st.CreateRunnerSubmission(ctx, flow, workflow, runner, root, task); err != nil {
		return Result{}, err
	}

	return Result{
		FlowID:     flow.ID,
		WorkflowID: workflow.ID,
		RunnerID:   runner.ID,
		RootStepID: root.ID,
	}, nil
}

// rootParams builds the root step's parameter attributes from the
// workflow's declared params, carrying each param's type as the
// attribute's type hint the same way a compiled step's params would.
func rootParams(wf *program.Workflow, inputs map[string]any) afl.Attributes {
	attrs := afl.Attributes{}
	for _, p := range wf.Params {
		if v, ok := inputs[p.Name]; ok {
			attrs.Set(p.Name, v, p.Type)
		}
	}
	return attrs
}

// encodeProgram round-trips prog through JSON into the generic shape
// afl.Flow.Program stores, matching how internal/engine's loadProgram
// reads it back (see internal/engine/program.go).
func encodeProgram(prog *program.Program) (afl.JSONValue, error) {
	raw, err := json.Marshal(prog)
	if err != nil {
		return afl.JSONValue{}, err
	}
	var v any
	if err := json.Unmarshal(raw, &v); err != nil {
		return afl.JSONValue{}, err
	}
	return afl.JSONValue{V: v}, nil
}
