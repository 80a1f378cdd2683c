package store

import (
	"context"
	"testing"
	"time"

	"github.com/google/uuid"

	"github.com/rlemke/agentflow-sub002/internal/domain/afl"
	"github.com/rlemke/agentflow-sub002/internal/engineerr"
	"github.com/rlemke/agentflow-sub002/internal/platform/dbctx"
	"github.com/rlemke/agentflow-sub002/internal/store/storetest"
)

func newTestStore(t *testing.T) *Store {
	t.Helper()
	db := storetest.DB(t)
	tx := storetest.Tx(t, db)
	return &Store{db: tx, log: storetest.Logger(t), cas: NewCASGuard(tx)}
}

func seedFlowWorkflowRunner(t *testing.T, s *Store) (afl.Flow, afl.Workflow, afl.Runner) {
	t.Helper()
	ctx := context.Background()
	dbc := dbctx.Context{Ctx: ctx, Tx: s.db}

	flow := afl.Flow{ID: uuid.New(), Source: "dummy", Program: afl.JSONValue{V: map[string]any{}}, CreatedAt: afl.NowMillis(time.Now())}
	if err := s.SaveFlow(ctx, &flow); err != nil {
		t.Fatalf("save flow: %v", err)
	}

	wf := afl.Workflow{ID: uuid.New(), FlowID: flow.ID, Name: "Main", CreatedAt: afl.NowMillis(time.Now())}
	if err := s.SaveWorkflow(dbc, &wf); err != nil {
		t.Fatalf("save workflow: %v", err)
	}

	runner := afl.Runner{
		ID: uuid.New(), WorkflowID: wf.ID, FlowID: flow.ID,
		State: afl.RunnerCreated, Inputs: afl.JSONMap{"x": 1.0},
		CreatedAt: afl.NowMillis(time.Now()), UpdatedAt: afl.NowMillis(time.Now()),
	}
	if err := s.SaveRunner(dbc, &runner); err != nil {
		t.Fatalf("save runner: %v", err)
	}
	return flow, wf, runner
}

func TestStepCreateAndVersionedUpdate(t *testing.T) {
	s := newTestStore(t)
	_, wf, runner := seedFlowWorkflowRunner(t, s)
	ctx := context.Background()
	dbc := dbctx.Context{Ctx: ctx, Tx: s.db}

	step := afl.Step{
		ID: uuid.New(), RunnerID: runner.ID, WorkflowID: wf.ID, FlowID: runner.FlowID,
		ObjectType: afl.ObjectVariableAssignment, StatementID: "s1", State: afl.StateCreated,
		CreatedAt: afl.NowMillis(time.Now()), UpdatedAt: afl.NowMillis(time.Now()),
	}
	if err := s.CreateStep(dbc, &step); err != nil {
		t.Fatalf("create step: %v", err)
	}

	if err := s.UpdateStep(dbc, step.ID, 0, map[string]any{"state": afl.StateFacetInitializationBegin}); err != nil {
		t.Fatalf("update step: %v", err)
	}

	if err := s.UpdateStep(dbc, step.ID, 0, map[string]any{"state": afl.StateFacetScriptsBegin}); err == nil {
		t.Fatalf("expected stale version update to fail")
	} else if !engineerr.Is(err, engineerr.KindConcurrency) {
		t.Fatalf("expected KindConcurrency, got %v", err)
	}

	reloaded, err := s.GetStep(ctx, step.ID)
	if err != nil {
		t.Fatalf("get step: %v", err)
	}
	if reloaded.State != afl.StateFacetInitializationBegin {
		t.Fatalf("expected state to reflect the successful update, got %v", reloaded.State)
	}
}

func TestBlockStepExistsIdempotency(t *testing.T) {
	s := newTestStore(t)
	_, wf, runner := seedFlowWorkflowRunner(t, s)
	ctx := context.Background()
	dbc := dbctx.Context{Ctx: ctx, Tx: s.db}
	blockID := uuid.New()

	exists, err := s.BlockStepExists(ctx, blockID, "s1")
	if err != nil {
		t.Fatalf("block step exists: %v", err)
	}
	if exists {
		t.Fatalf("expected no step yet")
	}

	step := afl.Step{
		ID: uuid.New(), RunnerID: runner.ID, WorkflowID: wf.ID, FlowID: runner.FlowID,
		ObjectType: afl.ObjectVariableAssignment, StatementID: "s1", BlockID: &blockID,
		State: afl.StateCreated, CreatedAt: afl.NowMillis(time.Now()), UpdatedAt: afl.NowMillis(time.Now()),
	}
	if err := s.CreateStep(dbc, &step); err != nil {
		t.Fatalf("create step: %v", err)
	}

	exists, err = s.BlockStepExists(ctx, blockID, "s1")
	if err != nil {
		t.Fatalf("block step exists: %v", err)
	}
	if !exists {
		t.Fatalf("expected step to be found after creation")
	}
}

func TestClaimNextTaskSingleWinner(t *testing.T) {
	s := newTestStore(t)
	_, wf, runner := seedFlowWorkflowRunner(t, s)
	ctx := context.Background()
	dbc := dbctx.Context{Ctx: ctx, Tx: s.db}

	task := afl.Task{
		ID: uuid.New(), Name: "afl:execute", RunnerID: runner.ID, WorkflowID: wf.ID, FlowID: runner.FlowID,
		State: afl.TaskPending, TaskListName: "default",
		CreatedAt: afl.NowMillis(time.Now()), UpdatedAt: afl.NowMillis(time.Now()),
	}
	if err := s.CreateTask(dbc, &task); err != nil {
		t.Fatalf("create task: %v", err)
	}

	claimed, err := s.ClaimNextTask(ctx, "default", "worker-1", time.Minute)
	if err != nil {
		t.Fatalf("claim: %v", err)
	}
	if claimed == nil {
		t.Fatalf("expected a claimed task")
	}
	if claimed.State != afl.TaskLeased || claimed.ClaimerID != "worker-1" {
		t.Fatalf("unexpected claimed task: %+v", claimed)
	}

	again, err := s.ClaimNextTask(ctx, "default", "worker-2", time.Minute)
	if err != nil {
		t.Fatalf("second claim: %v", err)
	}
	if again != nil {
		t.Fatalf("expected no runnable task for a second claimer, got %+v", again)
	}
}

func TestCompleteTaskRejectsLostLease(t *testing.T) {
	s := newTestStore(t)
	_, wf, runner := seedFlowWorkflowRunner(t, s)
	ctx := context.Background()
	dbc := dbctx.Context{Ctx: ctx, Tx: s.db}

	task := afl.Task{
		ID: uuid.New(), Name: "afl:execute", RunnerID: runner.ID, WorkflowID: wf.ID, FlowID: runner.FlowID,
		State: afl.TaskPending, TaskListName: "default",
		CreatedAt: afl.NowMillis(time.Now()), UpdatedAt: afl.NowMillis(time.Now()),
	}
	if err := s.CreateTask(dbc, &task); err != nil {
		t.Fatalf("create task: %v", err)
	}
	claimed, err := s.ClaimNextTask(ctx, "default", "worker-1", time.Minute)
	if err != nil || claimed == nil {
		t.Fatalf("claim: %v", err)
	}

	if err := s.CompleteTask(dbc, task.ID, "worker-2", afl.JSONMap{}); err == nil {
		t.Fatalf("expected lease-lost error for wrong claimer")
	} else if !engineerr.Is(err, engineerr.KindTaskLeaseLost) {
		t.Fatalf("expected KindTaskLeaseLost, got %v", err)
	}

	if err := s.CompleteTask(dbc, task.ID, "worker-1", afl.JSONMap{"sum": 2.0}); err != nil {
		t.Fatalf("complete task: %v", err)
	}
}
