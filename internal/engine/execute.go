package engine

import (
	"context"
	"time"

	"github.com/google/uuid"

	"github.com/rlemke/agentflow-sub002/internal/domain/afl"
	"github.com/rlemke/agentflow-sub002/internal/engineerr"
	"github.com/rlemke/agentflow-sub002/internal/platform/dbctx"
	"github.com/rlemke/agentflow-sub002/internal/stepsm"
)

// defaultLeaseFor is how long an execution task stays leased before
// another poller is allowed to reclaim it.
const defaultLeaseFor = 2 * time.Minute

// emitTask enqueues an event-facet dispatch task for step, idempotently:
// a step revisiting EventTransmit before its task lands must not enqueue
// a second dispatch, so an existing task for this step is reused as-is.
func (e *Engine) emitTask(dbc dbctx.Context, step *afl.Step, facetName string, data map[string]any) (uuid.UUID, error) {
	if existing, found, err := e.Store.GetTaskForStep(dbc.Ctx, step.ID); err != nil {
		return uuid.Nil, err
	} else if found {
		return existing.ID, nil
	}

	now := afl.NowMillis(time.Now())
	task := &afl.Task{
		ID:           uuid.New(),
		Name:         facetName,
		RunnerID:     step.RunnerID,
		WorkflowID:   step.WorkflowID,
		FlowID:       step.FlowID,
		StepID:       &step.ID,
		State:        afl.TaskPending,
		TaskListName: facetName,
		Data:         afl.JSONMap(data),
		CreatedAt:    now,
		UpdatedAt:    now,
	}
	if err := e.Store.CreateTask(dbc, task); err != nil {
		return uuid.Nil, err
	}
	e.notify(dbc.Ctx, facetName)
	return task.ID, nil
}

// taskResult reports the outcome of step's dispatched event task, if
// any: (result, true, nil) once it completes, (nil, false, nil) while
// still pending/leased, or a KindHandlerFailure error once it fails —
// handleEventTransmit propagates that error straight into the step's
// terminal failure.
func (e *Engine) taskResult(ctx context.Context, step *afl.Step) (map[string]any, bool, error) {
	task, found, err := e.Store.GetTaskForStep(ctx, step.ID)
	if err != nil {
		return nil, false, err
	}
	if !found {
		return nil, false, nil
	}
	switch task.State {
	case afl.TaskCompleted:
		return map[string]any(task.Result), true, nil
	case afl.TaskFailed:
		return nil, false, engineerr.New(engineerr.KindHandlerFailure, "engine.taskResult", task.Error, nil)
	default:
		return nil, false, nil
	}
}

// wakeStep enqueues a fresh afl:execute task for stepID, the mechanism
// that resumes a step parked in EventTransmit once its dispatched task
// (an event facet's own execution, completed by an external handler
// outside this package) lands.
func (e *Engine) wakeStep(ctx context.Context, stepID, runnerID, workflowID, flowID uuid.UUID) error {
	now := afl.NowMillis(time.Now())
	task := &afl.Task{
		ID:           uuid.New(),
		Name:         ExecuteTaskName,
		RunnerID:     runnerID,
		WorkflowID:   workflowID,
		FlowID:       flowID,
		StepID:       &stepID,
		State:        afl.TaskPending,
		TaskListName: ExecuteTaskList,
		Data:         afl.JSONMap{},
		CreatedAt:    now,
		UpdatedAt:    now,
	}
	if err := e.Store.CreateTask(dbctx.Context{Ctx: ctx}, task); err != nil {
		return err
	}
	e.notify(ctx, ExecuteTaskList)
	return nil
}

// CompleteEventTask is how an external event-facet executor reports a
// successful dispatch back to the core: it completes the task under its
// lease, then wakes the waiting step so the next poll resumes it.
func (e *Engine) CompleteEventTask(ctx context.Context, taskID uuid.UUID, claimerID string, result map[string]any) error {
	task, err := e.Store.GetTask(ctx, taskID)
	if err != nil {
		return err
	}
	if err := e.Store.CompleteTask(dbctx.Context{Ctx: ctx}, taskID, claimerID, afl.JSONMap(result)); err != nil {
		return err
	}
	if task.StepID == nil {
		return nil
	}
	return e.wakeStep(ctx, *task.StepID, task.RunnerID, task.WorkflowID, task.FlowID)
}

// FailEventTask is CompleteEventTask's failure counterpart: it fails the
// task under its lease, then wakes the waiting step so its next poll
// observes the failure through TaskResult and terminates.
func (e *Engine) FailEventTask(ctx context.Context, taskID uuid.UUID, claimerID, errMsg string) error {
	task, err := e.Store.GetTask(ctx, taskID)
	if err != nil {
		return err
	}
	if err := e.Store.FailTask(dbctx.Context{Ctx: ctx}, taskID, claimerID, errMsg); err != nil {
		return err
	}
	if task.StepID == nil {
		return nil
	}
	return e.wakeStep(ctx, *task.StepID, task.RunnerID, task.WorkflowID, task.FlowID)
}

// stepUpdates projects the fields stepsm.Tick may have mutated into the
// column map UpdateStep's CAS write applies.
func stepUpdates(step *afl.Step) map[string]any {
	return map[string]any{
		"state":                step.State,
		"request_state_change": step.Transition.RequestStateChange,
		"request_push":         step.Transition.RequestPush,
		"error":                step.Error,
		"params":               step.Params,
		"returns":              step.Returns,
		"updated_at":           afl.NowMillis(time.Now()),
	}
}

// ExecuteStep claims one afl:execute task and drives its step through
// Tick. It reports claimed=false when the queue held nothing runnable,
// so a poller knows to stop draining and wait for the next tick.
func (e *Engine) ExecuteStep(ctx context.Context, claimerID string) (claimed bool, err error) {
	task, err := e.Store.ClaimNextTask(ctx, ExecuteTaskList, claimerID, defaultLeaseFor)
	if err != nil {
		return false, err
	}
	if task == nil {
		return false, nil
	}
	if task.StepID == nil {
		// Malformed task: nothing to tick. Complete it so it never blocks
		// the list, and report it as handled.
		_ = e.Store.CompleteTask(dbctx.Context{Ctx: ctx}, task.ID, claimerID, afl.JSONMap{"error": "missing step_id"})
		return true, nil
	}

	runErr := e.runStep(ctx, *task.StepID)

	if completeErr := e.Store.CompleteTask(dbctx.Context{Ctx: ctx}, task.ID, claimerID, afl.JSONMap{}); completeErr != nil {
		if !engineerr.Is(completeErr, engineerr.KindTaskLeaseLost) {
			e.Log.Warn("completing execute task failed", "task_id", task.ID, "error", completeErr)
		}
	}

	return true, runErr
}

// runStep loads step's program and workflow context, ticks it once, and
// persists the result — enqueueing a follow-up execute task if Tick says
// there is more work to do soon, or updating the owning runner if step
// just reached its terminal state as the workflow root.
func (e *Engine) runStep(ctx context.Context, stepID uuid.UUID) error {
	step, err := e.Store.GetStep(ctx, stepID)
	if err != nil {
		return err
	}

	prog, err := e.loadProgram(ctx, step.FlowID)
	if err != nil {
		return err
	}
	wf, err := e.workflowOf(ctx, prog, step.WorkflowID)
	if err != nil {
		return err
	}
	defaults, err := workflowDefaults(wf)
	if err != nil {
		return err
	}

	dbc := dbctx.Context{Ctx: ctx}
	sctx := e.buildContext(dbc, prog, wf, defaults)

	origVersion := step.Version
	res, tickErr := stepsm.Tick(sctx, step)
	if tickErr != nil {
		e.Log.Warn("step tick reported an error", "step_id", step.ID, "error", tickErr)
	}

	if updErr := e.Store.UpdateStep(dbc, step.ID, origVersion, stepUpdates(res.Step)); updErr != nil {
		if engineerr.Is(updErr, engineerr.KindConcurrency) {
			// Another executor already advanced this step past the
			// version we ticked from; our result is stale, discard it.
			e.Log.Debug("step update lost a concurrent race, discarding this tick's result", "step_id", step.ID)
			return nil
		}
		return updErr
	}

	if res.Done {
		return e.settleRunnerIfRoot(ctx, res.Step)
	}
	if res.RequeuePromptly {
		return e.wakeStep(ctx, step.ID, step.RunnerID, step.WorkflowID, step.FlowID)
	}
	return nil
}

// settleRunnerIfRoot marks the owning runner Succeeded/Failed once its
// root step reaches a terminal state. A non-root step reaching
// StatementComplete needs no runner update: its parent block's own
// BlockExecutionContinue/StatementBlocksContinue poll will notice on its
// next tick.
func (e *Engine) settleRunnerIfRoot(ctx context.Context, step *afl.Step) error {
	runner, err := e.Store.GetRunner(ctx, step.RunnerID)
	if err != nil {
		return err
	}
	if runner.RootStepID == nil || *runner.RootStepID != step.ID {
		return nil
	}
	if runner.State.IsTerminal() {
		return nil
	}

	dbc := dbctx.Context{Ctx: ctx}
	now := afl.NowMillis(time.Now())
	if step.Error != "" {
		return e.Store.UpdateRunnerState(dbc, runner.ID,
			[]afl.RunnerState{afl.RunnerCreated, afl.RunnerRunning},
			map[string]any{"state": afl.RunnerFailed, "error": step.Error, "updated_at": now},
		)
	}
	return e.Store.UpdateRunnerState(dbc, runner.ID,
		[]afl.RunnerState{afl.RunnerCreated, afl.RunnerRunning},
		map[string]any{"state": afl.RunnerSucceeded, "updated_at": now},
	)
}
