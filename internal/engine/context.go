package engine

import (
	"github.com/google/uuid"

	"github.com/rlemke/agentflow-sub002/internal/depgraph"
	"github.com/rlemke/agentflow-sub002/internal/domain/afl"
	"github.com/rlemke/agentflow-sub002/internal/platform/dbctx"
	"github.com/rlemke/agentflow-sub002/internal/program"
	"github.com/rlemke/agentflow-sub002/internal/stepsm"
)

// buildContext wires every stepsm.Context lookup against real storage,
// scoped to dbc for the duration of one tick. wf is the workflow the
// ticked step's runner executes; defaults is its pre-evaluated parameter
// defaults.
func (e *Engine) buildContext(dbc dbctx.Context, prog *program.Program, wf *program.Workflow, defaults map[string]any) *stepsm.Context {
	sctx := &stepsm.Context{
		Ctx:              dbc.Ctx,
		Program:          prog,
		WorkflowDefaults: defaults,
		Pending:          &stepsm.PendingChanges{},

		GetStep: func(id uuid.UUID) (*afl.Step, error) {
			return e.Store.GetStep(dbc.Ctx, id)
		},
		StepsByBlock: func(blockID uuid.UUID) ([]*afl.Step, error) {
			return e.Store.StepsByBlock(dbc.Ctx, blockID)
		},
		StepsByContainer: func(containerID uuid.UUID) ([]*afl.Step, error) {
			return e.Store.StepsByContainer(dbc.Ctx, containerID)
		},
		BlockStepExists: func(blockID uuid.UUID, statementID string) (bool, error) {
			return e.Store.BlockStepExists(dbc.Ctx, blockID, statementID)
		},
		ContainerStepExists: func(containerID uuid.UUID, statementID string) (bool, error) {
			return e.Store.ContainerStepExists(dbc.Ctx, containerID, statementID)
		},
		GetCompletedStepByName: func(name string, blockID *uuid.UUID) (*afl.Step, bool) {
			return e.Store.GetCompletedStepByName(dbc.Ctx, name, blockID)
		},

		WorkflowBody: func() (program.Body, bool) {
			if wf == nil {
				return program.Body{}, false
			}
			return wf.Body, true
		},
		FacetBody: func(facetName string) (program.Body, bool) {
			facet, ok := prog.Facet(facetName)
			if !ok {
				return program.Body{}, false
			}
			return facet.Body, true
		},

		Sandbox: func(language, code string, params map[string]any) (map[string]any, error) {
			return e.Sandbox.Run(language, code, params)
		},

		EmitTask: func(step *afl.Step, facetName string, data map[string]any) (uuid.UUID, error) {
			return e.emitTask(dbc, step, facetName, data)
		},
		TaskResult: func(step *afl.Step) (map[string]any, bool, error) {
			return e.taskResult(dbc.Ctx, step)
		},

		CreateChildStep: func(step *afl.Step) error {
			if err := e.Store.CreateStep(dbc, step); err != nil {
				return err
			}
			return e.wakeStep(dbc.Ctx, step.ID, step.RunnerID, step.WorkflowID, step.FlowID)
		},
	}

	sctx.StatementOf = func(step *afl.Step) (*depgraph.StatementDefinition, bool) {
		return stepsm.StatementOf(sctx, step)
	}
	sctx.InlineBody = func(step *afl.Step) (program.Body, bool) {
		stmt, ok := sctx.StatementOf(step)
		if !ok || stmt.InlineBody == nil {
			return program.Body{}, false
		}
		return *stmt.InlineBody, true
	}

	return sctx
}
