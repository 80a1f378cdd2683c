package engine

import (
	"context"
	"encoding/json"

	"github.com/google/uuid"

	"github.com/rlemke/agentflow-sub002/internal/engineerr"
	"github.com/rlemke/agentflow-sub002/internal/expr"
	"github.com/rlemke/agentflow-sub002/internal/program"
)

// loadProgram decodes a Flow's generically-stored Program column back
// into the typed AST. The column is a jsonb blob scanned into `any`, so
// round-tripping it through json.Marshal/Unmarshal is the only way back
// to program.Program's concrete field tags.
func (e *Engine) loadProgram(ctx context.Context, flowID uuid.UUID) (*program.Program, error) {
	flow, err := e.Store.GetFlow(ctx, flowID)
	if err != nil {
		return nil, err
	}
	raw, err := json.Marshal(flow.Program.V)
	if err != nil {
		return nil, engineerr.Wrap(engineerr.KindInternal, "engine.loadProgram", err)
	}
	var prog program.Program
	if err := json.Unmarshal(raw, &prog); err != nil {
		return nil, engineerr.Wrap(engineerr.KindInternal, "engine.loadProgram", err)
	}
	return &prog, nil
}

// workflowDefaults pre-evaluates a workflow's own parameter defaults
// once per tick. A default expression has no sibling steps or caller
// inputs to resolve against, so it is evaluated with an empty scope
// rather than the per-step evaluation context buildContext assembles.
func workflowDefaults(wf *program.Workflow) (map[string]any, error) {
	out := map[string]any{}
	for _, p := range wf.Params {
		if p.Default == nil {
			continue
		}
		v, err := expr.Evaluate(*p.Default, expr.Context{})
		if err != nil {
			return nil, err
		}
		out[p.Name] = v
	}
	return out, nil
}

// workflowOf resolves the Workflow record a step's workflow_id names
// down to the compiled program.Workflow it runs, so WorkflowBody and the
// root's defaults can be resolved by name rather than ID.
func (e *Engine) workflowOf(ctx context.Context, prog *program.Program, workflowID uuid.UUID) (*program.Workflow, error) {
	rec, err := e.Store.GetWorkflow(ctx, workflowID)
	if err != nil {
		return nil, err
	}
	wf, ok := prog.Workflow(rec.Name)
	if !ok {
		return nil, engineerr.New(engineerr.KindReference, "engine.workflowOf", "workflow \""+rec.Name+"\" not found in compiled program", nil)
	}
	return wf, nil
}
