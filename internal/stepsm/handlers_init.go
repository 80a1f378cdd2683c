package stepsm

import (
	"github.com/rlemke/agentflow-sub002/internal/domain/afl"
	"github.com/rlemke/agentflow-sub002/internal/engineerr"
	"github.com/rlemke/agentflow-sub002/internal/expr"
)

// handleStatementBegin processes state.Created: nothing to do but
// advance.
func handleStatementBegin(_ *Context, step *afl.Step) error {
	Transition(step)
	return nil
}

// handleFacetInitializationBegin evaluates the call's arguments — this
// is where "$.input + 1" becomes a concrete value — and stores the
// results as the step's parameter attributes (or return attributes, for
// a SchemaInstantiation, whose fields are read back as step.field).
func handleFacetInitializationBegin(ctx *Context, step *afl.Step) error {
	stmt, ok := ctx.StatementOf(step)
	if !ok {
		// Workflow root: no call arguments to evaluate, only defaults
		// declared on the workflow's own params.
		applyWorkflowRootDefaults(ctx, step)
		Transition(step)
		return nil
	}

	evalCtx := buildEvaluationContext(ctx, step)

	evaluated := map[string]any{}
	for _, arg := range stmt.Args {
		v, err := expr.Evaluate(arg.Value, evalCtx)
		if err != nil {
			return err
		}
		evaluated[arg.Name] = v
	}

	if step.FacetName != "" {
		if facet, ok := ctx.Program.Facet(step.FacetName); ok {
			for _, p := range facet.Params {
				if _, given := evaluated[p.Name]; given || p.Default == nil {
					continue
				}
				v, err := expr.Evaluate(*p.Default, evalCtx)
				if err != nil {
					return err
				}
				evaluated[p.Name] = v
			}
		}
	}

	isReturn := step.ObjectType == afl.ObjectSchemaInstantiation
	if step.Params == nil {
		step.Params = afl.Attributes{}
	}
	if step.Returns == nil {
		step.Returns = afl.Attributes{}
	}
	for name, v := range evaluated {
		if isReturn {
			step.Returns.Set(name, v, "")
		} else {
			step.Params.Set(name, v, "")
		}
	}

	Transition(step)
	return nil
}

func handleFacetInitializationEnd(_ *Context, step *afl.Step) error {
	Transition(step)
	return nil
}

// applyWorkflowRootDefaults fills a workflow root step's params from
// the workflow's own parameter defaults, for any not already set by the
// caller (§6.2 submission inputs).
func applyWorkflowRootDefaults(ctx *Context, step *afl.Step) {
	if step.Params == nil {
		step.Params = afl.Attributes{}
	}
	for name, v := range ctx.WorkflowDefaults {
		if _, given := step.Params[name]; given {
			continue
		}
		step.Params.Set(name, v, "")
	}
}

// buildEvaluationContext assembles the expression evaluator's scope for
// a step: InputRef resolves against the containing block's container
// params (or the workflow root's, or a foreach variable), StepRef
// resolves against sibling steps completed earlier in the same block.
func buildEvaluationContext(ctx *Context, step *afl.Step) expr.Context {
	inputs := resolveInputs(ctx, step)
	foreachVar, foreachValue, hasForeach := resolveForeachScope(ctx, step)

	return expr.Context{
		Inputs:       inputs,
		HasForeach:   hasForeach,
		ForeachVar:   foreachVar,
		ForeachValue: foreachValue,
		StepID:       step.ID.String(),
		GetStepOutput: func(stepName, attr string) (any, error) {
			sibling, found := ctx.GetCompletedStepByName(stepName, step.BlockID)
			if !found {
				return nil, engineerr.Reference("stepsm.GetStepOutput", "step \""+stepName+"\" not found or not complete")
			}
			a, ok := sibling.Returns[attr]
			if !ok {
				a, ok = sibling.Params[attr]
			}
			if !ok {
				return nil, engineerr.Reference("stepsm.GetStepOutput", "attribute \""+attr+"\" not found on step \""+stepName+"\"")
			}
			return a.Value, nil
		},
	}
}

// resolveInputs finds the InputRef ($.) scope for step: the params of
// the container that owns the block this step lives in (for a Block
// step, its own container), or step's own params when there is no such
// container, which is the workflow root's case.
func resolveInputs(ctx *Context, step *afl.Step) map[string]any {
	if step.ObjectType.IsBlock() {
		if step.ContainerID != nil {
			if container, err := ctx.GetStep(*step.ContainerID); err == nil && container != nil {
				return container.Params.Values()
			}
		}
		return step.Params.Values()
	}
	if step.BlockID != nil {
		if block, err := ctx.GetStep(*step.BlockID); err == nil && block != nil && block.ContainerID != nil {
			if container, err := ctx.GetStep(*block.ContainerID); err == nil && container != nil {
				return container.Params.Values()
			}
		}
	}
	return step.Params.Values()
}

// resolveForeachScope reports the foreach variable/value in scope for
// step, if its containing block is a foreach sub-block.
func resolveForeachScope(ctx *Context, step *afl.Step) (string, any, bool) {
	if step.BlockID == nil {
		return "", nil, false
	}
	block, err := ctx.GetStep(*step.BlockID)
	if err != nil || block == nil || block.ForeachVar == "" {
		return "", nil, false
	}
	return block.ForeachVar, block.ForeachValue.V, true
}
