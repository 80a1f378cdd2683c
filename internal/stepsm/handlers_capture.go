package stepsm

import (
	"github.com/google/uuid"

	"github.com/rlemke/agentflow-sub002/internal/domain/afl"
)

// handleStatementCaptureBegin merges yield results from this step's
// completed child blocks into its own returns: every yield statement in a
// child block (including, for a foreach block, every yield nested inside
// its per-element sub-blocks) contributes its named attributes to the
// container. A name yielded by more than one statement — the normal case
// for a foreach, where every iteration's yield reuses the same attribute
// name — aggregates into a slice in iteration order rather than letting
// the last one win; a name yielded exactly once stays a scalar so the
// non-foreach case is unaffected.
func handleStatementCaptureBegin(ctx *Context, step *afl.Step) error {
	children, err := childBlockSteps(ctx, step.ID)
	if err != nil {
		return err
	}
	if step.Returns == nil {
		step.Returns = afl.Attributes{}
	}

	collected := map[string][]afl.Attribute{}
	order := []string{}
	for _, block := range children {
		yields, err := yieldStepsOf(ctx, block.ID)
		if err != nil {
			return err
		}
		for _, y := range yields {
			for name, attr := range y.Params {
				if _, seen := collected[name]; !seen {
					order = append(order, name)
				}
				collected[name] = append(collected[name], attr)
			}
		}
	}
	for _, name := range order {
		attrs := collected[name]
		if len(attrs) == 1 {
			step.Returns.Set(name, attrs[0].Value, attrs[0].TypeHint)
			continue
		}
		values := make([]any, len(attrs))
		for i, a := range attrs {
			values[i] = a.Value
		}
		step.Returns.Set(name, values, "")
	}

	Transition(step)
	return nil
}

func handleStatementCaptureEnd(_ *Context, step *afl.Step) error {
	Transition(step)
	return nil
}

// yieldStepsOf returns the completed yield statements materialized
// inside blockID, merging storage with this tick's pending set. A child
// that is itself an AndThenBlock (a foreach clause's per-element
// sub-block, whose own BlockID points at blockID) is descended into
// recursively, so a foreach's yields — one level further down than a
// plain block's — are still found.
func yieldStepsOf(ctx *Context, blockID uuid.UUID) ([]*afl.Step, error) {
	stored, err := ctx.StepsByBlock(blockID)
	if err != nil {
		return nil, err
	}
	seen := make(map[string]struct{}, len(stored))
	var out []*afl.Step
	for _, s := range stored {
		seen[s.StatementID] = struct{}{}
		switch {
		case s.ObjectType == afl.ObjectYieldAssignment && s.IsComplete():
			out = append(out, s)
		case s.ObjectType.IsBlock():
			nested, err := yieldStepsOf(ctx, s.ID)
			if err != nil {
				return nil, err
			}
			out = append(out, nested...)
		}
	}
	for _, s := range ctx.Pending.updated() {
		if s.BlockID == nil || *s.BlockID != blockID {
			continue
		}
		if _, already := seen[s.StatementID]; already {
			continue
		}
		switch {
		case s.ObjectType == afl.ObjectYieldAssignment && s.IsComplete():
			out = append(out, s)
		case s.ObjectType.IsBlock():
			nested, err := yieldStepsOf(ctx, s.ID)
			if err != nil {
				return nil, err
			}
			out = append(out, nested...)
		}
	}
	return out, nil
}
