package stepsm

import "github.com/rlemke/agentflow-sub002/internal/domain/afl"

// handleEventTransmit is only meaningful for steps whose facet_name
// resolves to an event facet; everything else is an identity transition.
// On first visit it emits a dispatch Task and stays; once that task's
// result lands, it merges the result into returns and advances.
func handleEventTransmit(ctx *Context, step *afl.Step) error {
	if step.FacetName == "" {
		Transition(step)
		return nil
	}
	if _, isEvent := ctx.Program.EventFacet(step.FacetName); !isEvent {
		Transition(step)
		return nil
	}

	result, done, err := ctx.TaskResult(step)
	if err != nil {
		return err
	}
	if done {
		if step.Returns == nil {
			step.Returns = afl.Attributes{}
		}
		for name, v := range result {
			step.Returns.Set(name, v, "")
		}
		Transition(step)
		return nil
	}

	// EmitTask is idempotent per step: a step revisiting EventTransmit
	// before its task lands must not enqueue a second dispatch.
	if _, err := ctx.EmitTask(step, step.FacetName, step.Params.Values()); err != nil {
		return err
	}
	Stay(step, false)
	return nil
}

func handleStatementEnd(_ *Context, step *afl.Step) error {
	Transition(step)
	return nil
}

// handleStatementComplete is the only non-error terminal phase; nothing
// further happens here, Tick's IsTerminal check stops the driver loop.
func handleStatementComplete(_ *Context, _ *afl.Step) error {
	return nil
}
