package stepsm

import "github.com/rlemke/agentflow-sub002/internal/domain/afl"

// handleFacetScriptsBegin invokes the sandbox collaborator when the
// facet's body is a script block, writing its output into the step's
// returns. A facet with no script body is an identity transition.
func handleFacetScriptsBegin(ctx *Context, step *afl.Step) error {
	if ctx.Sandbox == nil || step.FacetName == "" {
		Transition(step)
		return nil
	}
	facet, ok := ctx.Program.Facet(step.FacetName)
	if !ok || facet.Body.Script == nil {
		Transition(step)
		return nil
	}
	out, err := ctx.Sandbox(facet.Body.Script.Language, facet.Body.Script.Code, step.Params.Values())
	if err != nil {
		return err
	}
	if out != nil {
		if step.Returns == nil {
			step.Returns = afl.Attributes{}
		}
		for name, v := range out {
			step.Returns.Set(name, v, "")
		}
	}
	Transition(step)
	return nil
}

func handleFacetScriptsEnd(_ *Context, step *afl.Step) error {
	Transition(step)
	return nil
}

// handleStatementScriptsBegin/End are reserved for statement-level
// scripts; this core defines none, so both are identity transitions.
func handleStatementScriptsBegin(_ *Context, step *afl.Step) error {
	Transition(step)
	return nil
}

func handleStatementScriptsEnd(_ *Context, step *afl.Step) error {
	Transition(step)
	return nil
}
