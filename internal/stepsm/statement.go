package stepsm

import "github.com/rlemke/agentflow-sub002/internal/depgraph"
import "github.com/rlemke/agentflow-sub002/internal/domain/afl"

// StatementOf resolves the static statement definition a non-root step
// materializes, by rebuilding the dependency graph of its owning block
// and looking the step's statement_id up in it. A step with no block_id
// (a workflow root, or a top-level Block step) has none.
//
// This is the default StatementOf a caller outside this package should
// wire onto Context — it is exported because bodyOf (used internally by
// the StatementBlocks phase) calls ctx.StatementOf itself, so whoever
// builds a Context needs a way to populate that field without reaching
// into this package's unexported block-resolution helpers.
func StatementOf(ctx *Context, step *afl.Step) (*depgraph.StatementDefinition, bool) {
	if step.BlockID == nil {
		return nil, false
	}
	block, err := ctx.GetStep(*step.BlockID)
	if err != nil || block == nil {
		return nil, false
	}
	ast, ok := andThenBlockOf(ctx, block)
	if !ok {
		return nil, false
	}
	g := depgraph.Build(ast, nil, ctx.Program)
	return g.Statement(step.StatementID)
}
