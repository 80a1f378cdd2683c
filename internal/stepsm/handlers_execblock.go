package stepsm

import (
	"strconv"

	"github.com/google/uuid"

	"github.com/rlemke/agentflow-sub002/internal/block"
	"github.com/rlemke/agentflow-sub002/internal/depgraph"
	"github.com/rlemke/agentflow-sub002/internal/domain/afl"
	"github.com/rlemke/agentflow-sub002/internal/engineerr"
	"github.com/rlemke/agentflow-sub002/internal/expr"
	"github.com/rlemke/agentflow-sub002/internal/program"
)

// andThenBlockOf resolves the AST a Block step (object_type AndThenBlock)
// materializes: for a foreach sub-block, its parent foreach block's body
// with the foreach clause stripped; otherwise the Nth block of its
// container's body, N decoded from its statement_id.
func andThenBlockOf(ctx *Context, blockStep *afl.Step) (program.AndThenBlock, bool) {
	if blockStep.ForeachVar != "" && blockStep.BlockID != nil {
		parent, err := ctx.GetStep(*blockStep.BlockID)
		if err != nil || parent == nil {
			return program.AndThenBlock{}, false
		}
		parentBody, ok := andThenBlockOf(ctx, parent)
		if !ok {
			return program.AndThenBlock{}, false
		}
		parentBody.Foreach = nil
		return parentBody, true
	}

	if blockStep.ContainerID == nil {
		return program.AndThenBlock{}, false
	}
	container, err := ctx.GetStep(*blockStep.ContainerID)
	if err != nil || container == nil {
		return program.AndThenBlock{}, false
	}
	body, ok := bodyOf(ctx, container)
	if !ok {
		return program.AndThenBlock{}, false
	}
	idx, ok := blockStatementIndex(blockStep.StatementID)
	if !ok || idx < 0 || idx >= len(body.Blocks) {
		return program.AndThenBlock{}, false
	}
	return body.Blocks[idx], true
}

// handleBlockExecutionBegin materializes a block's statements: foreach
// sub-blocks for a foreach clause, or direct dependency-graph-ready
// statements otherwise.
func handleBlockExecutionBegin(ctx *Context, step *afl.Step) error {
	ast, ok := andThenBlockOf(ctx, step)
	if !ok {
		Transition(step)
		return nil
	}

	if ast.Foreach != nil {
		return beginForeach(ctx, step, ast)
	}
	return beginDependencyGraph(ctx, step, ast)
}

func beginForeach(ctx *Context, step *afl.Step, ast program.AndThenBlock) error {
	evalCtx := buildEvaluationContext(ctx, step)
	iterable, err := expr.Evaluate(ast.Foreach.Iterable, evalCtx)
	if err != nil {
		return err
	}
	elements, ok := iterable.([]any)
	if !ok {
		return engineerr.Evaluation("stepsm.BlockExecutionBegin", "foreach iterable did not evaluate to an array")
	}

	for i, elem := range elements {
		statementID := foreachStatementID(i)
		exists, lookupErr := ctx.BlockStepExists(step.ID, statementID)
		if lookupErr != nil {
			return lookupErr
		}
		if exists || pendingBlockChild(ctx, step.ID, statementID) {
			continue
		}
		sub := &afl.Step{
			ID:            uuid.New(),
			RunnerID:      step.RunnerID,
			WorkflowID:    step.WorkflowID,
			FlowID:        step.FlowID,
			ObjectType:    afl.ObjectAndThenBlock,
			StatementID:   statementID,
			ContainerID:   step.ContainerID,
			ContainerType: step.ContainerType,
			BlockID:       &step.ID,
			RootID:        step.RootID,
			ForeachVar:    ast.Foreach.Variable,
			ForeachValue:  afl.JSONValue{V: elem},
			State:         afl.StateCreated,
			Params:        afl.Attributes{},
			Returns:       afl.Attributes{},
		}
		if err := ctx.CreateChildStep(sub); err != nil {
			return err
		}
		ctx.Pending.AddCreated(sub)
	}

	Transition(step)
	return nil
}

func beginDependencyGraph(ctx *Context, step *afl.Step, ast program.AndThenBlock) error {
	graph := depgraph.Build(ast, nil, ctx.Program)
	children, err := childStatementSteps(ctx, step.ID)
	if err != nil {
		return err
	}
	analysis := block.Analyze(graph, children)
	for _, stmt := range analysis.Creatable() {
		child := block.NewChildStep(step, stmt)
		if err := ctx.CreateChildStep(child); err != nil {
			return err
		}
		ctx.Pending.AddCreated(child)
	}
	Transition(step)
	return nil
}

// handleBlockExecutionContinue re-derives the block's statement set every
// poll (§4.2: "each poll re-reads block children from storage plus any
// pending uncommitted writes"), creates any newly-ready statements, and
// advances once every statement has a complete step.
func handleBlockExecutionContinue(ctx *Context, step *afl.Step) error {
	ast, ok := andThenBlockOf(ctx, step)
	if !ok {
		Transition(step)
		return nil
	}

	children, err := childStatementSteps(ctx, step.ID)
	if err != nil {
		return err
	}

	if ast.Foreach != nil {
		for _, child := range children {
			if !child.IsComplete() {
				Stay(step, true)
				return nil
			}
		}
		Transition(step)
		return nil
	}

	graph := depgraph.Build(ast, nil, ctx.Program)
	analysis := block.Analyze(graph, children)
	for _, stmt := range analysis.Creatable() {
		child := block.NewChildStep(step, stmt)
		if err := ctx.CreateChildStep(child); err != nil {
			return err
		}
		ctx.Pending.AddCreated(child)
		analysis.Existing[stmt.ID] = struct{}{}
	}
	if analysis.Done() {
		Transition(step)
		return nil
	}
	Stay(step, true)
	return nil
}

func handleBlockExecutionEnd(_ *Context, step *afl.Step) error {
	Transition(step)
	return nil
}

// foreachStatementID gives a foreach sub-block the synthetic statement ID
// invariant 3 requires: "foreach-<index>".
func foreachStatementID(index int) string {
	return "foreach-" + strconv.Itoa(index)
}

// childStatementSteps returns every step materialized directly inside
// blockID, merging storage with this tick's pending creations.
func childStatementSteps(ctx *Context, blockID uuid.UUID) ([]*afl.Step, error) {
	stored, err := ctx.StepsByBlock(blockID)
	if err != nil {
		return nil, err
	}
	seen := make(map[string]struct{}, len(stored))
	out := make([]*afl.Step, 0, len(stored))
	for _, s := range stored {
		out = append(out, s)
		seen[s.StatementID] = struct{}{}
	}
	for _, s := range ctx.Pending.created() {
		if s.BlockID == nil || *s.BlockID != blockID {
			continue
		}
		if _, already := seen[s.StatementID]; already {
			continue
		}
		out = append(out, s)
	}
	return out, nil
}

func pendingBlockChild(ctx *Context, blockID uuid.UUID, statementID string) bool {
	for _, s := range ctx.Pending.created() {
		if s.BlockID != nil && *s.BlockID == blockID && s.StatementID == statementID {
			return true
		}
	}
	return false
}
