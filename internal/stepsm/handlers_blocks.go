package stepsm

import (
	"fmt"
	"strconv"
	"strings"

	"github.com/google/uuid"

	"github.com/rlemke/agentflow-sub002/internal/domain/afl"
	"github.com/rlemke/agentflow-sub002/internal/program"
)

// handleMixinBlocksBegin/Continue/End and handleMixinCaptureBegin/End are
// reserved for mixin-attached blocks; this core declares no mixin bodies,
// so every phase is an identity transition.
func handleMixinBlocksBegin(_ *Context, step *afl.Step) error {
	Transition(step)
	return nil
}

func handleMixinBlocksContinue(_ *Context, step *afl.Step) error {
	Transition(step)
	return nil
}

func handleMixinBlocksEnd(_ *Context, step *afl.Step) error {
	Transition(step)
	return nil
}

func handleMixinCaptureBegin(_ *Context, step *afl.Step) error {
	Transition(step)
	return nil
}

func handleMixinCaptureEnd(_ *Context, step *afl.Step) error {
	Transition(step)
	return nil
}

// blockStatementID/blockStatementIndex encode/decode which position in a
// container's Body a top-level child Block step materializes.
func blockStatementID(index int) string {
	return fmt.Sprintf("block-%d", index)
}

func blockStatementIndex(statementID string) (int, bool) {
	rest, ok := strings.CutPrefix(statementID, "block-")
	if !ok {
		return 0, false
	}
	idx, err := strconv.Atoi(rest)
	if err != nil {
		return 0, false
	}
	return idx, true
}

// bodyOf resolves which Body a step's StatementBlocks phase materializes,
// per §4.1: the workflow's body for the root, otherwise an inline
// statement-level andThen if present, otherwise the called facet's body.
func bodyOf(ctx *Context, step *afl.Step) (program.Body, bool) {
	if _, hasStatement := ctx.StatementOf(step); !hasStatement {
		return ctx.WorkflowBody()
	}
	if ctx.InlineBody != nil {
		if body, ok := ctx.InlineBody(step); ok {
			return body, true
		}
	}
	return ctx.FacetBody(step.FacetName)
}

// handleStatementBlocksBegin materializes the container's body blocks as
// child Block steps, one per AndThenBlock, skipping any already created
// (in storage or this tick's pending set).
func handleStatementBlocksBegin(ctx *Context, step *afl.Step) error {
	body, ok := bodyOf(ctx, step)
	if !ok || len(body.Blocks) == 0 {
		Transition(step)
		return nil
	}

	for i := range body.Blocks {
		statementID := blockStatementID(i)
		exists, err := ctx.ContainerStepExists(step.ID, statementID)
		if err != nil {
			return err
		}
		if exists || pendingContainerChild(ctx, step.ID, statementID) {
			continue
		}
		child := &afl.Step{
			ID:            uuid.New(),
			RunnerID:      step.RunnerID,
			WorkflowID:    step.WorkflowID,
			FlowID:        step.FlowID,
			ObjectType:    afl.ObjectAndThenBlock,
			StatementID:   statementID,
			ContainerID:   &step.ID,
			ContainerType: "statement",
			RootID:        step.RootID,
			State:         afl.StateCreated,
			Params:        afl.Attributes{},
			Returns:       afl.Attributes{},
		}
		if err := ctx.CreateChildStep(child); err != nil {
			return err
		}
		ctx.Pending.AddCreated(child)
	}

	Transition(step)
	return nil
}

// handleStatementBlocksContinue waits until every child Block step
// reaches StatementComplete.
func handleStatementBlocksContinue(ctx *Context, step *afl.Step) error {
	children, err := childBlockSteps(ctx, step.ID)
	if err != nil {
		return err
	}
	for _, child := range children {
		if !child.IsComplete() {
			Stay(step, true)
			return nil
		}
	}
	Transition(step)
	return nil
}

func handleStatementBlocksEnd(_ *Context, step *afl.Step) error {
	Transition(step)
	return nil
}

// childBlockSteps returns every direct top-level Block child of
// containerID, merging storage with this tick's pending creations.
func childBlockSteps(ctx *Context, containerID uuid.UUID) ([]*afl.Step, error) {
	stored, err := ctx.StepsByContainer(containerID)
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
		if s.ContainerID == nil || *s.ContainerID != containerID {
			continue
		}
		if _, already := seen[s.StatementID]; already {
			continue
		}
		out = append(out, s)
	}
	return out, nil
}

// pendingContainerChild reports whether a Block child with statementID has
// already been queued for creation earlier in this tick.
func pendingContainerChild(ctx *Context, containerID uuid.UUID, statementID string) bool {
	for _, s := range ctx.Pending.created() {
		if s.ContainerID != nil && *s.ContainerID == containerID && s.StatementID == statementID {
			return true
		}
	}
	return false
}
