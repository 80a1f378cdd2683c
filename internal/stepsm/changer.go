package stepsm

import (
	"fmt"

	"github.com/rlemke/agentflow-sub002/internal/domain/afl"
	"github.com/rlemke/agentflow-sub002/internal/engineerr"
)

// Handler processes one phase for one step. It mutates step in place:
// Transition(step) to advance, Stay(step, push) to hold, or return an
// error to fail the step terminally.
type Handler func(ctx *Context, step *afl.Step) error

// Transition marks step ready to advance to the next phase in its
// transition table.
func Transition(step *afl.Step) {
	step.Transition.RequestStateChange = true
	step.Transition.RequestPush = false
}

// Stay holds step in its current phase. push requests the caller
// re-queue the owning task promptly (there is outstanding work to poll);
// without it, the step waits for an external event (a task completion)
// to wake it instead.
func Stay(step *afl.Step, push bool) {
	step.Transition.RequestStateChange = false
	step.Transition.RequestPush = push
}

// Result is what one Tick call reports back to its caller (the Block
// Executor or the engine's top-level execute handler).
type Result struct {
	// Step is the (possibly advanced) step, not yet persisted.
	Step *afl.Step
	// Done is true once the step reached StatementComplete or failed.
	Done bool
	// RequeuePromptly mirrors the step's final RequestPush flag: true
	// means there's more work to do soon (poll again), false means wait
	// for an external wake (a task landing).
	RequeuePromptly bool
}

// Tick drives step through its phase handlers until it either reaches
// a terminal state or stops requesting further transitions. It never
// blocks on external I/O itself — a handler that needs an external
// result marks the step Stay(push=false) and returns, trusting a later
// Tick (triggered by the awaited task's completion) to resume it.
func Tick(ctx *Context, step *afl.Step) (Result, error) {
	if step.IsComplete() || step.IsFailed() {
		return Result{Step: step, Done: true}, nil
	}

	table := transitionTableFor(step.ObjectType)

	for {
		if step.Transition.RequestStateChange {
			next, ok := table[step.State]
			if ok && next != step.State {
				step.State = next
			}
			step.Transition.RequestStateChange = false
		}

		handler, ok := registry[step.State]
		if !ok {
			// No handler registered for this phase: auto-advance, the
			// same behavior get_handler's nil case falls back to.
			Transition(step)
		} else if err := handler(ctx, step); err != nil {
			step.Error = err.Error()
			return Result{Step: step, Done: true}, engineerr.Wrap(engineerr.KindHandlerFailure, fmt.Sprintf("stepsm.Tick[%s]", step.State), err)
		}

		if step.State.IsTerminal() {
			return Result{Step: step, Done: true}, nil
		}
		if !step.Transition.RequestStateChange {
			break
		}
	}

	return Result{Step: step, Done: false, RequeuePromptly: step.Transition.RequestPush}, nil
}
