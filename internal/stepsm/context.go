// Package stepsm drives a single step through its state machine: one
// handler per phase, a tagged transition table per object type, and a
// driver loop that advances a step through as many phases as it can in
// one tick before persisting and yielding.
package stepsm

import (
	"context"

	"github.com/google/uuid"

	"github.com/rlemke/agentflow-sub002/internal/domain/afl"
	"github.com/rlemke/agentflow-sub002/internal/depgraph"
	"github.com/rlemke/agentflow-sub002/internal/program"
)

// Context is everything a phase handler needs: the compiled program,
// lookups against already-persisted steps, and a same-tick pending-change
// view so a handler never misses a sibling step another handler created
// or completed earlier in this same tick (mirroring the Python runtime's
// context.changes.created_steps/updated_steps visibility).
type Context struct {
	Ctx     context.Context
	Program *program.Program

	// Lookups against durable storage.
	GetStep                func(id uuid.UUID) (*afl.Step, error)
	StepsByBlock           func(blockID uuid.UUID) ([]*afl.Step, error)
	// StepsByContainer returns the top-level Block steps materialized
	// directly under containerID (a facet-call or workflow-root step),
	// as opposed to StepsByBlock's statements nested inside one of them.
	StepsByContainer       func(containerID uuid.UUID) ([]*afl.Step, error)
	BlockStepExists        func(blockID uuid.UUID, statementID string) (bool, error)
	// ContainerStepExists checks idempotency for a top-level Block step
	// (one with no enclosing block of its own, owned directly by a
	// facet-call or workflow-root step) rather than a statement nested
	// inside one.
	ContainerStepExists    func(containerID uuid.UUID, statementID string) (bool, error)
	GetCompletedStepByName func(name string, blockID *uuid.UUID) (*afl.Step, bool)

	// StatementOf returns the static statement definition this step
	// materializes (nil for a workflow root step, which has none).
	StatementOf func(step *afl.Step) (*depgraph.StatementDefinition, bool)

	// WorkflowBody/FacetBody/InlineBody resolve the three places an
	// andThen body can come from, per §4.1's StatementBlocks phase.
	WorkflowBody func() (program.Body, bool)
	FacetBody    func(facetName string) (program.Body, bool)
	InlineBody   func(step *afl.Step) (program.Body, bool)

	// WorkflowDefaults holds the workflow root's own parameter defaults,
	// evaluated by the caller before the tick (a default expression has no
	// sibling steps or inputs to resolve against, so it is evaluated with
	// an empty scope); internal/engine evaluates them again on every tick.
	WorkflowDefaults map[string]any

	// Sandbox executes a script body's code against params, returning the
	// result mapping (§6.4). Nil disables script execution entirely.
	Sandbox func(language, code string, params map[string]any) (map[string]any, error)

	// EmitTask enqueues an event-facet dispatch task and returns its ID,
	// used by EventTransmit.
	EmitTask func(step *afl.Step, facetName string, data map[string]any) (uuid.UUID, error)
	// TaskResult returns a completed task's result for a step waiting
	// in EventTransmit, if one has landed.
	TaskResult func(step *afl.Step) (map[string]any, bool, error)

	// CreateChildStep persists a new step (Block or otherwise) within
	// the current tick; the calling handler then records it in Pending.
	CreateChildStep func(step *afl.Step) error

	// Pending is the same-tick created/updated step cache; handlers
	// consult it alongside storage so a sibling created earlier this
	// tick is visible without a round trip.
	Pending *PendingChanges
}

// PendingChanges tracks steps created or updated earlier in the current
// tick but not yet necessarily committed, so later handlers in the same
// tick see them.
type PendingChanges struct {
	Created []*afl.Step
	Updated []*afl.Step
}

func (p *PendingChanges) created() []*afl.Step {
	if p == nil {
		return nil
	}
	return p.Created
}

func (p *PendingChanges) updated() []*afl.Step {
	if p == nil {
		return nil
	}
	return p.Updated
}

func (p *PendingChanges) AddCreated(step *afl.Step) {
	if p == nil {
		return
	}
	p.Created = append(p.Created, step)
}

func (p *PendingChanges) AddUpdated(step *afl.Step) {
	if p == nil {
		return
	}
	p.Updated = append(p.Updated, step)
}
