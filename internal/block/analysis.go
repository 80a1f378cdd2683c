// Package block holds the pure analysis helpers the Block Executor phase
// handlers (in internal/stepsm) drive: given a block's dependency graph and
// its already-materialized child steps, which statements are ready to
// become steps, and has every statement finished.
package block

import (
	"github.com/google/uuid"

	"github.com/rlemke/agentflow-sub002/internal/depgraph"
	"github.com/rlemke/agentflow-sub002/internal/domain/afl"
)

// Analysis is a snapshot of one block's children against its statement
// graph, recomputed on every Continue poll (mirroring the reference
// runtime's load-fresh-every-tick approach rather than caching state on
// the block step itself).
type Analysis struct {
	Graph     *depgraph.Graph
	Existing  map[string]struct{}
	Completed map[string]struct{}
}

// Analyze classifies children (steps already materialized for this block,
// from storage plus any created earlier in the current tick) against
// graph.
func Analyze(graph *depgraph.Graph, children []*afl.Step) Analysis {
	existing := make(map[string]struct{}, len(children))
	completed := make(map[string]struct{}, len(children))
	for _, child := range children {
		existing[child.StatementID] = struct{}{}
		if child.IsComplete() {
			completed[child.StatementID] = struct{}{}
		}
	}
	return Analysis{Graph: graph, Existing: existing, Completed: completed}
}

// Creatable returns statements whose dependencies are satisfied and which
// have no corresponding step yet (in storage or in this tick's pending
// set).
func (a Analysis) Creatable() []*depgraph.StatementDefinition {
	var out []*depgraph.StatementDefinition
	for _, stmt := range a.Graph.ReadyStatements(a.Completed) {
		if _, ok := a.Existing[stmt.ID]; ok {
			continue
		}
		out = append(out, stmt)
	}
	return out
}

// Done reports whether every statement in the graph has a complete step.
func (a Analysis) Done() bool {
	for _, stmt := range a.Graph.AllStatements() {
		if _, ok := a.Completed[stmt.ID]; !ok {
			return false
		}
	}
	return true
}

// NewChildStep materializes a StatementDefinition as a new step belonging
// to block, inheriting block's runner/workflow/flow identity.
func NewChildStep(block *afl.Step, stmt *depgraph.StatementDefinition) *afl.Step {
	return &afl.Step{
		ID:            uuid.New(),
		RunnerID:      block.RunnerID,
		WorkflowID:    block.WorkflowID,
		FlowID:        block.FlowID,
		ObjectType:    stmt.ObjectType,
		FacetName:     stmt.FacetName,
		StatementID:   stmt.ID,
		StatementName: stmt.Name,
		ContainerID:   block.ContainerID,
		ContainerType: block.ContainerType,
		BlockID:       &block.ID,
		RootID:        block.RootID,
		State:         afl.StateCreated,
		Params:        afl.Attributes{},
		Returns:       afl.Attributes{},
	}
}
