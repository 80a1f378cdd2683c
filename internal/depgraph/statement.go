// Package depgraph builds and queries the dependency graph of a single
// AndThenBlock's statements, resolving facet/schema names against a
// compiled Program.
package depgraph

import (
	"github.com/rlemke/agentflow-sub002/internal/domain/afl"
	"github.com/rlemke/agentflow-sub002/internal/program"
)

// StatementDefinition is the static structure of one statement (step or
// yield) in a block, before it becomes a runtime step.
type StatementDefinition struct {
	ID           string
	Name         string
	ObjectType   afl.ObjectType
	FacetName    string
	Args         []program.Arg
	IsYield      bool
	Dependencies map[string]struct{}

	// InlineBody is the statement-level andThen declared directly on a
	// StepStmt, if any — takes precedence over the called facet's own
	// body (§4.1's StatementBlocks phase).
	InlineBody *program.Body
}
