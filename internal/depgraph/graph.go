package depgraph

import (
	"github.com/rlemke/agentflow-sub002/internal/domain/afl"
	"github.com/rlemke/agentflow-sub002/internal/program"
)

// Graph is the dependency graph of one block's statements: which
// statements must complete before each other statement can be created.
type Graph struct {
	dependencies map[string]map[string]struct{}
	nameToID     map[string]string
	statements   map[string]*StatementDefinition
	program      *program.Program
}

// Build constructs a Graph from a block's AST. workflowInputs is accepted
// for parity with the caller's evaluation-scope computation but is not
// consulted here; dependency extraction only ever looks at StepRef
// targets, never at which names are valid workflow inputs.
func Build(block program.AndThenBlock, workflowInputs map[string]struct{}, prog *program.Program) *Graph {
	g := &Graph{
		dependencies: make(map[string]map[string]struct{}),
		nameToID:     make(map[string]string),
		statements:   make(map[string]*StatementDefinition),
		program:      prog,
	}

	for _, step := range block.Steps {
		stmt := g.parseStep(step)
		g.statements[stmt.ID] = stmt
		g.nameToID[stmt.Name] = stmt.ID
		g.dependencies[stmt.ID] = map[string]struct{}{}
	}

	switch {
	case len(block.Yields) > 0:
		for _, y := range block.Yields {
			stmt := g.parseYield(y)
			g.statements[stmt.ID] = stmt
			g.dependencies[stmt.ID] = map[string]struct{}{}
		}
	case block.Yield != nil:
		stmt := g.parseYield(*block.Yield)
		g.statements[stmt.ID] = stmt
		g.dependencies[stmt.ID] = map[string]struct{}{}
	}

	for id, stmt := range g.statements {
		deps := g.extractDependencies(stmt.Args)
		g.dependencies[id] = deps
		stmt.Dependencies = deps
	}

	return g
}

func (g *Graph) parseStep(s program.StepStmt) *StatementDefinition {
	id := s.ID
	if id == "" {
		id = s.Name
	}
	target := s.Call.Target

	var objectType afl.ObjectType
	facetName := target
	if g.isSchemaInstantiation(target) {
		objectType = afl.ObjectSchemaInstantiation
	} else {
		objectType = afl.ObjectVariableAssignment
		facetName = g.resolveFacetName(target)
	}

	return &StatementDefinition{
		ID:         id,
		Name:       s.Name,
		ObjectType: objectType,
		FacetName:  facetName,
		Args:       s.Call.Args,
		IsYield:    false,
		InlineBody: s.Body,
	}
}

func (g *Graph) parseYield(y program.YieldStmt) *StatementDefinition {
	id := y.ID
	if id == "" {
		id = "yield"
	}
	return &StatementDefinition{
		ID:         id,
		Name:       "_yield_" + id,
		ObjectType: afl.ObjectYieldAssignment,
		FacetName:  g.resolveFacetName(y.Call.Target),
		Args:       y.Call.Args,
		IsYield:    true,
	}
}

func (g *Graph) resolveFacetName(short string) string {
	if g.program == nil || short == "" {
		return short
	}
	return g.program.ResolveFacetName(short)
}

func (g *Graph) isSchemaInstantiation(name string) bool {
	if g.program == nil || name == "" {
		return false
	}
	return g.program.IsSchema(name)
}

// CanCreate reports whether statementID's dependencies are a subset of
// completed.
func (g *Graph) CanCreate(statementID string, completed map[string]struct{}) bool {
	deps := g.dependencies[statementID]
	for dep := range deps {
		if _, ok := completed[dep]; !ok {
			return false
		}
	}
	return true
}

// ReadyStatements returns statements not yet in completed whose
// dependencies are all satisfied.
func (g *Graph) ReadyStatements(completed map[string]struct{}) []*StatementDefinition {
	var ready []*StatementDefinition
	for id, stmt := range g.statements {
		if _, done := completed[id]; done {
			continue
		}
		if g.CanCreate(id, completed) {
			ready = append(ready, stmt)
		}
	}
	return ready
}

// Statement returns the statement with the given ID.
func (g *Graph) Statement(id string) (*StatementDefinition, bool) {
	s, ok := g.statements[id]
	return s, ok
}

// AllStatements returns every statement in the block.
func (g *Graph) AllStatements() []*StatementDefinition {
	out := make([]*StatementDefinition, 0, len(g.statements))
	for _, s := range g.statements {
		out = append(out, s)
	}
	return out
}

// TopologicalOrder returns statement IDs with every dependency listed
// before its dependents.
func (g *Graph) TopologicalOrder() []string {
	visited := make(map[string]struct{})
	var order []string

	var visit func(id string)
	visit = func(id string) {
		if _, ok := visited[id]; ok {
			return
		}
		visited[id] = struct{}{}
		for dep := range g.dependencies[id] {
			visit(dep)
		}
		order = append(order, id)
	}

	for id := range g.statements {
		visit(id)
	}
	return order
}
