package depgraph

import (
	"encoding/json"
	"testing"

	"github.com/rlemke/agentflow-sub002/internal/domain/afl"
	"github.com/rlemke/agentflow-sub002/internal/program"
)

func mustBlock(t *testing.T, raw string) program.AndThenBlock {
	t.Helper()
	var b program.AndThenBlock
	if err := json.Unmarshal([]byte(raw), &b); err != nil {
		t.Fatalf("parsing block: %v", err)
	}
	return b
}

func TestBuildTracksDependenciesViaStepRef(t *testing.T) {
	block := mustBlock(t, `{
		"steps": [
			{"id": "s1", "name": "s1", "call": {"target": "AddOne", "args": [
				{"name": "input", "value": {"type": "InputRef", "path": ["x"]}}
			]}},
			{"id": "s2", "name": "s2", "call": {"target": "AddOne", "args": [
				{"name": "input", "value": {"type": "StepRef", "path": ["s1", "output"]}}
			]}}
		],
		"yield": {"id": "yield", "call": {"target": "W", "args": [
			{"name": "out", "value": {"type": "StepRef", "path": ["s2", "output"]}}
		]}}
	}`)

	g := Build(block, nil, nil)

	s2, ok := g.Statement("s2")
	if !ok {
		t.Fatalf("expected s2 statement")
	}
	if _, dependsOnS1 := s2.Dependencies["s1"]; !dependsOnS1 {
		t.Fatalf("expected s2 to depend on s1, got %#v", s2.Dependencies)
	}

	s1, ok := g.Statement("s1")
	if !ok {
		t.Fatalf("expected s1 statement")
	}
	if len(s1.Dependencies) != 0 {
		t.Fatalf("expected s1 to have no dependencies (InputRef doesn't count), got %#v", s1.Dependencies)
	}
}

func TestReadyStatementsRespectDependencies(t *testing.T) {
	block := mustBlock(t, `{
		"steps": [
			{"id": "s1", "name": "s1", "call": {"target": "AddOne", "args": []}},
			{"id": "s2", "name": "s2", "call": {"target": "AddOne", "args": [
				{"name": "input", "value": {"type": "StepRef", "path": ["s1", "output"]}}
			]}}
		]
	}`)

	g := Build(block, nil, nil)

	ready := g.ReadyStatements(map[string]struct{}{})
	if len(ready) != 1 || ready[0].ID != "s1" {
		t.Fatalf("expected only s1 ready initially, got %#v", ready)
	}

	ready = g.ReadyStatements(map[string]struct{}{"s1": {}})
	if len(ready) != 1 || ready[0].ID != "s2" {
		t.Fatalf("expected s2 ready once s1 completes, got %#v", ready)
	}
}

func TestTopologicalOrderPutsDependenciesFirst(t *testing.T) {
	block := mustBlock(t, `{
		"steps": [
			{"id": "s2", "name": "s2", "call": {"target": "AddOne", "args": [
				{"name": "input", "value": {"type": "StepRef", "path": ["s1", "output"]}}
			]}},
			{"id": "s1", "name": "s1", "call": {"target": "AddOne", "args": []}}
		]
	}`)

	g := Build(block, nil, nil)
	order := g.TopologicalOrder()

	pos := map[string]int{}
	for i, id := range order {
		pos[id] = i
	}
	if pos["s1"] >= pos["s2"] {
		t.Fatalf("expected s1 before s2 in topological order, got %v", order)
	}
}

func TestBuildResolvesSchemaInstantiation(t *testing.T) {
	prog := &program.Program{
		Declarations: []program.Declaration{
			{
				Type: "Namespace", Name: "shapes",
				Declarations: []program.Declaration{{Type: "SchemaDecl", Name: "Addr"}},
			},
		},
	}
	block := mustBlock(t, `{
		"steps": [
			{"id": "a", "name": "a", "call": {"target": "shapes.Addr", "args": [
				{"name": "city", "value": {"type": "String", "value": "X"}}
			]}}
		]
	}`)

	g := Build(block, nil, prog)
	stmt, ok := g.Statement("a")
	if !ok {
		t.Fatalf("expected statement a")
	}
	if stmt.ObjectType != afl.ObjectSchemaInstantiation {
		t.Fatalf("expected SchemaInstantiation, got %v", stmt.ObjectType)
	}
}
