package block

import (
	"encoding/json"
	"testing"

	"github.com/google/uuid"

	"github.com/rlemke/agentflow-sub002/internal/depgraph"
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

func TestCreatableSkipsExistingStatements(t *testing.T) {
	g := depgraph.Build(mustBlock(t, `{
		"steps": [
			{"id": "s1", "name": "s1", "call": {"target": "AddOne", "args": []}},
			{"id": "s2", "name": "s2", "call": {"target": "AddOne", "args": [
				{"name": "input", "value": {"type": "StepRef", "path": ["s1", "output"]}}
			]}}
		]
	}`), nil, nil)

	blockStep := &afl.Step{ID: uuid.New()}
	alreadyCreated := &afl.Step{StatementID: "s1", State: afl.StateFacetScriptsBegin}

	analysis := Analyze(g, []*afl.Step{alreadyCreated})
	creatable := analysis.Creatable()
	if len(creatable) != 0 {
		t.Fatalf("expected no new creatable statements (s1 exists, not complete; s2 blocked), got %#v", creatable)
	}
	_ = blockStep
}

func TestCreatableAndDoneProgression(t *testing.T) {
	g := depgraph.Build(mustBlock(t, `{
		"steps": [
			{"id": "s1", "name": "s1", "call": {"target": "AddOne", "args": []}}
		]
	}`), nil, nil)

	analysis := Analyze(g, nil)
	creatable := analysis.Creatable()
	if len(creatable) != 1 || creatable[0].ID != "s1" {
		t.Fatalf("expected s1 creatable, got %#v", creatable)
	}
	if analysis.Done() {
		t.Fatalf("expected not done before s1 completes")
	}

	completedS1 := &afl.Step{StatementID: "s1", State: afl.StateStatementComplete}
	analysis = Analyze(g, []*afl.Step{completedS1})
	if !analysis.Done() {
		t.Fatalf("expected done once s1 completes")
	}
}

func TestNewChildStepInheritsBlockIdentity(t *testing.T) {
	containerID := uuid.New()
	blockStep := &afl.Step{
		ID:            uuid.New(),
		RunnerID:      uuid.New(),
		WorkflowID:    uuid.New(),
		FlowID:        uuid.New(),
		ContainerID:   &containerID,
		ContainerType: "statement",
	}
	stmt := &depgraph.StatementDefinition{ID: "s1", Name: "s1", ObjectType: afl.ObjectVariableAssignment, FacetName: "AddOne"}

	child := NewChildStep(blockStep, stmt)
	if child.BlockID == nil || *child.BlockID != blockStep.ID {
		t.Fatalf("expected child block_id to point at the block, got %#v", child.BlockID)
	}
	if child.ContainerID != blockStep.ContainerID {
		t.Fatalf("expected child container_id to propagate from the block")
	}
	if child.State != afl.StateCreated {
		t.Fatalf("expected new child to start at Created, got %s", child.State)
	}
}
