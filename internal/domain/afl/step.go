package afl

import "github.com/google/uuid"

// Transition carries the two flags a phase handler sets to tell the
// driver loop what to do with a step: RequestStateChange advances it to
// the next phase and loops again in the same tick; RequestPush (with
// RequestStateChange unset) holds it in its phase and asks for a prompt
// re-queue; neither set holds it in its phase until it is woken again.
type Transition struct {
	RequestStateChange bool `gorm:"column:request_state_change;not null;default:false" json:"request_state_change"`
	RequestPush        bool `gorm:"column:request_push;not null;default:false" json:"request_push"`
}

func (t Transition) IsRequestingPush() bool        { return t.RequestPush }
func (t Transition) IsRequestingStateChange() bool { return t.RequestStateChange }

// Step is the fundamental unit of execution: the runtime materialization
// of a single statement (or block, or foreach sub-block).
type Step struct {
	ID         uuid.UUID `gorm:"type:uuid;column:id;primaryKey" json:"step_id"`
	RunnerID   uuid.UUID `gorm:"type:uuid;column:runner_id;not null;index" json:"runner_id"`
	WorkflowID uuid.UUID `gorm:"type:uuid;column:workflow_id;not null;index:idx_afl_steps_workflow" json:"workflow_id"`
	FlowID     uuid.UUID `gorm:"type:uuid;column:flow_id;not null" json:"flow_id"`

	ObjectType ObjectType `gorm:"column:object_type;not null" json:"object_type"`

	FacetName     string `gorm:"column:facet_name" json:"facet_name,omitempty"`
	StatementID   string `gorm:"column:statement_id;not null;index:idx_afl_steps_block_statement,priority:2" json:"statement_id"`
	StatementName string `gorm:"column:statement_name" json:"statement_name,omitempty"`

	ContainerID   *uuid.UUID `gorm:"type:uuid;column:container_id;index" json:"container_id,omitempty"`
	ContainerType string     `gorm:"column:container_type" json:"container_type,omitempty"`
	BlockID       *uuid.UUID `gorm:"type:uuid;column:block_id;index:idx_afl_steps_block_statement,priority:1" json:"block_id,omitempty"`
	RootID        *uuid.UUID `gorm:"type:uuid;column:root_id" json:"root_id,omitempty"`

	Params  Attributes `gorm:"column:params;type:jsonb" json:"params"`
	Returns Attributes `gorm:"column:returns;type:jsonb" json:"returns"`

	State StepState `gorm:"column:state;not null;index" json:"state"`
	Transition

	Error string `gorm:"column:error" json:"error,omitempty"`

	ForeachVar   string    `gorm:"column:foreach_var" json:"foreach_var,omitempty"`
	ForeachValue JSONValue `gorm:"column:foreach_value;type:jsonb" json:"foreach_value,omitempty"`

	// Version guards every mutating update with a compare-and-set,
	// enforcing single-owner writes (§8 property 1).
	Version int64 `gorm:"column:version;not null;default:0" json:"-"`

	CreatedAt EpochMillis `gorm:"column:created_at;not null" json:"created_at"`
	UpdatedAt EpochMillis `gorm:"column:updated_at;not null" json:"updated_at"`
}

func (Step) TableName() string { return "afl_steps" }

// IsComplete reports whether the step has reached its terminal,
// successful state. A step with a non-empty Error is terminal but not
// complete.
func (s *Step) IsComplete() bool {
	return s.Error == "" && s.State.IsTerminal()
}

// IsFailed reports whether the step reached a terminal error.
func (s *Step) IsFailed() bool {
	return s.Error != ""
}
