package afl

import "github.com/google/uuid"

// RunnerState is a Runner's coarse lifecycle state.
type RunnerState string

const (
	RunnerCreated   RunnerState = "Created"
	RunnerRunning   RunnerState = "Running"
	RunnerSucceeded RunnerState = "Succeeded"
	RunnerFailed    RunnerState = "Failed"
	RunnerCancelled RunnerState = "Cancelled"
)

// Runner is one execution of one Workflow within a Flow.
type Runner struct {
	ID         uuid.UUID   `gorm:"type:uuid;column:id;primaryKey" json:"runner_id"`
	WorkflowID uuid.UUID   `gorm:"type:uuid;column:workflow_id;not null;index" json:"workflow_id"`
	FlowID     uuid.UUID   `gorm:"type:uuid;column:flow_id;not null;index" json:"flow_id"`
	State      RunnerState `gorm:"column:state;not null;index" json:"state"`
	Inputs     JSONMap     `gorm:"column:inputs;type:jsonb" json:"inputs"`
	RootStepID *uuid.UUID  `gorm:"type:uuid;column:root_step_id" json:"root_step_id,omitempty"`
	Error      string      `gorm:"column:error" json:"error,omitempty"`
	CreatedAt  EpochMillis `gorm:"column:created_at;not null;index" json:"created_at"`
	UpdatedAt  EpochMillis `gorm:"column:updated_at;not null" json:"updated_at"`
}

func (Runner) TableName() string { return "afl_runners" }

// IsTerminal reports whether the runner will never transition again.
func (s RunnerState) IsTerminal() bool {
	return s == RunnerSucceeded || s == RunnerFailed || s == RunnerCancelled
}
