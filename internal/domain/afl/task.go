package afl

import "github.com/google/uuid"

// TaskState is a Task's queue lifecycle state. Transitions only ever go
// Pending -> Leased -> {Completed, Failed, Cancelled}; a Leased task whose
// lease has expired becomes eligible for re-lease without an explicit
// state change.
type TaskState string

const (
	TaskPending   TaskState = "Pending"
	TaskLeased    TaskState = "Leased"
	TaskCompleted TaskState = "Completed"
	TaskFailed    TaskState = "Failed"
	TaskCancelled TaskState = "Cancelled"
)

func (s TaskState) IsTerminal() bool {
	return s == TaskCompleted || s == TaskFailed || s == TaskCancelled
}

// Task is a queued work item: either an internal execution tick
// (Name == "afl:execute") or an event-facet dispatch (Name == the
// facet's fully qualified name).
type Task struct {
	ID       uuid.UUID `gorm:"type:uuid;column:id;primaryKey" json:"task_id"`
	Name     string    `gorm:"column:name;not null" json:"name"`
	RunnerID uuid.UUID `gorm:"type:uuid;column:runner_id;not null;index" json:"runner_id"`

	WorkflowID uuid.UUID  `gorm:"type:uuid;column:workflow_id;not null" json:"workflow_id"`
	FlowID     uuid.UUID  `gorm:"type:uuid;column:flow_id;not null" json:"flow_id"`
	StepID     *uuid.UUID `gorm:"type:uuid;column:step_id;index" json:"step_id,omitempty"`

	State        TaskState    `gorm:"column:state;not null;index:idx_afl_tasks_list_state_created,priority:2;index:idx_afl_tasks_state_lease,priority:1" json:"state"`
	TaskListName string       `gorm:"column:task_list_name;not null;index:idx_afl_tasks_list_state_created,priority:1" json:"task_list_name"`
	LeaseExpiry  *EpochMillis `gorm:"column:lease_expiry;index:idx_afl_tasks_state_lease,priority:2" json:"lease_expiry,omitempty"`
	ClaimerID    string       `gorm:"column:claimer_id" json:"claimer_id,omitempty"`

	Data   JSONMap `gorm:"column:data;type:jsonb" json:"data"`
	Result JSONMap `gorm:"column:result;type:jsonb" json:"result,omitempty"`
	Error  string  `gorm:"column:error" json:"error,omitempty"`

	Version int64 `gorm:"column:version;not null;default:0" json:"-"`

	CreatedAt EpochMillis `gorm:"column:created_at;not null;index:idx_afl_tasks_list_state_created,priority:3" json:"created"`
	UpdatedAt EpochMillis `gorm:"column:updated_at;not null" json:"updated"`
}

func (Task) TableName() string { return "afl_tasks" }
