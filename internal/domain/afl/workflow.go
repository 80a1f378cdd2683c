package afl

import "github.com/google/uuid"

// Workflow is a facet-like top-level declaration pointing at the Flow
// that defines it; its body is the execution root for any Runner created
// against it.
type Workflow struct {
	ID        uuid.UUID   `gorm:"type:uuid;column:id;primaryKey" json:"workflow_id"`
	FlowID    uuid.UUID   `gorm:"type:uuid;column:flow_id;not null;index" json:"flow_id"`
	Name      string      `gorm:"column:name;not null;index" json:"name"`
	CreatedAt EpochMillis `gorm:"column:created_at;not null" json:"created_at"`
}

func (Workflow) TableName() string { return "afl_workflows" }
