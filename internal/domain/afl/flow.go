package afl

import "github.com/google/uuid"

// Flow is a published program plus its combined source text. Flows are
// immutable once created; a new publish is a new Flow row, never an
// update to an existing one.
type Flow struct {
	ID          uuid.UUID   `gorm:"type:uuid;column:id;primaryKey" json:"flow_id"`
	Source      string      `gorm:"column:source;not null" json:"source"`
	Program     JSONValue   `gorm:"column:program;type:jsonb;not null" json:"program"`
	CreatedAt   EpochMillis `gorm:"column:created_at;not null;index" json:"created_at"`
}

func (Flow) TableName() string { return "afl_flows" }

// PublishedSource records one (namespace, version) publish so a later
// re-publish at the same version can be detected and rejected unless
// forced.
type PublishedSource struct {
	ID            uuid.UUID   `gorm:"type:uuid;column:id;primaryKey" json:"id"`
	NamespaceName string      `gorm:"column:namespace_name;not null;uniqueIndex:idx_afl_published_sources_ns_version,priority:1" json:"namespace_name"`
	Version       string      `gorm:"column:version;not null;uniqueIndex:idx_afl_published_sources_ns_version,priority:2" json:"version"`
	Source        string      `gorm:"column:source;not null" json:"source"`
	FlowID        uuid.UUID   `gorm:"type:uuid;column:flow_id;not null;index" json:"flow_id"`
	CreatedAt     EpochMillis `gorm:"column:created_at;not null" json:"created_at"`
}

func (PublishedSource) TableName() string { return "afl_published_sources" }
