package store

import (
	"context"

	"github.com/google/uuid"

	"github.com/rlemke/agentflow-sub002/internal/domain/afl"
	"github.com/rlemke/agentflow-sub002/internal/platform/dbctx"
)

// SaveWorkflow inserts a new Workflow row inside dbc's transaction.
func (s *Store) SaveWorkflow(dbc dbctx.Context, wf *afl.Workflow) error {
	if err := s.tx(dbc).Create(wf).Error; err != nil {
		return mapError("store.SaveWorkflow", err)
	}
	return nil
}

// GetWorkflow loads a Workflow by ID.
func (s *Store) GetWorkflow(ctx context.Context, id uuid.UUID) (*afl.Workflow, error) {
	var wf afl.Workflow
	if err := s.db.WithContext(ctx).Where("id = ?", id).First(&wf).Error; err != nil {
		return nil, mapError("store.GetWorkflow", err)
	}
	return &wf, nil
}

// GetWorkflowByName finds the most recently published workflow with the
// given name within a flow.
func (s *Store) GetWorkflowByName(ctx context.Context, flowID uuid.UUID, name string) (*afl.Workflow, error) {
	var wf afl.Workflow
	err := s.db.WithContext(ctx).
		Where("flow_id = ? AND name = ?", flowID, name).
		Order("created_at DESC").
		First(&wf).Error
	if err != nil {
		return nil, mapError("store.GetWorkflowByName", err)
	}
	return &wf, nil
}
