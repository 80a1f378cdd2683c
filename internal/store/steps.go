package store

import (
	"context"
	"errors"

	"github.com/google/uuid"
	"gorm.io/gorm"

	"github.com/rlemke/agentflow-sub002/internal/domain/afl"
	"github.com/rlemke/agentflow-sub002/internal/platform/dbctx"
)

// CreateStep inserts a new Step. Callers must have already checked
// StepExists/BlockStepExists for idempotency — this call does not guard
// against a duplicate (block_id, statement_id) pair itself, since a
// unique index enforcing that is a schema-migration concern the engine
// leaves off for statements with no block_id (top-level root steps).
func (s *Store) CreateStep(dbc dbctx.Context, step *afl.Step) error {
	if err := s.tx(dbc).Create(step).Error; err != nil {
		return mapError("store.CreateStep", err)
	}
	return nil
}

// GetStep loads a Step by ID.
func (s *Store) GetStep(ctx context.Context, id uuid.UUID) (*afl.Step, error) {
	var step afl.Step
	if err := s.db.WithContext(ctx).Where("id = ?", id).First(&step).Error; err != nil {
		return nil, mapError("store.GetStep", err)
	}
	return &step, nil
}

// StepExists reports whether a step with the given statement_id and no
// block_id (a workflow root or a top-level Block step) exists under
// workflowID.
func (s *Store) StepExists(ctx context.Context, workflowID uuid.UUID, statementID string) (bool, error) {
	var count int64
	err := s.db.WithContext(ctx).Model(&afl.Step{}).
		Where("workflow_id = ? AND statement_id = ? AND block_id IS NULL", workflowID, statementID).
		Count(&count).Error
	if err != nil {
		return false, mapError("store.StepExists", err)
	}
	return count > 0, nil
}

// BlockStepExists reports whether a step for (blockID, statementID)
// already exists — the idempotency check the Block Executor's foreach
// path runs before creating each foreach sub-block, so a resumed tick
// never double-creates a step it created just before crashing.
func (s *Store) BlockStepExists(ctx context.Context, blockID uuid.UUID, statementID string) (bool, error) {
	var count int64
	err := s.db.WithContext(ctx).Model(&afl.Step{}).
		Where("block_id = ? AND statement_id = ?", blockID, statementID).
		Count(&count).Error
	if err != nil {
		return false, mapError("store.BlockStepExists", err)
	}
	return count > 0, nil
}

// StepsByBlock loads every step created under a block, in creation
// order — the set a Block Executor's Continue phase polls each tick.
func (s *Store) StepsByBlock(ctx context.Context, blockID uuid.UUID) ([]*afl.Step, error) {
	var steps []*afl.Step
	err := s.db.WithContext(ctx).
		Where("block_id = ?", blockID).
		Order("created_at ASC").
		Find(&steps).Error
	if err != nil {
		return nil, mapError("store.StepsByBlock", err)
	}
	return steps, nil
}

// ContainerStepExists reports whether a top-level Block step for
// (containerID, statementID) already exists — the idempotency check
// StatementBlocks runs before materializing each of a container's body
// blocks.
func (s *Store) ContainerStepExists(ctx context.Context, containerID uuid.UUID, statementID string) (bool, error) {
	var count int64
	err := s.db.WithContext(ctx).Model(&afl.Step{}).
		Where("container_id = ? AND statement_id = ? AND block_id IS NULL", containerID, statementID).
		Count(&count).Error
	if err != nil {
		return false, mapError("store.ContainerStepExists", err)
	}
	return count > 0, nil
}

// StepsByContainer loads every top-level Block step materialized
// directly under containerID, in creation order.
func (s *Store) StepsByContainer(ctx context.Context, containerID uuid.UUID) ([]*afl.Step, error) {
	var steps []*afl.Step
	err := s.db.WithContext(ctx).
		Where("container_id = ? AND block_id IS NULL", containerID).
		Order("created_at ASC").
		Find(&steps).Error
	if err != nil {
		return nil, mapError("store.StepsByContainer", err)
	}
	return steps, nil
}

// GetCompletedStepByName finds a completed step by its statement_name
// within blockID's scope (or with no block at all, if blockID is nil) —
// the lookup StepRef expressions resolve sibling outputs through.
func (s *Store) GetCompletedStepByName(ctx context.Context, name string, blockID *uuid.UUID) (*afl.Step, bool) {
	q := s.db.WithContext(ctx).Model(&afl.Step{}).Where("statement_name = ? AND error = ''", name)
	if blockID == nil {
		q = q.Where("block_id IS NULL")
	} else {
		q = q.Where("block_id = ?", *blockID)
	}
	var step afl.Step
	if err := q.Where("state = ?", afl.StateStatementComplete).First(&step).Error; err != nil {
		return nil, false
	}
	return &step, true
}

// StepsByWorkflow loads every step belonging to a workflow run, in
// creation order.
func (s *Store) StepsByWorkflow(ctx context.Context, workflowID uuid.UUID) ([]*afl.Step, error) {
	var steps []*afl.Step
	err := s.db.WithContext(ctx).
		Where("workflow_id = ?", workflowID).
		Order("created_at ASC").
		Find(&steps).Error
	if err != nil {
		return nil, mapError("store.StepsByWorkflow", err)
	}
	return steps, nil
}

// UpdateStep advances a step's persisted fields guarded by a version
// CAS: the update only lands if the step's version still equals
// expectedVersion, enforcing single-owner writes per step per tick.
func (s *Store) UpdateStep(dbc dbctx.Context, id uuid.UUID, expectedVersion int64, updates map[string]any) error {
	if _, ok := updates["version"]; !ok {
		updates["version"] = expectedVersion + 1
	}
	ok, err := s.cas.UpdateByVersion(dbc, afl.Step{}.TableName(), id, expectedVersion, updates)
	if err != nil {
		return mapError("store.UpdateStep", err)
	}
	return RequireCASSuccess(ok, "store.UpdateStep", "step version mismatch")
}

// unwrapNotFound reports whether err is exactly a not-found from the
// underlying driver (as opposed to a mapped runtime error), so callers
// that want to treat "no such step" as a normal negative result can do
// so without depending on gorm directly.
func unwrapNotFound(err error) bool {
	return errors.Is(err, gorm.ErrRecordNotFound) || errors.Is(err, ErrNotFound)
}
