package store

import (
	"context"

	"github.com/google/uuid"

	"github.com/rlemke/agentflow-sub002/internal/domain/afl"
	"github.com/rlemke/agentflow-sub002/internal/platform/dbctx"
)

// SaveRunner inserts a new Runner row inside dbc's transaction.
func (s *Store) SaveRunner(dbc dbctx.Context, r *afl.Runner) error {
	if err := s.tx(dbc).Create(r).Error; err != nil {
		return mapError("store.SaveRunner", err)
	}
	return nil
}

// GetRunner loads a Runner by ID.
func (s *Store) GetRunner(ctx context.Context, id uuid.UUID) (*afl.Runner, error) {
	var r afl.Runner
	if err := s.db.WithContext(ctx).Where("id = ?", id).First(&r).Error; err != nil {
		return nil, mapError("store.GetRunner", err)
	}
	return &r, nil
}

// UpdateRunnerState advances a runner's state (and any of root step,
// error, updated_at) guarded by the set of states it's still allowed to
// leave from. A runner already in a terminal state never accepts
// another transition.
func (s *Store) UpdateRunnerState(dbc dbctx.Context, id uuid.UUID, fromStates []afl.RunnerState, updates map[string]any) error {
	allowed := make([]string, len(fromStates))
	for i, st := range fromStates {
		allowed[i] = string(st)
	}
	ok, err := s.cas.UpdateByState(dbc, afl.Runner{}.TableName(), id, allowed, updates)
	if err != nil {
		return mapError("store.UpdateRunnerState", err)
	}
	return RequireCASSuccess(ok, "store.UpdateRunnerState", "runner not in an allowed source state")
}
