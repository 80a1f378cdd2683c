package store

import (
	"context"

	"gorm.io/gorm"

	"github.com/rlemke/agentflow-sub002/internal/domain/afl"
)

// CreateRunnerSubmission persists a new Flow, Workflow, Runner, root Step,
// and root afl:execute Task in one transaction: the five records the
// boundary command a submitter issues to start an execution (§6.2). A partial
// failure rolls the whole submission back, so a poller never observes a
// runner with no root task, or a task pointing at a step that was never
// written.
func (s *Store) CreateRunnerSubmission(ctx context.Context, flow *afl.Flow, workflow *afl.Workflow, runner *afl.Runner, root *afl.Step, task *afl.Task) error {
	err := s.db.WithContext(ctx).Transaction(func(txx *gorm.DB) error {
		if err := txx.Create(flow).Error; err != nil {
			return err
		}
		if err := txx.Create(workflow).Error; err != nil {
			return err
		}
		if err := txx.Create(root).Error; err != nil {
			return err
		}
		if err := txx.Create(runner).Error; err != nil {
			return err
		}
		return txx.Create(task).Error
	})
	if err != nil {
		return mapError("store.CreateRunnerSubmission", err)
	}
	return nil
}
