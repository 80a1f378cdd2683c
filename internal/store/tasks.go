package store

import (
	"context"
	"errors"
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"

	"github.com/rlemke/agentflow-sub002/internal/domain/afl"
	"github.com/rlemke/agentflow-sub002/internal/engineerr"
	"github.com/rlemke/agentflow-sub002/internal/platform/dbctx"
)

// CreateTask enqueues a new Task inside dbc's transaction — so a root
// task and its owning runner/step rows commit atomically.
func (s *Store) CreateTask(dbc dbctx.Context, task *afl.Task) error {
	if err := s.tx(dbc).Create(task).Error; err != nil {
		return mapError("store.CreateTask", err)
	}
	return nil
}

// ClaimNextTask atomically claims one runnable task from taskListName:
// a Pending task, or a Leased task whose lease has expired. The claim
// is a single SELECT ... FOR UPDATE SKIP LOCKED plus an UPDATE inside
// one transaction, so two pollers racing for the same row never both
// win — one gets the row locked, the other skips it and sees nothing
// runnable this round.
func (s *Store) ClaimNextTask(ctx context.Context, taskListName, claimerID string, leaseFor time.Duration) (*afl.Task, error) {
	now := afl.NowMillis(time.Now())
	leaseExpiry := afl.NowMillis(time.Now().Add(leaseFor))

	var claimed *afl.Task
	err := s.db.WithContext(ctx).Transaction(func(txx *gorm.DB) error {
		var task afl.Task
		q := txx.Clauses(clause.Locking{Strength: "UPDATE", Options: "SKIP LOCKED"}).
			Where(
				"task_list_name = ? AND (state = ? OR (state = ? AND lease_expiry < ?))",
				taskListName, afl.TaskPending, afl.TaskLeased, now,
			).
			Order("created_at ASC")
		qErr := q.First(&task).Error
		if errors.Is(qErr, gorm.ErrRecordNotFound) {
			return nil
		}
		if qErr != nil {
			return qErr
		}

		uErr := txx.Model(&afl.Task{}).
			Where("id = ?", task.ID).
			Updates(map[string]any{
				"state":        afl.TaskLeased,
				"claimer_id":   claimerID,
				"lease_expiry": leaseExpiry,
				"version":      task.Version + 1,
				"updated_at":   now,
			}).Error
		if uErr != nil {
			return uErr
		}
		task.State = afl.TaskLeased
		task.ClaimerID = claimerID
		task.LeaseExpiry = &leaseExpiry
		task.Version++
		claimed = &task
		return nil
	})
	if err != nil {
		return nil, mapError("store.ClaimNextTask", err)
	}
	return claimed, nil
}

// CompleteTask marks a task Completed with its result, guarded by the
// caller still holding the lease (claimerID must match). A lost lease
// returns KindTaskLeaseLost so the poller discards the result silently.
func (s *Store) CompleteTask(dbc dbctx.Context, id uuid.UUID, claimerID string, result afl.JSONMap) error {
	res := s.tx(dbc).Model(&afl.Task{}).
		Where("id = ? AND state = ? AND claimer_id = ?", id, afl.TaskLeased, claimerID).
		Updates(map[string]any{
			"state":      afl.TaskCompleted,
			"result":     result,
			"updated_at": afl.NowMillis(time.Now()),
		})
	if res.Error != nil {
		return mapError("store.CompleteTask", res.Error)
	}
	if res.RowsAffected == 0 {
		return leaseLost("store.CompleteTask")
	}
	return nil
}

// FailTask marks a task Failed with an error message, guarded the same
// way as CompleteTask.
func (s *Store) FailTask(dbc dbctx.Context, id uuid.UUID, claimerID, errMsg string) error {
	res := s.tx(dbc).Model(&afl.Task{}).
		Where("id = ? AND state = ? AND claimer_id = ?", id, afl.TaskLeased, claimerID).
		Updates(map[string]any{
			"state":      afl.TaskFailed,
			"error":      errMsg,
			"updated_at": afl.NowMillis(time.Now()),
		})
	if res.Error != nil {
		return mapError("store.FailTask", res.Error)
	}
	if res.RowsAffected == 0 {
		return leaseLost("store.FailTask")
	}
	return nil
}

// CancelTask marks a task Cancelled unconditionally, used when a
// runner-level cancellation needs to stop all of its outstanding tasks
// regardless of current lease state.
func (s *Store) CancelTask(dbc dbctx.Context, id uuid.UUID) error {
	res := s.tx(dbc).Model(&afl.Task{}).
		Where("id = ? AND state NOT IN ?", id, []afl.TaskState{afl.TaskCompleted, afl.TaskFailed, afl.TaskCancelled}).
		Updates(map[string]any{
			"state":      afl.TaskCancelled,
			"updated_at": afl.NowMillis(time.Now()),
		})
	if res.Error != nil {
		return mapError("store.CancelTask", res.Error)
	}
	return nil
}

// GetTask loads a Task by ID.
func (s *Store) GetTask(ctx context.Context, id uuid.UUID) (*afl.Task, error) {
	var task afl.Task
	if err := s.db.WithContext(ctx).Where("id = ?", id).First(&task).Error; err != nil {
		return nil, mapError("store.GetTask", err)
	}
	return &task, nil
}

// GetTaskForStep finds the most recently created task dispatched for
// stepID, if any — the lookup EmitTask uses to avoid re-dispatching an
// event facet a crash-and-resume already sent, and TaskResult uses to
// see whether that dispatch has since completed. The afl:execute tasks
// that wake the step itself are not dispatches and are skipped.
func (s *Store) GetTaskForStep(ctx context.Context, stepID uuid.UUID) (*afl.Task, bool, error) {
	var task afl.Task
	err := s.db.WithContext(ctx).
		Where("step_id = ? AND name <> ?", stepID, "afl:execute").
		Order("created_at DESC").
		First(&task).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, false, nil
	}
	if err != nil {
		return nil, false, mapError("store.GetTaskForStep", err)
	}
	return &task, true, nil
}

func leaseLost(op string) error {
	return engineerr.TaskLeaseLost(op, "task is no longer leased by this claimer")
}
