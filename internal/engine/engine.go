// Package engine wires the durable store to the step state machine: it
// loads a runner's compiled program, builds the stepsm.Context a tick
// needs against real storage, and drives execution tasks to completion
// (or to their next wait point) off the afl_tasks queue.
package engine

import (
	"context"

	"github.com/rlemke/agentflow-sub002/internal/platform/logger"
	"github.com/rlemke/agentflow-sub002/internal/queue/notify"
	"github.com/rlemke/agentflow-sub002/internal/sandbox"
	"github.com/rlemke/agentflow-sub002/internal/store"
)

const (
	// ExecuteTaskName is the Task.Name used for internal execution
	// ticks, as opposed to an event facet's own fully qualified name.
	ExecuteTaskName = "afl:execute"
	// ExecuteTaskList is the task_list_name internal execution ticks are
	// queued under, independent of whatever task lists event facets use.
	ExecuteTaskList = "afl:execute"
)

// Engine is the execution-loop collaborator: it owns nothing durable
// itself, only the store handle and the sandbox script runner.
type Engine struct {
	Store   *store.Store
	Sandbox sandbox.Sandbox
	Log     *logger.Logger

	// Notifier is an optional low-latency wakeup publisher (see
	// internal/queue/notify). A nil Notifier changes nothing but
	// latency: the poller's ticker alone still claims every task
	// eventually.
	Notifier notify.Notifier
}

// New builds an Engine. A nil sandbox falls back to sandbox.Unsupported,
// so a deployment with no script runner configured still runs workflows
// that never call a script-bodied facet.
func New(st *store.Store, sb sandbox.Sandbox, log *logger.Logger) *Engine {
	if sb == nil {
		sb = sandbox.Unsupported{}
	}
	return &Engine{Store: st, Sandbox: sb, Log: log.With("component", "Engine")}
}

// notify publishes a best-effort wakeup ping for taskListName. A publish
// failure never fails the caller's own operation — the task it just
// enqueued already committed; this is purely a latency optimization.
func (e *Engine) notify(ctx context.Context, taskListName string) {
	if e.Notifier == nil {
		return
	}
	if err := e.Notifier.Publish(ctx, taskListName); err != nil {
		e.Log.Warn("wakeup publish failed", "task_list_name", taskListName, "error", err)
	}
}
