package engine

import (
	"context"
	"fmt"
	"os"
	"strconv"
	"time"
)

/*
Poller is the SQL-polling execution loop for the afl:execute task list.

High-level responsibilities:
  - Poll afl_tasks for a runnable afl:execute task (via Engine.ExecuteStep,
    which wraps Store.ClaimNextTask's SELECT ... FOR UPDATE SKIP LOCKED).
  - Drain every currently-claimable task before sleeping again, so a burst
    of newly-ready steps (a block materializing several statements at
    once) gets worked through in one tick rather than one per second.
  - Recover from a panicking tick rather than taking the whole pool down.

Concurrency:
  - Start spawns N goroutines, each running its own runLoop.
  - The DB-level claim inside ExecuteStep is what actually prevents two
    goroutines (or two processes) from ticking the same task twice; the
    goroutines here are purely a concurrency knob, not a correctness one.
*/
type Poller struct {
	Engine      *Engine
	Concurrency int
}

// NewPoller reads AFL_WORKER_CONCURRENCY (default 4) if concurrency <= 0.
func NewPoller(e *Engine, concurrency int) *Poller {
	if concurrency <= 0 {
		concurrency = getEnvInt("AFL_WORKER_CONCURRENCY", 4)
	}
	return &Poller{Engine: e, Concurrency: concurrency}
}

// Start launches the poller pool; it returns immediately, the pool runs
// until ctx is cancelled.
func (p *Poller) Start(ctx context.Context) {
	p.Engine.Log.Info("starting execution poller pool", "concurrency", p.Concurrency)
	for i := 0; i < p.Concurrency; i++ {
		go p.runLoop(ctx, i+1)
	}
}

func (p *Poller) runLoop(ctx context.Context, workerID int) {
	claimerID := fmt.Sprintf("afl-engine-%d", workerID)
	ticker := time.NewTicker(1 * time.Second)
	defer ticker.Stop()

	// wake lets a Notifier (internal/queue/notify) cut the ticker wait
	// short: the first worker slot to notice a ping drains immediately,
	// the rest still pick up the same task list on their own ticker.
	wake := make(chan struct{}, 1)
	if workerID == 1 && p.Engine.Notifier != nil {
		if err := p.Engine.Notifier.Subscribe(ctx, ExecuteTaskList, func() {
			select {
			case wake <- struct{}{}:
			default:
			}
		}); err != nil {
			p.Engine.Log.Warn("wakeup subscribe failed, falling back to ticker-only polling", "error", err)
		}
	}

	for {
		select {
		case <-ctx.Done():
			p.Engine.Log.Info("execution poller stopped", "worker_id", workerID)
			return
		case <-ticker.C:
			p.drain(ctx, workerID, claimerID)
		case <-wake:
			p.drain(ctx, workerID, claimerID)
		}
	}
}

// drain keeps claiming and executing tasks until the list is empty or an
// ExecuteStep call (its claim or its step run) returns an error, so one tick of the outer ticker can work through
// an arbitrary backlog instead of one task per second.
func (p *Poller) drain(ctx context.Context, workerID int, claimerID string) {
	for {
		claimed, err := p.runOne(ctx, claimerID)
		if err != nil {
			p.Engine.Log.Warn("execute step failed", "worker_id", workerID, "error", err)
			return
		}
		if !claimed {
			return
		}
	}
}

// runOne wraps one ExecuteStep call with panic recovery, converting a
// handler panic into a logged error instead of crashing the pool.
func (p *Poller) runOne(ctx context.Context, claimerID string) (claimed bool, err error) {
	defer func() {
		if r := recover(); r != nil {
			p.Engine.Log.Error("execute step panicked", "claimer_id", claimerID, "panic", r)
			err = fmt.Errorf("afl-engine: recovered panic: %v", r)
		}
	}()
	return p.Engine.ExecuteStep(ctx, claimerID)
}

func getEnvInt(key string, def int) int {
	v := os.Getenv(key)
	if v == "" {
		return def
	}
	i, err := strconv.Atoi(v)
	if err != nil {
		return def
	}
	return i
}
