// Command afl-worker runs the execution poller pool: it claims
// afl:execute tasks and drives their steps through the state machine
// until the queue is empty, then waits for the next tick. It never
// serves HTTP; submission happens out-of-process via afl-submit.
package main

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"github.com/rlemke/agentflow-sub002/internal/config"
	"github.com/rlemke/agentflow-sub002/internal/engine"
	"github.com/rlemke/agentflow-sub002/internal/platform/logger"
	"github.com/rlemke/agentflow-sub002/internal/queue/notify"
	"github.com/rlemke/agentflow-sub002/internal/sandbox"
	"github.com/rlemke/agentflow-sub002/internal/store"
)

func main() {
	cfg, err := config.Load()
	if err != nil {
		fmt.Printf("failed to load config: %v\n", err)
		os.Exit(1)
	}

	log, err := logger.New(cfg.LogMode)
	if err != nil {
		fmt.Printf("failed to initialize logger: %v\n", err)
		os.Exit(1)
	}
	defer log.Sync()

	st, err := store.Open(log)
	if err != nil {
		log.Error("failed to connect to store", "error", err)
		os.Exit(1)
	}
	if err := st.AutoMigrateAll(); err != nil {
		log.Error("failed to migrate store", "error", err)
		os.Exit(1)
	}

	e := engine.New(st, sandbox.Unsupported{}, log)
	if n, err := notify.NewRedisNotifier(log); err != nil {
		log.Info("no wakeup notifier configured, polling on the ticker alone", "reason", err)
	} else {
		e.Notifier = n
		defer n.Close()
	}
	poller := engine.NewPoller(e, cfg.Worker.Concurrency)

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	poller.Start(ctx)
	log.Info("afl-worker running", "concurrency", cfg.Worker.Concurrency)

	<-ctx.Done()
	log.Info("afl-worker shutting down")
}
