// Package notify is an optional low-latency wakeup signal for the
// execution poller: publishing a task to a list can also publish a
// pub/sub ping so a waiting poller drains immediately instead of sitting
// out its ticker interval. The poller works correctly without it — the
// ticker alone eventually notices everything — this only shortens the
// gap between enqueue and claim for a deployment that wires it in.
package notify

import (
	"context"
	"encoding/json"
	"fmt"
	"os"
	"strings"
	"time"

	goredis "github.com/redis/go-redis/v9"

	"github.com/rlemke/agentflow-sub002/internal/platform/logger"
)

// Notifier publishes and subscribes to per-task-list wakeup pings.
type Notifier interface {
	Publish(ctx context.Context, taskListName string) error
	Subscribe(ctx context.Context, taskListName string, onWake func()) error
	Close() error
}

type ping struct {
	TaskListName string `json:"task_list_name"`
}

type redisNotifier struct {
	log     *logger.Logger
	rdb     *goredis.Client
	channel string
}

// NewRedisNotifier connects to REDIS_ADDR and verifies it with a ping.
// REDIS_CHANNEL defaults to "afl:wake".
func NewRedisNotifier(log *logger.Logger) (Notifier, error) {
	addr := strings.TrimSpace(os.Getenv("REDIS_ADDR"))
	if addr == "" {
		return nil, fmt.Errorf("notify: missing REDIS_ADDR")
	}
	channel := strings.TrimSpace(os.Getenv("REDIS_CHANNEL"))
	if channel == "" {
		channel = "afl:wake"
	}

	rdb := goredis.NewClient(&goredis.Options{
		Addr:        addr,
		DialTimeout: 5 * time.Second,
	})

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	if err := rdb.Ping(ctx).Err(); err != nil {
		_ = rdb.Close()
		return nil, fmt.Errorf("notify: redis ping: %w", err)
	}

	return &redisNotifier{
		log:     log.With("component", "queue/notify"),
		rdb:     rdb,
		channel: channel,
	}, nil
}

// Publish pings every subscriber that a task may be runnable on
// taskListName. A publish failure is never fatal to the caller that
// enqueued the task — the task itself already committed; this is purely
// a latency optimization.
func (n *redisNotifier) Publish(ctx context.Context, taskListName string) error {
	raw, err := json.Marshal(ping{TaskListName: taskListName})
	if err != nil {
		return err
	}
	return n.rdb.Publish(ctx, n.channel, raw).Err()
}

// Subscribe runs onWake once per ping addressed to taskListName until
// ctx is cancelled. onWake must not block; the poller's own runLoop
// treats it as a request to drain, not as the drain itself.
func (n *redisNotifier) Subscribe(ctx context.Context, taskListName string, onWake func()) error {
	sub := n.rdb.Subscribe(ctx, n.channel)
	if _, err := sub.Receive(ctx); err != nil {
		_ = sub.Close()
		return fmt.Errorf("notify: subscribe: %w", err)
	}

	go func() {
		ch := sub.Channel()
		for {
			select {
			case <-ctx.Done():
				_ = sub.Close()
				return
			case m, ok := <-ch:
				if !ok || m == nil {
					_ = sub.Close()
					return
				}
				var p ping
				if err := json.Unmarshal([]byte(m.Payload), &p); err != nil {
					n.log.Warn("notify: bad wakeup payload", "error", err)
					continue
				}
				if p.TaskListName == taskListName {
					onWake()
				}
			}
		}
	}()

	return nil
}

func (n *redisNotifier) Close() error {
	return n.rdb.Close()
}
