package cli

import (
	"context"
	"errors"
	"fmt"
	"io"
	"os"

	"github.com/hibiken/asynq"

	"github.com/odyssey-erp/lending-backoffice/jobs"
)

// JobQueue is the part of jobs.Client the CLI needs.
type JobQueue interface {
	Trigger(ctx context.Context, name string) (*asynq.TaskInfo, error)
	InspectQueue() (jobs.QueueStats, error)
	Close() error
}

// JobsCLI wraps manual management helpers for Asynq jobs.
type JobsCLI struct {
	queue  JobQueue
	Stdout io.Writer
	Stderr io.Writer
}

// NewJobsCLI initialises the helpers against the Redis instance at redisAddr.
func NewJobsCLI(redisAddr string) *JobsCLI {
	return NewJobsCLIWithQueue(jobs.NewClient(asynq.RedisClientOpt{Addr: redisAddr}))
}

// NewJobsCLIWithQueue uses an existing queue client.
func NewJobsCLIWithQueue(queue JobQueue) *JobsCLI {
	return &JobsCLI{queue: queue, Stdout: os.Stdout, Stderr: os.Stderr}
}

// Close releases underlying resources.
func (c *JobsCLI) Close() error {
	if c == nil || c.queue == nil {
		return nil
	}
	return c.queue.Close()
}

// TriggerCommand enqueues a supported task by name with its default payload.
func (c *JobsCLI) TriggerCommand(ctx context.Context, name string) int {
	if c == nil || c.queue == nil {
		_, _ = fmt.Fprintln(c.stderr(), "jobs trigger: queue not configured")
		return 1
	}
	if name == "" {
		_, _ = fmt.Fprintf(c.stderr(), "jobs trigger: task name required (%s, %s, %s)\n",
			jobs.TaskGLIntegrity, jobs.TaskCostCentersSync, jobs.TaskIdempotencyCleanup)
		return 2
	}
	info, err := c.queue.Trigger(ctx, name)
	if err != nil {
		if errors.Is(err, asynq.ErrDuplicateTask) || errors.Is(err, asynq.ErrTaskIDConflict) {
			_, _ = fmt.Fprintf(c.stderr(), "jobs trigger: %s already queued\n", name)
			return 3
		}
		_, _ = fmt.Fprintf(c.stderr(), "jobs trigger: %v\n", err)
		return 1
	}
	_, _ = fmt.Fprintf(c.stdout(), "enqueued %s id=%s queue=%s\n", info.Type, info.ID, info.Queue)
	return 0
}

// StatsCommand prints the default queue counters.
func (c *JobsCLI) StatsCommand() int {
	if c == nil || c.queue == nil {
		_, _ = fmt.Fprintln(c.stderr(), "jobs stats: queue not configured")
		return 1
	}
	stats, err := c.queue.InspectQueue()
	if err != nil {
		_, _ = fmt.Fprintf(c.stderr(), "jobs stats: %v\n", err)
		return 1
	}
	_, _ = fmt.Fprintf(c.stdout(), "queue=%s pending=%d active=%d scheduled=%d retry=%d failed=%d\n",
		stats.Queue, stats.Pending, stats.Active, stats.Scheduled, stats.Retry, stats.Failed)
	return 0
}

func (c *JobsCLI) stdout() io.Writer {
	if c == nil || c.Stdout == nil {
		return os.Stdout
	}
	return c.Stdout
}

func (c *JobsCLI) stderr() io.Writer {
	if c == nil || c.Stderr == nil {
		return os.Stderr
	}
	return c.Stderr
}
