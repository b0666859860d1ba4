package cli

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"os"
	"strings"

	"github.com/hibiken/asynq"

	"github.com/Tech-Craft-Resources/orbit-engine/jobs"
)

type enqueuer interface {
	EnqueueContext(ctx context.Context, task *asynq.Task, opts ...asynq.Option) (*asynq.TaskInfo, error)
	Close() error
}

type queueInspector interface {
	jobs.QueueInfoReader
	Close() error
}

// JobsCLI wraps manual management helpers for Asynq jobs.
type JobsCLI struct {
	client    enqueuer
	inspector queueInspector
}

// NewJobsCLI initialises the CLI helpers using the provided Redis address.
func NewJobsCLI(redisAddr string) (*JobsCLI, error) {
	if strings.TrimSpace(redisAddr) == "" {
		return nil, errors.New("jobs cli: redis address required")
	}
	opts := asynq.RedisClientOpt{Addr: redisAddr}
	return &JobsCLI{client: asynq.NewClient(opts), inspector: asynq.NewInspector(opts)}, nil
}

// Close releases underlying resources.
func (c *JobsCLI) Close() error {
	var err error
	if c.inspector != nil {
		err = errors.Join(err, c.inspector.Close())
	}
	if c.client != nil {
		err = errors.Join(err, c.client.Close())
	}
	return err
}

// Trigger enqueues a known job for immediate processing.
func (c *JobsCLI) Trigger(ctx context.Context, name string, payload jobs.ScheduledPayload) (*asynq.TaskInfo, error) {
	if c == nil || c.client == nil {
		return nil, errors.New("jobs cli: client not configured")
	}
	task, err := jobs.NewTask(name, payload)
	if err != nil {
		return nil, err
	}
	return c.client.EnqueueContext(ctx, task, asynq.MaxRetry(3))
}

// InspectQueue reports the default queue state.
func (c *JobsCLI) InspectQueue(ctx context.Context) (jobs.QueueStats, error) {
	if c == nil || c.inspector == nil {
		return jobs.QueueStats{}, errors.New("jobs cli: inspector not configured")
	}
	if err := ctx.Err(); err != nil {
		return jobs.QueueStats{}, err
	}
	return jobs.Stats(c.inspector)
}

// TriggerOptions defines flags for the jobs trigger command.
type TriggerOptions struct {
	Task           string
	RetentionHours int
	Stdout         io.Writer
	Stderr         io.Writer
}

// TriggerCommand enqueues a task and prints its id.
func (c *JobsCLI) TriggerCommand(ctx context.Context, opts TriggerOptions) int {
	stdout, stderr := writers(opts.Stdout, opts.Stderr)
	if opts.Task == "" {
		_, _ = fmt.Fprintf(stderr, "jobs trigger: task is required (one of %s)\n", strings.Join(jobs.TaskTypes(), ", "))
		return 2
	}
	info, err := c.Trigger(ctx, opts.Task, jobs.ScheduledPayload{RetentionHours: opts.RetentionHours})
	if err != nil {
		_, _ = fmt.Fprintf(stderr, "jobs trigger: %v\n", err)
		return 1
	}
	_, _ = fmt.Fprintf(stdout, "enqueued %s id=%s queue=%s\n", opts.Task, info.ID, info.Queue)
	return 0
}

// StatsOptions defines flags for the jobs stats command.
type StatsOptions struct {
	JSONOutput bool
	Stdout     io.Writer
	Stderr     io.Writer
}

// StatsCommand prints the default queue counters.
func (c *JobsCLI) StatsCommand(ctx context.Context, opts StatsOptions) int {
	stdout, stderr := writers(opts.Stdout, opts.Stderr)
	stats, err := c.InspectQueue(ctx)
	if err != nil {
		_, _ = fmt.Fprintf(stderr, "jobs stats: %v\n", err)
		return 1
	}
	if opts.JSONOutput {
		if err := json.NewEncoder(stdout).Encode(stats); err != nil {
			_, _ = fmt.Fprintf(stderr, "jobs stats: encode json: %v\n", err)
			return 1
		}
		return 0
	}
	_, _ = fmt.Fprintf(stdout, "queue %s: pending=%d active=%d scheduled=%d retry=%d archived=%d\n",
		stats.Queue, stats.Pending, stats.Active, stats.Scheduled, stats.Retry, stats.Archived)
	return 0
}

func writers(stdout, stderr io.Writer) (io.Writer, io.Writer) {
	if stdout == nil {
		stdout = os.Stdout
	}
	if stderr == nil {
		stderr = os.Stderr
	}
	return stdout, stderr
}
