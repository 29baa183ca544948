package main

import (
	"context"
	"errors"
	"fmt"

	"github.com/hibiken/asynq"
	"github.com/spf13/cobra"

	"github.com/odyssey-erp/backoffice/jobs"
)

// jobsCLI wraps manual management helpers for asynq jobs.
type jobsCLI struct {
	client    *asynq.Client
	inspector *asynq.Inspector
}

func newJobsCLI(opt asynq.RedisClientOpt) *jobsCLI {
	return &jobsCLI{client: asynq.NewClient(opt), inspector: asynq.NewInspector(opt)}
}

func (c *jobsCLI) Close() error {
	return errors.Join(c.inspector.Close(), c.client.Close())
}

// buildTask maps a job name to its task with the default payload.
func buildTask(name string, limit int) (*asynq.Task, error) {
	switch name {
	case jobs.TaskLedgerReconcile:
		return jobs.NewReconcileTask(limit)
	case jobs.TaskIdempotencyCleanup:
		return jobs.NewCleanupTask(0)
	default:
		return nil, fmt.Errorf("unsupported job %q", name)
	}
}

// queueStats summarises the current queue state.
type queueStats struct {
	Queue     string
	Pending   int
	Active    int
	Scheduled int
	Retry     int
	Archived  int
}

func (c *jobsCLI) stats() (queueStats, error) {
	info, err := c.inspector.GetQueueInfo(jobs.QueueDefault)
	if err != nil {
		return queueStats{}, err
	}
	return queueStats{
		Queue:     info.Queue,
		Pending:   info.Pending,
		Active:    info.Active,
		Scheduled: info.Scheduled,
		Retry:     info.Retry,
		Archived:  info.Archived,
	}, nil
}

func (c *jobsCLI) trigger(ctx context.Context, name string, limit int) (*asynq.TaskInfo, error) {
	task, err := buildTask(name, limit)
	if err != nil {
		return nil, err
	}
	return c.client.EnqueueContext(ctx, task, asynq.Queue(jobs.QueueDefault), asynq.MaxRetry(3))
}

func newJobsCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "jobs",
		Short: "Inspect and trigger background jobs",
	}
	withCLI := func(fn func(cmd *cobra.Command, args []string, c *jobsCLI) error) func(*cobra.Command, []string) error {
		return func(cmd *cobra.Command, args []string) error {
			e, err := loadEnv()
			if err != nil {
				return err
			}
			c := newJobsCLI(asynq.RedisClientOpt{Addr: e.cfg.RedisAddr, Password: e.cfg.RedisPassword, DB: e.cfg.RedisDB})
			defer c.Close()
			return fn(cmd, args, c)
		}
	}

	var limit int
	trigger := &cobra.Command{
		Use:       "trigger <job>",
		Short:     "Enqueue a job now",
		Args:      cobra.ExactArgs(1),
		ValidArgs: []string{jobs.TaskLedgerReconcile, jobs.TaskIdempotencyCleanup},
		RunE: withCLI(func(cmd *cobra.Command, args []string, c *jobsCLI) error {
			info, err := c.trigger(cmd.Context(), args[0], limit)
			if err != nil {
				return err
			}
			fmt.Fprintf(cmd.OutOrStdout(), "enqueued %s id=%s queue=%s\n", info.Type, info.ID, info.Queue)
			return nil
		}),
	}
	trigger.Flags().IntVar(&limit, "limit", 500, "batch size for ledger:reconcile")

	stats := &cobra.Command{
		Use:   "stats",
		Short: "Show default queue counters",
		RunE: withCLI(func(cmd *cobra.Command, args []string, c *jobsCLI) error {
			s, err := c.stats()
			if err != nil {
				return err
			}
			fmt.Fprintf(cmd.OutOrStdout(), "queue=%s pending=%d active=%d scheduled=%d retry=%d archived=%d\n",
				s.Queue, s.Pending, s.Active, s.Scheduled, s.Retry, s.Archived)
			return nil
		}),
	}
	cmd.AddCommand(trigger, stats)
	return cmd
}
