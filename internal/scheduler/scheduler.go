// Package scheduler is the deferred-command ticker (component H): it
// polls schedules_view for schedules whose scheduledFor has arrived,
// claims each one, dispatches its target command, and records the
// outcome - retrying with backoff until the schedule's maxAttempts is
// exhausted. Grounded on the teacher's background-worker Start(ctx)
// shape, generalized from an event-bus subscription to a relational
// polling loop since schedules live in Postgres.
package scheduler

import (
	"context"
	"fmt"
	"log"
	"time"

	"golang.org/x/time/rate"

	"github.com/meridian-commerce/core/internal/command"
	"github.com/meridian-commerce/core/internal/outbox"
	"github.com/meridian-commerce/core/internal/shared/config"
	"github.com/meridian-commerce/core/internal/shared/metrics"
	"github.com/meridian-commerce/core/internal/shared/types"
	"github.com/meridian-commerce/core/internal/views"
)

// dispatchRate self-throttles how fast a single tick works through a
// due-schedule batch, so a backlog after downtime doesn't hammer the
// command layer in a tight loop.
const dispatchRate = 20

type Scheduler struct {
	views    *views.Service
	commands *command.Service
	cfg      config.SchedulerConfig
	limiter  *rate.Limiter
}

func New(viewsSvc *views.Service, commands *command.Service, cfg config.SchedulerConfig) *Scheduler {
	return &Scheduler{
		views:    viewsSvc,
		commands: commands,
		cfg:      cfg,
		limiter:  rate.NewLimiter(rate.Limit(dispatchRate), dispatchRate),
	}
}

// Run ticks forever until ctx is cancelled, matching the runner's
// Run(ctx) shape in internal/projection.
func (s *Scheduler) Run(ctx context.Context) error {
	ticker := time.NewTicker(s.cfg.TickInterval)
	defer ticker.Stop()
	for {
		select {
		case <-ctx.Done():
			return ctx.Err()
		case <-ticker.C:
			if err := s.Tick(ctx); err != nil {
				log.Printf("scheduler: tick failed: %v", err)
			}
		}
	}
}

// Tick claims and executes up to the configured batch size of due
// schedules. A single schedule's failure does not stop the rest of
// the batch - it is recorded via FailSchedule and retried on a later
// tick.
func (s *Scheduler) Tick(ctx context.Context) error {
	due, err := s.views.ListDueSchedules(ctx, time.Now().UTC(), s.cfg.BatchSize)
	if err != nil {
		return fmt.Errorf("list due schedules: %w", err)
	}
	for _, item := range due {
		if err := s.limiter.Wait(ctx); err != nil {
			return err
		}
		if err := s.execute(ctx, item); err != nil {
			log.Printf("scheduler: execute schedule %s failed: %v", item.ScheduleID, err)
		}
	}
	return nil
}

// execute claims one schedule (BeginScheduleExecution), dispatches
// its target command, and records the outcome. A false claimed
// return means another scheduler instance already took it - not an
// error.
func (s *Scheduler) execute(ctx context.Context, item views.ScheduleItem) error {
	id := types.ID(item.ScheduleID)

	sched, claimed, err := s.commands.BeginScheduleExecution(ctx, id)
	if err != nil {
		return fmt.Errorf("begin execution: %w", err)
	}
	if !claimed {
		return nil
	}
	expected := sched.Version()

	dispatchErr := s.commands.Dispatch(ctx, item.CommandType, types.ID(item.TargetAggregateID), nil)
	if dispatchErr == nil {
		metrics.RecordScheduleExecution(item.CommandType, "success")
		if err := s.commands.CompleteSchedule(ctx, id, expected); err != nil {
			return fmt.Errorf("complete schedule: %w", err)
		}
		return nil
	}

	metrics.RecordScheduleExecution(item.CommandType, "failure")
	nextRetryAt := time.Now().UTC().Add(outbox.Backoff(sched.RetryCount + 1))
	if err := s.commands.FailSchedule(ctx, id, expected, dispatchErr.Error(), &nextRetryAt, s.cfg.MaxAttempts); err != nil {
		return fmt.Errorf("fail schedule: %w", err)
	}
	return nil
}
