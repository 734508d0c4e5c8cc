package projection

import (
	"context"

	"github.com/jackc/pgx/v5"

	"github.com/meridian-commerce/core/internal/eventstore"
)

func (r *Runner) registerScheduleHandlers() {
	r.register("schedule.created", r.onScheduleCreated)
	r.register("schedule.execution_started", r.onScheduleStatusChanged)
	r.register("schedule.completed", r.onScheduleStatusChanged)
	r.register("schedule.execution_failed", r.onScheduleExecutionFailed)
	r.register("schedule.cancelled", r.onScheduleStatusChanged)
}

func (r *Runner) onScheduleCreated(ctx context.Context, tx pgx.Tx, event eventstore.Event) error {
	s := event.Payload.NewState
	_, err := tx.Exec(ctx, `
		INSERT INTO schedules_view (schedule_id, target_aggregate_id, target_aggregate_type, command_type, scheduled_for, status, retry_count, next_retry_at, error_message, updated_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10)
		ON CONFLICT (schedule_id) DO NOTHING
	`, event.AggregateID.String(), str(s, "targetAggregateId"), str(s, "targetAggregateType"), str(s, "commandType"),
		timeOf(s, "scheduledFor"), str(s, "status"), intOf(s, "retryCount"), timeOf(s, "nextRetryAt"), strPtr(s, "errorMessage"), event.OccurredAt)
	return err
}

func (r *Runner) onScheduleStatusChanged(ctx context.Context, tx pgx.Tx, event eventstore.Event) error {
	s := event.Payload.NewState
	_, err := tx.Exec(ctx, `
		UPDATE schedules_view SET status = $2, updated_at = $3 WHERE schedule_id = $1
	`, event.AggregateID.String(), str(s, "status"), event.OccurredAt)
	return err
}

func (r *Runner) onScheduleExecutionFailed(ctx context.Context, tx pgx.Tx, event eventstore.Event) error {
	s := event.Payload.NewState
	_, err := tx.Exec(ctx, `
		UPDATE schedules_view SET status = $2, retry_count = $3, next_retry_at = $4, error_message = $5, updated_at = $6 WHERE schedule_id = $1
	`, event.AggregateID.String(), str(s, "status"), intOf(s, "retryCount"), timeOf(s, "nextRetryAt"), strPtr(s, "errorMessage"), event.OccurredAt)
	return err
}
