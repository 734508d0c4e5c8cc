package projection

import (
	"context"

	"github.com/jackc/pgx/v5"

	"github.com/meridian-commerce/core/internal/eventstore"
)

func (r *Runner) registerFulfillmentHandlers() {
	r.register("fulfillment.created", r.onFulfillmentCreated)
	r.register("fulfillment.shipped", r.onFulfillmentShipped)
	r.register("fulfillment.delivered", r.onFulfillmentDelivered)
	r.register("fulfillment.cancelled", r.onFulfillmentStatusChanged)
}

func (r *Runner) onFulfillmentCreated(ctx context.Context, tx pgx.Tx, event eventstore.Event) error {
	s := event.Payload.NewState
	_, err := tx.Exec(ctx, `
		INSERT INTO fulfillment_list_view (fulfillment_id, order_id, items, status, tracking_number, carrier, shipped_at, delivered_at, updated_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9)
		ON CONFLICT (fulfillment_id) DO NOTHING
	`, event.AggregateID.String(), str(s, "orderId"), jsonOf(s["items"]), str(s, "status"),
		strPtr(s, "trackingNumber"), strPtr(s, "carrier"), timeOf(s, "shippedAt"), timeOf(s, "deliveredAt"), event.OccurredAt)
	return err
}

func (r *Runner) onFulfillmentShipped(ctx context.Context, tx pgx.Tx, event eventstore.Event) error {
	s := event.Payload.NewState
	_, err := tx.Exec(ctx, `
		UPDATE fulfillment_list_view SET status = $2, tracking_number = $3, carrier = $4, shipped_at = $5, updated_at = $6 WHERE fulfillment_id = $1
	`, event.AggregateID.String(), str(s, "status"), strPtr(s, "trackingNumber"), strPtr(s, "carrier"), timeOf(s, "shippedAt"), event.OccurredAt)
	return err
}

func (r *Runner) onFulfillmentDelivered(ctx context.Context, tx pgx.Tx, event eventstore.Event) error {
	s := event.Payload.NewState
	_, err := tx.Exec(ctx, `
		UPDATE fulfillment_list_view SET status = $2, delivered_at = $3, updated_at = $4 WHERE fulfillment_id = $1
	`, event.AggregateID.String(), str(s, "status"), timeOf(s, "deliveredAt"), event.OccurredAt)
	return err
}

func (r *Runner) onFulfillmentStatusChanged(ctx context.Context, tx pgx.Tx, event eventstore.Event) error {
	s := event.Payload.NewState
	_, err := tx.Exec(ctx, `
		UPDATE fulfillment_list_view SET status = $2, updated_at = $3 WHERE fulfillment_id = $1
	`, event.AggregateID.String(), str(s, "status"), event.OccurredAt)
	return err
}
