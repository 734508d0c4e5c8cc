package projection

import (
	"context"

	"github.com/jackc/pgx/v5"

	"github.com/meridian-commerce/core/internal/eventstore"
)

func (r *Runner) registerSlugHandlers() {
	r.register("slugReservation.reserved", r.onSlugReserved)
	r.register("slugReservation.released", r.onSlugReleased)
	r.register("slugReservation.reactivated", r.onSlugReactivated)
	r.register("slugReservation.redirect_set", r.onSlugRedirectSet)
}

// onSlugReserved and onSlugReactivated both insert a fresh row keyed
// on (slug, entity_id) rather than updating in place - a reactivation
// hands the slug to a new entity id, and the old entity's released row
// stays in place so the redirect chain can be walked by entity id.
func (r *Runner) onSlugReserved(ctx context.Context, tx pgx.Tx, event eventstore.Event) error {
	s := event.Payload.NewState
	_, err := tx.Exec(ctx, `
		INSERT INTO slug_redirects_view (slug, entity_id, entity_type, status, forwards_to, created_at)
		VALUES ($1, $2, $3, $4, $5, $6)
		ON CONFLICT (slug, entity_id) DO NOTHING
	`, event.AggregateID.String(), str(s, "entityId"), str(s, "entityType"), str(s, "status"), strPtr(s, "forwardsTo"), event.OccurredAt)
	return err
}

func (r *Runner) onSlugReleased(ctx context.Context, tx pgx.Tx, event eventstore.Event) error {
	s := event.Payload.NewState
	_, err := tx.Exec(ctx, `
		UPDATE slug_redirects_view SET status = $3 WHERE slug = $1 AND entity_id = $2
	`, event.AggregateID.String(), str(s, "entityId"), str(s, "status"))
	return err
}

func (r *Runner) onSlugReactivated(ctx context.Context, tx pgx.Tx, event eventstore.Event) error {
	s := event.Payload.NewState
	_, err := tx.Exec(ctx, `
		INSERT INTO slug_redirects_view (slug, entity_id, entity_type, status, forwards_to, created_at)
		VALUES ($1, $2, $3, $4, $5, $6)
		ON CONFLICT (slug, entity_id) DO UPDATE SET entity_type = EXCLUDED.entity_type, status = EXCLUDED.status, forwards_to = EXCLUDED.forwards_to
	`, event.AggregateID.String(), str(s, "entityId"), str(s, "entityType"), str(s, "status"), strPtr(s, "forwardsTo"), event.OccurredAt)
	return err
}

func (r *Runner) onSlugRedirectSet(ctx context.Context, tx pgx.Tx, event eventstore.Event) error {
	s := event.Payload.NewState
	_, err := tx.Exec(ctx, `
		UPDATE slug_redirects_view SET forwards_to = $3 WHERE slug = $1 AND entity_id = $2
	`, event.AggregateID.String(), str(s, "entityId"), strPtr(s, "forwardsTo"))
	return err
}
