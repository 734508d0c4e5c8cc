package projection

import (
	"context"

	"github.com/jackc/pgx/v5"

	"github.com/meridian-commerce/core/internal/eventstore"
)

func (r *Runner) registerProductHandlers() {
	r.register("product.created", r.onProductCreated)
	r.register("product.published", r.onProductPublished)
	r.register("product.archived", r.onProductStatusOnly)
	r.register("dropship_product.hidden_drop_scheduled", r.onProductStatusOnly)
	r.register("dropship_product.visible_drop_scheduled", r.onProductStatusOnly)
	r.register("product.slug_updated", r.onProductSlugUpdated)
	r.register("product.image_added", r.onProductImagesChanged)
	r.register("product.images_reordered", r.onProductImagesChanged)
}

func (r *Runner) onProductCreated(ctx context.Context, tx pgx.Tx, event eventstore.Event) error {
	s := event.Payload.NewState
	_, err := tx.Exec(ctx, `
		INSERT INTO product_list_view (product_id, slug, name, status, fulfillment_type, collections, tags, images, published_at, updated_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10)
		ON CONFLICT (product_id) DO NOTHING
	`, event.AggregateID.String(), str(s, "slug"), str(s, "name"), str(s, "status"), str(s, "fulfillmentType"),
		jsonOf(s["collections"]), jsonOf(s["tags"]), jsonOf(s["images"]), timeOf(s, "publishedAt"), event.OccurredAt)
	return err
}

// onProductPublished handles product.published, the only status
// transition whose newState carries publishedAt.
func (r *Runner) onProductPublished(ctx context.Context, tx pgx.Tx, event eventstore.Event) error {
	s := event.Payload.NewState
	_, err := tx.Exec(ctx, `
		UPDATE product_list_view SET status = $2, published_at = $3, updated_at = $4 WHERE product_id = $1
	`, event.AggregateID.String(), str(s, "status"), timeOf(s, "publishedAt"), event.OccurredAt)
	return err
}

// onProductStatusOnly handles transitions (archive, enter-pending-drop)
// whose newState carries only status - published_at must be left
// untouched, not overwritten with the missing value.
func (r *Runner) onProductStatusOnly(ctx context.Context, tx pgx.Tx, event eventstore.Event) error {
	s := event.Payload.NewState
	_, err := tx.Exec(ctx, `
		UPDATE product_list_view SET status = $2, updated_at = $3 WHERE product_id = $1
	`, event.AggregateID.String(), str(s, "status"), event.OccurredAt)
	return err
}

func (r *Runner) onProductSlugUpdated(ctx context.Context, tx pgx.Tx, event eventstore.Event) error {
	s := event.Payload.NewState
	_, err := tx.Exec(ctx, `
		UPDATE product_list_view SET slug = $2, updated_at = $3 WHERE product_id = $1
	`, event.AggregateID.String(), str(s, "slug"), event.OccurredAt)
	return err
}

func (r *Runner) onProductImagesChanged(ctx context.Context, tx pgx.Tx, event eventstore.Event) error {
	s := event.Payload.NewState
	_, err := tx.Exec(ctx, `
		UPDATE product_list_view SET images = $2, updated_at = $3 WHERE product_id = $1
	`, event.AggregateID.String(), jsonOf(s["images"]), event.OccurredAt)
	return err
}
