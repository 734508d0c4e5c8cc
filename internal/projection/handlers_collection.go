package projection

import (
	"context"

	"github.com/jackc/pgx/v5"

	"github.com/meridian-commerce/core/internal/eventstore"
)

func (r *Runner) registerCollectionHandlers() {
	r.register("collection.created", r.onCollectionCreated)
	r.register("collection.published", r.onCollectionStatusChanged)
	r.register("collection.archived", r.onCollectionStatusChanged)
	r.register("collection.slug_updated", r.onCollectionSlugUpdated)
	r.register("collection.image_added", r.onCollectionImagesChanged)

	r.register("collectionProductPositions.created", r.onCollectionPositionsRewrite)
	r.register("collectionProductPositions.product_appended", r.onCollectionPositionsRewrite)
	r.register("collectionProductPositions.product_removed", r.onCollectionPositionsRewrite)
	r.register("collectionProductPositions.reordered", r.onCollectionPositionsRewrite)
}

func (r *Runner) onCollectionCreated(ctx context.Context, tx pgx.Tx, event eventstore.Event) error {
	s := event.Payload.NewState
	_, err := tx.Exec(ctx, `
		INSERT INTO collection_list_view (collection_id, slug, name, description, status, images, updated_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7)
		ON CONFLICT (collection_id) DO NOTHING
	`, event.AggregateID.String(), str(s, "slug"), str(s, "name"), str(s, "description"), str(s, "status"),
		jsonOf(s["images"]), event.OccurredAt)
	return err
}

func (r *Runner) onCollectionStatusChanged(ctx context.Context, tx pgx.Tx, event eventstore.Event) error {
	s := event.Payload.NewState
	_, err := tx.Exec(ctx, `
		UPDATE collection_list_view SET status = $2, updated_at = $3 WHERE collection_id = $1
	`, event.AggregateID.String(), str(s, "status"), event.OccurredAt)
	return err
}

func (r *Runner) onCollectionSlugUpdated(ctx context.Context, tx pgx.Tx, event eventstore.Event) error {
	s := event.Payload.NewState
	_, err := tx.Exec(ctx, `
		UPDATE collection_list_view SET slug = $2, updated_at = $3 WHERE collection_id = $1
	`, event.AggregateID.String(), str(s, "slug"), event.OccurredAt)
	return err
}

func (r *Runner) onCollectionImagesChanged(ctx context.Context, tx pgx.Tx, event eventstore.Event) error {
	s := event.Payload.NewState
	_, err := tx.Exec(ctx, `
		UPDATE collection_list_view SET images = $2, updated_at = $3 WHERE collection_id = $1
	`, event.AggregateID.String(), jsonOf(s["images"]), event.OccurredAt)
	return err
}

// onCollectionPositionsRewrite mirrors onVariantPositionsRewrite for
// the collection/product pairing.
func (r *Runner) onCollectionPositionsRewrite(ctx context.Context, tx pgx.Tx, event eventstore.Event) error {
	s := event.Payload.NewState
	collectionID := str(s, "collectionId")
	productIDs, _ := s["productIds"].([]any)

	if _, err := tx.Exec(ctx, `DELETE FROM collection_product_positions_view WHERE collection_id = $1`, collectionID); err != nil {
		return err
	}
	for i, v := range productIDs {
		productID, _ := v.(string)
		if _, err := tx.Exec(ctx, `
			INSERT INTO collection_product_positions_view (collection_id, product_id, position, updated_at)
			VALUES ($1, $2, $3, $4)
		`, collectionID, productID, i, event.OccurredAt); err != nil {
			return err
		}
	}
	return nil
}
