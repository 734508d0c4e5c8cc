package projection

import (
	"context"

	"github.com/jackc/pgx/v5"

	"github.com/meridian-commerce/core/internal/eventstore"
)

func (r *Runner) registerVariantHandlers() {
	r.register("variant.created", r.onVariantCreated)
	r.register("variant.inventory_updated", r.onVariantInventoryUpdated)
	r.register("variant.list_price_updated", r.onVariantListPriceUpdated)
	r.register("variant.published", r.onVariantStatusChanged)
	r.register("variant.archived", r.onVariantStatusChanged)
	r.register("variant.image_added", r.onVariantImagesChanged)

	r.register("variantPositionsWithinProduct.created", r.onVariantPositionsRewrite)
	r.register("variantPositionsWithinProduct.variant_appended", r.onVariantPositionsRewrite)
	r.register("variantPositionsWithinProduct.variant_removed", r.onVariantPositionsRewrite)
	r.register("variantPositionsWithinProduct.reordered", r.onVariantPositionsRewrite)
}

func (r *Runner) onVariantCreated(ctx context.Context, tx pgx.Tx, event eventstore.Event) error {
	s := event.Payload.NewState
	productID := str(s, "productId")
	if _, err := tx.Exec(ctx, `
		INSERT INTO variant_list_view (variant_id, product_id, sku, options, list_price, inventory, status, images, updated_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9)
		ON CONFLICT (variant_id) DO NOTHING
	`, event.AggregateID.String(), productID, str(s, "sku"), jsonOf(s["options"]),
		int64Of(s, "listPrice"), intOf(s, "inventory"), str(s, "status"), jsonOf(s["images"]), event.OccurredAt); err != nil {
		return err
	}
	return r.refreshCatalogueVariants(ctx, tx, productID, event.OccurredAt)
}

func (r *Runner) onVariantInventoryUpdated(ctx context.Context, tx pgx.Tx, event eventstore.Event) error {
	s := event.Payload.NewState
	if _, err := tx.Exec(ctx, `
		UPDATE variant_list_view SET inventory = $2, updated_at = $3 WHERE variant_id = $1
	`, event.AggregateID.String(), intOf(s, "inventory"), event.OccurredAt); err != nil {
		return err
	}
	return r.refreshCatalogueVariants(ctx, tx, str(s, "productId"), event.OccurredAt)
}

func (r *Runner) onVariantListPriceUpdated(ctx context.Context, tx pgx.Tx, event eventstore.Event) error {
	s := event.Payload.NewState
	if _, err := tx.Exec(ctx, `
		UPDATE variant_list_view SET list_price = $2, updated_at = $3 WHERE variant_id = $1
	`, event.AggregateID.String(), int64Of(s, "listPrice"), event.OccurredAt); err != nil {
		return err
	}
	return r.refreshCatalogueVariants(ctx, tx, str(s, "productId"), event.OccurredAt)
}

func (r *Runner) onVariantStatusChanged(ctx context.Context, tx pgx.Tx, event eventstore.Event) error {
	s := event.Payload.NewState
	if _, err := tx.Exec(ctx, `
		UPDATE variant_list_view SET status = $2, updated_at = $3 WHERE variant_id = $1
	`, event.AggregateID.String(), str(s, "status"), event.OccurredAt); err != nil {
		return err
	}
	return r.refreshCatalogueVariants(ctx, tx, str(s, "productId"), event.OccurredAt)
}

func (r *Runner) onVariantImagesChanged(ctx context.Context, tx pgx.Tx, event eventstore.Event) error {
	s := event.Payload.NewState
	if _, err := tx.Exec(ctx, `
		UPDATE variant_list_view SET images = $2, updated_at = $3 WHERE variant_id = $1
	`, event.AggregateID.String(), jsonOf(s["images"]), event.OccurredAt); err != nil {
		return err
	}
	return r.refreshCatalogueVariants(ctx, tx, str(s, "productId"), event.OccurredAt)
}

// onVariantPositionsRewrite replaces the full set of variant_positions_view
// rows for a product on every mutation - the list is small (one
// product's variants) and rewriting avoids having to diff old/new
// order for an upsert.
func (r *Runner) onVariantPositionsRewrite(ctx context.Context, tx pgx.Tx, event eventstore.Event) error {
	s := event.Payload.NewState
	productID := str(s, "productId")
	variantIDs, _ := s["variantIds"].([]any)

	if _, err := tx.Exec(ctx, `DELETE FROM variant_positions_view WHERE product_id = $1`, productID); err != nil {
		return err
	}
	for i, v := range variantIDs {
		variantID, _ := v.(string)
		if _, err := tx.Exec(ctx, `
			INSERT INTO variant_positions_view (product_id, variant_id, position, updated_at)
			VALUES ($1, $2, $3, $4)
		`, productID, variantID, i, event.OccurredAt); err != nil {
			return err
		}
	}
	return nil
}
