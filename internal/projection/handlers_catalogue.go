package projection

import (
	"context"
	"encoding/json"
	"time"

	"github.com/jackc/pgx/v5"

	"github.com/meridian-commerce/core/internal/eventstore"
)

// published_catalogue_view is a storefront-facing denormalization: one
// row per currently-active product, carrying its own metadata plus an
// embedded snapshot of its active variants, so a storefront read never
// needs a join. It is maintained separately from product_list_view
// (an admin-facing listing) because the two have different lifetimes -
// a draft or archived product still belongs in the admin list but
// never in the published catalogue.

func (r *Runner) registerCatalogueHandlers() {
	r.register("product.published", r.onCataloguePublish)
	r.register("product.archived", r.onCatalogueUnpublish)
	r.register("dropship_product.hidden_drop_scheduled", r.onCatalogueUnpublish)
}

// onCataloguePublish reads the product's own snapshot for its name,
// slug and metadata (not carried on the published event itself, which
// only records the status/publishedAt delta) and seeds the variants
// array from whatever variant_list_view already has.
func (r *Runner) onCataloguePublish(ctx context.Context, tx pgx.Tx, event eventstore.Event) error {
	var payloadRaw []byte
	err := tx.QueryRow(ctx, `SELECT payload FROM snapshots WHERE aggregate_id = $1`, event.AggregateID.String()).Scan(&payloadRaw)
	if err != nil {
		return err
	}
	var snap struct {
		Slug     string         `json:"slug"`
		Name     string         `json:"name"`
		Metadata map[string]any `json:"metadata"`
	}
	if err := json.Unmarshal(payloadRaw, &snap); err != nil {
		return err
	}

	s := event.Payload.NewState
	publishedAt := timeOf(s, "publishedAt")
	if publishedAt == nil {
		now := time.Now().UTC()
		publishedAt = &now
	}

	if _, err := tx.Exec(ctx, `
		INSERT INTO published_catalogue_view (product_id, slug, name, metadata, variants, published_at, updated_at)
		VALUES ($1, $2, $3, $4, '[]', $5, $6)
		ON CONFLICT (product_id) DO UPDATE SET
			slug = EXCLUDED.slug, name = EXCLUDED.name, metadata = EXCLUDED.metadata,
			published_at = EXCLUDED.published_at, updated_at = EXCLUDED.updated_at
	`, event.AggregateID.String(), snap.Slug, snap.Name, jsonObjOf(snap.Metadata), *publishedAt, event.OccurredAt); err != nil {
		return err
	}
	return r.refreshCatalogueVariants(ctx, tx, event.AggregateID.String(), event.OccurredAt)
}

func (r *Runner) onCatalogueUnpublish(ctx context.Context, tx pgx.Tx, event eventstore.Event) error {
	_, err := tx.Exec(ctx, `DELETE FROM published_catalogue_view WHERE product_id = $1`, event.AggregateID.String())
	return err
}

// refreshCatalogueVariants recomputes a product's embedded variants
// array from variant_list_view. It is a no-op if the product has no
// published_catalogue_view row - most variant mutations happen on
// products that are not yet published.
func (r *Runner) refreshCatalogueVariants(ctx context.Context, tx pgx.Tx, productID string, updatedAt time.Time) error {
	if productID == "" {
		return nil
	}
	_, err := tx.Exec(ctx, `
		UPDATE published_catalogue_view SET
			variants = (
				SELECT COALESCE(jsonb_agg(jsonb_build_object(
					'variantId', variant_id, 'sku', sku, 'options', options,
					'listPrice', list_price, 'inventory', inventory, 'status', status, 'images', images
				)), '[]'::jsonb)
				FROM variant_list_view WHERE product_id = $1 AND status = 'active'
			),
			updated_at = $2
		WHERE product_id = $1
	`, productID, updatedAt)
	return err
}
