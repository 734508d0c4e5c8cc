package httpapi

import (
	"context"
	"encoding/json"

	"github.com/meridian-commerce/core/internal/command"
)

// commandRegistry is the command ingress's closed type->handler table
// (section 6). Every entry decodes the envelope's payload into the
// service method's own Params struct and forwards it - no generic
// command-bus reflection, since the set of command types is fixed and
// known up front.
var commandRegistry = map[string]commandFunc{
	"createProduct": func(ctx context.Context, s *command.Service, payload json.RawMessage) (any, error) {
		p, err := decode[command.CreateProductParams](payload)
		if err != nil {
			return nil, err
		}
		return s.CreateProduct(ctx, p)
	},
	"updateProductSlug": func(ctx context.Context, s *command.Service, payload json.RawMessage) (any, error) {
		p, err := decode[command.UpdateProductSlugParams](payload)
		if err != nil {
			return nil, err
		}
		return s.UpdateProductSlug(ctx, p)
	},
	"publishProduct": func(ctx context.Context, s *command.Service, payload json.RawMessage) (any, error) {
		p, err := decode[command.ProductLifecycleParams](payload)
		if err != nil {
			return nil, err
		}
		return s.PublishProduct(ctx, p)
	},
	"archiveProduct": func(ctx context.Context, s *command.Service, payload json.RawMessage) (any, error) {
		p, err := decode[command.ProductLifecycleParams](payload)
		if err != nil {
			return nil, err
		}
		return s.ArchiveProduct(ctx, p)
	},
	"addProductImage": func(ctx context.Context, s *command.Service, payload json.RawMessage) (any, error) {
		p, err := decode[command.AddProductImageParams](payload)
		if err != nil {
			return nil, err
		}
		return s.AddProductImage(ctx, p)
	},
	"reorderProductImages": func(ctx context.Context, s *command.Service, payload json.RawMessage) (any, error) {
		p, err := decode[command.ReorderProductImagesParams](payload)
		if err != nil {
			return nil, err
		}
		return s.ReorderProductImages(ctx, p)
	},
	"createVariant": func(ctx context.Context, s *command.Service, payload json.RawMessage) (any, error) {
		p, err := decode[command.CreateVariantParams](payload)
		if err != nil {
			return nil, err
		}
		return s.CreateVariant(ctx, p)
	},
	"updateVariantInventory": func(ctx context.Context, s *command.Service, payload json.RawMessage) (any, error) {
		p, err := decode[command.UpdateVariantInventoryParams](payload)
		if err != nil {
			return nil, err
		}
		return s.UpdateVariantInventory(ctx, p)
	},
	"updateVariantListPrice": func(ctx context.Context, s *command.Service, payload json.RawMessage) (any, error) {
		p, err := decode[command.UpdateVariantListPriceParams](payload)
		if err != nil {
			return nil, err
		}
		return s.UpdateVariantListPrice(ctx, p)
	},
	"publishVariant": func(ctx context.Context, s *command.Service, payload json.RawMessage) (any, error) {
		p, err := decode[command.VariantLifecycleParams](payload)
		if err != nil {
			return nil, err
		}
		return s.PublishVariant(ctx, p)
	},
	"archiveVariant": func(ctx context.Context, s *command.Service, payload json.RawMessage) (any, error) {
		p, err := decode[command.VariantLifecycleParams](payload)
		if err != nil {
			return nil, err
		}
		return s.ArchiveVariant(ctx, p)
	},
	"reorderVariantPositions": func(ctx context.Context, s *command.Service, payload json.RawMessage) (any, error) {
		p, err := decode[command.ReorderVariantPositionsParams](payload)
		if err != nil {
			return nil, err
		}
		return s.ReorderVariantPositions(ctx, p)
	},
	"createCollection": func(ctx context.Context, s *command.Service, payload json.RawMessage) (any, error) {
		p, err := decode[command.CreateCollectionParams](payload)
		if err != nil {
			return nil, err
		}
		return s.CreateCollection(ctx, p)
	},
	"publishCollection": func(ctx context.Context, s *command.Service, payload json.RawMessage) (any, error) {
		p, err := decode[command.CollectionLifecycleParams](payload)
		if err != nil {
			return nil, err
		}
		return s.PublishCollection(ctx, p)
	},
	"archiveCollection": func(ctx context.Context, s *command.Service, payload json.RawMessage) (any, error) {
		p, err := decode[command.CollectionLifecycleParams](payload)
		if err != nil {
			return nil, err
		}
		return s.ArchiveCollection(ctx, p)
	},
	"updateCollectionSlug": func(ctx context.Context, s *command.Service, payload json.RawMessage) (any, error) {
		p, err := decode[command.UpdateCollectionSlugParams](payload)
		if err != nil {
			return nil, err
		}
		return s.UpdateCollectionSlug(ctx, p)
	},
	"addProductToCollection": func(ctx context.Context, s *command.Service, payload json.RawMessage) (any, error) {
		p, err := decode[command.AddProductToCollectionParams](payload)
		if err != nil {
			return nil, err
		}
		return s.AddProductToCollection(ctx, p)
	},
	"removeProductFromCollection": func(ctx context.Context, s *command.Service, payload json.RawMessage) (any, error) {
		p, err := decode[command.ReorderCollectionProductsParams](payload)
		if err != nil {
			return nil, err
		}
		return s.RemoveProductFromCollection(ctx, p)
	},
	"reorderCollectionProducts": func(ctx context.Context, s *command.Service, payload json.RawMessage) (any, error) {
		p, err := decode[command.ReorderCollectionProductsParams](payload)
		if err != nil {
			return nil, err
		}
		return s.ReorderCollectionProducts(ctx, p)
	},
	"createFulfillment": func(ctx context.Context, s *command.Service, payload json.RawMessage) (any, error) {
		p, err := decode[command.CreateFulfillmentParams](payload)
		if err != nil {
			return nil, err
		}
		return s.CreateFulfillment(ctx, p)
	},
	"shipFulfillment": func(ctx context.Context, s *command.Service, payload json.RawMessage) (any, error) {
		p, err := decode[command.ShipFulfillmentParams](payload)
		if err != nil {
			return nil, err
		}
		return s.ShipFulfillment(ctx, p)
	},
	"deliverFulfillment": func(ctx context.Context, s *command.Service, payload json.RawMessage) (any, error) {
		p, err := decode[command.FulfillmentLifecycleParams](payload)
		if err != nil {
			return nil, err
		}
		return s.DeliverFulfillment(ctx, p)
	},
	"cancelFulfillment": func(ctx context.Context, s *command.Service, payload json.RawMessage) (any, error) {
		p, err := decode[command.FulfillmentLifecycleParams](payload)
		if err != nil {
			return nil, err
		}
		return s.CancelFulfillment(ctx, p)
	},
	"scheduleDropshipVisibleDrop": func(ctx context.Context, s *command.Service, payload json.RawMessage) (any, error) {
		p, err := decode[command.ScheduleDropshipVisibleDropParams](payload)
		if err != nil {
			return nil, err
		}
		return s.ScheduleDropshipVisibleDrop(ctx, p)
	},
	"scheduleDropshipHiddenDrop": func(ctx context.Context, s *command.Service, payload json.RawMessage) (any, error) {
		p, err := decode[command.ScheduleDropshipHiddenDropParams](payload)
		if err != nil {
			return nil, err
		}
		return s.ScheduleDropshipHiddenDrop(ctx, p)
	},
	"cancelSchedule": func(ctx context.Context, s *command.Service, payload json.RawMessage) (any, error) {
		p, err := decode[command.CancelScheduleParams](payload)
		if err != nil {
			return nil, err
		}
		return s.CancelSchedule(ctx, p)
	},
}
