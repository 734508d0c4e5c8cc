package httpapi

import (
	"context"
	"encoding/json"

	"github.com/meridian-commerce/core/internal/views"
)

type redirectChainParams struct {
	EntityID string `json:"entityId"`
}

type catalogueBySlugParams struct {
	Slug string `json:"slug"`
}

// queryRegistry is the query ingress's closed type->handler table
// (section 6), mirroring commandRegistry's shape but fanning out to
// views.Service instead of command.Service.
var queryRegistry = map[string]queryFunc{
	"listProducts": func(ctx context.Context, s *views.Service, params json.RawMessage) (any, error) {
		f, err := decode[views.Filter](params)
		if err != nil {
			return nil, err
		}
		return s.ListProducts(ctx, f)
	},
	"listVariants": func(ctx context.Context, s *views.Service, params json.RawMessage) (any, error) {
		f, err := decode[views.Filter](params)
		if err != nil {
			return nil, err
		}
		return s.ListVariants(ctx, f)
	},
	"listCollections": func(ctx context.Context, s *views.Service, params json.RawMessage) (any, error) {
		f, err := decode[views.Filter](params)
		if err != nil {
			return nil, err
		}
		return s.ListCollections(ctx, f)
	},
	"listCollectionProductPositions": func(ctx context.Context, s *views.Service, params json.RawMessage) (any, error) {
		f, err := decode[views.Filter](params)
		if err != nil {
			return nil, err
		}
		return s.ListCollectionProductPositions(ctx, f)
	},
	"listVariantPositions": func(ctx context.Context, s *views.Service, params json.RawMessage) (any, error) {
		f, err := decode[views.Filter](params)
		if err != nil {
			return nil, err
		}
		return s.ListVariantPositions(ctx, f)
	},
	"listSlugRedirects": func(ctx context.Context, s *views.Service, params json.RawMessage) (any, error) {
		f, err := decode[views.Filter](params)
		if err != nil {
			return nil, err
		}
		return s.ListSlugRedirects(ctx, f)
	},
	"getRedirectChain": func(ctx context.Context, s *views.Service, params json.RawMessage) (any, error) {
		p, err := decode[redirectChainParams](params)
		if err != nil {
			return nil, err
		}
		return s.RedirectChain(ctx, p.EntityID)
	},
	"listSchedules": func(ctx context.Context, s *views.Service, params json.RawMessage) (any, error) {
		f, err := decode[views.Filter](params)
		if err != nil {
			return nil, err
		}
		return s.ListSchedules(ctx, f)
	},
	"listFulfillments": func(ctx context.Context, s *views.Service, params json.RawMessage) (any, error) {
		f, err := decode[views.Filter](params)
		if err != nil {
			return nil, err
		}
		return s.ListFulfillments(ctx, f)
	},
	"getCatalogueEntryBySlug": func(ctx context.Context, s *views.Service, params json.RawMessage) (any, error) {
		p, err := decode[catalogueBySlugParams](params)
		if err != nil {
			return nil, err
		}
		return s.GetCatalogueEntryBySlug(ctx, p.Slug)
	},
}
