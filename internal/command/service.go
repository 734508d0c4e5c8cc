package command

import (
	"context"

	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/meridian-commerce/core/internal/domain/collection"
	"github.com/meridian-commerce/core/internal/domain/collectionproductpositions"
	"github.com/meridian-commerce/core/internal/domain/fulfillment"
	"github.com/meridian-commerce/core/internal/domain/product"
	"github.com/meridian-commerce/core/internal/domain/schedule"
	"github.com/meridian-commerce/core/internal/domain/slugreservation"
	"github.com/meridian-commerce/core/internal/domain/variant"
	"github.com/meridian-commerce/core/internal/domain/variantpositions"
	"github.com/meridian-commerce/core/internal/eventstore"
	"github.com/meridian-commerce/core/internal/outbox"
	"github.com/meridian-commerce/core/internal/unitofwork"
)

// Service bundles the dependencies every command needs: a connection
// pool to start a fresh Unit of Work per invocation, the shared event
// store, and the outbox. One Service value is constructed at startup
// and reused across requests - it holds no per-request state.
type Service struct {
	pool   *pgxpool.Pool
	store  *eventstore.PostgresStore
	outbox outbox.Store
}

func NewService(pool *pgxpool.Pool, store *eventstore.PostgresStore, outboxStore outbox.Store) *Service {
	return &Service{pool: pool, store: store, outbox: outboxStore}
}

// txn is the per-invocation bundle of a fresh Unit of Work plus the
// typed repositories bound to it. Every command handler starts one
// with begin(ctx), uses its repositories, and ends with commit or
// rollback.
type txn struct {
	uow *unitofwork.UnitOfWork

	products           *unitofwork.Repository[*product.Product]
	variants           *unitofwork.Repository[*variant.Variant]
	variantPositions   *unitofwork.Repository[*variantpositions.VariantPositions]
	collections        *unitofwork.Repository[*collection.Collection]
	collectionProducts *unitofwork.Repository[*collectionproductpositions.CollectionProductPositions]
	slugs              *unitofwork.Repository[*slugreservation.SlugReservation]
	schedules          *unitofwork.Repository[*schedule.Schedule]
	fulfillments       *unitofwork.Repository[*fulfillment.Fulfillment]
}

func (s *Service) begin(ctx context.Context) (*txn, error) {
	uow := unitofwork.New(s.pool, s.store, s.outbox)
	if err := uow.Begin(ctx); err != nil {
		return nil, err
	}
	return &txn{
		uow:                uow,
		products:           unitofwork.NewRepository(uow, product.AggregateType, product.Hydrate),
		variants:           unitofwork.NewRepository(uow, variant.AggregateType, variant.Hydrate),
		variantPositions:   unitofwork.NewRepository(uow, variantpositions.AggregateType, variantpositions.Hydrate),
		collections:        unitofwork.NewRepository(uow, collection.AggregateType, collection.Hydrate),
		collectionProducts: unitofwork.NewRepository(uow, collectionproductpositions.AggregateType, collectionproductpositions.Hydrate),
		slugs:              unitofwork.NewRepository(uow, slugreservation.AggregateType, slugreservation.Hydrate),
		schedules:          unitofwork.NewRepository(uow, schedule.AggregateType, schedule.Hydrate),
		fulfillments:       unitofwork.NewRepository(uow, fulfillment.AggregateType, fulfillment.Hydrate),
	}, nil
}

func (t *txn) commit(ctx context.Context) error {
	return t.uow.Commit(ctx)
}

func (t *txn) rollback(ctx context.Context) {
	_ = t.uow.Rollback(ctx)
}
