// Package unitofwork is the transactional boundary every command
// service commits through (component D): it loads aggregates via
// generic repositories, enforces optimistic concurrency, and writes
// events + snapshots + outbox atomically in one transaction. Grounded
// on the teacher's postgres.go commit pattern
// (tx := pool.Begin(); defer tx.Rollback(); ...; tx.Commit()) across
// several related tables in one go.
package unitofwork

import (
	"context"
	"fmt"
	"time"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/meridian-commerce/core/internal/eventstore"
	apperrors "github.com/meridian-commerce/core/internal/shared/errors"
	"github.com/meridian-commerce/core/internal/shared/metrics"
	"github.com/meridian-commerce/core/internal/shared/types"
	"github.com/meridian-commerce/core/internal/outbox"
)

// ExpectedVersion distinguishes "this aggregate must not exist yet"
// (Absent) from an ordinary numeric version check. See the genesis
// Open Question decision in DESIGN.md: Absent is its own code path,
// not a -1 overload of the numeric check.
type ExpectedVersion struct {
	absent bool
	value  int
}

// Absent represents "no aggregate with this id exists yet" - used by
// create* services for genesis commands.
func Absent() ExpectedVersion { return ExpectedVersion{absent: true} }

// At represents an ordinary expectedVersion passed by the caller from
// a previously loaded aggregate or admin UI form submission.
func At(version int) ExpectedVersion { return ExpectedVersion{value: version} }

func (v ExpectedVersion) IsAbsent() bool { return v.absent }
func (v ExpectedVersion) Value() int     { return v.value }

type registration struct {
	agg      eventstore.AggregateRoot
	expected ExpectedVersion
}

// UnitOfWork is the transactional boundary exposed to command
// services: begin, get repositories, register mutated aggregates,
// commit (or rollback) atomically.
type UnitOfWork struct {
	pool    *pgxpool.Pool
	store   *eventstore.PostgresStore
	outbox  outbox.Store
	tx      pgx.Tx
	pending []registration
}

func New(pool *pgxpool.Pool, store *eventstore.PostgresStore, outboxStore outbox.Store) *UnitOfWork {
	return &UnitOfWork{pool: pool, store: store, outbox: outboxStore}
}

// Begin opens a serializable transaction. Must be called before any
// repository Find or Save.
func (u *UnitOfWork) Begin(ctx context.Context) error {
	tx, err := u.pool.BeginTx(ctx, pgx.TxOptions{IsoLevel: pgx.Serializable})
	if err != nil {
		return apperrors.Transient("could not begin transaction", err)
	}
	u.tx = tx
	return nil
}

// Register marks an aggregate for commit with the expectedVersion the
// caller's load observed (or Absent for a genesis create). Command
// services call this after invoking the domain method(s), once per
// mutated aggregate, before Commit.
func (u *UnitOfWork) Register(agg eventstore.AggregateRoot, expected ExpectedVersion) {
	u.pending = append(u.pending, registration{agg: agg, expected: expected})
}

// Commit writes every registered aggregate with uncommitted events in
// one transaction: append events (conditional on expectedVersion),
// rewrite the snapshot, enqueue the events into the outbox. Any
// single-aggregate conflict aborts the entire commit.
func (u *UnitOfWork) Commit(ctx context.Context) error {
	if u.tx == nil {
		return apperrors.Internal(fmt.Errorf("commit called without begin"))
	}

	for _, reg := range u.pending {
		events := reg.agg.GetUncommittedEvents()
		if len(events) == 0 {
			continue
		}

		if reg.expected.IsAbsent() {
			exists, err := u.existsTx(ctx, reg.agg.AggregateID())
			if err != nil {
				_ = u.tx.Rollback(ctx)
				return apperrors.Transient("could not verify aggregate absence", err)
			}
			if exists {
				_ = u.tx.Rollback(ctx)
				metrics.RecordOptimisticConflict(reg.agg.AggregateType())
				return apperrors.Conflict(fmt.Sprintf("%s %q already exists", reg.agg.AggregateType(), reg.agg.AggregateID()))
			}
		}

		expectedVersion := reg.agg.Version()
		if err := u.store.AppendTx(ctx, u.tx, events, expectedVersion); err != nil {
			_ = u.tx.Rollback(ctx)
			if err == eventstore.ErrConcurrencyConflict {
				metrics.RecordOptimisticConflict(reg.agg.AggregateType())
				return apperrors.Conflict(fmt.Sprintf("%s %q was modified concurrently", reg.agg.AggregateType(), reg.agg.AggregateID()))
			}
			return apperrors.Transient("append events failed", err)
		}

		newVersion := expectedVersion + len(events)
		snap := eventstore.Snapshot{
			AggregateID:   reg.agg.AggregateID(),
			AggregateType: reg.agg.AggregateType(),
			Version:       newVersion,
			Payload:       reg.agg.ToSnapshot(),
			CorrelationID: events[len(events)-1].CorrelationID,
			UpdatedAt:     time.Now().UTC(),
		}
		if err := u.store.SaveTx(ctx, u.tx, snap); err != nil {
			_ = u.tx.Rollback(ctx)
			return apperrors.Transient("save snapshot failed", err)
		}

		if err := u.outbox.EnqueueTx(ctx, u.tx, events); err != nil {
			_ = u.tx.Rollback(ctx)
			return apperrors.Transient("enqueue outbox failed", err)
		}
	}

	if err := u.tx.Commit(ctx); err != nil {
		return apperrors.Transient("commit transaction failed", err)
	}

	for _, reg := range u.pending {
		if len(reg.agg.GetUncommittedEvents()) == 0 {
			continue
		}
		metrics.RecordAggregateCommitted(reg.agg.AggregateType())
		reg.agg.ClearUncommittedEvents()
	}

	u.tx = nil
	u.pending = nil
	return nil
}

// Rollback abandons the transaction and any in-memory registrations.
func (u *UnitOfWork) Rollback(ctx context.Context) error {
	if u.tx == nil {
		return nil
	}
	err := u.tx.Rollback(ctx)
	u.tx = nil
	u.pending = nil
	if err != nil && err != pgx.ErrTxClosed {
		return apperrors.Internal(err)
	}
	return nil
}

func (u *UnitOfWork) existsTx(ctx context.Context, id types.ID) (bool, error) {
	var exists bool
	err := u.tx.QueryRow(ctx, `SELECT EXISTS(SELECT 1 FROM snapshots WHERE aggregate_id = $1 FOR UPDATE)`, id.String()).Scan(&exists)
	return exists, err
}

// Repository is a generic find/save pair bound to this Unit of Work
// for one aggregate type. Each domain package constructs one with its
// own hydrate function (loadFromSnapshot).
type Repository[T eventstore.AggregateRoot] struct {
	uow           *UnitOfWork
	aggregateType string
	hydrate       func(eventstore.Snapshot) (T, error)
}

func NewRepository[T eventstore.AggregateRoot](uow *UnitOfWork, aggregateType string, hydrate func(eventstore.Snapshot) (T, error)) *Repository[T] {
	return &Repository[T]{uow: uow, aggregateType: aggregateType, hydrate: hydrate}
}

// Find loads the latest snapshot and hydrates it into the aggregate
// type. Returns not_found if no snapshot row exists.
func (r *Repository[T]) Find(ctx context.Context, id types.ID) (T, error) {
	var zero T
	snap, err := r.uow.store.LoadSnapshot(ctx, id)
	if err != nil {
		return zero, apperrors.Transient("load snapshot failed", err)
	}
	if snap == nil {
		return zero, apperrors.NotFound(r.aggregateType, id.String())
	}
	agg, err := r.hydrate(*snap)
	if err != nil {
		return zero, apperrors.Internal(err)
	}
	return agg, nil
}

// Save registers the aggregate for commit with the expectedVersion
// the caller observed when it was loaded (or created).
func (r *Repository[T]) Save(agg T, expected ExpectedVersion) {
	r.uow.Register(agg, expected)
}
