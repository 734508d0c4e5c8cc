// Package projection is the read-model pipeline (component F): a
// cursor-based runner that reads committed events in commit-sequence
// order and dispatches each to an idempotent upsert handler keyed by
// event_name. Grounded on the teacher's internal/audit/subscriber.go
// dispatch-by-event-name pattern, generalized from wildcard
// subscription matching to an explicit closed registry, since the
// spec's event names are a known, fixed set.
package projection

import (
	"context"
	"fmt"
	"log"
	"time"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/meridian-commerce/core/internal/eventstore"
	"github.com/meridian-commerce/core/internal/shared/metrics"
)

// Handler applies one event's effect to the view tables. Handlers run
// inside the runner's own transaction (separate from the event
// store's) and MUST be idempotent - delivery may be replayed after a
// crash between the view write and the cursor advance.
type Handler func(ctx context.Context, tx pgx.Tx, event eventstore.Event) error

const Name = "core_views"

type Runner struct {
	pool      *pgxpool.Pool
	store     eventstore.EventStore
	handlers  map[string]Handler
	batchSize int
}

func NewRunner(pool *pgxpool.Pool, store eventstore.EventStore) *Runner {
	r := &Runner{pool: pool, store: store, handlers: map[string]Handler{}, batchSize: 200}
	r.registerProductHandlers()
	r.registerVariantHandlers()
	r.registerCollectionHandlers()
	r.registerSlugHandlers()
	r.registerScheduleHandlers()
	r.registerFulfillmentHandlers()
	r.registerCatalogueHandlers()
	return r
}

func (r *Runner) register(eventName string, h Handler) {
	if prev, ok := r.handlers[eventName]; ok {
		r.handlers[eventName] = func(ctx context.Context, tx pgx.Tx, event eventstore.Event) error {
			if err := prev(ctx, tx, event); err != nil {
				return err
			}
			return h(ctx, tx, event)
		}
		return
	}
	r.handlers[eventName] = h
}

// Run ticks forever until ctx is cancelled, advancing the cursor one
// batch at a time. Errors within a tick are logged by the caller via
// the returned error from Tick - Run itself never returns except on
// context cancellation, matching the other background workers' Run(ctx)
// shape in cmd/server/main.go.
func (r *Runner) Run(ctx context.Context, tickInterval time.Duration) error {
	ticker := time.NewTicker(tickInterval)
	defer ticker.Stop()
	for {
		select {
		case <-ctx.Done():
			return ctx.Err()
		case <-ticker.C:
			if err := r.Tick(ctx); err != nil {
				log.Printf("projection runner: tick failed: %v", err)
			}
		}
	}
}

// Tick processes up to batchSize events past the current cursor,
// committing view writes and the cursor advance in one transaction
// per event so a crash mid-batch re-processes only the unacked tail.
func (r *Runner) Tick(ctx context.Context) error {
	cursor, err := r.loadCursor(ctx)
	if err != nil {
		return err
	}

	events, err := r.store.ListSince(ctx, cursor, r.batchSize)
	if err != nil {
		return fmt.Errorf("list events since %d: %w", cursor, err)
	}
	if len(events) == 0 {
		return nil
	}

	for _, event := range events {
		if err := r.applyOne(ctx, event); err != nil {
			return fmt.Errorf("apply event %s (seq %d): %w", event.EventName, event.Sequence, err)
		}
	}

	var head int64
	if err := r.pool.QueryRow(ctx, `SELECT COALESCE(max(sequence), 0) FROM events`).Scan(&head); err == nil {
		metrics.SetProjectionCursorLag(Name, head-events[len(events)-1].Sequence)
	}
	return nil
}

func (r *Runner) applyOne(ctx context.Context, event eventstore.Event) error {
	tx, err := r.pool.Begin(ctx)
	if err != nil {
		return err
	}
	defer tx.Rollback(ctx)

	if handler, ok := r.handlers[event.EventName]; ok {
		if err := handler(ctx, tx, event); err != nil {
			return err
		}
	}

	if _, err := tx.Exec(ctx, `
		INSERT INTO projection_cursors (projection_name, cursor_sequence, updated_at)
		VALUES ($1, $2, now())
		ON CONFLICT (projection_name) DO UPDATE SET cursor_sequence = $2, updated_at = now()
	`, Name, event.Sequence); err != nil {
		return err
	}

	return tx.Commit(ctx)
}

func (r *Runner) loadCursor(ctx context.Context) (int64, error) {
	var cursor int64
	err := r.pool.QueryRow(ctx, `SELECT cursor_sequence FROM projection_cursors WHERE projection_name = $1`, Name).Scan(&cursor)
	if err == pgx.ErrNoRows {
		return 0, nil
	}
	if err != nil {
		return 0, fmt.Errorf("load cursor: %w", err)
	}
	return cursor, nil
}
