package eventstore

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/jackc/pgx/v5/pgxpool"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/trace"

	"github.com/meridian-commerce/core/internal/shared/types"
)

// PostgresStore implements EventStore and SnapshotStore against the
// relational tables named in spec.md section 6 (events, snapshots).
// Append runs the version check and insert in the same transaction
// the caller (unitofwork) opened, so the row-level lock on the
// snapshot row serializes concurrent commits for the same aggregate.
type PostgresStore struct {
	pool   *pgxpool.Pool
	tracer trace.Tracer
}

func NewPostgresStore(pool *pgxpool.Pool) *PostgresStore {
	return &PostgresStore{pool: pool, tracer: otel.Tracer("meridian-commerce/eventstore")}
}

// AppendTx appends events inside an already-open transaction, locking
// the aggregate's snapshot row first (SELECT ... FOR UPDATE) so a
// concurrent commit for the same aggregate blocks rather than races.
// An aggregate with no snapshot row yet has nothing to lock; a racing
// first append then hits the unique (aggregate_id, version) constraint
// and is reported as ErrConcurrencyConflict. The Unit of Work calls
// this, not Append, when it already holds a transaction; Append below
// wraps it in a transaction of its own.
func (s *PostgresStore) AppendTx(ctx context.Context, tx pgx.Tx, events []Event, expectedVersion int) error {
	if len(events) == 0 {
		return nil
	}

	ctx, span := s.tracer.Start(ctx, "eventstore.append",
		trace.WithAttributes(
			attribute.String("aggregate.id", events[0].AggregateID.String()),
			attribute.String("aggregate.type", events[0].AggregateType),
			attribute.Int("expected.version", expectedVersion),
			attribute.Int("event.count", len(events)),
		),
	)
	defer span.End()

	aggregateID := events[0].AggregateID

	var currentVersion int
	err := tx.QueryRow(ctx, `
		SELECT version FROM snapshots WHERE aggregate_id = $1 FOR UPDATE
	`, aggregateID.String()).Scan(&currentVersion)
	if err == pgx.ErrNoRows {
		currentVersion = 0
	} else if err != nil {
		return fmt.Errorf("lock snapshot row: %w", err)
	}

	if currentVersion != expectedVersion {
		span.SetAttributes(
			attribute.Int("actual.version", currentVersion),
			attribute.Bool("conflict.detected", true),
		)
		return ErrConcurrencyConflict
	}

	batch := &pgx.Batch{}
	for _, e := range events {
		payload, err := json.Marshal(e.Payload)
		if err != nil {
			return fmt.Errorf("marshal event payload: %w", err)
		}
		batch.Queue(`
			INSERT INTO events (aggregate_id, aggregate_type, version, event_id, event_name, payload, correlation_id, occurred_at)
			VALUES ($1, $2, $3, $4, $5, $6, $7, $8)
		`, aggregateID.String(), e.AggregateType, e.Version, e.EventID.String(), e.EventName, payload, e.CorrelationID, e.OccurredAt)
	}

	br := tx.SendBatch(ctx, batch)
	for range events {
		if _, err := br.Exec(); err != nil {
			br.Close()
			if isUniqueViolation(err) {
				span.SetAttributes(attribute.Bool("conflict.detected", true))
				return ErrConcurrencyConflict
			}
			return fmt.Errorf("insert event: %w", err)
		}
	}
	if err := br.Close(); err != nil {
		return fmt.Errorf("close batch: %w", err)
	}

	span.SetAttributes(attribute.Bool("append.success", true))
	return nil
}

// Append opens its own transaction and delegates to AppendTx. Provided
// to satisfy EventStore for callers outside a Unit of Work (tests,
// one-off backfills).
func (s *PostgresStore) Append(ctx context.Context, events []Event, expectedVersion int) error {
	tx, err := s.pool.BeginTx(ctx, pgx.TxOptions{IsoLevel: pgx.Serializable})
	if err != nil {
		return fmt.Errorf("begin transaction: %w", err)
	}
	defer tx.Rollback(ctx)

	if err := s.AppendTx(ctx, tx, events, expectedVersion); err != nil {
		return err
	}
	return tx.Commit(ctx)
}

func (s *PostgresStore) Load(ctx context.Context, aggregateID types.ID) ([]Event, error) {
	ctx, span := s.tracer.Start(ctx, "eventstore.load",
		trace.WithAttributes(attribute.String("aggregate.id", aggregateID.String())))
	defer span.End()

	rows, err := s.pool.Query(ctx, `
		SELECT aggregate_id, aggregate_type, version, event_id, event_name, payload, correlation_id, occurred_at, sequence
		FROM events WHERE aggregate_id = $1 ORDER BY version ASC
	`, aggregateID.String())
	if err != nil {
		return nil, fmt.Errorf("query events: %w", err)
	}
	defer rows.Close()

	events, err := scanEvents(rows)
	if err != nil {
		return nil, err
	}
	span.SetAttributes(attribute.Int("events.loaded", len(events)))
	return events, nil
}

func (s *PostgresStore) ListSince(ctx context.Context, sinceSequence int64, limit int) ([]Event, error) {
	ctx, span := s.tracer.Start(ctx, "eventstore.list_since",
		trace.WithAttributes(attribute.Int64("since.sequence", sinceSequence), attribute.Int("limit", limit)))
	defer span.End()

	rows, err := s.pool.Query(ctx, `
		SELECT aggregate_id, aggregate_type, version, event_id, event_name, payload, correlation_id, occurred_at, sequence
		FROM events WHERE sequence > $1 ORDER BY sequence ASC LIMIT $2
	`, sinceSequence, limit)
	if err != nil {
		return nil, fmt.Errorf("query events since: %w", err)
	}
	defer rows.Close()

	events, err := scanEvents(rows)
	if err != nil {
		return nil, err
	}
	span.SetAttributes(attribute.Int("events.loaded", len(events)))
	return events, nil
}

func (s *PostgresStore) CurrentVersion(ctx context.Context, aggregateID types.ID) (int, error) {
	var version int
	err := s.pool.QueryRow(ctx, `SELECT version FROM snapshots WHERE aggregate_id = $1`, aggregateID.String()).Scan(&version)
	if err == pgx.ErrNoRows {
		return 0, nil
	}
	if err != nil {
		return 0, fmt.Errorf("query version: %w", err)
	}
	return version, nil
}

func scanEvents(rows pgx.Rows) ([]Event, error) {
	var events []Event
	for rows.Next() {
		var e Event
		var aggID, eventID string
		var payloadRaw []byte
		if err := rows.Scan(&aggID, &e.AggregateType, &e.Version, &eventID, &e.EventName, &payloadRaw, &e.CorrelationID, &e.OccurredAt, &e.Sequence); err != nil {
			return nil, fmt.Errorf("scan event: %w", err)
		}
		e.AggregateID = types.ID(aggID)
		e.EventID = types.ID(eventID)
		if err := json.Unmarshal(payloadRaw, &e.Payload); err != nil {
			return nil, fmt.Errorf("unmarshal payload: %w", err)
		}
		events = append(events, e)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate events: %w", err)
	}
	return events, nil
}

// SaveTx upserts the one-row-per-aggregate snapshot inside the
// caller's transaction.
func (s *PostgresStore) SaveTx(ctx context.Context, tx pgx.Tx, snap Snapshot) error {
	payload, err := json.Marshal(snap.Payload)
	if err != nil {
		return fmt.Errorf("marshal snapshot payload: %w", err)
	}
	_, err = tx.Exec(ctx, `
		INSERT INTO snapshots (aggregate_id, aggregate_type, version, payload, correlation_id, updated_at)
		VALUES ($1, $2, $3, $4, $5, $6)
		ON CONFLICT (aggregate_id) DO UPDATE SET
			version = EXCLUDED.version,
			payload = EXCLUDED.payload,
			correlation_id = EXCLUDED.correlation_id,
			updated_at = EXCLUDED.updated_at
	`, snap.AggregateID.String(), snap.AggregateType, snap.Version, payload, snap.CorrelationID, snap.UpdatedAt)
	if err != nil {
		return fmt.Errorf("save snapshot: %w", err)
	}
	return nil
}

func (s *PostgresStore) Save(ctx context.Context, snap Snapshot) error {
	tx, err := s.pool.Begin(ctx)
	if err != nil {
		return fmt.Errorf("begin transaction: %w", err)
	}
	defer tx.Rollback(ctx)
	if err := s.SaveTx(ctx, tx, snap); err != nil {
		return err
	}
	return tx.Commit(ctx)
}

// LoadSnapshot retrieves the latest snapshot for an aggregate, or nil
// if none exists yet.
func (s *PostgresStore) LoadSnapshot(ctx context.Context, aggregateID types.ID) (*Snapshot, error) {
	var snap Snapshot
	var aggID string
	var payloadRaw []byte
	err := s.pool.QueryRow(ctx, `
		SELECT aggregate_id, aggregate_type, version, payload, correlation_id, updated_at
		FROM snapshots WHERE aggregate_id = $1
	`, aggregateID.String()).Scan(&aggID, &snap.AggregateType, &snap.Version, &payloadRaw, &snap.CorrelationID, &snap.UpdatedAt)
	if err == pgx.ErrNoRows {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("load snapshot: %w", err)
	}
	snap.AggregateID = types.ID(aggID)
	if err := json.Unmarshal(payloadRaw, &snap.Payload); err != nil {
		return nil, fmt.Errorf("unmarshal snapshot payload: %w", err)
	}
	return &snap, nil
}

func (s *PostgresStore) Exists(ctx context.Context, aggregateID types.ID) (bool, error) {
	var exists bool
	err := s.pool.QueryRow(ctx, `SELECT EXISTS(SELECT 1 FROM snapshots WHERE aggregate_id = $1)`, aggregateID.String()).Scan(&exists)
	if err != nil {
		return false, fmt.Errorf("check snapshot existence: %w", err)
	}
	return exists, nil
}

func isUniqueViolation(err error) bool {
	var pgErr *pgconn.PgError
	if errors.As(err, &pgErr) {
		return pgErr.Code == "23505"
	}
	return false
}
