// Package outbox is the at-least-once publication queue (component
// B). Rows are written in the same transaction as the events they
// carry; a separate publisher (internal/publisher) drains them later.
// Grounded on the dbQuerier-over-tx pattern from the pack's
// order-service outbox repository, generalized to pgx.
package outbox

import (
	"context"
	"encoding/json"
	"fmt"
	"math"
	"time"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/meridian-commerce/core/internal/eventstore"
)

type Status string

const (
	StatusPending   Status = "pending"
	StatusDelivered Status = "delivered"
	StatusFailed    Status = "failed"
)

// Entry is a single outbox row.
type Entry struct {
	ID            int64
	EventID       string
	Payload       eventstore.Event
	Status        Status
	Attempts      int
	NextAttemptAt time.Time
	CreatedAt     time.Time
}

// Store is the outbox contract. EnqueueTx is called inside the Unit
// of Work's commit transaction; ClaimBatch/Ack/Nack are called by the
// publisher outside any aggregate transaction.
type Store interface {
	EnqueueTx(ctx context.Context, tx pgx.Tx, events []eventstore.Event) error
	ClaimBatch(ctx context.Context, n int) ([]Entry, error)
	Ack(ctx context.Context, id int64) error
	Nack(ctx context.Context, id int64, attempts int) error
	CountPending(ctx context.Context) (int, error)
}

type PostgresStore struct {
	pool *pgxpool.Pool
}

func NewPostgresStore(pool *pgxpool.Pool) *PostgresStore {
	return &PostgresStore{pool: pool}
}

// EnqueueTx inserts one outbox row per event, inside the caller's
// transaction, so a rollback of the aggregate commit also rolls back
// the enqueue.
func (s *PostgresStore) EnqueueTx(ctx context.Context, tx pgx.Tx, events []eventstore.Event) error {
	if len(events) == 0 {
		return nil
	}
	batch := &pgx.Batch{}
	for _, e := range events {
		payload, err := json.Marshal(e)
		if err != nil {
			return fmt.Errorf("marshal outbox payload: %w", err)
		}
		batch.Queue(`
			INSERT INTO outbox (event_id, payload, status, attempts, next_attempt_at, created_at)
			VALUES ($1, $2, $3, 0, now(), now())
		`, e.EventID.String(), payload, StatusPending)
	}
	br := tx.SendBatch(ctx, batch)
	defer br.Close()
	for range events {
		if _, err := br.Exec(); err != nil {
			return fmt.Errorf("enqueue outbox row: %w", err)
		}
	}
	return nil
}

// ClaimBatch returns pending entries due for delivery (next_attempt_at
// <= now) that hold no unexpired lease, and leases them for 30s by
// setting leased_until so a second publisher instance does not
// double-claim. The claim leaves next_attempt_at alone; Ack and Nack
// clear the lease, and a crashed publisher's claims become claimable
// again once leased_until passes.
func (s *PostgresStore) ClaimBatch(ctx context.Context, n int) ([]Entry, error) {
	tx, err := s.pool.Begin(ctx)
	if err != nil {
		return nil, fmt.Errorf("begin claim transaction: %w", err)
	}
	defer tx.Rollback(ctx)

	rows, err := tx.Query(ctx, `
		SELECT id, event_id, payload, status, attempts, next_attempt_at, created_at
		FROM outbox
		WHERE status = $1 AND next_attempt_at <= now() AND (leased_until IS NULL OR leased_until <= now())
		ORDER BY id ASC
		LIMIT $2
		FOR UPDATE SKIP LOCKED
	`, StatusPending, n)
	if err != nil {
		return nil, fmt.Errorf("query claimable entries: %w", err)
	}

	var entries []Entry
	var ids []int64
	for rows.Next() {
		var e Entry
		var payloadRaw []byte
		if err := rows.Scan(&e.ID, &e.EventID, &payloadRaw, &e.Status, &e.Attempts, &e.NextAttemptAt, &e.CreatedAt); err != nil {
			rows.Close()
			return nil, fmt.Errorf("scan outbox entry: %w", err)
		}
		if err := json.Unmarshal(payloadRaw, &e.Payload); err != nil {
			rows.Close()
			return nil, fmt.Errorf("unmarshal outbox payload: %w", err)
		}
		entries = append(entries, e)
		ids = append(ids, e.ID)
	}
	rows.Close()
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate outbox entries: %w", err)
	}

	if len(ids) > 0 {
		if _, err := tx.Exec(ctx, `UPDATE outbox SET leased_until = now() + interval '30 seconds' WHERE id = ANY($1)`, ids); err != nil {
			return nil, fmt.Errorf("lease outbox entries: %w", err)
		}
	}

	if err := tx.Commit(ctx); err != nil {
		return nil, fmt.Errorf("commit claim: %w", err)
	}
	return entries, nil
}

// Ack marks an entry delivered, removing it from future claims.
func (s *PostgresStore) Ack(ctx context.Context, id int64) error {
	_, err := s.pool.Exec(ctx, `UPDATE outbox SET status = $1, leased_until = NULL WHERE id = $2`, StatusDelivered, id)
	if err != nil {
		return fmt.Errorf("ack outbox entry: %w", err)
	}
	return nil
}

// Nack records the caller's attempt count, returns the entry to
// pending and schedules the next attempt after Backoff(attempts).
// It never marks an entry failed: an entry keeps being retried until
// it is acked, at most every five minutes once the backoff is capped.
func (s *PostgresStore) Nack(ctx context.Context, id int64, attempts int) error {
	delay := Backoff(attempts)
	_, err := s.pool.Exec(ctx, `
		UPDATE outbox SET status = $1, attempts = $2, next_attempt_at = now() + $3, leased_until = NULL WHERE id = $4
	`, StatusPending, attempts, delay, id)
	if err != nil {
		return fmt.Errorf("nack outbox entry: %w", err)
	}
	return nil
}

func (s *PostgresStore) CountPending(ctx context.Context) (int, error) {
	var n int
	err := s.pool.QueryRow(ctx, `SELECT count(*) FROM outbox WHERE status = $1`, StatusPending).Scan(&n)
	if err != nil {
		return 0, fmt.Errorf("count pending outbox entries: %w", err)
	}
	return n, nil
}

// Backoff computes exponential backoff with a 5 minute ceiling:
// min(2s * 2^attempts, 5m).
func Backoff(attempts int) time.Duration {
	const base = 2 * time.Second
	const max = 5 * time.Minute
	d := base * time.Duration(math.Pow(2, float64(attempts)))
	if d > max || d <= 0 {
		return max
	}
	return d
}
