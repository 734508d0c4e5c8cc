// Package publisher is the outbox publisher (component J): a
// background worker that drains the outbox table and hands each
// event to every registered downstream subscriber. Grounded on the
// teacher's internal/shared/events/bus.go ack/nack retry loop
// (handler error -> Nack for retry, success -> Ack), adapted from a
// KurrentDB persistent subscription to draining a relational outbox
// table. A circuit breaker wraps the subscriber fan-out so a
// downstream outage trips open instead of hot-looping retries against
// a dead consumer.
package publisher

import (
	"context"
	"fmt"
	"log"
	"time"

	"github.com/sony/gobreaker"
	"golang.org/x/time/rate"

	"github.com/meridian-commerce/core/internal/eventstore"
	"github.com/meridian-commerce/core/internal/outbox"
	"github.com/meridian-commerce/core/internal/shared/metrics"
)

// Subscriber receives every event the outbox publisher delivers. It
// must be idempotent - a crash between a subscriber call and the
// outbox Ack replays the same event to every subscriber again.
type Subscriber interface {
	Handle(ctx context.Context, event eventstore.Event) error
}

// LoggingSubscriber is the publisher's default subscriber when no
// external consumer is wired - it exists so the outbox always has at
// least one subscriber to report delivery against.
type LoggingSubscriber struct{}

func (LoggingSubscriber) Handle(ctx context.Context, event eventstore.Event) error {
	log.Printf("outbox publisher: delivered %s (aggregate %s, seq %d)", event.EventName, event.AggregateID, event.Sequence)
	return nil
}

// drainRate self-throttles how fast one tick works through a claimed
// batch, so a large backlog doesn't spike downstream subscriber load.
const drainRate = 50

type Publisher struct {
	store       outbox.Store
	subscribers []Subscriber
	breaker     *gobreaker.CircuitBreaker
	limiter     *rate.Limiter
	batchSize   int
}

func New(store outbox.Store, subscribers ...Subscriber) *Publisher {
	if len(subscribers) == 0 {
		subscribers = []Subscriber{LoggingSubscriber{}}
	}
	breaker := gobreaker.NewCircuitBreaker(gobreaker.Settings{
		Name:        "outbox-publisher",
		MaxRequests: 1,
		Timeout:     30 * time.Second,
		ReadyToTrip: func(counts gobreaker.Counts) bool {
			return counts.ConsecutiveFailures >= 5
		},
	})
	return &Publisher{
		store:       store,
		subscribers: subscribers,
		breaker:     breaker,
		limiter:     rate.NewLimiter(rate.Limit(drainRate), drainRate),
		batchSize:   100,
	}
}

// Run ticks forever until ctx is cancelled, matching the runner's and
// scheduler's Run(ctx) shape.
func (p *Publisher) Run(ctx context.Context, tickInterval time.Duration) error {
	ticker := time.NewTicker(tickInterval)
	defer ticker.Stop()
	for {
		select {
		case <-ctx.Done():
			return ctx.Err()
		case <-ticker.C:
			if err := p.Tick(ctx); err != nil {
				log.Printf("publisher: tick failed: %v", err)
			}
		}
	}
}

// Tick claims a batch of pending outbox entries and delivers each to
// every subscriber, acking on success and nacking (with backoff) on
// failure. Reports outbox depth after the pass so metrics reflect
// whether the publisher is keeping up.
func (p *Publisher) Tick(ctx context.Context) error {
	entries, err := p.store.ClaimBatch(ctx, p.batchSize)
	if err != nil {
		return fmt.Errorf("claim outbox batch: %w", err)
	}

	for _, entry := range entries {
		if err := p.limiter.Wait(ctx); err != nil {
			return err
		}
		p.deliver(ctx, entry)
	}

	pending, err := p.store.CountPending(ctx)
	if err != nil {
		return fmt.Errorf("count pending outbox entries: %w", err)
	}
	metrics.SetOutboxLag(pending)
	return nil
}

func (p *Publisher) deliver(ctx context.Context, entry outbox.Entry) {
	_, err := p.breaker.Execute(func() (interface{}, error) {
		return nil, p.fanOut(ctx, entry.Payload)
	})
	if err != nil {
		metrics.RecordOutboxDelivery("failure")
		if nackErr := p.store.Nack(ctx, entry.ID, entry.Attempts+1); nackErr != nil {
			log.Printf("publisher: nack entry %d failed: %v", entry.ID, nackErr)
		}
		return
	}
	metrics.RecordOutboxDelivery("success")
	if ackErr := p.store.Ack(ctx, entry.ID); ackErr != nil {
		log.Printf("publisher: ack entry %d failed: %v", entry.ID, ackErr)
	}
}

func (p *Publisher) fanOut(ctx context.Context, event eventstore.Event) error {
	for _, sub := range p.subscribers {
		if err := sub.Handle(ctx, event); err != nil {
			return err
		}
	}
	return nil
}
