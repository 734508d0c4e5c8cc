package publisher

import (
	"context"
	"errors"
	"testing"

	"github.com/jackc/pgx/v5"

	"github.com/meridian-commerce/core/internal/eventstore"
	"github.com/meridian-commerce/core/internal/outbox"
)

// fakeStore is an in-memory outbox.Store, grounded on the teacher's
// mockRepository pattern (federation/gateway/gateway_test.go).
type fakeStore struct {
	entries []outbox.Entry
	acked   []int64
	nacked  map[int64]int
}

func newFakeStore(entries ...outbox.Entry) *fakeStore {
	return &fakeStore{entries: entries, nacked: make(map[int64]int)}
}

func (s *fakeStore) EnqueueTx(ctx context.Context, tx pgx.Tx, events []eventstore.Event) error {
	return nil
}

func (s *fakeStore) ClaimBatch(ctx context.Context, n int) ([]outbox.Entry, error) {
	if n < len(s.entries) {
		claimed := s.entries[:n]
		s.entries = s.entries[n:]
		return claimed, nil
	}
	claimed := s.entries
	s.entries = nil
	return claimed, nil
}

func (s *fakeStore) Ack(ctx context.Context, id int64) error {
	s.acked = append(s.acked, id)
	return nil
}

func (s *fakeStore) Nack(ctx context.Context, id int64, attempts int) error {
	s.nacked[id] = attempts
	return nil
}

func (s *fakeStore) CountPending(ctx context.Context) (int, error) {
	return len(s.entries), nil
}

type recordingSubscriber struct {
	handled []eventstore.Event
	failNext bool
}

func (r *recordingSubscriber) Handle(ctx context.Context, event eventstore.Event) error {
	if r.failNext {
		return errors.New("subscriber failure")
	}
	r.handled = append(r.handled, event)
	return nil
}

func TestTickDeliversAndAcksOnSuccess(t *testing.T) {
	entry := outbox.Entry{ID: 1, Attempts: 0, Payload: eventstore.Event{EventName: "product.created"}}
	store := newFakeStore(entry)
	sub := &recordingSubscriber{}
	p := New(store, sub)

	if err := p.Tick(context.Background()); err != nil {
		t.Fatalf("expected no error, got %v", err)
	}

	if len(sub.handled) != 1 {
		t.Fatalf("expected subscriber to handle 1 event, got %d", len(sub.handled))
	}
	if len(store.acked) != 1 || store.acked[0] != 1 {
		t.Errorf("expected entry 1 to be acked, got %v", store.acked)
	}
	if len(store.nacked) != 0 {
		t.Errorf("expected no nacks, got %v", store.nacked)
	}
}

func TestTickNacksOnSubscriberFailure(t *testing.T) {
	entry := outbox.Entry{ID: 2, Attempts: 1, Payload: eventstore.Event{EventName: "variant.created"}}
	store := newFakeStore(entry)
	sub := &recordingSubscriber{failNext: true}
	p := New(store, sub)

	if err := p.Tick(context.Background()); err != nil {
		t.Fatalf("expected no error, got %v", err)
	}

	if len(store.acked) != 0 {
		t.Errorf("expected no acks on failure, got %v", store.acked)
	}
	if attempts, ok := store.nacked[2]; !ok || attempts != 2 {
		t.Errorf("expected entry 2 nacked with attempts=2, got %v", store.nacked)
	}
}

func TestFanOutCallsEverySubscriber(t *testing.T) {
	entry := outbox.Entry{ID: 3, Payload: eventstore.Event{EventName: "collection.published"}}
	store := newFakeStore(entry)
	subA := &recordingSubscriber{}
	subB := &recordingSubscriber{}
	p := New(store, subA, subB)

	if err := p.Tick(context.Background()); err != nil {
		t.Fatalf("expected no error, got %v", err)
	}
	if len(subA.handled) != 1 || len(subB.handled) != 1 {
		t.Error("expected both subscribers to receive the event")
	}
}

func TestNewDefaultsToLoggingSubscriberWhenNoneProvided(t *testing.T) {
	store := newFakeStore()
	p := New(store)
	if len(p.subscribers) != 1 {
		t.Fatalf("expected exactly 1 default subscriber, got %d", len(p.subscribers))
	}
	if _, ok := p.subscribers[0].(LoggingSubscriber); !ok {
		t.Errorf("expected default subscriber to be LoggingSubscriber, got %T", p.subscribers[0])
	}
}
