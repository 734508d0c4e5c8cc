// Package eventstore is the append-only event/snapshot log (component
// A) and the aggregate framework all domain aggregates embed
// (component C). Events carry explicit priorState/newState deltas
// rather than full payloads, so projections can apply patches without
// re-reading (spec's deliberate asymmetry between genesis and mutation
// events).
package eventstore

import (
	"context"
	"errors"
	"time"

	"github.com/segmentio/ksuid"

	"github.com/meridian-commerce/core/internal/shared/types"
)

// Common errors
var (
	ErrConcurrencyConflict = errors.New("concurrency conflict: aggregate version mismatch")
	ErrAggregateNotFound   = errors.New("aggregate not found")
	ErrInvalidEvent        = errors.New("invalid event data")
)

// Payload is the structured record every event carries: the mutated
// fields before and after the change. Genesis events carry an empty
// PriorState and a full NewState.
type Payload struct {
	PriorState map[string]any `json:"priorState"`
	NewState   map[string]any `json:"newState"`
}

// Event is an immutable record of a past change to a single
// aggregate, ordered by Version within that aggregate and by Sequence
// globally.
type Event struct {
	EventID       types.ID  `json:"event_id"`
	AggregateID   types.ID  `json:"aggregate_id"`
	AggregateType string    `json:"aggregate_type"`
	EventName     string    `json:"event_name"`
	Version       int       `json:"version"`
	CorrelationID string    `json:"correlation_id"`
	Payload       Payload   `json:"payload"`
	OccurredAt    time.Time `json:"occurred_at"`
	Sequence      int64     `json:"sequence"`
}

// NewEvent creates an event with a fresh sortable id. eventID uses
// ksuid rather than a random uuid so ids already sort by creation
// time, matching the "monotonically unique event_id" requirement.
func NewEvent(aggregateID types.ID, aggregateType, eventName string, version int, correlationID string, payload Payload) Event {
	return Event{
		EventID:       types.ID(ksuid.New().String()),
		AggregateID:   aggregateID,
		AggregateType: aggregateType,
		EventName:     eventName,
		Version:       version,
		CorrelationID: correlationID,
		Payload:       payload,
		OccurredAt:    time.Now().UTC(),
	}
}

// Snapshot is the current fully-materialized state of an aggregate,
// rewritten on every commit. Exactly one row exists per aggregate id.
type Snapshot struct {
	AggregateID   types.ID       `json:"aggregate_id"`
	AggregateType string         `json:"aggregate_type"`
	Version       int            `json:"version"`
	Payload       map[string]any `json:"payload"`
	CorrelationID string         `json:"correlation_id"`
	UpdatedAt     time.Time      `json:"updated_at"`
}

// EventStore is the append-only log contract (component A).
type EventStore interface {
	// Append stores new events for an aggregate conditional on the
	// aggregate's current snapshot version equaling expectedVersion.
	// Append and the snapshot write happen in the same transaction as
	// the caller's Unit of Work; this method alone does not write
	// snapshots - see unitofwork.
	Append(ctx context.Context, events []Event, expectedVersion int) error

	// Load retrieves all events for an aggregate in version order.
	Load(ctx context.Context, aggregateID types.ID) ([]Event, error)

	// ListSince retrieves events in global commit-sequence order,
	// strictly after the given sequence, bounded by limit. Used by the
	// projection runner (component F).
	ListSince(ctx context.Context, sinceSequence int64, limit int) ([]Event, error)

	// CurrentVersion returns the current version of an aggregate (0 if
	// it does not exist), i.e. the version the next event will receive.
	CurrentVersion(ctx context.Context, aggregateID types.ID) (int, error)
}

// SnapshotStore manages the one-row-per-aggregate latest state table.
type SnapshotStore interface {
	Save(ctx context.Context, snapshot Snapshot) error
	LoadSnapshot(ctx context.Context, aggregateID types.ID) (*Snapshot, error)
	Exists(ctx context.Context, aggregateID types.ID) (bool, error)
}

// AggregateRoot is the interface every domain aggregate implements so
// the Unit of Work can commit it generically.
type AggregateRoot interface {
	AggregateID() types.ID
	AggregateType() string
	// Version is the version the next event this aggregate raises will
	// receive - equivalently, the number of events already committed.
	Version() int
	GetUncommittedEvents() []Event
	ClearUncommittedEvents()
	// ToSnapshot returns the full current state for persistence.
	ToSnapshot() map[string]any
}

// BaseAggregate provides the version tracking and uncommitted-event
// buffer every aggregate embeds; domain methods call RaiseEvent to
// record a mutation.
type BaseAggregate struct {
	id                types.ID
	aggregateType     string
	version           int
	correlationID     string
	uncommittedEvents []Event
}

// NewBaseAggregate starts a brand new aggregate at version 0 with the
// given id (the id is chosen by the caller - genesis services
// generate it, SlugReservation uses the slug string itself).
func NewBaseAggregate(id types.ID, aggregateType, correlationID string) *BaseAggregate {
	return &BaseAggregate{
		id:            id,
		aggregateType: aggregateType,
		correlationID: correlationID,
	}
}

// LoadBaseAggregate reconstructs the accumulator half of an aggregate
// from a loaded snapshot row - the version the next event will get.
func LoadBaseAggregate(id types.ID, aggregateType string, version int, correlationID string) *BaseAggregate {
	return &BaseAggregate{
		id:            id,
		aggregateType: aggregateType,
		version:       version,
		correlationID: correlationID,
	}
}

func (a *BaseAggregate) AggregateID() types.ID { return a.id }
func (a *BaseAggregate) AggregateType() string { return a.aggregateType }
func (a *BaseAggregate) Version() int          { return a.version }
func (a *BaseAggregate) CorrelationID() string { return a.correlationID }

func (a *BaseAggregate) GetUncommittedEvents() []Event {
	return a.uncommittedEvents
}

func (a *BaseAggregate) ClearUncommittedEvents() {
	a.version += len(a.uncommittedEvents)
	a.uncommittedEvents = nil
}

// RaiseEvent derives the event name as <lowerCamel(aggregate)>.<snake
// case(verb)>, assigns the next version in this in-memory session, and
// appends it to the uncommitted buffer.
func (a *BaseAggregate) RaiseEvent(verb string, prior, newState map[string]any) Event {
	version := a.version + len(a.uncommittedEvents)
	name := EventName(a.aggregateType, verb)
	event := NewEvent(a.id, a.aggregateType, name, version, a.correlationID, Payload{
		PriorState: prior,
		NewState:   newState,
	})
	a.uncommittedEvents = append(a.uncommittedEvents, event)
	return event
}

// EventName derives <lowerCamel(aggregate)>.<snake_case(verb)>.
func EventName(aggregateType, verb string) string {
	return lowerCamel(aggregateType) + "." + snakeCase(verb)
}

// RaiseNamedEvent is RaiseEvent with an explicit event name instead of
// one derived from this aggregate's own AggregateType - for the rare
// transition whose event belongs to a specialization's name (e.g. a
// DropshipProduct-only transition raised through the shared Product
// aggregate) rather than the aggregate's own type.
func (a *BaseAggregate) RaiseNamedEvent(name string, prior, newState map[string]any) Event {
	version := a.version + len(a.uncommittedEvents)
	event := NewEvent(a.id, a.aggregateType, name, version, a.correlationID, Payload{
		PriorState: prior,
		NewState:   newState,
	})
	a.uncommittedEvents = append(a.uncommittedEvents, event)
	return event
}

func lowerCamel(s string) string {
	if s == "" {
		return s
	}
	b := []byte(s)
	if b[0] >= 'A' && b[0] <= 'Z' {
		b[0] += 'a' - 'A'
	}
	return string(b)
}

func snakeCase(s string) string {
	out := make([]byte, 0, len(s)+4)
	for i := 0; i < len(s); i++ {
		c := s[i]
		if c >= 'A' && c <= 'Z' {
			if i > 0 {
				out = append(out, '_')
			}
			out = append(out, c+'a'-'A')
		} else {
			out = append(out, c)
		}
	}
	return string(out)
}
