package audit

import (
	"context"
	"fmt"

	"github.com/meridian-commerce/core/internal/eventstore"
)

// Subscriber appends every event the outbox publisher delivers to the
// hash-chained mutation log, so aggregate history is reconstructable and
// tamper-evident independent of the event store itself.
type Subscriber struct {
	repo AuditRepository
}

// NewSubscriber wires a Subscriber to repo. repo.Initialize must be called
// before the first Handle call so the chain continues from its last hash.
func NewSubscriber(repo AuditRepository) *Subscriber {
	return &Subscriber{repo: repo}
}

// Handle converts an event into an audit entry and appends it. Events are
// raised purely from aggregate mutation (no caller identity travels with
// them yet), so every entry is attributed to the system actor.
func (s *Subscriber) Handle(ctx context.Context, event eventstore.Event) error {
	resourceID := event.AggregateID
	entry := NewAuditEntry(
		ActorTypeSystem,
		"",
		event.EventName,
		event.AggregateType,
		&resourceID,
		event.Payload.NewState,
	)
	entry.CorrelationID = event.CorrelationID

	if err := s.repo.Append(ctx, entry); err != nil {
		return fmt.Errorf("append audit entry for %s: %w", event.EventName, err)
	}
	return nil
}
