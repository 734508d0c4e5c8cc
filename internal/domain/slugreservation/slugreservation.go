// Package slugreservation implements SlugReservation (spec.md section
// 3): the slug string itself is the aggregate id, which is what makes
// global slug uniqueness a version-check problem instead of a
// separate unique-index lookup. Grounded on the teacher's use of a
// natural business key as primary key for lock rows in
// postgres.go's advisory-lock helpers, generalized to a full
// aggregate here.
package slugreservation

import (
	"fmt"

	"github.com/meridian-commerce/core/internal/eventstore"
	apperrors "github.com/meridian-commerce/core/internal/shared/errors"
	"github.com/meridian-commerce/core/internal/shared/types"
)

const AggregateType = "slugReservation"

type Status string

const (
	StatusActive   Status = "active"
	StatusReleased Status = "released"
)

type State struct {
	EntityID   types.ID `json:"entityId"`
	EntityType string   `json:"entityType"`
	Status     Status   `json:"status"`
	ForwardsTo string   `json:"forwardsTo,omitempty"`
}

type SlugReservation struct {
	*eventstore.BaseAggregate
	State
}

func (s *SlugReservation) ToSnapshot() map[string]any { return eventstore.ToPayloadMap(s.State) }

func Hydrate(snap eventstore.Snapshot) (*SlugReservation, error) {
	var state State
	if err := eventstore.FromPayloadMap(snap.Payload, &state); err != nil {
		return nil, err
	}
	return &SlugReservation{
		BaseAggregate: eventstore.LoadBaseAggregate(snap.AggregateID, AggregateType, snap.Version, snap.CorrelationID),
		State:         state,
	}, nil
}

// Reserve creates a new reservation keyed on slug itself. The Unit of
// Work's Absent expectedVersion check against this aggregate id IS the
// global slug uniqueness guarantee: two commands racing to reserve the
// same slug cannot both succeed, because only one can observe
// "absent".
func Reserve(slug types.ID, entityID types.ID, entityType string, correlationID string) (*SlugReservation, error) {
	if slug.IsZero() {
		return nil, apperrors.Validation("slug is required", nil)
	}
	if entityID.IsZero() {
		return nil, apperrors.Validation("entityId is required", nil)
	}
	if entityType == "" {
		return nil, apperrors.Validation("entityType is required", nil)
	}
	r := &SlugReservation{
		BaseAggregate: eventstore.NewBaseAggregate(slug, AggregateType, correlationID),
		State:         State{EntityID: entityID, EntityType: entityType, Status: StatusActive},
	}
	r.RaiseEvent("reserved", map[string]any{}, eventstore.ToPayloadMap(r.State))
	return r, nil
}

// Release frees the slug by marking the reservation released;
// releasing an already released reservation is a validation error.
// The aggregate itself stays: a later claim of the same slug string
// reuses this aggregate through Reactivate, since its id is the slug.
func (r *SlugReservation) Release() error {
	if r.Status == StatusReleased {
		return apperrors.Validation("slug reservation is already released", nil)
	}
	prior := map[string]any{"status": r.Status}
	r.Status = StatusReleased
	r.RaiseEvent("released", prior, map[string]any{"status": r.Status, "entityId": r.EntityID})
	return nil
}

// Reactivate reuses a released reservation's aggregate identity for a
// fresh claim on the same slug string, rather than creating a second
// aggregate with the same id (which the store forbids). Per DESIGN.md's
// Open Question 3 decision, entityType need not match the original
// claim.
func (r *SlugReservation) Reactivate(entityID types.ID, entityType string) error {
	if r.Status != StatusReleased {
		return apperrors.ConstraintViolated(fmt.Sprintf("slug %q is already in use", r.AggregateID()))
	}
	if entityID.IsZero() {
		return apperrors.Validation("entityId is required", nil)
	}
	if entityType == "" {
		return apperrors.Validation("entityType is required", nil)
	}
	prior := map[string]any{"status": r.Status, "entityId": r.EntityID, "entityType": r.EntityType, "forwardsTo": r.ForwardsTo}
	r.Status = StatusActive
	r.EntityID = entityID
	r.EntityType = entityType
	r.ForwardsTo = ""
	r.RaiseEvent("reactivated", prior, map[string]any{"status": r.Status, "entityId": r.EntityID, "entityType": r.EntityType, "forwardsTo": r.ForwardsTo})
	return nil
}

// RedirectTo marks a released slug as forwarding to another active
// slug, used when a product's canonical slug changes and the old one
// should 301 rather than 404.
func (r *SlugReservation) RedirectTo(targetSlug string) error {
	if r.Status != StatusReleased {
		return apperrors.Validation("only a released slug can be set to forward", nil)
	}
	prior := map[string]any{"forwardsTo": r.ForwardsTo}
	r.ForwardsTo = targetSlug
	r.RaiseEvent("redirect_set", prior, map[string]any{"forwardsTo": r.ForwardsTo, "entityId": r.EntityID})
	return nil
}
