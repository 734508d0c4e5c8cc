// Package fulfillment implements the Fulfillment aggregate (spec.md
// section 3): tracks shipment of a single order's line items,
// independent of the order itself, which lives in another bounded
// context this module does not own.
package fulfillment

import (
	"time"

	"github.com/meridian-commerce/core/internal/eventstore"
	apperrors "github.com/meridian-commerce/core/internal/shared/errors"
	"github.com/meridian-commerce/core/internal/shared/types"
)

const AggregateType = "fulfillment"

type Status string

const (
	StatusPending   Status = "pending"
	StatusShipped   Status = "shipped"
	StatusDelivered Status = "delivered"
	StatusCancelled Status = "cancelled"
)

type LineItem struct {
	VariantID types.ID `json:"variantId"`
	Quantity  int      `json:"quantity"`
}

type State struct {
	OrderID        types.ID   `json:"orderId"`
	Items          []LineItem `json:"items"`
	Status         Status     `json:"status"`
	TrackingNumber string     `json:"trackingNumber,omitempty"`
	Carrier        string     `json:"carrier,omitempty"`
	ShippedAt      *time.Time `json:"shippedAt,omitempty"`
	DeliveredAt    *time.Time `json:"deliveredAt,omitempty"`
}

type Fulfillment struct {
	*eventstore.BaseAggregate
	State
}

func (f *Fulfillment) ToSnapshot() map[string]any { return eventstore.ToPayloadMap(f.State) }

func Hydrate(snap eventstore.Snapshot) (*Fulfillment, error) {
	var state State
	if err := eventstore.FromPayloadMap(snap.Payload, &state); err != nil {
		return nil, err
	}
	return &Fulfillment{
		BaseAggregate: eventstore.LoadBaseAggregate(snap.AggregateID, AggregateType, snap.Version, snap.CorrelationID),
		State:         state,
	}, nil
}

type CreateParams struct {
	ID            types.ID
	OrderID       types.ID
	Items         []LineItem
	CorrelationID string
}

func Create(p CreateParams) (*Fulfillment, error) {
	if p.OrderID.IsZero() {
		return nil, apperrors.Validation("orderId is required", nil)
	}
	if len(p.Items) == 0 {
		return nil, apperrors.Validation("at least one line item is required", nil)
	}
	for _, item := range p.Items {
		if item.VariantID.IsZero() {
			return nil, apperrors.Validation("line item variantId is required", nil)
		}
		if item.Quantity <= 0 {
			return nil, apperrors.Validation("line item quantity must be positive", nil)
		}
	}

	f := &Fulfillment{
		BaseAggregate: eventstore.NewBaseAggregate(p.ID, AggregateType, p.CorrelationID),
		State: State{
			OrderID: p.OrderID,
			Items:   p.Items,
			Status:  StatusPending,
		},
	}
	f.RaiseEvent("created", map[string]any{}, eventstore.ToPayloadMap(f.State))
	return f, nil
}

func (f *Fulfillment) Ship(trackingNumber, carrier string) error {
	if f.Status != StatusPending {
		return apperrors.Validation("only a pending fulfillment can ship", map[string]string{"status": string(f.Status)})
	}
	if trackingNumber == "" {
		return apperrors.Validation("trackingNumber is required", nil)
	}
	prior := map[string]any{"status": f.Status, "trackingNumber": f.TrackingNumber, "carrier": f.Carrier, "shippedAt": f.ShippedAt}
	now := time.Now().UTC()
	f.Status = StatusShipped
	f.TrackingNumber = trackingNumber
	f.Carrier = carrier
	f.ShippedAt = &now
	f.RaiseEvent("shipped", prior, map[string]any{"status": f.Status, "trackingNumber": f.TrackingNumber, "carrier": f.Carrier, "shippedAt": f.ShippedAt})
	return nil
}

func (f *Fulfillment) Deliver() error {
	if f.Status != StatusShipped {
		return apperrors.Validation("only a shipped fulfillment can be marked delivered", map[string]string{"status": string(f.Status)})
	}
	prior := map[string]any{"status": f.Status, "deliveredAt": f.DeliveredAt}
	now := time.Now().UTC()
	f.Status = StatusDelivered
	f.DeliveredAt = &now
	f.RaiseEvent("delivered", prior, map[string]any{"status": f.Status, "deliveredAt": f.DeliveredAt})
	return nil
}

func (f *Fulfillment) Cancel() error {
	if f.Status == StatusDelivered || f.Status == StatusCancelled {
		return apperrors.Validation("fulfillment is already terminal", map[string]string{"status": string(f.Status)})
	}
	prior := map[string]any{"status": f.Status}
	f.Status = StatusCancelled
	f.RaiseEvent("cancelled", prior, map[string]any{"status": f.Status})
	return nil
}
