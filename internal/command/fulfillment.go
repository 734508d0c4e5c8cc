package command

import (
	"context"

	"github.com/meridian-commerce/core/internal/domain/fulfillment"
	apperrors "github.com/meridian-commerce/core/internal/shared/errors"
	"github.com/meridian-commerce/core/internal/shared/types"
	"github.com/meridian-commerce/core/internal/unitofwork"
)

type CreateFulfillmentParams struct {
	ID              types.ID               `json:"id"`
	OrderID         types.ID               `json:"orderId"`
	Items           []fulfillment.LineItem `json:"items"`
	UserID          types.ID               `json:"userId"`
	CorrelationID   string                 `json:"correlationId"`
	ExpectedVersion Version                `json:"expectedVersion"`
}

func (s *Service) CreateFulfillment(ctx context.Context, p CreateFulfillmentParams) (*CreateResult, error) {
	expected, err := p.ExpectedVersion.ToExpected()
	if err != nil {
		return nil, apperrors.Validation(err.Error(), nil)
	}
	if !expected.IsAbsent() {
		return nil, apperrors.Validation("createFulfillment requires expectedVersion \"absent\"", nil)
	}
	if p.ID.IsZero() {
		p.ID = types.NewID()
	}

	t, err := s.begin(ctx)
	if err != nil {
		return nil, err
	}
	defer t.rollback(ctx)

	f, err := fulfillment.Create(fulfillment.CreateParams{
		ID:            p.ID,
		OrderID:       p.OrderID,
		Items:         p.Items,
		CorrelationID: p.CorrelationID,
	})
	if err != nil {
		return nil, err
	}

	t.fulfillments.Save(f, unitofwork.Absent())
	if err := t.commit(ctx); err != nil {
		return nil, err
	}
	return &CreateResult{ID: f.AggregateID(), Version: f.Version()}, nil
}

type ShipFulfillmentParams struct {
	ID              types.ID `json:"id"`
	TrackingNumber  string   `json:"trackingNumber"`
	Carrier         string   `json:"carrier"`
	UserID          types.ID `json:"userId"`
	CorrelationID   string   `json:"correlationId"`
	ExpectedVersion Version  `json:"expectedVersion"`
}

func (s *Service) ShipFulfillment(ctx context.Context, p ShipFulfillmentParams) (*CreateResult, error) {
	return s.mutateFulfillment(ctx, p.ID, p.ExpectedVersion, func(f *fulfillment.Fulfillment) error {
		return f.Ship(p.TrackingNumber, p.Carrier)
	})
}

type FulfillmentLifecycleParams struct {
	ID              types.ID `json:"id"`
	UserID          types.ID `json:"userId"`
	CorrelationID   string   `json:"correlationId"`
	ExpectedVersion Version  `json:"expectedVersion"`
}

func (s *Service) DeliverFulfillment(ctx context.Context, p FulfillmentLifecycleParams) (*CreateResult, error) {
	return s.mutateFulfillment(ctx, p.ID, p.ExpectedVersion, func(f *fulfillment.Fulfillment) error { return f.Deliver() })
}

func (s *Service) CancelFulfillment(ctx context.Context, p FulfillmentLifecycleParams) (*CreateResult, error) {
	return s.mutateFulfillment(ctx, p.ID, p.ExpectedVersion, func(f *fulfillment.Fulfillment) error { return f.Cancel() })
}

func (s *Service) mutateFulfillment(ctx context.Context, id types.ID, expectedVersion Version, mutate func(*fulfillment.Fulfillment) error) (*CreateResult, error) {
	expected, err := expectedVersion.ToExpected()
	if err != nil {
		return nil, apperrors.Validation(err.Error(), nil)
	}

	t, err := s.begin(ctx)
	if err != nil {
		return nil, err
	}
	defer t.rollback(ctx)

	f, err := t.fulfillments.Find(ctx, id)
	if err != nil {
		return nil, err
	}
	if f.Version() != expected.Value() {
		return nil, apperrors.Conflict("fulfillment was modified concurrently")
	}
	if err := mutate(f); err != nil {
		return nil, err
	}

	t.fulfillments.Save(f, expected)
	if err := t.commit(ctx); err != nil {
		return nil, err
	}
	return &CreateResult{ID: f.AggregateID(), Version: f.Version()}, nil
}
