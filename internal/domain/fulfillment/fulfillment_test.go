package fulfillment

import (
	"testing"

	"github.com/meridian-commerce/core/internal/shared/types"
)

func validParams() CreateParams {
	return CreateParams{
		ID:      types.NewID(),
		OrderID: types.NewID(),
		Items:   []LineItem{{VariantID: types.NewID(), Quantity: 2}},
	}
}

func TestCreate(t *testing.T) {
	if _, err := Create(validParams()); err != nil {
		t.Fatalf("expected no error, got %v", err)
	}

	noOrder := validParams()
	noOrder.OrderID = types.ID("")
	if _, err := Create(noOrder); err == nil {
		t.Error("expected error without an orderId")
	}

	noItems := validParams()
	noItems.Items = nil
	if _, err := Create(noItems); err == nil {
		t.Error("expected error without any line items")
	}

	badQuantity := validParams()
	badQuantity.Items = []LineItem{{VariantID: types.NewID(), Quantity: 0}}
	if _, err := Create(badQuantity); err == nil {
		t.Error("expected error with a non-positive quantity")
	}

	missingVariant := validParams()
	missingVariant.Items = []LineItem{{Quantity: 1}}
	if _, err := Create(missingVariant); err == nil {
		t.Error("expected error with a missing line item variantId")
	}
}

func TestLifecycle(t *testing.T) {
	f, _ := Create(validParams())

	if err := f.Deliver(); err == nil {
		t.Error("expected error delivering a pending (not-yet-shipped) fulfillment")
	}

	if err := f.Ship("", "ups"); err == nil {
		t.Error("expected error shipping without a tracking number")
	}

	if err := f.Ship("TRACK-1", "ups"); err != nil {
		t.Fatalf("failed to ship: %v", err)
	}
	if f.Status != StatusShipped {
		t.Errorf("expected status %s, got %s", StatusShipped, f.Status)
	}
	if f.ShippedAt == nil {
		t.Error("expected shippedAt to be set")
	}

	if err := f.Ship("TRACK-2", "ups"); err == nil {
		t.Error("expected error shipping an already shipped fulfillment")
	}

	if err := f.Deliver(); err != nil {
		t.Fatalf("failed to deliver: %v", err)
	}
	if f.Status != StatusDelivered {
		t.Errorf("expected status %s, got %s", StatusDelivered, f.Status)
	}

	if err := f.Cancel(); err == nil {
		t.Error("expected error cancelling a delivered (terminal) fulfillment")
	}
}

func TestCancel(t *testing.T) {
	f, _ := Create(validParams())
	if err := f.Cancel(); err != nil {
		t.Fatalf("failed to cancel: %v", err)
	}
	if f.Status != StatusCancelled {
		t.Errorf("expected status %s, got %s", StatusCancelled, f.Status)
	}
	if err := f.Cancel(); err == nil {
		t.Error("expected error cancelling an already cancelled fulfillment")
	}
}
