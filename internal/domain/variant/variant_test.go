package variant

import (
	"testing"

	"github.com/meridian-commerce/core/internal/shared/types"
)

func TestCreate(t *testing.T) {
	productID := types.NewID()

	tests := []struct {
		name        string
		params      CreateParams
		expectError bool
	}{
		{"valid variant", CreateParams{ID: types.NewID(), ProductID: productID, SKU: "SKU-1", ListPrice: 1500, Inventory: 10}, false},
		{"missing productId", CreateParams{ID: types.NewID(), SKU: "SKU-1", ListPrice: 1500}, true},
		{"missing sku", CreateParams{ID: types.NewID(), ProductID: productID, ListPrice: 1500}, true},
		{"negative price", CreateParams{ID: types.NewID(), ProductID: productID, SKU: "SKU-1", ListPrice: -1}, true},
		{"negative inventory", CreateParams{ID: types.NewID(), ProductID: productID, SKU: "SKU-1", Inventory: -1}, true},
		{"zero inventory is allowed", CreateParams{ID: types.NewID(), ProductID: productID, SKU: "SKU-1", Inventory: 0}, false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			v, err := Create(tt.params)
			if tt.expectError {
				if err == nil {
					t.Error("expected error but got none")
				}
				return
			}
			if err != nil {
				t.Fatalf("expected no error, got %v", err)
			}
			if v.Status != StatusDraft {
				t.Errorf("expected status %s, got %s", StatusDraft, v.Status)
			}
		})
	}
}

func TestUpdateInventory(t *testing.T) {
	v, _ := Create(CreateParams{ID: types.NewID(), ProductID: types.NewID(), SKU: "SKU-1", Inventory: 5})

	if err := v.UpdateInventory(10); err != nil {
		t.Fatalf("failed to update inventory: %v", err)
	}
	if v.Inventory != 10 {
		t.Errorf("expected inventory 10, got %d", v.Inventory)
	}

	if err := v.UpdateInventory(-1); err == nil {
		t.Error("expected error setting negative inventory")
	}
	if err := v.UpdateInventory(10); err == nil {
		t.Error("expected error setting inventory to its unchanged value")
	}
}

func TestUpdateListPrice(t *testing.T) {
	v, _ := Create(CreateParams{ID: types.NewID(), ProductID: types.NewID(), SKU: "SKU-1", ListPrice: 1000})

	if err := v.UpdateListPrice(1200); err != nil {
		t.Fatalf("failed to update list price: %v", err)
	}
	if v.ListPrice != 1200 {
		t.Errorf("expected listPrice 1200, got %d", v.ListPrice)
	}

	if err := v.UpdateListPrice(-1); err == nil {
		t.Error("expected error setting a negative list price")
	}
}

func TestPublishAndArchive(t *testing.T) {
	v, _ := Create(CreateParams{ID: types.NewID(), ProductID: types.NewID(), SKU: "SKU-1"})

	if err := v.Publish(); err != nil {
		t.Fatalf("failed to publish: %v", err)
	}
	if v.Status != StatusActive {
		t.Errorf("expected status %s, got %s", StatusActive, v.Status)
	}
	if err := v.Publish(); err == nil {
		t.Error("expected error publishing an already active variant")
	}

	if err := v.Archive(); err != nil {
		t.Fatalf("failed to archive: %v", err)
	}
	if err := v.Publish(); err == nil {
		t.Error("expected error publishing an archived variant")
	}
	if err := v.Archive(); err == nil {
		t.Error("expected error archiving an already archived variant")
	}
}
