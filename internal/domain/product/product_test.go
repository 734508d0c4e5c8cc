package product

import (
	"testing"

	"github.com/meridian-commerce/core/internal/domain/shared"
	"github.com/meridian-commerce/core/internal/shared/types"
)

func TestCreate(t *testing.T) {
	vpID := types.NewID()

	tests := []struct {
		name        string
		params      CreateParams
		expectError bool
	}{
		{"valid digital product", CreateParams{ID: types.NewID(), Slug: "classic-tee", Name: "Classic Tee", VariantPositionsAggregateID: vpID}, false},
		{"missing slug", CreateParams{ID: types.NewID(), Name: "Classic Tee", VariantPositionsAggregateID: vpID}, true},
		{"missing name", CreateParams{ID: types.NewID(), Slug: "classic-tee", VariantPositionsAggregateID: vpID}, true},
		{"missing variant positions id", CreateParams{ID: types.NewID(), Slug: "classic-tee", Name: "Classic Tee"}, true},
		{"dropship without supplier sku", CreateParams{ID: types.NewID(), Slug: "drop-tee", Name: "Drop Tee", VariantPositionsAggregateID: vpID, FulfillmentType: FulfillmentDropship}, true},
		{"valid dropship product", CreateParams{ID: types.NewID(), Slug: "drop-tee", Name: "Drop Tee", VariantPositionsAggregateID: vpID, FulfillmentType: FulfillmentDropship, SupplierSKU: "SUP-1"}, false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			p, err := Create(tt.params)
			if tt.expectError {
				if err == nil {
					t.Error("expected error but got none")
				}
				return
			}
			if err != nil {
				t.Fatalf("expected no error, got %v", err)
			}
			if p.Status != StatusDraft {
				t.Errorf("expected status %s, got %s", StatusDraft, p.Status)
			}
			if len(p.GetUncommittedEvents()) != 1 {
				t.Errorf("expected 1 uncommitted event, got %d", len(p.GetUncommittedEvents()))
			}
			if p.GetUncommittedEvents()[0].EventName != "product.created" {
				t.Errorf("expected event name product.created, got %s", p.GetUncommittedEvents()[0].EventName)
			}
		})
	}
}

func TestPublishAndArchive(t *testing.T) {
	p, err := Create(CreateParams{ID: types.NewID(), Slug: "mug", Name: "Mug", VariantPositionsAggregateID: types.NewID()})
	if err != nil {
		t.Fatalf("failed to create product: %v", err)
	}

	if err := p.Publish(); err != nil {
		t.Fatalf("failed to publish: %v", err)
	}
	if p.Status != StatusActive {
		t.Errorf("expected status %s, got %s", StatusActive, p.Status)
	}
	if p.PublishedAt == nil {
		t.Error("expected publishedAt to be set")
	}

	if err := p.Publish(); err == nil {
		t.Error("expected error publishing an already active product")
	}

	if err := p.Archive(); err != nil {
		t.Fatalf("failed to archive: %v", err)
	}
	if p.Status != StatusArchived {
		t.Errorf("expected status %s, got %s", StatusArchived, p.Status)
	}

	if err := p.Publish(); err == nil {
		t.Error("expected error publishing an archived product")
	}
	if err := p.Archive(); err == nil {
		t.Error("expected error archiving an already archived product")
	}
}

func TestUpdateSlug(t *testing.T) {
	p, _ := Create(CreateParams{ID: types.NewID(), Slug: "mug", Name: "Mug", VariantPositionsAggregateID: types.NewID()})

	if err := p.UpdateSlug("coffee-mug"); err != nil {
		t.Fatalf("failed to update slug: %v", err)
	}
	if p.Slug != "coffee-mug" {
		t.Errorf("expected slug coffee-mug, got %s", p.Slug)
	}

	if err := p.UpdateSlug(""); err == nil {
		t.Error("expected error updating to an empty slug")
	}
	if err := p.UpdateSlug("coffee-mug"); err == nil {
		t.Error("expected error updating to the identical slug")
	}
}

func TestImages(t *testing.T) {
	p, _ := Create(CreateParams{ID: types.NewID(), Slug: "mug", Name: "Mug", VariantPositionsAggregateID: types.NewID()})

	img1 := shared.Image{ImageID: "img-1", URLs: map[string]map[string]string{"original": {"original": "https://example.com/1.png"}}}
	img2 := shared.Image{ImageID: "img-2", URLs: map[string]map[string]string{"original": {"original": "https://example.com/2.png"}}}

	if err := p.AddImage(img1); err != nil {
		t.Fatalf("failed to add image: %v", err)
	}
	if err := p.AddImage(img1); err == nil {
		t.Error("expected error adding a duplicate image")
	}
	if err := p.AddImage(img2); err != nil {
		t.Fatalf("failed to add second image: %v", err)
	}

	if err := p.ReorderImages([]string{"img-2", "img-1"}); err != nil {
		t.Fatalf("failed to reorder images: %v", err)
	}
	if p.Images[0].ImageID != "img-2" {
		t.Errorf("expected img-2 first, got %s", p.Images[0].ImageID)
	}

	if err := p.ReorderImages([]string{"img-2"}); err == nil {
		t.Error("expected error reordering with a missing image")
	}
	if err := p.ReorderImages([]string{"img-2", "unknown"}); err == nil {
		t.Error("expected error reordering with an unknown image id")
	}
}

func TestEnterPendingDrop(t *testing.T) {
	digital, _ := Create(CreateParams{ID: types.NewID(), Slug: "mug", Name: "Mug", VariantPositionsAggregateID: types.NewID()})
	if err := digital.EnterPendingDrop(StatusVisiblePendingDrop); err == nil {
		t.Error("expected error entering pending-drop on a non-dropship product")
	}

	drop, _ := Create(CreateParams{ID: types.NewID(), Slug: "drop", Name: "Drop", VariantPositionsAggregateID: types.NewID(), FulfillmentType: FulfillmentDropship, SupplierSKU: "SUP-1"})

	if err := drop.EnterPendingDrop(StatusActive); err == nil {
		t.Error("expected error for a non-pending-drop target status")
	}

	if err := drop.EnterPendingDrop(StatusHiddenPendingDrop); err != nil {
		t.Fatalf("failed to enter hidden pending drop: %v", err)
	}
	if drop.Status != StatusHiddenPendingDrop {
		t.Errorf("expected status %s, got %s", StatusHiddenPendingDrop, drop.Status)
	}
	events := drop.GetUncommittedEvents()
	if got := events[len(events)-1].EventName; got != "dropship_product.hidden_drop_scheduled" {
		t.Errorf("expected event name dropship_product.hidden_drop_scheduled, got %s", got)
	}

	drop.Archive()
	if err := drop.EnterPendingDrop(StatusVisiblePendingDrop); err == nil {
		t.Error("expected error scheduling a drop for an archived product")
	}
}
