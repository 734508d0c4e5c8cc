package collection

import (
	"testing"

	"github.com/meridian-commerce/core/internal/shared/types"
)

func TestCreate(t *testing.T) {
	productsID := types.NewID()

	tests := []struct {
		name        string
		params      CreateParams
		expectError bool
	}{
		{"valid collection", CreateParams{ID: types.NewID(), Slug: "summer", Name: "Summer", ProductsAggregateID: productsID}, false},
		{"missing slug", CreateParams{ID: types.NewID(), Name: "Summer", ProductsAggregateID: productsID}, true},
		{"missing name", CreateParams{ID: types.NewID(), Slug: "summer", ProductsAggregateID: productsID}, true},
		{"missing productsAggregateId", CreateParams{ID: types.NewID(), Slug: "summer", Name: "Summer"}, true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			c, err := Create(tt.params)
			if tt.expectError {
				if err == nil {
					t.Error("expected error but got none")
				}
				return
			}
			if err != nil {
				t.Fatalf("expected no error, got %v", err)
			}
			if c.Status != StatusDraft {
				t.Errorf("expected status %s, got %s", StatusDraft, c.Status)
			}
		})
	}
}

func TestPublishArchiveAndSlug(t *testing.T) {
	c, _ := Create(CreateParams{ID: types.NewID(), Slug: "summer", Name: "Summer", ProductsAggregateID: types.NewID()})

	if err := c.UpdateSlug("summer-sale"); err != nil {
		t.Fatalf("failed to update slug: %v", err)
	}
	if err := c.UpdateSlug("summer-sale"); err == nil {
		t.Error("expected error updating to the identical slug")
	}

	if err := c.Publish(); err != nil {
		t.Fatalf("failed to publish: %v", err)
	}
	if c.Status != StatusActive {
		t.Errorf("expected status %s, got %s", StatusActive, c.Status)
	}

	if err := c.Archive(); err != nil {
		t.Fatalf("failed to archive: %v", err)
	}
	if err := c.Publish(); err == nil {
		t.Error("expected error publishing an archived collection")
	}
	if err := c.Archive(); err == nil {
		t.Error("expected error archiving an already archived collection")
	}
}
