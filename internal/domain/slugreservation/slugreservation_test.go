package slugreservation

import (
	"testing"

	"github.com/meridian-commerce/core/internal/shared/types"
)

func TestReserve(t *testing.T) {
	entityID := types.NewID()

	tests := []struct {
		name        string
		slug        types.ID
		entityID    types.ID
		entityType  string
		expectError bool
	}{
		{"valid reservation", types.ID("classic-tee"), entityID, "product", false},
		{"missing slug", types.ID(""), entityID, "product", true},
		{"missing entityId", types.ID("classic-tee"), types.ID(""), "product", true},
		{"missing entityType", types.ID("classic-tee"), entityID, "", true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			r, err := Reserve(tt.slug, tt.entityID, tt.entityType, "")
			if tt.expectError {
				if err == nil {
					t.Error("expected error but got none")
				}
				return
			}
			if err != nil {
				t.Fatalf("expected no error, got %v", err)
			}
			if r.Status != StatusActive {
				t.Errorf("expected status %s, got %s", StatusActive, r.Status)
			}
			if r.AggregateID() != tt.slug {
				t.Errorf("expected aggregate id to be the slug itself, got %s", r.AggregateID())
			}
		})
	}
}

func TestReleaseReactivateAndRedirect(t *testing.T) {
	r, _ := Reserve(types.ID("classic-tee"), types.NewID(), "product", "")

	if err := r.Release(); err != nil {
		t.Fatalf("failed to release: %v", err)
	}
	if r.Status != StatusReleased {
		t.Errorf("expected status %s, got %s", StatusReleased, r.Status)
	}
	if err := r.Release(); err == nil {
		t.Error("expected error releasing an already released reservation")
	}

	if err := r.RedirectTo("classic-tee-v2"); err != nil {
		t.Fatalf("failed to set redirect: %v", err)
	}
	if r.ForwardsTo != "classic-tee-v2" {
		t.Errorf("expected forwardsTo classic-tee-v2, got %s", r.ForwardsTo)
	}

	newEntity := types.NewID()
	if err := r.Reactivate(newEntity, "collection"); err != nil {
		t.Fatalf("failed to reactivate: %v", err)
	}
	if r.Status != StatusActive {
		t.Errorf("expected status %s, got %s", StatusActive, r.Status)
	}
	if r.EntityID != newEntity {
		t.Error("expected entityId to be updated on reactivation")
	}
	if r.ForwardsTo != "" {
		t.Error("expected forwardsTo to be cleared on reactivation")
	}

	if err := r.Reactivate(newEntity, "collection"); err == nil {
		t.Error("expected error reactivating an already active reservation")
	}

	active, _ := Reserve(types.ID("mug"), types.NewID(), "product", "")
	if err := active.RedirectTo("somewhere"); err == nil {
		t.Error("expected error redirecting an active (non-released) reservation")
	}
}
