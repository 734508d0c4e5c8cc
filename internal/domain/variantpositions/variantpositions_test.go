package variantpositions

import (
	"testing"

	"github.com/meridian-commerce/core/internal/shared/types"
)

func TestCreate(t *testing.T) {
	if _, err := Create(types.NewID(), types.ID(""), ""); err == nil {
		t.Error("expected error creating without a productId")
	}

	p, err := Create(types.NewID(), types.NewID(), "")
	if err != nil {
		t.Fatalf("expected no error, got %v", err)
	}
	if len(p.VariantIDs) != 0 {
		t.Errorf("expected empty variantIds, got %d", len(p.VariantIDs))
	}
}

func TestAppendRemoveReorder(t *testing.T) {
	p, _ := Create(types.NewID(), types.NewID(), "")
	v1, v2, v3 := types.NewID(), types.NewID(), types.NewID()

	if err := p.Append(v1, len(p.VariantIDs)); err != nil {
		t.Fatalf("failed to append: %v", err)
	}
	if err := p.Append(v1, len(p.VariantIDs)); err == nil {
		t.Error("expected error appending a duplicate variant")
	}
	if err := p.Append(v2, len(p.VariantIDs)); err != nil {
		t.Fatalf("failed to append second variant: %v", err)
	}

	if err := p.Reorder([]types.ID{v2, v1}); err != nil {
		t.Fatalf("failed to reorder: %v", err)
	}
	if p.VariantIDs[0] != v2 {
		t.Errorf("expected v2 first, got %v", p.VariantIDs[0])
	}

	if err := p.Reorder([]types.ID{v1, v3}); err == nil {
		t.Error("expected error reordering with an unknown variant id")
	}
	if err := p.Reorder([]types.ID{v1}); err == nil {
		t.Error("expected error reordering with a missing variant")
	}

	if err := p.Remove(v1); err != nil {
		t.Fatalf("failed to remove: %v", err)
	}
	if len(p.VariantIDs) != 1 {
		t.Errorf("expected 1 remaining variant, got %d", len(p.VariantIDs))
	}
	if err := p.Remove(v1); err == nil {
		t.Error("expected error removing an already-removed variant")
	}
}

func TestAppendPositionClamping(t *testing.T) {
	p, _ := Create(types.NewID(), types.NewID(), "")
	v1, v2, v3 := types.NewID(), types.NewID(), types.NewID()

	if err := p.Append(v1, 0); err != nil {
		t.Fatalf("failed to append: %v", err)
	}
	if err := p.Append(v2, 0); err != nil {
		t.Fatalf("failed to append: %v", err)
	}
	if p.VariantIDs[0] != v2 {
		t.Errorf("expected position 0 to prepend, got %v first", p.VariantIDs[0])
	}

	if err := p.Append(v3, 100); err != nil {
		t.Fatalf("failed to append: %v", err)
	}
	if p.VariantIDs[len(p.VariantIDs)-1] != v3 {
		t.Errorf("expected an out-of-range position to clamp to the end, got %v last", p.VariantIDs[len(p.VariantIDs)-1])
	}
}
