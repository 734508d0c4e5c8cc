package collectionproductpositions

import (
	"testing"

	"github.com/meridian-commerce/core/internal/shared/types"
)

func TestCreate(t *testing.T) {
	if _, err := Create(types.NewID(), types.ID(""), ""); err == nil {
		t.Error("expected error creating without a collectionId")
	}

	p, err := Create(types.NewID(), types.NewID(), "")
	if err != nil {
		t.Fatalf("expected no error, got %v", err)
	}
	if len(p.ProductIDs) != 0 {
		t.Errorf("expected empty productIds, got %d", len(p.ProductIDs))
	}
}

func TestAppendRemoveReorder(t *testing.T) {
	p, _ := Create(types.NewID(), types.NewID(), "")
	pr1, pr2 := types.NewID(), types.NewID()

	if err := p.Append(pr1, len(p.ProductIDs)); err != nil {
		t.Fatalf("failed to append: %v", err)
	}
	if err := p.Append(pr1, len(p.ProductIDs)); err == nil {
		t.Error("expected error appending a duplicate product")
	}
	if err := p.Append(pr2, len(p.ProductIDs)); err != nil {
		t.Fatalf("failed to append second product: %v", err)
	}

	if err := p.Reorder([]types.ID{pr2, pr1}); err != nil {
		t.Fatalf("failed to reorder: %v", err)
	}
	if p.ProductIDs[0] != pr2 {
		t.Errorf("expected pr2 first, got %v", p.ProductIDs[0])
	}

	if err := p.Remove(pr1); err != nil {
		t.Fatalf("failed to remove: %v", err)
	}
	if len(p.ProductIDs) != 1 {
		t.Errorf("expected 1 remaining product, got %d", len(p.ProductIDs))
	}
	unknown := types.NewID()
	if err := p.Remove(unknown); err == nil {
		t.Error("expected error removing a product not in the list")
	}
}

func TestAppendPositionClamping(t *testing.T) {
	p, _ := Create(types.NewID(), types.NewID(), "")
	pr1, pr2, pr3 := types.NewID(), types.NewID(), types.NewID()

	if err := p.Append(pr1, 0); err != nil {
		t.Fatalf("failed to append: %v", err)
	}
	if err := p.Append(pr2, 0); err != nil {
		t.Fatalf("failed to append: %v", err)
	}
	if p.ProductIDs[0] != pr2 {
		t.Errorf("expected position 0 to prepend, got %v first", p.ProductIDs[0])
	}

	if err := p.Append(pr3, 100); err != nil {
		t.Fatalf("failed to append: %v", err)
	}
	if p.ProductIDs[len(p.ProductIDs)-1] != pr3 {
		t.Errorf("expected an out-of-range position to clamp to the end, got %v last", p.ProductIDs[len(p.ProductIDs)-1])
	}
}
