package command

import (
	"context"
	"fmt"

	"github.com/meridian-commerce/core/internal/domain/product"
	"github.com/meridian-commerce/core/internal/domain/variant"
	apperrors "github.com/meridian-commerce/core/internal/shared/errors"
	"github.com/meridian-commerce/core/internal/shared/types"
	"github.com/meridian-commerce/core/internal/unitofwork"
)

type CreateVariantParams struct {
	ID              types.ID                  `json:"id"`
	ProductID       types.ID                  `json:"productId"`
	SKU             string                    `json:"sku"`
	Options         []variant.OptionSelection `json:"options"`
	ListPrice       int64                     `json:"listPrice"`
	Inventory       int                       `json:"inventory"`
	Position        *int                      `json:"position,omitempty"`
	UserID          types.ID                  `json:"userId"`
	CorrelationID   string                    `json:"correlationId"`
	ExpectedVersion Version                   `json:"expectedVersion"`
}

// CreateVariant validates options against the parent product (read
// only - the product is not mutated or re-saved), creates the variant
// and its SKU reservation, and appends it to the product's
// VariantPositions (spec.md section 4.E's third worked example).
func (s *Service) CreateVariant(ctx context.Context, p CreateVariantParams) (*CreateResult, error) {
	expected, err := p.ExpectedVersion.ToExpected()
	if err != nil {
		return nil, apperrors.Validation(err.Error(), nil)
	}
	if !expected.IsAbsent() {
		return nil, apperrors.Validation("createVariant requires expectedVersion \"absent\"", nil)
	}
	if p.ID.IsZero() {
		p.ID = types.NewID()
	}

	t, err := s.begin(ctx)
	if err != nil {
		return nil, err
	}
	defer t.rollback(ctx)

	prod, err := t.products.Find(ctx, p.ProductID)
	if err != nil {
		return nil, err
	}
	if err := validateOptions(prod.VariantOptions, p.Options); err != nil {
		return nil, err
	}

	v, err := variant.Create(variant.CreateParams{
		ID:            p.ID,
		ProductID:     p.ProductID,
		SKU:           p.SKU,
		Options:       p.Options,
		ListPrice:     p.ListPrice,
		Inventory:     p.Inventory,
		CorrelationID: p.CorrelationID,
	})
	if err != nil {
		return nil, err
	}

	if err := reserveSlug(ctx, t, types.ID(p.SKU), p.ID, "variant", p.CorrelationID); err != nil {
		return nil, err
	}

	positions, err := t.variantPositions.Find(ctx, prod.VariantPositionsAggregateID)
	if err != nil {
		return nil, err
	}
	position := len(positions.VariantIDs)
	if p.Position != nil {
		position = *p.Position
	}
	if err := positions.Append(p.ID, position); err != nil {
		return nil, err
	}

	t.variants.Save(v, unitofwork.Absent())
	t.variantPositions.Save(positions, unitofwork.At(positions.Version()))

	if err := t.commit(ctx); err != nil {
		return nil, err
	}
	return &CreateResult{ID: v.AggregateID(), Version: v.Version()}, nil
}

func validateOptions(allowed []product.VariantOption, selected []variant.OptionSelection) error {
	byName := make(map[string][]string, len(allowed))
	for _, opt := range allowed {
		byName[opt.Name] = opt.Values
	}
	for _, sel := range selected {
		values, ok := byName[sel.Name]
		if !ok {
			return apperrors.Validation(fmt.Sprintf("option %q is not valid for this product", sel.Name), map[string]string{"option": sel.Name})
		}
		found := false
		for _, v := range values {
			if v == sel.Value {
				found = true
				break
			}
		}
		if !found {
			return apperrors.Validation(fmt.Sprintf("value %q is not valid for this product's %q option", sel.Value, sel.Name), map[string]string{"option": sel.Name, "value": sel.Value})
		}
	}
	return nil
}

type UpdateVariantInventoryParams struct {
	ID              types.ID `json:"id"`
	NewInventory    int      `json:"newInventory"`
	UserID          types.ID `json:"userId"`
	CorrelationID   string   `json:"correlationId"`
	ExpectedVersion Version  `json:"expectedVersion"`
}

func (s *Service) UpdateVariantInventory(ctx context.Context, p UpdateVariantInventoryParams) (*CreateResult, error) {
	return s.mutateVariant(ctx, p.ID, p.ExpectedVersion, func(v *variant.Variant) error {
		return v.UpdateInventory(p.NewInventory)
	})
}

type UpdateVariantListPriceParams struct {
	ID              types.ID `json:"id"`
	NewListPrice    int64    `json:"newListPrice"`
	UserID          types.ID `json:"userId"`
	CorrelationID   string   `json:"correlationId"`
	ExpectedVersion Version  `json:"expectedVersion"`
}

func (s *Service) UpdateVariantListPrice(ctx context.Context, p UpdateVariantListPriceParams) (*CreateResult, error) {
	return s.mutateVariant(ctx, p.ID, p.ExpectedVersion, func(v *variant.Variant) error {
		return v.UpdateListPrice(p.NewListPrice)
	})
}

type VariantLifecycleParams struct {
	ID              types.ID `json:"id"`
	UserID          types.ID `json:"userId"`
	CorrelationID   string   `json:"correlationId"`
	ExpectedVersion Version  `json:"expectedVersion"`
}

func (s *Service) PublishVariant(ctx context.Context, p VariantLifecycleParams) (*CreateResult, error) {
	return s.mutateVariant(ctx, p.ID, p.ExpectedVersion, func(v *variant.Variant) error { return v.Publish() })
}

// ArchiveVariant archives the variant AND removes it from the parent
// product's VariantPositions in the same commit, per DESIGN.md's Open
// Question 2 decision (the positions invariant is standing, not
// point-in-time).
func (s *Service) ArchiveVariant(ctx context.Context, p VariantLifecycleParams) (*CreateResult, error) {
	expected, err := p.ExpectedVersion.ToExpected()
	if err != nil {
		return nil, apperrors.Validation(err.Error(), nil)
	}

	t, err := s.begin(ctx)
	if err != nil {
		return nil, err
	}
	defer t.rollback(ctx)

	v, err := t.variants.Find(ctx, p.ID)
	if err != nil {
		return nil, err
	}
	if v.Version() != expected.Value() {
		return nil, apperrors.Conflict("variant was modified concurrently")
	}
	if err := v.Archive(); err != nil {
		return nil, err
	}

	prod, err := t.products.Find(ctx, v.ProductID)
	if err != nil {
		return nil, err
	}
	positions, err := t.variantPositions.Find(ctx, prod.VariantPositionsAggregateID)
	if err != nil {
		return nil, err
	}
	if err := positions.Remove(p.ID); err != nil {
		return nil, err
	}

	t.variants.Save(v, expected)
	t.variantPositions.Save(positions, unitofwork.At(positions.Version()))

	if err := t.commit(ctx); err != nil {
		return nil, err
	}
	return &CreateResult{ID: v.AggregateID(), Version: v.Version()}, nil
}

func (s *Service) mutateVariant(ctx context.Context, id types.ID, expectedVersion Version, mutate func(*variant.Variant) error) (*CreateResult, error) {
	expected, err := expectedVersion.ToExpected()
	if err != nil {
		return nil, apperrors.Validation(err.Error(), nil)
	}

	t, err := s.begin(ctx)
	if err != nil {
		return nil, err
	}
	defer t.rollback(ctx)

	v, err := t.variants.Find(ctx, id)
	if err != nil {
		return nil, err
	}
	if v.Version() != expected.Value() {
		return nil, apperrors.Conflict("variant was modified concurrently")
	}
	if err := mutate(v); err != nil {
		return nil, err
	}

	t.variants.Save(v, expected)
	if err := t.commit(ctx); err != nil {
		return nil, err
	}
	return &CreateResult{ID: v.AggregateID(), Version: v.Version()}, nil
}

type ReorderVariantPositionsParams struct {
	ProductID       types.ID   `json:"productId"`
	NewOrder        []types.ID `json:"newOrder"`
	UserID          types.ID   `json:"userId"`
	CorrelationID   string     `json:"correlationId"`
	ExpectedVersion Version    `json:"expectedVersion"`
}

func (s *Service) ReorderVariantPositions(ctx context.Context, p ReorderVariantPositionsParams) (*CreateResult, error) {
	expected, err := p.ExpectedVersion.ToExpected()
	if err != nil {
		return nil, apperrors.Validation(err.Error(), nil)
	}

	t, err := s.begin(ctx)
	if err != nil {
		return nil, err
	}
	defer t.rollback(ctx)

	prod, err := t.products.Find(ctx, p.ProductID)
	if err != nil {
		return nil, err
	}
	positions, err := t.variantPositions.Find(ctx, prod.VariantPositionsAggregateID)
	if err != nil {
		return nil, err
	}
	if positions.Version() != expected.Value() {
		return nil, apperrors.Conflict("variant positions were modified concurrently")
	}
	if err := positions.Reorder(p.NewOrder); err != nil {
		return nil, err
	}

	t.variantPositions.Save(positions, expected)
	if err := t.commit(ctx); err != nil {
		return nil, err
	}
	return &CreateResult{ID: positions.AggregateID(), Version: positions.Version()}, nil
}
