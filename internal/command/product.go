package command

import (
	"context"

	"github.com/meridian-commerce/core/internal/domain/product"
	"github.com/meridian-commerce/core/internal/domain/shared"
	"github.com/meridian-commerce/core/internal/domain/variantpositions"
	apperrors "github.com/meridian-commerce/core/internal/shared/errors"
	"github.com/meridian-commerce/core/internal/shared/types"
	"github.com/meridian-commerce/core/internal/unitofwork"
)

type CreateProductParams struct {
	ID                    types.ID                `json:"id"`
	Slug                  string                  `json:"slug"`
	Name                  string                  `json:"name"`
	Collections           []types.ID              `json:"collections"`
	VariantOptions        []product.VariantOption `json:"variantOptions"`
	Metadata              product.Metadata        `json:"metadata"`
	Tags                  []string                `json:"tags"`
	FulfillmentType       product.FulfillmentType `json:"fulfillmentType"`
	DropshipSafetyBuffer  *int                    `json:"dropshipSafetyBuffer,omitempty"`
	TaxCode               string                  `json:"taxCode,omitempty"`
	Vendor                string                  `json:"vendor,omitempty"`
	SupplierCost          *int64                  `json:"supplierCost,omitempty"`
	SupplierSKU           string                  `json:"supplierSku,omitempty"`
	FulfillmentProviderID string                  `json:"fulfillmentProviderId,omitempty"`
	UserID                types.ID                `json:"userId"`
	CorrelationID         string                  `json:"correlationId"`
	ExpectedVersion       Version                 `json:"expectedVersion"`
}

type CreateResult struct {
	ID      types.ID `json:"id"`
	Version int      `json:"version"`
}

// CreateProduct creates the Product, its VariantPositions child, and
// its slug reservation in one commit (spec.md section 4.E's first
// worked example).
func (s *Service) CreateProduct(ctx context.Context, p CreateProductParams) (*CreateResult, error) {
	expected, err := p.ExpectedVersion.ToExpected()
	if err != nil {
		return nil, apperrors.Validation(err.Error(), nil)
	}
	if !expected.IsAbsent() {
		return nil, apperrors.Validation("createProduct requires expectedVersion \"absent\"", nil)
	}
	if p.ID.IsZero() {
		p.ID = types.NewID()
	}

	t, err := s.begin(ctx)
	if err != nil {
		return nil, err
	}
	defer t.rollback(ctx)

	positionsID := types.NewID()
	prod, err := product.Create(product.CreateParams{
		ID:                          p.ID,
		Slug:                        p.Slug,
		Name:                        p.Name,
		Collections:                 p.Collections,
		VariantOptions:              p.VariantOptions,
		Metadata:                    p.Metadata,
		Tags:                        p.Tags,
		FulfillmentType:             p.FulfillmentType,
		DropshipSafetyBuffer:        p.DropshipSafetyBuffer,
		VariantPositionsAggregateID: positionsID,
		TaxCode:                     p.TaxCode,
		Vendor:                      p.Vendor,
		SupplierCost:                p.SupplierCost,
		SupplierSKU:                 p.SupplierSKU,
		FulfillmentProviderID:       p.FulfillmentProviderID,
		CorrelationID:               p.CorrelationID,
	})
	if err != nil {
		return nil, err
	}

	positions, err := variantpositions.Create(positionsID, p.ID, p.CorrelationID)
	if err != nil {
		return nil, err
	}

	if err := reserveSlug(ctx, t, types.ID(p.Slug), p.ID, "product", p.CorrelationID); err != nil {
		return nil, err
	}

	t.products.Save(prod, unitofwork.Absent())
	t.variantPositions.Save(positions, unitofwork.Absent())

	if err := t.commit(ctx); err != nil {
		return nil, err
	}
	return &CreateResult{ID: prod.AggregateID(), Version: prod.Version()}, nil
}

type UpdateProductSlugParams struct {
	ID              types.ID `json:"id"`
	NewSlug         string   `json:"newSlug"`
	UserID          types.ID `json:"userId"`
	CorrelationID   string   `json:"correlationId"`
	ExpectedVersion Version  `json:"expectedVersion"`
}

// UpdateProductSlug releases the old slug reservation (with a forward
// pointer to the new slug), reserves the new one, and mutates the
// product - all three aggregate writes in one commit.
func (s *Service) UpdateProductSlug(ctx context.Context, p UpdateProductSlugParams) (*CreateResult, error) {
	expected, err := p.ExpectedVersion.ToExpected()
	if err != nil {
		return nil, apperrors.Validation(err.Error(), nil)
	}

	t, err := s.begin(ctx)
	if err != nil {
		return nil, err
	}
	defer t.rollback(ctx)

	prod, err := t.products.Find(ctx, p.ID)
	if err != nil {
		return nil, err
	}
	if prod.Version() != expected.Value() {
		return nil, apperrors.Conflict("product was modified concurrently")
	}

	oldSlug := prod.Slug
	if err := prod.UpdateSlug(p.NewSlug); err != nil {
		return nil, err
	}
	if err := reserveSlug(ctx, t, types.ID(p.NewSlug), p.ID, "product", p.CorrelationID); err != nil {
		return nil, err
	}
	if err := releaseSlug(ctx, t, types.ID(oldSlug), p.NewSlug); err != nil {
		return nil, err
	}

	t.products.Save(prod, expected)
	if err := t.commit(ctx); err != nil {
		return nil, err
	}
	return &CreateResult{ID: prod.AggregateID(), Version: prod.Version()}, nil
}

type ProductLifecycleParams struct {
	ID              types.ID `json:"id"`
	UserID          types.ID `json:"userId"`
	CorrelationID   string   `json:"correlationId"`
	ExpectedVersion Version  `json:"expectedVersion"`
}

func (s *Service) PublishProduct(ctx context.Context, p ProductLifecycleParams) (*CreateResult, error) {
	return s.mutateProduct(ctx, p, func(prod *product.Product) error { return prod.Publish() })
}

func (s *Service) ArchiveProduct(ctx context.Context, p ProductLifecycleParams) (*CreateResult, error) {
	return s.mutateProduct(ctx, p, func(prod *product.Product) error { return prod.Archive() })
}

func (s *Service) mutateProduct(ctx context.Context, p ProductLifecycleParams, mutate func(*product.Product) error) (*CreateResult, error) {
	expected, err := p.ExpectedVersion.ToExpected()
	if err != nil {
		return nil, apperrors.Validation(err.Error(), nil)
	}

	t, err := s.begin(ctx)
	if err != nil {
		return nil, err
	}
	defer t.rollback(ctx)

	prod, err := t.products.Find(ctx, p.ID)
	if err != nil {
		return nil, err
	}
	if prod.Version() != expected.Value() {
		return nil, apperrors.Conflict("product was modified concurrently")
	}
	if err := mutate(prod); err != nil {
		return nil, err
	}

	t.products.Save(prod, expected)
	if err := t.commit(ctx); err != nil {
		return nil, err
	}
	return &CreateResult{ID: prod.AggregateID(), Version: prod.Version()}, nil
}

type AddProductImageParams struct {
	ID              types.ID     `json:"id"`
	Image           shared.Image `json:"image"`
	UserID          types.ID     `json:"userId"`
	CorrelationID   string       `json:"correlationId"`
	ExpectedVersion Version      `json:"expectedVersion"`
}

func (s *Service) AddProductImage(ctx context.Context, p AddProductImageParams) (*CreateResult, error) {
	return s.mutateProduct(ctx, ProductLifecycleParams{ID: p.ID, UserID: p.UserID, CorrelationID: p.CorrelationID, ExpectedVersion: p.ExpectedVersion}, func(prod *product.Product) error {
		return prod.AddImage(p.Image)
	})
}

type ReorderProductImagesParams struct {
	ID              types.ID `json:"id"`
	ImageOrder      []string `json:"imageOrder"`
	UserID          types.ID `json:"userId"`
	CorrelationID   string   `json:"correlationId"`
	ExpectedVersion Version  `json:"expectedVersion"`
}

func (s *Service) ReorderProductImages(ctx context.Context, p ReorderProductImagesParams) (*CreateResult, error) {
	return s.mutateProduct(ctx, ProductLifecycleParams{ID: p.ID, UserID: p.UserID, CorrelationID: p.CorrelationID, ExpectedVersion: p.ExpectedVersion}, func(prod *product.Product) error {
		return prod.ReorderImages(p.ImageOrder)
	})
}
