package command

import (
	"context"

	"github.com/meridian-commerce/core/internal/domain/collection"
	"github.com/meridian-commerce/core/internal/domain/collectionproductpositions"
	apperrors "github.com/meridian-commerce/core/internal/shared/errors"
	"github.com/meridian-commerce/core/internal/shared/types"
	"github.com/meridian-commerce/core/internal/unitofwork"
)

type CreateCollectionParams struct {
	ID              types.ID          `json:"id"`
	Slug            string            `json:"slug"`
	Name            string            `json:"name"`
	Description     string            `json:"description"`
	Metadata        map[string]string `json:"metadata"`
	UserID          types.ID          `json:"userId"`
	CorrelationID   string            `json:"correlationId"`
	ExpectedVersion Version           `json:"expectedVersion"`
}

func (s *Service) CreateCollection(ctx context.Context, p CreateCollectionParams) (*CreateResult, error) {
	expected, err := p.ExpectedVersion.ToExpected()
	if err != nil {
		return nil, apperrors.Validation(err.Error(), nil)
	}
	if !expected.IsAbsent() {
		return nil, apperrors.Validation("createCollection requires expectedVersion \"absent\"", nil)
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
	c, err := collection.Create(collection.CreateParams{
		ID:                  p.ID,
		Slug:                p.Slug,
		Name:                p.Name,
		Description:         p.Description,
		Metadata:            p.Metadata,
		ProductsAggregateID: positionsID,
		CorrelationID:       p.CorrelationID,
	})
	if err != nil {
		return nil, err
	}

	positions, err := collectionproductpositions.Create(positionsID, p.ID, p.CorrelationID)
	if err != nil {
		return nil, err
	}

	if err := reserveSlug(ctx, t, types.ID(p.Slug), p.ID, "collection", p.CorrelationID); err != nil {
		return nil, err
	}

	t.collections.Save(c, unitofwork.Absent())
	t.collectionProducts.Save(positions, unitofwork.Absent())

	if err := t.commit(ctx); err != nil {
		return nil, err
	}
	return &CreateResult{ID: c.AggregateID(), Version: c.Version()}, nil
}

type CollectionLifecycleParams struct {
	ID              types.ID `json:"id"`
	UserID          types.ID `json:"userId"`
	CorrelationID   string   `json:"correlationId"`
	ExpectedVersion Version  `json:"expectedVersion"`
}

func (s *Service) PublishCollection(ctx context.Context, p CollectionLifecycleParams) (*CreateResult, error) {
	return s.mutateCollection(ctx, p, func(c *collection.Collection) error { return c.Publish() })
}

func (s *Service) ArchiveCollection(ctx context.Context, p CollectionLifecycleParams) (*CreateResult, error) {
	return s.mutateCollection(ctx, p, func(c *collection.Collection) error { return c.Archive() })
}

func (s *Service) mutateCollection(ctx context.Context, p CollectionLifecycleParams, mutate func(*collection.Collection) error) (*CreateResult, error) {
	expected, err := p.ExpectedVersion.ToExpected()
	if err != nil {
		return nil, apperrors.Validation(err.Error(), nil)
	}

	t, err := s.begin(ctx)
	if err != nil {
		return nil, err
	}
	defer t.rollback(ctx)

	c, err := t.collections.Find(ctx, p.ID)
	if err != nil {
		return nil, err
	}
	if c.Version() != expected.Value() {
		return nil, apperrors.Conflict("collection was modified concurrently")
	}
	if err := mutate(c); err != nil {
		return nil, err
	}

	t.collections.Save(c, expected)
	if err := t.commit(ctx); err != nil {
		return nil, err
	}
	return &CreateResult{ID: c.AggregateID(), Version: c.Version()}, nil
}

type UpdateCollectionSlugParams struct {
	ID              types.ID `json:"id"`
	NewSlug         string   `json:"newSlug"`
	UserID          types.ID `json:"userId"`
	CorrelationID   string   `json:"correlationId"`
	ExpectedVersion Version  `json:"expectedVersion"`
}

func (s *Service) UpdateCollectionSlug(ctx context.Context, p UpdateCollectionSlugParams) (*CreateResult, error) {
	expected, err := p.ExpectedVersion.ToExpected()
	if err != nil {
		return nil, apperrors.Validation(err.Error(), nil)
	}

	t, err := s.begin(ctx)
	if err != nil {
		return nil, err
	}
	defer t.rollback(ctx)

	c, err := t.collections.Find(ctx, p.ID)
	if err != nil {
		return nil, err
	}
	if c.Version() != expected.Value() {
		return nil, apperrors.Conflict("collection was modified concurrently")
	}

	oldSlug := c.Slug
	if err := c.UpdateSlug(p.NewSlug); err != nil {
		return nil, err
	}
	if err := reserveSlug(ctx, t, types.ID(p.NewSlug), p.ID, "collection", p.CorrelationID); err != nil {
		return nil, err
	}
	if err := releaseSlug(ctx, t, types.ID(oldSlug), p.NewSlug); err != nil {
		return nil, err
	}

	t.collections.Save(c, expected)
	if err := t.commit(ctx); err != nil {
		return nil, err
	}
	return &CreateResult{ID: c.AggregateID(), Version: c.Version()}, nil
}

type ReorderCollectionProductsParams struct {
	CollectionID    types.ID   `json:"collectionId"`
	NewOrder        []types.ID `json:"newOrder"`
	UserID          types.ID   `json:"userId"`
	CorrelationID   string     `json:"correlationId"`
	ExpectedVersion Version    `json:"expectedVersion"`
}

type AddProductToCollectionParams struct {
	CollectionID    types.ID `json:"collectionId"`
	ProductID       types.ID `json:"productId"`
	Position        *int     `json:"position,omitempty"`
	UserID          types.ID `json:"userId"`
	CorrelationID   string   `json:"correlationId"`
	ExpectedVersion Version  `json:"expectedVersion"`
}

// AddProductToCollection inserts at Position when given, clamped to the
// current list bounds, and appends to the end when Position is omitted.
func (s *Service) AddProductToCollection(ctx context.Context, p AddProductToCollectionParams) (*CreateResult, error) {
	return s.mutateCollectionPositions(ctx, p.CollectionID, p.ExpectedVersion, func(cp *collectionproductpositions.CollectionProductPositions) error {
		position := len(cp.ProductIDs)
		if p.Position != nil {
			position = *p.Position
		}
		return cp.Append(p.ProductID, position)
	})
}

func (s *Service) RemoveProductFromCollection(ctx context.Context, p ReorderCollectionProductsParams) (*CreateResult, error) {
	return s.mutateCollectionPositions(ctx, p.CollectionID, p.ExpectedVersion, func(cp *collectionproductpositions.CollectionProductPositions) error {
		if len(p.NewOrder) != 1 {
			return apperrors.Validation("removeProductFromCollection takes exactly one productId in newOrder", nil)
		}
		return cp.Remove(p.NewOrder[0])
	})
}

func (s *Service) ReorderCollectionProducts(ctx context.Context, p ReorderCollectionProductsParams) (*CreateResult, error) {
	return s.mutateCollectionPositions(ctx, p.CollectionID, p.ExpectedVersion, func(cp *collectionproductpositions.CollectionProductPositions) error {
		return cp.Reorder(p.NewOrder)
	})
}

func (s *Service) mutateCollectionPositions(ctx context.Context, collectionID types.ID, expectedVersion Version, mutate func(*collectionproductpositions.CollectionProductPositions) error) (*CreateResult, error) {
	expected, err := expectedVersion.ToExpected()
	if err != nil {
		return nil, apperrors.Validation(err.Error(), nil)
	}

	t, err := s.begin(ctx)
	if err != nil {
		return nil, err
	}
	defer t.rollback(ctx)

	c, err := t.collections.Find(ctx, collectionID)
	if err != nil {
		return nil, err
	}
	positions, err := t.collectionProducts.Find(ctx, c.ProductsAggregateID)
	if err != nil {
		return nil, err
	}
	if positions.Version() != expected.Value() {
		return nil, apperrors.Conflict("collection product positions were modified concurrently")
	}
	if err := mutate(positions); err != nil {
		return nil, err
	}

	t.collectionProducts.Save(positions, expected)
	if err := t.commit(ctx); err != nil {
		return nil, err
	}
	return &CreateResult{ID: positions.AggregateID(), Version: positions.Version()}, nil
}
