// Package collection implements the Collection aggregate (spec.md
// section 3): a curated, orderable grouping of products, mirroring
// Product's own shape (slug, status, metadata, images) but without a
// fulfillment type.
package collection

import (
	"github.com/meridian-commerce/core/internal/domain/shared"
	"github.com/meridian-commerce/core/internal/eventstore"
	apperrors "github.com/meridian-commerce/core/internal/shared/errors"
	"github.com/meridian-commerce/core/internal/shared/types"
)

const AggregateType = "collection"

type Status string

const (
	StatusDraft    Status = "draft"
	StatusActive   Status = "active"
	StatusArchived Status = "archived"
)

type State struct {
	Slug                string            `json:"slug"`
	Name                string            `json:"name"`
	Description         string            `json:"description"`
	Status              Status            `json:"status"`
	Metadata            map[string]string `json:"metadata"`
	Images              []shared.Image    `json:"images"`
	ProductsAggregateID types.ID          `json:"productsAggregateId"`
}

type Collection struct {
	*eventstore.BaseAggregate
	State
}

func (c *Collection) ToSnapshot() map[string]any { return eventstore.ToPayloadMap(c.State) }

func Hydrate(snap eventstore.Snapshot) (*Collection, error) {
	var state State
	if err := eventstore.FromPayloadMap(snap.Payload, &state); err != nil {
		return nil, err
	}
	return &Collection{
		BaseAggregate: eventstore.LoadBaseAggregate(snap.AggregateID, AggregateType, snap.Version, snap.CorrelationID),
		State:         state,
	}, nil
}

type CreateParams struct {
	ID                  types.ID
	Slug                string
	Name                string
	Description         string
	Metadata            map[string]string
	ProductsAggregateID types.ID
	CorrelationID       string
}

func Create(p CreateParams) (*Collection, error) {
	if p.Slug == "" {
		return nil, apperrors.Validation("slug is required", nil)
	}
	if p.Name == "" {
		return nil, apperrors.Validation("name is required", nil)
	}
	if p.ProductsAggregateID.IsZero() {
		return nil, apperrors.Validation("productsAggregateId is required", nil)
	}

	c := &Collection{
		BaseAggregate: eventstore.NewBaseAggregate(p.ID, AggregateType, p.CorrelationID),
		State: State{
			Slug:                p.Slug,
			Name:                p.Name,
			Description:         p.Description,
			Status:              StatusDraft,
			Metadata:            p.Metadata,
			ProductsAggregateID: p.ProductsAggregateID,
		},
	}
	c.RaiseEvent("created", map[string]any{}, eventstore.ToPayloadMap(c.State))
	return c, nil
}

func (c *Collection) Publish() error {
	if c.Status == StatusActive {
		return apperrors.Validation("collection is already active", nil)
	}
	if c.Status == StatusArchived {
		return apperrors.Validation("cannot publish an archived collection", nil)
	}
	prior := map[string]any{"status": c.Status}
	c.Status = StatusActive
	c.RaiseEvent("published", prior, map[string]any{"status": c.Status})
	return nil
}

func (c *Collection) Archive() error {
	if c.Status == StatusArchived {
		return apperrors.Validation("collection is already archived", nil)
	}
	prior := map[string]any{"status": c.Status}
	c.Status = StatusArchived
	c.RaiseEvent("archived", prior, map[string]any{"status": c.Status})
	return nil
}

func (c *Collection) UpdateSlug(newSlug string) error {
	if newSlug == "" {
		return apperrors.Validation("slug is required", nil)
	}
	if newSlug == c.Slug {
		return apperrors.Validation("new slug is identical to current slug", nil)
	}
	prior := map[string]any{"slug": c.Slug}
	c.Slug = newSlug
	c.RaiseEvent("slug_updated", prior, map[string]any{"slug": c.Slug})
	return nil
}

func (c *Collection) AddImage(img shared.Image) error {
	for _, existing := range c.Images {
		if existing.ImageID == img.ImageID {
			return apperrors.ConstraintViolated("image already attached to collection")
		}
	}
	prior := map[string]any{"images": shared.ToAny(c.Images)}
	c.Images = append(c.Images, img)
	c.RaiseEvent("image_added", prior, map[string]any{"images": shared.ToAny(c.Images)})
	return nil
}
