// Package product implements the Product aggregate (spec.md section
// 3) including the DropshipProduct specialization, which reuses this
// same aggregate type with fulfillmentType = "dropship" and the two
// extra transitional statuses. Grounded on the aggregate method shape
// of the teacher's Case aggregate (validate precondition, mutate
// state, push one event) generalized through eventstore.BaseAggregate.
package product

import (
	"time"

	"github.com/meridian-commerce/core/internal/domain/shared"
	"github.com/meridian-commerce/core/internal/eventstore"
	apperrors "github.com/meridian-commerce/core/internal/shared/errors"
	"github.com/meridian-commerce/core/internal/shared/types"
)

const AggregateType = "product"

type Status string

const (
	StatusDraft              Status = "draft"
	StatusActive             Status = "active"
	StatusArchived           Status = "archived"
	StatusHiddenPendingDrop  Status = "hidden_pending_drop"
	StatusVisiblePendingDrop Status = "visible_pending_drop"
)

type FulfillmentType string

const (
	FulfillmentDigital  FulfillmentType = "digital"
	FulfillmentDropship FulfillmentType = "dropship"
)

type VariantOption struct {
	Name   string   `json:"name"`
	Values []string `json:"values"`
}

type Metadata struct {
	Title       string `json:"title"`
	Description string `json:"description"`
}

// State is everything that round-trips through a snapshot. It is
// kept separate from BaseAggregate so hydrate can unmarshal directly
// into it without touching the unexported version-tracking fields.
type State struct {
	Slug                        string          `json:"slug"`
	Name                        string          `json:"name"`
	Status                      Status          `json:"status"`
	Collections                 []types.ID      `json:"collections"`
	VariantOptions              []VariantOption `json:"variantOptions"`
	Metadata                    Metadata        `json:"metadata"`
	Tags                        []string        `json:"tags"`
	Images                      []shared.Image  `json:"images"`
	FulfillmentType             FulfillmentType `json:"fulfillmentType"`
	DropshipSafetyBuffer        *int            `json:"dropshipSafetyBuffer,omitempty"`
	VariantPositionsAggregateID types.ID        `json:"variantPositionsAggregateId"`
	TaxCode                     string          `json:"taxCode,omitempty"`
	Vendor                      string          `json:"vendor,omitempty"`
	PublishedAt                 *time.Time      `json:"publishedAt,omitempty"`

	// DropshipProduct specialization fields (spec.md section 3).
	SupplierCost          *int64 `json:"supplierCost,omitempty"`
	SupplierSKU           string `json:"supplierSku,omitempty"`
	FulfillmentProviderID string `json:"fulfillmentProviderId,omitempty"`
}

// Product is the write-side aggregate for both plain products and
// dropship products.
type Product struct {
	*eventstore.BaseAggregate
	State
}

func (p *Product) ToSnapshot() map[string]any { return eventstore.ToPayloadMap(p.State) }

// Hydrate reconstructs a Product from its latest snapshot row.
func Hydrate(snap eventstore.Snapshot) (*Product, error) {
	var state State
	if err := eventstore.FromPayloadMap(snap.Payload, &state); err != nil {
		return nil, err
	}
	return &Product{
		BaseAggregate: eventstore.LoadBaseAggregate(snap.AggregateID, AggregateType, snap.Version, snap.CorrelationID),
		State:         state,
	}, nil
}

// CreateParams is the shape of the createProduct command payload.
type CreateParams struct {
	ID                          types.ID
	Slug                        string
	Name                        string
	Collections                 []types.ID
	VariantOptions              []VariantOption
	Metadata                    Metadata
	Tags                        []string
	FulfillmentType             FulfillmentType
	DropshipSafetyBuffer        *int
	VariantPositionsAggregateID types.ID
	TaxCode                     string
	Vendor                      string
	SupplierCost                *int64
	SupplierSKU                 string
	FulfillmentProviderID       string
	CorrelationID               string
}

// Create validates params and produces a fresh Product at version 0,
// pushing a single product.created event.
func Create(p CreateParams) (*Product, error) {
	if p.Slug == "" {
		return nil, apperrors.Validation("slug is required", nil)
	}
	if p.Name == "" {
		return nil, apperrors.Validation("name is required", nil)
	}
	if p.VariantPositionsAggregateID.IsZero() {
		return nil, apperrors.Validation("variantPositionsAggregateId is required", nil)
	}
	if p.FulfillmentType == "" {
		p.FulfillmentType = FulfillmentDigital
	}
	if p.FulfillmentType == FulfillmentDropship && p.SupplierSKU == "" {
		return nil, apperrors.Validation("supplierSku is required for dropship products", nil)
	}

	prod := &Product{
		BaseAggregate: eventstore.NewBaseAggregate(p.ID, AggregateType, p.CorrelationID),
		State: State{
			Slug:                        p.Slug,
			Name:                        p.Name,
			Status:                      StatusDraft,
			Collections:                 p.Collections,
			VariantOptions:              p.VariantOptions,
			Metadata:                    p.Metadata,
			Tags:                        p.Tags,
			FulfillmentType:             p.FulfillmentType,
			DropshipSafetyBuffer:        p.DropshipSafetyBuffer,
			VariantPositionsAggregateID: p.VariantPositionsAggregateID,
			TaxCode:                     p.TaxCode,
			Vendor:                      p.Vendor,
			SupplierCost:                p.SupplierCost,
			SupplierSKU:                 p.SupplierSKU,
			FulfillmentProviderID:       p.FulfillmentProviderID,
		},
	}
	prod.RaiseEvent("created", map[string]any{}, eventstore.ToPayloadMap(prod.State))
	return prod, nil
}

// Publish transitions draft or *_pending_drop -> active, stamping
// publishedAt. Fails if already active (terminal-ward transitions are
// not idempotent).
func (p *Product) Publish() error {
	if p.Status == StatusActive {
		return apperrors.Validation("product is already active", nil)
	}
	if p.Status == StatusArchived {
		return apperrors.Validation("cannot publish an archived product", nil)
	}
	prior := map[string]any{"status": p.Status, "publishedAt": p.PublishedAt}
	now := time.Now().UTC()
	p.Status = StatusActive
	p.PublishedAt = &now
	p.RaiseEvent("published", prior, map[string]any{"status": p.Status, "publishedAt": p.PublishedAt})
	return nil
}

// Archive is terminal.
func (p *Product) Archive() error {
	if p.Status == StatusArchived {
		return apperrors.Validation("product is already archived", nil)
	}
	prior := map[string]any{"status": p.Status}
	p.Status = StatusArchived
	p.RaiseEvent("archived", prior, map[string]any{"status": p.Status})
	return nil
}

// UpdateSlug mutates the product's slug. The calling service is
// responsible for the slug reservation dance (release old, reserve
// new) in the same Unit of Work commit.
func (p *Product) UpdateSlug(newSlug string) error {
	if newSlug == "" {
		return apperrors.Validation("slug is required", nil)
	}
	if newSlug == p.Slug {
		return apperrors.Validation("new slug is identical to current slug", nil)
	}
	prior := map[string]any{"slug": p.Slug}
	p.Slug = newSlug
	p.RaiseEvent("slug_updated", prior, map[string]any{"slug": p.Slug})
	return nil
}

// AddImage appends an image.
func (p *Product) AddImage(img shared.Image) error {
	for _, existing := range p.Images {
		if existing.ImageID == img.ImageID {
			return apperrors.ConstraintViolated("image already attached to product")
		}
	}
	prior := map[string]any{"images": shared.ToAny(p.Images)}
	p.Images = append(p.Images, img)
	p.RaiseEvent("image_added", prior, map[string]any{"images": shared.ToAny(p.Images)})
	return nil
}

// ReorderImages replaces the image order; newOrder must be a
// permutation of the current image ids.
func (p *Product) ReorderImages(newOrder []string) error {
	if len(newOrder) != len(p.Images) {
		return apperrors.Validation("reorder must include every image exactly once", nil)
	}
	byID := make(map[string]shared.Image, len(p.Images))
	for _, img := range p.Images {
		byID[img.ImageID] = img
	}
	reordered := make([]shared.Image, 0, len(newOrder))
	seen := make(map[string]bool, len(newOrder))
	for _, id := range newOrder {
		img, ok := byID[id]
		if !ok {
			return apperrors.Validation("reorder references an unknown image id", map[string]string{"imageId": id})
		}
		if seen[id] {
			return apperrors.Validation("reorder must include every image exactly once", nil)
		}
		seen[id] = true
		reordered = append(reordered, img)
	}
	prior := map[string]any{"images": shared.ToAny(p.Images)}
	p.Images = reordered
	p.RaiseEvent("images_reordered", prior, map[string]any{"images": shared.ToAny(p.Images)})
	return nil
}

// dropshipAggregateType names events for the two pending-drop
// transitions, which spec.md section 8 scenario 5 requires to read as
// the DropshipProduct specialization (dropship_product.*) even though
// they are raised through the shared Product aggregate.
const dropshipAggregateType = "dropship_product"

// EnterPendingDrop transitions to one of the two dropship transitional
// states ahead of a scheduled command executing later.
func (p *Product) EnterPendingDrop(target Status) error {
	if target != StatusHiddenPendingDrop && target != StatusVisiblePendingDrop {
		return apperrors.Validation("invalid pending-drop target status", map[string]string{"status": string(target)})
	}
	if p.FulfillmentType != FulfillmentDropship {
		return apperrors.Validation("only dropship products support pending-drop states", nil)
	}
	if p.Status == StatusArchived {
		return apperrors.Validation("cannot schedule a drop for an archived product", nil)
	}
	prior := map[string]any{"status": p.Status}
	p.Status = target
	verb := "visible_drop_scheduled"
	if target == StatusHiddenPendingDrop {
		verb = "hidden_drop_scheduled"
	}
	name := eventstore.EventName(dropshipAggregateType, verb)
	p.RaiseNamedEvent(name, prior, map[string]any{"status": p.Status})
	return nil
}
