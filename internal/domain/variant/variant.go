// Package variant implements the Variant aggregate (spec.md section
// 3): a sellable SKU belonging to exactly one product, with its own
// inventory count and lifecycle independent of the parent product's.
package variant

import (
	"github.com/meridian-commerce/core/internal/domain/shared"
	"github.com/meridian-commerce/core/internal/eventstore"
	apperrors "github.com/meridian-commerce/core/internal/shared/errors"
	"github.com/meridian-commerce/core/internal/shared/types"
)

const AggregateType = "variant"

type Status string

const (
	StatusDraft    Status = "draft"
	StatusActive   Status = "active"
	StatusArchived Status = "archived"
)

// OptionSelection pins one value per product-level variant option,
// e.g. {"name": "Size", "value": "Large"}.
type OptionSelection struct {
	Name  string `json:"name"`
	Value string `json:"value"`
}

type State struct {
	ProductID types.ID          `json:"productId"`
	SKU       string            `json:"sku"`
	Options   []OptionSelection `json:"options"`
	ListPrice int64             `json:"listPrice"`
	Inventory int               `json:"inventory"`
	Status    Status            `json:"status"`
	Images    []shared.Image    `json:"images"`
}

type Variant struct {
	*eventstore.BaseAggregate
	State
}

func (v *Variant) ToSnapshot() map[string]any { return eventstore.ToPayloadMap(v.State) }

func Hydrate(snap eventstore.Snapshot) (*Variant, error) {
	var state State
	if err := eventstore.FromPayloadMap(snap.Payload, &state); err != nil {
		return nil, err
	}
	return &Variant{
		BaseAggregate: eventstore.LoadBaseAggregate(snap.AggregateID, AggregateType, snap.Version, snap.CorrelationID),
		State:         state,
	}, nil
}

type CreateParams struct {
	ID            types.ID
	ProductID     types.ID
	SKU           string
	Options       []OptionSelection
	ListPrice     int64
	Inventory     int
	CorrelationID string
}

// Create validates and raises variant.created. Inventory may start at
// zero (a draft variant pre-stock) but never negative.
func Create(p CreateParams) (*Variant, error) {
	if p.ProductID.IsZero() {
		return nil, apperrors.Validation("productId is required", nil)
	}
	if p.SKU == "" {
		return nil, apperrors.Validation("sku is required", nil)
	}
	if p.ListPrice < 0 {
		return nil, apperrors.Validation("listPrice must not be negative", nil)
	}
	if p.Inventory < 0 {
		return nil, apperrors.Validation("inventory must not be negative", nil)
	}

	v := &Variant{
		BaseAggregate: eventstore.NewBaseAggregate(p.ID, AggregateType, p.CorrelationID),
		State: State{
			ProductID: p.ProductID,
			SKU:       p.SKU,
			Options:   p.Options,
			ListPrice: p.ListPrice,
			Inventory: p.Inventory,
			Status:    StatusDraft,
		},
	}
	v.RaiseEvent("created", map[string]any{}, eventstore.ToPayloadMap(v.State))
	return v, nil
}

// UpdateInventory sets inventory to an absolute count, as opposed to a
// delta - the admin UI always submits the new on-hand count.
func (v *Variant) UpdateInventory(newInventory int) error {
	if newInventory < 0 {
		return apperrors.Validation("inventory must not be negative", nil)
	}
	if newInventory == v.Inventory {
		return apperrors.Validation("inventory is unchanged", nil)
	}
	prior := map[string]any{"inventory": v.Inventory}
	v.Inventory = newInventory
	v.RaiseEvent("inventory_updated", prior, map[string]any{"productId": v.ProductID, "inventory": v.Inventory})
	return nil
}

// UpdateListPrice changes the price charged at checkout.
func (v *Variant) UpdateListPrice(newPrice int64) error {
	if newPrice < 0 {
		return apperrors.Validation("listPrice must not be negative", nil)
	}
	prior := map[string]any{"listPrice": v.ListPrice}
	v.ListPrice = newPrice
	v.RaiseEvent("list_price_updated", prior, map[string]any{"productId": v.ProductID, "listPrice": v.ListPrice})
	return nil
}

func (v *Variant) Publish() error {
	if v.Status == StatusActive {
		return apperrors.Validation("variant is already active", nil)
	}
	if v.Status == StatusArchived {
		return apperrors.Validation("cannot publish an archived variant", nil)
	}
	prior := map[string]any{"status": v.Status}
	v.Status = StatusActive
	v.RaiseEvent("published", prior, map[string]any{"productId": v.ProductID, "status": v.Status})
	return nil
}

func (v *Variant) Archive() error {
	if v.Status == StatusArchived {
		return apperrors.Validation("variant is already archived", nil)
	}
	prior := map[string]any{"status": v.Status}
	v.Status = StatusArchived
	v.RaiseEvent("archived", prior, map[string]any{"productId": v.ProductID, "status": v.Status})
	return nil
}

func (v *Variant) AddImage(img shared.Image) error {
	for _, existing := range v.Images {
		if existing.ImageID == img.ImageID {
			return apperrors.ConstraintViolated("image already attached to variant")
		}
	}
	prior := map[string]any{"images": shared.ToAny(v.Images)}
	v.Images = append(v.Images, img)
	v.RaiseEvent("image_added", prior, map[string]any{"productId": v.ProductID, "images": shared.ToAny(v.Images)})
	return nil
}
