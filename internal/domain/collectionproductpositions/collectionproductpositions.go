// Package collectionproductpositions implements
// CollectionProductPositions (spec.md section 3): the ordered list of
// a collection's product ids, kept as its own aggregate for the same
// reason variant positions are split out from Product.
package collectionproductpositions

import (
	"github.com/meridian-commerce/core/internal/eventstore"
	apperrors "github.com/meridian-commerce/core/internal/shared/errors"
	"github.com/meridian-commerce/core/internal/shared/types"
)

const AggregateType = "collectionProductPositions"

type State struct {
	CollectionID types.ID   `json:"collectionId"`
	ProductIDs   []types.ID `json:"productIds"`
}

type CollectionProductPositions struct {
	*eventstore.BaseAggregate
	State
}

func (p *CollectionProductPositions) ToSnapshot() map[string]any { return eventstore.ToPayloadMap(p.State) }

func Hydrate(snap eventstore.Snapshot) (*CollectionProductPositions, error) {
	var state State
	if err := eventstore.FromPayloadMap(snap.Payload, &state); err != nil {
		return nil, err
	}
	return &CollectionProductPositions{
		BaseAggregate: eventstore.LoadBaseAggregate(snap.AggregateID, AggregateType, snap.Version, snap.CorrelationID),
		State:         state,
	}, nil
}

func Create(id, collectionID types.ID, correlationID string) (*CollectionProductPositions, error) {
	if collectionID.IsZero() {
		return nil, apperrors.Validation("collectionId is required", nil)
	}
	p := &CollectionProductPositions{
		BaseAggregate: eventstore.NewBaseAggregate(id, AggregateType, correlationID),
		State:         State{CollectionID: collectionID, ProductIDs: []types.ID{}},
	}
	p.RaiseEvent("created", map[string]any{}, eventstore.ToPayloadMap(p.State))
	return p, nil
}

// Append inserts productID at position, clamped to
// [0, len(ProductIDs)] - a negative position prepends, a position past
// the end appends.
func (p *CollectionProductPositions) Append(productID types.ID, position int) error {
	for _, id := range p.ProductIDs {
		if id == productID {
			return apperrors.ConstraintViolated("product is already positioned within this collection")
		}
	}
	if position < 0 {
		position = 0
	}
	if position > len(p.ProductIDs) {
		position = len(p.ProductIDs)
	}
	prior := map[string]any{"productIds": idsToAny(p.ProductIDs)}
	next := make([]types.ID, 0, len(p.ProductIDs)+1)
	next = append(next, p.ProductIDs[:position]...)
	next = append(next, productID)
	next = append(next, p.ProductIDs[position:]...)
	p.ProductIDs = next
	p.RaiseEvent("product_appended", prior, map[string]any{"collectionId": p.CollectionID, "productIds": idsToAny(p.ProductIDs)})
	return nil
}

func (p *CollectionProductPositions) Remove(productID types.ID) error {
	idx := -1
	for i, id := range p.ProductIDs {
		if id == productID {
			idx = i
			break
		}
	}
	if idx == -1 {
		return apperrors.NotFound("collectionProductPosition", productID.String())
	}
	prior := map[string]any{"productIds": idsToAny(p.ProductIDs)}
	next := make([]types.ID, 0, len(p.ProductIDs)-1)
	next = append(next, p.ProductIDs[:idx]...)
	next = append(next, p.ProductIDs[idx+1:]...)
	p.ProductIDs = next
	p.RaiseEvent("product_removed", prior, map[string]any{"collectionId": p.CollectionID, "productIds": idsToAny(p.ProductIDs)})
	return nil
}

func (p *CollectionProductPositions) Reorder(newOrder []types.ID) error {
	if len(newOrder) != len(p.ProductIDs) {
		return apperrors.Validation("reorder must include every positioned product exactly once", nil)
	}
	present := make(map[types.ID]bool, len(p.ProductIDs))
	for _, id := range p.ProductIDs {
		present[id] = true
	}
	seen := make(map[types.ID]bool, len(newOrder))
	for _, id := range newOrder {
		if !present[id] {
			return apperrors.Validation("reorder references a product not positioned in this collection", map[string]string{"productId": id.String()})
		}
		if seen[id] {
			return apperrors.Validation("reorder must include every positioned product exactly once", nil)
		}
		seen[id] = true
	}
	prior := map[string]any{"productIds": idsToAny(p.ProductIDs)}
	p.ProductIDs = newOrder
	p.RaiseEvent("reordered", prior, map[string]any{"collectionId": p.CollectionID, "productIds": idsToAny(p.ProductIDs)})
	return nil
}

func idsToAny(ids []types.ID) []any {
	out := make([]any, len(ids))
	for i, id := range ids {
		out[i] = id.String()
	}
	return out
}
