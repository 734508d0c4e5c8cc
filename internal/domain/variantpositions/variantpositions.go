// Package variantpositions implements VariantPositionsWithinProduct
// (spec.md section 3): the ordered list of a product's variant ids,
// kept as its own aggregate so reordering does not contend with the
// product aggregate's version.
package variantpositions

import (
	"github.com/meridian-commerce/core/internal/eventstore"
	apperrors "github.com/meridian-commerce/core/internal/shared/errors"
	"github.com/meridian-commerce/core/internal/shared/types"
)

const AggregateType = "variantPositionsWithinProduct"

type State struct {
	ProductID  types.ID   `json:"productId"`
	VariantIDs []types.ID `json:"variantIds"`
}

type VariantPositions struct {
	*eventstore.BaseAggregate
	State
}

func (p *VariantPositions) ToSnapshot() map[string]any { return eventstore.ToPayloadMap(p.State) }

func Hydrate(snap eventstore.Snapshot) (*VariantPositions, error) {
	var state State
	if err := eventstore.FromPayloadMap(snap.Payload, &state); err != nil {
		return nil, err
	}
	return &VariantPositions{
		BaseAggregate: eventstore.LoadBaseAggregate(snap.AggregateID, AggregateType, snap.Version, snap.CorrelationID),
		State:         state,
	}, nil
}

// Create is raised alongside the owning product's creation - the id
// is the value the product stores as variantPositionsAggregateId.
func Create(id, productID types.ID, correlationID string) (*VariantPositions, error) {
	if productID.IsZero() {
		return nil, apperrors.Validation("productId is required", nil)
	}
	p := &VariantPositions{
		BaseAggregate: eventstore.NewBaseAggregate(id, AggregateType, correlationID),
		State:         State{ProductID: productID, VariantIDs: []types.ID{}},
	}
	p.RaiseEvent("created", map[string]any{}, eventstore.ToPayloadMap(p.State))
	return p, nil
}

// Append inserts a newly created variant at position, clamped to
// [0, len(VariantIDs)] - a negative position prepends, a position past
// the end appends.
func (p *VariantPositions) Append(variantID types.ID, position int) error {
	for _, id := range p.VariantIDs {
		if id == variantID {
			return apperrors.ConstraintViolated("variant is already positioned within this product")
		}
	}
	if position < 0 {
		position = 0
	}
	if position > len(p.VariantIDs) {
		position = len(p.VariantIDs)
	}
	prior := map[string]any{"variantIds": idsToAny(p.VariantIDs)}
	next := make([]types.ID, 0, len(p.VariantIDs)+1)
	next = append(next, p.VariantIDs[:position]...)
	next = append(next, variantID)
	next = append(next, p.VariantIDs[position:]...)
	p.VariantIDs = next
	p.RaiseEvent("variant_appended", prior, map[string]any{"productId": p.ProductID, "variantIds": idsToAny(p.VariantIDs)})
	return nil
}

// Remove drops an archived variant from the order.
func (p *VariantPositions) Remove(variantID types.ID) error {
	idx := -1
	for i, id := range p.VariantIDs {
		if id == variantID {
			idx = i
			break
		}
	}
	if idx == -1 {
		return apperrors.NotFound("variantPosition", variantID.String())
	}
	prior := map[string]any{"variantIds": idsToAny(p.VariantIDs)}
	next := make([]types.ID, 0, len(p.VariantIDs)-1)
	next = append(next, p.VariantIDs[:idx]...)
	next = append(next, p.VariantIDs[idx+1:]...)
	p.VariantIDs = next
	p.RaiseEvent("variant_removed", prior, map[string]any{"productId": p.ProductID, "variantIds": idsToAny(p.VariantIDs)})
	return nil
}

// Reorder replaces the order wholesale; newOrder must be a permutation
// of the current ids.
func (p *VariantPositions) Reorder(newOrder []types.ID) error {
	if len(newOrder) != len(p.VariantIDs) {
		return apperrors.Validation("reorder must include every positioned variant exactly once", nil)
	}
	present := make(map[types.ID]bool, len(p.VariantIDs))
	for _, id := range p.VariantIDs {
		present[id] = true
	}
	seen := make(map[types.ID]bool, len(newOrder))
	for _, id := range newOrder {
		if !present[id] {
			return apperrors.Validation("reorder references a variant not positioned in this product", map[string]string{"variantId": id.String()})
		}
		if seen[id] {
			return apperrors.Validation("reorder must include every positioned variant exactly once", nil)
		}
		seen[id] = true
	}
	prior := map[string]any{"variantIds": idsToAny(p.VariantIDs)}
	p.VariantIDs = newOrder
	p.RaiseEvent("reordered", prior, map[string]any{"productId": p.ProductID, "variantIds": idsToAny(p.VariantIDs)})
	return nil
}

func idsToAny(ids []types.ID) []any {
	out := make([]any, len(ids))
	for i, id := range ids {
		out[i] = id.String()
	}
	return out
}
