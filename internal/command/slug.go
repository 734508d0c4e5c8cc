package command

import (
	"context"

	"github.com/meridian-commerce/core/internal/domain/slugreservation"
	apperrors "github.com/meridian-commerce/core/internal/shared/errors"
	"github.com/meridian-commerce/core/internal/shared/types"
	"github.com/meridian-commerce/core/internal/unitofwork"
)

// reserveSlug claims slug for (entityID, entityType), reusing a
// released reservation's aggregate identity if one exists rather than
// creating a second aggregate on the same id. Returns constraint_violated
// if the slug is currently active under any entity.
func reserveSlug(ctx context.Context, t *txn, slug types.ID, entityID types.ID, entityType, correlationID string) error {
	existing, err := t.slugs.Find(ctx, slug)
	if err != nil && apperrors.Of(err) != apperrors.KindNotFound {
		return err
	}
	if err == nil {
		if existing.Status == slugreservation.StatusActive {
			return apperrors.ConstraintViolated("slug \"" + slug.String() + "\" is already in use")
		}
		if err := existing.Reactivate(entityID, entityType); err != nil {
			return err
		}
		t.slugs.Save(existing, unitofwork.At(existing.Version()))
		return nil
	}

	reservation, err := slugreservation.Reserve(slug, entityID, entityType, correlationID)
	if err != nil {
		return err
	}
	t.slugs.Save(reservation, unitofwork.Absent())
	return nil
}

// releaseSlug marks an active reservation released with an optional
// forwarding target, used when an entity's canonical slug changes.
func releaseSlug(ctx context.Context, t *txn, slug types.ID, forwardsTo string) error {
	reservation, err := t.slugs.Find(ctx, slug)
	if err != nil {
		return err
	}
	if err := reservation.Release(); err != nil {
		return err
	}
	if forwardsTo != "" {
		if err := reservation.RedirectTo(forwardsTo); err != nil {
			return err
		}
	}
	t.slugs.Save(reservation, unitofwork.At(reservation.Version()))
	return nil
}
