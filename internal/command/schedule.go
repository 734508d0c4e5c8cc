package command

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"github.com/meridian-commerce/core/internal/domain/product"
	"github.com/meridian-commerce/core/internal/domain/schedule"
	apperrors "github.com/meridian-commerce/core/internal/shared/errors"
	"github.com/meridian-commerce/core/internal/shared/types"
	"github.com/meridian-commerce/core/internal/unitofwork"
)

// Command type names a schedule's commandData is dispatched against by
// the scheduler (component H). The set is closed and known up front,
// so a map beats a generic command-bus lookup.
const (
	CommandPublishDropshipProduct = "publishDropshipProduct"
	CommandHideDropshipProduct    = "hideDropshipProduct"
)

type ScheduleDropshipVisibleDropParams struct {
	ProductID       types.ID  `json:"productId"`
	ScheduledFor    time.Time `json:"scheduledFor"`
	UserID          types.ID  `json:"userId"`
	CorrelationID   string    `json:"correlationId"`
	ExpectedVersion Version   `json:"expectedVersion"`
}

// ScheduleDropshipVisibleDrop creates a Schedule targeting the
// product's eventual publish, and flips the product into the
// visible_pending_drop transitional state - both in one commit
// (spec.md section 4.E's fifth worked example / section 8 scenario 5).
func (s *Service) ScheduleDropshipVisibleDrop(ctx context.Context, p ScheduleDropshipVisibleDropParams) (*CreateResult, error) {
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
	if prod.Version() != expected.Value() {
		return nil, apperrors.Conflict("product was modified concurrently")
	}
	if err := prod.EnterPendingDrop(product.StatusVisiblePendingDrop); err != nil {
		return nil, err
	}

	sched, err := schedule.Create(schedule.CreateParams{
		ID:                  types.NewID(),
		TargetAggregateID:   p.ProductID,
		TargetAggregateType: product.AggregateType,
		CommandType:         CommandPublishDropshipProduct,
		ScheduledFor:        p.ScheduledFor,
		CorrelationID:       p.CorrelationID,
	})
	if err != nil {
		return nil, err
	}

	t.products.Save(prod, expected)
	t.schedules.Save(sched, unitofwork.Absent())

	if err := t.commit(ctx); err != nil {
		return nil, err
	}
	return &CreateResult{ID: sched.AggregateID(), Version: sched.Version()}, nil
}

type ScheduleDropshipHiddenDropParams struct {
	ProductID       types.ID  `json:"productId"`
	ScheduledFor    time.Time `json:"scheduledFor"`
	UserID          types.ID  `json:"userId"`
	CorrelationID   string    `json:"correlationId"`
	ExpectedVersion Version   `json:"expectedVersion"`
}

// ScheduleDropshipHiddenDrop mirrors ScheduleDropshipVisibleDrop for the
// other half of the dropship specialization: it creates a Schedule
// targeting the product's eventual archive, and flips the product into
// the hidden_pending_drop transitional state in the same commit.
func (s *Service) ScheduleDropshipHiddenDrop(ctx context.Context, p ScheduleDropshipHiddenDropParams) (*CreateResult, error) {
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
	if prod.Version() != expected.Value() {
		return nil, apperrors.Conflict("product was modified concurrently")
	}
	if err := prod.EnterPendingDrop(product.StatusHiddenPendingDrop); err != nil {
		return nil, err
	}

	sched, err := schedule.Create(schedule.CreateParams{
		ID:                  types.NewID(),
		TargetAggregateID:   p.ProductID,
		TargetAggregateType: product.AggregateType,
		CommandType:         CommandHideDropshipProduct,
		ScheduledFor:        p.ScheduledFor,
		CorrelationID:       p.CorrelationID,
	})
	if err != nil {
		return nil, err
	}

	t.products.Save(prod, expected)
	t.schedules.Save(sched, unitofwork.Absent())

	if err := t.commit(ctx); err != nil {
		return nil, err
	}
	return &CreateResult{ID: sched.AggregateID(), Version: sched.Version()}, nil
}

type CancelScheduleParams struct {
	ID              types.ID `json:"id"`
	UserID          types.ID `json:"userId"`
	CorrelationID   string   `json:"correlationId"`
	ExpectedVersion Version  `json:"expectedVersion"`
}

func (s *Service) CancelSchedule(ctx context.Context, p CancelScheduleParams) (*CreateResult, error) {
	expected, err := p.ExpectedVersion.ToExpected()
	if err != nil {
		return nil, apperrors.Validation(err.Error(), nil)
	}

	t, err := s.begin(ctx)
	if err != nil {
		return nil, err
	}
	defer t.rollback(ctx)

	sched, err := t.schedules.Find(ctx, p.ID)
	if err != nil {
		return nil, err
	}
	if sched.Version() != expected.Value() {
		return nil, apperrors.Conflict("schedule was modified concurrently")
	}
	if err := sched.Cancel(); err != nil {
		return nil, err
	}

	t.schedules.Save(sched, expected)
	if err := t.commit(ctx); err != nil {
		return nil, err
	}
	return &CreateResult{ID: sched.AggregateID(), Version: sched.Version()}, nil
}

// BeginScheduleExecution flips a pending schedule to executing, in its
// own commit, so a crash mid-dispatch is observable rather than
// silently re-firing forever. Returns the not-pending case as a plain
// false (not an error) so the scheduler can skip it - another ticker
// instance may have already claimed it.
func (s *Service) BeginScheduleExecution(ctx context.Context, id types.ID) (*schedule.Schedule, bool, error) {
	t, err := s.begin(ctx)
	if err != nil {
		return nil, false, err
	}
	defer t.rollback(ctx)

	sched, err := t.schedules.Find(ctx, id)
	if err != nil {
		return nil, false, err
	}
	if sched.Status != schedule.StatusPending {
		return sched, false, nil
	}
	expected := sched.Version()
	if err := sched.BeginExecution(); err != nil {
		return nil, false, err
	}
	t.schedules.Save(sched, unitofwork.At(expected))
	if err := t.commit(ctx); err != nil {
		return nil, false, err
	}
	return sched, true, nil
}

// CompleteSchedule marks an executing schedule completed, in its own
// commit, after the target command has already succeeded.
func (s *Service) CompleteSchedule(ctx context.Context, id types.ID, expectedVersion int) error {
	t, err := s.begin(ctx)
	if err != nil {
		return err
	}
	defer t.rollback(ctx)

	sched, err := t.schedules.Find(ctx, id)
	if err != nil {
		return err
	}
	if err := sched.Complete(); err != nil {
		return err
	}
	t.schedules.Save(sched, unitofwork.At(expectedVersion))
	return t.commit(ctx)
}

// FailSchedule records a failed dispatch attempt, retrying with
// backoff until maxAttempts is reached (spec.md section 4.H steps 4-5).
func (s *Service) FailSchedule(ctx context.Context, id types.ID, expectedVersion int, errMsg string, nextRetryAt *time.Time, maxAttempts int) error {
	t, err := s.begin(ctx)
	if err != nil {
		return err
	}
	defer t.rollback(ctx)

	sched, err := t.schedules.Find(ctx, id)
	if err != nil {
		return err
	}
	if err := sched.Fail(errMsg, nextRetryAt, maxAttempts); err != nil {
		return err
	}
	t.schedules.Save(sched, unitofwork.At(expectedVersion))
	return t.commit(ctx)
}

// Dispatch executes the target command named by commandType against
// targetID - the scheduler's only coupling to the command layer.
// commandData is currently unused by either registered command type
// but is threaded through for command types that need extra
// parameters beyond the target id.
func (s *Service) Dispatch(ctx context.Context, commandType string, targetID types.ID, commandData json.RawMessage) error {
	switch commandType {
	case CommandPublishDropshipProduct:
		return s.mutateProductNoVersionCheck(ctx, targetID, func(prod *product.Product) error { return prod.Publish() })
	case CommandHideDropshipProduct:
		return s.mutateProductNoVersionCheck(ctx, targetID, func(prod *product.Product) error { return prod.Archive() })
	default:
		return apperrors.Validation(fmt.Sprintf("unknown scheduled commandType %q", commandType), nil)
	}
}

// mutateProductNoVersionCheck loads the product at its current version
// and mutates it - used only by the scheduler, which has no caller-
// supplied expectedVersion to compare against since the command was
// deferred. A genuine conflict can still surface here if the commit's
// own append races another writer; it is reported as an
// optimistic_concurrency_conflict like any other.
func (s *Service) mutateProductNoVersionCheck(ctx context.Context, id types.ID, mutate func(*product.Product) error) error {
	t, err := s.begin(ctx)
	if err != nil {
		return err
	}
	defer t.rollback(ctx)

	prod, err := t.products.Find(ctx, id)
	if err != nil {
		return err
	}
	expected := prod.Version()
	if err := mutate(prod); err != nil {
		return err
	}
	t.products.Save(prod, unitofwork.At(expected))
	return t.commit(ctx)
}
