// Package schedule implements the Schedule aggregate (spec.md section
// 3): a deferred command to be replayed against a target aggregate at
// or after scheduledFor, with retry/backoff tracked on the aggregate
// itself so the scheduler component (H) stays a dumb poller.
package schedule

import (
	"encoding/json"
	"time"

	"github.com/meridian-commerce/core/internal/eventstore"
	apperrors "github.com/meridian-commerce/core/internal/shared/errors"
	"github.com/meridian-commerce/core/internal/shared/types"
)

const AggregateType = "schedule"

type Status string

const (
	StatusPending   Status = "pending"
	StatusExecuting Status = "executing"
	StatusCompleted Status = "completed"
	StatusFailed    Status = "failed"
	StatusCancelled Status = "cancelled"
)

type State struct {
	TargetAggregateID   types.ID        `json:"targetAggregateId"`
	TargetAggregateType string          `json:"targetAggregateType"`
	CommandType         string          `json:"commandType"`
	CommandData         json.RawMessage `json:"commandData"`
	ScheduledFor        time.Time       `json:"scheduledFor"`
	Status              Status          `json:"status"`
	RetryCount          int             `json:"retryCount"`
	NextRetryAt         *time.Time      `json:"nextRetryAt,omitempty"`
	ErrorMessage        string          `json:"errorMessage,omitempty"`
}

type Schedule struct {
	*eventstore.BaseAggregate
	State
}

func (s *Schedule) ToSnapshot() map[string]any { return eventstore.ToPayloadMap(s.State) }

func Hydrate(snap eventstore.Snapshot) (*Schedule, error) {
	var state State
	if err := eventstore.FromPayloadMap(snap.Payload, &state); err != nil {
		return nil, err
	}
	return &Schedule{
		BaseAggregate: eventstore.LoadBaseAggregate(snap.AggregateID, AggregateType, snap.Version, snap.CorrelationID),
		State:         state,
	}, nil
}

type CreateParams struct {
	ID                  types.ID
	TargetAggregateID   types.ID
	TargetAggregateType string
	CommandType         string
	CommandData         json.RawMessage
	ScheduledFor        time.Time
	CorrelationID       string
}

func Create(p CreateParams) (*Schedule, error) {
	if p.TargetAggregateID.IsZero() {
		return nil, apperrors.Validation("targetAggregateId is required", nil)
	}
	if p.TargetAggregateType == "" {
		return nil, apperrors.Validation("targetAggregateType is required", nil)
	}
	if p.CommandType == "" {
		return nil, apperrors.Validation("commandType is required", nil)
	}
	if p.ScheduledFor.Before(time.Now().UTC()) {
		return nil, apperrors.Validation("scheduledFor must be in the future", nil)
	}

	s := &Schedule{
		BaseAggregate: eventstore.NewBaseAggregate(p.ID, AggregateType, p.CorrelationID),
		State: State{
			TargetAggregateID:   p.TargetAggregateID,
			TargetAggregateType: p.TargetAggregateType,
			CommandType:         p.CommandType,
			CommandData:         p.CommandData,
			ScheduledFor:        p.ScheduledFor,
			Status:              StatusPending,
		},
	}
	s.RaiseEvent("created", map[string]any{}, eventstore.ToPayloadMap(s.State))
	return s, nil
}

// BeginExecution is called by the scheduler just before it dispatches
// the target command, so a crash mid-dispatch shows up as "executing"
// rather than silently re-firing forever.
func (s *Schedule) BeginExecution() error {
	if s.Status != StatusPending {
		return apperrors.Validation("only a pending schedule can begin execution", map[string]string{"status": string(s.Status)})
	}
	prior := map[string]any{"status": s.Status}
	s.Status = StatusExecuting
	s.RaiseEvent("execution_started", prior, map[string]any{"status": s.Status})
	return nil
}

func (s *Schedule) Complete() error {
	if s.Status != StatusExecuting {
		return apperrors.Validation("only an executing schedule can complete", map[string]string{"status": string(s.Status)})
	}
	prior := map[string]any{"status": s.Status}
	s.Status = StatusCompleted
	s.RaiseEvent("completed", prior, map[string]any{"status": s.Status})
	return nil
}

// Fail records a failed dispatch attempt. The scheduler, not this
// aggregate, decides the backoff duration (internal/outbox.Backoff) -
// this method only persists the outcome.
func (s *Schedule) Fail(errMsg string, nextRetryAt *time.Time, maxAttempts int) error {
	if s.Status != StatusExecuting {
		return apperrors.Validation("only an executing schedule can fail", map[string]string{"status": string(s.Status)})
	}
	prior := map[string]any{
		"status":       s.Status,
		"retryCount":   s.RetryCount,
		"nextRetryAt":  s.NextRetryAt,
		"errorMessage": s.ErrorMessage,
	}
	s.RetryCount++
	s.ErrorMessage = errMsg
	if s.RetryCount >= maxAttempts {
		s.Status = StatusFailed
		s.NextRetryAt = nil
	} else {
		s.Status = StatusPending
		s.NextRetryAt = nextRetryAt
	}
	s.RaiseEvent("execution_failed", prior, map[string]any{
		"status":       s.Status,
		"retryCount":   s.RetryCount,
		"nextRetryAt":  s.NextRetryAt,
		"errorMessage": s.ErrorMessage,
	})
	return nil
}

func (s *Schedule) Cancel() error {
	if s.Status == StatusCompleted || s.Status == StatusCancelled {
		return apperrors.Validation("schedule is already terminal", map[string]string{"status": string(s.Status)})
	}
	prior := map[string]any{"status": s.Status}
	s.Status = StatusCancelled
	s.RaiseEvent("cancelled", prior, map[string]any{"status": s.Status})
	return nil
}
