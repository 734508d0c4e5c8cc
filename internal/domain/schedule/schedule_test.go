package schedule

import (
	"testing"
	"time"

	"github.com/meridian-commerce/core/internal/shared/types"
)

func validParams() CreateParams {
	return CreateParams{
		ID:                  types.NewID(),
		TargetAggregateID:   types.NewID(),
		TargetAggregateType: "product",
		CommandType:         "scheduleDropshipVisibleDrop",
		ScheduledFor:        time.Now().UTC().Add(time.Hour),
	}
}

func TestCreate(t *testing.T) {
	if _, err := Create(validParams()); err != nil {
		t.Fatalf("expected no error, got %v", err)
	}

	past := validParams()
	past.ScheduledFor = time.Now().UTC().Add(-time.Hour)
	if _, err := Create(past); err == nil {
		t.Error("expected error scheduling a time in the past")
	}

	noTarget := validParams()
	noTarget.TargetAggregateID = types.ID("")
	if _, err := Create(noTarget); err == nil {
		t.Error("expected error without a targetAggregateId")
	}

	noCommand := validParams()
	noCommand.CommandType = ""
	if _, err := Create(noCommand); err == nil {
		t.Error("expected error without a commandType")
	}
}

func TestExecutionLifecycle(t *testing.T) {
	s, _ := Create(validParams())

	if err := s.Complete(); err == nil {
		t.Error("expected error completing a pending (not-yet-executing) schedule")
	}

	if err := s.BeginExecution(); err != nil {
		t.Fatalf("failed to begin execution: %v", err)
	}
	if s.Status != StatusExecuting {
		t.Errorf("expected status %s, got %s", StatusExecuting, s.Status)
	}
	if err := s.BeginExecution(); err == nil {
		t.Error("expected error beginning execution twice")
	}

	if err := s.Complete(); err != nil {
		t.Fatalf("failed to complete: %v", err)
	}
	if s.Status != StatusCompleted {
		t.Errorf("expected status %s, got %s", StatusCompleted, s.Status)
	}
}

func TestFailRetriesThenTerminates(t *testing.T) {
	s, _ := Create(validParams())
	s.BeginExecution()

	retryAt := time.Now().UTC().Add(time.Minute)
	if err := s.Fail("transient error", &retryAt, 3); err != nil {
		t.Fatalf("failed to record failure: %v", err)
	}
	if s.Status != StatusPending {
		t.Errorf("expected status %s after a retriable failure, got %s", StatusPending, s.Status)
	}
	if s.RetryCount != 1 {
		t.Errorf("expected retryCount 1, got %d", s.RetryCount)
	}
	if s.NextRetryAt == nil {
		t.Error("expected nextRetryAt to be set on a retriable failure")
	}

	s.BeginExecution()
	if err := s.Fail("still failing", &retryAt, 2); err != nil {
		t.Fatalf("failed to record second failure: %v", err)
	}
	if s.Status != StatusFailed {
		t.Errorf("expected status %s once retryCount reaches maxAttempts, got %s", StatusFailed, s.Status)
	}
	if s.NextRetryAt != nil {
		t.Error("expected nextRetryAt to be cleared on a terminal failure")
	}
}

func TestCancel(t *testing.T) {
	s, _ := Create(validParams())
	if err := s.Cancel(); err != nil {
		t.Fatalf("failed to cancel: %v", err)
	}
	if s.Status != StatusCancelled {
		t.Errorf("expected status %s, got %s", StatusCancelled, s.Status)
	}
	if err := s.Cancel(); err == nil {
		t.Error("expected error cancelling an already terminal schedule")
	}
}
