package eventstore

import "testing"

type sampleState struct {
	Name  string `json:"name"`
	Count int    `json:"count"`
}

func TestToPayloadMapAndBack(t *testing.T) {
	s := sampleState{Name: "widget", Count: 3}

	m := ToPayloadMap(s)
	if m["name"] != "widget" {
		t.Errorf("expected name widget, got %v", m["name"])
	}
	if m["count"].(float64) != 3 {
		t.Errorf("expected count 3, got %v", m["count"])
	}

	var out sampleState
	if err := FromPayloadMap(m, &out); err != nil {
		t.Fatalf("failed to round-trip payload map: %v", err)
	}
	if out != s {
		t.Errorf("expected %+v after round-trip, got %+v", s, out)
	}
}

func TestEventNameDerivation(t *testing.T) {
	tests := []struct {
		aggregateType string
		verb          string
		expected      string
	}{
		{"product", "created", "product.created"},
		{"variantPositionsWithinProduct", "variantAppended", "variantPositionsWithinProduct.variant_appended"},
		{"Schedule", "ExecutionStarted", "schedule.execution_started"},
	}
	for _, tt := range tests {
		if got := EventName(tt.aggregateType, tt.verb); got != tt.expected {
			t.Errorf("EventName(%q, %q) = %q, want %q", tt.aggregateType, tt.verb, got, tt.expected)
		}
	}
}

func TestRaiseEventAssignsSequentialVersions(t *testing.T) {
	agg := NewBaseAggregate("agg-1", "product", "")
	agg.RaiseEvent("created", map[string]any{}, map[string]any{"status": "draft"})
	agg.RaiseEvent("published", map[string]any{"status": "draft"}, map[string]any{"status": "active"})

	events := agg.GetUncommittedEvents()
	if len(events) != 2 {
		t.Fatalf("expected 2 uncommitted events, got %d", len(events))
	}
	if events[0].Version != 0 || events[1].Version != 1 {
		t.Errorf("expected versions 0 and 1, got %d and %d", events[0].Version, events[1].Version)
	}

	agg.ClearUncommittedEvents()
	if agg.Version() != 2 {
		t.Errorf("expected version 2 after clearing, got %d", agg.Version())
	}
	if len(agg.GetUncommittedEvents()) != 0 {
		t.Error("expected no uncommitted events after clearing")
	}
}
