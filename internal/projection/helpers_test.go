package projection

import (
	"testing"
	"time"
)

func TestStrAndStrPtr(t *testing.T) {
	m := map[string]any{"name": "widget", "empty": "", "missing_ignored": nil}

	if got := str(m, "name"); got != "widget" {
		t.Errorf("str() = %q, want widget", got)
	}
	if got := str(m, "absent"); got != "" {
		t.Errorf("str() for a missing key = %q, want empty string", got)
	}

	if p := strPtr(m, "name"); p == nil || *p != "widget" {
		t.Error("strPtr() should return a pointer to the value")
	}
	if p := strPtr(m, "empty"); p != nil {
		t.Error("strPtr() should treat an empty string as absent")
	}
	if p := strPtr(m, "absent"); p != nil {
		t.Error("strPtr() should return nil for a missing key")
	}
}

func TestIntOfAndInt64Of(t *testing.T) {
	m := map[string]any{"count": float64(42), "big": float64(9000000000)}

	if got := intOf(m, "count"); got != 42 {
		t.Errorf("intOf() = %d, want 42", got)
	}
	if got := intOf(m, "missing"); got != 0 {
		t.Errorf("intOf() for a missing key = %d, want 0", got)
	}
	if got := int64Of(m, "big"); got != 9000000000 {
		t.Errorf("int64Of() = %d, want 9000000000", got)
	}
}

func TestTimeOf(t *testing.T) {
	m := map[string]any{"publishedAt": "2026-01-15T10:00:00Z", "blank": ""}

	got := timeOf(m, "publishedAt")
	if got == nil {
		t.Fatal("expected a non-nil time")
	}
	want := time.Date(2026, 1, 15, 10, 0, 0, 0, time.UTC)
	if !got.Equal(want) {
		t.Errorf("timeOf() = %v, want %v", got, want)
	}

	if timeOf(m, "blank") != nil {
		t.Error("timeOf() should return nil for a blank string")
	}
	if timeOf(m, "missing") != nil {
		t.Error("timeOf() should return nil for a missing key")
	}
}

func TestJSONOfDefaultsToEmptyArray(t *testing.T) {
	if got := string(jsonOf(nil)); got != "[]" {
		t.Errorf("jsonOf(nil) = %s, want []", got)
	}
	if got := string(jsonOf([]any{"a", "b"})); got != `["a","b"]` {
		t.Errorf("jsonOf([a b]) = %s, want [\"a\",\"b\"]", got)
	}
}

func TestJSONObjOfDefaultsToEmptyObject(t *testing.T) {
	if got := string(jsonObjOf(nil)); got != "{}" {
		t.Errorf("jsonObjOf(nil) = %s, want {}", got)
	}
	if got := string(jsonObjOf(map[string]any{"a": "b"})); got != `{"a":"b"}` {
		t.Errorf("jsonObjOf(map) = %s, want {\"a\":\"b\"}", got)
	}
}
