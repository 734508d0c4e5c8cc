package projection

import (
	"encoding/json"
	"time"
)

// str, strPtr, intOf, int64Of and timeOf pull typed values back out of
// an event's NewState payload map, which came through JSON decoding
// (so numbers are float64 and timestamps are RFC3339 strings) rather
// than the typed aggregate state struct itself.

func str(m map[string]any, key string) string {
	v, _ := m[key].(string)
	return v
}

func strPtr(m map[string]any, key string) *string {
	v, ok := m[key]
	if !ok || v == nil {
		return nil
	}
	s, ok := v.(string)
	if !ok || s == "" {
		return nil
	}
	return &s
}

func intOf(m map[string]any, key string) int {
	f, _ := m[key].(float64)
	return int(f)
}

func int64Of(m map[string]any, key string) int64 {
	f, _ := m[key].(float64)
	return int64(f)
}

func timeOf(m map[string]any, key string) *time.Time {
	s, ok := m[key].(string)
	if !ok || s == "" {
		return nil
	}
	t, err := time.Parse(time.RFC3339Nano, s)
	if err != nil {
		return nil
	}
	return &t
}

// jsonObjOf is jsonOf's counterpart for columns whose empty default is
// a JSON object rather than an array.
func jsonObjOf(v any) []byte {
	if v == nil {
		return []byte("{}")
	}
	b, err := json.Marshal(v)
	if err != nil || string(b) == "null" {
		return []byte("{}")
	}
	return b
}

// jsonOf marshals a decoded payload field (already map[string]any or
// []any from the event's own JSON decoding) back into bytes for a
// jsonb view column. Nil becomes an empty JSON array, matching the
// view tables' NOT NULL DEFAULT '[]'/'{}' columns.
func jsonOf(v any) []byte {
	if v == nil {
		v = []any{}
	}
	b, err := json.Marshal(v)
	if err != nil {
		return []byte("[]")
	}
	return b
}
