package eventstore

import "encoding/json"

// ToPayloadMap round-trips a typed state struct through JSON into a
// map[string]any suitable for a snapshot/event payload. Every
// aggregate's ToSnapshot and RaiseEvent prior/new state use this
// instead of hand-written field-by-field conversion.
func ToPayloadMap(v any) map[string]any {
	data, err := json.Marshal(v)
	if err != nil {
		return map[string]any{}
	}
	var m map[string]any
	if err := json.Unmarshal(data, &m); err != nil {
		return map[string]any{}
	}
	return m
}

// FromPayloadMap reverses ToPayloadMap, decoding a payload map into a
// typed state struct.
func FromPayloadMap(m map[string]any, out any) error {
	data, err := json.Marshal(m)
	if err != nil {
		return err
	}
	return json.Unmarshal(data, out)
}
