// Package command holds one service per (aggregate, operation) pair
// (component E): validate input, load aggregates through a fresh Unit
// of Work, invoke domain methods, commit. Grounded on the teacher's
// case/api/http.go request-handling shape combined with
// case/domain/case.go's aggregate method calls, generalized from a
// single aggregate type to cross-aggregate orchestration (slug
// reservations, position lists) per spec.md section 4.E.
package command

import (
	"encoding/json"
	"fmt"

	"github.com/meridian-commerce/core/internal/unitofwork"
)

// Version carries an expectedVersion from a command envelope, which is
// either an integer (ordinary optimistic-concurrency check) or the
// string "absent" (genesis - the aggregate must not exist yet). See
// DESIGN.md's Open Question 1 decision: these are two distinct code
// paths, not a -1 overload.
type Version struct {
	raw json.RawMessage
}

func (v *Version) UnmarshalJSON(data []byte) error {
	v.raw = append(json.RawMessage(nil), data...)
	return nil
}

func (v Version) MarshalJSON() ([]byte, error) {
	if v.raw == nil {
		return []byte(`"absent"`), nil
	}
	return v.raw, nil
}

// Absent constructs a Version representing the genesis sentinel,
// useful for tests and for services that always create.
func Absent() Version {
	raw, _ := json.Marshal("absent")
	return Version{raw: raw}
}

// At constructs a Version wrapping an ordinary numeric expectedVersion.
func At(version int) Version {
	raw, _ := json.Marshal(version)
	return Version{raw: raw}
}

// ToExpected resolves the wrapped value into an unitofwork.ExpectedVersion.
func (v Version) ToExpected() (unitofwork.ExpectedVersion, error) {
	if len(v.raw) == 0 {
		return unitofwork.ExpectedVersion{}, fmt.Errorf("expectedVersion is required")
	}
	var s string
	if err := json.Unmarshal(v.raw, &s); err == nil {
		if s != "absent" {
			return unitofwork.ExpectedVersion{}, fmt.Errorf("invalid expectedVersion string %q", s)
		}
		return unitofwork.Absent(), nil
	}
	var n int
	if err := json.Unmarshal(v.raw, &n); err != nil {
		return unitofwork.ExpectedVersion{}, fmt.Errorf("expectedVersion must be an integer or \"absent\"")
	}
	return unitofwork.At(n), nil
}
