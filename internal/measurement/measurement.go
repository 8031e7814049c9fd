// Package measurement provides the "optional measurement of T" value
// used throughout decoded console data: a scalar plus a validity
// flag. An invalid Value marshals to JSON null rather than to a
// sentinel; packet types omit such a field entirely by exposing it
// through Ptr with omitempty. Arithmetic and comparison only make sense on
// valid values, so Value deliberately offers no operators of its own
// — callers unwrap with Get before doing arithmetic.
package measurement

import "encoding/json"

// Value holds a decoded scalar of type T together with whether the
// underlying wire field actually carried data (as opposed to the
// field's "dashed" sentinel).
type Value[T any] struct {
	v     T
	valid bool
}

// Valid constructs a Value holding v, marked valid.
func Valid[T any](v T) Value[T] {
	return Value[T]{v: v, valid: true}
}

// Invalid constructs a Value with no underlying data.
func Invalid[T any]() Value[T] {
	return Value[T]{}
}

// IsValid reports whether the value carries real data.
func (m Value[T]) IsValid() bool {
	return m.valid
}

// Get returns the underlying value and whether it is valid, mirroring
// the comma-ok idiom used for map lookups.
func (m Value[T]) Get() (T, bool) {
	return m.v, m.valid
}

// MustGet returns the underlying value, panicking if it is invalid.
// Reserved for call sites that have already checked IsValid or that
// hold an invariant guaranteeing validity (e.g. a field with no
// documented sentinel).
func (m Value[T]) MustGet() T {
	if !m.valid {
		panic("measurement: MustGet on invalid value")
	}
	return m.v
}

// OrElse returns the underlying value if valid, otherwise fallback.
func (m Value[T]) OrElse(fallback T) T {
	if m.valid {
		return m.v
	}
	return fallback
}

// Ptr returns a pointer to the underlying value when valid, or nil
// when invalid. Packet structs expose their JSON-facing fields as
// `*T` with `json:",omitempty"` built from this, since encoding/json's
// omitempty never treats a struct value as empty but does treat a nil
// pointer that way — this is how "omitted from JSON when invalid" is
// actually achieved on the wire.
func (m Value[T]) Ptr() *T {
	if !m.valid {
		return nil
	}
	v := m.v
	return &v
}

// MarshalJSON renders a valid measurement as its underlying value and
// an invalid one as JSON null, so that an enclosing struct using
// `json:"...,omitempty"` on a pointer-shaped field — or a caller
// filtering null fields before transmission — reproduces the "omitted
// when invalid" rule from the wire protocol. Embedding types commonly
// use omitempty on *Value[T] fields to fully omit rather than null.
func (m Value[T]) MarshalJSON() ([]byte, error) {
	if !m.valid {
		return []byte("null"), nil
	}
	return json.Marshal(m.v)
}

// UnmarshalJSON is the dual of MarshalJSON: null decodes to an
// invalid Value, anything else decodes the underlying type.
func (m *Value[T]) UnmarshalJSON(data []byte) error {
	if string(data) == "null" {
		*m = Invalid[T]()
		return nil
	}
	var v T
	if err := json.Unmarshal(data, &v); err != nil {
		return err
	}
	*m = Valid(v)
	return nil
}
