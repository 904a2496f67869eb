// Package patch provides optional fields for partial-update request bodies.
//
// A Field distinguishes three states decoded from JSON: the key was absent
// (no-op), the key was present with null (clear), or the key carried a value
// (set).
package patch

import (
	"bytes"
	"encoding/json"
)

// Field is one optional member of a patch body.
type Field[T any] struct {
	Set   bool
	Null  bool
	Value T
}

// Of returns a Field set to v.
func Of[T any](v T) Field[T] {
	return Field[T]{Set: true, Value: v}
}

// Null returns a Field explicitly cleared.
func Null[T any]() Field[T] {
	return Field[T]{Set: true, Null: true}
}

// UnmarshalJSON is only invoked when the key is present in the body.
func (f *Field[T]) UnmarshalJSON(data []byte) error {
	f.Set = true
	if bytes.Equal(bytes.TrimSpace(data), []byte("null")) {
		f.Null = true
		var zero T
		f.Value = zero
		return nil
	}
	f.Null = false
	return json.Unmarshal(data, &f.Value)
}

// MarshalJSON writes null for absent or cleared fields.
func (f Field[T]) MarshalJSON() ([]byte, error) {
	if !f.Set || f.Null {
		return []byte("null"), nil
	}
	return json.Marshal(f.Value)
}

// HasValue reports whether the field carries a non-null value.
func (f Field[T]) HasValue() bool {
	return f.Set && !f.Null
}
