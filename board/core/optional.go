// ABOUTME: OptionalField[T] implements 3-state JSON semantics: absent, null, or value.
// ABOUTME: Partial card updates use it to tell "leave alone" apart from "clear".
package core

import (
	"bytes"
	"encoding/json"
)

// OptionalField represents a field that can be absent, explicitly null, or have a value.
//
//   - Set=false:             field absent (don't update)
//   - Set=true, Valid=false: field is null (clear the value)
//   - Set=true, Valid=true:  field has a value (set to Value)
//
// Decoding a struct with OptionalField members leaves missing keys absent
// because encoding/json only calls UnmarshalJSON for keys that are present.
type OptionalField[T any] struct {
	Set   bool
	Valid bool
	Value T
}

// Absent returns an OptionalField that represents a missing field.
func Absent[T any]() OptionalField[T] {
	return OptionalField[T]{}
}

// Null returns an OptionalField that represents an explicit null.
func Null[T any]() OptionalField[T] {
	return OptionalField[T]{Set: true}
}

// Present returns an OptionalField with a concrete value.
func Present[T any](v T) OptionalField[T] {
	return OptionalField[T]{Set: true, Valid: true, Value: v}
}

// Ptr returns the value as a pointer, nil when null or absent.
func (o OptionalField[T]) Ptr() *T {
	if !o.Valid {
		return nil
	}
	v := o.Value
	return &v
}

// MarshalJSON emits null unless the field holds a value.
func (o OptionalField[T]) MarshalJSON() ([]byte, error) {
	if !o.Set || !o.Valid {
		return []byte("null"), nil
	}
	return json.Marshal(o.Value)
}

// UnmarshalJSON sets the field state based on the JSON value.
// A JSON null sets Set=true, Valid=false. Any other value sets both true.
func (o *OptionalField[T]) UnmarshalJSON(data []byte) error {
	o.Set = true
	if bytes.Equal(bytes.TrimSpace(data), []byte("null")) {
		o.Valid = false
		return nil
	}
	o.Valid = true
	return json.Unmarshal(data, &o.Value)
}
