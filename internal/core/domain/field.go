package domain

import (
	"bytes"
	"encoding/json"
)

// Field is a tri-state value for partial updates: absent (the zero value),
// explicitly null, or set to a value.
type Field[T any] struct {
	present bool
	null    bool
	value   T
}

// Set returns a present field holding v.
func Set[T any](v T) Field[T] {
	return Field[T]{present: true, value: v}
}

// Null returns a present field explicitly cleared.
func Null[T any]() Field[T] {
	return Field[T]{present: true, null: true}
}

func (f Field[T]) IsPresent() bool { return f.present }
func (f Field[T]) IsNull() bool    { return f.present && f.null }

// Value returns the held value and true when the field is present and not null.
func (f Field[T]) Value() (T, bool) {
	if !f.present || f.null {
		var zero T
		return zero, false
	}
	return f.value, true
}

// Ptr converts a present field to nil (null) or a pointer to its value.
// It must only be called on present fields.
func (f Field[T]) Ptr() *T {
	if f.null {
		return nil
	}
	v := f.value
	return &v
}

// UnmarshalJSON is only invoked for keys present in the document, which is
// what separates an omitted key from an explicit null.
func (f *Field[T]) UnmarshalJSON(data []byte) error {
	f.present = true
	if bytes.Equal(bytes.TrimSpace(data), []byte("null")) {
		f.null = true
		var zero T
		f.value = zero
		return nil
	}
	f.null = false
	return json.Unmarshal(data, &f.value)
}
