// Package patch implements the field-level diff/patch algebra of spec.md
// §4.1 (Component A): tri-state patch fields that distinguish "unchanged"
// from "set to absent" from "set to value", and the apply / is_empty /
// drop_noops / drop_fields / deverify operations over them.
//
// A mutable entity field of type T that is itself optional on the entity
// (e.g. Stop.Lat *float64) gets a patch field of type *Field[T]: a nil
// pointer is the outer "unchanged" state (and is omitted from the JSON
// wire by the enclosing struct's `omitempty`); a non-nil *Field[T] with
// Null=true is "set to absent" (encodes as JSON null); a non-nil *Field[T]
// with Null=false is "set to value" (encodes as the value). A mandatory
// entity field (e.g. Stop.Notes string) gets a patch field of type *T
// directly: nil is "unchanged", non-nil is "set to value" — there is no
// "set to absent" state because the entity field can never be absent.
package patch

import "encoding/json"

// Field is the inner Option<T> of a tri-state Option<Option<T>> patch
// field (spec.md §4.1, §9).
type Field[T any] struct {
	Null  bool
	Value T
}

// SetTo builds a Field representing "set to value".
func SetTo[T any](v T) *Field[T] {
	return &Field[T]{Value: v}
}

// SetNull builds a Field representing "set to absent".
func SetNull[T any]() *Field[T] {
	return &Field[T]{Null: true}
}

// MarshalJSON encodes Null as JSON null and a present value as itself,
// per spec.md §4.1 ("Some(None) serializes as a JSON null; Some(Some(v)) as
// v").
func (f Field[T]) MarshalJSON() ([]byte, error) {
	if f.Null {
		return []byte("null"), nil
	}
	return json.Marshal(f.Value)
}

// UnmarshalJSON decodes a JSON null into Null=true, anything else into the
// wrapped value.
func (f *Field[T]) UnmarshalJSON(data []byte) error {
	if string(data) == "null" {
		f.Null = true
		var zero T
		f.Value = zero
		return nil
	}
	f.Null = false
	return json.Unmarshal(data, &f.Value)
}

// FieldEqual reports whether a present patch Field (f, assumed non-nil —
// the outer "unchanged" case is handled by the caller before this is
// reached) already matches the entity's current optional value, given as a
// possibly-nil pointer. Used by drop_noops.
func FieldEqual[T comparable](f *Field[T], current *T) bool {
	if f.Null {
		return current == nil
	}
	return current != nil && *current == f.Value
}
