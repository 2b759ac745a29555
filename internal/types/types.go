// Package types defines the closed, bit-flag logical column type set shared
// by entity reflection, the schema translator, and both wire backends, plus
// the Nullable[T] wrapper used for optional fields.
package types

import (
	"fmt"
	"reflect"
)

// Flag is a bitmask over the logical column type set. A backend column can
// satisfy more than one logical type at once (PostgreSQL bytea satisfies
// both Binary and Blob), so reconciliation between a declared FieldSpec and
// a live column always tests compatibility with bitwise AND, never
// equality.
type Flag uint32

const (
	Bool Flag = 1 << iota
	Byte
	Short
	Int
	Long
	Float
	Double
	Char
	String
	Binary
	Clob
	Blob
	Date
	DateTime
	Time
)

var names = map[Flag]string{
	Bool:     "Bool",
	Byte:     "Byte",
	Short:    "Short",
	Int:      "Int",
	Long:     "Long",
	Float:    "Float",
	Double:   "Double",
	Char:     "Char",
	String:   "String",
	Binary:   "Binary",
	Clob:     "Clob",
	Blob:     "Blob",
	Date:     "Date",
	DateTime: "DateTime",
	Time:     "Time",
}

// String renders the set of flags present in f, joined with "|".
func (f Flag) String() string {
	if f == 0 {
		return "none"
	}
	out := ""
	for flag := Bool; flag <= Time; flag <<= 1 {
		if f&flag == 0 {
			continue
		}
		if out != "" {
			out += "|"
		}
		out += names[flag]
	}
	return out
}

// Compatible reports whether declared and live share at least one bit —
// the universal reconciliation rule (§3, §8 property 3).
func Compatible(declared, live Flag) bool {
	return declared&live != 0
}

// Nullable is the optional-cell wrapper: a present-bit plus a value of type
// T. Lifecycle: created unset (null); Set assigns a value; Nullify clears
// it; a null result column nullifies it during bind.
type Nullable[T any] struct {
	present bool
	value   T
}

// Null returns an unset Nullable[T].
func Null[T any]() Nullable[T] {
	return Nullable[T]{}
}

// Of returns a Nullable[T] set to v.
func Of[T any](v T) Nullable[T] {
	return Nullable[T]{present: true, value: v}
}

// Set assigns v and marks the wrapper present.
func (n *Nullable[T]) Set(v T) {
	n.value = v
	n.present = true
}

// Nullify clears the wrapper back to the null state.
func (n *Nullable[T]) Nullify() {
	var zero T
	n.value = zero
	n.present = false
}

// IsNull reports whether the wrapper currently holds no value.
func (n Nullable[T]) IsNull() bool { return !n.present }

// ElemType returns the reflect.Type of T, letting entity reflection
// recognize a struct field typed Nullable[T] and recover T without knowing
// it ahead of time.
func (n Nullable[T]) ElemType() reflect.Type {
	return reflect.TypeOf((*T)(nil)).Elem()
}

// Interface returns the inner value boxed as any, and whether it was
// present, without the caller needing to know T.
func (n Nullable[T]) Interface() (any, bool) {
	if !n.present {
		return nil, false
	}
	return n.value, true
}

// SetAny assigns v, converting it to T when it isn't already (so a binder
// that only knows "this cell is an int64" can still feed an int32 field),
// and marks the wrapper present.
func (n *Nullable[T]) SetAny(v any) error {
	var zero T
	target := reflect.TypeOf(&zero).Elem()
	rv := reflect.ValueOf(v)
	if target.Kind() != reflect.Interface {
		if rv.Type().AssignableTo(target) {
			// no-op, handled below
		} else if rv.Type().ConvertibleTo(target) {
			rv = rv.Convert(target)
		} else {
			return fmt.Errorf("types: cannot assign %T to %T", v, zero)
		}
	}
	n.Set(rv.Interface().(T))
	return nil
}

// NullifyAny clears the wrapper back to the null state.
func (n *Nullable[T]) NullifyAny() { n.Nullify() }

// Setter is satisfied by *Nullable[T]; the result binder type-asserts a
// field's addressable pointer against it.
type Setter interface {
	SetAny(v any) error
	NullifyAny()
}

// Elem is the interface every Nullable[T] value satisfies; entity
// reflection type-asserts a field's zero value against it to detect the
// wrapper shape, and the translator uses it to extract values without
// knowing T ahead of time.
type Elem interface {
	ElemType() reflect.Type
	IsNull() bool
	Interface() (any, bool)
}

// Value returns the inner value and whether it was present.
func (n Nullable[T]) Value() (T, bool) { return n.value, n.present }

// MustValue returns the inner value, panicking if the wrapper is null.
// Intended for call sites that already checked IsNull.
func (n Nullable[T]) MustValue() T {
	if !n.present {
		panic("types: MustValue called on a null Nullable")
	}
	return n.value
}
