package entity

import (
	"fmt"
	"reflect"

	"shoal/internal/types"
)

// structValue returns the addressable reflect.Value of e's underlying
// struct. e must be a non-nil pointer (New always returns one), so the
// field is settable; a non-pointer Entity is rejected with an error.
func structValue(e Entity) (reflect.Value, error) {
	rv := reflect.ValueOf(e)
	if rv.Kind() != reflect.Ptr || rv.IsNil() {
		return reflect.Value{}, fmt.Errorf("entity: %T must be a non-nil pointer", e)
	}
	return rv.Elem(), nil
}

func fieldByGoName(e Entity, goName string) (reflect.Value, error) {
	sv, err := structValue(e)
	if err != nil {
		return reflect.Value{}, err
	}
	fv := sv.FieldByName(goName)
	if !fv.IsValid() {
		return reflect.Value{}, fmt.Errorf("entity: no field %q", goName)
	}
	return fv, nil
}

// GetValue returns the current value held by field f on entity e, and
// whether it is null. For a raw (non-wrapper) field, isNull is always
// false.
func GetValue(e Entity, f FieldSpec) (value any, isNull bool, err error) {
	fv, err := fieldByGoName(e, f.goName)
	if err != nil {
		return nil, false, err
	}
	if wrapper, ok := fv.Interface().(types.Elem); ok {
		v, present := wrapper.Interface()
		return v, !present, nil
	}
	return fv.Interface(), false, nil
}

// SetValue assigns value to field f on entity e, unwrapping into a
// Nullable[T] when the field is one.
func SetValue(e Entity, f FieldSpec, value any) error {
	fv, err := fieldByGoName(e, f.goName)
	if err != nil {
		return err
	}
	if fv.CanAddr() {
		if setter, ok := fv.Addr().Interface().(types.Setter); ok {
			return setter.SetAny(value)
		}
	}
	rv := reflect.ValueOf(value)
	if !rv.Type().AssignableTo(fv.Type()) {
		if rv.Type().ConvertibleTo(fv.Type()) {
			rv = rv.Convert(fv.Type())
		} else {
			return fmt.Errorf("entity: cannot assign %T to field %q of type %s", value, f.Name, fv.Type())
		}
	}
	fv.Set(rv)
	return nil
}

// SetNull nullifies field f on entity e. Returns an error if f is not a
// nullable wrapper field.
func SetNull(e Entity, f FieldSpec) error {
	fv, err := fieldByGoName(e, f.goName)
	if err != nil {
		return err
	}
	if !fv.CanAddr() {
		return fmt.Errorf("entity: field %q is not addressable", f.Name)
	}
	setter, ok := fv.Addr().Interface().(types.Setter)
	if !ok {
		return fmt.Errorf("entity: field %q is not nullable", f.Name)
	}
	setter.NullifyAny()
	return nil
}

// New allocates a fresh zero-valued instance of the same concrete type as
// e, returned as an Entity (always a pointer).
func New(e Entity) Entity {
	rt := reflect.TypeOf(e)
	if rt.Kind() == reflect.Ptr {
		rt = rt.Elem()
	}
	return reflect.New(rt).Interface().(Entity)
}
