// Package entity turns a declared record type and its field tags into the
// canonical FieldSpec list the schema translator consumes (§4.2). Compile-time
// reflection is a convenience, not a requirement (spec.md §9) — this package
// uses Go's reflect package, the same way the teacher's schema layer treats
// struct tags as the single source of truth for a column's shape.
package entity

import (
	"fmt"
	"reflect"
	"strconv"
	"strings"

	"shoal/internal/types"
)

// Entity is the capability every host record type must implement. The
// table name is queried at runtime from an instance; callers must not
// assume the Go type identifier itself names the table.
type Entity interface {
	TableName() string
}

// FieldSpec canonically describes one entity field.
type FieldSpec struct {
	Name          string
	Type          types.Flag
	Length        uint
	Nullable      bool
	Unique        bool
	AutoIncrement bool
	DefaultValue  string

	goName string // original Go struct field name, for bind lookups
}

// GoName returns the originating Go struct field name.
func (f FieldSpec) GoName() string { return f.goName }

// TableSpec is the canonical description of an entity: its table name, the
// ordered field list, and the (possibly composite) primary key.
type TableSpec struct {
	TableName   string
	Fields      []FieldSpec
	PrimaryKeys []string
}

// Field looks up a field by its resolved column name.
func (t *TableSpec) Field(name string) (FieldSpec, bool) {
	for _, f := range t.Fields {
		if f.Name == name {
			return f, true
		}
	}
	return FieldSpec{}, false
}

var kindFlags = map[reflect.Kind]types.Flag{
	reflect.Bool:    types.Bool,
	reflect.Int8:    types.Byte,
	reflect.Uint8:   types.Byte,
	reflect.Int16:   types.Short,
	reflect.Uint16:  types.Short,
	reflect.Int32:   types.Int,
	reflect.Uint32:  types.Int,
	reflect.Int:     types.Int,
	reflect.Uint:    types.Int,
	reflect.Int64:   types.Long,
	reflect.Uint64:  types.Long,
	reflect.Float32: types.Float,
	reflect.Float64: types.Double,
	reflect.String:  types.String,
}

var namedTypeFlags = map[string]types.Flag{
	"time.Time": types.DateTime,
}

// Reflect builds a *TableSpec from a zero-valued Entity. It is invalid
// (returns an error) when the type cannot be instantiated with zero
// arguments or when two fields resolve to the same column name.
func Reflect(e Entity) (*TableSpec, error) {
	rv := reflect.ValueOf(e)
	for rv.Kind() == reflect.Ptr {
		if rv.IsNil() {
			rv = reflect.New(rv.Type().Elem())
		}
		rv = rv.Elem()
	}
	if rv.Kind() != reflect.Struct {
		return nil, fmt.Errorf("entity: %T is not instantiable as a struct", e)
	}

	rt := rv.Type()
	spec := &TableSpec{TableName: e.TableName()}
	seen := make(map[string]string, rt.NumField())

	for i := 0; i < rt.NumField(); i++ {
		sf := rt.Field(i)
		if !sf.IsExported() {
			continue
		}

		tag := parseTag(sf.Tag.Get("db"))
		if tag.skip {
			continue
		}

		name := tag.name
		if name == "" {
			// ToSnakeCase prefixes a leading underscore for any uppercase
			// first rune (exported Go field names always start uppercase);
			// trim it so "Name" resolves to column "name", not "_name".
			name = strings.TrimPrefix(ToSnakeCase(sf.Name), "_")
		}
		if prev, ok := seen[name]; ok {
			return nil, fmt.Errorf("entity: fields %q and %q both resolve to column %q", prev, sf.Name, name)
		}
		seen[name] = sf.Name

		flag, nullable, err := fieldType(sf.Type, tag)
		if err != nil {
			return nil, fmt.Errorf("entity: field %q: %w", sf.Name, err)
		}

		if tag.notNull || tag.autoIncrement {
			nullable = false
		}

		fs := FieldSpec{
			Name:          name,
			Type:          flag,
			Length:        tag.length,
			Nullable:      nullable,
			Unique:        tag.unique,
			AutoIncrement: tag.autoIncrement,
			DefaultValue:  tag.defaultValue,
			goName:        sf.Name,
		}
		spec.Fields = append(spec.Fields, fs)
		if tag.primaryKey {
			spec.PrimaryKeys = append(spec.PrimaryKeys, name)
		}
	}

	return spec, nil
}

// fieldType resolves a Go struct field type to its logical Flag, unwrapping
// Nullable[T] to T and reporting whether the field is inherently nullable.
// tag carries the declaring field's directives, since a bare time.Time
// resolves to one of three logical types (Date/Time/DateTime) depending on
// the date/time directive.
func fieldType(t reflect.Type, tag fieldTag) (types.Flag, bool, error) {
	zero := reflect.Zero(t).Interface()
	if wrapper, ok := zero.(types.Elem); ok {
		inner := wrapper.ElemType()
		flag, err := flagFor(inner, tag)
		if err != nil {
			return 0, false, err
		}
		return flag, true, nil
	}
	flag, err := flagFor(t, tag)
	return flag, false, err
}

func flagFor(t reflect.Type, tag fieldTag) (types.Flag, error) {
	if t.PkgPath() == "time" && t.Name() == "Time" {
		switch {
		case tag.date:
			return types.Date, nil
		case tag.time:
			return types.Time, nil
		default:
			return types.DateTime, nil
		}
	}
	if t.Kind() == reflect.Slice && t.Elem().Kind() == reflect.Uint8 {
		return types.Binary | types.Blob, nil
	}
	if flag, ok := namedTypeFlags[t.String()]; ok {
		return flag, nil
	}
	if flag, ok := kindFlags[t.Kind()]; ok {
		return flag, nil
	}
	return 0, fmt.Errorf("unsupported field type %s", t)
}

type fieldTag struct {
	skip          bool
	name          string
	primaryKey    bool
	autoIncrement bool
	notNull       bool
	unique        bool
	length        uint
	defaultValue  string
	date          bool
	time          bool
}

// parseTag reads the `db:"..."` struct tag: a comma-separated directive
// list, the same shape encoding/json and database/sql tags use so the
// convention needs no new documentation for a Go reader. "date"/"time"
// narrow a time.Time field to the Date/Time logical type instead of the
// default DateTime — otherwise those two of the 15 logical types (C2)
// would be undeclarable from a Go struct.
func parseTag(raw string) fieldTag {
	var tag fieldTag
	if raw == "-" {
		tag.skip = true
		return tag
	}
	for _, part := range strings.Split(raw, ",") {
		part = strings.TrimSpace(part)
		switch {
		case part == "":
			continue
		case part == "pk":
			tag.primaryKey = true
		case part == "auto":
			tag.autoIncrement = true
		case part == "notnull":
			tag.notNull = true
		case part == "unique":
			tag.unique = true
		case part == "date":
			tag.date = true
		case part == "time":
			tag.time = true
		case strings.HasPrefix(part, "name="):
			tag.name = strings.TrimPrefix(part, "name=")
		case strings.HasPrefix(part, "len="):
			n, err := strconv.ParseUint(strings.TrimPrefix(part, "len="), 10, 64)
			if err == nil {
				tag.length = uint(n)
			}
		case strings.HasPrefix(part, "default="):
			tag.defaultValue = strings.TrimPrefix(part, "default=")
		}
	}
	return tag
}

// ToSnakeCase is the one-shot identifier transform of §3/§8 property 1:
// every uppercase letter becomes an underscore followed by its lowercase
// form. No attempt is made to group consecutive uppercase runs — "HTTPHeader"
// becomes "_h_t_t_p_header", exactly once per letter.
func ToSnakeCase(name string) string {
	var b strings.Builder
	b.Grow(len(name) + 4)
	for _, r := range name {
		if r >= 'A' && r <= 'Z' {
			b.WriteByte('_')
			b.WriteRune(r - 'A' + 'a')
			continue
		}
		b.WriteRune(r)
	}
	return b.String()
}
