// Package bind implements the result binder (§4.4, C5): mapping a query
// Result's positional typed cells onto a fresh entity instance per row,
// honoring nullability.
package bind

import (
	"time"

	"shoal/internal/dberrors"
	"shoal/internal/entity"
	"shoal/internal/schema"
	"shoal/internal/types"
)

const (
	dateLayout     = "2006-01-02"
	timeLayout     = "15:04:05"
	dateTimeLayout = "2006-01-02T15:04:05"
)

// Rows binds every row of result onto a fresh instance of prototype's
// concrete type, using spec to resolve column names to fields.
func Rows(result *schema.Result, spec *entity.TableSpec, prototype entity.Entity) ([]entity.Entity, error) {
	out := make([]entity.Entity, 0, len(result.Rows))
	for _, row := range result.Rows {
		e := entity.New(prototype)
		for _, f := range spec.Fields {
			idx, ok := result.Columns[f.Name]
			if !ok || idx >= len(row) {
				continue
			}
			cell := row[idx]
			if cell.Null {
				if !f.Nullable {
					return nil, &dberrors.TypeMismatch{Field: f.Name, Expected: "non-null " + f.Type.String(), Got: "null"}
				}
				if err := entity.SetNull(e, f); err != nil {
					return nil, err
				}
				continue
			}
			v, err := cellValue(cell, f)
			if err != nil {
				return nil, err
			}
			if err := entity.SetValue(e, f, v); err != nil {
				return nil, &dberrors.TypeMismatch{Field: f.Name, Expected: f.Type.String(), Got: err.Error()}
			}
		}
		out = append(out, e)
	}
	return out, nil
}

// cellValue casts cell to the Go value appropriate for f's declared
// logical type, per the type table of §3.
func cellValue(cell schema.Cell, f entity.FieldSpec) (any, error) {
	switch {
	case f.Type&types.Bool != 0:
		return cell.Bool, nil
	case f.Type&(types.Byte|types.Short|types.Int|types.Long) != 0:
		return cell.Int, nil
	case f.Type&(types.Float|types.Double) != 0:
		return cell.Float, nil
	case f.Type&types.Date != 0:
		return parseTime(cell, dateLayout)
	case f.Type&types.Time != 0:
		return parseTime(cell, timeLayout)
	case f.Type&types.DateTime != 0:
		return parseTime(cell, dateTimeLayout)
	case f.Type&(types.Binary|types.Blob) != 0:
		return cell.Binary, nil
	case f.Type&(types.Char|types.String|types.Clob) != 0:
		return cell.String, nil
	default:
		return nil, &dberrors.TypeMismatch{Field: f.Name, Expected: f.Type.String(), Got: "unrecognized cell"}
	}
}

func parseTime(cell schema.Cell, layout string) (any, error) {
	raw := cell.DateTime
	if raw == "" {
		raw = cell.Date
	}
	if raw == "" {
		raw = cell.Time
	}
	if raw == "" {
		raw = cell.String
	}
	t, err := time.Parse(layout, raw)
	if err != nil {
		return nil, &dberrors.TypeMismatch{Field: "", Expected: layout, Got: raw}
	}
	return t, nil
}
