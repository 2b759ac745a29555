package schema

import (
	"context"
	"fmt"
	"strconv"
	"strings"
	"time"

	"shoal/internal/clause"
	"shoal/internal/entity"
	"shoal/internal/types"
)

// Logger is the minimal ambient logging contract the translator and both
// wire backends consume (§7 propagation rules: notices, drained-packet
// counts, and the update/delete-without-WHERE warning are logged, never
// raised as errors). The zero value of Discard is the default.
type Logger interface {
	Warnf(format string, args ...any)
	Debugf(format string, args ...any)
}

type discardLogger struct{}

func (discardLogger) Warnf(string, ...any)  {}
func (discardLogger) Debugf(string, ...any) {}

// Discard is a Logger that drops every message.
var Discard Logger = discardLogger{}

// Translator is the abstract, backend-independent schema/CRUD engine
// (§4.3, C4). It holds no connection state of its own; every method is
// driven entirely through Backend.
type Translator struct {
	Backend Backend
	Logger  Logger
}

// New builds a Translator over backend, defaulting Logger to Discard.
func New(backend Backend) *Translator {
	return &Translator{Backend: backend, Logger: Discard}
}

func (tr *Translator) logger() Logger {
	if tr.Logger == nil {
		return Discard
	}
	return tr.Logger
}

// Init reconciles spec's declared shape against the live table: creating it
// if absent, or issuing ALTER ADD/MODIFY/DROP statements to match.
func (tr *Translator) Init(ctx context.Context, spec *entity.TableSpec) error {
	live, err := tr.Backend.GetTableInfo(ctx, spec.TableName)
	if err != nil {
		return fmt.Errorf("schema: get table info for %q: %w", spec.TableName, err)
	}

	if live == nil {
		return tr.createTable(ctx, spec)
	}
	return tr.reconcile(ctx, spec, live)
}

func (tr *Translator) createTable(ctx context.Context, spec *entity.TableSpec) error {
	defs := make([]string, 0, len(spec.Fields)+1)
	for _, f := range spec.Fields {
		defs = append(defs, tr.Backend.GenerateField(f))
	}
	if len(spec.PrimaryKeys) > 0 {
		defs = append(defs, fmt.Sprintf("primary key(%s)", strings.Join(spec.PrimaryKeys, ",")))
	}
	if err := tr.Backend.CreateTable(ctx, spec.TableName, defs); err != nil {
		return fmt.Errorf("schema: create table %q: %w", spec.TableName, err)
	}
	return nil
}

func (tr *Translator) reconcile(ctx context.Context, spec *entity.TableSpec, live map[string]TableInfo) error {
	remaining := make(map[string]TableInfo, len(live))
	for k, v := range live {
		remaining[k] = v
	}

	for _, f := range spec.Fields {
		liveCol, ok := remaining[f.Name]
		if !ok {
			if err := tr.Backend.AlterTableAddColumn(ctx, spec.TableName, f); err != nil {
				return fmt.Errorf("schema: add column %q to %q: %w", f.Name, spec.TableName, err)
			}
			continue
		}
		typeChanged := f.Type&liveCol.Type == 0
		nullableChanged := f.Nullable != liveCol.Nullable
		if typeChanged || nullableChanged {
			if err := tr.Backend.AlterTableColumn(ctx, spec.TableName, f, typeChanged, nullableChanged); err != nil {
				return fmt.Errorf("schema: alter column %q on %q: %w", f.Name, spec.TableName, err)
			}
		}
		delete(remaining, f.Name)
	}

	for name := range remaining {
		if err := tr.Backend.AlterTableDropColumn(ctx, spec.TableName, name); err != nil {
			return fmt.Errorf("schema: drop column %q on %q: %w", name, spec.TableName, err)
		}
	}
	return nil
}

// Select builds and executes "select <cols> from <table> [where] [order] [limit]".
func (tr *Translator) Select(ctx context.Context, spec *entity.TableSpec, sel Select) (*Result, error) {
	cols := "*"
	if len(sel.Fields) > 0 {
		cols = strings.Join(sel.Fields, ", ")
	}

	sql := fmt.Sprintf("select %s from %s", cols, spec.TableName)
	if sel.Where.Present() {
		sql += " where " + renderWhere(sel.Where.Root(), tr.Backend.EscapeString)
	}
	if order := renderOrder(sel.Order, tr.Backend.RandomFunction()); order != "" {
		sql += " order by " + order
	}
	if limit := renderLimit(sel.Limit); limit != "" {
		sql += " " + limit
	}

	result, err := tr.Backend.QuerySelect(ctx, sql)
	if err != nil {
		return nil, fmt.Errorf("schema: select on %q: %w", spec.TableName, err)
	}
	return result, nil
}

// SelectOne is Select with the limit forced to 1.
func (tr *Translator) SelectOne(ctx context.Context, spec *entity.TableSpec, sel Select) (*Result, error) {
	sel.Limit = clause.Top(1)
	return tr.Select(ctx, spec, sel)
}

// IDWhere builds the AND of pk=value statements for e's primary key
// fields, per the update-by-id / delete-by-id / selectId synthesis rule
// of §4.3.
func IDWhere(spec *entity.TableSpec, e entity.Entity) (*clause.Where, error) {
	if len(spec.PrimaryKeys) == 0 {
		return nil, nil
	}
	var where *clause.Where
	for _, name := range spec.PrimaryKeys {
		f, ok := spec.Field(name)
		if !ok {
			return nil, fmt.Errorf("schema: primary key %q not found in fields", name)
		}
		value, isNull, err := entity.GetValue(e, f)
		if err != nil {
			return nil, err
		}
		if isNull {
			return nil, fmt.Errorf("schema: primary key %q is null", name)
		}
		where = where.And(clause.Var(f.Name).Equals(value))
	}
	return where, nil
}

// SelectID builds SelectID's WHERE from e's primary keys and runs SelectOne.
func (tr *Translator) SelectID(ctx context.Context, spec *entity.TableSpec, e entity.Entity) (*Result, error) {
	where, err := IDWhere(spec, e)
	if err != nil {
		return nil, err
	}
	return tr.SelectOne(ctx, spec, Select{Where: where})
}

// Insert collects every field (skipping an AutoIncrement field left
// unset, so the backend can generate it) into names/values, escapes them,
// and asks the backend to perform the insert. When returnKeys is set, the
// spec's primary keys are passed along and the backend is asked to return
// the generated row.
func (tr *Translator) Insert(ctx context.Context, spec *entity.TableSpec, e entity.Entity, returnKeys bool) (*Result, error) {
	var names, values []string
	for _, f := range spec.Fields {
		value, isNull, err := entity.GetValue(e, f)
		if err != nil {
			return nil, err
		}
		if f.AutoIncrement && isNull {
			continue
		}
		rendered, err := tr.renderValue(f, value, isNull)
		if err != nil {
			return nil, err
		}
		names = append(names, f.Name)
		values = append(values, rendered)
	}

	var pk []string
	if returnKeys {
		pk = spec.PrimaryKeys
	}

	result, err := tr.Backend.InsertInto(ctx, spec.TableName, names, values, pk)
	if err != nil {
		return nil, fmt.Errorf("schema: insert into %q: %w", spec.TableName, err)
	}
	return result, nil
}

// Update renders "update <table> set f1=v1,... [where ...]" for the named
// fields, taken from e's current values. When where is absent it is
// synthesized from e's primary keys; if that is also impossible, the
// update proceeds against the whole table with a logged warning.
func (tr *Translator) Update(ctx context.Context, spec *entity.TableSpec, e entity.Entity, fields []string, where *clause.Where) error {
	if !where.Present() {
		idWhere, err := IDWhere(spec, e)
		if err == nil && idWhere.Present() {
			where = idWhere
		}
	}

	assignments := make([]string, 0, len(fields))
	for _, name := range fields {
		f, ok := spec.Field(name)
		if !ok {
			return fmt.Errorf("schema: update: unknown field %q", name)
		}
		value, isNull, err := entity.GetValue(e, f)
		if err != nil {
			return err
		}
		rendered, err := tr.renderValue(f, value, isNull)
		if err != nil {
			return err
		}
		assignments = append(assignments, fmt.Sprintf("%s=%s", f.Name, rendered))
	}

	sql := fmt.Sprintf("update %s set %s", spec.TableName, strings.Join(assignments, ","))
	if where.Present() {
		sql += " where " + renderWhere(where.Root(), tr.Backend.EscapeString)
	} else {
		tr.logger().Warnf("update on %q has no WHERE clause; the entire table will be modified", spec.TableName)
	}

	if err := tr.Backend.Query(ctx, sql); err != nil {
		return fmt.Errorf("schema: update %q: %w", spec.TableName, err)
	}
	return nil
}

// Delete renders "delete from <table> [where ...]".
func (tr *Translator) Delete(ctx context.Context, table string, where *clause.Where) error {
	sql := "delete from " + table
	if where.Present() {
		sql += " where " + renderWhere(where.Root(), tr.Backend.EscapeString)
	} else {
		tr.logger().Warnf("delete on %q has no WHERE clause; the entire table will be modified", table)
	}
	if err := tr.Backend.Query(ctx, sql); err != nil {
		return fmt.Errorf("schema: delete from %q: %w", table, err)
	}
	return nil
}

// DeleteID deletes the row identified by e's primary keys.
func (tr *Translator) DeleteID(ctx context.Context, spec *entity.TableSpec, e entity.Entity) error {
	where, err := IDWhere(spec, e)
	if err != nil {
		return err
	}
	return tr.Delete(ctx, spec.TableName, where)
}

// Drop drops table, optionally guarded by IF EXISTS.
func (tr *Translator) Drop(ctx context.Context, table string, ifExists bool) error {
	if err := tr.Backend.DropTable(ctx, table, ifExists); err != nil {
		return fmt.Errorf("schema: drop table %q: %w", table, err)
	}
	return nil
}

// renderValue implements the default escaping policies of §4.3: a null
// wrapper becomes the literal "null"; String/Char/Clob are quoted by the
// backend's escapeString; Binary/Blob go through the backend's
// escapeBinary; Date/DateTime/Time are formatted by formatTime and then
// quoted by escapeString; everything else uses its lexical representation.
func (tr *Translator) renderValue(f entity.FieldSpec, value any, isNull bool) (string, error) {
	if isNull {
		return "null", nil
	}
	switch {
	case f.Type&(types.Binary|types.Blob) != 0:
		b, ok := value.([]byte)
		if !ok {
			return "", fmt.Errorf("schema: field %q: expected []byte, got %T", f.Name, value)
		}
		return tr.Backend.EscapeBinary(b), nil
	case f.Type&(types.Date|types.DateTime|types.Time) != 0:
		t, ok := value.(time.Time)
		if !ok {
			return "", fmt.Errorf("schema: field %q: expected time.Time, got %T", f.Name, value)
		}
		return tr.Backend.EscapeString(formatTime(t, f.Type)), nil
	case f.Type&(types.Char|types.String|types.Clob) != 0:
		s, ok := value.(string)
		if !ok {
			s = fmt.Sprintf("%v", value)
		}
		return tr.Backend.EscapeString(s), nil
	default:
		return lexical(value), nil
	}
}

// formatTime renders t in the textual layout matching f's logical type, so
// it can be quoted by escapeString into a literal the backend understands.
func formatTime(t time.Time, f types.Flag) string {
	switch {
	case f&types.Date != 0 && f&types.DateTime == 0 && f&types.Time == 0:
		return t.Format("2006-01-02")
	case f&types.Time != 0 && f&types.DateTime == 0 && f&types.Date == 0:
		return t.Format("15:04:05")
	default:
		return t.Format("2006-01-02 15:04:05")
	}
}

func lexical(value any) string {
	switch v := value.(type) {
	case bool:
		return strconv.FormatBool(v)
	case float32:
		return strconv.FormatFloat(float64(v), 'f', -1, 32)
	case float64:
		return strconv.FormatFloat(v, 'f', -1, 64)
	default:
		return fmt.Sprintf("%v", v)
	}
}
