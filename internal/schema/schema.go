// Package schema implements the abstract, backend-independent schema/CRUD
// translator (§4.3): table init (create or reconcile), insert, select,
// update, delete, drop, driven entirely through the Backend capability
// interface a concrete wire client supplies.
package schema

import (
	"context"

	"shoal/internal/clause"
	"shoal/internal/entity"
	"shoal/internal/types"
)

// TableInfo is live column metadata as reported by a connected server,
// keyed by column name in the maps this package works with.
type TableInfo struct {
	Name         string
	Type         types.Flag
	Length       uint
	Nullable     bool
	DefaultValue string
	Raw          string
}

// Cell is a single positional, typed result value. Exactly one of the
// typed fields is meaningful unless Null is true.
type Cell struct {
	Null bool

	Bool     bool
	Int      int64
	Float    float64
	String   string
	Binary   []byte
	Date     string
	DateTime string
	Time     string
}

// Result is a query result: column name -> positional index, plus the rows.
type Result struct {
	Columns map[string]int
	Rows    [][]Cell
}

// Backend is the fixed capability set the abstract translator requires of
// a concrete wire client (§9 "Polymorphism"): interface abstraction, never
// inheritance.
type Backend interface {
	// GetTableInfo returns live column metadata for table, or a nil map
	// when the table does not exist.
	GetTableInfo(ctx context.Context, table string) (map[string]TableInfo, error)

	// GenerateField renders one column definition for CREATE TABLE / as
	// part of ALTER TABLE ADD COLUMN.
	GenerateField(f entity.FieldSpec) string

	CreateTable(ctx context.Context, table string, definitions []string) error
	AlterTableColumn(ctx context.Context, table string, f entity.FieldSpec, typeChanged, nullableChanged bool) error
	AlterTableAddColumn(ctx context.Context, table string, f entity.FieldSpec) error
	AlterTableDropColumn(ctx context.Context, table, column string) error
	DropTable(ctx context.Context, table string, ifExists bool) error

	InsertInto(ctx context.Context, table string, names, values []string, primaryKeys []string) (*Result, error)
	Query(ctx context.Context, sql string) error
	QuerySelect(ctx context.Context, sql string) (*Result, error)

	RandomFunction() string
	EscapeString(s string) string
	EscapeBinary(b []byte) string
}

// Select describes one select invocation: an optional column projection,
// WHERE, ORDER BY, and LIMIT.
type Select struct {
	Fields []string
	Where  *clause.Where
	Order  clause.Order
	Limit  clause.Limit
}
