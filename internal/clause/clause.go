// Package clause implements the composable WHERE/ORDER/LIMIT tree (§3, §4.3)
// and the fluent var(...) builder used to construct it.
package clause

import (
	"fmt"
	"strconv"
)

// Operator is a WHERE comparison operator.
type Operator int

const (
	IsNull Operator = iota
	Equals
	NotEquals
	GreaterThan
	GreaterThanOrEquals
	LessThan
	LessThanOrEquals
)

var operatorWords = map[Operator]string{
	IsNull:              "is",
	Equals:              "=",
	NotEquals:           "!=",
	GreaterThan:         ">",
	GreaterThanOrEquals: ">=",
	LessThan:            "<",
	LessThanOrEquals:    "<=",
}

// Word renders the operator's SQL token.
func (o Operator) Word() string { return operatorWords[o] }

// Glue joins two sub-statements in a ComplexStatement.
type Glue int

const (
	And Glue = iota
	Or
)

func (g Glue) word() string {
	if g == Or {
		return "or"
	}
	return "and"
}

// node is satisfied by Statement and ComplexStatement: the two node kinds
// of the WHERE binary tree.
type node interface {
	isNode()
}

// Statement is a single leaf comparison: field OP value.
type Statement struct {
	Field         string
	Operator      Operator
	Value         string
	NeedsEscaping bool
}

func (*Statement) isNode() {}

// ComplexStatement is a binary and/or combination of two sub-trees.
type ComplexStatement struct {
	Left  node
	Glue  Glue
	Right node
}

func (*ComplexStatement) isNode() {}

// Where wraps the root of a WHERE tree, which may be absent (a nil root
// means "no filter").
type Where struct {
	root node
}

// Root exposes the underlying node tree to the renderer.
func (w *Where) Root() any { return w.root }

// Present reports whether the Where has any statement at all.
func (w *Where) Present() bool { return w != nil && w.root != nil }

// And combines w and other with AND, returning a new Where.
func (w *Where) And(other *Where) *Where {
	return combine(w, other, And)
}

// Or combines w and other with OR, returning a new Where.
func (w *Where) Or(other *Where) *Where {
	return combine(w, other, Or)
}

func combine(left, right *Where, glue Glue) *Where {
	if !left.Present() {
		return right
	}
	if !right.Present() {
		return left
	}
	return &Where{root: &ComplexStatement{Left: left.root, Glue: glue, Right: right.root}}
}

// Builder is the fluent var("field") entry point.
type Builder struct {
	field string
}

// Var starts a fluent comparison on the named (already DB-resolved) field.
func Var(field string) *Builder {
	return &Builder{field: field}
}

func (b *Builder) stmt(op Operator, value any) *Where {
	s, escape := render(value)
	return &Where{root: &Statement{Field: b.field, Operator: op, Value: s, NeedsEscaping: escape}}
}

// render stringifies a comparison value the way the translator's own
// id-based WHERE synthesis does: strings need escaping at render time,
// every other kind is rendered via its lexical representation and never
// escaped (§3 invariant: needsEscaping is derived from the value's type).
func render(value any) (string, bool) {
	switch v := value.(type) {
	case string:
		return v, true
	case bool:
		return strconv.FormatBool(v), false
	case float32:
		return strconv.FormatFloat(float64(v), 'g', -1, 32), false
	case float64:
		return strconv.FormatFloat(v, 'g', -1, 64), false
	case fmt.Stringer:
		return v.String(), false
	default:
		return fmt.Sprintf("%v", v), false
	}
}

func (b *Builder) Equals(value any) *Where              { return b.stmt(Equals, value) }
func (b *Builder) NotEquals(value any) *Where           { return b.stmt(NotEquals, value) }
func (b *Builder) GreaterThan(value any) *Where         { return b.stmt(GreaterThan, value) }
func (b *Builder) GreaterThanOrEquals(value any) *Where { return b.stmt(GreaterThanOrEquals, value) }
func (b *Builder) LessThan(value any) *Where            { return b.stmt(LessThan, value) }
func (b *Builder) LessThanOrEquals(value any) *Where    { return b.stmt(LessThanOrEquals, value) }

// IsNull is kept as API surface (spec.md §9 Open Question 3): no other
// fluent method produces the IsNull operator.
func (b *Builder) IsNull() *Where {
	return &Where{root: &Statement{Field: b.field, Operator: IsNull}}
}

// Order describes an ORDER BY clause. Rand, when true, overrides Fields and
// asks the backend for its random-ordering function.
type Order struct {
	Rand   bool
	Fields []OrderField
}

// OrderField is one column of a (non-random) ORDER BY.
type OrderField struct {
	Name string
	Asc  bool
}

// ByRand builds a random-order Order.
func ByRand() Order { return Order{Rand: true} }

// By builds an Order over the given fields, ascending.
func By(names ...string) Order {
	fields := make([]OrderField, len(names))
	for i, n := range names {
		fields[i] = OrderField{Name: n, Asc: true}
	}
	return Order{Fields: fields}
}

// Limit is the offset/count pair. Upper==0 means "no limit"; Lower==0 with
// Upper>0 means a simple top-N.
type Limit struct {
	Lower uint
	Upper uint
}

// NewLimit validates lower < upper per spec.md §9 Open Question 4: Limit(0,0)
// is ill-formed and panics, matching the source's constructor assertion.
// Use the zero Limit{} directly to mean "no limit".
func NewLimit(lower, upper uint) Limit {
	if upper == 0 {
		panic("clause: Limit requires upper > 0; use the zero Limit{} for no limit")
	}
	if lower >= upper {
		panic("clause: Limit requires lower < upper")
	}
	return Limit{Lower: lower, Upper: upper}
}

// Top builds a simple "limit N" with no offset.
func Top(n uint) Limit {
	if n == 0 {
		return Limit{}
	}
	return Limit{Upper: n}
}

// Present reports whether the limit should be rendered at all.
func (l Limit) Present() bool { return l.Upper > 0 }
