package schema

import (
	"fmt"
	"strings"

	"shoal/internal/clause"
)

// renderWhere performs the recursive descent of §4.3: a ComplexStatement
// becomes "(left) glue (right)"; a Statement becomes "field op value", with
// value passed through escapeString when NeedsEscaping is set.
func renderWhere(root any, escapeString func(string) string) string {
	switch n := root.(type) {
	case *clause.Statement:
		value := n.Value
		if n.NeedsEscaping {
			value = escapeString(value)
		}
		if n.Operator == clause.IsNull {
			return fmt.Sprintf("%s is null", n.Field)
		}
		return fmt.Sprintf("%s %s %s", n.Field, n.Operator.Word(), value)
	case *clause.ComplexStatement:
		left := renderWhere(n.Left, escapeString)
		right := renderWhere(n.Right, escapeString)
		glue := "and"
		if n.Glue == clause.Or {
			glue = "or"
		}
		return fmt.Sprintf("(%s) %s (%s)", left, glue, right)
	default:
		return ""
	}
}

// renderOrder renders an ORDER BY clause body (without the "order by"
// keyword), or "" when there is nothing to order by.
func renderOrder(o clause.Order, randomFunction string) string {
	if o.Rand {
		return randomFunction
	}
	if len(o.Fields) == 0 {
		return ""
	}
	parts := make([]string, len(o.Fields))
	for i, f := range o.Fields {
		dir := "desc"
		if f.Asc {
			dir = "asc"
		}
		parts[i] = fmt.Sprintf("%s %s", f.Name, dir)
	}
	return strings.Join(parts, ", ")
}

// renderLimit renders a LIMIT clause body, or "" when Upper==0 (no limit).
func renderLimit(l clause.Limit) string {
	if !l.Present() {
		return ""
	}
	if l.Lower == 0 {
		return fmt.Sprintf("limit %d", l.Upper)
	}
	return fmt.Sprintf("limit %d,%d", l.Lower, l.Upper)
}
