package datasource

import (
	"fmt"
	"strings"
)

// Dialect renders the store-specific parts of a bounded SELECT.
type Dialect interface {
	// QuoteIdentifier safely quotes a table or column name.
	QuoteIdentifier(name string) string

	// Placeholder returns the bind parameter marker for the n-th (1-based) argument.
	Placeholder(n int) string

	// ContainsExpr renders a case-insensitive LIKE of column against a bound
	// pattern that already carries the surrounding % wildcards.
	ContainsExpr(column, placeholder string) string

	// LimitSelect wraps "SELECT * FROM table [WHERE ...]" with the row cap.
	LimitSelect(table, where string, limit int) string
}

// EscapeLike escapes LIKE metacharacters so user text matches literally.
// Patterns built from it must be used with ESCAPE '\'.
func EscapeLike(s string) string {
	r := strings.NewReplacer(`\`, `\\`, `%`, `\%`, `_`, `\_`)
	return r.Replace(s)
}

// BuildSelect renders a parameterized, bounded SELECT for pred.
// Returns the SQL and its arguments in placeholder order.
func BuildSelect(d Dialect, table string, pred Predicate, limit int) (string, []any, error) {
	var args []any
	render := func(c Condition) (string, error) {
		if c.Column == "" {
			return "", fmt.Errorf("condition on empty column name")
		}
		col := d.QuoteIdentifier(c.Column)
		switch c.Op {
		case OpContains:
			args = append(args, "%"+EscapeLike(fmt.Sprint(c.Value))+"%")
			return d.ContainsExpr(col, d.Placeholder(len(args))), nil
		case OpEq:
			args = append(args, c.Value)
			return fmt.Sprintf("%s = %s", col, d.Placeholder(len(args))), nil
		case OpGte:
			args = append(args, c.Value)
			return fmt.Sprintf("%s >= %s", col, d.Placeholder(len(args))), nil
		case OpLte:
			args = append(args, c.Value)
			return fmt.Sprintf("%s <= %s", col, d.Placeholder(len(args))), nil
		default:
			return "", fmt.Errorf("unsupported operator %q", c.Op)
		}
	}

	var clauses []string
	if len(pred.AnyOf) > 0 {
		ors := make([]string, 0, len(pred.AnyOf))
		for _, c := range pred.AnyOf {
			expr, err := render(c)
			if err != nil {
				return "", nil, err
			}
			ors = append(ors, expr)
		}
		clauses = append(clauses, "("+strings.Join(ors, " OR ")+")")
	}
	for _, c := range pred.AllOf {
		expr, err := render(c)
		if err != nil {
			return "", nil, err
		}
		clauses = append(clauses, expr)
	}

	return d.LimitSelect(quoteTable(d, table), strings.Join(clauses, " AND "), EffectiveLimit(limit)), args, nil
}

// quoteTable quotes each dot-separated part of a possibly schema-qualified name.
func quoteTable(d Dialect, table string) string {
	parts := strings.Split(table, ".")
	for i, p := range parts {
		parts[i] = d.QuoteIdentifier(p)
	}
	return strings.Join(parts, ".")
}
