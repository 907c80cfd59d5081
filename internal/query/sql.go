package query

import (
	"fmt"
	"strconv"
	"strings"
)

// Dialect describes placeholder and insert-id syntax for a SQL backend.
type Dialect struct {
	Name string
	// Numbered placeholders ($1, $2) instead of ?.
	Numbered bool
	// Returning is true when INSERT ... RETURNING id is supported.
	Returning bool
}

var (
	Postgres = Dialect{Name: "postgres", Numbered: true, Returning: true}
	MySQL    = Dialect{Name: "mysql"}
	SQLite   = Dialect{Name: "sqlite3", Returning: true}
)

// DialectFor returns the dialect for a database/sql driver name.
func DialectFor(driver string) (Dialect, error) {
	switch driver {
	case "pgx", "postgres":
		return Postgres, nil
	case "mysql":
		return MySQL, nil
	case "sqlite3", "sqlite":
		return SQLite, nil
	default:
		return Dialect{}, fmt.Errorf("unsupported database driver %q", driver)
	}
}

// Placeholder returns the placeholder for the n-th parameter (1-based).
func (d Dialect) Placeholder(n int) string {
	if d.Numbered {
		return "$" + strconv.Itoa(n)
	}
	return "?"
}

// Placeholders returns count placeholders starting at start, comma separated.
func (d Dialect) Placeholders(start, count int) string {
	parts := make([]string, count)
	for i := range parts {
		parts[i] = d.Placeholder(start + i)
	}
	return strings.Join(parts, ", ")
}

var sqlOps = map[Op]string{
	Eq:  "=",
	Neq: "<>",
	Gt:  ">",
	Gte: ">=",
	Lt:  "<",
	Lte: "<=",
}

// CompileSQL converts q to a parameterized SELECT for dialect d.
// Returns (sql, params, error).
func CompileSQL(q *Query, d Dialect) (string, []any, error) {
	if err := Validate(q); err != nil {
		return "", nil, err
	}

	var b strings.Builder
	b.WriteString("SELECT ")
	if len(q.Columns) == 0 {
		b.WriteString("*")
	} else {
		b.WriteString(strings.Join(q.Columns, ", "))
	}
	b.WriteString(" FROM ")
	b.WriteString(q.Table)

	params := make([]any, 0, len(q.Filters))
	for i, f := range q.Filters {
		if i == 0 {
			b.WriteString(" WHERE ")
		} else {
			b.WriteString(" AND ")
		}
		params = append(params, f.Value)
		fmt.Fprintf(&b, "%s %s %s", f.Field, sqlOps[f.Op], d.Placeholder(len(params)))
	}

	b.WriteString(" ORDER BY ")
	for i, o := range q.stableOrder() {
		if i > 0 {
			b.WriteString(", ")
		}
		b.WriteString(o.Field)
		if o.Desc {
			b.WriteString(" DESC")
		} else {
			b.WriteString(" ASC")
		}
	}

	if q.Limit > 0 {
		params = append(params, q.Limit)
		b.WriteString(" LIMIT ")
		b.WriteString(d.Placeholder(len(params)))
	}

	return b.String(), params, nil
}
