package query

import (
	"fmt"
	"strings"
)

func checkColumns(table string, columns []string) error {
	if !identPattern.MatchString(table) {
		return fmt.Errorf("%w: table %q", ErrInvalidQuery, table)
	}
	if len(columns) == 0 {
		return fmt.Errorf("%w: no columns for %s", ErrInvalidQuery, table)
	}
	for _, c := range columns {
		if !identPattern.MatchString(c) {
			return fmt.Errorf("%w: column %q", ErrInvalidQuery, c)
		}
	}
	return nil
}

// InsertSQL builds a single-row INSERT. When the dialect supports it the
// statement ends in RETURNING id.
func InsertSQL(d Dialect, table string, columns []string) (string, error) {
	if err := checkColumns(table, columns); err != nil {
		return "", err
	}
	stmt := fmt.Sprintf("INSERT INTO %s (%s) VALUES (%s)",
		table, strings.Join(columns, ", "), d.Placeholders(1, len(columns)))
	if d.Returning {
		stmt += " RETURNING id"
	}
	return stmt, nil
}

// UpdateSQL builds an UPDATE of columns for one row. The id is the last
// parameter.
func UpdateSQL(d Dialect, table string, columns []string) (string, error) {
	if err := checkColumns(table, columns); err != nil {
		return "", err
	}
	sets := make([]string, len(columns))
	for i, c := range columns {
		sets[i] = c + " = " + d.Placeholder(i+1)
	}
	return fmt.Sprintf("UPDATE %s SET %s WHERE id = %s",
		table, strings.Join(sets, ", "), d.Placeholder(len(columns)+1)), nil
}

// DeleteSQL builds a DELETE of one row by id.
func DeleteSQL(d Dialect, table string) (string, error) {
	if !identPattern.MatchString(table) {
		return "", fmt.Errorf("%w: table %q", ErrInvalidQuery, table)
	}
	return fmt.Sprintf("DELETE FROM %s WHERE id = %s", table, d.Placeholder(1)), nil
}
