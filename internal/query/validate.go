package query

import (
	"errors"
	"fmt"
	"regexp"
	"time"
)

var identPattern = regexp.MustCompile(`^[a-z_][a-z0-9_]*$`)

// ErrInvalidQuery wraps every validation failure.
var ErrInvalidQuery = errors.New("invalid query")

// Validate checks identifiers, operators and value types.
func Validate(q *Query) error {
	if q == nil {
		return fmt.Errorf("%w: nil query", ErrInvalidQuery)
	}
	if !identPattern.MatchString(q.Table) {
		return fmt.Errorf("%w: table %q", ErrInvalidQuery, q.Table)
	}
	for _, c := range q.Columns {
		if c != "*" && !identPattern.MatchString(c) {
			return fmt.Errorf("%w: column %q", ErrInvalidQuery, c)
		}
	}
	for _, e := range q.Embeds {
		if !identPattern.MatchString(e.Table) {
			return fmt.Errorf("%w: embed %q", ErrInvalidQuery, e.Table)
		}
		for _, c := range e.Columns {
			if c != "*" && !identPattern.MatchString(c) {
				return fmt.Errorf("%w: embed column %s.%q", ErrInvalidQuery, e.Table, c)
			}
		}
	}
	for _, f := range q.Filters {
		if !identPattern.MatchString(f.Field) {
			return fmt.Errorf("%w: filter field %q", ErrInvalidQuery, f.Field)
		}
		if _, ok := sqlOps[f.Op]; !ok {
			return fmt.Errorf("%w: operator %q on %s", ErrInvalidQuery, f.Op, f.Field)
		}
		if err := checkValue(f.Value); err != nil {
			return fmt.Errorf("%w: %s: %v", ErrInvalidQuery, f.Field, err)
		}
	}
	for _, o := range q.Order {
		if !identPattern.MatchString(o.Field) {
			return fmt.Errorf("%w: order field %q", ErrInvalidQuery, o.Field)
		}
	}
	if q.Limit < 0 {
		return fmt.Errorf("%w: negative limit %d", ErrInvalidQuery, q.Limit)
	}
	return nil
}

func checkValue(v any) error {
	switch v.(type) {
	case string, bool, int, int32, int64, time.Time:
		return nil
	case float32, float64:
		return errors.New("floating point values are not supported")
	case nil:
		return errors.New("nil value; filter on an explicit value")
	default:
		return fmt.Errorf("unsupported value type %T", v)
	}
}
