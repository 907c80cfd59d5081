package query

import (
	"fmt"
	"net/url"
	"strconv"
	"strings"
	"time"
)

// EncodePostgREST converts q to PostgREST query parameters, e.g.
//
//	select=*&status=eq.pending&order=created_at.desc,id.desc&limit=10
func EncodePostgREST(q *Query) (url.Values, error) {
	if err := Validate(q); err != nil {
		return nil, err
	}

	v := url.Values{}
	sel := []string{"*"}
	if len(q.Columns) > 0 {
		sel = q.Columns
	}
	for _, e := range q.Embeds {
		cols := "*"
		if len(e.Columns) > 0 {
			cols = strings.Join(e.Columns, ",")
		}
		sel = append(sel, e.Table+"("+cols+")")
	}
	v.Set("select", strings.Join(sel, ","))

	for _, f := range q.Filters {
		v.Add(f.Field, string(f.Op)+"."+restValue(f.Value))
	}

	order := q.stableOrder()
	keys := make([]string, len(order))
	for i, o := range order {
		dir := "asc"
		if o.Desc {
			dir = "desc"
		}
		keys[i] = o.Field + "." + dir
	}
	v.Set("order", strings.Join(keys, ","))

	if q.Limit > 0 {
		v.Set("limit", strconv.Itoa(q.Limit))
	}
	return v, nil
}

func restValue(v any) string {
	switch x := v.(type) {
	case string:
		return x
	case bool:
		return strconv.FormatBool(x)
	case time.Time:
		return x.UTC().Format(time.RFC3339)
	default:
		return fmt.Sprint(x)
	}
}
