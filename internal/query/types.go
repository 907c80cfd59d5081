package query

// Op is a filter comparison operator. The string values are PostgREST
// operator names.
type Op string

const (
	Eq  Op = "eq"
	Neq Op = "neq"
	Gt  Op = "gt"
	Gte Op = "gte"
	Lt  Op = "lt"
	Lte Op = "lte"
)

// Filter is a single field comparison. Filters in a Query are ANDed.
type Filter struct {
	Field string
	Op    Op
	Value any
}

// Order is one ORDER BY key.
type Order struct {
	Field string
	Desc  bool
}

// Embed is a related table pulled in through a foreign key, e.g.
// categories(name). Only the PostgREST encoding understands embeds;
// CompileSQL ignores them.
type Embed struct {
	Table   string
	Columns []string
}

// Query is a flat read of one table.
type Query struct {
	Table   string
	Columns []string // nil selects every column
	Embeds  []Embed
	Filters []Filter
	Order   []Order
	Limit   int // 0 means no limit
}

// From starts a query on table.
func From(table string) *Query {
	return &Query{Table: table}
}

// Select restricts the returned columns.
func (q *Query) Select(columns ...string) *Query {
	q.Columns = append(q.Columns, columns...)
	return q
}

// Include embeds a related table.
func (q *Query) Include(table string, columns ...string) *Query {
	q.Embeds = append(q.Embeds, Embed{Table: table, Columns: columns})
	return q
}

// Where adds a filter.
func (q *Query) Where(field string, op Op, value any) *Query {
	q.Filters = append(q.Filters, Filter{Field: field, Op: op, Value: value})
	return q
}

// OrderBy appends an ordering key.
func (q *Query) OrderBy(field string, desc bool) *Query {
	q.Order = append(q.Order, Order{Field: field, Desc: desc})
	return q
}

// Take sets the row limit.
func (q *Query) Take(n int) *Query {
	q.Limit = n
	return q
}

// stableOrder returns the ordering with the id tiebreaker appended when
// absent. The tiebreaker follows the direction of the last key.
func (q *Query) stableOrder() []Order {
	order := make([]Order, 0, len(q.Order)+1)
	desc := false
	for _, o := range q.Order {
		if o.Field == "id" {
			return append(order, q.Order...)
		}
		desc = o.Desc
	}
	order = append(order, q.Order...)
	return append(order, Order{Field: "id", Desc: desc})
}
