package backend

import "fmt"

// Filter is an equality condition on a single column
type Filter struct {
	Column string
	Value  string
}

// Order sorts results by a column
type Order struct {
	Column     string
	Descending bool
}

// Query selects rows of a table. The zero value matches every row in
// backend order.
type Query struct {
	Filters []Filter
	Orders  []Order
}

// Where returns an empty Query with a single equality filter
func Where(column string, value any) Query {
	return Query{}.Eq(column, value)
}

// Eq adds an equality filter
func (q Query) Eq(column string, value any) Query {
	q.Filters = append(append([]Filter(nil), q.Filters...), Filter{Column: column, Value: fmt.Sprint(value)})
	return q
}

// OrderBy adds an ascending sort on column
func (q Query) OrderBy(column string) Query {
	q.Orders = append(append([]Order(nil), q.Orders...), Order{Column: column})
	return q
}

// OrderByDesc adds a descending sort on column
func (q Query) OrderByDesc(column string) Query {
	q.Orders = append(append([]Order(nil), q.Orders...), Order{Column: column, Descending: true})
	return q
}

// Unfiltered reports whether the query matches every row
func (q Query) Unfiltered() bool {
	return len(q.Filters) == 0
}
