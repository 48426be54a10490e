package entity

// Filter restricts a query to rows whose Column equals Value.
type Filter struct {
	Column string
	Value  string
}

// Order sorts query results on one column.
type Order struct {
	Column    string
	Ascending bool
}

// Embed attaches the row of Table whose id equals the local ForeignKey
// column, keeping only Columns. The embedded object is keyed by Table.
type Embed struct {
	Table      string
	ForeignKey string
	Columns    []string
}

// Query describes a read against one table.
//
// A nil Columns selects every column. Limit <= 0 means no limit. Single asks
// for exactly one row, returned as an object instead of an array.
type Query struct {
	Table   string
	Columns []string
	Embeds  []Embed
	Filters []Filter
	Order   *Order
	Limit   int
	Single  bool
}

// Eq is shorthand for an equality filter.
func Eq(column, value string) Filter {
	return Filter{Column: column, Value: value}
}
