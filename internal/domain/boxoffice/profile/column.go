package profile

import (
	"fmt"
	"strings"
)

// Column identifies one of the fixed logical columns of a bulletin record.
type Column int

// Logical columns in bulletin order. Columns from PeriodDays onwards form the
// trailing numeric block of a line.
const (
	LineIndex Column = iota
	Country
	Title
	ReleaseDate
	PeriodDays
	PeriodTheaters
	MaxTheaters
	PeriodTickets
	PeriodSales
	TicketsChangeRate
	SalesChangeRate
	CumulativeTickets
	CumulativeSales
)

// LogicalColumnCount is the same for every template revision; a profile only
// says which of them are absent from the source text.
const LogicalColumnCount = 13

var columnNames = [LogicalColumnCount]string{
	"line_index",
	"country",
	"title",
	"release_date",
	"period_days",
	"period_theaters",
	"max_theaters",
	"period_tickets",
	"period_sales",
	"tickets_change_rate",
	"sales_change_rate",
	"cumulative_tickets",
	"cumulative_sales",
}

func (c Column) String() string {
	if c < 0 || int(c) >= LogicalColumnCount {
		return fmt.Sprintf("column(%d)", int(c))
	}
	return columnNames[c]
}

// IsRate reports whether the column holds a percentage rather than a count.
func (c Column) IsRate() bool {
	return c == TicketsChangeRate || c == SalesChangeRate
}

// ParseColumn maps a table name such as "max_theaters" to its Column.
func ParseColumn(name string) (Column, error) {
	name = strings.ToLower(strings.TrimSpace(name))
	for i, n := range columnNames {
		if n == name {
			return Column(i), nil
		}
	}
	return 0, fmt.Errorf("unknown column %q", name)
}

// NumericColumns returns the trailing block columns in line order.
func NumericColumns() []Column {
	cols := make([]Column, 0, LogicalColumnCount-int(PeriodDays))
	for c := PeriodDays; c <= CumulativeSales; c++ {
		cols = append(cols, c)
	}
	return cols
}

// ColumnSet is an immutable set of logical columns.
type ColumnSet uint16

// NewColumnSet builds a set from the given columns.
func NewColumnSet(cols ...Column) ColumnSet {
	var s ColumnSet
	for _, c := range cols {
		s = s.With(c)
	}
	return s
}

// With returns a copy of the set that also contains c.
func (s ColumnSet) With(c Column) ColumnSet {
	return s | 1<<uint(c)
}

// Has reports whether c is in the set.
func (s ColumnSet) Has(c Column) bool {
	return s&(1<<uint(c)) != 0
}

// Columns lists the members in logical order.
func (s ColumnSet) Columns() []Column {
	var cols []Column
	for c := Column(0); int(c) < LogicalColumnCount; c++ {
		if s.Has(c) {
			cols = append(cols, c)
		}
	}
	return cols
}

func (s ColumnSet) String() string {
	cols := s.Columns()
	names := make([]string, len(cols))
	for i, c := range cols {
		names[i] = c.String()
	}
	return "{" + strings.Join(names, ",") + "}"
}
