// Package cell defines the atomic tokens of rendered output.
//
// A Cell is one short text token. Cells are laid out in rows, and rows are
// stacked into a Grid. The grid is the only artifact the renderer produces;
// turning it into text or pixels is the job of a presenter.
package cell

import "strings"

// Cell is a single short token. Equality and ordering are by value.
type Cell string

const (
	// Empty is the blank layout placeholder.
	Empty Cell = ""
	// Ellipsis continues a block whose remaining rows belong to the same entity.
	Ellipsis Cell = "…"
	// And is the list separator and the spacer between a child header and its predicates.
	And Cell = "AND"
	// Then follows And when the joined item ends with its own argument list.
	Then Cell = "THEN"
)

// String returns the cell value.
func (c Cell) String() string {
	return string(c)
}

// Display returns the value the way it is drawn: upper-cased.
func (c Cell) Display() string {
	return strings.ToUpper(string(c))
}

// Row is an ordered sequence of cells.
type Row []Cell

// Of builds a row from plain strings.
func Of(values ...string) Row {
	row := make(Row, len(values))
	for i, v := range values {
		row[i] = Cell(v)
	}
	return row
}

// Strings returns the raw cell values.
func (r Row) Strings() []string {
	out := make([]string, len(r))
	for i, c := range r {
		out[i] = string(c)
	}
	return out
}

// String joins the cell values with single spaces. Blank cells are kept, so
// a leading placeholder shows up as a leading space.
func (r Row) String() string {
	return strings.Join(r.Strings(), " ")
}

// Padded returns a copy of r extended with Empty cells up to n cells.
// Rows that are already n cells or longer are returned unchanged.
func (r Row) Padded(n int) Row {
	if len(r) >= n {
		return r
	}
	out := make(Row, n)
	copy(out, r)
	return out
}

// Equal reports whether two rows hold the same cells in the same order.
func (r Row) Equal(other Row) bool {
	if len(r) != len(other) {
		return false
	}
	for i := range r {
		if r[i] != other[i] {
			return false
		}
	}
	return true
}

// Grid is an ordered sequence of rows, top to bottom.
type Grid []Row

// LongestRow returns the cell count of the longest row, or 0 for an empty grid.
func (g Grid) LongestRow() int {
	longest := 0
	for _, row := range g {
		if len(row) > longest {
			longest = len(row)
		}
	}
	return longest
}

// Clone returns a deep copy of g.
func (g Grid) Clone() Grid {
	if g == nil {
		return nil
	}
	out := make(Grid, len(g))
	for i, row := range g {
		out[i] = append(Row{}, row...)
	}
	return out
}

// Strings returns the raw cell values of every row.
func (g Grid) Strings() [][]string {
	out := make([][]string, len(g))
	for i, row := range g {
		out[i] = row.Strings()
	}
	return out
}

// FromStrings rebuilds a grid from raw cell values.
func FromStrings(rows [][]string) Grid {
	g := make(Grid, len(rows))
	for i, values := range rows {
		g[i] = Of(values...)
	}
	return g
}

// Equal reports whether two grids hold the same rows.
func (g Grid) Equal(other Grid) bool {
	if len(g) != len(other) {
		return false
	}
	for i := range g {
		if !g[i].Equal(other[i]) {
			return false
		}
	}
	return true
}
