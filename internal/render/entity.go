// Package render lays entities out as rows of cells.
//
// An entity renders as a header row (NAME IS KIND ...) followed by one row
// per predicate. The hierarchical layout used for file output nests children
// under their parent, marks continuation rows with an ellipsis cell, and
// cleans up filler left behind at the end of a block.
package render

import (
	"github.com/cockroachdb/errors"

	"github.com/sourceisview/siv/internal/cell"
	"github.com/sourceisview/siv/internal/model"
)

// BaseHeader returns the header row of a non-extension entity:
//
//	NAME IS KIND [OF a AND b ...] [WHERE reqs]
//	NAME IS KIND [AND descriptors]
//
// Descriptors only appear here when the entity has neither generic arguments
// nor requirements.
func BaseHeader(e model.Entity) cell.Row {
	if e.IsExtension() {
		panic(errors.AssertionFailedf("extension %s has no header", e.Name))
	}

	row := cell.Row{cell.Cell(e.Name), "IS", e.Kind.Cell()}
	if e.IsGeneric() {
		for i, arg := range e.GenericArguments {
			sep := cell.And
			if i == 0 {
				sep = "OF"
			}
			row = append(row, sep, cell.Cell(arg))
		}
		if len(e.GenericRequirements) > 0 {
			row = append(row, "WHERE")
			row = append(row, model.JoinRequirements(e.GenericRequirements)...)
		}
	} else if len(e.Descriptors) > 0 {
		row = append(row, cell.And)
		row = append(row, model.JoinDescriptors(e.Descriptors)...)
	}
	return row
}

// ChildrenPredicate returns NAME HAS c1 AND c2 ..., or false when e has no
// children.
func ChildrenPredicate(e model.Entity) (cell.Row, bool) {
	if len(e.Children) == 0 {
		return nil, false
	}
	row := cell.Row{cell.Cell(e.Name)}
	for i, child := range e.Children {
		sep := cell.And
		if i == 0 {
			sep = "HAS"
		}
		row = append(row, sep, cell.Cell(child.Name))
	}
	return row, true
}

// FlatPredicates returns one row per predicate, each starting with the entity
// name. When the header could not hold the descriptors (generic entities and
// extensions), a NAME IS descriptors row comes first.
func FlatPredicates(e model.Entity) []cell.Row {
	var rows []cell.Row
	if (e.IsGeneric() || e.IsExtension()) && len(e.Descriptors) > 0 {
		row := cell.Row{cell.Cell(e.Name), "IS"}
		rows = append(rows, append(row, model.JoinDescriptors(e.Descriptors)...))
	}
	for _, p := range e.Predicates {
		row := cell.Row{cell.Cell(e.Name)}
		rows = append(rows, append(row, p.Cells()...))
	}
	return rows
}

// FlatPredicatesIncludingChildren appends the children summary row.
func FlatPredicatesIncludingChildren(e model.Entity) []cell.Row {
	rows := FlatPredicates(e)
	if children, ok := ChildrenPredicate(e); ok {
		rows = append(rows, children)
	}
	return rows
}

// Flat renders e without nesting. Extensions are their predicate rows
// separated by blank rows; other entities are the header followed by each
// predicate row behind a blank spacer.
func Flat(e model.Entity) []cell.Row {
	predicates := FlatPredicatesIncludingChildren(e)
	if e.IsExtension() {
		var rows []cell.Row
		for i, p := range predicates {
			if i > 0 {
				rows = append(rows, cell.Row{})
			}
			rows = append(rows, p)
		}
		return rows
	}

	rows := []cell.Row{BaseHeader(e)}
	for _, p := range predicates {
		rows = append(rows, cell.Row{}, blankPrefixed(p))
	}
	return rows
}

// Hierarchical renders e as a block of rows ending in a blank row. Children
// are listed under a standalone HAS row, each as its header, an AND spacer
// and its own predicates behind ellipsis cells.
func Hierarchical(e model.Entity) []cell.Row {
	predicates := FlatPredicates(e)

	if len(e.Children) == 0 {
		if e.IsExtension() {
			return append(Flat(e), cell.Row{})
		}
		rows := []cell.Row{BaseHeader(e)}
		for _, p := range predicates {
			rows = append(rows, cell.Row{}, blankPrefixed(p))
		}
		return append(rows, cell.Row{})
	}

	var rows []cell.Row
	remaining := predicates
	if e.IsExtension() {
		first := cell.Row{cell.Cell(e.Name), cell.Empty}
		if len(predicates) > 0 {
			first = append(first, predicates[0]...)
			remaining = predicates[1:]
		}
		rows = append(rows, first)
	} else {
		rows = append(rows, BaseHeader(e))
	}
	rows = append(rows, cell.Row{"HAS"})

	for _, p := range remaining {
		rows = append(rows, continued(p), cell.Row{cell.Ellipsis})
	}

	for _, child := range e.Children {
		rows = append(rows, BaseHeader(child), cell.Row{cell.And})
		for _, p := range FlatPredicates(child) {
			rows = append(rows, continued(p), cell.Row{cell.Ellipsis})
		}
	}

	rows = Cleanup(rows)
	return append(rows, cell.Row{})
}

// Cleanup blanks trailing filler. Scanning from the last row backwards, a
// row holding only … or AND becomes empty and a row starting with … has that
// cell blanked. The scan stops at the first row that is neither. Cleanup
// modifies rows in place and returns it; running it twice changes nothing.
func Cleanup(rows []cell.Row) []cell.Row {
	for i := len(rows) - 1; i >= 0; i-- {
		row := rows[i]
		if len(row) == 1 && (row[0] == cell.Ellipsis || row[0] == cell.And) {
			rows[i] = cell.Row{}
			continue
		}
		if len(row) > 0 && row[0] == cell.Ellipsis {
			blanked := append(cell.Row{}, row...)
			blanked[0] = cell.Empty
			rows[i] = blanked
			continue
		}
		break
	}
	return rows
}

func blankPrefixed(row cell.Row) cell.Row {
	return append(cell.Row{cell.Empty}, row...)
}

func continued(row cell.Row) cell.Row {
	return append(cell.Row{cell.Ellipsis, cell.Empty}, row...)
}
