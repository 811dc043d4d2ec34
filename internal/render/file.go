package render

import (
	"github.com/sourceisview/siv/internal/cell"
	"github.com/sourceisview/siv/internal/model"
)

// Banner is the watermark written down the right edge of rows 0-2.
var Banner = [3]cell.Cell{"SOURCE", "IS", "VIEW"}

// Options controls file assembly.
type Options struct {
	// Banner enables the SOURCE / IS / VIEW watermark.
	Banner bool
}

// DefaultOptions returns the options used by Assemble.
func DefaultOptions() Options {
	return Options{Banner: true}
}

// Assemble renders every top-level entity hierarchically below one leading
// empty row and applies the banner rule.
func Assemble(entities []model.Entity) cell.Grid {
	return AssembleWithOptions(entities, DefaultOptions())
}

// AssembleWithOptions is Assemble with explicit options.
func AssembleWithOptions(entities []model.Entity, opts Options) cell.Grid {
	grid := cell.Grid{cell.Row{}}
	for _, e := range entities {
		grid = append(grid, Hierarchical(e)...)
	}
	if opts.Banner {
		applyBanner(grid)
	}
	return grid
}

// applyBanner pads rows 0-2 to longest-1 cells and appends one banner word
// to each, provided the grid has at least three rows and none of its first
// four rows reaches longest-1 cells. Checking four rows keeps a blank cell
// under the last word when the grid continues past it.
func applyBanner(grid cell.Grid) {
	if len(grid) < 3 {
		return
	}
	width := grid.LongestRow() - 1
	for i := 0; i < 4 && i < len(grid); i++ {
		if len(grid[i]) >= width {
			return
		}
	}
	for i, word := range Banner {
		grid[i] = append(grid[i].Padded(width), word)
	}
}
