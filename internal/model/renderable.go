package model

import (
	"strings"

	"github.com/sourceisview/siv/internal/cell"
)

// Renderable is anything that can appear as a predicate argument.
type Renderable interface {
	// Cells returns the value's cell rendering.
	Cells() cell.Row
	// HasTrailingArguments reports whether Cells ends in a nested argument
	// list, in which case a following separator becomes AND THEN.
	HasTrailingArguments() bool
}

var (
	_ Renderable = TypeRepr{}
	_ Renderable = Requirement{}
	_ Renderable = Descriptor{}
)

// JoinArguments joins every argument but the last with AND, or AND THEN when
// the argument has trailing arguments of its own. The last argument is
// appended without a separator.
func JoinArguments(args []Renderable) cell.Row {
	out := cell.Row{}
	for i, arg := range args {
		out = append(out, arg.Cells()...)
		if i == len(args)-1 {
			break
		}
		out = append(out, cell.And)
		if arg.HasTrailingArguments() {
			out = append(out, cell.Then)
		}
	}
	return out
}

// JoinTypes is JoinArguments over types.
func JoinTypes(types []TypeRepr) cell.Row {
	args := make([]Renderable, len(types))
	for i, t := range types {
		args[i] = t
	}
	return JoinArguments(args)
}

// JoinRequirements is JoinArguments over requirements.
func JoinRequirements(reqs []Requirement) cell.Row {
	args := make([]Renderable, len(reqs))
	for i, r := range reqs {
		args[i] = r
	}
	return JoinArguments(args)
}

// JoinDescriptors is JoinArguments over descriptors.
func JoinDescriptors(descriptors []Descriptor) cell.Row {
	args := make([]Renderable, len(descriptors))
	for i, d := range descriptors {
		args[i] = d
	}
	return JoinArguments(args)
}

// Describe renders a value as its cells joined by spaces, for debugging and
// the entities view.
func Describe(r Renderable) string {
	return strings.Join(r.Cells().Strings(), " ")
}
