// Package model defines the Entity model: the typed intermediate representation
// between a declaration tree and its cell rendering.
//
// Every value that can appear as a predicate argument (types, requirements and
// descriptors) implements Renderable, which gives the renderer its cells and tells
// the argument joiner whether the value ends in a nested argument list.
package model

import (
	"github.com/cockroachdb/errors"

	"github.com/sourceisview/siv/internal/cell"
)

// Kind is the declaration kind of an Entity.
type Kind int

const (
	// StructKind is a struct declaration.
	StructKind Kind = iota
	// ClassKind is a class declaration.
	ClassKind
	// EnumKind is an enum declaration.
	EnumKind
	// ProtocolKind is a protocol declaration.
	ProtocolKind
	// AssociatedTypeKind is an associatedtype requirement inside a protocol.
	AssociatedTypeKind
	// TypeAliasKind is a typealias declaration.
	TypeAliasKind
	// ImportKind is an import declaration.
	ImportKind
	// FuncKind is a function or method.
	FuncKind
	// InitializerKind is an initializer.
	InitializerKind
	// LetKind is an immutable property binding.
	LetKind
	// VarKind is a mutable property binding.
	VarKind
	// CaseKind is a single enum case element.
	CaseKind
	// SubscriptKind is a subscript declaration.
	SubscriptKind
	// DeinitKind is a deinitializer.
	DeinitKind
	// ExtensionKind is an extension. Extensions have no kind cell.
	ExtensionKind
)

var kindCells = map[Kind]cell.Cell{
	StructKind:         "STRUCT",
	ClassKind:          "CLASS",
	EnumKind:           "ENUM",
	ProtocolKind:       "PROTO",
	AssociatedTypeKind: "ASSOC",
	TypeAliasKind:      "ALIAS",
	ImportKind:         "IMPORT",
	FuncKind:           "FUNC",
	InitializerKind:    "INIT",
	LetKind:            "LET",
	VarKind:            "VAR",
	CaseKind:           "CASE",
	SubscriptKind:      "SUBSCRIPT",
	DeinitKind:         "DEINIT",
}

// Cell returns the kind's cell. Extensions never get one; asking is a
// programming error and panics.
func (k Kind) Cell() cell.Cell {
	c, ok := kindCells[k]
	if !ok {
		panic(errors.AssertionFailedf("kind %s has no cell", k))
	}
	return c
}

// String returns a lower-case name for logs and YAML output.
func (k Kind) String() string {
	switch k {
	case StructKind:
		return "struct"
	case ClassKind:
		return "class"
	case EnumKind:
		return "enum"
	case ProtocolKind:
		return "protocol"
	case AssociatedTypeKind:
		return "associatedtype"
	case TypeAliasKind:
		return "typealias"
	case ImportKind:
		return "import"
	case FuncKind:
		return "func"
	case InitializerKind:
		return "init"
	case LetKind:
		return "let"
	case VarKind:
		return "var"
	case CaseKind:
		return "case"
	case SubscriptKind:
		return "subscript"
	case DeinitKind:
		return "deinit"
	case ExtensionKind:
		return "extension"
	default:
		return "unknown"
	}
}

// Entity is the translated form of one source declaration.
//
// Only nominal types and extensions have children. Extensions never carry
// descriptors or requirements; their members live in Children and Predicates.
type Entity struct {
	Name                string
	Kind                Kind
	GenericArguments    []string
	Children            []Entity
	Descriptors         []Descriptor
	GenericRequirements []Requirement
	Predicates          []Predicate
}

// IsExtension reports whether e is an extension.
func (e Entity) IsExtension() bool {
	return e.Kind == ExtensionKind
}

// IsGeneric reports whether e declares generic arguments or requirements.
func (e Entity) IsGeneric() bool {
	return len(e.GenericArguments) > 0 || len(e.GenericRequirements) > 0
}

// Predicate is a named, ordered list of renderable arguments, such as
// TAKES, RETURN, HAS, ISA or CAN.
type Predicate struct {
	Name      string
	Arguments []Renderable
}

// NewPredicate builds a predicate from any renderable arguments.
func NewPredicate(name string, args ...Renderable) Predicate {
	return Predicate{Name: name, Arguments: args}
}

// TypesPredicate builds a predicate whose arguments are all types.
func TypesPredicate(name string, types []TypeRepr) Predicate {
	args := make([]Renderable, len(types))
	for i, t := range types {
		args[i] = t
	}
	return Predicate{Name: name, Arguments: args}
}

// DescriptorsPredicate builds a predicate whose arguments are all descriptors.
func DescriptorsPredicate(name string, descriptors []Descriptor) Predicate {
	args := make([]Renderable, len(descriptors))
	for i, d := range descriptors {
		args[i] = d
	}
	return Predicate{Name: name, Arguments: args}
}

// Cells returns the predicate name followed by its joined arguments.
func (p Predicate) Cells() cell.Row {
	return append(cell.Row{cell.Cell(p.Name)}, JoinArguments(p.Arguments)...)
}

// Descriptor is an opaque modifier tag such as PUBLIC, STATIC or FINAL.
type Descriptor struct {
	Name string
}

// Cells returns the single descriptor cell.
func (d Descriptor) Cells() cell.Row {
	return cell.Row{cell.Cell(d.Name)}
}

// HasTrailingArguments is always false for descriptors.
func (d Descriptor) HasTrailingArguments() bool {
	return false
}

// RequirementKind distinguishes same-type from conformance constraints.
type RequirementKind int

const (
	// Equals is a same-type requirement (A == B).
	Equals RequirementKind = iota
	// IsA is a conformance or subclass requirement (A: B).
	IsA
)

// Requirement is a generic constraint between two types.
type Requirement struct {
	Left  TypeRepr
	Kind  RequirementKind
	Right TypeRepr
}

// Cells renders "left IS right" or "left ISA right".
func (r Requirement) Cells() cell.Row {
	op := cell.Cell("ISA")
	if r.Kind == Equals {
		op = "IS"
	}
	out := append(cell.Row{}, r.Left.Cells()...)
	out = append(out, op)
	return append(out, r.Right.Cells()...)
}

// HasTrailingArguments follows the right-hand side.
func (r Requirement) HasTrailingArguments() bool {
	return r.Right.HasTrailingArguments()
}
