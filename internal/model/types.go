package model

import "github.com/sourceisview/siv/internal/cell"

// TypeKind tags the variant held by a TypeRepr.
type TypeKind int

const (
	// NamedType is a nominal type reference; TypeRepr.Name holds the identifier.
	NamedType TypeKind = iota
	// AnyType is the bare Any placeholder.
	AnyType
	// ExistentialType is a protocol composition over its arguments.
	ExistentialType
	// OptionalType wraps one argument.
	OptionalType
	// ImplicitlyUnwrappedType wraps one argument.
	ImplicitlyUnwrappedType
	// ArrayType wraps its element type.
	ArrayType
	// DictionaryType holds key then value.
	DictionaryType
	// TupleType holds its element types; no arguments is the empty tuple.
	TupleType
	// InOutType wraps exactly one argument.
	InOutType
	// FunctionType holds parameter types; TypeRepr.Returning holds the result.
	FunctionType
)

// TypeRepr is the recursive representation of a type expression.
type TypeRepr struct {
	Kind      TypeKind
	Name      string
	Returning *TypeRepr
	Arguments []TypeRepr
}

// Named builds a named type with optional generic arguments.
func Named(name string, args ...TypeRepr) TypeRepr {
	return TypeRepr{Kind: NamedType, Name: name, Arguments: args}
}

// Any returns the bare Any type.
func Any() TypeRepr {
	return TypeRepr{Kind: AnyType}
}

// Existential builds a composition of the given members.
func Existential(members ...TypeRepr) TypeRepr {
	return TypeRepr{Kind: ExistentialType, Arguments: members}
}

// Optional wraps t.
func Optional(t TypeRepr) TypeRepr {
	return TypeRepr{Kind: OptionalType, Arguments: []TypeRepr{t}}
}

// ImplicitlyUnwrapped wraps t.
func ImplicitlyUnwrapped(t TypeRepr) TypeRepr {
	return TypeRepr{Kind: ImplicitlyUnwrappedType, Arguments: []TypeRepr{t}}
}

// Array wraps the element type.
func Array(elem TypeRepr) TypeRepr {
	return TypeRepr{Kind: ArrayType, Arguments: []TypeRepr{elem}}
}

// Dictionary builds a dictionary from key and value types.
func Dictionary(key, value TypeRepr) TypeRepr {
	return TypeRepr{Kind: DictionaryType, Arguments: []TypeRepr{key, value}}
}

// Tuple builds a tuple. With no elements it is the empty tuple.
func Tuple(elems ...TypeRepr) TypeRepr {
	return TypeRepr{Kind: TupleType, Arguments: elems}
}

// InOut wraps exactly one type.
func InOut(t TypeRepr) TypeRepr {
	return TypeRepr{Kind: InOutType, Arguments: []TypeRepr{t}}
}

// Function builds a function type. Callers substitute an empty tuple when
// there are no parameters.
func Function(returning TypeRepr, params ...TypeRepr) TypeRepr {
	return TypeRepr{Kind: FunctionType, Returning: &returning, Arguments: params}
}

// HasTrailingArguments reports whether the rendering of t ends in a nested
// argument list.
func (t TypeRepr) HasTrailingArguments() bool {
	switch t.Kind {
	case FunctionType:
		return t.Returning.HasTrailingArguments()
	case InOutType:
		return t.Arguments[0].HasTrailingArguments()
	default:
		return len(t.Arguments) > 0
	}
}

// Cells renders the type.
func (t TypeRepr) Cells() cell.Row {
	var base cell.Cell
	switch t.Kind {
	case AnyType:
		return cell.Row{"ANY"}
	case InOutType:
		return append(cell.Row{"INOUT"}, t.Arguments[0].Cells()...)
	case FunctionType:
		out := cell.Row{"CLOSUR", "OF"}
		out = append(out, JoinTypes(t.Arguments)...)
		out = append(out, "TO")
		return append(out, t.Returning.Cells()...)
	case NamedType:
		base = cell.Cell(t.Name)
	case ExistentialType:
		base = "ANY"
	case OptionalType:
		base = "OPT"
	case ImplicitlyUnwrappedType:
		base = "IUO"
	case ArrayType:
		base = "ARRAY"
	case DictionaryType:
		base = "DICT"
	case TupleType:
		if len(t.Arguments) == 0 {
			return cell.Row{"EMPTY"}
		}
		base = "TUPLE"
	}

	if len(t.Arguments) == 0 {
		return cell.Row{base}
	}
	out := cell.Row{base, "OF"}
	return append(out, JoinTypes(t.Arguments)...)
}
