package syntax

// SimpleType is an identifier with optional generic arguments: Int, Array<T>.
type SimpleType struct {
	Name string
	Args []Type
}

// MemberType is a qualified type such as Swift.Int or Outer.Inner<T>.
type MemberType struct {
	Base Type
	Name string
	Args []Type
}

// MetatypeType is T.Type or T.Protocol.
type MetatypeType struct {
	Base Type
	Kind string
}

// ArrayType is [Elem].
type ArrayType struct {
	Elem Type
}

// DictionaryType is [Key: Value].
type DictionaryType struct {
	Key   Type
	Value Type
}

// OptionalType is Wrapped?.
type OptionalType struct {
	Wrapped Type
}

// ImplicitlyUnwrappedOptionalType is Wrapped!.
type ImplicitlyUnwrappedOptionalType struct {
	Wrapped Type
}

// TupleElement is one element of a tuple type. Label is empty when absent.
type TupleElement struct {
	Label string
	Type  Type
}

// TupleType is (A, B). No elements is the empty tuple ().
type TupleType struct {
	Elements []TupleElement
}

// AttributedType is a type with a specifier (inout, borrowing, ...) and/or
// attributes (@escaping, @autoclosure, ...).
type AttributedType struct {
	Specifier  string
	Attributes []string
	Base       Type
}

// FunctionType is (Params) throws -> Result.
type FunctionType struct {
	Params []Type
	Throws bool
	Result Type
}

// CompositionType is A & B.
type CompositionType struct {
	Elements []Type
}

// ClassRestrictionType is the class keyword in an inheritance clause.
type ClassRestrictionType struct{}

// OpaqueType is some T.
type OpaqueType struct {
	Base Type
}

// UnknownType is a type node the front end could not classify.
type UnknownType struct {
	NodeType string
	Text     string
}

func (*SimpleType) typeNode()                      {}
func (*MemberType) typeNode()                      {}
func (*MetatypeType) typeNode()                    {}
func (*ArrayType) typeNode()                       {}
func (*DictionaryType) typeNode()                  {}
func (*OptionalType) typeNode()                    {}
func (*ImplicitlyUnwrappedOptionalType) typeNode() {}
func (*TupleType) typeNode()                       {}
func (*AttributedType) typeNode()                  {}
func (*FunctionType) typeNode()                    {}
func (*CompositionType) typeNode()                 {}
func (*ClassRestrictionType) typeNode()            {}
func (*OpaqueType) typeNode()                      {}
func (*UnknownType) typeNode()                     {}

// ConformanceRequirement is Left: Right in a where clause.
type ConformanceRequirement struct {
	Left  Type
	Right Type
}

// SameTypeRequirement is Left == Right in a where clause.
type SameTypeRequirement struct {
	Left  Type
	Right Type
}

// LayoutRequirement is any other constraint form (layout constraints such as
// T: _Trivial, or a constraint the front end could not classify).
type LayoutRequirement struct {
	Text string
}

func (*ConformanceRequirement) requirementNode() {}
func (*SameTypeRequirement) requirementNode()    {}
func (*LayoutRequirement) requirementNode()      {}

// Named is shorthand for a SimpleType.
func Named(name string, args ...Type) *SimpleType {
	return &SimpleType{Name: name, Args: args}
}
