// Package syntax defines the typed declaration tree consumed by the translator.
//
// The tree covers the Swift declaration forms siv understands: nominal types,
// extensions, functions, initializers, subscripts, properties, enum cases,
// associated types, type aliases, deinitializers and imports. Anything else is
// kept as an UnknownDecl so that declarations nested inside it are still
// reachable. Lower builds a File from a tree-sitter parse; tests and other front
// ends may construct the nodes directly.
package syntax

// File is the root of a declaration tree.
type File struct {
	Path  string
	Decls []Decl
}

// Decl is a declaration node.
type Decl interface {
	declNode()
}

// Type is a type expression node.
type Type interface {
	typeNode()
}

// Requirement is one entry of a trailing where clause.
type Requirement interface {
	requirementNode()
}

// Modifier is a declaration modifier keyword such as public, static or mutating.
type Modifier struct {
	Name string
}

// Modifiers builds a modifier list from keywords.
func Modifiers(names ...string) []Modifier {
	out := make([]Modifier, len(names))
	for i, n := range names {
		out[i] = Modifier{Name: n}
	}
	return out
}

// GenericParam is one entry of a generic parameter clause. Inherited is the
// inline bound (T: Equatable) and is nil when absent.
type GenericParam struct {
	Name      string
	Inherited Type
}

// Param is a function, initializer, subscript or enum-case parameter.
// FirstName and SecondName are empty when absent; a wildcard label is "_".
// Type is nil when the source omitted it.
type Param struct {
	FirstName  string
	SecondName string
	Type       Type
}

// Effect is the throwing behaviour of a function or initializer.
type Effect int

const (
	// NoEffect means neither throws nor rethrows.
	NoEffect Effect = iota
	// Throws marks a throwing declaration.
	Throws
	// Rethrows marks a rethrowing declaration.
	Rethrows
)

// Failability is the optional mark on an initializer.
type Failability int

const (
	// NotFailable is a plain init.
	NotFailable Failability = iota
	// FailableOptional is init?.
	FailableOptional
	// FailableForced is init!.
	FailableForced
)

// NominalKind tells the nominal declarations apart.
type NominalKind int

const (
	// Struct is a struct declaration.
	Struct NominalKind = iota
	// Class is a class declaration (actors lower to classes).
	Class
	// Enum is an enum declaration.
	Enum
	// Protocol is a protocol declaration.
	Protocol
)

// NominalDecl is a struct, class, enum or protocol.
type NominalDecl struct {
	Kind          NominalKind
	Name          string
	Modifiers     []Modifier
	GenericParams []GenericParam
	Where         []Requirement
	Inheritance   []Type
	Members       []Decl
}

// ExtensionDecl extends ExtendedType with Members.
type ExtensionDecl struct {
	ExtendedType Type
	Modifiers    []Modifier
	Inheritance  []Type
	Where        []Requirement
	Members      []Decl
}

// FuncDecl is a function or method. Result is nil without an arrow clause.
type FuncDecl struct {
	Name          string
	Modifiers     []Modifier
	GenericParams []GenericParam
	Where         []Requirement
	Params        []Param
	Result        Type
	Effect        Effect
}

// InitDecl is an initializer.
type InitDecl struct {
	Modifiers     []Modifier
	GenericParams []GenericParam
	Where         []Requirement
	Params        []Param
	Effect        Effect
	Failability   Failability
}

// SubscriptDecl is a subscript. Result is nil only for malformed input.
type SubscriptDecl struct {
	Modifiers     []Modifier
	GenericParams []GenericParam
	Where         []Requirement
	Params        []Param
	Result        Type
}

// VarDecl is a let or var declaration with one or more bindings. Keyword
// holds the binding keyword as written.
type VarDecl struct {
	Modifiers []Modifier
	Keyword   string
	Bindings  []Binding
}

// Binding is one pattern of a VarDecl. Type is nil without an annotation.
type Binding struct {
	Pattern Pattern
	Type    Type
}

// Pattern is the left-hand side of a binding.
type Pattern interface {
	patternNode()
}

// IdentifierPattern binds a single name.
type IdentifierPattern struct {
	Name string
}

// OtherPattern is any destructuring pattern (tuples, wildcards, ...).
type OtherPattern struct {
	Text string
}

// EnumCaseDecl is a case declaration that may list several elements.
type EnumCaseDecl struct {
	Modifiers []Modifier
	Elements  []EnumCaseElement
}

// EnumCaseElement is one case name. AssociatedValues is nil when the case has
// no parenthesised payload.
type EnumCaseElement struct {
	Name             string
	AssociatedValues []Param
}

// AssociatedTypeDecl is an associatedtype requirement.
type AssociatedTypeDecl struct {
	Name        string
	Modifiers   []Modifier
	Inheritance []Type
	Where       []Requirement
}

// TypeAliasDecl is a typealias. Underlying is nil when the source has no
// initializer.
type TypeAliasDecl struct {
	Name          string
	Modifiers     []Modifier
	GenericParams []GenericParam
	Where         []Requirement
	Underlying    Type
}

// DeinitDecl is a deinitializer.
type DeinitDecl struct {
	Modifiers []Modifier
}

// ImportDecl is an import.
type ImportDecl struct {
	Path string
}

// UnknownDecl is a node the translator does not handle itself; declarations
// nested in it are still visited.
type UnknownDecl struct {
	NodeType string
	Children []Decl
}

func (*NominalDecl) declNode()        {}
func (*ExtensionDecl) declNode()      {}
func (*FuncDecl) declNode()           {}
func (*InitDecl) declNode()           {}
func (*SubscriptDecl) declNode()      {}
func (*VarDecl) declNode()            {}
func (*EnumCaseDecl) declNode()       {}
func (*AssociatedTypeDecl) declNode() {}
func (*TypeAliasDecl) declNode()      {}
func (*DeinitDecl) declNode()         {}
func (*ImportDecl) declNode()         {}
func (*UnknownDecl) declNode()        {}

func (IdentifierPattern) patternNode() {}
func (OtherPattern) patternNode()      {}
