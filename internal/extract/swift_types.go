package extract

import (
	"strings"

	sitter "github.com/smacker/go-tree-sitter"

	"github.com/sourceisview/siv/internal/syntax"
)

// swiftTypeNodes are the node types that denote a type expression.
var swiftTypeNodes = map[string]bool{
	"user_type":                 true,
	"tuple_type":                true,
	"function_type":             true,
	"array_type":                true,
	"dictionary_type":           true,
	"optional_type":             true,
	"metatype":                  true,
	"opaque_type":               true,
	"existential_type":          true,
	"protocol_composition_type": true,
	"type_identifier":           true,
}

func isTypeNode(node *sitter.Node) bool {
	return node != nil && swiftTypeNodes[node.Type()]
}

// firstType finds the first type child of node and lowers it, honouring a
// trailing "!" (implicitly unwrapped optional) and inout parameter modifiers.
// It returns nil when node has no type child.
func (e *Extractor) firstType(node *sitter.Node) syntax.Type {
	if node == nil {
		return nil
	}
	if field := findChildByFieldName(node, "type"); isTypeNode(field) {
		return e.annotatedType(node, field)
	}
	for _, child := range children(node) {
		if isTypeNode(child) {
			return e.annotatedType(node, child)
		}
	}
	return nil
}

// annotatedType lowers typeNode as it appears under parent.
func (e *Extractor) annotatedType(parent, typeNode *sitter.Node) syntax.Type {
	t := e.lowerType(typeNode)
	if next := typeNode.NextSibling(); next != nil && next.Type() == "!" {
		t = &syntax.ImplicitlyUnwrappedOptionalType{Wrapped: t}
	}
	if mods := findChildByType(parent, "parameter_modifiers"); mods != nil {
		if strings.Contains(e.nodeText(mods), "inout") {
			t = &syntax.AttributedType{Specifier: "inout", Base: t}
		}
	}
	return t
}

// lowerType converts a type expression node. Unrecognized shapes become
// UnknownType so that the translator reports them as bad types.
func (e *Extractor) lowerType(node *sitter.Node) syntax.Type {
	if node == nil {
		return nil
	}
	switch node.Type() {
	case "type_identifier":
		return e.simpleType(e.nodeText(node), nil)

	case "user_type":
		return e.lowerUserType(node)

	case "array_type":
		elem := findChildByFieldName(node, "element")
		if elem == nil {
			elem = e.typeChildAt(node, 0)
		}
		return &syntax.ArrayType{Elem: e.lowerType(elem)}

	case "dictionary_type":
		key := findChildByFieldName(node, "key")
		value := findChildByFieldName(node, "value")
		if key == nil || value == nil {
			key, value = e.typeChildAt(node, 0), e.typeChildAt(node, 1)
		}
		return &syntax.DictionaryType{Key: e.lowerType(key), Value: e.lowerType(value)}

	case "optional_type":
		wrapped := findChildByFieldName(node, "wrapped")
		if wrapped == nil {
			wrapped = e.typeChildAt(node, 0)
		}
		t := e.lowerType(wrapped)
		marks := len(findChildrenByType(node, "?"))
		if marks == 0 {
			marks = 1
		}
		for i := 0; i < marks; i++ {
			t = &syntax.OptionalType{Wrapped: t}
		}
		return t

	case "tuple_type":
		return &syntax.TupleType{Elements: e.tupleElements(node)}

	case "function_type":
		return e.lowerFunctionType(node)

	case "metatype":
		kind := "Type"
		if last := node.Child(int(node.ChildCount()) - 1); last != nil && !last.IsNamed() {
			kind = e.nodeText(last)
		}
		return &syntax.MetatypeType{Base: e.lowerType(e.typeChildAt(node, 0)), Kind: kind}

	case "opaque_type":
		return &syntax.OpaqueType{Base: e.lowerType(e.typeChildAt(node, 0))}

	case "protocol_composition_type":
		var elems []syntax.Type
		for _, child := range namedChildren(node) {
			if isTypeNode(child) {
				elems = append(elems, e.lowerType(child))
			}
		}
		return &syntax.CompositionType{Elements: elems}

	default:
		return &syntax.UnknownType{NodeType: node.Type(), Text: e.nodeText(node)}
	}
}

// simpleType builds a SimpleType, mapping the class constraint keyword.
func (e *Extractor) simpleType(name string, args []syntax.Type) syntax.Type {
	if name == "class" && len(args) == 0 {
		return &syntax.ClassRestrictionType{}
	}
	return &syntax.SimpleType{Name: name, Args: args}
}

// lowerUserType handles A, A<B> and dotted A<B>.C<D> forms. Each
// type_identifier starts a component; a type_arguments node attaches to the
// component before it.
func (e *Extractor) lowerUserType(node *sitter.Node) syntax.Type {
	type component struct {
		name string
		args []syntax.Type
	}
	var parts []component
	for _, child := range namedChildren(node) {
		switch child.Type() {
		case "type_identifier":
			parts = append(parts, component{name: e.nodeText(child)})
		case "type_arguments":
			if len(parts) == 0 {
				continue
			}
			for _, arg := range namedChildren(child) {
				if isTypeNode(arg) {
					parts[len(parts)-1].args = append(parts[len(parts)-1].args, e.lowerType(arg))
				}
			}
		}
	}
	if len(parts) == 0 {
		return &syntax.UnknownType{NodeType: node.Type(), Text: e.nodeText(node)}
	}

	t := e.simpleType(parts[0].name, parts[0].args)
	for _, p := range parts[1:] {
		t = &syntax.MemberType{Base: t, Name: p.name, Args: p.args}
	}
	return t
}

// tupleElements lowers the items of a tuple_type. Items may be wrapped in
// tuple_type_item nodes or appear as bare types.
func (e *Extractor) tupleElements(node *sitter.Node) []syntax.TupleElement {
	var elems []syntax.TupleElement
	for _, child := range namedChildren(node) {
		switch {
		case child.Type() == "tuple_type_item":
			el := syntax.TupleElement{Type: e.firstType(child)}
			if name := findChildByFieldName(child, "name"); name != nil {
				el.Label = e.nodeText(name)
			} else if name := findChildByType(child, "simple_identifier"); name != nil {
				el.Label = e.nodeText(name)
			}
			elems = append(elems, el)
		case isTypeNode(child):
			elems = append(elems, syntax.TupleElement{Type: e.lowerType(child)})
		}
	}
	return elems
}

func (e *Extractor) lowerFunctionType(node *sitter.Node) *syntax.FunctionType {
	fn := &syntax.FunctionType{}

	params := findChildByFieldName(node, "params")
	result := findChildByFieldName(node, "return_type")
	if params == nil || result == nil {
		var types []*sitter.Node
		for _, child := range namedChildren(node) {
			if isTypeNode(child) {
				types = append(types, child)
			}
		}
		if len(types) >= 2 {
			params, result = types[0], types[len(types)-1]
		}
	}

	if params != nil {
		if params.Type() == "tuple_type" {
			for _, el := range e.tupleElements(params) {
				fn.Params = append(fn.Params, el.Type)
			}
		} else {
			fn.Params = []syntax.Type{e.lowerType(params)}
		}
	}
	fn.Result = e.lowerType(result)
	fn.Throws = hasToken(node, "throws")
	return fn
}

// typeChildAt returns the i-th type child of node.
func (e *Extractor) typeChildAt(node *sitter.Node, i int) *sitter.Node {
	for _, child := range namedChildren(node) {
		if !isTypeNode(child) {
			continue
		}
		if i == 0 {
			return child
		}
		i--
	}
	return nil
}

// lowerConstraintSubject lowers the left side of a where-clause entry, which
// the grammar may present as a dotted identifier rather than a type.
func (e *Extractor) lowerConstraintSubject(node *sitter.Node) syntax.Type {
	if node == nil {
		return nil
	}
	if isTypeNode(node) {
		return e.lowerType(node)
	}
	parts := strings.Split(strings.TrimSpace(e.nodeText(node)), ".")
	var t syntax.Type = &syntax.SimpleType{Name: strings.TrimSpace(parts[0])}
	for _, p := range parts[1:] {
		t = &syntax.MemberType{Base: t, Name: strings.TrimSpace(p)}
	}
	return t
}
