package extract

import (
	"strings"

	sitter "github.com/smacker/go-tree-sitter"
	"go.uber.org/zap"

	"github.com/sourceisview/siv/internal/logger"
	"github.com/sourceisview/siv/internal/syntax"
)

// lowerDecls lowers the children of a container node (source file, member
// block, ERROR region, statement, ...).
func (e *Extractor) lowerDecls(node *sitter.Node) []syntax.Decl {
	var decls []syntax.Decl
	for _, child := range namedChildren(node) {
		if d := e.lowerDecl(child); d != nil {
			decls = append(decls, d)
		}
	}
	return decls
}

// lowerDecl lowers one node. It returns nil for comments and for unknown
// nodes that contain no declarations.
func (e *Extractor) lowerDecl(node *sitter.Node) syntax.Decl {
	switch node.Type() {
	case "comment", "multiline_comment":
		return nil
	case "class_declaration":
		return e.lowerClassDeclaration(node)
	case "protocol_declaration":
		return e.lowerNominal(node, syntax.Protocol)
	case "function_declaration", "protocol_function_declaration":
		return e.lowerFunction(node)
	case "init_declaration":
		return e.lowerInit(node)
	case "deinit_declaration":
		return &syntax.DeinitDecl{Modifiers: e.modifiers(node)}
	case "subscript_declaration":
		return e.lowerSubscript(node)
	case "property_declaration", "protocol_property_declaration":
		return e.lowerProperty(node)
	case "enum_entry":
		return e.lowerEnumEntry(node)
	case "associatedtype_declaration":
		return e.lowerAssociatedType(node)
	case "typealias_declaration":
		return e.lowerTypeAlias(node)
	case "import_declaration":
		return e.lowerImport(node)
	}

	nested := e.lowerDecls(node)
	if len(nested) == 0 {
		return nil
	}
	e.log.Debug("descending into unknown node",
		zap.String("node", node.Type()),
		zap.Int(logger.FieldCount, len(nested)),
	)
	return &syntax.UnknownDecl{NodeType: node.Type(), Children: nested}
}

// lowerClassDeclaration splits class_declaration by its declaration_kind:
// struct, class, actor, enum or extension.
func (e *Extractor) lowerClassDeclaration(node *sitter.Node) syntax.Decl {
	kind := ""
	if k := findChildByFieldName(node, "declaration_kind"); k != nil {
		kind = e.nodeText(k)
	} else {
		for _, child := range children(node) {
			switch child.Type() {
			case "struct", "class", "actor", "enum", "extension":
				kind = child.Type()
			}
			if kind != "" {
				break
			}
		}
	}

	switch kind {
	case "struct":
		return e.lowerNominal(node, syntax.Struct)
	case "enum":
		return e.lowerNominal(node, syntax.Enum)
	case "extension":
		return e.lowerExtension(node)
	default:
		return e.lowerNominal(node, syntax.Class)
	}
}

func (e *Extractor) lowerNominal(node *sitter.Node, kind syntax.NominalKind) *syntax.NominalDecl {
	decl := &syntax.NominalDecl{
		Kind:        kind,
		Modifiers:   e.modifiers(node),
		Inheritance: e.inheritance(node),
		Members:     e.members(node),
	}
	if name := findChildByFieldName(node, "name"); name != nil {
		decl.Name = e.nodeText(name)
	} else if name := findChildByType(node, "type_identifier"); name != nil {
		decl.Name = e.nodeText(name)
	}
	decl.GenericParams, decl.Where = e.genericClause(node)
	return decl
}

func (e *Extractor) lowerExtension(node *sitter.Node) *syntax.ExtensionDecl {
	decl := &syntax.ExtensionDecl{
		Modifiers:   e.modifiers(node),
		Inheritance: e.inheritance(node),
		Members:     e.members(node),
	}
	if name := findChildByFieldName(node, "name"); name != nil {
		decl.ExtendedType = e.lowerType(name)
	} else {
		decl.ExtendedType = e.firstType(node)
	}
	_, decl.Where = e.genericClause(node)
	return decl
}

// members lowers the declarations of a class, enum or protocol body.
func (e *Extractor) members(node *sitter.Node) []syntax.Decl {
	body := findChildByFieldName(node, "body")
	if body == nil {
		for _, t := range []string{"class_body", "enum_class_body", "protocol_body"} {
			if body = findChildByType(node, t); body != nil {
				break
			}
		}
	}
	if body == nil {
		return nil
	}
	return e.lowerDecls(body)
}

// inheritance collects the types listed after the colon of a type declaration.
func (e *Extractor) inheritance(node *sitter.Node) []syntax.Type {
	var types []syntax.Type
	for _, spec := range findChildrenByType(node, "inheritance_specifier") {
		inherited := findChildByFieldName(spec, "inherits_from")
		if inherited == nil {
			inherited = e.typeChildAt(spec, 0)
		}
		if inherited != nil {
			types = append(types, e.lowerType(inherited))
		}
	}
	return types
}

// genericClause lowers type_parameters and every type_constraints clause of
// node, including one nested inside the parameter list.
func (e *Extractor) genericClause(node *sitter.Node) ([]syntax.GenericParam, []syntax.Requirement) {
	var params []syntax.GenericParam
	var where []syntax.Requirement

	if tp := findChildByType(node, "type_parameters"); tp != nil {
		for _, p := range findChildrenByType(tp, "type_parameter") {
			var param syntax.GenericParam
			// The name is usually aliased to type_identifier, which is itself
			// a type node, so the bound is the second type child.
			nameNode, boundIndex := findChildByType(p, "type_identifier"), 1
			if nameNode == nil {
				nameNode, boundIndex = findChildByType(p, "simple_identifier"), 0
			}
			if nameNode != nil {
				param.Name = e.nodeText(nameNode)
			}
			if bound := e.typeChildAt(p, boundIndex); bound != nil {
				param.Inherited = e.lowerType(bound)
			}
			params = append(params, param)
		}
		if tc := findChildByType(tp, "type_constraints"); tc != nil {
			where = append(where, e.requirements(tc)...)
		}
	}
	for _, tc := range findChildrenByType(node, "type_constraints") {
		where = append(where, e.requirements(tc)...)
	}
	return params, where
}

// requirements lowers the entries of a type_constraints clause.
func (e *Extractor) requirements(node *sitter.Node) []syntax.Requirement {
	var reqs []syntax.Requirement
	for _, tc := range findChildrenByType(node, "type_constraint") {
		for _, c := range namedChildren(tc) {
			switch c.Type() {
			case "inheritance_constraint":
				right := findChildByFieldName(c, "inherits_from")
				reqs = append(reqs, &syntax.ConformanceRequirement{
					Left:  e.lowerConstraintSubject(findChildByFieldName(c, "constrained_type")),
					Right: e.lowerType(right),
				})
			case "equality_constraint":
				reqs = append(reqs, &syntax.SameTypeRequirement{
					Left:  e.lowerConstraintSubject(findChildByFieldName(c, "constrained_type")),
					Right: e.lowerType(findChildByFieldName(c, "must_equal")),
				})
			default:
				reqs = append(reqs, &syntax.LayoutRequirement{Text: e.nodeText(c)})
			}
		}
	}
	return reqs
}

// modifiers reads the modifiers node of a declaration plus the bare
// "class" and "indirect" keywords the grammar keeps outside it.
// Attributes are skipped; access modifiers lose their (set) suffix.
func (e *Extractor) modifiers(node *sitter.Node) []syntax.Modifier {
	var mods []syntax.Modifier
	for _, fc := range fieldChildren(node) {
		child := fc.node
		if fc.field == "declaration_kind" {
			continue
		}
		switch child.Type() {
		case "modifiers":
			for _, m := range namedChildren(child) {
				if m.Type() == "attribute" {
					continue
				}
				text := e.nodeText(m)
				if i := strings.Index(text, "("); i >= 0 {
					text = text[:i]
				}
				if text = strings.TrimSpace(text); text != "" {
					mods = append(mods, syntax.Modifier{Name: text})
				}
			}
		case "class":
			// On a class declaration the keyword is the declaration kind.
			if !child.IsNamed() && node.Type() != "class_declaration" {
				mods = append(mods, syntax.Modifier{Name: "class"})
			}
		case "indirect":
			if !child.IsNamed() {
				mods = append(mods, syntax.Modifier{Name: "indirect"})
			}
		}
	}
	return mods
}

func (e *Extractor) lowerFunction(node *sitter.Node) *syntax.FuncDecl {
	decl := &syntax.FuncDecl{
		Modifiers: e.modifiers(node),
		Params:    e.params(node),
		Effect:    e.effect(node),
	}
	if name := findChildByFieldName(node, "name"); name != nil {
		decl.Name = e.nodeText(name)
	} else if name := findChildByType(node, "simple_identifier"); name != nil {
		decl.Name = e.nodeText(name)
	}
	if result := findChildByFieldName(node, "return_type"); result != nil {
		decl.Result = e.annotatedResult(result)
	}
	decl.GenericParams, decl.Where = e.genericClause(node)
	return decl
}

func (e *Extractor) lowerInit(node *sitter.Node) *syntax.InitDecl {
	decl := &syntax.InitDecl{
		Modifiers: e.modifiers(node),
		Params:    e.params(node),
		Effect:    e.effect(node),
	}
	for _, child := range children(node) {
		switch child.Type() {
		case "?":
			decl.Failability = syntax.FailableOptional
		case "!", "bang":
			decl.Failability = syntax.FailableForced
		}
	}
	decl.GenericParams, decl.Where = e.genericClause(node)
	return decl
}

func (e *Extractor) lowerSubscript(node *sitter.Node) *syntax.SubscriptDecl {
	decl := &syntax.SubscriptDecl{
		Modifiers: e.modifiers(node),
		Params:    e.params(node),
	}
	if result := findChildByFieldName(node, "return_type"); result != nil {
		decl.Result = e.annotatedResult(result)
	} else {
		decl.Result = e.firstType(node)
	}
	decl.GenericParams, decl.Where = e.genericClause(node)
	return decl
}

// annotatedResult lowers a return type, which may carry a trailing "!".
func (e *Extractor) annotatedResult(result *sitter.Node) syntax.Type {
	t := e.lowerType(result)
	if next := result.NextSibling(); next != nil && next.Type() == "!" {
		t = &syntax.ImplicitlyUnwrappedOptionalType{Wrapped: t}
	}
	return t
}

// params lowers the parameter children of a function, initializer or
// subscript.
func (e *Extractor) params(node *sitter.Node) []syntax.Param {
	var params []syntax.Param
	for _, p := range findChildrenByType(node, "parameter") {
		params = append(params, e.param(p))
	}
	return params
}

func (e *Extractor) param(node *sitter.Node) syntax.Param {
	var p syntax.Param
	external := findChildByFieldName(node, "external_name")
	name := findChildByFieldName(node, "name")
	switch {
	case external != nil && name != nil:
		p.FirstName, p.SecondName = e.nodeText(external), e.nodeText(name)
	case name != nil:
		p.FirstName = e.nodeText(name)
		if prev := name.PrevSibling(); prev != nil && e.nodeText(prev) == "_" {
			p.FirstName, p.SecondName = "_", e.nodeText(name)
		}
	default:
		idents := findChildrenByType(node, "simple_identifier")
		if len(idents) > 0 {
			p.FirstName = e.nodeText(idents[0])
		}
		if len(idents) > 1 {
			p.SecondName = e.nodeText(idents[1])
		}
	}
	p.Type = e.firstType(node)
	return p
}

func (e *Extractor) effect(node *sitter.Node) syntax.Effect {
	for _, child := range children(node) {
		switch child.Type() {
		case "throws", "rethrows":
			if strings.Contains(e.nodeText(child), "rethrows") {
				return syntax.Rethrows
			}
			return syntax.Throws
		}
	}
	return syntax.NoEffect
}

// lowerProperty lowers let/var declarations. A pattern child opens a new
// binding; a type_annotation attaches to the binding opened last.
func (e *Extractor) lowerProperty(node *sitter.Node) *syntax.VarDecl {
	decl := &syntax.VarDecl{Modifiers: e.modifiers(node)}

	for _, child := range children(node) {
		switch child.Type() {
		case "value_binding_pattern":
			if decl.Keyword == "" {
				decl.Keyword = bindingKeyword(e.nodeText(child))
			}
		case "let", "var":
			if decl.Keyword == "" && !child.IsNamed() {
				decl.Keyword = child.Type()
			}
		case "pattern":
			decl.Bindings = append(decl.Bindings, syntax.Binding{Pattern: e.lowerPattern(child)})
			// Some grammar versions nest the binding keyword inside the pattern.
			if decl.Keyword == "" {
				if kw := findChildByType(child, "value_binding_pattern"); kw != nil {
					decl.Keyword = bindingKeyword(e.nodeText(kw))
				}
			}
		case "type_annotation":
			if len(decl.Bindings) > 0 {
				decl.Bindings[len(decl.Bindings)-1].Type = e.firstType(child)
			}
		}
	}

	if decl.Keyword == "" && node.Type() == "protocol_property_declaration" {
		decl.Keyword = "var"
	}
	return decl
}

// bindingKeyword returns the first word of a binding pattern's text.
func bindingKeyword(text string) string {
	fields := strings.Fields(text)
	if len(fields) == 0 {
		return ""
	}
	return fields[0]
}

func (e *Extractor) lowerPattern(node *sitter.Node) syntax.Pattern {
	var idents []*sitter.Node
	named := 0
	for _, child := range namedChildren(node) {
		if child.Type() == "value_binding_pattern" {
			continue
		}
		named++
		if child.Type() == "simple_identifier" {
			idents = append(idents, child)
		}
	}
	if named == 1 && len(idents) == 1 {
		return syntax.IdentifierPattern{Name: e.nodeText(idents[0])}
	}
	return syntax.OtherPattern{Text: e.nodeText(node)}
}

// lowerEnumEntry lowers a case declaration. Each name opens an element;
// a parenthesised payload attaches to the element before it.
func (e *Extractor) lowerEnumEntry(node *sitter.Node) *syntax.EnumCaseDecl {
	decl := &syntax.EnumCaseDecl{Modifiers: e.modifiers(node)}
	for _, fc := range fieldChildren(node) {
		switch {
		case fc.field == "name" || (fc.field == "" && fc.node.Type() == "simple_identifier"):
			decl.Elements = append(decl.Elements, syntax.EnumCaseElement{Name: e.nodeText(fc.node)})
		case fc.field == "data_contents" || fc.node.Type() == "enum_type_parameters":
			if len(decl.Elements) == 0 {
				continue
			}
			decl.Elements[len(decl.Elements)-1].AssociatedValues = e.enumPayload(fc.node)
		}
	}
	return decl
}

// enumPayload lowers enum_type_parameters. It never returns nil, so an empty
// payload "()" stays distinguishable from no payload.
func (e *Extractor) enumPayload(node *sitter.Node) []syntax.Param {
	params := []syntax.Param{}
	label := ""
	for _, child := range children(node) {
		switch {
		case child.Type() == "simple_identifier":
			label = e.nodeText(child)
		case child.Type() == "=":
			label = ""
		case isTypeNode(child):
			t := e.lowerType(child)
			if next := child.NextSibling(); next != nil && next.Type() == "!" {
				t = &syntax.ImplicitlyUnwrappedOptionalType{Wrapped: t}
			}
			params = append(params, syntax.Param{FirstName: label, Type: t})
			label = ""
		}
	}
	return params
}

func (e *Extractor) lowerAssociatedType(node *sitter.Node) *syntax.AssociatedTypeDecl {
	decl := &syntax.AssociatedTypeDecl{Modifiers: e.modifiers(node)}
	if name := findChildByFieldName(node, "name"); name != nil {
		decl.Name = e.nodeText(name)
	} else if name := findChildByType(node, "type_identifier"); name != nil {
		decl.Name = e.nodeText(name)
	}
	if inherited := findChildByFieldName(node, "must_inherit"); inherited != nil {
		decl.Inheritance = []syntax.Type{e.lowerType(inherited)}
	}
	_, decl.Where = e.genericClause(node)
	return decl
}

func (e *Extractor) lowerTypeAlias(node *sitter.Node) *syntax.TypeAliasDecl {
	decl := &syntax.TypeAliasDecl{Modifiers: e.modifiers(node)}
	name := findChildByFieldName(node, "name")
	if name == nil {
		name = findChildByType(node, "type_identifier")
	}
	if name != nil {
		decl.Name = e.nodeText(name)
	}
	if value := findChildByFieldName(node, "value"); value != nil {
		decl.Underlying = e.lowerType(value)
	} else {
		seenEquals := false
		for _, child := range children(node) {
			if child.Type() == "=" {
				seenEquals = true
				continue
			}
			if seenEquals && isTypeNode(child) {
				decl.Underlying = e.lowerType(child)
				break
			}
		}
	}
	decl.GenericParams, decl.Where = e.genericClause(node)
	return decl
}

func (e *Extractor) lowerImport(node *sitter.Node) *syntax.ImportDecl {
	path := ""
	if ident := findChildByType(node, "identifier"); ident != nil {
		path = e.nodeText(ident)
	}
	return &syntax.ImportDecl{Path: path}
}
