// Package translate turns a syntax tree into the Entity model.
//
// Translation is top-down. Each recognized declaration becomes one Entity (or
// one per binding / enum case element) and its internal nodes are not visited
// again, except for member blocks, which are translated independently and
// become the entity's children. A declaration that cannot be translated is
// dropped without affecting its siblings.
package translate

import (
	"context"
	"fmt"
	"strings"

	"github.com/cockroachdb/errors"
	"go.uber.org/zap"
	"golang.org/x/sync/errgroup"

	"github.com/sourceisview/siv/internal/logger"
	"github.com/sourceisview/siv/internal/model"
	"github.com/sourceisview/siv/internal/syntax"
)

// Translator converts declaration trees into entities. It holds no per-tree
// state and is safe for concurrent use.
type Translator struct {
	log *zap.Logger
}

// Option configures a Translator.
type Option func(*Translator)

// WithLogger sets the logger that receives dropped-declaration events.
func WithLogger(l *zap.Logger) Option {
	return func(t *Translator) {
		if l != nil {
			t.log = l
		}
	}
}

// New creates a Translator. By default it logs through the global logger.
func New(opts ...Option) *Translator {
	t := &Translator{log: logger.Named("translate")}
	for _, opt := range opts {
		opt(t)
	}
	return t
}

// TranslateFile translates every top-level declaration of f.
func (t *Translator) TranslateFile(f *syntax.File) []model.Entity {
	if f == nil {
		return nil
	}
	return t.TranslateDecls(f.Decls)
}

// TranslateDecls translates a declaration list into a fresh entity list.
func (t *Translator) TranslateDecls(decls []syntax.Decl) []model.Entity {
	var entities []model.Entity
	for _, d := range decls {
		entities = append(entities, t.translateDecl(d)...)
	}
	return entities
}

// TranslateDeclsParallel translates sibling declarations concurrently, at
// most limit at a time (limit <= 0 means unbounded), and returns the entities
// in source order. The result equals TranslateDecls on the same input.
func (t *Translator) TranslateDeclsParallel(ctx context.Context, decls []syntax.Decl, limit int) ([]model.Entity, error) {
	results := make([][]model.Entity, len(decls))

	g, ctx := errgroup.WithContext(ctx)
	if limit > 0 {
		g.SetLimit(limit)
	}
	for i, d := range decls {
		i, d := i, d
		g.Go(func() error {
			if err := ctx.Err(); err != nil {
				return err
			}
			results[i] = t.translateDecl(d)
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		return nil, errors.Wrap(err, "translate declarations")
	}

	var entities []model.Entity
	for _, r := range results {
		entities = append(entities, r...)
	}
	return entities, nil
}

// translateDecl dispatches on the declaration kind. Unknown containers are
// descended into; everything else stops here.
func (t *Translator) translateDecl(d syntax.Decl) []model.Entity {
	switch n := d.(type) {
	case *syntax.NominalDecl:
		return t.keep(n, func() ([]model.Entity, error) { return one(t.translateNominal(n)) })
	case *syntax.ExtensionDecl:
		return t.keep(n, func() ([]model.Entity, error) { return t.translateExtension(n) })
	case *syntax.FuncDecl:
		return t.keep(n, func() ([]model.Entity, error) { return one(translateFunc(n)) })
	case *syntax.InitDecl:
		return t.keep(n, func() ([]model.Entity, error) { return one(translateInit(n)) })
	case *syntax.SubscriptDecl:
		return t.keep(n, func() ([]model.Entity, error) { return one(translateSubscript(n)) })
	case *syntax.VarDecl:
		return t.keep(n, func() ([]model.Entity, error) { return t.translateVar(n) })
	case *syntax.EnumCaseDecl:
		return t.keep(n, func() ([]model.Entity, error) { return t.translateEnumCase(n), nil })
	case *syntax.AssociatedTypeDecl:
		return t.keep(n, func() ([]model.Entity, error) { return one(translateAssociatedType(n)) })
	case *syntax.TypeAliasDecl:
		return t.keep(n, func() ([]model.Entity, error) { return one(translateTypeAlias(n)) })
	case *syntax.DeinitDecl:
		return []model.Entity{{
			Name:        "deinit",
			Kind:        model.DeinitKind,
			Descriptors: collectModifiers(n.Modifiers, nil),
		}}
	case *syntax.ImportDecl:
		// Imports are not rendered.
		return nil
	case *syntax.UnknownDecl:
		return t.TranslateDecls(n.Children)
	case nil:
		return nil
	default:
		panic(errors.AssertionFailedf("unhandled declaration node %T", d))
	}
}

func one(e model.Entity, err error) ([]model.Entity, error) {
	if err != nil {
		return nil, err
	}
	return []model.Entity{e}, nil
}

// keep runs fn and drops its result on a translation error. Any other error
// is an invariant violation and panics.
func (t *Translator) keep(d syntax.Decl, fn func() ([]model.Entity, error)) []model.Entity {
	entities, err := fn()
	if err == nil {
		return entities
	}
	t.dropped(d, err)
	return nil
}

func (t *Translator) dropped(what interface{}, err error) {
	if !IsTranslationError(err) {
		panic(errors.NewAssertionErrorWithWrappedErrf(err, "unexpected error translating %s", describeDecl(what)))
	}
	t.log.Debug("dropped declaration",
		zap.String(logger.FieldDecl, describeDecl(what)),
		zap.String(logger.FieldReason, Reason(err)),
		zap.Error(err),
	)
}

func (t *Translator) translateNominal(n *syntax.NominalDecl) (model.Entity, error) {
	reqs, err := collectGenericRequirements(n.GenericParams, n.Where)
	if err != nil {
		return model.Entity{}, err
	}

	var predicates []model.Predicate
	if len(n.Inheritance) > 0 {
		supers, err := translateTypes(n.Inheritance)
		if err != nil {
			return model.Entity{}, err
		}
		predicates = append(predicates, model.TypesPredicate("ISA", supers))
	}

	return model.Entity{
		Name:                n.Name,
		Kind:                nominalKind(n.Kind),
		GenericArguments:    genericArgumentNames(n.GenericParams),
		Children:            t.TranslateDecls(n.Members),
		Descriptors:         collectModifiers(n.Modifiers, nil),
		GenericRequirements: reqs,
		Predicates:          predicates,
	}, nil
}

func nominalKind(k syntax.NominalKind) model.Kind {
	switch k {
	case syntax.Struct:
		return model.StructKind
	case syntax.Class:
		return model.ClassKind
	case syntax.Enum:
		return model.EnumKind
	case syntax.Protocol:
		return model.ProtocolKind
	default:
		panic(errors.AssertionFailedf("unknown nominal kind %d", k))
	}
}

// translateExtension drops extensions of anything but a simple named type.
// The where clause is parsed but not rendered.
func (t *Translator) translateExtension(n *syntax.ExtensionDecl) ([]model.Entity, error) {
	var predicates []model.Predicate
	if len(n.Inheritance) > 0 {
		supers, err := translateTypes(n.Inheritance)
		if err != nil {
			return nil, err
		}
		predicates = append(predicates, model.TypesPredicate("ISA", supers))
	}

	children := t.TranslateDecls(n.Members)

	extended, err := TranslateType(n.ExtendedType)
	if err != nil {
		return nil, err
	}
	if extended.Kind != model.NamedType {
		return nil, nil
	}

	return []model.Entity{{
		Name:       extended.Name,
		Kind:       model.ExtensionKind,
		Children:   children,
		Predicates: predicates,
	}}, nil
}

func translateFunc(n *syntax.FuncDecl) (model.Entity, error) {
	reqs, err := collectGenericRequirements(n.GenericParams, n.Where)
	if err != nil {
		return model.Entity{}, err
	}

	var predicates []model.Predicate
	params, err := translateParams(n.Params)
	if err != nil {
		return model.Entity{}, err
	}
	// A function without parameters gets no TAKES predicate.
	if len(params) > 0 {
		predicates = append(predicates, model.TypesPredicate("TAKES", params))
	}

	if n.Result != nil {
		result, err := TranslateType(n.Result)
		if err != nil {
			return model.Entity{}, err
		}
		predicates = append(predicates, model.TypesPredicate("RETURN", []model.TypeRepr{result}))
	}

	var mutating bool
	descriptors := collectModifiers(n.Modifiers, &mutating)

	var capabilities []model.Descriptor
	if mutating {
		capabilities = append(capabilities, model.Descriptor{Name: "MUTATE"})
	}
	capabilities = append(capabilities, effectCapabilities(n.Effect)...)
	if len(capabilities) > 0 {
		predicates = append(predicates, model.DescriptorsPredicate("CAN", capabilities))
	}

	return model.Entity{
		Name:                n.Name,
		Kind:                model.FuncKind,
		GenericArguments:    genericArgumentNames(n.GenericParams),
		Descriptors:         descriptors,
		GenericRequirements: reqs,
		Predicates:          predicates,
	}, nil
}

func translateInit(n *syntax.InitDecl) (model.Entity, error) {
	reqs, err := collectGenericRequirements(n.GenericParams, n.Where)
	if err != nil {
		return model.Entity{}, err
	}

	var predicates []model.Predicate
	params, err := translateParams(n.Params)
	if err != nil {
		return model.Entity{}, err
	}
	if len(params) > 0 {
		predicates = append(predicates, model.TypesPredicate("TAKES", params))
	}

	capabilities := effectCapabilities(n.Effect)
	switch n.Failability {
	case syntax.FailableOptional:
		capabilities = append(capabilities, model.Descriptor{Name: "FAIL"})
	case syntax.FailableForced:
		capabilities = append(capabilities, model.Descriptor{Name: "FAIL!"})
	}
	if len(capabilities) > 0 {
		predicates = append(predicates, model.DescriptorsPredicate("CAN", capabilities))
	}

	var name strings.Builder
	name.WriteString("init(")
	for _, p := range n.Params {
		label := p.FirstName
		if label == "" {
			label = p.SecondName
		}
		if label == "" {
			label = "_"
		}
		name.WriteString(label)
		name.WriteString(":")
	}
	name.WriteString(")")

	return model.Entity{
		Name:                name.String(),
		Kind:                model.InitializerKind,
		GenericArguments:    genericArgumentNames(n.GenericParams),
		Descriptors:         collectModifiers(n.Modifiers, nil),
		GenericRequirements: reqs,
		Predicates:          predicates,
	}, nil
}

func translateSubscript(n *syntax.SubscriptDecl) (model.Entity, error) {
	reqs, err := collectGenericRequirements(n.GenericParams, n.Where)
	if err != nil {
		return model.Entity{}, err
	}

	var predicates []model.Predicate
	params, err := translateParams(n.Params)
	if err != nil {
		return model.Entity{}, err
	}
	if len(params) > 0 {
		predicates = append(predicates, model.TypesPredicate("TAKES", params))
	}

	element, err := TranslateType(n.Result)
	if err != nil {
		return model.Entity{}, err
	}
	predicates = append(predicates, model.TypesPredicate("HAS", []model.TypeRepr{element}))

	var name strings.Builder
	name.WriteString("subs(")
	for _, p := range n.Params {
		label := p.FirstName
		if label == "" {
			label = "_"
		}
		name.WriteString(label)
		name.WriteString(":")
	}
	name.WriteString(")")

	return model.Entity{
		Name:                name.String(),
		Kind:                model.SubscriptKind,
		GenericArguments:    genericArgumentNames(n.GenericParams),
		Descriptors:         collectModifiers(n.Modifiers, nil),
		GenericRequirements: reqs,
		Predicates:          predicates,
	}, nil
}

// translateVar emits one entity per simple, annotated binding. Bindings with
// destructuring patterns or without a type annotation are skipped.
func (t *Translator) translateVar(n *syntax.VarDecl) ([]model.Entity, error) {
	descriptors := collectModifiers(n.Modifiers, nil)

	var kind model.Kind
	switch n.Keyword {
	case "var":
		kind = model.VarKind
	case "let":
		kind = model.LetKind
	default:
		return nil, otherBadness("binding keyword %q", n.Keyword)
	}

	var entities []model.Entity
	for _, b := range n.Bindings {
		ident, ok := b.Pattern.(syntax.IdentifierPattern)
		if !ok || b.Type == nil {
			continue
		}
		typ, err := TranslateType(b.Type)
		if err != nil {
			t.dropped(b, err)
			continue
		}
		entities = append(entities, model.Entity{
			Name:        ident.Name,
			Kind:        kind,
			Descriptors: descriptors,
			Predicates:  []model.Predicate{model.TypesPredicate("HAS", []model.TypeRepr{typ})},
		})
	}
	return entities, nil
}

func (t *Translator) translateEnumCase(n *syntax.EnumCaseDecl) []model.Entity {
	descriptors := collectModifiers(n.Modifiers, nil)

	var entities []model.Entity
	for _, el := range n.Elements {
		var predicates []model.Predicate
		if el.AssociatedValues != nil {
			values, err := translateParams(el.AssociatedValues)
			if err != nil {
				t.dropped(el, err)
				continue
			}
			predicates = append(predicates, model.TypesPredicate("HAS", values))
		}
		entities = append(entities, model.Entity{
			Name:        el.Name,
			Kind:        model.CaseKind,
			Descriptors: descriptors,
			Predicates:  predicates,
		})
	}
	return entities
}

func translateAssociatedType(n *syntax.AssociatedTypeDecl) (model.Entity, error) {
	var reqs []model.Requirement
	self := model.Named(n.Name)
	for _, inherited := range n.Inheritance {
		t, err := TranslateType(inherited)
		if err != nil {
			return model.Entity{}, err
		}
		reqs = append(reqs, model.Requirement{Left: self, Kind: model.IsA, Right: t})
	}

	explicit, err := collectGenericRequirements(nil, n.Where)
	if err != nil {
		return model.Entity{}, err
	}

	return model.Entity{
		Name:                n.Name,
		Kind:                model.AssociatedTypeKind,
		Descriptors:         collectModifiers(n.Modifiers, nil),
		GenericRequirements: append(reqs, explicit...),
	}, nil
}

func translateTypeAlias(n *syntax.TypeAliasDecl) (model.Entity, error) {
	reqs, err := collectGenericRequirements(n.GenericParams, n.Where)
	if err != nil {
		return model.Entity{}, err
	}

	if n.Underlying == nil {
		return model.Entity{}, incompleteSource("typealias " + n.Name + " has no underlying type")
	}
	underlying, err := TranslateType(n.Underlying)
	if err != nil {
		return model.Entity{}, err
	}

	return model.Entity{
		Name:                n.Name,
		Kind:                model.TypeAliasKind,
		GenericArguments:    genericArgumentNames(n.GenericParams),
		Descriptors:         collectModifiers(n.Modifiers, nil),
		GenericRequirements: reqs,
		Predicates:          []model.Predicate{model.TypesPredicate("HAS", []model.TypeRepr{underlying})},
	}, nil
}

func translateParams(params []syntax.Param) ([]model.TypeRepr, error) {
	out := make([]model.TypeRepr, 0, len(params))
	for _, p := range params {
		if p.Type == nil {
			return nil, incompleteSource(fmt.Sprintf("parameter %q has no type", paramName(p)))
		}
		t, err := TranslateType(p.Type)
		if err != nil {
			return nil, err
		}
		out = append(out, t)
	}
	return out, nil
}

func paramName(p syntax.Param) string {
	if p.SecondName != "" {
		return p.SecondName
	}
	return p.FirstName
}

func effectCapabilities(e syntax.Effect) []model.Descriptor {
	switch e {
	case syntax.Throws:
		return []model.Descriptor{{Name: "THROW"}}
	case syntax.Rethrows:
		return []model.Descriptor{{Name: "RETHROW"}}
	default:
		return nil
	}
}

func genericArgumentNames(params []syntax.GenericParam) []string {
	if len(params) == 0 {
		return nil
	}
	names := make([]string, len(params))
	for i, p := range params {
		names[i] = p.Name
	}
	return names
}

// collectGenericRequirements merges inline bounds (T: P) with the where
// clause. Inline bounds come first.
func collectGenericRequirements(params []syntax.GenericParam, where []syntax.Requirement) ([]model.Requirement, error) {
	var reqs []model.Requirement
	for _, p := range params {
		if p.Inherited == nil {
			continue
		}
		bound, err := TranslateType(p.Inherited)
		if err != nil {
			return nil, err
		}
		reqs = append(reqs, model.Requirement{Left: model.Named(p.Name), Kind: model.IsA, Right: bound})
	}

	for _, w := range where {
		var left, right syntax.Type
		var kind model.RequirementKind
		switch r := w.(type) {
		case *syntax.ConformanceRequirement:
			left, right, kind = r.Left, r.Right, model.IsA
		case *syntax.SameTypeRequirement:
			left, right, kind = r.Left, r.Right, model.Equals
		default:
			return nil, badRequirement(w)
		}
		l, err := TranslateType(left)
		if err != nil {
			return nil, err
		}
		rt, err := TranslateType(right)
		if err != nil {
			return nil, err
		}
		reqs = append(reqs, model.Requirement{Left: l, Kind: kind, Right: rt})
	}
	return reqs, nil
}

var modifierDescriptors = map[string]string{
	"open":        "OPEN",
	"public":      "PUBLIC",
	"internal":    "INTERN",
	"fileprivate": "FILE",
	"private":     "PRIVAT",
	"class":       "CLASS",
	"convenience": "CONV",
	"final":       "FINAL",
	"indirect":    "INDIRECT",
	"lazy":        "LAZY",
	"override":    "OVER",
	"static":      "STATIC",
}

// collectModifiers maps modifier keywords to descriptors. mutating is not a
// descriptor: it is reported through isMutating when the caller asks for it.
func collectModifiers(modifiers []syntax.Modifier, isMutating *bool) []model.Descriptor {
	var descriptors []model.Descriptor
	for _, m := range modifiers {
		if m.Name == "mutating" {
			if isMutating != nil {
				*isMutating = true
			}
			continue
		}
		if name, ok := modifierDescriptors[m.Name]; ok {
			descriptors = append(descriptors, model.Descriptor{Name: name})
		}
	}
	return descriptors
}

func describeDecl(d interface{}) string {
	switch n := d.(type) {
	case *syntax.NominalDecl:
		return "type " + n.Name
	case *syntax.ExtensionDecl:
		return "extension"
	case *syntax.FuncDecl:
		return "func " + n.Name
	case *syntax.InitDecl:
		return "init"
	case *syntax.SubscriptDecl:
		return "subscript"
	case *syntax.VarDecl:
		return n.Keyword + " declaration"
	case syntax.Binding:
		if ident, ok := n.Pattern.(syntax.IdentifierPattern); ok {
			return "binding " + ident.Name
		}
		return "binding"
	case *syntax.EnumCaseDecl:
		return "case declaration"
	case syntax.EnumCaseElement:
		return "case " + n.Name
	case *syntax.AssociatedTypeDecl:
		return "associatedtype " + n.Name
	case *syntax.TypeAliasDecl:
		return "typealias " + n.Name
	default:
		return fmt.Sprintf("%T", d)
	}
}
