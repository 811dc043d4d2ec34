package translate

import (
	"github.com/sourceisview/siv/internal/model"
	"github.com/sourceisview/siv/internal/syntax"
)

// TranslateType converts a type node into a TypeRepr. Unsupported shapes
// (metatypes, qualified member types, opaque types) fail with ErrBadType.
func TranslateType(node syntax.Type) (model.TypeRepr, error) {
	switch n := node.(type) {
	case *syntax.SimpleType:
		args, err := translateTypes(n.Args)
		if err != nil {
			return model.TypeRepr{}, err
		}
		return model.Named(n.Name, args...), nil

	case *syntax.ArrayType:
		elem, err := TranslateType(n.Elem)
		if err != nil {
			return model.TypeRepr{}, err
		}
		return model.Array(elem), nil

	case *syntax.DictionaryType:
		key, err := TranslateType(n.Key)
		if err != nil {
			return model.TypeRepr{}, err
		}
		value, err := TranslateType(n.Value)
		if err != nil {
			return model.TypeRepr{}, err
		}
		return model.Dictionary(key, value), nil

	case *syntax.OptionalType:
		wrapped, err := TranslateType(n.Wrapped)
		if err != nil {
			return model.TypeRepr{}, err
		}
		return model.Optional(wrapped), nil

	case *syntax.ImplicitlyUnwrappedOptionalType:
		wrapped, err := TranslateType(n.Wrapped)
		if err != nil {
			return model.TypeRepr{}, err
		}
		return model.ImplicitlyUnwrapped(wrapped), nil

	case *syntax.TupleType:
		elems := make([]model.TypeRepr, 0, len(n.Elements))
		for _, el := range n.Elements {
			t, err := TranslateType(el.Type)
			if err != nil {
				return model.TypeRepr{}, err
			}
			elems = append(elems, t)
		}
		return model.Tuple(elems...), nil

	case *syntax.AttributedType:
		base, err := TranslateType(n.Base)
		if err != nil {
			return model.TypeRepr{}, err
		}
		if n.Specifier == "inout" {
			return model.InOut(base), nil
		}
		// Other specifiers and attributes do not change the rendering.
		return base, nil

	case *syntax.FunctionType:
		// throws is dropped on function types.
		params, err := translateTypes(n.Params)
		if err != nil {
			return model.TypeRepr{}, err
		}
		if len(params) == 0 {
			params = []model.TypeRepr{model.Tuple()}
		}
		result, err := TranslateType(n.Result)
		if err != nil {
			return model.TypeRepr{}, err
		}
		return model.Function(result, params...), nil

	case *syntax.CompositionType:
		members, err := translateTypes(n.Elements)
		if err != nil {
			return model.TypeRepr{}, err
		}
		return model.Existential(members...), nil

	case *syntax.ClassRestrictionType:
		return model.Named("AnyObject"), nil

	case nil:
		return model.TypeRepr{}, incompleteSource("missing type")

	default:
		// TODO: metatypes and member types need their own TypeRepr variants.
		return model.TypeRepr{}, badType(node)
	}
}

func translateTypes(nodes []syntax.Type) ([]model.TypeRepr, error) {
	if len(nodes) == 0 {
		return nil, nil
	}
	out := make([]model.TypeRepr, 0, len(nodes))
	for _, n := range nodes {
		t, err := TranslateType(n)
		if err != nil {
			return nil, err
		}
		out = append(out, t)
	}
	return out, nil
}
