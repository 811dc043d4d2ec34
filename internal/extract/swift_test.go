package extract

import (
	"testing"

	"github.com/sourceisview/siv/internal/parser"
	"github.com/sourceisview/siv/internal/syntax"
)

func parseSwiftCode(t *testing.T, code string) *parser.Result {
	t.Helper()
	p := parser.New()
	defer p.Close()

	result, err := p.Parse([]byte(code))
	if err != nil {
		t.Fatalf("failed to parse: %v", err)
	}
	return result
}

func TestLowerGenericStruct(t *testing.T) {
	code := `struct Box<T: Equatable> {
    var value: T
}
`
	result := parseSwiftCode(t, code)
	defer result.Close()

	file := Lower(result)
	if len(file.Decls) != 1 {
		t.Fatalf("expected 1 declaration, got %d", len(file.Decls))
	}

	box, ok := file.Decls[0].(*syntax.NominalDecl)
	if !ok {
		t.Fatalf("expected *syntax.NominalDecl, got %T", file.Decls[0])
	}
	if box.Kind != syntax.Struct {
		t.Errorf("expected struct kind, got %d", box.Kind)
	}
	if box.Name != "Box" {
		t.Errorf("expected name Box, got %q", box.Name)
	}
	if len(box.GenericParams) != 1 || box.GenericParams[0].Name != "T" {
		t.Fatalf("expected generic parameter T, got %+v", box.GenericParams)
	}
	bound, ok := box.GenericParams[0].Inherited.(*syntax.SimpleType)
	if !ok || bound.Name != "Equatable" {
		t.Errorf("expected bound Equatable, got %#v", box.GenericParams[0].Inherited)
	}

	if len(box.Members) != 1 {
		t.Fatalf("expected 1 member, got %d", len(box.Members))
	}
	v, ok := box.Members[0].(*syntax.VarDecl)
	if !ok {
		t.Fatalf("expected *syntax.VarDecl, got %T", box.Members[0])
	}
	if v.Keyword != "var" {
		t.Errorf("expected keyword var, got %q", v.Keyword)
	}
	if len(v.Bindings) != 1 {
		t.Fatalf("expected 1 binding, got %d", len(v.Bindings))
	}
	if p, ok := v.Bindings[0].Pattern.(syntax.IdentifierPattern); !ok || p.Name != "value" {
		t.Errorf("expected identifier pattern value, got %#v", v.Bindings[0].Pattern)
	}
	if typ, ok := v.Bindings[0].Type.(*syntax.SimpleType); !ok || typ.Name != "T" {
		t.Errorf("expected type T, got %#v", v.Bindings[0].Type)
	}
}

func TestLowerFunction(t *testing.T) {
	code := `func add(a: Int, b: Int) -> Int {
    return a + b
}
`
	result := parseSwiftCode(t, code)
	defer result.Close()

	file := Lower(result)
	if len(file.Decls) != 1 {
		t.Fatalf("expected 1 declaration, got %d", len(file.Decls))
	}
	fn, ok := file.Decls[0].(*syntax.FuncDecl)
	if !ok {
		t.Fatalf("expected *syntax.FuncDecl, got %T", file.Decls[0])
	}
	if fn.Name != "add" {
		t.Errorf("expected name add, got %q", fn.Name)
	}
	if len(fn.Params) != 2 {
		t.Fatalf("expected 2 parameters, got %d", len(fn.Params))
	}
	for i, want := range []string{"a", "b"} {
		if fn.Params[i].FirstName != want {
			t.Errorf("param %d: expected label %q, got %q", i, want, fn.Params[i].FirstName)
		}
		if typ, ok := fn.Params[i].Type.(*syntax.SimpleType); !ok || typ.Name != "Int" {
			t.Errorf("param %d: expected Int, got %#v", i, fn.Params[i].Type)
		}
	}
	if typ, ok := fn.Result.(*syntax.SimpleType); !ok || typ.Name != "Int" {
		t.Errorf("expected result Int, got %#v", fn.Result)
	}
	if fn.Effect != syntax.NoEffect {
		t.Errorf("expected no effect, got %d", fn.Effect)
	}
}

func TestLowerImport(t *testing.T) {
	result := parseSwiftCode(t, "import Foundation\n")
	defer result.Close()

	file := Lower(result)
	if len(file.Decls) != 1 {
		t.Fatalf("expected 1 declaration, got %d", len(file.Decls))
	}
	imp, ok := file.Decls[0].(*syntax.ImportDecl)
	if !ok {
		t.Fatalf("expected *syntax.ImportDecl, got %T", file.Decls[0])
	}
	if imp.Path != "Foundation" {
		t.Errorf("expected path Foundation, got %q", imp.Path)
	}
}

func TestLowerEmptyFile(t *testing.T) {
	result := parseSwiftCode(t, "// nothing here\n")
	defer result.Close()

	if file := Lower(result); len(file.Decls) != 0 {
		t.Errorf("expected no declarations, got %d", len(file.Decls))
	}
}

func TestLowerNeverReturnsTypedNil(t *testing.T) {
	code := `struct Broken {
    func f( -> Int
`
	result := parseSwiftCode(t, code)
	defer result.Close()

	var check func(decls []syntax.Decl)
	check = func(decls []syntax.Decl) {
		for _, d := range decls {
			if d == nil {
				t.Fatal("nil declaration in lowered tree")
			}
			switch n := d.(type) {
			case *syntax.UnknownDecl:
				check(n.Children)
			case *syntax.NominalDecl:
				check(n.Members)
			}
		}
	}
	check(Lower(result).Decls)
}
