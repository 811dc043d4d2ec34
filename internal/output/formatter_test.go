package output

import (
	"bytes"
	"encoding/json"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gopkg.in/yaml.v3"

	"github.com/sourceisview/siv/internal/cell"
	"github.com/sourceisview/siv/internal/model"
)

func TestTextLine(t *testing.T) {
	upper := NewTextFormatter(9, true)
	lower := NewTextFormatter(9, false)

	tests := []struct {
		name string
		f    *TextFormatter
		row  cell.Row
		want string
	}{
		{"empty row", upper, cell.Row{}, ""},
		{"header", upper, cell.Of("Box", "IS", "STRUCT"), "BOX      IS       STRUCT"},
		{"source case", lower, cell.Of("Box", "IS", "STRUCT"), "Box      IS       STRUCT"},
		{"leading blanks", upper, cell.Of("", "", "value", "HAS", "T"), strings.Repeat(" ", 18) + "VALUE    HAS      T"},
		{"trailing blanks trimmed", upper, cell.Of("HAS", "", ""), "HAS"},
		{"wide cell keeps a separator", upper, cell.Of("Equatable", "AND"), "EQUATABLE AND"},
		{"ellipsis is one column", upper, cell.Of("…", "x"), "…        X"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, tt.f.Line(tt.row))
		})
	}
}

func TestTextColumnsAlign(t *testing.T) {
	f := NewTextFormatter(9, true)
	a := f.Line(cell.Of("x", "IS", "VAR"))
	b := f.Line(cell.Of("count", "IS", "FUNC"))
	assert.Equal(t, strings.Index(a, "IS"), strings.Index(b, "IS"))
	assert.Equal(t, strings.Index(a, "VAR"), strings.Index(b, "FUNC"))
}

func TestTextWriteGrids(t *testing.T) {
	f := NewTextFormatter(4, false)
	grid := cell.Grid{cell.Row{}, cell.Of("S", "IS", "STRUCT")}

	var single bytes.Buffer
	require.NoError(t, f.WriteGrids(&single, []GridDocument{NewGridDocument("a.swift", grid)}))
	assert.Equal(t, "\nS   IS  STRUCT\n", single.String())

	var multi bytes.Buffer
	require.NoError(t, f.WriteGrids(&multi, []GridDocument{
		NewGridDocument("a.swift", grid),
		NewGridDocument("b.swift", cell.Grid{cell.Row{}}),
	}))
	assert.Equal(t, "// a.swift\n\nS   IS  STRUCT\n\n// b.swift\n\n", multi.String())
}

func TestYAMLWriteGrids(t *testing.T) {
	doc := NewGridDocument("a.swift", cell.Grid{cell.Row{}, cell.Of("S", "IS", "STRUCT")})

	var buf bytes.Buffer
	require.NoError(t, NewYAMLFormatter().WriteGrids(&buf, []GridDocument{doc}))
	assert.Contains(t, buf.String(), "file: a.swift")

	var decoded GridDocument
	require.NoError(t, yaml.Unmarshal(buf.Bytes(), &decoded))
	assert.Equal(t, "a.swift", decoded.File)
	require.Len(t, decoded.Rows, 2)
	assert.Empty(t, decoded.Rows[0])
	assert.Equal(t, []string{"S", "IS", "STRUCT"}, decoded.Rows[1])
}

func TestJSONWriteGrids(t *testing.T) {
	grid := cell.Grid{cell.Row{}, cell.Of("S", "IS", "STRUCT")}

	t.Run("single file is an object", func(t *testing.T) {
		var buf bytes.Buffer
		require.NoError(t, NewJSONFormatter().WriteGrids(&buf, []GridDocument{NewGridDocument("a.swift", grid)}))

		var decoded GridDocument
		require.NoError(t, json.Unmarshal(buf.Bytes(), &decoded))
		assert.Equal(t, "a.swift", decoded.File)
		assert.True(t, decoded.Grid().Equal(grid))
		assert.Contains(t, buf.String(), `"rows": [`)
		assert.Contains(t, buf.String(), "[]")
	})

	t.Run("several files are an array", func(t *testing.T) {
		var buf bytes.Buffer
		docs := []GridDocument{NewGridDocument("a.swift", grid), NewGridDocument("b.swift", grid)}
		require.NoError(t, NewJSONFormatter().WriteGrids(&buf, docs))

		var decoded []GridDocument
		require.NoError(t, json.Unmarshal(buf.Bytes(), &decoded))
		require.Len(t, decoded, 2)
		assert.Equal(t, "b.swift", decoded[1].File)
	})
}

func boxEntity() model.Entity {
	return model.Entity{
		Name:             "Box",
		Kind:             model.StructKind,
		GenericArguments: []string{"T"},
		GenericRequirements: []model.Requirement{
			{Left: model.Named("T"), Kind: model.IsA, Right: model.Named("Equatable")},
		},
		Descriptors: []model.Descriptor{{Name: "PUBLIC"}},
		Children: []model.Entity{{
			Name:       "value",
			Kind:       model.VarKind,
			Predicates: []model.Predicate{model.TypesPredicate("HAS", []model.TypeRepr{model.Optional(model.Named("T"))})},
		}},
	}
}

func TestNewEntityView(t *testing.T) {
	view := NewEntityView(boxEntity())

	assert.Equal(t, "Box", view.Name)
	assert.Equal(t, model.StructKind.String(), view.Kind)
	assert.Equal(t, []string{"T"}, view.Generics)
	assert.Equal(t, []string{"T ISA Equatable"}, view.Requirements)
	assert.Equal(t, []string{"PUBLIC"}, view.Descriptors)
	require.Len(t, view.Children, 1)
	assert.Equal(t, []string{"HAS OPT OF T"}, view.Children[0].Predicates)
}

func TestWriteEntities(t *testing.T) {
	doc := NewEntitiesDocument("box.swift", []model.Entity{boxEntity()})

	var text bytes.Buffer
	require.NoError(t, NewTextFormatter(9, false).WriteEntities(&text, []EntitiesDocument{doc}))
	out := text.String()
	assert.True(t, strings.HasPrefix(out, "// box.swift\nBox "+model.StructKind.String()+" <T>\n"))
	assert.Contains(t, out, "  WHERE T ISA Equatable\n")
	assert.Contains(t, out, "  IS PUBLIC\n")
	assert.Contains(t, out, "    HAS OPT OF T\n")

	var js bytes.Buffer
	require.NoError(t, NewJSONFormatter().WriteEntities(&js, []EntitiesDocument{doc}))
	var decoded EntitiesDocument
	require.NoError(t, json.Unmarshal(js.Bytes(), &decoded))
	assert.Equal(t, doc, decoded)
}
