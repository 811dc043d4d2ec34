package pipeline

import (
	"context"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/sourceisview/siv/internal/cache"
	"github.com/sourceisview/siv/internal/model"
	"github.com/sourceisview/siv/internal/parser"
	"github.com/sourceisview/siv/internal/render"
)

const boxSource = `struct Box<T: Equatable> {
    var value: T
}
`

const addSource = `func add(a: Int, b: Int) -> Int {
    return a + b
}
`

func TestRenderSourceBox(t *testing.T) {
	res, err := New().RenderSource(context.Background(), "", []byte(boxSource))
	require.NoError(t, err)

	assert.False(t, res.Cached)
	assert.Equal(t, [][]string{
		{},
		{"Box", "IS", "STRUCT", "OF", "T", "WHERE", "T", "ISA", "Equatable"},
		{"HAS"},
		{"value", "IS", "VAR"},
		{},
		{"", "", "value", "HAS", "T"},
		{},
		{},
	}, res.Grid.Strings())
}

func TestRenderSourceFunction(t *testing.T) {
	res, err := New().RenderSource(context.Background(), "", []byte(addSource))
	require.NoError(t, err)

	assert.Equal(t, [][]string{
		{},
		{"add", "IS", "FUNC"},
		{},
		{"", "add", "TAKES", "Int", "AND", "Int"},
		{},
		{"", "add", "RETURN", "Int"},
		{},
	}, res.Grid.Strings())
}

func TestRenderSourceEmpty(t *testing.T) {
	res, err := New().RenderSource(context.Background(), "", []byte("import Foundation\n"))
	require.NoError(t, err)
	assert.Equal(t, [][]string{{}}, res.Grid.Strings())
}

func TestEntities(t *testing.T) {
	entities, err := New().Entities(context.Background(), "box.swift", []byte(boxSource))
	require.NoError(t, err)
	require.Len(t, entities, 1)
	assert.Equal(t, "Box", entities[0].Name)
	assert.Equal(t, model.StructKind, entities[0].Kind)
	assert.Equal(t, []string{"T"}, entities[0].GenericArguments)
}

func TestEntitiesSequentialMatchesParallel(t *testing.T) {
	src := []byte(boxSource + addSource)
	ctx := context.Background()

	want, err := New(WithWorkers(4)).Entities(ctx, "both.swift", src)
	require.NoError(t, err)
	require.Len(t, want, 2)

	got, err := New(WithWorkers(1)).Entities(ctx, "both.swift", src)
	require.NoError(t, err)
	assert.Equal(t, want, got)
}

func TestEntitiesFile(t *testing.T) {
	path := filepath.Join(t.TempDir(), "Box.swift")
	require.NoError(t, os.WriteFile(path, []byte(boxSource), 0644))

	entities, err := New().EntitiesFile(context.Background(), path)
	require.NoError(t, err)
	require.Len(t, entities, 1)
	assert.Equal(t, "Box", entities[0].Name)

	_, err = New().EntitiesFile(context.Background(), filepath.Join(t.TempDir(), "missing.swift"))
	var readErr *parser.FileReadError
	assert.ErrorAs(t, err, &readErr)
}

func TestChanged(t *testing.T) {
	path := filepath.Join(t.TempDir(), "Box.swift")
	require.NoError(t, os.WriteFile(path, []byte(boxSource), 0644))
	ctx := context.Background()

	changed, err := New().Changed(path)
	require.NoError(t, err)
	assert.True(t, changed, "without a cache every file is changed")

	c, err := cache.Open(t.TempDir(), 8)
	require.NoError(t, err)
	defer c.Close()
	r := New(WithCache(c))

	changed, err = r.Changed(path)
	require.NoError(t, err)
	assert.True(t, changed)

	_, err = r.RenderFile(ctx, path)
	require.NoError(t, err)
	changed, err = r.Changed(path)
	require.NoError(t, err)
	assert.False(t, changed)

	// Other render options key the content differently
	changed, err = New(WithCache(c), WithRenderOptions(render.Options{Banner: false})).Changed(path)
	require.NoError(t, err)
	assert.True(t, changed)

	require.NoError(t, os.WriteFile(path, []byte(addSource), 0644))
	changed, err = r.Changed(path)
	require.NoError(t, err)
	assert.True(t, changed)

	_, err = r.Changed(filepath.Join(t.TempDir(), "missing.swift"))
	var readErr *parser.FileReadError
	assert.ErrorAs(t, err, &readErr)
}

func TestRenderSourceUsesCache(t *testing.T) {
	c, err := cache.Open(t.TempDir(), 8)
	require.NoError(t, err)
	defer c.Close()

	r := New(WithCache(c))
	ctx := context.Background()

	first, err := r.RenderSource(ctx, "box.swift", []byte(boxSource))
	require.NoError(t, err)
	assert.False(t, first.Cached)

	second, err := r.RenderSource(ctx, "box.swift", []byte(boxSource))
	require.NoError(t, err)
	assert.True(t, second.Cached)
	assert.True(t, first.Grid.Equal(second.Grid))

	changed, err := r.RenderSource(ctx, "box.swift", []byte(addSource))
	require.NoError(t, err)
	assert.False(t, changed.Cached)
	assert.Equal(t, "add IS FUNC", changed.Grid[1].String())

	// Different render options must not reuse the stored grid
	plain := New(WithCache(c), WithRenderOptions(render.Options{Banner: false}))
	res, err := plain.RenderSource(ctx, "box.swift", []byte(addSource))
	require.NoError(t, err)
	assert.False(t, res.Cached)
}

func TestRenderFiles(t *testing.T) {
	dir := t.TempDir()
	paths := []string{
		filepath.Join(dir, "Box.swift"),
		filepath.Join(dir, "add.swift"),
		filepath.Join(dir, "empty.swift"),
	}
	sources := []string{boxSource, addSource, ""}
	for i, p := range paths {
		require.NoError(t, os.WriteFile(p, []byte(sources[i]), 0644))
	}

	results, err := New(WithWorkers(2)).RenderFiles(context.Background(), paths)
	require.NoError(t, err)
	require.Len(t, results, 3)

	for i, res := range results {
		assert.Equal(t, paths[i], res.Path)
	}
	assert.Equal(t, "Box", string(results[0].Grid[1][0]))
	assert.Equal(t, "add IS FUNC", results[1].Grid[1].String())
	assert.Equal(t, [][]string{{}}, results[2].Grid.Strings())
}

func TestRenderFileMissing(t *testing.T) {
	_, err := New().RenderFile(context.Background(), filepath.Join(t.TempDir(), "missing.swift"))
	require.Error(t, err)

	var readErr *parser.FileReadError
	assert.ErrorAs(t, err, &readErr)
	assert.ErrorIs(t, err, os.ErrNotExist)
}
