package mcp

import (
	"context"
	"encoding/json"
	"os"
	"path/filepath"
	"sort"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/sourceisview/siv/internal/config"
	"github.com/sourceisview/siv/internal/output"
)

const boxSource = `struct Box<T: Equatable> {
    var value: T
}
`

func newTestServer(t *testing.T) (*Server, string) {
	t.Helper()
	root := t.TempDir()
	s, err := New(Config{Root: root, Settings: config.DefaultConfig()})
	require.NoError(t, err)
	return s, root
}

func TestGetToolSchemas(t *testing.T) {
	for _, name := range AllTools {
		schema, ok := toolSchemaRegistry[name]
		if !ok {
			t.Errorf("toolSchemaRegistry missing tool: %s", name)
			continue
		}
		if schema.Name != name {
			t.Errorf("schema name mismatch: got %q, want %q", schema.Name, name)
		}
		if schema.Description == "" {
			t.Errorf("tool %s has empty description", name)
		}
		for _, p := range schema.Parameters {
			if p.Required {
				t.Errorf("tool %s param %s should not be required", name, p.Name)
			}
		}
	}

	if len(toolSchemaRegistry) != len(AllTools) {
		t.Errorf("toolSchemaRegistry has %d tools, want %d", len(toolSchemaRegistry), len(AllTools))
	}
}

func TestAllToolsRegistered(t *testing.T) {
	s, _ := newTestServer(t)

	want := append([]string(nil), AllTools...)
	sort.Strings(want)
	assert.Equal(t, want, s.ListTools())
	assert.Len(t, s.GetToolSchemas(), len(AllTools))
}

func TestNewRejectsUnknownTool(t *testing.T) {
	_, err := New(Config{Root: t.TempDir(), Settings: config.DefaultConfig(), Tools: []string{"siv_nope"}})
	assert.Error(t, err)
}

func TestCallToolRenderSource(t *testing.T) {
	s, _ := newTestServer(t)

	out, err := s.CallTool(context.Background(), "siv_render", map[string]interface{}{"source": boxSource})
	require.NoError(t, err)

	lines := strings.Split(out, "\n")
	require.Greater(t, len(lines), 2)
	assert.Equal(t, "", lines[0])
	assert.True(t, strings.HasPrefix(lines[1], "BOX      IS       STRUCT"), "got %q", lines[1])
}

func TestCallToolRenderPath(t *testing.T) {
	s, root := newTestServer(t)
	require.NoError(t, os.MkdirAll(filepath.Join(root, "Sources"), 0755))
	require.NoError(t, os.WriteFile(filepath.Join(root, "Sources", "Box.swift"), []byte(boxSource), 0644))

	out, err := s.CallTool(context.Background(), "siv_render", map[string]interface{}{
		"path":   "Sources",
		"format": "json",
	})
	require.NoError(t, err)

	var doc output.GridDocument
	require.NoError(t, json.Unmarshal([]byte(out), &doc))
	assert.Equal(t, filepath.Join("Sources", "Box.swift"), doc.File)
	assert.Equal(t, "Box", doc.Rows[1][0])
}

func TestCallToolEntities(t *testing.T) {
	s, _ := newTestServer(t)

	out, err := s.CallTool(context.Background(), "siv_entities", map[string]interface{}{
		"source": boxSource,
		"format": "json",
	})
	require.NoError(t, err)

	var doc output.EntitiesDocument
	require.NoError(t, json.Unmarshal([]byte(out), &doc))
	require.Len(t, doc.Entities, 1)
	assert.Equal(t, "Box", doc.Entities[0].Name)
	assert.Equal(t, []string{"T ISA Equatable"}, doc.Entities[0].Requirements)
}

func TestCallToolErrors(t *testing.T) {
	s, _ := newTestServer(t)
	ctx := context.Background()

	tests := []struct {
		name string
		tool string
		args map[string]interface{}
	}{
		{"unknown tool", "cx_show", nil},
		{"no path or source", "siv_render", map[string]interface{}{}},
		{"missing path", "siv_render", map[string]interface{}{"path": "Nope.swift"}},
		{"bad format", "siv_entities", map[string]interface{}{"source": boxSource, "format": "xml"}},
		{"empty directory", "siv_render", map[string]interface{}{"path": "."}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := s.CallTool(ctx, tt.tool, tt.args)
			assert.Error(t, err)
		})
	}
}

func TestCallToolStaysInsideRoot(t *testing.T) {
	s, root := newTestServer(t)
	outside := filepath.Join(t.TempDir(), "Outside.swift")
	require.NoError(t, os.WriteFile(outside, []byte(boxSource), 0644))
	escape, err := filepath.Rel(root, outside)
	require.NoError(t, err)

	for _, path := range []string{outside, escape, "../Outside.swift"} {
		for _, tool := range []string{"siv_render", "siv_entities"} {
			_, err := s.CallTool(context.Background(), tool, map[string]interface{}{"path": path})
			require.Error(t, err, "%s %s", tool, path)
			assert.Contains(t, err.Error(), "outside the project root")
		}
	}
}

func TestCallToolEntitiesPath(t *testing.T) {
	s, root := newTestServer(t)
	require.NoError(t, os.WriteFile(filepath.Join(root, "Box.swift"), []byte(boxSource), 0644))

	out, err := s.CallTool(context.Background(), "siv_entities", map[string]interface{}{
		"path":   filepath.Join(root, "Box.swift"),
		"format": "json",
	})
	require.NoError(t, err)

	var doc output.EntitiesDocument
	require.NoError(t, json.Unmarshal([]byte(out), &doc))
	assert.Equal(t, "Box.swift", doc.File)
	require.Len(t, doc.Entities, 1)
	assert.Equal(t, "Box", doc.Entities[0].Name)
}

func TestToolSchemasOrder(t *testing.T) {
	schemas := ToolSchemas()
	require.Len(t, schemas, len(AllTools))
	for i, name := range AllTools {
		assert.Equal(t, name, schemas[i].Name)
	}
}
