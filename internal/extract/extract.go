// Package extract lowers tree-sitter parse trees into the typed declaration
// tree of package syntax, and computes content hashes for change detection.
//
// Lowering is tolerant: a node it cannot classify becomes a
// syntax.UnknownDecl (or syntax.UnknownType) instead of an error, so that the
// translator can still reach declarations nested inside it and can decide for
// itself what is unsupported.
package extract

import (
	sitter "github.com/smacker/go-tree-sitter"
	"go.uber.org/zap"

	"github.com/sourceisview/siv/internal/logger"
	"github.com/sourceisview/siv/internal/parser"
	"github.com/sourceisview/siv/internal/syntax"
)

// Extractor lowers one parse result.
type Extractor struct {
	result *parser.Result
	log    *zap.Logger
}

// NewExtractor creates an extractor for the given parse result.
func NewExtractor(result *parser.Result) *Extractor {
	return &Extractor{
		result: result,
		log:    logger.Named("extract"),
	}
}

// Lower is NewExtractor(result).Lower().
func Lower(result *parser.Result) *syntax.File {
	return NewExtractor(result).Lower()
}

// Lower builds the declaration tree of the whole file. Syntax errors do not
// stop lowering; tree-sitter wraps the damaged region in ERROR nodes, which
// lower like any other unknown container.
func (e *Extractor) Lower() *syntax.File {
	file := &syntax.File{Path: e.result.FilePath}
	if e.result.Root == nil {
		return file
	}
	if pe := e.result.FirstError(); pe != nil {
		e.log.Info("source has syntax errors",
			zap.String(logger.FieldFile, e.result.FilePath),
			zap.Uint32("line", pe.Pos.Line),
			zap.Uint32("column", pe.Pos.Column),
		)
	}
	file.Decls = e.lowerDecls(e.result.Root)
	return file
}

// nodeText returns the source text for a node.
func (e *Extractor) nodeText(node *sitter.Node) string {
	return e.result.Text(node)
}

// findChildByType finds the first child node of the given type.
func findChildByType(node *sitter.Node, nodeType string) *sitter.Node {
	for i := 0; i < int(node.ChildCount()); i++ {
		child := node.Child(i)
		if child.Type() == nodeType {
			return child
		}
	}
	return nil
}

// findChildByFieldName finds the child node with the given field name.
func findChildByFieldName(node *sitter.Node, fieldName string) *sitter.Node {
	return node.ChildByFieldName(fieldName)
}

// findChildrenByType finds all direct child nodes of the given type.
func findChildrenByType(node *sitter.Node, nodeType string) []*sitter.Node {
	var children []*sitter.Node
	for i := 0; i < int(node.ChildCount()); i++ {
		child := node.Child(i)
		if child.Type() == nodeType {
			children = append(children, child)
		}
	}
	return children
}

// children returns every direct child, named or not.
func children(node *sitter.Node) []*sitter.Node {
	out := make([]*sitter.Node, 0, node.ChildCount())
	for i := 0; i < int(node.ChildCount()); i++ {
		out = append(out, node.Child(i))
	}
	return out
}

// namedChildren returns the direct named children.
func namedChildren(node *sitter.Node) []*sitter.Node {
	out := make([]*sitter.Node, 0, node.NamedChildCount())
	for i := 0; i < int(node.NamedChildCount()); i++ {
		out = append(out, node.NamedChild(i))
	}
	return out
}

// fieldChild is a child together with the grammar field it fills, if any.
type fieldChild struct {
	field string
	node  *sitter.Node
}

// fieldChildren lists the children of node with their field names.
func fieldChildren(node *sitter.Node) []fieldChild {
	cursor := sitter.NewTreeCursor(node)
	defer cursor.Close()

	var out []fieldChild
	if !cursor.GoToFirstChild() {
		return out
	}
	for {
		out = append(out, fieldChild{field: cursor.CurrentFieldName(), node: cursor.CurrentNode()})
		if !cursor.GoToNextSibling() {
			return out
		}
	}
}

// hasToken reports whether node has a direct child of the given type.
func hasToken(node *sitter.Node, tokenType string) bool {
	return findChildByType(node, tokenType) != nil
}
