// Package parser wraps tree-sitter for parsing Swift source.
//
// A Parser owns a tree-sitter parser instance and is not safe for concurrent
// use; create one per goroutine. A Result keeps the source alongside the
// tree so node text can be read back later.
package parser

import (
	"context"
	"os"

	sitter "github.com/smacker/go-tree-sitter"
	"github.com/smacker/go-tree-sitter/swift"
)

// Parser parses Swift source.
type Parser struct {
	parser *sitter.Parser
}

// Result is a parsed source file.
type Result struct {
	Tree *sitter.Tree
	Root *sitter.Node
	// Source is the parsed text; node offsets index into it.
	Source []byte
	// FilePath is empty for in-memory sources.
	FilePath string
}

// New creates a Swift parser.
func New() *Parser {
	p := sitter.NewParser()
	p.SetLanguage(swift.GetLanguage())
	return &Parser{parser: p}
}

// Parse parses source.
func (p *Parser) Parse(source []byte) (*Result, error) {
	return p.ParseContext(context.Background(), source)
}

// ParseContext parses source, giving up when ctx is cancelled.
func (p *Parser) ParseContext(ctx context.Context, source []byte) (*Result, error) {
	tree, err := p.parser.ParseCtx(ctx, nil, source)
	if err != nil {
		return nil, &ParseError{Message: err.Error()}
	}
	return &Result{
		Tree:   tree,
		Root:   tree.RootNode(),
		Source: source,
	}, nil
}

// ParseFile reads and parses the file at path.
func (p *Parser) ParseFile(ctx context.Context, path string) (*Result, error) {
	source, err := os.ReadFile(path)
	if err != nil {
		return nil, &FileReadError{Path: path, Err: err}
	}

	result, err := p.ParseContext(ctx, source)
	if err != nil {
		if pe, ok := err.(*ParseError); ok {
			pe.File = path
		}
		return nil, err
	}
	result.FilePath = path
	return result, nil
}

// Close releases the tree-sitter parser. The Parser is unusable afterwards.
func (p *Parser) Close() {
	if p.parser != nil {
		p.parser.Close()
		p.parser = nil
	}
}

// Close releases the parse tree.
func (r *Result) Close() {
	if r.Tree != nil {
		r.Tree.Close()
		r.Tree = nil
		r.Root = nil
	}
}

// HasErrors reports whether the tree contains ERROR or MISSING nodes.
func (r *Result) HasErrors() bool {
	return r.Root != nil && r.Root.HasError()
}

// FirstError locates the first ERROR or MISSING node, or returns nil when
// the tree is clean.
func (r *Result) FirstError() *ParseError {
	if !r.HasErrors() {
		return nil
	}
	var found *sitter.Node
	r.Walk(func(node *sitter.Node) bool {
		if node.Type() == "ERROR" || node.IsMissing() {
			found = node
			return false
		}
		return true
	})
	if found == nil {
		return nil
	}

	msg := "syntax error"
	if found.IsMissing() {
		msg = "missing " + found.Type()
	}
	start := found.StartPoint()
	return &ParseError{
		File:    r.FilePath,
		Pos:     Position{Line: start.Row + 1, Column: start.Column + 1},
		Message: msg,
	}
}

// Walk visits the tree depth-first in source order. Returning false from
// visit stops the walk.
func (r *Result) Walk(visit func(*sitter.Node) bool) {
	if r.Root != nil {
		walk(r.Root, visit)
	}
}

func walk(node *sitter.Node, visit func(*sitter.Node) bool) bool {
	if !visit(node) {
		return false
	}
	for i := 0; i < int(node.ChildCount()); i++ {
		if !walk(node.Child(i), visit) {
			return false
		}
	}
	return true
}

// Text returns the source text of node.
func (r *Result) Text(node *sitter.Node) string {
	if node == nil || r.Source == nil {
		return ""
	}
	return node.Content(r.Source)
}
