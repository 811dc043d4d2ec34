package parser

import "fmt"

// Position is a 1-based line and column in a source file.
type Position struct {
	Line   uint32
	Column uint32
}

func (p Position) String() string {
	return fmt.Sprintf("%d:%d", p.Line, p.Column)
}

// ParseError reports where a source failed to parse. Tree-sitter recovers
// from syntax errors, so most are informational; a ParseError is only
// returned as an error when no tree could be built at all.
type ParseError struct {
	File    string
	Pos     Position
	Message string
}

func (e *ParseError) Error() string {
	switch {
	case e.File != "" && e.Pos.Line > 0:
		return fmt.Sprintf("%s:%s: %s", e.File, e.Pos, e.Message)
	case e.File != "":
		return fmt.Sprintf("%s: %s", e.File, e.Message)
	case e.Pos.Line > 0:
		return fmt.Sprintf("%s: %s", e.Pos, e.Message)
	}
	return e.Message
}

// FileReadError wraps a failure to read a source file.
type FileReadError struct {
	Path string
	Err  error
}

func (e *FileReadError) Error() string {
	return fmt.Sprintf("read %s: %v", e.Path, e.Err)
}

func (e *FileReadError) Unwrap() error {
	return e.Err
}
