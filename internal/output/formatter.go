package output

import (
	"encoding/json"
	"fmt"
	"io"
	"strings"

	"github.com/cockroachdb/errors"
	"github.com/mattn/go-runewidth"
	"gopkg.in/yaml.v3"

	"github.com/sourceisview/siv/internal/cell"
)

// Formatter writes rendered files and entity dumps in one format.
type Formatter interface {
	// WriteGrids writes one or more rendered files.
	WriteGrids(w io.Writer, docs []GridDocument) error

	// WriteEntities writes the entity dump of one or more files.
	WriteEntities(w io.Writer, docs []EntitiesDocument) error
}

// TextFormatter lays grids out in fixed-width columns.
type TextFormatter struct {
	// CellWidth is the minimum column width, in terminal cells.
	CellWidth int
	// Uppercase draws cell values upper-cased.
	Uppercase bool
}

// NewTextFormatter creates a text formatter.
func NewTextFormatter(cellWidth int, uppercase bool) *TextFormatter {
	if cellWidth < 1 {
		cellWidth = 1
	}
	return &TextFormatter{CellWidth: cellWidth, Uppercase: uppercase}
}

// WriteGrids writes each grid. When there is more than one file, each grid
// is preceded by a "// path" line and followed by a blank line.
func (f *TextFormatter) WriteGrids(w io.Writer, docs []GridDocument) error {
	for i, doc := range docs {
		if len(docs) > 1 {
			if i > 0 {
				if _, err := io.WriteString(w, "\n"); err != nil {
					return err
				}
			}
			if _, err := fmt.Fprintf(w, "// %s\n", doc.File); err != nil {
				return err
			}
		}
		for _, row := range doc.Grid() {
			if _, err := io.WriteString(w, f.Line(row)+"\n"); err != nil {
				return err
			}
		}
	}
	return nil
}

// Line lays out one row. Every cell but the last is padded to CellWidth; a
// cell at least that wide gets one separating space. Trailing blanks are
// trimmed, so an empty row is an empty line.
func (f *TextFormatter) Line(row cell.Row) string {
	var b strings.Builder
	for i, c := range row {
		value := c.String()
		if f.Uppercase {
			value = c.Display()
		}
		b.WriteString(value)
		if i == len(row)-1 {
			break
		}
		pad := f.CellWidth - runewidth.StringWidth(value)
		if pad < 1 {
			pad = 1
		}
		b.WriteString(strings.Repeat(" ", pad))
	}
	return strings.TrimRight(b.String(), " ")
}

// WriteEntities writes an indented outline of each entity tree.
func (f *TextFormatter) WriteEntities(w io.Writer, docs []EntitiesDocument) error {
	for i, doc := range docs {
		if i > 0 {
			if _, err := io.WriteString(w, "\n"); err != nil {
				return err
			}
		}
		if _, err := fmt.Fprintf(w, "// %s\n", doc.File); err != nil {
			return err
		}
		for _, e := range doc.Entities {
			if err := f.writeEntity(w, e, 0); err != nil {
				return err
			}
		}
	}
	return nil
}

func (f *TextFormatter) writeEntity(w io.Writer, e EntityView, depth int) error {
	indent := strings.Repeat("  ", depth)
	header := e.Name + " " + e.Kind
	if len(e.Generics) > 0 {
		header += " <" + strings.Join(e.Generics, ", ") + ">"
	}
	if _, err := fmt.Fprintf(w, "%s%s\n", indent, f.text(header)); err != nil {
		return err
	}
	lines := make([]string, 0, len(e.Requirements)+len(e.Descriptors)+len(e.Predicates))
	for _, r := range e.Requirements {
		lines = append(lines, "WHERE "+r)
	}
	if len(e.Descriptors) > 0 {
		lines = append(lines, "IS "+strings.Join(e.Descriptors, " "))
	}
	lines = append(lines, e.Predicates...)
	for _, line := range lines {
		if _, err := fmt.Fprintf(w, "%s  %s\n", indent, f.text(line)); err != nil {
			return err
		}
	}
	for _, child := range e.Children {
		if err := f.writeEntity(w, child, depth+1); err != nil {
			return err
		}
	}
	return nil
}

func (f *TextFormatter) text(s string) string {
	if f.Uppercase {
		return strings.ToUpper(s)
	}
	return s
}

// YAMLFormatter writes a YAML stream with one document per file.
type YAMLFormatter struct{}

// NewYAMLFormatter creates a new YAML formatter.
func NewYAMLFormatter() *YAMLFormatter {
	return &YAMLFormatter{}
}

// WriteGrids writes one YAML document per grid.
func (f *YAMLFormatter) WriteGrids(w io.Writer, docs []GridDocument) error {
	return encodeYAML(w, docs)
}

// WriteEntities writes one YAML document per file.
func (f *YAMLFormatter) WriteEntities(w io.Writer, docs []EntitiesDocument) error {
	return encodeYAML(w, docs)
}

func encodeYAML[T any](w io.Writer, docs []T) error {
	encoder := yaml.NewEncoder(w)
	encoder.SetIndent(2)
	for _, doc := range docs {
		if err := encoder.Encode(doc); err != nil {
			return errors.Wrap(err, "encoding yaml")
		}
	}
	return encoder.Close()
}

// JSONFormatter writes JSON. A single file is written as an object, several
// as an array.
type JSONFormatter struct{}

// NewJSONFormatter creates a new JSON formatter.
func NewJSONFormatter() *JSONFormatter {
	return &JSONFormatter{}
}

// WriteGrids writes the grids as JSON.
func (f *JSONFormatter) WriteGrids(w io.Writer, docs []GridDocument) error {
	return encodeJSON(w, docs)
}

// WriteEntities writes the entity dumps as JSON.
func (f *JSONFormatter) WriteEntities(w io.Writer, docs []EntitiesDocument) error {
	return encodeJSON(w, docs)
}

func encodeJSON[T any](w io.Writer, docs []T) error {
	encoder := json.NewEncoder(w)
	encoder.SetIndent("", "  ")

	var v any = docs
	if len(docs) == 1 {
		v = docs[0]
	}
	if err := encoder.Encode(v); err != nil {
		return errors.Wrap(err, "encoding json")
	}
	return nil
}

// Options configures the text formatter returned by GetFormatter.
type Options struct {
	CellWidth int
	Uppercase bool
}

// GetFormatter returns the formatter for the given format.
func GetFormatter(format Format, opts Options) (Formatter, error) {
	switch format {
	case FormatText:
		return NewTextFormatter(opts.CellWidth, opts.Uppercase), nil
	case FormatYAML:
		return NewYAMLFormatter(), nil
	case FormatJSON:
		return NewJSONFormatter(), nil
	default:
		return nil, errors.Wrapf(ErrInvalidFormat, "unsupported format: %s", format)
	}
}
