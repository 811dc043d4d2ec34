package output

import (
	"strings"

	"github.com/cockroachdb/errors"
)

// Format represents the output format type.
type Format string

const (
	// FormatText is the aligned column layout of the grid
	FormatText Format = "text"

	// FormatYAML is the YAML document output
	FormatYAML Format = "yaml"

	// FormatJSON is the JSON output format
	FormatJSON Format = "json"
)

// DefaultFormat is the default output format when none is specified.
const DefaultFormat = FormatText

// ErrInvalidFormat is returned by ParseFormat for unknown names.
var ErrInvalidFormat = errors.New("invalid format")

// ParseFormat parses a format string into a Format value.
// Accepts: "text", "yaml", "json" (case-insensitive)
func ParseFormat(s string) (Format, error) {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "text":
		return FormatText, nil
	case "yaml":
		return FormatYAML, nil
	case "json":
		return FormatJSON, nil
	default:
		return "", errors.Wrapf(ErrInvalidFormat, "%q (expected text, yaml, or json)", s)
	}
}

// String returns the string representation of the format.
func (f Format) String() string {
	return string(f)
}

// ValidateFormat checks if a format value is valid.
func ValidateFormat(f Format) bool {
	switch f {
	case FormatText, FormatYAML, FormatJSON:
		return true
	default:
		return false
	}
}
