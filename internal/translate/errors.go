package translate

import (
	"fmt"

	"github.com/cockroachdb/errors"

	"github.com/sourceisview/siv/internal/syntax"
)

// Drop reasons. A translation error always wraps exactly one of these; the
// declaration being translated is skipped and its siblings are unaffected.
var (
	// ErrBadType is an unsupported type node shape (metatypes, member types, ...).
	ErrBadType = errors.New("bad type")
	// ErrBadRequirement is an unsupported where-clause entry.
	ErrBadRequirement = errors.New("bad requirement")
	// ErrIncompleteSource is a missing required child, such as a parameter's type.
	ErrIncompleteSource = errors.New("incomplete source")
	// ErrOtherBadness is a value outside its expected set, such as a binding
	// keyword that is neither let nor var.
	ErrOtherBadness = errors.New("other badness")
)

// IsTranslationError reports whether err is a recoverable drop.
func IsTranslationError(err error) bool {
	return errors.IsAny(err, ErrBadType, ErrBadRequirement, ErrIncompleteSource, ErrOtherBadness)
}

// Reason returns a short log tag for a translation error.
func Reason(err error) string {
	switch {
	case errors.Is(err, ErrBadType):
		return "bad_type"
	case errors.Is(err, ErrBadRequirement):
		return "bad_requirement"
	case errors.Is(err, ErrIncompleteSource):
		return "incomplete_source"
	case errors.Is(err, ErrOtherBadness):
		return "other_badness"
	default:
		return "unexpected"
	}
}

func badType(node syntax.Type) error {
	return errors.Wrapf(ErrBadType, "%s", describeType(node))
}

func badRequirement(req syntax.Requirement) error {
	return errors.Wrapf(ErrBadRequirement, "%T", req)
}

func incompleteSource(what string) error {
	return errors.Wrapf(ErrIncompleteSource, "%s", what)
}

func otherBadness(format string, args ...interface{}) error {
	return errors.Wrapf(ErrOtherBadness, format, args...)
}

func describeType(node syntax.Type) string {
	switch n := node.(type) {
	case *syntax.MemberType:
		return "member type " + n.Name
	case *syntax.MetatypeType:
		return "metatype ." + n.Kind
	case *syntax.OpaqueType:
		return "opaque type"
	case *syntax.UnknownType:
		return fmt.Sprintf("unknown type node %s %q", n.NodeType, n.Text)
	case nil:
		return "missing type"
	default:
		return fmt.Sprintf("%T", node)
	}
}
