package outline

import (
	"errors"
	"fmt"
)

// ErrMissingParent is matched by every StructuralError.
var ErrMissingParent = errors.New("marker has no open parent")

// StructuralError reports a depth-2 or depth-3 marker that appeared before the
// marker it must nest under.
type StructuralError struct {
	// Line is the 1-based line number within the statement text.
	Line int
	// Text is the offending line, trimmed.
	Text string
	// Depth is the depth of the marker found on the line.
	Depth int
	// Missing is the depth of the parent marker that was not open.
	Missing int
}

func (e *StructuralError) Error() string {
	return fmt.Sprintf("line %d: depth-%d marker %q has no open depth-%d parent",
		e.Line, e.Depth, e.Text, e.Missing)
}

func (e *StructuralError) Unwrap() error {
	return ErrMissingParent
}
