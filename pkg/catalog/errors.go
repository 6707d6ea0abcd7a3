package catalog

import (
	"errors"
	"fmt"
)

var (
	// ErrInvalidRow is matched by errors for rows failing field validation.
	ErrInvalidRow = errors.New("invalid control row")
	// ErrSchema is matched by schema validation failures.
	ErrSchema = errors.New("catalog does not match schema")
)

// ControlError ties a failure to the control row it came from. Unwrap
// exposes the cause, so errors.As reaches *outline.StructuralError.
type ControlError struct {
	ControlID string
	Line      int
	Err       error
}

func (e *ControlError) Error() string {
	if e.Line > 0 {
		return fmt.Sprintf("control %s (row %d): %v", e.ControlID, e.Line, e.Err)
	}
	return fmt.Sprintf("control %s: %v", e.ControlID, e.Err)
}

func (e *ControlError) Unwrap() error {
	return e.Err
}
