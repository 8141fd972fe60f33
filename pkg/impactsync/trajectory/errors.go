package trajectory

import (
	"errors"
	"fmt"
)

// ErrDataFormat marks malformed or missing columns in a trajectory or collision table.
var ErrDataFormat = errors.New("data format error")

// FormatError locates a DataFormat problem inside a table.
type FormatError struct {
	Line   int // 1-based, 0 when the problem is not tied to a row
	Column string
	Reason string
}

func (e *FormatError) Error() string {
	if e.Line > 0 {
		return fmt.Sprintf("line %d, column %q: %s", e.Line, e.Column, e.Reason)
	}
	if e.Column != "" {
		return fmt.Sprintf("column %q: %s", e.Column, e.Reason)
	}
	return e.Reason
}

func (e *FormatError) Unwrap() error { return ErrDataFormat }
