package dataset

import (
	"errors"
	"fmt"
	"strings"
)

// ErrMissingColumn is matched by every MissingSchemaError via errors.Is.
var ErrMissingColumn = errors.New("missing column")

// MissingSchemaError indicates that a column a routine depends on is absent
// from the loaded table.
type MissingSchemaError struct {
	Column    string
	Available []string
}

func (e *MissingSchemaError) Error() string {
	if e == nil {
		return "missing column"
	}
	if len(e.Available) == 0 {
		return fmt.Sprintf("missing column %q", e.Column)
	}
	return fmt.Sprintf("missing column %q (available: %s)", e.Column, strings.Join(e.Available, ", "))
}

func (e *MissingSchemaError) Is(target error) bool { return target == ErrMissingColumn }

// LengthMismatchError is returned when a derived column does not line up with
// the table rows.
type LengthMismatchError struct {
	Column string
	Got    int
	Want   int
}

func (e *LengthMismatchError) Error() string {
	return fmt.Sprintf("column %q has %d values, table has %d rows", e.Column, e.Got, e.Want)
}
