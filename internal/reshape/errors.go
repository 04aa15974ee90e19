package reshape

import (
	"errors"
	"fmt"
	"strings"
)

// ErrEmptyTable is returned when the input has a header but no data rows.
var ErrEmptyTable = errors.New("input table has no rows")

// MissingColumnError reports key columns absent from the input header.
type MissingColumnError struct {
	Columns []string
}

func (e *MissingColumnError) Error() string {
	return fmt.Sprintf("missing required column(s): %s", strings.Join(e.Columns, ", "))
}

// MalformedInputError reports an input that cannot be reshaped at all.
type MalformedInputError struct {
	Reason string
	Err    error
}

func (e *MalformedInputError) Error() string {
	if e.Err != nil && e.Reason != "" {
		return fmt.Sprintf("malformed input: %s: %v", e.Reason, e.Err)
	}
	if e.Err != nil {
		return fmt.Sprintf("malformed input: %v", e.Err)
	}
	return "malformed input: " + e.Reason
}

// Unwrap allows errors.Is(err, ErrEmptyTable).
func (e *MalformedInputError) Unwrap() error {
	return e.Err
}
