package dataset

import (
	"errors"
	"fmt"
)

// FormatError reports input bytes or a path that could be parsed as neither
// delimited text nor a spreadsheet. Detected carries the declared MIME type
// or file extension, or "unknown", for user-facing messages.
type FormatError struct {
	Detected string
}

func (e *FormatError) Error() string {
	return fmt.Sprintf("bad file format (detected: %s)", e.Detected)
}

// InvalidPeriodError reports a period outside the supported six-value set.
// All interactive call sites use a constrained selector, so hitting this is
// a programming error rather than a user-recoverable condition.
type InvalidPeriodError struct {
	Period Period
}

func (e *InvalidPeriodError) Error() string {
	return fmt.Sprintf("invalid period %q", e.Period)
}

// MissingColumnError reports a metric or group key that is not present on
// the table. Callers are expected to consult the table's Schema first.
type MissingColumnError struct {
	Column Field
}

func (e *MissingColumnError) Error() string {
	return fmt.Sprintf("column %q not present in dataset", e.Column)
}

// ErrInvalidAggFunc is returned for aggregation functions outside
// sum/mean/max/min.
var ErrInvalidAggFunc = errors.New("invalid aggregation function")
