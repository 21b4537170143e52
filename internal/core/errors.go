package core

import (
	"errors"
	"fmt"
)

// Error kinds surfaced by the ledger engine. Callers classify with errors.Is.
var (
	ErrParse         = errors.New("not enough arguments")
	ErrValidation    = errors.New("invalid input")
	ErrNotFound      = errors.New("ledger not found")
	ErrEmptyResult   = errors.New("no matching entries")
	ErrUndoUnderflow = errors.New("nothing to undo")
)

// EmptyResultError reports a report selector that matched no entries.
type EmptyResultError struct {
	Selector MonthSelector
	Year     int
}

func (e *EmptyResultError) Error() string {
	return fmt.Sprintf("no entries for %s %d", e.Selector.Label(), e.Value())
}

// Value is the month number or, for whole-year selectors, the year.
func (e *EmptyResultError) Value() int {
	if e.Selector.IsWholeYear() {
		return e.Year
	}
	return int(e.Selector)
}

func (e *EmptyResultError) Is(target error) bool {
	return target == ErrEmptyResult
}
