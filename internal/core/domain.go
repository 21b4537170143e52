package core

import (
	"errors"
	"fmt"
	"strconv"
	"strings"
	"unicode"
	"unicode/utf8"
)

// MaxDescriptionLen is the maximum number of characters kept in a description.
const MaxDescriptionLen = 50

// WholeYear is the month selector that aggregates every month of a ledger.
const WholeYear MonthSelector = -1

// Header is the fixed leading record of every ledger.
var Header = []string{"month", "day", "amount", "category", "description"}

type (
	// Entry is a single spending record.
	Entry struct {
		Month       int
		Day         int
		Amount      Amount
		Category    string
		Description string
	}

	// MonthSelector filters a report: 1-12 selects a month, any negative
	// value selects the whole year.
	MonthSelector int
)

var (
	ErrInvalidDay      = errors.New("invalid day")
	ErrInvalidMonth    = errors.New("invalid month")
	ErrEmptyCategory   = errors.New("empty category")
	ErrInvalidCategory = errors.New("category must be a single word")
)

func (e Entry) Validate() error {
	if e.Month < 1 || e.Month > 12 {
		return fmt.Errorf("%w: %w %d", ErrValidation, ErrInvalidMonth, e.Month)
	}
	if e.Day < 1 || e.Day > 31 {
		return fmt.Errorf("%w: %w %d", ErrValidation, ErrInvalidDay, e.Day)
	}
	if strings.TrimSpace(e.Category) == "" {
		return fmt.Errorf("%w: %w", ErrValidation, ErrEmptyCategory)
	}
	if strings.IndexFunc(e.Category, unicode.IsSpace) >= 0 {
		return fmt.Errorf("%w: %w", ErrValidation, ErrInvalidCategory)
	}
	if utf8.RuneCountInString(e.Description) > MaxDescriptionLen {
		return fmt.Errorf("%w: description too long (max %d characters)", ErrValidation, MaxDescriptionLen)
	}
	return nil
}

// Record renders the entry in ledger field order.
func (e Entry) Record() []string {
	return []string{
		strconv.Itoa(e.Month),
		strconv.Itoa(e.Day),
		e.Amount.String(),
		e.Category,
		e.Description,
	}
}

// EntryFromRecord parses a ledger record in field order.
func EntryFromRecord(rec []string) (Entry, error) {
	if len(rec) != len(Header) {
		return Entry{}, fmt.Errorf("expected %d fields, got %d", len(Header), len(rec))
	}
	var e Entry
	var err error
	if e.Month, err = strconv.Atoi(strings.TrimSpace(rec[0])); err != nil {
		return Entry{}, fmt.Errorf("month %q: %w", rec[0], err)
	}
	if e.Day, err = strconv.Atoi(strings.TrimSpace(rec[1])); err != nil {
		return Entry{}, fmt.Errorf("day %q: %w", rec[1], err)
	}
	amt, err := ParseAmount(rec[2])
	if err != nil {
		return Entry{}, err
	}
	e.Amount = amt
	e.Category = rec[3]
	e.Description = rec[4]
	return e, nil
}

// IsHeader reports whether rec is the ledger header record.
func IsHeader(rec []string) bool {
	if len(rec) != len(Header) {
		return false
	}
	for i := range Header {
		if rec[i] != Header[i] {
			return false
		}
	}
	return true
}

// TruncateDescription limits s to MaxDescriptionLen characters.
func TruncateDescription(s string) string {
	if utf8.RuneCountInString(s) <= MaxDescriptionLen {
		return s
	}
	return string([]rune(s)[:MaxDescriptionLen])
}

// IsWholeYear reports whether the selector spans all months.
func (m MonthSelector) IsWholeYear() bool {
	return m < 0
}

// Matches reports whether an entry's month falls under the selector.
func (m MonthSelector) Matches(month int) bool {
	return m.IsWholeYear() || int(m) == month
}

// Label returns "year" for whole-year selectors and "month" otherwise.
func (m MonthSelector) Label() string {
	if m.IsWholeYear() {
		return "year"
	}
	return "month"
}
