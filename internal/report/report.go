// Package report aggregates ledger entries into per-category spending.
package report

import (
	"fmt"
	"strconv"
	"strings"
	"time"

	"github.com/shopspring/decimal"

	"textledger/internal/core"
)

// DefaultOtherThreshold is the share of total spending below which a category
// is folded into the "other" chart slice.
const DefaultOtherThreshold = 0.03

// OtherLabel names the bucket for small categories.
const OtherLabel = "other"

type (
	// CategoryTotal is the sum spent on one category.
	CategoryTotal struct {
		Category string
		Total    core.Amount
	}

	// Summary is the aggregate for one selector. PerCategory keeps first-seen order.
	Summary struct {
		Selector    core.MonthSelector
		Year        int
		TotalSpent  core.Amount
		PerCategory []CategoryTotal
	}

	// Point is one labeled chart value.
	Point struct {
		Label string
		Value core.Amount
	}
)

// Aggregate sums the entries matching sel. It returns a *core.EmptyResultError
// when nothing matches.
func Aggregate(entries []core.Entry, sel core.MonthSelector, year int) (Summary, error) {
	s := Summary{Selector: sel, Year: year}
	index := make(map[string]int)
	matched := 0
	for _, e := range entries {
		if !sel.Matches(e.Month) {
			continue
		}
		matched++
		i, ok := index[e.Category]
		if !ok {
			i = len(s.PerCategory)
			index[e.Category] = i
			s.PerCategory = append(s.PerCategory, CategoryTotal{Category: e.Category})
		}
		s.PerCategory[i].Total = s.PerCategory[i].Total.Add(e.Amount)
		s.TotalSpent = s.TotalSpent.Add(e.Amount)
	}
	if matched == 0 {
		return Summary{}, &core.EmptyResultError{Selector: sel, Year: year}
	}
	return s, nil
}

// Label is "month" or "year".
func (s Summary) Label() string {
	return s.Selector.Label()
}

// Series returns the chart slices. Categories whose total is strictly below
// threshold*TotalSpent are summed into a trailing "other" point, which is
// only present when that sum is positive.
func (s Summary) Series(threshold float64) []Point {
	cutoff := s.TotalSpent.Decimal().Mul(decimal.NewFromFloat(threshold))
	points := make([]Point, 0, len(s.PerCategory)+1)
	var other core.Amount
	for _, c := range s.PerCategory {
		if c.Total.Decimal().LessThan(cutoff) {
			other = other.Add(c.Total)
			continue
		}
		points = append(points, Point{Label: c.Category, Value: c.Total})
	}
	if other.IsPositive() {
		points = append(points, Point{Label: OtherLabel, Value: other})
	}
	return points
}

// Period names the reporting window, e.g. "October 2026" or "2026".
func (s Summary) Period() string {
	return Period(s.Selector, s.Year)
}

// Text renders the reply body for the summary.
func (s Summary) Text() string {
	var b strings.Builder
	fmt.Fprintf(&b, "In %s you spent %s, consisting of:", s.Period(), s.TotalSpent.Dollars())
	for _, c := range s.PerCategory {
		fmt.Fprintf(&b, "\n%s on %s", c.Total.Dollars(), c.Category)
	}
	return b.String()
}

// Period names a selector/year pair.
func Period(sel core.MonthSelector, year int) string {
	if sel.IsWholeYear() {
		return strconv.Itoa(year)
	}
	return time.Month(sel).String() + " " + strconv.Itoa(year)
}
