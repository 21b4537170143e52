package report

import (
	"errors"
	"testing"

	"textledger/internal/core"
)

func e(month int, amount, category string) core.Entry {
	return core.Entry{Month: month, Day: 1, Amount: core.MustAmount(amount), Category: category}
}

func TestAggregateMonth(t *testing.T) {
	entries := []core.Entry{
		e(3, "10.00", "food"),
		e(3, "5.00", "gas"),
	}
	s, err := Aggregate(entries, 3, 2026)
	if err != nil {
		t.Fatalf("aggregate: %v", err)
	}
	if s.TotalSpent.String() != "15.00" {
		t.Errorf("total = %s, want 15.00", s.TotalSpent)
	}
	want := []CategoryTotal{
		{Category: "food", Total: core.MustAmount("10")},
		{Category: "gas", Total: core.MustAmount("5")},
	}
	if len(s.PerCategory) != len(want) {
		t.Fatalf("got %d categories, want %d", len(s.PerCategory), len(want))
	}
	for i := range want {
		if s.PerCategory[i].Category != want[i].Category || !s.PerCategory[i].Total.Equal(want[i].Total) {
			t.Errorf("category %d = %+v, want %+v", i, s.PerCategory[i], want[i])
		}
	}
	if s.Label() != "month" {
		t.Errorf("label = %q", s.Label())
	}
}

func TestAggregateNoMatches(t *testing.T) {
	entries := []core.Entry{e(3, "10.00", "food"), e(3, "5.00", "gas")}
	_, err := Aggregate(entries, 4, 2026)
	if !errors.Is(err, core.ErrEmptyResult) {
		t.Fatalf("expected ErrEmptyResult, got %v", err)
	}
	var empty *core.EmptyResultError
	if !errors.As(err, &empty) || empty.Value() != 4 || empty.Selector.Label() != "month" {
		t.Errorf("unexpected error detail %+v", empty)
	}

	_, err = Aggregate(nil, core.WholeYear, 2024)
	if !errors.As(err, &empty) || empty.Value() != 2024 || empty.Selector.Label() != "year" {
		t.Errorf("whole-year empty result should reference the year, got %v", err)
	}
}

func TestAggregateWholeYearSumsMatch(t *testing.T) {
	entries := []core.Entry{
		e(1, "0.10", "a"), e(2, "0.20", "b"), e(3, "0.30", "a"),
		e(7, "19.99", "c"), e(12, "100.01", "b"),
	}
	s, err := Aggregate(entries, core.WholeYear, 2026)
	if err != nil {
		t.Fatalf("aggregate: %v", err)
	}
	var sum core.Amount
	for _, c := range s.PerCategory {
		sum = sum.Add(c.Total)
	}
	if !sum.Equal(s.TotalSpent) {
		t.Errorf("per-category sum %s != total %s", sum, s.TotalSpent)
	}
	if s.TotalSpent.String() != "120.60" {
		t.Errorf("total = %s", s.TotalSpent)
	}
	if s.PerCategory[0].Category != "a" || s.PerCategory[1].Category != "b" || s.PerCategory[2].Category != "c" {
		t.Errorf("first-seen order lost: %+v", s.PerCategory)
	}
}

func TestSeriesBucketsSmallCategories(t *testing.T) {
	entries := []core.Entry{
		e(5, "90.00", "rent"),
		e(5, "2.00", "gum"),
		e(5, "1.00", "stamps"),
		e(5, "7.00", "food"),
	}
	s, err := Aggregate(entries, 5, 2026)
	if err != nil {
		t.Fatalf("aggregate: %v", err)
	}
	points := s.Series(DefaultOtherThreshold)

	labels := make([]string, len(points))
	for i, p := range points {
		labels[i] = p.Label
	}
	want := []string{"rent", "food", OtherLabel}
	if len(labels) != len(want) {
		t.Fatalf("labels = %v, want %v", labels, want)
	}
	for i := range want {
		if labels[i] != want[i] {
			t.Fatalf("labels = %v, want %v", labels, want)
		}
	}
	if other := points[2].Value; other.String() != "3.00" {
		t.Errorf("other = %s, want 3.00", other)
	}
}

func TestSeriesThresholdIsStrict(t *testing.T) {
	// 3.00 is exactly 3% of 100.00 and stays on its own.
	entries := []core.Entry{e(5, "97.00", "rent"), e(5, "3.00", "tea")}
	s, _ := Aggregate(entries, 5, 2026)
	points := s.Series(DefaultOtherThreshold)
	if len(points) != 2 || points[1].Label != "tea" {
		t.Errorf("got %+v", points)
	}
}

func TestSeriesOmitsOtherWhenEmpty(t *testing.T) {
	entries := []core.Entry{e(5, "50", "a"), e(5, "50", "b")}
	s, _ := Aggregate(entries, 5, 2026)
	for _, p := range s.Series(DefaultOtherThreshold) {
		if p.Label == OtherLabel {
			t.Fatalf("unexpected other bucket in %+v", s.Series(DefaultOtherThreshold))
		}
	}
}

func TestText(t *testing.T) {
	s, _ := Aggregate([]core.Entry{e(3, "10", "food"), e(3, "5", "gas")}, 3, 2026)
	want := "In March 2026 you spent $15.00, consisting of:\n$10.00 on food\n$5.00 on gas"
	if got := s.Text(); got != want {
		t.Errorf("text\n got: %q\nwant: %q", got, want)
	}

	y, _ := Aggregate([]core.Entry{e(3, "1", "x")}, core.WholeYear, 2025)
	if got := y.Period(); got != "2025" {
		t.Errorf("period = %q", got)
	}
}
