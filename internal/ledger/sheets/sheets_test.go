package sheets

import (
	"context"
	"errors"
	"fmt"
	"strconv"
	"strings"
	"testing"

	"textledger/internal/core"
	"textledger/internal/ledger"
)

// fakeAPI keeps tabs as row slices and understands the ranges the store builds.
type fakeAPI struct {
	tabs    map[string][][]any
	tabCall int
}

func newFakeAPI() *fakeAPI {
	return &fakeAPI{tabs: map[string][][]any{}}
}

func (f *fakeAPI) Tabs(context.Context) ([]string, error) {
	f.tabCall++
	var out []string
	for t := range f.tabs {
		out = append(out, t)
	}
	return out, nil
}

func (f *fakeAPI) AddTab(_ context.Context, title string) error {
	if _, ok := f.tabs[title]; ok {
		return fmt.Errorf("tab %s exists", title)
	}
	f.tabs[title] = nil
	return nil
}

func (f *fakeAPI) Get(_ context.Context, rng string) ([][]any, error) {
	tab, _ := split(rng)
	rows := f.tabs[tab]
	// Sheets trims trailing empty rows.
	end := len(rows)
	for end > 0 && isBlank(toStrings(rows[end-1])) {
		end--
	}
	return rows[:end], nil
}

func (f *fakeAPI) Update(_ context.Context, rng string, rows [][]any) error {
	tab, row := split(rng)
	for len(f.tabs[tab]) < row {
		f.tabs[tab] = append(f.tabs[tab], nil)
	}
	f.tabs[tab][row-1] = rows[0]
	return nil
}

func (f *fakeAPI) Clear(_ context.Context, rng string) error {
	tab, row := split(rng)
	f.tabs[tab][row-1] = nil
	return nil
}

// split parses "'tab'!A3:E3" into ("tab", 3); column ranges return row 0.
func split(rng string) (string, int) {
	i := strings.Index(rng, "'!")
	tab := rng[1:i]
	cell := rng[i+2:]
	if j := strings.Index(cell, ":"); j >= 0 {
		cell = cell[:j]
	}
	n, _ := strconv.Atoi(strings.TrimLeft(cell, "ABCDE"))
	return tab, n
}

func TestSheetsStoreLifecycle(t *testing.T) {
	ctx := context.Background()
	api := newFakeAPI()
	s := newStore(api)
	key := ledger.NewKey("+15550001", 2026)

	if _, err := s.Entries(ctx, key); !errors.Is(err, core.ErrNotFound) {
		t.Fatalf("expected not found, got %v", err)
	}
	if _, err := s.Undo(ctx, key); !errors.Is(err, core.ErrUndoUnderflow) {
		t.Fatalf("expected underflow, got %v", err)
	}

	if err := s.Append(ctx, key, core.Entry{Month: 10, Day: 5, Amount: core.MustAmount("3.5"), Category: "coffee"}); err != nil {
		t.Fatalf("append: %v", err)
	}
	if err := s.Append(ctx, key, core.Entry{Month: 10, Day: 6, Amount: core.MustAmount("40"), Category: "gas", Description: "fill up"}); err != nil {
		t.Fatalf("append: %v", err)
	}

	rows := api.tabs[key.String()]
	if len(rows) != 3 || rows[0][0] != "month" {
		t.Fatalf("unexpected tab rows %v", rows)
	}

	items, err := s.Entries(ctx, key)
	if err != nil {
		t.Fatalf("entries: %v", err)
	}
	if len(items) != 2 || items[0].Description != "" || items[1].Amount.String() != "40.00" {
		t.Fatalf("unexpected entries %+v", items)
	}

	last, err := s.Undo(ctx, key)
	if err != nil || last.Category != "gas" {
		t.Fatalf("undo: %+v %v", last, err)
	}
	if err := s.Append(ctx, key, core.Entry{Month: 10, Day: 7, Amount: core.MustAmount("1"), Category: "gum"}); err != nil {
		t.Fatalf("append: %v", err)
	}
	items, _ = s.Entries(ctx, key)
	if len(items) != 2 || items[1].Category != "gum" {
		t.Fatalf("append after undo should reuse the row, got %+v", items)
	}

	if api.tabCall != 1 {
		t.Errorf("tab list fetched %d times, want 1", api.tabCall)
	}
}

func TestParseRows(t *testing.T) {
	values := [][]any{
		{"month", "day", "amount", "category", "description"},
		{float64(1), float64(2), "5.00", "food"},
		{},
		{"1", "3", float64(7.5), "gas", "highway"},
	}
	items, err := parseRows(values)
	if err != nil {
		t.Fatalf("parse: %v", err)
	}
	if len(items) != 2 {
		t.Fatalf("got %d items", len(items))
	}
	if items[0].Month != 1 || items[0].Day != 2 || items[0].Description != "" {
		t.Errorf("first row %+v", items[0])
	}
	if items[1].Amount.String() != "7.50" {
		t.Errorf("second amount %s", items[1].Amount)
	}
	if got := lastFilledRow(values); got != 4 {
		t.Errorf("lastFilledRow = %d, want 4", got)
	}

	if _, err := parseRows([][]any{{"date", "amount"}}); err == nil {
		t.Error("expected header error")
	}
}
