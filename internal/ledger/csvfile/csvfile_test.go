package csvfile

import (
	"context"
	"errors"
	"os"
	"testing"

	"textledger/internal/core"
	"textledger/internal/ledger"
)

func newStore(t *testing.T) *Store {
	t.Helper()
	s, err := New(t.TempDir())
	if err != nil {
		t.Fatalf("new store: %v", err)
	}
	return s
}

func entry(month, day int, amount, category, desc string) core.Entry {
	return core.Entry{Month: month, Day: day, Amount: core.MustAmount(amount), Category: category, Description: desc}
}

func readFile(t *testing.T, path string) string {
	t.Helper()
	b, err := os.ReadFile(path)
	if err != nil {
		t.Fatalf("read %s: %v", path, err)
	}
	return string(b)
}

func TestAppendCreatesHeaderOnce(t *testing.T) {
	ctx := context.Background()
	s := newStore(t)
	key := ledger.NewKey("+15550001", 2026)

	if ok, _ := s.Exists(ctx, key); ok {
		t.Fatalf("ledger should not exist yet")
	}
	if err := s.Append(ctx, key, entry(10, 15, "12.5", "food", "lunch")); err != nil {
		t.Fatalf("append: %v", err)
	}
	if err := s.Append(ctx, key, entry(10, 16, "3", "coffee", "")); err != nil {
		t.Fatalf("append: %v", err)
	}

	want := "month,day,amount,category,description\n10,15,12.50,food,lunch\n10,16,3.00,coffee,\n"
	if got := readFile(t, s.Path(key)); got != want {
		t.Errorf("file contents\n got: %q\nwant: %q", got, want)
	}
}

func TestEntriesMissingLedger(t *testing.T) {
	s := newStore(t)
	_, err := s.Entries(context.Background(), ledger.NewKey("nobody", 2026))
	if !errors.Is(err, core.ErrNotFound) {
		t.Fatalf("expected ErrNotFound, got %v", err)
	}
}

func TestAppendThenEntriesRoundTrip(t *testing.T) {
	ctx := context.Background()
	s := newStore(t)
	key := ledger.NewKey("alice", 2026)

	in := []core.Entry{
		entry(1, 2, "5", "food", "bagel"),
		entry(1, 3, "20.10", "gas", "shell, highway"),
		entry(2, 28, "100", "rent", `the "big" one`),
	}
	for _, e := range in {
		if err := s.Append(ctx, key, e); err != nil {
			t.Fatalf("append: %v", err)
		}
	}
	out, err := s.Entries(ctx, key)
	if err != nil {
		t.Fatalf("entries: %v", err)
	}
	if len(out) != len(in) {
		t.Fatalf("got %d entries, want %d", len(out), len(in))
	}
	for i := range in {
		if out[i].Month != in[i].Month || out[i].Day != in[i].Day ||
			!out[i].Amount.Equal(in[i].Amount) || out[i].Category != in[i].Category ||
			out[i].Description != in[i].Description {
			t.Errorf("entry %d: got %+v, want %+v", i, out[i], in[i])
		}
	}
}

func TestUndoIsLeftInverseOfAppend(t *testing.T) {
	ctx := context.Background()
	s := newStore(t)
	key := ledger.NewKey("bob", 2026)

	if err := s.Append(ctx, key, entry(4, 1, "7.25", "books", "paperback")); err != nil {
		t.Fatalf("append: %v", err)
	}
	before := readFile(t, s.Path(key))

	e := entry(4, 2, "1.99", "snacks", "chips")
	if err := s.Append(ctx, key, e); err != nil {
		t.Fatalf("append: %v", err)
	}
	got, err := s.Undo(ctx, key)
	if err != nil {
		t.Fatalf("undo: %v", err)
	}
	if got.Category != "snacks" || !got.Amount.Equal(e.Amount) || got.Description != "chips" {
		t.Errorf("undo returned %+v", got)
	}
	if after := readFile(t, s.Path(key)); after != before {
		t.Errorf("file not restored\n got: %q\nwant: %q", after, before)
	}
}

func TestUndoSingleRecordLeavesHeader(t *testing.T) {
	ctx := context.Background()
	s := newStore(t)
	key := ledger.NewKey("carol", 2026)

	if err := s.Append(ctx, key, entry(6, 6, "6", "misc", "")); err != nil {
		t.Fatalf("append: %v", err)
	}
	if _, err := s.Undo(ctx, key); err != nil {
		t.Fatalf("undo: %v", err)
	}
	if got := readFile(t, s.Path(key)); got != "month,day,amount,category,description\n" {
		t.Errorf("expected header only, got %q", got)
	}
	if _, err := s.Undo(ctx, key); !errors.Is(err, core.ErrUndoUnderflow) {
		t.Fatalf("expected underflow, got %v", err)
	}
	if got := readFile(t, s.Path(key)); got != "month,day,amount,category,description\n" {
		t.Errorf("underflow must not modify the file, got %q", got)
	}
}

func TestUndoMissingLedger(t *testing.T) {
	s := newStore(t)
	_, err := s.Undo(context.Background(), ledger.NewKey("dave", 2026))
	if !errors.Is(err, core.ErrUndoUnderflow) {
		t.Fatalf("expected underflow, got %v", err)
	}
}

func TestMissingTrailingNewline(t *testing.T) {
	ctx := context.Background()
	s := newStore(t)
	key := ledger.NewKey("erin", 2026)

	raw := "month,day,amount,category,description\n1,1,2.00,food,toast"
	if err := os.WriteFile(s.Path(key), []byte(raw), 0o644); err != nil {
		t.Fatalf("seed: %v", err)
	}

	t.Run("undo", func(t *testing.T) {
		got, err := s.Undo(ctx, key)
		if err != nil {
			t.Fatalf("undo: %v", err)
		}
		if got.Description != "toast" {
			t.Errorf("undo returned %+v", got)
		}
		if body := readFile(t, s.Path(key)); body != "month,day,amount,category,description\n" {
			t.Errorf("got %q", body)
		}
	})

	t.Run("append repairs newline", func(t *testing.T) {
		if err := os.WriteFile(s.Path(key), []byte(raw), 0o644); err != nil {
			t.Fatalf("seed: %v", err)
		}
		if err := s.Append(ctx, key, entry(1, 2, "3", "food", "jam")); err != nil {
			t.Fatalf("append: %v", err)
		}
		items, err := s.Entries(ctx, key)
		if err != nil {
			t.Fatalf("entries: %v", err)
		}
		if len(items) != 2 || items[1].Description != "jam" {
			t.Errorf("got %+v", items)
		}
	})
}

func TestUndoAcrossChunkBoundary(t *testing.T) {
	ctx := context.Background()
	s := newStore(t)
	key := ledger.NewKey("frank", 2026)

	long := make([]byte, core.MaxDescriptionLen)
	for i := range long {
		long[i] = 'x'
	}
	for i := 0; i < 200; i++ {
		if err := s.Append(ctx, key, entry(5, 1+i%28, "1", "bulk", string(long))); err != nil {
			t.Fatalf("append %d: %v", i, err)
		}
	}
	for i := 0; i < 200; i++ {
		if _, err := s.Undo(ctx, key); err != nil {
			t.Fatalf("undo %d: %v", i, err)
		}
	}
	if got := readFile(t, s.Path(key)); got != "month,day,amount,category,description\n" {
		t.Errorf("expected header only, got %q", got)
	}
}

func TestEntriesRejectsForeignHeader(t *testing.T) {
	s := newStore(t)
	key := ledger.NewKey("gina", 2026)
	if err := os.WriteFile(s.Path(key), []byte("a,b,c,d,e\n"), 0o644); err != nil {
		t.Fatalf("seed: %v", err)
	}
	if _, err := s.Entries(context.Background(), key); err == nil {
		t.Fatal("expected header error")
	}
}

func TestUndoSkipsTrailingBlankLines(t *testing.T) {
	ctx := context.Background()
	const header = "month,day,amount,category,description\n"
	tests := []struct {
		name string
		raw  string
	}{
		{"blank line", header + "3,1,10.00,food,\n3,2,5.00,gas,\n\n"},
		{"several blank lines", header + "3,1,10.00,food,\n3,2,5.00,gas,\n\n\n\n"},
		{"crlf", header + "3,1,10.00,food,\r\n3,2,5.00,gas,\r\n\r\n"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			s := newStore(t)
			key := ledger.NewKey("hank", 2026)
			if err := os.WriteFile(s.Path(key), []byte(tt.raw), 0o644); err != nil {
				t.Fatalf("seed: %v", err)
			}

			got, err := s.Undo(ctx, key)
			if err != nil {
				t.Fatalf("undo: %v", err)
			}
			if got.Category != "gas" {
				t.Errorf("undo returned %+v", got)
			}
			items, err := s.Entries(ctx, key)
			if err != nil {
				t.Fatalf("entries: %v", err)
			}
			if len(items) != 1 || items[0].Category != "food" {
				t.Errorf("after undo got %+v", items)
			}

			if _, err := s.Undo(ctx, key); err != nil {
				t.Fatalf("second undo: %v", err)
			}
			if _, err := s.Undo(ctx, key); !errors.Is(err, core.ErrUndoUnderflow) {
				t.Errorf("expected underflow, got %v", err)
			}
			if body := readFile(t, s.Path(key)); body != header {
				t.Errorf("expected header only, got %q", body)
			}
		})
	}
}

func TestAppendInitializesEmptyFile(t *testing.T) {
	ctx := context.Background()
	s := newStore(t)
	key := ledger.NewKey("ivy", 2026)
	if err := os.WriteFile(s.Path(key), nil, 0o644); err != nil {
		t.Fatalf("seed: %v", err)
	}

	if items, err := s.Entries(ctx, key); err != nil || len(items) != 0 {
		t.Fatalf("empty file: %v %v", items, err)
	}
	if _, err := s.Undo(ctx, key); !errors.Is(err, core.ErrUndoUnderflow) {
		t.Fatalf("expected underflow on empty file, got %v", err)
	}

	if err := s.Append(ctx, key, entry(4, 2, "8", "books", "")); err != nil {
		t.Fatalf("append: %v", err)
	}
	want := "month,day,amount,category,description\n4,2,8.00,books,\n"
	if got := readFile(t, s.Path(key)); got != want {
		t.Errorf("file contents\n got: %q\nwant: %q", got, want)
	}
}
