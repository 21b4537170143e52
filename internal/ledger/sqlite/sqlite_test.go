package sqlite

import (
	"context"
	"errors"
	"path/filepath"
	"testing"

	"textledger/internal/core"
	"textledger/internal/ledger"
)

func newTestStore(t *testing.T) *Store {
	t.Helper()
	s, err := New(filepath.Join(t.TempDir(), "ledger.db"))
	if err != nil {
		t.Fatalf("open store: %v", err)
	}
	t.Cleanup(func() { s.Close() })
	return s
}

func TestSQLiteStoreAppendUndo(t *testing.T) {
	ctx := context.Background()
	s := newTestStore(t)
	key := ledger.NewKey("+15550001", 2026)

	if _, err := s.Entries(ctx, key); !errors.Is(err, core.ErrNotFound) {
		t.Fatalf("expected not found, got %v", err)
	}

	for _, e := range []core.Entry{
		{Month: 10, Day: 1, Amount: core.MustAmount("4.5"), Category: "food", Description: "tacos"},
		{Month: 10, Day: 2, Amount: core.MustAmount("60"), Category: "gas"},
	} {
		if err := s.Append(ctx, key, e); err != nil {
			t.Fatalf("append: %v", err)
		}
	}

	items, err := s.Entries(ctx, key)
	if err != nil {
		t.Fatalf("entries: %v", err)
	}
	if len(items) != 2 || items[0].Amount.String() != "4.50" || items[1].Category != "gas" {
		t.Fatalf("unexpected entries %+v", items)
	}

	last, err := s.Undo(ctx, key)
	if err != nil {
		t.Fatalf("undo: %v", err)
	}
	if last.Category != "gas" {
		t.Errorf("undo removed %+v, want gas entry", last)
	}
	if _, err := s.Undo(ctx, key); err != nil {
		t.Fatalf("second undo: %v", err)
	}
	if _, err := s.Undo(ctx, key); !errors.Is(err, core.ErrUndoUnderflow) {
		t.Fatalf("expected underflow, got %v", err)
	}

	ok, err := s.Exists(ctx, key)
	if err != nil || !ok {
		t.Fatalf("emptied ledger should still exist: %v %v", ok, err)
	}
	items, err = s.Entries(ctx, key)
	if err != nil || len(items) != 0 {
		t.Fatalf("expected empty ledger, got %v %v", items, err)
	}
}

func TestSQLiteStoreKeysAreIsolated(t *testing.T) {
	ctx := context.Background()
	s := newTestStore(t)
	a := ledger.NewKey("alice", 2026)
	b := ledger.NewKey("alice", 2025)

	if err := s.Append(ctx, a, core.Entry{Month: 1, Day: 1, Amount: core.MustAmount("1"), Category: "x"}); err != nil {
		t.Fatalf("append: %v", err)
	}
	if _, err := s.Undo(ctx, b); !errors.Is(err, core.ErrUndoUnderflow) {
		t.Fatalf("undo on other year should underflow, got %v", err)
	}
	if items, _ := s.Entries(ctx, a); len(items) != 1 {
		t.Fatalf("other ledger touched: %v", items)
	}
}

func TestSQLiteStoreReopen(t *testing.T) {
	ctx := context.Background()
	path := filepath.Join(t.TempDir(), "ledger.db")
	key := ledger.NewKey("bob", 2026)

	s, err := New(path)
	if err != nil {
		t.Fatalf("open: %v", err)
	}
	if err := s.Append(ctx, key, core.Entry{Month: 2, Day: 3, Amount: core.MustAmount("9.99"), Category: "music"}); err != nil {
		t.Fatalf("append: %v", err)
	}
	s.Close()

	s, err = New(path)
	if err != nil {
		t.Fatalf("reopen: %v", err)
	}
	defer s.Close()
	items, err := s.Entries(ctx, key)
	if err != nil || len(items) != 1 || items[0].Amount.String() != "9.99" {
		t.Fatalf("got %v %v", items, err)
	}
}
