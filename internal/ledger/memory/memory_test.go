package memory

import (
	"context"
	"errors"
	"testing"

	"textledger/internal/core"
	"textledger/internal/ledger"
)

func TestMemoryStoreLifecycle(t *testing.T) {
	ctx := context.Background()
	s := New()
	key := ledger.NewKey("+15550001", 2026)

	if _, err := s.Entries(ctx, key); !errors.Is(err, core.ErrNotFound) {
		t.Fatalf("expected not found, got %v", err)
	}
	if _, err := s.Undo(ctx, key); !errors.Is(err, core.ErrUndoUnderflow) {
		t.Fatalf("expected underflow, got %v", err)
	}

	e := core.Entry{Month: 3, Day: 1, Amount: core.MustAmount("10"), Category: "food"}
	if err := s.Append(ctx, key, e); err != nil {
		t.Fatalf("append: %v", err)
	}
	if ok, _ := s.Exists(ctx, key); !ok {
		t.Fatalf("ledger should exist after append")
	}

	got, err := s.Undo(ctx, key)
	if err != nil || got.Category != "food" {
		t.Fatalf("undo: %+v %v", got, err)
	}
	items, err := s.Entries(ctx, key)
	if err != nil || len(items) != 0 {
		t.Fatalf("expected empty existing ledger, got %v %v", items, err)
	}
	if _, err := s.Undo(ctx, key); !errors.Is(err, core.ErrUndoUnderflow) {
		t.Fatalf("expected underflow on header-only ledger, got %v", err)
	}
}

func TestMemoryStoreRejectsInvalid(t *testing.T) {
	s := New()
	err := s.Append(context.Background(), ledger.NewKey("a", 2026), core.Entry{Month: 13, Day: 1, Category: "x"})
	if !errors.Is(err, core.ErrValidation) {
		t.Fatalf("expected validation error, got %v", err)
	}
}
