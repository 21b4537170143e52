package memory

import (
	"context"
	"sync"

	"textledger/internal/core"
	"textledger/internal/ledger"
)

// Store keeps ledgers in process memory.
type Store struct {
	mu      sync.Mutex
	ledgers map[ledger.Key][]core.Entry
}

var _ ledger.Store = (*Store)(nil)

func New() *Store {
	return &Store{ledgers: make(map[ledger.Key][]core.Entry)}
}

// Append stores the entry, creating the ledger on first use.
func (s *Store) Append(_ context.Context, key ledger.Key, e core.Entry) error {
	if err := e.Validate(); err != nil {
		return err
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	s.ledgers[key] = append(s.ledgers[key], e)
	return nil
}

func (s *Store) Entries(_ context.Context, key ledger.Key) ([]core.Entry, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	items, ok := s.ledgers[key]
	if !ok {
		return nil, core.ErrNotFound
	}
	return append([]core.Entry(nil), items...), nil
}

func (s *Store) Undo(_ context.Context, key ledger.Key) (core.Entry, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	items := s.ledgers[key]
	if len(items) == 0 {
		return core.Entry{}, core.ErrUndoUnderflow
	}
	last := items[len(items)-1]
	s.ledgers[key] = items[:len(items)-1]
	return last, nil
}

func (s *Store) Exists(_ context.Context, key ledger.Key) (bool, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	_, ok := s.ledgers[key]
	return ok, nil
}
