// Package sheets keeps each ledger as a tab of a Google spreadsheet. The tab
// is titled <owner>_<year> and its first row is the header record.
package sheets

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"sync"

	"textledger/internal/core"
	"textledger/internal/ledger"

	gsheet "google.golang.org/api/sheets/v4"
)

type Store struct {
	api valuesAPI

	mu   sync.Mutex
	tabs map[string]struct{}
}

var _ ledger.Store = (*Store)(nil)

// New wraps an authenticated Sheets service for one spreadsheet.
func New(svc *gsheet.Service, spreadsheetID string) (*Store, error) {
	if strings.TrimSpace(spreadsheetID) == "" {
		return nil, errors.New("missing spreadsheet id")
	}
	if svc == nil {
		return nil, errors.New("sheets service not initialized")
	}
	return newStore(&googleAPI{svc: svc, spreadsheetID: spreadsheetID}), nil
}

func newStore(api valuesAPI) *Store {
	return &Store{api: api}
}

func (s *Store) Exists(ctx context.Context, key ledger.Key) (bool, error) {
	if err := s.loadTabs(ctx); err != nil {
		return false, err
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	_, ok := s.tabs[key.String()]
	return ok, nil
}

func (s *Store) Append(ctx context.Context, key ledger.Key, e core.Entry) error {
	if err := e.Validate(); err != nil {
		return err
	}
	if err := s.ensureTab(ctx, key); err != nil {
		return err
	}
	tab := key.String()
	rows, err := s.api.Get(ctx, colRange(tab))
	if err != nil {
		return err
	}
	next := len(rows) + 1
	return s.api.Update(ctx, rowRange(tab, next), [][]any{toRow(e)})
}

func (s *Store) Entries(ctx context.Context, key ledger.Key) ([]core.Entry, error) {
	ok, err := s.Exists(ctx, key)
	if err != nil {
		return nil, err
	}
	if !ok {
		return nil, core.ErrNotFound
	}
	rows, err := s.api.Get(ctx, tableRange(key.String()))
	if err != nil {
		return nil, err
	}
	return parseRows(rows)
}

func (s *Store) Undo(ctx context.Context, key ledger.Key) (core.Entry, error) {
	ok, err := s.Exists(ctx, key)
	if err != nil {
		return core.Entry{}, err
	}
	if !ok {
		return core.Entry{}, core.ErrUndoUnderflow
	}
	tab := key.String()
	rows, err := s.api.Get(ctx, tableRange(tab))
	if err != nil {
		return core.Entry{}, err
	}
	items, err := parseRows(rows)
	if err != nil {
		return core.Entry{}, err
	}
	if len(items) == 0 {
		return core.Entry{}, core.ErrUndoUnderflow
	}
	if err := s.api.Clear(ctx, rowRange(tab, lastFilledRow(rows))); err != nil {
		return core.Entry{}, err
	}
	return items[len(items)-1], nil
}

func (s *Store) loadTabs(ctx context.Context) error {
	s.mu.Lock()
	loaded := s.tabs != nil
	s.mu.Unlock()
	if loaded {
		return nil
	}
	titles, err := s.api.Tabs(ctx)
	if err != nil {
		return err
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	s.tabs = make(map[string]struct{}, len(titles))
	for _, t := range titles {
		s.tabs[t] = struct{}{}
	}
	return nil
}

func (s *Store) ensureTab(ctx context.Context, key ledger.Key) error {
	ok, err := s.Exists(ctx, key)
	if err != nil || ok {
		return err
	}
	tab := key.String()
	if err := s.api.AddTab(ctx, tab); err != nil {
		return err
	}
	header := make([]any, len(core.Header))
	for i, h := range core.Header {
		header[i] = h
	}
	if err := s.api.Update(ctx, rowRange(tab, 1), [][]any{header}); err != nil {
		return err
	}
	s.mu.Lock()
	s.tabs[tab] = struct{}{}
	s.mu.Unlock()
	return nil
}

func colRange(tab string) string {
	return fmt.Sprintf("'%s'!A:A", tab)
}

func tableRange(tab string) string {
	return fmt.Sprintf("'%s'!A:E", tab)
}

func rowRange(tab string, row int) string {
	return fmt.Sprintf("'%s'!A%d:E%d", tab, row, row)
}

func toRow(e core.Entry) []any {
	return []any{e.Month, e.Day, e.Amount.String(), e.Category, e.Description}
}
