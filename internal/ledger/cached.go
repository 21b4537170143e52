package ledger

import (
	"context"

	"textledger/internal/cache"
	"textledger/internal/core"
)

// CachedStore memoizes Entries per key and invalidates on every write to that key.
type CachedStore struct {
	inner Store
	cache cache.Cache[[]core.Entry]
}

var _ Store = (*CachedStore)(nil)

func NewCachedStore(inner Store, c cache.Cache[[]core.Entry]) *CachedStore {
	return &CachedStore{inner: inner, cache: c}
}

func (s *CachedStore) Append(ctx context.Context, key Key, e core.Entry) error {
	defer s.cache.Delete(key.String())
	return s.inner.Append(ctx, key, e)
}

func (s *CachedStore) Entries(ctx context.Context, key Key) ([]core.Entry, error) {
	if items, ok := s.cache.Get(key.String()); ok {
		return append([]core.Entry(nil), items...), nil
	}
	items, err := s.inner.Entries(ctx, key)
	if err != nil {
		return nil, err
	}
	s.cache.Set(key.String(), append([]core.Entry(nil), items...))
	return items, nil
}

func (s *CachedStore) Undo(ctx context.Context, key Key) (core.Entry, error) {
	defer s.cache.Delete(key.String())
	return s.inner.Undo(ctx, key)
}

func (s *CachedStore) Exists(ctx context.Context, key Key) (bool, error) {
	if _, ok := s.cache.Get(key.String()); ok {
		return true, nil
	}
	return s.inner.Exists(ctx, key)
}
