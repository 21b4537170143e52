// Package lock provides a per-key exclusive lock. Operations on the same key
// are serialized; distinct keys never contend.
package lock

import (
	"context"
	"sync"

	"golang.org/x/sync/semaphore"
)

// Keyed hands out one exclusive lock per key. Idle keys are released so the
// table only holds keys that currently have holders or waiters.
type Keyed struct {
	mu    sync.Mutex
	slots map[string]*slot
}

type slot struct {
	sem  *semaphore.Weighted
	refs int
}

func NewKeyed() *Keyed {
	return &Keyed{slots: make(map[string]*slot)}
}

// Lock blocks until key is held or ctx is done. The returned func releases
// the lock and must be called exactly once.
func (k *Keyed) Lock(ctx context.Context, key string) (func(), error) {
	k.mu.Lock()
	s, ok := k.slots[key]
	if !ok {
		s = &slot{sem: semaphore.NewWeighted(1)}
		k.slots[key] = s
	}
	s.refs++
	k.mu.Unlock()

	if err := s.sem.Acquire(ctx, 1); err != nil {
		k.release(key, s)
		return nil, err
	}

	var once sync.Once
	return func() {
		once.Do(func() {
			s.sem.Release(1)
			k.release(key, s)
		})
	}, nil
}

func (k *Keyed) release(key string, s *slot) {
	k.mu.Lock()
	defer k.mu.Unlock()
	s.refs--
	if s.refs == 0 {
		delete(k.slots, key)
	}
}

// Len returns the number of keys currently held or awaited.
func (k *Keyed) Len() int {
	k.mu.Lock()
	defer k.mu.Unlock()
	return len(k.slots)
}
