package service

import (
	"slices"
	"sync"
)

// UserLocks serializes read-modify-write cycles per user id. A disabled
// instance hands out no-op locks.
type UserLocks struct {
	enabled bool
	mu      sync.Mutex
	locks   map[string]*userLock
}

type userLock struct {
	mu   sync.Mutex
	refs int
}

func NewUserLocks(enabled bool) *UserLocks {
	return &UserLocks{enabled: enabled, locks: make(map[string]*userLock)}
}

// Lock acquires every id in sorted order and returns the release func.
func (l *UserLocks) Lock(ids ...string) (unlock func()) {
	if l == nil || !l.enabled {
		return func() {}
	}
	keys := slices.Clone(ids)
	slices.Sort(keys)
	keys = slices.Compact(keys)

	held := make([]*userLock, 0, len(keys))
	for _, key := range keys {
		l.mu.Lock()
		ul, ok := l.locks[key]
		if !ok {
			ul = &userLock{}
			l.locks[key] = ul
		}
		ul.refs++
		l.mu.Unlock()

		ul.mu.Lock()
		held = append(held, ul)
	}

	var once sync.Once
	return func() {
		once.Do(func() {
			for i := len(held) - 1; i >= 0; i-- {
				held[i].mu.Unlock()
				l.mu.Lock()
				held[i].refs--
				if held[i].refs == 0 {
					delete(l.locks, keys[i])
				}
				l.mu.Unlock()
			}
		})
	}
}
