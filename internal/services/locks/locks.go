// Package locks serializes work on a named resource, either within one
// process or across processes sharing a Redis instance.
package locks

import (
	"context"
	"errors"
	"sync"
)

// ErrNotAcquired is returned by TryLock when the key is already held
var ErrNotAcquired = errors.New("lock not acquired")

// Unlock releases a held lock. It is safe to call more than once.
type Unlock func()

// Locker hands out exclusive locks keyed by name
type Locker interface {
	// Lock blocks until key is held or ctx is done
	Lock(ctx context.Context, key string) (Unlock, error)

	// TryLock acquires key without waiting or returns ErrNotAcquired
	TryLock(ctx context.Context, key string) (Unlock, error)
}

// MemoryLocker is an in-process keyed mutex. Entries are dropped once
// nobody holds or waits on them.
type MemoryLocker struct {
	mu    sync.Mutex
	slots map[string]*slot
}

type slot struct {
	ch   chan struct{}
	refs int
}

// NewMemoryLocker creates an empty in-process locker
func NewMemoryLocker() *MemoryLocker {
	return &MemoryLocker{slots: make(map[string]*slot)}
}

func (l *MemoryLocker) acquireSlot(key string) *slot {
	l.mu.Lock()
	defer l.mu.Unlock()
	s, ok := l.slots[key]
	if !ok {
		s = &slot{ch: make(chan struct{}, 1)}
		l.slots[key] = s
	}
	s.refs++
	return s
}

func (l *MemoryLocker) releaseSlot(key string, s *slot) {
	l.mu.Lock()
	defer l.mu.Unlock()
	s.refs--
	if s.refs == 0 {
		delete(l.slots, key)
	}
}

func (l *MemoryLocker) unlocker(key string, s *slot) Unlock {
	var once sync.Once
	return func() {
		once.Do(func() {
			<-s.ch
			l.releaseSlot(key, s)
		})
	}
}

// Lock implements Locker
func (l *MemoryLocker) Lock(ctx context.Context, key string) (Unlock, error) {
	s := l.acquireSlot(key)
	select {
	case s.ch <- struct{}{}:
		return l.unlocker(key, s), nil
	case <-ctx.Done():
		l.releaseSlot(key, s)
		return nil, ctx.Err()
	}
}

// TryLock implements Locker
func (l *MemoryLocker) TryLock(ctx context.Context, key string) (Unlock, error) {
	s := l.acquireSlot(key)
	select {
	case s.ch <- struct{}{}:
		return l.unlocker(key, s), nil
	default:
		l.releaseSlot(key, s)
		return nil, ErrNotAcquired
	}
}

// held reports the number of live slots, for tests
func (l *MemoryLocker) held() int {
	l.mu.Lock()
	defer l.mu.Unlock()
	return len(l.slots)
}
