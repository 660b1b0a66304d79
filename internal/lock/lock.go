// Package lock provides the per-user serialization point that keeps the
// cooldown and cap checks of the gating engine race free.
package lock

import (
	"context"
	"fmt"
	"sync"
)

// Locker grants exclusive ownership of a key. Acquire blocks until the key
// is free or ctx is done. The returned release func is safe to call more
// than once.
type Locker interface {
	Acquire(ctx context.Context, key string) (release func(), err error)
}

// UserKey is the lock key serializing gating operations of one user.
func UserKey(userID string) string {
	return "focusgate:user:" + userID
}

type localEntry struct {
	sem  chan struct{}
	refs int
}

// LocalLocker is an in-process keyed mutex. Entries are dropped once no
// goroutine holds or waits for them.
type LocalLocker struct {
	mu      sync.Mutex
	entries map[string]*localEntry
}

// NewLocalLocker creates a LocalLocker.
func NewLocalLocker() *LocalLocker {
	return &LocalLocker{entries: make(map[string]*localEntry)}
}

// Acquire implements Locker.
func (l *LocalLocker) Acquire(ctx context.Context, key string) (func(), error) {
	l.mu.Lock()
	e, ok := l.entries[key]
	if !ok {
		e = &localEntry{sem: make(chan struct{}, 1)}
		l.entries[key] = e
	}
	e.refs++
	l.mu.Unlock()

	select {
	case e.sem <- struct{}{}:
	case <-ctx.Done():
		l.unref(key, e)
		return nil, fmt.Errorf("acquire lock %s: %w", key, ctx.Err())
	}

	var once sync.Once
	return func() {
		once.Do(func() {
			<-e.sem
			l.unref(key, e)
		})
	}, nil
}

func (l *LocalLocker) unref(key string, e *localEntry) {
	l.mu.Lock()
	defer l.mu.Unlock()
	e.refs--
	if e.refs == 0 {
		delete(l.entries, key)
	}
}

// size reports the number of live entries.
func (l *LocalLocker) size() int {
	l.mu.Lock()
	defer l.mu.Unlock()
	return len(l.entries)
}
