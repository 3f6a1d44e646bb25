package database

import (
	"context"
	"errors"
	"sync"
	"sync/atomic"
)

// ErrPoolClosed is returned by Get once Close has been called
var ErrPoolClosed = errors.New("database pool closed")

// Opener builds a Pool
type Opener func(ctx context.Context) (*Pool, error)

// Lazy builds the pool on first use. Concurrent first callers wait for a
// single construction; a failed construction is retried by the next caller.
type Lazy struct {
	mu     sync.Mutex
	open   Opener
	pool   atomic.Pointer[Pool]
	onOpen []func(*Pool)
	closed bool
}

// NewLazy creates a Lazy pool holder. onOpen hooks run once, right after the
// pool has been built and before any caller receives it.
func NewLazy(open Opener, onOpen ...func(*Pool)) *Lazy {
	return &Lazy{open: open, onOpen: onOpen}
}

// Get returns the pool, building it if no earlier call succeeded
func (l *Lazy) Get(ctx context.Context) (*Pool, error) {
	if pool := l.pool.Load(); pool != nil {
		return pool, nil
	}

	l.mu.Lock()
	defer l.mu.Unlock()

	if pool := l.pool.Load(); pool != nil {
		return pool, nil
	}
	if l.closed {
		return nil, ErrPoolClosed
	}

	pool, err := l.open(ctx)
	if err != nil {
		return nil, err
	}

	for _, hook := range l.onOpen {
		hook(pool)
	}
	l.pool.Store(pool)
	return pool, nil
}

// Peek returns the pool if it has been built, without building it
func (l *Lazy) Peek() (*Pool, bool) {
	pool := l.pool.Load()
	return pool, pool != nil
}

// Close closes the pool if it was ever built. A closed Lazy never builds again.
func (l *Lazy) Close() {
	l.mu.Lock()
	defer l.mu.Unlock()

	l.closed = true
	if pool := l.pool.Swap(nil); pool != nil {
		pool.Close()
	}
}
