// Package keylock provides context-aware mutual exclusion keyed by an
// arbitrary string. Mutating stock operations are serialized per
// (product, location) pair: appends on different keys proceed independently,
// two appends on the same key never interleave.
//
// The database row lock on the stock position remains the authoritative
// guard; this in-process lock keeps same-process contention off the pool.
package keylock

import (
	"context"
	"sync"
)

type entry struct {
	sem  chan struct{}
	refs int
}

// KeyLock is a set of per-key mutexes. The zero value is not usable;
// create with New.
type KeyLock struct {
	mu    sync.Mutex
	locks map[string]*entry
}

// New creates an empty KeyLock.
func New() *KeyLock {
	return &KeyLock{
		locks: make(map[string]*entry),
	}
}

// Acquire blocks until the key lock is held or ctx is done.
// The returned release function must be called exactly once.
func (k *KeyLock) Acquire(ctx context.Context, key string) (func(), error) {
	k.mu.Lock()
	e, ok := k.locks[key]
	if !ok {
		e = &entry{sem: make(chan struct{}, 1)}
		k.locks[key] = e
	}
	e.refs++
	k.mu.Unlock()

	select {
	case e.sem <- struct{}{}:
		return func() { k.release(key, e) }, nil
	case <-ctx.Done():
		k.unref(key, e)
		return nil, ctx.Err()
	}
}

// TryAcquire attempts to take the key lock without blocking.
// Returns (release, true) on success.
func (k *KeyLock) TryAcquire(key string) (func(), bool) {
	k.mu.Lock()
	e, ok := k.locks[key]
	if !ok {
		e = &entry{sem: make(chan struct{}, 1)}
		k.locks[key] = e
	}
	e.refs++
	k.mu.Unlock()

	select {
	case e.sem <- struct{}{}:
		return func() { k.release(key, e) }, true
	default:
		k.unref(key, e)
		return nil, false
	}
}

func (k *KeyLock) release(key string, e *entry) {
	<-e.sem
	k.unref(key, e)
}

// unref drops a reference and removes the map entry once unused, so the
// lock set does not grow with the product catalog.
func (k *KeyLock) unref(key string, e *entry) {
	k.mu.Lock()
	e.refs--
	if e.refs == 0 {
		delete(k.locks, key)
	}
	k.mu.Unlock()
}
