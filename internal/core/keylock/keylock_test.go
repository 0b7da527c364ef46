package keylock

import (
	"context"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
)

func TestAcquireRelease(t *testing.T) {
	k := New()

	release, err := k.Acquire(context.Background(), "p1:l1")
	assert.NoError(t, err)
	release()

	// Released lock can be taken again.
	release, err = k.Acquire(context.Background(), "p1:l1")
	assert.NoError(t, err)
	release()
}

func TestTryAcquireContention(t *testing.T) {
	k := New()

	release, ok := k.TryAcquire("p1:l1")
	assert.True(t, ok)

	_, ok = k.TryAcquire("p1:l1")
	assert.False(t, ok)

	// A different key is independent.
	otherRelease, ok := k.TryAcquire("p2:l1")
	assert.True(t, ok)
	otherRelease()

	release()

	release, ok = k.TryAcquire("p1:l1")
	assert.True(t, ok)
	release()
}

func TestAcquireRespectsContextCancellation(t *testing.T) {
	k := New()

	release, err := k.Acquire(context.Background(), "p1:l1")
	assert.NoError(t, err)

	ctx, cancel := context.WithTimeout(context.Background(), 20*time.Millisecond)
	defer cancel()

	_, err = k.Acquire(ctx, "p1:l1")
	assert.ErrorIs(t, err, context.DeadlineExceeded)

	release()
}

func TestAcquireSerializesSameKey(t *testing.T) {
	k := New()

	const workers = 8
	const iterations = 50

	var counter int
	var wg sync.WaitGroup
	for i := 0; i < workers; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			for j := 0; j < iterations; j++ {
				release, err := k.Acquire(context.Background(), "hot")
				if err != nil {
					t.Error(err)
					return
				}
				counter++
				release()
			}
		}()
	}
	wg.Wait()

	assert.Equal(t, workers*iterations, counter)
}

func TestLockSetShrinksWhenUnused(t *testing.T) {
	k := New()

	release, err := k.Acquire(context.Background(), "p1:l1")
	assert.NoError(t, err)

	k.mu.Lock()
	held := len(k.locks)
	k.mu.Unlock()
	assert.Equal(t, 1, held)

	release()

	k.mu.Lock()
	held = len(k.locks)
	k.mu.Unlock()
	assert.Equal(t, 0, held)
}

func TestCancelledWaiterDoesNotLeakEntry(t *testing.T) {
	k := New()

	release, err := k.Acquire(context.Background(), "p1:l1")
	assert.NoError(t, err)

	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	_, err = k.Acquire(ctx, "p1:l1")
	assert.Error(t, err)

	release()

	k.mu.Lock()
	held := len(k.locks)
	k.mu.Unlock()
	assert.Equal(t, 0, held)
}
