package locks

import (
	"context"
	"errors"
	"sync"
	"sync/atomic"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestMemoryLocker_Exclusive(t *testing.T) {
	l := NewMemoryLocker()
	ctx := context.Background()

	var inside, maxInside int32
	var wg sync.WaitGroup
	for i := 0; i < 20; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			unlock, err := l.Lock(ctx, "track:1")
			if !assert.NoError(t, err) {
				return
			}
			n := atomic.AddInt32(&inside, 1)
			for {
				m := atomic.LoadInt32(&maxInside)
				if n <= m || atomic.CompareAndSwapInt32(&maxInside, m, n) {
					break
				}
			}
			time.Sleep(time.Millisecond)
			atomic.AddInt32(&inside, -1)
			unlock()
		}()
	}
	wg.Wait()

	assert.Equal(t, int32(1), maxInside)
	assert.Equal(t, 0, l.held())
}

func TestMemoryLocker_DistinctKeysDoNotContend(t *testing.T) {
	l := NewMemoryLocker()
	ctx := context.Background()

	a, err := l.Lock(ctx, "scene:1:0")
	require.NoError(t, err)
	defer a()

	b, err := l.TryLock(ctx, "scene:1:1")
	require.NoError(t, err)
	b()
}

func TestMemoryLocker_TryLock(t *testing.T) {
	l := NewMemoryLocker()
	ctx := context.Background()

	unlock, err := l.TryLock(ctx, "k")
	require.NoError(t, err)

	_, err = l.TryLock(ctx, "k")
	assert.True(t, errors.Is(err, ErrNotAcquired))

	unlock()
	unlock() // idempotent

	again, err := l.TryLock(ctx, "k")
	require.NoError(t, err)
	again()
	assert.Equal(t, 0, l.held())
}

func TestMemoryLocker_LockHonorsContext(t *testing.T) {
	l := NewMemoryLocker()

	unlock, err := l.Lock(context.Background(), "k")
	require.NoError(t, err)
	defer unlock()

	ctx, cancel := context.WithTimeout(context.Background(), 20*time.Millisecond)
	defer cancel()
	_, err = l.Lock(ctx, "k")
	assert.ErrorIs(t, err, context.DeadlineExceeded)
}
