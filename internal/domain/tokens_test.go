package domain

import (
	"context"
	"runtime"
	"sync"
	"sync/atomic"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestNewTokenPool(t *testing.T) {
	pool := NewTokenPool(8, 3)
	assert.Equal(t, 8, pool.Size())
	assert.Equal(t, 2, pool.Share())

	pool = NewTokenPool(2, 4)
	assert.Equal(t, 1, pool.Share())

	pool = NewTokenPool(0, 0)
	assert.Equal(t, runtime.NumCPU(), pool.Size())
	assert.Equal(t, runtime.NumCPU(), pool.Share())
}

func TestTokenPool_BoundsConcurrency(t *testing.T) {
	pool := NewTokenPool(4, 2)

	var (
		wg      sync.WaitGroup
		running atomic.Int32
		peak    atomic.Int32
	)

	for range 8 {
		wg.Add(1)

		go func() {
			defer wg.Done()

			release, err := pool.Acquire(context.Background())
			if !assert.NoError(t, err) {
				return
			}
			defer release()

			now := running.Add(1)
			for {
				old := peak.Load()
				if now <= old || peak.CompareAndSwap(old, now) {
					break
				}
			}

			time.Sleep(5 * time.Millisecond)
			running.Add(-1)
		}()
	}

	wg.Wait()

	assert.LessOrEqual(t, peak.Load(), int32(2))
}

func TestTokenPool_AcquireCancelled(t *testing.T) {
	pool := NewTokenPool(1, 1)

	release, err := pool.Acquire(context.Background())
	require.NoError(t, err)
	defer release()

	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	_, err = pool.Acquire(ctx)
	require.ErrorIs(t, err, context.Canceled)
}
