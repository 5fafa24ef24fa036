package tx

import (
	"context"
	"sync"
	"sync/atomic"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	dErrors "propverify/pkg/domain-errors"
)

func TestShardedLock_SerialisesSameKey(t *testing.T) {
	lock := NewShardedLock(8, time.Second)
	var inFlight, maxInFlight int32
	var wg sync.WaitGroup
	for range 20 {
		wg.Add(1)
		go func() {
			defer wg.Done()
			err := lock.Run(context.Background(), "user-1|agent", func(context.Context) error {
				n := atomic.AddInt32(&inFlight, 1)
				for {
					cur := atomic.LoadInt32(&maxInFlight)
					if n <= cur || atomic.CompareAndSwapInt32(&maxInFlight, cur, n) {
						break
					}
				}
				time.Sleep(time.Millisecond)
				atomic.AddInt32(&inFlight, -1)
				return nil
			})
			assert.NoError(t, err)
		}()
	}
	wg.Wait()
	assert.Equal(t, int32(1), maxInFlight)
}

func TestShardedLock_AppliesDefaultTimeout(t *testing.T) {
	lock := NewShardedLock(1, 20*time.Millisecond)
	err := lock.Run(context.Background(), "k", func(ctx context.Context) error {
		deadline, ok := ctx.Deadline()
		require.True(t, ok)
		assert.WithinDuration(t, time.Now().Add(20*time.Millisecond), deadline, 20*time.Millisecond)
		return nil
	})
	require.NoError(t, err)
}

func TestShardedLock_CancelledContext(t *testing.T) {
	lock := NewShardedLock(4, time.Second)
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	called := false
	err := lock.Run(ctx, "k", func(context.Context) error {
		called = true
		return nil
	})
	require.Error(t, err)
	assert.False(t, called)
	assert.True(t, dErrors.HasCode(err, dErrors.CodeTimeout))
}
