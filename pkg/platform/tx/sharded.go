package tx

import (
	"context"
	"hash/fnv"
	"sync"
	"time"

	dErrors "propverify/pkg/domain-errors"
)

// DefaultTimeout bounds a keyed critical section when the caller's context
// has no deadline.
const DefaultTimeout = 5 * time.Second

// ShardedLock serialises work per key without a single global lock. Keys are
// distributed across a fixed set of mutexes by FNV-1a hash, so unrelated keys
// rarely contend and equal keys always do.
type ShardedLock struct {
	shards  []sync.Mutex
	timeout time.Duration
}

// NewShardedLock creates a lock with n shards (minimum 1).
func NewShardedLock(n int, timeout time.Duration) *ShardedLock {
	if n < 1 {
		n = 1
	}
	if timeout <= 0 {
		timeout = DefaultTimeout
	}
	return &ShardedLock{shards: make([]sync.Mutex, n), timeout: timeout}
}

// Run executes fn while holding the shard for key. The context passed to fn
// carries the lock timeout when the caller set no deadline.
func (l *ShardedLock) Run(ctx context.Context, key string, fn func(ctx context.Context) error) error {
	if err := ctx.Err(); err != nil {
		return dErrors.Wrap(err, dErrors.CodeTimeout, "transaction aborted: context cancelled")
	}
	if _, hasDeadline := ctx.Deadline(); !hasDeadline {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, l.timeout)
		defer cancel()
	}

	shard := &l.shards[l.shardFor(key)]
	shard.Lock()
	defer shard.Unlock()

	// Check again after acquiring lock
	if err := ctx.Err(); err != nil {
		return dErrors.Wrap(err, dErrors.CodeTimeout, "transaction aborted: context cancelled")
	}
	return fn(ctx)
}

func (l *ShardedLock) shardFor(key string) int {
	h := fnv.New32a()
	_, _ = h.Write([]byte(key))
	return int(h.Sum32() % uint32(len(l.shards)))
}
