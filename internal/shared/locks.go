package shared

import (
	"context"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/redis/go-redis/v9"
)

// FinalizeLockKey builds the redis key guarding a receipt's finalize step.
func FinalizeLockKey(receiptID int64) string {
	return fmt.Sprintf("receipt:%d:finalize:lock", receiptID)
}

// FinalizeLock provides per-receipt mutual exclusion so at most one finalize
// is in flight per receipt. Receipts share no other mutable state, so no
// cross-receipt locking is needed.
type FinalizeLock struct {
	client *redis.Client
	ttl    time.Duration
}

// NewFinalizeLock constructs the lock with a lease TTL acting as a crash
// backstop.
func NewFinalizeLock(client *redis.Client, ttl time.Duration) *FinalizeLock {
	if ttl <= 0 {
		ttl = 30 * time.Second
	}
	return &FinalizeLock{client: client, ttl: ttl}
}

var releaseScript = redis.NewScript(`
if redis.call("GET", KEYS[1]) == ARGV[1] then
	return redis.call("DEL", KEYS[1])
end
return 0
`)

// Acquire takes the lease for one receipt. It returns a release func on
// success and ErrLockHeld when another finalize holds it.
func (l *FinalizeLock) Acquire(ctx context.Context, receiptID int64) (func(), error) {
	if l == nil || l.client == nil {
		// Lock disabled (single-process deployments and tests).
		return func() {}, nil
	}
	key := FinalizeLockKey(receiptID)
	token := uuid.NewString()
	ok, err := l.client.SetNX(ctx, key, token, l.ttl).Result()
	if err != nil {
		return nil, err
	}
	if !ok {
		return nil, ErrLockHeld
	}
	release := func() {
		ctx, cancel := context.WithTimeout(context.Background(), 2*time.Second)
		defer cancel()
		_ = releaseScript.Run(ctx, l.client, []string{key}, token).Err()
	}
	return release, nil
}
