package lock

import (
	"context"
	"strconv"
	"time"
)

// SetNXStore is the slice of the redis cache the locker needs.
type SetNXStore interface {
	SetIfNotExists(ctx context.Context, key string, value string, ttl time.Duration) (bool, error)
	Delete(ctx context.Context, key string) error
}

// RedisLocker is the shared-cache implementation for deployments where
// accept requests land on multiple nodes without a shared database
// session. Keys carry a TTL so a crashed holder cannot wedge a job.
type RedisLocker struct {
	store SetNXStore
	ttl   time.Duration
}

func NewRedisLocker(store SetNXStore, ttl time.Duration) *RedisLocker {
	if ttl <= 0 {
		ttl = 15 * time.Second
	}
	return &RedisLocker{store: store, ttl: ttl}
}

func (l *RedisLocker) TryLock(ctx context.Context, key int64) (bool, error) {
	if l == nil || l.store == nil {
		return false, nil
	}
	return l.store.SetIfNotExists(ctx, redisLockKey(key), "1", l.ttl)
}

func (l *RedisLocker) Unlock(ctx context.Context, key int64) error {
	if l == nil || l.store == nil {
		return nil
	}
	return l.store.Delete(ctx, redisLockKey(key))
}

func redisLockKey(key int64) string {
	return "dispatch:accept:lock:" + strconv.FormatInt(key, 10)
}
