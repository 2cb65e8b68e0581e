package lock

import (
	"context"
	"sync"

	"github.com/google/uuid"
)

// Locker scopes mutual exclusion to a numeric key, one key per job. It is
// a throughput aid for the accept path, not the safety mechanism: a failed
// or skipped lock still leaves correctness to the matches uniqueness
// constraint.
type Locker interface {
	TryLock(ctx context.Context, key int64) (bool, error)
	Unlock(ctx context.Context, key int64) error
}

// JobKey derives a lock key from a job id the same way regardless of
// process: first four bytes of the UUID reduced modulo 2^31-1.
func JobKey(jobID uuid.UUID) int64 {
	v := uint32(jobID[0])<<24 | uint32(jobID[1])<<16 | uint32(jobID[2])<<8 | uint32(jobID[3])
	return int64(v % 2147483647)
}

// MemoryLocker is the in-process implementation, used in tests and
// single-node deployments.
type MemoryLocker struct {
	mu   sync.Mutex
	held map[int64]struct{}
}

func NewMemoryLocker() *MemoryLocker {
	return &MemoryLocker{held: make(map[int64]struct{})}
}

func (l *MemoryLocker) TryLock(_ context.Context, key int64) (bool, error) {
	l.mu.Lock()
	defer l.mu.Unlock()
	if _, ok := l.held[key]; ok {
		return false, nil
	}
	l.held[key] = struct{}{}
	return true, nil
}

func (l *MemoryLocker) Unlock(_ context.Context, key int64) error {
	l.mu.Lock()
	defer l.mu.Unlock()
	delete(l.held, key)
	return nil
}

// NopLocker relies solely on the storage uniqueness constraint.
type NopLocker struct{}

func (NopLocker) TryLock(context.Context, int64) (bool, error) { return true, nil }
func (NopLocker) Unlock(context.Context, int64) error          { return nil }
