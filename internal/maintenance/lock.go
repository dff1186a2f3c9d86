package maintenance

import (
	"context"
	"errors"
	"sync"

	"github.com/angelmondragon/paintref-backend/pkg/redis"
)

// lockScope namespaces the run lock next to the per-user wishlist locks.
const lockScope = "maintenance"

// Lock coordinates exclusive maintenance runs across instances.
type Lock interface {
	Acquire(ctx context.Context) (bool, error)
	Release(ctx context.Context) error
}

// RunLock is a Lock over a shared redis.Locker. A pass that finds the lock
// held is skipped rather than queued.
type RunLock struct {
	locker *redis.Locker
	key    string

	mu    sync.Mutex
	lease *redis.Lease
}

// NewRunLock binds a run lock to the given environment, so staging and
// production passes never exclude each other.
func NewRunLock(locker *redis.Locker, env string) (*RunLock, error) {
	if locker == nil {
		return nil, errors.New("locker required for maintenance lock")
	}
	if env == "" {
		return nil, errors.New("environment is required")
	}
	return &RunLock{locker: locker, key: redis.LockKey(lockScope, env)}, nil
}

func (l *RunLock) Acquire(ctx context.Context) (bool, error) {
	lease, ok, err := l.locker.TryAcquire(ctx, l.key)
	if err != nil || !ok {
		return false, err
	}
	l.mu.Lock()
	l.lease = lease
	l.mu.Unlock()
	return true, nil
}

// Release is a no-op when the lock was never acquired.
func (l *RunLock) Release(ctx context.Context) error {
	l.mu.Lock()
	lease := l.lease
	l.lease = nil
	l.mu.Unlock()
	return lease.Release(ctx)
}
