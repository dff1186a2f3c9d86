package redis

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
)

const (
	defaultLockTTL     = 10 * time.Second
	defaultLockBackoff = 50 * time.Millisecond
	maxLockBackoff     = time.Second
)

// ErrLockTimeout is returned when the lock stays held past the caller's deadline.
var ErrLockTimeout = errors.New("lock: timed out waiting for lock")

// lockStore defines the operations used by Locker.
type lockStore interface {
	SetNX(ctx context.Context, key string, value any, ttl time.Duration) (bool, error)
	CompareAndDelete(ctx context.Context, key, token string) (bool, error)
}

// Locker hands out Redis-backed mutual exclusion per key using SETNX with an
// owner token and a TTL.
type Locker struct {
	client  lockStore
	ttl     time.Duration
	backoff time.Duration
}

// NewLocker constructs a Locker. Zero durations fall back to defaults.
func NewLocker(client lockStore, ttl, backoff time.Duration) (*Locker, error) {
	if client == nil {
		return nil, errors.New("redis client required for lock")
	}
	if ttl <= 0 {
		ttl = defaultLockTTL
	}
	if backoff <= 0 {
		backoff = defaultLockBackoff
	}
	return &Locker{client: client, ttl: ttl, backoff: backoff}, nil
}

// Lease is a held lock.
type Lease struct {
	client lockStore
	key    string
	owner  string
}

// TryAcquire makes a single attempt on key. It reports false without error when
// another owner holds the lock.
func (l *Locker) TryAcquire(ctx context.Context, key string) (*Lease, bool, error) {
	if key == "" {
		return nil, false, errors.New("lock key is required")
	}
	owner := uuid.NewString()
	ok, err := l.client.SetNX(ctx, key, owner, l.ttl)
	if err != nil {
		return nil, false, fmt.Errorf("setnx: %w", err)
	}
	if !ok {
		return nil, false, nil
	}
	return &Lease{client: l.client, key: key, owner: owner}, true, nil
}

// Acquire blocks until key is owned or ctx ends, doubling the wait between
// attempts up to one second.
func (l *Locker) Acquire(ctx context.Context, key string) (*Lease, error) {
	if key == "" {
		return nil, errors.New("lock key is required")
	}
	owner := uuid.NewString()
	wait := l.backoff
	for {
		ok, err := l.client.SetNX(ctx, key, owner, l.ttl)
		if err != nil {
			return nil, fmt.Errorf("setnx: %w", err)
		}
		if ok {
			return &Lease{client: l.client, key: key, owner: owner}, nil
		}

		timer := time.NewTimer(wait)
		select {
		case <-ctx.Done():
			timer.Stop()
			return nil, fmt.Errorf("%w: %s", ErrLockTimeout, key)
		case <-timer.C:
		}
		if wait *= 2; wait > maxLockBackoff {
			wait = maxLockBackoff
		}
	}
}

// Release frees the lock only if the owner value still matches. The check and
// the delete run as one script so a lease that expired and was taken over is
// never deleted by its former holder.
func (l *Lease) Release(ctx context.Context) error {
	if l == nil || l.owner == "" {
		return nil
	}
	if _, err := l.client.CompareAndDelete(ctx, l.key, l.owner); err != nil {
		return fmt.Errorf("release lock: %w", err)
	}
	l.owner = ""
	return nil
}
