// Package lock provides short lived, Redis backed, mutual exclusion between
// processes.
package lock

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	goredis "github.com/redis/go-redis/v9"
	"golang.org/x/exp/slog"
)

// ErrNotAcquired is returned when the lease is already held by another holder.
var ErrNotAcquired = errors.New("lock not acquired")

// release deletes the key only if it is still held by the caller's token.
var release = goredis.NewScript(`
if redis.call("GET", KEYS[1]) == ARGV[1] then
	return redis.call("DEL", KEYS[1])
end
return 0
`)

// Locker hands out leases on named keys.
type Locker struct {
	client *goredis.Client
	prefix string
	logger *slog.Logger
}

// NewLocker returns a Locker which stores its leases in client under prefix.
func NewLocker(client *goredis.Client, prefix string, logger *slog.Logger) *Locker {
	return &Locker{client: client, prefix: prefix, logger: logger}
}

// A Lease is a held lock. A Lease expires after its TTL even if it is
// never released.
type Lease struct {
	locker *Locker
	key    string
	token  string
}

// Key returns the fully qualified key of the lease.
func (l *Lease) Key() string { return l.key }

// Acquire attempts to take the lease for key for ttl. It does not wait;
// if the lease is held it returns ErrNotAcquired.
func (l *Locker) Acquire(ctx context.Context, key string, ttl time.Duration) (*Lease, error) {
	if l.client == nil {
		return nil, fmt.Errorf("redis client is nil")
	}
	if key == "" || ttl <= 0 {
		return nil, fmt.Errorf("invalid lease: key %q, ttl %v", key, ttl)
	}
	lease := &Lease{
		locker: l,
		key:    l.prefix + key,
		token:  uuid.New().String(),
	}
	ok, err := l.client.SetNX(ctx, lease.key, lease.token, ttl).Result()
	if err != nil {
		return nil, fmt.Errorf("acquire %s: %w", lease.key, err)
	}
	if !ok {
		return nil, fmt.Errorf("%s: %w", lease.key, ErrNotAcquired)
	}
	return lease, nil
}

// Release gives up the lease. Releasing a lease which has expired, or
// which has since been taken by another holder, is not an error.
func (l *Lease) Release(ctx context.Context) error {
	if err := release.Run(ctx, l.locker.client, []string{l.key}, l.token).Err(); err != nil && err != goredis.Nil {
		return fmt.Errorf("release %s: %w", l.key, err)
	}
	return nil
}

// With runs fn while holding the lease for key and returns its result.
// The lease is released when fn returns. A lease which cannot be released
// is logged and left to expire after ttl.
func (l *Locker) With(ctx context.Context, key string, ttl time.Duration, fn func() error) error {
	lease, err := l.Acquire(ctx, key, ttl)
	if err != nil {
		return err
	}
	defer func() {
		if err := lease.Release(context.WithoutCancel(ctx)); err != nil {
			l.logger.Warn("lease not released", "key", lease.key, "ttl", ttl, "err", err)
		}
	}()
	return fn()
}
