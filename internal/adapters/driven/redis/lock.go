package redis

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/redis/go-redis/v9"

	"github.com/engage-labs/engage-social/internal/core/ports/driven"
)

// Verify interface compliance
var _ driven.DistributedLock = (*Lock)(nil)

const lockPrefix = "engage:lock:"

// Ownership-guarded scripts: both mutate the lock key only when the
// stored owner token matches, so an instance can never release or
// extend a lock it lost to expiry.
var (
	releaseScript = redis.NewScript(`
		if redis.call("get", KEYS[1]) == ARGV[1] then
			return redis.call("del", KEYS[1])
		end
		return 0
	`)

	extendScript = redis.NewScript(`
		if redis.call("get", KEYS[1]) == ARGV[1] then
			return redis.call("pexpire", KEYS[1], ARGV[2])
		end
		return 0
	`)
)

// Lock provides mutual exclusion across worker instances, backed by a
// Redis key with a TTL. Each Lock carries a random owner token; only
// the instance that acquired a lock can release or extend it.
type Lock struct {
	client *redis.Client
	owner  string
}

// NewLock creates a distributed lock bound to a fresh owner token.
func NewLock(client *redis.Client) *Lock {
	return &Lock{
		client: client,
		owner:  uuid.NewString(),
	}
}

func lockKey(name string) string {
	return lockPrefix + name
}

// Acquire attempts to take the named lock for the given TTL. It
// returns false without error when another instance holds the lock.
func (l *Lock) Acquire(ctx context.Context, name string, ttl time.Duration) (bool, error) {
	ok, err := l.client.SetNX(ctx, lockKey(name), l.owner, ttl).Result()
	if err != nil {
		return false, fmt.Errorf("acquire lock %s: %w", name, err)
	}
	return ok, nil
}

// Release drops the named lock when this instance owns it. Releasing a
// lock that expired or belongs to another instance is a no-op.
func (l *Lock) Release(ctx context.Context, name string) error {
	err := releaseScript.Run(ctx, l.client, []string{lockKey(name)}, l.owner).Err()
	if err != nil && !errors.Is(err, redis.Nil) {
		return fmt.Errorf("release lock %s: %w", name, err)
	}
	return nil
}

// Extend pushes out the TTL of a lock this instance holds. It fails if
// the lock expired or was acquired by someone else in the meantime.
func (l *Lock) Extend(ctx context.Context, name string, ttl time.Duration) error {
	res, err := extendScript.Run(ctx, l.client, []string{lockKey(name)}, l.owner, ttl.Milliseconds()).Result()
	if err != nil {
		return fmt.Errorf("extend lock %s: %w", name, err)
	}
	if n, ok := res.(int64); !ok || n == 0 {
		return fmt.Errorf("lock %s is not held by this instance", name)
	}
	return nil
}

// Ping checks if the Redis backend is healthy.
func (l *Lock) Ping(ctx context.Context) error {
	return l.client.Ping(ctx).Err()
}
