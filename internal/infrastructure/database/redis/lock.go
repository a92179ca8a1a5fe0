package redis

import (
	"context"
	"time"

	"github.com/google/uuid"
	"github.com/redis/go-redis/v9"

	"github.com/turtacn/launch-radar/pkg/errors"
)

var ErrLockNotHeld = errors.New(errors.ErrCodeConflict, "lock not held by this owner")

var mutexUnlockScript = redis.NewScript(`
	if redis.call("GET", KEYS[1]) == ARGV[1] then
		return redis.call("DEL", KEYS[1])
	else
		return 0
	end
`)

// Mutex is a single-owner lock with a TTL. Worker replicas use it so only
// one of them runs a sweep at a time.
type Mutex struct {
	client *Client
	key    string
	value  string
	ttl    time.Duration
}

func NewMutex(client *Client, name string, ttl time.Duration) *Mutex {
	return &Mutex{
		client: client,
		key:    buildLockKey(name),
		value:  uuid.NewString(),
		ttl:    ttl,
	}
}

// TryLock acquires the lock without waiting.
func (m *Mutex) TryLock(ctx context.Context) (bool, error) {
	ok, err := m.client.rdb.SetNX(ctx, m.key, m.value, m.ttl).Result()
	if err != nil {
		return false, errors.Wrap(err, errors.ErrCodeCacheError, "failed to set lock")
	}
	return ok, nil
}

// Unlock releases the lock only if this Mutex still owns it.
func (m *Mutex) Unlock(ctx context.Context) error {
	res, err := mutexUnlockScript.Run(ctx, m.client.rdb, []string{m.key}, m.value).Int64()
	if err != nil {
		return errors.Wrap(err, errors.ErrCodeCacheError, "failed to release lock")
	}
	if res == 0 {
		return ErrLockNotHeld
	}
	return nil
}

func buildLockKey(name string) string {
	return "radar:lock:" + name
}
