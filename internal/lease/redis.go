package lease

import (
	"context"
	"time"

	"github.com/google/uuid"
	"github.com/redis/go-redis/v9"
)

// releaseScript deletes the key only while it still holds our owner token,
// so an expired lease re-acquired by another instance is left alone.
var releaseScript = redis.NewScript(`
if redis.call("get", KEYS[1]) == ARGV[1] then
  return redis.call("del", KEYS[1])
end
return 0`)

// Client is the subset of *redis.Client the lease needs.
type Client interface {
	redis.Scripter
	SetNX(ctx context.Context, key string, value any, expiration time.Duration) *redis.BoolCmd
}

type RedisLease struct {
	client Client
}

func NewRedisLease(client Client) *RedisLease {
	return &RedisLease{client: client}
}

// TryLock takes key for ttl. ok is false when another holder owns it.
func (l *RedisLease) TryLock(ctx context.Context, key string, ttl time.Duration) (func(context.Context) error, bool, error) {
	owner := uuid.NewString()
	ok, err := l.client.SetNX(ctx, key, owner, ttl).Result()
	if err != nil {
		return nil, false, err
	}
	if !ok {
		return nil, false, nil
	}
	release := func(ctx context.Context) error {
		return releaseScript.Run(ctx, l.client, []string{key}, owner).Err()
	}
	return release, true, nil
}
