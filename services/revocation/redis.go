package revocation

import (
	"context"
	"fmt"
	"time"

	"github.com/redis/go-redis/v9"
)

const rotateHeadScript = `
local current = redis.call("GET", KEYS[1])
if not current or current ~= ARGV[1] then
  return 0
end
redis.call("SET", KEYS[1], ARGV[2], "PX", ARGV[3])
return 1
`

var rotateHeadLua = redis.NewScript(rotateHeadScript)

// RedisStore is the shared revocation store. Head records live under
// keyPrefix, keyed by family id, and expire with the refresh token they
// fingerprint. RotateHead runs as a Lua script so the compare and the
// overwrite are a single atomic step on the server.
type RedisStore struct {
	client    redis.UniversalClient
	keyPrefix string
}

func NewRedisStore(client redis.UniversalClient, keyPrefix string) *RedisStore {
	return &RedisStore{
		client:    client,
		keyPrefix: keyPrefix,
	}
}

func (r *RedisStore) key(family string) string {
	return r.keyPrefix + ":" + family
}

func (r *RedisStore) SetHead(ctx context.Context, family, fingerprint string, ttl time.Duration) error {
	if err := r.client.Set(ctx, r.key(family), fingerprint, ttl).Err(); err != nil {
		return fmt.Errorf("failed to set family head: %w", err)
	}
	return nil
}

func (r *RedisStore) IsHead(ctx context.Context, family, fingerprint string) (bool, error) {
	stored, err := r.client.Get(ctx, r.key(family)).Result()
	if err != nil {
		if err == redis.Nil {
			return false, nil
		}
		return false, fmt.Errorf("failed to read family head: %w", err)
	}
	return stored == fingerprint, nil
}

func (r *RedisStore) RotateHead(ctx context.Context, family, oldFingerprint, newFingerprint string, ttl time.Duration) (bool, error) {
	swapped, err := rotateHeadLua.Run(ctx, r.client,
		[]string{r.key(family)},
		oldFingerprint, newFingerprint, ttl.Milliseconds(),
	).Int()
	if err != nil {
		return false, fmt.Errorf("failed to rotate family head: %w", err)
	}
	return swapped == 1, nil
}

func (r *RedisStore) Revoke(ctx context.Context, family string) error {
	if err := r.client.Del(ctx, r.key(family)).Err(); err != nil && err != redis.Nil {
		return fmt.Errorf("failed to revoke family: %w", err)
	}
	return nil
}
