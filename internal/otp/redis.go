package otp

import (
	"context"
	"fmt"

	"github.com/redis/go-redis/v9"
)

const redisKeyPrefix = "otp:v1:"

// consumeScript compares and deletes in one round trip so a verify cannot
// race a concurrent Put or another verify for the same key.
var consumeScript = redis.NewScript(`
local stored = redis.call('GET', KEYS[1])
if not stored then
  return 0
end
if stored == ARGV[1] then
  redis.call('DEL', KEYS[1])
  return 1
end
return 0
`)

// RedisStore is a Store backed by a shared Redis instance. Expiry rides on
// native key TTLs, so entries vanish on their own and restarts or multiple
// server instances all observe the same codes.
type RedisStore struct {
	client *redis.Client
}

// NewRedisStore builds a Redis-backed code store.
func NewRedisStore(client *redis.Client) *RedisStore {
	return &RedisStore{client: client}
}

// Put stores code under key with a fresh TTL, replacing any live entry.
func (s *RedisStore) Put(ctx context.Context, key, code string) error {
	if err := s.client.Set(ctx, redisKey(key), code, TTL).Err(); err != nil {
		return fmt.Errorf("store otp: %w", err)
	}
	return nil
}

// ConsumeIfMatch implements the Store contract.
func (s *RedisStore) ConsumeIfMatch(ctx context.Context, key, code string) (bool, error) {
	res, err := consumeScript.Run(ctx, s.client, []string{redisKey(key)}, code).Int()
	if err != nil {
		return false, fmt.Errorf("consume otp: %w", err)
	}
	return res == 1, nil
}

func redisKey(key string) string {
	return redisKeyPrefix + normalize(key)
}
