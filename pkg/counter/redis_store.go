package counter

import (
	"context"
	"time"

	"github.com/redis/go-redis/v9"
)

// incrementIfUnderScript increments KEYS[1] only when its value is below
// ARGV[1]. The expiry is set on the first increment so a window never slides.
//
// Returns {allowed, count, pttl}.
var incrementIfUnderScript = redis.NewScript(`
local current = tonumber(redis.call("GET", KEYS[1]) or "0")
local limit = tonumber(ARGV[1])
if current >= limit then
	return {0, current, redis.call("PTTL", KEYS[1])}
end
current = redis.call("INCR", KEYS[1])
if current == 1 then
	redis.call("PEXPIRE", KEYS[1], ARGV[2])
end
return {1, current, redis.call("PTTL", KEYS[1])}
`)

// RedisStore implements Store on top of Redis. Atomicity comes from a Lua script
// for increments and SET NX for claims, so it is safe across processes.
type RedisStore struct {
	client redis.UniversalClient
	prefix string
}

// RedisStoreOption configures a RedisStore.
type RedisStoreOption func(*RedisStore)

// WithKeyPrefix prepends prefix to every key.
func WithKeyPrefix(prefix string) RedisStoreOption {
	return func(s *RedisStore) {
		s.prefix = prefix
	}
}

// NewRedisStore creates a Redis-backed store.
func NewRedisStore(client redis.UniversalClient, opts ...RedisStoreOption) (*RedisStore, error) {
	if client == nil {
		return nil, ErrClientRequired
	}

	s := &RedisStore{client: client}
	for _, opt := range opts {
		if opt != nil {
			opt(s)
		}
	}
	return s, nil
}

func (s *RedisStore) IncrementIfUnder(ctx context.Context, key string, limit int, window time.Duration) (Decision, error) {
	if err := validateIncrement(key, limit, window); err != nil {
		return Decision{}, err
	}

	res, err := incrementIfUnderScript.Run(ctx, s.client,
		[]string{s.prefix + key}, limit, window.Milliseconds(),
	).Int64Slice()
	if err != nil {
		return Decision{}, err
	}
	if len(res) != 3 {
		return Decision{}, redis.Nil
	}

	ttl := time.Duration(res[2]) * time.Millisecond
	if ttl < 0 {
		// Key without expiry (-1) or vanished between calls (-2).
		ttl = window
	}

	return Decision{
		Allowed: res[0] == 1,
		Count:   res[1],
		ResetIn: ttl,
	}, nil
}

func (s *RedisStore) ClaimIfAbsent(ctx context.Context, key string, ttl time.Duration) (bool, error) {
	if err := validateClaim(key, ttl); err != nil {
		return false, err
	}
	return s.client.SetNX(ctx, s.prefix+key, "1", ttl).Result()
}

func (s *RedisStore) Reset(ctx context.Context, key string) error {
	if key == "" {
		return ErrKeyRequired
	}
	return s.client.Del(ctx, s.prefix+key).Err()
}
