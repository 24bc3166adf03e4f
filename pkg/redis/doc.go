// Package redis connects to the Redis server that backs rate limit counters
// and notification dedupe claims.
//
//	client, err := redis.Connect(ctx, cfg)
//	if err != nil {
//	    // abort startup
//	}
//	store, err := counter.NewRedisStore(client, counter.WithKeyPrefix(cfg.KeyPrefix))
//
// Healthcheck returns a probe for readiness endpoints.
package redis
