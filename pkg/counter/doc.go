// Package counter provides the atomic shared-counter primitives that rate
// limiting and notification de-duplication are built on.
//
// A Store exposes two operations that must be atomic across every process
// sharing the backend:
//
//   - IncrementIfUnder admits at most N increments of a key per window.
//   - ClaimIfAbsent lets exactly one caller create a key until it expires.
//
// RedisStore implements both with a Lua script and SET NX. MemoryStore is a
// single-process implementation for tests and local development.
//
// WithTimeout bounds each call and converts backend failures into
// ErrStoreUnavailable so callers can apply a fail-open or fail-closed policy:
//
//	store := counter.WithTimeout(redisStore, 200*time.Millisecond)
//	d, err := store.IncrementIfUnder(ctx, "rl:login:203.0.113.7:1767225600", 10, time.Minute)
//	if counter.IsUnavailable(err) {
//	    // decide per policy
//	}
package counter
