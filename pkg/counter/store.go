package counter

import (
	"context"
	"time"
)

// Decision is the outcome of an IncrementIfUnder call.
type Decision struct {
	// Allowed reports whether the increment was admitted.
	Allowed bool
	// Count is the counter value after the call. Rejected calls do not increment.
	Count int64
	// ResetIn is the time left until the key expires.
	ResetIn time.Duration
}

// Store is a shared counter store. Both operations must be atomic across every
// process sharing the backend: two concurrent callers can never both observe
// "under the limit" for the last free slot, nor both claim the same key.
type Store interface {
	// IncrementIfUnder increments key when its current value is below limit.
	// The key expires window after its first increment.
	IncrementIfUnder(ctx context.Context, key string, limit int, window time.Duration) (Decision, error)

	// ClaimIfAbsent creates key with the given ttl unless it already exists.
	// It returns true only for the caller that created the key.
	ClaimIfAbsent(ctx context.Context, key string, ttl time.Duration) (bool, error)

	// Reset removes key.
	Reset(ctx context.Context, key string) error
}
