package ratelimit

import (
	"errors"

	"github.com/scribeworks/ordergate/pkg/counter"
)

var (
	// ErrRateLimitExceeded is returned when a bucket has no slots left in the
	// current window. Unwrap to *ExceededError for the wait time.
	ErrRateLimitExceeded = errors.New("rate limit exceeded")

	// ErrStoreUnavailable aliases the counter store error so callers can
	// match it without importing the counter package.
	ErrStoreUnavailable = counter.ErrStoreUnavailable

	ErrInvalidRule     = errors.New("invalid rate limit rule")
	ErrDuplicateScope  = errors.New("duplicate rate limit scope")
	ErrDuplicatePath   = errors.New("duplicate rate limit path")
	ErrKeyRequired     = errors.New("bucket key is required")
	ErrStoreRequired   = errors.New("counter store is required")
	ErrRegistryMissing = errors.New("rate limit registry is required")
)

// ExceededError carries the wait time for a throttled bucket.
type ExceededError struct {
	Scope       string
	WaitSeconds int
}

func (e *ExceededError) Error() string {
	return ErrRateLimitExceeded.Error()
}

func (e *ExceededError) Unwrap() error {
	return ErrRateLimitExceeded
}

// IsExceeded reports whether err is a rate limit rejection.
func IsExceeded(err error) bool {
	return errors.Is(err, ErrRateLimitExceeded)
}

// WaitSeconds extracts the wait time from a rate limit rejection, or 0.
func WaitSeconds(err error) int {
	var exceeded *ExceededError
	if errors.As(err, &exceeded) {
		return exceeded.WaitSeconds
	}
	return 0
}
