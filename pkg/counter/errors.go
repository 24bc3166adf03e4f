package counter

import "errors"

var (
	// ErrStoreUnavailable indicates the backing store could not be reached in time.
	ErrStoreUnavailable = errors.New("counter store unavailable")

	ErrKeyRequired    = errors.New("key is required")
	ErrInvalidLimit   = errors.New("invalid limit")
	ErrInvalidWindow  = errors.New("invalid window")
	ErrClientRequired = errors.New("redis client is required")
)

// IsUnavailable reports whether err signals an unreachable store.
func IsUnavailable(err error) bool {
	return errors.Is(err, ErrStoreUnavailable)
}
