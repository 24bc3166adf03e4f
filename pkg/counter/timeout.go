package counter

import (
	"context"
	"errors"
	"fmt"
	"time"
)

// DefaultTimeout bounds a single store round-trip.
const DefaultTimeout = 250 * time.Millisecond

// WithTimeout bounds every call to next by timeout and maps backend failures to
// ErrStoreUnavailable. Validation errors and caller cancellation pass through.
func WithTimeout(next Store, timeout time.Duration) Store {
	if timeout <= 0 {
		timeout = DefaultTimeout
	}
	return &timeoutStore{next: next, timeout: timeout}
}

type timeoutStore struct {
	next    Store
	timeout time.Duration
}

func (s *timeoutStore) IncrementIfUnder(ctx context.Context, key string, limit int, window time.Duration) (Decision, error) {
	ctx, cancel := context.WithTimeout(ctx, s.timeout)
	defer cancel()

	d, err := s.next.IncrementIfUnder(ctx, key, limit, window)
	return d, s.mapErr(ctx, err)
}

func (s *timeoutStore) ClaimIfAbsent(ctx context.Context, key string, ttl time.Duration) (bool, error) {
	ctx, cancel := context.WithTimeout(ctx, s.timeout)
	defer cancel()

	ok, err := s.next.ClaimIfAbsent(ctx, key, ttl)
	return ok, s.mapErr(ctx, err)
}

func (s *timeoutStore) Reset(ctx context.Context, key string) error {
	ctx, cancel := context.WithTimeout(ctx, s.timeout)
	defer cancel()

	return s.mapErr(ctx, s.next.Reset(ctx, key))
}

func (s *timeoutStore) mapErr(ctx context.Context, err error) error {
	switch {
	case err == nil:
		return nil
	case errors.Is(err, ErrKeyRequired),
		errors.Is(err, ErrInvalidLimit),
		errors.Is(err, ErrInvalidWindow),
		errors.Is(err, ErrStoreUnavailable):
		return err
	case errors.Is(err, context.Canceled) && !errors.Is(ctx.Err(), context.DeadlineExceeded):
		return err
	}
	return fmt.Errorf("%w: %w", ErrStoreUnavailable, err)
}
