package ratelimit

import "time"

// Result is the outcome of a rate limit check.
type Result struct {
	// Scope of the rule that was applied. Empty when no rule matched.
	Scope string

	// Allowed reports whether the attempt may proceed.
	Allowed bool

	// Limit is the rule's max count per window. Zero means unlimited.
	Limit int

	// Remaining is the number of attempts left in the current window.
	Remaining int

	// ResetAt is when the current window ends.
	ResetAt time.Time

	// WaitSeconds is the whole number of seconds until the window resets.
	// At least 1 when the attempt was throttled.
	WaitSeconds int

	// Degraded is set when the store could not be consulted and the rule's
	// fail policy decided the outcome.
	Degraded bool
}

// Unlimited reports whether no rule applied.
func (r *Result) Unlimited() bool {
	return r.Limit == 0
}

// RetryAfter returns how long to wait before the next attempt is allowed.
func (r *Result) RetryAfter() time.Duration {
	if r.Allowed {
		return 0
	}
	return time.Duration(r.WaitSeconds) * time.Second
}

// Err converts a throttled result into an *ExceededError.
func (r *Result) Err() error {
	if r.Allowed {
		return nil
	}
	return &ExceededError{Scope: r.Scope, WaitSeconds: r.WaitSeconds}
}
