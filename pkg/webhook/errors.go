package webhook

import "errors"

var (
	ErrInvalidConfiguration = errors.New("invalid webhook configuration")
	ErrInvalidURL           = errors.New("invalid webhook URL")
	ErrInvalidPayload       = errors.New("invalid webhook payload")
	ErrInvalidSignature     = errors.New("invalid webhook signature")

	// ErrPermanentFailure marks responses that will not succeed on retry (most 4xx).
	ErrPermanentFailure = errors.New("permanent webhook failure")
	// ErrTemporaryFailure marks network errors, 5xx and throttling responses.
	ErrTemporaryFailure = errors.New("temporary webhook failure")
	ErrTimeout          = errors.New("webhook request timeout")
	ErrCircuitOpen      = errors.New("webhook circuit breaker is open")
)

// IsCircuitOpen reports whether err came from an open circuit breaker.
func IsCircuitOpen(err error) bool {
	return errors.Is(err, ErrCircuitOpen)
}
