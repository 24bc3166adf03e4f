package notifications

import "errors"

var (
	ErrNotificationNotFound = errors.New("notification not found")
	ErrUserIDRequired       = errors.New("notification user id is required")
	ErrEventKeyRequired     = errors.New("notification event key is required")
	ErrIDRequired           = errors.New("notification id is required")
	ErrInvalidChannel       = errors.New("invalid notification channel")
	ErrInvalidTTL           = errors.New("dedupe ttl must be positive")
	ErrNoDeliverer          = errors.New("no deliverer registered for channel")
	ErrStoreRequired        = errors.New("dedupe store is required")
	ErrNoRecipient          = errors.New("notification recipient has no email address")
	ErrNotificationExists   = errors.New("notification already exists")
)
