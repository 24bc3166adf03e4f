package counter

import "time"

func validateIncrement(key string, limit int, window time.Duration) error {
	if key == "" {
		return ErrKeyRequired
	}
	if limit <= 0 {
		return ErrInvalidLimit
	}
	if window <= 0 {
		return ErrInvalidWindow
	}
	return nil
}

func validateClaim(key string, ttl time.Duration) error {
	if key == "" {
		return ErrKeyRequired
	}
	if ttl <= 0 {
		return ErrInvalidWindow
	}
	return nil
}
