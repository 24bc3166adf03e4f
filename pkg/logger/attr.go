package logger

import (
	"log/slog"
	"time"
)

// Group creates a slog group attribute from the provided attributes.
func Group(name string, attrs ...slog.Attr) slog.Attr {
	return slog.Attr{Key: name, Value: slog.GroupValue(attrs...)}
}

// Error records err under the key "error".
// If err is nil, it returns an empty Attr which slog drops.
func Error(err error) slog.Attr {
	if err == nil {
		return slog.Attr{}
	}
	return slog.Any("error", err)
}

// UserID records the user identifier under the key "user_id".
// Empty identifiers produce an empty Attr.
func UserID(id string) slog.Attr {
	if id == "" {
		return slog.Attr{}
	}
	return slog.String("user_id", id)
}

// WebsiteID records the tenant website under the key "website_id".
func WebsiteID(id string) slog.Attr {
	if id == "" {
		return slog.Attr{}
	}
	return slog.String("website_id", id)
}

// OrderID records the order identifier under the key "order_id".
func OrderID(id string) slog.Attr {
	if id == "" {
		return slog.Attr{}
	}
	return slog.String("order_id", id)
}

// Role records a role name under the key "role".
func Role(role string) slog.Attr {
	if role == "" {
		return slog.Attr{}
	}
	return slog.String("role", role)
}

// RequestID records the request identifier under the key "request_id".
func RequestID(id string) slog.Attr {
	if id == "" {
		return slog.Attr{}
	}
	return slog.String("request_id", id)
}

// Scope records a rate-limit scope under the key "scope".
func Scope(scope string) slog.Attr {
	return slog.String("scope", scope)
}

// Channel records a notification channel under the key "channel".
func Channel(name string) slog.Attr {
	return slog.String("channel", name)
}

// EventKey records a notification event key under the key "event_key".
func EventKey(key string) slog.Attr {
	return slog.String("event_key", key)
}

// Duration records a duration under the key "duration".
func Duration(d time.Duration) slog.Attr {
	return slog.Duration("duration", d)
}

// Component records the component name under the key "component".
func Component(name string) slog.Attr {
	return slog.String("component", name)
}
