package notifications

import (
	"context"
	"time"
)

// Storage handles inbox persistence and retrieval.
type Storage interface {
	// Create stores a new notification.
	Create(ctx context.Context, notif Notification) error

	// Get retrieves a single notification.
	Get(ctx context.Context, userID, notifID string) (*Notification, error)

	// List returns notifications for a user, newest first.
	List(ctx context.Context, userID string, opts ListOptions) ([]Notification, error)

	// MarkRead marks notification(s) as read.
	MarkRead(ctx context.Context, userID string, notifIDs ...string) error

	// Delete removes notification(s).
	Delete(ctx context.Context, userID string, notifIDs ...string) error

	// CountUnread returns unread count for user.
	CountUnread(ctx context.Context, userID string) (int, error)
}

// ListOptions provides filtering and pagination options for listing notifications.
type ListOptions struct {
	Limit      int        // Maximum number of notifications to return (0 = no limit)
	Offset     int        // Number of notifications to skip
	OnlyUnread bool       // Only return unread notifications
	WebsiteID  string     // Only return notifications of this website
	EventKeys  []string   // Only return notifications for these events
	Since      *time.Time // Only return notifications created after this time
}
