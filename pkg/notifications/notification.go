package notifications

import (
	"time"
)

// Type represents the notification severity shown in the inbox.
type Type string

const (
	TypeInfo    Type = "info"
	TypeSuccess Type = "success"
	TypeWarning Type = "warning"
	TypeError   Type = "error"
)

// Delivery channel names.
const (
	ChannelInApp   = "in_app"
	ChannelEmail   = "email"
	ChannelWebhook = "webhook"
)

// Preferences maps a channel name to the user's opt-in. Channels absent from
// the map are treated as disabled.
type Preferences map[string]bool

// Enabled returns the channels switched on, sorted.
func (p Preferences) Enabled() []string {
	out := make([]string, 0, len(p))
	for ch, on := range p {
		if on {
			out = append(out, ch)
		}
	}
	sortStrings(out)
	return out
}

// Notification is one logical event addressed to one user on one website.
type Notification struct {
	ID        string         `json:"id"`
	WebsiteID string         `json:"website_id"`
	UserID    string         `json:"user_id"`
	EventKey  string         `json:"event_key"`
	Type      Type           `json:"type"`
	Title     string         `json:"title"`
	Message   string         `json:"message"`
	Link      string         `json:"link,omitempty"`
	Data      map[string]any `json:"data,omitempty"`
	Read      bool           `json:"read"`
	ReadAt    *time.Time     `json:"read_at,omitempty"`
	CreatedAt time.Time      `json:"created_at"`
	ExpiresAt *time.Time     `json:"expires_at,omitempty"`
}

// Payload returns the fields that identify repeat sends of the same event.
func (n Notification) Payload() Payload {
	return Payload{Title: n.Title, Message: n.Message, Link: n.Link}
}

// IsExpired reports whether the notification expired at now.
func (n *Notification) IsExpired(now time.Time) bool {
	if n.ExpiresAt == nil {
		return false
	}
	return now.After(*n.ExpiresAt)
}

// MarkAsRead marks the notification as read at the given time.
func (n *Notification) MarkAsRead(at time.Time) {
	n.Read = true
	n.ReadAt = &at
}

func (n Notification) validate() error {
	switch {
	case n.UserID == "":
		return ErrUserIDRequired
	case n.EventKey == "":
		return ErrEventKeyRequired
	}
	return nil
}
