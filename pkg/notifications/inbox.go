package notifications

import (
	"context"
)

// Inbox is the read side of the in-app channel.
type Inbox struct {
	storage Storage
}

// NewInbox creates an inbox over storage.
func NewInbox(storage Storage) *Inbox {
	return &Inbox{storage: storage}
}

func (i *Inbox) Get(ctx context.Context, userID, notifID string) (*Notification, error) {
	return i.storage.Get(ctx, userID, notifID)
}

func (i *Inbox) List(ctx context.Context, userID string, opts ListOptions) ([]Notification, error) {
	return i.storage.List(ctx, userID, opts)
}

func (i *Inbox) MarkRead(ctx context.Context, userID string, notifIDs ...string) error {
	return i.storage.MarkRead(ctx, userID, notifIDs...)
}

// MarkAllRead marks every unread notification of the user as read.
func (i *Inbox) MarkAllRead(ctx context.Context, userID string) error {
	unread, err := i.storage.List(ctx, userID, ListOptions{OnlyUnread: true})
	if err != nil {
		return err
	}
	if len(unread) == 0 {
		return nil
	}

	ids := make([]string, len(unread))
	for idx, n := range unread {
		ids[idx] = n.ID
	}
	return i.storage.MarkRead(ctx, userID, ids...)
}

func (i *Inbox) Delete(ctx context.Context, userID string, notifIDs ...string) error {
	return i.storage.Delete(ctx, userID, notifIDs...)
}

func (i *Inbox) CountUnread(ctx context.Context, userID string) (int, error) {
	return i.storage.CountUnread(ctx, userID)
}
