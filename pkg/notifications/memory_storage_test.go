package notifications_test

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/scribeworks/ordergate/pkg/notifications"
)

func seedInbox(t *testing.T, c *clock) *notifications.MemoryStorage {
	t.Helper()
	s := notifications.NewMemoryStorage(notifications.WithStorageClock(c.Now))
	seedStorage(t, s, c)
	return s
}

// seedStorage writes five notifications a minute apart; n-4 has expired and
// n-5 belongs to another user.
func seedStorage(t *testing.T, s notifications.Storage, c *clock) {
	t.Helper()
	ctx := context.Background()
	expired := c.Now().Add(-time.Second)

	for i, n := range []notifications.Notification{
		{ID: "n-1", UserID: "u-1", WebsiteID: "w-1", EventKey: "order.created"},
		{ID: "n-2", UserID: "u-1", WebsiteID: "w-1", EventKey: "order.status_changed"},
		{ID: "n-3", UserID: "u-1", WebsiteID: "w-2", EventKey: "order.status_changed"},
		{ID: "n-4", UserID: "u-1", WebsiteID: "w-1", EventKey: "order.created", ExpiresAt: &expired},
		{ID: "n-5", UserID: "u-2", WebsiteID: "w-1", EventKey: "order.created"},
	} {
		n.CreatedAt = c.Now().Add(time.Duration(i) * time.Minute)
		require.NoError(t, s.Create(ctx, n))
	}
}

func ids(list []notifications.Notification) []string {
	out := make([]string, len(list))
	for i, n := range list {
		out[i] = n.ID
	}
	return out
}

func TestMemoryStorage(t *testing.T) {
	t.Parallel()

	t.Run("create validation", func(t *testing.T) {
		t.Parallel()
		s := notifications.NewMemoryStorage()
		require.ErrorIs(t, s.Create(context.Background(), notifications.Notification{UserID: "u"}), notifications.ErrIDRequired)
		require.ErrorIs(t, s.Create(context.Background(), notifications.Notification{ID: "n"}), notifications.ErrUserIDRequired)

		n := notifications.Notification{ID: "n", UserID: "u"}
		require.NoError(t, s.Create(context.Background(), n))
		require.ErrorIs(t, s.Create(context.Background(), n), notifications.ErrNotificationExists)
	})

	t.Run("get returns a copy", func(t *testing.T) {
		t.Parallel()
		s := seedInbox(t, newClock())

		n, err := s.Get(context.Background(), "u-1", "n-2")
		require.NoError(t, err)
		n.Title = "changed"

		again, err := s.Get(context.Background(), "u-1", "n-2")
		require.NoError(t, err)
		assert.Empty(t, again.Title)

		_, err = s.Get(context.Background(), "u-1", "n-5")
		require.ErrorIs(t, err, notifications.ErrNotificationNotFound)
		_, err = s.Get(context.Background(), "nobody", "n-1")
		require.ErrorIs(t, err, notifications.ErrNotificationNotFound)
	})

	t.Run("list filters and paginates newest first", func(t *testing.T) {
		t.Parallel()
		c := newClock()
		s := seedInbox(t, c)
		ctx := context.Background()

		tests := []struct {
			name string
			opts notifications.ListOptions
			want []string
		}{
			{name: "all live", want: []string{"n-3", "n-2", "n-1"}},
			{name: "website", opts: notifications.ListOptions{WebsiteID: "w-1"}, want: []string{"n-2", "n-1"}},
			{name: "event", opts: notifications.ListOptions{EventKeys: []string{"order.created"}}, want: []string{"n-1"}},
			{name: "limit", opts: notifications.ListOptions{Limit: 2}, want: []string{"n-3", "n-2"}},
			{name: "offset", opts: notifications.ListOptions{Offset: 2, Limit: 5}, want: []string{"n-1"}},
			{name: "offset past end", opts: notifications.ListOptions{Offset: 10}, want: []string{}},
		}
		for _, tt := range tests {
			got, err := s.List(ctx, "u-1", tt.opts)
			require.NoError(t, err, tt.name)
			assert.Equal(t, tt.want, ids(got), tt.name)
		}

		since := c.Now().Add(90 * time.Second)
		got, err := s.List(ctx, "u-1", notifications.ListOptions{Since: &since})
		require.NoError(t, err)
		assert.Equal(t, []string{"n-3"}, ids(got))

		got, err = s.List(ctx, "nobody", notifications.ListOptions{})
		require.NoError(t, err)
		assert.Empty(t, got)
	})

	t.Run("mark read and delete", func(t *testing.T) {
		t.Parallel()
		c := newClock()
		s := seedInbox(t, c)
		ctx := context.Background()

		n, err := s.CountUnread(ctx, "u-1")
		require.NoError(t, err)
		assert.Equal(t, 3, n)

		require.NoError(t, s.MarkRead(ctx, "u-1", "n-1", "missing"))
		read, err := s.Get(ctx, "u-1", "n-1")
		require.NoError(t, err)
		assert.True(t, read.Read)
		require.NotNil(t, read.ReadAt)
		assert.Equal(t, c.Now(), *read.ReadAt)

		unread, err := s.List(ctx, "u-1", notifications.ListOptions{OnlyUnread: true})
		require.NoError(t, err)
		assert.Equal(t, []string{"n-3", "n-2"}, ids(unread))

		require.NoError(t, s.Delete(ctx, "u-1", "n-2"))
		require.NoError(t, s.Delete(ctx, "nobody", "n-2"))
		n, err = s.CountUnread(ctx, "u-1")
		require.NoError(t, err)
		assert.Equal(t, 1, n)
	})
}

func TestInbox(t *testing.T) {
	t.Parallel()

	c := newClock()
	inbox := notifications.NewInbox(seedInbox(t, c))
	ctx := context.Background()

	require.NoError(t, inbox.MarkAllRead(ctx, "u-1"))
	n, err := inbox.CountUnread(ctx, "u-1")
	require.NoError(t, err)
	assert.Zero(t, n)

	// Other users are untouched.
	n, err = inbox.CountUnread(ctx, "u-2")
	require.NoError(t, err)
	assert.Equal(t, 1, n)

	require.NoError(t, inbox.MarkAllRead(ctx, "nobody"))

	list, err := inbox.List(ctx, "u-1", notifications.ListOptions{})
	require.NoError(t, err)
	require.Len(t, list, 3)

	require.NoError(t, inbox.MarkRead(ctx, "u-2", "n-5"))
	require.NoError(t, inbox.Delete(ctx, "u-1", "n-1"))
	_, err = inbox.Get(ctx, "u-1", "n-1")
	require.ErrorIs(t, err, notifications.ErrNotificationNotFound)
}
